// client.go drives the yota self-care pages through a session, everything
// that is specific to the shape of those pages lives in scraping.go.

package yota

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"yota-selfcare/internal/components/assert"
	"yota-selfcare/internal/components/telemetry"
	"yota-selfcare/internal/session"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("yota-selfcare/internal/scrapers/yota")

const (
	report_client_login        = "client.login"
	report_client_devices      = "client.devices"
	report_client_change_offer = "client.change-offer"
)

const (
	DefaultLoginUrl    = "https://login.yota.ru/UI/Login"
	DefaultSelfcareUrl = "https://my.yota.ru/selfcare"
)

type ClientOptions struct {
	// defaults to DefaultLoginUrl
	LoginUrl string
	// defaults to DefaultSelfcareUrl
	SelfcareUrl string
}

// Client is a logged in (or about to be logged in) yota account.
type Client struct {
	session     *session.Session
	loginUrl    string
	selfcareUrl *url.URL
	tel         telemetry.API
}

func NewClient(sess *session.Session, tel telemetry.API, opts ClientOptions) (Client, error) {
	assert.NotNil(sess, "session")
	assert.NotNil(tel, "telemetry")

	tel = telemetry.NewScopedAPI("yota_scraper", tel)

	loginUrl := opts.LoginUrl
	if loginUrl == "" {
		loginUrl = DefaultLoginUrl
	}
	rawSelfcare := opts.SelfcareUrl
	if rawSelfcare == "" {
		rawSelfcare = DefaultSelfcareUrl
	}
	selfcareUrl, err := url.Parse(strings.TrimSuffix(rawSelfcare, "/"))
	if err != nil {
		return Client{}, fmt.Errorf("parse selfcare url: %w", err)
	}

	return Client{
		session:     sess,
		loginUrl:    loginUrl,
		selfcareUrl: selfcareUrl,
		tel:         tel,
	}, nil
}

// page returns the absolute url of a self-care page.
func (c Client) page(name string) string {
	return c.selfcareUrl.JoinPath(name).String()
}

// pageWithPort is page with the port spelled out, the login form expects
// its redirect targets in this form.
func (c Client) pageWithPort(name string) string {
	target := c.selfcareUrl.JoinPath(name)
	if target.Port() == "" {
		switch target.Scheme {
		case "https":
			target.Host += ":443"
		case "http":
			target.Host += ":80"
		}
	}
	return target.String()
}

func (c Client) Login(ctx context.Context, username, password string) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	loginError := func(err error) error {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		return fmt.Errorf("yota scraper: login failed: %w", err)
	}

	res, err := c.session.Execute(ctx, session.Request{
		Method: http.MethodPost,
		URL:    c.loginUrl,
		Form: url.Values{
			"IDToken1":   {username},
			"IDToken2":   {password},
			"goto":       {c.pageWithPort("loginSuccess")},
			"gotoOnFail": {c.pageWithPort("loginError")},
			"org":        {"customer"},
			"ForceAuth":  {"true"},
			"old-token":  {""},
		},
	})
	if err != nil {
		c.tel.ReportBroken(report_client_login, fmt.Errorf("login request: %w", err))
		return loginError(err)
	}
	span.SetAttributes(attribute.String("final_url", res.URL.String()))

	if strings.Contains(res.URL.String(), "loginError") {
		return loginError(ErrLoginFailed)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body))
	if err != nil {
		c.tel.ReportBroken(report_client_login, fmt.Errorf("parse login response: %w", err))
		return loginError(err)
	}
	if isLoginPage(doc) {
		return loginError(ErrLoginFailed)
	}
	if res.StatusCode >= 400 {
		err := fmt.Errorf("unexpected status %d", res.StatusCode)
		c.tel.ReportBroken(report_client_login, err, res.URL.String())
		return loginError(err)
	}
	return nil
}

// Devices scrapes the products of the account off the devices page.
func (c Client) Devices(ctx context.Context) (Devices, error) {
	ctx, span := tracer.Start(ctx, "client:Devices")
	defer span.End()

	devicesError := func(err error) error {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get devices")
		return fmt.Errorf("yota scraper: devices: %w", err)
	}

	res, err := c.session.Execute(ctx, session.Request{
		Method: http.MethodGet,
		URL:    c.page("devices"),
	})
	if err != nil {
		c.tel.ReportBroken(report_client_devices, fmt.Errorf("devices request: %w", err))
		return Devices{}, devicesError(err)
	}
	if res.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %d", res.StatusCode)
		c.tel.ReportBroken(report_client_devices, err)
		return Devices{}, devicesError(err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body))
	if err != nil {
		c.tel.ReportBroken(report_client_devices, fmt.Errorf("parse devices page: %w", err))
		return Devices{}, devicesError(err)
	}
	if isLoginPage(doc) {
		return Devices{}, devicesError(fmt.Errorf("%w: session is not logged in", ErrLoginFailed))
	}

	sliderData, err := ParseSliderData(doc)
	if err != nil {
		c.tel.ReportBroken(report_client_devices, err)
		return Devices{}, devicesError(err)
	}
	products, err := DecodeProducts(sliderData)
	if err != nil {
		c.tel.ReportBroken(report_client_devices, err)
		return Devices{}, devicesError(err)
	}

	iccids := ParseICCIDMap(doc)
	for iccid, productId := range iccids {
		if _, ok := products[productId]; !ok {
			c.tel.ReportWarning(
				report_client_devices,
				fmt.Errorf("iccid refers to an unknown product"),
				iccid,
				productId,
			)
		}
	}
	span.SetAttributes(attribute.Int("products", len(products)))

	return Devices{
		ICCIDs:   iccids,
		Products: products,
	}, nil
}

// ChangeOffer switches `product` to the tariff of `step`.
func (c Client) ChangeOffer(ctx context.Context, product Product, step Step) error {
	ctx, span := tracer.Start(ctx, "client:ChangeOffer")
	defer span.End()
	span.SetAttributes(
		attribute.String("product", string(product.ProductID)),
		attribute.String("offer", step.Code),
	)

	res, err := c.session.Execute(ctx, session.Request{
		Method: http.MethodPost,
		URL:    c.page("devices/changeOffer"),
		Header: http.Header{"Referer": {c.page("devices")}},
		Form: url.Values{
			"product":                {string(product.ProductID)},
			"offerCode":              {step.Code},
			"areOffersAvailable":     {"false"},
			"status":                 {"custom"},
			"autoprolong":            {"0"},
			"isSlot":                 {"false"},
			"currentDevice":          {"1"},
			"isDisablingAutoprolong": {"false"},
			"resourceId":             {""},
			"username":               {""},
			"homeOfferCode":          {""},
			"period":                 {""},
		},
	})
	if err != nil {
		c.tel.ReportBroken(report_client_change_offer, fmt.Errorf("change offer request: %w", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to change offer")
		return fmt.Errorf("yota scraper: change offer: %w", err)
	}
	if res.StatusCode >= 400 {
		err := fmt.Errorf("unexpected status %d", res.StatusCode)
		c.tel.ReportBroken(report_client_change_offer, err, string(product.ProductID), step.Code)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to change offer")
		return fmt.Errorf("yota scraper: change offer: %w", err)
	}
	return nil
}
