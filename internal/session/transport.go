package session

import (
	"context"
	"net/http"
	"time"
	"yota-selfcare/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type RestyOptions struct {
	// defaults to 30 seconds
	Timeout time.Duration
	// defaults to a desktop chrome user agent
	UserAgent string
	// wraps the http transport with the cloudflare bypass round tripper
	BypassCloudflare bool
	// when set, every exchange is dumped to it
	Output telemetry.InstrumentOutput
}

// RestyTransport sends single requests through resty. Redirects and
// cookies are left to the Session.
type RestyTransport struct {
	http *resty.Client
}

func NewRestyTransport(tel telemetry.API, opts RestyOptions) RestyTransport {
	tel = telemetry.NewScopedAPI("transport", tel)

	httpClient := resty.New()
	httpClient.SetCookieJar(nil)
	httpClient.SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}))
	if opts.BypassCloudflare {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	httpClient.SetHeader("user-agent", userAgent)

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Second * 30
	}
	httpClient.SetTimeout(timeout)

	telemetry.InstrumentResty(httpClient, tel, opts.Output)

	return RestyTransport{http: httpClient}
}

func (t RestyTransport) Send(ctx context.Context, req Request) (*Response, error) {
	r := t.http.R().SetContext(ctx)
	for key, values := range req.Header {
		for _, v := range values {
			r.Header.Add(key, v)
		}
	}
	if len(req.Body) > 0 {
		r.SetBody(req.Body)
	}

	res, err := r.Execute(req.Method, req.URL)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: res.StatusCode(),
		Header:     res.Header().Clone(),
		Body:       res.Body(),
	}, nil
}
