package yota

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"
	"yota-selfcare/internal/components/telemetry"
	"yota-selfcare/internal/session"

	"github.com/stretchr/testify/require"
)

type fakeYota struct {
	server *httptest.Server

	mutex        sync.Mutex
	loginForm    url.Values
	changeOffers []url.Values
}

func newFakeYota(t testing.TB) *fakeYota {
	f := &fakeYota{}
	mux := http.NewServeMux()

	mux.HandleFunc("/UI/Login", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		f.mutex.Lock()
		f.loginForm = r.PostForm
		f.mutex.Unlock()

		if r.PostForm.Get("IDToken1") != "user" || r.PostForm.Get("IDToken2") != "secret" {
			http.Redirect(w, r, r.PostForm.Get("gotoOnFail"), http.StatusFound)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "AMAuthCookie", Value: "token", Path: "/"})
		http.Redirect(w, r, r.PostForm.Get("goto"), http.StatusFound)
	})
	mux.HandleFunc("/selfcare/loginSuccess", func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("AMAuthCookie"); err != nil {
			http.Redirect(w, r, "/selfcare/loginError", http.StatusFound)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "session", Path: "/selfcare"})
		http.Redirect(w, r, "/selfcare/devices", http.StatusFound)
	})
	mux.HandleFunc("/selfcare/loginError", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, yotaHTML(`<form><input name="IDToken1" /></form>`))
	})
	mux.HandleFunc("/selfcare/devices", func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("JSESSIONID"); err != nil {
			io.WriteString(w, yotaHTML(`<form><input name="IDToken1" /></form>`))
			return
		}
		io.WriteString(w, yotaHTML(
			productForm("123312123", "8970101")+
				productForm("312123321", "8970102")+
				fmt.Sprintf("<script>var sliderData = %s;</script>", sliderDataJSON()),
		))
	})
	mux.HandleFunc("/selfcare/devices/changeOffer", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		f.mutex.Lock()
		f.changeOffers = append(f.changeOffers, r.PostForm)
		f.mutex.Unlock()
		http.Redirect(w, r, "/selfcare/devices", http.StatusFound)
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeYota) client(t testing.TB) Client {
	tel := telemetry.SlogAPI{}
	sess := session.New(session.Options{
		Transport: session.NewRestyTransport(tel, session.RestyOptions{Timeout: 5 * time.Second}),
		Telemetry: tel,
	})
	client, err := NewClient(sess, tel, ClientOptions{
		LoginUrl:    f.server.URL + "/UI/Login",
		SelfcareUrl: f.server.URL + "/selfcare/",
	})
	require.NoError(t, err)
	return client
}

func TestClientFlow(t *testing.T) {
	fake := newFakeYota(t)
	client := fake.client(t)
	ctx := context.Background()

	require.NoError(t, client.Login(ctx, "user", "secret"))
	require.Equal(t, url.Values{
		"IDToken1":   {"user"},
		"IDToken2":   {"secret"},
		"goto":       {fake.server.URL + "/selfcare/loginSuccess"},
		"gotoOnFail": {fake.server.URL + "/selfcare/loginError"},
		"org":        {"customer"},
		"ForceAuth":  {"true"},
		"old-token":  {""},
	}, fake.loginForm)

	devices, err := client.Devices(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"8970101": "123312123",
		"8970102": "312123321",
	}, devices.ICCIDs)
	require.Len(t, devices.Products, 2)

	product, err := devices.FindProduct("8970102")
	require.NoError(t, err)
	step, err := product.FindStep("max")
	require.NoError(t, err)

	require.NoError(t, client.ChangeOffer(ctx, product, step))
	require.Len(t, fake.changeOffers, 1)
	require.Equal(t, url.Values{
		"product":                {"312123321"},
		"offerCode":              {"POS-MA6-0010"},
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
	}, fake.changeOffers[0])
}

func TestClientLoginRejected(t *testing.T) {
	fake := newFakeYota(t)
	client := fake.client(t)

	err := client.Login(context.Background(), "user", "wrong")
	require.ErrorIs(t, err, ErrLoginFailed)
}

func TestClientDevicesNotLoggedIn(t *testing.T) {
	fake := newFakeYota(t)
	client := fake.client(t)

	_, err := client.Devices(context.Background())
	require.ErrorIs(t, err, ErrLoginFailed)
}

func TestPageWithPort(t *testing.T) {
	testCases := []struct {
		base   string
		expect string
	}{
		{base: "https://my.yota.ru/selfcare", expect: "https://my.yota.ru:443/selfcare/loginSuccess"},
		{base: "http://my.yota.ru/selfcare/", expect: "http://my.yota.ru:80/selfcare/loginSuccess"},
		{base: "http://127.0.0.1:8080/selfcare", expect: "http://127.0.0.1:8080/selfcare/loginSuccess"},
	}

	for _, test := range testCases {
		client, err := NewClient(
			session.New(session.Options{Transport: session.NewRestyTransport(telemetry.SlogAPI{}, session.RestyOptions{})}),
			telemetry.SlogAPI{},
			ClientOptions{SelfcareUrl: test.base},
		)
		require.NoError(t, err)
		require.Equal(t, test.expect, client.pageWithPort("loginSuccess"), test.base)
	}
}
