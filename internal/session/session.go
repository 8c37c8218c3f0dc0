package session

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"yota-selfcare/internal/components/assert"
	"yota-selfcare/internal/components/chrono"
	"yota-selfcare/internal/components/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/http/httpguts"
)

var tracer = otel.Tracer("yota-selfcare/internal/session")
var meter = otel.Meter("yota-selfcare/internal/session")
var hopCounter, _ = meter.Int64Counter("session.redirect_hops")

// DefaultMaxRedirects is the hop ceiling used when Options.MaxRedirects is 0.
const DefaultMaxRedirects = 10

const (
	report_session_send          = "session.send"
	report_session_cookie_header = "session.cookie-header"
	report_session_ingest        = "session.ingest"
	report_session_redirect      = "session.redirect"
	report_session_jar_size      = "session.jar-size"
)

type Options struct {
	Transport Transport
	// defaults to telemetry.SlogAPI
	Telemetry telemetry.API
	// defaults to the system clock
	Time chrono.API
	// defaults to DefaultMaxRedirects
	MaxRedirects int
}

// Session is a cookie-aware client that follows redirects by itself so
// that cookies set on intermediate hops are kept. A Session must not be
// used by more than one goroutine at a time.
type Session struct {
	jar          *cookieJar
	transport    Transport
	time         chrono.API
	tel          telemetry.API
	maxRedirects int
}

func New(opts Options) *Session {
	assert.NotNil(opts.Transport, "transport")

	tel := opts.Telemetry
	if tel == nil {
		tel = telemetry.SlogAPI{}
	}
	clock := opts.Time
	if clock == nil {
		clock = chrono.StandardImpl{}
	}
	maxRedirects := opts.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = DefaultMaxRedirects
	}

	return &Session{
		jar:          newCookieJar(),
		transport:    opts.Transport,
		time:         clock,
		tel:          telemetry.NewScopedAPI("session", tel),
		maxRedirects: maxRedirects,
	}
}

// Execute performs one logical request: it sends `req` with the matching
// cookies, stores the cookies of every response and follows redirects until
// a non-redirect response arrives, which is returned.
//
// Transport failures are returned as *TransportError, broken redirect
// chains as *RedirectError.
func (s *Session) Execute(ctx context.Context, req Request) (*Response, error) {
	ctx, span := tracer.Start(ctx, "session:Execute")
	defer span.End()

	current, target, err := req.prepare()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		return nil, err
	}

	for hops := 0; ; hops++ {
		res, err := s.send(ctx, current, target)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "transport failed")
			return nil, err
		}
		res.URL = target
		res.Hops = hops

		if !isRedirect(res.StatusCode) {
			span.SetAttributes(attribute.Int("session.hops", hops))
			return res, nil
		}

		next, nextTarget, err := s.follow(current, target, res)
		if err == nil && hops+1 > s.maxRedirects {
			err = &RedirectError{
				StatusCode: res.StatusCode,
				URL:        target.String(),
				Location:   nextTarget.String(),
				Err:        ErrTooManyRedirects,
			}
		}
		if err != nil {
			s.tel.ReportBroken(report_session_redirect, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "redirect failed")
			return nil, err
		}

		s.tel.ReportDebug("follow redirect", res.StatusCode, target.String(), nextTarget.String())
		hopCounter.Add(ctx, 1)
		current, target = next, nextTarget
	}
}

func (s *Session) send(ctx context.Context, req Request, target *url.URL) (*Response, error) {
	ctx, span := tracer.Start(ctx, "session:send", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(req.Method),
		semconv.URLFull(target.String()),
	))
	defer span.End()

	now := s.time.Now()
	pruned := s.jar.prune(now)
	if pruned > 0 {
		s.tel.ReportDebug("pruned expired cookies", pruned)
	}

	req.Header.Del("Cookie")
	cookies := s.jar.header(target, now)
	if cookies != "" {
		if httpguts.ValidHeaderFieldValue(cookies) {
			req.Header.Set("Cookie", cookies)
		} else {
			s.tel.ReportWarning(
				report_session_cookie_header,
				fmt.Errorf("cookie header omitted: invalid characters"),
				target.String(),
			)
		}
	}

	res, err := s.transport.Send(ctx, req)
	if err != nil {
		s.tel.ReportBroken(report_session_send, err, req.Method, req.URL)
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failed")
		return nil, &TransportError{Method: req.Method, URL: req.URL, Err: err}
	}
	if res == nil {
		err := ErrNoResponse
		s.tel.ReportBroken(report_session_send, err, req.Method, req.URL)
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failed")
		return nil, &TransportError{Method: req.Method, URL: req.URL, Err: err}
	}
	if res.Header == nil {
		res.Header = http.Header{}
	}
	span.SetAttributes(semconv.HTTPResponseStatusCode(res.StatusCode))

	s.ingest(target, res.Header)
	s.tel.ReportCount(report_session_jar_size, int64(s.jar.size()))
	return res, nil
}

// ingest stores the Set-Cookie entries of a response, defaults are taken
// from the url that produced the response.
func (s *Session) ingest(target *url.URL, header http.Header) {
	cookies := ParseSetCookies(header)

	dropped := len(header.Values("Set-Cookie")) - len(cookies)
	if dropped > 0 {
		s.tel.ReportDebug("dropped unparseable set-cookie entries", dropped, target.String())
	}

	for _, c := range cookies {
		if !s.jar.ingest(c, target.Hostname(), target.Path) {
			s.tel.ReportDebug(report_session_ingest, "rejected cookie", c.Name, c.Domain, target.Hostname())
		}
	}
}

// follow builds the next hop of a redirect chain.
func (s *Session) follow(req Request, base *url.URL, res *Response) (Request, *url.URL, error) {
	location := res.Header.Get("Location")
	if location == "" {
		return Request{}, nil, &RedirectError{
			StatusCode: res.StatusCode,
			URL:        base.String(),
			Err:        ErrMissingLocation,
		}
	}
	ref, err := url.Parse(location)
	if err != nil {
		return Request{}, nil, &RedirectError{
			StatusCode: res.StatusCode,
			URL:        base.String(),
			Location:   location,
			Err:        fmt.Errorf("%w: %w", ErrInvalidLocation, err),
		}
	}
	next := base.ResolveReference(ref)
	if next.Host == "" {
		return Request{}, nil, &RedirectError{
			StatusCode: res.StatusCode,
			URL:        base.String(),
			Location:   location,
			Err:        ErrInvalidLocation,
		}
	}

	header := req.Header.Clone()
	header.Del("Set-Cookie")
	header.Del("Cookie")

	method, body := req.Method, req.Body
	if !preservesMethod(res.StatusCode) {
		method = http.MethodGet
		body = nil
		header.Del("Content-Type")
		header.Del("Content-Length")
	}

	return Request{
		Method: method,
		URL:    next.String(),
		Header: header,
		Body:   body,
	}, next, nil
}

func isRedirect(status int) bool {
	return status >= 300 && status < 400
}

// 307 and 308 must be replayed with the same method and body.
func preservesMethod(status int) bool {
	return status == http.StatusTemporaryRedirect || status == http.StatusPermanentRedirect
}
