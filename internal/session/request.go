package session

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Request describes one logical request. The session copies it before
// sending, so the caller's value is never modified.
type Request struct {
	Method string
	// URL must be absolute.
	URL    string
	Header http.Header
	Body   []byte
	// Form is url-encoded into the body when Body is empty.
	Form url.Values
}

// Response is the fully buffered result of one hop.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// URL is the url of the request that produced this response.
	URL *url.URL
	// Hops is the amount of redirects followed before this response.
	Hops int
}

func (r *Response) String() string {
	return string(r.Body)
}

// Transport sends exactly one request and must not follow redirects or
// manage cookies itself. A nil response with a nil error is reported as a
// *TransportError wrapping ErrNoResponse.
type Transport interface {
	Send(ctx context.Context, req Request) (*Response, error)
}

// prepare validates the request and returns a private copy with the form
// encoded into the body, along with the parsed target.
func (r Request) prepare() (Request, *url.URL, error) {
	target, err := url.Parse(r.URL)
	if err != nil {
		return Request{}, nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if !target.IsAbs() || target.Host == "" {
		return Request{}, nil, fmt.Errorf("%w: %q is not absolute", ErrInvalidURL, r.URL)
	}

	method := strings.ToUpper(r.Method)
	if method == "" {
		method = http.MethodGet
	}

	header := r.Header.Clone()
	if header == nil {
		header = http.Header{}
	}

	body := r.Body
	if len(body) == 0 && r.Form != nil {
		body = []byte(r.Form.Encode())
		if header.Get("Content-Type") == "" {
			header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}

	return Request{
		Method: method,
		URL:    target.String(),
		Header: header,
		Body:   body,
	}, target, nil
}
