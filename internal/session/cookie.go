package session

import (
	"net/http"
	"strings"
	"time"
)

// Cookie is a single cookie as stored by the jar. A zero Expires means the
// cookie never expires by itself.
type Cookie struct {
	Name    string
	Value   string
	Domain  string
	Path    string
	Expires time.Time
	// HostOnly is set by the jar when the cookie arrived without a Domain
	// attribute, it then only matches the exact host that set it.
	HostOnly bool
}

type cookieKey struct {
	name   string
	domain string
	path   string
}

func (c Cookie) key() cookieKey {
	return cookieKey{name: c.Name, domain: c.Domain, path: c.Path}
}

func (c Cookie) expired(now time.Time) bool {
	return !c.Expires.IsZero() && !c.Expires.After(now)
}

func (c Cookie) matches(host, path string, now time.Time) bool {
	if c.HostOnly {
		if host != c.Domain {
			return false
		}
	} else if !domainMatch(host, c.Domain) {
		return false
	}
	if !strings.HasPrefix(path, c.Path) {
		return false
	}
	return !c.expired(now)
}

// ParseSetCookies reads every Set-Cookie entry of a response header.
// Entries that cannot be parsed are dropped, the rest are still returned.
func ParseSetCookies(header http.Header) []Cookie {
	res := http.Response{Header: header}
	parsed := res.Cookies()

	cookies := make([]Cookie, 0, len(parsed))
	for _, c := range parsed {
		cookies = append(cookies, Cookie{
			Name:    c.Name,
			Value:   c.Value,
			Domain:  c.Domain,
			Path:    c.Path,
			Expires: c.Expires,
		})
	}
	return cookies
}

func normalizeDomain(domain string) string {
	return strings.ToLower(strings.TrimPrefix(domain, "."))
}

// domainMatch is plain suffix matching on a label boundary. It does not
// consult a public suffix list, so a cookie scoped to `ru` is sent to every
// host under `.ru`.
func domainMatch(host, domain string) bool {
	if host == "" || domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func requestPath(path string) string {
	if path == "" {
		return "/"
	}
	return path
}
