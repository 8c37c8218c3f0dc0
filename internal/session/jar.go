package session

import (
	"net/url"
	"sort"
	"strings"
	"time"
)

type jarEntry struct {
	cookie Cookie
	// creation order, kept across overwrites so header order is stable
	seq uint64
}

// cookieJar holds at most one cookie per (name, domain, path). It is owned
// by a single Session and is not safe for concurrent use.
type cookieJar struct {
	entries map[cookieKey]*jarEntry
	nextSeq uint64
}

func newCookieJar() *cookieJar {
	return &cookieJar{entries: map[cookieKey]*jarEntry{}}
}

// ingest stores a cookie received from `host` while requesting `path`.
// It reports false when the cookie was rejected.
func (j *cookieJar) ingest(c Cookie, host, path string) bool {
	host = strings.ToLower(host)

	if c.Domain == "" {
		if host == "" {
			return false
		}
		c.Domain = host
		c.HostOnly = true
	} else {
		c.Domain = normalizeDomain(c.Domain)
		c.HostOnly = false
		if !domainMatch(host, c.Domain) {
			return false
		}
	}
	if c.Path == "" {
		c.Path = requestPath(path)
	}

	key := c.key()
	existing, ok := j.entries[key]
	if ok {
		existing.cookie = c
		return true
	}
	j.nextSeq++
	j.entries[key] = &jarEntry{cookie: c, seq: j.nextSeq}
	return true
}

// header renders the Cookie header value for a request to `target`, it is
// empty when no cookie applies.
func (j *cookieJar) header(target *url.URL, now time.Time) string {
	host := strings.ToLower(target.Hostname())
	path := requestPath(target.Path)

	var matched []*jarEntry
	for _, e := range j.entries {
		if e.cookie.matches(host, path, now) {
			matched = append(matched, e)
		}
	}

	// longer paths first, then oldest first
	sort.Slice(matched, func(a, b int) bool {
		pa, pb := len(matched[a].cookie.Path), len(matched[b].cookie.Path)
		if pa != pb {
			return pa > pb
		}
		return matched[a].seq < matched[b].seq
	})

	pairs := make([]string, len(matched))
	for i, e := range matched {
		pairs[i] = e.cookie.Name + "=" + e.cookie.Value
	}
	return strings.Join(pairs, "; ")
}

// prune drops every cookie that expired strictly before `now` and returns
// how many were removed.
func (j *cookieJar) prune(now time.Time) int {
	removed := 0
	for key, e := range j.entries {
		if !e.cookie.Expires.IsZero() && e.cookie.Expires.Before(now) {
			delete(j.entries, key)
			removed++
		}
	}
	return removed
}

func (j *cookieJar) size() int {
	return len(j.entries)
}

func (j *cookieJar) get(name, domain, path string) (Cookie, bool) {
	e, ok := j.entries[cookieKey{name: name, domain: domain, path: path}]
	if !ok {
		return Cookie{}, false
	}
	return e.cookie, true
}
