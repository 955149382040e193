package client

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"golang.org/x/net/publicsuffix"
)

// sessionJar holds the session cookie. Reset swaps in an empty jar so that a
// torn-down session can never be replayed, even by requests still in flight.
type sessionJar struct {
	mu    sync.RWMutex
	inner http.CookieJar
}

func newSessionJar() *sessionJar {
	j := &sessionJar{}
	j.Reset()
	return j
}

func (j *sessionJar) Reset() {
	// cookiejar.New never returns a non-nil error.
	inner, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})

	j.mu.Lock()
	j.inner = inner
	j.mu.Unlock()
}

func (j *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	j.inner.SetCookies(u, cookies)
}

func (j *sessionJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.inner.Cookies(u)
}
