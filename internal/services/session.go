package services

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type SessionOptions struct {
	// CookieFile is an optional Netscape-format cookie export. A missing
	// file yields an anonymous session.
	CookieFile        string
	Timeout           time.Duration
	RequestsPerMinute int
}

// FetchSession is the HTTP session shared by the transcript and title
// providers for one batch run.
type FetchSession struct {
	HTTPClient    *http.Client
	Authenticated bool
	CookieCount   int
}

func NewFetchSession(opts SessionOptions) (*FetchSession, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	session := &FetchSession{}
	if opts.CookieFile != "" {
		count, loadErr := LoadNetscapeCookies(jar, opts.CookieFile)
		switch {
		case loadErr == nil:
			session.Authenticated = count > 0
			session.CookieCount = count
		case errors.Is(loadErr, fs.ErrNotExist):
			log.Printf("Cookie file %s not found, using anonymous session", opts.CookieFile)
		default:
			log.Printf("Cookie file %s unreadable, using anonymous session: %v", opts.CookieFile, loadErr)
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	var transport http.RoundTripper = &headerTransport{base: http.DefaultTransport}
	if opts.RequestsPerMinute > 0 {
		limit := rate.Every(time.Minute / time.Duration(opts.RequestsPerMinute))
		transport = &throttledTransport{
			base:    transport,
			limiter: rate.NewLimiter(limit, 1),
		}
	}

	session.HTTPClient = &http.Client{
		Timeout:   timeout,
		Jar:       jar,
		Transport: transport,
	}
	return session, nil
}

// headerTransport fills in browser-like headers the watch and oEmbed
// endpoints expect. Headers already set on the request win.
type headerTransport struct {
	base http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" || req.Header.Get("Accept-Language") == "" {
		req = req.Clone(req.Context())
		if req.Header.Get("User-Agent") == "" {
			req.Header.Set("User-Agent", browserUserAgent)
		}
		if req.Header.Get("Accept-Language") == "" {
			req.Header.Set("Accept-Language", "ja,en-US;q=0.9,en;q=0.8")
		}
	}
	return t.base.RoundTrip(req)
}

type throttledTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (t *throttledTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("request throttled: %w", err)
	}
	return t.base.RoundTrip(req)
}
