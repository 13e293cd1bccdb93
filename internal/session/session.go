// Package session provides the outbound HTTP client used for all YouTube
// traffic. It looks like a browser: stable User-Agent, a cookie jar that
// persists cookies across calls, an optional proxy, and a fixed timeout.
//
// A Client carries mutable cookie state, so concurrent callers should share
// one Client (the jar is safe for concurrent use) or own their own.
package session

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const (
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/114.0.0.0 Safari/537.36"
	Accept = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

	Timeout = 15 * time.Second

	// MaxBodyBytes caps response bodies; watch pages are ~1MB, payloads far less.
	MaxBodyBytes = 10 * 1024 * 1024
)

type Client struct {
	http    *http.Client
	limiter *rate.Limiter
}

// New creates a session client. proxyURL may be empty; when set it must be a
// parseable URL (host, port, optional user:pass) or an error is returned.
func New(proxyURL string) (*Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL != "" {
		proxy, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", proxyURL, err)
		}
		transport.Proxy = http.ProxyURL(proxy)
	}

	return &Client{
		http: &http.Client{
			Jar:       jar,
			Timeout:   Timeout,
			Transport: transport,
		},
		// Keep scrape traffic polite so we don't get blocked.
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 3),
	}, nil
}

// Get fetches the given URL, returning the body and status code. Transport
// and timeout errors are surfaced unmodified; callers translate them into
// domain errors.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", Accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, MaxBodyBytes))
	if err != nil {
		return nil, res.StatusCode, fmt.Errorf("reading response body: %w", err)
	}

	return body, res.StatusCode, nil
}
