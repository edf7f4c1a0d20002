package mfc

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
)

const defaultBaseURL = "https://myfigurecollection.net"

// DefaultUserAgent is a desktop browser string; the source site serves a
// challenge interstitial to clients that identify as bots.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Config controls collector behavior.
type Config struct {
	BaseURL        string
	UserAgent      string
	AcceptLanguage string
	Timeout        time.Duration
}

// Client fetches and parses item pages.
type Client struct {
	cfg           Config
	baseCollector *colly.Collector
}

// NewClient builds a Client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.AcceptLanguage == "" {
		cfg.AcceptLanguage = "en-US,en;q=0.9"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	// Non-2xx responses flow through OnResponse so Lookup can classify the
	// status itself instead of treating every miss as a transport failure.
	c.ParseHTTPErrorResponse = true
	c.WithTransport(newHTTPTransport())

	return &Client{cfg: cfg, baseCollector: c}
}

// ItemURL returns the canonical page URL for an item id.
func (c *Client) ItemURL(id string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/item/" + id
}

// Lookup fetches the item page and parses it into a Record. The returned
// errors distinguish missing items, upstream failures, and bot-challenge
// interstitials so callers can map them to distinct responses.
func (c *Client) Lookup(ctx context.Context, id string) (Record, error) {
	pageURL := c.ItemURL(id)

	var (
		status int
		body   []byte
	)
	collector := c.baseCollector.Clone()
	collector.UserAgent = c.cfg.UserAgent
	collector.IgnoreRobotsTxt = true
	collector.ParseHTTPErrorResponse = true
	collector.SetRequestTimeout(c.cfg.Timeout)

	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", c.cfg.AcceptLanguage)
	})
	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})

	if err := c.visit(ctx, collector, pageURL); err != nil {
		return Record{}, err
	}

	switch {
	case status == http.StatusNotFound:
		return Record{}, ErrNotFound
	case status < 200 || status > 299:
		return Record{}, fmt.Errorf("%w: status %d", ErrUpstream, status)
	}
	if isChallenge(body) {
		return Record{}, ErrChallenge
	}

	record, err := Parse(string(body))
	if err != nil {
		return Record{}, err
	}
	record.Links = &Links{MFC: pageURL}
	return record, nil
}

func (c *Client) visit(ctx context.Context, collector *colly.Collector, url string) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrUpstream, ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		return nil
	}
}

var challengeMarkers = []string{
	"cf-challenge",
	"cf_chl_opt",
	"just a moment",
	"checking your browser",
	"attention required",
	"verify you are human",
	"/cdn-cgi/challenge-platform/",
}

// isChallenge sniffs the body for bot-challenge interstitial markers.
func isChallenge(body []byte) bool {
	if len(body) == 0 {
		return false
	}
	lower := strings.ToLower(string(body))
	for _, marker := range challengeMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
