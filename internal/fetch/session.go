// Package fetch wraps resty in a crawl-scoped session. A strategy acquires
// one session per crawl and must release it on every exit path; the session
// owns its cookie jar and connection pool for the duration of the run.
package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 30 * time.Second

// Config holds session construction parameters shared by all sources.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Factory builds sessions from a fixed config. One factory per process,
// handed to every strategy.
type Factory struct {
	cfg Config
}

// NewFactory creates a session factory.
func NewFactory(cfg Config) *Factory {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Factory{cfg: cfg}
}

// NewSession acquires a fresh session. Callers must Close it when the crawl
// ends, typically via defer immediately after acquisition.
func (f *Factory) NewSession() *Session {
	client := resty.New().
		SetTimeout(f.cfg.Timeout).
		SetHeader("User-Agent", f.cfg.UserAgent).
		SetHeader("Accept-Language", "vi,en;q=0.8").
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))

	return &Session{client: client}
}

// Session is the scoped page-fetching resource for one crawl.
type Session struct {
	client *resty.Client
}

// GetPage fetches a page and returns its HTML body. Non-2xx responses are
// errors.
func (s *Session) GetPage(ctx context.Context, url string) (string, error) {
	resp, err := s.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("fetch %s: status %d", url, resp.StatusCode())
	}
	return resp.String(), nil
}

// Document fetches a page and parses it with goquery.
func (s *Session) Document(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := s.GetPage(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return doc, nil
}

// Close releases the session's idle connections. Safe to call once per
// session on any exit path.
func (s *Session) Close() {
	s.client.GetClient().CloseIdleConnections()
}
