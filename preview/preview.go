// Package preview fetches an article page and extracts the metadata the admin
// form is prefilled with: title, excerpt and lead image.
package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

// Preview is what an article page says about itself.
type Preview struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Excerpt  string `json:"excerpt"`
	ImageURL string `json:"image_url"`
	SiteName string `json:"site_name"`
}

// ErrBlockedURL is returned for URLs the fetcher refuses to request.
var ErrBlockedURL = errors.New("preview: url not allowed")

const userAgent = "linkpress-preview/1.0 (+https://github.com/eringen/linkpress)"

// Fetcher retrieves article pages over HTTPS without reaching private
// networks, including through redirects or DNS answers.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
	validate func(rawURL string) error
}

// NewFetcher returns a fetcher that gives up after timeout and reads at most
// maxBytes of a page.
func NewFetcher(timeout time.Duration, maxBytes int64) *Fetcher {
	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}

	// Resolve first and refuse private answers so a public name cannot be
	// rebound to an internal address between validation and connect.
	dial := func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid address: %w", err)
		}
		ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
		if err != nil {
			return nil, fmt.Errorf("dns lookup: %w", err)
		}
		for _, ip := range ips {
			if IsPrivateIP(ip.IP) {
				return nil, fmt.Errorf("%w: %s resolves to private address %s", ErrBlockedURL, host, ip.IP)
			}
		}
		var lastErr error
		for _, ip := range ips {
			conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip.IP.String(), port))
			if err == nil {
				return conn, nil
			}
			lastErr = err
		}
		return nil, fmt.Errorf("connect %s: %w", host, lastErr)
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext:           dial,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: timeout,
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return errors.New("too many redirects")
				}
				return ValidateURL(req.URL.String())
			},
		},
		maxBytes: maxBytes,
		validate: ValidateURL,
	}
}

// Fetch downloads rawURL and extracts its preview.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Preview, error) {
	if err := f.validate(rawURL); err != nil {
		return Preview{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Preview{}, fmt.Errorf("preview: create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return Preview{}, fmt.Errorf("preview: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Preview{}, fmt.Errorf("preview: HTTP %d from %s", resp.StatusCode, req.URL.Host)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return Preview{}, fmt.Errorf("preview: unsupported content type %q", ct)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return Preview{}, fmt.Errorf("preview: read body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return Preview{}, fmt.Errorf("preview: page exceeds %d bytes", f.maxBytes)
	}
	return Extract(bytes.NewReader(body), resp.Request.URL)
}

// Extract parses an HTML page located at pageURL.
func Extract(r io.Reader, pageURL *url.URL) (Preview, error) {
	article, err := readability.FromReader(r, pageURL)
	if err != nil {
		return Preview{}, fmt.Errorf("preview: parse: %w", err)
	}
	p := Preview{
		URL:      pageURL.String(),
		Title:    strings.TrimSpace(article.Title),
		Excerpt:  strings.TrimSpace(article.Excerpt),
		ImageURL: strings.TrimSpace(article.Image),
		SiteName: strings.TrimSpace(article.SiteName),
	}
	if p.ImageURL != "" {
		if img, err := pageURL.Parse(p.ImageURL); err == nil {
			p.ImageURL = img.String()
		}
	}
	return p, nil
}
