package preview

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleHTML = `<!DOCTYPE html>
<html><head>
<title>Fallback title</title>
<meta property="og:title" content="Understanding Go Interfaces">
<meta property="og:description" content="A tour of implicit satisfaction.">
<meta property="og:image" content="/images/cover.png">
<meta property="og:site_name" content="Medium">
</head><body>
<article>
<h1>Understanding Go Interfaces</h1>
<p>Interfaces in Go are satisfied implicitly. A type implements an interface by implementing its methods, and there is no explicit declaration of intent.</p>
<p>This decoupling lets packages define the small interfaces they consume, while the concrete types live elsewhere and never import the consumer.</p>
<p>In practice this leads to small, composable abstractions such as io.Reader and io.Writer that appear throughout the standard library.</p>
</article>
</body></html>`

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url string
		ok  bool
	}{
		{"https://medium.com/@me/post", true},
		{"https://93.184.216.34/page", true},
		{"http://medium.com/@me/post", false},
		{"ftp://medium.com/file", false},
		{"https://localhost/admin", false},
		{"https://api.localhost/", false},
		{"https://printer.local/", false},
		{"https://metadata.internal/", false},
		{"https://127.0.0.1/", false},
		{"https://10.0.0.8/", false},
		{"https://192.168.1.1/", false},
		{"https://169.254.169.254/latest/meta-data", false},
		{"https://100.64.0.1/", false},
		{"https://[::1]/", false},
		{"https://[fd00::1]/", false},
		{"https:///nohost", false},
		{"::not a url", false},
	}
	for _, tt := range tests {
		err := ValidateURL(tt.url)
		if tt.ok {
			assert.NoError(t, err, tt.url)
		} else {
			assert.ErrorIs(t, err, ErrBlockedURL, tt.url)
		}
	}
}

func TestIsPrivateIP(t *testing.T) {
	assert.True(t, IsPrivateIP(net.ParseIP("::ffff:10.1.2.3")))
	assert.True(t, IsPrivateIP(net.ParseIP("0.0.0.0")))
	assert.False(t, IsPrivateIP(net.ParseIP("8.8.8.8")))
	assert.False(t, IsPrivateIP(net.ParseIP("2606:4700:4700::1111")))
}

func testFetcher(srv *httptest.Server, maxBytes int64) *Fetcher {
	return &Fetcher{
		client:   srv.Client(),
		maxBytes: maxBytes,
		validate: func(string) error { return nil },
	}
}

func TestFetchExtractsMetadata(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "linkpress")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	p, err := testFetcher(srv, 1<<20).Fetch(context.Background(), srv.URL+"/@me/interfaces")
	require.NoError(t, err)

	assert.Equal(t, "Understanding Go Interfaces", p.Title)
	assert.Equal(t, "A tour of implicit satisfaction.", p.Excerpt)
	assert.Equal(t, srv.URL+"/images/cover.png", p.ImageURL)
	assert.Equal(t, "Medium", p.SiteName)
}

func TestFetchRejectsNonHTML(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	_, err := testFetcher(srv, 1<<20).Fetch(context.Background(), srv.URL)
	assert.ErrorContains(t, err, "unsupported content type")
}

func TestFetchRejectsLargePages(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	_, err := testFetcher(srv, 64).Fetch(context.Background(), srv.URL)
	assert.ErrorContains(t, err, "exceeds 64 bytes")
}

func TestFetchRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewTLSServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := testFetcher(srv, 1<<20).Fetch(context.Background(), srv.URL)
	assert.ErrorContains(t, err, "HTTP 404")
}

func TestNewFetcherBlocksPrivateTargets(t *testing.T) {
	f := NewFetcher(0, 1<<20)

	_, err := f.Fetch(context.Background(), "https://127.0.0.1/")
	assert.True(t, errors.Is(err, ErrBlockedURL))

	_, err = f.Fetch(context.Background(), "http://medium.com/")
	assert.True(t, errors.Is(err, ErrBlockedURL))
}
