package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	tls "github.com/refraction-networking/utls"

	"github.com/Jmemijeabadi/wallmartofertasmx/config"
	"github.com/Jmemijeabadi/wallmartofertasmx/models"
)

func testConfig() config.FetcherConfig {
	return config.FetcherConfig{
		Timeout:     5 * time.Second,
		MaxAttempts: 3,
		BackoffBase: time.Millisecond,
	}
}

func testSite() config.SiteConfig {
	return config.SiteConfig{
		BaseURL:        "https://www.walmart.com.mx",
		AcceptLanguage: "es-MX,es;q=0.9,en;q=0.8",
	}
}

func TestFetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>Electrodomésticos</title></head><body></body></html>`))
	}))
	defer srv.Close()

	page, err := New(testConfig(), testSite()).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if page.StatusCode != http.StatusOK {
		t.Errorf("status = %d", page.StatusCode)
	}
	if page.Title != "Electrodomésticos" {
		t.Errorf("title = %q", page.Title)
	}
	if page.FetchMethod != "http" {
		t.Errorf("fetch method = %q", page.FetchMethod)
	}
}

func TestFetch_BrowserLikeHeaders(t *testing.T) {
	var ua, lang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		lang = r.Header.Get("Accept-Language")
	}))
	defer srv.Close()

	if _, err := New(testConfig(), testSite()).Fetch(context.Background(), srv.URL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ua != chromeUA {
		t.Errorf("User-Agent = %q", ua)
	}
	if lang != "es-MX,es;q=0.9,en;q=0.8" {
		t.Errorf("Accept-Language = %q", lang)
	}
}

func TestFetch_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`<html></html>`))
	}))
	defer srv.Close()

	page, err := New(testConfig(), testSite()).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.StatusCode != http.StatusOK {
		t.Errorf("status = %d", page.StatusCode)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestFetch_ExhaustedRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := New(testConfig(), testSite()).Fetch(context.Background(), srv.URL)

	var scrapeErr *models.ScrapeError
	if !errors.As(err, &scrapeErr) {
		t.Fatalf("expected ScrapeError, got %v", err)
	}
	if scrapeErr.Code != models.ErrCodeHTTPStatus || scrapeErr.HTTPStatus != http.StatusTooManyRequests {
		t.Errorf("error = %+v", scrapeErr)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestFetch_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(testConfig(), testSite()).Fetch(context.Background(), srv.URL)

	var scrapeErr *models.ScrapeError
	if !errors.As(err, &scrapeErr) || scrapeErr.Code != models.ErrCodeHTTPStatus {
		t.Fatalf("expected HTTP status error, got %v", err)
	}
	if scrapeErr.HTTPStatus != http.StatusNotFound {
		t.Errorf("status = %d", scrapeErr.HTTPStatus)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("4xx outside the allow-list must not retry, attempts = %d", got)
	}
}

func TestFetch_TransportError(t *testing.T) {
	// A closed server: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(testConfig(), testSite()).Fetch(context.Background(), url)

	var scrapeErr *models.ScrapeError
	if !errors.As(err, &scrapeErr) || scrapeErr.Code != models.ErrCodeTransport {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestFetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Timeout = 20 * time.Millisecond

	_, err := New(cfg, testSite()).Fetch(context.Background(), srv.URL)

	var scrapeErr *models.ScrapeError
	if !errors.As(err, &scrapeErr) || scrapeErr.Code != models.ErrCodeTimeout {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestChromeSpecALPNPinned(t *testing.T) {
	if !chromeH1SpecOK {
		t.Fatal("chrome hello spec unavailable, dialer would run on the fallback preset")
	}

	found := false
	for _, ext := range chromeH1Spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			found = true
			if len(alpn.AlpnProtocols) != 1 || alpn.AlpnProtocols[0] != "http/1.1" {
				t.Errorf("alpn = %v, want [http/1.1]", alpn.AlpnProtocols)
			}
		}
	}
	if !found {
		t.Error("spec carries no ALPN extension")
	}
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"simple", `<html><head><title>Hola</title></head></html>`, "Hola"},
		{"whitespace trimmed", `<title>  Hola  </title>`, "Hola"},
		{"no title", `<html><body></body></html>`, ""},
		{"empty title", `<title></title>`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractTitle(tt.html); got != tt.want {
				t.Errorf("extractTitle = %q, want %q", got, tt.want)
			}
		})
	}
}
