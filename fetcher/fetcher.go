package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	tls "github.com/refraction-networking/utls"

	"github.com/Jmemijeabadi/wallmartofertasmx/config"
	"github.com/Jmemijeabadi/wallmartofertasmx/models"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// maxBody caps response reads to prevent unbounded memory use.
const maxBody = 10 << 20 // 10 MB

// retryableStatus is the fixed allow-list of transient status codes worth
// retrying. Other 4xx codes are terminal; retrying them only annoys the origin.
var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to http/1.1
// only. Computed once at init time and reused for every connection.
// chromeH1SpecOK gates its use; when false the dialer falls back to the
// built-in HelloChrome_Auto preset with NextProtos pinned to http/1.1.
var (
	chromeH1Spec   tls.ClientHelloSpec
	chromeH1SpecOK bool
)

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return
	}
	// Replace h2 with http/1.1 only in the ALPN extension so the server
	// never negotiates HTTP/2 (which Go's http.Transport cannot handle
	// over a utls connection).
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
	chromeH1SpecOK = true
}

// Fetcher retrieves listing pages over plain HTTP with a Chrome TLS
// fingerprint and browser-like headers. The origin serves materially
// different content, or blocks outright, without this identity.
// It is safe for concurrent use.
type Fetcher struct {
	client         *http.Client
	cfg            config.FetcherConfig
	acceptLanguage string
}

// New creates a Fetcher from configuration.
func New(cfg config.FetcherConfig, site config.SiteConfig) *Fetcher {
	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{Timeout: 10 * time.Second}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			host, _, _ := net.SplitHostPort(addr)
			tlsCfg := &tls.Config{ServerName: host, NextProtos: []string{"http/1.1"}}
			var tlsConn *tls.UConn
			if chromeH1SpecOK {
				tlsConn = tls.UClient(conn, tlsCfg, tls.HelloCustom)
				if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
					conn.Close()
					return nil, fmt.Errorf("fetcher: apply tls spec: %w", err)
				}
			} else {
				tlsConn = tls.UClient(conn, tlsCfg, tls.HelloChrome_Auto)
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		},
		ForceAttemptHTTP2: false,
	}
	if cfg.Proxy != "" {
		if proxyURL, err := url.Parse(cfg.Proxy); err == nil && (proxyURL.Scheme == "http" || proxyURL.Scheme == "https") {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	return &Fetcher{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return errors.New("too many redirects")
				}
				return nil
			},
		},
		cfg:            cfg,
		acceptLanguage: site.AcceptLanguage,
	}
}

// Fetch retrieves the URL, retrying transient upstream failures with
// exponential backoff. It returns typed errors so the caller can present
// connection, timeout and HTTP-status failures distinctly.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (*models.RawPage, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	attempts := f.cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastStatus int
	for attempt := 1; attempt <= attempts; attempt++ {
		page, status, err := f.doFetch(ctx, targetURL)
		if err != nil {
			return nil, categorize(err)
		}
		if page != nil {
			if !isHTMLContentType(page.ContentType) {
				slog.Warn("non-HTML content type, extraction will likely be empty",
					"url", targetURL, "contentType", page.ContentType)
			}
			return page, nil
		}

		lastStatus = status
		if !retryableStatus[status] || attempt == attempts {
			break
		}

		backoff := f.cfg.BackoffBase << (attempt - 1)
		slog.Debug("transient status, backing off",
			"url", targetURL, "status", status, "attempt", attempt, "backoff", backoff)
		select {
		case <-ctx.Done():
			return nil, categorize(ctx.Err())
		case <-time.After(backoff):
		}
	}

	return nil, models.NewHTTPStatusError(lastStatus)
}

// doFetch performs one GET. A nil page with nil error means a non-2xx
// status that the retry loop must decide about.
func (f *Fetcher) doFetch(ctx context.Context, targetURL string) (*models.RawPage, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, 0, err
	}

	req.Header.Set("User-Agent", chromeUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", f.acceptLanguage)
	req.Header.Set("Accept-Encoding", "identity") // no compression for simplicity
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused, then let the
		// retry loop decide.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, resp.StatusCode, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, 0, err
	}

	bodyStr := string(body)
	return &models.RawPage{
		Body:        bodyStr,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Title:       extractTitle(bodyStr),
		FetchMethod: "http",
	}, resp.StatusCode, nil
}

// categorize wraps raw transport errors into typed ScrapeErrors so the API
// layer can present connection and timeout failures distinctly.
func categorize(err error) *models.ScrapeError {
	var scrapeErr *models.ScrapeError
	if errors.As(err, &scrapeErr) {
		return scrapeErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return models.NewScrapeError(models.ErrCodeTimeout,
			"tiempo de espera agotado al solicitar la página", err)
	}
	if errors.Is(err, context.Canceled) {
		return models.NewScrapeError(models.ErrCodeTimeout, "solicitud cancelada", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.NewScrapeError(models.ErrCodeTimeout,
			"tiempo de espera agotado al solicitar la página", err)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return models.NewScrapeError(models.ErrCodeTimeout,
			"tiempo de espera agotado al solicitar la página", err)
	}

	return models.NewScrapeError(models.ErrCodeTransport,
		"error de conexión, verifica tu red", err)
}

// isHTMLContentType returns true if the content-type header looks like HTML.
func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}
