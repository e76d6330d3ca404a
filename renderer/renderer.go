package renderer

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/Jmemijeabadi/wallmartofertasmx/config"
	"github.com/Jmemijeabadi/wallmartofertasmx/models"
)

// waitSignals are the content-ready selectors tried in order after
// navigation. Each gets its own short timeout; a signal failing just moves
// the wait to the next one. Product anchors first, then the marked item
// container, then the embedded data script.
var waitSignals = []string{
	`a[href*="/ip/"]`,
	`[data-automation-id="product"]`,
	`script#__NEXT_DATA__`,
}

// blockedMarkers identify the access-denied / verify-identity interstitial.
// Once there, no amount of waiting produces product data.
var blockedMarkers = []string{
	"/blocked",
	"px-captcha",
	"/account/verify",
}

// Renderer drives a headless browser to retrieve pages whose product data
// is attached client-side. The browser is launched lazily on first use and
// shared for the life of the process; each Render call borrows a page from
// the pool and returns it on every exit path.
// It is safe for concurrent use.
type Renderer struct {
	cfg            config.RendererConfig
	acceptLanguage string

	launchOnce sync.Once
	launchErr  error
	browser    *rod.Browser
	pagePool   rod.Pool[rod.Page]

	// browserUp publishes launch completion to readers (Stats, Close) that
	// do not go through launchOnce.
	browserUp   atomic.Bool
	activePages atomic.Int32
}

// New creates a Renderer. The browser process is not started until the
// first Render call, since the fallback path is expected to be rare.
func New(cfg config.RendererConfig, site config.SiteConfig) *Renderer {
	return &Renderer{cfg: cfg, acceptLanguage: site.AcceptLanguage}
}

// launch starts the headless browser and page pool exactly once.
func (r *Renderer) launch() error {
	r.launchOnce.Do(func() {
		l := launcher.New().
			Headless(r.cfg.Headless).
			NoSandbox(r.cfg.NoSandbox)

		if r.cfg.BrowserBin != "" {
			l = l.Bin(r.cfg.BrowserBin)
		}

		// ── Stealth flags ────────────────────────────────────────────
		l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
		l.Delete(flags.Flag("enable-automation"))
		l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
		l.Set(flags.Flag("disable-background-timer-throttling"))
		l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
		l.Set(flags.Flag("disable-component-update"))
		l.Set(flags.Flag("disable-default-apps"))
		l.Set(flags.Flag("disable-dev-shm-usage"))
		l.Set(flags.Flag("disable-extensions"))
		l.Set(flags.Flag("no-first-run"))

		controlURL, err := l.Launch()
		if err != nil {
			r.launchErr = models.NewScrapeError(
				models.ErrCodeBrowserCrash,
				"failed to launch browser",
				err,
			)
			return
		}
		slog.Info("browser launched", "controlURL", controlURL)

		browser := rod.New().ControlURL(controlURL)
		if err := browser.Connect(); err != nil {
			r.launchErr = models.NewScrapeError(
				models.ErrCodeBrowserCrash,
				"failed to connect to browser",
				err,
			)
			return
		}

		r.browser = browser
		r.pagePool = rod.NewPagePool(r.cfg.MaxPages)
		r.browserUp.Store(true)
		slog.Info("page pool created", "maxPages", r.cfg.MaxPages)
	})
	return r.launchErr
}

// Render navigates to the URL, waits for the first content signal that
// fires, lets hydration settle, and returns whatever markup is present.
// Failing every signal is not an error; landing on the blocked
// interstitial is (ACCESS_BLOCKED).
//
// Lifecycle:
//
//  1. Timeout guard     – hard deadline on the entire operation
//  2. Acquire page      – borrow a tab from the pool (or create one)
//  3. DEFER: cleanup    – about:blank + return to pool (leak prevention)
//  4. Stealth injection – mask navigator.webdriver etc. (before navigation!)
//  5. Locale headers    – Accept-Language via CDP (before navigation!)
//  6. Navigate + waits  – DOM stable, then signal loop, then settle delay
//  7. Extract           – page.HTML() + document.title + final URL
//
// Step 3's about:blank uses the ORIGINAL page reference (without request
// context), so cleanup succeeds even if the request context has expired.
func (r *Renderer) Render(ctx context.Context, targetURL string) (*models.RawPage, error) {
	if err := r.launch(); err != nil {
		return nil, err
	}

	// ── 1. Timeout guard ──────────────────────────────────────────────
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	// ── 2. Acquire page from pool ─────────────────────────────────────
	r.activePages.Add(1)
	defer r.activePages.Add(-1)

	page, acquireErr := r.pagePool.Get(func() (*rod.Page, error) {
		return r.browser.Page(proto.TargetCreateTarget{})
	})
	if acquireErr != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to acquire page from pool",
			acquireErr,
		)
	}

	// ── 3. CRITICAL DEFER: prevent DOM memory leak + guarantee pool return
	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
		}
		r.pagePool.Put(page)
	}()

	// ── 4. Stealth injection ──────────────────────────────────────────
	if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
	}

	// ── 5. Locale headers ─────────────────────────────────────────────
	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(map[string]string{
			"Accept-Language": r.acceptLanguage,
		}),
	}.Call(page)

	// ── 6. Bind request context to page ───────────────────────────────
	p := page.Context(ctx)

	if navErr := p.Navigate(targetURL); navErr != nil {
		return nil, categorizeError(navErr, "navigation to target URL failed")
	}

	if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"error", stableErr)
	}

	if blockedURL(currentURL(p, targetURL)) {
		return nil, models.NewScrapeError(models.ErrCodeBlocked,
			"la página redirigió a una verificación de identidad", nil)
	}

	// Signal loop: each candidate gets its own timeout; the first one
	// present wins, and none firing is still a usable (if thin) page.
	signalled := false
	for _, sel := range waitSignals {
		if _, err := p.Timeout(r.cfg.SignalTimeout).Element(sel); err == nil {
			signalled = true
			slog.Debug("content signal fired", "selector", sel, "url", targetURL)
			break
		}
		if ctx.Err() != nil {
			return nil, categorizeError(ctx.Err(), "render wait interrupted")
		}
	}
	if !signalled {
		slog.Warn("no content signal fired, returning current DOM", "url", targetURL)
	}

	// Redirects to the interstitial can happen mid-wait as well.
	if blockedURL(currentURL(p, targetURL)) {
		return nil, models.NewScrapeError(models.ErrCodeBlocked,
			"la página redirigió a una verificación de identidad", nil)
	}

	// Settle delay: prices and badges are hydrated after the product grid
	// itself appears.
	select {
	case <-ctx.Done():
		return nil, categorizeError(ctx.Err(), "render wait interrupted")
	case <-time.After(r.cfg.SettleDelay):
	}

	// ── 7. Extract rendered HTML ──────────────────────────────────────
	rawHTML, htmlErr := p.HTML()
	if htmlErr != nil {
		return nil, categorizeError(htmlErr, "failed to extract page HTML")
	}

	title := evalStringOrEmpty(p, `() => document.title`)
	finalURL := currentURL(p, targetURL)

	return &models.RawPage{
		Body:        rawHTML,
		FinalURL:    finalURL,
		Title:       title,
		ContentType: "text/html",
		FetchMethod: "browser",
	}, nil
}

// Stats returns a snapshot of the pool's current state.
func (r *Renderer) Stats() models.PoolStats {
	return models.PoolStats{
		MaxPages:    r.cfg.MaxPages,
		ActivePages: int(r.activePages.Load()),
		BrowserUp:   r.browserUp.Load(),
	}
}

// Close drains the page pool and kills the browser process.
// Call this on graceful shutdown to prevent zombie Chrome processes.
func (r *Renderer) Close() {
	if !r.browserUp.Load() {
		return
	}
	slog.Info("renderer shutting down: draining page pool")
	r.pagePool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	slog.Info("renderer shutting down: closing browser")
	r.browser.MustClose()
	slog.Info("renderer shutdown complete")
}

// blockedURL reports whether the URL is the known access-denied target.
func blockedURL(u string) bool {
	lower := strings.ToLower(u)
	for _, marker := range blockedMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// currentURL reads window.location.href, falling back to the requested URL.
func currentURL(p *rod.Page, fallback string) string {
	if u := evalStringOrEmpty(p, `() => window.location.href`); u != "" {
		return u
	}
	return fallback
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors (useful for optional metadata extraction).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw errors into typed ScrapeErrors so the API layer
// can map them to appropriate HTTP status codes.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeBrowserCrash, msg, err)
	}
}
