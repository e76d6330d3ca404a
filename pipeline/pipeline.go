// Package pipeline wires the retrieval, extraction and normalization stages
// into a single sequential run: fetch, extract, render fallback, extract
// again, normalize, filter. Network failures are hard errors; data-shape
// surprises degrade to an empty result with a soft warning.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Jmemijeabadi/wallmartofertasmx/cache"
	"github.com/Jmemijeabadi/wallmartofertasmx/extractor"
	"github.com/Jmemijeabadi/wallmartofertasmx/models"
	"github.com/Jmemijeabadi/wallmartofertasmx/normalizer"
)

// Caller-facing soft warnings for valid-but-empty outcomes.
const (
	warnEmpty   = "No se encontraron productos en la página o cambió la estructura."
	warnBlocked = "El sitio pidió verificación de identidad; no se pudo extraer contenido."
)

// PageFetcher retrieves a page over plain HTTP.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*models.RawPage, error)
}

// PageRenderer retrieves a page through the headless-browser fallback.
type PageRenderer interface {
	Render(ctx context.Context, url string) (*models.RawPage, error)
}

// Pipeline owns one extraction flow end to end. It is safe for concurrent
// use; every Run owns its raw page and decoded blob exclusively, with the
// result cache as the only shared state.
type Pipeline struct {
	fetcher    PageFetcher
	renderer   PageRenderer
	extractor  *extractor.Extractor
	normalizer *normalizer.Normalizer
	cache      *cache.Cache
}

// New creates a Pipeline. The cache may be nil to disable memoization.
func New(f PageFetcher, r PageRenderer, ex *extractor.Extractor, nm *normalizer.Normalizer, cc *cache.Cache) *Pipeline {
	return &Pipeline{
		fetcher:    f,
		renderer:   r,
		extractor:  ex,
		normalizer: nm,
		cache:      cc,
	}
}

// Run executes one extraction for the request and returns the canonical
// record list. A run that finds nothing is a success with a warning; only
// transport-level failures surface as errors.
func (p *Pipeline) Run(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	totalStart := time.Now()

	// ── 1. Cache lookup ─────────────────────────────────────────────
	cacheKey := cache.Key(req.URL, req.SoloRebajas, *req.UseRenderer)
	if p.cache != nil && req.MaxAge > 0 {
		if cached, hit := p.cache.Get(cacheKey, req.MaxAge); hit {
			// The stored entry is shared across concurrent requests and must
			// never be written after Set; per-request fields go on a copy.
			out := *cached
			out.CacheStatus = "hit"
			out.Timing = models.TimingInfo{
				TotalMs: time.Since(totalStart).Milliseconds(),
			}
			return &out, nil
		}
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.Timeout)*time.Second)
		defer cancel()
	}

	// ── 2. Fetch + first extraction pass ────────────────────────────
	fetchStart := time.Now()
	page, err := p.fetcher.Fetch(ctx, req.URL)
	fetchMs := time.Since(fetchStart).Milliseconds()
	if err != nil {
		return nil, err
	}

	records, strategy := p.extractor.Extract(page)

	// ── 3. Renderer fallback ────────────────────────────────────────
	var renderMs int64
	var warning string
	if len(records) == 0 && *req.UseRenderer {
		slog.Info("static fetch yielded no records, trying browser fallback", "url", req.URL)

		renderStart := time.Now()
		rendered, renderErr := p.renderer.Render(ctx, req.URL)
		renderMs = time.Since(renderStart).Milliseconds()

		if renderErr != nil {
			var scrapeErr *models.ScrapeError
			if errors.As(renderErr, &scrapeErr) && scrapeErr.Code == models.ErrCodeBlocked {
				// An active countermeasure page: retrying is pointless, so
				// this degrades to a valid empty result rather than a failure.
				warning = warnBlocked
				slog.Warn("render blocked by the origin", "url", req.URL)
			} else {
				return nil, renderErr
			}
		} else {
			page = rendered
			records, strategy = p.extractor.Extract(rendered)
		}
	}

	// ── 4. Normalize + filter ───────────────────────────────────────
	products := p.normalizer.NormalizeAll(records)
	total := len(products)

	if req.SoloRebajas {
		filtered := make([]models.Product, 0, len(products))
		for _, prod := range products {
			if prod.Rebaja {
				filtered = append(filtered, prod)
			}
		}
		products = filtered
	}

	if total == 0 && warning == "" {
		warning = warnEmpty
	}

	resp := &models.SearchResponse{
		Success:     true,
		Products:    products,
		Filtered:    len(products),
		Total:       total,
		FinalURL:    page.FinalURL,
		StatusCode:  page.StatusCode,
		FetchMethod: page.FetchMethod,
		Strategy:    strategy,
		Warning:     warning,
		Timing: models.TimingInfo{
			TotalMs:  time.Since(totalStart).Milliseconds(),
			FetchMs:  fetchMs,
			RenderMs: renderMs,
		},
	}

	// ── 5. Cache store ──────────────────────────────────────────────
	if p.cache != nil {
		// Store a copy so the returned response stays private to this
		// request and the cached one is immutable from here on.
		stored := *resp
		p.cache.Set(cacheKey, &stored)
		if req.MaxAge > 0 {
			resp.CacheStatus = "miss"
		}
	}

	return resp, nil
}
