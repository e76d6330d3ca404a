package models

// SearchResponse is the response for POST /api/v1/buscar.
type SearchResponse struct {
	// Success indicates whether the extraction completed without errors.
	// A run that found zero products is still a success (see Warning).
	Success bool `json:"success"`

	// Products is the ordered, deduplicated record list after filtering.
	Products []Product `json:"productos"`

	// Filtered and Total form the count pair shown when a filter applies.
	// Without a filter both carry the same value.
	Filtered int `json:"filtrados"`
	Total    int `json:"total"`

	// FinalURL is the page URL after redirects.
	FinalURL string `json:"final_url,omitempty"`

	// StatusCode is the HTTP status of the fetched page.
	StatusCode int `json:"status_code,omitempty"`

	// FetchMethod records how the winning page was retrieved: "http" or
	// "browser". Empty when the response came from cache.
	FetchMethod string `json:"fetch_method,omitempty"`

	// Strategy names the extraction strategy that produced the records.
	Strategy string `json:"strategy,omitempty"`

	// Warning is a soft, human-readable notice for empty or degraded
	// results (no recognizable data, access denied page, ...).
	Warning string `json:"warning,omitempty"`

	// CacheStatus indicates whether the response was served from cache.
	// Values: "hit", "miss", or empty (caching not requested).
	CacheStatus string `json:"cache_status,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// FetchMs is the time spent on HTTP retrieval.
	FetchMs int64 `json:"fetch_ms,omitempty"`

	// RenderMs is the time spent in the browser fallback, when used.
	RenderMs int64 `json:"render_ms,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy" or "degraded"
	Uptime    string    `json:"uptime"`
	PoolStats PoolStats `json:"pool_stats"`
	Version   string    `json:"version"`
}

// PoolStats reports the state of the renderer's browser page pool.
type PoolStats struct {
	MaxPages    int  `json:"max_pages"`
	ActivePages int  `json:"active_pages"`
	BrowserUp   bool `json:"browser_up"`
}
