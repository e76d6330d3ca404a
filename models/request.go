package models

// SearchRequest is the payload for POST /api/v1/buscar.
type SearchRequest struct {
	// URL is the category or landing page to extract products from. Required.
	URL string `json:"url" binding:"required,url"`

	// SoloRebajas filters the result to discounted items only.
	// Default: false.
	SoloRebajas bool `json:"solo_rebajas,omitempty"`

	// UseRenderer enables the headless-browser fallback when the plain
	// HTTP fetch yields no products. Default: true.
	UseRenderer *bool `json:"use_renderer,omitempty"`

	// Timeout is the maximum duration in seconds for the fetch phase.
	// Default: 20. Max: 120.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=120"`

	// MaxAge is the cache freshness window in milliseconds. 0 disables
	// cache lookup for this request (the result is still stored).
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`
}

// Defaults applies default values to unset fields.
func (r *SearchRequest) Defaults() {
	if r.UseRenderer == nil {
		t := true
		r.UseRenderer = &t
	}
	if r.Timeout == 0 {
		r.Timeout = 20
	}
}
