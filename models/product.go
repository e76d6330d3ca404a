package models

// RawPage is the transient result of a single fetch or render. It is owned
// by the pipeline invocation that produced it and discarded after extraction.
type RawPage struct {
	// Body is the full page markup.
	Body string

	// FinalURL is the URL after following all redirects.
	FinalURL string

	// StatusCode is the HTTP status of the final response (0 when unknown,
	// e.g. some renderer paths).
	StatusCode int

	// ContentType is the Content-Type header of the final response.
	ContentType string

	// Title is the page <title>, extracted best-effort.
	Title string

	// FetchMethod records how the page was retrieved: "http" or "browser".
	FetchMethod string
}

// RawRecord is one candidate product as found in the page, before
// normalization. Fields holds the raw key/value pairs of the source node;
// the alias tables in the normalizer decide what they mean.
//
// Records produced by the DOM strategy use the canonical keys directly
// (displayName, canonicalUrl, price, badges) since there is no upstream
// schema to preserve.
type RawRecord struct {
	Fields map[string]any
}

// Product is the canonical output record for one listed item.
//
// Precio is either a float64 (as decoded from the page data) or the
// placeholder string "N/D" when no price source yielded a usable value.
type Product struct {
	Titulo    string   `json:"titulo"`
	Precio    any      `json:"precio"`
	URL       string   `json:"url"`
	Etiquetas []string `json:"etiquetas"`
	Rebaja    bool     `json:"rebaja"`
}

// Placeholders used when a source record is missing a field entirely.
const (
	TituloFallback = "Sin título"
	PrecioFallback = "N/D"
)
