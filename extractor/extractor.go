// Package extractor recovers candidate product records from a listing page
// whose underlying data shape is not controlled by us and changes without
// notice. Strategies are tried in order; the first one to yield at least
// one candidate wins. Shape surprises degrade to empty results, never to
// errors.
package extractor

import (
	"log/slog"

	"github.com/Jmemijeabadi/wallmartofertasmx/models"
)

// Strategy is one way of locating product records in a raw page.
type Strategy interface {
	// Name returns the strategy identifier (e.g. "embedded-json", "dom-heuristic").
	Name() string

	// Attempt returns the candidate records it could find. An empty slice
	// is an expected outcome, not a failure.
	Attempt(page *models.RawPage) []models.RawRecord
}

// Extractor runs an ordered strategy list over a raw page.
type Extractor struct {
	strategies []Strategy
}

// New creates an Extractor with the default strategy order: the embedded
// data payload first, DOM heuristics as the noisier last resort.
func New() *Extractor {
	return &Extractor{
		strategies: []Strategy{
			&EmbeddedStrategy{},
			&DOMStrategy{},
		},
	}
}

// NewWithStrategies creates an Extractor with an explicit strategy list,
// mainly for tests.
func NewWithStrategies(strategies ...Strategy) *Extractor {
	return &Extractor{strategies: strategies}
}

// Extract runs the strategies in order and returns the first non-empty
// result along with the name of the strategy that produced it.
func (e *Extractor) Extract(page *models.RawPage) ([]models.RawRecord, string) {
	for _, s := range e.strategies {
		records := s.Attempt(page)
		if len(records) > 0 {
			slog.Debug("strategy yielded records",
				"strategy", s.Name(), "count", len(records), "url", page.FinalURL)
			return records, s.Name()
		}
	}
	return nil, ""
}
