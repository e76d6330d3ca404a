package extractor

import (
	"testing"

	"github.com/Jmemijeabadi/wallmartofertasmx/models"
)

// stubStrategy returns a fixed record set and counts invocations.
type stubStrategy struct {
	name    string
	records []models.RawRecord
	calls   int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Attempt(_ *models.RawPage) []models.RawRecord {
	s.calls++
	return s.records
}

func TestExtract_FirstNonEmptyWins(t *testing.T) {
	first := &stubStrategy{name: "first", records: []models.RawRecord{{Fields: map[string]any{"displayName": "x"}}}}
	second := &stubStrategy{name: "second"}

	records, strategy := NewWithStrategies(first, second).Extract(&models.RawPage{})

	if len(records) != 1 || strategy != "first" {
		t.Errorf("got %d records from %q", len(records), strategy)
	}
	if second.calls != 0 {
		t.Error("later strategy must not run once an earlier one yields records")
	}
}

func TestExtract_FallsThroughEmptyStrategies(t *testing.T) {
	first := &stubStrategy{name: "first"}
	second := &stubStrategy{name: "second", records: []models.RawRecord{{Fields: map[string]any{"displayName": "x"}}}}

	records, strategy := NewWithStrategies(first, second).Extract(&models.RawPage{})

	if len(records) != 1 || strategy != "second" {
		t.Errorf("got %d records from %q", len(records), strategy)
	}
	if first.calls != 1 {
		t.Errorf("first strategy should have been attempted once, got %d", first.calls)
	}
}

func TestExtract_AllEmpty(t *testing.T) {
	records, strategy := NewWithStrategies(&stubStrategy{name: "only"}).Extract(&models.RawPage{})

	if records != nil || strategy != "" {
		t.Errorf("all-empty extraction should yield nil records and empty strategy name, got %v %q", records, strategy)
	}
}
