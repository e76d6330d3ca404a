package normalizer

import (
	"reflect"
	"testing"

	"github.com/Jmemijeabadi/wallmartofertasmx/config"
	"github.com/Jmemijeabadi/wallmartofertasmx/models"
)

func testNormalizer() *Normalizer {
	return New(config.SiteConfig{BaseURL: "https://www.walmart.com.mx"})
}

func record(fields map[string]any) models.RawRecord {
	return models.RawRecord{Fields: fields}
}

func TestNormalize_MissingTitle(t *testing.T) {
	n := testNormalizer()

	p := n.Normalize(record(map[string]any{
		"canonicalUrl": "/ip/algo/123",
	}))

	if p.Titulo != "Sin título" {
		t.Errorf("missing title should yield placeholder, got %q", p.Titulo)
	}
}

func TestNormalize_TitleAliasOrder(t *testing.T) {
	n := testNormalizer()

	p := n.Normalize(record(map[string]any{
		"displayName": "Licuadora Oster",
		"name":        "ignored",
	}))
	if p.Titulo != "Licuadora Oster" {
		t.Errorf("displayName should win, got %q", p.Titulo)
	}

	p = n.Normalize(record(map[string]any{
		"name": "Licuadora Oster",
	}))
	if p.Titulo != "Licuadora Oster" {
		t.Errorf("name should be used when displayName is absent, got %q", p.Titulo)
	}
}

func TestResolveURL(t *testing.T) {
	n := testNormalizer()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"absolute passthrough", "https://www.walmart.com.mx/ip/x/1", "https://www.walmart.com.mx/ip/x/1"},
		{"foreign absolute passthrough", "https://other.example.com/p", "https://other.example.com/p"},
		{"leading slash", "/ip/x/1", "https://www.walmart.com.mx/ip/x/1"},
		{"no leading slash", "ip/x/1", "https://www.walmart.com.mx/ip/x/1"},
		{"double leading slashes", "//ip/x/1", "https://www.walmart.com.mx/ip/x/1"},
		{"empty", "", "https://www.walmart.com.mx/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.resolveURL(tt.in)
			if got != tt.want {
				t.Errorf("resolveURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestResolveURL_TrailingSlashBase(t *testing.T) {
	n := New(config.SiteConfig{BaseURL: "https://www.walmart.com.mx///"})

	got := n.resolveURL("/ip/x/1")
	if got != "https://www.walmart.com.mx/ip/x/1" {
		t.Errorf("exactly one separating slash expected, got %q", got)
	}
}

func TestResolveURL_Idempotent(t *testing.T) {
	n := testNormalizer()

	once := n.resolveURL("/ip/x/1")
	twice := n.resolveURL(once)
	if once != twice {
		t.Errorf("re-resolving an absolute URL changed it: %q vs %q", once, twice)
	}
}

func TestResolvePrice_Chain(t *testing.T) {
	n := testNormalizer()

	tests := []struct {
		name   string
		fields map[string]any
		want   any
	}{
		{
			"nested line price wins",
			map[string]any{
				"priceInfo": map[string]any{
					"linePrice": map[string]any{"price": 199.0},
				},
				"price": 500.0,
			},
			199.0,
		},
		{
			"current price next",
			map[string]any{
				"priceInfo": map[string]any{
					"currentPrice": map[string]any{"price": 149.5},
				},
			},
			149.5,
		},
		{"flat price", map[string]any{"price": 99.0}, 99.0},
		{
			"price map",
			map[string]any{"priceMap": map[string]any{"price": 79.0}},
			79.0,
		},
		{"sale price fallback", map[string]any{"salePrice": 59.0}, 59.0},
		{"string token", map[string]any{"price": "$1,299.00"}, "$1,299.00"},
		{"absent everywhere", map[string]any{"displayName": "x"}, "N/D"},
		{"zero is not usable", map[string]any{"price": 0.0}, "N/D"},
		{"empty string is not usable", map[string]any{"price": "  "}, "N/D"},
		{
			"unexpected shape skipped",
			map[string]any{
				"priceInfo": "not-a-map",
				"salePrice": 10.0,
			},
			10.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.resolvePrice(tt.fields)
			if got != tt.want {
				t.Errorf("resolvePrice = %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestResolveTags_Shapes(t *testing.T) {
	p := testNormalizer().Normalize(record(map[string]any{
		"displayName": "x",
		"badges": []any{
			map[string]any{"text": "Rebaja"},
			"Envío gratis",
			map[string]any{"label": "2x1"},
			true, // boolean badge: no display text
			map[string]any{"text": "REBAJA"}, // case-insensitive duplicate
		},
	}))

	want := []string{"Rebaja", "Envío gratis", "2x1"}
	if !reflect.DeepEqual(p.Etiquetas, want) {
		t.Errorf("tags = %v, want %v", p.Etiquetas, want)
	}
}

func TestDiscount_RollbackFlagSynthesizesTag(t *testing.T) {
	p := testNormalizer().Normalize(record(map[string]any{
		"displayName": "x",
		"isRollback":  true,
	}))

	if !p.Rebaja {
		t.Error("isRollback should set the discount flag")
	}
	if !reflect.DeepEqual(p.Etiquetas, []string{"Rebaja"}) {
		t.Errorf("expected exactly one synthetic tag, got %v", p.Etiquetas)
	}
}

func TestDiscount_BadgeTextNoDuplicateSynthetic(t *testing.T) {
	p := testNormalizer().Normalize(record(map[string]any{
		"displayName": "x",
		"badges":      []any{map[string]any{"text": "Oferta especial"}},
	}))

	if !p.Rebaja {
		t.Error("lexicon-matching badge should set the discount flag")
	}
	if !reflect.DeepEqual(p.Etiquetas, []string{"Oferta especial"}) {
		t.Errorf("no synthetic tag should be appended, got %v", p.Etiquetas)
	}
}

func TestDiscount_NestedPriceInfoFlag(t *testing.T) {
	p := testNormalizer().Normalize(record(map[string]any{
		"displayName": "x",
		"priceInfo":   map[string]any{"isClearance": true},
	}))

	if !p.Rebaja {
		t.Error("flag on priceInfo sub-object should set the discount flag")
	}
}

func TestDiscount_PromoLabel(t *testing.T) {
	p := testNormalizer().Normalize(record(map[string]any{
		"displayName": "x",
		"promoLabel":  "Gran descuento de temporada",
	}))

	if !p.Rebaja {
		t.Error("lexicon-matching promo label should set the discount flag")
	}
	if !reflect.DeepEqual(p.Etiquetas, []string{"Rebaja"}) {
		t.Errorf("synthetic tag expected when only the label conveys it, got %v", p.Etiquetas)
	}
}

func TestDiscount_NoSignals(t *testing.T) {
	p := testNormalizer().Normalize(record(map[string]any{
		"displayName": "x",
		"badges":      []any{map[string]any{"text": "Envío gratis"}},
	}))

	if p.Rebaja {
		t.Error("no discount signal should leave the flag false")
	}
	if !reflect.DeepEqual(p.Etiquetas, []string{"Envío gratis"}) {
		t.Errorf("tags = %v", p.Etiquetas)
	}
}

func TestNormalizeAll_Dedup(t *testing.T) {
	n := testNormalizer()

	dup := map[string]any{
		"displayName":  "Licuadora",
		"canonicalUrl": "/ip/licuadora/1",
	}
	raws := []models.RawRecord{record(dup), record(dup), record(map[string]any{
		"displayName":  "Otra cosa",
		"canonicalUrl": "/ip/otra/2",
	})}

	products := n.NormalizeAll(raws)
	if len(products) != 2 {
		t.Fatalf("expected 2 products after dedup, got %d", len(products))
	}
	if products[0].Titulo != "Licuadora" || products[1].Titulo != "Otra cosa" {
		t.Errorf("dedup must preserve first-seen order: %v", products)
	}
}

func TestNormalizeAll_DedupIdempotent(t *testing.T) {
	n := testNormalizer()

	raw := record(map[string]any{
		"displayName":  "Licuadora",
		"canonicalUrl": "/ip/licuadora/1",
	})

	once := n.NormalizeAll([]models.RawRecord{raw})
	twice := n.NormalizeAll([]models.RawRecord{raw, raw})

	if len(once) != len(twice) {
		t.Errorf("dedup is not idempotent: %d vs %d", len(once), len(twice))
	}
}
