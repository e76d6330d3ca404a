// Package normalizer maps heterogeneous raw product records onto the
// canonical output schema: placeholder fills, absolute URLs, an ordered
// deduplicated tag set, and a discount flag synthesized from several
// independent signals.
package normalizer

import (
	"strings"

	"github.com/Jmemijeabadi/wallmartofertasmx/config"
	"github.com/Jmemijeabadi/wallmartofertasmx/models"
)

// Normalizer resolves raw records against the alias tables and the site's
// base origin. It is stateless and safe for concurrent use.
type Normalizer struct {
	baseURL string
}

// New creates a Normalizer for the configured origin.
func New(site config.SiteConfig) *Normalizer {
	return &Normalizer{baseURL: strings.TrimRight(site.BaseURL, "/")}
}

// Normalize maps one raw record onto the canonical schema. It never fails:
// missing fields resolve to placeholders, unexpected shapes are skipped.
func (n *Normalizer) Normalize(raw models.RawRecord) models.Product {
	fields := raw.Fields

	title := firstString(fields, titleAliases)
	if title == "" {
		title = models.TituloFallback
	}

	p := models.Product{
		Titulo:    collapseSpace(title),
		Precio:    n.resolvePrice(fields),
		URL:       n.resolveURL(firstString(fields, urlAliases)),
		Etiquetas: resolveTags(fields),
	}

	p.Rebaja, p.Etiquetas = synthesizeDiscount(fields, p.Etiquetas)
	return p
}

// NormalizeAll normalizes every record and deduplicates the result, stable
// and order-preserving, keyed by (absolute URL, title). Later duplicates
// are dropped silently.
func (n *Normalizer) NormalizeAll(raws []models.RawRecord) []models.Product {
	products := make([]models.Product, 0, len(raws))
	seen := make(map[string]bool, len(raws))

	for _, raw := range raws {
		p := n.Normalize(raw)
		key := p.URL + "\x00" + p.Titulo
		if seen[key] {
			continue
		}
		seen[key] = true
		products = append(products, p)
	}
	return products
}

// resolveURL returns the raw value as-is when it already carries a scheme,
// otherwise joins it onto the base origin with exactly one separating
// slash. Resolution is idempotent: an already-absolute URL round-trips
// unchanged.
func (n *Normalizer) resolveURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, "://") {
		return raw
	}
	return n.baseURL + "/" + strings.TrimLeft(raw, "/")
}

// resolvePrice walks the price resolution chain and returns the first
// usable value: a positive number, or a non-empty string token. When every
// source is absent or empty it yields the "N/D" placeholder.
func (n *Normalizer) resolvePrice(fields map[string]any) any {
	for _, path := range pricePaths {
		v, ok := lookupPath(fields, path)
		if !ok {
			continue
		}
		switch t := v.(type) {
		case float64:
			if t > 0 {
				return t
			}
		case string:
			if s := strings.TrimSpace(t); s != "" {
				return s
			}
		}
	}
	return models.PrecioFallback
}

// resolveTags extracts badge texts from the first badge-list alias that
// holds anything usable, deduplicated case-insensitively in order.
func resolveTags(fields map[string]any) []string {
	var tags []string
	seen := make(map[string]bool)

	appendTag := func(text string) {
		text = collapseSpace(text)
		if text == "" {
			return
		}
		key := strings.ToLower(text)
		if seen[key] {
			return
		}
		seen[key] = true
		tags = append(tags, text)
	}

	for _, alias := range badgeAliases {
		list, ok := fields[alias].([]any)
		if !ok || len(list) == 0 {
			continue
		}
		for _, item := range list {
			switch b := item.(type) {
			case string:
				appendTag(b)
			case map[string]any:
				appendTag(firstString(b, badgeTextKeys))
			}
			// Booleans and other shapes carry no display text; the flag
			// synthesis below picks those up separately.
		}
		if len(tags) > 0 {
			break
		}
	}
	return tags
}

// synthesizeDiscount decides the discount flag from three independent
// signals: a lexicon match on an existing tag, a recognized boolean flag on
// the record or its priceInfo sub-object, or a lexicon match on a free-text
// promo label. When the flag is true but no visible tag conveys it, the
// synthetic tag is appended so the tag set stays consistent with the flag.
func synthesizeDiscount(fields map[string]any, tags []string) (bool, []string) {
	tagged := false
	for _, t := range tags {
		if lexiconMatch(t) {
			tagged = true
			break
		}
	}

	flagged := hasTrueFlag(fields)
	if !flagged {
		if info, ok := fields["priceInfo"].(map[string]any); ok {
			flagged = hasTrueFlag(info)
		}
	}

	labeled := false
	if label := firstString(fields, promoLabelAliases); label != "" {
		labeled = lexiconMatch(label)
	}

	discounted := tagged || flagged || labeled
	if discounted && !tagged {
		tags = append(tags, syntheticDiscountTag)
	}
	return discounted, tags
}

// lexiconMatch reports whether the text contains any discount keyword.
func lexiconMatch(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range discountLexicon {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func hasTrueFlag(m map[string]any) bool {
	for _, flag := range discountFlags {
		if b, ok := m[flag].(bool); ok && b {
			return true
		}
	}
	return false
}

// firstString returns the first non-empty string among the alias keys.
func firstString(m map[string]any, keys []string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return ""
}

// lookupPath descends nested maps along the path, failing softly on any
// unexpected shape.
func lookupPath(m map[string]any, path []string) (any, bool) {
	var current any = m
	for _, key := range path {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// collapseSpace normalizes interior whitespace and trims the ends.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
