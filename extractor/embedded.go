package extractor

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Jmemijeabadi/wallmartofertasmx/models"
)

// dataScriptSelector locates the JSON payload the site ships inside its
// markup to hydrate the client-side app.
const dataScriptSelector = `script#__NEXT_DATA__`

// nameKeys and urlKeys are the structural fingerprint of a product node:
// a map carrying one key from each set is treated as a candidate wherever
// it appears in the tree.
var nameKeys = []string{"displayName", "name", "title", "productName"}

var urlKeys = []string{"canonicalUrl", "productPageUrl", "url", "link"}

// collectionKeys are the field names (case-insensitive) under which the
// payload nests its listing arrays. The same payload puts them at
// inconsistent depths across page templates, hence the unbounded walk.
var collectionKeys = map[string]bool{
	"items":        true,
	"itemstacks":   true,
	"products":     true,
	"productos":    true,
	"searchresult": true,
	"results":      true,
}

// EmbeddedStrategy decodes the embedded JSON payload and deep-searches it
// for product-shaped nodes. Absence or malformation of the payload is an
// expected outcome and yields an empty result, not an error.
type EmbeddedStrategy struct{}

func (s *EmbeddedStrategy) Name() string { return "embedded-json" }

func (s *EmbeddedStrategy) Attempt(page *models.RawPage) []models.RawRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.Body))
	if err != nil {
		return nil
	}

	raw := doc.Find(dataScriptSelector).First().Text()
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var blob any
	if err := json.Unmarshal([]byte(raw), &blob); err != nil {
		return nil
	}

	w := &walker{seen: make(map[uintptr]bool)}
	w.walk(blob)

	records := make([]models.RawRecord, 0, len(w.found))
	for _, m := range w.found {
		records = append(records, models.RawRecord{Fields: m})
	}
	return records
}

// walker performs the recursive deep search. It deduplicates emitted nodes
// by map identity, since the structural self-match and the keyed-collection
// detection frequently both fire on the same node.
type walker struct {
	seen  map[uintptr]bool
	found []map[string]any
}

// walk descends the decoded tree. At every map node it applies the
// structural self-match; collection-keyed children additionally admit
// relaxed candidates (name key alone), because items inside a recognized
// listing array often carry no URL field at all. Unexpected types are
// skipped locally and never abort the walk.
func (w *walker) walk(node any) {
	switch v := node.(type) {
	case map[string]any:
		if looksLikeProduct(v) {
			w.emit(v)
		}
		for key, child := range v {
			if collectionKeys[strings.ToLower(key)] {
				w.collect(child)
			}
			w.walk(child)
		}
	case []any:
		for _, item := range v {
			w.walk(item)
		}
	}
	// Scalars and nulls: nothing to do.
}

// collect handles the value under a collection key: a list of candidate
// nodes, or a nested object that contains one deeper down.
func (w *walker) collect(node any) {
	switch v := node.(type) {
	case []any:
		for _, item := range v {
			if m, ok := item.(map[string]any); ok && hasAnyKey(m, nameKeys) {
				w.emit(m)
			}
		}
	case map[string]any:
		// Nested object shape (e.g. a wrapper around the real array):
		// the outer walk recursion reaches it, nothing extra to do here.
	}
}

func (w *walker) emit(m map[string]any) {
	ptr := reflect.ValueOf(m).Pointer()
	if w.seen[ptr] {
		return
	}
	w.seen[ptr] = true
	w.found = append(w.found, m)
}

// looksLikeProduct is the structural self-match: a name-like key AND a
// URL-like key, each with a non-empty string value.
func looksLikeProduct(m map[string]any) bool {
	return hasAnyKey(m, nameKeys) && hasAnyKey(m, urlKeys)
}

// hasAnyKey reports whether any of the alias keys holds a non-empty string.
func hasAnyKey(m map[string]any, keys []string) bool {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return true
			}
		}
	}
	return false
}
