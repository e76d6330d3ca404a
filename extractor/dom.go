package extractor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/Jmemijeabadi/wallmartofertasmx/models"
)

// productAnchors matches links into the site's product pages.
var productAnchors = cascadia.MustCompile(`a[href*="/ip/"]`)

// priceToken matches a currency-prefixed amount in free text.
var priceToken = regexp.MustCompile(`\$\s?\d[\d,]*(?:\.\d{2})?`)

// discountKeywords is the evidence lexicon for a promotional price in
// surrounding text. Deliberately small; noise here surfaces directly as
// false "Rebaja" tags.
var discountKeywords = []string{
	"rebaja", "oferta", "descuento", "liquidación", "precio especial", "rollback",
}

// maxTitleLen bounds anchor-derived titles so a badly scoped anchor does
// not drag half the page into the record.
const maxTitleLen = 160

// DOMStrategy scans rendered markup for product anchors and derives title,
// price and promotional tags from each anchor's surroundings. It is
// proximity-based rather than schema-based, so it runs only against
// renderer-produced content, as the last resort when the embedded payload
// yielded nothing.
type DOMStrategy struct{}

func (s *DOMStrategy) Name() string { return "dom-heuristic" }

func (s *DOMStrategy) Attempt(page *models.RawPage) []models.RawRecord {
	if page.FetchMethod != "browser" {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.Body))
	if err != nil {
		return nil
	}

	var records []models.RawRecord
	seen := make(map[string]bool)

	doc.FindMatcher(productAnchors).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || href == "" || seen[href] {
			return
		}
		seen[href] = true

		title := anchorTitle(a)
		if title == "" {
			return
		}

		fields := map[string]any{
			"displayName":  title,
			"canonicalUrl": href,
		}

		// The nearest block-level ancestor is the best guess at the
		// product card; its text carries the price and badge strings.
		card := a.Closest("div, li, article, section")
		if card.Length() > 0 {
			text := card.Text()
			if price := priceToken.FindString(text); price != "" {
				fields["price"] = price
			}
			if badges := matchKeywords(text); len(badges) > 0 {
				fields["badges"] = badges
			}
		}

		records = append(records, models.RawRecord{Fields: fields})
	})

	return records
}

// anchorTitle prefers the accessibility label over the inner text, which on
// grid layouts is often truncated or decorated.
func anchorTitle(a *goquery.Selection) string {
	if label, ok := a.Attr("aria-label"); ok && strings.TrimSpace(label) != "" {
		return truncate(strings.TrimSpace(label), maxTitleLen)
	}
	text := strings.Join(strings.Fields(a.Text()), " ")
	return truncate(text, maxTitleLen)
}

// matchKeywords returns badge objects for each lexicon keyword present in
// the text, in lexicon order.
func matchKeywords(text string) []any {
	lower := strings.ToLower(text)
	var badges []any
	for _, kw := range discountKeywords {
		if strings.Contains(lower, kw) {
			badges = append(badges, map[string]any{"text": capitalize(kw)})
		}
	}
	return badges
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
