package normalizer

// Ordered alias tables per canonical field. Resolution takes the first
// present, non-empty value in table order. The lists mirror the key names
// observed across the site's page-template revisions; they are plain
// package variables so a revision bump is a one-line change.

var titleAliases = []string{"displayName", "name", "title", "productName"}

var urlAliases = []string{"canonicalUrl", "productPageUrl", "url", "link"}

var badgeAliases = []string{"badges", "etiquetas", "flags", "tags"}

// badgeTextKeys are tried on badge objects to find their display text.
var badgeTextKeys = []string{"text", "label", "name", "key"}

// promoLabelAliases hold free-text promotional labels that never surface
// as badges but still signal a discount.
var promoLabelAliases = []string{"promoLabel", "offerText", "promoText"}

// pricePaths is the ordered resolution chain for the price field: nested
// line price, current price, flat price, price map, flat fallback.
var pricePaths = [][]string{
	{"priceInfo", "linePrice", "price"},
	{"priceInfo", "currentPrice", "price"},
	{"price"},
	{"priceMap", "price"},
	{"salePrice"},
}

// discountFlags are boolean fields that mark an item as discounted even
// when no human-readable badge is present. Checked on the record itself
// and on its priceInfo sub-object.
var discountFlags = []string{"isRollback", "isClearance", "isSpecialBuy", "onSale", "clearance"}

// discountLexicon is the keyword list treated as evidence of a promotional
// price in badge or label text. Matching is case-insensitive substring.
var discountLexicon = []string{
	"rebaja", "oferta", "descuento", "liquidación", "precio especial", "rollback", "clearance",
}

// syntheticDiscountTag is appended when the discount flag is synthesized
// from signals that produced no visible tag, keeping the tag set
// consistent with the flag.
const syntheticDiscountTag = "Rebaja"
