package core

// normalize.go turns one raw spreadsheet row into a Product.
//
// Spreadsheets arrive with arbitrary header casing, stray whitespace and
// inconsistent numeric formats ("$1,234.50", "12 pcs", "10267.0"). Normalize
// is total: every input map yields a Product and numeric fields fall back
// to zero instead of failing.

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// maxDerivedIDLen is the number of title characters used when a row has no id column.
const maxDerivedIDLen = 30

// Column aliases in priority order. The first non-empty value wins.
var (
	idAliases          = []string{"id", "sku", "part"}
	titleAliases       = []string{"title", "name"}
	descriptionAliases = []string{"description", "desc"}
	priceAliases       = []string{"price"}
	quantityAliases    = []string{"quantity", "qty", "count"}
	msrpAliases        = []string{"msrp", "list_price"}
	imageAliases       = []string{"imageurl", "image", "img"}
	conditionAliases   = []string{"condition"}
)

// KnownColumns lists every header (lowercased) the normalizer reads.
var KnownColumns = func() map[string]bool {
	known := make(map[string]bool)
	for _, group := range [][]string{
		idAliases, titleAliases, descriptionAliases, priceAliases,
		quantityAliases, msrpAliases, imageAliases, conditionAliases,
	} {
		for _, a := range group {
			known[a] = true
		}
	}
	return known
}()

var (
	// numericJunk matches everything that cannot be part of a plain decimal.
	numericJunk = regexp.MustCompile(`[^0-9.\-]`)

	// numericPrefix is the longest leading decimal after junk removal.
	numericPrefix = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)`)

	// integralDecimal matches ids that a spreadsheet or JSON encoder turned into floats.
	integralDecimal = regexp.MustCompile(`^(-?\d+)\.0+$`)
)

// Normalize maps a raw row onto a Product.
func Normalize(row map[string]string) Product {
	fields := foldKeys(row)

	title := firstOf(fields, titleAliases)
	p := Product{
		Title:       title,
		Description: firstOf(fields, descriptionAliases),
		Price:       nonNegative(ParseNumber(firstOf(fields, priceAliases))),
		MSRP:        nonNegative(ParseNumber(firstOf(fields, msrpAliases))),
		Quantity:    max(ParseInt(firstOf(fields, quantityAliases)), 0),
		ImageURL:    firstOf(fields, imageAliases),
		Condition:   strings.ToLower(firstOf(fields, conditionAliases)),
	}

	id := firstOf(fields, idAliases)
	if id == "" {
		id = truncateRunes(title, maxDerivedIDLen)
	}
	if id == "" {
		id = title
	}
	p.ID = CanonicalID(id)

	return p
}

// foldKeys lowercases and trims keys. When several raw keys fold to the
// same name, the first non-empty value in sorted raw-key order is kept.
func foldKeys(row map[string]string) map[string]string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]string, len(row))
	for _, k := range keys {
		folded := strings.ToLower(strings.TrimSpace(k))
		if folded == "" {
			continue
		}
		v := strings.TrimSpace(row[k])
		if existing, ok := out[folded]; ok && existing != "" {
			continue
		}
		out[folded] = v
	}
	return out
}

func firstOf(fields map[string]string, aliases []string) string {
	for _, a := range aliases {
		if v := fields[a]; v != "" {
			return v
		}
	}
	return ""
}

// ParseNumber extracts a number from free-form text. Every character other
// than digits, '.' and '-' is discarded and the longest leading decimal is
// parsed. Anything unparsable or non-finite yields 0.
//
//	ParseNumber("$1,234.50") == 1234.5
//	ParseNumber("n/a") == 0
func ParseNumber(s string) float64 {
	cleaned := numericJunk.ReplaceAllString(s, "")
	m := numericPrefix.FindString(cleaned)
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ParseInt applies ParseNumber and truncates toward zero. Values outside
// the int range saturate.
func ParseInt(s string) int {
	f := math.Trunc(ParseNumber(s))
	switch {
	case f >= math.MaxInt:
		return math.MaxInt
	case f <= math.MinInt:
		return math.MinInt
	}
	return int(f)
}

// CanonicalID trims an id and rewrites integral decimals ("10267.0") as
// integers so ids compare by value regardless of how they were encoded.
func CanonicalID(id string) string {
	id = strings.TrimSpace(id)
	if m := integralDecimal.FindStringSubmatch(id); m != nil {
		return m[1]
	}
	return id
}

func nonNegative(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
