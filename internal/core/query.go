package core

// query.go implements catalog browsing: filter, then sort, then paginate.
//
// Query values are ephemeral view state. They are not stored with the
// catalog, so the same Catalog can serve any number of concurrent queries.

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// PageSize is the fixed number of products per page.
const PageSize = 24

// pagerRadius is how many neighbouring page numbers the pager shows on each side.
const pagerRadius = 2

// SortMode selects the catalog ordering.
type SortMode string

const (
	SortNone      SortMode = ""
	SortTitleAsc  SortMode = "title_asc"
	SortTitleDesc SortMode = "title_desc"
	SortPriceAsc  SortMode = "price_asc"
	SortPriceDesc SortMode = "price_desc"
)

// DefaultSort is applied by callers when no sort was requested at all.
const DefaultSort = SortTitleAsc

// SortModes lists the orderings offered to users.
var SortModes = []SortMode{SortTitleAsc, SortTitleDesc, SortPriceAsc, SortPriceDesc}

// Query describes one catalog view. Min and Max are nil when unset.
type Query struct {
	Search    string
	Condition string
	Min       *float64
	Max       *float64
	Sort      SortMode
	Page      int
}

// Page is one slice of a query result.
type Page struct {
	Items      []Product `json:"items"`
	TotalCount int       `json:"totalCount"`
	Page       int       `json:"page"`
	TotalPages int       `json:"totalPages"`
	PageSize   int       `json:"pageSize"`
	Pages      []int     `json:"pages"`
	HasPrev    bool      `json:"hasPrev"`
	HasNext    bool      `json:"hasNext"`
}

// ParseBound parses a price bound. Empty, unparsable and non-finite input
// means "no bound" and yields nil.
func ParseBound(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// Query runs q against the catalog using lang for title collation.
func (c *Catalog) Query(q Query, lang language.Tag) Page {
	matched := Filter(c.Products(), q)
	SortProducts(matched, q.Sort, lang)
	return Paginate(matched, q.Page)
}

// Filter keeps the products matching every set criterion. Criteria are
// checked in a fixed order: condition, min price, max price, search text.
func Filter(products []Product, q Query) []Product {
	condition := strings.TrimSpace(q.Condition)
	search := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if condition != "" && !strings.EqualFold(p.Condition, condition) {
			continue
		}
		if q.Min != nil && p.Price < *q.Min {
			continue
		}
		if q.Max != nil && p.Price > *q.Max {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Title), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// SortProducts orders products in place. Every mode is stable. SortNone and
// unrecognized modes leave the order untouched.
func SortProducts(products []Product, mode SortMode, lang language.Tag) {
	switch mode {
	case SortTitleAsc, SortTitleDesc:
		// collate.Collator keeps scratch buffers and must not be shared.
		col := collate.New(lang)
		desc := mode == SortTitleDesc
		sort.SliceStable(products, func(i, j int) bool {
			cmp := col.CompareString(products[i].Title, products[j].Title)
			if desc {
				return cmp > 0
			}
			return cmp < 0
		})
	case SortPriceAsc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price < products[j].Price
		})
	case SortPriceDesc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price > products[j].Price
		})
	}
}

// Paginate returns the requested 1-based page, clamped to the valid range.
// An empty result still has one (empty) page.
func Paginate(products []Product, page int) Page {
	total := len(products)
	totalPages := max(1, (total+PageSize-1)/PageSize)
	page = min(max(page, 1), totalPages)

	start := (page - 1) * PageSize
	end := min(start+PageSize, total)

	items := make([]Product, end-start)
	copy(items, products[start:end])

	return Page{
		Items:      items,
		TotalCount: total,
		Page:       page,
		TotalPages: totalPages,
		PageSize:   PageSize,
		Pages:      pageWindow(page, totalPages),
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}
}

func pageWindow(page, totalPages int) []int {
	lo := max(1, page-pagerRadius)
	hi := min(totalPages, page+pagerRadius)
	out := make([]int, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		out = append(out, i)
	}
	return out
}

// ParseSortMode maps user input onto a SortMode. Unknown values yield SortNone.
func ParseSortMode(s string) SortMode {
	m := SortMode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range SortModes {
		if m == known {
			return m
		}
	}
	return SortNone
}
