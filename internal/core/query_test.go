package core

import (
	"fmt"
	"reflect"
	"testing"

	"golang.org/x/text/language"
)

func ids(products []Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func floatPtr(f float64) *float64 { return &f }

func sampleCatalog() *Catalog {
	return NewCatalog([]Product{
		{ID: "1", Title: "Castle", Description: "grey bricks", Price: 50, Condition: "used"},
		{ID: "2", Title: "apple tree", Description: "green", Price: 5, Condition: "Used"},
		{ID: "3", Title: "Bus", Description: "red vehicle", Price: 20, Condition: "new"},
		{ID: "4", Title: "Zebra", Description: "animal", Price: 5, Condition: "USED"},
		{ID: "5", Title: "Éclair shop", Description: "bakery", Price: 12, Condition: ""},
	})
}

// ----------------------------------------------------------------------------
// Filter Tests
// ----------------------------------------------------------------------------

func TestFilter(t *testing.T) {
	all := sampleCatalog().Products()

	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"no criteria", Query{}, []string{"1", "2", "3", "4", "5"}},
		{"condition is case-insensitive", Query{Condition: "used"}, []string{"1", "2", "4"}},
		{"condition trimmed", Query{Condition: " NEW "}, []string{"3"}},
		{"min bound inclusive", Query{Min: floatPtr(20)}, []string{"1", "3"}},
		{"max bound inclusive", Query{Max: floatPtr(5)}, []string{"2", "4"}},
		{"min and max", Query{Min: floatPtr(6), Max: floatPtr(30)}, []string{"3", "5"}},
		{"search title", Query{Search: "BUS"}, []string{"3"}},
		{"search description", Query{Search: "green"}, []string{"2"}},
		{"search is substring", Query{Search: "re"}, []string{"1", "2", "3"}},
		{"combined", Query{Condition: "used", Max: floatPtr(10), Search: "a"}, []string{"2", "4"}},
		{"nothing matches", Query{Condition: "sealed"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Filter(all, tt.q))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Filter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseBound(t *testing.T) {
	tests := []struct {
		in   string
		want *float64
	}{
		{"", nil},
		{"  ", nil},
		{"abc", nil},
		{"NaN", nil},
		{"Inf", nil},
		{"10", floatPtr(10)},
		{" 2.5 ", floatPtr(2.5)},
		{"-1", floatPtr(-1)},
	}
	for _, tt := range tests {
		got := ParseBound(tt.in)
		switch {
		case got == nil && tt.want == nil:
		case got == nil || tt.want == nil || *got != *tt.want:
			t.Errorf("ParseBound(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// ----------------------------------------------------------------------------
// Sort Tests
// ----------------------------------------------------------------------------

func TestSortProducts_PriceDescIsStable(t *testing.T) {
	products := []Product{
		{ID: "a", Price: 5},
		{ID: "b", Price: 1},
		{ID: "c", Price: 5},
	}
	SortProducts(products, SortPriceDesc, language.English)

	want := []string{"a", "c", "b"}
	if got := ids(products); !reflect.DeepEqual(got, want) {
		t.Errorf("price_desc = %v, want %v", got, want)
	}
}

func TestSortProducts_PriceAscIsStable(t *testing.T) {
	products := []Product{
		{ID: "a", Price: 5},
		{ID: "b", Price: 1},
		{ID: "c", Price: 5},
		{ID: "d", Price: 1},
	}
	SortProducts(products, SortPriceAsc, language.English)

	want := []string{"b", "d", "a", "c"}
	if got := ids(products); !reflect.DeepEqual(got, want) {
		t.Errorf("price_asc = %v, want %v", got, want)
	}
}

func TestSortProducts_TitleIsLocaleAware(t *testing.T) {
	products := sampleCatalog().Products()

	SortProducts(products, SortTitleAsc, language.English)
	// Collation places "apple" before "Bus" and "Éclair" between "Castle" and "Zebra".
	want := []string{"2", "3", "1", "5", "4"}
	if got := ids(products); !reflect.DeepEqual(got, want) {
		t.Errorf("title_asc = %v, want %v", got, want)
	}

	SortProducts(products, SortTitleDesc, language.English)
	wantDesc := []string{"4", "5", "1", "3", "2"}
	if got := ids(products); !reflect.DeepEqual(got, wantDesc) {
		t.Errorf("title_desc = %v, want %v", got, wantDesc)
	}
}

func TestSortProducts_NoneKeepsOrder(t *testing.T) {
	for _, mode := range []SortMode{SortNone, SortMode("bogus")} {
		products := sampleCatalog().Products()
		SortProducts(products, mode, language.English)
		want := []string{"1", "2", "3", "4", "5"}
		if got := ids(products); !reflect.DeepEqual(got, want) {
			t.Errorf("mode %q reordered products: %v", mode, got)
		}
	}
}

func TestParseSortMode(t *testing.T) {
	tests := map[string]SortMode{
		"title_asc":   SortTitleAsc,
		" PRICE_DESC": SortPriceDesc,
		"":            SortNone,
		"newest":      SortNone,
	}
	for in, want := range tests {
		if got := ParseSortMode(in); got != want {
			t.Errorf("ParseSortMode(%q) = %q, want %q", in, got, want)
		}
	}
}

// ----------------------------------------------------------------------------
// Paginate Tests
// ----------------------------------------------------------------------------

func makeProducts(n int) []Product {
	out := make([]Product, n)
	for i := range out {
		out[i] = Product{ID: fmt.Sprint(i + 1), Title: fmt.Sprintf("Set %03d", i+1)}
	}
	return out
}

func TestPaginate(t *testing.T) {
	products := makeProducts(50)

	tests := []struct {
		name      string
		page      int
		wantPage  int
		wantItems int
		wantFirst string
		wantPages []int
	}{
		{"first page", 1, 1, 24, "1", []int{1, 2, 3}},
		{"second page", 2, 2, 24, "25", []int{1, 2, 3}},
		{"last page is partial", 3, 3, 2, "49", []int{1, 2, 3}},
		{"beyond range clamps to last", 5, 3, 2, "49", []int{1, 2, 3}},
		{"zero clamps to first", 0, 1, 24, "1", []int{1, 2, 3}},
		{"negative clamps to first", -7, 1, 24, "1", []int{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Paginate(products, tt.page)
			if got.TotalCount != 50 {
				t.Errorf("TotalCount = %d, want 50", got.TotalCount)
			}
			if got.TotalPages != 3 {
				t.Errorf("TotalPages = %d, want 3", got.TotalPages)
			}
			if got.Page != tt.wantPage {
				t.Errorf("Page = %d, want %d", got.Page, tt.wantPage)
			}
			if len(got.Items) != tt.wantItems {
				t.Fatalf("len(Items) = %d, want %d", len(got.Items), tt.wantItems)
			}
			if got.Items[0].ID != tt.wantFirst {
				t.Errorf("first item = %q, want %q", got.Items[0].ID, tt.wantFirst)
			}
			if !reflect.DeepEqual(got.Pages, tt.wantPages) {
				t.Errorf("Pages = %v, want %v", got.Pages, tt.wantPages)
			}
		})
	}
}

func TestPaginate_Empty(t *testing.T) {
	got := Paginate(nil, 4)
	if got.Page != 1 || got.TotalPages != 1 || got.TotalCount != 0 || len(got.Items) != 0 {
		t.Errorf("Paginate(nil) = %+v, want single empty page", got)
	}
	if got.HasPrev || got.HasNext {
		t.Error("empty result should have no neighbours")
	}
}

func TestPaginate_WindowIsCondensed(t *testing.T) {
	got := Paginate(makeProducts(24*10), 6)
	want := []int{4, 5, 6, 7, 8}
	if !reflect.DeepEqual(got.Pages, want) {
		t.Errorf("Pages = %v, want %v", got.Pages, want)
	}
	if !got.HasPrev || !got.HasNext {
		t.Error("middle page should have both neighbours")
	}
}

func TestCatalogQuery_ClampsAfterFilterShrinks(t *testing.T) {
	c := NewCatalog(makeProducts(60))

	page := c.Query(Query{Page: 3, Sort: SortNone}, language.English)
	if page.Page != 3 || len(page.Items) != 12 {
		t.Fatalf("unfiltered page 3 = page %d with %d items", page.Page, len(page.Items))
	}

	filtered := c.Query(Query{Page: 3, Search: "Set 00", Sort: SortNone}, language.English)
	if filtered.TotalCount != 9 {
		t.Errorf("TotalCount = %d, want 9", filtered.TotalCount)
	}
	if filtered.Page != 1 {
		t.Errorf("Page = %d, want clamp to 1", filtered.Page)
	}
}

func TestCatalog_LookupIsValueBased(t *testing.T) {
	c := NewCatalog([]Product{{ID: "1001"}, {ID: "1001", Title: "dup"}, {ID: ""}})

	for _, id := range []string{"1001", " 1001", "1001.0"} {
		p, ok := c.Lookup(id)
		if !ok {
			t.Errorf("Lookup(%q) not found", id)
			continue
		}
		if p.Title != "" {
			t.Errorf("Lookup(%q) returned the duplicate, want first occurrence", id)
		}
	}
	if _, ok := c.Lookup(""); ok {
		t.Error("Lookup(\"\") should not match unusable products")
	}
}
