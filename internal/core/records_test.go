package core

import (
	"encoding/json"
	"testing"
)

func TestProductFromRecord(t *testing.T) {
	rec := map[string]any{
		"ID":              float64(10267),
		"Title":           "Gingerbread House",
		"price":           "$99.99",
		"quantity":        float64(2),
		"condition":       "NEW",
		"rebrickablePage": "https://rebrickable.com/sets/10267-1/",
		"sealed":          true,
		"notes":           nil,
	}

	got := ProductFromRecord(rec)
	want := Product{
		ID:              "10267",
		Title:           "Gingerbread House",
		Price:           99.99,
		Quantity:        2,
		Condition:       "new",
		RebrickablePage: "https://rebrickable.com/sets/10267-1/",
	}
	if got != want {
		t.Errorf("ProductFromRecord() = %+v, want %+v", got, want)
	}
}

func TestParseCatalogJSON(t *testing.T) {
	doc := `[
		{"id": "1001", "title": "Red Bricks", "price": 0.15, "quantity": 100},
		{"id": 10267.0, "title": "Gingerbread"},
		"skip me",
		null,
		{"title": ""}
	]`

	products, err := ParseCatalogJSON([]byte(doc))
	if err != nil {
		t.Fatalf("ParseCatalogJSON: %v", err)
	}
	if len(products) != 3 {
		t.Fatalf("len = %d, want 3", len(products))
	}
	if products[0].Price != 0.15 || products[0].Quantity != 100 {
		t.Errorf("products[0] = %+v", products[0])
	}
	if products[1].ID != "10267" {
		t.Errorf("products[1].ID = %q, want %q", products[1].ID, "10267")
	}
	if products[2].Usable() {
		t.Error("record without id or title should be unusable")
	}
}

func TestParseCatalogJSON_NotAnArray(t *testing.T) {
	for _, doc := range []string{`{"id": "1"}`, `oops`, ``} {
		if _, err := ParseCatalogJSON([]byte(doc)); err == nil {
			t.Errorf("ParseCatalogJSON(%q) err = nil", doc)
		}
	}
}

func TestRecordID(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"1001", "1001"},
		{" 1001 ", "1001"},
		{json.Number("1001"), "1001"},
		{json.Number("10267.0"), "10267"},
		{float64(75192), "75192"},
		{"10267-1", "10267-1"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := RecordID(tt.in); got != tt.want {
			t.Errorf("RecordID(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
