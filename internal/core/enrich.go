package core

// enrich.go overlays externally looked-up images and detail links onto products.
//
// The lookup document is produced by the catalogctl refresh-cache command
// and maps product id to what the Rebrickable API returned for it. URL
// synthesis follows Rebrickable's public CDN and site layout.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	rebrickableImageTemplate = "https://cdn.rebrickable.com/media/sets/%s/%s.jpg"
	rebrickablePageTemplate  = "https://rebrickable.com/sets/%s/"
)

// EnrichmentEntry is one cached lookup result.
type EnrichmentEntry struct {
	Name        string `json:"name,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	SetNumFound string `json:"set_num_found,omitempty"`
	Fetched     int64  `json:"fetched,omitempty"`
	Status      int    `json:"status,omitempty"`
}

// Enrichment maps canonical product ids to lookup results.
type Enrichment map[string]EnrichmentEntry

// ParseEnrichment decodes a lookup document. Entries that fail to decode
// are skipped. A document that is not a JSON object yields an empty lookup
// and an error the caller may log and ignore.
func ParseEnrichment(data []byte) (Enrichment, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Enrichment{}, fmt.Errorf("decode enrichment: %w", err)
	}

	out := make(Enrichment, len(raw))
	for id, msg := range raw {
		var e EnrichmentEntry
		dec := json.NewDecoder(bytes.NewReader(msg))
		if err := dec.Decode(&e); err != nil {
			continue
		}
		out[CanonicalID(id)] = e
	}
	return out, nil
}

// Apply returns p with enrichment applied, and whether anything changed.
//
// A direct image URL (.jpg, .jpeg, .png) becomes both the image and the
// detail link. Otherwise a found set number yields CDN and site URLs.
func (e EnrichmentEntry) Apply(p Product) (Product, bool) {
	if isDirectImage(e.ImageURL) {
		p.ImageURL = e.ImageURL
		p.RebrickablePage = e.ImageURL
		return p, true
	}
	set := strings.TrimSpace(e.SetNumFound)
	if set == "" {
		return p, false
	}
	p.ImageURL = SetImageURL(set)
	p.RebrickablePage = SetPageURL(set)
	return p, true
}

// Enrich applies the lookup to every product in place and returns how
// many were changed. Products without an entry are left alone.
func Enrich(products []Product, lookup Enrichment) int {
	if len(lookup) == 0 {
		return 0
	}
	changed := 0
	for i, p := range products {
		entry, ok := lookup[p.ID]
		if !ok {
			continue
		}
		if np, ok := entry.Apply(p); ok {
			products[i] = np
			changed++
		}
	}
	return changed
}

// SetImageURL builds the CDN image URL for a set number such as "10267-1".
// The directory is the first three characters of the part before '-'.
func SetImageURL(setNum string) string {
	base, _, _ := strings.Cut(setNum, "-")
	prefix := base
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	return fmt.Sprintf(rebrickableImageTemplate, prefix, setNum)
}

// SetPageURL builds the site detail URL for a set number.
func SetPageURL(setNum string) string {
	return fmt.Sprintf(rebrickablePageTemplate, setNum)
}

func isDirectImage(url string) bool {
	u := strings.ToLower(strings.TrimSpace(url))
	if u == "" {
		return false
	}
	return strings.HasSuffix(u, ".jpg") || strings.HasSuffix(u, ".jpeg") || strings.HasSuffix(u, ".png")
}
