package catalogtool

import (
	"strings"

	"github.com/JonMunkholm/brickshop/internal/core"
)

// EnrichStats counts what EnrichProducts changed.
type EnrichStats struct {
	Images int
	Titles int
}

// EnrichProducts applies the cache to products in place. Images and detail
// links follow core enrichment rules. A title is replaced by the cached set
// name only when it is empty or just repeats the id.
func EnrichProducts(products []core.Product, cache core.Enrichment) EnrichStats {
	var stats EnrichStats
	for i, p := range products {
		entry, ok := cache[p.ID]
		if !ok {
			continue
		}
		if np, changed := entry.Apply(p); changed {
			if np.ImageURL != p.ImageURL {
				stats.Images++
			}
			p = np
		}
		if entry.Name != "" && placeholderTitle(p) {
			p.Title = entry.Name
			stats.Titles++
		}
		products[i] = p
	}
	return stats
}

func placeholderTitle(p core.Product) bool {
	t := strings.TrimSpace(p.Title)
	return t == "" || t == p.ID
}

// UniqueIDs lists product ids in first-seen order.
func UniqueIDs(products []core.Product) []string {
	seen := make(map[string]bool, len(products))
	var ids []string
	for _, p := range products {
		if p.ID == "" || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		ids = append(ids, p.ID)
	}
	return ids
}
