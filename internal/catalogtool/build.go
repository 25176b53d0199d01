package catalogtool

import (
	"fmt"
	"io"

	"github.com/JonMunkholm/brickshop/internal/core"
)

// BuildStats summarizes a spreadsheet build.
type BuildStats struct {
	Rows       int
	Unique     int
	Duplicates int
	Skipped    int
}

// Build decodes a stock spreadsheet and aggregates it into one product per
// id. Decoders must be registered (import internal/core/sheets).
func Build(filename string, r io.Reader) ([]core.Product, BuildStats, error) {
	dec, ok := core.DecoderFor(filename)
	if !ok {
		return nil, BuildStats{}, fmt.Errorf("build %s: no decoder registered", filename)
	}
	sheet, err := dec.Decode(r)
	if err != nil {
		return nil, BuildStats{}, fmt.Errorf("build %s: %w", filename, err)
	}

	rows := make([]core.Product, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		rows = append(rows, core.Normalize(row))
	}
	products, stats := Aggregate(rows)
	stats.Rows = len(sheet.Rows)
	return products, stats, nil
}

// Aggregate merges rows sharing an id. Each spreadsheet row is one physical
// set, so quantity counts occurrences: the first row counts 1 and every
// duplicate adds 1, whatever the quantity column said. An empty title,
// zero price or empty image is filled from later duplicates. Order follows
// first occurrence; rows without an id are dropped.
func Aggregate(rows []core.Product) ([]core.Product, BuildStats) {
	var stats BuildStats
	index := make(map[string]int)
	out := make([]core.Product, 0, len(rows))

	for _, p := range rows {
		if !p.Usable() {
			stats.Skipped++
			continue
		}
		i, seen := index[p.ID]
		if !seen {
			p.Quantity = 1
			index[p.ID] = len(out)
			out = append(out, p)
			continue
		}

		stats.Duplicates++
		agg := &out[i]
		agg.Quantity++
		if agg.Title == "" {
			agg.Title = p.Title
		}
		if agg.Price == 0 {
			agg.Price = p.Price
		}
		if agg.ImageURL == "" {
			agg.ImageURL = p.ImageURL
		}
	}

	stats.Unique = len(out)
	return out, stats
}
