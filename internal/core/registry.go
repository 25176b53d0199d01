package core

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Row is one decoded spreadsheet row keyed by the header cell of its column.
type Row map[string]string

// Sheet is the decoded content of one spreadsheet: the header row as
// written and the data rows below it.
type Sheet struct {
	Headers []string
	Rows    []Row
}

// Decoder turns an uploaded file into rows. Decoders are registered at
// init time by the sheets package.
type Decoder struct {
	// Name identifies the decoder in logs and status output.
	Name string

	// Extensions are lowercase file extensions including the dot.
	Extensions []string

	// Decode reads the whole file. It returns ErrEmptyFile when the file
	// has no header or no data rows.
	Decode func(r io.Reader) (*Sheet, error)
}

// FallbackDecoder is used for files with an unrecognized extension.
const FallbackDecoder = "csv"

var (
	decoders   = make(map[string]Decoder)
	decodersMu sync.RWMutex
)

// RegisterDecoder adds a decoder to the registry.
// Panics if a decoder with the same name is already registered.
func RegisterDecoder(d Decoder) {
	decodersMu.Lock()
	defer decodersMu.Unlock()

	if _, exists := decoders[d.Name]; exists {
		panic(fmt.Sprintf("decoder already registered: %s", d.Name))
	}
	decoders[d.Name] = d
}

// DecoderFor picks a decoder by filename extension, falling back to CSV.
// Returns false only when no suitable decoder is registered at all.
func DecoderFor(filename string) (Decoder, bool) {
	ext := strings.ToLower(filepath.Ext(filename))

	decodersMu.RLock()
	defer decodersMu.RUnlock()

	for _, d := range decoders {
		for _, e := range d.Extensions {
			if e == ext {
				return d, true
			}
		}
	}
	d, ok := decoders[FallbackDecoder]
	return d, ok
}

// Decoders returns all registered decoders sorted by name.
func Decoders() []Decoder {
	decodersMu.RLock()
	defer decodersMu.RUnlock()

	result := make([]Decoder, 0, len(decoders))
	for _, d := range decoders {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// AcceptedExtensions returns every registered extension, sorted.
func AcceptedExtensions() []string {
	var exts []string
	for _, d := range Decoders() {
		exts = append(exts, d.Extensions...)
	}
	sort.Strings(exts)
	return exts
}

// ClearDecoders removes all registered decoders.
// Primarily useful for testing.
func ClearDecoders() {
	decodersMu.Lock()
	defer decodersMu.Unlock()
	decoders = make(map[string]Decoder)
}

// RowsFromRecords pairs header cells with each record. Missing trailing
// cells read as empty, extra cells are ignored, and rows whose cells are
// all blank are skipped. Returns ErrEmptyFile when nothing remains.
func RowsFromRecords(records [][]string) (*Sheet, error) {
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	headers := records[0]
	if allBlank(headers) {
		return nil, ErrEmptyFile
	}

	sheet := &Sheet{Headers: headers}
	for _, rec := range records[1:] {
		if allBlank(rec) {
			continue
		}
		row := make(Row, len(headers))
		for i, h := range headers {
			if strings.TrimSpace(h) == "" {
				continue
			}
			// Repeated headers keep the first non-empty cell.
			if prev, seen := row[h]; seen && prev != "" {
				continue
			}
			if i < len(rec) {
				row[h] = rec[i]
			} else {
				row[h] = ""
			}
		}
		sheet.Rows = append(sheet.Rows, row)
	}

	if len(sheet.Rows) == 0 {
		return nil, ErrEmptyFile
	}
	return sheet, nil
}

func allBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
