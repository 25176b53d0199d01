package sheets

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/JonMunkholm/brickshop/internal/core"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DecodeCSV reads a delimited text file. A leading UTF-8 or UTF-16 byte
// order mark selects the encoding; without one the input is read as UTF-8
// with invalid bytes replaced by U+FFFD.
func DecodeCSV(r io.Reader) (*core.Sheet, error) {
	text := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(text)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidCSV, err)
	}
	return core.RowsFromRecords(records)
}
