package sheets

import (
	"fmt"
	"io"

	"github.com/JonMunkholm/brickshop/internal/core"
	"github.com/xuri/excelize/v2"
)

// DecodeWorkbook reads the first worksheet of an Excel workbook. The first
// row is the header.
func DecodeWorkbook(r io.Reader) (*core.Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrUnreadableWorkbook, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, core.ErrEmptyFile
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %q: %v", core.ErrUnreadableWorkbook, sheets[0], err)
	}
	return core.RowsFromRecords(rows)
}
