package core

import (
	"bufio"
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"
)

// Download filenames.
const (
	OrderFilename    = "lego-order.csv"
	TemplateFilename = "lego-template.csv"
)

// OrderHeader is the column layout of an exported order.
var OrderHeader = []string{"id", "title", "unit_price", "qty", "line_total"}

// TemplateHeader is the column layout users are asked to upload.
var TemplateHeader = []string{"id", "title", "description", "price", "msrp", "quantity", "imageUrl", "condition"}

var templateSample = []string{"1001", "Red 2x4 Bricks (100pcs)", "Mixed set of 100 red 2x4 bricks", "0.15", "0.20", "100", "", "used"}

// WriteOrderCSV writes the entries as an order file. Text and money cells
// are always quoted with embedded quotes doubled; qty is a bare integer.
// encoding/csv only quotes when needed, so rows are assembled here.
func WriteOrderCSV(w io.Writer, entries []CartEntry) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(strings.Join(OrderHeader, ","))
	bw.WriteByte('\n')

	for _, e := range entries {
		cells := []string{
			quoteCell(e.Product.ID),
			quoteCell(e.Product.Title),
			quoteCell(FormatMoney(e.Product.Price)),
			strconv.Itoa(e.Qty),
			quoteCell(FormatMoney(e.LineTotal())),
		}
		bw.WriteString(strings.Join(cells, ","))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteTemplateCSV writes the fixed upload template: header plus one sample row.
func WriteTemplateCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TemplateHeader); err != nil {
		return err
	}
	if err := cw.Write(templateSample); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func quoteCell(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// FormatMoney renders f with exactly two decimals. Half-cent ties round
// away from zero: 0.125 is "0.13".
func FormatMoney(f float64) string {
	return strconv.FormatFloat(math.Round(f*100)/100, 'f', 2, 64)
}
