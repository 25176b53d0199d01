// Package sheets registers the spreadsheet decoders used for catalog uploads.
//
// Import it for its side effect:
//
//	import _ "github.com/JonMunkholm/brickshop/internal/core/sheets"
package sheets

import "github.com/JonMunkholm/brickshop/internal/core"

func init() {
	core.RegisterDecoder(core.Decoder{
		Name:       "csv",
		Extensions: []string{".csv", ".txt"},
		Decode:     DecodeCSV,
	})
	core.RegisterDecoder(core.Decoder{
		Name:       "xlsx",
		Extensions: []string{".xlsx", ".xlsm", ".xls"},
		Decode:     DecodeWorkbook,
	})
}
