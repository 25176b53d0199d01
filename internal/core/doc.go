// Package core provides the catalog and cart logic for the shop.
//
// The package holds no HTTP handlers and talks to storage only through
// [StateStore]. It is driven by the web handlers, catalogctl, and tests.
//
// # Architecture
//
//   - Normalize: turns a raw spreadsheet row into a canonical [Product].
//   - Catalog: an ordered product list, replaced whole on every load, with
//     filter, sort and paginate via [Catalog.Query].
//   - Cart: id to quantity aggregation that preserves insertion order.
//   - Export: order and template CSV writers.
//   - Enrichment: overlays image and detail links from a lookup document.
//   - Service: single owner of the catalog, cart and lookup. It persists the
//     cart through a [StateStore] after every mutation.
//
// # Decoder Registry
//
// Spreadsheet formats are registered at init time using [RegisterDecoder]:
//
//	core.RegisterDecoder(core.Decoder{
//	    Name:       "csv",
//	    Extensions: []string{".csv"},
//	    Decode:     decodeCSV,
//	})
//
// Importing internal/core/sheets registers the CSV and XLSX decoders.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each category has a code for support reference:
//
//   - FILE001-FILE005: upload problems (size, format, empty)
//   - CART001-CART002: cart requests (unknown product, bad quantity)
//   - LOAD001: load limiter saturated
//   - STORE001: cart persistence
//   - REQ001-REQ003, RATE001: request handling
package core
