package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ProductFromRecord normalizes a JSON product record. Values may be strings,
// numbers, booleans or null; they are stringified and passed through
// Normalize, so a pre-built catalog obeys the same rules as an upload.
// rebrickablePage is not a spreadsheet column and is carried over as-is.
func ProductFromRecord(rec map[string]any) Product {
	row := make(map[string]string, len(rec))
	for k, v := range rec {
		row[k] = ValueString(v)
	}
	p := Normalize(row)
	for k, v := range rec {
		if strings.EqualFold(strings.TrimSpace(k), "rebrickablePage") {
			p.RebrickablePage = strings.TrimSpace(ValueString(v))
		}
	}
	return p
}

// RecordID canonicalizes an id that arrived as a JSON string or number, so
// 1001, "1001" and 1001.0 all name the same product.
func RecordID(v any) string {
	return CanonicalID(ValueString(v))
}

// ParseCatalogJSON decodes a JSON array of product records. Elements that
// are not objects are skipped; a document that is not an array is an error.
func ParseCatalogJSON(data []byte) ([]Product, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw []json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	products := make([]Product, 0, len(raw))
	for _, r := range raw {
		var rec map[string]any
		d := json.NewDecoder(bytes.NewReader(r))
		d.UseNumber()
		if err := d.Decode(&rec); err != nil || rec == nil {
			continue
		}
		products = append(products, ProductFromRecord(rec))
	}
	return products, nil
}

// ValueString renders a value decoded with json.Decoder.UseNumber as text.
// Numbers keep their literal form; objects and arrays are re-encoded.
func ValueString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
