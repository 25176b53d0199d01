package core

// cart.go holds the cart data structure. It has no knowledge of the catalog
// or of persistence; Service checks ids and saves after each mutation.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// CartEntry is one cart line. Qty is always at least 1 for stored entries.
type CartEntry struct {
	Product Product `json:"product"`
	Qty     int     `json:"qty"`
}

// LineTotal is the unit price times quantity.
func (e CartEntry) LineTotal() float64 {
	return e.Product.Price * float64(e.Qty)
}

// Cart maps product ids to entries and remembers insertion order, which is
// the order used for display, export and the persisted document.
type Cart struct {
	entries map[string]CartEntry
	order   []string
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{entries: make(map[string]CartEntry)}
}

// Add increments the entry for p by qty, creating it if needed.
// Non-positive increments are ignored and reported as false.
func (c *Cart) Add(p Product, qty int) bool {
	if qty <= 0 || !p.Usable() {
		return false
	}
	if e, ok := c.entries[p.ID]; ok {
		e.Qty += qty
		c.entries[p.ID] = e
		return true
	}
	c.entries[p.ID] = CartEntry{Product: p, Qty: qty}
	c.order = append(c.order, p.ID)
	return true
}

// Set overwrites the quantity of an existing entry. A quantity of zero or
// less removes the entry. Returns false when id is not in the cart.
func (c *Cart) Set(id string, qty int) bool {
	e, ok := c.entries[id]
	if !ok {
		return false
	}
	if qty <= 0 {
		c.Remove(id)
		return true
	}
	e.Qty = qty
	c.entries[id] = e
	return true
}

// Remove deletes the entry for id. Returns false when id is not in the cart.
func (c *Cart) Remove(id string) bool {
	if _, ok := c.entries[id]; !ok {
		return false
	}
	delete(c.entries, id)
	for i, o := range c.order {
		if o == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.entries = make(map[string]CartEntry)
	c.order = nil
}

// Get returns the entry for id.
func (c *Cart) Get(id string) (CartEntry, bool) {
	e, ok := c.entries[id]
	return e, ok
}

// Len returns the number of distinct products in the cart.
func (c *Cart) Len() int {
	return len(c.order)
}

// Entries returns the entries in insertion order.
func (c *Cart) Entries() []CartEntry {
	out := make([]CartEntry, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.entries[id])
	}
	return out
}

// Summary returns the total number of units across all entries.
func (c *Cart) Summary() int {
	n := 0
	for _, id := range c.order {
		n += c.entries[id].Qty
	}
	return n
}

// Total returns the sum of all line totals.
func (c *Cart) Total() float64 {
	var t float64
	for _, id := range c.order {
		t += c.entries[id].LineTotal()
	}
	return t
}

// Clone returns an independent copy.
func (c *Cart) Clone() *Cart {
	out := NewCart()
	for _, id := range c.order {
		out.entries[id] = c.entries[id]
		out.order = append(out.order, id)
	}
	return out
}

// MarshalJSON encodes the cart as an object keyed by product id, in
// insertion order.
func (c *Cart) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range c.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(c.entries[id])
		if err != nil {
			return nil, fmt.Errorf("encode cart entry %s: %w", id, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a persisted cart, keeping the document's key order.
// Entries that are not objects, lack an id, or have a quantity below 1 are
// dropped rather than failing the whole document.
func (c *Cart) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("cart state: expected object, got %v", tok)
	}

	fresh := NewCart()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}

		entry, ok := decodeStoredEntry(key, raw)
		if !ok {
			continue
		}
		if _, dup := fresh.entries[entry.Product.ID]; dup {
			continue
		}
		fresh.entries[entry.Product.ID] = entry
		fresh.order = append(fresh.order, entry.Product.ID)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*c = *fresh
	return nil
}

// storedEntry accepts loosely typed fields so that older or hand-edited
// state (numeric ids, string quantities) still restores.
type storedEntry struct {
	Product map[string]any `json:"product"`
	Qty     json.Number    `json:"qty"`
}

func decodeStoredEntry(key string, raw json.RawMessage) (CartEntry, bool) {
	var se storedEntry
	if err := json.Unmarshal(raw, &se); err != nil || se.Product == nil {
		return CartEntry{}, false
	}

	qty, err := se.Qty.Float64()
	if err != nil || math.IsNaN(qty) || qty < 1 || qty > math.MaxInt32 {
		return CartEntry{}, false
	}

	p := ProductFromRecord(se.Product)
	if p.ID == "" {
		p.ID = CanonicalID(key)
	}
	if p.ID == "" {
		return CartEntry{}, false
	}
	return CartEntry{Product: p, Qty: int(math.Trunc(qty))}, true
}
