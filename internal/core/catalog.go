package core

// Catalog is an ordered, read-only set of products. A new file load builds
// a new Catalog and swaps it in whole; catalogs are never merged.
type Catalog struct {
	products []Product
	index    map[string]int
}

// NewCatalog builds a catalog from products in their given order.
// The id index keeps the first product for each id and ignores empty ids.
func NewCatalog(products []Product) *Catalog {
	c := &Catalog{
		products: products,
		index:    make(map[string]int, len(products)),
	}
	for i, p := range products {
		if !p.Usable() {
			continue
		}
		if _, dup := c.index[p.ID]; !dup {
			c.index[p.ID] = i
		}
	}
	return c
}

// Len returns the number of products, including unusable ones.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.products)
}

// Products returns a copy of the products in catalog order.
func (c *Catalog) Products() []Product {
	if c == nil {
		return nil
	}
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Lookup finds a product by id. The id is canonicalized first so "1001",
// " 1001 " and "1001.0" all resolve to the same product.
func (c *Catalog) Lookup(id string) (Product, bool) {
	if c == nil {
		return Product{}, false
	}
	i, ok := c.index[CanonicalID(id)]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

// Conditions returns the distinct condition tags in first-seen order.
func (c *Catalog) Conditions() []string {
	if c == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, p := range c.products {
		if p.Condition == "" || seen[p.Condition] {
			continue
		}
		seen[p.Condition] = true
		out = append(out, p.Condition)
	}
	return out
}
