package core

// Product is one canonical inventory record. Products are treated as
// immutable once normalized; enrichment produces modified copies.
type Product struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Price           float64 `json:"price"`
	MSRP            float64 `json:"msrp"`
	Quantity        int     `json:"quantity"`
	ImageURL        string  `json:"imageUrl"`
	Condition       string  `json:"condition"`
	RebrickablePage string  `json:"rebrickablePage,omitempty"`
}

// Usable reports whether the product can be keyed in a catalog or cart.
// Rows with no id and no title normalize to an empty id.
func (p Product) Usable() bool {
	return p.ID != ""
}

// PlaceholderImage is shown for products without an image.
const PlaceholderImage = "https://via.placeholder.com/300x150?text=No+Image"

// DisplayImage returns the product image or the placeholder.
func (p Product) DisplayImage() string {
	if p.ImageURL == "" {
		return PlaceholderImage
	}
	return p.ImageURL
}
