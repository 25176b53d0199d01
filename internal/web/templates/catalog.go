package templates

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/JonMunkholm/brickshop/internal/core"
	"github.com/a-h/templ"
)

// CatalogData is everything the catalog page shows. Filter fields hold the
// raw request values so the form redisplays what the user typed.
type CatalogData struct {
	Page       core.Page
	Search     string
	Condition  string
	Min        string
	Max        string
	Sort       core.SortMode
	Conditions []string
	CartUnits  int
	Status     core.LoadStatus
	Accept     []string
}

// PageURL links to page n with the current filters.
func (d CatalogData) PageURL(n int) string {
	v := url.Values{}
	if d.Search != "" {
		v.Set("q", d.Search)
	}
	if d.Condition != "" {
		v.Set("condition", d.Condition)
	}
	if d.Min != "" {
		v.Set("min", d.Min)
	}
	if d.Max != "" {
		v.Set("max", d.Max)
	}
	// Always present: an empty sort means file order, which differs
	// from an absent sort.
	v.Set("sort", string(d.Sort))
	v.Set("page", strconv.Itoa(n))
	return "/?" + v.Encode()
}

var sortLabels = map[core.SortMode]string{
	core.SortNone:      "File order",
	core.SortTitleAsc:  "Title A-Z",
	core.SortTitleDesc: "Title Z-A",
	core.SortPriceAsc:  "Price low to high",
	core.SortPriceDesc: "Price high to low",
}

// CatalogPage renders the full catalog page.
func CatalogPage(d CatalogData) templ.Component {
	return Layout("Catalog", d.CartUnits, CatalogBody(d))
}

// CatalogBody is the page content without the shell.
func CatalogBody(d CatalogData) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		uploadForm(h, d)
		filterForm(h, d)

		h.rawf(`<p class="text-muted small">%d products</p>`, d.Page.TotalCount)
		if len(d.Page.Items) == 0 {
			h.raw(`<div class="text-muted">No items loaded. Upload a CSV/XLSX to begin.</div>`)
			return
		}

		h.raw(`<div class="row row-cols-1 row-cols-md-3 row-cols-lg-4 g-3">`)
		for _, p := range d.Page.Items {
			h.render(ctx, ProductCard(p))
		}
		h.raw(`</div>`)
		pager(h, d)
	})
}

func uploadForm(h *htmlWriter, d CatalogData) {
	h.raw(`<form class="row g-2 align-items-center mb-3" hx-post="/api/catalog/upload" hx-encoding="multipart/form-data" hx-target="#upload-result">`)
	h.raw(`<div class="col-auto"><input class="form-control" type="file" name="file" required`)
	h.attr("accept", strings.Join(d.Accept, ","))
	h.raw(`></div><div class="col-auto"><button class="btn btn-primary" type="submit">Load catalog</button></div>`)
	h.raw(`<div class="col-auto"><a href="/api/template">Download template</a></div>`)
	h.raw(`<div class="col-12" id="upload-result">`)
	if d.Status.Source != "" {
		h.rawf(`<small class="text-muted">%d products from `, d.Status.Products)
		h.text(d.Status.Source)
		h.raw(`</small>`)
	}
	h.raw(`</div></form>`)
}

func filterForm(h *htmlWriter, d CatalogData) {
	h.raw(`<form class="row g-2 mb-3" method="get" action="/">`)
	h.raw(`<div class="col-md-4"><input class="form-control" type="search" name="q" placeholder="Search title or description"`)
	h.attr("value", d.Search)
	h.raw(`></div>`)

	h.raw(`<div class="col-md-2"><select class="form-select" name="condition"><option value="">Any condition</option>`)
	for _, c := range d.Conditions {
		h.raw(`<option`)
		h.attr("value", c)
		if strings.EqualFold(c, d.Condition) {
			h.raw(` selected`)
		}
		h.raw(`>`)
		h.text(c)
		h.raw(`</option>`)
	}
	h.raw(`</select></div>`)

	h.raw(`<div class="col-md-1"><input class="form-control" type="number" step="0.01" name="min" placeholder="Min"`)
	h.attr("value", d.Min)
	h.raw(`></div><div class="col-md-1"><input class="form-control" type="number" step="0.01" name="max" placeholder="Max"`)
	h.attr("value", d.Max)
	h.raw(`></div>`)

	h.raw(`<div class="col-md-2"><select class="form-select" name="sort">`)
	for _, m := range append([]core.SortMode{core.SortNone}, core.SortModes...) {
		h.raw(`<option`)
		h.attr("value", string(m))
		if m == d.Sort {
			h.raw(` selected`)
		}
		h.raw(`>`)
		h.text(sortLabels[m])
		h.raw(`</option>`)
	}
	h.raw(`</select></div>`)
	h.raw(`<div class="col-md-2"><button class="btn btn-outline-secondary w-100" type="submit">Apply</button></div></form>`)
}

// ProductCard renders one product tile with its add-to-cart form.
func ProductCard(p core.Product) templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		h.raw(`<div class="col"><div class="card h-100">`)
		linked := p.RebrickablePage != "" && safeURL(p.RebrickablePage)
		if linked {
			h.raw(`<a target="_blank" rel="noopener"`)
			h.url("href", p.RebrickablePage)
			h.raw(`>`)
		}
		img := p.DisplayImage()
		if !safeURL(img) {
			img = core.PlaceholderImage
		}
		h.raw(`<img class="card-img-top" loading="lazy"`)
		h.url("src", img)
		h.attr("alt", p.Title)
		h.raw(`>`)
		if linked {
			h.raw(`</a>`)
		}

		title := p.Title
		if title == "" {
			title = "Untitled"
		}
		h.raw(`<div class="card-body d-flex flex-column"><h5 class="card-title">`)
		h.text(title)
		h.raw(`</h5><p class="card-text text-muted small mb-2">`)
		h.text(p.Description)
		h.raw(`</p><div class="mt-auto">`)
		priceBlock(h, p)
		h.rawf(`<div class="small"><span class="badge bg-info text-dark">Qty: %d</span>`, p.Quantity)
		if p.Condition != "" {
			h.raw(` <span class="ms-2">`)
			h.text(p.Condition)
			h.raw(`</span>`)
		}
		h.raw(`</div>`)

		h.raw(`<form class="d-flex mt-2" hx-post="/api/cart/items" hx-target="#cart-badge" hx-swap="outerHTML">`)
		h.raw(`<input type="hidden" name="id"`)
		h.attr("value", p.ID)
		h.raw(`><input class="form-control form-control-sm me-2" style="width:70px" type="number" name="qty" min="1" value="1">`)
		h.raw(`<button class="btn btn-sm btn-primary" type="submit">Add</button></form>`)
		h.raw(`</div></div></div></div>`)
	})
}

// priceBlock shows the sale price, struck-through MSRP and margin when the
// MSRP is higher, or the MSRP alone when there is no sale price.
func priceBlock(h *htmlWriter, p core.Product) {
	switch {
	case p.MSRP > 0 && p.Price > 0 && p.MSRP > p.Price:
		margin := p.MSRP - p.Price
		pct := margin / p.MSRP * 100
		h.rawf(`<div class="price"><span class="text-muted text-decoration-line-through">%s</span> <strong class="ms-2">%s</strong></div>`,
			money(p.MSRP), money(p.Price))
		h.rawf(`<div class="small text-success">Margin: %s (%.1f%%)</div>`, money(margin), pct)
	case p.MSRP > 0 && p.Price == 0:
		h.rawf(`<div class="price">%s</div>`, money(p.MSRP))
	default:
		h.rawf(`<div class="price">%s</div>`, money(p.Price))
	}
}

func pager(h *htmlWriter, d CatalogData) {
	pg := d.Page
	if pg.TotalPages <= 1 {
		return
	}
	link := func(label string, n int, disabled, active bool) {
		class := "page-item"
		if disabled {
			class += " disabled"
		}
		if active {
			class += " active"
		}
		h.raw(`<li`)
		h.attr("class", class)
		h.raw(`><a class="page-link"`)
		h.url("href", d.PageURL(n))
		h.raw(`>`)
		h.text(label)
		h.raw(`</a></li>`)
	}

	h.raw(`<nav class="mt-3"><ul class="pagination justify-content-center">`)
	link("Prev", pg.Page-1, !pg.HasPrev, false)
	for _, n := range pg.Pages {
		link(strconv.Itoa(n), n, false, n == pg.Page)
	}
	link("Next", pg.Page+1, !pg.HasNext, false)
	h.raw(`</ul></nav>`)
}
