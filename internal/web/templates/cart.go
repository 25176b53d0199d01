package templates

import (
	"context"
	"net/url"

	"github.com/JonMunkholm/brickshop/internal/core"
	"github.com/a-h/templ"
)

// CartPage renders the full cart page.
func CartPage(view core.CartView) templ.Component {
	return Layout("Cart", view.Units, CartTable(view))
}

// CartTable is the swappable cart body. Every cart control targets #cart
// and receives this component back.
func CartTable(view core.CartView) templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		h.raw(`<div id="cart">`)
		if len(view.Items) == 0 {
			h.raw(`<div class="text-muted">Cart is empty</div></div>`)
			return
		}

		h.raw(`<table class="table align-middle"><thead><tr><th>Item</th><th>Price</th><th style="width:120px">Qty</th><th class="text-end">Line total</th><th></th></tr></thead><tbody>`)
		for _, line := range view.Items {
			itemURL := "/api/cart/items/" + url.PathEscape(line.Product.ID)
			name := line.Product.Title
			if name == "" {
				name = line.Product.ID
			}

			h.raw(`<tr><td>`)
			h.text(name)
			h.raw(`<div class="small text-muted">`)
			h.text(line.Product.ID)
			h.raw(`</div></td><td>`)
			h.text(money(line.Product.Price))
			h.raw(`</td><td><form hx-trigger="change" hx-target="#cart" hx-swap="outerHTML"`)
			h.url("hx-put", itemURL)
			h.rawf(`><input class="form-control form-control-sm" type="number" name="qty" min="0" value="%d"></form></td>`, line.Qty)
			h.raw(`<td class="text-end">`)
			h.text(money(line.LineTotal))
			h.raw(`</td><td><button class="btn btn-sm btn-outline-danger" hx-target="#cart" hx-swap="outerHTML"`)
			h.url("hx-delete", itemURL)
			h.raw(`>Remove</button></td></tr>`)
		}
		h.raw(`</tbody></table>`)

		h.rawf(`<div class="d-flex justify-content-between align-items-center"><div><strong>Total: %s</strong> <span class="text-muted">(%d units)</span></div>`,
			templ.EscapeString(money(view.Total)), view.Units)
		h.raw(`<div><button class="btn btn-outline-secondary me-2" hx-delete="/api/cart" hx-target="#cart" hx-swap="outerHTML" hx-confirm="Empty the cart?">Clear</button>`)
		h.raw(`<a class="btn btn-success" href="/api/cart/export">Export order CSV</a></div></div>`)
		h.raw(`</div>`)
	})
}

// UploadResult reports a finished catalog load in the upload form.
func UploadResult(res *core.LoadResult) templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		h.raw(`<div class="alert alert-success mb-0">Loaded `)
		h.rawf(`%d products from %d rows`, res.Products, res.Rows)
		if res.Skipped > 0 {
			h.rawf(` (%d skipped)`, res.Skipped)
		}
		if res.Enriched > 0 {
			h.rawf(`, %d images matched`, res.Enriched)
		}
		h.raw(`. <a href="/">Refresh catalog</a></div>`)
	})
}
