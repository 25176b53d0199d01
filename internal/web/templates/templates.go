// Package templates renders the shop pages and HTMX partials as templ
// components.
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/JonMunkholm/brickshop/internal/core"
	"github.com/a-h/templ"
)

// htmlWriter accumulates the first write error so components can emit
// markup without checking every call.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

// text writes s HTML-escaped.
func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

// rawf formats into markup. Only trusted values (numbers, constants) may be
// passed; user text goes through text or attr.
func (h *htmlWriter) rawf(format string, args ...any) {
	h.raw(fmt.Sprintf(format, args...))
}

// attr writes name="value" with value escaped.
func (h *htmlWriter) attr(name, value string) {
	h.raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

// url writes a URL attribute. Schemes other than http(s), mailto, tel and
// ftp are replaced with templ's failed-sanitization URL.
func (h *htmlWriter) url(name, value string) {
	h.attr(name, string(templ.URL(value)))
}

// safeURL reports whether value survives templ.URL unchanged.
func safeURL(value string) bool {
	return templ.URL(value) != templ.FailedSanitizationURL
}

func (h *htmlWriter) render(ctx context.Context, c templ.Component) {
	if h.err == nil && c != nil {
		h.err = c.Render(ctx, h.w)
	}
}

func component(fn func(ctx context.Context, h *htmlWriter)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		fn(ctx, h)
		return h.err
	})
}

// Layout wraps body in the page shell with the navigation bar.
func Layout(title string, cartUnits int, body templ.Component) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>`)
		h.text(title)
		h.raw(` | BrickShop</title>`)
		h.raw(`<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/css/bootstrap.min.css">`)
		h.raw(`<script src="https://unpkg.com/htmx.org@2.0.4"></script>`)
		// Swap 4xx/5xx bodies too, so error alerts render.
		h.raw(`<meta name="htmx-config" content='{"responseHandling":[{"code":"204","swap":false},{"code":"[23]..","swap":true},{"code":"[45]..","swap":true,"error":true}]}'>`)
		h.raw(`</head><body>`)
		h.raw(`<nav class="navbar navbar-dark bg-dark mb-3"><div class="container">`)
		h.raw(`<a class="navbar-brand" href="/">BrickShop</a>`)
		h.raw(`<a class="btn btn-outline-light" href="/cart">Cart `)
		h.render(ctx, CartBadge(cartUnits))
		h.raw(`</a></div></nav><main class="container"><div id="alerts"></div>`)
		h.render(ctx, body)
		h.raw(`</main></body></html>`)
	})
}

// CartBadge shows the cart unit count. HTMX add requests swap it in place.
func CartBadge(units int) templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		h.rawf(`<span id="cart-badge" class="badge bg-secondary">%d</span>`, units)
	})
}

// ErrorAlert renders a dismissible error with its support code.
func ErrorAlert(message, action, code string) templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		h.raw(`<div class="alert alert-danger" role="alert"><strong>`)
		h.text(message)
		h.raw(`</strong>`)
		if action != "" {
			h.raw(`<div>`)
			h.text(action)
			h.raw(`</div>`)
		}
		if code != "" {
			h.raw(`<small class="text-muted">Code: `)
			h.text(code)
			h.raw(`</small>`)
		}
		h.raw(`</div>`)
	})
}

func money(f float64) string {
	return "$" + core.FormatMoney(f)
}
