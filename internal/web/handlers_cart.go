package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/JonMunkholm/brickshop/internal/core"
	"github.com/JonMunkholm/brickshop/internal/logging"
	"github.com/JonMunkholm/brickshop/internal/web/templates"
	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
)

// maxCartBody bounds JSON and form bodies on cart routes.
const maxCartBody = 4 << 10

// cartItemRequest is the decoded body of POST /api/cart/items and
// PUT /api/cart/items/{id}. HTMX forms send the same fields form-encoded.
type cartItemRequest struct {
	ID  string
	Qty *int
}

// cartItemBody accepts ids and quantities as JSON strings or numbers.
type cartItemBody struct {
	ID  any `json:"id"`
	Qty any `json:"qty"`
}

// decodeCartItem reads a JSON or form body. A missing qty stays nil.
func decodeCartItem(w http.ResponseWriter, r *http.Request) (cartItemRequest, error) {
	var req cartItemRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxCartBody)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return req, errors.Join(errInvalidBody, err)
		}
		if len(bytes.TrimSpace(body)) == 0 {
			return req, nil
		}
		var raw cartItemBody
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return req, errors.Join(errInvalidBody, err)
		}
		req.ID = core.RecordID(raw.ID)
		req.Qty, err = parseQty(core.ValueString(raw.Qty))
		return req, err
	}

	if err := r.ParseForm(); err != nil {
		return req, errors.Join(errInvalidBody, err)
	}
	req.ID = core.CanonicalID(r.PostForm.Get("id"))
	qty, err := parseQty(r.PostForm.Get("qty"))
	req.Qty = qty
	return req, err
}

// parseQty coerces qty the way spreadsheet quantities are read: "3",
// "3.0" and 3.7 all give 3. Blank means absent. Text without a digit is
// rejected rather than read as zero, which would empty a line on PUT.
func parseQty(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if !strings.ContainsAny(raw, "0123456789") {
		return nil, fmt.Errorf("qty %q: %w", raw, core.ErrInvalidQuantity)
	}
	n := core.ParseInt(raw)
	return &n, nil
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.service.Cart())
}

// handleAddToCart adds qty (default 1) units of a catalog product.
func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCartItem(w, r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	qty := 1
	if req.Qty != nil {
		qty = *req.Qty
	}

	if err := s.service.AddToCart(r.Context(), req.ID, qty); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	if isHTMX(r) {
		s.renderPartial(w, r, templates.CartBadge(s.service.CartSummary()))
		return
	}
	writeJSON(w, r, http.StatusOK, s.service.Cart())
}

// handleSetQuantity overwrites the quantity; zero or less removes the line.
func (s *Server) handleSetQuantity(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCartItem(w, r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	if req.Qty == nil {
		respondError(w, r, fmt.Errorf("qty is required: %w", core.ErrInvalidQuantity), http.StatusBadRequest)
		return
	}

	s.service.SetCartQuantity(r.Context(), chi.URLParam(r, "id"), *req.Qty)
	s.respondCart(w, r)
}

func (s *Server) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	s.service.RemoveFromCart(r.Context(), chi.URLParam(r, "id"))
	s.respondCart(w, r)
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	s.service.ClearCart(r.Context())
	s.respondCart(w, r)
}

// respondCart returns the cart table to HTMX and the cart view to API clients.
func (s *Server) respondCart(w http.ResponseWriter, r *http.Request) {
	view := s.service.Cart()
	if isHTMX(r) {
		s.renderPartial(w, r, templates.CartTable(view))
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleExportOrder(w http.ResponseWriter, r *http.Request) {
	attachment(w, core.OrderFilename)
	if err := s.service.ExportOrder(w); err != nil {
		logging.FromContext(r.Context()).Error("export order failed", "error", err)
	}
}

func (s *Server) handleCartPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.CartPage(s.service.Cart()).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render cart page failed", "error", err)
	}
}

func (s *Server) renderPartial(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render partial failed", "error", err)
	}
}
