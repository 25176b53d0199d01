package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/JonMunkholm/brickshop/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/text/language"
)

// DefaultCartKey is the persistence key for the cart document. The version
// suffix lets a future format live next to older saved state.
const DefaultCartKey = "lego_cart_v1"

// StateStore persists opaque documents by key.
type StateStore interface {
	// Load returns the stored bytes, or nil and no error when key is absent.
	Load(ctx context.Context, key string) ([]byte, error)
	// Save replaces the value stored under key in one write.
	Save(ctx context.Context, key string, data []byte) error
}

// Observer receives service events for metrics. All methods must be cheap
// and safe for concurrent use.
type Observer interface {
	CatalogLoaded(source string, products int, err error)
	CartSaved(err error)
	CartRestored(entries int, err error)
}

type nopObserver struct{}

func (nopObserver) CatalogLoaded(string, int, error) {}
func (nopObserver) CartSaved(error)                  {}
func (nopObserver) CartRestored(int, error)          {}

// Options configures a Service. Zero values select defaults.
type Options struct {
	CartKey            string
	Locale             string
	MaxConcurrentLoads int
	MaxLoadWait        time.Duration
	LoadTimeout        time.Duration
	SaveTimeout        time.Duration
	Observer           Observer
}

// LoadStatus describes the most recent catalog replacement.
type LoadStatus struct {
	LoadID      string    `json:"load_id,omitempty"`
	Source      string    `json:"source,omitempty"`
	Products    int       `json:"products"`
	Enriched    int       `json:"enriched"`
	Skipped     int       `json:"skipped"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
}

// Service owns the catalog, the cart and the enrichment lookup. It is safe
// for concurrent use. Cart mutations are persisted before they return.
type Service struct {
	store    StateStore
	cartKey  string
	lang     language.Tag
	limiter  *LoadLimiter
	observer Observer

	loadTimeout time.Duration
	saveTimeout time.Duration

	mu         sync.RWMutex
	catalog    *Catalog
	cart       *Cart
	cartSeq    uint64
	enrichment Enrichment
	status     LoadStatus

	saveMu   sync.Mutex
	savedSeq uint64
}

// NewService creates a Service with an empty catalog and cart.
// Call RestoreCart once before serving requests.
func NewService(store StateStore, opts Options) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("new service: state store is required")
	}

	lang := language.English
	if opts.Locale != "" {
		tag, err := language.Parse(opts.Locale)
		if err != nil {
			return nil, fmt.Errorf("new service: locale %q: %w", opts.Locale, err)
		}
		lang = tag
	}

	s := &Service{
		store:       store,
		cartKey:     opts.CartKey,
		lang:        lang,
		limiter:     NewLoadLimiter(opts.MaxConcurrentLoads, opts.MaxLoadWait),
		observer:    opts.Observer,
		loadTimeout: opts.LoadTimeout,
		saveTimeout: opts.SaveTimeout,
		catalog:     NewCatalog(nil),
		cart:        NewCart(),
	}
	if s.cartKey == "" {
		s.cartKey = DefaultCartKey
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	if s.loadTimeout <= 0 {
		s.loadTimeout = 10 * time.Minute
	}
	if s.saveTimeout <= 0 {
		s.saveTimeout = 5 * time.Second
	}
	return s, nil
}

// ----------------------------------------------------------------------------
// Catalog loading
// ----------------------------------------------------------------------------

// LoadResult reports a completed catalog load.
type LoadResult struct {
	LoadID   string        `json:"load_id"`
	Source   string        `json:"source"`
	Rows     int           `json:"rows"`
	Products int           `json:"products"`
	Skipped  int           `json:"skipped"`
	Enriched int           `json:"enriched"`
	Duration time.Duration `json:"duration"`
}

// LoadFile decodes a spreadsheet and replaces the catalog with its rows.
// On any error the current catalog is left untouched. Loads may overlap;
// whichever completes last determines the catalog.
func (s *Service) LoadFile(ctx context.Context, filename string, r io.Reader) (*LoadResult, error) {
	loadID := uuid.New().String()
	logger := logging.WithFields(ctx, "load_id", loadID, "file", filename)
	start := time.Now()

	if err := s.limiter.Acquire(ctx); err != nil {
		s.recordLoadFailure(filename, err)
		return nil, fmt.Errorf("load %s: %w", filename, err)
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.loadTimeout)
	defer cancel()

	sheet, err := decodeFile(ctx, filename, r)
	if err != nil {
		logger.Warn("catalog load failed", "error", err)
		s.recordLoadFailure(filename, err)
		return nil, fmt.Errorf("load %s: %w", filename, err)
	}

	products := make([]Product, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		products = append(products, Normalize(row))
	}

	res := s.replaceCatalog(loadID, filename, products)
	res.Rows = len(sheet.Rows)
	res.Duration = time.Since(start)

	logger.Info("catalog loaded",
		"rows", res.Rows,
		"products", res.Products,
		"skipped", res.Skipped,
		"enriched", res.Enriched,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// LoadCatalogJSON replaces the catalog with a pre-built JSON product list.
func (s *Service) LoadCatalogJSON(ctx context.Context, source string, data []byte) (*LoadResult, error) {
	loadID := uuid.New().String()
	start := time.Now()

	products, err := ParseCatalogJSON(data)
	if err != nil {
		s.recordLoadFailure(source, err)
		return nil, fmt.Errorf("load %s: %w", source, err)
	}

	res := s.replaceCatalog(loadID, source, products)
	res.Rows = len(products)
	res.Duration = time.Since(start)

	logging.WithFields(ctx, "load_id", loadID, "source", source).Info("bootstrap catalog loaded",
		"products", res.Products,
		"enriched", res.Enriched,
	)
	return res, nil
}

// decodeFile runs the decoder for filename. A decode that outlives ctx is
// discarded so a stale upload cannot replace a newer catalog after its
// deadline.
func decodeFile(ctx context.Context, filename string, r io.Reader) (*Sheet, error) {
	dec, ok := DecoderFor(filename)
	if !ok {
		return nil, fmt.Errorf("no decoder registered for %q", filename)
	}
	sheet, err := dec.Decode(r)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return sheet, nil
}

// replaceCatalog enriches products with the current lookup and swaps them
// in. Unusable rows (empty id) stay out of the catalog.
func (s *Service) replaceCatalog(loadID, source string, products []Product) *LoadResult {
	usable := products[:0:0]
	skipped := 0
	for _, p := range products {
		if !p.Usable() {
			skipped++
			continue
		}
		usable = append(usable, p)
	}

	s.mu.Lock()
	enriched := Enrich(usable, s.enrichment)
	s.catalog = NewCatalog(usable)
	s.status = LoadStatus{
		LoadID:      loadID,
		Source:      source,
		Products:    len(usable),
		Enriched:    enriched,
		Skipped:     skipped,
		CompletedAt: time.Now().UTC(),
	}
	s.mu.Unlock()

	s.observer.CatalogLoaded(source, len(usable), nil)

	return &LoadResult{
		LoadID:   loadID,
		Source:   source,
		Products: len(usable),
		Skipped:  skipped,
		Enriched: enriched,
	}
}

func (s *Service) recordLoadFailure(source string, err error) {
	s.mu.Lock()
	s.status.LastError = fmt.Sprintf("%s: %v", source, err)
	s.mu.Unlock()
	s.observer.CatalogLoaded(source, 0, err)
}

// ApplyEnrichment stores the lookup and applies it to the current catalog.
// Later loads are enriched with it as well. Returns the number of products changed.
func (s *Service) ApplyEnrichment(lookup Enrichment) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enrichment = lookup
	products := s.catalog.Products()
	changed := Enrich(products, lookup)
	if changed > 0 {
		s.catalog = NewCatalog(products)
	}
	s.status.Enriched = changed
	return changed
}

// ApplyEnrichmentJSON parses and applies a lookup document. A malformed
// document clears nothing and returns the parse error for logging.
func (s *Service) ApplyEnrichmentJSON(data []byte) (int, error) {
	lookup, err := ParseEnrichment(data)
	if err != nil {
		return 0, err
	}
	return s.ApplyEnrichment(lookup), nil
}

// ----------------------------------------------------------------------------
// Catalog queries
// ----------------------------------------------------------------------------

// Query runs a catalog query against the current catalog.
func (s *Service) Query(q Query) Page {
	s.mu.RLock()
	c := s.catalog
	s.mu.RUnlock()
	return c.Query(q, s.lang)
}

// Product returns one product by id.
func (s *Service) Product(id string) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog.Lookup(id)
}

// Conditions lists the condition tags present in the catalog.
func (s *Service) Conditions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog.Conditions()
}

// CatalogSize returns the number of products in the catalog.
func (s *Service) CatalogSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog.Len()
}

// LoadStatus returns the state of the most recent load.
func (s *Service) LoadStatus() LoadStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// LimiterStatus returns the load limiter state.
func (s *Service) LimiterStatus() LoadLimiterStatus {
	return s.limiter.Status()
}

// WaitForLoads blocks until in-flight loads finish or ctx ends.
func (s *Service) WaitForLoads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// ----------------------------------------------------------------------------
// Cart
// ----------------------------------------------------------------------------

// CartView is the cart as shown to users.
type CartView struct {
	Items []CartLine `json:"items"`
	Units int        `json:"units"`
	Total float64    `json:"total"`
}

// CartLine is one cart entry with its computed line total.
type CartLine struct {
	Product   Product `json:"product"`
	Qty       int     `json:"qty"`
	LineTotal float64 `json:"lineTotal"`
}

// AddToCart adds qty units of a catalog product. Unknown ids and
// non-positive quantities leave the cart unchanged.
func (s *Service) AddToCart(ctx context.Context, id string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("add %q: %w", id, ErrInvalidQuantity)
	}

	s.mu.Lock()
	p, ok := s.catalog.Lookup(id)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("add %q: %w", id, ErrUnknownProduct)
	}
	s.cart.Add(p, qty)
	s.cartSeq++
	seq := s.cartSeq
	doc, err := json.Marshal(s.cart)
	s.mu.Unlock()

	s.persist(ctx, seq, doc, err)
	return nil
}

// SetCartQuantity overwrites the quantity for id. Zero or negative removes
// the entry. Ids not in the cart are ignored.
func (s *Service) SetCartQuantity(ctx context.Context, id string, qty int) {
	s.mutateCart(ctx, func(c *Cart) bool {
		return c.Set(CanonicalID(id), qty)
	})
}

// RemoveFromCart deletes the entry for id if present.
func (s *Service) RemoveFromCart(ctx context.Context, id string) {
	s.mutateCart(ctx, func(c *Cart) bool {
		return c.Remove(CanonicalID(id))
	})
}

// ClearCart empties the cart.
func (s *Service) ClearCart(ctx context.Context) {
	s.mutateCart(ctx, func(c *Cart) bool {
		c.Clear()
		return true
	})
}

// mutateCart applies fn under the lock and persists the result. The
// snapshot is taken under the same lock so saves never interleave halves
// of two mutations.
func (s *Service) mutateCart(ctx context.Context, fn func(*Cart) bool) {
	s.mu.Lock()
	changed := fn(s.cart)
	var doc []byte
	var err error
	var seq uint64
	if changed {
		s.cartSeq++
		seq = s.cartSeq
		doc, err = json.Marshal(s.cart)
	}
	s.mu.Unlock()

	if changed {
		s.persist(ctx, seq, doc, err)
	}
}

// persist writes one cart document. Saves are serialized and a snapshot
// older than the last one written is dropped, so concurrent mutations can
// never leave an older cart in the store. Failures are logged and reported
// to the observer; the in-memory cart stays authoritative.
func (s *Service) persist(ctx context.Context, seq uint64, doc []byte, encErr error) {
	logger := logging.WithFields(ctx, "key", s.cartKey)
	if encErr != nil {
		logger.Error("encode cart failed", "error", encErr)
		s.observer.CartSaved(encErr)
		return
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if seq <= s.savedSeq {
		return
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.saveTimeout)
	defer cancel()

	err := s.store.Save(saveCtx, s.cartKey, doc)
	if err != nil {
		logger.Error("save cart failed", "error", err)
	} else {
		s.savedSeq = seq
	}
	s.observer.CartSaved(err)
}

// RestoreCart replaces the cart with the persisted document. Missing or
// corrupt state yields an empty cart; the problem is logged, not returned.
func (s *Service) RestoreCart(ctx context.Context) {
	logger := logging.WithFields(ctx, "key", s.cartKey)

	data, err := s.store.Load(ctx, s.cartKey)
	if err != nil {
		logger.Warn("cart state unavailable, starting empty", "error", err)
		s.setCart(NewCart())
		s.observer.CartRestored(0, err)
		return
	}
	if len(bytes.TrimSpace(data)) == 0 {
		s.setCart(NewCart())
		s.observer.CartRestored(0, nil)
		return
	}

	cart := NewCart()
	if err := json.Unmarshal(data, cart); err != nil {
		logger.Warn("cart state corrupt, starting empty", "error", err)
		s.setCart(NewCart())
		s.observer.CartRestored(0, err)
		return
	}

	s.setCart(cart)
	logger.Info("cart restored", "entries", cart.Len(), "units", cart.Summary())
	s.observer.CartRestored(cart.Len(), nil)
}

func (s *Service) setCart(c *Cart) {
	s.mu.Lock()
	s.cart = c
	s.mu.Unlock()
}

// CartSummary returns the total number of units in the cart.
func (s *Service) CartSummary() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Summary()
}

// Cart returns a snapshot of the cart for display.
func (s *Service) Cart() CartView {
	s.mu.RLock()
	entries := s.cart.Entries()
	s.mu.RUnlock()

	view := CartView{Items: make([]CartLine, 0, len(entries))}
	for _, e := range entries {
		lt := e.LineTotal()
		view.Items = append(view.Items, CartLine{Product: e.Product, Qty: e.Qty, LineTotal: lt})
		view.Units += e.Qty
		view.Total += lt
	}
	return view
}

// ExportOrder writes the cart as an order CSV.
func (s *Service) ExportOrder(w io.Writer) error {
	s.mu.RLock()
	entries := s.cart.Entries()
	s.mu.RUnlock()
	return WriteOrderCSV(w, entries)
}
