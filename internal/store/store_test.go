package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/JonMunkholm/brickshop/internal/config"
	"github.com/JonMunkholm/brickshop/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// exerciseStore runs the contract every backend must satisfy.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	got, err := s.Load(ctx, "absent_key")
	if err != nil || got != nil {
		t.Fatalf("Load(absent) = %q, %v; want nil, nil", got, err)
	}

	if err := s.Save(ctx, "lego_cart_v1", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, "lego_cart_v1", []byte(`{"b":2}`)); err != nil {
		t.Fatalf("Save (overwrite): %v", err)
	}
	got, err = s.Load(ctx, "lego_cart_v1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != `{"b":2}` {
		t.Errorf("Load = %q, want overwritten value", got)
	}

	if err := s.Save(ctx, "  ", []byte("x")); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("Save(blank key) err = %v, want ErrEmptyKey", err)
	}
	if _, err := s.Load(ctx, ""); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("Load(empty key) err = %v, want ErrEmptyKey", err)
	}
}

// exerciseCartRoundTrip checks that a cart keeps its order through the store.
func exerciseCartRoundTrip(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	cart := core.NewCart()
	for _, id := range []string{"75192", "1001", "10267"} {
		cart.Add(core.Product{ID: id, Title: "Set " + id, Price: 1}, 2)
	}
	doc, err := json.Marshal(cart)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, core.DefaultCartKey, doc); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := s.Load(ctx, core.DefaultCartKey)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	restored := core.NewCart()
	if err := json.Unmarshal(raw, restored); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	var ids []string
	for _, e := range restored.Entries() {
		ids = append(ids, e.Product.ID)
	}
	if want := []string{"75192", "1001", "10267"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("restored order = %v, want %v", ids, want)
	}
}

// ----------------------------------------------------------------------------
// Memory Tests
// ----------------------------------------------------------------------------

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
	exerciseCartRoundTrip(t, NewMemory())
}

func TestMemory_ReturnsCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	data := []byte("abc")
	_ = m.Save(ctx, "k", data)
	data[0] = 'X'

	got, _ := m.Load(ctx, "k")
	got[1] = 'Y'
	again, _ := m.Load(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("stored value mutated through caller slices: %q", again)
	}
}

// ----------------------------------------------------------------------------
// File Tests
// ----------------------------------------------------------------------------

func TestFile(t *testing.T) {
	f, err := NewFile(filepath.Join(t.TempDir(), "state"))
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	exerciseStore(t, f)
	exerciseCartRoundTrip(t, f)
}

func TestFile_PathSanitizesKey(t *testing.T) {
	dir := t.TempDir()
	f, _ := NewFile(dir)

	p := f.Path("../../etc/passwd")
	if filepath.Dir(p) != dir {
		t.Errorf("Path escaped the store directory: %s", p)
	}
	if !strings.HasSuffix(p, ".json") {
		t.Errorf("Path = %s, want .json suffix", p)
	}
}

func TestFile_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	f, _ := NewFile(dir)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.Save(ctx, "lego_cart_v1", []byte(`{}`))
		}()
	}
	wg.Wait()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "lego_cart_v1.json" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory contents = %v, want only lego_cart_v1.json", names)
	}
}

// ----------------------------------------------------------------------------
// Postgres Tests
// ----------------------------------------------------------------------------

// fakeDB is an in-memory DBTX that understands the three statements
// Postgres issues.
type fakeDB struct {
	mu      sync.Mutex
	rows    map[string][]byte
	created bool
	execErr error
}

func newFakeDB() *fakeDB {
	return &fakeDB{rows: make(map[string][]byte)}
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}
	switch sql {
	case createStateTable:
		f.created = true
		return pgconn.NewCommandTag("CREATE TABLE"), nil
	case upsertState:
		f.rows[args[0].(string)] = append([]byte(nil), args[1].([]byte)...)
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}
	return pgconn.CommandTag{}, errors.New("unexpected statement")
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sql != selectState {
		return fakeRow{err: errors.New("unexpected query")}
	}
	v, ok := f.rows[args[0].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{value: v}
}

type fakeRow struct {
	value []byte
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*[]byte)) = append([]byte(nil), r.value...)
	return nil
}

func TestPostgres(t *testing.T) {
	db := newFakeDB()
	p := NewPostgresDB(db)
	if err := p.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if !db.created {
		t.Error("Migrate did not create app_state")
	}
	exerciseStore(t, p)
	exerciseCartRoundTrip(t, p)
}

func TestPostgres_SaveError(t *testing.T) {
	db := newFakeDB()
	db.execErr = errors.New("connection reset")
	p := NewPostgresDB(db)

	err := p.Save(context.Background(), "lego_cart_v1", []byte("{}"))
	if err == nil || !strings.Contains(err.Error(), "connection reset") {
		t.Errorf("Save err = %v, want wrapped connection error", err)
	}
}

// ----------------------------------------------------------------------------
// Redis Tests
// ----------------------------------------------------------------------------

func TestRedis(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	r, err := NewRedis(context.Background(), url)
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	defer r.Close()

	exerciseStore(t, r)
	exerciseCartRoundTrip(t, r)
}

func TestNewRedis_BadURL(t *testing.T) {
	if _, err := NewRedis(context.Background(), "http://not-redis"); err == nil {
		t.Error("NewRedis with a non-redis URL should fail")
	}
}

// ----------------------------------------------------------------------------
// Open Tests
// ----------------------------------------------------------------------------

func TestOpen(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		cfg      config.StoreConfig
		wantName string
		wantErr  bool
	}{
		{"memory", config.StoreConfig{Backend: "memory"}, "memory", false},
		{"file", config.StoreConfig{Backend: "FILE", Path: t.TempDir()}, "file", false},
		{"unknown", config.StoreConfig{Backend: "etcd"}, "", true},
		{"file without path", config.StoreConfig{Backend: "file"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(ctx, tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Open() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer s.Close()
			if s.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", s.Name(), tt.wantName)
			}
		})
	}
}
