package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/brickshop/internal/catalogtool"
	"github.com/JonMunkholm/brickshop/internal/core"
)

// run executes catalogctl with args and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readProducts(t *testing.T, path string) []core.Product {
	t.Helper()
	products, err := catalogtool.ReadProducts(path)
	if err != nil {
		t.Fatal(err)
	}
	return products
}

// ----------------------------------------------------------------------------
// Build Tests
// ----------------------------------------------------------------------------

func TestBuildCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "stock.csv")
	out := filepath.Join(dir, "products.json")
	writeFile(t, in, "id,title,price\n10267,Gingerbread House,89.99\n10267,,\n1001,Red Bricks,0.15\n")

	stdout, err := run(t, "build", "--in", in, "--out", out)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(stdout, "Wrote 2 products") {
		t.Errorf("stdout = %q", stdout)
	}

	products := readProducts(t, out)
	if len(products) != 2 || products[0].Quantity != 2 {
		t.Errorf("products = %+v", products)
	}
}

func TestBuildCommand_RequiresInput(t *testing.T) {
	if _, err := run(t, "build"); err == nil {
		t.Error("build without --in should fail")
	}
}

// ----------------------------------------------------------------------------
// Enrich Tests
// ----------------------------------------------------------------------------

func TestEnrichCommand(t *testing.T) {
	dir := t.TempDir()
	productsPath := filepath.Join(dir, "products.json")
	cachePath := filepath.Join(dir, "cache.json")
	writeFile(t, productsPath, `[{"id":"10267","title":"10267"}]`)
	writeFile(t, cachePath, `{"10267":{"name":"Gingerbread House","set_num_found":"10267-1"}}`)

	tests := []struct {
		name      string
		args      []string
		wantTitle string
	}{
		{"dry run", nil, "10267"},
		{"write", []string{"--write"}, "Gingerbread House"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"enrich", "--products", productsPath, "--cache", cachePath}, tt.args...)
			stdout, err := run(t, args...)
			if err != nil {
				t.Fatalf("enrich: %v", err)
			}
			if !strings.Contains(stdout, "1 images and 1 titles updated") {
				t.Errorf("stdout = %q", stdout)
			}
			if got := readProducts(t, productsPath)[0].Title; got != tt.wantTitle {
				t.Errorf("title = %q, want %q", got, tt.wantTitle)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// Refresh Cache Tests
// ----------------------------------------------------------------------------

func TestRefreshCacheCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/sets/75192/" {
			json.NewEncoder(w).Encode(map[string]string{"set_num": "75192-1", "name": "Millennium Falcon"})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	productsPath := filepath.Join(dir, "products.json")
	cachePath := filepath.Join(dir, "cache.json")
	writeFile(t, productsPath, `[{"id":"75192","title":"75192"}]`)

	stdout, err := run(t, "refresh-cache",
		"--products", productsPath, "--cache", cachePath,
		"--api-key", "k", "--api-base", srv.URL, "--delay", "0",
		"--update-products")
	if err != nil {
		t.Fatalf("refresh-cache: %v", err)
	}
	if !strings.Contains(stdout, "1 found") {
		t.Errorf("stdout = %q", stdout)
	}

	cache, err := catalogtool.ReadCache(cachePath)
	if err != nil {
		t.Fatal(err)
	}
	if cache["75192"].SetNumFound != "75192-1" {
		t.Errorf("cache = %+v", cache)
	}
	if got := readProducts(t, productsPath)[0].Title; got != "Millennium Falcon" {
		t.Errorf("title = %q", got)
	}
	if _, err := os.Stat(catalogtool.BackupPath(productsPath)); err != nil {
		t.Errorf("products backup missing: %v", err)
	}
}

func TestRefreshCacheCommand_RequiresKey(t *testing.T) {
	t.Setenv("REBRICKABLE_API_KEY", "")
	_, err := run(t, "refresh-cache", "--products", filepath.Join(t.TempDir(), "none.json"))
	if err == nil || !strings.Contains(err.Error(), "API key") {
		t.Errorf("err = %v, want missing key error", err)
	}
}

// ----------------------------------------------------------------------------
// Image Tests
// ----------------------------------------------------------------------------

func TestCheckImagesAndPlaceholders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok.png" {
			w.Header().Set("Content-Type", "image/png")
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	productsPath := filepath.Join(dir, "products.json")
	reportPath := filepath.Join(dir, "report.json")
	writeFile(t, productsPath, `[
		{"id":"1","title":"Good","imageUrl":"`+srv.URL+`/ok.png"},
		{"id":"2","title":"Broken","imageUrl":"`+srv.URL+`/gone.png"}
	]`)

	stdout, err := run(t, "check-images", "--products", productsPath, "--report", reportPath, "--concurrency", "2")
	if err != nil {
		t.Fatalf("check-images: %v", err)
	}
	if !strings.Contains(stdout, "1/2 images OK, 1 failed") {
		t.Errorf("stdout = %q", stdout)
	}

	stdout, err = run(t, "placeholders", "--products", productsPath, "--report", reportPath, "--url", "ph.png")
	if err != nil {
		t.Fatalf("placeholders: %v", err)
	}
	if !strings.Contains(stdout, "1 images replaced") {
		t.Errorf("stdout = %q", stdout)
	}

	products := readProducts(t, productsPath)
	if products[0].ImageURL != srv.URL+"/ok.png" || products[1].ImageURL != "ph.png" {
		t.Errorf("products = %+v", products)
	}
}
