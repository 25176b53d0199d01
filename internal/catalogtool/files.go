// Package catalogtool maintains the catalog files the server bootstraps
// from: products.json, the Rebrickable lookup cache, and the image check
// report.
package catalogtool

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/brickshop/internal/core"
)

// Default file names, relative to the working directory.
const (
	ProductsFile = "products.json"
	CacheFile    = "rebrickable_cache.json"
	ReportFile   = "image_check_report.json"
)

// ReadProducts loads a products.json document.
func ReadProducts(path string) ([]core.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read products: %w", err)
	}
	products, err := core.ParseCatalogJSON(data)
	if err != nil {
		return nil, fmt.Errorf("read products %s: %w", path, err)
	}
	return products, nil
}

// ReadCache loads the lookup cache. A missing file is an empty cache.
func ReadCache(path string) (core.Enrichment, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return core.Enrichment{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}
	cache, err := core.ParseEnrichment(data)
	if err != nil {
		return nil, fmt.Errorf("read cache %s: %w", path, err)
	}
	return cache, nil
}

// ReadReport loads an image check report.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("read report %s: %w", path, err)
	}
	return &r, nil
}

// BackupPath is where Rewrite keeps the previous version of path:
// products.json becomes products.backup.json.
func BackupPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".backup.json"
}

// Rewrite replaces path with v as indented JSON. An existing file is first
// copied to BackupPath(path).
func Rewrite(path string, v any) error {
	if old, err := os.ReadFile(path); err == nil {
		if err := writeAtomic(BackupPath(path), old); err != nil {
			return fmt.Errorf("backup %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("backup %s: %w", path, err)
	}
	return WriteJSON(path, v)
}

// WriteJSON writes v as indented JSON without a backup.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return writeAtomic(path, append(data, '\n'))
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
