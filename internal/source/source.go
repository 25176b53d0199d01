// Package source fetches the optional JSON documents the server starts
// from: a pre-built product list and the Rebrickable lookup cache.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/JonMunkholm/brickshop/internal/core"
	"github.com/JonMunkholm/brickshop/internal/logging"
)

// ErrUnavailable means the document does not exist or could not be fetched.
// Callers treat it as "feature off" rather than a failure.
var ErrUnavailable = errors.New("source unavailable")

// maxDocumentSize bounds how much of a remote document is read.
const maxDocumentSize = 64 << 20

// Fetch reads location, which is either an http(s) URL or a file path.
func Fetch(ctx context.Context, client *http.Client, location string) ([]byte, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, fmt.Errorf("%w: no location", ErrUnavailable)
	}
	if isURL(location) {
		return fetchURL(ctx, client, location)
	}

	data, err := os.ReadFile(location)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, location)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", location, err)
	}
	return data, nil
}

func isURL(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

func fetchURL(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %d", ErrUnavailable, url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return data, nil
}

// Loader is the part of core.Service that Bootstrap drives.
type Loader interface {
	LoadCatalogJSON(ctx context.Context, source string, data []byte) (*core.LoadResult, error)
	ApplyEnrichmentJSON(data []byte) (int, error)
}

// Options names the documents to fetch. Empty locations are skipped.
type Options struct {
	CatalogLocation    string
	EnrichmentLocation string
	Timeout            time.Duration
	Client             *http.Client
}

// Result reports what Bootstrap managed to apply.
type Result struct {
	Products int
	Enriched int
}

// Bootstrap loads the catalog document and then the enrichment document.
// Every failure is logged and absorbed: the server runs with an empty
// catalog and no enrichment rather than refusing to start.
func Bootstrap(ctx context.Context, loader Loader, opts Options) Result {
	logger := logging.FromContext(ctx)
	var res Result

	if opts.CatalogLocation != "" {
		data, err := fetchWithTimeout(ctx, opts, opts.CatalogLocation)
		switch {
		case errors.Is(err, ErrUnavailable):
			logger.Info("no bootstrap catalog", "source", opts.CatalogLocation, "reason", err)
		case err != nil:
			logger.Warn("bootstrap catalog fetch failed", "source", opts.CatalogLocation, "error", err)
		default:
			loaded, err := loader.LoadCatalogJSON(ctx, opts.CatalogLocation, data)
			if err != nil {
				logger.Warn("bootstrap catalog rejected", "source", opts.CatalogLocation, "error", err)
			} else {
				res.Products = loaded.Products
			}
		}
	}

	if opts.EnrichmentLocation != "" {
		data, err := fetchWithTimeout(ctx, opts, opts.EnrichmentLocation)
		switch {
		case errors.Is(err, ErrUnavailable):
			logger.Info("no enrichment cache", "source", opts.EnrichmentLocation, "reason", err)
		case err != nil:
			logger.Warn("enrichment cache fetch failed", "source", opts.EnrichmentLocation, "error", err)
		default:
			n, err := loader.ApplyEnrichmentJSON(data)
			if err != nil {
				logger.Info("enrichment cache ignored", "source", opts.EnrichmentLocation, "error", err)
			} else {
				res.Enriched = n
				logger.Info("enrichment applied", "source", opts.EnrichmentLocation, "products", n)
			}
		}
	}

	return res
}

func fetchWithTimeout(ctx context.Context, opts Options, location string) ([]byte, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	return Fetch(ctx, opts.Client, location)
}
