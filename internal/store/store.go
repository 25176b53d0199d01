// Package store persists cart state documents.
//
// Every backend implements core.StateStore: Load returns nil and no error
// for an absent key, and Save replaces the whole value in one write.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/brickshop/internal/config"
	"github.com/JonMunkholm/brickshop/internal/core"
)

// ErrEmptyKey is returned when a caller passes a blank key.
var ErrEmptyKey = errors.New("store: empty key")

// Store is a core.StateStore that owns resources to release on shutdown.
type Store interface {
	core.StateStore
	io.Closer
	// Name identifies the backend in logs.
	Name() string
}

// Open builds the backend selected by cfg and checks that it is reachable.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case config.BackendMemory:
		return NewMemory(), nil
	case config.BackendFile, "":
		return NewFile(cfg.Path)
	case config.BackendRedis:
		return NewRedis(ctx, cfg.URL)
	case config.BackendPostgres:
		return NewPostgres(ctx, cfg.URL, cfg.MaxConns)
	default:
		return nil, fmt.Errorf("store: unknown backend %q", cfg.Backend)
	}
}

func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	return nil
}
