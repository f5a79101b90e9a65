// Package store keeps the single current Mars snapshot.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/use-agent/marsscrape/config"
	"github.com/use-agent/marsscrape/models"
)

// ErrNotFound is returned by Latest before the first successful run.
var ErrNotFound = errors.New("store: no snapshot")

// Store holds at most one Record. Replace overwrites it wholesale or
// creates it when absent.
type Store interface {
	Latest(ctx context.Context) (*models.Record, error)
	Replace(ctx context.Context, rec *models.Record) error
	Close() error
}

// Open returns the store selected by cfg.Driver.
func Open(cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemory(), nil
	case "sqlite", "":
		return OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
