// Package archive persists session artifacts to durable storage.
package archive

import (
	"context"
	"fmt"

	"github.com/chanfade/chanfade/internal/config"
)

// Store is where finished session artifacts land.
type Store interface {
	// Put stores data at the given key.
	Put(ctx context.Context, key string, data []byte) error

	// Get retrieves data from the given key.
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns all keys under the prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists checks whether a key is present.
	Exists(ctx context.Context, key string) (bool, error)
}

// New creates the store selected by the journal configuration.
func New(cfg config.JournalConfig) (Store, error) {
	switch cfg.Type {
	case "", "localfs":
		return NewFS(cfg.Path)
	case "s3":
		return NewS3(cfg.S3)
	default:
		return nil, fmt.Errorf("unknown journal storage type %q", cfg.Type)
	}
}
