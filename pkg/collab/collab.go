// Package collab is the public entry point for embedding the collab store.
// It attaches the SQLite backend, opens the configured blob store and wires
// the file, wiki and audit services while keeping their implementations
// internal.
//
// Example:
//
//	store, err := collab.Open(ctx, types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".collab-db",
//	}, zerolog.Nop())
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
package collab

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/collab/internal/blob"
	"github.com/mesh-intelligence/collab/internal/service"
	"github.com/mesh-intelligence/collab/internal/sqlite"
	"github.com/mesh-intelligence/collab/internal/thumbnail"
	"github.com/mesh-intelligence/collab/pkg/types"
)

// Store is an attached collab store with its services.
type Store struct {
	Files *service.Files
	Wiki  *service.Wiki
	Audit *service.AuditLog

	backend *sqlite.Backend
}

// Open attaches the backend described by cfg and wires the services.
// Config failures match the types.Err* sentinels with errors.Is.
func Open(ctx context.Context, cfg types.Config, log zerolog.Logger) (*Store, error) {
	backend := sqlite.NewBackend()
	if err := backend.Attach(cfg); err != nil {
		return nil, fmt.Errorf("attach store: %w", err)
	}
	blobs, err := blob.New(ctx, cfg)
	if err != nil {
		backend.Detach()
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	log.Debug().Str("data_dir", cfg.DataDir).Str("blob_driver", cfg.Blob.Driver).Msg("store opened")
	return &Store{
		Files:   service.NewFiles(backend, blobs, thumbnail.New(blobs, cfg.Thumbnail), cfg, log),
		Wiki:    service.NewWiki(backend, cfg, log),
		Audit:   service.NewAuditLog(backend),
		backend: backend,
	}, nil
}

// Close detaches the backend. It is safe to call more than once.
func (s *Store) Close() error {
	return s.backend.Detach()
}
