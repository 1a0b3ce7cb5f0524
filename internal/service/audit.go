package service

import (
	"context"

	"github.com/mesh-intelligence/collab/internal/sqlite"
	"github.com/mesh-intelligence/collab/pkg/types"
)

// AuditLog reads the append-only audit log.
type AuditLog struct {
	backend *sqlite.Backend
}

// NewAuditLog returns a reader over backend's audit log.
func NewAuditLog(backend *sqlite.Backend) *AuditLog {
	return &AuditLog{backend: backend}
}

// List returns the entries matching filter in append order.
func (a *AuditLog) List(ctx context.Context, filter types.AuditFilter) ([]types.AuditLogEntry, error) {
	r, err := a.backend.Reader()
	if err != nil {
		return nil, err
	}
	return r.AuditEntries(ctx, filter)
}

// Export writes the entries matching filter to path as JSON lines and
// returns how many were written.
func (a *AuditLog) Export(ctx context.Context, path string, filter types.AuditFilter) (int, error) {
	r, err := a.backend.Reader()
	if err != nil {
		return 0, err
	}
	return r.ExportAuditJSONL(ctx, path, filter)
}
