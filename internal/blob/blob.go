// Package blob keeps uploaded payloads and their thumbnails. Every key is
// prefixed with the owning file's ID so that all payloads of one file can be
// purged with a single Clear.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/collab/pkg/types"
)

// Blob store errors.
var (
	ErrInvalidRef = errors.New("invalid blob reference")
	ErrNotFound   = errors.New("blob not found")
)

// Store is the payload storage the service layer writes revisions to.
type Store interface {
	// Put stores r under a new key for fileID and returns the key and the
	// number of bytes written.
	Put(ctx context.Context, fileID, filename string, r io.Reader) (ref string, size int64, err error)
	// Open returns the payload stored under ref. The caller closes it.
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	// Delete removes one payload. Deleting a missing ref is not an error.
	Delete(ctx context.Context, ref string) error
	// Clear removes every payload stored for fileID.
	Clear(ctx context.Context, fileID string) error
}

// New returns the Store selected by cfg.Blob.Driver. The local driver is the
// default and keeps payloads under LocalPath, or DataDir/blobs when unset.
func New(ctx context.Context, cfg types.Config) (Store, error) {
	switch cfg.Blob.Driver {
	case "", types.BlobDriverLocal:
		base := cfg.Blob.LocalPath
		if base == "" {
			dataDir := cfg.DataDir
			if dataDir == "" {
				dataDir = "."
			}
			base = filepath.Join(dataDir, "blobs")
		}
		return NewLocalStore(base)
	case types.BlobDriverS3:
		return NewS3Store(ctx, cfg.Blob)
	default:
		return nil, fmt.Errorf("blob driver %q: %w", cfg.Blob.Driver, types.ErrBlobDriverUnknown)
	}
}

// objectKey builds a unique key <fileID>/<uuid>_<name>.
func objectKey(fileID, filename string) (string, error) {
	if err := checkFileID(fileID); err != nil {
		return "", err
	}
	name := types.SanitizeFilename(filename)
	if name == "" {
		name = "blob"
	}
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return fileID + "/" + id.String() + "_" + name, nil
}

// checkFileID rejects IDs that could escape their key prefix.
func checkFileID(fileID string) error {
	if fileID == "" || fileID == "." || fileID == ".." || strings.ContainsAny(fileID, `/\`) {
		return fmt.Errorf("file id %q: %w", fileID, types.ErrInvalidID)
	}
	return nil
}

// checkRef accepts only keys of the form objectKey produces.
func checkRef(ref string) error {
	dir, name, ok := strings.Cut(ref, "/")
	if !ok || name == "" || strings.ContainsAny(name, `/\`) || name == ".." {
		return fmt.Errorf("%q: %w", ref, ErrInvalidRef)
	}
	if err := checkFileID(dir); err != nil {
		return fmt.Errorf("%q: %w", ref, ErrInvalidRef)
	}
	return nil
}
