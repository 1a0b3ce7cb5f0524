package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"

	"github.com/mesh-intelligence/collab/internal/thumbnail"
	"github.com/mesh-intelligence/collab/pkg/types"
)

// sniffLen is how much of an upload is inspected to detect its content type.
const sniffLen = 3072

// payload describes one stored upload.
type payload struct {
	ref         string
	thumbRef    string
	size        int64
	contentType string
	iconKind    string
}

// storePayload sniffs the content type, writes the upload to the blob store
// and renders its thumbnail. Every ref written is appended to written, even
// when a later step fails, so the caller can discard them on rollback.
func (s *Files) storePayload(ctx context.Context, fileID string, up *types.Upload, written *[]string) (payload, error) {
	br := bufio.NewReaderSize(up.Content, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return payload{}, fmt.Errorf("reading upload: %w", err)
	}
	mtype := mimetype.Detect(head)

	p := payload{contentType: mtype.String(), iconKind: types.IconKindFor(mtype.String())}
	p.ref, p.size, err = s.blobs.Put(ctx, fileID, up.Filename, br)
	if err != nil {
		return payload{}, fmt.Errorf("storing payload: %w: %w", types.ErrTransaction, err)
	}
	*written = append(*written, p.ref)

	p.thumbRef, err = s.thumbs.Generate(ctx, fileID, p.ref, p.contentType)
	switch {
	case errors.Is(err, thumbnail.ErrUndecodable):
		s.log.Warn().Err(err).Str("file_id", fileID).Msg("skipping thumbnail")
		p.thumbRef = ""
	case err != nil:
		return payload{}, fmt.Errorf("generating thumbnail: %w: %w", types.ErrTransaction, err)
	}
	if p.thumbRef != "" {
		*written = append(*written, p.thumbRef)
	}
	return p, nil
}

// discard removes payloads left behind by a rolled back or superseded write.
// Failures are logged; the payloads are unreachable either way.
func (s *Files) discard(ctx context.Context, refs ...string) {
	ctx = context.WithoutCancel(ctx)
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if err := s.blobs.Delete(ctx, ref); err != nil {
			s.log.Warn().Err(err).Str("ref", ref).Msg("removing unreferenced payload")
		}
	}
}
