package service

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/collab/internal/sqlite"
	"github.com/mesh-intelligence/collab/pkg/types"
)

// Destroy removes a file and everything hanging off it in one transaction,
// in this order: payloads, revisions, tags and comments, attachments, the
// artifact row. A delete audit entry attributed to actor is appended last.
//
// The blob store is purged once, after the artifact has been read inside the
// transaction. Payloads are not restored if a later step or the commit fails;
// the error is returned and the rows stay in place.
func (s *Files) Destroy(ctx context.Context, fileID string, actor types.User) error {
	if actor == nil {
		return types.ErrInvalidActor
	}
	var f *types.FileArtifact
	err := s.backend.WithTx(ctx, func(tx *sqlite.Tx) error {
		var err error
		if f, err = tx.GetFile(ctx, fileID); err != nil {
			return err
		}
		if err := s.blobs.Clear(ctx, fileID); err != nil {
			return fmt.Errorf("purging payloads of %s: %w: %w", fileID, types.ErrTransaction, err)
		}
		if err := tx.DeleteRevisions(ctx, fileID); err != nil {
			return err
		}
		if err := tx.ClearTags(ctx, types.RelTypeFile, fileID); err != nil {
			return err
		}
		if err := tx.DeleteComments(ctx, types.RelTypeFile, fileID); err != nil {
			return err
		}
		if err := tx.DeleteAttachments(ctx, fileID); err != nil {
			return err
		}
		if err := tx.DeleteFile(ctx, fileID); err != nil {
			return err
		}
		return tx.AppendAudit(ctx, &types.AuditLogEntry{
			RelType:    types.RelTypeFile,
			RelID:      fileID,
			ObjectName: f.ObjectName(),
			ProjectID:  f.ProjectID,
			ActorID:    actor.UserID(),
			Action:     types.AuditDelete,
		})
	})
	s.cache.remove(fileID)
	if err != nil {
		s.log.Error().Err(err).Str("file_id", fileID).Msg("destroying file")
		return err
	}
	auditEntriesTotal.WithLabelValues(types.AuditDelete).Inc()
	s.log.Info().
		Str("file_id", fileID).
		Str("project_id", f.ProjectID).
		Int("revisions", len(f.Revisions)).
		Str("actor", actor.UserID()).
		Msg("file destroyed")
	return nil
}
