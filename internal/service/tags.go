package service

import (
	"context"

	"github.com/mesh-intelligence/collab/internal/sqlite"
	"github.com/mesh-intelligence/collab/pkg/types"
)

// tagsOf reads the comma-joined tag labels of any entity.
func tagsOf(ctx context.Context, backend *sqlite.Backend, relType, relID string) (string, error) {
	r, err := backend.Reader()
	if err != nil {
		return "", err
	}
	tags, err := r.Tags(ctx, relType, relID)
	if err != nil {
		return "", err
	}
	return types.JoinTags(tags), nil
}

// replaceTags deletes every tag of the entity and, unless value is nil,
// inserts one tag per comma-separated label.
func replaceTags(ctx context.Context, tx *sqlite.Tx, relType, relID string, value *string, owner *string) ([]types.Tag, error) {
	if err := tx.ClearTags(ctx, relType, relID); err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}
	return tx.InsertTags(ctx, relType, relID, types.ParseTagList(*value), owner)
}

// Tags returns the file's tag labels joined by commas, in write order.
func (s *Files) Tags(ctx context.Context, fileID string) (string, error) {
	return tagsOf(ctx, s.backend, types.RelTypeFile, fileID)
}

// ReplaceTags rewrites the file's whole tag set from a comma-separated value.
// A nil or empty value clears the tags. New tags are owned by the creator of
// the latest revision, or by nobody when the file has no revisions. The
// file's UpdatedAt is re-stamped. Returns ErrNotFound for an unknown file.
func (s *Files) ReplaceTags(ctx context.Context, file *types.FileArtifact, value *string) ([]types.Tag, error) {
	if file == nil || file.FileID == "" {
		return nil, types.ErrInvalidID
	}
	var tags []types.Tag
	err := s.backend.WithTx(ctx, func(tx *sqlite.Tx) error {
		stored, err := tx.GetFile(ctx, file.FileID)
		if err != nil {
			return err
		}
		var owner *string
		if creator, err := stored.CreatedBy(); err == nil {
			owner = &creator
		}
		tags, err = replaceTags(ctx, tx, types.RelTypeFile, file.FileID, value, owner)
		if err != nil {
			return err
		}
		if err := tx.TouchFile(ctx, stored); err != nil {
			return err
		}
		file.UpdatedAt = stored.UpdatedAt
		return nil
	})
	s.cache.remove(file.FileID)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("file_id", file.FileID).Int("tags", len(tags)).Msg("tags replaced")
	return tags, nil
}
