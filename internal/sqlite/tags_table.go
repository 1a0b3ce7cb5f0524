package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/collab/pkg/types"
)

// Tags returns the tags of one entity in the order they were written.
func (r Reader) Tags(ctx context.Context, relType, relID string) ([]types.Tag, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT tag_id, label, rel_type, rel_id, owner_id, created_at FROM tags WHERE rel_type = ? AND rel_id = ? ORDER BY ordinal",
		relType, relID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	var tags []types.Tag
	for rows.Next() {
		var (
			t       types.Tag
			owner   sql.NullString
			created string
		)
		if err := rows.Scan(&t.TagID, &t.Label, &t.RelType, &t.RelID, &owner, &created); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		t.OwnerID = stringPtr(owner)
		if t.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("parsing tag created_at: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tags: %w", err)
	}
	return tags, nil
}

// ClearTags removes every tag of one entity.
func (tx *Tx) ClearTags(ctx context.Context, relType, relID string) error {
	if _, err := tx.q.ExecContext(ctx, "DELETE FROM tags WHERE rel_type = ? AND rel_id = ?", relType, relID); err != nil {
		return txErr("clearing tags", err)
	}
	return nil
}

// InsertTags attaches one tag per label to the entity, owned by owner.
func (tx *Tx) InsertTags(ctx context.Context, relType, relID string, labels []string, owner *string) ([]types.Tag, error) {
	now := tx.now()
	tags := make([]types.Tag, 0, len(labels))
	for i, label := range labels {
		t := types.Tag{
			TagID:     generateUUID(),
			Label:     label,
			RelType:   relType,
			RelID:     relID,
			OwnerID:   owner,
			CreatedAt: now,
		}
		_, err := tx.q.ExecContext(ctx,
			"INSERT INTO tags (tag_id, label, rel_type, rel_id, owner_id, ordinal, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			t.TagID, t.Label, t.RelType, t.RelID, nullString(owner), i, formatTime(now),
		)
		if err != nil {
			return nil, txErr("inserting tag", err)
		}
		tags = append(tags, t)
	}
	return tags, nil
}
