package sqlite

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/collab/pkg/types"
)

// AttachedFileIDs lists the files attached to owner, oldest first.
func (r Reader) AttachedFileIDs(ctx context.Context, owner types.Owner) ([]string, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT file_id FROM attachments WHERE owner_type = ? AND owner_id = ? ORDER BY created_at, file_id",
		owner.OwnerType(), owner.OwnerID(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying attachments: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning attachment: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Attach adds fileID to owner's file collection.
func (tx *Tx) Attach(ctx context.Context, owner types.Owner, fileID string) error {
	_, err := tx.q.ExecContext(ctx,
		"INSERT INTO attachments (owner_type, owner_id, file_id, created_at) VALUES (?, ?, ?, ?)",
		owner.OwnerType(), owner.OwnerID(), fileID, formatTime(tx.now()),
	)
	if err != nil {
		return txErr("attaching file", err)
	}
	return nil
}

// DeleteAttachments removes fileID from every owner's collection.
func (tx *Tx) DeleteAttachments(ctx context.Context, fileID string) error {
	if _, err := tx.q.ExecContext(ctx, "DELETE FROM attachments WHERE file_id = ?", fileID); err != nil {
		return txErr("deleting attachments", err)
	}
	return nil
}
