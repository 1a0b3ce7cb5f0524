package sqlite

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/collab/pkg/types"
)

// Comments returns an entity's comments, oldest first.
func (r Reader) Comments(ctx context.Context, relType, relID string) ([]types.Comment, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT comment_id, rel_type, rel_id, author_id, body, is_private, created_at FROM comments WHERE rel_type = ? AND rel_id = ? ORDER BY created_at, comment_id",
		relType, relID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying comments: %w", err)
	}
	defer rows.Close()

	var comments []types.Comment
	for rows.Next() {
		var (
			c       types.Comment
			private int
			created string
		)
		if err := rows.Scan(&c.CommentID, &c.RelType, &c.RelID, &c.AuthorID, &c.Body, &private, &created); err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		c.IsPrivate = private != 0
		if c.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("parsing comment created_at: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating comments: %w", err)
	}
	return comments, nil
}

// InsertComment stores a comment, generating its ID and creation time.
func (tx *Tx) InsertComment(ctx context.Context, c *types.Comment) error {
	if c.RelID == "" || c.RelType == "" {
		return types.ErrInvalidID
	}
	c.CommentID = generateUUID()
	c.CreatedAt = tx.now()
	_, err := tx.q.ExecContext(ctx,
		"INSERT INTO comments (comment_id, rel_type, rel_id, author_id, body, is_private, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		c.CommentID, c.RelType, c.RelID, c.AuthorID, c.Body, boolInt(c.IsPrivate), formatTime(c.CreatedAt),
	)
	if err != nil {
		return txErr("inserting comment", err)
	}
	return nil
}

// DeleteComments removes every comment of one entity.
func (tx *Tx) DeleteComments(ctx context.Context, relType, relID string) error {
	if _, err := tx.q.ExecContext(ctx, "DELETE FROM comments WHERE rel_type = ? AND rel_id = ?", relType, relID); err != nil {
		return txErr("deleting comments", err)
	}
	return nil
}
