package types

import "time"

// Comment is a note attached to a file or wiki page. Comments are removed
// together with their subject.
type Comment struct {
	CommentID string    `json:"comment_id"`
	RelType   string    `json:"rel_type"`
	RelID     string    `json:"rel_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	IsPrivate bool      `json:"is_private"`
	CreatedAt time.Time `json:"created_at"`
}
