package types

import "io"

// Upload is one incoming file. Content is read exactly once.
type Upload struct {
	Filename string
	Content  io.Reader
}

// Valid reports whether u can be ingested at all: it must exist and carry a
// content stream. An empty filename is a validation failure handled later.
func (u *Upload) Valid() bool {
	return u != nil && u.Content != nil
}

// FileQuery selects file artifacts. Zero values match everything.
type FileQuery struct {
	ProjectID string
	FolderID  *string
	// Private filters on the privacy flag when non-nil.
	Private *bool
	// VisibleOnly excludes artifacts whose visibility flag is off.
	VisibleOnly bool
	// OrderBy is one of created_on, updated_on, filename. Defaults to created_on.
	OrderBy    string
	Descending bool
	Limit      int
}

// Grouping fields understood by FileQuery.OrderBy and grouped listings.
const (
	FieldCreatedOn   = "created_on"
	FieldUpdatedOn   = "updated_on"
	FieldFilename    = "filename"
	FieldDescription = "description"
)
