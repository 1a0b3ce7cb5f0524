package types

import "errors"

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// Entity types used for polymorphic references (tags, comments, audit log,
// attachments).
const (
	RelTypeFile     = "file"
	RelTypeWikiPage = "wiki_page"
	RelTypeProject  = "project"
)
