package types

import "errors"

// Validation errors. Nothing is persisted when one of these is returned.
var (
	ErrInvalidID       = errors.New("invalid entity ID")
	ErrInvalidFilename = errors.New("filename must not be empty")
	ErrInvalidTitle    = errors.New("title must not be empty")
	ErrInvalidRevision = errors.New("revision number must be positive")
	ErrInvalidProject  = errors.New("project must not be empty")
	ErrInvalidField    = errors.New("unsupported field")
	ErrInvalidActor    = errors.New("acting user is required")
)

// Lookup errors.
var (
	ErrNotFound    = errors.New("entity not found")
	ErrNoRevisions = errors.New("file has no revisions")
)

// Persistence errors. ErrTransaction wraps any failure inside a multi-step
// operation; the whole operation has been rolled back when it is returned.
var (
	ErrTransaction       = errors.New("transaction failed")
	ErrDuplicateRevision = errors.New("revision number already exists for file")
	ErrDuplicateSlug     = errors.New("slug already exists in project")
)

// ErrMalformedUpload is returned by batch intake when an item is not a usable
// upload. Processing of the remaining items stops.
var ErrMalformedUpload = errors.New("malformed upload")

// ErrPermissionDenied is never returned by the permission predicates; callers
// that choose to report a denial use it.
var ErrPermissionDenied = errors.New("permission denied")
