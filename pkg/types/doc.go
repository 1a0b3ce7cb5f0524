// Package types defines the entities, collaborator interfaces, configuration,
// and standard errors for the collab storage layer: file artifacts and their
// revision chain, tags, comments, audit log entries, and wiki pages.
package types
