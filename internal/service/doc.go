// Package service implements collab's domain operations on top of the SQLite
// store, the blob store and the thumbnail generator: the file revision chain,
// batch intake, the tag index, grouped listings, the destroy orchestrator and
// the wiki page lifecycle with its audit hooks.
//
// Operations take the acting user explicitly. Permission checks are the
// caller's job (see internal/permission); this package assumes they passed.
package service
