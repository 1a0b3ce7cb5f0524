// Package urls builds the canonical view and download addresses of files and
// wiki pages. It only formats strings; routing lives in the hosting app.
package urls

import (
	"net/url"
	"strings"

	"github.com/mesh-intelligence/collab/pkg/types"
)

// Builder produces path-only URLs when Host is empty and absolute URLs
// otherwise. Host may carry a scheme; https is assumed when it does not.
type Builder struct {
	Host string
}

// FileURL is the file details page.
func (b Builder) FileURL(f *types.FileArtifact) string {
	return b.build(f.ProjectID, "files", "file_details", f.FileID)
}

// DownloadURL serves the latest revision's payload.
func (b Builder) DownloadURL(f *types.FileArtifact) string {
	return b.build(f.ProjectID, "files", "download_file", f.FileID)
}

// WikiPageURL addresses a page by its slug.
func (b Builder) WikiPageURL(w *types.WikiPage) string {
	return b.build(w.ProjectID, "wiki_pages", "show", w.Slug)
}

func (b Builder) build(projectID, controller, action, id string) string {
	path := "/project/" + url.PathEscape(projectID) + "/" + controller + "/" + action + "/" + url.PathEscape(id)
	if b.Host == "" {
		return path
	}
	host := strings.TrimSuffix(b.Host, "/")
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	return host + path
}
