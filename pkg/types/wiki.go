package types

import (
	"strings"
	"time"
	"unicode"
)

// WikiPage is a project document addressed by a slug that is unique within
// its project. Content history is kept by an external versioning system;
// only the current body is stored here.
type WikiPage struct {
	PageID    string    `json:"page_id"`
	ProjectID string    `json:"project_id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Main      bool      `json:"main"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_on"`
	UpdatedAt time.Time `json:"updated_on"`
}

// ObjectName is the display name used in audit entries.
func (w *WikiPage) ObjectName() string {
	return w.Title
}

// Slugify lowercases title and collapses every run of characters that are
// not letters or digits into a single dash.
func Slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
