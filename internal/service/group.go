package service

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/mesh-intelligence/collab/pkg/types"
)

// Day headings for date grouping. The year is shown only for other years.
const (
	dayLayout     = "Monday, 02 January"
	dayYearLayout = "Monday, 02 January 2006"
)

// Group is one bucket of a grouped listing.
type Group struct {
	Key   string                `json:"key"`
	Files []*types.FileArtifact `json:"files"`
}

// Grouped is the result of FindGrouped: the flat list in query order and
// the same files bucketed by key, buckets in first-seen order.
type Grouped struct {
	Files  []*types.FileArtifact `json:"files"`
	Groups []Group               `json:"groups"`
}

// FindGrouped runs query and buckets the result by field. created_on and
// updated_on group by calendar day; filename and description group by their
// first character.
func (s *Files) FindGrouped(ctx context.Context, field string, query types.FileQuery) (*Grouped, error) {
	keyOf, err := groupKey(field, s.now())
	if err != nil {
		return nil, err
	}
	r, err := s.backend.Reader()
	if err != nil {
		return nil, err
	}
	files, err := r.FindFiles(ctx, query)
	if err != nil {
		return nil, err
	}

	g := &Grouped{Files: files}
	index := make(map[string]int)
	for _, f := range files {
		k := keyOf(f)
		i, ok := index[k]
		if !ok {
			i = len(g.Groups)
			index[k] = i
			g.Groups = append(g.Groups, Group{Key: k})
		}
		g.Groups[i].Files = append(g.Groups[i].Files, f)
	}
	return g, nil
}

func groupKey(field string, now time.Time) (func(*types.FileArtifact) string, error) {
	switch field {
	case types.FieldCreatedOn:
		return func(f *types.FileArtifact) string { return dayKey(f.CreatedAt, now) }, nil
	case types.FieldUpdatedOn:
		return func(f *types.FileArtifact) string { return dayKey(f.UpdatedAt, now) }, nil
	case types.FieldFilename:
		return func(f *types.FileArtifact) string { return firstRune(f.Filename) }, nil
	case types.FieldDescription:
		return func(f *types.FileArtifact) string { return firstRune(f.Description) }, nil
	default:
		return nil, fmt.Errorf("grouping by %q: %w", field, types.ErrInvalidField)
	}
}

func dayKey(t, now time.Time) string {
	t = t.UTC()
	if t.Year() == now.UTC().Year() {
		return t.Format(dayLayout)
	}
	return t.Format(dayYearLayout)
}

func firstRune(s string) string {
	if s == "" {
		return ""
	}
	_, n := utf8.DecodeRuneInString(s)
	return s[:n]
}
