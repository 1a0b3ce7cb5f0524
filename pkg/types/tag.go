package types

import (
	"strings"
	"time"
)

// Tag attaches a free-text label to any entity, referenced by (RelType, RelID).
// The tags of one entity are always rewritten as a whole set.
type Tag struct {
	TagID     string    `json:"tag_id"`
	Label     string    `json:"label"`
	RelType   string    `json:"rel_type"`
	RelID     string    `json:"rel_id"`
	OwnerID   *string   `json:"owner_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ParseTagList splits a comma-separated tag value into labels. Labels are
// trimmed, empty labels are dropped, and repeats keep their first position.
func ParseTagList(value string) []string {
	var labels []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(value, ",") {
		label := strings.TrimSpace(part)
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		labels = append(labels, label)
	}
	return labels
}

// JoinTags renders tags back into the comma-separated form.
func JoinTags(tags []Tag) string {
	labels := make([]string, len(tags))
	for i, t := range tags {
		labels[i] = t.Label
	}
	return strings.Join(labels, ",")
}
