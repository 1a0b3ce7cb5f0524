package types

import "time"

// Audit actions, one per lifecycle transition.
const (
	AuditAdd    = "add"
	AuditEdit   = "edit"
	AuditDelete = "delete"
)

// AuditLogEntry records one lifecycle event. Entries are append-only and
// outlive their subject, so the subject's name is captured at log time.
type AuditLogEntry struct {
	EntryID    string    `json:"entry_id"`
	RelType    string    `json:"rel_type"`
	RelID      string    `json:"rel_id"`
	ObjectName string    `json:"object_name"`
	ProjectID  string    `json:"project_id"`
	ActorID    string    `json:"actor_id"`
	Action     string    `json:"action"`
	CreatedAt  time.Time `json:"created_at"`
}

// AuditFilter narrows an audit log listing. Zero values match everything.
type AuditFilter struct {
	ProjectID string
	RelType   string
	RelID     string
	Action    string
	Limit     int
}

// ValidAuditAction reports whether action is one of the audit actions.
func ValidAuditAction(action string) bool {
	switch action {
	case AuditAdd, AuditEdit, AuditDelete:
		return true
	}
	return false
}
