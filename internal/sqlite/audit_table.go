package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/collab/pkg/types"
)

// AuditEntries lists audit log entries matching filter in append order.
func (r Reader) AuditEntries(ctx context.Context, filter types.AuditFilter) ([]types.AuditLogEntry, error) {
	var (
		conds []string
		args  []any
	)
	if filter.ProjectID != "" {
		conds = append(conds, "project_id = ?")
		args = append(args, filter.ProjectID)
	}
	if filter.RelType != "" {
		conds = append(conds, "rel_type = ?")
		args = append(args, filter.RelType)
	}
	if filter.RelID != "" {
		conds = append(conds, "rel_id = ?")
		args = append(args, filter.RelID)
	}
	if filter.Action != "" {
		conds = append(conds, "action = ?")
		args = append(args, filter.Action)
	}

	stmt := "SELECT entry_id, rel_type, rel_id, object_name, project_id, actor_id, action, created_at FROM audit_log"
	if len(conds) > 0 {
		stmt += " WHERE " + strings.Join(conds, " AND ")
	}
	stmt += " ORDER BY seq"
	if filter.Limit > 0 {
		stmt += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var entries []types.AuditLogEntry
	for rows.Next() {
		var (
			e       types.AuditLogEntry
			created string
		)
		if err := rows.Scan(&e.EntryID, &e.RelType, &e.RelID, &e.ObjectName, &e.ProjectID, &e.ActorID, &e.Action, &created); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		if e.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("parsing audit created_at: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit log: %w", err)
	}
	return entries, nil
}

// AppendAudit appends one entry. The log has no update or delete path.
func (tx *Tx) AppendAudit(ctx context.Context, e *types.AuditLogEntry) error {
	if !types.ValidAuditAction(e.Action) {
		return fmt.Errorf("audit action %q: %w", e.Action, types.ErrInvalidField)
	}
	if e.RelID == "" {
		return types.ErrInvalidID
	}
	e.EntryID = generateUUID()
	e.CreatedAt = tx.now()
	_, err := tx.q.ExecContext(ctx,
		`INSERT INTO audit_log (entry_id, seq, rel_type, rel_id, object_name, project_id, actor_id, action, created_at)
		 VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM audit_log), ?, ?, ?, ?, ?, ?, ?)`,
		e.EntryID, e.RelType, e.RelID, e.ObjectName, e.ProjectID, e.ActorID, e.Action, formatTime(e.CreatedAt),
	)
	if err != nil {
		return txErr("appending audit entry", err)
	}
	return nil
}
