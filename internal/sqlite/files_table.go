package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/collab/pkg/types"
)

const fileColumns = "file_id, project_id, folder_id, filename, description, is_private, is_visible, comments_enabled, expiration_time, created_at, updated_at"

const revisionColumns = "revision_id, file_id, revision_number, payload_ref, filesize, content_type, icon_kind, thumb_ref, comment, created_by, updated_by, created_at, updated_at"

// GetFile retrieves a file artifact with its revisions hydrated in
// descending revision order. Returns ErrNotFound if no such file exists.
func (r Reader) GetFile(ctx context.Context, id string) (*types.FileArtifact, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}

	row := r.q.QueryRowContext(ctx, "SELECT "+fileColumns+" FROM files WHERE file_id = ?", id)
	f, err := hydrateFile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting file %s: %w", id, err)
	}

	revs, err := r.Revisions(ctx, id)
	if err != nil {
		return nil, err
	}
	f.Revisions = revs
	return f, nil
}

// FindFiles returns the artifacts matching query, revisions hydrated.
func (r Reader) FindFiles(ctx context.Context, query types.FileQuery) ([]*types.FileArtifact, error) {
	var (
		conds []string
		args  []any
	)
	if query.ProjectID != "" {
		conds = append(conds, "project_id = ?")
		args = append(args, query.ProjectID)
	}
	if query.FolderID != nil {
		conds = append(conds, "folder_id = ?")
		args = append(args, *query.FolderID)
	}
	if query.Private != nil {
		conds = append(conds, "is_private = ?")
		args = append(args, boolInt(*query.Private))
	}
	if query.VisibleOnly {
		conds = append(conds, "is_visible = 1")
	}

	var orderCol string
	switch query.OrderBy {
	case "", types.FieldCreatedOn:
		orderCol = "created_at"
	case types.FieldUpdatedOn:
		orderCol = "updated_at"
	case types.FieldFilename:
		orderCol = "filename"
	default:
		return nil, fmt.Errorf("ordering by %q: %w", query.OrderBy, types.ErrInvalidField)
	}
	dir := "ASC"
	if query.Descending {
		dir = "DESC"
	}

	stmt := "SELECT " + fileColumns + " FROM files"
	if len(conds) > 0 {
		stmt += " WHERE " + strings.Join(conds, " AND ")
	}
	stmt += fmt.Sprintf(" ORDER BY %s %s, file_id %s", orderCol, dir, dir)
	if query.Limit > 0 {
		stmt += " LIMIT ?"
		args = append(args, query.Limit)
	}

	rows, err := r.q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("querying files: %w", err)
	}
	var files []*types.FileArtifact
	for rows.Next() {
		f, err := hydrateFile(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating files: %w", err)
	}
	rows.Close()

	// Revisions are loaded after the file cursor is closed; the backend
	// runs on a single connection.
	for _, f := range files {
		revs, err := r.Revisions(ctx, f.FileID)
		if err != nil {
			return nil, err
		}
		f.Revisions = revs
	}
	return files, nil
}

// Revisions returns a file's revisions in descending revision order.
func (r Reader) Revisions(ctx context.Context, fileID string) ([]types.Revision, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+revisionColumns+" FROM file_revisions WHERE file_id = ? ORDER BY revision_number DESC",
		fileID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying revisions of %s: %w", fileID, err)
	}
	defer rows.Close()

	var revs []types.Revision
	for rows.Next() {
		rev, err := hydrateRevision(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning revision: %w", err)
		}
		revs = append(revs, *rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating revisions: %w", err)
	}
	return revs, nil
}

// NextRevisionNumber returns one past the highest revision number of fileID,
// or 1 when it has none.
func (r Reader) NextRevisionNumber(ctx context.Context, fileID string) (int, error) {
	var highest sql.NullInt64
	err := r.q.QueryRowContext(ctx,
		"SELECT MAX(revision_number) FROM file_revisions WHERE file_id = ?", fileID,
	).Scan(&highest)
	if err != nil {
		return 0, fmt.Errorf("reading revision numbers: %w", err)
	}
	return int(highest.Int64) + 1, nil
}

// InsertFile creates the artifact row. FileID is generated when empty;
// CreatedAt and UpdatedAt are stamped now.
func (tx *Tx) InsertFile(ctx context.Context, f *types.FileArtifact) error {
	if f.Filename == "" {
		return types.ErrInvalidFilename
	}
	if f.ProjectID == "" {
		return types.ErrInvalidProject
	}
	if f.FileID == "" {
		f.FileID = generateUUID()
	}
	now := tx.now()
	f.CreatedAt = now
	f.UpdatedAt = now

	_, err := tx.q.ExecContext(ctx,
		"INSERT INTO files ("+fileColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		f.FileID, f.ProjectID, nullString(f.FolderID), f.Filename, f.Description,
		boolInt(f.IsPrivate), boolInt(f.IsVisible), boolInt(f.CommentsEnabled),
		formatTime(f.ExpirationTime), formatTime(f.CreatedAt), formatTime(f.UpdatedAt),
	)
	if err != nil {
		return txErr("inserting file", err)
	}
	return nil
}

// UpdateFile rewrites the artifact's own columns and stamps UpdatedAt.
func (tx *Tx) UpdateFile(ctx context.Context, f *types.FileArtifact) error {
	if f.FileID == "" {
		return types.ErrInvalidID
	}
	if f.Filename == "" {
		return types.ErrInvalidFilename
	}
	f.UpdatedAt = tx.now()

	res, err := tx.q.ExecContext(ctx,
		`UPDATE files SET folder_id = ?, filename = ?, description = ?, is_private = ?,
		 is_visible = ?, comments_enabled = ?, expiration_time = ?, updated_at = ?
		 WHERE file_id = ?`,
		nullString(f.FolderID), f.Filename, f.Description, boolInt(f.IsPrivate),
		boolInt(f.IsVisible), boolInt(f.CommentsEnabled), formatTime(f.ExpirationTime),
		formatTime(f.UpdatedAt), f.FileID,
	)
	if err != nil {
		return txErr("updating file", err)
	}
	return expectOne(res, f.FileID)
}

// TouchFile stamps the artifact's UpdatedAt without other changes.
func (tx *Tx) TouchFile(ctx context.Context, f *types.FileArtifact) error {
	f.UpdatedAt = tx.now()
	res, err := tx.q.ExecContext(ctx,
		"UPDATE files SET updated_at = ? WHERE file_id = ?", formatTime(f.UpdatedAt), f.FileID,
	)
	if err != nil {
		return txErr("touching file", err)
	}
	return expectOne(res, f.FileID)
}

// DeleteFile removes the artifact row only. Dependent rows must be removed
// first; see the destroy orchestration in the service layer.
func (tx *Tx) DeleteFile(ctx context.Context, id string) error {
	res, err := tx.q.ExecContext(ctx, "DELETE FROM files WHERE file_id = ?", id)
	if err != nil {
		return txErr("deleting file", err)
	}
	return expectOne(res, id)
}

// InsertRevision creates a revision row. Returns ErrDuplicateRevision when
// the file already has a revision with the same number.
func (tx *Tx) InsertRevision(ctx context.Context, rev *types.Revision) error {
	if rev.RevisionNumber <= 0 {
		return types.ErrInvalidRevision
	}
	if rev.FileID == "" {
		return types.ErrInvalidID
	}
	if rev.RevisionID == "" {
		rev.RevisionID = generateUUID()
	}
	now := tx.now()
	rev.CreatedAt = now
	rev.UpdatedAt = now

	_, err := tx.q.ExecContext(ctx,
		"INSERT INTO file_revisions ("+revisionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		rev.RevisionID, rev.FileID, rev.RevisionNumber, rev.PayloadRef, rev.Filesize,
		rev.ContentType, rev.IconKind, nullString(optional(rev.ThumbRef)), rev.Comment,
		rev.CreatedBy, nullString(rev.UpdatedBy), formatTime(rev.CreatedAt), formatTime(rev.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("file %s revision %d: %w: %w", rev.FileID, rev.RevisionNumber, types.ErrTransaction, types.ErrDuplicateRevision)
		}
		return txErr("inserting revision", err)
	}
	return nil
}

// UpdateRevision replaces an existing revision's payload, classification,
// thumbnail, comment and updater in place. The revision number is untouched.
func (tx *Tx) UpdateRevision(ctx context.Context, rev *types.Revision) error {
	if rev.RevisionID == "" {
		return types.ErrInvalidID
	}
	rev.UpdatedAt = tx.now()

	res, err := tx.q.ExecContext(ctx,
		`UPDATE file_revisions SET payload_ref = ?, filesize = ?, content_type = ?, icon_kind = ?,
		 thumb_ref = ?, comment = ?, updated_by = ?, updated_at = ? WHERE revision_id = ?`,
		rev.PayloadRef, rev.Filesize, rev.ContentType, rev.IconKind,
		nullString(optional(rev.ThumbRef)), rev.Comment, nullString(rev.UpdatedBy),
		formatTime(rev.UpdatedAt), rev.RevisionID,
	)
	if err != nil {
		return txErr("updating revision", err)
	}
	return expectOne(res, rev.RevisionID)
}

// DeleteRevisions removes every revision of fileID.
func (tx *Tx) DeleteRevisions(ctx context.Context, fileID string) error {
	if _, err := tx.q.ExecContext(ctx, "DELETE FROM file_revisions WHERE file_id = ?", fileID); err != nil {
		return txErr("deleting revisions", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func hydrateFile(s scanner) (*types.FileArtifact, error) {
	var (
		f                            types.FileArtifact
		folderID                     sql.NullString
		private, visible, comments   int
		expiration, created, updated string
	)
	err := s.Scan(&f.FileID, &f.ProjectID, &folderID, &f.Filename, &f.Description,
		&private, &visible, &comments, &expiration, &created, &updated)
	if err != nil {
		return nil, err
	}
	f.FolderID = stringPtr(folderID)
	f.IsPrivate = private != 0
	f.IsVisible = visible != 0
	f.CommentsEnabled = comments != 0
	if f.ExpirationTime, err = parseTime(expiration); err != nil {
		return nil, fmt.Errorf("parsing expiration_time: %w", err)
	}
	if f.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if f.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &f, nil
}

func hydrateRevision(s scanner) (*types.Revision, error) {
	var (
		rev              types.Revision
		thumb, updatedBy sql.NullString
		created, updated string
	)
	err := s.Scan(&rev.RevisionID, &rev.FileID, &rev.RevisionNumber, &rev.PayloadRef,
		&rev.Filesize, &rev.ContentType, &rev.IconKind, &thumb, &rev.Comment,
		&rev.CreatedBy, &updatedBy, &created, &updated)
	if err != nil {
		return nil, err
	}
	rev.ThumbRef = thumb.String
	rev.UpdatedBy = stringPtr(updatedBy)
	if rev.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if rev.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &rev, nil
}

// expectOne maps "no row affected" to ErrNotFound.
func expectOne(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return txErr("reading affected rows", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, types.ErrNotFound)
	}
	return nil
}

// optional turns an empty string into a NULL column value.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
