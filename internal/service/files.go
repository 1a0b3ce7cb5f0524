package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/collab/internal/blob"
	"github.com/mesh-intelligence/collab/internal/sqlite"
	"github.com/mesh-intelligence/collab/internal/thumbnail"
	"github.com/mesh-intelligence/collab/pkg/types"
)

// Files manages file artifacts and their revisions.
type Files struct {
	backend *sqlite.Backend
	blobs   blob.Store
	thumbs  thumbnail.Generator
	cache   *artifactCache
	log     zerolog.Logger
	now     func() time.Time
}

// NewFiles wires the file service. cfg.Cache sizes the artifact cache.
func NewFiles(backend *sqlite.Backend, blobs blob.Store, thumbs thumbnail.Generator, cfg types.Config, log zerolog.Logger) *Files {
	if thumbs == nil {
		thumbs = thumbnail.Noop{}
	}
	return &Files{
		backend: backend,
		blobs:   blobs,
		thumbs:  thumbs,
		cache:   newArtifactCache(cfg.Cache.Size, cfg.Cache.TTL),
		log:     log.With().Str("component", "files").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the clock used for expiration stamps and for deciding
// the current year in grouped listings.
func (s *Files) SetClock(now func() time.Time) {
	s.now = func() time.Time { return now().UTC() }
}

// Get returns the artifact with its revisions, newest first.
func (s *Files) Get(ctx context.Context, id string) (*types.FileArtifact, error) {
	if f, ok := s.cache.get(id); ok {
		return f, nil
	}
	r, err := s.backend.Reader()
	if err != nil {
		return nil, err
	}
	f, err := r.GetFile(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.set(f)
	return f, nil
}

// NextRevisionNumber returns one past the file's highest revision number.
func (s *Files) NextRevisionNumber(ctx context.Context, fileID string) (int, error) {
	r, err := s.backend.Reader()
	if err != nil {
		return 0, err
	}
	return r.NextRevisionNumber(ctx, fileID)
}

// Find returns the artifacts matching query, each with its revisions.
func (s *Files) Find(ctx context.Context, query types.FileQuery) ([]*types.FileArtifact, error) {
	r, err := s.backend.Reader()
	if err != nil {
		return nil, err
	}
	return r.FindFiles(ctx, query)
}

// AddRevision stores up as revision number of file, created by user. The
// payload, thumbnail and revision row are written in one transaction; on any
// failure nothing is kept. On success file gains the revision and a fresh
// UpdatedAt.
func (s *Files) AddRevision(ctx context.Context, file *types.FileArtifact, up *types.Upload, number int, user types.User, comment string) (*types.Revision, error) {
	if file == nil || file.FileID == "" {
		return nil, types.ErrInvalidID
	}
	if user == nil {
		return nil, types.ErrInvalidActor
	}
	if !up.Valid() {
		return nil, types.ErrMalformedUpload
	}
	if number <= 0 {
		return nil, types.ErrInvalidRevision
	}

	var (
		rev     *types.Revision
		written []string
		touched = *file
	)
	err := s.backend.WithTx(ctx, func(tx *sqlite.Tx) error {
		var err error
		rev, err = s.insertRevision(ctx, tx, file.FileID, up, number, user, comment, &written)
		if err != nil {
			return err
		}
		return tx.TouchFile(ctx, &touched)
	})
	s.cache.remove(file.FileID)
	if err != nil {
		s.discard(ctx, written...)
		s.log.Error().Err(err).Str("file_id", file.FileID).Int("revision", number).Msg("adding revision")
		return nil, err
	}

	revisionsTotal.WithLabelValues(opAdd).Inc()
	file.UpdatedAt = touched.UpdatedAt
	file.Revisions = append(file.Revisions, *rev)
	types.SortRevisions(file.Revisions)
	s.log.Info().
		Str("file_id", file.FileID).
		Str("project_id", file.ProjectID).
		Int("revision", number).
		Str("actor", user.UserID()).
		Msg("revision added")
	return rev, nil
}

func (s *Files) insertRevision(ctx context.Context, tx *sqlite.Tx, fileID string, up *types.Upload, number int, user types.User, comment string, written *[]string) (*types.Revision, error) {
	p, err := s.storePayload(ctx, fileID, up, written)
	if err != nil {
		return nil, err
	}
	rev := &types.Revision{
		FileID:         fileID,
		RevisionNumber: number,
		PayloadRef:     p.ref,
		Filesize:       p.size,
		ContentType:    p.contentType,
		IconKind:       p.iconKind,
		ThumbRef:       p.thumbRef,
		Comment:        comment,
		CreatedBy:      user.UserID(),
	}
	if err := tx.InsertRevision(ctx, rev); err != nil {
		return nil, err
	}
	return rev, nil
}

// UpdateRevision replaces the payload of an existing revision in place and
// records user as its updater. The revision keeps its number. The replaced
// payload and thumbnail are removed once the change is committed.
func (s *Files) UpdateRevision(ctx context.Context, file *types.FileArtifact, up *types.Upload, existing *types.Revision, user types.User, comment string) (*types.Revision, error) {
	if file == nil || file.FileID == "" {
		return nil, types.ErrInvalidID
	}
	if user == nil {
		return nil, types.ErrInvalidActor
	}
	if !up.Valid() {
		return nil, types.ErrMalformedUpload
	}
	if existing == nil || existing.FileID != file.FileID {
		return nil, fmt.Errorf("revision does not belong to file %s: %w", file.FileID, types.ErrInvalidRevision)
	}

	var (
		updated = *existing
		written []string
		touched = *file
	)
	err := s.backend.WithTx(ctx, func(tx *sqlite.Tx) error {
		p, err := s.storePayload(ctx, file.FileID, up, &written)
		if err != nil {
			return err
		}
		updater := user.UserID()
		updated.PayloadRef = p.ref
		updated.Filesize = p.size
		updated.ContentType = p.contentType
		updated.IconKind = p.iconKind
		updated.ThumbRef = p.thumbRef
		updated.Comment = comment
		updated.UpdatedBy = &updater
		if err := tx.UpdateRevision(ctx, &updated); err != nil {
			return err
		}
		return tx.TouchFile(ctx, &touched)
	})
	s.cache.remove(file.FileID)
	if err != nil {
		s.discard(ctx, written...)
		s.log.Error().Err(err).Str("file_id", file.FileID).Int("revision", existing.RevisionNumber).Msg("updating revision")
		return nil, err
	}
	s.discard(ctx, existing.PayloadRef, existing.ThumbRef)

	revisionsTotal.WithLabelValues(opUpdate).Inc()
	file.UpdatedAt = touched.UpdatedAt
	for i := range file.Revisions {
		if file.Revisions[i].RevisionID == updated.RevisionID {
			file.Revisions[i] = updated
		}
	}
	s.log.Info().
		Str("file_id", file.FileID).
		Int("revision", updated.RevisionNumber).
		Str("actor", user.UserID()).
		Msg("revision updated")
	return &updated, nil
}

// IntakeFailure records one upload that could not be stored.
type IntakeFailure struct {
	Index    int
	Filename string
	Err      error
}

// IntakeResult lists the artifacts created by HandleFiles and the uploads
// that failed.
type IntakeResult struct {
	Files    []*types.FileArtifact
	Failures []IntakeFailure
}

// HandleFiles creates one artifact per upload and attaches it to owner.
// Each file is created in its own transaction together with revision 1, the
// attachment and an add audit entry; a failed file is recorded and the next
// one is still attempted. A nil upload or one without content stops the
// batch: ErrMalformedUpload is returned with the results gathered so far.
func (s *Files) HandleFiles(ctx context.Context, uploads []*types.Upload, owner types.Owner, user types.User, isPrivate bool) (*IntakeResult, error) {
	if owner == nil || owner.ProjectID() == "" {
		return nil, types.ErrInvalidProject
	}
	if user == nil {
		return nil, types.ErrInvalidActor
	}

	res := &IntakeResult{}
	for i, up := range uploads {
		if !up.Valid() {
			uploadsTotal.WithLabelValues(resultMalformed).Inc()
			s.log.Warn().Int("index", i).Str("project_id", owner.ProjectID()).Msg("malformed upload, stopping intake")
			return res, fmt.Errorf("upload %d: %w", i, types.ErrMalformedUpload)
		}

		f, err := s.intakeOne(ctx, up, owner, user, isPrivate)
		if err != nil {
			uploadsTotal.WithLabelValues(resultFailed).Inc()
			s.log.Error().Err(err).Int("index", i).Str("filename", up.Filename).Msg("intake failed")
			res.Failures = append(res.Failures, IntakeFailure{Index: i, Filename: up.Filename, Err: err})
			continue
		}
		uploadsTotal.WithLabelValues(resultOK).Inc()
		revisionsTotal.WithLabelValues(opAdd).Inc()
		auditEntriesTotal.WithLabelValues(types.AuditAdd).Inc()
		s.log.Info().
			Str("file_id", f.FileID).
			Str("project_id", f.ProjectID).
			Str("actor", user.UserID()).
			Msg("file uploaded")
		res.Files = append(res.Files, f)
	}
	return res, nil
}

func (s *Files) intakeOne(ctx context.Context, up *types.Upload, owner types.Owner, user types.User, isPrivate bool) (*types.FileArtifact, error) {
	name := types.SanitizeFilename(up.Filename)
	if name == "" {
		return nil, fmt.Errorf("%q: %w", up.Filename, types.ErrInvalidFilename)
	}

	f := &types.FileArtifact{
		ProjectID:       owner.ProjectID(),
		Filename:        name,
		IsPrivate:       isPrivate,
		IsVisible:       true,
		CommentsEnabled: true,
		ExpirationTime:  s.now(),
	}
	var written []string
	err := s.backend.WithTx(ctx, func(tx *sqlite.Tx) error {
		if err := tx.InsertFile(ctx, f); err != nil {
			return err
		}
		rev, err := s.insertRevision(ctx, tx, f.FileID, &types.Upload{Filename: name, Content: up.Content}, 1, user, "", &written)
		if err != nil {
			return err
		}
		f.Revisions = []types.Revision{*rev}
		if err := tx.Attach(ctx, owner, f.FileID); err != nil {
			return err
		}
		return tx.AppendAudit(ctx, &types.AuditLogEntry{
			RelType:    types.RelTypeFile,
			RelID:      f.FileID,
			ObjectName: f.ObjectName(),
			ProjectID:  f.ProjectID,
			ActorID:    user.UserID(),
			Action:     types.AuditAdd,
		})
	})
	if err != nil {
		s.discard(ctx, written...)
		return nil, err
	}
	return f, nil
}

// FileOptions are the artifact settings UpdateOptions can change. Nil fields
// are left alone; an empty FolderID clears the folder.
type FileOptions struct {
	Description     *string
	FolderID        *string
	IsPrivate       *bool
	IsVisible       *bool
	CommentsEnabled *bool
	ExpirationTime  *time.Time
}

// UpdateOptions applies opts to the artifact and appends an edit audit entry
// attributed to actor.
func (s *Files) UpdateOptions(ctx context.Context, fileID string, opts FileOptions, actor types.User) (*types.FileArtifact, error) {
	if actor == nil {
		return nil, types.ErrInvalidActor
	}
	var f *types.FileArtifact
	err := s.backend.WithTx(ctx, func(tx *sqlite.Tx) error {
		var err error
		if f, err = tx.GetFile(ctx, fileID); err != nil {
			return err
		}
		if opts.Description != nil {
			f.Description = *opts.Description
		}
		if opts.FolderID != nil {
			if *opts.FolderID == "" {
				f.FolderID = nil
			} else {
				folder := *opts.FolderID
				f.FolderID = &folder
			}
		}
		if opts.IsPrivate != nil {
			f.IsPrivate = *opts.IsPrivate
		}
		if opts.IsVisible != nil {
			f.IsVisible = *opts.IsVisible
		}
		if opts.CommentsEnabled != nil {
			f.CommentsEnabled = *opts.CommentsEnabled
		}
		if opts.ExpirationTime != nil {
			f.ExpirationTime = opts.ExpirationTime.UTC()
		}
		if err := tx.UpdateFile(ctx, f); err != nil {
			return err
		}
		return tx.AppendAudit(ctx, &types.AuditLogEntry{
			RelType:    types.RelTypeFile,
			RelID:      f.FileID,
			ObjectName: f.ObjectName(),
			ProjectID:  f.ProjectID,
			ActorID:    actor.UserID(),
			Action:     types.AuditEdit,
		})
	})
	s.cache.remove(fileID)
	if err != nil {
		return nil, err
	}
	auditEntriesTotal.WithLabelValues(types.AuditEdit).Inc()
	return f, nil
}

// Download opens the latest revision's payload.
func (s *Files) Download(ctx context.Context, file *types.FileArtifact) (io.ReadCloser, *types.Revision, error) {
	rev, ok := file.LatestRevision()
	if !ok {
		return nil, nil, types.ErrNoRevisions
	}
	rc, err := s.blobs.Open(ctx, rev.PayloadRef)
	if err != nil {
		return nil, nil, err
	}
	return rc, rev, nil
}

// SelectOption is one entry of a file picker.
type SelectOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// NoneOption heads every picker list.
var NoneOption = SelectOption{Label: "--None--", Value: ""}

// SelectList returns picker options for the project's files, led by
// NoneOption.
func (s *Files) SelectList(ctx context.Context, projectID string) ([]SelectOption, error) {
	files, err := s.Find(ctx, types.FileQuery{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	opts := make([]SelectOption, 0, len(files)+1)
	opts = append(opts, NoneOption)
	for _, f := range files {
		opts = append(opts, SelectOption{Label: f.Filename, Value: f.FileID})
	}
	return opts, nil
}

// AddComment attaches a comment by author to the file.
func (s *Files) AddComment(ctx context.Context, file *types.FileArtifact, author types.User, body string, private bool) (*types.Comment, error) {
	if author == nil {
		return nil, types.ErrInvalidActor
	}
	if body == "" {
		return nil, fmt.Errorf("comment body: %w", types.ErrInvalidField)
	}
	c := &types.Comment{
		RelType:   types.RelTypeFile,
		RelID:     file.FileID,
		AuthorID:  author.UserID(),
		Body:      body,
		IsPrivate: private,
	}
	err := s.backend.WithTx(ctx, func(tx *sqlite.Tx) error {
		return tx.InsertComment(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Comments lists the comments of a file, oldest first.
func (s *Files) Comments(ctx context.Context, fileID string) ([]types.Comment, error) {
	r, err := s.backend.Reader()
	if err != nil {
		return nil, err
	}
	return r.Comments(ctx, types.RelTypeFile, fileID)
}
