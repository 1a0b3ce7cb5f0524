package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/collab/pkg/types"
)

const wikiColumns = "page_id, project_id, slug, title, content, main, created_by, created_at, updated_at"

// GetWikiPage retrieves a page by ID. Returns ErrNotFound if absent.
func (r Reader) GetWikiPage(ctx context.Context, id string) (*types.WikiPage, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	return r.oneWikiPage(ctx, "SELECT "+wikiColumns+" FROM wiki_pages WHERE page_id = ?", id)
}

// WikiPageBySlug retrieves a page by its slug within a project.
func (r Reader) WikiPageBySlug(ctx context.Context, projectID, slug string) (*types.WikiPage, error) {
	return r.oneWikiPage(ctx, "SELECT "+wikiColumns+" FROM wiki_pages WHERE project_id = ? AND slug = ?", projectID, slug)
}

// MainWikiPage returns the project's main page. Returns ErrNotFound when the
// project has none.
func (r Reader) MainWikiPage(ctx context.Context, projectID string) (*types.WikiPage, error) {
	return r.oneWikiPage(ctx, "SELECT "+wikiColumns+" FROM wiki_pages WHERE project_id = ? AND main = 1", projectID)
}

// WikiPages lists a project's pages ordered by title.
func (r Reader) WikiPages(ctx context.Context, projectID string) ([]*types.WikiPage, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+wikiColumns+" FROM wiki_pages WHERE project_id = ? ORDER BY title, page_id", projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying wiki pages: %w", err)
	}
	defer rows.Close()

	var pages []*types.WikiPage
	for rows.Next() {
		p, err := hydrateWikiPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning wiki page: %w", err)
		}
		pages = append(pages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating wiki pages: %w", err)
	}
	return pages, nil
}

// SlugTaken reports whether slug is in use in the project by a page other
// than exceptID.
func (r Reader) SlugTaken(ctx context.Context, projectID, slug, exceptID string) (bool, error) {
	var one int
	err := r.q.QueryRowContext(ctx,
		"SELECT 1 FROM wiki_pages WHERE project_id = ? AND slug = ? AND page_id <> ?",
		projectID, slug, exceptID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking slug: %w", err)
	}
	return true, nil
}

func (r Reader) oneWikiPage(ctx context.Context, query string, args ...any) (*types.WikiPage, error) {
	p, err := hydrateWikiPage(r.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting wiki page: %w", err)
	}
	return p, nil
}

// InsertWikiPage creates a page row, generating its ID and timestamps.
func (tx *Tx) InsertWikiPage(ctx context.Context, p *types.WikiPage) error {
	if p.Title == "" {
		return types.ErrInvalidTitle
	}
	if p.ProjectID == "" {
		return types.ErrInvalidProject
	}
	p.PageID = generateUUID()
	now := tx.now()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := tx.q.ExecContext(ctx,
		"INSERT INTO wiki_pages ("+wikiColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		p.PageID, p.ProjectID, p.Slug, p.Title, p.Content, boolInt(p.Main), p.CreatedBy,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("slug %q: %w", p.Slug, types.ErrDuplicateSlug)
		}
		return txErr("inserting wiki page", err)
	}
	return nil
}

// UpdateWikiPage rewrites slug, title, content and main flag, stamping
// UpdatedAt. Creator and creation time never change.
func (tx *Tx) UpdateWikiPage(ctx context.Context, p *types.WikiPage) error {
	if p.Title == "" {
		return types.ErrInvalidTitle
	}
	p.UpdatedAt = tx.now()
	res, err := tx.q.ExecContext(ctx,
		"UPDATE wiki_pages SET slug = ?, title = ?, content = ?, main = ?, updated_at = ? WHERE page_id = ?",
		p.Slug, p.Title, p.Content, boolInt(p.Main), formatTime(p.UpdatedAt), p.PageID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("slug %q: %w", p.Slug, types.ErrDuplicateSlug)
		}
		return txErr("updating wiki page", err)
	}
	return expectOne(res, p.PageID)
}

// ClearMain unsets the main flag on every page of the project except keepID.
func (tx *Tx) ClearMain(ctx context.Context, projectID, keepID string) error {
	_, err := tx.q.ExecContext(ctx,
		"UPDATE wiki_pages SET main = 0 WHERE project_id = ? AND page_id <> ? AND main = 1",
		projectID, keepID,
	)
	if err != nil {
		return txErr("clearing main page", err)
	}
	return nil
}

// DeleteWikiPage removes the page row.
func (tx *Tx) DeleteWikiPage(ctx context.Context, id string) error {
	res, err := tx.q.ExecContext(ctx, "DELETE FROM wiki_pages WHERE page_id = ?", id)
	if err != nil {
		return txErr("deleting wiki page", err)
	}
	return expectOne(res, id)
}

func hydrateWikiPage(s scanner) (*types.WikiPage, error) {
	var (
		p                types.WikiPage
		main             int
		created, updated string
	)
	err := s.Scan(&p.PageID, &p.ProjectID, &p.Slug, &p.Title, &p.Content, &main, &p.CreatedBy, &created, &updated)
	if err != nil {
		return nil, err
	}
	p.Main = main != 0
	if p.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &p, nil
}
