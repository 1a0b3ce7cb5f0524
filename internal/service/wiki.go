package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/collab/internal/sqlite"
	"github.com/mesh-intelligence/collab/pkg/types"
)

// defaultSlug is used when a title has no letters or digits.
const defaultSlug = "page"

// Wiki manages wiki pages and writes their audit trail.
type Wiki struct {
	backend     *sqlite.Backend
	attribution string
	log         zerolog.Logger
}

// NewWiki wires the wiki service. cfg.Audit.Attribution decides whether
// edit and delete entries name the page creator (the default) or the acting
// user.
func NewWiki(backend *sqlite.Backend, cfg types.Config, log zerolog.Logger) *Wiki {
	return &Wiki{
		backend:     backend,
		attribution: cfg.AttributionMode(),
		log:         log.With().Str("component", "wiki").Logger(),
	}
}

// attribute picks the audit actor for a change to p made by actor.
func (w *Wiki) attribute(p *types.WikiPage, actor types.User) string {
	if w.attribution == types.AttributeActor && actor != nil {
		return actor.UserID()
	}
	return p.CreatedBy
}

func (w *Wiki) audit(ctx context.Context, tx *sqlite.Tx, p *types.WikiPage, actor types.User, action string) error {
	return tx.AppendAudit(ctx, &types.AuditLogEntry{
		RelType:    types.RelTypeWikiPage,
		RelID:      p.PageID,
		ObjectName: p.ObjectName(),
		ProjectID:  p.ProjectID,
		ActorID:    w.attribute(p, actor),
		Action:     action,
	})
}

// uniqueSlug returns base, or base-2, base-3 and so on, whichever is first
// free in the project. exceptID lets a page keep its own slug.
func uniqueSlug(ctx context.Context, tx *sqlite.Tx, projectID, base, exceptID string) (string, error) {
	candidate := base
	for n := 2; ; n++ {
		taken, err := tx.SlugTaken(ctx, projectID, candidate, exceptID)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(n)
	}
}

func slugBase(p *types.WikiPage) string {
	base := types.Slugify(p.Slug)
	if base == "" {
		base = types.Slugify(p.Title)
	}
	if base == "" {
		base = defaultSlug
	}
	return base
}

// Create inserts page, deriving its slug from the title when none is given
// and disambiguating it within the project. CreatedBy defaults to actor. An
// add entry is appended in the same transaction.
func (w *Wiki) Create(ctx context.Context, page *types.WikiPage, actor types.User) error {
	if page == nil {
		return types.ErrInvalidID
	}
	if page.Title == "" {
		return types.ErrInvalidTitle
	}
	if page.ProjectID == "" {
		return types.ErrInvalidProject
	}
	if page.CreatedBy == "" {
		if actor == nil {
			return types.ErrInvalidActor
		}
		page.CreatedBy = actor.UserID()
	}

	err := w.backend.WithTx(ctx, func(tx *sqlite.Tx) error {
		slug, err := uniqueSlug(ctx, tx, page.ProjectID, slugBase(page), "")
		if err != nil {
			return err
		}
		page.Slug = slug
		if page.Main {
			if err := tx.ClearMain(ctx, page.ProjectID, ""); err != nil {
				return err
			}
		}
		if err := tx.InsertWikiPage(ctx, page); err != nil {
			return err
		}
		return w.audit(ctx, tx, page, actor, types.AuditAdd)
	})
	if err != nil {
		w.log.Error().Err(err).Str("project_id", page.ProjectID).Msg("creating wiki page")
		return err
	}
	auditEntriesTotal.WithLabelValues(types.AuditAdd).Inc()
	w.log.Info().Str("page_id", page.PageID).Str("slug", page.Slug).Str("project_id", page.ProjectID).Msg("wiki page created")
	return nil
}

// Update saves page's title, content, slug and main flag. The edit entry is
// appended before the row changes, both in one transaction. Creator, project
// and creation time are taken from the stored page.
func (w *Wiki) Update(ctx context.Context, page *types.WikiPage, actor types.User) error {
	if page == nil || page.PageID == "" {
		return types.ErrInvalidID
	}
	if page.Title == "" {
		return types.ErrInvalidTitle
	}

	err := w.backend.WithTx(ctx, func(tx *sqlite.Tx) error {
		stored, err := tx.GetWikiPage(ctx, page.PageID)
		if err != nil {
			return err
		}
		page.ProjectID = stored.ProjectID
		page.CreatedBy = stored.CreatedBy
		page.CreatedAt = stored.CreatedAt

		if page.Slug == "" {
			page.Slug = stored.Slug
		} else if page.Slug != stored.Slug {
			if page.Slug, err = uniqueSlug(ctx, tx, page.ProjectID, slugBase(page), page.PageID); err != nil {
				return err
			}
		}

		if err := w.audit(ctx, tx, page, actor, types.AuditEdit); err != nil {
			return err
		}
		if page.Main {
			if err := tx.ClearMain(ctx, page.ProjectID, page.PageID); err != nil {
				return err
			}
		}
		return tx.UpdateWikiPage(ctx, page)
	})
	if err != nil {
		w.log.Error().Err(err).Str("page_id", page.PageID).Msg("updating wiki page")
		return err
	}
	auditEntriesTotal.WithLabelValues(types.AuditEdit).Inc()
	w.log.Info().Str("page_id", page.PageID).Str("slug", page.Slug).Msg("wiki page updated")
	return nil
}

// SetMain makes the page its project's main page, clearing the flag on every
// other page in the same transaction.
func (w *Wiki) SetMain(ctx context.Context, pageID string, actor types.User) (*types.WikiPage, error) {
	var page *types.WikiPage
	err := w.backend.WithTx(ctx, func(tx *sqlite.Tx) error {
		var err error
		if page, err = tx.GetWikiPage(ctx, pageID); err != nil {
			return err
		}
		if err := tx.ClearMain(ctx, page.ProjectID, page.PageID); err != nil {
			return err
		}
		if err := w.audit(ctx, tx, page, actor, types.AuditEdit); err != nil {
			return err
		}
		page.Main = true
		return tx.UpdateWikiPage(ctx, page)
	})
	if err != nil {
		return nil, err
	}
	auditEntriesTotal.WithLabelValues(types.AuditEdit).Inc()
	return page, nil
}

// Delete appends a delete entry and then removes the page with its tags and
// comments, all in one transaction.
func (w *Wiki) Delete(ctx context.Context, pageID string, actor types.User) error {
	var page *types.WikiPage
	err := w.backend.WithTx(ctx, func(tx *sqlite.Tx) error {
		var err error
		if page, err = tx.GetWikiPage(ctx, pageID); err != nil {
			return err
		}
		if err := w.audit(ctx, tx, page, actor, types.AuditDelete); err != nil {
			return err
		}
		if err := tx.ClearTags(ctx, types.RelTypeWikiPage, pageID); err != nil {
			return err
		}
		if err := tx.DeleteComments(ctx, types.RelTypeWikiPage, pageID); err != nil {
			return err
		}
		return tx.DeleteWikiPage(ctx, pageID)
	})
	if err != nil {
		w.log.Error().Err(err).Str("page_id", pageID).Msg("deleting wiki page")
		return err
	}
	auditEntriesTotal.WithLabelValues(types.AuditDelete).Inc()
	w.log.Info().Str("page_id", pageID).Str("project_id", page.ProjectID).Msg("wiki page deleted")
	return nil
}

// Get returns the page with id.
func (w *Wiki) Get(ctx context.Context, id string) (*types.WikiPage, error) {
	r, err := w.backend.Reader()
	if err != nil {
		return nil, err
	}
	return r.GetWikiPage(ctx, id)
}

// BySlug returns the page with slug in the project.
func (w *Wiki) BySlug(ctx context.Context, projectID, slug string) (*types.WikiPage, error) {
	r, err := w.backend.Reader()
	if err != nil {
		return nil, err
	}
	return r.WikiPageBySlug(ctx, projectID, slug)
}

// MainPage returns the project's main page, or ErrNotFound.
func (w *Wiki) MainPage(ctx context.Context, projectID string) (*types.WikiPage, error) {
	r, err := w.backend.Reader()
	if err != nil {
		return nil, err
	}
	return r.MainWikiPage(ctx, projectID)
}

// List returns the project's pages.
func (w *Wiki) List(ctx context.Context, projectID string) ([]*types.WikiPage, error) {
	r, err := w.backend.Reader()
	if err != nil {
		return nil, err
	}
	return r.WikiPages(ctx, projectID)
}

// Tags returns the page's tag labels joined by commas.
func (w *Wiki) Tags(ctx context.Context, pageID string) (string, error) {
	return tagsOf(ctx, w.backend, types.RelTypeWikiPage, pageID)
}

// ReplaceTags rewrites the page's tag set; tags are owned by the page
// creator. A nil or empty value clears them.
func (w *Wiki) ReplaceTags(ctx context.Context, page *types.WikiPage, value *string) ([]types.Tag, error) {
	if page == nil || page.PageID == "" {
		return nil, types.ErrInvalidID
	}
	var tags []types.Tag
	err := w.backend.WithTx(ctx, func(tx *sqlite.Tx) error {
		stored, err := tx.GetWikiPage(ctx, page.PageID)
		if err != nil {
			return fmt.Errorf("tagging wiki page: %w", err)
		}
		owner := stored.CreatedBy
		tags, err = replaceTags(ctx, tx, types.RelTypeWikiPage, stored.PageID, value, &owner)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}
