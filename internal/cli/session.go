package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/mesh-intelligence/collab/internal/roster"
	"github.com/mesh-intelligence/collab/internal/urls"
	"github.com/mesh-intelligence/collab/pkg/types"
)

// rosterPath resolves the roster file: --roster > config roster > <config-dir>/roster.yaml.
func (a *app) rosterPath() string {
	if a.flags.roster != "" {
		return a.flags.roster
	}
	if p := a.settings.GetString(cfgKeyRoster); p != "" {
		return p
	}
	return filepath.Join(a.configDir, rosterFileName)
}

func (a *app) loadRoster() (*roster.Roster, error) {
	if a.members != nil {
		return a.members, nil
	}
	r, err := roster.Load(a.rosterPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, userErr(fmt.Errorf("%w (run collab init or pass --roster)", err))
		}
		return nil, userErr(err)
	}
	a.members = r
	return r, nil
}

// actor returns the acting user: --as, then the user config key.
func (a *app) actor() (types.User, error) {
	id := a.flags.as
	if id == "" {
		id = a.settings.GetString(cfgKeyUser)
	}
	if id == "" {
		return nil, fmt.Errorf("pass --as: %w", types.ErrInvalidActor)
	}
	r, err := a.loadRoster()
	if err != nil {
		return nil, err
	}
	u, err := r.User(id)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// projectByID returns a roster project.
func (a *app) projectByID(id string) (types.Project, error) {
	r, err := a.loadRoster()
	if err != nil {
		return nil, err
	}
	p, err := r.Project(id)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// currentProject returns the project named by --project or the project
// config key.
func (a *app) currentProject() (types.Project, error) {
	id := a.flags.project
	if id == "" {
		id = a.settings.GetString(cfgKeyProject)
	}
	if id == "" {
		return nil, fmt.Errorf("pass --project: %w", types.ErrInvalidProject)
	}
	return a.projectByID(id)
}

// fileContext loads a file with the acting user and the file's own project.
func (a *app) fileContext(ctx context.Context, fileID string) (*types.FileArtifact, types.User, types.Project, error) {
	if err := a.open(ctx); err != nil {
		return nil, nil, nil, err
	}
	user, err := a.actor()
	if err != nil {
		return nil, nil, nil, err
	}
	f, err := a.files.Get(ctx, fileID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("file %s: %w", fileID, err)
	}
	project, err := a.projectByID(f.ProjectID)
	if err != nil {
		return nil, nil, nil, err
	}
	return f, user, project, nil
}

// wikiContext loads a page of the current project by slug. An empty slug
// selects the project's main page.
func (a *app) wikiContext(ctx context.Context, slug string) (*types.WikiPage, types.User, types.Project, error) {
	if err := a.open(ctx); err != nil {
		return nil, nil, nil, err
	}
	user, project, err := a.actorAndProject()
	if err != nil {
		return nil, nil, nil, err
	}
	var page *types.WikiPage
	if slug == "" {
		page, err = a.wiki.MainPage(ctx, project.ProjectID())
	} else {
		page, err = a.wiki.BySlug(ctx, project.ProjectID(), slug)
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("wiki page %q: %w", slug, err)
	}
	return page, user, project, nil
}

func (a *app) actorAndProject() (types.User, types.Project, error) {
	user, err := a.actor()
	if err != nil {
		return nil, nil, err
	}
	project, err := a.currentProject()
	if err != nil {
		return nil, nil, err
	}
	return user, project, nil
}

func (a *app) urls() urls.Builder {
	return urls.Builder{Host: a.settings.GetString(cfgKeyBaseURL)}
}

// deny reports a failed permission check.
func deny(user types.User, action, subject string) error {
	return fmt.Errorf("%s may not %s %s: %w", user.UserID(), action, subject, types.ErrPermissionDenied)
}
