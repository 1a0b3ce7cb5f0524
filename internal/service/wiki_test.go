package service

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/collab/pkg/types"
)

func (fx *fixture) createPage(t *testing.T, projectID, title, actor string, main bool) *types.WikiPage {
	t.Helper()
	p := &types.WikiPage{ProjectID: projectID, Title: title, Content: "body of " + title, Main: main}
	require.NoError(t, fx.wiki.Create(context.Background(), p, fx.user(t, actor)))
	return p
}

func TestWikiCreate_DisambiguatesSlugsPerProject(t *testing.T) {
	fx := newFixture(t, types.Config{})

	var slugs []string
	for range 3 {
		slugs = append(slugs, fx.createPage(t, "p1", "Getting Started", "alice", false).Slug)
	}
	assert.Equal(t, []string{"getting-started", "getting-started-2", "getting-started-3"}, slugs)

	other := fx.createPage(t, "p2", "Getting Started", "alice", false)
	assert.Equal(t, "getting-started", other.Slug, "slugs are scoped to the project")

	got, err := fx.wiki.BySlug(context.Background(), "p1", "getting-started-2")
	require.NoError(t, err)
	assert.Equal(t, slugs[1], got.Slug)
	assert.Equal(t, "alice", got.CreatedBy)
}

func TestWikiCreate_SlugSources(t *testing.T) {
	tests := []struct {
		name  string
		title string
		slug  string
		want  string
	}{
		{name: "from title", title: "Release Notes 2.0", want: "release-notes-2-0"},
		{name: "explicit slug wins", title: "Anything", slug: "Custom Slug!", want: "custom-slug"},
		{name: "no usable characters", title: "!!!", want: "page"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t, types.Config{})
			p := &types.WikiPage{ProjectID: "p1", Title: tt.title, Slug: tt.slug}
			require.NoError(t, fx.wiki.Create(context.Background(), p, fx.user(t, "alice")))
			assert.Equal(t, tt.want, p.Slug)
		})
	}
}

func TestWikiCreate_Validation(t *testing.T) {
	fx := newFixture(t, types.Config{})
	ctx := context.Background()
	alice := fx.user(t, "alice")

	assert.ErrorIs(t, fx.wiki.Create(ctx, &types.WikiPage{ProjectID: "p1"}, alice), types.ErrInvalidTitle)
	assert.ErrorIs(t, fx.wiki.Create(ctx, &types.WikiPage{Title: "x"}, alice), types.ErrInvalidProject)
	assert.ErrorIs(t, fx.wiki.Create(ctx, &types.WikiPage{ProjectID: "p1", Title: "x"}, nil), types.ErrInvalidActor)

	pages, err := fx.wiki.List(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, pages)
}

func TestWikiAudit_Attribution(t *testing.T) {
	tests := []struct {
		mode       string
		wantEdit   string
		wantDelete string
	}{
		{mode: "", wantEdit: "alice", wantDelete: "alice"},
		{mode: types.AttributeCreator, wantEdit: "alice", wantDelete: "alice"},
		{mode: types.AttributeActor, wantEdit: "bob", wantDelete: "carol"},
	}
	for _, tt := range tests {
		t.Run("mode="+tt.mode, func(t *testing.T) {
			fx := newFixture(t, types.Config{Audit: types.AuditConfig{Attribution: tt.mode}})
			ctx := context.Background()
			p := fx.createPage(t, "p1", "Roadmap", "alice", false)

			p.Content = "revised"
			require.NoError(t, fx.wiki.Update(ctx, p, fx.user(t, "bob")))
			require.NoError(t, fx.wiki.Delete(ctx, p.PageID, fx.user(t, "carol")))

			entries, err := fx.audit.List(ctx, types.AuditFilter{RelType: types.RelTypeWikiPage, RelID: p.PageID})
			require.NoError(t, err)
			require.Len(t, entries, 3)
			assert.Equal(t, types.AuditAdd, entries[0].Action)
			assert.Equal(t, "alice", entries[0].ActorID)
			assert.Equal(t, types.AuditEdit, entries[1].Action)
			assert.Equal(t, tt.wantEdit, entries[1].ActorID)
			assert.Equal(t, types.AuditDelete, entries[2].Action)
			assert.Equal(t, tt.wantDelete, entries[2].ActorID)
			assert.Equal(t, "Roadmap", entries[2].ObjectName, "the name outlives the page")
		})
	}
}

func TestWikiUpdate_KeepsStoredIdentity(t *testing.T) {
	fx := newFixture(t, types.Config{})
	ctx := context.Background()
	p := fx.createPage(t, "p1", "Home", "alice", false)

	edit := &types.WikiPage{PageID: p.PageID, Title: "Home Sweet Home", Content: "new", CreatedBy: "mallory", ProjectID: "p2"}
	require.NoError(t, fx.wiki.Update(ctx, edit, fx.user(t, "bob")))

	got, err := fx.wiki.Get(ctx, p.PageID)
	require.NoError(t, err)
	assert.Equal(t, "Home Sweet Home", got.Title)
	assert.Equal(t, "new", got.Content)
	assert.Equal(t, "home", got.Slug, "an empty slug keeps the stored one")
	assert.Equal(t, "alice", got.CreatedBy)
	assert.Equal(t, "p1", got.ProjectID)
	assert.True(t, got.CreatedAt.Equal(p.CreatedAt))
}

func TestWikiUpdate_SlugConflictIsDisambiguated(t *testing.T) {
	fx := newFixture(t, types.Config{})
	ctx := context.Background()
	fx.createPage(t, "p1", "Home", "alice", false)
	other := fx.createPage(t, "p1", "Other", "alice", false)

	other.Slug = "home"
	require.NoError(t, fx.wiki.Update(ctx, other, fx.user(t, "alice")))
	assert.Equal(t, "home-2", other.Slug)

	other.Slug = "home-2"
	require.NoError(t, fx.wiki.Update(ctx, other, fx.user(t, "alice")))
	assert.Equal(t, "home-2", other.Slug, "a page keeps its own slug")

	err := fx.wiki.Update(ctx, &types.WikiPage{PageID: "missing", Title: "x"}, fx.user(t, "alice"))
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestWikiMainPage_AtMostOnePerProject(t *testing.T) {
	fx := newFixture(t, types.Config{})
	ctx := context.Background()
	first := fx.createPage(t, "p1", "First", "alice", true)
	second := fx.createPage(t, "p1", "Second", "alice", true)
	elsewhere := fx.createPage(t, "p2", "Elsewhere", "alice", true)

	main, err := fx.wiki.MainPage(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, second.PageID, main.PageID)
	got, err := fx.wiki.Get(ctx, first.PageID)
	require.NoError(t, err)
	assert.False(t, got.Main)

	_, err = fx.wiki.SetMain(ctx, first.PageID, fx.user(t, "alice"))
	require.NoError(t, err)
	main, err = fx.wiki.MainPage(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, first.PageID, main.PageID)

	main, err = fx.wiki.MainPage(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, elsewhere.PageID, main.PageID, "other projects keep their main page")

	pages, err := fx.wiki.List(ctx, "p1")
	require.NoError(t, err)
	mains := 0
	for _, p := range pages {
		if p.Main {
			mains++
		}
	}
	assert.Equal(t, 1, mains)
}

func TestWikiDelete_RemovesTagsAndComments(t *testing.T) {
	fx := newFixture(t, types.Config{})
	ctx := context.Background()
	p := fx.createPage(t, "p1", "Doomed", "alice", false)

	tags, err := fx.wiki.ReplaceTags(ctx, p, strPtr("draft,old"))
	require.NoError(t, err)
	require.Len(t, tags, 2)
	require.NotNil(t, tags[0].OwnerID)
	assert.Equal(t, "alice", *tags[0].OwnerID, "page tags are owned by the creator")

	require.NoError(t, fx.wiki.Delete(ctx, p.PageID, fx.user(t, "alice")))

	_, err = fx.wiki.BySlug(ctx, "p1", "doomed")
	assert.ErrorIs(t, err, types.ErrNotFound)
	got, err := fx.wiki.Tags(ctx, p.PageID)
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.ErrorIs(t, fx.wiki.Delete(ctx, p.PageID, fx.user(t, "alice")), types.ErrNotFound)
}

func TestAuditExport_WritesJSONLines(t *testing.T) {
	fx := newFixture(t, types.Config{})
	ctx := context.Background()
	fx.uploadOne(t, "alice", "a.txt", "a")
	fx.createPage(t, "p1", "Notes", "alice", false)
	fx.createPage(t, "p2", "Elsewhere", "alice", false)

	path := filepath.Join(t.TempDir(), "audit.jsonl")
	n, err := fx.audit.Export(ctx, path, types.AuditFilter{ProjectID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	var got []types.AuditLogEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e types.AuditLogEntry
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		got = append(got, e)
	}
	require.NoError(t, sc.Err())
	require.Len(t, got, 2)
	assert.Equal(t, types.RelTypeFile, got[0].RelType)
	assert.Equal(t, types.RelTypeWikiPage, got[1].RelType)
	assert.Equal(t, "Notes", got[1].ObjectName)
}
