package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/collab/pkg/types"
)

func TestWiki_SlugUniquePerProject(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	insert := func(projectID, slug string) error {
		return b.WithTx(ctx, func(tx *Tx) error {
			return tx.InsertWikiPage(ctx, &types.WikiPage{ProjectID: projectID, Slug: slug, Title: "Home", CreatedBy: "u"})
		})
	}

	require.NoError(t, insert("p1", "home"))
	require.NoError(t, insert("p2", "home"), "same slug in another project")
	assert.ErrorIs(t, insert("p1", "home"), types.ErrDuplicateSlug)

	r, _ := b.Reader()
	taken, err := r.SlugTaken(ctx, "p1", "home", "")
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = r.SlugTaken(ctx, "p3", "home", "")
	require.NoError(t, err)
	assert.False(t, taken)

	p, err := r.WikiPageBySlug(ctx, "p2", "home")
	require.NoError(t, err)
	assert.Equal(t, "p2", p.ProjectID)
}

func TestWiki_OneMainPagePerProject(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	first := &types.WikiPage{ProjectID: "p1", Slug: "a", Title: "A", Main: true, CreatedBy: "u"}
	second := &types.WikiPage{ProjectID: "p1", Slug: "b", Title: "B", Main: true, CreatedBy: "u"}
	require.NoError(t, b.WithTx(ctx, func(tx *Tx) error { return tx.InsertWikiPage(ctx, first) }))

	err := b.WithTx(ctx, func(tx *Tx) error { return tx.InsertWikiPage(ctx, second) })
	assert.Error(t, err, "the partial unique index rejects a second main page")

	require.NoError(t, b.WithTx(ctx, func(tx *Tx) error {
		if err := tx.ClearMain(ctx, "p1", ""); err != nil {
			return err
		}
		return tx.InsertWikiPage(ctx, second)
	}))

	r, _ := b.Reader()
	main, err := r.MainWikiPage(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "B", main.Title)

	_, err = r.MainWikiPage(ctx, "p9")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestWiki_UpdateAndDelete(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	p := &types.WikiPage{ProjectID: "p1", Slug: "home", Title: "Home", CreatedBy: "alice"}
	require.NoError(t, b.WithTx(ctx, func(tx *Tx) error { return tx.InsertWikiPage(ctx, p) }))

	p.Content = "hello"
	p.Title = "Start"
	require.NoError(t, b.WithTx(ctx, func(tx *Tx) error { return tx.UpdateWikiPage(ctx, p) }))

	r, _ := b.Reader()
	got, err := r.GetWikiPage(ctx, p.PageID)
	require.NoError(t, err)
	assert.Equal(t, "Start", got.Title)
	assert.Equal(t, "hello", got.Content)
	assert.Equal(t, "alice", got.CreatedBy)

	pages, err := r.WikiPages(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, pages, 1)

	require.NoError(t, b.WithTx(ctx, func(tx *Tx) error { return tx.DeleteWikiPage(ctx, p.PageID) }))
	_, err = r.GetWikiPage(ctx, p.PageID)
	assert.ErrorIs(t, err, types.ErrNotFound)

	err = b.WithTx(ctx, func(tx *Tx) error { return tx.DeleteWikiPage(ctx, p.PageID) })
	assert.ErrorIs(t, err, types.ErrNotFound)
}
