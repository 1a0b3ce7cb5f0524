package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/collab/internal/permission"
	"github.com/mesh-intelligence/collab/pkg/types"
)

func newWikiCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wiki",
		Short: "Create, edit, show and delete wiki pages",
	}
	cmd.AddCommand(
		newWikiCreateCmd(a),
		newWikiEditCmd(a),
		newWikiShowCmd(a),
		newWikiRmCmd(a),
		newWikiListCmd(a),
		newWikiTagCmd(a),
	)
	return cmd
}

// pageBody holds the content flags shared by create and edit.
type pageBody struct {
	content     string
	contentFile string
}

func (b *pageBody) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&b.content, "content", "", "page content")
	cmd.Flags().StringVar(&b.contentFile, "content-file", "", "read page content from a file")
}

// resolve returns the content and whether either flag was given.
func (b *pageBody) resolve(cmd *cobra.Command) (string, bool, error) {
	if b.contentFile != "" {
		data, err := os.ReadFile(b.contentFile)
		if err != nil {
			return "", false, userErr(err)
		}
		return string(data), true, nil
	}
	return b.content, cmd.Flags().Changed("content"), nil
}

func printPage(cmd *cobra.Command, a *app, p *types.WikiPage) error {
	if a.flags.jsonMode {
		return printJSON(cmd, p)
	}
	printWikiLine(cmd.OutOrStdout(), p)
	return nil
}

func newWikiCreateCmd(a *app) *cobra.Command {
	var (
		body pageBody
		slug string
		main bool
	)
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a wiki page; the slug is derived from the title unless given",
		Args:  cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.open(ctx); err != nil {
				return err
			}
			user, project, err := a.actorAndProject()
			if err != nil {
				return err
			}
			if !permission.CanCreateWikiPage(user, project) {
				return deny(user, "create wiki pages in", project.ProjectID())
			}
			content, _, err := body.resolve(cmd)
			if err != nil {
				return err
			}
			page := &types.WikiPage{
				ProjectID: project.ProjectID(),
				Title:     args[0],
				Slug:      slug,
				Content:   content,
				Main:      main,
			}
			if err := a.wiki.Create(ctx, page, user); err != nil {
				return err
			}
			return printPage(cmd, a, page)
		}),
	}
	body.register(cmd)
	cmd.Flags().StringVar(&slug, "slug", "", "explicit slug")
	cmd.Flags().BoolVar(&main, "main", false, "make this the project's main page")
	return cmd
}

func newWikiEditCmd(a *app) *cobra.Command {
	var (
		body    pageBody
		title   string
		newSlug string
		main    bool
	)
	cmd := &cobra.Command{
		Use:   "edit <slug>",
		Short: "Edit a wiki page's title, content, slug or main flag",
		Args:  cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			page, user, project, err := a.wikiContext(ctx, args[0])
			if err != nil {
				return err
			}
			if !permission.CanEditWikiPage(user, project, page) {
				return deny(user, "edit", page.Slug)
			}
			content, changed, err := body.resolve(cmd)
			if err != nil {
				return err
			}
			if changed {
				page.Content = content
			}
			if cmd.Flags().Changed("title") {
				page.Title = title
			}
			if cmd.Flags().Changed("slug") {
				page.Slug = newSlug
			}
			if cmd.Flags().Changed("main") {
				page.Main = main
			}
			if err := a.wiki.Update(ctx, page, user); err != nil {
				return err
			}
			return printPage(cmd, a, page)
		}),
	}
	body.register(cmd)
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&newSlug, "slug", "", "new slug")
	cmd.Flags().BoolVar(&main, "main", false, "main page flag")
	return cmd
}

func newWikiShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [slug]",
		Short: "Show a wiki page, or the project's main page when no slug is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			slug := ""
			if len(args) == 1 {
				slug = args[0]
			}
			page, user, project, err := a.wikiContext(ctx, slug)
			if err != nil {
				return err
			}
			if !permission.CanSeeWikiPage(user, project, page) {
				return deny(user, "see", page.Slug)
			}
			tags, err := a.wiki.Tags(ctx, page.PageID)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd, struct {
					*types.WikiPage
					Tags string `json:"tags"`
					URL  string `json:"url"`
				}{page, tags, a.urls().WikiPageURL(page)})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s\n", page.Title)
			fmt.Fprintf(out, "slug: %s  url: %s  tags: %s\n\n", page.Slug, a.urls().WikiPageURL(page), tags)
			fmt.Fprintln(out, page.Content)
			return nil
		}),
	}
}

func newWikiRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <slug>",
		Short: "Delete a wiki page with its tags and comments",
		Args:  cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			page, user, project, err := a.wikiContext(ctx, args[0])
			if err != nil {
				return err
			}
			if !permission.CanDeleteWikiPage(user, project, page) {
				return deny(user, "delete", page.Slug)
			}
			if err := a.wiki.Delete(ctx, page.PageID, user); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", page.Slug)
			return nil
		}),
	}
}

func newWikiListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the project's wiki pages",
		Args:  cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.open(ctx); err != nil {
				return err
			}
			user, project, err := a.actorAndProject()
			if err != nil {
				return err
			}
			pages, err := a.wiki.List(ctx, project.ProjectID())
			if err != nil {
				return err
			}
			shown := make([]*types.WikiPage, 0, len(pages))
			for _, p := range pages {
				if permission.CanSeeWikiPage(user, project, p) {
					shown = append(shown, p)
				}
			}
			if a.flags.jsonMode {
				return printJSON(cmd, shown)
			}
			for _, p := range shown {
				printWikiLine(cmd.OutOrStdout(), p)
			}
			return nil
		}),
	}
}

func newWikiTagCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tag <slug> [label]...",
		Short: "Replace a wiki page's tags; no labels clears them",
		Args:  cobra.MinimumNArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			page, user, project, err := a.wikiContext(ctx, args[0])
			if err != nil {
				return err
			}
			if !permission.CanEditWikiPage(user, project, page) {
				return deny(user, "tag", page.Slug)
			}
			tags, err := a.wiki.ReplaceTags(ctx, page, labels(args[1:]))
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd, tags)
			}
			fmt.Fprintln(cmd.OutOrStdout(), types.JoinTags(tags))
			return nil
		}),
	}
}
