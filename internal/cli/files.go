package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/collab/internal/permission"
	"github.com/mesh-intelligence/collab/internal/service"
	"github.com/mesh-intelligence/collab/pkg/types"
)

func newFilesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "List, inspect and manage project files",
	}
	cmd.AddCommand(
		newFilesListCmd(a),
		newFilesShowCmd(a),
		newFilesDownloadCmd(a),
		newFilesRmCmd(a),
		newFilesOptionsCmd(a),
		newFilesCommentCmd(a),
		newFilesSelectCmd(a),
	)
	return cmd
}

func newFilesListCmd(a *app) *cobra.Command {
	var (
		groupBy string
		query   types.FileQuery
		folder  string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the project's files the acting user may see",
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
			query.ProjectID = project.ProjectID()
			if cmd.Flags().Changed("folder") {
				query.FolderID = &folder
			}
			visible := func(f *types.FileArtifact) bool { return permission.CanSeeFile(user, project, f) }

			if groupBy == "" {
				files, err := a.files.Find(ctx, query)
				if err != nil {
					return err
				}
				files = filterFiles(files, visible)
				if a.flags.jsonMode {
					return printJSON(cmd, files)
				}
				for _, f := range files {
					printFileLine(cmd.OutOrStdout(), f)
				}
				return nil
			}

			g, err := a.files.FindGrouped(ctx, groupBy, query)
			if err != nil {
				return err
			}
			shown := &service.Grouped{Files: filterFiles(g.Files, visible)}
			for _, grp := range g.Groups {
				if files := filterFiles(grp.Files, visible); len(files) > 0 {
					shown.Groups = append(shown.Groups, service.Group{Key: grp.Key, Files: files})
				}
			}
			if a.flags.jsonMode {
				return printJSON(cmd, shown)
			}
			out := cmd.OutOrStdout()
			for _, grp := range shown.Groups {
				fmt.Fprintf(out, "== %s ==\n", grp.Key)
				for _, f := range grp.Files {
					printFileLine(out, f)
				}
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&groupBy, "group-by", "", "group by created_on, updated_on, filename or description")
	cmd.Flags().StringVar(&query.OrderBy, "order-by", "", "order by created_on, updated_on or filename")
	cmd.Flags().BoolVar(&query.Descending, "desc", false, "descending order")
	cmd.Flags().IntVar(&query.Limit, "limit", 0, "maximum number of files")
	cmd.Flags().BoolVar(&query.VisibleOnly, "visible", false, "only files flagged visible")
	cmd.Flags().StringVar(&folder, "folder", "", "only files in this folder")
	return cmd
}

func filterFiles(files []*types.FileArtifact, keep func(*types.FileArtifact) bool) []*types.FileArtifact {
	out := make([]*types.FileArtifact, 0, len(files))
	for _, f := range files {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}

// fileView is the detailed representation printed by files show.
type fileView struct {
	File        *types.FileArtifact `json:"file"`
	OwnerID     string              `json:"owner_id"`
	Tags        string              `json:"tags"`
	IconURL     string              `json:"icon_url"`
	URL         string              `json:"url"`
	DownloadURL string              `json:"download_url"`
	Comments    []types.Comment     `json:"comments"`
}

func newFilesShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <file-id>",
		Short: "Show a file with its revisions, tags and comments",
		Args:  cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, user, project, err := a.fileContext(ctx, args[0])
			if err != nil {
				return err
			}
			if !permission.CanSeeFile(user, project, f) {
				return deny(user, "see", f.FileID)
			}
			tags, err := a.files.Tags(ctx, f.FileID)
			if err != nil {
				return err
			}
			comments, err := a.files.Comments(ctx, f.FileID)
			if err != nil {
				return err
			}
			shown := make([]types.Comment, 0, len(comments))
			for _, c := range comments {
				if !c.IsPrivate || user.MemberOfOwner() {
					shown = append(shown, c)
				}
			}

			b := a.urls()
			v := fileView{
				File:        f,
				OwnerID:     f.OwnerID(),
				Tags:        tags,
				IconURL:     f.IconURL(),
				URL:         b.FileURL(f),
				DownloadURL: b.DownloadURL(f),
				Comments:    shown,
			}
			if a.flags.jsonMode {
				return printJSON(cmd, v)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  %s\n", f.FileID, f.Filename)
			fmt.Fprintf(out, "  project:     %s\n", f.ProjectID)
			fmt.Fprintf(out, "  owner:       %s\n", v.OwnerID)
			fmt.Fprintf(out, "  size:        %d bytes\n", f.FileSize())
			fmt.Fprintf(out, "  private:     %t\n", f.IsPrivate)
			fmt.Fprintf(out, "  description: %s\n", f.Description)
			fmt.Fprintf(out, "  tags:        %s\n", tags)
			fmt.Fprintf(out, "  url:         %s\n", v.URL)
			fmt.Fprintf(out, "  download:    %s\n", v.DownloadURL)
			fmt.Fprintln(out, "revisions:")
			for i := range f.Revisions {
				fmt.Fprint(out, "  ")
				printRevisionLine(out, &f.Revisions[i])
			}
			if len(shown) > 0 {
				fmt.Fprintln(out, "comments:")
				for _, c := range shown {
					fmt.Fprintf(out, "  %s: %s\n", c.AuthorID, c.Body)
				}
			}
			return nil
		}),
	}
}

func newFilesDownloadCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "download <file-id>",
		Short: "Write the latest revision's content to a file or stdout",
		Args:  cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, user, project, err := a.fileContext(ctx, args[0])
			if err != nil {
				return err
			}
			if !permission.CanDownloadFile(user, project, f) {
				return deny(user, "download", f.FileID)
			}
			rc, _, err := a.files.Download(ctx, f)
			if err != nil {
				return err
			}
			defer rc.Close()

			var dst io.Writer = cmd.OutOrStdout()
			if output != "" {
				file, err := os.Create(output)
				if err != nil {
					return userErr(err)
				}
				defer file.Close()
				dst = file
			}
			if _, err := io.Copy(dst, rc); err != nil {
				return fmt.Errorf("copying payload: %w", err)
			}
			return nil
		}),
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination path (default: stdout)")
	return cmd
}

func newFilesRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <file-id>",
		Short: "Delete a file with all its revisions, tags, comments and payloads",
		Args:  cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, user, project, err := a.fileContext(ctx, args[0])
			if err != nil {
				return err
			}
			if !permission.CanDeleteFile(user, project, f) {
				return deny(user, "delete", f.FileID)
			}
			if err := a.files.Destroy(ctx, f.FileID, user); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s (%s)\n", f.FileID, f.Filename)
			return nil
		}),
	}
}

func newFilesOptionsCmd(a *app) *cobra.Command {
	var (
		description string
		folder      string
		private     bool
		visible     bool
		comments    bool
		expires     string
	)
	cmd := &cobra.Command{
		Use:   "options <file-id>",
		Short: "Change a file's description, folder, privacy, visibility or comment settings",
		Args:  cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, user, project, err := a.fileContext(ctx, args[0])
			if err != nil {
				return err
			}
			if !permission.CanChangeFileOptions(user, project, f) {
				return deny(user, "change options of", f.FileID)
			}

			var opts service.FileOptions
			flags := cmd.Flags()
			if flags.Changed("description") {
				opts.Description = &description
			}
			if flags.Changed("folder") {
				opts.FolderID = &folder
			}
			if flags.Changed("private") {
				opts.IsPrivate = &private
			}
			if flags.Changed("visible") {
				opts.IsVisible = &visible
			}
			if flags.Changed("comments") {
				opts.CommentsEnabled = &comments
			}
			if flags.Changed("expires") {
				t, err := time.Parse(time.RFC3339, expires)
				if err != nil {
					return fmt.Errorf("--expires: %v: %w", err, types.ErrInvalidField)
				}
				opts.ExpirationTime = &t
			}

			updated, err := a.files.UpdateOptions(ctx, f.FileID, opts, user)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd, updated)
			}
			printFileLine(cmd.OutOrStdout(), updated)
			return nil
		}),
	}
	cmd.Flags().StringVar(&description, "description", "", "file description")
	cmd.Flags().StringVar(&folder, "folder", "", "folder ID; empty clears it")
	cmd.Flags().BoolVar(&private, "private", false, "private flag")
	cmd.Flags().BoolVar(&visible, "visible", true, "visibility flag")
	cmd.Flags().BoolVar(&comments, "comments", true, "allow comments")
	cmd.Flags().StringVar(&expires, "expires", "", "expiration time (RFC 3339)")
	return cmd
}

func newFilesCommentCmd(a *app) *cobra.Command {
	var private bool
	cmd := &cobra.Command{
		Use:   "comment <file-id> <text>",
		Short: "Comment on a file",
		Args:  cobra.ExactArgs(2),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, user, project, err := a.fileContext(ctx, args[0])
			if err != nil {
				return err
			}
			if !permission.CanCommentOnFile(user, project, f) {
				return deny(user, "comment on", f.FileID)
			}
			c, err := a.files.AddComment(ctx, f, user, args[1], private)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd, c)
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.CommentID)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&private, "private", false, "visible to the owning company only")
	return cmd
}

func newFilesSelectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "select",
		Short: "Print picker options for the project's files",
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
			if !user.MemberOf(project) {
				return deny(user, "list files of", project.ProjectID())
			}
			opts, err := a.files.SelectList(ctx, project.ProjectID())
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd, opts)
			}
			for _, o := range opts {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", o.Value, o.Label)
			}
			return nil
		}),
	}
}
