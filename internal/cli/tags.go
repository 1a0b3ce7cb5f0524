package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/collab/internal/permission"
	"github.com/mesh-intelligence/collab/pkg/types"
)

func newTagsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Read or replace a file's tags",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <file-id>",
			Short: "Print the file's tags, comma-separated",
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
				if a.flags.jsonMode {
					return printJSON(cmd, types.ParseTagList(tags))
				}
				fmt.Fprintln(cmd.OutOrStdout(), tags)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "set <file-id> [label]...",
			Short: "Replace the file's tags; no labels clears them",
			Args:  cobra.MinimumNArgs(1),
			RunE: runE(func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				f, user, project, err := a.fileContext(ctx, args[0])
				if err != nil {
					return err
				}
				if !permission.CanEditFile(user, project, f) {
					return deny(user, "tag", f.FileID)
				}
				tags, err := a.files.ReplaceTags(ctx, f, labels(args[1:]))
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd, tags)
				}
				fmt.Fprintln(cmd.OutOrStdout(), types.JoinTags(tags))
				return nil
			}),
		},
	)
	return cmd
}
