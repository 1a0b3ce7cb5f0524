package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/collab/internal/permission"
	"github.com/mesh-intelligence/collab/internal/service"
	"github.com/mesh-intelligence/collab/pkg/types"
)

func newUploadCmd(a *app) *cobra.Command {
	var private bool
	cmd := &cobra.Command{
		Use:   "upload <path>...",
		Short: "Upload files into the project, one artifact per file",
		Args:  cobra.MinimumNArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.open(ctx); err != nil {
				return err
			}
			user, project, err := a.actorAndProject()
			if err != nil {
				return err
			}
			if !permission.CanCreateFile(user, project) {
				return deny(user, "upload to", project.ProjectID())
			}

			uploads := make([]*types.Upload, 0, len(args))
			closers := make([]io.Closer, 0, len(args))
			defer func() {
				for _, c := range closers {
					c.Close()
				}
			}()
			for _, path := range args {
				src, err := os.Open(path)
				if err != nil {
					return userErr(err)
				}
				closers = append(closers, src)
				uploads = append(uploads, &types.Upload{Filename: filepath.Base(path), Content: src})
			}

			res, err := a.files.HandleFiles(ctx, uploads, types.ProjectOwner{Project: project}, user, private)
			if res != nil {
				if perr := printIntake(cmd, a.flags.jsonMode, res); perr != nil {
					return perr
				}
			}
			if err != nil {
				return err
			}
			if len(res.Failures) > 0 {
				return fmt.Errorf("%d of %d uploads failed: %w", len(res.Failures), len(args), res.Failures[0].Err)
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&private, "private", false, "mark the uploaded files private")
	return cmd
}

type intakeView struct {
	Files    []*types.FileArtifact `json:"files"`
	Failures []failureView         `json:"failures,omitempty"`
}

type failureView struct {
	Index    int    `json:"index"`
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

func printIntake(cmd *cobra.Command, jsonMode bool, res *service.IntakeResult) error {
	if jsonMode {
		v := intakeView{Files: res.Files}
		for _, f := range res.Failures {
			v.Failures = append(v.Failures, failureView{Index: f.Index, Filename: f.Filename, Error: f.Err.Error()})
		}
		if v.Files == nil {
			v.Files = []*types.FileArtifact{}
		}
		return printJSON(cmd, v)
	}
	for _, f := range res.Files {
		printFileLine(cmd.OutOrStdout(), f)
	}
	for _, f := range res.Failures {
		fmt.Fprintf(cmd.ErrOrStderr(), "failed %s: %v\n", f.Filename, f.Err)
	}
	return nil
}

func newReviseCmd(a *app) *cobra.Command {
	var (
		comment string
		replace bool
	)
	cmd := &cobra.Command{
		Use:   "revise <file-id> <path>",
		Short: "Upload a new revision of a file",
		Long: `Upload path as the next revision of the file. With --replace the latest
revision's payload is replaced in place and keeps its number.`,
		Args: cobra.ExactArgs(2),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, user, project, err := a.fileContext(ctx, args[0])
			if err != nil {
				return err
			}
			if !permission.CanEditFile(user, project, f) {
				return deny(user, "revise", f.FileID)
			}

			src, err := os.Open(args[1])
			if err != nil {
				return userErr(err)
			}
			defer src.Close()
			up := &types.Upload{Filename: filepath.Base(args[1]), Content: src}

			var rev *types.Revision
			if replace {
				latest, ok := f.LatestRevision()
				if !ok {
					return types.ErrNoRevisions
				}
				existing := *latest
				rev, err = a.files.UpdateRevision(ctx, f, up, &existing, user, comment)
			} else {
				var number int
				if number, err = a.files.NextRevisionNumber(ctx, f.FileID); err != nil {
					return err
				}
				rev, err = a.files.AddRevision(ctx, f, up, number, user, comment)
			}
			if err != nil {
				return err
			}

			if a.flags.jsonMode {
				return printJSON(cmd, rev)
			}
			printRevisionLine(cmd.OutOrStdout(), rev)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&comment, "comment", "m", "", "revision comment")
	cmd.Flags().BoolVar(&replace, "replace", false, "replace the latest revision in place")
	return cmd
}
