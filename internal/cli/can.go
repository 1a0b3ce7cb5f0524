package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/collab/internal/permission"
	"github.com/mesh-intelligence/collab/pkg/types"
)

type filePredicate func(types.User, types.Project, *types.FileArtifact) bool
type wikiPredicate func(types.User, types.Project, *types.WikiPage) bool

var fileActions = map[string]filePredicate{
	"see":      permission.CanSeeFile,
	"download": permission.CanDownloadFile,
	"edit":     permission.CanEditFile,
	"delete":   permission.CanDeleteFile,
	"manage":   permission.CanManageFile,
	"options":  permission.CanChangeFileOptions,
	"comment":  permission.CanCommentOnFile,
}

var wikiActions = map[string]wikiPredicate{
	"wiki-see":    permission.CanSeeWikiPage,
	"wiki-edit":   permission.CanEditWikiPage,
	"wiki-delete": permission.CanDeleteWikiPage,
}

// canActions lists every action name for help and error messages.
func canActions() []string {
	names := []string{"upload", "wiki-create"}
	for name := range fileActions {
		names = append(names, name)
	}
	for name := range wikiActions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

type verdict struct {
	Action  string `json:"action"`
	Subject string `json:"subject"`
	User    string `json:"user"`
	Allowed bool   `json:"allowed"`
}

func newCanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "can <action> [file-id|slug]",
		Short: "Check whether the acting user may perform an action",
		Long: `Check a permission without performing the action. File actions take a file
ID, wiki actions a page slug in --project; upload and wiki-create take none.
Prints allowed or denied and exits 1 when denied.

Actions: ` + strings.Join(canActions(), ", "),
		Args: cobra.RangeArgs(1, 2),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			v, err := a.check(cmd.Context(), args)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				if err := printJSON(cmd, v); err != nil {
					return err
				}
			} else if v.Allowed {
				fmt.Fprintln(cmd.OutOrStdout(), "allowed")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "denied")
			}
			if !v.Allowed {
				return userErr(fmt.Errorf("%s %s: %w", v.Action, v.Subject, types.ErrPermissionDenied))
			}
			return nil
		}),
	}
}

func (a *app) check(ctx context.Context, args []string) (verdict, error) {
	action := args[0]
	subject := ""
	if len(args) == 2 {
		subject = args[1]
	}
	v := verdict{Action: action, Subject: subject}
	if err := a.open(ctx); err != nil {
		return v, err
	}

	_, isFile := fileActions[action]
	_, isWiki := wikiActions[action]
	projectAction := action == "upload" || action == "wiki-create"
	switch {
	case !isFile && !isWiki && !projectAction:
		return v, fmt.Errorf("action %q (want one of %s): %w", action, strings.Join(canActions(), ", "), types.ErrInvalidField)
	case projectAction && subject != "":
		return v, userErr(fmt.Errorf("action %q takes no subject", action))
	case !projectAction && subject == "":
		return v, userErr(fmt.Errorf("action %q needs a file ID or slug", action))
	}

	if pred, ok := fileActions[action]; ok {
		f, user, project, err := a.fileContext(ctx, subject)
		if err != nil {
			return v, err
		}
		v.User = user.UserID()
		v.Allowed = pred(user, project, f)
		return v, nil
	}
	if pred, ok := wikiActions[action]; ok {
		page, user, project, err := a.wikiContext(ctx, subject)
		if err != nil {
			return v, err
		}
		v.User = user.UserID()
		v.Allowed = pred(user, project, page)
		return v, nil
	}

	user, project, err := a.actorAndProject()
	if err != nil {
		return v, err
	}
	v.User = user.UserID()
	v.Subject = project.ProjectID()
	switch action {
	case "upload":
		v.Allowed = permission.CanCreateFile(user, project)
	case "wiki-create":
		v.Allowed = permission.CanCreateWikiPage(user, project)
	}
	return v, nil
}
