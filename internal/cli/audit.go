package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/collab/pkg/types"
)

func newAuditCmd(a *app) *cobra.Command {
	var filter types.AuditFilter
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Read and export the audit log",
		Long: `Read and export the append-only audit log. Administrators may read every
entry; project members may read the entries of their project (--project).`,
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&filter.RelID, "subject", "", "only entries about this file or wiki page ID")
	pf.StringVar(&filter.RelType, "type", "", "only entries about this entity type (file, wiki_page)")
	pf.StringVar(&filter.Action, "action", "", "only this action (add, edit, delete)")
	pf.IntVar(&filter.Limit, "limit", 0, "maximum number of entries")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List audit entries in append order",
			Args:  cobra.NoArgs,
			RunE: runE(func(cmd *cobra.Command, args []string) error {
				f, err := a.auditFilter(cmd, filter)
				if err != nil {
					return err
				}
				entries, err := a.audit.List(cmd.Context(), f)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					if entries == nil {
						entries = []types.AuditLogEntry{}
					}
					return printJSON(cmd, entries)
				}
				for i := range entries {
					printAuditLine(cmd.OutOrStdout(), &entries[i])
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "export <path>",
			Short: "Write audit entries to a JSON lines file",
			Args:  cobra.ExactArgs(1),
			RunE: runE(func(cmd *cobra.Command, args []string) error {
				f, err := a.auditFilter(cmd, filter)
				if err != nil {
					return err
				}
				n, err := a.audit.Export(cmd.Context(), args[0], f)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entries to %s\n", n, args[0])
				return nil
			}),
		},
	)
	return cmd
}

// auditFilter opens the store and scopes filter to what the actor may read.
func (a *app) auditFilter(cmd *cobra.Command, filter types.AuditFilter) (types.AuditFilter, error) {
	if err := a.open(cmd.Context()); err != nil {
		return filter, err
	}
	if filter.Action != "" && !types.ValidAuditAction(filter.Action) {
		return filter, fmt.Errorf("action %q: %w", filter.Action, types.ErrInvalidField)
	}
	user, err := a.actor()
	if err != nil {
		return filter, err
	}
	if a.flags.project == "" && a.settings.GetString(cfgKeyProject) == "" {
		if !user.IsAdmin() {
			return filter, deny(user, "read the audit log of", "every project")
		}
		return filter, nil
	}
	project, err := a.currentProject()
	if err != nil {
		return filter, err
	}
	if !user.IsAdmin() && !user.MemberOf(project) {
		return filter, deny(user, "read the audit log of", project.ProjectID())
	}
	filter.ProjectID = project.ProjectID()
	return filter, nil
}
