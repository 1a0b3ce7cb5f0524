package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/collab/pkg/types"
)

// printJSON writes v as indented JSON.
func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysErr(fmt.Errorf("marshal JSON: %w", err))
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// printFileLine writes one file as a tab-separated row.
func printFileLine(w io.Writer, f *types.FileArtifact) {
	number := 0
	if rev, ok := f.LatestRevision(); ok {
		number = rev.RevisionNumber
	}
	private := ""
	if f.IsPrivate {
		private = "\tprivate"
	}
	fmt.Fprintf(w, "%s\t%s\tr%d\t%d bytes\t%s%s\n",
		f.FileID, f.Filename, number, f.FileSize(), f.UpdatedAt.Format(time.DateTime), private)
}

func printRevisionLine(w io.Writer, r *types.Revision) {
	fmt.Fprintf(w, "r%d\t%d bytes\t%s\t%s\t%s\n",
		r.RevisionNumber, r.Filesize, r.ContentType, r.CreatedBy, r.Comment)
}

func printWikiLine(w io.Writer, p *types.WikiPage) {
	main := ""
	if p.Main {
		main = "\tmain"
	}
	fmt.Fprintf(w, "%s\t%s%s\n", p.Slug, p.Title, main)
}

func printAuditLine(w io.Writer, e *types.AuditLogEntry) {
	fmt.Fprintf(w, "%s\t%s\t%s\t%s %s\t%s\n",
		e.CreatedAt.Format(time.DateTime), e.ActorID, e.Action, e.RelType, e.RelID, e.ObjectName)
}

// labels joins positional tag arguments into one comma-separated value.
func labels(args []string) *string {
	if len(args) == 0 {
		return nil
	}
	v := strings.Join(args, ",")
	return &v
}
