// Package cli implements the collab command-line interface: uploading and
// revising project files, tagging, wiki pages, the audit log and permission
// checks, all on top of the service layer.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/collab/internal/logger"
	"github.com/mesh-intelligence/collab/internal/paths"
	"github.com/mesh-intelligence/collab/internal/roster"
	"github.com/mesh-intelligence/collab/internal/service"
	"github.com/mesh-intelligence/collab/pkg/collab"
	"github.com/mesh-intelligence/collab/pkg/types"
)

// Version is the collab version, set at build time with -ldflags.
var Version = "dev"

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	roster    string
	as        string
	project   string
	jsonMode  bool
}

// app is the state of one command tree: flags, loaded settings and, once
// opened, the store and its services.
type app struct {
	flags     rootFlags
	configDir string
	settings  *viper.Viper
	cfg       types.Config
	log       zerolog.Logger

	store   *collab.Store
	files   *service.Files
	wiki    *service.Wiki
	audit   *service.AuditLog
	members *roster.Roster
}

// NewRootCmd creates the top-level "collab" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	root, _ := newRoot()
	return root
}

func newRoot() (*cobra.Command, *app) {
	a := &app{log: zerolog.Nop()}
	root := &cobra.Command{
		Use:   "collab",
		Short: "Project files and wiki pages with revisions, tags and an audit trail",
		Long: `collab stores project files with numbered revisions, tags and comments,
keeps wiki pages with unique slugs, and records every lifecycle change in an
append-only audit log. Users and projects come from a roster file.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: runE(func(cmd *cobra.Command, args []string) error {
			switch cmd.Name() {
			case "version", "help":
				return nil
			}
			return a.setup(cmd)
		}),
	}
	root.CompletionOptions.DisableDefaultCmd = true

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/.collab-db)")
	pf.StringVar(&a.flags.roster, "roster", "", "roster file (default: <config-dir>/roster.yaml)")
	pf.StringVar(&a.flags.as, "as", "", "acting user ID")
	pf.StringVar(&a.flags.project, "project", "", "project ID")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newUploadCmd(a),
		newReviseCmd(a),
		newFilesCmd(a),
		newTagsCmd(a),
		newWikiCmd(a),
		newAuditCmd(a),
		newCanCmd(a),
	)
	return root, a
}

// Execute runs the command tree on the process arguments and returns the
// exit code.
func Execute() int {
	return Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
}

// Run executes args against a fresh command tree and returns the exit code.
// Errors are printed to errOut.
func Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	root, a := newRoot()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	if cerr := a.close(); err == nil && cerr != nil {
		err = sysErr(cerr)
	}
	if err != nil {
		fmt.Fprintln(errOut, "collab:", err)
	}
	return ExitCode(err)
}

// setup resolves directories, loads .env and config.yaml, and builds the
// logger. It never touches the store.
func (a *app) setup(cmd *cobra.Command) error {
	dir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysErr(fmt.Errorf("resolve config dir: %w", err))
	}
	a.configDir = dir
	loadDotEnv(dir)

	v, err := loadConfig(dir)
	if err != nil {
		return sysErr(err)
	}
	cfg, err := decodeConfig(v)
	if err != nil {
		return userErr(err)
	}
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, cfg.DataDir)
	if err != nil {
		return sysErr(fmt.Errorf("resolve data dir: %w", err))
	}
	cfg.DataDir = dataDir

	a.settings = v
	a.cfg = cfg
	a.log = logger.New(cfg.Log, cmd.ErrOrStderr())
	return nil
}

// open attaches the store and wires the services. It is idempotent.
func (a *app) open(ctx context.Context) error {
	if a.store != nil {
		return nil
	}
	store, err := collab.Open(ctx, a.cfg, a.log)
	if err != nil {
		return err
	}
	a.store = store
	a.files = store.Files
	a.wiki = store.Wiki
	a.audit = store.Audit
	return nil
}

// close detaches the store if it was opened.
func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}
