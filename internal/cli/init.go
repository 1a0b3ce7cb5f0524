package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/collab/internal/roster"
	"github.com/mesh-intelligence/collab/internal/sqlite"
)

// Starter roster values used by init when no flags name them.
const (
	defaultOwner   = "collab"
	defaultUser    = "admin"
	defaultProject = "default"
)

func newInitCmd(a *app) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize collab storage",
		Long: `Create the configuration and data directories, write config.yaml and a
starter roster.yaml when they are missing, then initialize the store.`,
		Args: cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if err := os.MkdirAll(a.configDir, 0o755); err != nil {
				return sysErr(fmt.Errorf("create config directory: %w", err))
			}

			dataDir := ""
			if a.flags.dataDir != "" {
				dataDir = a.cfg.DataDir
			}
			configPath := filepath.Join(a.configDir, configFileExt)
			wrote, err := writeConfigIfMissing(configPath, defaultConfig(dataDir))
			if err != nil {
				return sysErr(fmt.Errorf("write config: %w", err))
			}
			if wrote {
				fmt.Fprintln(out, "wrote", configPath)
			}

			rosterPath := a.rosterPath()
			if _, err := os.Stat(rosterPath); os.IsNotExist(err) {
				user := firstNonEmpty(a.flags.as, os.Getenv("USER"), defaultUser)
				project := firstNonEmpty(a.flags.project, defaultProject)
				if err := os.MkdirAll(filepath.Dir(rosterPath), 0o755); err != nil {
					return sysErr(err)
				}
				if err := roster.Write(rosterPath, roster.Sample(owner, user, project)); err != nil {
					return sysErr(err)
				}
				fmt.Fprintln(out, "wrote", rosterPath)
			}

			backend := sqlite.NewBackend()
			if err := backend.Attach(a.cfg); err != nil {
				return fmt.Errorf("initialize storage: %w", err)
			}
			if err := backend.Detach(); err != nil {
				return sysErr(fmt.Errorf("finalize storage: %w", err))
			}

			fmt.Fprintln(out, "collab initialized successfully")
			fmt.Fprintln(out, "  config:", a.configDir)
			fmt.Fprintln(out, "  data:  ", a.cfg.DataDir)
			return nil
		}),
	}
	cmd.Flags().StringVar(&owner, "owner", defaultOwner, "company that owns the installation, for the starter roster")
	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
