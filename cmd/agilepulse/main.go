// Command agilepulse serves the Agile reporting API and provides
// maintenance subcommands for migrations and cache invalidation.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Strob0t/AgilePulse/internal/config"
	"github.com/Strob0t/AgilePulse/internal/logger"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// app carries what every subcommand needs: the parsed global flags.
type app struct {
	flags func() config.CLIFlags
}

// load applies defaults < YAML < ENV < CLI, installs the default logger and
// returns the config with the YAML path that was used.
func (a *app) load() (*config.Config, string, logger.Closer, error) {
	cfg, path, err := config.LoadWithCLI(a.flags())
	if err != nil {
		return nil, "", nil, fmt.Errorf("config: %w", err)
	}
	log, closer := logger.New(cfg.Logging)
	slog.SetDefault(log)
	return cfg, path, closer, nil
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "agilepulse",
		Short:         "AgilePulse - Agile reporting backend",
		Long:          "AgilePulse serves team, epic, sprint and dependency reports over a Jira-derived read store.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, a)
		},
	}
	a.flags = config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newMigrateCmd(a))
	cmd.AddCommand(newResolveCmd(a))
	cmd.AddCommand(newInvalidateCmd(a))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "agilepulse %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
