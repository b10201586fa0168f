package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/crdtsync/decsync/internal/clicfg"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd.
var (
	flagConfigPath string
	flagCollection string
	flagVerbose    bool
	flagQuiet      bool
)

// cliContextKey is the context key PersistentPreRunE stores the resolved
// CLIContext under.
type cliContextKey struct{}

// CLIContext bundles the resolved config and logger every subcommand needs.
// Built once in PersistentPreRunE so RunE handlers don't each reload config.
type CLIContext struct {
	Cfg    *clicfg.Config
	Logger *slog.Logger
}

func cliContextFrom(ctx context.Context) *CLIContext {
	cc, _ := ctx.Value(cliContextKey{}).(*CLIContext)
	return cc
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "decsyncctl",
		Short:         "Inspect and poke a DecSync directory",
		Long:          "A command-line client for the DecSync conflict-free sync format.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadCLIContext(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&flagCollection, "collection", "", "collection within syncType, if any")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(newInfoCmd())
	cmd.AddCommand(newAppsCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGCCmd())
	cmd.AddCommand(newWatchCmd())

	return cmd
}

// loadCLIContext resolves the config file (falling back to defaults) and
// attaches a CLIContext to the command's context for RunE handlers.
func loadCLIContext(cmd *cobra.Command) error {
	bootstrap := clicfg.BuildLogger(clicfg.DefaultConfig(), flagVerbose, flagQuiet)

	path := flagConfigPath
	if path == "" {
		path = clicfg.DefaultConfigPath()
	}

	cfg, err := clicfg.LoadOrDefault(path, bootstrap)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := clicfg.BuildLogger(cfg, flagVerbose, flagQuiet)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, &CLIContext{Cfg: cfg, Logger: logger}))

	return nil
}

func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
