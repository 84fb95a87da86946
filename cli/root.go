// Package cli provides the solmap command line interface.
package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/TFMV/solmap/config"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

type configKey struct{}
type loggerKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "solmap",
		Short: "solmap - causal maps of what's on your mind",
		Long: `solmap turns a short description of what's on your mind into a map of
cause and effect. Concepts become nodes, "X leads to Y" becomes an arrow, and
a force layout spreads them out so you can drag them around.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			ctx = context.WithValue(ctx, loggerKey{}, cfg.NewLogger(cmd.ErrOrStderr()))
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./solmap.yaml)")
	flags.String("engine", "force", "Layout engine (force|fr)")
	flags.Float64("width", 800, "Width of the layout viewport")
	flags.Float64("height", 600, "Height of the layout viewport")
	flags.Int("max-ticks", 1000, "Maximum layout ticks before giving up on settling")
	flags.Float64("link-distance", 100, "Target length of an edge")
	flags.Float64("charge-strength", -300, "Node repulsion (negative repels)")
	flags.Float64("collision-padding", 5, "Extra space kept around each node")
	flags.Int64("seed", 0, "Random seed for the layout (0 picks one)")
	flags.String("oracle", "pattern", "How relationships are extracted (anthropic|pattern|json|csv)")
	flags.String("model", "", "Model used by the anthropic oracle")
	flags.Int64("max-tokens", 1024, "Answer size limit of the anthropic oracle")
	flags.String("theme", "default", "Color theme (default|dark)")
	flags.String("log-level", "info", "Log level (debug|info|warn|error)")
	flags.BoolP("verbose", "v", false, "Verbose output")

	_ = rootCmd.RegisterFlagCompletionFunc("engine", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"force", "fr"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("oracle", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"anthropic", "pattern", "json", "csv"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewRenderCommand())
	rootCmd.AddCommand(NewViewCommand())
	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewInspectCommand())

	return rootCmd
}

// Execute runs the root command and returns the process exit code
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return 130
		}
		printError(os.Stderr, err)
		return 1
	}
	return 0
}

// getConfig retrieves the config from the command context, loading it
// when the command ran without the root pre-run
func getConfig(cmd *cobra.Command) (*config.Config, error) {
	if c, ok := cmd.Context().Value(configKey{}).(*config.Config); ok {
		return c, nil
	}
	return config.Load("", cmd.Flags())
}

// getLogger retrieves the logger from the command context
func getLogger(cmd *cobra.Command) *slog.Logger {
	if l, ok := cmd.Context().Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
