package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/TFMV/solmap/tui"
)

// NewViewCommand creates the view command.
func NewViewCommand() *cobra.Command {
	var (
		in      inputFlags
		logFile string
	)

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Explore a causal graph in the terminal",
		Long: `Extract a causal graph and show it live in the terminal. Drag nodes with
the mouse, click one to select it, click the background to clear the
selection. q or esc goes back.`,
		Example: `  solmap view --text "Deadlines cause stress. Stress leads to headaches."
  solmap view --oracle anthropic --file journal.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}

			// the terminal belongs to the view, logs go to a file or nowhere
			logger := slog.New(slog.DiscardHandler)
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
				if err != nil {
					return fmt.Errorf("opening log file: %w", err)
				}
				defer f.Close()
				logger = cfg.NewLogger(f)
			}

			load, err := in.loader(cmd, cfg, logger)
			if err != nil {
				return err
			}

			return tui.Run(cmd.Context(), tui.Config{
				Title:    "solmap",
				Load:     load,
				Engine:   cfg.Engine,
				Settings: cfg.Settings(),
				Logger:   logger,
			})
		},
	}

	in.register(cmd)
	cmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file")
	return cmd
}
