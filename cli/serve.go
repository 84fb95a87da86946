package cli

import (
	"github.com/spf13/cobra"

	"github.com/TFMV/solmap/oracle"
	"github.com/TFMV/solmap/render"
	"github.com/TFMV/solmap/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve interactive causal maps over HTTP",
		Long: `Start a web server. Each submitted text becomes a live session whose
layout keeps running on the server while the browser drags and selects nodes.`,
		Example: `  solmap serve --port 8080
  SOLMAP_ORACLE=anthropic solmap serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}
			logger := getLogger(cmd)

			o, err := oracle.New(cfg.OracleConfig())
			if err != nil {
				return err
			}

			srv := server.New(cmd.Context(), server.Config{
				Port:         cfg.Server.Port,
				Engine:       cfg.Engine,
				Settings:     cfg.Settings(),
				Oracle:       o,
				Theme:        render.GetTheme(cfg.Theme),
				TickInterval: cfg.Server.TickInterval,
				SessionTTL:   cfg.Server.SessionTTL,
				Logger:       logger,
			})
			return srv.Serve(cmd.Context())
		},
	}

	cmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	cmd.Flags().Duration("tick-interval", 0, "Time between layout ticks of a session")
	return cmd
}
