package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TFMV/solmap/physics"
	"github.com/TFMV/solmap/render"
)

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	var (
		in        inputFlags
		format    string
		out       string
		title     string
		timestamp bool
		noLabels  bool
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Lay out a causal graph and write it to a file",
		Long: `Extract a causal graph, run the layout until it settles and render the
result once.`,
		Example: `  # Render a description as SVG
  solmap render --text "Work makes me anxious. Anxiety leads to poor sleep." -o map.svg

  # Pipe text in, print ASCII art
  echo "stress -> poor sleep -> stress" | solmap render --format ascii

  # Render a saved graph as PNG
  solmap render --graph graph.json --format png -o graph.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}
			logger := getLogger(cmd)

			renderer, err := render.GetRenderer(format)
			if err != nil {
				return fmt.Errorf("%w (supported: %s)", err, strings.Join(render.Formats(), ", "))
			}

			graph, report, err := in.load(cmd, cfg, logger)
			if err != nil {
				return err
			}
			printIgnored(cmd.ErrOrStderr(), report.Ignored())

			engine, err := physics.GetEngine(cfg.Engine, cfg.Settings())
			if err != nil {
				return err
			}

			options := render.NewDefaultOptions(format)
			options.Width = cfg.Width
			options.Height = cfg.Height
			options.Theme = render.GetTheme(cfg.Theme)
			options.Title = title
			options.Timestamp = timestamp
			options.ShowEdgeLabels = !noLabels

			frame, err := render.Settle(cmd.Context(), graph, engine, cfg.MaxTicks)
			if err != nil {
				return err
			}
			frame.Ignored = report.Ignored()
			logger.Debug("layout finished", "engine", engine.GetName(), "ticks", frame.Tick, "alpha", frame.Alpha)

			output, err := renderer.Render(frame, options)
			if err != nil {
				return fmt.Errorf("rendering failed: %w", err)
			}

			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(output)
				return err
			}
			if err := os.WriteFile(out, output, 0o644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			printDone(cmd.ErrOrStderr(), "%s written to %s", renderer.Name(), out)
			return nil
		},
	}

	in.register(cmd)
	cmd.Flags().StringVar(&format, "format", "svg", "Output format ("+strings.Join(render.Formats(), "|")+")")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&title, "title", "", "Heading drawn on the output")
	cmd.Flags().BoolVar(&timestamp, "timestamp", false, "Include a timestamp")
	cmd.Flags().BoolVar(&noLabels, "no-edge-labels", false, "Hide edge labels")

	return cmd
}
