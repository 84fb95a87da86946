package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/TFMV/solmap/models"
	"github.com/TFMV/solmap/physics"
	"github.com/TFMV/solmap/render"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	var (
		in     inputFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List the nodes and edges of a causal graph",
		Long: `Extract a causal graph, lay it out and print its nodes with their final
positions and degrees, its edges, and every relationship that was ignored.`,
		Example: `  solmap inspect --text "Work makes me anxious."
  solmap inspect --graph graph.json --output markdown`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}

			graph, report, err := in.load(cmd, cfg, getLogger(cmd))
			if err != nil {
				return err
			}

			engine, err := physics.GetEngine(cfg.Engine, cfg.Settings())
			if err != nil {
				return err
			}
			frame, err := render.Settle(cmd.Context(), graph, engine, cfg.MaxTicks)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if err := renderTable(w, output, nodeTable(graph, frame)); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(w)
			if err := renderTable(w, output, edgeTable(graph)); err != nil {
				return err
			}

			if len(report.DroppedEdges) > 0 || len(report.DuplicateNodes) > 0 {
				_, _ = fmt.Fprintln(w)
				printIgnored(w, report.Ignored())
				for _, e := range report.DroppedEdges {
					_, _ = Subtle.Fprintf(w, "  %s -> %s (unknown node)\n", e.From, e.To)
				}
				for _, id := range report.DuplicateNodes {
					_, _ = Subtle.Fprintf(w, "  %s (duplicate node)\n", id)
				}
			}
			return nil
		},
	}

	in.register(cmd)
	cmd.Flags().StringVar(&output, "output", "table", "Output style (table|markdown|csv)")
	return cmd
}

func nodeTable(g *models.Graph, frame render.Frame) table.Writer {
	t := table.NewWriter()
	t.SetTitle("Nodes")
	t.AppendHeader(table.Row{"ID", "Label", "X", "Y", "In", "Out"})
	for _, n := range g.Nodes {
		p := frame.Positions[n.ID]
		t.AppendRow(table.Row{
			n.ID,
			n.DisplayLabel(),
			fmt.Sprintf("%.1f", p.X),
			fmt.Sprintf("%.1f", p.Y),
			len(g.FindIncomingEdges(n.ID)),
			len(g.FindOutgoingEdges(n.ID)),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "Total", len(g.Nodes)})
	return t
}

func edgeTable(g *models.Graph) table.Writer {
	t := table.NewWriter()
	t.SetTitle("Edges")
	t.AppendHeader(table.Row{"From", "To", "Label"})
	for _, e := range g.Edges {
		label := e.Label
		if e.IsSelfLoop() {
			label = strings.TrimSpace(label + " (self)")
		}
		t.AppendRow(table.Row{e.From, e.To, label})
	}
	t.AppendFooter(table.Row{"", "Total", len(g.Edges)})
	return t
}

func renderTable(w io.Writer, style string, t table.Writer) error {
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	switch style {
	case "table", "":
		t.Render()
	case "markdown", "md":
		t.RenderMarkdown()
	case "csv":
		t.RenderCSV()
	default:
		return fmt.Errorf("unknown output style %q", style)
	}
	return nil
}
