// Package render draws frames of a laid out causal graph. Every renderer is a
// pure function of a Frame: nodes as label-sized rounded boxes, edges trimmed
// to the target box with an arrowhead, the selected node highlighted.
package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/TFMV/solmap/models"
	"github.com/TFMV/solmap/physics"
)

// OutputOptions defines rendering configuration options
type OutputOptions struct {
	Format         string  // Output format (svg, ascii, png, json, dot, html)
	Width          float64 // Width of the output
	Height         float64 // Height of the output
	Cols           int     // Terminal columns (ascii only, 0 derives from Width)
	Rows           int     // Terminal rows (ascii only, 0 derives from Height)
	Theme          Theme   // Colors
	FontSize       float64 // Font size for labels
	ShowEdgeLabels bool    // Show edge labels
	Timestamp      bool    // Include timestamp in visualization
	Title          string  // Optional heading
	SessionURL     string  // Pointer API of a live session (html only)
}

// Renderer interface defines methods that all rendering backends must implement
type Renderer interface {
	// Render creates a visualization of the frame using the provided options
	Render(frame Frame, options *OutputOptions) ([]byte, error)

	// Name returns the name of the renderer
	Name() string

	// Description returns a description of the renderer
	Description() string

	// ContentType returns the MIME type of the output
	ContentType() string
}

// NewDefaultOptions creates a default set of output options
func NewDefaultOptions(format string) *OutputOptions {
	return &OutputOptions{
		Format:         format,
		Width:          800,
		Height:         600,
		Theme:          DefaultTheme(),
		FontSize:       14,
		ShowEdgeLabels: true,
	}
}

// Formats lists the supported output formats
func Formats() []string {
	return []string{"svg", "png", "json", "dot", "ascii", "html"}
}

// GetRenderer returns the appropriate renderer based on format
func GetRenderer(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "svg":
		return &SVGRenderer{}, nil
	case "ascii", "text":
		return &ASCIIRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	case "dot":
		return &DOTRenderer{}, nil
	case "png":
		return &PNGRenderer{}, nil
	case "html":
		return &HTMLRenderer{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// Settle lays graph out with engine until it settles, maxTicks pass or ctx
// ends, and returns the resulting frame
func Settle(ctx context.Context, graph *models.Graph, engine physics.Engine, maxTicks int) (Frame, error) {
	engine.Initialize(graph)
	if _, _, err := physics.Run(ctx, engine, maxTicks); err != nil {
		return Frame{}, fmt.Errorf("layout interrupted: %w", err)
	}
	return Frame{
		Graph:     graph,
		Positions: engine.Positions(),
		Alpha:     engine.Alpha(),
		Tick:      engine.Ticks(),
	}, nil
}
