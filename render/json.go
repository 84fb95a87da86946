package render

import (
	"encoding/json"
	"time"
)

// JSONRenderer outputs the frame and its resolved geometry as JSON
type JSONRenderer struct{}

// Name returns the name of the renderer
func (r *JSONRenderer) Name() string {
	return "JSON Renderer"
}

// Description returns a description of the renderer
func (r *JSONRenderer) Description() string {
	return "Renders the frame as JSON data for machine consumption or custom visualizations"
}

// ContentType returns the MIME type of the output
func (r *JSONRenderer) ContentType() string {
	return "application/json"
}

// Render creates a JSON representation of the frame
func (r *JSONRenderer) Render(frame Frame, options *OutputOptions) ([]byte, error) {
	scene := Layout(frame)

	out := struct {
		Frame
		Scene    Scene          `json:"scene"`
		Metadata map[string]any `json:"metadata"`
	}{
		Frame: frame,
		Scene: scene,
		Metadata: map[string]any{
			"width":     options.Width,
			"height":    options.Height,
			"nodeCount": len(scene.Shapes),
			"edgeCount": len(scene.Segments),
		},
	}
	if options.Timestamp {
		out.Metadata["timestamp"] = time.Now().Format(time.RFC3339)
	}

	return json.MarshalIndent(out, "", "  ")
}
