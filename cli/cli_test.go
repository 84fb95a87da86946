package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/solmap/geom"
	"github.com/TFMV/solmap/models"
)

// run executes the root command from an empty directory
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("ANTHROPIC_API_KEY", "")

	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(append(args, "--seed", "1"))
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeGraph(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "nodes": [{"id": "work", "label": "work"}, {"id": "anxiety", "label": "anxiety"}],
  "edges": [
    {"from": "work", "to": "anxiety", "label": "makes me"},
    {"from": "anxiety", "to": "nowhere"}
  ]
}`), 0o600))
	return path
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := NewVersionCommand()
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "solmap v"+Version)
}

func TestRender_TextToJSON(t *testing.T) {
	stdout, _, err := run(t, "", "render", "--text", "Work makes me anxious.", "--format", "json")
	require.NoError(t, err)

	var frame struct {
		Positions map[string]geom.Vec `json:"positions"`
		Tick      int                 `json:"tick"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &frame))
	assert.Len(t, frame.Positions, 2)
	assert.Contains(t, frame.Positions, "work")
	assert.Contains(t, frame.Positions, "anxious")
	assert.Positive(t, frame.Tick)
}

func TestRender_GraphFileToASCII(t *testing.T) {
	path := writeGraph(t)

	stdout, stderr, err := run(t, "", "render", "--graph", path, "--format", "ascii")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[work]")
	assert.Contains(t, stdout, "[anxiety]")
	assert.Contains(t, stderr, "1 relationships were ignored")
}

func TestRender_Stdin(t *testing.T) {
	stdout, _, err := run(t, "stress -> poor sleep -> stress", "render", "--format", "dot")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"stress" -> "poor_sleep"`)
	assert.Contains(t, stdout, `"poor_sleep" -> "stress"`)
}

func TestRender_ToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "map.svg")

	_, stderr, err := run(t, "", "render", "--text", "Deadlines cause stress.", "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stderr, out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestRender_Errors(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		is    error
	}{
		{name: "empty input", args: []string{"render"}, is: models.ErrNoGraphData},
		{name: "nothing causal", args: []string{"render", "--text", "The weather is nice."}, is: models.ErrNoGraphData},
		{name: "unknown format", args: []string{"render", "--text", "a -> b", "--format", "webgl"}},
		{name: "unknown engine", args: []string{"render", "--text", "a -> b", "--engine", "voronoi"}},
		{name: "text and graph", args: []string{"render", "--text", "a -> b", "--graph", "g.json"}},
		{name: "missing graph file", args: []string{"render", "--graph", "missing.json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.stdin, tt.args...)
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestInspect(t *testing.T) {
	path := writeGraph(t)

	stdout, _, err := run(t, "", "inspect", "--graph", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Nodes")
	assert.Contains(t, stdout, "Edges")
	assert.Contains(t, stdout, "makes me")
	assert.Contains(t, stdout, "1 relationships were ignored")
	assert.Contains(t, stdout, "anxiety -> nowhere (unknown node)")
}

func TestInspect_Markdown(t *testing.T) {
	stdout, _, err := run(t, "", "inspect", "--text", "Work makes me anxious.", "--output", "markdown")
	require.NoError(t, err)
	assert.Contains(t, stdout, "| work |")
	assert.Contains(t, stdout, "| work | anxious | makes me |")
}
