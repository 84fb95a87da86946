package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inTempDir runs the test from an empty directory so no solmap.yaml or .env
// from the working tree leaks in
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("ANTHROPIC_API_KEY", "")
	return dir
}

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("engine", "force", "")
	flags.Float64("width", 800, "")
	flags.Int("port", 8080, "")
	flags.String("log-level", "info", "")
	flags.Bool("verbose", false, "")
	return flags
}

func TestLoad_Defaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "force", cfg.Engine)
	assert.Equal(t, 800.0, cfg.Width)
	assert.Equal(t, 600.0, cfg.Height)
	assert.Equal(t, 1000, cfg.MaxTicks)
	assert.Equal(t, "pattern", cfg.Oracle)
	assert.Equal(t, "claude-sonnet-4-5", cfg.Model)
	assert.EqualValues(t, 1024, cfg.MaxTokens)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 16*time.Millisecond, cfg.Server.TickInterval)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestLoad_Precedence(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "solmap.yaml"), []byte(`
engine: fr
width: 1024
height: 768
log_level: warn
server:
  port: 9000
`), 0o600))
	t.Setenv("SOLMAP_HEIGHT", "900")
	t.Setenv("SOLMAP_SERVER_PORT", "9100")

	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--port", "9200"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, "fr", cfg.Engine, "file beats defaults")
	assert.Equal(t, 1024.0, cfg.Width, "unset flags do not override the file")
	assert.Equal(t, 900.0, cfg.Height, "env beats file")
	assert.Equal(t, 9200, cfg.Server.Port, "flags beat env")
	assert.Equal(t, slog.LevelWarn, cfg.Level())
}

func TestLoad_DotEnvAPIKey(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.Unsetenv("ANTHROPIC_API_KEY"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ANTHROPIC_API_KEY=from-dotenv\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("ANTHROPIC_API_KEY") })

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.APIKey)
	assert.Equal(t, "from-dotenv", cfg.OracleConfig().APIKey)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	inTempDir(t)
	_, err := Load("nope.yaml", nil)
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown engine", env: map[string]string{"SOLMAP_ENGINE": "voronoi"}},
		{name: "zero width", env: map[string]string{"SOLMAP_WIDTH": "0"}},
		{name: "bad log level", env: map[string]string{"SOLMAP_LOG_LEVEL": "loud"}},
		{name: "bad port", env: map[string]string{"SOLMAP_SERVER_PORT": "70000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inTempDir(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("", nil)
			assert.Error(t, err)
		})
	}
}

func TestConfig_Verbose(t *testing.T) {
	inTempDir(t)
	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--verbose"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
}

func TestConfig_Settings(t *testing.T) {
	inTempDir(t)
	t.Setenv("SOLMAP_LINK_DISTANCE", "150")
	t.Setenv("SOLMAP_SEED", "42")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	s := cfg.Settings()
	assert.Equal(t, 150.0, s.LinkDistance)
	assert.EqualValues(t, 42, s.Seed)
	assert.Equal(t, -300.0, s.ChargeStrength)
	assert.InDelta(t, 0.0228, s.AlphaDecay, 1e-4)
}
