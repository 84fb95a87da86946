package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/TFMV/solmap/ingest"
	"github.com/TFMV/solmap/models"
	"github.com/TFMV/solmap/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMessages serves the Messages API, answering every request with text
func fakeMessages(t *testing.T, status int, text string) (*httptest.Server, *string) {
	t.Helper()
	var prompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		body, _ := io.ReadAll(r.Body)
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Content []struct {
					Text string `json:"text"`
				} `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.Unmarshal(body, &req))
		if len(req.Messages) > 0 && len(req.Messages[0].Content) > 0 {
			prompt = req.Messages[0].Content[0].Text
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad request"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":            "msg_test",
			"type":          "message",
			"role":          "assistant",
			"model":         req.Model,
			"stop_reason":   "end_turn",
			"stop_sequence": nil,
			"content":       []map[string]any{{"type": "text", "text": text}},
			"usage":         map[string]any{"input_tokens": 10, "output_tokens": 20},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &prompt
}

func TestAnthropicOracle_Extract(t *testing.T) {
	answer := "Sure!\n" + `{"nodes":[{"id":"work","label":"work"},{"id":"anxiety","label":"anxiety"}],"edges":[{"from":"work","to":"anxiety"},{"from":"work","to":"missing"}]}`
	srv, prompt := fakeMessages(t, http.StatusOK, answer)

	o, err := NewAnthropicOracle(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	g, report, err := Load(context.Background(), o, "work makes me anxious", testutil.NewTestLogger(t))
	require.NoError(t, err)

	assert.Contains(t, *prompt, `"work makes me anxious"`)
	assert.Len(t, g.Nodes, 2)
	assert.Len(t, g.Edges, 1)
	assert.Equal(t, 1, report.Ignored())
}

func TestAnthropicOracle_NoJSONInAnswer(t *testing.T) {
	srv, _ := fakeMessages(t, http.StatusOK, "I could not find any relationships.")
	o, err := NewAnthropicOracle(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, _, err = Load(context.Background(), o, "hello", testutil.NewTestLogger(t))
	assert.ErrorIs(t, err, models.ErrMalformedPayload)
	assert.True(t, models.IsInputError(err))
}

func TestAnthropicOracle_APIError(t *testing.T) {
	srv, _ := fakeMessages(t, http.StatusBadRequest, "")
	o, err := NewAnthropicOracle(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, _, err = Load(context.Background(), o, "work makes me anxious", testutil.NewTestLogger(t))
	require.Error(t, err)

	var oe *Error
	assert.True(t, errors.As(err, &oe))
	assert.Equal(t, "anthropic", oe.Oracle)
	assert.False(t, models.IsInputError(err))
}

func TestNewAnthropicOracle_MissingKey(t *testing.T) {
	_, err := New(Config{Kind: "anthropic"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestLoad_PatternOracle(t *testing.T) {
	o, err := New(Config{Kind: "pattern"})
	require.NoError(t, err)

	g, report, err := Load(context.Background(), o, "Work makes me anxious. Anxiety leads to poor sleep.", testutil.NewTestLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 0, report.Ignored())
	assert.Len(t, g.Nodes, 4)
	assert.Len(t, g.Edges, 2)
}

func TestLoad_NoGraphData(t *testing.T) {
	o, err := New(Config{Kind: "pattern"})
	require.NoError(t, err)

	tests := []string{"", "   ", "The weather is nice."}
	for _, text := range tests {
		g, _, err := Load(context.Background(), o, text, testutil.NewTestLogger(t))
		assert.Nil(t, g)
		assert.ErrorIs(t, err, models.ErrNoGraphData, "text %q", text)
	}
}

type failingOracle struct{}

func (failingOracle) Name() string { return "failing" }
func (failingOracle) Extract(context.Context, string) (*ingest.Payload, error) {
	return nil, errors.New("connection refused")
}

func TestLoad_WrapsOracleFailures(t *testing.T) {
	_, _, err := Load(context.Background(), failingOracle{}, "anything", nil)

	var oe *Error
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, "failing", oe.Oracle)
	assert.EqualError(t, err, "failing oracle: connection refused")
}

func TestProcessorOracle_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o, err := New(Config{Kind: "json"})
	require.NoError(t, err)
	_, _, err = Load(ctx, o, `{"nodes":[],"edges":[]}`, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_Unknown(t *testing.T) {
	_, err := New(Config{Kind: "oracle-of-delphi"})
	assert.Error(t, err)
}
