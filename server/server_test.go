package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/solmap/geom"
	"github.com/TFMV/solmap/ingest"
	"github.com/TFMV/solmap/physics"
	"github.com/TFMV/solmap/testutil"
)

// frozen is long enough that no tick runs during a test
const frozen = time.Hour

func newTestServer(t *testing.T, tick time.Duration) (*Server, *httptest.Server) {
	t.Helper()
	settings := physics.DefaultSettings()
	settings.Seed = 1
	s := New(context.Background(), Config{
		Settings:     settings,
		TickInterval: tick,
		Logger:       testutil.NewTestLogger(t),
	})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return s, ts
}

func post(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func createSession(t *testing.T, ts *httptest.Server, req createRequest) createResponse {
	t.Helper()
	resp := post(t, ts.URL+"/api/sessions", req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out createResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

type frameBody struct {
	Positions map[string]geom.Vec `json:"positions"`
	Selected  string              `json:"selected"`
	Dragging  string              `json:"dragging"`
	Tick      int                 `json:"tick"`
	Ignored   int                 `json:"ignored"`
}

func frame(t *testing.T, ts *httptest.Server, id string) frameBody {
	t.Helper()
	resp := get(t, ts.URL+"/api/sessions/"+id)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out frameBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// positionedPayload mirrors testutil.Positioned plus one edge to a missing node
func positionedPayload(t *testing.T) *ingest.Payload {
	g := testutil.Positioned(t)
	p := &ingest.Payload{Nodes: g.Nodes, Edges: g.Edges}
	p.Edges = append(p.Edges, g.Edges[0])
	p.Edges[len(p.Edges)-1].To = "missing"
	return p
}

func TestCreateSession_FromText(t *testing.T) {
	_, ts := newTestServer(t, frozen)

	out := createSession(t, ts, createRequest{Text: "Work makes me anxious."})
	assert.NotEmpty(t, out.ID)
	assert.Equal(t, 2, out.Nodes)
	assert.Equal(t, 1, out.Edges)
	assert.Equal(t, "/sessions/"+out.ID, out.URL)

	f := frame(t, ts, out.ID)
	assert.Len(t, f.Positions, 2)
}

func TestCreateSession_FromGraph(t *testing.T) {
	_, ts := newTestServer(t, frozen)

	out := createSession(t, ts, createRequest{Graph: positionedPayload(t)})
	assert.Equal(t, 3, out.Nodes)
	assert.Equal(t, 3, out.Edges)
	assert.Equal(t, 1, out.Ignored)

	resp := get(t, ts.URL+out.URL)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page bytes.Buffer
	_, _ = page.ReadFrom(resp.Body)
	assert.Contains(t, page.String(), "1 relationships were ignored")
	assert.Contains(t, page.String(), `const session = "/api/sessions/`+out.ID+`";`)
}

func TestCreateSession_Errors(t *testing.T) {
	_, ts := newTestServer(t, frozen)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "empty text", body: `{"text": "   "}`, status: http.StatusUnprocessableEntity},
		{name: "no nodes", body: `{"graph": {"nodes": [], "edges": []}}`, status: http.StatusUnprocessableEntity},
		{name: "nothing causal", body: `{"text": "The weather is nice."}`, status: http.StatusUnprocessableEntity},
		{name: "not json", body: `nope`, status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/api/sessions", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

type failingOracle struct{}

func (failingOracle) Name() string { return "failing" }
func (failingOracle) Extract(context.Context, string) (*ingest.Payload, error) {
	return nil, errors.New("upstream unavailable")
}

func TestCreateSession_OracleFailure(t *testing.T) {
	s := New(context.Background(), Config{
		Settings:     physics.DefaultSettings(),
		Oracle:       failingOracle{},
		TickInterval: frozen,
		Logger:       testutil.NewTestLogger(t),
	})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp := post(t, ts.URL+"/api/sessions", createRequest{Text: "work makes me anxious"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestPointer_TapSelectsAndDragMoves(t *testing.T) {
	_, ts := newTestServer(t, frozen)
	id := createSession(t, ts, createRequest{Graph: positionedPayload(t)}).ID
	pointer := ts.URL + "/api/sessions/" + id + "/pointer"

	resp := post(t, pointer, pointerEvent{Type: "tap", X: 100, Y: 100})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "work", frame(t, ts, id).Selected)

	post(t, pointer, pointerEvent{Type: "down", X: 400, Y: 100})
	post(t, pointer, pointerEvent{Type: "move", X: 450, Y: 160})

	f := frame(t, ts, id)
	assert.Equal(t, geom.Vec{X: 450, Y: 160}, f.Positions["anxiety"])
	assert.Equal(t, "anxiety", f.Dragging)

	post(t, pointer, pointerEvent{Type: "up", X: 450, Y: 160})
	f = frame(t, ts, id)
	assert.Empty(t, f.Dragging)
	assert.Equal(t, "work", f.Selected, "dragging leaves the selection alone")

	post(t, pointer, pointerEvent{Type: "tap", X: 750, Y: 580})
	assert.Empty(t, frame(t, ts, id).Selected)
}

func TestPointer_BadEvents(t *testing.T) {
	_, ts := newTestServer(t, frozen)
	id := createSession(t, ts, createRequest{Text: "work makes me anxious"}).ID

	resp := post(t, ts.URL+"/api/sessions/"+id+"/pointer", pointerEvent{Type: "wiggle"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, ts.URL+"/api/sessions/nope/pointer", pointerEvent{Type: "tap"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSelect(t *testing.T) {
	_, ts := newTestServer(t, frozen)
	id := createSession(t, ts, createRequest{Graph: positionedPayload(t)}).ID
	endpoint := ts.URL + "/api/sessions/" + id + "/select"

	assert.Equal(t, http.StatusNoContent, post(t, endpoint, selectRequest{Node: "poor_sleep"}).StatusCode)
	assert.Equal(t, "poor_sleep", frame(t, ts, id).Selected)

	assert.Equal(t, http.StatusNotFound, post(t, endpoint, selectRequest{Node: "missing"}).StatusCode)
	assert.Equal(t, "poor_sleep", frame(t, ts, id).Selected)

	assert.Equal(t, http.StatusNoContent, post(t, endpoint, selectRequest{}).StatusCode)
	assert.Empty(t, frame(t, ts, id).Selected)
}

func TestFrameFormats(t *testing.T) {
	_, ts := newTestServer(t, frozen)
	id := createSession(t, ts, createRequest{Graph: positionedPayload(t)}).ID
	base := ts.URL + "/api/sessions/" + id + "/frame."

	tests := []struct {
		format      string
		status      int
		contentType string
	}{
		{format: "svg", status: http.StatusOK, contentType: "image/svg+xml"},
		{format: "png", status: http.StatusOK, contentType: "image/png"},
		{format: "json", status: http.StatusOK, contentType: "application/json"},
		{format: "ascii", status: http.StatusOK, contentType: "text/plain"},
		{format: "html", status: http.StatusNotFound},
		{format: "xml", status: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			resp := get(t, base+tt.format)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.contentType != "" {
				assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), tt.contentType), resp.Header.Get("Content-Type"))
			}
		})
	}
}

func TestSessionTicks(t *testing.T) {
	_, ts := newTestServer(t, time.Millisecond)
	id := createSession(t, ts, createRequest{Text: "work makes me anxious"}).ID

	assert.Eventually(t, func() bool {
		return frame(t, ts, id).Tick > 10
	}, 5*time.Second, 10*time.Millisecond)
}

func TestDeleteSession(t *testing.T) {
	s, ts := newTestServer(t, frozen)
	id := createSession(t, ts, createRequest{Text: "work makes me anxious"}).ID
	require.Equal(t, 1, s.sessions.len())

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/sessions/"+id, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	assert.Equal(t, 0, s.sessions.len())
	assert.Equal(t, http.StatusNotFound, get(t, ts.URL+"/api/sessions/"+id).StatusCode)
}

func TestSampleAndFormRedirect(t *testing.T) {
	_, ts := newTestServer(t, frozen)
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}

	resp, err := client.Get(ts.URL + "/sample")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/sessions/"))

	resp, err = client.PostForm(ts.URL+"/sessions", url.Values{"text": {"Deadlines cause stress."}})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	index := get(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, index.StatusCode)
}

func TestSampleGraph(t *testing.T) {
	g, report, err := SampleGraph()
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 5)
	assert.Len(t, g.Edges, 5)
	assert.Zero(t, report.Ignored())
}

func TestSessionStore_Reap(t *testing.T) {
	s, ts := newTestServer(t, frozen)
	createSession(t, ts, createRequest{Text: "work makes me anxious"})

	assert.Empty(t, s.sessions.reap(time.Now(), time.Hour))
	assert.Len(t, s.sessions.reap(time.Now().Add(2*time.Hour), time.Hour), 1)
	assert.Equal(t, 0, s.sessions.len())
}

func TestServe_Shutdown(t *testing.T) {
	s := New(context.Background(), Config{
		Port:         0,
		Settings:     physics.DefaultSettings(),
		TickInterval: frozen,
		SessionTTL:   time.Minute,
		Logger:       testutil.NewTestLogger(t),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
