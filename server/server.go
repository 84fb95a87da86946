// Package server serves live layout sessions over HTTP. Each session owns an
// interact.Controller ticked by its own goroutine; browsers forward pointer
// events to it and poll rendered frames back.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/TFMV/solmap/geom"
	"github.com/TFMV/solmap/ingest"
	"github.com/TFMV/solmap/interact"
	"github.com/TFMV/solmap/models"
	"github.com/TFMV/solmap/oracle"
	"github.com/TFMV/solmap/physics"
	"github.com/TFMV/solmap/render"
)

// maxBody bounds request bodies; descriptions are short texts
const maxBody = 1 << 20

// Config holds configuration for the server
type Config struct {
	Port         int
	Engine       string
	Settings     physics.Settings
	Oracle       oracle.Oracle
	Theme        render.Theme
	TickInterval time.Duration
	SessionTTL   time.Duration
	Logger       *slog.Logger
}

// Server is the session server
type Server struct {
	cfg      Config
	logger   *slog.Logger
	sessions *sessionStore
	ctx      context.Context
}

// New creates a server. Sessions live until they expire or ctx ends.
func New(ctx context.Context, cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 16 * time.Millisecond
	}
	if cfg.Oracle == nil {
		cfg.Oracle = oracle.NewProcessorOracle("pattern", ingest.NewPatternProcessor())
	}
	if cfg.Theme == (render.Theme{}) {
		cfg.Theme = render.DefaultTheme()
	}
	return &Server{
		cfg:      cfg,
		logger:   cfg.Logger,
		sessions: newSessionStore(),
		ctx:      ctx,
	}
}

// Handler returns the HTTP routes of the server
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		s.requestLogger,
		middleware.Recoverer,
	)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/sample", s.handleSample)
	r.Post("/sessions", s.handleCreateForm)
	r.Get("/sessions/{id}", s.handlePage)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleFrame("json"))
			r.Delete("/", s.handleDelete)
			r.Get("/frame.{format}", s.handleFrameFormat)
			r.Post("/pointer", s.handlePointer)
			r.Post("/select", s.handleSelect)
		})
	})

	return r
}

// Serve starts the server and blocks until ctx is cancelled
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.logger.Info("starting server", "addr", fmt.Sprintf("http://localhost:%d", s.cfg.Port))

	eg, egctx := errgroup.WithContext(ctx)
	s.ctx = egctx

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if s.cfg.SessionTTL > 0 {
		eg.Go(func() error {
			s.reapLoop(egctx)
			return nil
		})
	}

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down server...")
		err := srv.Shutdown(shutdownCtx)
		s.Close()
		return err
	})

	return eg.Wait()
}

// Close stops every live session
func (s *Server) Close() {
	s.sessions.closeAll()
}

func (s *Server) reapLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SessionTTL / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if ids := s.sessions.reap(now, s.cfg.SessionTTL); len(ids) > 0 {
				s.logger.Info("expired sessions", "count", len(ids))
			}
		}
	}
}

// requestLogger logs each request through slog
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		// frame polling is too chatty for info
		level := slog.LevelInfo
		if r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/frame.") {
			level = slog.LevelDebug
		}
		s.logger.Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// startSession builds a controller for graph and starts ticking it
func (s *Server) startSession(graph *models.Graph, report *models.BuildReport) (*session, error) {
	engine, err := physics.GetEngine(s.cfg.Engine, s.cfg.Settings)
	if err != nil {
		return nil, err
	}
	ctrl := interact.NewController(graph, report, engine, s.logger)
	sess := s.sessions.start(s.ctx, ctrl, s.cfg.TickInterval)
	s.logger.Info("session started", "id", sess.id, "engine", engine.GetName(),
		"nodes", len(graph.Nodes), "edges", len(graph.Edges), "ignored", report.Ignored())
	return sess, nil
}

// createRequest is the body of POST /api/sessions. Either the text is sent
// to the oracle, or a graph payload is used as is.
type createRequest struct {
	Text  string          `json:"text"`
	Graph *ingest.Payload `json:"graph,omitempty"`
}

type createResponse struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	API     string `json:"api"`
	Nodes   int    `json:"nodes"`
	Edges   int    `json:"edges"`
	Ignored int    `json:"ignored"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}

	sess, err := s.create(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	g := sess.ctrl.Graph()
	writeJSON(w, http.StatusCreated, createResponse{
		ID:      sess.id,
		URL:     pageURL(sess.id),
		API:     apiURL(sess.id),
		Nodes:   len(g.Nodes),
		Edges:   len(g.Edges),
		Ignored: sess.ctrl.Report().Ignored(),
	})
}

func (s *Server) create(ctx context.Context, req createRequest) (*session, error) {
	var (
		graph  *models.Graph
		report *models.BuildReport
		err    error
	)
	if req.Graph != nil {
		graph, report, err = req.Graph.Build()
	} else {
		graph, report, err = oracle.Load(ctx, s.cfg.Oracle, req.Text, s.logger)
	}
	if err != nil {
		return nil, err
	}
	return s.startSession(graph, report)
}

func (s *Server) handleCreateForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Error parsing form: "+err.Error(), http.StatusBadRequest)
		return
	}
	sess, err := s.create(r.Context(), createRequest{Text: r.FormValue("text")})
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	http.Redirect(w, r, pageURL(sess.id), http.StatusSeeOther)
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	graph, report, err := SampleGraph()
	if err != nil {
		http.Error(w, "Error creating sample graph: "+err.Error(), http.StatusInternalServerError)
		return
	}
	sess, err := s.startSession(graph, report)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, pageURL(sess.id), http.StatusSeeOther)
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session, bool) {
	sess, ok := s.sessions.get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("session not found"))
	}
	return sess, ok
}

func (s *Server) options(format string, r *http.Request) *render.OutputOptions {
	options := render.NewDefaultOptions(format)
	options.Width = s.cfg.Settings.Width
	options.Height = s.cfg.Settings.Height
	options.Theme = s.cfg.Theme
	if r.URL.Query().Get("labels") == "false" {
		options.ShowEdgeLabels = false
	}
	return options
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.get(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	options := s.options("html", r)
	options.SessionURL = apiURL(sess.id)
	s.write(w, sess.ctrl.Snapshot(), options)
}

func (s *Server) handleFrame(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.session(w, r)
		if !ok {
			return
		}
		s.write(w, sess.ctrl.Snapshot(), s.options(format, r))
	}
}

func (s *Server) handleFrameFormat(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if format == "html" {
		writeError(w, http.StatusNotFound, errors.New("use the session page for html"))
		return
	}
	s.handleFrame(format)(w, r)
}

func (s *Server) write(w http.ResponseWriter, frame render.Frame, options *render.OutputOptions) {
	renderer, err := render.GetRenderer(options.Format)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	out, err := renderer.Render(frame, options)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", renderer.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(out)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.remove(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, errors.New("session not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pointerEvent is a pointer event in layout coordinates
type pointerEvent struct {
	Type string  `json:"type"` // down, move, up or tap
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var ev pointerEvent
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding pointer event: %w", err))
		return
	}

	p := geom.Vec{X: ev.X, Y: ev.Y}
	if !p.IsFinite() {
		writeError(w, http.StatusBadRequest, errors.New("pointer position must be finite"))
		return
	}
	switch ev.Type {
	case "down":
		sess.ctrl.PointerDown(p)
	case "move":
		sess.ctrl.PointerMove(p)
	case "up":
		sess.ctrl.PointerUp(p)
	case "tap":
		sess.ctrl.Tap(p)
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown pointer event %q", ev.Type))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type selectRequest struct {
	Node string `json:"node"` // empty clears the selection
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req selectRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}
	if req.Node == "" {
		sess.ctrl.ClearSelection()
	} else if err := sess.ctrl.Select(req.Node); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, indexPage, html.EscapeString(s.cfg.Oracle.Name()))
}

// SampleGraph returns the "work makes me anxious" demo graph
func SampleGraph() (*models.Graph, *models.BuildReport, error) {
	data := []byte(`{
		"nodes": [
			{"id": "work", "label": "work"},
			{"id": "anxiety", "label": "anxiety"},
			{"id": "poor_sleep", "label": "poor sleep"},
			{"id": "fatigue", "label": "fatigue"},
			{"id": "procrastination", "label": "procrastination"}
		],
		"edges": [
			{"from": "work", "to": "anxiety", "label": "makes me"},
			{"from": "anxiety", "to": "poor_sleep"},
			{"from": "poor_sleep", "to": "fatigue"},
			{"from": "fatigue", "to": "procrastination"},
			{"from": "procrastination", "to": "work", "label": "piles up"}
		]
	}`)

	payload, err := ingest.NewJSONProcessor().ProcessData(data)
	if err != nil {
		return nil, nil, err
	}
	return payload.Build()
}

func pageURL(id string) string { return "/sessions/" + id }
func apiURL(id string) string  { return "/api/sessions/" + id }

// statusFor maps load errors to HTTP status codes
func statusFor(err error) int {
	var oe *oracle.Error
	switch {
	case models.IsInputError(err):
		return http.StatusUnprocessableEntity
	case errors.As(err, &oe):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

const indexPage = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>solmap</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', 'Roboto', sans-serif;
      margin: 0;
      padding: 20px;
      background: #F9F8F8;
      color: #333;
    }
    .container {
      max-width: 800px;
      margin: 0 auto;
      background: white;
      padding: 30px;
      border-radius: 8px;
      box-shadow: 0 2px 10px rgba(0,0,0,0.1);
    }
    h1 { margin-top: 0; border-bottom: 2px solid #eee; padding-bottom: 10px; }
    textarea {
      width: 100%%;
      min-height: 160px;
      padding: 12px;
      font-size: 16px;
      border: 1px solid #ddd;
      border-radius: 4px;
      box-sizing: border-box;
    }
    .btn {
      background: #367AFF;
      color: white;
      border: none;
      padding: 10px 20px;
      border-radius: 4px;
      cursor: pointer;
      font-size: 16px;
      text-decoration: none;
      display: inline-block;
      margin-top: 12px;
    }
    .btn:hover { background: #2B5FCC; }
    small { color: #808080; }
  </style>
</head>
<body>
  <div class="container">
    <h1>What's on your mind?</h1>
    <form action="/sessions" method="post">
      <textarea name="text" placeholder="Work makes me anxious. Anxiety leads to poor sleep." required></textarea>
      <button type="submit" class="btn">Map it</button>
      <a href="/sample" class="btn">Sample</a>
    </form>
    <p><small>Relationships are extracted by the %s oracle.</small></p>
  </div>
</body>
</html>
`
