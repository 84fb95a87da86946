// Package tui is the terminal view: it loads a graph in the background, then
// runs the layout live and lets the mouse drag and select nodes.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/TFMV/solmap/interact"
	"github.com/TFMV/solmap/models"
	"github.com/TFMV/solmap/physics"
	"github.com/TFMV/solmap/render"
)

// ViewState is the screen currently shown
type ViewState int

const (
	StateLoading ViewState = iota
	StateGraph
	StateEmpty
	StateError
)

// chrome is the number of terminal lines not used by the canvas: the title
// above it, the status and help lines below
const chrome = 3

// Loader produces the graph to show. It runs off the UI loop.
type Loader func(ctx context.Context) (*models.Graph, *models.BuildReport, error)

// Config configures the terminal view
type Config struct {
	Title         string
	Load          Loader
	Engine        string
	Settings      physics.Settings
	FrameInterval time.Duration
	Logger        *slog.Logger
}

type loadedMsg struct {
	graph  *models.Graph
	report *models.BuildReport
}

type errMsg struct{ err error }

type frameMsg time.Time

// Model is the bubbletea model of the terminal view
type Model struct {
	spinner spinner.Model
	cfg     Config
	ctx     context.Context
	cancel  context.CancelFunc

	state    ViewState
	err      error
	ctrl     *interact.Controller
	settled  bool
	quitting bool

	width, height int
	options       *render.OutputOptions
	canvas        render.Canvas
}

// NewModel initializes the model. Loading starts with Init.
func NewModel(ctx context.Context, cfg Config) Model {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = 33 * time.Millisecond
	}
	if cfg.Title == "" {
		cfg.Title = "solmap"
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = titleStyle

	options := render.NewDefaultOptions("ascii")
	options.Width = cfg.Settings.Width
	options.Height = cfg.Settings.Height

	ctx, cancel := context.WithCancel(ctx)
	m := Model{
		spinner: s,
		cfg:     cfg,
		ctx:     ctx,
		cancel:  cancel,
		state:   StateLoading,
		options: options,
	}
	m.resize(80, 24)
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

func (m Model) load() tea.Cmd {
	return func() tea.Msg {
		g, report, err := m.cfg.Load(m.ctx)
		if err != nil {
			return errMsg{err}
		}
		return loadedMsg{graph: g, report: report}
	}
}

func (m Model) frame() tea.Cmd {
	return tea.Tick(m.cfg.FrameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.options.Cols = max(width, 3)
	m.options.Rows = max(height-chrome, 3)
	m.canvas = render.NewCanvas(m.options)
}

// State returns the screen currently shown
func (m Model) State() ViewState {
	return m.state
}

// Controller returns the controller of the loaded graph, nil before loading
func (m Model) Controller() *interact.Controller {
	return m.ctrl
}

// Err returns the load error shown on the error screen
func (m Model) Err() error {
	return m.err
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			m.cancel()
			return m, tea.Quit
		case "tab":
			m.selectNext()
		}

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case loadedMsg:
		engine, err := physics.GetEngine(m.cfg.Engine, m.cfg.Settings)
		if err != nil {
			m.state, m.err = StateError, err
			return m, nil
		}
		m.ctrl = interact.NewController(msg.graph, msg.report, engine, m.cfg.Logger)
		m.state = StateGraph
		return m, m.frame()

	case errMsg:
		m.err = msg.err
		if errors.Is(msg.err, models.ErrNoGraphData) {
			m.state = StateEmpty
		} else {
			m.state = StateError
		}
		m.cfg.Logger.Error("loading graph failed", "error", msg.err)
		return m, nil

	case frameMsg:
		if m.ctrl == nil || m.quitting {
			return m, nil
		}
		m.settled = m.ctrl.Tick()
		return m, m.frame()

	case tea.MouseMsg:
		if m.ctrl == nil {
			return m, nil
		}
		m.pointer(msg)

	case spinner.TickMsg:
		if m.state != StateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// pointer translates a mouse event from terminal cells to layout space
func (m Model) pointer(msg tea.MouseMsg) {
	p := m.canvas.Point(msg.X, msg.Y-1) // the title takes the first line
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft {
			m.ctrl.PointerDown(p)
		}
	case tea.MouseActionMotion:
		m.ctrl.PointerMove(p)
	case tea.MouseActionRelease:
		m.ctrl.PointerUp(p)
	}
}

// selectNext moves the selection to the next node in graph order
func (m Model) selectNext() {
	if m.ctrl == nil {
		return
	}
	nodes := m.ctrl.Graph().Nodes
	next := 0
	if i, ok := m.ctrl.Graph().NodeIndex(m.ctrl.Selected()); ok {
		next = (i + 1) % len(nodes)
	}
	_ = m.ctrl.Select(nodes[next].ID)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.state {
	case StateLoading:
		return fmt.Sprintf("\n %s Analyzing causal relationships...\n\n %s",
			m.spinner.View(),
			helpStyle("Press q to go back"),
		)
	case StateEmpty:
		return cardStyle.Render(fmt.Sprintf("%s\n\n%s",
			warning.Render("No graph data"),
			subtle.Render("No causal relationships were found in the text."),
		)) + "\n " + helpStyle("Press q to go back")
	case StateError:
		return cardStyle.Render(fmt.Sprintf("%s\n\n%s",
			danger.Render("Error"),
			m.err.Error(),
		)) + "\n " + helpStyle("Press q to go back")
	}

	frame := m.ctrl.Snapshot()
	out, err := (&render.ASCIIRenderer{}).Render(frame, m.options)
	if err != nil {
		return danger.Render(err.Error())
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render(m.cfg.Title))
	s.WriteString("\n")
	s.WriteString(m.colorize(strings.TrimRight(string(out), "\n"), frame))
	s.WriteString("\n")
	s.WriteString(m.status(frame))
	s.WriteString("\n")
	s.WriteString(helpStyle(" drag nodes with the mouse · click to select · tab next · q back"))
	return s.String()
}

// colorize paints the canvas, with the selected node in the highlight color
func (m Model) colorize(canvas string, frame render.Frame) string {
	token := ""
	if frame.Selected != "" {
		if n, err := frame.Graph.FindNodeByID(frame.Selected); err == nil {
			token = "{" + n.DisplayLabel() + "}"
		}
	}

	lines := strings.Split(canvas, "\n")
	for i, line := range lines {
		if token != "" {
			if before, after, ok := strings.Cut(line, token); ok {
				lines[i] = canvasStyle.Render(before) + selectedStyle.Render(token) + canvasStyle.Render(after)
				continue
			}
		}
		lines[i] = canvasStyle.Render(line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) status(frame render.Frame) string {
	g := frame.Graph
	parts := []string{
		fmt.Sprintf("%d nodes", len(g.Nodes)),
		fmt.Sprintf("%d edges", len(g.Edges)),
	}
	if frame.Selected != "" {
		linked := len(g.FindConnectedNodes(frame.Selected))
		parts = append(parts, "selected: "+selectedStyle.Render(frame.Selected), fmt.Sprintf("%d linked", linked))
	}
	if m.settled {
		parts = append(parts, "settled")
	} else {
		parts = append(parts, fmt.Sprintf("alpha %.3f", frame.Alpha))
	}
	line := " " + subtle.Render(strings.Join(parts, " · "))
	if frame.Ignored > 0 {
		line += " " + warning.Render(fmt.Sprintf("%d relationships were ignored", frame.Ignored))
	}
	return line
}

// Run shows the terminal view until the user quits or ctx ends
func Run(ctx context.Context, cfg Config) error {
	p := tea.NewProgram(NewModel(ctx, cfg),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
