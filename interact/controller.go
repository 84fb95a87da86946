package interact

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/TFMV/solmap/geom"
	"github.com/TFMV/solmap/models"
	"github.com/TFMV/solmap/physics"
	"github.com/TFMV/solmap/render"
)

const (
	// DragAlphaTarget is the energy the layout is held at while a node is dragged
	DragAlphaTarget = 0.3

	// TapSlop is how far, in layout units, a pointer may travel between down
	// and up and still count as a tap
	TapSlop = 3.0
)

var (
	ErrUnknownNode = errors.New("unknown node")
	ErrNotDragging = errors.New("node is not being dragged")
)

// NodeState is the gesture state of a node. Selection is tracked separately.
type NodeState int

const (
	Free NodeState = iota
	Dragging
)

func (s NodeState) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "free"
}

type drag struct {
	id     string
	origin geom.Vec
}

// press is a pointer that went down and has not come up yet
type press struct {
	start geom.Vec
	node  string // empty when the press started on the background
	moved bool
}

// Controller owns the layout engine of one graph and is the only thing that
// writes to it. Drag writes and ticks are serialised by one mutex, so a pin
// set by DragMove is always seen by the next Tick.
type Controller struct {
	mu     sync.Mutex
	graph  *models.Graph
	report *models.BuildReport
	engine physics.Engine
	logger *slog.Logger

	selected string
	drag     *drag
	press    *press
}

// NewController initializes engine with graph and wraps it
func NewController(graph *models.Graph, report *models.BuildReport, engine physics.Engine, logger *slog.Logger) *Controller {
	if report == nil {
		report = &models.BuildReport{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	engine.Initialize(graph)
	return &Controller{
		graph:  graph,
		report: report,
		engine: engine,
		logger: logger,
	}
}

// Graph returns the graph as loaded, without positions
func (c *Controller) Graph() *models.Graph {
	return c.graph
}

// Report returns what was dropped while the graph was built
func (c *Controller) Report() *models.BuildReport {
	return c.report
}

// Tick advances the layout by one step and reports whether it has settled
func (c *Controller) Tick() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Step()
}

// Snapshot returns the current frame. The frame shares nothing mutable with
// the controller.
func (c *Controller) Snapshot() render.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()

	f := render.Frame{
		Graph:     c.graph,
		Positions: c.engine.Positions(),
		Selected:  c.selected,
		Alpha:     c.engine.Alpha(),
		Tick:      c.engine.Ticks(),
		Ignored:   c.report.Ignored(),
	}
	if c.drag != nil {
		f.Dragging = c.drag.id
	}
	return f
}

// Positioned returns a copy of the graph carrying the current positions
func (c *Controller) Positioned() *models.Graph {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Apply(c.graph)
}

// Selected returns the selected node id, or "" when nothing is selected
func (c *Controller) Selected() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// State returns the gesture state of id
func (c *Controller) State(id string) NodeState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.drag != nil && c.drag.id == id {
		return Dragging
	}
	return Free
}

// Select makes id the only selected node
func (c *Controller) Select(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectNode(id)
}

// ClearSelection deselects whatever is selected
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = ""
}

// DragStart pins id where it stands and reheats the layout
func (c *Controller) DragStart(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dragStart(id)
}

// DragMove moves the dragged node to its origin plus (dx, dy). The offset is
// cumulative since DragStart, not since the previous move.
func (c *Controller) DragMove(id string, dx, dy float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dragMove(id, geom.Vec{X: dx, Y: dy})
}

// DragEnd releases the node back into the simulation and lets it cool down
func (c *Controller) DragEnd(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dragEnd(id)
}

// PointerDown starts a gesture at p. A press on a node starts dragging it.
func (c *Controller) PointerDown(p geom.Vec) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.drag != nil {
		c.logIgnored(c.dragEnd(c.drag.id))
	}
	c.press = &press{start: p, node: c.hit(p)}
	if c.press.node != "" {
		c.logIgnored(c.dragStart(c.press.node))
	}
}

// PointerMove continues the gesture started by PointerDown
func (c *Controller) PointerMove(p geom.Vec) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.press == nil {
		return
	}
	d := p.Sub(c.press.start)
	if d.Len() > TapSlop {
		c.press.moved = true
	}
	if c.press.node != "" {
		c.logIgnored(c.dragMove(c.press.node, d))
	}
}

// PointerUp ends the gesture. A gesture that never left the tap slop is a
// tap: on a node it selects the node, on the background it clears the
// selection. Drags leave the selection alone.
func (c *Controller) PointerUp(p geom.Vec) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pr := c.press
	c.press = nil
	if pr == nil {
		return
	}
	if p.Sub(pr.start).Len() > TapSlop {
		pr.moved = true
	}

	if pr.node != "" {
		c.logIgnored(c.dragEnd(pr.node))
		if !pr.moved {
			c.logIgnored(c.selectNode(pr.node))
		}
		return
	}
	if !pr.moved {
		c.selected = ""
	}
}

// Tap is a PointerDown immediately followed by a PointerUp at p
func (c *Controller) Tap(p geom.Vec) {
	c.PointerDown(p)
	c.PointerUp(p)
}

// HitTest returns the topmost node under p, or "" for the background
func (c *Controller) HitTest(p geom.Vec) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hit(p)
}

// hit walks the nodes back to front; later nodes are drawn on top
func (c *Controller) hit(p geom.Vec) string {
	for i := len(c.graph.Nodes) - 1; i >= 0; i-- {
		node := c.graph.Nodes[i]
		center, ok := c.engine.Position(node.ID)
		if !ok || !center.IsFinite() {
			continue
		}
		if node.Box().Contains(center, p) {
			return node.ID
		}
	}
	return ""
}

// logIgnored records an error the pointer path has nowhere to return. It
// happens when the drag API and pointer events are mixed on one node.
func (c *Controller) logIgnored(err error) {
	if err != nil {
		c.logger.Debug("pointer event ignored", "error", err)
	}
}

func (c *Controller) selectNode(id string) error {
	if !c.graph.HasNode(id) {
		return fmt.Errorf("select %q: %w", id, ErrUnknownNode)
	}
	c.selected = id
	return nil
}

func (c *Controller) dragStart(id string) error {
	origin, ok := c.engine.Position(id)
	if !ok {
		return fmt.Errorf("drag %q: %w", id, ErrUnknownNode)
	}
	if c.drag != nil && c.drag.id != id {
		c.logIgnored(c.dragEnd(c.drag.id))
	}
	if err := c.engine.Pin(id, origin); err != nil {
		return err
	}
	c.drag = &drag{id: id, origin: origin}
	c.engine.Reheat(DragAlphaTarget)
	c.logger.Debug("drag start", "node", id, "x", origin.X, "y", origin.Y)
	return nil
}

func (c *Controller) dragMove(id string, d geom.Vec) error {
	if c.drag == nil || c.drag.id != id {
		return fmt.Errorf("move %q: %w", id, ErrNotDragging)
	}
	return c.engine.Pin(id, c.drag.origin.Add(d))
}

func (c *Controller) dragEnd(id string) error {
	if c.drag == nil || c.drag.id != id {
		return fmt.Errorf("release %q: %w", id, ErrNotDragging)
	}
	c.engine.Unpin(id)
	c.engine.Reheat(0)
	c.drag = nil
	c.logger.Debug("drag end", "node", id)
	return nil
}
