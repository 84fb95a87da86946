package render

import (
	"math"
	"strings"
	"time"

	"github.com/TFMV/solmap/geom"
)

// Canvas maps layout space onto a grid of terminal cells. The outermost row
// and column on each side hold the border.
type Canvas struct {
	Cols, Rows    int
	Width, Height float64
}

// NewCanvas returns the canvas for the options, scaling the layout viewport
// down to cells unless the options name a cell size
func NewCanvas(options *OutputOptions) Canvas {
	c := Canvas{Cols: options.Cols, Rows: options.Rows, Width: options.Width, Height: options.Height}
	if c.Cols <= 0 {
		c.Cols = max(int(options.Width/10), 40)
	}
	if c.Rows <= 0 {
		c.Rows = max(int(options.Height/20), 20)
	}
	c.Cols = max(c.Cols, 3)
	c.Rows = max(c.Rows, 3)
	return c
}

// Cell returns the grid cell of a layout point, kept inside the border
func (c Canvas) Cell(p geom.Vec) (col, row int) {
	col = int(math.Round(p.X*float64(c.Cols-2)/c.Width)) + 1
	row = int(math.Round(p.Y*float64(c.Rows-2)/c.Height)) + 1
	return clamp(col, 1, c.Cols-2), clamp(row, 1, c.Rows-2)
}

// Point returns the layout point at the centre of a grid cell
func (c Canvas) Point(col, row int) geom.Vec {
	return geom.Vec{
		X: float64(col-1) * c.Width / float64(c.Cols-2),
		Y: float64(row-1) * c.Height / float64(c.Rows-2),
	}
}

// ASCIIRenderer outputs ASCII art format
type ASCIIRenderer struct{}

// Name returns the name of the renderer
func (r *ASCIIRenderer) Name() string {
	return "ASCII Renderer"
}

// Description returns a description of the renderer
func (r *ASCIIRenderer) Description() string {
	return "Renders graphs as ASCII art for terminal or text-based output"
}

// ContentType returns the MIME type of the output
func (r *ASCIIRenderer) ContentType() string {
	return "text/plain; charset=utf-8"
}

// Render creates an ASCII representation of the frame. Nodes are [label],
// the selected one {label}; edges are dotted with an arrow at the target.
func (r *ASCIIRenderer) Render(frame Frame, options *OutputOptions) ([]byte, error) {
	c := NewCanvas(options)
	scene := Layout(frame)

	grid := make([][]rune, c.Rows)
	for i := range grid {
		grid[i] = make([]rune, c.Cols)
		for j := range grid[i] {
			grid[i][j] = ' '
		}
	}

	// Draw a border around the graph
	for i := 0; i < c.Cols; i++ {
		grid[0][i] = '-'
		grid[c.Rows-1][i] = '-'
	}
	for i := 0; i < c.Rows; i++ {
		grid[i][0] = '|'
		grid[i][c.Cols-1] = '|'
	}
	grid[0][0] = '+'
	grid[0][c.Cols-1] = '+'
	grid[c.Rows-1][0] = '+'
	grid[c.Rows-1][c.Cols-1] = '+'

	for _, seg := range scene.Segments {
		if seg.SelfLoop {
			continue
		}
		x1, y1 := c.Cell(seg.Start)
		x2, y2 := c.Cell(seg.End)
		drawLine(grid, x1, y1, x2, y2)
		grid[y2][x2] = arrowRune(geom.Angle(seg.Start, seg.End))
	}

	// Nodes last so they sit on top of the edges
	for _, sh := range scene.Shapes {
		x, y := c.Cell(sh.Center)
		lb, rb := '[', ']'
		if sh.Selected {
			lb, rb = '{', '}'
		}
		label := []rune(sh.Label)
		if maxLen := c.Cols - 4; len(label) > maxLen {
			label = label[:max(maxLen, 0)]
		}
		text := append(append([]rune{lb}, label...), rb)

		start := clamp(x-len(text)/2, 1, max(c.Cols-1-len(text), 1))
		for i, ch := range text {
			if start+i < c.Cols-1 {
				grid[y][start+i] = ch
			}
		}
	}

	if options.Title != "" && c.Rows > 3 {
		for i, ch := range []rune(options.Title) {
			if i+2 >= c.Cols-1 {
				break
			}
			grid[0][i+2] = ch
		}
	}

	if options.Timestamp && c.Rows > 4 {
		timeStr := time.Now().Format("2006-01-02 15:04")
		if len(timeStr) < c.Cols-4 {
			for i, ch := range timeStr {
				grid[c.Rows-1][i+2] = ch
			}
		}
	}

	var result strings.Builder
	for _, row := range grid {
		result.WriteString(string(row))
		result.WriteRune('\n')
	}
	return []byte(result.String()), nil
}

// arrowRune picks the arrow character closest to angle
func arrowRune(angle float64) rune {
	switch {
	case angle > -math.Pi/4 && angle <= math.Pi/4:
		return '>'
	case angle > math.Pi/4 && angle <= 3*math.Pi/4:
		return 'v'
	case angle > -3*math.Pi/4 && angle <= -math.Pi/4:
		return '^'
	default:
		return '<'
	}
}

// Clamp a value between lo and hi
func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// Draw a line on the ASCII grid using Bresenham's algorithm
func drawLine(grid [][]rune, x1, y1, x2, y2 int) {
	dx := abs(x2 - x1)
	dy := -abs(y2 - y1)
	sx := 1
	if x1 >= x2 {
		sx = -1
	}
	sy := 1
	if y1 >= y2 {
		sy = -1
	}
	err := dx + dy

	for {
		if y1 >= 0 && y1 < len(grid) && x1 >= 0 && x1 < len(grid[0]) && grid[y1][x1] == ' ' {
			grid[y1][x1] = '·'
		}

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 >= dy {
			if x1 == x2 {
				break
			}
			err += dy
			x1 += sx
		}
		if e2 <= dx {
			if y1 == y2 {
				break
			}
			err += dx
			y1 += sy
		}
	}
}

// Absolute value of an integer
func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
