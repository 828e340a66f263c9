package cli

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/comboom/pkg/layout"
	"github.com/matzehuels/comboom/pkg/vec"
)

// Live view styles
var (
	liveStatusStyle = lipgloss.NewStyle().Foreground(colorGray)
	liveHeldStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	liveKeyStyle    = lipgloss.NewStyle().Foreground(colorCyan)
)

const (
	headerLines = 1
	footerLines = 1

	// cellAspect is the height of a terminal cell in units of its width.
	cellAspect = 2.0

	zoomStep = 1.25
	panStep  = 0.1
	fitSlack = 1.1

	glyphMember = '●'
	glyphHeld   = '◉'
	glyphEdge   = '·'
)

// =============================================================================
// Camera
// =============================================================================

// camera maps terminal cells to world coordinates. One column spans scale
// world units; one row spans scale*cellAspect.
type camera struct {
	center vec.Vec2
	scale  float64
	w, h   int
}

// fitCamera centres area in a w×h cell viewport.
func fitCamera(area vec.Rect, w, h int) camera {
	w, h = max(w, 1), max(h, 1)
	size := area.Size()
	scale := math.Max(size.X/float64(w), size.Y/(cellAspect*float64(h))) * fitSlack
	if scale <= 0 || math.IsNaN(scale) {
		scale = 1
	}
	return camera{center: area.Center(), scale: scale, w: w, h: h}
}

// toWorld returns the world point at the centre of cell (col, row).
func (c camera) toWorld(col, row int) vec.Vec2 {
	return vec.New(
		c.center.X+(float64(col)-float64(c.w)/2)*c.scale,
		c.center.Y+(float64(row)-float64(c.h)/2)*c.scale*cellAspect,
	)
}

// toCell returns the cell showing world point p.
func (c camera) toCell(p vec.Vec2) (int, int) {
	col := math.Round((p.X-c.center.X)/c.scale + float64(c.w)/2)
	row := math.Round((p.Y-c.center.Y)/(c.scale*cellAspect) + float64(c.h)/2)
	return int(col), int(row)
}

func (c camera) pan(dx, dy float64) camera {
	c.center = c.center.Add(vec.New(dx*float64(c.w)*c.scale, dy*float64(c.h)*c.scale*cellAspect))
	return c
}

func (c camera) zoom(factor float64) camera {
	c.scale /= factor
	return c
}

func (c camera) resize(w, h int) camera {
	c.w, c.h = max(w, 1), max(h, 1)
	return c
}

// =============================================================================
// Canvas
// =============================================================================

type cell struct {
	r     rune
	color string
	bold  bool
}

// canvas is a grid of styled runes.
type canvas struct {
	w, h  int
	cells []cell
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: max(w, 0), h: max(h, 0)}
	c.cells = make([]cell, c.w*c.h)
	for i := range c.cells {
		c.cells[i].r = ' '
	}
	return c
}

func (c *canvas) set(x, y int, r rune, color string, bold bool) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	c.cells[y*c.w+x] = cell{r: r, color: color, bold: bold}
}

func (c *canvas) text(x, y int, s, color string, bold bool) {
	for i, r := range []rune(s) {
		c.set(x+i, y, r, color, bold)
	}
}

// line draws from (x0,y0) to (x1,y1) with Bresenham's algorithm, leaving
// the end points alone. The segment is clipped to the canvas first, so edges
// with an end far off-screen still show where they cross it.
func (c *canvas) line(x0, y0, x1, y1 int, r rune, color string) {
	ax, ay, bx, by, ok := clipSegment(float64(x0), float64(y0), float64(x1), float64(y1), c.w, c.h)
	if !ok {
		return
	}
	x, y := int(math.Round(ax)), int(math.Round(ay))
	ex, ey := int(math.Round(bx)), int(math.Round(by))

	dx, dy := abs(ex-x), -abs(ey-y)
	sx, sy := sign(ex-x), sign(ey-y)
	e := dx + dy
	for {
		if (x != x0 || y != y0) && (x != x1 || y != y1) {
			c.set(x, y, r, color, false)
		}
		if x == ex && y == ey {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

// clipSegment trims a segment to the cell rectangle [0,w-1]x[0,h-1] using
// Liang-Barsky. ok is false when the segment misses it.
func clipSegment(x0, y0, x1, y1 float64, w, h int) (ax, ay, bx, by float64, ok bool) {
	if w <= 0 || h <= 0 {
		return 0, 0, 0, 0, false
	}
	dx, dy := x1-x0, y1-y0
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-dx, x0},
		{dx, float64(w-1) - x0},
		{-dy, y0},
		{dy, float64(h-1) - y0},
	}
	for _, edge := range edges {
		p, q := edge[0], edge[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return 0, 0, 0, 0, false
			}
			t0 = max(t0, t)
		} else {
			if t < t0 {
				return 0, 0, 0, 0, false
			}
			t1 = min(t1, t)
		}
	}
	return x0 + t0*dx, y0 + t0*dy, x0 + t1*dx, y0 + t1*dy, true
}

// String renders the grid, styling runs of equally styled cells together.
func (c *canvas) String() string {
	styles := map[cell]lipgloss.Style{}
	style := func(k cell) lipgloss.Style {
		k.r = 0
		s, ok := styles[k]
		if !ok {
			s = lipgloss.NewStyle().Bold(k.bold)
			if k.color != "" {
				s = s.Foreground(lipgloss.Color(k.color))
			}
			styles[k] = s
		}
		return s
	}

	var b strings.Builder
	for y := range c.h {
		row := c.cells[y*c.w : (y+1)*c.w]
		for x := 0; x < len(row); {
			end := x + 1
			for end < len(row) && row[end].color == row[x].color && row[end].bold == row[x].bold {
				end++
			}
			var run strings.Builder
			for _, cl := range row[x:end] {
				run.WriteRune(cl.r)
			}
			if row[x].color == "" && !row[x].bold {
				b.WriteString(run.String())
			} else {
				b.WriteString(style(row[x]).Render(run.String()))
			}
			x = end
		}
		if y < c.h-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// =============================================================================
// liveModel - Interactive layout
// =============================================================================

// frameMsg advances the simulation by one frame.
type frameMsg time.Time

// screenshotFunc writes a screenshot of snap and returns where it went.
type screenshotFunc func(snap layout.Snapshot) (string, error)

// liveModel is the bubbletea model that runs a simulation in the terminal.
// It owns the simulation: only Update touches it.
type liveModel struct {
	sim   *layout.Simulation
	frame time.Duration
	area  vec.Rect
	cam   camera
	shoot screenshotFunc

	width, height int
	last          time.Time

	help      bool
	positions bool
	labels    bool
	status    string
}

// newLiveModel creates a model that steps sim every frame.
func newLiveModel(sim *layout.Simulation, area vec.Rect, frame time.Duration, shoot screenshotFunc) liveModel {
	return liveModel{
		sim:    sim,
		frame:  frame,
		area:   area,
		cam:    fitCamera(area, 80, 22),
		shoot:  shoot,
		width:  80,
		height: 24,
		labels: true,
	}
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m liveModel) Init() tea.Cmd {
	return tick(m.frame)
}

func (m liveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		now := time.Time(msg)
		dt := m.frame
		if !m.last.IsZero() {
			dt = now.Sub(m.last)
		}
		m.last = now
		m.sim.Step(dt)
		return m, tick(m.frame)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.cam = m.cam.resize(m.canvasSize())

	case tea.MouseMsg:
		m.pointer(msg)

	case tea.KeyMsg:
		return m.key(msg)
	}
	return m, nil
}

func (m liveModel) canvasSize() (int, int) {
	return m.width, max(m.height-headerLines-footerLines, 1)
}

// pointer forwards mouse input to the simulation in world coordinates.
func (m *liveModel) pointer(msg tea.MouseMsg) {
	world := m.cam.toWorld(msg.X, msg.Y-headerLines)
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		if name, ok := m.sim.PointerDown(world); ok {
			m.status = "holding " + name
		}
	case tea.MouseActionMotion:
		m.sim.PointerMove(world)
	case tea.MouseActionRelease:
		if name, ok := m.sim.Selected(); ok {
			m.status = "released " + name
		}
		m.sim.PointerUp()
	}
}

func (m liveModel) key(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "enter":
		m.status = "collapse " + onOff(m.sim.ToggleCollapse())
	case " ", "space":
		m.status = "frozen " + onOff(m.sim.ToggleFrozen())
	case "p":
		m.positions = !m.positions
		m.sim.LogMembers()
	case "s":
		m.status = m.screenshot()
	case "l":
		m.labels = !m.labels
	case "h", "?":
		m.help = !m.help
	case "up", "k":
		m.cam = m.cam.pan(0, -panStep)
	case "down", "j":
		m.cam = m.cam.pan(0, panStep)
	case "left":
		m.cam = m.cam.pan(-panStep, 0)
	case "right":
		m.cam = m.cam.pan(panStep, 0)
	case "+", "=":
		m.cam = m.cam.zoom(zoomStep)
	case "-", "_":
		m.cam = m.cam.zoom(1 / zoomStep)
	case "0":
		w, h := m.canvasSize()
		m.cam = fitCamera(m.area, w, h)
	}
	return m, nil
}

func (m liveModel) screenshot() string {
	if m.shoot == nil {
		return "screenshots disabled"
	}
	path, err := m.shoot(m.sim.Snapshot())
	if err != nil {
		return "screenshot failed: " + err.Error()
	}
	return "saved " + path
}

func (m liveModel) View() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteByte('\n')
	if m.positions {
		b.WriteString(m.positionsTable())
	} else {
		b.WriteString(m.draw().String())
	}
	b.WriteByte('\n')
	b.WriteString(m.footer())
	return b.String()
}

func (m liveModel) header() string {
	cfg := m.sim.Config()
	parts := []string{
		phaseLabel(m.sim.Ticks(), m.sim.Settled()),
		"collapse " + onOff(cfg.Collapse),
	}
	if cfg.Frozen {
		parts = append(parts, styleIconWarning.Render("frozen"))
	}
	if name, ok := m.sim.Selected(); ok {
		parts = append(parts, liveHeldStyle.Render(name))
	}
	return StyleTitle.Render(appName) + " " + liveStatusStyle.Render(strings.Join(parts, " · "))
}

func (m liveModel) footer() string {
	if m.help {
		keys := []struct{ key, desc string }{
			{"drag", "move member"},
			{"enter", "collapse"},
			{"space", "freeze"},
			{"s", "screenshot"},
			{"p", "positions"},
			{"l", "labels"},
			{"←↑↓→", "pan"},
			{"+/-", "zoom"},
			{"0", "fit"},
			{"q", "quit"},
		}
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = liveKeyStyle.Render(k.key) + " " + StyleDim.Render(k.desc)
		}
		return strings.Join(parts, "  ")
	}
	if m.status != "" {
		return StyleDim.Render(m.status + "  (h for help)")
	}
	return StyleDim.Render("h for help")
}

// draw paints edges, then members, then cluster names on a fresh canvas.
func (m liveModel) draw() *canvas {
	w, h := m.canvasSize()
	cv := newCanvas(w, h)

	for _, e := range m.sim.Edges() {
		x0, y0 := m.cam.toCell(e.From)
		x1, y1 := m.cam.toCell(e.To)
		cv.line(x0, y0, x1, y1, glyphEdge, e.Color)
	}

	colors := make(map[string]string)
	clusters := m.sim.Clusters()
	for _, c := range clusters {
		colors[c.Name] = c.Color
	}
	held, _ := m.sim.Selected()
	for _, mv := range m.sim.Members() {
		x, y := m.cam.toCell(mv.Pos)
		color := ""
		if len(mv.Clusters) > 0 {
			color = colors[mv.Clusters[0]]
		}
		if mv.Name == held {
			cv.set(x, y, glyphHeld, "", true)
		} else {
			cv.set(x, y, glyphMember, color, false)
		}
		if m.labels {
			cv.text(x+2, y, mv.Name, "", mv.Name == held)
		}
	}

	if m.labels {
		for _, c := range clusters {
			x, y := m.cam.toCell(c.Centroid)
			cv.text(x-len([]rune(c.Name))/2, y, c.Name, c.Color, true)
		}
	}
	return cv
}

func (m liveModel) positionsTable() string {
	rows := [][]string{}
	for _, mv := range m.sim.Members() {
		rows = append(rows, []string{
			mv.Name,
			fmt.Sprintf("%.1f", mv.Pos.X),
			fmt.Sprintf("%.1f", mv.Pos.Y),
			strings.Join(mv.Clusters, ", "),
		})
	}
	_, h := m.canvasSize()
	if len(rows) > h-4 && h > 4 {
		rows = rows[:h-4]
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Member", "X", "Y", "Clusters").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorWhite)
			}
			return lipgloss.NewStyle().Foreground(colorGray)
		}).
		Render()
}

// =============================================================================
// Helpers
// =============================================================================

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
