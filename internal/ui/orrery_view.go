package ui

import (
	"fmt"
	"math"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/body"
	"github.com/litescript/ls-orrery/internal/orbit"
	"github.com/litescript/ls-orrery/internal/scene"
)

// LabelMode controls which bodies get a name label.
type LabelMode int

const (
	LabelNone    LabelMode = iota // No labels
	LabelFocused                  // Only the focused body
	LabelAll                      // Every body large enough to see
)

func (l LabelMode) String() string {
	switch l {
	case LabelNone:
		return "off"
	case LabelFocused:
		return "focus"
	default:
		return "all"
	}
}

const (
	zoomStep = 1.25
	// Overview zoom is relative to the fitted system extent.
	minOverviewZoom = 0.25
	maxOverviewZoom = 4096
	// Terminal cells are roughly twice as tall as they are wide.
	cellAspect = 0.5
	hudLines   = 3
)

// OrreryModel renders a top-down view of the scene's display positions.
type OrreryModel struct {
	scene  *scene.Scene
	width  int
	height int

	// Overview zoom factor over the fitted extent
	zoom float64
	// Focus camera distance in scene units; 0 until a focus is set
	focusDistance float64

	labelMode  LabelMode
	showOrbits bool
}

// NewOrreryModel creates an orrery view of s.
func NewOrreryModel(s *scene.Scene) OrreryModel {
	return OrreryModel{
		scene:      s,
		zoom:       1,
		labelMode:  LabelAll,
		showOrbits: true,
	}
}

// SetSize updates the viewport size.
func (m OrreryModel) SetSize(width, height int) OrreryModel {
	m.width = width
	m.height = height
	return m
}

// Update handles view-local keys.
func (m OrreryModel) Update(msg tea.Msg) (OrreryModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "+", "=":
			m.zoomBy(1 / zoomStep)
		case "-", "_":
			m.zoomBy(zoomStep)
		case "l":
			m.labelMode = (m.labelMode + 1) % 3
		case "o":
			m.showOrbits = !m.showOrbits
		}
	}
	return m, nil
}

// zoomBy scales the camera distance by f; f < 1 zooms in. In focus mode
// the distance stays inside the focused body's zoom range.
func (m *OrreryModel) zoomBy(f float64) {
	if lo, hi, ok := m.scene.FocusZoomRange(); ok {
		m.focusDistance = clampFloat(m.cameraDistance()*f, lo, hi)
		return
	}
	m.zoom = clampFloat(m.zoom/f, minOverviewZoom, maxOverviewZoom)
}

// ResetFocus places the camera at the far end of the new focus range so
// satellites are in view.
func (m *OrreryModel) ResetFocus() {
	if _, hi, ok := m.scene.FocusZoomRange(); ok {
		m.focusDistance = hi
		return
	}
	m.focusDistance = 0
}

// cameraDistance is the scene-unit distance from the view center to the
// left or right canvas edge.
func (m OrreryModel) cameraDistance() float64 {
	if lo, hi, ok := m.scene.FocusZoomRange(); ok {
		d := m.focusDistance
		if d <= 0 {
			d = hi
		}
		// Realism changes move the range under the camera.
		return clampFloat(d, lo, hi)
	}
	return m.systemExtent() / m.zoom
}

// systemExtent is the largest display distance of any body from the
// reference, used to fit the overview.
func (m OrreryModel) systemExtent() float64 {
	extent := 0.0
	for _, b := range m.scene.Bodies() {
		if !b.Resolved {
			continue
		}
		d := math.Hypot(b.WorldPosition.X, b.WorldPosition.Y) + b.DisplayRadius
		extent = math.Max(extent, d)
	}
	if extent <= 0 {
		return 1
	}
	return extent * 1.05
}

// Zoom returns the camera distance in scene units.
func (m OrreryModel) Zoom() float64 { return m.cameraDistance() }

// View renders the canvas and HUD.
func (m OrreryModel) View() string {
	if m.width < 40 || m.height < 10 {
		return "Terminal too small for orrery view"
	}
	canvas := m.buildCanvas()
	hud := m.renderHUD()
	return lipgloss.JoinVertical(lipgloss.Left, canvas, hud)
}

type cellStyle int

const (
	styleBlank cellStyle = iota
	styleOrbit
	styleStar
	stylePlanet
	styleGiant
	styleDwarf
	styleMoon
	styleOther
	styleFocus
	styleLabel
)

type cell struct {
	ch    rune
	style cellStyle
}

// canvas is a character grid with a projection from display space.
type canvas struct {
	cells  [][]cell
	w, h   int
	center astro.Vec3
	cx, cy float64
	perU   float64 // cells per scene unit, horizontally
}

func newCanvas(w, h int, center astro.Vec3, halfWidth float64) *canvas {
	c := &canvas{w: w, h: h, center: center, cx: float64(w) / 2, cy: float64(h) / 2}
	c.perU = c.cx / halfWidth
	c.cells = make([][]cell, h)
	for y := range c.cells {
		c.cells[y] = make([]cell, w)
		for x := range c.cells[y] {
			c.cells[y][x] = cell{ch: ' '}
		}
	}
	return c
}

// project maps a display-space position to fractional screen coordinates.
func (c *canvas) project(p astro.Vec3) (float64, float64) {
	x := c.cx + (p.X-c.center.X)*c.perU
	y := c.cy - (p.Y-c.center.Y)*c.perU*cellAspect
	return x, y
}

func (c *canvas) set(x, y int, ch rune, st cellStyle, overwrite bool) {
	if x < 0 || x >= c.w || y < 0 || y >= c.h {
		return
	}
	if !overwrite && c.cells[y][x].ch != ' ' {
		return
	}
	c.cells[y][x] = cell{ch: ch, style: st}
}

// line draws a dotted segment between two projected points.
func (c *canvas) line(x0, y0, x1, y1 float64) {
	steps := int(math.Ceil(math.Max(math.Abs(x1-x0), math.Abs(y1-y0))))
	if steps > 4*(c.w+c.h) {
		return
	}
	if steps < 1 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := x0 + (x1-x0)*t
		y := y0 + (y1-y0)*t
		c.set(int(math.Floor(x)), int(math.Floor(y)), '·', styleOrbit, false)
	}
}

// disc fills a body of radius r cells centered at (x, y), clipped to
// the canvas.
func (c *canvas) disc(x, y, r float64, ch rune, st cellStyle) {
	y0 := math.Max(0, math.Floor(y-r*cellAspect))
	y1 := math.Min(float64(c.h-1), math.Ceil(y+r*cellAspect))
	x0 := math.Max(0, math.Floor(x-r))
	x1 := math.Min(float64(c.w-1), math.Ceil(x+r))
	for sy := y0; sy <= y1; sy++ {
		dy := (sy + 0.5 - y) / cellAspect
		for sx := x0; sx <= x1; sx++ {
			dx := sx + 0.5 - x
			if dx*dx+dy*dy <= r*r {
				c.set(int(sx), int(sy), ch, st, true)
			}
		}
	}
	if x >= 0 && y >= 0 {
		c.set(int(x), int(y), ch, st, true)
	}
}

// bodyPos tracks a body's screen position for label rendering.
type bodyPos struct {
	x, y      int
	name      string
	isFocused bool
}

func (m OrreryModel) buildCanvas() string {
	canvasH := m.height - hudLines
	if canvasH < 5 {
		canvasH = 5
	}
	st := m.scene.State()

	center := astro.Vec3{}
	if st.FocusedBodyID != "" {
		if b, ok := m.scene.Body(st.FocusedBodyID); ok {
			center = b.WorldPosition
		}
	}
	c := newCanvas(m.width, canvasH, center, m.cameraDistance())

	bodies := m.scene.Bodies()
	if m.showOrbits {
		m.drawOrbits(c, bodies)
	}

	// Draw the reference body last so it is always visible.
	if len(bodies) > 0 && bodies[0].Spec.IsReference {
		bodies = append(bodies[1:], bodies[0])
	}

	var positions []bodyPos
	for _, b := range bodies {
		if !b.Resolved {
			continue
		}
		x, y := c.project(b.WorldPosition)
		focused := b.Spec.ID == st.FocusedBodyID
		r := b.DisplayRadius * c.perU

		if r >= 1 {
			c.disc(x, y, r, '█', categoryStyle(b.Spec, focused))
		} else {
			c.set(int(math.Floor(x)), int(math.Floor(y)), bodyGlyph(b.Spec, focused), categoryStyle(b.Spec, focused), true)
		}

		// Moons sitting on their primary's glyph are not labeled.
		if b.Spec.Category == body.CategoryMoon && !focused {
			if p, ok := m.scene.Body(b.Spec.PrimaryID); ok {
				if p.WorldPosition.DistanceTo(b.WorldPosition)*c.perU < 3 {
					continue
				}
			}
		}
		positions = append(positions, bodyPos{
			x:         int(math.Floor(x + math.Max(r, 0))),
			y:         int(math.Floor(y)),
			name:      b.Spec.Name(),
			isFocused: focused,
		})
	}

	m.renderLabels(c, positions)
	return renderCells(c)
}

// drawOrbits draws each resolved body's orbit around its primary. Rings
// smaller than a couple of cells are skipped.
func (m OrreryModel) drawOrbits(c *canvas, bodies []scene.BodyState) {
	for _, b := range bodies {
		if !b.Resolved || b.Spec.IsReference {
			continue
		}
		if b.Transform.DisplayDistance*c.perU < 2 {
			continue
		}
		pts := m.scene.OrbitLine(b.Spec.ID)
		for i := 1; i < len(pts); i++ {
			x0, y0 := c.project(pts[i-1])
			x1, y1 := c.project(pts[i])
			c.line(x0, y0, x1, y1)
		}
	}
}

// renderLabels draws body labels on the canvas based on label mode.
func (m OrreryModel) renderLabels(c *canvas, positions []bodyPos) {
	if m.labelMode == LabelNone {
		return
	}
	// The focused label gets first claim on the cells.
	sort.SliceStable(positions, func(i, j int) bool {
		return positions[i].isFocused && !positions[j].isFocused
	})
	for _, pos := range positions {
		if m.labelMode == LabelFocused && !pos.isFocused {
			continue
		}
		labelX := pos.x + 2
		if pos.y < 0 || pos.y >= c.h || labelX >= c.w {
			continue
		}
		text := pos.name
		if pos.isFocused {
			text = "◄ " + pos.name
		}
		for i, r := range []rune(text) {
			x := labelX + i
			if x >= c.w {
				break
			}
			if x < 0 {
				continue
			}
			if ch := c.cells[pos.y][x].ch; ch == ' ' || ch == '·' {
				st := styleLabel
				if pos.isFocused {
					st = styleFocus
				}
				c.cells[pos.y][x] = cell{ch: r, style: st}
			}
		}
	}
}

func bodyGlyph(spec *body.Spec, focused bool) rune {
	switch spec.Category {
	case body.CategoryStar:
		return '☉'
	case body.CategoryPlanet:
		if focused {
			return '◉'
		}
		if spec.Physical.RadiusKm >= 15000 {
			return '○'
		}
		return '•'
	case body.CategoryDwarf:
		if focused {
			return '●'
		}
		return '◦'
	case body.CategoryMoon:
		if focused {
			return '●'
		}
		return '∘'
	default:
		if focused {
			return '◆'
		}
		return '◇'
	}
}

func categoryStyle(spec *body.Spec, focused bool) cellStyle {
	if focused {
		return styleFocus
	}
	switch spec.Category {
	case body.CategoryStar:
		return styleStar
	case body.CategoryPlanet:
		if spec.Physical.RadiusKm >= 15000 {
			return styleGiant
		}
		return stylePlanet
	case body.CategoryDwarf:
		return styleDwarf
	case body.CategoryMoon:
		return styleMoon
	default:
		return styleOther
	}
}

var cellStyles = map[cellStyle]lipgloss.Style{
	styleOrbit:  lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	styleStar:   lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true),
	stylePlanet: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	styleGiant:  lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	styleDwarf:  lipgloss.NewStyle().Foreground(lipgloss.Color("141")),
	styleMoon:   lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	styleOther:  lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
	styleFocus:  lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Bold(true),
	styleLabel:  lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
}

func renderCells(c *canvas) string {
	var b strings.Builder
	for _, row := range c.cells {
		for _, ce := range row {
			if ce.style == styleBlank {
				b.WriteRune(ce.ch)
				continue
			}
			b.WriteString(cellStyles[ce.style].Render(string(ce.ch)))
		}
		b.WriteRune('\n')
	}
	return b.String()
}

func (m OrreryModel) renderHUD() string {
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	pausedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27")).Bold(true)

	st := m.scene.State()

	// Focus line
	focused, ok := m.scene.Body(st.FocusedBodyID)
	if st.FocusedBodyID != "" && ok {
		spec := focused.Spec
		b.WriteString(headerStyle.Render(fmt.Sprintf("◆ %s", spec.Name())))
		b.WriteString(dimStyle.Render(fmt.Sprintf(" (%s", spec.Category)))
		if spec.PrimaryID != "" {
			b.WriteString(dimStyle.Render(" of " + spec.PrimaryID))
		}
		b.WriteString(dimStyle.Render(")  "))
		if !spec.IsReference {
			r := orbit.Propagate(orbit.FromSpec(spec.Orbit), st.SimulatedSeconds)
			b.WriteString(labelStyle.Render("Distance: "))
			b.WriteString(valueStyle.Render(formatDistance(r.Radius)))
			b.WriteString("  ")
			b.WriteString(labelStyle.Render("Light: "))
			b.WriteString(valueStyle.Render(astro.FormatLightTime(astro.LightTimeFromKm(r.Radius))))
			b.WriteString("  ")
			b.WriteString(labelStyle.Render("Ecl Lon: "))
			b.WriteString(valueStyle.Render(fmt.Sprintf("%.1f°", astro.EclipticLongitude(focused.Transform.Offset))))
			b.WriteString("  ")
		}
		if lo, hi, ok := m.scene.FocusZoomRange(); ok {
			b.WriteString(labelStyle.Render("Zoom: "))
			b.WriteString(valueStyle.Render(fmt.Sprintf("%.3g (%.3g–%.3g)", m.cameraDistance(), lo, hi)))
		}
	} else {
		ref := m.scene.Catalog().Reference()
		b.WriteString(headerStyle.Render("☉ " + ref.Name()))
		b.WriteString("  ")
		b.WriteString(dimStyle.Render(fmt.Sprintf("overview, %d bodies", m.scene.Catalog().Len())))
		b.WriteString("  ")
		b.WriteString(labelStyle.Render("Zoom: "))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%.3gx", m.zoom)))
	}
	b.WriteString("\n")

	// Time and realism line
	b.WriteString(labelStyle.Render("Sim: "))
	b.WriteString(valueStyle.Render(astro.FormatSimulatedDate(st.SimulatedSeconds, "2006-01-02 15:04 UTC")))
	b.WriteString("  ")
	b.WriteString(labelStyle.Render("Rate: "))
	if st.Paused {
		b.WriteString(pausedStyle.Render("PAUSED"))
	} else {
		b.WriteString(valueStyle.Render(formatTimeScale(st.TimeScale)))
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf(" [%d/%d %s]", st.TimeScaleLevel, m.scene.MaxTimeScaleLevel(), st.Mode)))
	b.WriteString("  ")
	b.WriteString(labelStyle.Render("Realism: "))
	b.WriteString(valueStyle.Render(realismBar(st.RealismLevel, 10)))
	b.WriteString(valueStyle.Render(fmt.Sprintf(" %.2f", st.RealismLevel)))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render("Labels:"))
	b.WriteString(valueStyle.Render(m.labelMode.String()))

	return b.String()
}

// formatDistance shows km below 0.01 AU and AU above.
func formatDistance(km float64) string {
	au := astro.KmToAU(km)
	if au < 0.01 {
		return fmt.Sprintf("%.0f km", km)
	}
	return fmt.Sprintf("%.3f AU", au)
}

// formatTimeScale renders a multiplier as simulated time per real second.
func formatTimeScale(scale float64) string {
	switch {
	case scale >= 86400:
		return fmt.Sprintf("%.3g d/s", scale/86400)
	case scale >= 3600:
		return fmt.Sprintf("%.3g h/s", scale/3600)
	case scale >= 60:
		return fmt.Sprintf("%.3g min/s", scale/60)
	default:
		return fmt.Sprintf("%gx", scale)
	}
}

func realismBar(r float64, width int) string {
	filled := int(math.Round(clampFloat(r, 0, 1) * float64(width)))
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
