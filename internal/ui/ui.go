// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-orrery/internal/body"
	"github.com/litescript/ls-orrery/internal/observability"
	"github.com/litescript/ls-orrery/internal/scene"
	"github.com/litescript/ls-orrery/internal/state"
	"github.com/litescript/ls-orrery/internal/version"
)

const (
	// FrameInterval is the animation frame period (30 fps).
	FrameInterval = time.Second / 30
	// A longer gap (suspend, debugger) is not replayed at full speed.
	maxFrameDelta = time.Second

	realismStep = 0.05
	headerLines = 2
	footerLines = 4
)

// Msg types for Bubble Tea
type (
	// FrameMsg drives one animation frame.
	FrameMsg time.Time

	// CatalogMsg carries the result of a dataset reload.
	CatalogMsg struct {
		Catalog *body.Catalog
		Err     error
	}
)

// ReloadFunc loads a fresh catalog for the running scene.
type ReloadFunc func(ctx context.Context) (*body.Catalog, error)

// Model is the root Bubble Tea model.
type Model struct {
	// Dependencies
	ctx         context.Context
	scene       *scene.Scene
	state       *state.Manager
	unsubscribe func()
	reload      ReloadFunc

	// UI state
	width     int
	height    int
	ready     bool
	animTick  int
	lastFrame time.Time

	// Sub-models
	orrery OrreryModel
}

// New creates the root model. Scene events and frames are published to
// mgr, which may be shared with other readers. A nil mgr gets a private one.
func New(ctx context.Context, s *scene.Scene, mgr *state.Manager) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	if mgr == nil {
		mgr = state.NewManager(state.DefaultConfig())
	}
	return Model{
		ctx:         ctx,
		scene:       s,
		state:       mgr,
		unsubscribe: s.Subscribe(mgr.ObserveScene),
		orrery:      NewOrreryModel(s),
	}
}

// WithReload enables the reload key. fn runs off the update loop.
func (m Model) WithReload(fn ReloadFunc) Model {
	m.reload = fn
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return frameCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.orrery = m.orrery.SetSize(msg.Width, msg.Height-headerLines-footerLines)
		return m, nil

	case FrameMsg:
		m.advance(time.Time(msg))
		return m, frameCmd()

	case CatalogMsg:
		if msg.Err != nil {
			m.state.AddEvent(state.Event{
				Type:     state.EventIssue,
				Message:  "reload failed: " + msg.Err.Error(),
				Severity: body.SeverityError.String(),
			})
			return m, nil
		}
		observability.SwapCatalog(m.ctx, m.scene, msg.Catalog)
		m.orrery.ResetFocus()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// advance ticks the scene by the real time since the previous frame and
// publishes the result.
func (m *Model) advance(now time.Time) {
	dt := time.Duration(0)
	if !m.lastFrame.IsZero() {
		dt = now.Sub(m.lastFrame)
		if dt > maxFrameDelta {
			dt = maxFrameDelta
		}
	}
	m.lastFrame = now
	m.animTick++

	start := time.Now()
	m.scene.Frame(dt.Seconds())
	m.state.Publish(state.FrameFromScene(m.scene), time.Since(start))
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.scene.State()

	switch msg.String() {
	case "q", "ctrl+c":
		m.unsubscribe()
		return m, tea.Quit

	case "[":
		observability.SetRealism(m.ctx, m.scene, st.RealismLevel-realismStep)
	case "]":
		observability.SetRealism(m.ctx, m.scene, st.RealismLevel+realismStep)
	case "0":
		observability.SetRealism(m.ctx, m.scene, 0)
	case "1":
		observability.SetRealism(m.ctx, m.scene, 1)

	case ",", "<":
		m.scene.SetTimeScaleLevel(st.TimeScaleLevel - 1)
	case ".", ">":
		m.scene.SetTimeScaleLevel(st.TimeScaleLevel + 1)
	case " ", "space":
		m.scene.SetPaused(!st.Paused)

	case "j":
		m.cycleFocus(-1)
	case "k":
		m.cycleFocus(1)
	case "esc":
		_ = m.scene.SetFocusedBody("")
		m.orrery.ResetFocus()

	case "r":
		if m.reload == nil {
			return m, nil
		}
		ctx, fn := m.ctx, m.reload
		return m, func() tea.Msg {
			c, err := fn(ctx)
			return CatalogMsg{Catalog: c, Err: err}
		}

	default:
		var cmd tea.Cmd
		m.orrery, cmd = m.orrery.Update(msg)
		return m, cmd
	}
	return m, nil
}

// cycleFocus moves focus through the catalog's resolve order, with the
// overview as the slot before the first body.
func (m *Model) cycleFocus(dir int) {
	order := m.scene.Catalog().Order()
	if len(order) == 0 {
		return
	}
	idx := -1
	current := m.scene.State().FocusedBodyID
	for i, id := range order {
		if id == current {
			idx = i
			break
		}
	}

	// Slots are -1 (overview) through len(order)-1.
	n := len(order) + 1
	next := ((idx+1+dir)%n+n)%n - 1
	id := ""
	if next >= 0 {
		id = order[next]
	}
	_ = m.scene.SetFocusedBody(id)
	m.orrery.ResetFocus()
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	return m.renderHeader() + "\n" + m.orrery.View() + "\n" + m.renderFooter()
}

func (m Model) renderHeader() string {
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	title := m.renderShimmerText("  LS-ORRERY")
	return title + muted.Render(fmt.Sprintf("  v%s · Kepler orbits, scaled for the eye", version.Version)) + "\n"
}

func (m Model) renderFooter() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	eventStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("249"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))

	var b strings.Builder

	events := m.state.RecentEvents(2)
	for i := 0; i < 2; i++ {
		if i < len(events) {
			e := events[i]
			line := fmt.Sprintf("  %s %-10s %s", e.Timestamp.Format("15:04:05"), e.Type, e.Message)
			if e.BodyID != "" && e.Type == state.EventIssue {
				line += " (" + e.BodyID + ")"
			}
			if e.Type == state.EventIssue {
				b.WriteString(warnStyle.Render(line))
			} else {
				b.WriteString(eventStyle.Render(line))
			}
		}
		b.WriteString("\n")
	}

	snap := m.state.Snapshot()
	spinnerFrames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	spinner := spinnerFrames[m.animTick%len(spinnerFrames)]
	if m.scene.State().Paused {
		spinner = "⏸"
	}
	b.WriteString(accentStyle.Render("  " + spinner))
	b.WriteString(dimStyle.Render(fmt.Sprintf(" resolve %.2fms avg, %.2fms max",
		snap.Passes.Mean*1000, snap.Passes.Max*1000)))
	b.WriteString("\n")

	b.WriteString(dimStyle.Render("  [ ] realism  0/1 snap  , . rate  space pause  j/k focus  esc overview  r reload  +/- zoom  l labels  o orbits  q quit"))
	return b.String()
}

func frameCmd() tea.Cmd {
	return tea.Tick(FrameInterval, func(t time.Time) tea.Msg {
		return FrameMsg(t)
	})
}

// renderShimmerText renders text with a subtle moving shine effect.
func (m Model) renderShimmerText(text string) string {
	runes := []rune(text)
	textLen := len(runes)
	if textLen == 0 {
		return ""
	}

	// One sweep every few seconds at 30 fps
	pos := (m.animTick / 3) % (textLen + 8)

	var result strings.Builder
	for i, r := range runes {
		dist := i - pos + 4
		if dist < 0 {
			dist = -dist
		}

		var r8, g8, b8 int
		switch {
		case dist <= 1:
			r8, g8, b8 = 250, 220, 140
		case dist <= 3:
			r8, g8, b8 = 220, 180, 110
		case dist <= 5:
			r8, g8, b8 = 190, 150, 90
		default:
			r8, g8, b8 = 160, 120, 70
		}

		style := lipgloss.NewStyle().Foreground(lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", r8, g8, b8))).Bold(true)
		result.WriteString(style.Render(string(r)))
	}
	return result.String()
}
