// Package state provides thread-safe published frame state for readers
// outside the frame loop.
package state

import (
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/body"
	"github.com/litescript/ls-orrery/internal/scene"
)

// EventType represents the type of state change event.
type EventType string

const (
	EventRealism   EventType = "REALISM"
	EventTimeScale EventType = "TIME_SCALE"
	EventFocus     EventType = "FOCUS"
	EventCatalog   EventType = "CATALOG"
	EventIssue     EventType = "ISSUE"
)

// Event is one entry of the event log.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	BodyID    string    `json:"body_id,omitempty"`
	Severity  string    `json:"severity,omitempty"`
}

// BodySnapshot is the published state of one body.
type BodySnapshot struct {
	ID              string
	Name            string
	Category        body.Category
	PrimaryID       string
	Position        astro.Vec3
	SpinAngle       float64
	DisplayRadius   float64
	DisplayDistance float64
	Resolved        bool
}

// FrameSnapshot is everything a reader needs about one resolved pass.
type FrameSnapshot struct {
	State  scene.SimulationState
	Bodies []BodySnapshot
}

// FrameFromScene copies the scene's current state into a snapshot.
func FrameFromScene(s *scene.Scene) FrameSnapshot {
	bodies := s.Bodies()
	out := FrameSnapshot{
		State:  s.State(),
		Bodies: make([]BodySnapshot, 0, len(bodies)),
	}
	for _, b := range bodies {
		out.Bodies = append(out.Bodies, BodySnapshot{
			ID:              b.Spec.ID,
			Name:            b.Spec.Name(),
			Category:        b.Spec.Category,
			PrimaryID:       b.Spec.PrimaryID,
			Position:        b.WorldPosition,
			SpinAngle:       b.SpinAngle,
			DisplayRadius:   b.DisplayRadius,
			DisplayDistance: b.Transform.DisplayDistance,
			Resolved:        b.Resolved,
		})
	}
	return out
}

// TimeSeries is a single data point with timestamp.
type TimeSeries struct {
	Timestamp time.Time
	Value     float64
}

// Manager handles published state with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	current     *FrameSnapshot
	lastPublish time.Time
	frames      uint64

	// Pass duration history in seconds
	passHistory    []TimeSeries
	maxPassHistory int

	// Event log (ring buffer)
	events       []Event
	maxEvents    int
	eventWriteAt int
}

// Config holds configuration for the state manager.
type Config struct {
	MaxPassHistory int
	MaxEvents      int
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		MaxPassHistory: 300, // ~10s at 30 fps
		MaxEvents:      50,
	}
}

// NewManager creates a new state manager.
func NewManager(cfg Config) *Manager {
	maxEvents := cfg.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 50
	}
	maxHist := cfg.MaxPassHistory
	if maxHist <= 0 {
		maxHist = 300
	}
	return &Manager{
		maxPassHistory: maxHist,
		maxEvents:      maxEvents,
		events:         make([]Event, 0, maxEvents),
	}
}

// Publish stores a frame and the time its pass took.
func (m *Manager) Publish(frame FrameSnapshot, pass time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.current = &frame
	m.lastPublish = now
	m.frames++

	m.passHistory = append(m.passHistory, TimeSeries{Timestamp: now, Value: pass.Seconds()})
	if len(m.passHistory) > m.maxPassHistory {
		m.passHistory = m.passHistory[1:]
	}
}

// AddEvent appends an event to the log. A zero timestamp is set to now.
func (m *Manager) AddEvent(e Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	m.addEvent(e)
}

// ObserveScene records scene events in the log.
func (m *Manager) ObserveScene(e scene.Event) {
	types := map[scene.EventKind]EventType{
		scene.EventRealismChanged:   EventRealism,
		scene.EventTimeScaleChanged: EventTimeScale,
		scene.EventFocusChanged:     EventFocus,
		scene.EventCatalogSwapped:   EventCatalog,
	}
	m.AddEvent(Event{Type: types[e.Kind], Message: e.String(), BodyID: e.FocusID})
}

// Report implements body.Reporter so engine issues land in the log.
func (m *Manager) Report(i body.Issue) {
	m.AddEvent(Event{
		Type:     EventIssue,
		Message:  i.Err.Error(),
		BodyID:   i.BodyID,
		Severity: i.Severity.String(),
	})
}

// addEvent adds an event to the ring buffer.
func (m *Manager) addEvent(e Event) {
	if len(m.events) < m.maxEvents {
		m.events = append(m.events, e)
	} else {
		m.events[m.eventWriteAt] = e
		m.eventWriteAt = (m.eventWriteAt + 1) % m.maxEvents
	}
}

// PassStats summarizes recent pass durations in seconds.
type PassStats struct {
	Count  int
	Mean   float64
	StdDev float64
	Max    float64
}

// Snapshot represents an immutable snapshot of current state.
type Snapshot struct {
	Frame       *FrameSnapshot
	LastPublish time.Time
	Frames      uint64
	Passes      PassStats
	Events      []Event
}

// Snapshot returns a consistent snapshot of current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var frame *FrameSnapshot
	if m.current != nil {
		f := *m.current
		f.Bodies = make([]BodySnapshot, len(m.current.Bodies))
		copy(f.Bodies, m.current.Bodies)
		frame = &f
	}

	return Snapshot{
		Frame:       frame,
		LastPublish: m.lastPublish,
		Frames:      m.frames,
		Passes:      m.passStats(),
		Events:      m.getEventsOrdered(),
	}
}

func (m *Manager) passStats() PassStats {
	n := len(m.passHistory)
	if n == 0 {
		return PassStats{}
	}
	vals := make([]float64, n)
	max := 0.0
	for i, p := range m.passHistory {
		vals[i] = p.Value
		if p.Value > max {
			max = p.Value
		}
	}
	ps := PassStats{Count: n, Mean: stat.Mean(vals, nil), Max: max}
	if n > 1 {
		ps.StdDev = stat.StdDev(vals, nil)
	}
	return ps
}

// getEventsOrdered returns events in chronological order.
func (m *Manager) getEventsOrdered() []Event {
	if len(m.events) == 0 {
		return nil
	}

	// If buffer isn't full yet, just copy
	if len(m.events) < m.maxEvents {
		result := make([]Event, len(m.events))
		copy(result, m.events)
		return result
	}

	// Ring buffer is full, reorder from oldest to newest
	result := make([]Event, m.maxEvents)
	for i := 0; i < m.maxEvents; i++ {
		idx := (m.eventWriteAt + i) % m.maxEvents
		result[i] = m.events[idx]
	}
	return result
}

// RecentEvents returns the last n events.
func (m *Manager) RecentEvents(n int) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.getEventsOrdered()
	if len(all) <= n {
		return all
	}
	return all[len(all)-n:]
}

// HasData returns true once a frame has been published.
func (m *Manager) HasData() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil
}
