package scene

import (
	"fmt"

	"github.com/litescript/ls-orrery/internal/clock"
)

// EventKind identifies what changed.
type EventKind int

const (
	EventRealismChanged EventKind = iota
	EventTimeScaleChanged
	EventFocusChanged
	EventCatalogSwapped
)

func (k EventKind) String() string {
	switch k {
	case EventRealismChanged:
		return "realism"
	case EventTimeScaleChanged:
		return "time-scale"
	case EventFocusChanged:
		return "focus"
	case EventCatalogSwapped:
		return "catalog"
	default:
		return "unknown"
	}
}

// Event is delivered synchronously to subscribers after the change has
// been applied and the scene refreshed.
type Event struct {
	Kind      EventKind
	Realism   float64
	Level     int
	TimeScale float64
	Paused    bool
	Mode      clock.Mode
	FocusID   string // empty when focus was cleared
	Bodies    int
}

func (e Event) String() string {
	switch e.Kind {
	case EventRealismChanged:
		return fmt.Sprintf("realism -> %.2f", e.Realism)
	case EventTimeScaleChanged:
		if e.Paused {
			return "time paused"
		}
		return fmt.Sprintf("time scale -> %gx (level %d, %s)", e.TimeScale, e.Level, e.Mode)
	case EventFocusChanged:
		if e.FocusID == "" {
			return "focus cleared"
		}
		return fmt.Sprintf("focus -> %s", e.FocusID)
	case EventCatalogSwapped:
		return fmt.Sprintf("catalog swapped (%d bodies)", e.Bodies)
	default:
		return e.Kind.String()
	}
}

type subscription struct {
	id int
	fn func(Event)
}

// Subscribe registers fn for every event and returns a function that
// removes it.
func (s *Scene) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscription{id: id, fn: fn})

	return func() {
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Scene) emit(e Event) {
	st := s.State()
	e.Realism = st.RealismLevel
	e.Level = st.TimeScaleLevel
	e.TimeScale = st.TimeScale
	e.Paused = st.Paused
	e.Mode = st.Mode
	e.FocusID = st.FocusedBodyID
	e.Bodies = len(s.bodies)

	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	for _, sub := range subs {
		sub.fn(e)
	}
}
