// Package scene drives a catalog through the clock, the realism
// controller and the hierarchy resolver, and keeps per-body kinematic state.
package scene

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/body"
	"github.com/litescript/ls-orrery/internal/clock"
	"github.com/litescript/ls-orrery/internal/hierarchy"
	"github.com/litescript/ls-orrery/internal/realism"
	"github.com/litescript/ls-orrery/internal/scale"
)

// ErrUnknownBody is returned when focusing an id that is not in the catalog.
var ErrUnknownBody = errors.New("unknown body")

// Config configures a Scene.
type Config struct {
	Clock                   clock.Config
	Anchors                 scale.Anchors
	Camera                  realism.Camera
	InitialRealism          float64
	AlignMoonsToPrimaryTilt bool
	OrbitSegments           int
}

// DefaultConfig returns the default scene configuration.
func DefaultConfig() Config {
	v := scale.DefaultVisualDefaults()
	return Config{
		Clock:         clock.DefaultConfig(),
		Anchors:       scale.DefaultAnchors(v),
		Camera:        realism.DefaultCamera(),
		OrbitSegments: v.OrbitSegments,
	}
}

// BodyState is the kinematic state of one body after the last pass.
type BodyState struct {
	Spec                      *body.Spec
	WorldPosition             astro.Vec3
	SpinAngle                 float64
	DisplayRadius             float64
	LastComputedSimulatedTime float64
	// Resolved is false when the body was skipped in the last pass.
	Resolved  bool
	Transform hierarchy.Transform
}

// SimulationState is the scene-wide mutable state.
type SimulationState struct {
	SimulatedSeconds float64
	TimeScaleLevel   int
	TimeScale        float64
	Paused           bool
	Mode             clock.Mode
	RealismLevel     float64
	FocusedBodyID    string
}

// SimulatedTime returns the wall-clock date of the simulated instant.
func (s SimulationState) SimulatedTime() time.Time {
	return astro.TimeFromSecondsSinceJ2000(s.SimulatedSeconds)
}

// Observer receives per-pass measurements.
type Observer interface {
	PassCompleted(d time.Duration, st SimulationState, resolved, total int)
}

// Scene is driven by a single frame loop and is not safe for concurrent
// use; out-of-loop readers use published snapshots.
type Scene struct {
	cfg      Config
	catalog  *body.Catalog
	clock    *clock.Clock
	realism  *realism.Controller
	resolver *hierarchy.Resolver
	reporter body.Reporter
	observer Observer

	bodies     map[string]*BodyState
	transforms map[string]hierarchy.Transform
	focus      string

	subs    []subscription
	nextSub int
}

// New creates a scene for catalog and runs the first pass.
func New(catalog *body.Catalog, cfg Config, reporter body.Reporter) *Scene {
	if reporter == nil {
		reporter = body.Discard
	}
	if cfg.OrbitSegments <= 0 {
		cfg.OrbitSegments = scale.DefaultVisualDefaults().OrbitSegments
	}
	s := &Scene{
		cfg:      cfg,
		catalog:  catalog,
		clock:    clock.New(cfg.Clock),
		realism:  realism.NewController(cfg.Anchors, cfg.Camera, cfg.InitialRealism),
		resolver: hierarchy.NewResolver(cfg.AlignMoonsToPrimaryTilt),
		reporter: reporter,
	}
	s.bodies, s.transforms = s.build(catalog, s.resolver)
	return s
}

// SetObserver installs an observer for pass measurements.
func (s *Scene) SetObserver(o Observer) { s.observer = o }

// Frame advances the clock by realSeconds and resolves the whole scene.
// It reports whether the delta was accepted.
func (s *Scene) Frame(realSeconds float64) bool {
	_, ok := s.clock.Tick(realSeconds)
	if !ok {
		s.reporter.Report(body.Issue{
			Severity: body.SeverityWarning,
			Err:      fmt.Errorf("%w: frame delta %v ignored", body.ErrClamped, realSeconds),
		})
	}
	s.Refresh()
	return ok
}

// Refresh resolves the scene at the current time without advancing it.
func (s *Scene) Refresh() {
	s.bodies, s.transforms = s.build(s.catalog, s.resolver)
}

// build resolves catalog into fresh state maps. Nothing in the scene is
// touched until the caller assigns the result.
func (s *Scene) build(catalog *body.Catalog, resolver *hierarchy.Resolver) (map[string]*BodyState, map[string]hierarchy.Transform) {
	start := time.Now()
	t := s.clock.SimulatedSeconds()
	transforms := resolver.Resolve(catalog, t, s.realism.Params(), s.reporter)

	order := catalog.Order()
	bodies := make(map[string]*BodyState, len(order))
	for _, id := range order {
		spec, _ := catalog.Get(id)
		st := &BodyState{Spec: spec}
		if tr, ok := transforms[id]; ok {
			st.Resolved = true
			st.Transform = tr
			st.WorldPosition = tr.Position
			st.SpinAngle = tr.SpinAngle
			st.DisplayRadius = tr.DisplayRadius
			st.LastComputedSimulatedTime = t
		} else if prev, ok := s.bodies[id]; ok && prev.Spec == spec {
			// Keep the last good state while the body is skipped.
			kept := *prev
			kept.Resolved = false
			st = &kept
		}
		bodies[id] = st
	}

	if s.observer != nil {
		s.observer.PassCompleted(time.Since(start), s.State(), len(transforms), len(order))
	}
	return bodies, transforms
}

// SetRealismLevel clamps and applies r, refreshing the whole scene
// synchronously when it changes.
func (s *Scene) SetRealismLevel(r float64) float64 {
	applied, changed := s.realism.SetRealismLevel(r)
	if changed {
		s.Refresh()
		s.emit(Event{Kind: EventRealismChanged})
	}
	return applied
}

// StepRealism moves realism by delta.
func (s *Scene) StepRealism(delta float64) float64 {
	return s.SetRealismLevel(s.realism.Level() + delta)
}

// SetTimeScaleLevel clamps i to the ladder of the current mode.
func (s *Scene) SetTimeScaleLevel(i int) int {
	before := s.clock.Level()
	lvl := s.clock.SetTimeScaleLevel(i)
	if lvl != before {
		s.emit(Event{Kind: EventTimeScaleChanged})
	}
	return lvl
}

// SetPaused pauses or resumes the clock.
func (s *Scene) SetPaused(p bool) {
	if s.clock.Paused() == p {
		return
	}
	s.clock.SetPaused(p)
	s.emit(Event{Kind: EventTimeScaleChanged})
}

// SetFocusedBody enters focus mode on id, or overview when id is empty.
// Entering focus narrows the time-scale ladder.
func (s *Scene) SetFocusedBody(id string) error {
	if id != "" {
		if _, ok := s.catalog.Get(id); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownBody, id)
		}
	}
	if id == s.focus {
		return nil
	}
	s.focus = id

	mode := clock.ModeOverview
	if id != "" {
		mode = clock.ModeFocus
	}
	before, beforeMode := s.clock.Level(), s.clock.Mode()
	s.clock.SetMode(mode)

	s.emit(Event{Kind: EventFocusChanged})
	if s.clock.Level() != before || s.clock.Mode() != beforeMode {
		s.emit(Event{Kind: EventTimeScaleChanged})
	}
	return nil
}

// ResetTime moves the clock back to start without touching its level.
func (s *Scene) ResetTime(start float64) {
	s.clock.Reset(start)
	s.Refresh()
}

// State returns the current simulation state.
func (s *Scene) State() SimulationState {
	return SimulationState{
		SimulatedSeconds: s.clock.SimulatedSeconds(),
		TimeScaleLevel:   s.clock.Level(),
		TimeScale:        s.clock.TimeScale(),
		Paused:           s.clock.Paused(),
		Mode:             s.clock.Mode(),
		RealismLevel:     s.realism.Level(),
		FocusedBodyID:    s.focus,
	}
}

// Body returns a copy of one body's state.
func (s *Scene) Body(id string) (BodyState, bool) {
	b, ok := s.bodies[id]
	if !ok {
		return BodyState{}, false
	}
	return *b, true
}

// Bodies returns copies of every body's state in resolve order.
func (s *Scene) Bodies() []BodyState {
	order := s.catalog.Order()
	out := make([]BodyState, 0, len(order))
	for _, id := range order {
		if b, ok := s.bodies[id]; ok {
			out = append(out, *b)
		}
	}
	return out
}

// Catalog returns the active catalog.
func (s *Scene) Catalog() *body.Catalog { return s.catalog }

// Params returns the active scale parameters.
func (s *Scene) Params() scale.Params { return s.realism.Params() }

// MaxTimeScaleLevel returns the top level of the active ladder.
func (s *Scene) MaxTimeScaleLevel() int { return s.clock.MaxLevel() }

// LevelTimeScale returns the multiplier of the current level, ignoring pause.
func (s *Scene) LevelTimeScale() float64 { return s.clock.LevelScale() }

// OrbitLine returns the display-space orbit of id for drawing.
func (s *Scene) OrbitLine(id string) []astro.Vec3 {
	return s.resolver.OrbitLine(s.catalog, id, s.realism.Params(), s.transforms, s.cfg.OrbitSegments)
}

// TryGetFocusZoomRange returns the camera distance range for id derived
// from its current display radius and the reach of its satellites.
func (s *Scene) TryGetFocusZoomRange(id string) (min, max float64, ok bool) {
	b, found := s.bodies[id]
	if !found || !b.Resolved {
		return 0, 0, false
	}
	extent := 0.0
	for _, child := range s.catalog.Children(id) {
		if tr, ok := s.transforms[child]; ok {
			extent = math.Max(extent, tr.Offset.Norm()+tr.DisplayRadius)
		}
	}
	min, max = s.realism.FocusZoomRange(b.DisplayRadius, extent)
	return min, max, true
}

// FocusZoomRange returns the zoom range for the focused body.
func (s *Scene) FocusZoomRange() (min, max float64, ok bool) {
	if s.focus == "" {
		return 0, 0, false
	}
	return s.TryGetFocusZoomRange(s.focus)
}

// SwapCatalog replaces the catalog atomically: the complete new body set
// is resolved first and installed in one step. Focus on a body that no
// longer exists is cleared.
func (s *Scene) SwapCatalog(c *body.Catalog) {
	if c == nil {
		return
	}
	resolver := hierarchy.NewResolver(s.cfg.AlignMoonsToPrimaryTilt)
	bodies, transforms := s.build(c, resolver)
	s.catalog, s.resolver, s.bodies, s.transforms = c, resolver, bodies, transforms

	s.emit(Event{Kind: EventCatalogSwapped})
	if s.focus != "" {
		if _, ok := c.Get(s.focus); !ok {
			_ = s.SetFocusedBody("")
		}
	}
}
