// Package clock accumulates simulated time from real frame deltas.
package clock

import (
	"fmt"
	"math"
)

// Mode gates which time-scale ladder is in effect.
type Mode int

const (
	ModeOverview Mode = iota
	ModeFocus
)

func (m Mode) String() string {
	if m == ModeFocus {
		return "focus"
	}
	return "overview"
}

// Ladder is an ascending list of allowed time-scale multipliers.
type Ladder []float64

// Validate checks that the ladder is non-empty, positive and ascending.
func (l Ladder) Validate() error {
	if len(l) == 0 {
		return fmt.Errorf("empty ladder")
	}
	for i, v := range l {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("ladder[%d] = %v must be positive", i, v)
		}
		if i > 0 && v <= l[i-1] {
			return fmt.Errorf("ladder must be ascending: %v after %v", v, l[i-1])
		}
	}
	return nil
}

// Config configures a Clock.
type Config struct {
	Overview     Ladder
	Focus        Ladder
	InitialLevel int
	Start        float64 // simulated seconds at reset
}

// DefaultConfig returns the default ladders: up to 2,000,000x in overview
// and 200,000x in focus.
func DefaultConfig() Config {
	return Config{
		Overview:     Ladder{1, 100, 10000, 200000, 2000000},
		Focus:        Ladder{1, 100, 10000, 200000},
		InitialLevel: 2,
	}
}

// Clock is owned by a single frame loop and is not safe for concurrent use.
type Clock struct {
	cfg       Config
	simulated float64
	level     int
	mode      Mode
	paused    bool
}

// New creates a clock in overview mode. Empty ladders fall back to the
// defaults.
func New(cfg Config) *Clock {
	def := DefaultConfig()
	if len(cfg.Overview) == 0 {
		cfg.Overview = def.Overview
	}
	if len(cfg.Focus) == 0 {
		cfg.Focus = def.Focus
	}
	c := &Clock{cfg: cfg, simulated: cfg.Start}
	c.SetTimeScaleLevel(cfg.InitialLevel)
	return c
}

func (c *Clock) ladder() Ladder {
	if c.mode == ModeFocus {
		return c.cfg.Focus
	}
	return c.cfg.Overview
}

// Tick advances simulated time by realSeconds × TimeScale() and returns
// the simulated seconds added. Negative or non-finite deltas are ignored
// and reported through ok.
func (c *Clock) Tick(realSeconds float64) (advanced float64, ok bool) {
	if math.IsNaN(realSeconds) || math.IsInf(realSeconds, 0) || realSeconds < 0 {
		return 0, false
	}
	advanced = realSeconds * c.TimeScale()
	next := c.simulated + advanced
	if math.IsInf(next, 0) {
		return 0, false
	}
	c.simulated = next
	return advanced, true
}

// SetTimeScaleLevel clamps i into the current ladder and returns the
// level actually set.
func (c *Clock) SetTimeScaleLevel(i int) int {
	c.level = clampLevel(i, len(c.ladder()))
	return c.level
}

// SetMode switches ladder, clamping the level down if it is out of range
// for the new one. It returns the resulting level.
func (c *Clock) SetMode(m Mode) int {
	c.mode = m
	return c.SetTimeScaleLevel(c.level)
}

// SetPaused pauses or resumes. A paused clock has a time scale of zero
// but keeps its level.
func (c *Clock) SetPaused(p bool) { c.paused = p }

// Reset sets simulated time back to start.
func (c *Clock) Reset(start float64) {
	if math.IsNaN(start) || math.IsInf(start, 0) {
		start = 0
	}
	c.simulated = start
}

// SimulatedSeconds returns elapsed simulated seconds.
func (c *Clock) SimulatedSeconds() float64 { return c.simulated }

// TimeScale returns the active multiplier, zero while paused.
func (c *Clock) TimeScale() float64 {
	if c.paused {
		return 0
	}
	return c.ladder()[c.level]
}

// LevelScale returns the multiplier at the current level ignoring pause.
func (c *Clock) LevelScale() float64 { return c.ladder()[c.level] }

func (c *Clock) Level() int    { return c.level }
func (c *Clock) Mode() Mode    { return c.mode }
func (c *Clock) Paused() bool  { return c.paused }
func (c *Clock) MaxLevel() int { return len(c.ladder()) - 1 }

// Ladder returns a copy of the active ladder.
func (c *Clock) Ladder() Ladder {
	l := c.ladder()
	out := make(Ladder, len(l))
	copy(out, l)
	return out
}

func clampLevel(i, n int) int {
	switch {
	case i < 0:
		return 0
	case i >= n:
		return n - 1
	default:
		return i
	}
}
