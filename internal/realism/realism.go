// Package realism owns the realism level and the scale parameters derived
// from it.
package realism

import (
	"math"

	"github.com/litescript/ls-orrery/internal/scale"
)

// Camera holds the multipliers that turn a display radius into a focus
// zoom range.
type Camera struct {
	MinZoomMultiplier     float64
	MaxZoomMultiplier     float64
	SatelliteExtentFactor float64
}

// DefaultCamera returns the default zoom multipliers.
func DefaultCamera() Camera {
	return Camera{
		MinZoomMultiplier:     3,
		MaxZoomMultiplier:     60,
		SatelliteExtentFactor: 1.5,
	}
}

// Controller holds realism r in [0, 1] and the matching scale.Params.
// Params are replaced wholesale on every change.
type Controller struct {
	anchors scale.Anchors
	camera  Camera
	level   float64
	params  scale.Params
}

// NewController creates a controller at the given initial level.
func NewController(anchors scale.Anchors, camera Camera, initial float64) *Controller {
	c := &Controller{anchors: anchors, camera: camera}
	c.level = clamp(initial)
	c.params = scale.Compute(anchors, c.level)
	return c
}

// SetRealismLevel clamps r to [0, 1] and recomputes the parameters. It
// returns the level applied and whether it changed.
func (c *Controller) SetRealismLevel(r float64) (float64, bool) {
	r = clamp(r)
	if r == c.level {
		return r, false
	}
	c.level = r
	c.params = scale.Compute(c.anchors, r)
	return r, true
}

// StepRealism moves the level by delta.
func (c *Controller) StepRealism(delta float64) (float64, bool) {
	return c.SetRealismLevel(c.level + delta)
}

// SetAnchors replaces the anchors and recomputes at the current level.
func (c *Controller) SetAnchors(a scale.Anchors) {
	c.anchors = a
	c.params = scale.Compute(a, c.level)
}

func (c *Controller) Level() float64         { return c.level }
func (c *Controller) Params() scale.Params   { return c.params }
func (c *Controller) Anchors() scale.Anchors { return c.anchors }
func (c *Controller) Camera() Camera         { return c.camera }

// FocusZoomRange returns the camera distance range for a body of the given
// display radius whose satellites reach out to satelliteExtent.
func (c *Controller) FocusZoomRange(displayRadius, satelliteExtent float64) (min, max float64) {
	if !(displayRadius > 0) || math.IsInf(displayRadius, 0) {
		displayRadius = 0
	}
	if !(satelliteExtent > 0) || math.IsInf(satelliteExtent, 0) {
		satelliteExtent = 0
	}
	min = displayRadius * c.camera.MinZoomMultiplier
	max = math.Max(displayRadius*c.camera.MaxZoomMultiplier, satelliteExtent*c.camera.SatelliteExtentFactor)
	if max < min {
		max = min
	}
	return min, max
}

func clamp(r float64) float64 {
	switch {
	case math.IsNaN(r) || r < 0:
		return 0
	case r > 1:
		return 1
	default:
		return r
	}
}
