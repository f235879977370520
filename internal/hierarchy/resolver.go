// Package hierarchy composes orbital offsets down the primary tree into
// world-space display transforms.
package hierarchy

import (
	"errors"
	"fmt"
	"math"

	"github.com/soniakeys/unit"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/body"
	"github.com/litescript/ls-orrery/internal/orbit"
	"github.com/litescript/ls-orrery/internal/scale"
)

// ErrPrimaryNotResolved is reported when a body's primary has no
// transform in the current pass.
var ErrPrimaryNotResolved = errors.New("primary not resolved")

// ErrDegenerateOrbit is reported when the propagator fell back to
// circular motion.
var ErrDegenerateOrbit = errors.New("degenerate orbit")

// Source is the read side of a body catalog.
type Source interface {
	Order() []string
	Get(id string) (*body.Spec, bool)
}

// Transform is a body's resolved display state.
type Transform struct {
	Position        astro.Vec3 // world, scene units
	Offset          astro.Vec3 // from primary, scene units
	SpinAngle       float64    // radians
	DisplayRadius   float64
	DisplayDistance float64
	TrueAnomaly     float64
	Tilt            float64 // axial tilt, radians
}

// Resolver resolves a whole catalog per pass. It remembers failures so
// each one is reported once until the body resolves again.
type Resolver struct {
	AlignMoonsToPrimaryTilt bool

	failed map[failure]error
}

type failureKind int

const (
	failPrimary failureKind = iota
	failDegenerate
	failPosition
)

type failure struct {
	id   string
	kind failureKind
}

// NewResolver creates a resolver.
func NewResolver(alignMoons bool) *Resolver {
	return &Resolver{
		AlignMoonsToPrimaryTilt: alignMoons,
		failed:                  make(map[failure]error),
	}
}

// Reset forgets remembered failures.
func (r *Resolver) Reset() {
	r.failed = make(map[failure]error)
}

// Resolve computes a transform for every body in src.Order() at
// simulatedSeconds. Bodies whose primary is missing from the pass are
// skipped; the rest of the tree still resolves.
func (r *Resolver) Resolve(src Source, simulatedSeconds float64, p scale.Params, reporter body.Reporter) map[string]Transform {
	if reporter == nil {
		reporter = body.Discard
	}
	order := src.Order()
	out := make(map[string]Transform, len(order))

	for _, id := range order {
		spec, ok := src.Get(id)
		if !ok {
			continue
		}

		tr := Transform{
			SpinAngle:     SpinAngle(spec.Physical, simulatedSeconds),
			DisplayRadius: scale.MapRadius(spec.Category, spec.Physical.RadiusKm, p),
			Tilt:          unit.AngleFromDeg(spec.Physical.AxialTiltDeg).Rad(),
		}
		if spec.IsReference {
			out[id] = tr
			continue
		}

		parent, ok := out[spec.PrimaryID]
		parentSpec, specOK := src.Get(spec.PrimaryID)
		if !ok || !specOK {
			r.fail(reporter, failure{id, failPrimary}, body.SeverityError,
				fmt.Errorf("%w: %w: %q", ErrPrimaryNotResolved, body.ErrMissingPrimary, spec.PrimaryID))
			continue
		}
		delete(r.failed, failure{id, failPrimary})

		res := orbit.Propagate(orbit.FromSpec(spec.Orbit), simulatedSeconds)
		if res.Degenerate {
			r.fail(reporter, failure{id, failDegenerate}, body.SeverityWarning,
				fmt.Errorf("%w: circular fallback", ErrDegenerateOrbit))
		} else {
			delete(r.failed, failure{id, failDegenerate})
		}

		orbitsRef := parentSpec.IsReference
		dist := scale.MapDistance(spec.Category, spec.OrderFromPrimary, res.Radius/astro.AU, parent.DisplayRadius, orbitsRef, p)
		dir := r.direction(res.Position, parentSpec, orbitsRef)

		tr.Offset = dir.Scale(dist)
		tr.Position = parent.Position.Add(tr.Offset)
		tr.DisplayDistance = dist
		tr.TrueAnomaly = res.TrueAnomaly
		if !tr.Position.IsFinite() {
			r.fail(reporter, failure{id, failPosition}, body.SeverityWarning,
				fmt.Errorf("%w: non-finite position, pinned to primary", body.ErrClamped))
			tr.Offset = astro.Vec3{}
			tr.Position = parent.Position
		} else {
			delete(r.failed, failure{id, failPosition})
		}
		out[id] = tr
	}
	return out
}

func (r *Resolver) fail(reporter body.Reporter, key failure, sev body.Severity, err error) {
	if _, seen := r.failed[key]; seen {
		return
	}
	if r.failed == nil {
		r.failed = make(map[failure]error)
	}
	r.failed[key] = err
	reporter.Report(body.Issue{Severity: sev, BodyID: key.id, Err: err})
}

// direction returns the unit offset direction, optionally tilted into the
// primary's equatorial plane for satellites.
func (r *Resolver) direction(pos astro.Vec3, primary *body.Spec, orbitsRef bool) astro.Vec3 {
	dir := pos.Normalized()
	if dir == (astro.Vec3{}) {
		dir = astro.Vec3{X: 1}
	}
	if r.AlignMoonsToPrimaryTilt && !orbitsRef {
		dir = tilt(dir, primary.Physical.AxialTiltDeg)
	}
	return dir
}

func tilt(v astro.Vec3, deg float64) astro.Vec3 {
	if deg == 0 {
		return v
	}
	rot := r3.NewRotation(unit.AngleFromDeg(deg).Rad(), r3.Vec{X: 1})
	p := rot.Rotate(r3.Vec{X: v.X, Y: v.Y, Z: v.Z})
	return astro.Vec3{X: p.X, Y: p.Y, Z: p.Z}
}

// SpinAngle returns the rotation angle at simulatedSeconds, wrapped to one
// turn and negated for retrograde rotators. A zero period does not spin.
func SpinAngle(ph body.Physical, simulatedSeconds float64) float64 {
	period := ph.RotationPeriodSeconds()
	if period == 0 || math.IsNaN(simulatedSeconds) || math.IsInf(simulatedSeconds, 0) {
		return 0
	}
	turns := simulatedSeconds / period
	a := unit.Angle((turns - math.Floor(turns)) * 2 * math.Pi).Mod1().Rad()
	if ph.SpinsRetrograde() {
		return -a
	}
	return a
}

// OrbitLine returns the display-space orbit of id around its primary's
// current position, for drawing orbit rings.
func (r *Resolver) OrbitLine(src Source, id string, p scale.Params, transforms map[string]Transform, segments int) []astro.Vec3 {
	spec, ok := src.Get(id)
	if !ok || spec.IsReference {
		return nil
	}
	parent, ok := transforms[spec.PrimaryID]
	parentSpec, specOK := src.Get(spec.PrimaryID)
	if !ok || !specOK {
		return nil
	}
	orbitsRef := parentSpec.IsReference

	path := orbit.OrbitPath(orbit.FromSpec(spec.Orbit), segments)
	out := make([]astro.Vec3, 0, len(path))
	for _, pt := range path {
		d := scale.MapDistance(spec.Category, spec.OrderFromPrimary, pt.Norm()/astro.AU, parent.DisplayRadius, orbitsRef, p)
		out = append(out, parent.Position.Add(r.direction(pt, parentSpec, orbitsRef).Scale(d)))
	}
	return out
}
