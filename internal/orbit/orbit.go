// Package orbit propagates Keplerian orbits with a bounded-time solver.
package orbit

import (
	"fmt"
	"math"

	"github.com/soniakeys/unit"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/body"
)

// KeplerIterations is the fixed number of Newton steps used to solve
// Kepler's equation. Enough for e < 0.9 to converge to double precision.
const KeplerIterations = 8

const twoPi = 2 * math.Pi

var (
	axisX = r3.Vec{X: 1}
	axisZ = r3.Vec{Z: 1}
)

// Elements are classical orbital elements. SemiMajorAxis may be in any
// distance unit; positions come back in the same unit. Angles are radians,
// Period is seconds.
type Elements struct {
	SemiMajorAxis      float64
	Eccentricity       float64
	Inclination        float64
	AscendingNode      float64
	PeriapsisArg       float64
	MeanAnomalyAtEpoch float64
	Period             float64
}

// FromSpec returns the elements of a body's orbit in kilometers.
func FromSpec(o body.Orbit) Elements {
	return Elements{
		SemiMajorAxis:      o.SemiMajorAxisKm,
		Eccentricity:       o.Eccentricity,
		Inclination:        o.Inclination,
		AscendingNode:      o.AscendingNode,
		PeriapsisArg:       o.PeriapsisArg,
		MeanAnomalyAtEpoch: o.MeanAnomalyAtEpoch,
		Period:             o.PeriodSeconds,
	}
}

// ValidateElements rejects elements the propagator cannot advance.
func ValidateElements(el Elements) error {
	if !(el.Period > 0) || math.IsInf(el.Period, 0) {
		return fmt.Errorf("%w: period %v", body.ErrInvalidOrbitSpec, el.Period)
	}
	if !(el.SemiMajorAxis > 0) || math.IsInf(el.SemiMajorAxis, 0) {
		return fmt.Errorf("%w: semi-major axis %v", body.ErrInvalidOrbitSpec, el.SemiMajorAxis)
	}
	return nil
}

// Result is a propagated state relative to the primary.
type Result struct {
	Position         astro.Vec3
	TrueAnomaly      float64
	EccentricAnomaly float64
	MeanAnomaly      float64
	Radius           float64
	// Degenerate is set when the solver produced a non-finite value and
	// the circular fallback was used instead.
	Degenerate bool
}

// Propagate returns the body-centered position at simulatedSeconds past
// epoch. It always returns in bounded time and never returns NaN for
// finite elements.
func Propagate(el Elements, simulatedSeconds float64) Result {
	M := MeanAnomaly(el, simulatedSeconds)
	e := el.Eccentricity

	var E, nu, radius float64
	if e == 0 {
		E, nu, radius = M, M, el.SemiMajorAxis
	} else {
		E = SolveKepler(M, e)
		nu = trueAnomaly(E, e)
		radius = el.SemiMajorAxis * (1 - e*math.Cos(E))
	}

	res := Result{
		TrueAnomaly:      nu,
		EccentricAnomaly: E,
		MeanAnomaly:      M,
		Radius:           radius,
	}
	res.Position = orient(el, radius*math.Cos(nu), radius*math.Sin(nu))

	if !res.Position.IsFinite() || !isFinite(nu) || !isFinite(radius) {
		return circular(el, M)
	}
	return res
}

// MeanAnomaly returns M at simulatedSeconds in [0, 2π). The orbit count is
// reduced to its fractional part before scaling so huge times stay stable.
func MeanAnomaly(el Elements, simulatedSeconds float64) float64 {
	orbits := simulatedSeconds / el.Period
	if !isFinite(orbits) {
		orbits = 0
	}
	frac := orbits - math.Floor(orbits)
	return wrap(el.MeanAnomalyAtEpoch + twoPi*frac)
}

// SolveKepler solves M = E - e·sin(E) for E with KeplerIterations Newton
// steps. The starting guess is M for e < 0.8 and π otherwise.
func SolveKepler(M, e float64) float64 {
	if e == 0 {
		return M
	}
	E := M
	if e >= 0.8 {
		E = math.Pi
	}
	for i := 0; i < KeplerIterations; i++ {
		f := E - e*math.Sin(E) - M
		fp := 1 - e*math.Cos(E)
		E -= f / fp
	}
	return E
}

func trueAnomaly(E, e float64) float64 {
	half := E / 2
	return wrap(2 * math.Atan2(math.Sqrt(1+e)*math.Sin(half), math.Sqrt(1-e)*math.Cos(half)))
}

// OrbitPath samples one full revolution as segments points, evenly spaced
// in eccentric anomaly.
func OrbitPath(el Elements, segments int) []astro.Vec3 {
	if segments < 3 {
		segments = 3
	}
	a, e := el.SemiMajorAxis, el.Eccentricity
	b := a * math.Sqrt(1-e*e)
	pts := make([]astro.Vec3, 0, segments)
	for i := 0; i < segments; i++ {
		E := twoPi * float64(i) / float64(segments)
		p := orient(el, a*(math.Cos(E)-e), b*math.Sin(E))
		if !p.IsFinite() {
			continue
		}
		pts = append(pts, p)
	}
	return pts
}

// orient applies the 3-1-3 sequence ω about z, i about x, Ω about z to a
// point in the orbital plane.
func orient(el Elements, x, y float64) astro.Vec3 {
	p := r3.Vec{X: x, Y: y}
	if el.PeriapsisArg != 0 {
		p = r3.NewRotation(el.PeriapsisArg, axisZ).Rotate(p)
	}
	if el.Inclination != 0 {
		p = r3.NewRotation(el.Inclination, axisX).Rotate(p)
	}
	if el.AscendingNode != 0 {
		p = r3.NewRotation(el.AscendingNode, axisZ).Rotate(p)
	}
	return astro.Vec3{X: p.X, Y: p.Y, Z: p.Z}
}

func circular(el Elements, M float64) Result {
	if !isFinite(M) {
		M = 0
	}
	a := el.SemiMajorAxis
	if !isFinite(a) {
		a = 0
	}
	res := Result{
		TrueAnomaly:      M,
		EccentricAnomaly: M,
		MeanAnomaly:      M,
		Radius:           a,
		Degenerate:       true,
	}
	flat := el
	flat.SemiMajorAxis = a
	res.Position = orient(sanitized(flat), a*math.Cos(M), a*math.Sin(M))
	if !res.Position.IsFinite() {
		res.Position = astro.Vec3{X: a * math.Cos(M), Y: a * math.Sin(M)}
	}
	return res
}

func sanitized(el Elements) Elements {
	for _, v := range []*float64{&el.Inclination, &el.AscendingNode, &el.PeriapsisArg} {
		if !isFinite(*v) {
			*v = 0
		}
	}
	return el
}

// wrap reduces a to [0, 2π). Tiny negative inputs round up to exactly 2π
// after the modulo and are folded back to 0.
func wrap(a float64) float64 {
	a = unit.Angle(a).Mod1().Rad()
	if a >= twoPi {
		return 0
	}
	return a
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
