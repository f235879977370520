package scale

import (
	"fmt"

	"github.com/litescript/ls-orrery/internal/astro"
)

// VisualDefaults are the global constants supplied with a dataset. They
// form the realistic anchor of the scale functions.
type VisualDefaults struct {
	KmPerUnit            float64
	DistanceScale        float64
	RadiusScale          float64
	OrbitSegments        int
	MoonClearance        float64
	PlanetRadiusCutoffKm float64
}

// DefaultVisualDefaults returns a true-to-scale anchor at one scene unit
// per 100,000 km.
func DefaultVisualDefaults() VisualDefaults {
	return VisualDefaults{
		KmPerUnit:            1e5,
		DistanceScale:        1,
		RadiusScale:          1,
		OrbitSegments:        128,
		MoonClearance:        0,
		PlanetRadiusCutoffKm: 15000,
	}
}

// Anchors pairs every interpolated constant with its simulation and
// realistic value and its curve.
type Anchors struct {
	Visual VisualDefaults

	DistanceScale Pair
	RadiusScale   Pair

	StarRadius        Pair
	LargePlanetRadius Pair
	SmallPlanetRadius Pair
	MoonRadius        Pair
	DwarfRadius       Pair
	OtherRadius       Pair

	InnerBias     Pair
	MaxInnerOrder int
	OuterDistance Pair
	MinOuterOrder int

	DwarfCutoffAU float64
	DwarfDistance Pair

	MoonDistance      Pair
	MoonClearance     Pair
	MoonSurfaceAnchor Pair
	PlanetClearance   Pair
}

// DefaultAnchors returns the compressed simulation anchor tuned for the
// embedded solar system, with realistic values taken from v.
func DefaultAnchors(v VisualDefaults) Anchors {
	one := func(sim float64, c Curve) Pair { return Pair{Sim: sim, Real: 1, Curve: c} }
	zero := func(sim float64) Pair { return Pair{Sim: sim, Real: 0, Curve: CurveLinear} }

	return Anchors{
		Visual:        v,
		DistanceScale: Pair{Sim: 0.1, Real: v.DistanceScale, Curve: CurveLog},
		RadiusScale:   Pair{Sim: 50, Real: v.RadiusScale, Curve: CurveLog},

		StarRadius:        one(0.08, CurveLog),
		LargePlanetRadius: one(0.5, CurveLog),
		SmallPlanetRadius: one(1, CurveLinear),
		MoonRadius:        one(1.5, CurveLog),
		DwarfRadius:       one(2, CurveLog),
		OtherRadius:       one(1.5, CurveLog),

		InnerBias:     zero(4),
		MaxInnerOrder: 4,
		OuterDistance: one(0.6, CurveLinear),
		MinOuterOrder: 6,

		DwarfCutoffAU: 30,
		DwarfDistance: one(0.2, CurveLog),

		MoonDistance:      one(40, CurveLog),
		MoonClearance:     Pair{Sim: 2, Real: v.MoonClearance, Curve: CurveLinear},
		MoonSurfaceAnchor: zero(1),
		PlanetClearance:   zero(5),
	}
}

// Params is the scale-parameter bundle at one realism level. It is
// replaced wholesale whenever realism changes.
type Params struct {
	Realism float64

	KmPerUnit     float64
	DistanceScale float64
	RadiusScale   float64

	StarRadiusScale        float64
	LargePlanetRadiusScale float64
	SmallPlanetRadiusScale float64
	MoonRadiusScale        float64
	DwarfRadiusScale       float64
	OtherRadiusScale       float64
	PlanetRadiusCutoffKm   float64

	InnerBias          float64
	MaxInnerOrder      int
	OuterDistanceScale float64
	MinOuterOrder      int

	DwarfCutoffAU      float64
	DwarfDistanceScale float64

	MoonDistanceScale float64
	MoonClearance     float64
	MoonSurfaceAnchor float64
	PlanetClearance   float64
}

// Compute interpolates every anchor pair at realism r.
func Compute(a Anchors, r float64) Params {
	r = clamp01(r)
	return Params{
		Realism:       r,
		KmPerUnit:     a.Visual.KmPerUnit,
		DistanceScale: a.DistanceScale.At(r),
		RadiusScale:   a.RadiusScale.At(r),

		StarRadiusScale:        a.StarRadius.At(r),
		LargePlanetRadiusScale: a.LargePlanetRadius.At(r),
		SmallPlanetRadiusScale: a.SmallPlanetRadius.At(r),
		MoonRadiusScale:        a.MoonRadius.At(r),
		DwarfRadiusScale:       a.DwarfRadius.At(r),
		OtherRadiusScale:       a.OtherRadius.At(r),
		PlanetRadiusCutoffKm:   a.Visual.PlanetRadiusCutoffKm,

		InnerBias:          a.InnerBias.At(r),
		MaxInnerOrder:      a.MaxInnerOrder,
		OuterDistanceScale: a.OuterDistance.At(r),
		MinOuterOrder:      a.MinOuterOrder,

		DwarfCutoffAU:      a.DwarfCutoffAU,
		DwarfDistanceScale: a.DwarfDistance.At(r),

		MoonDistanceScale: a.MoonDistance.At(r),
		MoonClearance:     a.MoonClearance.At(r),
		MoonSurfaceAnchor: a.MoonSurfaceAnchor.At(r),
		PlanetClearance:   a.PlanetClearance.At(r),
	}
}

// UnitsPerAU is the number of scene units in one AU before any scale.
func (p Params) UnitsPerAU() float64 {
	if p.KmPerUnit <= 0 {
		return 0
	}
	return astro.AU / p.KmPerUnit
}

// Check reports anchor combinations under which a display distance or
// radius can stop being monotonic in realism. Terms added or maxed
// together must move the same way; factors multiplied together must move
// the same way unless both are geometric.
func (a Anchors) Check() []string {
	var warnings []string
	product := func(name string, x, y Pair) int {
		dx, dy := x.direction(), y.direction()
		if dx != 0 && dy != 0 && dx != dy && !(x.geometric() && y.geometric()) {
			warnings = append(warnings, fmt.Sprintf("%s: factors move in opposite directions with a linear curve", name))
		}
		return productDirection(x, y)
	}

	radii := []struct {
		name string
		pair Pair
	}{
		{"star", a.StarRadius},
		{"large planet", a.LargePlanetRadius},
		{"small planet", a.SmallPlanetRadius},
		{"moon", a.MoonRadius},
		{"dwarf", a.DwarfRadius},
		{"other", a.OtherRadius},
	}
	radiusDir := make(map[string]int, len(radii))
	for _, rp := range radii {
		radiusDir[rp.name] = product(rp.name+" radius", a.RadiusScale, rp.pair)
	}

	if a.DistanceScale.direction()*a.InnerBias.direction() > 0 {
		warnings = append(warnings, "inner bias moves with distance scale; inner distances can reverse")
	}
	outer := product("outer distance", a.DistanceScale, a.OuterDistance)
	dwarf := product("dwarf distance", a.DistanceScale, a.DwarfDistance)
	if outer != 0 && dwarf != 0 && outer != dwarf {
		warnings = append(warnings, "dwarf distance beyond cutoff moves against the outer distance scale")
	}

	moon := product("moon distance", a.DistanceScale, a.MoonDistance)
	for _, name := range []string{"large planet", "small planet", "dwarf"} {
		if d := radiusDir[name]; d != 0 && moon != 0 && d != moon {
			warnings = append(warnings, fmt.Sprintf("moon distance moves against %s radius; moon floor can take over", name))
		}
	}
	if d := a.MoonClearance.direction(); d != 0 && moon != 0 && d != moon {
		warnings = append(warnings, "moon clearance moves against moon distance")
	}
	if d := a.MoonSurfaceAnchor.direction(); d != 0 && moon != 0 && d != moon {
		warnings = append(warnings, "moon surface anchor moves against moon distance")
	}
	return warnings
}

func productDirection(x, y Pair) int {
	lo, hi := x.Sim*y.Sim, x.Real*y.Real
	switch {
	case hi > lo:
		return 1
	case hi < lo:
		return -1
	default:
		return 0
	}
}

func clamp01(r float64) float64 {
	switch {
	case r != r || r < 0:
		return 0
	case r > 1:
		return 1
	default:
		return r
	}
}
