// Package scale maps physical distances and radii into scene units,
// blending compressed and true-to-scale regimes by a realism level.
package scale

import (
	"math"

	"github.com/litescript/ls-orrery/internal/body"
)

// Bucket is the radius class a body falls into.
type Bucket int

const (
	BucketStar Bucket = iota
	BucketLargePlanet
	BucketSmallPlanet
	BucketMoon
	BucketDwarf
	BucketOther
)

func (b Bucket) String() string {
	return [...]string{"star", "large-planet", "small-planet", "moon", "dwarf", "other"}[b]
}

// RadiusBucket classifies a body. Planets at or above the radius cutoff
// are large.
func RadiusBucket(c body.Category, rawKm float64, p Params) Bucket {
	switch c {
	case body.CategoryStar:
		return BucketStar
	case body.CategoryPlanet:
		if rawKm >= p.PlanetRadiusCutoffKm {
			return BucketLargePlanet
		}
		return BucketSmallPlanet
	case body.CategoryMoon:
		return BucketMoon
	case body.CategoryDwarf:
		return BucketDwarf
	default:
		return BucketOther
	}
}

func (p Params) bucketScale(b Bucket) float64 {
	switch b {
	case BucketStar:
		return p.StarRadiusScale
	case BucketLargePlanet:
		return p.LargePlanetRadiusScale
	case BucketSmallPlanet:
		return p.SmallPlanetRadiusScale
	case BucketMoon:
		return p.MoonRadiusScale
	case BucketDwarf:
		return p.DwarfRadiusScale
	default:
		return p.OtherRadiusScale
	}
}

// MapRadius returns the display radius of a body of physical radius rawKm.
func MapRadius(c body.Category, rawKm float64, p Params) float64 {
	if p.KmPerUnit <= 0 {
		return 0
	}
	rawKm = nonNegative(rawKm)
	return nonNegative(rawKm / p.KmPerUnit * p.RadiusScale * p.bucketScale(RadiusBucket(c, rawKm, p)))
}

// MapDistance returns the display distance of a body rawAU from its
// primary. Bodies orbiting the reference get the inner bias, outer
// multiplier and dwarf cutoff; everything else is treated as a moon and
// kept outside the primary's disc. The result is finite and >= 0.
func MapDistance(c body.Category, order int, rawAU, primaryDisplayRadius float64, orbitsReference bool, p Params) float64 {
	rawAU = nonNegative(rawAU)
	primaryDisplayRadius = nonNegative(primaryDisplayRadius)

	if !orbitsReference {
		return moonDistance(order, rawAU, primaryDisplayRadius, p)
	}

	d := primaryDistance(c, order, rawAU, p)
	return nonNegative(math.Max(d, primaryDisplayRadius+p.PlanetClearance))
}

func primaryDistance(c body.Category, order int, rawAU float64, p Params) float64 {
	unit := p.UnitsPerAU() * p.DistanceScale

	knee, beyond := rawAU, 0.0
	if c == body.CategoryDwarf && p.DwarfCutoffAU > 0 && rawAU > p.DwarfCutoffAU {
		knee = p.DwarfCutoffAU
		beyond = (rawAU - p.DwarfCutoffAU) * unit * p.DwarfDistanceScale
	}

	base := knee * unit
	switch {
	case order >= p.MinOuterOrder:
		base *= p.OuterDistanceScale
	case order <= p.MaxInnerOrder:
		rank := order
		if rank < 1 {
			rank = 1
		}
		base -= p.InnerBias * float64(p.MaxInnerOrder-rank)
	}
	return base + beyond
}

func moonDistance(order int, rawAU, primaryR float64, p Params) float64 {
	rank := order
	if rank < 1 {
		rank = 1
	}
	d := rawAU*p.UnitsPerAU()*p.DistanceScale*p.MoonDistanceScale + p.MoonSurfaceAnchor*primaryR
	floor := primaryR + nonNegative(p.MoonClearance)*float64(rank)
	return nonNegative(math.Max(d, floor))
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if math.IsInf(v, 1) {
		return math.MaxFloat64
	}
	return v
}
