// Package body defines immutable celestial body specifications and the
// validated catalog that orders them for resolution.
package body

import (
	"fmt"
	"strings"

	"github.com/litescript/ls-orrery/internal/astro"
)

// Category classifies a body for scale mapping.
type Category int

const (
	CategoryStar Category = iota
	CategoryPlanet
	CategoryDwarf
	CategoryMoon
	CategoryOther
	CategoryHypothetical
)

func (c Category) String() string {
	switch c {
	case CategoryStar:
		return "star"
	case CategoryPlanet:
		return "planet"
	case CategoryDwarf:
		return "dwarf"
	case CategoryMoon:
		return "moon"
	case CategoryOther:
		return "other"
	case CategoryHypothetical:
		return "hypothetical"
	default:
		return "unknown"
	}
}

// ParseCategory parses a category name. Matching is case-insensitive.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "star":
		return CategoryStar, nil
	case "planet":
		return CategoryPlanet, nil
	case "dwarf", "dwarf_planet", "dwarf-planet":
		return CategoryDwarf, nil
	case "moon", "satellite":
		return CategoryMoon, nil
	case "other":
		return CategoryOther, nil
	case "hypothetical":
		return CategoryHypothetical, nil
	default:
		return CategoryOther, fmt.Errorf("unknown category %q", s)
	}
}

// DistanceUnit records which unit a semi-major axis was supplied in.
type DistanceUnit int

const (
	UnitAU DistanceUnit = iota
	UnitKm
)

func (u DistanceUnit) String() string {
	if u == UnitKm {
		return "km"
	}
	return "au"
}

// Orbit holds Keplerian elements. Distances are kilometers, angles radians,
// and the period is in seconds.
type Orbit struct {
	SemiMajorAxisKm    float64
	SourceUnit         DistanceUnit
	Eccentricity       float64
	Inclination        float64
	AscendingNode      float64
	PeriapsisArg       float64
	MeanAnomalyAtEpoch float64
	PeriodSeconds      float64
}

// Physical holds the physical parameters of a body.
type Physical struct {
	RadiusKm            float64
	AxialTiltDeg        float64
	RotationPeriodHours float64
	Retrograde          bool
}

// RotationPeriodSeconds returns the absolute rotation period in seconds.
func (p Physical) RotationPeriodSeconds() float64 {
	h := p.RotationPeriodHours
	if h < 0 {
		h = -h
	}
	return h * 3600
}

// SpinsRetrograde reports whether the body rotates backwards, either by
// explicit flag or by a negative rotation period.
func (p Physical) SpinsRetrograde() bool {
	return p.Retrograde || p.RotationPeriodHours < 0
}

// Spec is the immutable description of a body as loaded from a dataset.
type Spec struct {
	ID               string
	DisplayName      string
	Category         Category
	PrimaryID        string
	IsReference      bool
	OrderFromPrimary int
	Orbit            Orbit
	Physical         Physical
}

// Name returns the display name, falling back to the id.
func (s *Spec) Name() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.ID
}

// SemiMajorAxisAU returns the semi-major axis in AU.
func (s *Spec) SemiMajorAxisAU() float64 {
	return astro.KmToAU(s.Orbit.SemiMajorAxisKm)
}
