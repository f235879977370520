// Package dataset loads body catalogs from JSON documents.
package dataset

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/soniakeys/unit"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/body"
)

//go:embed data/solar_system.json
var solarSystemJSON []byte

// internal JSON shapes, kept unexported so the file format can evolve.
type documentJSON struct {
	Bodies []bodyJSON `json:"bodies"`
}

type bodyJSON struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Category  string        `json:"category"`
	Primary   string        `json:"primary"`
	Reference bool          `json:"reference"`
	Order     int           `json:"order"`
	Orbit     *orbitJSON    `json:"orbit"`
	Physical  *physicalJSON `json:"physical"`
}

type orbitJSON struct {
	SemiMajorAxis     float64 `json:"semi_major_axis"`
	SemiMajorAxisUnit string  `json:"semi_major_axis_unit"` // "au" | "km"
	Eccentricity      float64 `json:"eccentricity"`
	InclinationDeg    float64 `json:"inclination_deg"`
	AscendingNodeDeg  float64 `json:"ascending_node_deg"`
	PeriapsisArgDeg   float64 `json:"periapsis_arg_deg"`
	MeanAnomalyDeg    float64 `json:"mean_anomaly_deg"`
	Period            float64 `json:"period"`
	PeriodUnit        string  `json:"period_unit"` // "days" | "years" | "hours" | "seconds"
}

type physicalJSON struct {
	RadiusKm            float64 `json:"radius_km"`
	AxialTiltDeg        float64 `json:"axial_tilt_deg"`
	RotationPeriodHours float64 `json:"rotation_period_hours"`
	Retrograde          bool    `json:"retrograde"`
}

const (
	secondsPerHour = 3600.0
	secondsPerDay  = 86400.0
	// Julian year.
	secondsPerYear = 365.25 * secondsPerDay
)

// Load decodes a dataset and builds a validated catalog. Malformed JSON
// fails the whole load before any body is built; a body with unknown units
// or category is excluded and reported.
func Load(r io.Reader, reporter body.Reporter) (*body.Catalog, error) {
	if reporter == nil {
		reporter = body.Discard
	}

	var doc documentJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("dataset: decode failed: %w", err)
	}
	if len(doc.Bodies) == 0 {
		return nil, fmt.Errorf("dataset: %w: document has no bodies", body.ErrNoReference)
	}

	specs := make([]body.Spec, 0, len(doc.Bodies))
	for _, bj := range doc.Bodies {
		spec, err := bj.toSpec()
		if err != nil {
			reporter.Report(body.Issue{Severity: body.SeverityError, BodyID: bj.ID, Err: err})
			continue
		}
		specs = append(specs, spec)
	}

	cat, err := body.NewCatalog(specs, reporter)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	return cat, nil
}

// LoadFile loads a dataset from path.
func LoadFile(path string, reporter body.Reporter) (*body.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	defer f.Close()
	return Load(f, reporter)
}

// Default loads the embedded solar system: the Sun, eight planets, three
// dwarf planets and their major moons.
func Default(reporter body.Reporter) (*body.Catalog, error) {
	return Load(bytes.NewReader(solarSystemJSON), reporter)
}

func (bj bodyJSON) toSpec() (body.Spec, error) {
	cat, err := body.ParseCategory(bj.Category)
	if err != nil {
		return body.Spec{}, fmt.Errorf("%w: %v", body.ErrInvalidOrbitSpec, err)
	}

	spec := body.Spec{
		ID:               bj.ID,
		DisplayName:      bj.Name,
		Category:         cat,
		PrimaryID:        bj.Primary,
		IsReference:      bj.Reference,
		OrderFromPrimary: bj.Order,
	}

	if bj.Physical != nil {
		spec.Physical = body.Physical{
			RadiusKm:            bj.Physical.RadiusKm,
			AxialTiltDeg:        bj.Physical.AxialTiltDeg,
			RotationPeriodHours: bj.Physical.RotationPeriodHours,
			Retrograde:          bj.Physical.Retrograde,
		}
	}

	if bj.Orbit == nil {
		if !bj.Reference {
			return body.Spec{}, fmt.Errorf("%w: orbit missing", body.ErrInvalidOrbitSpec)
		}
		return spec, nil
	}

	o := bj.Orbit
	axisKm, srcUnit, err := axisToKm(o.SemiMajorAxis, o.SemiMajorAxisUnit)
	if err != nil {
		return body.Spec{}, err
	}
	periodSec, err := periodToSeconds(o.Period, o.PeriodUnit)
	if err != nil {
		return body.Spec{}, err
	}

	spec.Orbit = body.Orbit{
		SemiMajorAxisKm:    axisKm,
		SourceUnit:         srcUnit,
		Eccentricity:       o.Eccentricity,
		Inclination:        unit.AngleFromDeg(o.InclinationDeg).Rad(),
		AscendingNode:      unit.AngleFromDeg(o.AscendingNodeDeg).Mod1().Rad(),
		PeriapsisArg:       unit.AngleFromDeg(o.PeriapsisArgDeg).Mod1().Rad(),
		MeanAnomalyAtEpoch: unit.AngleFromDeg(o.MeanAnomalyDeg).Mod1().Rad(),
		PeriodSeconds:      periodSec,
	}
	return spec, nil
}

func axisToKm(v float64, u string) (float64, body.DistanceUnit, error) {
	switch strings.ToLower(u) {
	case "au", "":
		return v * astro.AU, body.UnitAU, nil
	case "km":
		return v, body.UnitKm, nil
	default:
		return 0, 0, fmt.Errorf("%w: unknown distance unit %q", body.ErrInvalidOrbitSpec, u)
	}
}

func periodToSeconds(v float64, u string) (float64, error) {
	switch strings.ToLower(u) {
	case "days", "day", "d", "":
		return v * secondsPerDay, nil
	case "years", "year", "y":
		return v * secondsPerYear, nil
	case "hours", "hour", "h":
		return v * secondsPerHour, nil
	case "seconds", "second", "s":
		return v, nil
	default:
		return 0, fmt.Errorf("%w: unknown period unit %q", body.ErrInvalidOrbitSpec, u)
	}
}
