package dataset

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/body"
)

const twoBody = `{"bodies":[
  {"id":"sun","category":"star","reference":true,"physical":{"radius_km":695700}},
  {"id":"earth","category":"planet","primary":"sun","order":3,
   "orbit":{"semi_major_axis":1,"semi_major_axis_unit":"au","period":365.25,"period_unit":"days"},
   "physical":{"radius_km":6371,"rotation_period_hours":24}}
]}`

func TestLoadTwoBody(t *testing.T) {
	cat, err := Load(strings.NewReader(twoBody), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cat.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", cat.Len())
	}
	earth, ok := cat.Get("earth")
	if !ok {
		t.Fatal("earth missing")
	}
	if math.Abs(earth.Orbit.SemiMajorAxisKm-astro.AU) > 1e-6 {
		t.Errorf("SemiMajorAxisKm = %v, want %v", earth.Orbit.SemiMajorAxisKm, astro.AU)
	}
	if earth.Orbit.SourceUnit != body.UnitAU {
		t.Errorf("SourceUnit = %v, want au", earth.Orbit.SourceUnit)
	}
	if math.Abs(earth.Orbit.PeriodSeconds-365.25*86400) > 1e-6 {
		t.Errorf("PeriodSeconds = %v", earth.Orbit.PeriodSeconds)
	}
}

func TestUnitConversion(t *testing.T) {
	tests := []struct {
		unit string
		v    float64
		want float64
	}{
		{"days", 1, 86400},
		{"years", 1, 365.25 * 86400},
		{"hours", 2, 7200},
		{"seconds", 42, 42},
	}
	for _, tt := range tests {
		t.Run(tt.unit, func(t *testing.T) {
			got, err := periodToSeconds(tt.v, tt.unit)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("periodToSeconds(%v, %s) = %v, want %v", tt.v, tt.unit, got, tt.want)
			}
		})
	}

	km, u, err := axisToKm(384400, "km")
	if err != nil || km != 384400 || u != body.UnitKm {
		t.Errorf("axisToKm(km) = %v, %v, %v", km, u, err)
	}
}

func TestLoadExcludesBadBodies(t *testing.T) {
	doc := `{"bodies":[
	  {"id":"sun","category":"star","reference":true,"physical":{"radius_km":695700}},
	  {"id":"a","category":"planet","primary":"sun","order":1,
	   "orbit":{"semi_major_axis":1,"semi_major_axis_unit":"parsec","period":1,"period_unit":"years"}},
	  {"id":"b","category":"planet","primary":"sun","order":2,
	   "orbit":{"semi_major_axis":1,"period":1,"period_unit":"fortnights"}},
	  {"id":"c","category":"comet","primary":"sun","order":3,
	   "orbit":{"semi_major_axis":1,"period":1}},
	  {"id":"d","category":"planet","primary":"sun","order":4,
	   "orbit":{"semi_major_axis":1,"period":-3}},
	  {"id":"e","category":"planet","primary":"sun","order":5}
	]}`

	var issues body.IssueList
	cat, err := Load(strings.NewReader(doc), &issues)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cat.Len() != 1 {
		t.Errorf("Len() = %d, want only the reference", cat.Len())
	}
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		if !issues.Has(id, body.ErrInvalidOrbitSpec) {
			t.Errorf("no invalid-orbit issue for %s", id)
		}
	}
}

func TestLoadFailsFast(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{"malformed", `{"bodies":[{"id":`, nil},
		{"empty", `{"bodies":[]}`, body.ErrNoReference},
		{"no star", `{"bodies":[{"id":"x","category":"planet","primary":"y","orbit":{"semi_major_axis":1,"period":1}}]}`, body.ErrNoReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc), nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	var issues body.IssueList
	cat, err := Default(&issues)
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if len(issues.Issues) != 0 {
		t.Errorf("embedded dataset reported issues: %v", issues.Issues)
	}
	if ref := cat.Reference(); ref.ID != "sun" {
		t.Errorf("Reference() = %s, want sun", ref.ID)
	}
	for _, id := range []string{"mercury", "earth", "jupiter", "neptune", "pluto", "moon", "io", "titan", "triton", "charon"} {
		if _, ok := cat.Get(id); !ok {
			t.Errorf("%s missing from default dataset", id)
		}
	}

	triton, _ := cat.Get("triton")
	if !triton.Physical.SpinsRetrograde() {
		t.Error("triton should spin retrograde")
	}
	if triton.Orbit.Inclination < math.Pi/2 {
		t.Errorf("triton inclination = %v rad, want retrograde (> pi/2)", triton.Orbit.Inclination)
	}
}
