package astro

import (
	"math"
	"testing"
	"time"
)

func TestJulianDate(t *testing.T) {
	tests := []struct {
		name     string
		time     time.Time
		expected float64
	}{
		{"J2000 epoch", time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC), 2451545.0},
		{"Unix epoch", time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), 2440587.5},
		{"2024-01-01 00:00 UTC", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 2460310.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := julianDate(tt.time)
			if math.Abs(got-tt.expected) > 0.0001 {
				t.Errorf("julianDate() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSecondsSinceJ2000(t *testing.T) {
	if got := SecondsSinceJ2000(J2000); math.Abs(got) > 1e-3 {
		t.Errorf("SecondsSinceJ2000(J2000) = %v, want 0", got)
	}

	oneDay := J2000.Add(24 * time.Hour)
	if got := SecondsSinceJ2000(oneDay); math.Abs(got-86400) > 1e-3 {
		t.Errorf("SecondsSinceJ2000(+1d) = %v, want 86400", got)
	}
}

func TestTimeFromSecondsSinceJ2000(t *testing.T) {
	want := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	got := TimeFromSecondsSinceJ2000(SecondsSinceJ2000(want))
	if d := got.Sub(want); d > time.Millisecond || d < -time.Millisecond {
		t.Errorf("roundtrip = %v, want %v", got, want)
	}

	// Huge offsets clamp instead of overflowing.
	far := TimeFromSecondsSinceJ2000(1e30)
	if far.Before(J2000) {
		t.Errorf("clamped far future should be after J2000, got %v", far)
	}
}

func TestFormatSimulatedDate(t *testing.T) {
	const layout = "2006-01-02"
	tests := []struct {
		name string
		s    float64
		want string
	}{
		{"epoch", 0, "2000-01-01"},
		{"in range", SecondsSinceJ2000(time.Date(2150, 3, 1, 0, 0, 0, 0, time.UTC)), "2150-03-01"},
		{"past clamp", 500 * julianYear, "~2500 CE"},
		{"far past clamp", 10000 * julianYear, "~12000 CE"},
		{"before clamp", -2500 * julianYear, "~501 BCE"},
		{"astronomical", 1e300, "~3.17e+292 years from J2000"},
		{"nan", math.NaN(), "-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatSimulatedDate(tt.s, layout); got != tt.want {
				t.Errorf("FormatSimulatedDate(%g) = %q, want %q", tt.s, got, tt.want)
			}
		})
	}
}

func TestFormatSimulatedDateKeepsMoving(t *testing.T) {
	// Beyond the clamp the clamped time stops, the formatted year does not.
	a := FormatSimulatedDate(400*julianYear, "2006")
	b := FormatSimulatedDate(800*julianYear, "2006")
	if a == b {
		t.Errorf("dates past the clamp should differ, both %q", a)
	}
}
