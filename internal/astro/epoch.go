package astro

import (
	"fmt"
	"math"
	"time"
)

// J2000 is the reference epoch (2000-01-01 12:00 TT, treated as UTC here).
var J2000 = time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)

// SecondsSinceJ2000 returns the number of seconds between J2000 and t.
func SecondsSinceJ2000(t time.Time) float64 {
	return (julianDate(t) - 2451545.0) * 86400
}

// TimeFromSecondsSinceJ2000 converts an offset from J2000 back to a wall-clock time.
// Offsets beyond the range of time.Duration are clamped.
func TimeFromSecondsSinceJ2000(s float64) time.Time {
	if s > maxOffsetSeconds {
		s = maxOffsetSeconds
	} else if s < -maxOffsetSeconds {
		s = -maxOffsetSeconds
	}
	whole := math.Trunc(s)
	frac := s - whole
	return J2000.Add(time.Duration(whole) * time.Second).Add(time.Duration(frac * float64(time.Second)))
}

// julianYear is the length of a Julian year in seconds.
const julianYear = 365.25 * 86400

// maxOffsetSeconds is the largest offset TimeFromSecondsSinceJ2000 can
// represent without clamping.
const maxOffsetSeconds = float64(math.MaxInt64) / float64(time.Second)

// FormatSimulatedDate formats an offset from J2000 with layout. Offsets
// outside the representable range fall back to an approximate year such
// as "~2512 CE" so a display keeps moving where the clock saturates.
func FormatSimulatedDate(s float64, layout string) string {
	if math.IsNaN(s) {
		return "-"
	}
	if s >= -maxOffsetSeconds && s <= maxOffsetSeconds {
		return TimeFromSecondsSinceJ2000(s).UTC().Format(layout)
	}
	year := math.Floor(2000 + s/julianYear)
	if math.IsInf(year, 0) || math.Abs(year) > 1e15 {
		return fmt.Sprintf("~%.3g years from J2000", s/julianYear)
	}
	if year <= 0 {
		return fmt.Sprintf("~%.0f BCE", 1-year)
	}
	return fmt.Sprintf("~%.0f CE", year)
}

// julianDate calculates the Julian Date for a given time.
func julianDate(t time.Time) float64 {
	t = t.UTC()

	y := float64(t.Year())
	m := float64(t.Month())
	d := float64(t.Day())

	h := float64(t.Hour())
	min := float64(t.Minute())
	sec := float64(t.Second())
	ns := float64(t.Nanosecond())

	dayFrac := (h + min/60 + sec/3600 + ns/3600e9) / 24.0

	// Adjust for January/February (treat as months 13/14 of previous year)
	if m <= 2 {
		y--
		m += 12
	}

	// Gregorian calendar correction
	A := math.Floor(y / 100)
	B := 2 - A + math.Floor(A/4)

	return math.Floor(365.25*(y+4716)) +
		math.Floor(30.6001*(m+1)) +
		d + dayFrac + B - 1524.5
}
