package scale

import (
	"fmt"
	"math"
	"strings"
)

// Curve selects how a constant moves between its simulation and
// realistic values as realism goes from 0 to 1.
type Curve int

const (
	CurveLinear Curve = iota
	// CurveLog interpolates geometrically. It falls back to linear when
	// either endpoint is not positive.
	CurveLog
)

func (c Curve) String() string {
	if c == CurveLog {
		return "log"
	}
	return "linear"
}

// ParseCurve parses "linear" or "log".
func ParseCurve(s string) (Curve, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear", "lin", "":
		return CurveLinear, nil
	case "log", "logarithmic", "geometric":
		return CurveLog, nil
	default:
		return CurveLinear, fmt.Errorf("unknown curve %q", s)
	}
}

// Pair holds the two anchors of a tunable constant.
type Pair struct {
	Sim   float64
	Real  float64
	Curve Curve
}

// At returns the constant at realism r, clamped to [0, 1]. The endpoints
// are returned exactly.
func (p Pair) At(r float64) float64 {
	switch {
	case math.IsNaN(r) || r <= 0:
		return p.Sim
	case r >= 1:
		return p.Real
	}
	if p.Curve == CurveLog && p.Sim > 0 && p.Real > 0 {
		return p.Sim * math.Pow(p.Real/p.Sim, r)
	}
	return p.Sim + (p.Real-p.Sim)*r
}

// direction is +1 if the pair grows with realism, -1 if it shrinks and 0
// if it is constant.
func (p Pair) direction() int {
	switch {
	case p.Real > p.Sim:
		return 1
	case p.Real < p.Sim:
		return -1
	default:
		return 0
	}
}

func (p Pair) geometric() bool {
	return p.Curve == CurveLog && p.Sim > 0 && p.Real > 0
}
