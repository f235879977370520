package astro

import (
	"math"
	"testing"
)

func TestVec3Norm(t *testing.T) {
	tests := []struct {
		name string
		v    Vec3
		want float64
	}{
		{"zero", Vec3{0, 0, 0}, 0},
		{"unit x", Vec3{1, 0, 0}, 1},
		{"unit z", Vec3{0, 0, 1}, 1},
		{"3-4-5", Vec3{3, 4, 0}, 5},
		{"negative", Vec3{-3, -4, 0}, 5},
		{"3D", Vec3{1, 2, 2}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.v.Norm()
			if math.Abs(got-tt.want) > 1e-10 {
				t.Errorf("Norm() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVec3Normalized(t *testing.T) {
	tests := []struct {
		name string
		v    Vec3
		want Vec3
	}{
		{"unit x", Vec3{5, 0, 0}, Vec3{1, 0, 0}},
		{"unit y", Vec3{0, 3, 0}, Vec3{0, 1, 0}},
		{"diagonal", Vec3{1, 1, 0}, Vec3{1 / math.Sqrt(2), 1 / math.Sqrt(2), 0}},
		{"zero", Vec3{0, 0, 0}, Vec3{0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.v.Normalized()
			if got.DistanceTo(tt.want) > 1e-10 {
				t.Errorf("Normalized() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVec3Arithmetic(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, -5, 6}

	if got := a.Add(b); got != (Vec3{5, -3, 9}) {
		t.Errorf("Add = %v", got)
	}
	if got := b.Sub(a); got != (Vec3{3, -7, 3}) {
		t.Errorf("Sub = %v", got)
	}
	if got := a.Dot(b); got != 12 {
		t.Errorf("Dot = %v, want 12", got)
	}
	if got := a.Scale(2); got != (Vec3{2, 4, 6}) {
		t.Errorf("Scale = %v", got)
	}
}

func TestVec3IsFinite(t *testing.T) {
	if !(Vec3{1, 2, 3}).IsFinite() {
		t.Error("finite vector reported as non-finite")
	}
	if (Vec3{math.NaN(), 0, 0}).IsFinite() {
		t.Error("NaN vector reported as finite")
	}
	if (Vec3{0, math.Inf(1), 0}).IsFinite() {
		t.Error("Inf vector reported as finite")
	}
}

func TestKmToAU(t *testing.T) {
	tests := []struct {
		km     float64
		wantAU float64
		tolPct float64 // tolerance as percentage
	}{
		{AU, 1.0, 0.001},
		{AU * 5.2, 5.2, 0.001},
		{AU * 30.07, 30.07, 0.001},
	}

	for _, tt := range tests {
		got := KmToAU(tt.km)
		diff := math.Abs(got-tt.wantAU) / tt.wantAU
		if diff > tt.tolPct/100 {
			t.Errorf("KmToAU(%.0f) = %.4f, want %.4f", tt.km, got, tt.wantAU)
		}
		if back := AUToKm(got); math.Abs(back-tt.km) > 1e-3 {
			t.Errorf("AUToKm(KmToAU(%.0f)) = %.3f", tt.km, back)
		}
	}
}

func TestEclipticAngles(t *testing.T) {
	if got := EclipticLongitude(Vec3{0, -1, 0}); math.Abs(got-270) > 1e-9 {
		t.Errorf("EclipticLongitude(-Y) = %v, want 270", got)
	}
	if got := EclipticLatitude(Vec3{1, 0, 1}); math.Abs(got-45) > 1e-9 {
		t.Errorf("EclipticLatitude = %v, want 45", got)
	}
	if got := EclipticLatitude(Vec3{}); got != 0 {
		t.Errorf("EclipticLatitude(zero) = %v, want 0", got)
	}
}

func TestFormatLightTime(t *testing.T) {
	tests := []struct {
		secs float64
		want string
	}{
		{12.34, "12.3s"},
		{499, "8m19s"},
		{4 * 3600, "4h0m"},
	}
	for _, tt := range tests {
		if got := FormatLightTime(tt.secs); got != tt.want {
			t.Errorf("FormatLightTime(%v) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}
