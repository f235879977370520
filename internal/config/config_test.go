package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/scale"
	"github.com/litescript/ls-orrery/internal/scene"
)

// isolate points $HOME and the working directory at empty temp dirs so
// no real config file is found.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return home
}

func TestDefaultMatchesEngineDefaults(t *testing.T) {
	cfg := Default()
	warnings, err := cfg.Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}

	a, err := cfg.Anchors()
	if err != nil {
		t.Fatalf("Anchors: %v", err)
	}
	want := scale.DefaultAnchors(scale.DefaultVisualDefaults())
	if a != want {
		t.Errorf("Anchors() = %+v\nwant %+v", a, want)
	}

	sc, err := cfg.SceneConfig(time.Now())
	if err != nil {
		t.Fatalf("SceneConfig: %v", err)
	}
	def := scene.DefaultConfig()
	if sc.Camera != def.Camera {
		t.Errorf("Camera = %+v, want %+v", sc.Camera, def.Camera)
	}
	if len(sc.Clock.Overview) != len(def.Clock.Overview) || sc.Clock.InitialLevel != def.Clock.InitialLevel {
		t.Errorf("Clock = %+v, want %+v", sc.Clock, def.Clock)
	}
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	isolate(t)

	cfg, used, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if used != "" {
		t.Errorf("used = %q, want none", used)
	}
	if cfg.Visual.KmPerUnit != 1e5 {
		t.Errorf("KmPerUnit = %v, want 1e5", cfg.Visual.KmPerUnit)
	}
	if cfg.Simulation.DistanceScale.Curve != "log" {
		t.Errorf("distance curve = %q, want log", cfg.Simulation.DistanceScale.Curve)
	}
	if len(cfg.Clock.Overview) != 5 || cfg.Clock.Overview[4] != 2000000 {
		t.Errorf("Overview = %v", cfg.Clock.Overview)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "orrery.yaml")
	doc := `
simulation:
  initial_realism: 0.25
  moon_distance:
    sim: 20
    curve: linear
clock:
  focus: [1, 10, 1000]
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, used, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if used != path {
		t.Errorf("used = %q, want %q", used, path)
	}
	if cfg.Simulation.InitialRealism != 0.25 {
		t.Errorf("InitialRealism = %v, want 0.25", cfg.Simulation.InitialRealism)
	}
	if cfg.Simulation.MoonDistance != (Anchor{Sim: 20, Curve: "linear"}) {
		t.Errorf("MoonDistance = %+v", cfg.Simulation.MoonDistance)
	}
	if len(cfg.Clock.Focus) != 3 || cfg.Clock.Focus[2] != 1000 {
		t.Errorf("Focus = %v", cfg.Clock.Focus)
	}
	// untouched keys keep their defaults
	if cfg.Simulation.StarRadius.Sim != 0.08 {
		t.Errorf("StarRadius = %+v, want default", cfg.Simulation.StarRadius)
	}
}

func TestLoad_HomeFile(t *testing.T) {
	home := isolate(t)
	cfg := Default()
	cfg.Log.Level = "debug"
	path := filepath.Join(home, DirName, "config.yaml")
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, used, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if used == "" {
		t.Fatal("expected home config to be found")
	}
	if got.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", got.Log.Level)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("LS_ORRERY_SIMULATION_INITIAL_REALISM", "0.75")
	t.Setenv("LS_ORRERY_METRICS_ADDR", ":9464")

	cfg, _, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Simulation.InitialRealism != 0.75 {
		t.Errorf("InitialRealism = %v, want 0.75", cfg.Simulation.InitialRealism)
	}
	if cfg.Metrics.Addr != ":9464" {
		t.Errorf("Metrics.Addr = %q, want :9464", cfg.Metrics.Addr)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)
	if _, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load of a missing explicit file should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero km per unit", func(c *Config) { c.Visual.KmPerUnit = 0 }, "km_per_unit"},
		{"empty overview", func(c *Config) { c.Clock.Overview = nil }, "clock.overview"},
		{"descending focus", func(c *Config) { c.Clock.Focus = []float64{100, 10} }, "clock.focus"},
		{"zoom inverted", func(c *Config) { c.Camera.MinZoomMultiplier = 100 }, "camera"},
		{"bad curve", func(c *Config) { c.Simulation.MoonRadius.Curve = "cubic" }, "moon_radius"},
		{"bad start", func(c *Config) { c.Clock.Start = "yesterday" }, "clock.start"},
		{"bad realism", func(c *Config) { c.Simulation.InitialRealism = 2 }, "initial_realism"},
		{"bad exporter", func(c *Config) { c.Tracing.Exporter = "jaeger" }, "tracing.exporter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			_, err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_WarnsOnOpposingAnchors(t *testing.T) {
	cfg := Default()
	// global radius scale grows while the moon multiplier shrinks
	cfg.Simulation.RadiusScale = Anchor{Sim: 0.5, Curve: "linear"}
	cfg.Simulation.MoonRadius = Anchor{Sim: 5, Curve: "linear"}

	warnings, err := cfg.Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(warnings) == 0 {
		t.Error("expected a monotonicity warning")
	}
}

func TestStartSeconds(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		start string
		want  float64
	}{
		{"now", astro.SecondsSinceJ2000(now)},
		{"", astro.SecondsSinceJ2000(now)},
		{"j2000", 0},
		{"2000-01-01T12:00:00Z", 0},
		{"2000-01-02T12:00:00Z", 86400},
	}
	for _, tt := range tests {
		t.Run(tt.start, func(t *testing.T) {
			cfg := Default()
			cfg.Clock.Start = tt.start
			got, err := cfg.StartSeconds(now)
			if err != nil {
				t.Fatalf("StartSeconds: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-3 {
				t.Errorf("StartSeconds = %v, want %v", got, tt.want)
			}
		})
	}
}
