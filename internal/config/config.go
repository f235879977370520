// Package config loads layered configuration: built-in defaults, then an
// optional YAML file, then LS_ORRERY_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/clock"
	"github.com/litescript/ls-orrery/internal/realism"
	"github.com/litescript/ls-orrery/internal/scale"
	"github.com/litescript/ls-orrery/internal/scene"
)

// EnvPrefix is the prefix of environment overrides, e.g.
// LS_ORRERY_SIMULATION_INITIAL_REALISM=0.5.
const EnvPrefix = "LS_ORRERY"

// DirName is the per-user configuration directory under $HOME.
const DirName = ".ls-orrery"

// Config represents the full configuration.
type Config struct {
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Dataset    DatasetConfig    `yaml:"dataset" mapstructure:"dataset"`
	Visual     VisualConfig     `yaml:"visual" mapstructure:"visual"`
	Simulation SimulationConfig `yaml:"simulation" mapstructure:"simulation"`
	Clock      ClockConfig      `yaml:"clock" mapstructure:"clock"`
	Camera     CameraConfig     `yaml:"camera" mapstructure:"camera"`
	Metrics    MetricsConfig    `yaml:"metrics" mapstructure:"metrics"`
	Tracing    TracingConfig    `yaml:"tracing" mapstructure:"tracing"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	// File receives logs in TUI mode. Empty discards them.
	File string `yaml:"file" mapstructure:"file"`
}

// DatasetConfig selects the body dataset.
type DatasetConfig struct {
	// Path to a JSON dataset. Empty uses the embedded solar system.
	Path string `yaml:"path" mapstructure:"path"`
}

// VisualConfig holds the realistic anchor supplied with the dataset.
type VisualConfig struct {
	KmPerUnit            float64 `yaml:"km_per_unit" mapstructure:"km_per_unit"`
	DistanceScale        float64 `yaml:"distance_scale" mapstructure:"distance_scale"`
	RadiusScale          float64 `yaml:"radius_scale" mapstructure:"radius_scale"`
	OrbitSegments        int     `yaml:"orbit_segments" mapstructure:"orbit_segments"`
	MoonClearance        float64 `yaml:"moon_clearance" mapstructure:"moon_clearance"`
	PlanetRadiusCutoffKm float64 `yaml:"planet_radius_cutoff_km" mapstructure:"planet_radius_cutoff_km"`
}

// Anchor is the simulation value of one constant and its curve. The
// realistic value comes from the visual section or is fixed.
type Anchor struct {
	Sim   float64 `yaml:"sim" mapstructure:"sim"`
	Curve string  `yaml:"curve" mapstructure:"curve"`
}

// SimulationConfig holds the simulation anchor.
type SimulationConfig struct {
	InitialRealism          float64 `yaml:"initial_realism" mapstructure:"initial_realism"`
	AlignMoonsToPrimaryTilt bool    `yaml:"align_moons_to_primary_tilt" mapstructure:"align_moons_to_primary_tilt"`

	DistanceScale Anchor `yaml:"distance_scale" mapstructure:"distance_scale"`
	RadiusScale   Anchor `yaml:"radius_scale" mapstructure:"radius_scale"`

	StarRadius        Anchor `yaml:"star_radius" mapstructure:"star_radius"`
	LargePlanetRadius Anchor `yaml:"large_planet_radius" mapstructure:"large_planet_radius"`
	SmallPlanetRadius Anchor `yaml:"small_planet_radius" mapstructure:"small_planet_radius"`
	MoonRadius        Anchor `yaml:"moon_radius" mapstructure:"moon_radius"`
	DwarfRadius       Anchor `yaml:"dwarf_radius" mapstructure:"dwarf_radius"`
	OtherRadius       Anchor `yaml:"other_radius" mapstructure:"other_radius"`

	InnerBias     Anchor `yaml:"inner_bias" mapstructure:"inner_bias"`
	MaxInnerOrder int    `yaml:"max_inner_order" mapstructure:"max_inner_order"`
	OuterDistance Anchor `yaml:"outer_distance" mapstructure:"outer_distance"`
	MinOuterOrder int    `yaml:"min_outer_order" mapstructure:"min_outer_order"`

	DwarfCutoffAU float64 `yaml:"dwarf_cutoff_au" mapstructure:"dwarf_cutoff_au"`
	DwarfDistance Anchor  `yaml:"dwarf_distance" mapstructure:"dwarf_distance"`

	MoonDistance      Anchor `yaml:"moon_distance" mapstructure:"moon_distance"`
	MoonClearance     Anchor `yaml:"moon_clearance" mapstructure:"moon_clearance"`
	MoonSurfaceAnchor Anchor `yaml:"moon_surface_anchor" mapstructure:"moon_surface_anchor"`
	PlanetClearance   Anchor `yaml:"planet_clearance" mapstructure:"planet_clearance"`
}

// ClockConfig holds the time-scale ladders.
type ClockConfig struct {
	Overview     []float64 `yaml:"overview" mapstructure:"overview"`
	Focus        []float64 `yaml:"focus" mapstructure:"focus"`
	InitialLevel int       `yaml:"initial_level" mapstructure:"initial_level"`
	// Start is "now", "j2000" or an RFC 3339 timestamp.
	Start string `yaml:"start" mapstructure:"start"`
}

// CameraConfig holds the focus zoom multipliers.
type CameraConfig struct {
	MinZoomMultiplier     float64 `yaml:"min_zoom_multiplier" mapstructure:"min_zoom_multiplier"`
	MaxZoomMultiplier     float64 `yaml:"max_zoom_multiplier" mapstructure:"max_zoom_multiplier"`
	SatelliteExtentFactor float64 `yaml:"satellite_extent_factor" mapstructure:"satellite_extent_factor"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Addr to serve /metrics and /snapshot on. Empty disables it.
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// TracingConfig controls OpenTelemetry tracing.
type TracingConfig struct {
	// Exporter is "none", "stdout" or "otlp".
	Exporter    string  `yaml:"exporter" mapstructure:"exporter"`
	Endpoint    string  `yaml:"endpoint" mapstructure:"endpoint"`
	ServiceName string  `yaml:"service_name" mapstructure:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio" mapstructure:"sample_ratio"`
}

func anchorOf(p scale.Pair) Anchor {
	return Anchor{Sim: p.Sim, Curve: p.Curve.String()}
}

// Default returns the built-in configuration.
func Default() *Config {
	v := scale.DefaultVisualDefaults()
	a := scale.DefaultAnchors(v)
	ck := clock.DefaultConfig()
	cam := realism.DefaultCamera()

	return &Config{
		Log: LogConfig{Level: "info"},
		Visual: VisualConfig{
			KmPerUnit:            v.KmPerUnit,
			DistanceScale:        v.DistanceScale,
			RadiusScale:          v.RadiusScale,
			OrbitSegments:        v.OrbitSegments,
			MoonClearance:        v.MoonClearance,
			PlanetRadiusCutoffKm: v.PlanetRadiusCutoffKm,
		},
		Simulation: SimulationConfig{
			DistanceScale:     anchorOf(a.DistanceScale),
			RadiusScale:       anchorOf(a.RadiusScale),
			StarRadius:        anchorOf(a.StarRadius),
			LargePlanetRadius: anchorOf(a.LargePlanetRadius),
			SmallPlanetRadius: anchorOf(a.SmallPlanetRadius),
			MoonRadius:        anchorOf(a.MoonRadius),
			DwarfRadius:       anchorOf(a.DwarfRadius),
			OtherRadius:       anchorOf(a.OtherRadius),
			InnerBias:         anchorOf(a.InnerBias),
			MaxInnerOrder:     a.MaxInnerOrder,
			OuterDistance:     anchorOf(a.OuterDistance),
			MinOuterOrder:     a.MinOuterOrder,
			DwarfCutoffAU:     a.DwarfCutoffAU,
			DwarfDistance:     anchorOf(a.DwarfDistance),
			MoonDistance:      anchorOf(a.MoonDistance),
			MoonClearance:     anchorOf(a.MoonClearance),
			MoonSurfaceAnchor: anchorOf(a.MoonSurfaceAnchor),
			PlanetClearance:   anchorOf(a.PlanetClearance),
		},
		Clock: ClockConfig{
			Overview:     append([]float64(nil), ck.Overview...),
			Focus:        append([]float64(nil), ck.Focus...),
			InitialLevel: ck.InitialLevel,
			Start:        "now",
		},
		Camera: CameraConfig{
			MinZoomMultiplier:     cam.MinZoomMultiplier,
			MaxZoomMultiplier:     cam.MaxZoomMultiplier,
			SatelliteExtentFactor: cam.SatelliteExtentFactor,
		},
		Tracing: TracingConfig{
			Exporter:    "none",
			Endpoint:    "localhost:4317",
			ServiceName: "ls-orrery",
			SampleRatio: 1,
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (or the
// first config.yaml found in $HOME/.ls-orrery and the working directory
// when path is empty) and the environment. It returns the file used, if any.
func Load(path string) (*Config, string, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	base, err := yaml.Marshal(Default())
	if err != nil {
		return nil, "", fmt.Errorf("encoding defaults: %w", err)
	}
	if err := v.ReadConfig(bytes.NewReader(base)); err != nil {
		return nil, "", fmt.Errorf("reading defaults: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, DirName))
		}
		v.AddConfigPath(".")
	}

	used := ""
	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, "", fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		used = v.ConfigFileUsed()
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, used, nil
}

// Save writes cfg as YAML, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, cfg); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Write encodes cfg as YAML.
func Write(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return enc.Close()
}

// DefaultPath returns $HOME/.ls-orrery/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DirName, "config.yaml"), nil
}

// Validate returns an error for settings the engine cannot run with and
// warnings for anchor combinations that can break monotonicity.
func (c *Config) Validate() (warnings []string, err error) {
	var errs []error
	if !(c.Visual.KmPerUnit > 0) {
		errs = append(errs, fmt.Errorf("visual.km_per_unit must be positive, got %v", c.Visual.KmPerUnit))
	}
	if c.Visual.OrbitSegments < 3 {
		errs = append(errs, fmt.Errorf("visual.orbit_segments must be at least 3, got %d", c.Visual.OrbitSegments))
	}
	if err := clock.Ladder(c.Clock.Overview).Validate(); err != nil {
		errs = append(errs, fmt.Errorf("clock.overview: %w", err))
	}
	if err := clock.Ladder(c.Clock.Focus).Validate(); err != nil {
		errs = append(errs, fmt.Errorf("clock.focus: %w", err))
	}
	if _, err := c.StartSeconds(time.Now()); err != nil {
		errs = append(errs, err)
	}
	if !(c.Camera.MinZoomMultiplier > 0) || c.Camera.MinZoomMultiplier >= c.Camera.MaxZoomMultiplier {
		errs = append(errs, fmt.Errorf("camera: min_zoom_multiplier %v must be positive and below max_zoom_multiplier %v",
			c.Camera.MinZoomMultiplier, c.Camera.MaxZoomMultiplier))
	}
	if c.Simulation.InitialRealism < 0 || c.Simulation.InitialRealism > 1 {
		errs = append(errs, fmt.Errorf("simulation.initial_realism must be in [0, 1], got %v", c.Simulation.InitialRealism))
	}
	switch c.Tracing.Exporter {
	case "", "none", "stdout", "otlp":
	default:
		errs = append(errs, fmt.Errorf("tracing.exporter: unknown exporter %q", c.Tracing.Exporter))
	}

	a, aerr := c.Anchors()
	if aerr != nil {
		errs = append(errs, aerr)
	} else {
		warnings = a.Check()
	}
	return warnings, errors.Join(errs...)
}

// VisualDefaults converts the visual section.
func (c *Config) VisualDefaults() scale.VisualDefaults {
	return scale.VisualDefaults{
		KmPerUnit:            c.Visual.KmPerUnit,
		DistanceScale:        c.Visual.DistanceScale,
		RadiusScale:          c.Visual.RadiusScale,
		OrbitSegments:        c.Visual.OrbitSegments,
		MoonClearance:        c.Visual.MoonClearance,
		PlanetRadiusCutoffKm: c.Visual.PlanetRadiusCutoffKm,
	}
}

// Anchors converts the visual and simulation sections into scale anchors.
// Realistic values come from scale.DefaultAnchors for the visual section.
func (c *Config) Anchors() (scale.Anchors, error) {
	a := scale.DefaultAnchors(c.VisualDefaults())
	s := c.Simulation

	var errs []error
	set := func(name string, dst *scale.Pair, src Anchor) {
		curve, err := scale.ParseCurve(src.Curve)
		if err != nil {
			errs = append(errs, fmt.Errorf("simulation.%s: %w", name, err))
			return
		}
		dst.Sim = src.Sim
		dst.Curve = curve
	}
	set("distance_scale", &a.DistanceScale, s.DistanceScale)
	set("radius_scale", &a.RadiusScale, s.RadiusScale)
	set("star_radius", &a.StarRadius, s.StarRadius)
	set("large_planet_radius", &a.LargePlanetRadius, s.LargePlanetRadius)
	set("small_planet_radius", &a.SmallPlanetRadius, s.SmallPlanetRadius)
	set("moon_radius", &a.MoonRadius, s.MoonRadius)
	set("dwarf_radius", &a.DwarfRadius, s.DwarfRadius)
	set("other_radius", &a.OtherRadius, s.OtherRadius)
	set("inner_bias", &a.InnerBias, s.InnerBias)
	set("outer_distance", &a.OuterDistance, s.OuterDistance)
	set("dwarf_distance", &a.DwarfDistance, s.DwarfDistance)
	set("moon_distance", &a.MoonDistance, s.MoonDistance)
	set("moon_clearance", &a.MoonClearance, s.MoonClearance)
	set("moon_surface_anchor", &a.MoonSurfaceAnchor, s.MoonSurfaceAnchor)
	set("planet_clearance", &a.PlanetClearance, s.PlanetClearance)

	a.MaxInnerOrder = s.MaxInnerOrder
	a.MinOuterOrder = s.MinOuterOrder
	a.DwarfCutoffAU = s.DwarfCutoffAU

	return a, errors.Join(errs...)
}

// StartSeconds resolves clock.start to simulated seconds since J2000.
func (c *Config) StartSeconds(now time.Time) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(c.Clock.Start)) {
	case "", "now":
		return astro.SecondsSinceJ2000(now), nil
	case "j2000":
		return 0, nil
	}
	t, err := time.Parse(time.RFC3339, c.Clock.Start)
	if err != nil {
		return 0, fmt.Errorf("clock.start: %w", err)
	}
	return astro.SecondsSinceJ2000(t), nil
}

// SceneConfig converts the configuration into a scene.Config.
func (c *Config) SceneConfig(now time.Time) (scene.Config, error) {
	a, err := c.Anchors()
	if err != nil {
		return scene.Config{}, err
	}
	start, err := c.StartSeconds(now)
	if err != nil {
		return scene.Config{}, err
	}
	return scene.Config{
		Clock: clock.Config{
			Overview:     clock.Ladder(c.Clock.Overview),
			Focus:        clock.Ladder(c.Clock.Focus),
			InitialLevel: c.Clock.InitialLevel,
			Start:        start,
		},
		Anchors: a,
		Camera: realism.Camera{
			MinZoomMultiplier:     c.Camera.MinZoomMultiplier,
			MaxZoomMultiplier:     c.Camera.MaxZoomMultiplier,
			SatelliteExtentFactor: c.Camera.SatelliteExtentFactor,
		},
		InitialRealism:          c.Simulation.InitialRealism,
		AlignMoonsToPrimaryTilt: c.Simulation.AlignMoonsToPrimaryTilt,
		OrbitSegments:           c.Visual.OrbitSegments,
	}, nil
}
