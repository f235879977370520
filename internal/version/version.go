// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.3.0"

// Milestones:
// 0.3.0 - Prometheus metrics, OpenTelemetry spans, /snapshot endpoint, config init
// 0.2.0 - Moons, dwarf planets, realism slider, focus mode time-scale ladder
// 0.1.0 - Initial release: Kepler propagation, top-down orrery TUI, headless summary
