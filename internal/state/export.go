package state

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/litescript/ls-orrery/internal/astro"
)

// SnapshotExport represents a frame snapshot for JSON export.
type SnapshotExport struct {
	Timestamp        time.Time    `json:"timestamp"`
	SimulatedTime    time.Time    `json:"simulated_time"`
	SimulatedDate    string       `json:"simulated_date"`
	SimulatedSeconds float64      `json:"simulated_seconds"`
	TimeScaleLevel   int          `json:"time_scale_level"`
	TimeScale        float64      `json:"time_scale"`
	Paused           bool         `json:"paused"`
	Mode             string       `json:"mode"`
	Realism          float64      `json:"realism"`
	FocusedBody      string       `json:"focused_body,omitempty"`
	Frames           uint64       `json:"frames"`
	Bodies           []BodyExport `json:"bodies"`
	Events           []Event      `json:"events,omitempty"`
}

// BodyExport represents a body for JSON export.
type BodyExport struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Category        string     `json:"category"`
	Primary         string     `json:"primary,omitempty"`
	Position        [3]float64 `json:"position"`
	SpinAngle       float64    `json:"spin_angle_rad"`
	DisplayRadius   float64    `json:"display_radius"`
	DisplayDistance float64    `json:"display_distance"`
	Resolved        bool       `json:"resolved"`
}

// ExportSnapshot converts a state snapshot to the export format.
// It returns nil when no frame has been published.
func ExportSnapshot(snap Snapshot) *SnapshotExport {
	if snap.Frame == nil {
		return nil
	}
	st := snap.Frame.State
	export := &SnapshotExport{
		Timestamp:        snap.LastPublish,
		SimulatedTime:    st.SimulatedTime(),
		SimulatedDate:    astro.FormatSimulatedDate(st.SimulatedSeconds, time.RFC3339),
		SimulatedSeconds: st.SimulatedSeconds,
		TimeScaleLevel:   st.TimeScaleLevel,
		TimeScale:        st.TimeScale,
		Paused:           st.Paused,
		Mode:             st.Mode.String(),
		Realism:          st.RealismLevel,
		FocusedBody:      st.FocusedBodyID,
		Frames:           snap.Frames,
		Bodies:           make([]BodyExport, 0, len(snap.Frame.Bodies)),
		Events:           snap.Events,
	}

	for _, b := range snap.Frame.Bodies {
		export.Bodies = append(export.Bodies, BodyExport{
			ID:              b.ID,
			Name:            b.Name,
			Category:        b.Category.String(),
			Primary:         b.PrimaryID,
			Position:        [3]float64{b.Position.X, b.Position.Y, b.Position.Z},
			SpinAngle:       b.SpinAngle,
			DisplayRadius:   b.DisplayRadius,
			DisplayDistance: b.DisplayDistance,
			Resolved:        b.Resolved,
		})
	}

	return export
}

// WriteJSON writes the snapshot as indented JSON.
func WriteJSON(w io.Writer, snap Snapshot) error {
	export := ExportSnapshot(snap)
	if export == nil {
		return fmt.Errorf("no frame published")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(export)
}

// WriteSummaryTable writes a human-readable table of the snapshot.
func WriteSummaryTable(w io.Writer, snap Snapshot) error {
	if snap.Frame == nil {
		_, err := fmt.Fprintln(w, "No frame published.")
		return err
	}
	st := snap.Frame.State

	fmt.Fprintf(w, "Simulated: %s  (t = %.0f s since J2000)\n",
		astro.FormatSimulatedDate(st.SimulatedSeconds, "2006-01-02 15:04:05 UTC"), st.SimulatedSeconds)
	pause := ""
	if st.Paused {
		pause = "  [paused]"
	}
	fmt.Fprintf(w, "Time scale: %gx (level %d, %s)%s   Realism: %.2f\n",
		st.TimeScale, st.TimeScaleLevel, st.Mode, pause, st.RealismLevel)
	if st.FocusedBodyID != "" {
		fmt.Fprintf(w, "Focus: %s\n", st.FocusedBodyID)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%-12s %-8s %-10s %14s %12s %12s %8s\n",
		"BODY", "CATEGORY", "PRIMARY", "DISTANCE", "RADIUS", "SPIN", "STATUS")
	fmt.Fprintln(w, strings.Repeat("─", 82))

	for _, b := range snap.Frame.Bodies {
		status := "ok"
		if !b.Resolved {
			status = "skipped"
		}
		primary := b.PrimaryID
		if primary == "" {
			primary = "-"
		}
		fmt.Fprintf(w, "%-12s %-8s %-10s %14.3f %12.4f %11.1f° %8s\n",
			truncate(b.Name, 12),
			b.Category,
			truncate(primary, 10),
			b.DisplayDistance,
			b.DisplayRadius,
			b.SpinAngle*180/math.Pi,
			status,
		)
	}

	fmt.Fprintln(w)
	_, err := fmt.Fprintf(w, "Total: %d bodies\n", len(snap.Frame.Bodies))
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
