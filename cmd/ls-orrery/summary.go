package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/litescript/ls-orrery/internal/observability"
	"github.com/litescript/ls-orrery/internal/state"
)

const (
	secondsPerDay  = 86400.0
	secondsPerYear = 365.25 * secondsPerDay
)

func newSummaryCmd() *cobra.Command {
	var (
		advance string
		realism float64
		focus   string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Resolve the scene once and print it",
		Long: `Resolve every body once, without the TUI, and print a table (or JSON)
of display positions, radii and spin angles.`,
		Example: `  ls-orrery summary --advance 30d --realism 0.5
  ls-orrery summary --focus earth --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			adv, err := parseAdvance(advance)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			s, err := a.buildScene(ctx, time.Now())
			if err != nil {
				return err
			}
			defer s.Subscribe(a.state.ObserveScene)()

			if cmd.Flags().Changed("realism") {
				observability.SetRealism(ctx, s, realism)
			}
			if focus != "" {
				if err := s.SetFocusedBody(focus); err != nil {
					return err
				}
			}
			if adv != 0 {
				s.ResetTime(s.State().SimulatedSeconds + adv)
			}

			a.state.Publish(state.FrameFromScene(s), 0)
			snap := a.state.Snapshot()

			out := cmd.OutOrStdout()
			if asJSON {
				return state.WriteJSON(out, snap)
			}
			return writeSummary(out, snap, isTerminal(out))
		},
	}

	f := cmd.Flags()
	f.StringVar(&advance, "advance", "0", "Advance simulated time before resolving (e.g. 90m, 12h, 30d, 2y)")
	f.Float64Var(&realism, "realism", 0, "Realism level in [0, 1] (default from config)")
	f.StringVar(&focus, "focus", "", "Focus on a body id (narrows the time-scale ladder)")
	f.BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func writeSummary(w io.Writer, snap state.Snapshot, styled bool) error {
	title := fmt.Sprintf("ls-orrery summary · %d frame(s)", snap.Frames)
	if styled {
		title = lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true).Render(title)
	}
	fmt.Fprintln(w, title)
	if err := state.WriteSummaryTable(w, snap); err != nil {
		return err
	}

	var issues []state.Event
	for _, e := range snap.Events {
		if e.Type == state.EventIssue {
			issues = append(issues, e)
		}
	}
	if len(issues) == 0 {
		return nil
	}
	warn := lipgloss.NewStyle()
	if styled {
		warn = warn.Foreground(lipgloss.Color("#E84A27"))
	}
	fmt.Fprintf(w, "\nIssues (%d):\n", len(issues))
	for _, e := range issues {
		id := e.BodyID
		if id == "" {
			id = "-"
		}
		fmt.Fprintln(w, warn.Render(fmt.Sprintf("  %-7s %-10s %s", e.Severity, id, e.Message)))
	}
	return nil
}

// parseAdvance accepts Go durations plus d (days), w (weeks) and
// y (Julian years) suffixes. A bare number is seconds.
func parseAdvance(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	units := map[string]float64{
		"d": secondsPerDay,
		"w": 7 * secondsPerDay,
		"y": secondsPerYear,
	}
	for suffix, mult := range units {
		if num, ok := strings.CutSuffix(s, suffix); ok {
			v, err := strconv.ParseFloat(num, 64)
			if err != nil {
				return 0, fmt.Errorf("invalid --advance %q: %w", s, err)
			}
			return v * mult, nil
		}
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid --advance %q: %w", s, err)
	}
	return d.Seconds(), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
