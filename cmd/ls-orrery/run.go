package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/litescript/ls-orrery/internal/body"
	"github.com/litescript/ls-orrery/internal/observability"
	"github.com/litescript/ls-orrery/internal/state"
	"github.com/litescript/ls-orrery/internal/ui"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the interactive orrery (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd)
		},
	}
}

func runTUI(cmd *cobra.Command) error {
	ctx := cmd.Context()
	a, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	s, err := a.buildScene(ctx, time.Now())
	if err != nil {
		return err
	}

	if a.cfg.Metrics.Addr != "" {
		stop, err := a.serveMetrics(a.cfg.Metrics.Addr)
		if err != nil {
			return err
		}
		defer stop()
	}

	model := ui.New(ctx, s, a.state).WithReload(func(ctx context.Context) (*body.Catalog, error) {
		return observability.LoadDataset(ctx, a.cfg.Dataset.Path, a.reporter())
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

// metricsMux serves Prometheus metrics and the latest published frame.
func (a *app) metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	mux.HandleFunc("/snapshot", func(w http.ResponseWriter, r *http.Request) {
		snap := a.state.Snapshot()
		if snap.Frame == nil {
			http.Error(w, "no frame published yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := state.WriteJSON(w, snap); err != nil {
			a.log.Warn("snapshot write failed: %v", err)
		}
	})
	return mux
}

// serveMetrics starts the HTTP endpoint and returns a function that
// stops it.
func (a *app) serveMetrics(addr string) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	srv := &http.Server{
		Handler:           a.metricsMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	log := a.log.Named("metrics")
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server: %v", err)
		}
	}()
	log.Info("serving /metrics and /snapshot on %s", ln.Addr())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
