// Command ls-orrery is a terminal orrery: Kepler orbits for a star
// system, scaled on a realism slider from readable to true scale.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/litescript/ls-orrery/internal/body"
	"github.com/litescript/ls-orrery/internal/config"
	"github.com/litescript/ls-orrery/internal/logging"
	"github.com/litescript/ls-orrery/internal/observability"
	"github.com/litescript/ls-orrery/internal/scene"
	"github.com/litescript/ls-orrery/internal/state"
	"github.com/litescript/ls-orrery/internal/version"
)

const appName = "ls-orrery"

// Global flags
var (
	configPath  string
	logLevel    string
	logFile     string
	datasetPath string
	metricsAddr string
)

// app carries what every command needs after configuration is loaded.
type app struct {
	cfg     *config.Config
	log     *logging.Logger
	metrics *observability.Collector
	state   *state.Manager
	logOut  io.Closer

	shutdownTracing func(context.Context) error
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Terminal orrery with a realism slider",
		Long: `ls-orrery propagates Keplerian orbits for a star, its planets, dwarf
planets and moons, and draws them top-down in the terminal. The realism
slider moves every distance and radius from a compressed, readable layout
(0) to true scale (1).`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Config file (default $HOME/.ls-orrery/config.yaml or ./config.yaml)")
	pf.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&logFile, "log-file", "", "Write logs to this file (TUI mode discards logs otherwise)")
	pf.StringVar(&datasetPath, "dataset", "", "JSON body dataset (default: embedded solar system)")
	pf.StringVar(&metricsAddr, "metrics-addr", "", "Serve /metrics and /snapshot on this address, e.g. :9464")

	root.AddCommand(newRunCmd(), newSummaryCmd(), newConfigCmd())
	return root
}

// loadConfig reads layered configuration and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, []string, error) {
	cfg, _, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-file") {
		cfg.Log.File = logFile
	}
	if flags.Changed("dataset") {
		cfg.Dataset.Path = datasetPath
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = metricsAddr
	}

	warnings, err := cfg.Validate()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, warnings, nil
}

// newApp loads configuration and sets up logging, metrics and tracing.
// Interactive commands log to the configured file only, so the alternate
// screen stays clean.
func newApp(cmd *cobra.Command, interactive bool) (*app, error) {
	cfg, warnings, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:   cfg,
		log:   logging.New(logging.ParseLevel(cfg.Log.Level)),
		state: state.NewManager(state.DefaultConfig()),
	}
	switch {
	case cfg.Log.File != "":
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		a.log.SetOutput(f)
		a.logOut = f
	case interactive:
		a.log.SetOutput(io.Discard)
	default:
		a.log.SetOutput(cmd.ErrOrStderr())
	}
	for _, w := range warnings {
		a.log.Named("config").Warn("%s", w)
	}

	a.metrics, err = observability.NewCollector(nil)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	a.shutdownTracing, err = observability.InitTracing(cmd.Context(), observability.TracingConfig{
		ServiceName: cfg.Tracing.ServiceName,
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRatio: cfg.Tracing.SampleRatio,
		Writer:      cmd.ErrOrStderr(),
	}, a.log.Named("tracing"))
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	return a, nil
}

// Close flushes tracing and closes the log file.
func (a *app) Close(ctx context.Context) {
	observability.ShutdownWithTimeout(context.WithoutCancel(ctx), a.shutdownTracing, a.log)
	if a.logOut != nil {
		_ = a.logOut.Close()
	}
}

// reporter fans engine issues out to the log, the metrics and the event log.
func (a *app) reporter() body.Reporter {
	return body.Tee(logging.NewReporter(a.log.Named("engine")), a.metrics, a.state)
}

// buildScene loads the dataset and creates the scene at the configured
// start time.
func (a *app) buildScene(ctx context.Context, now time.Time) (*scene.Scene, error) {
	rep := a.reporter()
	cat, err := observability.LoadDataset(ctx, a.cfg.Dataset.Path, rep)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	sc, err := a.cfg.SceneConfig(now)
	if err != nil {
		return nil, err
	}

	s := scene.New(cat, sc, rep)
	s.SetObserver(a.metrics)
	a.log.Info("scene ready: %d bodies (%d excluded), reference %s",
		cat.Len(), len(cat.Excluded()), cat.Reference().ID)
	return s, nil
}
