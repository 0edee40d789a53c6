package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gpauusa/sms17-project/core"
	"github.com/gpauusa/sms17-project/internal/logging"
	"github.com/gpauusa/sms17-project/internal/observability"
	"github.com/gpauusa/sms17-project/model"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "simulator: %v\n", err)
		os.Exit(1)
	}
}

// summary is printed as JSON on stdout once the run ends.
type summary struct {
	RunID         string  `json:"run_id"`
	Seed          uint64  `json:"seed"`
	Nodes         int     `json:"nodes"`
	CatalogFiles  int     `json:"catalog_files"`
	CatalogBytes  int64   `json:"catalog_bytes"`
	InitialFiles  int     `json:"initial_files"`
	Ticks         int     `json:"ticks"`
	SimSeconds    float64 `json:"sim_seconds"`
	ContactEvents int     `json:"contact_events"`
	DistinctPairs int     `json:"distinct_pairs"`
	FinalContacts int     `json:"final_contacts"`
	WallSeconds   float64 `json:"wall_seconds"`
	Cancelled     bool    `json:"cancelled,omitempty"`
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("simulator", flag.ContinueOnError)
	fs.SetOutput(stderr)
	scenarioPath := fs.String("scenario", "", "path to a YAML or JSON scenario; built-in defaults when empty")
	settingsPath := fs.String("settings", "", "optional runtime settings file (log, metrics, tracing)")
	seed := fs.Uint64("seed", 0, "override the scenario seed (unset keeps the scenario value)")
	duration := fs.Duration("duration", 0, "override the simulated duration (unset keeps the scenario value)")
	metricsAddr := fs.String("metrics-addr", "", "HTTP address for Prometheus /metrics; overrides SMS_METRICS_ADDR")
	if err := fs.Parse(args); err != nil {
		return err
	}
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg, err := loadSettings(*settingsPath)
	if err != nil {
		return err
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	cfg.Tracing.Output = stderr

	ctx, runID := logging.EnsureRunID(ctx)
	log := logging.New(logging.Config{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		AddSource: true,
		Output:    stderr,
	})
	ctx, log = logging.WithRunLogger(ctx, log)
	ctx = logging.ContextWithLogger(ctx, log)

	sc, err := loadScenario(*scenarioPath)
	if err != nil {
		return err
	}
	if set["seed"] {
		sc.Seed = *seed
	}
	if set["duration"] {
		sc.Duration = *duration
	}

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	// A private registry keeps repeated runs in one process independent.
	reg := prometheus.NewRegistry()
	collector, err := observability.NewSimCollector(reg)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	schedMetrics, err := observability.NewSchedulerCollector(reg)
	if err != nil {
		return fmt.Errorf("init scheduler metrics: %w", err)
	}
	if srv := serveMetrics(cfg.MetricsAddr, collector, log); srv != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	engine, err := core.NewSimulationEngine(ctx, sc,
		core.WithMetrics(collector),
		core.WithSchedulerMetrics(schedMetrics),
	)
	if err != nil {
		return err
	}

	out := summary{
		RunID:        runID,
		Seed:         sc.Seed,
		Nodes:        engine.NodeCount(),
		CatalogFiles: len(engine.Catalog()),
	}
	for _, f := range engine.Catalog() {
		out.CatalogBytes += f.Size
	}
	for id := 0; id < engine.NodeCount(); id++ {
		inv, err := engine.Node(id)
		if err != nil {
			return err
		}
		out.InitialFiles += inv.FileCount()
	}

	pairs := make(map[[2]int]struct{})
	engine.RegisterTickListener(func(_ time.Duration, contacts []model.Contact) {
		out.ContactEvents += len(contacts)
		for _, c := range contacts {
			pairs[c.Key()] = struct{}{}
		}
	})

	engine.Clock.AddListener(func(now time.Duration) {
		if now%time.Minute == 0 {
			log.Debug(ctx, "simulation progress",
				logging.Duration("sim_time", now),
				logging.Int("ticks", engine.Ticks()),
			)
		}
	})

	started := time.Now()
	runErr := engine.Run(ctx)
	switch {
	case runErr == nil:
	case errors.Is(runErr, context.Canceled):
		log.Warn(ctx, "simulation interrupted", logging.Duration("sim_time", engine.Now()))
		out.Cancelled = true
	default:
		return runErr
	}

	out.Ticks = engine.Ticks()
	out.SimSeconds = engine.Now().Seconds()
	out.DistinctPairs = len(pairs)
	out.FinalContacts = len(engine.CurrentContacts())
	out.WallSeconds = time.Since(started).Seconds()

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

func loadScenario(path string) (*core.Scenario, error) {
	if path == "" {
		return core.DefaultScenario(), nil
	}
	return core.LoadScenarioFile(path)
}

func serveMetrics(addr string, collector *observability.SimCollector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
