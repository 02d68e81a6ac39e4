// Command voxturn clusters pre-computed speaker embeddings into
// diarization output (RTTM) and optionally scores it against a
// reference.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrWong99/voxturn/internal/config"
	"github.com/MrWong99/voxturn/internal/health"
	"github.com/MrWong99/voxturn/internal/observe"
	"github.com/MrWong99/voxturn/internal/runner"
	"github.com/MrWong99/voxturn/pkg/embedstore"
	storefile "github.com/MrWong99/voxturn/pkg/embedstore/file"
	storepg "github.com/MrWong99/voxturn/pkg/embedstore/postgres"
	"github.com/MrWong99/voxturn/pkg/score/mdeval"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "voxturn: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "voxturn: %v\n", err)
		}
		return 1
	}

	// Remaining arguments are key=value overrides on top of the file.
	if overrides := flag.Args(); len(overrides) > 0 {
		if err := config.ApplyOverrides(cfg, overrides); err != nil {
			fmt.Fprintf(os.Stderr, "voxturn: %v\n", err)
			return 1
		}
		if err := config.Validate(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "voxturn: %v\n", err)
			return 1
		}
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Run.LogLevel.SlogLevel(),
	}))
	slog.SetDefault(logger)

	slog.Info("voxturn starting",
		"config", *configPath,
		"splits", cfg.Run.Splits,
		"store", cfg.Store.Backend,
		"log_level", cfg.Run.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "voxturn",
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Embedding store ───────────────────────────────────────────────────────
	var store embedstore.Store
	switch cfg.Store.Backend {
	case config.StorePostgres:
		pgStore, err := storepg.NewStore(ctx, cfg.Store.PostgresDSN, cfg.Store.EmbeddingDimensions)
		if err != nil {
			slog.Error("failed to open postgres store", "err", err)
			return 1
		}
		defer pgStore.Close()
		store = pgStore
	default:
		fileStore, err := storefile.NewStore(cfg.Paths.EmbeddingsDir)
		if err != nil {
			slog.Error("failed to open file store", "err", err)
			return 1
		}
		store = fileStore
	}

	// ── Metrics and health endpoint ───────────────────────────────────────────
	if cfg.Metrics.ListenAddr != "" {
		checkers := []health.Checker{health.StoreChecker(store, cfg.Run.Splits[0])}
		for _, split := range cfg.Run.Splits {
			if ref := cfg.Paths.ReferenceRTTM[split]; ref != "" {
				checkers = append(checkers, health.FileChecker("reference_"+split, ref))
			}
		}

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		health.New(checkers...).Register(mux)
		go func() {
			slog.Info("metrics endpoint listening", "addr", cfg.Metrics.ListenAddr)
			if err := http.ListenAndServe(cfg.Metrics.ListenAddr, mux); err != nil {
				slog.Warn("metrics endpoint error", "err", err)
			}
		}()
	}

	// ── Runner ────────────────────────────────────────────────────────────────
	opts := []runner.Option{runner.WithLogger(logger)}
	if cfg.Scoring.Enabled || cfg.Speakers.Mode == config.SpeakersTune {
		opts = append(opts, runner.WithScorer(mdeval.NewScorer(cfg.Paths.MdevalScript)))
	}

	report, err := runner.New(cfg, store, opts...).Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Info("run cancelled")
			return 1
		}
		slog.Error("run failed", "err", err)
		return 1
	}

	printRunSummary(cfg, report)
	slog.Info("done", "run_id", report.RunID)
	return 0
}

// ── Run summary ───────────────────────────────────────────────────────────────

func printRunSummary(cfg *config.Config, report *runner.Report) {
	fmt.Println("╔══════════════════════════════════════════════╗")
	fmt.Println("║            voxturn — run summary             ║")
	fmt.Println("╠══════════════════════════════════════════════╣")
	fmt.Printf("║  Run ID     : %-30s ║\n", trim(report.RunID, 30))
	fmt.Printf("║  Mode       : %-30s ║\n", string(cfg.Speakers.Mode))
	for _, sr := range report.Splits {
		fmt.Printf("║  Split %-4s : %3d recordings, %3d failed    ║\n",
			trim(sr.Split, 4), len(sr.Results), sr.Failed)
		if sr.TunedSpeakers > 0 {
			fmt.Printf("║    speakers : %-30d ║\n", sr.TunedSpeakers)
		}
		if sr.Score != nil {
			fmt.Printf("║    DER      : %5.2f%% (miss %.2f, fa %.2f)    ║\n",
				sr.Score.DER, sr.Score.MissedSpeech, sr.Score.FalseAlarm)
		}
		fmt.Printf("║    output   : %-30s ║\n", trim(sr.OutputPath, 30))
	}
	fmt.Println("╚══════════════════════════════════════════════╝")
}

func trim(s string, max int) string {
	if len(s) > max {
		return s[:max-1] + "…"
	}
	return s
}
