package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brightsmile/frontdesk/internal/audit"
	"github.com/brightsmile/frontdesk/internal/calendar"
	"github.com/brightsmile/frontdesk/internal/clinic"
	appconfig "github.com/brightsmile/frontdesk/internal/config"
	"github.com/brightsmile/frontdesk/internal/engine"
	"github.com/brightsmile/frontdesk/internal/httpapi"
	"github.com/brightsmile/frontdesk/internal/nlu"
	"github.com/brightsmile/frontdesk/internal/observability/metrics"
	"github.com/brightsmile/frontdesk/internal/scheduling"
	"github.com/brightsmile/frontdesk/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting frontdesk API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"clinic", cfg.ClinicName,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Session store with background idle sweeper.
	store := engine.NewSessionStore(cfg.SessionIdleTimeout, cfg.SessionSweepInterval, logger)
	store.Start(ctx)
	defer store.Stop()

	cal := seedCalendar(cfg, logger)

	// NLU collaborators are optional: without an API key the engine runs on
	// the deterministic rule fallbacks alone.
	deps := engine.Deps{
		Store:        store,
		Calendar:     cal,
		Parser:       scheduling.ChainParser{scheduling.RuleParser{}},
		Logger:       logger,
		Hours:        scheduling.Hours{StartHour: cfg.WorkingHoursStart, EndHour: cfg.WorkingHoursEnd},
		SlotCacheTTL: cfg.SlotCacheTTL,
		HistoryLimit: cfg.SessionHistoryLimit,
	}
	if cfg.GeminiAPIKey != "" {
		gemini, err := nlu.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Error("failed to create gemini client", "error", err)
			os.Exit(1)
		}
		defer gemini.Close()
		deps.Classifier = gemini
		deps.Extractor = gemini
		deps.Confirmer = gemini
		deps.Replier = gemini
		deps.Parser = scheduling.ChainParser{gemini, scheduling.RuleParser{}}
		logger.Info("gemini NLU enabled", "model", cfg.GeminiModelID)
	} else {
		logger.Warn("GEMINI_API_KEY not set, running with rule-based NLU only")
	}

	// Audit trail: always to the log, additionally to Postgres when
	// configured.
	sinks := audit.Fanout{audit.NewLogSink(logger)}
	if cfg.AuditDatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.AuditDatabaseURL)
		if err != nil {
			logger.Error("failed to open audit database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			logger.Error("failed to ping audit database", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, audit.NewPostgresSink(db))
		logger.Info("postgres audit sink enabled")
	}
	deps.Recorder = audit.NewRecorder(sinks, logger)

	registry := prometheus.NewRegistry()
	deps.Metrics = metrics.NewEngineMetrics(registry)

	eng := engine.NewEngine(deps)

	handler := httpapi.New(&httpapi.Config{
		Engine:         eng,
		Logger:         logger,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// seedCalendar builds the in-process calendar. Until a practice-management
// backend is wired in, it opens the standard working week ahead for every
// provider.
func seedCalendar(cfg *appconfig.Config, logger *logging.Logger) *calendar.MemoryCalendar {
	cal := calendar.NewMemoryCalendar()

	loc, err := time.LoadLocation(cfg.ClinicTimezone)
	if err != nil {
		logger.Warn("invalid clinic timezone, using UTC", "tz", cfg.ClinicTimezone)
		loc = time.UTC
	}

	now := time.Now().In(loc)
	for day := 1; day <= 14; day++ {
		date := now.AddDate(0, 0, day)
		switch date.Weekday() {
		case time.Saturday, time.Sunday:
			continue
		}
		dayStart := time.Date(date.Year(), date.Month(), date.Day(), cfg.WorkingHoursStart, 0, 0, 0, loc)
		dayEnd := time.Date(date.Year(), date.Month(), date.Day(), cfg.WorkingHoursEnd, 0, 0, 0, loc)
		for _, p := range clinic.Providers {
			// One day-wide window per provider; the matcher slices it
			// on the half-hour grid per treatment, so longer visits
			// like a root canal still find room.
			cal.AddOpenSlot(scheduling.Slot{Provider: p, Start: dayStart, End: dayEnd})
		}
	}
	return cal
}
