package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/antoniostano/zoey/internal/advisor"
	"github.com/antoniostano/zoey/internal/agent"
	"github.com/antoniostano/zoey/internal/config"
	"github.com/antoniostano/zoey/internal/flow"
	"github.com/antoniostano/zoey/internal/httpapi"
	"github.com/antoniostano/zoey/internal/memory"
	"github.com/antoniostano/zoey/internal/mode"
	"github.com/antoniostano/zoey/internal/observability"
	"github.com/antoniostano/zoey/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	registry := flow.DefaultRegistry()
	if cfg.ModesConfigPath != "" {
		registry, err = flow.Load(cfg.ModesConfigPath)
		if err != nil {
			log.Fatalf("modes config load failed: %v", err)
		}
		log.Printf("mode flows loaded from %s", cfg.ModesConfigPath)
	}
	engine := flow.NewEngine(registry)

	ctx := context.Background()
	snapshots, err := memory.NewSnapshotStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("snapshot store init failed: %v", err)
	}
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		log.Printf("memory snapshots: postgres")
	} else {
		log.Printf("memory snapshots: in-memory")
	}

	memories := memory.NewStore(snapshots, memory.Options{
		MaxHistoryTurns:    cfg.MaxHistoryTurns,
		MaxInsightsPerMode: cfg.MaxInsightsPerMode,
		PersistTimeout:     cfg.PersistTimeout,
		PersistRetries:     cfg.PersistRetries,
		OnPersistFailure: func(userID string, err error) {
			metrics.PersistFailures.Inc()
		},
	})
	defer memories.Close()

	sessions := session.NewManager(cfg.SessionInactivityTimeout)
	sessions.SetExpireHook(func(_ *session.Session) {
		metrics.SessionEvents.WithLabelValues("expired").Inc()
		metrics.ActiveSessions.Set(float64(sessions.ActiveCount()))
	})

	orchestrator := agent.New(memories, engine, advisorFromEngine(engine), sessions, metrics)

	api := httpapi.New(cfg, sessions, orchestrator, memories, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	sessions.StartJanitor(runCtx, 5*time.Second)

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}

// advisorFromEngine builds the keyword table from whatever flows the
// engine carries, so YAML overrides reach the advisor too. Modes without
// keywords are never recommended.
func advisorFromEngine(engine *flow.Engine) *advisor.Advisor {
	var table []advisor.Entry
	for _, m := range mode.All() {
		kws := engine.Keywords(m)
		if len(kws) == 0 {
			continue
		}
		table = append(table, advisor.Entry{Mode: m, Keywords: kws})
	}
	if len(table) == 0 {
		return advisor.Default()
	}
	return advisor.New(table)
}
