package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	sfhttp "github.com/supportflow/supportflow/internal/adapter/http"
	"github.com/supportflow/supportflow/internal/adapter/llmgw"
	sfnats "github.com/supportflow/supportflow/internal/adapter/nats"
	"github.com/supportflow/supportflow/internal/adapter/natskv"
	"github.com/supportflow/supportflow/internal/adapter/otel"
	"github.com/supportflow/supportflow/internal/adapter/postgres"
	"github.com/supportflow/supportflow/internal/adapter/ristretto"
	"github.com/supportflow/supportflow/internal/adapter/tiered"
	"github.com/supportflow/supportflow/internal/adapter/ws"
	"github.com/supportflow/supportflow/internal/config"
	"github.com/supportflow/supportflow/internal/domain/ambiguity"
	"github.com/supportflow/supportflow/internal/domain/plan"
	"github.com/supportflow/supportflow/internal/domain/policy"
	"github.com/supportflow/supportflow/internal/logger"
	"github.com/supportflow/supportflow/internal/middleware"
	"github.com/supportflow/supportflow/internal/port/agent"
	"github.com/supportflow/supportflow/internal/resilience"
	"github.com/supportflow/supportflow/internal/service"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer logCloser.Close()

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"gateway", cfg.Gateway.URL,
	)

	ctx := context.Background()

	// --- Telemetry ---
	shutdownTelemetry, err := otel.Setup(ctx, otel.Config{
		ServiceName: cfg.Logging.Service,
		Endpoint:    cfg.Telemetry.Endpoint,
		Environment: cfg.Telemetry.Environment,
		Insecure:    cfg.Telemetry.Insecure,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown", "error", err)
		}
	}()

	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---

	// PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	// NATS
	queue, err := sfnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Drain() }()

	// Conversation history cache: in-process L1 over a NATS KV L2, so
	// replicas share history entries.
	l1, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer l1.Close()

	kv, err := queue.KeyValue(ctx, "supportflow-history", cfg.Cache.HistoryTTL)
	if err != nil {
		return fmt.Errorf("history kv: %w", err)
	}
	historyCache := tiered.New(l1, natskv.New(kv), 5*time.Minute)

	// --- Gateway collaborators ---
	gateway := llmgw.NewClient(cfg.Gateway.URL, cfg.Gateway.APIKey, cfg.Gateway.Timeout)
	gateway.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))

	registry := agent.NewRegistry()
	registry.RegisterAgent(plan.ComponentOrdersAgent, llmgw.NewDomainAgent(gateway, plan.ComponentOrdersAgent))
	registry.RegisterAgent(plan.ComponentKnowledgeAgent, llmgw.NewDomainAgent(gateway, plan.ComponentKnowledgeAgent))
	registry.RegisterAgent(plan.ComponentTicketsAgent, llmgw.NewDomainAgent(gateway, plan.ComponentTicketsAgent))
	registry.RegisterDataSource(plan.ComponentOrderStore, llmgw.NewDataSource(gateway, plan.ComponentOrderStore))
	registry.RegisterDataSource(plan.ComponentKnowledgeBase, llmgw.NewDataSource(gateway, plan.ComponentKnowledgeBase))
	registry.RegisterTool(plan.ComponentHelpdesk, llmgw.NewTool(gateway, plan.ComponentHelpdesk))

	// Response synthesis and escalation hand-off run inside the executor.
	if err := registry.Validate(plan.PlanComponents(), plan.ComponentResponseFormatter, plan.ComponentHumanHandoff); err != nil {
		return fmt.Errorf("registry: %w", err)
	}

	// --- Services ---
	hub := ws.NewHub()
	store := postgres.NewStore(pool)
	escalations := sfnats.NewNotifier(queue)

	sessions := service.NewSessionService(store, historyCache, queue,
		cfg.Cache.HistoryTTL, cfg.Orchestration.SessionHistoryLimit, log)

	policies := policy.NewManager()
	policies.Escalation.ConfidenceThreshold = cfg.Policies.ConfidenceThreshold
	policies.Escalation.ErrorCountThreshold = cfg.Policies.ErrorCountThreshold
	policies.Escalation.MaxRetries = cfg.Policies.MaxRetries
	policies.Retry.MaxRetries = cfg.Policies.MaxRetries
	policies.Retry.Delay = cfg.Policies.RetryDelay

	executor := service.NewExecutor(registry, escalations, cfg.Orchestration.RoundCap, log)
	router := service.NewRouterService(
		llmgw.NewClassifier(gateway),
		llmgw.NewEvaluator(gateway),
		executor,
		ambiguity.NewResolver(ambiguity.NewDetector(cfg.Orchestration.AmbiguityThreshold)),
		ambiguity.NewDisambiguationStrategy(),
		policies,
		hub,
		metrics,
		log,
	)

	// --- HTTP ---
	handlers := sfhttp.NewHandlers(router, sessions, queue, gateway, version)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(sfhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(sfhttp.SecurityHeaders)
	r.Use(sfhttp.Logger)
	r.Use(otel.HTTPMiddleware(cfg.Logging.Service))
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	// WebSocket endpoint
	r.Get("/ws", hub.HandleWS)

	// API routes
	sfhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
