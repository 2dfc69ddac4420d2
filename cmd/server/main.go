// Command server runs the Aldergate core process: it wires the Event
// Fabric, Retrieval Core, Legislation Gateway, Verification Core, Agent
// Pipeline, and Review Engine behind a Gin HTTP API, following tarsy's
// cmd/tarsy/main.go bootstrap shape (config-dir flag, env loading,
// service construction, Gin router, graceful shutdown on signal).
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/aldergate-legal/core/internal/config"
	"github.com/aldergate-legal/core/pkg/agent"
	"github.com/aldergate-legal/core/pkg/api"
	"github.com/aldergate-legal/core/pkg/cleanup"
	"github.com/aldergate-legal/core/pkg/database"
	"github.com/aldergate-legal/core/pkg/eventbus"
	"github.com/aldergate-legal/core/pkg/legislation"
	"github.com/aldergate-legal/core/pkg/llm"
	"github.com/aldergate-legal/core/pkg/metrics"
	"github.com/aldergate-legal/core/pkg/policyreview"
	"github.com/aldergate-legal/core/pkg/retrieval"
	"github.com/aldergate-legal/core/pkg/verification"

	"github.com/gin-gonic/gin"
)

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	cfg, err := config.Load(config.DefaultEnvPath(*configDir))
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	gin.SetMode(getEnv("GIN_MODE", "release"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := build(ctx, cfg)
	if err != nil {
		slog.Error("failed to build application", "error", err)
		os.Exit(1)
	}
	defer app.dbClient.Close()

	app.cleanupService.Start(ctx)
	defer app.cleanupService.Stop()

	stopHealthLoop := app.healthManager.RunLoop(ctx, cfg.HealthCheckInterval)
	defer stopHealthLoop()

	router := newRouter(app)
	httpPort := getEnv("HTTP_PORT", "8080")
	srv := &http.Server{Addr: ":" + httpPort, Handler: router}

	go func() {
		slog.Info("http server listening", "port", httpPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server failed", "error", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}

// application bundles every wired collaborator the HTTP layer dispatches
// to, plus the process-lifetime resources main must close on exit.
type application struct {
	cfg *config.Config

	dbClient      *database.Client
	healthManager *legislation.HealthManager
	legFactory    *legislation.Factory

	publisher  *eventbus.Publisher
	subscriber *eventbus.Subscriber

	agentEngine  *agent.Engine
	reviewEngine *policyreview.Engine

	conversations *database.ConversationRepository
	invocations   *database.InvocationRepository
	personas      *database.PersonaRepository
	definitions   *database.PolicyDefinitionRepository
	reviews       *database.PolicyReviewRepository
	documents     *database.DocumentRepository

	cleanupService *cleanup.Service
	registry       *prometheus.Registry
}

func build(ctx context.Context, cfg *config.Config) (*application, error) {
	dbClient, err := database.NewClient(ctx, database.Config{
		Host:     mustEnv("DB_HOST", "localhost"),
		Port:     mustEnvInt("DB_PORT", 5432),
		User:     mustEnv("DB_USER", "aldergate"),
		Password: os.Getenv("DB_PASSWORD"),
		Database: mustEnv("DB_NAME", "aldergate"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
		MaxConns: 20,
		MinConns: 2,
	})
	if err != nil {
		return nil, err
	}

	rdb := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{parseRedisAddr(cfg.RedisURL)}})

	registry := prometheus.NewRegistry()
	metricsRegistry, err := metrics.New(registry)
	if err != nil {
		return nil, err
	}

	healthManager := legislation.NewHealthManager(cfg.LegislationPrimaryURL, cfg.LegislationFallbackURL, cfg.HealthMaxFailures, nil)
	legFactory := legislation.NewFactory(healthManager, 30*time.Second)

	publisher := eventbus.NewPublisher(rdb, time.Duration(cfg.EventReplayWindowSeconds)*time.Second)
	publisher.SetMetrics(metricsRegistry)
	subscriber := eventbus.NewSubscriber(rdb, publisher)

	llmClient, err := llm.NewClient(llm.Config{Model: cfg.ModelStandard})
	if err != nil {
		return nil, err
	}
	fastModel, err := llm.NewClient(llm.Config{Model: cfg.ModelFast})
	if err != nil {
		return nil, err
	}

	embedder := retrieval.NewHashEmbedder(cfg.EmbeddingDimensions)
	vectorStore := retrieval.NewPgVectorStore(dbClient.Pool)
	keywordStore := retrieval.NewPgKeywordStore(dbClient.Pool)
	enricher := retrieval.NewPgEnricher(dbClient.Pool)
	retrievalSvc := retrieval.NewService(embedder, vectorStore, keywordStore, enricher, nil)
	retrievalSvc.SetMetrics(metricsRegistry)

	verifier := verification.NewVerifier(legFactory.Client())
	verifier.SetMetrics(metricsRegistry)

	conversations := database.NewConversationRepository(dbClient)
	invocations := database.NewInvocationRepository(dbClient)
	personas := database.NewPersonaRepository(dbClient)
	definitions := database.NewPolicyDefinitionRepository(dbClient)
	reviews := database.NewPolicyReviewRepository(dbClient)
	documents := database.NewDocumentRepository(dbClient)
	semanticCacheStore := database.NewSemanticCacheRepository(dbClient)

	router := agent.NewRouter(fastModel)
	workers := agent.NewWorkers(retrievalSvc, legFactory.Client())
	orchestrator := agent.NewOrchestrator(llmClient, publisher)
	qa := agent.NewQAReviewer(cfg.QATestingMode)
	var semanticCache *agent.SemanticCache
	if cfg.SemanticCacheThreshold > 0 {
		semanticCache = agent.NewSemanticCache(semanticCacheStore, embedder, cfg.SemanticCacheThreshold, cfg.SemanticCacheTTL)
	}
	titles := agent.NewTitleGenerator(fastModel)

	agentEngine := agent.NewEngine(router, workers, orchestrator, verifier, qa, semanticCache, titles,
		conversations, invocations, personas, publisher, agent.EngineConfig{})

	identifier := policyreview.NewTypeIdentifier(fastModel)
	evaluator := policyreview.NewEvaluator(retrievalSvc, legFactory.Client(), llmClient)
	reviewEngine := policyreview.NewEngine(identifier, evaluator, llmClient, definitions, reviews, publisher, policyreview.EngineConfig{})
	reviewEngine.SetMetrics(metricsRegistry)

	cleanupService := cleanup.NewService(dbClient, documents, semanticCacheStore, cfg.CleanupInterval, cfg.DocumentStaleTimeoutSeconds)

	return &application{
		cfg:            cfg,
		dbClient:       dbClient,
		healthManager:  healthManager,
		legFactory:     legFactory,
		publisher:      publisher,
		subscriber:     subscriber,
		agentEngine:    agentEngine,
		reviewEngine:   reviewEngine,
		conversations:  conversations,
		invocations:    invocations,
		personas:       personas,
		definitions:    definitions,
		reviews:        reviews,
		documents:      documents,
		cleanupService: cleanupService,
		registry:       registry,
	}, nil
}

// newRouter builds the HTTP surface described in spec.md §1: a health
// check, Prometheus scrape endpoint, the conversation/policy-review SSE
// streams, and the invoke/review trigger endpoints, per pkg/api.
func newRouter(app *application) *gin.Engine {
	router := gin.Default()
	srv := api.NewServer(app.agentEngine, app.reviewEngine, app.subscriber, app.conversations, app.reviews, app.registry)
	srv.RegisterRoutes(router)
	return router
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func mustEnv(key, defaultVal string) string {
	return getEnv(key, defaultVal)
}

func mustEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}

func parseRedisAddr(url string) string {
	const prefix = "redis://"
	s := url
	if len(s) > len(prefix) && s[:len(prefix)] == prefix {
		s = s[len(prefix):]
	}
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			return s[:i]
		}
	}
	return s
}
