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

	"github.com/joho/godotenv"

	"github.com/elenacorti/wisp/internal/config"
	"github.com/elenacorti/wisp/internal/engine"
	"github.com/elenacorti/wisp/internal/httpapi"
	"github.com/elenacorti/wisp/internal/llm"
	"github.com/elenacorti/wisp/internal/memory"
	"github.com/elenacorti/wisp/internal/notify"
	"github.com/elenacorti/wisp/internal/observability"
	"github.com/elenacorti/wisp/internal/respond"
	"github.com/elenacorti/wisp/internal/state"
)

func main() {
	// Optional .env for local development; real deployments set the env.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	store, err := state.NewStore(ctx, cfg.DatabaseURL, cfg.StateTTL)
	if err != nil {
		log.Fatalf("state store init failed: %v", err)
	}
	defer store.Close()

	var recaller memory.Recaller = memory.Noop{}
	if strings.TrimSpace(cfg.MemoryServiceURL) != "" {
		recaller = memory.NewHTTPRecaller(memory.HTTPConfig{
			BaseURL: cfg.MemoryServiceURL,
			APIKey:  cfg.MemoryAPIKey,
			Timeout: cfg.MemoryTimeout,
		})
		log.Printf("memory recall: %s", cfg.MemoryServiceURL)
	} else {
		log.Printf("memory recall: disabled (MEMORY_SERVICE_URL not set)")
	}

	var provider llm.Provider
	if strings.TrimSpace(cfg.OpenAIAPIKey) != "" {
		provider, err = llm.NewOpenAIProvider(llm.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
		})
		if err != nil {
			log.Fatalf("openai provider init failed: %v", err)
		}
		log.Printf("llm provider: openai (%s)", cfg.OpenAIModel)
	} else {
		provider = llm.NewMockProvider()
		log.Printf("llm provider: mock (OPENAI_API_KEY not set)")
	}

	broker := notify.NewBroker()
	gen := respond.NewGenerator(provider, cfg.MaxRegenerations)
	eng := engine.New(store, recaller, gen, metrics, broker)

	api := httpapi.New(cfg, eng, broker, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	switch s := store.(type) {
	case *state.InMemoryStore:
		s.StartJanitor(runCtx, cfg.JanitorInterval)
	case *state.PostgresStore:
		s.StartJanitor(runCtx, cfg.JanitorInterval)
	}

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
