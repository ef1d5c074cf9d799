// Package main is the entry point for the scoutd service.
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

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kestrelresearch/scout/internal/briefings"
	"github.com/kestrelresearch/scout/internal/config"
	"github.com/kestrelresearch/scout/internal/external"
	"github.com/kestrelresearch/scout/internal/external/anthropicllm"
	"github.com/kestrelresearch/scout/internal/external/httpfetch"
	"github.com/kestrelresearch/scout/internal/external/openai"
	"github.com/kestrelresearch/scout/internal/external/simple"
	"github.com/kestrelresearch/scout/internal/fetcher"
	"github.com/kestrelresearch/scout/internal/gatherer"
	"github.com/kestrelresearch/scout/internal/memory"
	"github.com/kestrelresearch/scout/internal/metrics"
	"github.com/kestrelresearch/scout/internal/notebook"
	"github.com/kestrelresearch/scout/internal/notify"
	"github.com/kestrelresearch/scout/internal/orchestrator"
	"github.com/kestrelresearch/scout/internal/preferences"
	"github.com/kestrelresearch/scout/internal/server"
	"github.com/kestrelresearch/scout/internal/sourcestore"
	"github.com/kestrelresearch/scout/internal/store"
	"github.com/kestrelresearch/scout/internal/supervisor"
)

// Default source endpoints for the Unified Fetcher's HTTP-backed adapters.
// None of these carry credentials; they're public feed/search endpoints.
// The arXiv, video and news bases are prefixes: the adapters append the
// escaped query to them.
const (
	secTickerTableURL  = "https://www.sec.gov/files/company_tickers.json"
	secSubmissionsBase = "https://data.sec.gov/submissions/CIK%s.json"
	secFullTextSearch  = "https://efts.sec.gov/LATEST/search-index?q=%s&forms=10-K,10-Q,8-K"
	secUserAgent       = "scoutd research-assistant contact@kestrelresearch.example"
	arxivCategoryBase  = "http://export.arxiv.org/api/query?sortBy=submittedDate&sortOrder=descending&search_query="
	arxivQueryBase     = "http://export.arxiv.org/api/query?sortBy=submittedDate&sortOrder=descending&search_query=all:"
	videoSearchBase    = "https://www.youtube.com/feeds/videos.xml?search_query="
	newsKeywordBase    = "https://news.google.com/rss/search?q="
)

func main() {
	logLevel := slog.LevelInfo
	if os.Getenv("SCOUT_LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	registry := prometheus.NewRegistry()
	metricsSet := metrics.New(registry)

	// Embedding provider
	var embedder external.Embedder
	switch cfg.EmbeddingBackend {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			logger.Error("OpenAI API key required for openai embedding backend")
			os.Exit(1)
		}
		embedder = openai.NewEmbedder(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	default:
		embedder = simple.NewEmbedder()
	}
	logger.Info("embedding backend initialized", "backend", cfg.EmbeddingBackend)

	// Chat completion provider
	var chat external.ChatCompleter
	switch cfg.ChatBackend {
	case "anthropic":
		if cfg.AnthropicKey == "" {
			logger.Error("Anthropic API key required for anthropic chat backend")
			os.Exit(1)
		}
		chat = anthropicllm.NewChatCompleter(cfg.AnthropicKey)
	default:
		chat = simple.NewChatCompleter()
	}
	logger.Info("chat backend initialized", "backend", cfg.ChatBackend)

	// Event bus — optional, the service runs without it. notifier stays a
	// nil external.Notifier (not a typed nil *notify.Client) when the
	// connection is unavailable, so every `!= nil` guard downstream works.
	var notifier external.Notifier
	if cfg.NatsURL != "" {
		client, err := notify.NewClient(cfg.NatsURL, logger)
		if err != nil {
			logger.Warn("failed to connect to event bus, running without it", "error", err)
		} else {
			defer client.Close()
			logger.Info("connected to event bus", "url", cfg.NatsURL)
			notifier = client
		}
	}

	// Memory Store tiers
	archive := memory.NewArchive(db)
	recent, err := memory.NewRecentExchanges(ctx, cfg.DataDir)
	if err != nil {
		logger.Error("failed to open recent-exchanges store", "error", err)
		os.Exit(1)
	}
	signals, err := memory.NewSignals(recent)
	if err != nil {
		logger.Error("failed to open signals store", "error", err)
		os.Exit(1)
	}
	working := memory.NewWorkingFacts(cfg.DataDir)

	profiles := notebook.NewStore(cfg.DataDir)
	learner := preferences.NewLearner(signals)
	sources := sourcestore.New(db)

	// Unified Fetcher
	health := fetcher.NewHealthTracker()
	f := fetcher.New(health, metricsSet, logger)
	f.Register(fetcher.NewFeedAdapter())
	f.Register(fetcher.NewWebPageAdapter())
	f.Register(fetcher.NewFilingAdapter(
		fetcher.NewSECTickerResolver(secTickerTableURL),
		secUserAgent,
		func(entityID string) string { return fmt.Sprintf(secSubmissionsBase, entityID) },
		func(quotedName string) string { return fmt.Sprintf(secFullTextSearch, quotedName) },
	))
	f.Register(fetcher.NewVideoChannelAdapter())
	f.Register(fetcher.NewVideoKeywordAdapter(videoSearchBase))
	f.Register(fetcher.NewPaperCategoryAdapter(arxivCategoryBase))
	f.Register(fetcher.NewPaperQueryAdapter(arxivQueryBase))
	f.Register(fetcher.NewNewsKeywordAdapter(newsKeywordBase))

	httpClient := httpfetch.New(cfg.SearchBaseURL, cfg.SearchAPIKey)

	// Per-notebook Gatherer agents
	registryDeps := func(notebookID string) (*gatherer.Gatherer, error) {
		return gatherer.CreateGatherer(ctx, notebookID, gatherer.Deps{
			Profiles: profiles,
			Fetcher:  f,
			Health:   health,
			Archive:  archive,
			Signals:  signals,
			Embedder: embedder,
			Chat:     chat,
			Scraper:  httpClient,
			Sources:  sources,
			Notifier: notifier,
			Learner:  learner,
			Metrics:  metricsSet,
			DataDir:  cfg.DataDir,
			Logger:   logger,
		})
	}
	gatherers := gatherer.NewRegistry(registryDeps)

	sup := supervisor.New(supervisor.Deps{
		Profiles:  profiles,
		Gatherers: gatherers,
		Archive:   archive,
		Signals:   signals,
		Learner:   learner,
		Embedder:  embedder,
		Chat:      chat,
		Search:    httpClient,
		Scraper:   httpClient,
		Notebooks: profiles,
		Sources:   sources,
		Notifier:  notifier,
		Metrics:   metricsSet,
		Logger:    logger,
	})

	assembler := briefings.NewAssembler(briefings.Deps{
		Profiles:  profiles,
		Gatherers: gatherers,
		Sources:   sources,
		Signals:   signals,
		Notebooks: profiles,
		Chat:      chat,
		Metrics:   metricsSet,
		Logger:    logger,
	})

	orchestratorCfg := orchestrator.Config{
		CollectionInterval:  cfg.CollectionInterval,
		CompressionInterval: cfg.CompressionInterval,
		BriefingInterval:    cfg.CollectionInterval,
	}
	orch := orchestrator.New(sup, profiles, profiles, working, recent, archive, embedder, chat, assembler, notifier, orchestratorCfg, logger)
	orch.Start(ctx)
	logger.Info("ambient orchestrator started",
		"collection_interval", orchestratorCfg.CollectionInterval,
		"compression_interval", orchestratorCfg.CompressionInterval,
		"briefing_interval", orchestratorCfg.BriefingInterval)

	srv := server.New(cfg, db, gatherers, notifier, registry, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      srv.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down gracefully...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	logger.Info("scoutd starting", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("scoutd stopped")
}
