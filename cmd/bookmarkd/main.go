package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bookmarkd/internal/config"
	"github.com/kailas-cloud/bookmarkd/internal/domain/analysis"
	"github.com/kailas-cloud/bookmarkd/internal/domain/search/request"
	logpkg "github.com/kailas-cloud/bookmarkd/internal/logger"
	"github.com/kailas-cloud/bookmarkd/internal/metrics"
	chiTransport "github.com/kailas-cloud/bookmarkd/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/bookmarkd/internal/transport/openai"
	bookmarkuc "github.com/kailas-cloud/bookmarkd/internal/usecase/bookmark"
	healthuc "github.com/kailas-cloud/bookmarkd/internal/usecase/health"
	searchuc "github.com/kailas-cloud/bookmarkd/internal/usecase/search"
	"github.com/kailas-cloud/bookmarkd/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting bookmarkd API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.Bool("analyzer_enabled", cfg.Analyzer.Enabled),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	ctx := context.Background()

	st, err := openStore(ctx, &cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open bookmark store", zap.Error(err))
	}
	defer st.close()
	logger.Info("Connected to database", zap.String("driver", cfg.Database.Driver))

	emb, err := buildEmbedders(ctx, &cfg, st, logger)
	if err != nil {
		logger.Fatal("Failed to create embedder", zap.Error(err))
	}
	defer emb.close()
	logger.Info("Embedders created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", emb.model),
		zap.Int("dimensions", emb.dim),
		zap.Bool("query_cache", emb.cache != nil),
	)

	// Use case services
	bookmarkSvc := bookmarkuc.New(st.repo, emb.document, emb.dim).
		WithPagination(cfg.Search.DefaultPageSize, cfg.Search.MaxPageSize)
	searchSvc := searchuc.New(st.repo, emb.query, emb.dim, logger)
	if cfg.Analyzer.Enabled {
		analyzer := openaiTransport.NewAnalyzer(&openaiTransport.AnalyzerConfig{
			APIKey:  cfg.Analyzer.APIKey,
			BaseURL: cfg.Analyzer.BaseURL,
			Model:   cfg.Analyzer.Model,
			Timeout: time.Duration(cfg.Analyzer.TimeoutSec) * time.Second,
		})
		searchSvc.WithAnalyzer(analyzer, time.Duration(cfg.Analyzer.TimeoutSec)*time.Second).
			WithAnalysisHook(logAnalysis)
		logger.Info("Query analyzer enabled",
			zap.String("base_url", cfg.Analyzer.BaseURL),
			zap.String("model", cfg.Analyzer.Model),
		)
	}

	healthSvc := healthuc.New(st.pinger, emb.health)
	if emb.cache != nil {
		healthSvc.WithCache(emb.cache)
	}

	server := chiTransport.NewServer(bookmarkSvc, searchSvc, healthSvc, logger)
	router := chiTransport.NewRouter(server, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// logAnalysis records the analyzer output next to the request. It never
// touches the ranking.
func logAnalysis(ctx context.Context, req *request.Request, a analysis.Analysis) {
	logpkg.FromContext(ctx).Info("Query analysis",
		zap.String("query", req.Query()),
		zap.String("model", a.Model),
		zap.Int("prompt_tokens", a.PromptTokens),
		zap.Int("completion_tokens", a.CompletionTokens),
		zap.String("analysis", a.Content),
	)
}
