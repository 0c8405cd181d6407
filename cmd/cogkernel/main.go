package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nidhogg/cogkernel/internal/action"
	"github.com/nidhogg/cogkernel/internal/adapters"
	"github.com/nidhogg/cogkernel/internal/config"
	"github.com/nidhogg/cogkernel/internal/graph"
	"github.com/nidhogg/cogkernel/internal/httpapi"
	"github.com/nidhogg/cogkernel/internal/kernel"
	"github.com/nidhogg/cogkernel/internal/statusbus"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	logger.Info("starting cogkernel")

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/cogkernel.json"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.String("path", cfgPath), zap.Error(err))
	}
	logger.Info("config loaded", zap.String("path", cfgPath))

	g, err := graph.Load(cfg.Graph.DumpPath, logger)
	if err != nil {
		logger.Fatal("failed to load graph", zap.Error(err))
	}
	logger.Info("graph loaded", zap.Int("nodes", g.NodeCount()))

	var extractor adapters.TripleExtractor = adapters.NoopTripleExtractor{}
	if cfg.Extractor.Enabled {
		extractor = adapters.NewOllamaTripleExtractor(cfg.Extractor.Endpoint, cfg.Extractor.Model, cfg.Extractor.Timeout(), logger)
	}

	var summaries adapters.SummaryFetcher = adapters.NoopSummaryFetcher{}
	if cfg.Enrichment.Enabled {
		summaries = adapters.NewWikipediaSummaryFetcher(cfg.Enrichment.UserAgent, cfg.Enrichment.Timeout(), logger)
	}

	registry := action.NewRegistry()
	registry.Register("wiki_enrich", action.NewWikiEnrichHandler(summaries, extractor, logger))

	kcfg := kernel.Config{
		DumpPath:        cfg.Graph.DumpPath,
		TickInterval:    cfg.Cognitive.TickInterval(),
		StatusQueue:     cfg.Cognitive.StatusQueueSize,
		ActionThreshold: cfg.Cognitive.ActionThreshold,
	}
	k := kernel.New(g, extractor, summaries, registry, kcfg, logger)
	k.Start()

	var bus *statusbus.Bus
	if cfg.Redis.Enabled {
		b, err := statusbus.New(cfg.Redis.URL, cfg.Redis.Stream, logger)
		if err != nil {
			logger.Warn("redis unavailable, running without status fan-out", zap.Error(err))
		} else {
			bus = b
			busCtx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go bus.Run(busCtx, k.Statuses())
			logger.Info("status bus initialized")
		}
	}

	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: httpapi.NewRouter(k, logger),
	}
	go func() {
		logger.Info("cogkernel listening", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down cogkernel")
	k.Stop()
	if err := k.Save(""); err != nil {
		logger.Warn("failed to persist graph on shutdown", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	if bus != nil {
		_ = bus.Close()
	}
}
