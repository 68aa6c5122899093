package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BaSui01/genflow/api/handlers"
	"github.com/BaSui01/genflow/catalog"
	"github.com/BaSui01/genflow/config"
	"github.com/BaSui01/genflow/dispatch"
	"github.com/BaSui01/genflow/internal/cache"
	"github.com/BaSui01/genflow/internal/metrics"
	"github.com/BaSui01/genflow/internal/server"
	"github.com/BaSui01/genflow/internal/telemetry"
	"github.com/BaSui01/genflow/mediastore"
	"github.com/BaSui01/genflow/orchestrate"
	"github.com/BaSui01/genflow/poll"
	"github.com/BaSui01/genflow/providers"
	"github.com/BaSui01/genflow/reconcile"
)

// Server assembles the generation engine behind the HTTP and metrics
// ports and owns the lifecycle of every long-running piece.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	otel   *telemetry.Providers

	httpManager    *server.Manager
	metricsManager *server.Manager

	metricsCollector *metrics.Collector
	cacheManager     *cache.Manager
	store            *mediastore.Memory
	orchestrator     *orchestrate.Orchestrator

	healthHandler   *handlers.HealthHandler
	generateHandler *handlers.GenerateHandler
	estimateHandler *handlers.EstimateHandler
	modelsHandler   *handlers.ModelsHandler
	streamHandler   *handlers.StreamHandler

	// catalogMu guards cat, which the watcher swaps on file change.
	catalogMu sync.RWMutex
	cat       *catalog.Catalog
	watcher   *config.Watcher

	rateLimiterCancel context.CancelFunc

	wg sync.WaitGroup
}

// NewServer creates a server from validated configuration.
func NewServer(cfg *config.Config, logger *zap.Logger, otel *telemetry.Providers) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
		otel:   otel,
	}
}

// Start brings up the engine, the HTTP server and the metrics server.
func (s *Server) Start() error {
	s.metricsCollector = metrics.NewCollector("genflow", s.logger)

	if err := s.initEngine(); err != nil {
		return fmt.Errorf("failed to init engine: %w", err)
	}

	s.initHandlers()

	if err := s.initCatalogWatcher(); err != nil {
		return fmt.Errorf("failed to init catalog watcher: %w", err)
	}

	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("All servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.Int("catalog_models", s.catalog().Len()),
		zap.Bool("catalog_watch_enabled", s.watcher != nil),
	)

	return nil
}

// initEngine builds the dispatch, polling and reconciliation pipeline
// and the orchestrator on top of it.
func (s *Server) initEngine() error {
	cat, err := s.loadCatalog()
	if err != nil {
		return err
	}
	s.setCatalog(cat)

	clients := make(map[string]providers.Client, len(s.cfg.Providers))
	for name, pc := range s.cfg.Providers {
		clients[name] = providers.NewHTTPClient(providers.Config{
			Name:              name,
			BaseURL:           pc.BaseURL,
			APIKey:            pc.APIKey,
			Timeout:           pc.Timeout,
			RequestsPerSecond: pc.RequestsPerSecond,
			StatusPath:        pc.StatusPath,
		}, s.logger)
	}
	s.logger.Info("Provider clients initialized", zap.Int("count", len(clients)))

	var urlCache providers.URLCache
	if s.cfg.Redis.Enabled {
		manager, err := cache.NewManager(cache.Config{
			Addr:         s.cfg.Redis.Addr,
			Password:     s.cfg.Redis.Password,
			DB:           s.cfg.Redis.DB,
			DefaultTTL:   s.cfg.Redis.TTL,
			PoolSize:     s.cfg.Redis.PoolSize,
			MinIdleConns: s.cfg.Redis.MinIdleConns,
		}, s.logger)
		if err != nil {
			s.logger.Warn("Redis not available, upload URL cache disabled", zap.Error(err))
		} else {
			s.cacheManager = manager
			urlCache = manager
		}
	}

	uploader := providers.NewHTTPUploader(providers.UploadConfig{
		BaseURL:  s.cfg.Upload.BaseURL,
		APIKey:   s.cfg.Upload.APIKey,
		Timeout:  s.cfg.Upload.Timeout,
		CacheTTL: s.cfg.Upload.CacheTTL,
	}, urlCache, s.logger)

	dispatcher := dispatch.New(clients, uploader, s.metricsCollector, s.logger)
	poller := poll.New(poll.Config{Interval: s.cfg.Polling.Interval}, s.metricsCollector, s.logger)

	s.store = mediastore.NewMemory(s.logger)
	reconciler := reconcile.New(s.store, s.metricsCollector, s.logger)

	s.orchestrator = orchestrate.New(orchestrate.Config{
		Catalog:    cat,
		Dispatcher: dispatcher,
		Poller:     poller,
		Reconciler: reconciler,
		Metrics:    s.metricsCollector,
		Logger:     s.logger,
	})

	return nil
}

// loadCatalog reads the configured catalog file, falling back to the
// built-in catalog when no path is set.
func (s *Server) loadCatalog() (*catalog.Catalog, error) {
	if s.cfg.Catalog.Path == "" {
		s.logger.Info("Using built-in model catalog")
		return catalog.Default(), nil
	}
	cat, err := catalog.LoadFile(s.cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", s.cfg.Catalog.Path, err)
	}
	s.logger.Info("Model catalog loaded",
		zap.String("path", s.cfg.Catalog.Path),
		zap.Int("models", cat.Len()),
	)
	return cat, nil
}

func (s *Server) setCatalog(cat *catalog.Catalog) {
	s.catalogMu.Lock()
	s.cat = cat
	s.catalogMu.Unlock()
}

func (s *Server) catalog() *catalog.Catalog {
	s.catalogMu.RLock()
	defer s.catalogMu.RUnlock()
	return s.cat
}

func (s *Server) initHandlers() {
	s.healthHandler = handlers.NewHealthHandler(s.logger)
	s.healthHandler.RegisterCheck(&catalogCheck{source: s.catalog})
	if s.cacheManager != nil {
		s.healthHandler.RegisterCheck(&redisCheck{manager: s.cacheManager})
	}

	s.generateHandler = handlers.NewGenerateHandler(s.orchestrator, s.logger)
	s.estimateHandler = handlers.NewEstimateHandler(s.catalog, s.logger)
	s.modelsHandler = handlers.NewModelsHandler(s.catalog, s.logger)
	s.streamHandler = handlers.NewStreamHandler(s.orchestrator, s.logger)

	s.logger.Info("Handlers initialized")
}

// initCatalogWatcher starts the catalog file watcher when a path is
// configured. Reloads swap the catalog behind the estimate and model
// listing endpoints; a batch already running keeps the catalog it
// started with.
func (s *Server) initCatalogWatcher() error {
	if s.cfg.Catalog.Path == "" {
		return nil
	}

	watcher, err := config.NewWatcher(s.cfg.Catalog.Path, config.WithWatcherLogger(s.logger))
	if err != nil {
		return err
	}

	watcher.OnReload(func(cat *catalog.Catalog) {
		s.setCatalog(cat)
		s.logger.Info("Model catalog reloaded", zap.Int("models", cat.Len()))
	})

	if err := watcher.Start(context.Background()); err != nil {
		return err
	}

	s.watcher = watcher
	return nil
}

func (s *Server) startHTTPServer() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.healthHandler.HandleHealth)
	mux.HandleFunc("/healthz", s.healthHandler.HandleHealth)
	mux.HandleFunc("/ready", s.healthHandler.HandleReady)
	mux.HandleFunc("/readyz", s.healthHandler.HandleReady)
	mux.HandleFunc("/version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	mux.HandleFunc("/v1/generations", s.generateHandler.HandleStart)
	mux.HandleFunc("/v1/generations/state", s.generateHandler.HandleState)
	mux.HandleFunc("/v1/generations/reset", s.generateHandler.HandleReset)
	mux.HandleFunc("/v1/generations/stream", s.streamHandler.HandleStream)
	mux.HandleFunc("/v1/estimates", s.estimateHandler.HandleEstimate)
	mux.HandleFunc("/v1/models", s.modelsHandler.HandleList)

	rateLimiterCtx, rateLimiterCancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = rateLimiterCancel
	handler := Chain(mux,
		Recovery(s.logger),
		RequestID(),
		OTelTracing(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		MetricsMiddleware(s.metricsCollector),
		CORS(s.cfg.Server.CORSAllowedOrigins),
		RateLimiter(rateLimiterCtx, s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst, s.logger),
	)

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.httpManager = server.NewManager(handler, serverConfig, s.logger)

	if err := s.httpManager.Start(); err != nil {
		return err
	}

	s.logger.Info("HTTP server started", zap.Int("port", s.cfg.Server.HTTPPort))
	return nil
}

func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.metricsManager = server.NewManager(mux, serverConfig, s.logger)

	if err := s.metricsManager.Start(); err != nil {
		return err
	}

	s.logger.Info("Metrics server started", zap.Int("port", s.cfg.Server.MetricsPort))
	return nil
}

// WaitForShutdown blocks until a termination signal, then shuts down.
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}

	s.Shutdown()
}

// Shutdown stops everything in reverse dependency order.
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown...")

	ctx := context.Background()

	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}

	if s.watcher != nil {
		s.watcher.Stop()
	}

	if s.orchestrator != nil {
		s.orchestrator.Reset()
	}

	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}

	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("Metrics server shutdown error", zap.Error(err))
		}
	}

	if s.cacheManager != nil {
		if err := s.cacheManager.Close(); err != nil {
			s.logger.Error("Cache shutdown error", zap.Error(err))
		}
	}

	if s.otel != nil {
		if err := s.otel.Shutdown(ctx); err != nil {
			s.logger.Error("Telemetry shutdown error", zap.Error(err))
		}
	}

	s.wg.Wait()

	s.logger.Info("Graceful shutdown completed")
}

// catalogCheck reports ready once the catalog holds at least one model.
type catalogCheck struct {
	source handlers.CatalogSource
}

func (c *catalogCheck) Name() string { return "catalog" }

func (c *catalogCheck) Check(_ context.Context) error {
	if c.source().Len() == 0 {
		return fmt.Errorf("catalog is empty")
	}
	return nil
}

// redisCheck probes the upload URL cache.
type redisCheck struct {
	manager *cache.Manager
}

func (c *redisCheck) Name() string { return "redis" }

func (c *redisCheck) Check(ctx context.Context) error {
	return c.manager.Ping(ctx)
}
