package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/snaptrust/internal/adapters/analytics"
	"github.com/okian/snaptrust/internal/adapters/dataset"
	"github.com/okian/snaptrust/internal/adapters/http/api"
	"github.com/okian/snaptrust/internal/adapters/insights"
	"github.com/okian/snaptrust/internal/adapters/repository"
	service "github.com/okian/snaptrust/internal/app"
	"github.com/okian/snaptrust/internal/config"
	"github.com/okian/snaptrust/internal/domain/model"
	"github.com/okian/snaptrust/internal/domain/scoring"
	"github.com/okian/snaptrust/pkg/logger"
	"github.com/okian/snaptrust/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Re-initialize with the configured handler, then apply the level
	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	loggerInstance := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	metricsManager := metrics.Configure(metricsOptions(cfg)...)

	svc, err := buildService(ctx, cfg, loggerInstance)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	if metricsManager.Enabled() {
		go startSystemMetricsUpdater(ctx, metricsManager.RefreshInterval())
		go startServiceMetricsUpdater(ctx, svc, metricsManager.RefreshInterval())
	}

	srv := newHTTPServer(cfg.Addr, api.NewServer(svc, api.WithLogger(loggerInstance.Named("api"))).Routes())

	serveErr := make(chan error, 1)
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("mode", cfg.SourceMode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for shutdown signal or a listener failure
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}
	loggerInstance.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
	return nil
}

// buildService wires the entity source and insight generator selected by cfg.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger) (*service.Service, error) {
	assistant := buildGenerator(ctx, cfg, log)
	opts := []service.Option{
		service.WithLogger(log.Named("service")),
		service.WithInsightGenerator(assistant),
		service.WithQueryAnswerer(assistant),
		service.WithQuerySample(cfg.QuerySample),
		service.WithTopTier(cfg.TopTier),
		service.WithFetchLimit(cfg.DashboardFetchLimit),
		service.WithListLimits(cfg.DefaultLimit, cfg.MaxLimit),
	}

	switch cfg.SourceMode {
	case config.SourceRemote:
		client, err := analytics.NewClient(cfg.RemoteBaseURL,
			analytics.WithTimeout(cfg.RemoteTimeout()),
			analytics.WithLogger(log.Named("analytics")),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create remote source: %w", err)
		}
		opts = append(opts, service.WithRemoteSource(client))
	default:
		scorer := scoring.NewScorer(
			scoring.WithTierThresholds(cfg.GoldThreshold, cfg.SilverThreshold),
			scoring.WithExclusivityBonus(cfg.ExclusivityBonus),
		)
		store := repository.NewMemoryStore(
			repository.WithScorer(scorer),
			repository.WithReloadInterval(cfg.ReloadInterval()),
			repository.WithLogger(log.Named("repository")),
		)
		loader := dataset.NewLoader(cfg.PaymentsPath(), cfg.MerchantsPath(), dataset.WithLogger(log.Named("dataset")))
		opts = append(opts, service.WithLocalStore(store, loader))
	}
	return service.New(opts...), nil
}

// buildGenerator returns the model-backed assistant when an API key is set,
// and the rule-based one otherwise or when the client cannot be created.
func buildGenerator(ctx context.Context, cfg *config.Config, log logger.Logger) insights.Assistant {
	if cfg.GenAIAPIKey == "" {
		return insights.NewRuleGenerator()
	}
	g, err := insights.NewGenAIGenerator(ctx, cfg.GenAIAPIKey,
		insights.WithModel(cfg.GenAIModel),
		insights.WithTimeout(cfg.InsightTimeout()),
		insights.WithLogger(log.Named("insights")),
	)
	if err != nil {
		log.Warn(ctx, "genai unavailable; using rule-based insights", logger.Error(err))
		return insights.NewRuleGenerator()
	}
	return g
}

func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// metricsOptions maps the metrics settings onto manager options.
func metricsOptions(cfg *config.Config) []metrics.Option {
	return []metrics.Option{
		metrics.WithMetricsEnabled(cfg.MetricsEnabled),
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
		metrics.WithMetricPrefix(cfg.MetricsPrefix),
		metrics.WithCustomLabels(cfg.MetricsLabels),
		metrics.WithHistogramBuckets(cfg.MetricsBuckets),
		metrics.WithRefreshInterval(cfg.MetricsRefresh()),
	}
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		// Calculate average GC pause time
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics refreshes the loaded-entity gauges from service stats.
func updateServiceMetrics(svc *service.Service) {
	stats := svc.GetStats()

	if n, ok := stats["customers"].(int); ok {
		metrics.UpdateEntitiesLoaded(string(model.KindCustomer), n)
	}
	if n, ok := stats["merchants"].(int); ok {
		metrics.UpdateEntitiesLoaded(string(model.KindMerchant), n)
	}
}
