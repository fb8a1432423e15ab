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

	"github.com/okian/battlegrounds/internal/adapters/http/api"
	"github.com/okian/battlegrounds/internal/adapters/http/site"
	"github.com/okian/battlegrounds/internal/adapters/http/swagger"
	service "github.com/okian/battlegrounds/internal/app"
	"github.com/okian/battlegrounds/internal/config"
	"github.com/okian/battlegrounds/internal/scheduler"
	"github.com/okian/battlegrounds/internal/seed"
	"github.com/okian/battlegrounds/pkg/logger"
	"github.com/okian/battlegrounds/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := logger.Init(); err != nil {
		// Use fmt for initialization errors since logger isn't available yet
		fmt.Fprintln(os.Stderr, "failed to initialize logging:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		loggerInstance.Error(ctx, "failed to load config", logger.Error(err))
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := newService(cfg, loggerInstance)

	ds, ok, err := loadDataset(cfg, time.Now())
	if err != nil {
		loggerInstance.Error(ctx, "failed to load seed data", logger.String("seed_file", cfg.SeedFile), logger.Error(err))
		return
	}
	if ok {
		svc.Load(ctx, ds)
	}

	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	sched, err := newScheduler(cfg, svc, loggerInstance)
	if err != nil {
		loggerInstance.Error(ctx, "failed to create scheduler", logger.Error(err))
		return
	}
	// Seeded contests and battles may already be over.
	if err := sched.RunSweeps(ctx); err != nil {
		loggerInstance.Warn(ctx, "startup sweep failed", logger.Error(err))
	}
	if err := sched.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start scheduler", logger.Error(err))
		return
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc, cfg),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "scheduler shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// newService builds the contest service from configuration.
func newService(cfg *config.Config, l logger.Logger) *service.Service {
	return service.New(
		service.WithLogger(l.Named("service")),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithNotificationLimit(cfg.NotificationLimit),
	)
}

// newScheduler binds the housekeeping jobs to svc.
func newScheduler(cfg *config.Config, svc *service.Service, l logger.Logger) (*scheduler.Scheduler, error) {
	return scheduler.New(svc,
		scheduler.WithLogger(l.Named("scheduler")),
		scheduler.WithBattleSweep(cfg.BattleSweepCron),
		scheduler.WithContestSweep(cfg.ContestSweepCron),
		scheduler.WithTVRotation(cfg.TVRotation()),
	)
}

// loadDataset returns the seed file, or the demo data placed around now when
// enabled. The boolean is false when the store should start empty.
func loadDataset(cfg *config.Config, now time.Time) (seed.Dataset, bool, error) {
	switch {
	case cfg.SeedFile != "":
		ds, err := seed.LoadFile(cfg.SeedFile)
		if err != nil {
			return seed.Dataset{}, false, err
		}
		return ds, true, nil
	case cfg.SeedDemo:
		return seed.DemoAt(now), true, nil
	default:
		return seed.Dataset{}, false, nil
	}
}

// newMux registers the API, its documentation and the TV display.
func newMux(ctx context.Context, svc *service.Service, cfg *config.Config) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(svc, cfg.MaxLeaderboardLimit).Register(ctx, mux)
	swagger.Register(ctx, mux)
	site.Register(ctx, mux)
	return mux
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
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
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
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
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics refreshes the gauges derived from service stats.
func updateServiceMetrics(svc *service.Service) {
	stats := svc.GetStats()

	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}
	if workerCount, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workerCount)
	}
	if unread, ok := stats["unreadCount"].(int); ok {
		metrics.UpdateUnreadNotifications(unread)
	}
	for _, collection := range []string{"agents", "contests", "deals", "battles", "notifications"} {
		if n, ok := stats[collection].(int); ok {
			metrics.UpdateStoreRecords(collection, n)
		}
	}
}
