package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"machine-telemetry/confs"
	"machine-telemetry/db"
	"machine-telemetry/handlers"
	httpHandler "machine-telemetry/handlers/http"
	"machine-telemetry/lifecycle"
	"machine-telemetry/logging"
	"machine-telemetry/producer"
	"machine-telemetry/repositories"
	"machine-telemetry/server"
	"machine-telemetry/usecases"
	"machine-telemetry/ws"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := confs.Load()
	if err != nil {
		log.Printf("Error loading config: %v", err)
		return 1
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		log.Printf("Error building logger: %v", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	life := lifecycle.New(logger)

	// Starting: reach the sink or fail fast.
	database, err := db.Connect(cfg)
	if err != nil {
		logger.Error("failed to connect to storage", zap.Error(err))
		return 1
	}
	defer func() { _ = database.Close() }()

	repo := repositories.NewSignalPgRepository(database, cfg.DBTableName)
	coordinator := usecases.NewIngestCoordinator(repo, cfg.PoolSize, cfg.PoolAcquireTimeout,
		cfg.InsertMaxRetries, cfg.InsertRetryBackoff, logger)
	query := usecases.NewSignalQuery(repo)

	streamMgr := ws.NewManager(logger)
	coordinator.AddObserver(streamMgr.Broadcast)

	signalHandler := httpHandler.NewSignalHandler(query, logger)
	statsHandler := httpHandler.NewStatsHandler(coordinator, streamMgr, life)
	streamHandler := handlers.NewStreamHandler(streamMgr, life, logger)
	srv := server.New(cfg, life, logger, signalHandler, statsHandler, streamHandler)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Generators and background loops stop at ctx cancellation; cancel
	// also covers server startup failure.
	workCtx, cancelWork := context.WithCancel(ctx)
	defer cancelWork()

	group, workCtx := errgroup.WithContext(workCtx)
	if cfg.ProducerEnabled {
		runner := producer.NewRunner(coordinator, logger, producer.DefaultGenerators()...)
		group.Go(func() error { return runner.Run(workCtx) })
	} else {
		logger.Info("producer disabled, serving reads only")
	}
	group.Go(func() error {
		coordinator.RunStatsLogger(workCtx, time.Minute)
		return nil
	})

	go func() {
		<-ctx.Done()
		life.Advance(lifecycle.Draining)
	}()

	life.Advance(lifecycle.Ready)
	logger.Info("service ready", zap.String("table", cfg.DBTableName))

	drainFailed := false
	if err := srv.Run(ctx); err != nil {
		logger.Error("http server", zap.Error(err))
		drainFailed = true
	}
	life.Advance(lifecycle.Draining)
	cancelWork()

	// Give in-flight ticks the same grace the request side got.
	workDone := make(chan struct{})
	go func() {
		_ = group.Wait()
		close(workDone)
	}()
	select {
	case <-workDone:
	case <-time.After(cfg.ShutdownGracePeriod):
		logger.Error("generators did not stop within grace period")
		drainFailed = true
	}

	streamMgr.CloseAll()
	if !coordinator.Drained() {
		logger.Error("pool slots still held after drain")
		drainFailed = true
	}

	life.Advance(lifecycle.Stopped)
	if drainFailed {
		logger.Warn("shutdown abandoned in-flight work")
		return 1
	}
	logger.Info("shutdown complete")
	return 0
}
