package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"book-processor/internal/config"
	"book-processor/internal/domain"
	"book-processor/internal/domain/ports/adapter"
	"book-processor/internal/infra/adapters/catalog"
	"book-processor/internal/infra/adapters/drive"
	"book-processor/internal/infra/adapters/speech"
	"book-processor/internal/infra/adapters/tasks"
	pg "book-processor/internal/infra/db/postgres"
	"book-processor/internal/infra/logging"
	"book-processor/internal/infra/metrics"
	red "book-processor/internal/infra/redis"
	"book-processor/internal/infra/sched"
	"book-processor/internal/infra/web"
	"book-processor/internal/usecase"
)

const runLockKey = "book-processor:run-lock"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "developer mode (noop stage adapters, no run lock)")
	daemon := flag.Bool("daemon", false, "keep running, one pass per interval")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode, *daemon)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()
	logger.Info().Str("config", *cfgPath).Bool("dev", cfg.Runtime.Dev).
		Bool("daemon", cfg.Runtime.Daemon).Msg("book processor starting")

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	bookRepo := pg.NewBookRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Run lock ----
	// Two drivers on one store would double-process jobs; refuse to start if
	// another instance holds the lock. Dev mode and an empty redis URL skip it.
	var unlock func()
	if !cfg.Runtime.Dev && cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()

		locker := red.NewLocker(redisClient)
		lockTTL := 2 * cfg.Pipeline.StalledTimeout()
		token, err := locker.TryLock(ctx, runLockKey, lockTTL)
		if err != nil {
			if errors.Is(err, domain.ErrLockHeld) {
				logger.Fatal().Msg("another instance is running against this store")
			}
			logger.Fatal().Err(err).Msg("run lock")
		}
		unlock = func() {
			unlockCtx, unlockCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer unlockCancel()
			if err := locker.Unlock(unlockCtx, runLockKey, token); err != nil {
				logger.Warn().Err(err).Msg("releasing run lock failed")
			}
		}
		defer unlock()
	}

	// ---- Stage adapters ----
	var (
		fetcher    adapter.BookFetcher
		summarizer adapter.Summarizer
		renderer   adapter.Renderer
		publisher  adapter.Publisher
		source     adapter.TaskSource
	)
	if cfg.Runtime.Dev {
		fetcher = catalog.NewNoopCatalog(cfg.Pipeline.DownloadsDir)
		noopSpeech := speech.NewNoopSpeech(cfg.Pipeline.PodcastsDir, cfg.Pipeline.AudiobooksDir)
		summarizer = noopSpeech
		renderer = noopSpeech
		publisher = drive.NewNoopDrive()
		source = tasks.NewNoopTaskSource()
		logger.Warn().Msg("dev mode: all stage adapters are noop")
	} else {
		fetcher = catalog.NewHTTPCatalog(cfg.Catalog, cfg.Pipeline.DownloadsDir)
		summarizer = speech.NewPodcastClient(cfg.Speech, cfg.Pipeline.PodcastsDir)
		renderer = speech.NewAudiobookClient(cfg.Speech, cfg.Pipeline.AudiobooksDir)
		publisher = drive.NewHTTPDrive(cfg.Drive)
		source = tasks.NewHTTPTaskSource(cfg.Tasks.BaseURL, cfg.Pipeline.TasksListName)
	}

	// ---- Use cases ----
	pipelineUC := usecase.NewPipelineUseCase(bookRepo, txManager, fetcher, summarizer, renderer, publisher, logger)
	sweepUC := usecase.NewSweepUseCase(bookRepo, cfg.Pipeline.StalledTimeout(), logger)
	ingestUC := usecase.NewIngestUseCase(bookRepo, source, cfg.Pipeline.TasksCutoff, logger)
	runner := usecase.NewRunnerUseCase(bookRepo, pipelineUC, sweepUC, ingestUC, logger)

	if !cfg.Runtime.Daemon {
		// One-shot cron-style run: a store failure exits non-zero, individual
		// book failures do not.
		if _, err := runner.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("run aborted")
			if unlock != nil {
				unlock()
			}
			os.Exit(1)
		}
		return
	}

	// ---- Daemon mode ----
	server := web.NewServer(cfg, bookRepo, logger)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("status server stopped")
		}
	}()

	worker := sched.NewRunWorker(cfg.Pipeline.DaemonInterval, runner, logger)
	workerErr := make(chan error, 1)
	go func() { workerErr <- worker.Run(ctx) }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case s := <-sig:
		logger.Info().Str("signal", s.String()).Msg("shutting down")
		cancel()
		<-workerErr
	case err := <-workerErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("worker aborted")
			exitCode = 1
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("status server shutdown")
	}
	if exitCode != 0 {
		if unlock != nil {
			unlock()
		}
		os.Exit(exitCode)
	}
}
