package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"bookapi/internal/config"
	"bookapi/internal/database"
	"bookapi/internal/database/migration"
	handlers "bookapi/internal/http/handler"
	"bookapi/internal/http/middleware"
	"bookapi/internal/keylock"
	"bookapi/internal/logging"
	"bookapi/internal/model"
	"bookapi/internal/otel"
	"bookapi/internal/repository"
	"bookapi/internal/repository/memory"
	"bookapi/internal/repository/postgres"
	redisrepo "bookapi/internal/repository/redis"
	"bookapi/internal/service"
	"bookapi/internal/storage"
	"bookapi/internal/worker/purge"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}

// stores groups the persistence collaborators of the book manager.
type stores struct {
	db        *sql.DB
	books     repository.BookRepository
	snapshots repository.SnapshotRepository
	votes     repository.VoteRepository
	queue     repository.DeleteQueueRepository
	closers   []func()
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func run(cfg *config.AppConfig, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("Tracing shutdown failed", zap.Error(err))
		}
	}()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	// Reusable S3-compatible object storage client for page assets
	pages, err := storage.NewMinIO(ctx, cfg.MinIO)
	if err != nil {
		return fmt.Errorf("init object storage: %w", err)
	}

	locks := keylock.NewRegistry()
	queue := service.NewDeleteQueue(st.queue, nil)
	books := service.NewBookManager(
		st.books,
		service.NewSnapshotStore[model.Book](st.snapshots, model.EntityBook, nil),
		service.NewVoteLedger(st.votes, logger, nil),
		queue,
		locks.Get(string(model.EntityBook)),
		logger,
		nil,
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promMW, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return fmt.Errorf("init http metrics: %w", err)
	}

	var wg sync.WaitGroup
	if cfg.Purge.Enabled {
		w, err := purge.New(queue, pages, purge.Config{
			Grace:    cfg.Purge.Grace,
			Interval: cfg.Purge.Interval,
			Workers:  cfg.Purge.Workers,
		}, logger, reg)
		if err != nil {
			return fmt.Errorf("init purge worker: %w", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Start(ctx)
		}()
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// RequestID first so every later middleware sees the id
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	app.Use(promMW.Handler())
	app.Use(middleware.Logger(logger))
	app.Use(middleware.Claims())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	handlers.RegisterRoutes(app, st.db, books, pages, cfg.MinIO.PresignExpiry)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(":" + cfg.Port)
	}()
	logger.Info("Server started", zap.String("port", cfg.Port), zap.String("store", cfg.StoreBackend))

	select {
	case err := <-errCh:
		stop()
		wg.Wait()
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = app.ShutdownWithContext(sctx)
	wg.Wait()
	return err
}

// openStores selects the book store by STORE_BACKEND and the delete queue by
// PURGE_QUEUE_BACKEND. The postgres queue needs the postgres store.
func openStores(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*stores, error) {
	st := &stores{}

	switch cfg.StoreBackend {
	case "memory":
		st.books = memory.NewBookMemory()
		st.snapshots = memory.NewSnapshotMemory()
		st.votes = memory.NewVoteMemory()
	case "postgres":
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		st.closers = append(st.closers, func() { _ = db.Close() })

		if err := migration.EnsureMigrated(ctx, db, logger, cfg.Database.Host); err != nil {
			st.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}

		st.db = db
		st.books = postgres.NewBookPostgres(db)
		st.snapshots = postgres.NewSnapshotPostgres(db)
		st.votes = postgres.NewVotePostgres(db)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	switch cfg.Purge.QueueBackend {
	case "redis":
		client, err := database.NewRedis(ctx, cfg.Redis)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		st.closers = append(st.closers, client.Close)
		st.queue = redisrepo.NewDeleteQueueRedis(client, cfg.Redis.QueueKey)
	case "postgres":
		if st.db == nil {
			st.Close()
			return nil, fmt.Errorf("postgres delete queue requires STORE_BACKEND=postgres")
		}
		st.queue = postgres.NewDeleteQueuePostgres(st.db)
	case "memory":
		st.queue = memory.NewDeleteQueueMemory()
	default:
		st.Close()
		return nil, fmt.Errorf("unknown delete queue backend %q", cfg.Purge.QueueBackend)
	}

	return st, nil
}
