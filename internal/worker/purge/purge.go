// Package purge physically removes page files whose soft delete grace window
// has elapsed.
package purge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// Queue is the part of the delete queue the worker drives.
type Queue interface {
	SweepEligible(ctx context.Context, maxAge time.Duration) ([]string, error)
	MarkForDeletion(ctx context.Context, filenames []string) error
}

// Deleter removes a stored object by key.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

// Config controls sweep cadence and delete parallelism.
type Config struct {
	Grace    time.Duration
	Interval time.Duration
	Workers  int

	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = time.Minute
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = 200 * time.Millisecond
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 5 * time.Second
	}
	return c
}

// Result summarizes one sweep.
type Result struct {
	Claimed int
	Purged  int
	Failed  int
}

// Worker sweeps the delete queue and deletes claimed files from the asset store.
// Sweeps may run concurrently (the periodic loop and a manual trigger); the
// queue hands every file to only one of them.
type Worker struct {
	queue  Queue
	store  Deleter
	cfg    Config
	logger *zap.Logger

	files  *prometheus.CounterVec
	sweeps prometheus.Counter
}

// New creates a purge worker and registers its metrics with reg.
func New(queue Queue, store Deleter, cfg Config, logger *zap.Logger, reg prometheus.Registerer) (*Worker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Worker{
		queue:  queue,
		store:  store,
		cfg:    cfg.withDefaults(),
		logger: logger.Named("purge_worker"),
		files: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "purge_files_total",
				Help: "Total number of soft deleted files processed by the purge worker.",
			},
			[]string{"result"},
		),
		sweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "purge_sweeps_total",
			Help: "Total number of delete queue sweeps.",
		}),
	}

	for _, c := range []prometheus.Collector{w.files, w.sweeps} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register purge metrics: %w", err)
		}
	}
	return w, nil
}

// Start sweeps once immediately and then every interval until ctx is done.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Purge worker started",
		zap.Duration("grace", w.cfg.Grace),
		zap.Duration("interval", w.cfg.Interval))

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
			w.logger.Error("Purge sweep failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			w.logger.Info("Purge worker shutting down")
			return
		case <-ticker.C:
		}
	}
}

// RunOnce claims every eligible file and deletes it. Files that still fail
// after retries are put back on the queue for a later sweep.
func (w *Worker) RunOnce(ctx context.Context) (Result, error) {
	w.sweeps.Inc()

	files, err := w.queue.SweepEligible(ctx, w.cfg.Grace)
	if err != nil {
		return Result{}, fmt.Errorf("sweep delete queue: %w", err)
	}
	if len(files) == 0 {
		return Result{}, nil
	}

	var (
		p      = pool.New().WithContext(ctx).WithMaxGoroutines(w.cfg.Workers)
		purged atomic.Int64
		mu     sync.Mutex
		failed []string
	)

	for _, file := range files {
		p.Go(func(ctx context.Context) error {
			if err := w.delete(ctx, file); err != nil {
				mu.Lock()
				failed = append(failed, file)
				mu.Unlock()
				w.files.WithLabelValues("failed").Inc()
				return fmt.Errorf("delete %s: %w", file, err)
			}
			purged.Add(1)
			w.files.WithLabelValues("purged").Inc()
			return nil
		})
	}
	poolErr := p.Wait()

	res := Result{Claimed: len(files), Purged: int(purged.Load()), Failed: len(failed)}

	if len(failed) > 0 {
		// use a fresh context so a shutdown does not drop the claimed files
		requeueCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := w.queue.MarkForDeletion(requeueCtx, failed); err != nil {
			w.logger.Error("Failed to requeue files",
				zap.Error(err),
				zap.Strings("files", failed))
			poolErr = errors.Join(poolErr, err)
		}
	}

	w.logger.Info("Purge sweep completed",
		zap.Int("claimed", res.Claimed),
		zap.Int("purged", res.Purged),
		zap.Int("failed", res.Failed))

	return res, poolErr
}

func (w *Worker) delete(ctx context.Context, key string) error {
	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(w.cfg.InitialInterval),
		backoff.WithMaxInterval(w.cfg.MaxInterval),
	), w.cfg.MaxRetries)

	return backoff.Retry(func() error {
		err := w.store.Delete(ctx, key)
		if err != nil && ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(b, ctx))
}
