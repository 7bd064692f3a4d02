// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package vectorizer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/lodestar/internal/logging"
	"github.com/tomtom215/lodestar/internal/metrics"
)

// Indexer applies jobs. The recommendation engine implements it.
type Indexer interface {
	IndexEntity(ctx context.Context, kind string, id int64) error
	RemoveEntity(ctx context.Context, kind string, id int64) error
}

// WorkerConfig tunes the Worker.
type WorkerConfig struct {
	// Topic to consume. Empty means DefaultTopic.
	Topic string

	// PoisonTopic receives jobs that still fail after all retries. Empty
	// drops them after logging.
	PoisonTopic string

	// RatePerSecond caps embeddings per second; zero disables the limit.
	RatePerSecond float64
	Burst         int

	// JobTimeout bounds one job, retries excluded.
	JobTimeout time.Duration

	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64

	// CloseTimeout is how long in-flight jobs may run after shutdown.
	CloseTimeout time.Duration
}

// DefaultWorkerConfig returns production defaults.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		Topic:                DefaultTopic,
		PoisonTopic:          DefaultTopic + ".failed",
		RatePerSecond:        20,
		Burst:                5,
		JobTimeout:           30 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 500 * time.Millisecond,
		RetryMaxInterval:     10 * time.Second,
		RetryMultiplier:      2.0,
		CloseTimeout:         15 * time.Second,
	}
}

// WorkerStats counts handled jobs since start.
type WorkerStats struct {
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
	Dropped   int64 `json:"dropped"`
}

// Worker consumes vectorize jobs and applies them through an Indexer.
// Replaying a job is harmless: upserts replace and deletes of missing
// vectors succeed.
//
// Worker implements suture.Service. Each Serve call builds a fresh router so
// the supervisor can restart it.
type Worker struct {
	config     WorkerConfig
	subscriber message.Subscriber
	poisonPub  message.Publisher
	indexer    Indexer
	limiter    *rate.Limiter
	logger     zerolog.Logger
	wmLogger   watermill.LoggerAdapter

	runningOnce sync.Once
	running     chan struct{}

	processed atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

// NewWorker creates a worker. poisonPub may be nil.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewWorker(cfg WorkerConfig, sub message.Subscriber, poisonPub message.Publisher, idx Indexer, logger zerolog.Logger) (*Worker, error) {
	if sub == nil || idx == nil {
		return nil, fmt.Errorf("subscriber and indexer are required")
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.RetryMultiplier == 0 {
		cfg.RetryMultiplier = 2.0
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	logger = logger.With().Str("component", "vectorizer").Logger()
	return &Worker{
		config:     cfg,
		subscriber: sub,
		poisonPub:  poisonPub,
		indexer:    idx,
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger,
		wmLogger:   logging.NewWatermillAdapter(logger),
		running:    make(chan struct{}),
	}, nil
}

// Serve implements suture.Service. It blocks until ctx is canceled.
func (w *Worker) Serve(ctx context.Context) error {
	r, err := w.newRouter()
	if err != nil {
		return err
	}

	go func() {
		select {
		case <-r.Running():
			w.runningOnce.Do(func() { close(w.running) })
			w.logger.Info().Str("topic", w.config.Topic).Msg("vectorizer running")
		case <-ctx.Done():
		}
	}()

	if err := r.Run(ctx); err != nil {
		return fmt.Errorf("vectorizer router: %w", err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

// Running is closed once the first router has subscribed.
func (w *Worker) Running() <-chan struct{} {
	return w.running
}

// String implements fmt.Stringer for supervisor logs.
func (w *Worker) String() string {
	return "vectorizer"
}

// Stats returns job counters.
func (w *Worker) Stats() WorkerStats {
	return WorkerStats{
		Processed: w.processed.Load(),
		Failed:    w.failed.Load(),
		Dropped:   w.dropped.Load(),
	}
}

// newRouter wires the middleware chain, outermost first: poison queue,
// retry, panic recovery.
func (w *Worker) newRouter() (*message.Router, error) {
	r, err := message.NewRouter(message.RouterConfig{CloseTimeout: w.config.CloseTimeout}, w.wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}

	if w.poisonPub != nil && w.config.PoisonTopic != "" {
		poison, err := middleware.PoisonQueue(w.poisonPub, w.config.PoisonTopic)
		if err != nil {
			return nil, fmt.Errorf("create poison queue middleware: %w", err)
		}
		r.AddMiddleware(poison)
	} else {
		r.AddMiddleware(w.dropFailed)
	}

	retry := middleware.Retry{
		MaxRetries:      w.config.RetryMaxRetries,
		InitialInterval: w.config.RetryInitialInterval,
		MaxInterval:     w.config.RetryMaxInterval,
		Multiplier:      w.config.RetryMultiplier,
		Logger:          w.wmLogger,
	}
	r.AddMiddleware(retry.Middleware, middleware.Recoverer)

	r.AddConsumerHandler("vectorize", w.config.Topic, w.subscriber, w.handle)
	return r, nil
}

// dropFailed acks jobs that exhausted their retries when no poison topic is
// configured, so a permanently failing job is not redelivered forever.
func (w *Worker) dropFailed(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		out, err := h(msg)
		if err != nil {
			w.logger.Error().Err(err).Str("message_id", msg.UUID).Msg("vectorize job dropped after retries")
		}
		return out, nil
	}
}

func (w *Worker) handle(msg *message.Message) error {
	job, err := DecodeJob(msg.Payload)
	if err != nil {
		// Malformed jobs never succeed; ack them.
		w.dropped.Add(1)
		metrics.RecordVectorizeJob("unknown", "unknown", "invalid", 0)
		w.logger.Warn().Err(err).Str("message_id", msg.UUID).Msg("dropping invalid vectorize job")
		return nil
	}

	ctx := msg.Context()
	if id := msg.Metadata.Get(metaCorrelationID); id != "" {
		ctx = logging.ContextWithCorrelationID(ctx, id)
	}
	if err := w.limiter.Wait(ctx); err != nil {
		return err
	}
	if w.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.config.JobTimeout)
		defer cancel()
	}

	start := time.Now()
	switch job.Action {
	case ActionDelete:
		err = w.indexer.RemoveEntity(ctx, job.Kind, job.EntityID)
	default:
		err = w.indexer.IndexEntity(ctx, job.Kind, job.EntityID)
	}
	elapsed := time.Since(start)

	if err != nil {
		w.failed.Add(1)
		metrics.RecordVectorizeJob(job.Kind, string(job.Action), "error", elapsed)
		w.logger.Warn().Err(err).Str("job", job.String()).Msg("vectorize job failed")
		if errors.Is(err, ErrInvalidJob) {
			return nil
		}
		return err
	}

	w.processed.Add(1)
	metrics.RecordVectorizeJob(job.Kind, string(job.Action), "success", elapsed)
	w.logger.Debug().
		Str("job", job.String()).
		Dur("duration", elapsed).
		Msg("vectorize job done")
	return nil
}
