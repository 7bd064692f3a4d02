// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package vectorizer

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/lodestar/internal/breaker"
	"github.com/tomtom215/lodestar/internal/logging"
	"github.com/tomtom215/lodestar/internal/metrics"
)

// Message metadata keys.
const (
	metaKind          = "kind"
	metaAction        = "action"
	metaEntityID      = "entity_id"
	metaCorrelationID = "correlation_id"
)

// Queue publishes vectorize jobs. Enqueue returns once the job is handed to
// the transport; embedding happens later in the Worker.
type Queue struct {
	publisher message.Publisher
	topic     string
	breaker   *breaker.Breaker
	logger    zerolog.Logger
	now       func() time.Time

	mu     sync.RWMutex
	closed bool
}

// NewQueue creates a queue publishing to topic. An empty topic selects
// DefaultTopic.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewQueue(pub message.Publisher, topic string, logger zerolog.Logger) *Queue {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Queue{
		publisher: pub,
		topic:     topic,
		logger:    logger.With().Str("component", "vectorize-queue").Logger(),
		now:       time.Now,
	}
}

// SetCircuitBreaker guards publishing with b.
func (q *Queue) SetCircuitBreaker(b *breaker.Breaker) {
	q.breaker = b
}

// Topic returns the topic jobs are published to.
func (q *Queue) Topic() string {
	return q.topic
}

// Enqueue validates and publishes a job.
func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return fmt.Errorf("vectorize queue is closed")
	}

	if err := job.Validate(); err != nil {
		return err
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = q.now().UTC()
	}
	payload, err := EncodeJob(&job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set(metaKind, job.Kind)
	msg.Metadata.Set(metaAction, string(job.Action))
	msg.Metadata.Set(metaEntityID, strconv.FormatInt(job.EntityID, 10))
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set(metaCorrelationID, id)
	}

	if q.breaker != nil {
		_, err = q.breaker.Execute(func() (interface{}, error) {
			return nil, q.publisher.Publish(q.topic, msg)
		})
	} else {
		err = q.publisher.Publish(q.topic, msg)
	}
	if err != nil {
		metrics.RecordVectorizeJob(job.Kind, string(job.Action), "publish_failed", 0)
		return fmt.Errorf("publish %s: %w", job.String(), err)
	}

	metrics.RecordVectorizeJob(job.Kind, string(job.Action), "enqueued", 0)
	q.logger.Debug().
		Str("job", job.String()).
		Str("message_id", msg.UUID).
		Msg("vectorize job enqueued")
	return nil
}

// Upsert enqueues a (re)vectorization of an entity.
func (q *Queue) Upsert(ctx context.Context, kind string, id int64) error {
	return q.Enqueue(ctx, Job{Kind: kind, Action: ActionUpsert, EntityID: id})
}

// Delete enqueues the removal of an entity's vector.
func (q *Queue) Delete(ctx context.Context, kind string, id int64) error {
	return q.Enqueue(ctx, Job{Kind: kind, Action: ActionDelete, EntityID: id})
}

// Close stops accepting jobs. The publisher is owned by the Transport and
// is not closed here.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	return nil
}
