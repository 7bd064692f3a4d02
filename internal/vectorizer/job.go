// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package vectorizer

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Entity kinds a job can target. They match the kinds accepted by the
// recommendation engine's IndexEntity.
const (
	KindAlgorithm = "algorithm"
	KindPost      = "post"
	KindUser      = "user"
)

// Action is what a job does to an entity's vector.
type Action string

// Job actions.
const (
	ActionUpsert Action = "upsert"
	ActionDelete Action = "delete"
)

// DefaultTopic is the topic jobs are published to.
const DefaultTopic = "vectorize.jobs"

// ErrInvalidJob means a job is malformed and will never succeed.
var ErrInvalidJob = errors.New("invalid vectorize job")

// Job asks the worker to (re)compute or drop one entity's vector.
type Job struct {
	Kind       string    `json:"kind"`
	Action     Action    `json:"action"`
	EntityID   int64     `json:"entity_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Validate checks the kind, action and id.
func (j *Job) Validate() error {
	switch j.Kind {
	case KindAlgorithm, KindPost, KindUser:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidJob, j.Kind)
	}
	switch j.Action {
	case ActionUpsert, ActionDelete:
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidJob, j.Action)
	}
	if j.EntityID <= 0 {
		return fmt.Errorf("%w: entity id must be positive, got %d", ErrInvalidJob, j.EntityID)
	}
	return nil
}

// String identifies the job in logs.
func (j *Job) String() string {
	return fmt.Sprintf("%s %s/%d", j.Action, j.Kind, j.EntityID)
}

// EncodeJob serializes a job payload.
func EncodeJob(j *Job) ([]byte, error) {
	return json.Marshal(j)
}

// DecodeJob parses and validates a job payload.
func DecodeJob(data []byte) (*Job, error) {
	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}
	if err := j.Validate(); err != nil {
		return nil, err
	}
	return &j, nil
}
