// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

//go:build !nats

package vectorizer

import (
	"errors"

	"github.com/ThreeDotsLabs/watermill"
)

// ErrNATSUnavailable is returned for the nats driver in builds without the
// nats tag.
var ErrNATSUnavailable = errors.New("NATS transport not available: build with -tags=nats")

func newNATSTransport(_ *NATSConfig, _ watermill.LoggerAdapter) (*Transport, error) {
	return nil, ErrNATSUnavailable
}
