// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package vectorizer

import (
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Transport drivers.
const (
	DriverMemory = "memory"
	DriverNATS   = "nats"
)

// TransportConfig selects and tunes the message transport.
type TransportConfig struct {
	// Driver is "memory" (in-process, best effort) or "nats" (JetStream,
	// durable; requires building with -tags=nats).
	Driver string

	// Buffer is the in-process channel buffer per subscriber.
	Buffer int64

	// NATS settings, used when Driver is "nats".
	NATS NATSConfig
}

// NATSConfig holds JetStream connection settings.
type NATSConfig struct {
	URL            string
	StreamName     string
	DurableName    string
	QueueGroup     string
	MaxReconnects  int
	ReconnectWait  time.Duration
	AckWaitTimeout time.Duration
	MaxDeliver     int
	CloseTimeout   time.Duration
}

// DefaultTransportConfig returns the in-process transport.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		Driver: DriverMemory,
		Buffer: 1024,
		NATS: NATSConfig{
			URL:            "nats://127.0.0.1:4222",
			StreamName:     "VECTORIZE",
			DurableName:    "lodestar-vectorizer",
			QueueGroup:     "lodestar-vectorizer",
			MaxReconnects:  -1,
			ReconnectWait:  2 * time.Second,
			AckWaitTimeout: 30 * time.Second,
			MaxDeliver:     5,
			CloseTimeout:   10 * time.Second,
		},
	}
}

// Transport pairs the publisher used by the Queue with the subscriber
// consumed by the Worker.
type Transport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber

	closers []func() error
}

// NewTransport opens the configured transport.
func NewTransport(cfg TransportConfig, logger watermill.LoggerAdapter) (*Transport, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemoryTransport(cfg.Buffer, logger), nil
	case DriverNATS:
		return newNATSTransport(&cfg.NATS, logger)
	default:
		return nil, fmt.Errorf("unknown queue driver %q", cfg.Driver)
	}
}

// NewMemoryTransport returns an in-process pub/sub. Jobs published while no
// worker is subscribed are dropped; the next upsert of the entity or a
// reindex repairs the vector.
func NewMemoryTransport(buffer int64, logger watermill.LoggerAdapter) *Transport {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	if buffer <= 0 {
		buffer = 1024
	}
	ps := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: buffer,
	}, logger)
	return &Transport{
		Publisher:  ps,
		Subscriber: ps,
		closers:    []func() error{ps.Close},
	}
}

// Close closes the publisher and subscriber.
func (t *Transport) Close() error {
	var errs []error
	for _, c := range t.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
