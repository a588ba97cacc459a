// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

// Package events carries engagement events (likes, comments, views) from the
// HTTP layer to the spot counters. Publishing is fire and forget for the
// caller; a watermill router applies events asynchronously with retries.
//
// The default transport is an in-process gochannel. Binaries built with
// -tags nats can use NATS JetStream instead, optionally with an embedded
// server.
package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/spotmap/internal/config"
	"github.com/tomtom215/spotmap/internal/logging"
	"github.com/tomtom215/spotmap/internal/metrics"
	"github.com/tomtom215/spotmap/internal/models"
)

// DefaultTopic is used when no topic is configured.
const DefaultTopic = "spot.engagement"

// Metadata keys set on every engagement message.
const (
	MetadataKind          = "kind"
	MetadataSpotID        = "spot_id"
	MetadataCorrelationID = "correlation_id"
)

var (
	// ErrNATSNotEnabled is returned when the nats transport is requested
	// from a binary built without -tags nats.
	ErrNATSNotEnabled = errors.New("NATS transport not enabled (build with -tags nats)")

	// ErrInvalidEvent is returned for events missing a spot id or carrying
	// an unknown kind.
	ErrInvalidEvent = errors.New("invalid engagement event")
)

// Bus couples a publisher and subscriber on one topic.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	topic      string
	transport  string
	closers    []func() error
}

// NewBus builds the transport selected by cfg.
func NewBus(cfg *config.EventsConfig, logger watermill.LoggerAdapter) (*Bus, error) {
	if logger == nil {
		logger = logging.NewWatermillLogger()
	}
	switch cfg.Transport {
	case "", "memory":
		return NewMemoryBus(cfg.Topic, logger), nil
	case "nats":
		return newNATSBus(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown events transport %q", cfg.Transport)
	}
}

// NewMemoryBus returns an in-process bus. Messages are lost on restart.
func NewMemoryBus(topic string, logger watermill.LoggerAdapter) *Bus {
	if topic == "" {
		topic = DefaultTopic
	}
	if logger == nil {
		logger = logging.NewWatermillLogger()
	}
	ps := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 256,
		// Publish returns once the message is queued, not when it is acked.
		BlockPublishUntilSubscriberAck: false,
	}, logger)
	return &Bus{
		publisher:  ps,
		subscriber: ps,
		topic:      topic,
		transport:  "memory",
		closers:    []func() error{ps.Close},
	}
}

// Topic returns the engagement topic.
func (b *Bus) Topic() string { return b.topic }

// Transport returns "memory" or "nats".
func (b *Bus) Transport() string { return b.transport }

// Subscriber returns the subscriber side for the router. A watermill
// router closes its subscriber on shutdown; the returned value ignores
// Close so a restarted router can subscribe again. Bus.Close releases the
// transport.
func (b *Bus) Subscriber() message.Subscriber { return busSubscriber{b.subscriber} }

type busSubscriber struct {
	message.Subscriber
}

func (busSubscriber) Close() error { return nil }

// PublishEngagement validates ev, fills in its id and timestamp when
// missing, and publishes it.
func (b *Bus) PublishEngagement(ctx context.Context, ev *models.EngagementEvent) error {
	if ev.SpotID == "" || !ev.Kind.IsValid() {
		return ErrInvalidEvent
	}
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal engagement event: %w", err)
	}

	msg := message.NewMessage(ev.EventID, payload)
	msg.Metadata.Set(MetadataKind, string(ev.Kind))
	msg.Metadata.Set(MetadataSpotID, ev.SpotID)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set(MetadataCorrelationID, id)
	} else if id := logging.RequestIDFromContext(ctx); id != "" {
		msg.Metadata.Set(MetadataCorrelationID, id)
	}

	if err := b.publisher.Publish(b.topic, msg); err != nil {
		return fmt.Errorf("publish engagement event: %w", err)
	}
	metrics.EventsPublished.WithLabelValues(string(ev.Kind)).Inc()
	return nil
}

// Close closes the transport in reverse construction order.
func (b *Bus) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
