// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/spotmap/internal/database"
	"github.com/tomtom215/spotmap/internal/logging"
	"github.com/tomtom215/spotmap/internal/metrics"
	"github.com/tomtom215/spotmap/internal/models"
)

// CounterStore applies counter deltas. database.DB implements it.
type CounterStore interface {
	IncrementCounter(ctx context.Context, spotID string, field models.CounterField, delta int64) error
}

// Notifier is told about every applied event. websocket.Hub implements it.
type Notifier interface {
	BroadcastEngagement(ev *models.EngagementEvent)
}

// CounterHandler applies engagement events to spot counters.
//
// Malformed events and events for deleted spots are acknowledged and
// dropped; retrying them cannot succeed. Store errors are returned so the
// router retries the message.
type CounterHandler struct {
	store    CounterStore
	notifier Notifier
}

// NewCounterHandler returns a handler. notifier may be nil.
func NewCounterHandler(store CounterStore, notifier Notifier) *CounterHandler {
	return &CounterHandler{store: store, notifier: notifier}
}

// Handle is a watermill NoPublishHandlerFunc.
func (h *CounterHandler) Handle(msg *message.Message) error {
	ctx := msg.Context()
	if id := msg.Metadata.Get(MetadataCorrelationID); id != "" {
		ctx = logging.ContextWithCorrelationID(ctx, id)
	}
	log := logging.Ctx(ctx).With().Str("message_uuid", msg.UUID).Logger()

	var ev models.EngagementEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		metrics.EventsProcessed.WithLabelValues("invalid").Inc()
		log.Warn().Err(err).Msg("Dropping malformed engagement event")
		return nil
	}

	field, delta, ok := ev.CounterDelta()
	if !ok || ev.SpotID == "" {
		metrics.EventsProcessed.WithLabelValues("invalid").Inc()
		log.Warn().Str("kind", string(ev.Kind)).Str("spot_id", ev.SpotID).Msg("Dropping invalid engagement event")
		return nil
	}

	if err := h.store.IncrementCounter(ctx, ev.SpotID, field, delta); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			metrics.EventsProcessed.WithLabelValues("not_found").Inc()
			log.Debug().Str("spot_id", ev.SpotID).Msg("Engagement for unknown spot ignored")
			return nil
		}
		metrics.EventsProcessed.WithLabelValues("error").Inc()
		return fmt.Errorf("apply %s to spot %s: %w", ev.Kind, ev.SpotID, err)
	}

	metrics.EventsProcessed.WithLabelValues("applied").Inc()
	log.Debug().Str("spot_id", ev.SpotID).Str("kind", string(ev.Kind)).Msg("Engagement applied")

	if h.notifier != nil {
		h.notifier.BroadcastEngagement(&ev)
	}
	return nil
}
