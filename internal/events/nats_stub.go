// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

//go:build !nats

package events

import (
	"github.com/ThreeDotsLabs/watermill"

	"github.com/tomtom215/spotmap/internal/config"
)

func newNATSBus(_ *config.EventsConfig, _ watermill.LoggerAdapter) (*Bus, error) {
	return nil, ErrNATSNotEnabled
}
