// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package services

import (
	"context"
	"fmt"
)

// MessageRouter is satisfied by *events.Router.
type MessageRouter interface {
	Serve(ctx context.Context) error
	Close() error
}

// RouterFactory builds a router ready to serve.
type RouterFactory func() (MessageRouter, error)

// EngagementRouterService consumes engagement events. A watermill router
// cannot run again once closed, so every start builds a new one through
// the factory.
type EngagementRouterService struct {
	newRouter RouterFactory
}

// NewEngagementRouterService returns a service that calls newRouter on
// every start.
func NewEngagementRouterService(newRouter RouterFactory) *EngagementRouterService {
	return &EngagementRouterService{newRouter: newRouter}
}

func (s *EngagementRouterService) Serve(ctx context.Context) error {
	router, err := s.newRouter()
	if err != nil {
		return fmt.Errorf("build engagement router: %w", err)
	}
	defer func() { _ = router.Close() }()
	return router.Serve(ctx)
}

func (s *EngagementRouterService) String() string {
	return "engagement-router"
}
