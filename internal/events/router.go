// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tomtom215/spotmap/internal/config"
)

const counterHandlerName = "engagement-counter"

// RouterConfig holds router tunables.
type RouterConfig struct {
	CloseTimeout         time.Duration
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	// ThrottlePerSecond limits handled messages per second. Zero disables it.
	ThrottlePerSecond int64
}

// DefaultRouterConfig returns production defaults.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         10 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
		RetryMaxInterval:     5 * time.Second,
	}
}

// RouterConfigFrom maps the events config section onto RouterConfig.
func RouterConfigFrom(cfg *config.EventsConfig) RouterConfig {
	rc := DefaultRouterConfig()
	if cfg.RetryCount > 0 {
		rc.RetryMaxRetries = cfg.RetryCount
	}
	if cfg.RetryInterval > 0 {
		rc.RetryInitialInterval = cfg.RetryInterval
	}
	rc.ThrottlePerSecond = cfg.ThrottlePerSecond
	return rc
}

// Router runs the engagement handler on the bus.
type Router struct {
	router *message.Router
}

// NewRouter wires handler onto bus with panic recovery, retries and
// optional throttling.
func NewRouter(cfg RouterConfig, bus *Bus, handler *CounterHandler, logger watermill.LoggerAdapter) (*Router, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	r, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	// Outer to inner: recoverer, retry, throttle.
	r.AddMiddleware(middleware.Recoverer)
	retry := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		Multiplier:      2.0,
		Logger:          logger,
	}
	r.AddMiddleware(retry.Middleware)
	if cfg.ThrottlePerSecond > 0 {
		r.AddMiddleware(middleware.NewThrottle(cfg.ThrottlePerSecond, time.Second).Middleware)
	}

	r.AddConsumerHandler(counterHandlerName, bus.Topic(), bus.Subscriber(), handler.Handle)

	return &Router{router: r}, nil
}

// Serve runs the router until ctx is canceled. It implements
// suture.Service.
func (r *Router) Serve(ctx context.Context) error {
	if err := r.router.Run(ctx); err != nil {
		return fmt.Errorf("engagement router: %w", err)
	}
	return ctx.Err()
}

// Running is closed once handlers are subscribed.
func (r *Router) Running() <-chan struct{} {
	return r.router.Running()
}

// Close stops the router, waiting up to CloseTimeout for in-flight messages.
func (r *Router) Close() error {
	return r.router.Close()
}

func (r *Router) String() string {
	return "engagement-router"
}
