// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// TokenValidations counts bearer token checks.
// Labels:
//   - outcome: "valid", "expired", "invalid"
var TokenValidations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "spotmap_auth_token_validations_total",
		Help: "Bearer token validations by outcome",
	},
	[]string{"outcome"},
)

func recordValidation(err error) {
	switch {
	case err == nil:
		TokenValidations.WithLabelValues("valid").Inc()
	case errors.Is(err, jwt.ErrTokenExpired):
		TokenValidations.WithLabelValues("expired").Inc()
	default:
		TokenValidations.WithLabelValues("invalid").Inc()
	}
}
