// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

type contextKey string

// ClaimsContextKey holds the verified *Claims of the request.
const ClaimsContextKey contextKey = "claims"

// ContextWithClaims returns ctx carrying claims.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsContextKey, claims)
}

// ClaimsFromContext returns the request claims, or nil for anonymous
// requests.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(ClaimsContextKey).(*Claims)
	return claims
}

// ViewerIDFromContext returns the authenticated viewer id or "".
func ViewerIDFromContext(ctx context.Context) string {
	if c := ClaimsFromContext(ctx); c != nil {
		return c.ViewerID()
	}
	return ""
}

// extractBearer returns the bearer token. ok is false when there is no
// Authorization header at all.
func extractBearer(r *http.Request) (token string, ok bool, err error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false, nil
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", true, fmt.Errorf("%w: malformed authorization header", ErrInvalidToken)
	}
	return strings.TrimSpace(parts[1]), true, nil
}

// FromRequest verifies the bearer token of r. It returns nil claims and a
// nil error for anonymous requests, and an error wrapping ErrInvalidToken
// when a token is present but does not verify.
func (m *JWTManager) FromRequest(r *http.Request) (*Claims, error) {
	token, ok, err := extractBearer(r)
	if !ok {
		return nil, nil
	}
	if err != nil {
		recordValidation(err)
		return nil, err
	}
	return m.ValidateToken(token)
}

// ErrorWriter renders an authentication failure.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, status int, err error)

// Optional attaches claims when a valid bearer token is present. Anonymous
// requests pass through; a present but invalid token gets 401.
func (m *JWTManager) Optional(onError ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := m.FromRequest(r)
			if err != nil {
				onError(w, r, http.StatusUnauthorized, err)
				return
			}
			if claims != nil {
				r = r.WithContext(ContextWithClaims(r.Context(), claims))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Required is Optional without the anonymous case.
func (m *JWTManager) Required(onError ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return m.Optional(onError)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ClaimsFromContext(r.Context()) == nil {
				onError(w, r, http.StatusUnauthorized, fmt.Errorf("%w: missing bearer token", ErrInvalidToken))
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}
