// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package authz

import (
	"errors"
	"net/http"

	"github.com/tomtom215/spotmap/internal/auth"
	"github.com/tomtom215/spotmap/internal/logging"
)

// ErrForbidden is passed to the error writer when the policy denies access.
var ErrForbidden = errors.New("insufficient permissions")

// Middleware enforces policies for the claims attached by auth.
type Middleware struct {
	enforcer *Enforcer
	onError  auth.ErrorWriter
}

// NewMiddleware returns middleware that reports failures through onError.
func NewMiddleware(enforcer *Enforcer, onError auth.ErrorWriter) *Middleware {
	return &Middleware{enforcer: enforcer, onError: onError}
}

// Authorize guards a route with a fixed object and action.
func (m *Middleware) Authorize(object, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.check(w, r, object, action, next)
		})
	}
}

// AuthorizeRequest uses the request path as the object and derives the
// action from the method.
func (m *Middleware) AuthorizeRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.check(w, r, r.URL.Path, methodToAction(r.Method), next)
	})
}

func (m *Middleware) check(w http.ResponseWriter, r *http.Request, object, action string, next http.Handler) {
	var subject, role string
	if claims := auth.ClaimsFromContext(r.Context()); claims != nil {
		subject, role = claims.ViewerID(), claims.Role
	}

	allowed, err := m.enforcer.EnforceWithRole(subject, role, object, action)
	if err != nil {
		logging.CtxErr(r.Context(), err).Msg("Authorization error")
		m.onError(w, r, http.StatusInternalServerError, err)
		return
	}
	if !allowed {
		logging.CtxWarn(r.Context()).
			Str("subject", subject).
			Str("role", role).
			Str("object", object).
			Str("action", action).
			Msg("Authorization denied")
		m.onError(w, r, http.StatusForbidden, ErrForbidden)
		return
	}
	next.ServeHTTP(w, r)
}

func methodToAction(method string) string {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return ActionWrite
	default:
		return ActionRead
	}
}
