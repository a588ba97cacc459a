// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package authz

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/spotmap/internal/auth"
)

func writeStatus(w http.ResponseWriter, _ *http.Request, status int, _ error) {
	w.WriteHeader(status)
}

func serve(h http.Handler, method, path string, claims *auth.Claims) int {
	r := httptest.NewRequest(method, path, nil)
	if claims != nil {
		r = r.WithContext(auth.ContextWithClaims(r.Context(), claims))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w.Code
}

func claimsFor(viewer, role string) *auth.Claims {
	return &auth.Claims{Role: role, RegisteredClaims: jwt.RegisteredClaims{Subject: viewer}}
}

func TestAuthorize(t *testing.T) {
	mw := NewMiddleware(setupEnforcer(t, nil), writeStatus)
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusAccepted) })
	h := mw.Authorize("/api/v1/leaderboard/rebuild", ActionWrite)(ok)

	tests := []struct {
		name   string
		claims *auth.Claims
		want   int
	}{
		{"anonymous", nil, http.StatusForbidden},
		{"viewer", claimsFor("v-1", auth.RoleViewer), http.StatusForbidden},
		{"admin", claimsFor("a-1", auth.RoleAdmin), http.StatusAccepted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := serve(h, http.MethodPost, "/anything", tt.claims); got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAuthorizeRequest(t *testing.T) {
	mw := NewMiddleware(setupEnforcer(t, nil), writeStatus)
	h := mw.AuthorizeRequest(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }))

	if got := serve(h, http.MethodGet, "/api/v1/tiles/3/1/2", nil); got != http.StatusOK {
		t.Errorf("anonymous tile read = %d", got)
	}
	if got := serve(h, http.MethodPost, "/api/v1/spots/s1/engagement", nil); got != http.StatusForbidden {
		t.Errorf("anonymous engagement = %d", got)
	}
	if got := serve(h, http.MethodPost, "/api/v1/spots/s1/engagement", claimsFor("v", auth.RoleViewer)); got != http.StatusOK {
		t.Errorf("viewer engagement = %d", got)
	}
}

func TestMethodToAction(t *testing.T) {
	for method, want := range map[string]string{
		http.MethodGet:    ActionRead,
		http.MethodHead:   ActionRead,
		http.MethodPost:   ActionWrite,
		http.MethodDelete: ActionWrite,
	} {
		if got := methodToAction(method); got != want {
			t.Errorf("methodToAction(%s) = %s, want %s", method, got, want)
		}
	}
}
