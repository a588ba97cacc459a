// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/spotmap/internal/auth"
	"github.com/tomtom215/spotmap/internal/config"
	"github.com/tomtom215/spotmap/internal/supervisor"
)

const testSecret = "integration-secret-0123456789abcdef"

func loadTestConfig(t *testing.T, store string) *config.Config {
	t.Helper()
	t.Setenv("DUCKDB_PATH", ":memory:")
	t.Setenv("DUCKDB_THREADS", "2")
	t.Setenv("SEED_DEMO_DATA", "true")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("LEADERBOARD_STORE", store)
	t.Setenv("LEADERBOARD_BADGER_DIR", t.TempDir())
	t.Setenv("LEADERBOARD_INTERVAL", "1h")
	t.Setenv("DISABLE_RATE_LIMIT", "true")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	return cfg
}

// idleServer stands in for the listener so the tree can run without a port.
type idleServer struct{ stop chan struct{} }

func (s *idleServer) ListenAndServe() error {
	<-s.stop
	return http.ErrServerClosed
}

func (s *idleServer) Shutdown(context.Context) error {
	close(s.stop)
	return nil
}

func startApp(t *testing.T, store string) *app {
	t.Helper()
	a, err := newApp(loadTestConfig(t, store))
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}

	tree := supervisor.NewTree(nil, supervisor.TreeConfig{ShutdownTimeout: 5 * time.Second})
	a.register(tree, &idleServer{stop: make(chan struct{})})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)
	t.Cleanup(func() {
		cancel()
		<-errCh
		if err := a.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return a
}

func serve(a *app, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if method == http.MethodPost && strings.Contains(target, "engagement") {
		req = httptest.NewRequest(method, target, strings.NewReader(`{"kind":"like"}`))
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func TestApp_EndToEnd(t *testing.T) {
	for _, store := range []string{"duckdb", "badger"} {
		t.Run(store, func(t *testing.T) {
			a := startApp(t, store)

			if w := serve(a, http.MethodGet, "/api/v1/health/ready", ""); w.Code != http.StatusOK {
				t.Fatalf("ready = %d: %s", w.Code, w.Body.String())
			}
			if w := serve(a, http.MethodGet, "/api/v1/tiles/12/1944/1569", ""); w.Code != http.StatusOK {
				t.Fatalf("tile = %d: %s", w.Code, w.Body.String())
			}

			admin, err := a.jwt.GenerateToken("ops", auth.RoleAdmin)
			if err != nil {
				t.Fatal(err)
			}
			w := serve(a, http.MethodPost, "/api/v1/leaderboard/rebuild?max=10", admin)
			if w.Code != http.StatusOK {
				t.Fatalf("rebuild = %d: %s", w.Code, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), "demo-rooftop-gig") {
				t.Errorf("rebuild body missing seeded spot: %s", w.Body.String())
			}

			w = serve(a, http.MethodGet, "/api/v1/spots/popular?limit=3", "")
			if w.Code != http.StatusOK {
				t.Fatalf("popular = %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestApp_EngagementReachesStore(t *testing.T) {
	a := startApp(t, "duckdb")

	viewer, err := a.jwt.GenerateToken("alice", auth.RoleViewer)
	if err != nil {
		t.Fatal(err)
	}

	// The router subscribes asynchronously after the tree starts.
	deadline := time.Now().Add(5 * time.Second)
	for {
		w := serve(a, http.MethodPost, "/api/v1/spots/demo-city-run/engagement", viewer)
		if w.Code != http.StatusAccepted {
			t.Fatalf("engagement = %d: %s", w.Code, w.Body.String())
		}

		spots, err := a.db.GetSpots(context.Background(), []string{"demo-city-run"})
		if err != nil {
			t.Fatal(err)
		}
		if len(spots) == 1 && spots[0].Likes > 88 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("like was never applied to the store")
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestRunToken(t *testing.T) {
	cfg := loadTestConfig(t, "duckdb")

	var out bytes.Buffer
	if err := runToken(cfg, []string{"-viewer", "bob", "-role", auth.RoleAdmin}, &out); err != nil {
		t.Fatalf("runToken: %v", err)
	}

	m, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := m.ValidateToken(strings.TrimSpace(out.String()))
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.ViewerID() != "bob" || !claims.IsAdmin() {
		t.Errorf("claims = %+v", claims)
	}

	if err := runToken(cfg, []string{"-role", "root"}, &out); err == nil {
		t.Error("expected error for unknown role")
	}
}
