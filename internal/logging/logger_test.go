// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// captureGlobal swaps the global logger for one writing to a buffer.
func captureGlobal(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Logger()
	prevLevel := zerolog.GlobalLevel()
	SetLogger(NewTestLogger(&buf))
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	t.Cleanup(func() {
		SetLogger(prev)
		zerolog.SetGlobalLevel(prevLevel)
	})
	return &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(line), &out); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", line, err)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCtx_AddsIDs(t *testing.T) {
	buf := captureGlobal(t)

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithCorrelationID(ctx, "corr-1")
	Ctx(ctx).Info().Msg("hello")

	out := decodeLine(t, buf)
	if out["request_id"] != "req-1" {
		t.Errorf("request_id = %v", out["request_id"])
	}
	if out["correlation_id"] != "corr-1" {
		t.Errorf("correlation_id = %v", out["correlation_id"])
	}
}

func TestWithComponent(t *testing.T) {
	buf := captureGlobal(t)
	l := WithComponent("tiles")
	l.Info().Msg("x")
	if out := decodeLine(t, buf); out["component"] != "tiles" {
		t.Errorf("component = %v", out["component"])
	}
}

func TestGenerateIDs(t *testing.T) {
	if len(GenerateCorrelationID()) != 8 {
		t.Error("correlation id should be 8 characters")
	}
	if GenerateRequestID() == GenerateRequestID() {
		t.Error("request ids should be unique")
	}
}

func TestSlogHandler(t *testing.T) {
	buf := captureGlobal(t)

	logger := slog.New(NewSlogHandler()).With("service", "http-server").WithGroup("svc")
	logger.Warn("restarting", "attempt", 2)

	out := decodeLine(t, buf)
	if out["level"] != "warn" {
		t.Errorf("level = %v, want warn", out["level"])
	}
	if out["service"] != "http-server" {
		t.Errorf("service = %v", out["service"])
	}
	if out["svc.attempt"] != float64(2) {
		t.Errorf("svc.attempt = %v", out["svc.attempt"])
	}
}

func TestWatermillAdapter(t *testing.T) {
	var buf bytes.Buffer
	a := NewWatermillLoggerWith(NewTestLogger(&buf))

	a.With(watermill.LogFields{"topic": "engagement"}).Error("handler failed", errors.New("boom"), watermill.LogFields{"attempt": 1})

	out := decodeLine(t, &buf)
	if out["topic"] != "engagement" || out["error"] != "boom" || out["message"] != "handler failed" {
		t.Errorf("unexpected log line: %v", out)
	}
}

func TestContextIDs_Absent(t *testing.T) {
	ctx := context.Background()
	if CorrelationIDFromContext(ctx) != "" || RequestIDFromContext(ctx) != "" {
		t.Error("expected empty ids on a bare context")
	}
	if id := CorrelationIDFromContext(ContextWithNewCorrelationID(ctx)); len(id) != 8 {
		t.Errorf("new correlation id = %q", id)
	}
}

func TestSlogHandler_LevelsAndGroups(t *testing.T) {
	buf := captureGlobal(t)

	h := NewSlogHandler()
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be enabled at trace level")
	}

	slog.New(h).Error("stopped", slog.Group("svc", slog.String("name", "hub"), slog.Bool("restart", true)))

	out := decodeLine(t, buf)
	if out["level"] != "error" {
		t.Errorf("level = %v", out["level"])
	}
	if out["svc.name"] != "hub" || out["svc.restart"] != true {
		t.Errorf("group attrs = %v", out)
	}
	if h.WithGroup("") != slog.Handler(h) {
		t.Error("empty group should return the same handler")
	}
}

func TestSlogToZerologLevel(t *testing.T) {
	tests := map[slog.Level]zerolog.Level{
		slog.LevelDebug: zerolog.DebugLevel,
		slog.LevelInfo:  zerolog.InfoLevel,
		slog.LevelWarn:  zerolog.WarnLevel,
		slog.LevelError: zerolog.ErrorLevel,
		slog.Level(12):  zerolog.ErrorLevel,
	}
	for in, want := range tests {
		if got := slogToZerologLevel(in); got != want {
			t.Errorf("slogToZerologLevel(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestInit_ServiceField(t *testing.T) {
	prev := Logger()
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		SetLogger(prev)
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	Debug().Msg("ready")

	out := decodeLine(t, &buf)
	if out["service"] != ServiceName {
		t.Errorf("service = %v, want %s", out["service"], ServiceName)
	}
	if _, ok := out["time"]; ok {
		t.Error("timestamp should be omitted when Timestamp is false")
	}
}
