// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package api

import (
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/spotmap/internal/models"
	"github.com/tomtom215/spotmap/internal/tiles"
	"github.com/tomtom215/spotmap/internal/validation"
)

// TileRequest holds the parsed tile query. Z, X and Y are validated as
// non-negative integers here; clamping to the supported zoom range happens
// in the aggregator.
type TileRequest struct {
	Z           int      `query:"z" validate:"gte=0"`
	X           int      `query:"x" validate:"gte=0"`
	Y           int      `query:"y" validate:"gte=0"`
	Layer       string   `query:"layer" validate:"omitempty,maplayer"`
	Categories  []string `query:"categories" validate:"max=10,dive,spotcategory"`
	PremiumOnly bool     `query:"premiumOnly"`
	// SinceMS is a Unix timestamp in milliseconds; zero means unset.
	SinceMS float64 `query:"since" validate:"gte=0"`
}

// PopularRequest is the query of the popular spots endpoint.
type PopularRequest struct {
	Limit int `query:"limit" validate:"gte=0,lte=200"`
}

// RebuildRequest is the query of the rebuild endpoint.
type RebuildRequest struct {
	Max int `query:"max" validate:"gte=0,lte=200"`
}

// EngagementRequest is the body of the engagement endpoint.
type EngagementRequest struct {
	Kind string `json:"kind" validate:"required,engagementkind"`
}

// paramError is a malformed parameter. It maps to 400.
type paramError struct {
	name string
	msg  string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("%s %s", e.name, e.msg)
}

// pathInt parses a chi URL parameter as an integer.
func pathInt(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &paramError{name: name, msg: "must be an integer"}
	}
	return n, nil
}

// queryBool accepts true/false/1/0. Missing means false.
func queryBool(q url.Values, name string) (bool, error) {
	raw := q.Get(name)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &paramError{name: name, msg: "must be a boolean"}
	}
	return b, nil
}

// queryFloat parses an optional finite number.
func queryFloat(q url.Values, name string) (float64, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &paramError{name: name, msg: "must be a number"}
	}
	return f, nil
}

// queryInt parses an optional integer.
func queryInt(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &paramError{name: name, msg: "must be an integer"}
	}
	return n, nil
}

// queryList merges repeated and comma-separated values, dropping blanks.
func queryList(q url.Values, name string) []string {
	var out []string
	for _, v := range q[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// parseTileRequest reads path and query parameters. It returns a
// *paramError for unparsable values and a validation error for values
// outside the accepted set.
func parseTileRequest(r *http.Request) (*TileRequest, *validation.RequestValidationError, error) {
	var req TileRequest
	var err error
	if req.Z, err = pathInt(r, "z"); err != nil {
		return nil, nil, err
	}
	if req.X, err = pathInt(r, "x"); err != nil {
		return nil, nil, err
	}
	if req.Y, err = pathInt(r, "y"); err != nil {
		return nil, nil, err
	}

	q := r.URL.Query()
	req.Layer = q.Get("layer")
	req.Categories = queryList(q, "categories")
	if req.PremiumOnly, err = queryBool(q, "premiumOnly"); err != nil {
		return nil, nil, err
	}
	if req.SinceMS, err = queryFloat(q, "since"); err != nil {
		return nil, nil, err
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
		return nil, verr, nil
	}
	return &req, nil, nil
}

// Options converts the request into aggregator options.
func (req *TileRequest) Options(viewerID string) tiles.Options {
	opts := tiles.Options{
		Layer:       models.Layer(req.Layer),
		PremiumOnly: req.PremiumOnly,
		ViewerID:    viewerID,
	}
	if len(req.Categories) > 0 {
		opts.Categories = make([]models.Category, len(req.Categories))
		for i, c := range req.Categories {
			opts.Categories[i] = models.Category(c)
		}
	}
	if req.SinceMS > 0 {
		opts.Since = time.UnixMilli(int64(req.SinceMS))
	}
	return opts
}
