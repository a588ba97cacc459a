// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/tomtom215/spotmap/internal/auth"
	"github.com/tomtom215/spotmap/internal/config"
)

// runToken prints a signed development token.
func runToken(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(out)
	viewer := fs.String("viewer", "dev", "viewer id (token subject)")
	role := fs.String("role", auth.RoleViewer, "viewer or admin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *role != auth.RoleViewer && *role != auth.RoleAdmin {
		return fmt.Errorf("unknown role %q", *role)
	}

	m, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		return err
	}
	token, err := m.GenerateToken(*viewer, *role)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, token)
	return err
}
