// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

/*
Package auth verifies bearer tokens on API requests.

Tokens are HS256 JWTs issued by an external identity service that shares
the signing secret. The subject claim is the viewer id and the role claim
is either "viewer" or "admin".

Most endpoints accept anonymous requests. Optional attaches claims when a
token is present and rejects tokens that fail verification:

	jwtm, err := auth.NewJWTManager(&cfg.Security)
	r.Use(jwtm.Optional(writeAuthError))

Handlers read the viewer with ViewerIDFromContext. Role checks are done by
the authz package.
*/
package auth
