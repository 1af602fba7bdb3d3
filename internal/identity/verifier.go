// Copyright 2026 The OpenRoster Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package identity consumes tokens issued by the external identity
// provider. OpenRoster issues no credentials of its own; a bearer token's
// subject is mapped onto a person record and everything past that point is
// keyed by person ID.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// Domain errors
var (
	ErrUnauthorized = errors.New("unauthorized")
)

// Claims are the token claims OpenRoster consumes from the IdP.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Verifier validates bearer tokens against the IdP's published keys.
type Verifier interface {
	// VerifyToken validates a bearer token and returns its claims.
	VerifyToken(tokenString string) (*Claims, error)
}

// Config holds verifier configuration.
type Config struct {
	JWKSURL  string
	Issuer   string
	Audience string
}

// JWKSVerifier implements Verifier using the IdP's JWKS endpoint. Keys are
// cached and refreshed by keyfunc based on HTTP cache headers.
type JWKSVerifier struct {
	jwks     keyfunc.Keyfunc
	issuer   string
	audience string
}

// NewJWKSVerifier creates a verifier bound to the IdP's JWKS endpoint.
func NewJWKSVerifier(ctx context.Context, cfg Config) (*JWKSVerifier, error) {
	if cfg.JWKSURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{cfg.JWKSURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}

	return &JWKSVerifier{
		jwks:     jwks,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
	}, nil
}

// VerifyToken validates a token's signature, algorithm, issuer, audience
// and subject. Any failure maps to ErrUnauthorized; callers get no detail
// about which check failed.
func (v *JWKSVerifier) VerifyToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		// Algorithm allow-list guards against confusion attacks.
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, v.jwks.Keyfunc, opts...)
	if err != nil || !token.Valid {
		return nil, ErrUnauthorized
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return nil, ErrUnauthorized
	}

	return claims, nil
}
