// Package token issues and checks the bearer tokens accepted by the admin
// server.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AdminScope is the only scope the admin server accepts.
const AdminScope = "admin"

// ErrWrongScope is returned for a valid token issued for another scope.
var ErrWrongScope = errors.New("token: scope not permitted")

// Claims defines the custom claims for an admin token.
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// Generate creates a signed admin token for subject.
func Generate(subject, secretKey string, expiry time.Duration) (string, error) {
	if secretKey == "" {
		return "", errors.New("token: empty signing key")
	}
	now := time.Now()
	claims := &Claims{
		Scope: AdminScope,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString([]byte(secretKey))
}

// Validate parses tokenString and checks its signature, expiry and scope.
func Validate(tokenString, secretKey string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	if claims.Scope != AdminScope {
		return nil, fmt.Errorf("%w: %q", ErrWrongScope, claims.Scope)
	}
	return claims, nil
}
