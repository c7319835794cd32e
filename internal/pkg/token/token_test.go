package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndValidate(t *testing.T) {
	tok, err := Generate("ops", "s3cret", time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	claims, err := Validate(tok, "s3cret")
	if err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
	if claims.Subject != "ops" || claims.Scope != AdminScope {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if claims.ID == "" {
		t.Error("expected a token ID")
	}
}

func TestValidate_Rejects(t *testing.T) {
	good, _ := Generate("ops", "s3cret", time.Minute)
	expired, _ := Generate("ops", "s3cret", -time.Minute)

	otherScope, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Scope: "reader",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}).SignedString([]byte("s3cret"))

	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{Scope: AdminScope}).SignedString([]byte("s3cret"))

	tests := []struct {
		name   string
		token  string
		secret string
		target error
	}{
		{"Wrong Secret", good, "other", jwt.ErrTokenSignatureInvalid},
		{"Expired", expired, "s3cret", jwt.ErrTokenExpired},
		{"Wrong Scope", otherScope, "s3cret", ErrWrongScope},
		{"Missing Expiry", noExpiry, "s3cret", jwt.ErrTokenRequiredClaimMissing},
		{"Garbage", "not-a-token", "s3cret", jwt.ErrTokenMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.token, tt.secret)
			if !errors.Is(err, tt.target) {
				t.Errorf("got error %v, want %v", err, tt.target)
			}
		})
	}
}

func TestGenerate_EmptyKey(t *testing.T) {
	if _, err := Generate("ops", "", time.Minute); err == nil {
		t.Error("expected error for empty signing key")
	}
}
