package auth_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"pantrypal/internal/auth"
	"pantrypal/internal/config"
	"pantrypal/internal/services"
)

func newTokens(t *testing.T) *auth.Tokens {
	t.Helper()
	tokens, err := auth.New(config.Auth{JWTSecret: "test-secret", Issuer: "pantrypal"})
	if err != nil {
		t.Fatalf("auth.New: %v", err)
	}
	return tokens
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	tokens := newTokens(t)
	token, err := tokens.Issue("user-1", time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	owner, err := tokens.Verify("Bearer " + token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if owner != "user-1" {
		t.Fatalf("owner = %q", owner)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	tokens := newTokens(t)
	tokens.SetClock(func() time.Time { return time.Now().Add(-time.Hour) })
	token, err := tokens.Issue("user-1", time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	_, err = tokens.Verify(token)
	if !errors.Is(err, services.ErrUnauthorized) || !strings.Contains(err.Error(), "expired") {
		t.Fatalf("expected expired unauthorized error, got %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	other, err := auth.New(config.Auth{JWTSecret: "other", Issuer: "pantrypal"})
	if err != nil {
		t.Fatalf("auth.New: %v", err)
	}
	token, err := other.Issue("user-1", time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := newTokens(t).Verify(token); !errors.Is(err, services.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestVerifyRejectsUnsignedToken(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "user-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := newTokens(t).Verify(token); !errors.Is(err, services.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestVerifyRejectsForeignIssuer(t *testing.T) {
	other, err := auth.New(config.Auth{JWTSecret: "test-secret", Issuer: "someone-else"})
	if err != nil {
		t.Fatalf("auth.New: %v", err)
	}
	token, err := other.Issue("user-1", time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := newTokens(t).Verify(token); !errors.Is(err, services.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestNewRequiresSecret(t *testing.T) {
	if _, err := auth.New(config.Auth{}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if _, err := newTokens(t).Verify(""); !errors.Is(err, services.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for empty token, got %v", err)
	}
}
