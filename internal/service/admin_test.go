package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	pkgcrypto "github.com/mschachner/drop-in/internal/crypto"
	"github.com/mschachner/drop-in/internal/errs"
)

func legacyHash(pw string) string {
	sum := sha256.Sum256([]byte(pw))
	return hex.EncodeToString(sum[:])
}

func TestAdmin_Verify(t *testing.T) {
	t.Parallel()
	tokens := NewTokens([]byte("k"), time.Hour)
	lim := &fakeLimiter{allowOK: true}
	s := NewAdminService(legacyHash("secret"), lim, tokens, zaptest.NewLogger(t))
	ctx := context.Background()

	if _, _, err := s.Verify(ctx, "", "1.2.3.4"); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("empty password: want validation, got %v", err)
	}
	if _, _, err := s.Verify(ctx, "nope", "1.2.3.4"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("wrong password: want unauthorized, got %v", err)
	}
	if lim.failureCalls != 1 {
		t.Fatalf("failure must be recorded, calls=%d", lim.failureCalls)
	}

	tok, _, err := s.Verify(ctx, "secret", "1.2.3.4")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	claims, err := tokens.Parse(tok)
	if err != nil || claims.Role != RoleAdmin {
		t.Fatalf("admin token: claims=%v err=%v", claims, err)
	}
	if lim.successCalls != 1 {
		t.Fatalf("success must reset limiter, calls=%d", lim.successCalls)
	}
}

func TestAdmin_Verify_Argon2id(t *testing.T) {
	t.Parallel()
	hash, err := pkgcrypto.HashPassword("secret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	s := NewAdminService(hash, &fakeLimiter{allowOK: true}, NewTokens([]byte("k"), time.Hour), zaptest.NewLogger(t))

	if _, _, err := s.Verify(context.Background(), "secret", "ip"); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestAdmin_Verify_NotConfigured(t *testing.T) {
	t.Parallel()
	lim := &fakeLimiter{allowOK: true}
	s := NewAdminService("  ", lim, NewTokens([]byte("k"), time.Hour), zaptest.NewLogger(t))

	if _, _, err := s.Verify(context.Background(), "x", "ip"); !errors.Is(err, errs.ErrUnavailable) {
		t.Fatalf("want unavailable, got %v", err)
	}
	if lim.allowCalls != 0 {
		t.Fatalf("limiter must not be consulted")
	}
}

func TestAdmin_Verify_RateLimited(t *testing.T) {
	t.Parallel()
	tokens := NewTokens([]byte("k"), time.Hour)

	blocked := NewAdminService(legacyHash("secret"), &fakeLimiter{allowOK: false}, tokens, zaptest.NewLogger(t))
	if _, _, err := blocked.Verify(context.Background(), "secret", "ip"); !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("blocked: want rate limited, got %v", err)
	}

	tripping := NewAdminService(legacyHash("secret"), &fakeLimiter{allowOK: true, failBlocked: true}, tokens, zaptest.NewLogger(t))
	if _, _, err := tripping.Verify(context.Background(), "wrong", "ip"); !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("threshold: want rate limited, got %v", err)
	}

	broken := NewAdminService(legacyHash("secret"), &fakeLimiter{allowErr: errors.New("db")}, tokens, zaptest.NewLogger(t))
	if _, _, err := broken.Verify(context.Background(), "secret", "ip"); err == nil {
		t.Fatalf("limiter error must propagate")
	}
}

func TestAdmin_Verify_MalformedHash(t *testing.T) {
	t.Parallel()
	s := NewAdminService("zzz", &fakeLimiter{allowOK: true}, NewTokens([]byte("k"), time.Hour), zaptest.NewLogger(t))

	_, _, err := s.Verify(context.Background(), "secret", "ip")
	if !errors.Is(err, pkgcrypto.ErrMalformedHash) {
		t.Fatalf("want malformed hash error, got %v", err)
	}
}
