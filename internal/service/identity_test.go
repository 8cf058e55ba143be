package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mschachner/drop-in/internal/errs"
)

func TestTokens_IssueParse(t *testing.T) {
	t.Parallel()
	tokens := NewTokens([]byte("k"), time.Hour)

	tok, exp, err := tokens.Issue("Ann", RoleParticipant)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expiry in the past: %v", exp)
	}
	claims, err := tokens.Parse(tok)
	if err != nil || claims.Subject != "Ann" || claims.Role != RoleParticipant {
		t.Fatalf("Parse: claims=%v err=%v", claims, err)
	}

	if _, err := NewTokens([]byte("other"), time.Hour).Parse(tok); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("foreign key: want unauthorized, got %v", err)
	}
	if _, err := tokens.Parse("garbage"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("garbage: want unauthorized, got %v", err)
	}
}

func TestTokens_Expired(t *testing.T) {
	t.Parallel()
	tokens := NewTokens([]byte("k"), time.Minute)
	tokens.now = func() time.Time { return time.Now().Add(-time.Hour) }
	tok, _, err := tokens.Issue("Ann", RoleParticipant)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := NewTokens([]byte("k"), time.Minute).Parse(tok); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("expired: want unauthorized, got %v", err)
	}
}

func TestIdentity_Session(t *testing.T) {
	t.Parallel()
	tokens := NewTokens([]byte("k"), time.Hour)
	s := NewIdentityService(tokens)

	sess, err := s.Session(" team ", " Bo ", "")
	if err != nil || sess.CalendarID != "team" || sess.Participant != "Bo" || sess.Verified {
		t.Fatalf("anonymous session: %+v err=%v", sess, err)
	}

	tok, _, err := s.Issue(context.Background(), " Ann ")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	sess, err = s.Session("", "Bo", tok)
	if err != nil || sess.Participant != "Ann" || !sess.Verified {
		t.Fatalf("verified session: %+v err=%v", sess, err)
	}

	if _, err := s.Session("", "", "bad"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("bad token: want unauthorized, got %v", err)
	}
	if _, _, err := s.Issue(context.Background(), ""); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("empty name: want validation, got %v", err)
	}
}

func TestIdentity_RequireAdmin(t *testing.T) {
	t.Parallel()
	tokens := NewTokens([]byte("k"), time.Hour)
	s := NewIdentityService(tokens)

	admin, _, _ := tokens.Issue("admin", RoleAdmin)
	user, _, _ := tokens.Issue("Ann", RoleParticipant)

	if err := s.RequireAdmin(admin); err != nil {
		t.Fatalf("admin: %v", err)
	}
	if err := s.RequireAdmin(user); !errors.Is(err, errs.ErrForbidden) {
		t.Fatalf("participant: want forbidden, got %v", err)
	}
	if err := s.RequireAdmin(""); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("missing: want unauthorized, got %v", err)
	}
}
