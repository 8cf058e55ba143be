package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mschachner/drop-in/internal/errs"
	"github.com/mschachner/drop-in/internal/model"
)

// IdentityService issues participant identity tokens and resolves request sessions.
type IdentityService interface {
	// Issue returns a participant token for name.
	Issue(ctx context.Context, name string) (token string, expiresAt time.Time, err error)
	// Session builds the request session from an optional bearer token.
	Session(calendarID, participant, bearer string) (model.Session, error)
	// RequireAdmin checks that bearer is a valid admin token.
	RequireAdmin(bearer string) error
}

type IdentityServiceImpl struct {
	tokens *Tokens
}

// NewIdentityService constructs IdentityService.
func NewIdentityService(tokens *Tokens) *IdentityServiceImpl {
	return &IdentityServiceImpl{tokens: tokens}
}

// Issue validates name and signs a participant token.
func (s *IdentityServiceImpl) Issue(_ context.Context, name string) (string, time.Time, error) {
	name = strings.TrimSpace(name)
	if err := model.ValidateParticipant(name); err != nil {
		return "", time.Time{}, err
	}
	return s.tokens.Issue(name, RoleParticipant)
}

// Session trusts participant as given unless a bearer token is present, in which case
// the token subject replaces it and the session is marked verified.
func (s *IdentityServiceImpl) Session(calendarID, participant, bearer string) (model.Session, error) {
	sess := model.Session{CalendarID: strings.TrimSpace(calendarID), Participant: strings.TrimSpace(participant)}
	if bearer == "" {
		return sess, nil
	}
	claims, err := s.tokens.Parse(bearer)
	if err != nil {
		return model.Session{}, err
	}
	if claims.Role == RoleParticipant {
		sess.Participant = claims.Subject
		sess.Verified = true
	}
	return sess, nil
}

// RequireAdmin accepts only admin tokens.
func (s *IdentityServiceImpl) RequireAdmin(bearer string) error {
	if bearer == "" {
		return fmt.Errorf("%w: admin token required", errs.ErrUnauthorized)
	}
	claims, err := s.tokens.Parse(bearer)
	if err != nil {
		return err
	}
	if claims.Role != RoleAdmin {
		return fmt.Errorf("%w: admin token required", errs.ErrForbidden)
	}
	return nil
}
