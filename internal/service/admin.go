package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	pkgcrypto "github.com/mschachner/drop-in/internal/crypto"
	"github.com/mschachner/drop-in/internal/errs"
	"github.com/mschachner/drop-in/internal/limiter"
)

// AdminService verifies the shared admin password.
type AdminService interface {
	// Verify checks password for a client address and returns an admin token on success.
	Verify(ctx context.Context, password, ip string) (token string, expiresAt time.Time, err error)
}

type AdminServiceImpl struct {
	hash   string
	lim    limiter.Limiter
	tokens *Tokens
	log    *zap.Logger
}

// NewAdminService constructs AdminService. An empty hash disables verification.
func NewAdminService(hash string, lim limiter.Limiter, tokens *Tokens, log *zap.Logger) *AdminServiceImpl {
	return &AdminServiceImpl{hash: strings.TrimSpace(hash), lim: lim, tokens: tokens, log: log}
}

// Verify applies rate limiting by client address and compares the password in constant time.
func (s *AdminServiceImpl) Verify(ctx context.Context, password, ip string) (string, time.Time, error) {
	if password == "" {
		return "", time.Time{}, fmt.Errorf("%w: password is required", errs.ErrValidation)
	}
	if s.hash == "" {
		return "", time.Time{}, fmt.Errorf("%w: admin password not configured", errs.ErrUnavailable)
	}

	ipHash := limiter.HashIP(ip)
	allowed, retry, err := s.lim.Allow(ctx, ipHash)
	if err != nil {
		return "", time.Time{}, err
	}
	if !allowed {
		return "", time.Time{}, fmt.Errorf("%w: retry in %s", errs.ErrRateLimited, retry.Round(time.Second))
	}

	ok, err := pkgcrypto.VerifyPassword(password, s.hash)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("admin password hash: %w", err)
	}
	if !ok {
		blocked, _, ferr := s.lim.Failure(ctx, ipHash)
		if ferr != nil {
			s.log.Warn("admin limiter failure not recorded", zap.Error(ferr))
		}
		s.log.Warn("admin verification failed", zap.Bool("blocked", blocked))
		if blocked {
			return "", time.Time{}, errs.ErrRateLimited
		}
		return "", time.Time{}, errs.ErrUnauthorized
	}

	// best-effort reset
	_ = s.lim.Success(ctx, ipHash)

	return s.tokens.Issue("admin", RoleAdmin)
}
