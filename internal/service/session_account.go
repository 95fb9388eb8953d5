package service

import (
	"context"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/socialadify/adify-console/internal/domain/auth"
	"github.com/socialadify/adify-console/internal/observability/metrics"
)

// Reasons appended to the login URL after an account change ends the session.
const (
	ReasonEmailChanged    = "email_changed"
	ReasonPasswordChanged = "password_changed"
)

func (s *SessionStore) loginURL(reason string) string {
	return s.cfg.LoginPath + "?" + url.Values{"reason": {reason}}.Encode()
}

// UpdateProfile applies a partial profile change. When the email changes the
// server invalidates the token, so the session is logged out and the returned
// destination is the login page. Otherwise the user is re-fetched and the
// destination is empty.
func (s *SessionStore) UpdateProfile(ctx context.Context, in domainauth.ProfileUpdate) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}
	tok, gen, current, err := s.credentials()
	if err != nil {
		return "", err
	}

	start := time.Now()
	if callErr := s.gateway.UpdateProfile(ctx, tok, in); callErr != nil {
		err := s.handleCallError(ctx, gen, callErr)
		s.emit(metrics.OpAccount, metrics.ResultError, time.Since(start), err)
		return "", err
	}
	s.emit(metrics.OpAccount, metrics.ResultSuccess, time.Since(start), nil)

	if in.NewEmail != nil && !strings.EqualFold(strings.TrimSpace(*in.NewEmail), current.Email) {
		s.endSession(ctx, gen)
		return s.loginURL(ReasonEmailChanged), nil
	}

	if err := s.RefreshUser(ctx); err != nil {
		return "", err
	}
	return "", nil
}

// ChangePassword rotates the account password and then logs the session out.
// It returns the login URL the caller must navigate to.
func (s *SessionStore) ChangePassword(ctx context.Context, in domainauth.PasswordChange) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}
	tok, gen, _, err := s.credentials()
	if err != nil {
		return "", err
	}

	start := time.Now()
	if callErr := s.gateway.ChangePassword(ctx, tok, in); callErr != nil {
		err := s.handleCallError(ctx, gen, callErr)
		s.emit(metrics.OpAccount, metrics.ResultError, time.Since(start), err)
		return "", err
	}
	s.emit(metrics.OpAccount, metrics.ResultSuccess, time.Since(start), nil)

	s.endSession(ctx, gen)
	return s.loginURL(ReasonPasswordChanged), nil
}

// DeleteAccount removes the account after password confirmation and logs out.
func (s *SessionStore) DeleteAccount(ctx context.Context, in domainauth.AccountDeletion) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}
	tok, gen, _, err := s.credentials()
	if err != nil {
		return "", err
	}

	start := time.Now()
	if callErr := s.gateway.DeleteAccount(ctx, tok, in); callErr != nil {
		err := s.handleCallError(ctx, gen, callErr)
		s.emit(metrics.OpAccount, metrics.ResultError, time.Since(start), err)
		return "", err
	}
	s.emit(metrics.OpAccount, metrics.ResultSuccess, time.Since(start), nil)

	s.endSession(ctx, gen)
	return s.cfg.SignupPath + "?accountDeleted=true", nil
}

// RequestPasswordReset asks the API to email a reset link. It does not touch the session.
func (s *SessionStore) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if err := domainauth.ValidateEmail(email); err != nil {
		return "", err
	}
	msg, err := s.gateway.RequestPasswordReset(ctx, email)
	if err != nil {
		return "", domainauth.AsError(err)
	}
	return msg, nil
}

// ResetPassword completes the forgot-password flow. It does not touch the session.
func (s *SessionStore) ResetPassword(ctx context.Context, in domainauth.PasswordReset) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}
	msg, err := s.gateway.ResetPassword(ctx, in)
	if err != nil {
		return "", domainauth.AsError(err)
	}
	return msg, nil
}

// endSession logs out after a successful account change, unless the session
// already moved on while the call was in flight.
func (s *SessionStore) endSession(ctx context.Context, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return
	}
	s.invalidateLocked(ctx)
	s.state = domainauth.StateUnauthenticated
	s.err = nil
	s.bumpLocked()
	s.emit(metrics.OpLogout, metrics.ResultSuccess, 0, nil)
}
