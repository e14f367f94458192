package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/ericfisherdev/folio/internal/domain/model"
	"github.com/ericfisherdev/folio/internal/domain/port/driven"
)

// ErrInvalidEmail is returned when a sign-in is requested for a malformed address.
var ErrInvalidEmail = errors.New("invalid email address")

// Decision is the outcome of authorising a request for the admin area.
type Decision int

const (
	// DecisionSignIn means there is no valid session.
	DecisionSignIn Decision = iota
	// DecisionForbidden means the session is valid but lacks the admin role.
	DecisionForbidden
	// DecisionAllow means the session belongs to an admin.
	DecisionAllow
)

// AuthService handles passwordless admin sign-in and role checks on top of an
// IdentityProvider.
type AuthService struct {
	provider driven.IdentityProvider
	logger   *slog.Logger
}

// NewAuthService creates an AuthService. A nil provider denies every request.
func NewAuthService(provider driven.IdentityProvider, logger *slog.Logger) *AuthService {
	return &AuthService{provider: provider, logger: logger}
}

// RequestMagicLink asks the provider to send a one-time sign-in link to email.
// redirectTo is the callback the link should land on.
func (s *AuthService) RequestMagicLink(ctx context.Context, email, redirectTo string) error {
	if s.provider == nil {
		return driven.ErrBackendNotConfigured
	}

	email = strings.TrimSpace(email)
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}

	if err := s.provider.SendMagicLink(ctx, email, redirectTo); err != nil {
		return fmt.Errorf("send magic link: %w", err)
	}
	s.logger.Info("magic link requested", "email", email)
	return nil
}

// CompleteSignIn exchanges the token of a magic link for a session.
func (s *AuthService) CompleteSignIn(ctx context.Context, tokenHash string) (*model.Session, error) {
	if s.provider == nil {
		return nil, driven.ErrBackendNotConfigured
	}
	if strings.TrimSpace(tokenHash) == "" {
		return nil, driven.ErrInvalidLink
	}

	session, err := s.provider.Verify(ctx, tokenHash)
	if err != nil {
		return nil, fmt.Errorf("verify magic link: %w", err)
	}
	s.logger.Info("signed in",
		"user_id", session.Identity.UserID,
		"role", session.Identity.Role,
	)
	return session, nil
}

// Authorize resolves an access token and decides whether it may use the admin
// area. Lookup failures are logged and treated as no session.
func (s *AuthService) Authorize(ctx context.Context, accessToken string) (Decision, *model.Identity) {
	if s.provider == nil || accessToken == "" {
		return DecisionSignIn, nil
	}

	identity, err := s.provider.Lookup(ctx, accessToken)
	if err != nil {
		s.logger.Warn("session lookup failed", "error", err)
		return DecisionSignIn, nil
	}
	if identity == nil {
		return DecisionSignIn, nil
	}
	if !identity.IsAdmin() {
		return DecisionForbidden, identity
	}
	return DecisionAllow, identity
}

// SignOut ends the session behind accessToken. Provider errors are logged; the
// caller clears its cookie regardless.
func (s *AuthService) SignOut(ctx context.Context, accessToken string) {
	if s.provider == nil || accessToken == "" {
		return
	}
	if err := s.provider.SignOut(ctx, accessToken); err != nil {
		s.logger.Warn("sign out failed", "error", err)
	}
}

// Promote grants the admin role to a user.
func (s *AuthService) Promote(ctx context.Context, userID string) error {
	return s.setRole(ctx, userID, model.RoleAdmin)
}

// Demote removes the admin role from a user.
func (s *AuthService) Demote(ctx context.Context, userID string) error {
	return s.setRole(ctx, userID, model.RoleNone)
}

func (s *AuthService) setRole(ctx context.Context, userID string, role model.Role) error {
	if s.provider == nil {
		return driven.ErrBackendNotConfigured
	}
	if strings.TrimSpace(userID) == "" {
		return errors.New("user id is required")
	}

	if err := s.provider.SetRole(ctx, userID, role); err != nil {
		return fmt.Errorf("set role for %s: %w", userID, err)
	}
	s.logger.Info("role updated", "user_id", userID, "role", role)
	return nil
}
