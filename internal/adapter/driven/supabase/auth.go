package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ericfisherdev/folio/internal/domain/model"
	"github.com/ericfisherdev/folio/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.IdentityProvider = (*Auth)(nil)

// Auth implements the IdentityProvider port over Supabase Auth (GoTrue).
// The role claim is read from the user's app_metadata.
type Auth struct {
	c   *Client
	now func() time.Time
}

// NewAuth creates an Auth using c.
func NewAuth(c *Client) *Auth {
	return &Auth{c: c, now: time.Now}
}

type userJSON struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	AppMetadata struct {
		Role string `json:"role"`
	} `json:"app_metadata"`
}

func (u userJSON) identity() model.Identity {
	return model.Identity{
		UserID: u.ID,
		Email:  u.Email,
		Role:   model.Role(u.AppMetadata.Role),
	}
}

type sessionJSON struct {
	AccessToken string   `json:"access_token"`
	ExpiresIn   int64    `json:"expires_in"`
	ExpiresAt   int64    `json:"expires_at"`
	User        userJSON `json:"user"`
}

// SendMagicLink asks Supabase to email a one-time sign-in link.
func (a *Auth) SendMagicLink(ctx context.Context, email, redirectTo string) error {
	err := a.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/otp",
		query:  url.Values{"redirect_to": {redirectTo}},
		body:   map[string]any{"email": email},
	}, nil)
	if err != nil {
		return fmt.Errorf("request magic link: %w", err)
	}
	return nil
}

// Verify exchanges a magic link token hash for a session.
func (a *Auth) Verify(ctx context.Context, tokenHash string) (*model.Session, error) {
	var s sessionJSON
	err := a.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/verify",
		body:   map[string]string{"type": "magiclink", "token_hash": tokenHash},
		bearer: a.c.anonKey,
	}, &s)
	if isStatus(err, http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound) {
		return nil, fmt.Errorf("%w: %w", driven.ErrInvalidLink, err)
	}
	if err != nil {
		return nil, fmt.Errorf("verify magic link: %w", err)
	}
	if s.AccessToken == "" {
		return nil, driven.ErrInvalidLink
	}

	expires := a.now().Add(time.Duration(s.ExpiresIn) * time.Second)
	if s.ExpiresAt > 0 {
		expires = time.Unix(s.ExpiresAt, 0)
	}

	return &model.Session{
		AccessToken: s.AccessToken,
		Identity:    s.User.identity(),
		ExpiresAt:   expires.UTC(),
	}, nil
}

// Lookup returns the user behind an access token, or nil if the token is no
// longer accepted.
func (a *Auth) Lookup(ctx context.Context, accessToken string) (*model.Identity, error) {
	var u userJSON
	err := a.c.do(ctx, request{
		method: http.MethodGet,
		path:   "/auth/v1/user",
		bearer: accessToken,
	}, &u)
	if isStatus(err, http.StatusUnauthorized, http.StatusForbidden) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	identity := u.identity()
	return &identity, nil
}

// SignOut revokes the session behind accessToken.
func (a *Auth) SignOut(ctx context.Context, accessToken string) error {
	err := a.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/logout",
		bearer: accessToken,
	}, nil)
	if err != nil && !isStatus(err, http.StatusUnauthorized, http.StatusForbidden) {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// SetRole writes the role claim into the user's app_metadata. It needs the
// service role key and addresses users by id only.
func (a *Auth) SetRole(ctx context.Context, userID string, role model.Role) error {
	if a.c.serviceKey == "" {
		return errors.New("supabase service key is required to change roles")
	}
	if strings.Contains(userID, "@") {
		return fmt.Errorf("%q: supabase users are addressed by id: %w", userID, driven.ErrIdentityNotFound)
	}

	err := a.c.do(ctx, request{
		method: http.MethodPut,
		path:   "/auth/v1/admin/users/" + userID,
		body:   map[string]any{"app_metadata": map[string]string{"role": string(role)}},
		bearer: a.c.serviceKey,
	}, nil)
	if isStatus(err, http.StatusNotFound) {
		return fmt.Errorf("%s: %w", userID, driven.ErrIdentityNotFound)
	}
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	return nil
}
