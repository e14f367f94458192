package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/folio/internal/domain/model"
)

// ErrInvalidLink is returned by Verify when the token hash is unknown,
// already used, or expired.
var ErrInvalidLink = errors.New("magic link invalid or expired")

// ErrIdentityNotFound is returned by SetRole for an unknown user.
var ErrIdentityNotFound = errors.New("identity not found")

// IdentityProvider defines the driven port for passwordless sign-in. The
// provider issues identities carrying a role claim; the application only
// reads that claim.
type IdentityProvider interface {
	// SendMagicLink delivers a sign-in link for email that lands on redirectTo.
	SendMagicLink(ctx context.Context, email, redirectTo string) error

	// Verify exchanges the token hash from a magic link for a session.
	Verify(ctx context.Context, tokenHash string) (*model.Session, error)

	// Lookup returns the identity owning accessToken, or nil, nil when the
	// token is unknown or expired.
	Lookup(ctx context.Context, accessToken string) (*model.Identity, error)

	// SignOut invalidates accessToken.
	SignOut(ctx context.Context, accessToken string) error

	// SetRole replaces the role claim of the given user.
	SetRole(ctx context.Context, userID string, role model.Role) error
}

type accessTokenKey struct{}

// WithAccessToken returns a context carrying the signed-in user's access
// token. Backends that enforce row-level security act on behalf of it.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey{}, token)
}

// AccessToken returns the access token stored by WithAccessToken, or "".
func AccessToken(ctx context.Context) string {
	token, _ := ctx.Value(accessTokenKey{}).(string)
	return token
}
