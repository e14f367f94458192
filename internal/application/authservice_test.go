package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/folio/internal/domain/model"
	"github.com/ericfisherdev/folio/internal/domain/port/driven"
)

func TestAuthService_Authorize(t *testing.T) {
	provider := &mockIdentityProvider{identities: map[string]*model.Identity{
		"admin-token":  {UserID: "u1", Email: "prof@example.edu", Role: model.RoleAdmin},
		"viewer-token": {UserID: "u2", Email: "student@example.edu"},
	}}
	svc := NewAuthService(provider, discardLogger())

	tests := []struct {
		name  string
		token string
		want  Decision
	}{
		{name: "admin", token: "admin-token", want: DecisionAllow},
		{name: "non-admin", token: "viewer-token", want: DecisionForbidden},
		{name: "unknown token", token: "nope", want: DecisionSignIn},
		{name: "no token", token: "", want: DecisionSignIn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := svc.Authorize(context.Background(), tt.token)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAuthService_AuthorizeLookupError(t *testing.T) {
	svc := NewAuthService(&mockIdentityProvider{lookupErr: errors.New("auth down")}, discardLogger())

	got, identity := svc.Authorize(context.Background(), "token")
	assert.Equal(t, DecisionSignIn, got)
	assert.Nil(t, identity)
}

func TestAuthService_NoProvider(t *testing.T) {
	svc := NewAuthService(nil, discardLogger())

	got, _ := svc.Authorize(context.Background(), "token")
	assert.Equal(t, DecisionSignIn, got)
	assert.ErrorIs(t, svc.RequestMagicLink(context.Background(), "a@b.co", "/cb"), driven.ErrBackendNotConfigured)
}

func TestAuthService_RequestMagicLink(t *testing.T) {
	provider := &mockIdentityProvider{}
	svc := NewAuthService(provider, discardLogger())

	require.NoError(t, svc.RequestMagicLink(context.Background(), " prof@example.edu ", "https://folio.test/admin/auth/callback"))
	assert.Equal(t, []string{"prof@example.edu"}, provider.sentTo)
	assert.Equal(t, []string{"https://folio.test/admin/auth/callback"}, provider.redirects)

	assert.ErrorIs(t, svc.RequestMagicLink(context.Background(), "not-an-email", "/cb"), ErrInvalidEmail)
	assert.Len(t, provider.sentTo, 1)
}

func TestAuthService_CompleteSignIn(t *testing.T) {
	provider := &mockIdentityProvider{identities: map[string]*model.Identity{
		"hash1": {UserID: "u1", Role: model.RoleAdmin},
	}}
	svc := NewAuthService(provider, discardLogger())

	session, err := svc.CompleteSignIn(context.Background(), "hash1")
	require.NoError(t, err)
	assert.Equal(t, "token-hash1", session.AccessToken)
	assert.True(t, session.Identity.IsAdmin())

	_, err = svc.CompleteSignIn(context.Background(), "unknown")
	assert.ErrorIs(t, err, driven.ErrInvalidLink)

	_, err = svc.CompleteSignIn(context.Background(), "")
	assert.ErrorIs(t, err, driven.ErrInvalidLink)
}

func TestAuthService_PromoteAndSignOut(t *testing.T) {
	provider := &mockIdentityProvider{}
	svc := NewAuthService(provider, discardLogger())

	require.NoError(t, svc.Promote(context.Background(), "u9"))
	assert.Equal(t, model.RoleAdmin, provider.roles["u9"])

	require.NoError(t, svc.Demote(context.Background(), "u9"))
	assert.Equal(t, model.RoleNone, provider.roles["u9"])

	assert.Error(t, svc.Promote(context.Background(), " "))

	svc.SignOut(context.Background(), "tok")
	svc.SignOut(context.Background(), "")
	assert.Equal(t, []string{"tok"}, provider.signedOut)
}
