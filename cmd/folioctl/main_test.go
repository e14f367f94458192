package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/folio/internal/application"
	"github.com/ericfisherdev/folio/internal/catalog"
	"github.com/ericfisherdev/folio/internal/config"
	"github.com/ericfisherdev/folio/internal/domain/model"
	"github.com/ericfisherdev/folio/internal/domain/port/driven"
)

// --- Mock implementations ---

type mockIdentityProvider struct {
	roles map[string]model.Role
	sent  []string
}

func (m *mockIdentityProvider) SendMagicLink(_ context.Context, email, redirectTo string) error {
	m.sent = append(m.sent, email+" "+redirectTo)
	return nil
}

func (m *mockIdentityProvider) Verify(context.Context, string) (*model.Session, error) {
	return nil, driven.ErrInvalidLink
}

func (m *mockIdentityProvider) Lookup(context.Context, string) (*model.Identity, error) {
	return nil, nil
}

func (m *mockIdentityProvider) SignOut(context.Context, string) error { return nil }

func (m *mockIdentityProvider) SetRole(_ context.Context, userID string, role model.Role) error {
	if userID == "ghost" {
		return driven.ErrIdentityNotFound
	}
	m.roles[userID] = role
	return nil
}

type mockRowStore struct {
	mu      sync.Mutex
	records map[string][]model.Record
	failing map[string]bool
}

func (m *mockRowStore) Select(_ context.Context, q driven.Query) ([]model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing[q.Collection] {
		return nil, errors.New("connection refused")
	}
	return m.records[q.Collection], nil
}

func (m *mockRowStore) Get(context.Context, string, string) (*model.Record, error) { return nil, nil }

func (m *mockRowStore) Insert(context.Context, string, model.Values) (model.Record, error) {
	return model.Record{}, errors.New("read only")
}

func (m *mockRowStore) Update(context.Context, string, string, model.Values) error {
	return errors.New("read only")
}

func (m *mockRowStore) Delete(context.Context, string, string) error { return errors.New("read only") }

type mockFallback struct {
	records map[string][]model.Record
}

func (m *mockFallback) Fallback(collection string) ([]model.Record, error) {
	return m.records[collection], nil
}

// --- Helpers ---

func newTestApp(t *testing.T, identity *mockIdentityProvider, store *mockRowStore) *app {
	t.Helper()

	cat, err := catalog.Load()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fallback := &mockFallback{records: map[string][]model.Record{
		"major_awards": {{ID: model.SyntheticID("major_awards", 0), Synthetic: true, Values: model.Values{"title": "Bundled Award"}}},
	}}

	a := &app{
		cfg:     &config.Config{PublicURL: "https://folio.example.test"},
		catalog: cat,
		close:   func() {},
	}

	var rows driven.RowStore
	if store != nil {
		rows = store
	}
	a.loader = application.NewRecordLoader(rows, fallback, logger)

	if identity != nil {
		a.identity = identity
	}
	a.auth = application.NewAuthService(a.identity, logger)
	return a
}

// runCLI executes the root command with args against a and returns its output.
func runCLI(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd(func(*cobra.Command, string) (*app, error) { return a, nil })
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// --- set-admin ---

func TestSetAdmin_Grants(t *testing.T) {
	identity := &mockIdentityProvider{roles: map[string]model.Role{}}
	a := newTestApp(t, identity, nil)

	out, err := runCLI(t, a, "set-admin", "suma@example.test")

	require.NoError(t, err)
	assert.Equal(t, "admin role granted to suma@example.test\n", out)
	assert.Equal(t, model.RoleAdmin, identity.roles["suma@example.test"])
}

func TestSetAdmin_Revoke(t *testing.T) {
	identity := &mockIdentityProvider{roles: map[string]model.Role{"u1": model.RoleAdmin}}
	a := newTestApp(t, identity, nil)

	out, err := runCLI(t, a, "set-admin", "--revoke", "u1")

	require.NoError(t, err)
	assert.Equal(t, "admin role revoked for u1\n", out)
	assert.Equal(t, model.RoleNone, identity.roles["u1"])
}

func TestSetAdmin_Errors(t *testing.T) {
	tests := []struct {
		name     string
		identity *mockIdentityProvider
		args     []string
		wantErr  string
	}{
		{
			name:     "missing argument",
			identity: &mockIdentityProvider{roles: map[string]model.Role{}},
			args:     []string{"set-admin"},
			wantErr:  "accepts 1 arg(s), received 0",
		},
		{
			name:     "unknown user",
			identity: &mockIdentityProvider{roles: map[string]model.Role{}},
			args:     []string{"set-admin", "ghost"},
			wantErr:  driven.ErrIdentityNotFound.Error(),
		},
		{
			name:    "no backend",
			args:    []string{"set-admin", "u1"},
			wantErr: "FOLIO_BACKEND is none",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApp(t, tt.identity, nil)

			_, err := runCLI(t, a, tt.args...)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// --- send-link ---

func TestSendLink_UsesCallbackURL(t *testing.T) {
	identity := &mockIdentityProvider{roles: map[string]model.Role{}}
	a := newTestApp(t, identity, nil)

	out, err := runCLI(t, a, "send-link", "suma@example.test")

	require.NoError(t, err)
	assert.Equal(t, "sign-in link issued for suma@example.test\n", out)
	assert.Equal(t, []string{"suma@example.test https://folio.example.test/admin/auth/callback"}, identity.sent)
}

func TestSendLink_InvalidEmail(t *testing.T) {
	identity := &mockIdentityProvider{roles: map[string]model.Role{}}
	a := newTestApp(t, identity, nil)

	_, err := runCLI(t, a, "send-link", "not-an-email")

	assert.ErrorIs(t, err, application.ErrInvalidEmail)
	assert.Empty(t, identity.sent)
}

func TestSendLink_NoBackend(t *testing.T) {
	a := newTestApp(t, nil, nil)

	_, err := runCLI(t, a, "send-link", "suma@example.test")

	assert.ErrorIs(t, err, errNoIdentityProvider)
}

// --- collections ---

// collectionRow returns the whitespace-separated columns of the row for name.
func collectionRow(t *testing.T, out, name string) []string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] == name {
			return fields
		}
	}
	t.Fatalf("no row for %s in:\n%s", name, out)
	return nil
}

func TestCollections_ListsSourcesAndCounts(t *testing.T) {
	store := &mockRowStore{
		records: map[string][]model.Record{
			"journals": {
				{ID: "j1", Collection: "journals", Values: model.Values{"title": "Deep Nets"}},
				{ID: "j2", Collection: "journals", Values: model.Values{"title": "Soil Maps"}},
			},
		},
		failing: map[string]bool{"major_awards": true},
	}
	a := newTestApp(t, nil, store)
	a.counter = func(context.Context) (map[string]int, error) {
		return map[string]int{"journals": 2, "major_awards": 7}, nil
	}

	out, err := runCLI(t, a, "collections")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "NAME"), out)

	journals := collectionRow(t, out, "journals")
	assert.Equal(t, []string{"2", "remote", "2"}, journals[len(journals)-3:])

	awards := collectionRow(t, out, "major_awards")
	assert.Equal(t, []string{"1", "fallback", "7"}, awards[len(awards)-3:])

	conferences := collectionRow(t, out, "international_conferences")
	assert.Equal(t, []string{"0", "remote", "0"}, conferences[len(conferences)-3:])
}

func TestCollections_WithoutCounterShowsDash(t *testing.T) {
	a := newTestApp(t, nil, nil)

	out, err := runCLI(t, a, "collections")

	require.NoError(t, err)
	journals := collectionRow(t, out, "journals")
	assert.Equal(t, []string{"0", "fallback", "-"}, journals[len(journals)-3:])
}

func TestCollections_CounterError(t *testing.T) {
	a := newTestApp(t, nil, &mockRowStore{})
	a.counter = func(context.Context) (map[string]int, error) {
		return nil, errors.New("database is locked")
	}

	_, err := runCLI(t, a, "collections")

	assert.EqualError(t, err, "database is locked")
}

func TestRootCmd_ClosesAppAfterCommand(t *testing.T) {
	closed := false
	a := newTestApp(t, &mockIdentityProvider{roles: map[string]model.Role{}}, nil)
	a.close = func() { closed = true }

	_, err := runCLI(t, a, "set-admin", "u1")

	require.NoError(t, err)
	assert.True(t, closed)
}

func TestRootCmd_SetupErrorStopsCommand(t *testing.T) {
	root := newRootCmd(func(*cobra.Command, string) (*app, error) {
		return nil, errors.New("load config: FOLIO_BACKEND must be sqlite, supabase or none")
	})
	root.SetOut(io.Discard)
	root.SetArgs([]string{"collections"})

	err := root.ExecuteContext(context.Background())

	assert.EqualError(t, err, "load config: FOLIO_BACKEND must be sqlite, supabase or none")
}
