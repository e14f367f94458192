package application

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/ericfisherdev/folio/internal/domain/model"
	"github.com/ericfisherdev/folio/internal/domain/port/driven"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- RowStore mock ---

type mockRowStore struct {
	mu sync.Mutex

	records   []model.Record
	selectErr error
	writeErr  error
	block     chan struct{}

	queries  []driven.Query
	inserted []model.Values
	updated  map[string]model.Values
	deleted  []string
}

func (m *mockRowStore) Select(ctx context.Context, q driven.Query) ([]model.Record, error) {
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, q)
	if m.selectErr != nil {
		return nil, m.selectErr
	}
	return m.records, nil
}

func (m *mockRowStore) Get(_ context.Context, _ string, id string) (*model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id {
			rec := r
			return &rec, nil
		}
	}
	return nil, nil
}

func (m *mockRowStore) Insert(_ context.Context, collection string, values model.Values) (model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return model.Record{}, m.writeErr
	}
	m.inserted = append(m.inserted, values)
	return model.Record{ID: "new-id", Collection: collection, Values: values}, nil
}

func (m *mockRowStore) Update(_ context.Context, _ string, id string, values model.Values) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	if m.updated == nil {
		m.updated = map[string]model.Values{}
	}
	m.updated[id] = values
	return nil
}

func (m *mockRowStore) Delete(_ context.Context, _ string, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.deleted = append(m.deleted, id)
	return nil
}

// --- FallbackSource mock ---

type mockFallback struct {
	records map[string][]model.Record
	err     error
}

func (m *mockFallback) Fallback(collection string) ([]model.Record, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.records[collection], nil
}

// --- ObjectStore mock ---

type uploadCall struct {
	bucket      string
	name        string
	contentType string
	data        []byte
}

type mockObjectStore struct {
	uploads   []uploadCall
	removed   []string
	uploadErr error
	removeErr error
}

func (m *mockObjectStore) Upload(_ context.Context, bucket, name, contentType string, data []byte) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	m.uploads = append(m.uploads, uploadCall{bucket: bucket, name: name, contentType: contentType, data: data})
	return nil
}

func (m *mockObjectStore) PublicURL(bucket, name string) string {
	return "https://cdn.example.test/" + bucket + "/" + name
}

func (m *mockObjectStore) Remove(_ context.Context, _ string, names ...string) error {
	m.removed = append(m.removed, names...)
	return m.removeErr
}

// --- IdentityProvider mock ---

type mockIdentityProvider struct {
	identities map[string]*model.Identity
	lookupErr  error
	verifyErr  error

	sentTo     []string
	redirects  []string
	signedOut  []string
	roles      map[string]model.Role
	setRoleErr error
}

func (m *mockIdentityProvider) SendMagicLink(_ context.Context, email, redirectTo string) error {
	m.sentTo = append(m.sentTo, email)
	m.redirects = append(m.redirects, redirectTo)
	return nil
}

func (m *mockIdentityProvider) Verify(_ context.Context, tokenHash string) (*model.Session, error) {
	if m.verifyErr != nil {
		return nil, m.verifyErr
	}
	id, ok := m.identities[tokenHash]
	if !ok {
		return nil, driven.ErrInvalidLink
	}
	return &model.Session{AccessToken: "token-" + tokenHash, Identity: *id}, nil
}

func (m *mockIdentityProvider) Lookup(_ context.Context, accessToken string) (*model.Identity, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	return m.identities[accessToken], nil
}

func (m *mockIdentityProvider) SignOut(_ context.Context, accessToken string) error {
	m.signedOut = append(m.signedOut, accessToken)
	return nil
}

func (m *mockIdentityProvider) SetRole(_ context.Context, userID string, role model.Role) error {
	if m.setRoleErr != nil {
		return m.setRoleErr
	}
	if m.roles == nil {
		m.roles = map[string]model.Role{}
	}
	m.roles[userID] = role
	return nil
}

// --- LoadSink recorder ---

type recordingSink struct {
	mu      sync.Mutex
	loading []bool
	results []LoadResult
}

func (s *recordingSink) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = append(s.loading, loading)
}

func (s *recordingSink) SetResult(result LoadResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
}

func (s *recordingSink) snapshot() ([]bool, []LoadResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bool(nil), s.loading...), append([]LoadResult(nil), s.results...)
}

// --- CollectionCatalog stub ---

type stubCatalog map[string]model.Collection

func (c stubCatalog) Collection(name string) (model.Collection, bool) {
	coll, ok := c[name]
	return coll, ok
}
