package web_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/folio/internal/adapter/driving/web"
	"github.com/ericfisherdev/folio/internal/application"
	"github.com/ericfisherdev/folio/internal/catalog"
	"github.com/ericfisherdev/folio/internal/domain/model"
	"github.com/ericfisherdev/folio/internal/domain/port/driven"
)

// --- Mock implementations ---

type mockRowStore struct {
	mu sync.Mutex

	records   map[string][]model.Record
	selectErr error
	writeErr  error

	inserted []model.Values
	updated  map[string]model.Values
	deleted  []string
	tokens   []string
}

func (m *mockRowStore) Select(_ context.Context, q driven.Query) ([]model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.selectErr != nil {
		return nil, m.selectErr
	}
	return m.records[q.Collection], nil
}

func (m *mockRowStore) Get(_ context.Context, collection, id string) (*model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records[collection] {
		if r.ID == id {
			rec := r
			return &rec, nil
		}
	}
	return nil, nil
}

func (m *mockRowStore) Insert(ctx context.Context, collection string, values model.Values) (model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return model.Record{}, m.writeErr
	}
	m.tokens = append(m.tokens, driven.AccessToken(ctx))
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

type mockFallback struct {
	records map[string][]model.Record
}

func (m *mockFallback) Fallback(collection string) ([]model.Record, error) {
	return m.records[collection], nil
}

type mockObjectStore struct {
	uploads []string
}

func (m *mockObjectStore) Upload(_ context.Context, bucket, name, _ string, _ []byte) error {
	m.uploads = append(m.uploads, bucket+"/"+name)
	return nil
}

func (m *mockObjectStore) PublicURL(bucket, name string) string {
	return "https://cdn.example.test/" + bucket + "/" + name
}

func (m *mockObjectStore) Remove(_ context.Context, _ string, _ ...string) error { return nil }

type mockIdentityProvider struct {
	identities map[string]model.Identity
	sent       []string
	signedOut  []string
}

func (m *mockIdentityProvider) SendMagicLink(_ context.Context, email, redirectTo string) error {
	m.sent = append(m.sent, email+" "+redirectTo)
	return nil
}

func (m *mockIdentityProvider) Verify(_ context.Context, tokenHash string) (*model.Session, error) {
	id, ok := m.identities[tokenHash]
	if !ok {
		return nil, driven.ErrInvalidLink
	}
	return &model.Session{
		AccessToken: "token-" + tokenHash,
		Identity:    id,
		ExpiresAt:   time.Now().Add(time.Hour),
	}, nil
}

func (m *mockIdentityProvider) Lookup(_ context.Context, accessToken string) (*model.Identity, error) {
	id, ok := m.identities[accessToken]
	if !ok {
		return nil, nil
	}
	return &id, nil
}

func (m *mockIdentityProvider) SignOut(_ context.Context, accessToken string) error {
	m.signedOut = append(m.signedOut, accessToken)
	return nil
}

func (m *mockIdentityProvider) SetRole(_ context.Context, _ string, _ model.Role) error { return nil }

// --- Helpers ---

const (
	adminToken = "admin-token"
	userToken  = "user-token"
	csrf       = "csrf-test-token"
)

type testEnv struct {
	mux      http.Handler
	store    *mockRowStore
	objects  *mockObjectStore
	identity *mockIdentityProvider
	mediaDir string
}

func newTestEnv(t *testing.T, store *mockRowStore, fallback *mockFallback) *testEnv {
	t.Helper()

	cat, err := catalog.Load()
	require.NoError(t, err)

	if fallback == nil {
		fallback = &mockFallback{}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	objects := &mockObjectStore{}
	identity := &mockIdentityProvider{identities: map[string]model.Identity{
		adminToken:        {UserID: "u1", Email: "admin@example.test", Role: model.RoleAdmin},
		userToken:         {UserID: "u2", Email: "user@example.test"},
		"good-hash":       {UserID: "u1", Email: "admin@example.test", Role: model.RoleAdmin},
		"token-good-hash": {UserID: "u1", Email: "admin@example.test", Role: model.RoleAdmin},
	}}

	var rows driven.RowStore
	if store != nil {
		rows = store
	}

	loader := application.NewRecordLoader(rows, fallback, logger)
	records := application.NewRecordService(cat, rows, objects, logger)
	auth := application.NewAuthService(identity, logger)
	mediaDir := t.TempDir()

	h := web.NewHandler(cat, loader, records, auth, web.Options{
		SiteTitle:    "Dr. Example",
		PublicURL:    "https://folio.example.test/",
		SuccessDelay: 1500 * time.Millisecond,
		MediaDir:     mediaDir,
	}, logger)

	mux := http.NewServeMux()
	web.RegisterRoutes(mux, h)

	return &testEnv{mux: mux, store: store, objects: objects, identity: identity, mediaDir: mediaDir}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(path, session string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if session != "" {
		req.AddCookie(&http.Cookie{Name: "folio_session", Value: session})
	}
	return e.do(req)
}

// postForm sends a url-encoded admin POST with a matching CSRF cookie and field.
func (e *testEnv) postForm(path, session string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf_token", csrf)

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: csrf})
	if session != "" {
		req.AddCookie(&http.Cookie{Name: "folio_session", Value: session})
	}
	return e.do(req)
}

func journal(id, title string) model.Record {
	return model.Record{
		ID:         id,
		Collection: "journals",
		Values:     model.Values{"title": title, "authors": "J. G. Suma", "journal": "IEEE Access", "year": float64(2023)},
	}
}

func scholar(id, name, typ, title string) model.Record {
	return model.Record{
		ID:         id,
		Collection: "scholars",
		Values:     model.Values{"name": name, "type": typ, "title": title, "roll": id},
	}
}

// --- Public pages ---

func TestHome_ListsPages(t *testing.T) {
	env := newTestEnv(t, &mockRowStore{}, nil)

	rec := env.get("/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "Dr. Example")
	assert.Contains(t, body, `href="/p/publications"`)
	assert.Contains(t, body, `href="/p/scholars"`)
}

func TestPage_RendersRemoteRecords(t *testing.T) {
	store := &mockRowStore{records: map[string][]model.Record{
		"journals": {journal("j1", "Deep Nets for <Crops>")},
	}}
	env := newTestEnv(t, store, nil)

	rec := env.get("/p/publications", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Deep Nets for &lt;Crops&gt;")
	assert.Contains(t, body, "IEEE Access")
	assert.NotContains(t, body, "<Crops>")
	assert.Contains(t, body, "Nothing to show yet.")
}

func TestMedia_ServesFilesButNotListings(t *testing.T) {
	env := newTestEnv(t, &mockRowStore{}, nil)
	bucket := filepath.Join(env.mediaDir, "awards")
	require.NoError(t, os.MkdirAll(bucket, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bucket, "medal.png"), []byte("png-bytes"), 0o600))

	rec := env.get("/media/awards/medal.png", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png-bytes", rec.Body.String())

	for _, path := range []string{"/media/", "/media/awards/", "/media/awards"} {
		rec := env.get(path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.NotContains(t, rec.Body.String(), "medal.png", path)
	}
}

func TestPage_FallsBackWhenBackendFails(t *testing.T) {
	fallback := &mockFallback{records: map[string][]model.Record{
		"journals": {{ID: model.SyntheticID("journals", 0), Synthetic: true, Values: model.Values{"title": "Bundled Paper"}}},
	}}
	env := newTestEnv(t, &mockRowStore{selectErr: errors.New("connection refused")}, fallback)

	rec := env.get("/p/publications", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Bundled Paper")
}

func TestPage_FilterAndSearch(t *testing.T) {
	store := &mockRowStore{records: map[string][]model.Record{
		"scholars": {
			scholar("r1", "Anita Rao", "phd", "Crop Yield Prediction"),
			scholar("r2", "Bala Krishna", "btech", "Smart Irrigation"),
			scholar("r3", "Chitra Devi", "phd", "Soil Health Imaging"),
		},
	}}
	env := newTestEnv(t, store, nil)

	tests := []struct {
		name    string
		path    string
		present []string
		absent  []string
	}{
		{
			name:    "no filter",
			path:    "/p/scholars",
			present: []string{"Anita Rao", "Bala Krishna", "Chitra Devi", "B.Tech", "Ph.D."},
		},
		{
			name:    "filter by programme",
			path:    "/p/scholars?filter=phd",
			present: []string{"Anita Rao", "Chitra Devi"},
			absent:  []string{"Bala Krishna"},
		},
		{
			name:    "search title case-insensitively",
			path:    "/p/scholars?q=IRRIGATION",
			present: []string{"Bala Krishna"},
			absent:  []string{"Anita Rao", "Chitra Devi"},
		},
		{
			name:    "filter and search combined",
			path:    "/p/scholars?filter=phd&q=soil",
			present: []string{"Chitra Devi"},
			absent:  []string{"Anita Rao", "Bala Krishna"},
		},
		{
			name:    "no matches",
			path:    "/p/scholars?filter=mtech",
			present: []string{"No matching records."},
			absent:  []string{"Anita Rao"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.get(tt.path, "")
			require.Equal(t, http.StatusOK, rec.Code)

			body := rec.Body.String()
			for _, s := range tt.present {
				assert.Contains(t, body, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, body, s)
			}
		})
	}
}

func TestPage_SearchKeepsActiveFilter(t *testing.T) {
	env := newTestEnv(t, &mockRowStore{}, nil)

	rec := env.get("/p/scholars?filter=mtech", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<input type="hidden" name="filter" value="mtech">`)
	assert.Contains(t, body, `<a class="chip active" href="/p/scholars?filter=mtech">M.Tech</a>`)
}

func TestPage_UnknownSlug(t *testing.T) {
	env := newTestEnv(t, &mockRowStore{}, nil)

	rec := env.get("/p/nope", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatic_ServesStylesheet(t *testing.T) {
	env := newTestEnv(t, &mockRowStore{}, nil)

	rec := env.get("/static/css/folio.css", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ".field-error")
}

// --- Sign-in and guard ---

func TestAdmin_RedirectsWithoutAdminSession(t *testing.T) {
	env := newTestEnv(t, &mockRowStore{}, nil)

	tests := []struct {
		name    string
		session string
	}{
		{name: "no session", session: ""},
		{name: "unknown token", session: "expired"},
		{name: "not an admin", session: userToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.get("/admin/dashboard", tt.session)

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/admin/login", rec.Header().Get("Location"))
		})
	}
}

func TestLogin_AdminGoesToDashboard(t *testing.T) {
	env := newTestEnv(t, &mockRowStore{}, nil)

	rec := env.get("/admin/login", adminToken)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/dashboard", rec.Header().Get("Location"))
}

func TestLogin_NonAdminSeesForbidden(t *testing.T) {
	env := newTestEnv(t, &mockRowStore{}, nil)

	rec := env.get("/admin/login", userToken)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "not authorised")
}

func TestRequestLink(t *testing.T) {
	env := newTestEnv(t, &mockRowStore{}, nil)

	rec := env.postForm("/admin/login", "", url.Values{"email": {"admin@example.test"}})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Check your inbox")
	require.Len(t, env.identity.sent, 1)
	assert.Equal(t, "admin@example.test https://folio.example.test/admin/auth/callback", env.identity.sent[0])
}

func TestRequestLink_InvalidEmail(t *testing.T) {
	env := newTestEnv(t, &mockRowStore{}, nil)

	rec := env.postForm("/admin/login", "", url.Values{"email": {"not-an-email"}})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please enter a valid email address")
	assert.Empty(t, env.identity.sent)
}

func TestCallback(t *testing.T) {
	env := newTestEnv(t, &mockRowStore{}, nil)

	rec := env.get("/admin/auth/callback?token_hash=good-hash", "")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/login", rec.Header().Get("Location"))

	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "folio_session" {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.Equal(t, "token-good-hash", session.Value)
	assert.True(t, session.HttpOnly)
}

func TestCallback_InvalidLink(t *testing.T) {
	env := newTestEnv(t, &mockRowStore{}, nil)

	rec := env.get("/admin/auth/callback?token_hash=bad", "")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/login?error=invalid_link", rec.Header().Get("Location"))
}

func TestLogout_ClearsSession(t *testing.T) {
	env := newTestEnv(t, &mockRowStore{}, nil)

	rec := env.postForm("/admin/logout", adminToken, nil)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, []string{adminToken}, env.identity.signedOut)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "folio_session=;")
}

func TestCSRF_RejectsMismatchedToken(t *testing.T) {
	env := newTestEnv(t, &mockRowStore{}, nil)

	form := url.Values{"title": {"Best Paper"}, "csrf_token": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/admin/c/major_awards", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: csrf})
	req.AddCookie(&http.Cookie{Name: "folio_session", Value: adminToken})

	rec := env.do(req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, env.store.inserted)
}

// --- Dashboard and table ---

func TestDashboard_CountsRecords(t *testing.T) {
	store := &mockRowStore{records: map[string][]model.Record{
		"journals": {journal("j1", "A"), journal("j2", "B")},
	}}
	env := newTestEnv(t, store, nil)

	rec := env.get("/admin/dashboard", adminToken)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Signed in as admin@example.test")
	assert.Contains(t, body, `href="/admin/c/journals"`)
	assert.Contains(t, body, `<p class="count">2</p>`)
}

func TestList_EmptyState(t *testing.T) {
	env := newTestEnv(t, &mockRowStore{}, nil)

	rec := env.get("/admin/c/journals", adminToken)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No records yet.")
}

func TestList_UnknownCollection(t *testing.T) {
	env := newTestEnv(t, &mockRowStore{}, nil)

	rec := env.get("/admin/c/nope", adminToken)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestList_ArmedRowShowsConfirmation(t *testing.T) {
	store := &mockRowStore{records: map[string][]model.Record{
		"journals": {journal("j1", "A"), journal("j2", "B")},
	}}
	env := newTestEnv(t, store, nil)

	rec := env.get("/admin/c/journals?arm=j2", adminToken)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, 1, strings.Count(body, "Confirm delete"))
	assert.Contains(t, body, `<tr id="row-j2" class="armed">`)
	assert.Contains(t, body, `<tr id="row-j1">`)
}

func TestList_FallbackRowsAreReadOnly(t *testing.T) {
	fallback := &mockFallback{records: map[string][]model.Record{
		"journals": {{ID: model.SyntheticID("journals", 0), Synthetic: true, Values: model.Values{"title": "Bundled"}}},
	}}
	env := newTestEnv(t, &mockRowStore{selectErr: errors.New("timeout")}, fallback)

	rec := env.get("/admin/c/journals", adminToken)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Bundled")
	assert.Contains(t, body, "Showing bundled data")
	assert.NotContains(t, body, ">Delete</button>")
	assert.NotContains(t, body, ">Edit</a>")
}

func TestDelete_TwoStepConfirmation(t *testing.T) {
	store := &mockRowStore{records: map[string][]model.Record{
		"journals": {journal("j1", "A"), journal("j2", "B")},
	}}
	env := newTestEnv(t, store, nil)

	// First click arms the row.
	rec := env.postForm("/admin/c/journals/delete", adminToken, url.Values{"id": {"j1"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/c/journals?arm=j1", rec.Header().Get("Location"))
	assert.Empty(t, store.deleted)

	// Clicking another row moves the arm without deleting.
	rec = env.postForm("/admin/c/journals/delete", adminToken, url.Values{"id": {"j2"}, "armed": {"j1"}})
	assert.Equal(t, "/admin/c/journals?arm=j2", rec.Header().Get("Location"))
	assert.Empty(t, store.deleted)

	// Clicking the armed row confirms.
	rec = env.postForm("/admin/c/journals/delete", adminToken, url.Values{"id": {"j2"}, "armed": {"j2"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/c/journals?done=deleted", rec.Header().Get("Location"))
	assert.Equal(t, []string{"j2"}, store.deleted)
}

func TestDelete_WriteFailureShowsBanner(t *testing.T) {
	store := &mockRowStore{
		records:  map[string][]model.Record{"journals": {journal("j1", "A")}},
		writeErr: errors.New("permission denied"),
	}
	env := newTestEnv(t, store, nil)

	rec := env.postForm("/admin/c/journals/delete", adminToken, url.Values{"id": {"j1"}, "armed": {"j1"}})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Could not delete the Journal Paper")
	assert.NotContains(t, body, "Confirm delete")
}

func TestView_ShowsAllFields(t *testing.T) {
	store := &mockRowStore{records: map[string][]model.Record{
		"journals": {journal("j1", "Deep Nets")},
	}}
	env := newTestEnv(t, store, nil)

	rec := env.get("/admin/c/journals/j1", adminToken)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Deep Nets")
	assert.Contains(t, body, "IEEE Access")
	assert.Contains(t, body, `href="/admin/c/journals/j1/edit"`)
}

func TestView_Missing(t *testing.T) {
	env := newTestEnv(t, &mockRowStore{}, nil)

	rec := env.get("/admin/c/journals/missing", adminToken)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// --- Forms ---

func TestCreate_BlankRequiredFieldBlocksSubmit(t *testing.T) {
	env := newTestEnv(t, &mockRowStore{}, nil)

	rec := env.postForm("/admin/c/major_awards", adminToken, url.Values{"title": {"   "}, "institution": {"JNTUK"}})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Award Title is required")
	assert.Contains(t, body, `value="JNTUK"`)
	assert.Empty(t, env.store.inserted)
}

func TestCreate_Success(t *testing.T) {
	env := newTestEnv(t, &mockRowStore{}, nil)

	rec := env.postForm("/admin/c/major_awards", adminToken, url.Values{
		"title":       {"Best Faculty Award"},
		"institution": {"JNTUK"},
		"years":       {"2019, 2021"},
		"description": {""},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Saved successfully.")
	assert.Contains(t, body, `http-equiv="refresh" content="2;url=/admin/c/major_awards?done=saved"`)
	assert.Contains(t, body, "disabled")

	require.Len(t, env.store.inserted, 1)
	assert.Equal(t, "Best Faculty Award", env.store.inserted[0]["title"])
	assert.Nil(t, env.store.inserted[0]["description"])
	assert.Equal(t, []string{adminToken}, env.store.tokens)
}

func TestCreate_WriteFailureKeepsValues(t *testing.T) {
	env := newTestEnv(t, &mockRowStore{writeErr: errors.New("row level security")}, nil)

	rec := env.postForm("/admin/c/major_awards", adminToken, url.Values{"title": {"Best Faculty Award"}})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Could not save the Award")
	assert.Contains(t, body, `value="Best Faculty Award"`)
	assert.NotContains(t, body, "Saved successfully.")
}

func TestCreate_UploadsImage(t *testing.T) {
	env := newTestEnv(t, &mockRowStore{}, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("csrf_token", csrf))
	require.NoError(t, mw.WriteField("title", "Interview"))
	require.NoError(t, mw.WriteField("source", "The Hindu"))
	require.NoError(t, mw.WriteField("year", "2024"))
	fw, err := mw.CreateFormFile("image_url", "clip.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("\x89PNG\r\n\x1a\nfake"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/c/media", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: csrf})
	req.AddCookie(&http.Cookie{Name: "folio_session", Value: adminToken})

	rec := env.do(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, env.objects.uploads, 1)
	assert.True(t, strings.HasPrefix(env.objects.uploads[0], "media/"))
	assert.True(t, strings.HasSuffix(env.objects.uploads[0], ".png"))

	require.Len(t, env.store.inserted, 1)
	assert.Equal(t, "https://cdn.example.test/"+env.objects.uploads[0], env.store.inserted[0]["image_url"])
	assert.InDelta(t, 2024, env.store.inserted[0]["year"], 0)
}

func TestCreate_MissingRequiredImage(t *testing.T) {
	env := newTestEnv(t, &mockRowStore{}, nil)

	rec := env.postForm("/admin/c/media", adminToken, url.Values{
		"title":  {"Interview"},
		"source": {"The Hindu"},
		"year":   {"2024"},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Media Image is required")
	assert.Empty(t, env.objects.uploads)
}

func TestUpdate_KeepsStoredImage(t *testing.T) {
	store := &mockRowStore{records: map[string][]model.Record{
		"media": {{
			ID:         "m1",
			Collection: "media",
			Values: model.Values{
				"title":     "Interview",
				"source":    "The Hindu",
				"year":      float64(2023),
				"image_url": "https://cdn.example.test/media/old.png",
			},
		}},
	}}
	env := newTestEnv(t, store, nil)

	rec := env.postForm("/admin/c/media/m1", adminToken, url.Values{
		"title":  {"Interview (updated)"},
		"source": {"The Hindu"},
		"year":   {"2023"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, store.updated, "m1")
	assert.Equal(t, "Interview (updated)", store.updated["m1"]["title"])
	assert.Equal(t, "https://cdn.example.test/media/old.png", store.updated["m1"]["image_url"])
	assert.Empty(t, env.objects.uploads)
}

func TestEdit_PrefillsForm(t *testing.T) {
	store := &mockRowStore{records: map[string][]model.Record{
		"journals": {journal("j1", "Deep Nets")},
	}}
	env := newTestEnv(t, store, nil)

	rec := env.get("/admin/c/journals/j1/edit", adminToken)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Edit Journal Paper")
	assert.Contains(t, body, `value="Deep Nets"`)
	assert.Contains(t, body, `action="/admin/c/journals/j1"`)
}

func TestEdit_SyntheticRecordIsReadOnly(t *testing.T) {
	env := newTestEnv(t, &mockRowStore{}, nil)

	rec := env.get("/admin/c/journals/"+url.PathEscape(model.SyntheticID("journals", 0))+"/edit", adminToken)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "cannot be edited")
}

func TestValidateField_ReturnsFragment(t *testing.T) {
	env := newTestEnv(t, &mockRowStore{}, nil)

	tests := []struct {
		name  string
		field string
		value string
		want  string
	}{
		{name: "required", field: "title", value: "", want: "Award Title is required"},
		{name: "valid", field: "title", value: "Best Faculty", want: `<p class="field-error" id="error-title" aria-live="polite"></p>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.postForm("/admin/c/major_awards/validate/"+tt.field, adminToken, url.Values{tt.field: {tt.value}})

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
			assert.NotContains(t, rec.Body.String(), "<html")
		})
	}
}

func TestValidateField_UnknownField(t *testing.T) {
	env := newTestEnv(t, &mockRowStore{}, nil)

	rec := env.postForm("/admin/c/major_awards/validate/nope", adminToken, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
