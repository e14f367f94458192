package sqlite

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/folio/internal/domain/model"
	"github.com/ericfisherdev/folio/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.IdentityProvider = (*IdentityRepo)(nil)

const (
	defaultLinkTTL    = 15 * time.Minute
	defaultSessionTTL = 7 * 24 * time.Hour
)

// LinkSender delivers a magic sign-in link to an email address.
type LinkSender func(ctx context.Context, email, link string) error

// LogLinkSender returns a LinkSender that writes the link to logger instead
// of sending mail. It is meant for single-operator deployments.
func LogLinkSender(logger *slog.Logger) LinkSender {
	return func(_ context.Context, email, link string) error {
		logger.Info("magic link issued", "email", email, "link", link)
		return nil
	}
}

// IdentityRepo is the SQLite implementation of the IdentityProvider port.
// Only hashes of link tokens and session tokens are stored.
type IdentityRepo struct {
	db         *DB
	send       LinkSender
	linkTTL    time.Duration
	sessionTTL time.Duration
	now        func() time.Time
}

// NewIdentityRepo creates an IdentityRepo. A zero sessionTTL selects a
// seven-day default.
func NewIdentityRepo(db *DB, send LinkSender, sessionTTL time.Duration) *IdentityRepo {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	return &IdentityRepo{
		db:         db,
		send:       send,
		linkTTL:    defaultLinkTTL,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// SendMagicLink issues a single-use link for email and hands it to the
// configured LinkSender. The link is redirectTo with a token_hash query
// parameter.
func (r *IdentityRepo) SendMagicLink(ctx context.Context, email, redirectTo string) error {
	const query = `INSERT INTO magic_links (token_hash, email, expires_at) VALUES (?, ?, ?)`

	token, err := newToken()
	if err != nil {
		return err
	}

	link, err := url.Parse(redirectTo)
	if err != nil {
		return fmt.Errorf("parse redirect: %w", err)
	}
	q := link.Query()
	q.Set("token_hash", token)
	link.RawQuery = q.Encode()

	expires := r.now().Add(r.linkTTL)
	if _, err := r.db.Writer.ExecContext(ctx, query, hashToken(token), strings.ToLower(email), formatTime(expires)); err != nil {
		return fmt.Errorf("store magic link: %w", err)
	}

	if r.send == nil {
		return errors.New("no link sender configured")
	}
	if err := r.send(ctx, email, link.String()); err != nil {
		return fmt.Errorf("deliver magic link: %w", err)
	}
	return nil
}

// Verify consumes a magic link token and opens a session for its email. The
// identity is created on first sign-in without any role.
func (r *IdentityRepo) Verify(ctx context.Context, token string) (*model.Session, error) {
	now := r.now()

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin verify: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		email     string
		expiresAt string
		usedAt    sql.NullString
	)
	err = tx.QueryRowContext(ctx,
		`SELECT email, expires_at, used_at FROM magic_links WHERE token_hash = ?`,
		hashToken(token),
	).Scan(&email, &expiresAt, &usedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, driven.ErrInvalidLink
	}
	if err != nil {
		return nil, fmt.Errorf("load magic link: %w", err)
	}

	expires, err := parseTime(expiresAt)
	if err != nil {
		return nil, fmt.Errorf("parse expires_at: %w", err)
	}
	if usedAt.Valid || !now.Before(expires) {
		return nil, driven.ErrInvalidLink
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE magic_links SET used_at = ? WHERE token_hash = ?`,
		formatTime(now), hashToken(token),
	); err != nil {
		return nil, fmt.Errorf("consume magic link: %w", err)
	}

	identity, err := ensureIdentity(ctx, tx, email, now)
	if err != nil {
		return nil, err
	}

	sessionToken, err := newToken()
	if err != nil {
		return nil, err
	}
	sessionExpires := now.Add(r.sessionTTL)

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (token_hash, identity_id, expires_at) VALUES (?, ?, ?)`,
		hashToken(sessionToken), identity.UserID, formatTime(sessionExpires),
	); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit verify: %w", err)
	}

	return &model.Session{
		AccessToken: sessionToken,
		Identity:    identity,
		ExpiresAt:   sessionExpires.UTC(),
	}, nil
}

func ensureIdentity(ctx context.Context, tx *sql.Tx, email string, now time.Time) (model.Identity, error) {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO identities (id, email, role, created_at) VALUES (?, ?, '', ?) ON CONFLICT(email) DO NOTHING`,
		uuid.NewString(), email, formatTime(now),
	); err != nil {
		return model.Identity{}, fmt.Errorf("create identity: %w", err)
	}

	var (
		identity model.Identity
		role     string
	)
	if err := tx.QueryRowContext(ctx,
		`SELECT id, email, role FROM identities WHERE email = ?`, email,
	).Scan(&identity.UserID, &identity.Email, &role); err != nil {
		return model.Identity{}, fmt.Errorf("load identity: %w", err)
	}
	identity.Role = model.Role(role)
	return identity, nil
}

// Lookup returns the identity of an unexpired session token, or nil.
func (r *IdentityRepo) Lookup(ctx context.Context, token string) (*model.Identity, error) {
	const query = `
		SELECT i.id, i.email, i.role
		FROM sessions s
		JOIN identities i ON i.id = s.identity_id
		WHERE s.token_hash = ? AND s.expires_at > ?`

	var (
		identity model.Identity
		role     string
	)
	err := r.db.Reader.QueryRowContext(ctx, query, hashToken(token), formatTime(r.now())).
		Scan(&identity.UserID, &identity.Email, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}

	identity.Role = model.Role(role)
	return &identity, nil
}

// SignOut deletes the session behind token. Unknown tokens are ignored.
func (r *IdentityRepo) SignOut(ctx context.Context, token string) error {
	if _, err := r.db.Writer.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = ?`, hashToken(token)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// SetRole sets the role of the identity addressed by id or email. An email
// that has never signed in is registered so the role applies on first
// sign-in.
func (r *IdentityRepo) SetRole(ctx context.Context, user string, role model.Role) error {
	result, err := r.db.Writer.ExecContext(ctx,
		`UPDATE identities SET role = ? WHERE id = ? OR email = ?`,
		string(role), user, user,
	)
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	if !strings.Contains(user, "@") {
		return fmt.Errorf("identity %q: %w", user, driven.ErrIdentityNotFound)
	}

	if _, err := r.db.Writer.ExecContext(ctx,
		`INSERT INTO identities (id, email, role, created_at) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), strings.ToLower(user), string(role), formatTime(r.now()),
	); err != nil {
		return fmt.Errorf("register identity %q: %w", user, err)
	}
	return nil
}

// EnsureAdmins grants the admin role to each email, registering unknown ones.
func (r *IdentityRepo) EnsureAdmins(ctx context.Context, emails []string) error {
	for _, email := range emails {
		if err := r.SetRole(ctx, email, model.RoleAdmin); err != nil {
			return err
		}
	}
	return nil
}

// PurgeExpired deletes expired sessions and magic links. It returns the
// number of rows removed.
func (r *IdentityRepo) PurgeExpired(ctx context.Context) (int64, error) {
	now := formatTime(r.now())

	var total int64
	for _, query := range []string{
		`DELETE FROM sessions WHERE expires_at <= ?`,
		`DELETE FROM magic_links WHERE expires_at <= ?`,
	} {
		result, err := r.db.Writer.ExecContext(ctx, query, now)
		if err != nil {
			return total, fmt.Errorf("purge expired: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("check rows affected: %w", err)
		}
		total += n
	}
	return total, nil
}
