package web

import (
	"context"
	"net/http"
	"time"

	"github.com/ericfisherdev/folio/internal/application"
	"github.com/ericfisherdev/folio/internal/domain/model"
	"github.com/ericfisherdev/folio/internal/domain/port/driven"
)

const sessionCookieName = "folio_session"

type identityKey struct{}

// identityFrom returns the admin identity stored by requireAdmin.
func identityFrom(ctx context.Context) *model.Identity {
	id, _ := ctx.Value(identityKey{}).(*model.Identity)
	return id
}

func sessionToken(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (h *Handler) setSession(w http.ResponseWriter, s *model.Session) {
	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    s.AccessToken,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.opts.CookieSecure,
	}
	if !s.ExpiresAt.IsZero() {
		cookie.Expires = s.ExpiresAt
	}
	http.SetCookie(w, cookie)
}

func (h *Handler) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.opts.CookieSecure,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}

// requireAdmin serves next only to a signed-in admin. The session is read
// once per request and never refreshed; anything short of an admin role
// claim is sent to the login page. The access token is attached to the
// request context so row store writes run as the signed-in admin.
func (h *Handler) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)

		decision, identity := h.auth.Authorize(r.Context(), token)
		if decision != application.DecisionAllow {
			http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
			return
		}

		ctx := driven.WithAccessToken(r.Context(), token)
		ctx = context.WithValue(ctx, identityKey{}, identity)
		next(w, r.WithContext(ctx))
	}
}
