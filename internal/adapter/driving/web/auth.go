package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ericfisherdev/folio/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/folio/internal/adapter/driving/web/templates/pages"
	vm "github.com/ericfisherdev/folio/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/folio/internal/application"
)

// CallbackPath is where magic links land to complete a sign-in.
const CallbackPath = "/admin/auth/callback"

var loginErrors = map[string]string{
	"invalid_link": "This sign-in link is invalid or has expired. Request a new one.",
}

func (h *Handler) loginLayout(w http.ResponseWriter, r *http.Request) vm.LayoutViewModel {
	layout := h.publicLayout("Sign in", "")
	layout.CSRFToken = h.csrfToken(w, r)
	return layout
}

// Login renders the sign-in page. An admin who is already signed in is sent
// straight to the dashboard.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	decision, _ := h.auth.Authorize(r.Context(), sessionToken(r))
	if decision == application.DecisionAllow {
		http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
		return
	}

	layout := h.loginLayout(w, r)
	login := vm.LoginViewModel{
		Forbidden: decision == application.DecisionForbidden,
		Error:     loginErrors[r.URL.Query().Get("error")],
		CSRFToken: layout.CSRFToken,
	}

	h.render(w, r, http.StatusOK, templates.Layout(layout, pages.Login(login)))
}

// RequestLink asks the identity provider to email a magic link.
func (h *Handler) RequestLink(w http.ResponseWriter, r *http.Request) {
	layout := h.loginLayout(w, r)
	login := vm.LoginViewModel{
		Email:     strings.TrimSpace(r.FormValue("email")),
		CSRFToken: layout.CSRFToken,
	}

	err := h.auth.RequestMagicLink(r.Context(), login.Email, h.opts.PublicURL+CallbackPath)
	switch {
	case errors.Is(err, application.ErrInvalidEmail):
		login.Error = "Please enter a valid email address"
		h.render(w, r, http.StatusUnprocessableEntity, templates.Layout(layout, pages.Login(login)))
		return
	case err != nil:
		h.logger.Error("failed to send magic link", "error", err)
		login.Error = "Could not send the sign-in link. Please try again."
		h.render(w, r, http.StatusBadGateway, templates.Layout(layout, pages.Login(login)))
		return
	}

	login.Sent = true
	h.render(w, r, http.StatusOK, templates.Layout(layout, pages.Login(login)))
}

// Callback completes a magic-link sign-in, stores the session cookie and
// returns to the login page, which forwards admins to the dashboard.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	session, err := h.auth.CompleteSignIn(r.Context(), r.URL.Query().Get("token_hash"))
	if err != nil {
		h.logger.Warn("magic link sign-in failed", "error", err)
		http.Redirect(w, r, "/admin/login?error=invalid_link", http.StatusSeeOther)
		return
	}

	h.setSession(w, session)
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

// Logout ends the session and clears the cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.SignOut(r.Context(), sessionToken(r))
	h.clearSession(w)
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}
