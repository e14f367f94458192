// Package web implements the HTML driving adapter using templ components: the
// public portfolio pages and the magic-link protected admin panel.
package web

import (
	"bytes"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/ericfisherdev/folio/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/folio/internal/adapter/driving/web/templates/pages"
	vm "github.com/ericfisherdev/folio/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/folio/internal/application"
	"github.com/ericfisherdev/folio/internal/domain/model"
)

// Catalog is the subset of the collection catalog the web adapter needs.
type Catalog interface {
	Collection(name string) (model.Collection, bool)
	Collections() []model.Collection
	Page(slug string) (model.Page, bool)
	Pages() []model.Page
}

// Options holds the presentation and cookie settings of the web adapter.
type Options struct {
	SiteTitle string
	Tagline   string

	// PublicURL is the externally visible base URL, used to build the magic
	// link redirect.
	PublicURL    string
	CookieSecure bool
	SuccessDelay time.Duration

	// MediaDir, when set, is served under /media/.
	MediaDir string
}

// Handler is the web GUI driving adapter that serves HTML via templ components.
type Handler struct {
	catalog Catalog
	loader  *application.RecordLoader
	records *application.RecordService
	auth    *application.AuthService
	opts    Options
	logger  *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	catalog Catalog,
	loader *application.RecordLoader,
	records *application.RecordService,
	auth *application.AuthService,
	opts Options,
	logger *slog.Logger,
) *Handler {
	if opts.SiteTitle == "" {
		opts.SiteTitle = "Folio"
	}
	if opts.SuccessDelay <= 0 {
		opts.SuccessDelay = application.DefaultSuccessDelay
	}
	opts.PublicURL = strings.TrimSuffix(opts.PublicURL, "/")

	return &Handler{
		catalog: catalog,
		loader:  loader,
		records: records,
		auth:    auth,
		opts:    opts,
		logger:  logger,
	}
}

// render writes a complete page. The component is rendered into a buffer
// first so a failure can still produce a clean 500.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	var buf bytes.Buffer
	if err := c.Render(r.Context(), &buf); err != nil {
		h.logger.Error("failed to render page", "path", r.URL.Path, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// publicLayout returns the layout of a public page. active is the path of the
// current page.
func (h *Handler) publicLayout(title, active string) vm.LayoutViewModel {
	nav := []vm.NavItemViewModel{{Label: "Home", Href: "/", Active: active == "/"}}
	for _, p := range h.catalog.Pages() {
		href := pagePath(p.Slug)
		nav = append(nav, vm.NavItemViewModel{Label: p.Title, Href: href, Active: active == href})
	}

	return vm.LayoutViewModel{
		SiteTitle: h.opts.SiteTitle,
		Title:     title,
		Nav:       nav,
	}
}

// adminLayout returns the layout of an admin page.
func (h *Handler) adminLayout(w http.ResponseWriter, r *http.Request, title, active string) vm.LayoutViewModel {
	nav := []vm.NavItemViewModel{{Label: "Dashboard", Href: "/admin/dashboard", Active: active == "/admin/dashboard"}}
	for _, c := range h.catalog.Collections() {
		href := collectionPath(c.Name)
		nav = append(nav, vm.NavItemViewModel{Label: c.Label, Href: href, Active: active == href})
	}

	layout := vm.LayoutViewModel{
		SiteTitle: h.opts.SiteTitle + " Admin",
		Title:     title,
		Nav:       nav,
		Admin:     true,
		CSRFToken: h.csrfToken(w, r),
	}
	if id := identityFrom(r.Context()); id != nil {
		layout.UserEmail = id.Email
	}
	return layout
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request, layout vm.LayoutViewModel, message string) {
	page := pages.Message(vm.MessageViewModel{Title: "Not found", Message: message, BackURL: "/"})
	if layout.Admin {
		page = pages.Message(vm.MessageViewModel{Title: "Not found", Message: message, BackURL: "/admin/dashboard"})
	}
	h.render(w, r, http.StatusNotFound, templates.Layout(layout, page))
}

func pagePath(slug string) string {
	return "/p/" + slug
}

func collectionPath(name string) string {
	return "/admin/c/" + name
}
