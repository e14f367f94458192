package web

import (
	"net/http"
	"strings"

	"github.com/ericfisherdev/folio/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/folio/internal/adapter/driving/web/templates/pages"
	vm "github.com/ericfisherdev/folio/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/folio/internal/domain/port/driven"
)

// Home renders the landing page.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	home := vm.HomeViewModel{
		SiteTitle: h.opts.SiteTitle,
		Tagline:   h.opts.Tagline,
	}
	for _, p := range h.catalog.Pages() {
		home.Pages = append(home.Pages, vm.PageLinkViewModel{
			Title:    p.Title,
			Subtitle: p.Subtitle,
			Href:     pagePath(p.Slug),
		})
	}

	h.render(w, r, http.StatusOK, templates.Layout(h.publicLayout("", "/"), pages.Home(home)))
}

// Page renders a public page. Its sections are loaded concurrently; any
// section whose backend read fails shows the bundled records instead.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	page, ok := h.catalog.Page(r.PathValue("slug"))
	if !ok {
		h.notFound(w, r, h.publicLayout("Not found", ""), "This page does not exist.")
		return
	}

	queries := make([]driven.Query, 0, len(page.Sections))
	for _, s := range page.Sections {
		queries = append(queries, driven.Query{Collection: s.Collection, Order: s.Order})
	}
	results := h.loader.LoadAll(r.Context(), queries...)

	filter := strings.TrimSpace(r.URL.Query().Get("filter"))
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	body := pages.Page(toPageViewModel(page, results, filter, query))

	h.render(w, r, http.StatusOK, templates.Layout(h.publicLayout(page.Title, pagePath(page.Slug)), body))
}
