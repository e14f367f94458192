// Package httphandler serves the read-only JSON API and provides the request
// logging and panic recovery middleware shared by every route.
package httphandler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/folio/internal/application"
	"github.com/ericfisherdev/folio/internal/domain/model"
	"github.com/ericfisherdev/folio/internal/domain/port/driven"
)

// Catalog is the subset of the collection catalog the API needs.
type Catalog interface {
	Collection(name string) (model.Collection, bool)
	Collections() []model.Collection
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	catalog Catalog
	loader  *application.RecordLoader
	backend string
	logger  *slog.Logger
}

// NewHandler creates a Handler. backend names the configured row store and is
// reported by the health endpoint.
func NewHandler(catalog Catalog, loader *application.RecordLoader, backend string, logger *slog.Logger) *Handler {
	return &Handler{
		catalog: catalog,
		loader:  loader,
		backend: backend,
		logger:  logger,
	}
}

// Mount registers additional routes on the shared mux.
type Mount func(mux *http.ServeMux)

// NewServeMux creates an http.Handler with the API routes and any extra mounts
// registered, wrapped with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger, mounts ...Mount) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/collections", h.ListCollections)
	mux.HandleFunc("GET /api/v1/collections/{name}/records", h.ListRecords)

	for _, mount := range mounts {
		mount(mux)
	}

	return Wrap(logger, mux)
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Backend: h.backend,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// ListCollections returns the public collections of the catalog.
func (h *Handler) ListCollections(w http.ResponseWriter, _ *http.Request) {
	collections := h.catalog.Collections()

	resp := make([]CollectionResponse, 0, len(collections))
	for _, c := range collections {
		if !c.Public {
			continue
		}
		resp = append(resp, toCollectionResponse(c))
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListRecords returns the records of one public collection in its catalog
// order. A backend failure is answered with the bundled fallback records and
// source "fallback", never with an error status.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	coll, ok := h.catalog.Collection(name)
	if !ok || !coll.Public {
		writeError(w, http.StatusNotFound, "collection not found")
		return
	}

	result := h.loader.Load(r.Context(), driven.Query{Collection: coll.Name, Order: coll.Order})
	writeJSON(w, http.StatusOK, toRecordListResponse(coll.Name, result))
}
