package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/ericfisherdev/folio/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/folio/internal/adapter/driving/web/templates/components"
	"github.com/ericfisherdev/folio/internal/adapter/driving/web/templates/pages"
	vm "github.com/ericfisherdev/folio/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/folio/internal/application"
	"github.com/ericfisherdev/folio/internal/domain/model"
	"github.com/ericfisherdev/folio/internal/domain/port/driven"
)

// tableSink forwards a load to a table and remembers where the rows came from.
type tableSink struct {
	*application.Table
	source application.LoadSource
}

func (s *tableSink) SetResult(result application.LoadResult) {
	s.source = result.Source
	s.Table.SetResult(result)
}

// linkAction is installed for row actions the browser carries out by
// following the row's link.
func linkAction(model.Record) error { return nil }

// Dashboard renders one tile per collection with its current record count.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	collections := h.catalog.Collections()

	queries := make([]driven.Query, 0, len(collections))
	for _, c := range collections {
		queries = append(queries, driven.Query{Collection: c.Name, Order: c.Order})
	}
	results := h.loader.LoadAll(r.Context(), queries...)

	dash := vm.DashboardViewModel{}
	if id := identityFrom(r.Context()); id != nil {
		dash.Email = id.Email
	}
	for _, c := range collections {
		result := results[c.Name]
		dash.Tiles = append(dash.Tiles, vm.TileViewModel{
			Label:    c.Label,
			Href:     collectionPath(c.Name),
			Count:    len(result.Records),
			Fallback: result.Source == application.SourceFallback,
		})
	}

	layout := h.adminLayout(w, r, "Dashboard", "/admin/dashboard")
	h.render(w, r, http.StatusOK, templates.Layout(layout, pages.Dashboard(dash)))
}

// adminCollection resolves the {collection} path value, answering 404 for an
// unknown name.
func (h *Handler) adminCollection(w http.ResponseWriter, r *http.Request) (model.Collection, bool) {
	name := r.PathValue("collection")
	coll, ok := h.catalog.Collection(name)
	if !ok {
		h.notFound(w, r, h.adminLayout(w, r, "Not found", ""), fmt.Sprintf("There is no collection named %q.", name))
		return model.Collection{}, false
	}
	return coll, true
}

// loadTable builds the table of one admin request and fills it from the
// loader. The table stays in its loading state if the request is canceled.
func (h *Handler) loadTable(ctx context.Context, coll model.Collection, onView application.RowAction) *tableSink {
	opts := cellRenderers(coll)
	opts = append(opts,
		application.WithOnEdit(linkAction),
		application.WithOnView(onView),
		application.WithOnDelete(func(rec model.Record) error {
			return h.records.Delete(ctx, coll.Name, rec)
		}),
	)

	sink := &tableSink{Table: application.NewTable(coll.Columns, opts...)}
	<-h.loader.Start(ctx, driven.Query{Collection: coll.Name, Order: coll.Order}, sink)
	return sink
}

func (h *Handler) renderTable(w http.ResponseWriter, r *http.Request, status int, coll model.Collection, t *tableSink, notice, errMsg string) {
	layout := h.adminLayout(w, r, coll.Label, collectionPath(coll.Name))

	tv := toTableViewModel(coll, t.Table, t.source, layout.CSRFToken)
	tv.Notice = notice
	tv.Error = errMsg

	h.render(w, r, status, templates.Layout(layout, pages.Table(tv)))
}

// List renders the records of a collection. The ?arm parameter carries the
// row whose delete is awaiting confirmation; any navigation that drops it
// disarms the row.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	coll, ok := h.adminCollection(w, r)
	if !ok {
		return
	}

	t := h.loadTable(r.Context(), coll, linkAction)
	if armed := r.URL.Query().Get("arm"); armed != "" {
		// A stale id leaves every row idle.
		_ = t.Arm(armed)
	}

	notice := ""
	switch r.URL.Query().Get("done") {
	case "deleted":
		notice = coll.Singular + " deleted."
	case "saved":
		notice = coll.Singular + " saved."
	}

	h.renderTable(w, r, http.StatusOK, coll, t, notice, "")
}

// Delete handles a click on a row's delete control. The first click arms the
// row; a click on the armed row deletes the record.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	coll, ok := h.adminCollection(w, r)
	if !ok {
		return
	}

	id := r.FormValue("id")
	listURL := collectionPath(coll.Name)

	t := h.loadTable(r.Context(), coll, linkAction)
	if armed := r.FormValue("armed"); armed != "" {
		_ = t.Arm(armed)
	}

	committed, err := t.ClickDelete(id)
	switch {
	case errors.Is(err, application.ErrRowNotFound):
		http.Redirect(w, r, listURL, http.StatusSeeOther)
	case err != nil:
		status, msg := h.writeFailure(coll, "delete", err)
		h.renderTable(w, r, status, coll, t, "", msg)
	case committed:
		http.Redirect(w, r, listURL+"?done=deleted", http.StatusSeeOther)
	default:
		http.Redirect(w, r, listURL+"?arm="+url.QueryEscape(id), http.StatusSeeOther)
	}
}

// View renders every field of one record. Bundled fallback rows can be
// viewed too.
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	coll, ok := h.adminCollection(w, r)
	if !ok {
		return
	}

	var picked *model.Record
	t := h.loadTable(r.Context(), coll, func(rec model.Record) error {
		picked = &rec
		return nil
	})

	if err := t.View(r.PathValue("id")); err != nil || picked == nil {
		h.notFound(w, r, h.adminLayout(w, r, "Not found", ""), "This record does not exist.")
		return
	}

	layout := h.adminLayout(w, r, coll.Singular, collectionPath(coll.Name))
	h.render(w, r, http.StatusOK, templates.Layout(layout, pages.Detail(toDetailViewModel(coll, *picked))))
}

// newForm creates the form of one request. The browser closes the form: the
// success page refreshes to the list after the success delay.
func (h *Handler) newForm(coll model.Collection, initial model.Values) *application.Form {
	return application.NewForm(coll.Fields, initial,
		application.WithSuccessDelay(h.opts.SuccessDelay),
		application.WithScheduler(func(time.Duration, func()) {}),
	)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, status int, coll model.Collection, form *application.Form, id string, errMsg string) {
	layout := h.adminLayout(w, r, coll.Label, collectionPath(coll.Name))

	fv := toFormViewModel(coll, form, id, layout.CSRFToken)
	fv.Error = errMsg
	if form.Status() == application.FormSucceeded {
		layout.RefreshURL = collectionPath(coll.Name) + "?done=saved"
		layout.RefreshAfter = int(math.Ceil(form.SuccessDelay().Seconds()))
	}

	h.render(w, r, status, templates.Layout(layout, pages.Form(fv)))
}

// New renders an empty form.
func (h *Handler) New(w http.ResponseWriter, r *http.Request) {
	coll, ok := h.adminCollection(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, http.StatusOK, coll, h.newForm(coll, nil), "", "")
}

// editSnapshot fetches the stored record behind the {id} path value. It
// writes the error page itself and returns nil when there is nothing to edit.
func (h *Handler) editSnapshot(w http.ResponseWriter, r *http.Request, coll model.Collection) *model.Record {
	rec, err := h.records.Get(r.Context(), coll.Name, r.PathValue("id"))
	if err == nil && rec != nil {
		return rec
	}

	layout := h.adminLayout(w, r, coll.Label, collectionPath(coll.Name))
	back := collectionPath(coll.Name)
	switch {
	case err == nil:
		h.notFound(w, r, layout, "This record does not exist.")
	case errors.Is(err, application.ErrSyntheticRecord):
		h.render(w, r, http.StatusConflict, templates.Layout(layout, pages.Message(vm.MessageViewModel{
			Title:   "Read-only record",
			Message: "This record comes from the bundled fallback data and cannot be edited.",
			BackURL: back,
		})))
	default:
		h.logger.Error("failed to load record", "collection", coll.Name, "error", err)
		h.render(w, r, http.StatusInternalServerError, templates.Layout(layout, pages.Message(vm.MessageViewModel{
			Title:   "Backend unavailable",
			Message: "The record could not be loaded. Please try again later.",
			BackURL: back,
		})))
	}
	return nil
}

// Edit renders a form filled from the stored record.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	coll, ok := h.adminCollection(w, r)
	if !ok {
		return
	}
	rec := h.editSnapshot(w, r, coll)
	if rec == nil {
		return
	}
	h.renderForm(w, r, http.StatusOK, coll, h.newForm(coll, rec.Values), rec.ID, "")
}

// Create validates and inserts a new record.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	coll, ok := h.adminCollection(w, r)
	if !ok {
		return
	}
	h.submit(w, r, coll, "", nil)
}

// Update validates and saves an existing record.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	coll, ok := h.adminCollection(w, r)
	if !ok {
		return
	}
	rec := h.editSnapshot(w, r, coll)
	if rec == nil {
		return
	}
	h.submit(w, r, coll, rec.ID, rec.Values)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, coll model.Collection, id string, initial model.Values) {
	form := h.newForm(coll, initial)
	if err := applyForm(form, coll, r); err != nil {
		h.logger.Warn("invalid form submission", "collection", coll.Name, "error", err)
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}

	err := form.Submit(r.Context(), func(ctx context.Context, values model.Values) error {
		_, err := h.records.Save(ctx, coll.Name, id, values)
		return err
	})
	switch {
	case errors.Is(err, application.ErrInvalidForm):
		h.renderForm(w, r, http.StatusUnprocessableEntity, coll, form, id, "")
	case err != nil:
		status, msg := h.writeFailure(coll, "save", err)
		h.renderForm(w, r, status, coll, form, id, msg)
	default:
		h.renderForm(w, r, http.StatusOK, coll, form, id, "")
	}
}

// ValidateField answers a blur: it applies the posted form and returns the
// visible error of one field as a fragment.
func (h *Handler) ValidateField(w http.ResponseWriter, r *http.Request) {
	coll, ok := h.adminCollection(w, r)
	if !ok {
		return
	}
	name := r.PathValue("field")
	if _, ok := coll.Field(name); !ok {
		http.Error(w, "unknown field", http.StatusNotFound)
		return
	}

	var initial model.Values
	if id := r.URL.Query().Get("id"); id != "" {
		if rec, err := h.records.Get(r.Context(), coll.Name, id); err == nil && rec != nil {
			initial = rec.Values
		}
	}

	form := h.newForm(coll, initial)
	if err := applyForm(form, coll, r); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	form.Blur(name)

	h.render(w, r, http.StatusOK, components.FieldError(name, form.VisibleError(name)))
}

// writeFailure logs a failed write and returns the status and banner text
// for it.
func (h *Handler) writeFailure(coll model.Collection, op string, err error) (int, string) {
	switch {
	case errors.Is(err, application.ErrSyntheticRecord):
		return http.StatusConflict, "Bundled fallback records cannot be modified."
	case errors.Is(err, driven.ErrRecordNotFound):
		return http.StatusNotFound, "The record no longer exists."
	}

	h.logger.Error("record write failed", "collection", coll.Name, "op", op, "error", err)
	return http.StatusInternalServerError, fmt.Sprintf("Could not %s the %s. Please try again.", op, coll.Singular)
}

// applyForm copies the posted values into form. Fields missing from the
// request keep their snapshot value; an image field without an upload keeps
// its stored URL.
func applyForm(form *application.Form, coll model.Collection, r *http.Request) error {
	if err := r.ParseMultipartForm(maxBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return fmt.Errorf("parse form: %w", err)
	}

	for _, field := range coll.Fields {
		if field.Kind == model.FieldImage {
			file, err := formFile(r, field.Name)
			if err != nil {
				return err
			}
			if file != nil {
				form.SetFile(field.Name, file)
			}
			continue
		}

		if _, posted := r.Form[field.Name]; posted {
			form.Change(field.Name, r.Form.Get(field.Name))
		}
	}
	return nil
}

// formFile reads an uploaded file, or returns nil when none was chosen.
func formFile(r *http.Request, name string) (*model.File, error) {
	f, hdr, err := r.FormFile(name)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", name, err)
	}
	defer f.Close()

	if hdr.Filename == "" || hdr.Size == 0 {
		return nil, nil
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", name, err)
	}

	contentType := hdr.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	return &model.File{Name: hdr.Filename, ContentType: contentType, Data: data}, nil
}
