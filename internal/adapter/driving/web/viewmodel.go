package web

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	vm "github.com/ericfisherdev/folio/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/folio/internal/application"
	"github.com/ericfisherdev/folio/internal/domain/model"
)

const mediaPlaceholder = "/static/img/media-placeholder.svg"

// toCardViewModel maps a record onto the card slots of a page section.
func toCardViewModel(card model.Card, rec model.Record) vm.CardViewModel {
	c := vm.CardViewModel{
		Title: rec.Text(card.Title),
		Meta:  []string{},
		Years: model.ParseYears(rec.Text(card.Years)),
	}

	for _, key := range card.Meta {
		if v := strings.TrimSpace(rec.Text(key)); v != "" {
			c.Meta = append(c.Meta, v)
		}
	}
	if card.Body != "" {
		c.BodyHTML = RenderMarkdown(rec.Text(card.Body))
	}
	if card.Link != "" {
		c.Link = strings.TrimSpace(rec.Text(card.Link))
	}
	if card.Image != "" {
		c.Image = rec.Text(card.Image)
		if c.Image == "" {
			c.Image = mediaPlaceholder
		}
	}
	return c
}

// toPageViewModel builds a public page from the loaded sections, applying the
// page filter and the free-text query.
func toPageViewModel(page model.Page, results map[string]application.LoadResult, filter, query string) vm.PageViewModel {
	path := pagePath(page.Slug)

	p := vm.PageViewModel{
		Title:         page.Title,
		Subtitle:      page.Subtitle,
		Path:          path,
		SearchEnabled: len(page.SearchKeys) > 0,
		Query:         query,
	}

	if page.FilterKey != "" {
		p.Filter = toFilterViewModel(page, results, path, filter, query)
	} else {
		filter = ""
	}
	if !p.SearchEnabled {
		query = ""
	}

	empty := "Nothing to show yet."
	if filter != "" || query != "" {
		empty = "No matching records."
	}

	for _, s := range page.Sections {
		records := filterRecords(results[s.Collection].Records, page, filter, query)

		cards := make([]vm.CardViewModel, 0, len(records))
		for _, rec := range records {
			cards = append(cards, toCardViewModel(s.Card, rec))
		}
		p.Sections = append(p.Sections, vm.SectionViewModel{
			Heading: s.Heading,
			Cards:   cards,
			Empty:   empty,
		})
	}
	return p
}

// toFilterViewModel returns the filter chips of a page. Without configured
// options, the distinct values found in the loaded records are offered.
func toFilterViewModel(page model.Page, results map[string]application.LoadResult, path, active, query string) *vm.FilterViewModel {
	options := page.Filters
	if len(options) == 0 {
		seen := map[string]bool{}
		for _, s := range page.Sections {
			for _, rec := range results[s.Collection].Records {
				v := strings.TrimSpace(rec.Text(page.FilterKey))
				if v != "" && !seen[strings.ToLower(v)] {
					seen[strings.ToLower(v)] = true
					options = append(options, model.FilterOption{Value: v, Label: v})
				}
			}
		}
	}

	f := &vm.FilterViewModel{Active: active}
	f.Options = append(f.Options, vm.FilterOptionViewModel{
		Label:  "All",
		Href:   pageURL(path, "", query),
		Active: active == "",
	})
	for _, opt := range options {
		f.Options = append(f.Options, vm.FilterOptionViewModel{
			Label:  opt.Label,
			Href:   pageURL(path, opt.Value, query),
			Active: strings.EqualFold(active, opt.Value),
		})
	}
	return f
}

func pageURL(path, filter, query string) string {
	q := url.Values{}
	if filter != "" {
		q.Set("filter", filter)
	}
	if query != "" {
		q.Set("q", query)
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

// filterRecords keeps the records matching the filter value and containing
// query in any of the page's search keys. Both comparisons ignore case.
func filterRecords(records []model.Record, page model.Page, filter, query string) []model.Record {
	if filter == "" && query == "" {
		return records
	}

	query = strings.ToLower(query)
	out := make([]model.Record, 0, len(records))
	for _, rec := range records {
		if filter != "" && !strings.EqualFold(strings.TrimSpace(rec.Text(page.FilterKey)), filter) {
			continue
		}
		if query != "" && !matchesQuery(rec, page.SearchKeys, query) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func matchesQuery(rec model.Record, keys []string, query string) bool {
	for _, key := range keys {
		if strings.Contains(strings.ToLower(rec.Text(key)), query) {
			return true
		}
	}
	return false
}

// isMarkup reports whether cells of the format are rendered as HTML.
func isMarkup(format model.ColumnFormat) bool {
	return format != "" && format != model.FormatPlain
}

// cellExcerptRunes bounds markdown cells in admin tables.
const cellExcerptRunes = 120

// formatValue renders a value in the given column format as trusted HTML.
// Markdown is shortened to a plain excerpt; the detail view shows it in full.
func formatValue(format model.ColumnFormat, value string) string {
	switch format {
	case model.FormatMarkdown:
		return templ.EscapeString(MarkdownExcerpt(value, cellExcerptRunes))
	case model.FormatYears:
		return templ.EscapeString(strings.Join(model.ParseYears(value), ", "))
	case model.FormatImage:
		if value == "" {
			return ""
		}
		return `<img class="thumb" alt="" src="` + templ.EscapeString(string(templ.URL(value))) + `">`
	case model.FormatLink:
		if value == "" {
			return ""
		}
		return `<a target="_blank" rel="noopener" href="` + templ.EscapeString(string(templ.URL(value))) + `">` +
			templ.EscapeString(value) + `</a>`
	default:
		return templ.EscapeString(value)
	}
}

// cellRenderers returns a table renderer for every formatted column.
func cellRenderers(coll model.Collection) []application.TableOption {
	var opts []application.TableOption
	for _, col := range coll.Columns {
		if !isMarkup(col.Format) {
			continue
		}
		opts = append(opts, application.WithRenderer(col.Key, func(rec model.Record) string {
			return formatValue(col.Format, rec.Text(col.Key))
		}))
	}
	return opts
}

// toTableViewModel converts a table snapshot. Synthetic rows are read-only.
func toTableViewModel(coll model.Collection, t *application.Table, source application.LoadSource, csrf string) vm.TableViewModel {
	view := t.Snapshot()
	listURL := collectionPath(coll.Name)

	tv := vm.TableViewModel{
		Title:     coll.Label,
		Singular:  coll.Singular,
		NewURL:    listURL + "/new",
		DeleteURL: listURL + "/delete",
		CSRFToken: csrf,
		Mode:      string(view.Mode),
		ArmedID:   t.ArmedID(),
		Fallback:  source == application.SourceFallback,
		Rows:      []vm.RowViewModel{},
	}

	for _, col := range view.Columns {
		tv.Columns = append(tv.Columns, col.Label)
	}

	hasView := t.HasView()
	for _, row := range view.Rows {
		cells := make([]vm.CellViewModel, 0, len(row.Cells))
		for i, cell := range row.Cells {
			if isMarkup(view.Columns[i].Format) {
				cells = append(cells, vm.CellViewModel{HTML: cell})
				continue
			}
			cells = append(cells, vm.CellViewModel{Text: cell})
		}

		rv := vm.RowViewModel{
			ID:        row.ID,
			Cells:     cells,
			Armed:     row.Armed,
			ReadOnly:  row.Record.Synthetic,
			EditURL:   listURL + "/" + url.PathEscape(row.ID) + "/edit",
			CancelURL: listURL,
		}
		if hasView {
			rv.ViewURL = listURL + "/" + url.PathEscape(row.ID)
		}
		tv.Rows = append(tv.Rows, rv)
	}
	return tv
}

// toFormViewModel converts the state of a form. id is empty for a new record.
func toFormViewModel(coll model.Collection, form *application.Form, id, csrf string) vm.FormViewModel {
	listURL := collectionPath(coll.Name)

	fv := vm.FormViewModel{
		Title:       "Add " + coll.Singular,
		Action:      listURL,
		CancelURL:   listURL,
		CSRFToken:   csrf,
		SubmitLabel: "Create",
		Status:      form.Status().String(),
	}
	validateQuery := ""
	if id != "" {
		fv.Title = "Edit " + coll.Singular
		fv.Action = listURL + "/" + url.PathEscape(id)
		fv.SubmitLabel = "Update"
		validateQuery = "?id=" + url.QueryEscape(id)
	}

	for _, field := range form.Fields() {
		f := vm.FieldViewModel{
			Name:        field.Name,
			Label:       field.Label,
			Kind:        string(field.Kind),
			Required:    field.Required,
			Placeholder: field.Placeholder,
			Accept:      field.Accept,
			Error:       form.VisibleError(field.Name),
			ValidateURL: listURL + "/validate/" + url.PathEscape(field.Name) + validateQuery,
		}
		if field.MinLength != nil {
			f.MinLength = *field.MinLength
		}
		if field.MaxLength != nil {
			f.MaxLength = *field.MaxLength
		}
		if field.Min != nil {
			f.Min = strconv.FormatFloat(*field.Min, 'f', -1, 64)
		}
		if field.Max != nil {
			f.Max = strconv.FormatFloat(*field.Max, 'f', -1, 64)
		}

		if field.Kind == model.FieldImage {
			current, _ := form.Value(field.Name).(string)
			if current == "" {
				current, _ = form.Initial(field.Name).(string)
			}
			f.CurrentImage = current
		} else {
			f.Value = model.ValueText(form.Value(field.Name))
		}

		fv.Fields = append(fv.Fields, f)
	}
	return fv
}

// toDetailViewModel lists every field of a record.
func toDetailViewModel(coll model.Collection, rec model.Record) vm.DetailViewModel {
	listURL := collectionPath(coll.Name)

	d := vm.DetailViewModel{
		Title:   coll.Singular,
		BackURL: listURL,
	}
	if !rec.Synthetic {
		d.EditURL = listURL + "/" + url.PathEscape(rec.ID) + "/edit"
	}

	for _, field := range coll.Fields {
		value := rec.Text(field.Name)
		df := vm.DetailFieldViewModel{Label: field.Label}
		switch field.Kind {
		case model.FieldImage:
			df.HTML = formatValue(model.FormatImage, value)
		case model.FieldTextarea:
			df.HTML = RenderMarkdown(value)
		default:
			df.Text = value
		}
		d.Fields = append(d.Fields, df)
	}
	return d
}
