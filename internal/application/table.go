package application

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ericfisherdev/folio/internal/domain/model"
)

// ErrRowNotFound is returned by Table actions addressing an id that is not
// among the table's rows.
var ErrRowNotFound = errors.New("row not found")

// RowState is the delete-confirmation state of one table row.
type RowState int

const (
	RowIdle RowState = iota
	RowArmed
)

// TableMode selects what a table renders.
type TableMode string

const (
	TableLoading TableMode = "loading"
	TableEmpty   TableMode = "empty"
	TableRows    TableMode = "rows"
)

// CellRenderer renders the cell of one column for a record.
type CellRenderer func(record model.Record) string

// RowAction is called with the record a row action applies to.
type RowAction func(record model.Record) error

// TableOption configures a Table.
type TableOption func(*Table)

// WithRenderer sets a custom renderer for the column with the given key.
func WithRenderer(key string, render CellRenderer) TableOption {
	return func(t *Table) { t.renderers[key] = render }
}

// WithOnEdit sets the edit row action.
func WithOnEdit(fn RowAction) TableOption {
	return func(t *Table) { t.onEdit = fn }
}

// WithOnDelete sets the action run when a delete is confirmed.
func WithOnDelete(fn RowAction) TableOption {
	return func(t *Table) { t.onDelete = fn }
}

// WithOnView sets the optional view row action.
func WithOnView(fn RowAction) TableOption {
	return func(t *Table) { t.onView = fn }
}

// Table lists homogeneous records with caller-supplied columns and row
// actions. Deleting is a two-step confirmation: the first click arms the row,
// a second click on the same row confirms. At most one row is armed at a
// time. Table is safe for concurrent use and satisfies LoadSink.
type Table struct {
	mu sync.Mutex

	columns   []model.Column
	renderers map[string]CellRenderer
	rows      []model.Record
	loading   bool
	armedID   string

	onEdit   RowAction
	onDelete RowAction
	onView   RowAction
}

// Compile-time interface satisfaction check.
var _ LoadSink = (*Table)(nil)

// NewTable creates a Table with the given columns.
func NewTable(columns []model.Column, opts ...TableOption) *Table {
	t := &Table{
		columns:   columns,
		renderers: map[string]CellRenderer{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetLoading toggles the loading placeholder.
func (t *Table) SetLoading(loading bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loading = loading
}

// SetResult replaces the rows with the records of a load.
func (t *Table) SetResult(result LoadResult) {
	t.SetRows(result.Records)
}

// SetRows replaces the rows. An armed row that is no longer present is
// disarmed.
func (t *Table) SetRows(rows []model.Record) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rows = rows
	if t.armedID != "" && t.indexLocked(t.armedID) < 0 {
		t.armedID = ""
	}
}

func (t *Table) indexLocked(id string) int {
	for i, r := range t.rows {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// Arm puts the row with id into the armed state, disarming any other row.
func (t *Table) Arm(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.indexLocked(id) < 0 {
		return fmt.Errorf("arm %q: %w", id, ErrRowNotFound)
	}
	t.armedID = id
	return nil
}

// ClickDelete handles a click on the delete control of a row. If the row is
// armed, the delete action runs, the row returns to idle, and committed is
// true. Otherwise the row becomes the single armed row and committed is false.
// An error from the delete action is returned with the row back in idle.
func (t *Table) ClickDelete(id string) (committed bool, err error) {
	t.mu.Lock()
	idx := t.indexLocked(id)
	if idx < 0 {
		t.mu.Unlock()
		return false, fmt.Errorf("delete %q: %w", id, ErrRowNotFound)
	}

	if t.armedID != id {
		t.armedID = id
		t.mu.Unlock()
		return false, nil
	}

	t.armedID = ""
	record := t.rows[idx]
	onDelete := t.onDelete
	t.mu.Unlock()

	if onDelete != nil {
		if err := onDelete(record); err != nil {
			return false, err
		}
	}
	return true, nil
}

// Disarm returns any armed row to idle, as a click elsewhere does.
func (t *Table) Disarm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armedID = ""
}

// Edit runs the edit action for a row. Any armed row is disarmed.
func (t *Table) Edit(id string) error {
	return t.runAction(id, func() RowAction { return t.onEdit })
}

// View runs the optional view action for a row. Any armed row is disarmed.
func (t *Table) View(id string) error {
	return t.runAction(id, func() RowAction { return t.onView })
}

func (t *Table) runAction(id string, pick func() RowAction) error {
	t.mu.Lock()
	t.armedID = ""
	idx := t.indexLocked(id)
	if idx < 0 {
		t.mu.Unlock()
		return fmt.Errorf("row %q: %w", id, ErrRowNotFound)
	}
	record := t.rows[idx]
	action := pick()
	t.mu.Unlock()

	if action == nil {
		return nil
	}
	return action(record)
}

// RowState returns the delete-confirmation state of a row.
func (t *Table) RowState(id string) RowState {
	t.mu.Lock()
	defer t.mu.Unlock()

	if id != "" && t.armedID == id {
		return RowArmed
	}
	return RowIdle
}

// ArmedID returns the id of the armed row, or "".
func (t *Table) ArmedID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.armedID
}

// HasView reports whether a view action is configured.
func (t *Table) HasView() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.onView != nil
}

// RowView is one rendered row.
type RowView struct {
	ID     string
	Cells  []string
	Armed  bool
	Record model.Record
}

// TableView is a render-ready snapshot of a table.
type TableView struct {
	Mode    TableMode
	Columns []model.Column
	Rows    []RowView
}

// Snapshot renders the table. While loading it yields TableLoading regardless of
// the rows; an empty row set yields TableEmpty.
func (t *Table) Snapshot() TableView {
	t.mu.Lock()
	defer t.mu.Unlock()

	view := TableView{Columns: t.columns}

	switch {
	case t.loading:
		view.Mode = TableLoading
		return view
	case len(t.rows) == 0:
		view.Mode = TableEmpty
		return view
	}

	view.Mode = TableRows
	view.Rows = make([]RowView, 0, len(t.rows))
	for _, r := range t.rows {
		cells := make([]string, 0, len(t.columns))
		for _, col := range t.columns {
			if render, ok := t.renderers[col.Key]; ok {
				cells = append(cells, render(r))
				continue
			}
			cells = append(cells, r.Text(col.Key))
		}

		view.Rows = append(view.Rows, RowView{
			ID:     r.ID,
			Cells:  cells,
			Armed:  t.armedID == r.ID,
			Record: r,
		})
	}

	return view
}
