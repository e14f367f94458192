package application

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/folio/internal/domain/model"
)

func tableRows() []model.Record {
	return []model.Record{
		{ID: "a", Values: model.Values{"title": "Alpha", "years": "2019, 2020"}},
		{ID: "b", Values: model.Values{"title": "Beta", "years": "2021"}},
	}
}

func TestTable_ArmingSecondRowDisarmsFirst(t *testing.T) {
	table := NewTable(nil)
	table.SetRows(tableRows())

	committed, err := table.ClickDelete("a")
	require.NoError(t, err)
	assert.False(t, committed)
	assert.Equal(t, RowArmed, table.RowState("a"))

	committed, err = table.ClickDelete("b")
	require.NoError(t, err)
	assert.False(t, committed)
	assert.Equal(t, RowIdle, table.RowState("a"))
	assert.Equal(t, RowArmed, table.RowState("b"))
}

func TestTable_SecondClickConfirms(t *testing.T) {
	var deleted []string
	table := NewTable(nil, WithOnDelete(func(r model.Record) error {
		deleted = append(deleted, r.ID)
		return nil
	}))
	table.SetRows(tableRows())

	_, err := table.ClickDelete("b")
	require.NoError(t, err)
	assert.Empty(t, deleted)

	committed, err := table.ClickDelete("b")
	require.NoError(t, err)
	assert.True(t, committed)
	assert.Equal(t, []string{"b"}, deleted)
	assert.Equal(t, RowIdle, table.RowState("b"))
	assert.Equal(t, "", table.ArmedID())
}

func TestTable_DeleteErrorReturnsRowToIdle(t *testing.T) {
	table := NewTable(nil, WithOnDelete(func(model.Record) error {
		return errors.New("forbidden")
	}))
	table.SetRows(tableRows())
	require.NoError(t, table.Arm("a"))

	committed, err := table.ClickDelete("a")
	require.EqualError(t, err, "forbidden")
	assert.False(t, committed)
	assert.Equal(t, RowIdle, table.RowState("a"))
}

func TestTable_UnknownRow(t *testing.T) {
	table := NewTable(nil)
	table.SetRows(tableRows())

	_, err := table.ClickDelete("zzz")
	assert.ErrorIs(t, err, ErrRowNotFound)
	assert.ErrorIs(t, table.Arm("zzz"), ErrRowNotFound)
	assert.ErrorIs(t, table.Edit("zzz"), ErrRowNotFound)
}

func TestTable_EditAndViewDisarm(t *testing.T) {
	var edited, viewed string
	table := NewTable(nil,
		WithOnEdit(func(r model.Record) error { edited = r.ID; return nil }),
		WithOnView(func(r model.Record) error { viewed = r.ID; return nil }),
	)
	table.SetRows(tableRows())
	assert.True(t, table.HasView())

	require.NoError(t, table.Arm("a"))
	require.NoError(t, table.Edit("b"))
	assert.Equal(t, "b", edited)
	assert.Equal(t, RowIdle, table.RowState("a"))

	require.NoError(t, table.Arm("a"))
	require.NoError(t, table.View("a"))
	assert.Equal(t, "a", viewed)
	assert.Equal(t, RowIdle, table.RowState("a"))
}

func TestTable_SetRowsDropsMissingArmedRow(t *testing.T) {
	table := NewTable(nil)
	table.SetRows(tableRows())
	require.NoError(t, table.Arm("a"))

	table.SetRows(tableRows()[1:])
	assert.Equal(t, "", table.ArmedID())
}

func TestTable_Snapshot(t *testing.T) {
	columns := []model.Column{
		{Key: "title", Label: "Title"},
		{Key: "years", Label: "Years", Format: model.FormatYears},
	}
	table := NewTable(columns, WithRenderer("years", func(r model.Record) string {
		return strings.Join(model.ParseYears(r.Text("years")), " / ")
	}))

	assert.Equal(t, TableEmpty, table.Snapshot().Mode)

	table.SetLoading(true)
	table.SetRows(tableRows())
	assert.Equal(t, TableLoading, table.Snapshot().Mode)

	table.SetLoading(false)
	require.NoError(t, table.Arm("b"))

	view := table.Snapshot()
	assert.Equal(t, TableRows, view.Mode)
	assert.Equal(t, columns, view.Columns)
	require.Len(t, view.Rows, 2)
	assert.Equal(t, []string{"Alpha", "2019 / 2020"}, view.Rows[0].Cells)
	assert.False(t, view.Rows[0].Armed)
	assert.True(t, view.Rows[1].Armed)
}
