package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ericfisherdev/folio/internal/domain/model"
	"github.com/ericfisherdev/folio/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RowStore = (*RowStore)(nil)

// RowStore implements the RowStore port over PostgREST. Each collection is a
// table of the same name.
type RowStore struct {
	c *Client
}

// NewRowStore creates a RowStore using c.
func NewRowStore(c *Client) *RowStore {
	return &RowStore{c: c}
}

func tablePath(collection string) string {
	return "/rest/v1/" + collection
}

func orderParam(o model.Order) string {
	v := o.Key + "." + string(o.Direction)
	if o.NullsLast {
		v += ".nullslast"
	}
	return v
}

var returnRepresentation = http.Header{"Prefer": []string{"return=representation"}}

// rowToRecord splits a PostgREST row into the record envelope and its values.
func rowToRecord(collection string, row map[string]any) model.Record {
	rec := model.Record{Collection: collection, Values: make(model.Values, len(row))}

	for k, v := range row {
		switch k {
		case "id":
			rec.ID = model.ValueText(v)
		case "created_at":
			if s, ok := v.(string); ok {
				if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
					rec.CreatedAt = t
				}
			}
		default:
			rec.Values[k] = v
		}
	}
	return rec
}

func rowsToRecords(collection string, rows []map[string]any) []model.Record {
	records := make([]model.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, rowToRecord(collection, row))
	}
	return records
}

// Select returns all rows of q.Collection in the requested order.
func (s *RowStore) Select(ctx context.Context, q driven.Query) ([]model.Record, error) {
	var rows []map[string]any
	err := s.c.do(ctx, request{
		method: http.MethodGet,
		path:   tablePath(q.Collection),
		query: url.Values{
			"select": {"*"},
			"order":  {orderParam(q.Order.Normalize())},
		},
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", q.Collection, err)
	}
	return rowsToRecords(q.Collection, rows), nil
}

// Get returns one row by id, or nil if it does not exist.
func (s *RowStore) Get(ctx context.Context, collection, id string) (*model.Record, error) {
	var rows []map[string]any
	err := s.c.do(ctx, request{
		method: http.MethodGet,
		path:   tablePath(collection),
		query:  url.Values{"select": {"*"}, "id": {"eq." + id}},
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	rec := rowToRecord(collection, rows[0])
	return &rec, nil
}

// Insert creates a row and returns it as stored, including the id and
// created_at assigned by the database.
func (s *RowStore) Insert(ctx context.Context, collection string, values model.Values) (model.Record, error) {
	var rows []map[string]any
	err := s.c.do(ctx, request{
		method: http.MethodPost,
		path:   tablePath(collection),
		header: returnRepresentation,
		body:   []model.Values{values},
	}, &rows)
	if err != nil {
		return model.Record{}, fmt.Errorf("insert into %s: %w", collection, err)
	}
	if len(rows) == 0 {
		return model.Record{}, fmt.Errorf("insert into %s: no row returned", collection)
	}
	return rowToRecord(collection, rows[0]), nil
}

// Update patches the given columns of one row.
func (s *RowStore) Update(ctx context.Context, collection, id string, values model.Values) error {
	var rows []map[string]any
	err := s.c.do(ctx, request{
		method: http.MethodPatch,
		path:   tablePath(collection),
		query:  url.Values{"id": {"eq." + id}},
		header: returnRepresentation,
		body:   values,
	}, &rows)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, driven.ErrRecordNotFound)
	}
	return nil
}

// Delete removes one row.
func (s *RowStore) Delete(ctx context.Context, collection, id string) error {
	var rows []map[string]any
	err := s.c.do(ctx, request{
		method: http.MethodDelete,
		path:   tablePath(collection),
		query:  url.Values{"id": {"eq." + id}},
		header: returnRepresentation,
	}, &rows)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, driven.ErrRecordNotFound)
	}
	return nil
}
