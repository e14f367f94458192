package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/folio/internal/domain/model"
	"github.com/ericfisherdev/folio/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RowStore = (*RowStore)(nil)

// RowStore is the SQLite implementation of the RowStore port. All
// collections share one table; field values are stored as a JSON object.
type RowStore struct {
	db  *DB
	now func() time.Time
}

// NewRowStore creates a new RowStore backed by the given DB.
func NewRowStore(db *DB) *RowStore {
	return &RowStore{db: db, now: time.Now}
}

// orderClause builds the ORDER BY clause for o and the arguments it binds.
// Only the JSON path is bound; the direction comes from a closed set.
// Nulls sort first when descending and last when ascending unless NullsLast
// forces them last.
func orderClause(o model.Order) (string, []any) {
	dir := "DESC"
	if o.Direction == model.Ascending {
		dir = "ASC"
	}

	if o.Key == "created_at" {
		return "ORDER BY created_at " + dir + ", id " + dir, nil
	}

	nulls := "DESC"
	if o.NullsLast || o.Direction == model.Ascending {
		nulls = "ASC"
	}

	path := `$."` + o.Key + `"`
	clause := fmt.Sprintf(
		"ORDER BY json_extract(data, ?) IS NULL %s, json_extract(data, ?) %s, created_at DESC",
		nulls, dir,
	)
	return clause, []any{path, path}
}

// Select returns the records of q.Collection in the requested order.
func (s *RowStore) Select(ctx context.Context, q driven.Query) ([]model.Record, error) {
	order, orderArgs := orderClause(q.Order.Normalize())
	query := `SELECT id, data, created_at FROM records WHERE collection = ? ` + order

	args := append([]any{q.Collection}, orderArgs...)

	rows, err := s.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", q.Collection, err)
	}
	defer rows.Close()

	records := []model.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows, q.Collection)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", q.Collection, err)
	}

	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner, collection string) (model.Record, error) {
	var (
		rec       model.Record
		data      string
		createdAt string
	)
	if err := row.Scan(&rec.ID, &data, &createdAt); err != nil {
		return model.Record{}, err
	}

	if err := json.Unmarshal([]byte(data), &rec.Values); err != nil {
		return model.Record{}, fmt.Errorf("decode record %s: %w", rec.ID, err)
	}

	t, err := parseTime(createdAt)
	if err != nil {
		return model.Record{}, fmt.Errorf("parse created_at: %w", err)
	}

	rec.Collection = collection
	rec.CreatedAt = t
	return rec, nil
}

// Get returns a record by id, or nil if it does not exist.
func (s *RowStore) Get(ctx context.Context, collection, id string) (*model.Record, error) {
	const query = `SELECT id, data, created_at FROM records WHERE collection = ? AND id = ?`

	rec, err := scanRecord(s.db.Reader.QueryRowContext(ctx, query, collection, id), collection)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return &rec, nil
}

// Insert stores a new record with a generated id and the current time.
func (s *RowStore) Insert(ctx context.Context, collection string, values model.Values) (model.Record, error) {
	const query = `INSERT INTO records (id, collection, data, created_at) VALUES (?, ?, ?, ?)`

	data, err := json.Marshal(values)
	if err != nil {
		return model.Record{}, fmt.Errorf("encode record: %w", err)
	}

	rec := model.Record{
		ID:         uuid.NewString(),
		Collection: collection,
		Values:     values.Clone(),
		CreatedAt:  s.now().UTC(),
	}

	if _, err := s.db.Writer.ExecContext(ctx, query, rec.ID, collection, string(data), formatTime(rec.CreatedAt)); err != nil {
		return model.Record{}, fmt.Errorf("insert into %s: %w", collection, err)
	}

	return rec, nil
}

// Update merges values into the stored record. Keys not present in values
// keep their stored value; keys present with a nil value are stored as null.
func (s *RowStore) Update(ctx context.Context, collection, id string, values model.Values) error {
	tx, err := s.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var data string
	err = tx.QueryRowContext(ctx, `SELECT data FROM records WHERE collection = ? AND id = ?`, collection, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s/%s: %w", collection, id, driven.ErrRecordNotFound)
	}
	if err != nil {
		return fmt.Errorf("load %s/%s: %w", collection, id, err)
	}

	merged := model.Values{}
	if err := json.Unmarshal([]byte(data), &merged); err != nil {
		return fmt.Errorf("decode record %s: %w", id, err)
	}
	for k, v := range values {
		merged[k] = v
	}

	encoded, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE records SET data = ? WHERE collection = ? AND id = ?`, string(encoded), collection, id); err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update: %w", err)
	}
	return nil
}

// Delete removes a record. Returns ErrRecordNotFound if it does not exist.
func (s *RowStore) Delete(ctx context.Context, collection, id string) error {
	const query = `DELETE FROM records WHERE collection = ? AND id = ?`

	result, err := s.db.Writer.ExecContext(ctx, query, collection, id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, driven.ErrRecordNotFound)
	}

	return nil
}

// Count returns the number of records per collection.
func (s *RowStore) Count(ctx context.Context) (map[string]int, error) {
	const query = `SELECT collection, COUNT(*) FROM records GROUP BY collection`

	rows, err := s.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var (
			collection string
			n          int
		)
		if err := rows.Scan(&collection, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[collection] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}

	return counts, nil
}
