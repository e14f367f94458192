package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/folio/internal/domain/model"
)

// Sentinel errors returned by RowStore implementations.
var (
	// ErrRecordNotFound indicates the addressed record does not exist.
	ErrRecordNotFound = errors.New("record not found")

	// ErrBackendNotConfigured indicates no remote backend is available.
	ErrBackendNotConfigured = errors.New("backend not configured")
)

// Query selects the records of one collection in a given order.
type Query struct {
	Collection string
	Order      model.Order
}

// RowStore defines the driven port for the generic record backend. Every
// operation targets exactly one named collection.
// Get returns nil, nil when the record does not exist.
// Update and Delete return ErrRecordNotFound when the record does not exist.
type RowStore interface {
	Select(ctx context.Context, q Query) ([]model.Record, error)
	Get(ctx context.Context, collection, id string) (*model.Record, error)
	Insert(ctx context.Context, collection string, values model.Values) (model.Record, error)
	Update(ctx context.Context, collection, id string, values model.Values) error
	Delete(ctx context.Context, collection, id string) error
}
