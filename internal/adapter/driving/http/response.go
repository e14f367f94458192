package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/folio/internal/application"
	"github.com/ericfisherdev/folio/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
	Time    string `json:"time"`
}

// CollectionResponse describes one public collection.
type CollectionResponse struct {
	Name     string           `json:"name"`
	Label    string           `json:"label"`
	Singular string           `json:"singular"`
	Order    OrderResponse    `json:"order"`
	Columns  []ColumnResponse `json:"columns"`
}

// OrderResponse is the default ordering of a collection.
type OrderResponse struct {
	Key       string `json:"key"`
	Direction string `json:"direction"`
	NullsLast bool   `json:"nulls_last,omitempty"`
}

// ColumnResponse is one display column of a collection.
type ColumnResponse struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Format string `json:"format"`
}

// RecordResponse is the JSON representation of a record.
type RecordResponse struct {
	ID        string         `json:"id"`
	CreatedAt string         `json:"created_at,omitempty"`
	Synthetic bool           `json:"synthetic,omitempty"`
	Values    map[string]any `json:"values"`
}

// RecordListResponse is the body of the record listing endpoint. Source is
// "remote" or "fallback".
type RecordListResponse struct {
	Collection string           `json:"collection"`
	Source     string           `json:"source"`
	Records    []RecordResponse `json:"records"`
}

// toCollectionResponse converts a catalog collection to its JSON representation.
func toCollectionResponse(c model.Collection) CollectionResponse {
	order := c.Order.Normalize()

	columns := make([]ColumnResponse, 0, len(c.Columns))
	for _, col := range c.Columns {
		columns = append(columns, ColumnResponse{
			Key:    col.Key,
			Label:  col.Label,
			Format: string(col.Format),
		})
	}

	return CollectionResponse{
		Name:     c.Name,
		Label:    c.Label,
		Singular: c.Singular,
		Order: OrderResponse{
			Key:       order.Key,
			Direction: string(order.Direction),
			NullsLast: order.NullsLast,
		},
		Columns: columns,
	}
}

// toRecordResponse converts a domain Record to its JSON representation.
func toRecordResponse(r model.Record) RecordResponse {
	values := r.Values.Clone()

	resp := RecordResponse{
		ID:        r.ID,
		Synthetic: r.Synthetic,
		Values:    values,
	}
	if !r.CreatedAt.IsZero() {
		resp.CreatedAt = r.CreatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// toRecordListResponse converts a load result to its JSON representation.
func toRecordListResponse(collection string, result application.LoadResult) RecordListResponse {
	records := make([]RecordResponse, 0, len(result.Records))
	for _, r := range result.Records {
		records = append(records, toRecordResponse(r))
	}

	return RecordListResponse{
		Collection: collection,
		Source:     string(result.Source),
		Records:    records,
	}
}
