// Package bundle serves the static records compiled into the binary. They
// stand in for remote data whenever the row store cannot be reached.
package bundle

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/ericfisherdev/folio/internal/domain/model"
	"github.com/ericfisherdev/folio/internal/domain/port/driven"
)

//go:embed data/*.json
var dataFS embed.FS

// ErrNoFallback is returned for a collection without bundled data.
var ErrNoFallback = errors.New("no bundled data for collection")

// Source holds the decoded bundled records, keyed by collection.
type Source struct {
	records map[string][]model.Record
}

// Compile-time interface satisfaction check.
var _ driven.FallbackSource = (*Source)(nil)

// New decodes every embedded data file.
func New() (*Source, error) {
	return NewFromFS(dataFS, "data")
}

// NewFromFS decodes every *.json file directly under dir. The file name
// without extension is the collection name; each file holds a JSON array of
// flat objects.
func NewFromFS(fsys fs.FS, dir string) (*Source, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read bundle dir: %w", err)
	}

	s := &Source{records: make(map[string][]model.Record, len(entries))}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".json" {
			continue
		}
		collection := strings.TrimSuffix(e.Name(), ".json")

		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}

		records, err := decode(collection, data)
		if err != nil {
			return nil, err
		}
		s.records[collection] = records
	}

	return s, nil
}

func decode(collection string, data []byte) ([]model.Record, error) {
	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}

	records := make([]model.Record, 0, len(rows))
	for i, row := range rows {
		values := make(model.Values, len(row))
		for k, v := range row {
			// ids in bundled data are never trusted; the synthetic id below replaces them.
			if k == "id" {
				continue
			}
			values[k] = v
		}

		records = append(records, model.Record{
			ID:         model.SyntheticID(collection, i),
			Collection: collection,
			Values:     values,
			Synthetic:  true,
		})
	}
	return records, nil
}

// Fallback returns a copy of the bundled records of collection.
func (s *Source) Fallback(collection string) ([]model.Record, error) {
	records, ok := s.records[collection]
	if !ok {
		return nil, fmt.Errorf("%s: %w", collection, ErrNoFallback)
	}

	out := make([]model.Record, len(records))
	for i, r := range records {
		r.Values = r.Values.Clone()
		out[i] = r
	}
	return out, nil
}

// Collections returns the names of the collections with bundled data.
func (s *Source) Collections() []string {
	names := make([]string, 0, len(s.records))
	for name := range s.records {
		names = append(names, name)
	}
	return names
}
