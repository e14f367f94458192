package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/ericfisherdev/folio/internal/domain/model"
	"github.com/ericfisherdev/folio/internal/domain/port/driven"
)

var (
	// ErrUnknownCollection is returned for a collection name the catalog does not define.
	ErrUnknownCollection = errors.New("unknown collection")

	// ErrSyntheticRecord is returned when a write targets a record built from
	// bundled fallback data.
	ErrSyntheticRecord = errors.New("bundled fallback records cannot be modified")

	// ErrNoObjectStore is returned when a form carries a file but no object
	// store is configured.
	ErrNoObjectStore = errors.New("object storage not configured")
)

// CollectionCatalog resolves collection definitions by name.
type CollectionCatalog interface {
	Collection(name string) (model.Collection, bool)
}

// RecordService performs the admin writes for catalog collections: creating
// and updating records from form values, uploading pending image files, and
// deleting records together with their uploaded objects.
type RecordService struct {
	catalog CollectionCatalog
	store   driven.RowStore
	objects driven.ObjectStore
	logger  *slog.Logger
	newName func(ext string) string
}

// NewRecordService creates a RecordService. objects may be nil when no
// collection has image fields.
func NewRecordService(catalog CollectionCatalog, store driven.RowStore, objects driven.ObjectStore, logger *slog.Logger) *RecordService {
	return &RecordService{
		catalog: catalog,
		store:   store,
		objects: objects,
		logger:  logger,
		newName: func(ext string) string {
			return uuid.NewString() + "." + ext
		},
	}
}

func (s *RecordService) collection(name string) (model.Collection, error) {
	coll, ok := s.catalog.Collection(name)
	if !ok {
		return model.Collection{}, fmt.Errorf("collection %q: %w", name, ErrUnknownCollection)
	}
	return coll, nil
}

func (s *RecordService) rowStore() (driven.RowStore, error) {
	if s.store == nil {
		return nil, driven.ErrBackendNotConfigured
	}
	return s.store, nil
}

// Get returns the stored record used as an edit snapshot, or nil when it does
// not exist.
func (s *RecordService) Get(ctx context.Context, collection, id string) (*model.Record, error) {
	if _, err := s.collection(collection); err != nil {
		return nil, err
	}
	if model.IsSyntheticID(id) {
		return nil, ErrSyntheticRecord
	}

	store, err := s.rowStore()
	if err != nil {
		return nil, err
	}

	rec, err := store.Get(ctx, collection, id)
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return rec, nil
}

// Save writes form values to the collection. An empty id inserts a new record;
// otherwise the record with that id is updated (last write wins). Pending
// image files are uploaded first and replaced by their public URLs.
func (s *RecordService) Save(ctx context.Context, collection, id string, values model.Values) (model.Record, error) {
	coll, err := s.collection(collection)
	if err != nil {
		return model.Record{}, err
	}
	if model.IsSyntheticID(id) {
		return model.Record{}, ErrSyntheticRecord
	}

	store, err := s.rowStore()
	if err != nil {
		return model.Record{}, err
	}

	payload, err := s.payload(ctx, coll, values)
	if err != nil {
		return model.Record{}, err
	}

	if id == "" {
		rec, err := store.Insert(ctx, collection, payload)
		if err != nil {
			return model.Record{}, fmt.Errorf("insert into %s: %w", collection, err)
		}
		s.logger.Info("record created", "collection", collection, "id", rec.ID)
		return rec, nil
	}

	if err := store.Update(ctx, collection, id, payload); err != nil {
		return model.Record{}, fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	s.logger.Info("record updated", "collection", collection, "id", id)

	return model.Record{ID: id, Collection: collection, Values: payload}, nil
}

// payload maps form values onto the stored shape: only catalog fields are
// kept, numbers are parsed, empty optional long text becomes null, and files
// are uploaded.
func (s *RecordService) payload(ctx context.Context, coll model.Collection, values model.Values) (model.Values, error) {
	out := make(model.Values, len(coll.Fields))

	for _, field := range coll.Fields {
		val, present := values[field.Name]

		switch field.Kind {
		case model.FieldImage:
			if file, ok := val.(*model.File); ok && file != nil {
				url, err := s.upload(ctx, coll, file)
				if err != nil {
					return nil, err
				}
				out[field.Name] = url
				continue
			}
			if present {
				out[field.Name] = val
			}

		case model.FieldNumber:
			out[field.Name] = numberOrNil(val)

		case model.FieldTextarea:
			if isEmpty(val) {
				out[field.Name] = nil
				continue
			}
			out[field.Name] = val

		default:
			if present {
				out[field.Name] = val
			}
		}
	}

	return out, nil
}

func numberOrNil(val any) any {
	switch v := val.(type) {
	case float64, int, int64:
		return v
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return nil
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		return v
	}
	return nil
}

func (s *RecordService) upload(ctx context.Context, coll model.Collection, file *model.File) (string, error) {
	if s.objects == nil {
		return "", ErrNoObjectStore
	}

	name := s.newName(file.Ext())
	if err := s.objects.Upload(ctx, coll.Bucket, name, file.ContentType, file.Data); err != nil {
		return "", fmt.Errorf("upload %s to %s: %w", file.Name, coll.Bucket, err)
	}

	url := s.objects.PublicURL(coll.Bucket, name)
	s.logger.Info("image uploaded", "collection", coll.Name, "bucket", coll.Bucket, "object", name)
	return url, nil
}

// Delete removes a record and then, best effort, the uploaded objects its
// image fields point to. Object cleanup failures are logged, not returned.
func (s *RecordService) Delete(ctx context.Context, collection string, rec model.Record) error {
	coll, err := s.collection(collection)
	if err != nil {
		return err
	}
	if rec.Synthetic || model.IsSyntheticID(rec.ID) {
		return ErrSyntheticRecord
	}

	store, err := s.rowStore()
	if err != nil {
		return err
	}

	if err := store.Delete(ctx, collection, rec.ID); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, rec.ID, err)
	}
	s.logger.Info("record deleted", "collection", collection, "id", rec.ID)

	s.removeObjects(ctx, coll, rec)
	return nil
}

func (s *RecordService) removeObjects(ctx context.Context, coll model.Collection, rec model.Record) {
	if s.objects == nil || coll.Bucket == "" {
		return
	}

	var names []string
	for _, field := range coll.ImageFields() {
		url := rec.Text(field.Name)
		if url == "" {
			continue
		}
		if name := path.Base(url); name != "" && name != "." && name != "/" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return
	}

	if err := s.objects.Remove(ctx, coll.Bucket, names...); err != nil {
		s.logger.Warn("storage cleanup failed",
			"collection", coll.Name,
			"bucket", coll.Bucket,
			"objects", names,
			"error", err,
		)
	}
}
