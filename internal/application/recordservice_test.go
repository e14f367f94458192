package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/folio/internal/domain/model"
	"github.com/ericfisherdev/folio/internal/domain/port/driven"
)

var mediaCollection = model.Collection{
	Name:   "media",
	Label:  "Media",
	Bucket: "media",
	Fields: []model.Field{
		{Name: "title", Label: "Title", Kind: model.FieldText, Required: true},
		{Name: "year", Label: "Year", Kind: model.FieldNumber},
		{Name: "description", Label: "Description", Kind: model.FieldTextarea},
		{Name: "image_url", Label: "Image", Kind: model.FieldImage, Required: true},
	},
}

func newTestRecordService(store driven.RowStore, objects driven.ObjectStore) *RecordService {
	svc := NewRecordService(stubCatalog{"media": mediaCollection}, store, objects, discardLogger())
	svc.newName = func(ext string) string { return "fixed." + ext }
	return svc
}

func TestRecordService_SaveInsertUploadsFile(t *testing.T) {
	store := &mockRowStore{}
	objects := &mockObjectStore{}
	svc := newTestRecordService(store, objects)

	rec, err := svc.Save(context.Background(), "media", "", model.Values{
		"title":       "Interview",
		"year":        "2023",
		"description": "  ",
		"image_url":   &model.File{Name: "Photo.JPG", ContentType: "image/jpeg", Data: []byte("img")},
		"extra":       "dropped",
	})

	require.NoError(t, err)
	assert.Equal(t, "new-id", rec.ID)

	require.Len(t, objects.uploads, 1)
	assert.Equal(t, "media", objects.uploads[0].bucket)
	assert.Equal(t, "fixed.jpg", objects.uploads[0].name)
	assert.Equal(t, "image/jpeg", objects.uploads[0].contentType)

	require.Len(t, store.inserted, 1)
	assert.Equal(t, model.Values{
		"title":       "Interview",
		"year":        2023.0,
		"description": nil,
		"image_url":   "https://cdn.example.test/media/fixed.jpg",
	}, store.inserted[0])
}

func TestRecordService_SaveUpdateKeepsExistingURL(t *testing.T) {
	store := &mockRowStore{}
	objects := &mockObjectStore{}
	svc := newTestRecordService(store, objects)

	_, err := svc.Save(context.Background(), "media", "m1", model.Values{
		"title":     "Interview",
		"year":      "",
		"image_url": "https://cdn.example.test/media/old.png",
	})

	require.NoError(t, err)
	assert.Empty(t, objects.uploads)
	assert.Equal(t, model.Values{
		"title":       "Interview",
		"year":        nil,
		"description": nil,
		"image_url":   "https://cdn.example.test/media/old.png",
	}, store.updated["m1"])
}

func TestRecordService_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown collection", func(t *testing.T) {
		svc := newTestRecordService(&mockRowStore{}, nil)
		_, err := svc.Save(ctx, "nope", "", model.Values{})
		assert.ErrorIs(t, err, ErrUnknownCollection)
	})

	t.Run("synthetic id", func(t *testing.T) {
		svc := newTestRecordService(&mockRowStore{}, nil)
		_, err := svc.Save(ctx, "media", model.SyntheticID("media", 0), model.Values{})
		assert.ErrorIs(t, err, ErrSyntheticRecord)

		err = svc.Delete(ctx, "media", model.Record{ID: "x", Synthetic: true})
		assert.ErrorIs(t, err, ErrSyntheticRecord)
	})

	t.Run("no backend", func(t *testing.T) {
		svc := newTestRecordService(nil, nil)
		_, err := svc.Save(ctx, "media", "", model.Values{})
		assert.ErrorIs(t, err, driven.ErrBackendNotConfigured)
	})

	t.Run("file without object store", func(t *testing.T) {
		svc := newTestRecordService(&mockRowStore{}, nil)
		_, err := svc.Save(ctx, "media", "", model.Values{"image_url": &model.File{Name: "a.png"}})
		assert.ErrorIs(t, err, ErrNoObjectStore)
	})

	t.Run("write failure is wrapped", func(t *testing.T) {
		store := &mockRowStore{writeErr: driven.ErrRecordNotFound}
		svc := newTestRecordService(store, nil)
		_, err := svc.Save(ctx, "media", "gone", model.Values{"title": "x"})
		assert.ErrorIs(t, err, driven.ErrRecordNotFound)
	})
}

func TestRecordService_DeleteRemovesObjects(t *testing.T) {
	store := &mockRowStore{}
	objects := &mockObjectStore{removeErr: errors.New("storage down")}
	svc := newTestRecordService(store, objects)

	err := svc.Delete(context.Background(), "media", model.Record{
		ID:     "m1",
		Values: model.Values{"image_url": "https://cdn.example.test/media/abc.png"},
	})

	require.NoError(t, err, "storage cleanup failure must not fail the delete")
	assert.Equal(t, []string{"m1"}, store.deleted)
	assert.Equal(t, []string{"abc.png"}, objects.removed)
}

func TestRecordService_Get(t *testing.T) {
	store := &mockRowStore{records: []model.Record{{ID: "m1", Values: model.Values{"title": "x"}}}}
	svc := newTestRecordService(store, nil)

	rec, err := svc.Get(context.Background(), "media", "m1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "x", rec.Text("title"))

	rec, err = svc.Get(context.Background(), "media", "missing")
	require.NoError(t, err)
	assert.Nil(t, rec)
}
