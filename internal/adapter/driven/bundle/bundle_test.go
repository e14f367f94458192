package bundle

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/folio/internal/catalog"
	"github.com/ericfisherdev/folio/internal/domain/model"
)

func TestNew_EveryPublicCollectionHasData(t *testing.T) {
	src, err := New()
	require.NoError(t, err)

	cat, err := catalog.Load()
	require.NoError(t, err)

	for _, coll := range cat.Collections() {
		if !coll.Public {
			continue
		}
		records, err := src.Fallback(coll.Name)
		require.NoError(t, err, coll.Name)
		assert.NotEmpty(t, records, coll.Name)
	}
}

func TestFallback_SyntheticIDs(t *testing.T) {
	fsys := fstest.MapFS{
		"data/journals.json": {Data: []byte(`[{"id": 99, "title": "A", "year": 2020}, {"title": "B", "year": null}]`)},
		"data/README.md":     {Data: []byte("ignored")},
	}

	src, err := NewFromFS(fsys, "data")
	require.NoError(t, err)
	assert.Equal(t, []string{"journals"}, src.Collections())

	records, err := src.Fallback("journals")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "fallback:journals:0", records[0].ID)
	assert.True(t, records[0].Synthetic)
	assert.True(t, model.IsSyntheticID(records[1].ID))
	assert.Equal(t, model.Values{"title": "A", "year": 2020.0}, records[0].Values)
	assert.Nil(t, records[1].Values["year"])
}

func TestFallback_ReturnsCopies(t *testing.T) {
	fsys := fstest.MapFS{"data/media.json": {Data: []byte(`[{"title": "A"}]`)}}
	src, err := NewFromFS(fsys, "data")
	require.NoError(t, err)

	first, err := src.Fallback("media")
	require.NoError(t, err)
	first[0].Values["title"] = "changed"

	second, err := src.Fallback("media")
	require.NoError(t, err)
	assert.Equal(t, "A", second[0].Text("title"))
}

func TestFallback_Unknown(t *testing.T) {
	src, err := New()
	require.NoError(t, err)

	_, err = src.Fallback("daily_activities")
	assert.ErrorIs(t, err, ErrNoFallback)
}

func TestNewFromFS_InvalidJSON(t *testing.T) {
	fsys := fstest.MapFS{"data/broken.json": {Data: []byte(`{not json`)}}

	_, err := NewFromFS(fsys, "data")
	assert.ErrorContains(t, err, "decode broken")
}
