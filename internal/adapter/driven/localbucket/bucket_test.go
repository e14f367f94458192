package localbucket

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_UploadAndRemove(t *testing.T) {
	root := t.TempDir()
	store, err := New(root, "/media/")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, "media", "abc.png", "image/png", []byte("png")))

	data, err := os.ReadFile(filepath.Join(root, "media", "abc.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
	assert.Equal(t, "/media/media/abc.png", store.PublicURL("media", "abc.png"))

	require.NoError(t, store.Upload(ctx, "media", "abc.png", "image/png", []byte("replaced")))
	data, err = os.ReadFile(filepath.Join(root, "media", "abc.png"))
	require.NoError(t, err)
	assert.Equal(t, "replaced", string(data))

	require.NoError(t, store.Remove(ctx, "media", "abc.png", "missing.png"))
	_, err = os.Stat(filepath.Join(root, "media", "abc.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStore_RejectsEscapingNames(t *testing.T) {
	store, err := New(t.TempDir(), "/media")
	require.NoError(t, err)
	ctx := context.Background()

	for _, name := range []string{"", "..", "../etc/passwd", "a/b.png", `a\b.png`} {
		t.Run(name, func(t *testing.T) {
			err := store.Upload(ctx, "media", name, "", []byte("x"))
			assert.ErrorIs(t, err, ErrInvalidName)
		})
	}

	assert.ErrorIs(t, store.Upload(ctx, "../x", "a.png", "", nil), ErrInvalidName)
	assert.ErrorIs(t, store.Remove(ctx, "media", "../a.png"), ErrInvalidName)
}
