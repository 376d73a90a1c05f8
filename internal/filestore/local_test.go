package filestore

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStoreSaveOpenRoundtrip(t *testing.T) {
	dir := t.TempDir()
	store, err := New("local", map[string]interface{}{"dir": dir})
	require.NoError(t, err)

	data := []byte("stored bytes")
	key := "ingest/b1/source.pdf"
	require.NoError(t, store.Save(context.Background(), key, bytes.NewReader(data), int64(len(data))))

	rc, err := store.Open(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestLocalStoreURL(t *testing.T) {
	store, err := New("local", map[string]interface{}{
		"dir":        t.TempDir(),
		"public_url": "https://cdn.example.com/",
	})
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/ingest/b1/source.pdf", store.URL("ingest/b1/source.pdf"))

	bare, err := New("local", map[string]interface{}{"dir": t.TempDir()})
	require.NoError(t, err)
	require.Equal(t, "/api/v1/files/a/b.txt", bare.URL("a/b.txt"))
}

func TestCleanKeyRejectsTraversal(t *testing.T) {
	for _, key := range []string{"", "../etc/passwd", "a/../b", "a//b", "a\\b"} {
		_, err := cleanKey(key)
		require.Error(t, err, "key=%s", key)
	}
	cleaned, err := cleanKey("/ingest/b1/source.pdf")
	require.NoError(t, err)
	require.Equal(t, "ingest/b1/source.pdf", cleaned)
}

func TestNewUnknownStore(t *testing.T) {
	_, err := New("nope", nil)
	require.Error(t, err)
	_, err = New("", nil)
	require.Error(t, err)
}
