package archive

import (
	"context"
	"testing"

	"github.com/chanfade/chanfade/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSRoundTrip(t *testing.T) {
	store, err := NewFS(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := store.Exists(ctx, "sessions/2026-03-02/trades.jsonl")
	require.NoError(t, err)
	assert.False(t, ok)

	data := []byte(`{"direction":"short"}` + "\n")
	require.NoError(t, store.Put(ctx, "sessions/2026-03-02/trades.jsonl", data))

	ok, err = store.Exists(ctx, "sessions/2026-03-02/trades.jsonl")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := store.Get(ctx, "sessions/2026-03-02/trades.jsonl")
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestFSList(t *testing.T) {
	store, err := NewFS(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sessions/2026-03-02/trades.jsonl", []byte("a")))
	require.NoError(t, store.Put(ctx, "sessions/2026-03-02/bars.jsonl", []byte("b")))
	require.NoError(t, store.Put(ctx, "sessions/2026-03-03/trades.jsonl", []byte("c")))

	keys, err := store.List(ctx, "sessions/2026-03-02")
	require.NoError(t, err)
	assert.Len(t, keys, 2)
	for _, k := range keys {
		assert.Contains(t, k, "sessions/2026-03-02/")
	}

	keys, err = store.List(ctx, "sessions/2099-01-01")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestNewSelectsBackend(t *testing.T) {
	store, err := New(config.JournalConfig{Type: "localfs", Path: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FS{}, store)

	store, err = New(config.JournalConfig{Type: "s3", S3: config.S3Config{Bucket: "b", Region: "us-east-1"}})
	require.NoError(t, err)
	assert.IsType(t, &S3{}, store)

	_, err = New(config.JournalConfig{Type: "bogus"})
	assert.Error(t, err)
}
