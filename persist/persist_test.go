package persist

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typhoon/typhoon-go"
)

type todo struct {
	Title string `json:"title" yaml:"title"`
	Done  bool   `json:"done" yaml:"done"`
}

func backends(t *testing.T) map[string]Backend {
	t.Helper()

	dir, err := NewDir(filepath.Join(t.TempDir(), "values"))
	require.NoError(t, err)
	db, err := NewBolt(filepath.Join(t.TempDir(), "values.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return map[string]Backend{
		"memory": NewMemory(),
		"dir":    dir,
		"bolt":   db,
	}
}

func TestBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := b.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, b.Put(ctx, "b/key", []byte("2")))
			require.NoError(t, b.Put(ctx, "a", []byte("1")))
			require.NoError(t, b.Put(ctx, "a", []byte("one")))

			data, err := b.Get(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, []byte("one"), data)

			keys, err := b.Keys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b/key"}, keys)

			require.NoError(t, b.Delete(ctx, "a"))
			require.NoError(t, b.Delete(ctx, "a"))
			_, err = b.Get(ctx, "a")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestDirKeysWithLeadingDots(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	d, err := NewDir(filepath.Join(root, "values"))
	require.NoError(t, err)

	for _, key := range []string{".hidden", "..", ".tmp-x"} {
		require.NoError(t, d.Put(ctx, key, []byte(key)))
		data, err := d.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, key, string(data))
	}

	keys, err := d.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"..", ".hidden", ".tmp-x"}, keys)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1, "a key escaped the store directory")
}

func TestDirRemovesTempFileWhenRenameFails(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "values")
	d, err := NewDir(path)
	require.NoError(t, err)

	// A non-empty directory where the value file should go blocks the rename.
	require.NoError(t, os.MkdirAll(filepath.Join(path, "x", "inner"), 0o755))
	assert.Error(t, d.Put(ctx, "x", []byte("1")))

	entries, err := os.ReadDir(path)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), tempPrefix), "left behind %s", e.Name())
	}
}

func TestNewUsesDefaultForEmptyKey(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			cell := New(ctx, b, "todos", []todo{{Title: "first"}})
			assert.Equal(t, []todo{{Title: "first"}}, cell.Get())

			_, err := b.Get(ctx, "todos")
			assert.ErrorIs(t, err, ErrNotFound, "construction alone must not write")

			cell.Set([]todo{{Title: "first", Done: true}, {Title: "second"}})

			data, err := b.Get(ctx, "todos")
			require.NoError(t, err)
			assert.JSONEq(t, `[{"title":"first","done":true},{"title":"second","done":false}]`, string(data))

			reopened := New(ctx, b, "todos", []todo(nil))
			assert.Equal(t, cell.Get(), reopened.Get())
		})
	}
}

func TestYAMLCodec(t *testing.T) {
	ctx := context.Background()
	b := NewMemory()

	cell := New(ctx, b, "count", 0, WithCodec(YAML))
	cell.Set(7)

	data, err := b.Get(ctx, "count")
	require.NoError(t, err)
	assert.Equal(t, "7\n", string(data))

	assert.Equal(t, 7, New(ctx, b, "count", 0, WithCodec(YAML)).Get())
	assert.Equal(t, YAML, CodecByName("yml"))
	assert.Equal(t, JSON, CodecByName(""))
	assert.Nil(t, CodecByName("xml"))
}

func TestCorruptValueFallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	b := NewMemory()
	require.NoError(t, b.Put(ctx, "count", []byte("{not json")))

	var buf bytes.Buffer
	cell := New(ctx, b, "count", 5, WithLogger(log.New(&buf, "", 0)))

	assert.Equal(t, 5, cell.Get())
	assert.Contains(t, buf.String(), `serialization decode "count"`)

	cell.Set(6)
	data, err := b.Get(ctx, "count")
	require.NoError(t, err)
	assert.Equal(t, "6", string(data))
}

type failingBackend struct {
	*Memory
}

func (failingBackend) Put(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestWriteFailureIsSwallowed(t *testing.T) {
	var buf bytes.Buffer
	cell := New(context.Background(), failingBackend{NewMemory()}, "k", "a", WithLogger(log.New(&buf, "", 0)))

	notified := false
	cell.Subscribe(func() { notified = true })
	cell.Set("b")

	assert.Equal(t, "b", cell.Get())
	assert.True(t, notified)
	assert.Contains(t, buf.String(), "disk full")
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	b := NewMemory()
	require.NoError(t, b.Put(ctx, "bad", []byte("[")))

	_, err := Load[int](ctx, b, JSON, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Load[int](ctx, b, JSON, "bad")
	var serr *typhoon.SerializationError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "decode", serr.Op)
}

func TestRedisKeyPrefix(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	r := NewRedis(client, "typhoon:")
	defer r.Close()

	assert.Equal(t, "typhoon:todos", r.Key("todos"))
}

func TestRedisUnreachableFallsBackToDefault(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	r := NewRedis(client, "typhoon:")
	defer r.Close()

	var buf bytes.Buffer
	cell := New(context.Background(), r, "count", 3, WithLogger(log.New(&buf, "", 0)))
	assert.Equal(t, 3, cell.Get())
	assert.Contains(t, buf.String(), `serialization load "count"`)
}
