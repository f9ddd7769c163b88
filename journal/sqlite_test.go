package journal

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)

	return j, path
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name = 'kv'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "kv", name)
}

func TestSQLiteSetOverwrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	j, path := newTestSQLite(t)

	require.NoError(t, j.Set(ctx, "k", []byte("one")))
	require.NoError(t, j.Set(ctx, "k", []byte("two")))

	ts, found, err := j.UpdatedAt(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)
	assert.NoError(t, j.Close())

	// survives reopening
	again, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = again.Close() })

	v, found, err := again.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "two", string(v))

	_, found, err = again.UpdatedAt(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStores(t *testing.T) {
	t.Parallel()

	stores := map[string]func(t *testing.T) Store{
		"sqlite": func(t *testing.T) Store {
			j, _ := newTestSQLite(t)
			return j
		},
		"file": func(t *testing.T) Store {
			fs, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "dir"))
			require.NoError(t, err)
			return fs
		},
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
	}

	for name, mk := range stores {
		mk := mk
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			st := mk(t)
			defer st.Close()

			_, found, err := st.Get(ctx, SnapshotKey)
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, st.Set(ctx, SnapshotKey, []byte(`{"a":1}`)))
			require.NoError(t, st.Set(ctx, "other/key", []byte(`x`)))

			v, found, err := st.Get(ctx, SnapshotKey)
			require.NoError(t, err)
			assert.True(t, found)
			assert.JSONEq(t, `{"a":1}`, string(v))

			require.NoError(t, st.Delete(ctx, SnapshotKey))
			require.NoError(t, st.Delete(ctx, SnapshotKey))

			_, found, err = st.Get(ctx, SnapshotKey)
			require.NoError(t, err)
			assert.False(t, found)

			v, found, err = st.Get(ctx, "other/key")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, "x", string(v))
		})
	}
}

func TestMemoryStoreClosed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := NewMemoryStore()
	require.NoError(t, st.Set(ctx, "k", []byte("v")))
	require.NoError(t, st.Close())

	_, _, err := st.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, st.Set(ctx, "k", nil), ErrClosed)
}
