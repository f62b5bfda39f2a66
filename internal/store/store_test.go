package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/litemap/internal/dberr"
	"github.com/roach88/litemap/internal/schema"
	"github.com/roach88/litemap/internal/testutil"
)

func openTemp(t *testing.T) *Conn {
	t.Helper()
	c, err := Open(context.Background(), Options{
		Path:            testutil.TempDBPath(t, "test.db"),
		CreateIfMissing: true,
		Registry:        schema.NewRegistry(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	c, err := Open(context.Background(), DefaultOptions(path))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer c.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
	if c.Path() != path {
		t.Errorf("Path() = %q, want %q", c.Path(), path)
	}
}

func TestOpen_MissingFileWithoutCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")

	_, err := Open(context.Background(), Options{Path: path})
	require.Error(t, err)
	assert.True(t, dberr.IsConnectionError(err))

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open(context.Background(), Options{Path: "  "})
	assert.True(t, dberr.IsConnectionError(err))
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open(context.Background(), DefaultOptions("/nonexistent/dir/test.db"))
	require.Error(t, err)
	assert.True(t, dberr.IsConnectionError(err))
}

func TestOpen_Memory(t *testing.T) {
	c, err := Open(context.Background(), Options{Path: ":memory:"})
	require.NoError(t, err)
	defer c.Close()

	n, err := ExecuteScalar[int64](context.Background(), c, "SELECT 1 + 1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestOpen_Pragmas(t *testing.T) {
	c := openTemp(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		expected string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.verifyPragma(ctx, tt.name, tt.expected); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestOpen_ActionsRunInOrder(t *testing.T) {
	ctx := context.Background()
	opts := DefaultOptions(testutil.TempDBPath(t, "actions.db"))
	opts.PreOpenActions = []string{"PRAGMA user_version = 3"}
	opts.EncryptionKey = DeriveKey([]byte("passphrase"), []byte("salt"))
	opts.PostOpenActions = []string{"PRAGMA user_version = 4", "PRAGMA application_id = 42"}

	c, err := Open(ctx, opts)
	require.NoError(t, err)
	defer c.Close()

	version, err := ExecuteScalar[int64](ctx, c, "PRAGMA user_version")
	require.NoError(t, err)
	assert.Equal(t, int64(4), version)

	appID, err := ExecuteScalar[int64](ctx, c, "PRAGMA application_id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), appID)
}

func TestOpen_FailingActionIsConnectionError(t *testing.T) {
	opts := DefaultOptions(testutil.TempDBPath(t, "bad.db"))
	opts.PostOpenActions = []string{"THIS IS NOT SQL"}

	_, err := Open(context.Background(), opts)
	require.Error(t, err)
	assert.True(t, dberr.IsConnectionError(err))
}

func TestOpen_ReadOnlyRejectsWrites(t *testing.T) {
	ctx := context.Background()
	path := testutil.TempDBPath(t, "ro.db")

	opts := DefaultOptions(path)
	opts.JournalMode = "DELETE"
	rw, err := Open(ctx, opts)
	require.NoError(t, err)
	_, err = rw.Execute(ctx, "CREATE TABLE notes (body text)")
	require.NoError(t, err)
	require.NoError(t, rw.Close())

	ro, err := Open(ctx, Options{Path: path, ReadOnly: true})
	require.NoError(t, err)
	defer ro.Close()
	assert.True(t, ro.ReadOnly())

	_, err = ro.Execute(ctx, "INSERT INTO notes (body) VALUES (?)", "x")
	require.Error(t, err)
	assert.True(t, dberr.IsConnectionError(err))

	n, err := ExecuteScalar[int64](ctx, ro, "SELECT COUNT(*) FROM notes")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestClose_Idempotent(t *testing.T) {
	c, err := Open(context.Background(), DefaultOptions(testutil.TempDBPath(t, "close.db")))
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err = c.Execute(context.Background(), "SELECT 1")
	assert.True(t, dberr.IsConnectionError(err))
}

func TestStatementCache_ReusesAndEvicts(t *testing.T) {
	ctx := context.Background()
	opts := DefaultOptions(testutil.TempDBPath(t, "cache.db"))
	opts.StatementCacheSize = 2
	c, err := Open(ctx, opts)
	require.NoError(t, err)
	defer c.Close()

	for i := 0; i < 3; i++ {
		_, err := ExecuteScalar[int64](ctx, c, "SELECT 1")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, c.stmts.len())

	for _, q := range []string{"SELECT 2", "SELECT 3", "SELECT 4"} {
		_, err := ExecuteScalar[int64](ctx, c, q)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.stmts.len())

	v, err := ExecuteScalar[int64](ctx, c, "SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestBusy_SurfacesAfterTimeout(t *testing.T) {
	ctx := context.Background()
	path := testutil.TempDBPath(t, "busy.db")

	a, err := Open(ctx, DefaultOptions(path))
	require.NoError(t, err)
	defer a.Close()
	_, err = a.Execute(ctx, "CREATE TABLE t (v integer)")
	require.NoError(t, err)

	opts := DefaultOptions(path)
	opts.BusyTimeout = 50 * time.Millisecond
	b, err := Open(ctx, opts)
	require.NoError(t, err)
	defer b.Close()

	err = a.RunInTransaction(ctx, func() error {
		if _, err := a.Execute(ctx, "INSERT INTO t (v) VALUES (1)"); err != nil {
			return err
		}
		start := time.Now()
		_, berr := b.Execute(ctx, "INSERT INTO t (v) VALUES (2)")
		assert.True(t, dberr.IsBusyError(berr), "got %v", berr)
		assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

		var e *dberr.Error
		if assert.ErrorAs(t, berr, &e) {
			assert.Equal(t, "INSERT INTO t (v) VALUES (2)", e.SQL)
			assert.Equal(t, 0, e.ParamCount)
		}
		return nil
	})
	require.NoError(t, err)

	n, err := ExecuteScalar[int64](ctx, b, "SELECT COUNT(*) FROM t")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestParseOptions(t *testing.T) {
	opts, err := ParseOptions([]byte(`
path: data/app.db
read_only: true
passphrase: s3cret
salt: pepper
pre_open_actions: ["PRAGMA cache_size = -2000"]
busy_timeout_ms: 1500
statement_cache_size: 16
journal_mode: DELETE
`))
	require.NoError(t, err)

	assert.Equal(t, "data/app.db", opts.Path)
	assert.True(t, opts.ReadOnly)
	assert.True(t, opts.CreateIfMissing)
	assert.Equal(t, DeriveKey([]byte("s3cret"), []byte("pepper")), opts.EncryptionKey)
	assert.Equal(t, []string{"PRAGMA cache_size = -2000"}, opts.PreOpenActions)
	assert.Equal(t, 1500*time.Millisecond, opts.BusyTimeout)
	assert.Equal(t, 16, opts.StatementCacheSize)
	assert.Equal(t, "DELETE", opts.JournalMode)

	opts, err = ParseOptions([]byte("path: x.db\ncreate_if_missing: false\n"))
	require.NoError(t, err)
	assert.False(t, opts.CreateIfMissing)
	assert.Nil(t, opts.EncryptionKey)

	_, err = ParseOptions([]byte("path: [unterminated"))
	assert.Error(t, err)
}

func TestDeriveKey(t *testing.T) {
	k1 := DeriveKey([]byte("pw"), []byte("salt-a"))
	k2 := DeriveKey([]byte("pw"), []byte("salt-a"))
	k3 := DeriveKey([]byte("pw"), []byte("salt-b"))

	assert.Len(t, k1, 32)
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.Equal(t, `PRAGMA key = "x'0aff'"`, keyPragma([]byte{0x0a, 0xff}))
}

func TestDataSourceName(t *testing.T) {
	assert.Equal(t, "file:/tmp/a.db?mode=rwc", dataSourceName(Options{Path: "/tmp/a.db", CreateIfMissing: true}))
	assert.Equal(t, "file:/tmp/a.db?mode=rw", dataSourceName(Options{Path: "/tmp/a.db"}))
	assert.Equal(t, "file:/tmp/a.db?mode=ro", dataSourceName(Options{Path: "/tmp/a.db", ReadOnly: true, CreateIfMissing: true}))
	assert.Equal(t, "file:/tmp/a%3fb%23c%25.db?mode=rw", dataSourceName(Options{Path: "/tmp/a?b#c%.db"}))
	assert.Equal(t, "file::memory:?mode=memory", dataSourceName(Options{Path: ":memory:"}))
}
