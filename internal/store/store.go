package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/litemap/internal/dberr"
	"github.com/roach88/litemap/internal/schema"
)

// Conn is a synchronous connection to one database file.
//
// A Conn is not safe for concurrent use.
type Conn struct {
	path     string
	opts     Options
	db       *sql.DB
	conn     *sql.Conn
	stmts    *stmtCache
	registry *schema.Registry
	logger   *zap.Logger
	txDepth  int
	closed   bool
}

// Open opens the database described by opts and pins one native
// connection to it. Every failure is a connection error and leaves nothing
// open.
func Open(ctx context.Context, opts Options) (*Conn, error) {
	opts = opts.withDefaults()
	if strings.TrimSpace(opts.Path) == "" {
		return nil, dberr.NewConnectionError("empty database path", nil)
	}
	if !isMemory(opts.Path) && (opts.ReadOnly || !opts.CreateIfMissing) {
		if _, err := os.Stat(opts.Path); err != nil {
			return nil, dberr.NewConnectionError(fmt.Sprintf("open %s: database does not exist", opts.Path), err)
		}
	}

	db, err := sql.Open(driverName, dataSourceName(opts))
	if err != nil {
		return nil, dberr.NewConnectionError("open "+opts.Path, err)
	}

	// One pinned connection: session state (transactions, pragmas, the key)
	// must not move between native handles.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, dberr.NewConnectionError("open "+opts.Path, err)
	}

	c := &Conn{
		path:     opts.Path,
		opts:     opts,
		db:       db,
		conn:     conn,
		registry: opts.Registry,
		logger:   opts.Logger.With(zap.String("db", opts.Path)),
	}
	c.stmts = newStmtCache(conn, opts.StatementCacheSize, c.logger)

	if err := c.initialize(ctx); err != nil {
		conn.Close()
		db.Close()
		return nil, dberr.NewConnectionError("open "+opts.Path, err)
	}

	c.logger.Debug("database opened",
		zap.String("driver", driverType),
		zap.Bool("read_only", opts.ReadOnly))
	return c, nil
}

// initialize runs the open-time statements in their required order.
func (c *Conn) initialize(ctx context.Context) error {
	for _, stmt := range c.opts.PreOpenActions {
		if _, err := c.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("pre-open action %q: %w", stmt, err)
		}
	}
	if len(c.opts.EncryptionKey) > 0 {
		if _, err := c.conn.ExecContext(ctx, keyPragma(c.opts.EncryptionKey)); err != nil {
			return fmt.Errorf("apply key: %w", err)
		}
	}
	for _, stmt := range c.opts.PostOpenActions {
		if _, err := c.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("post-open action %q: %w", stmt, err)
		}
	}
	return c.applyPragmas(ctx)
}

// applyPragmas sets connection configuration.
func (c *Conn) applyPragmas(ctx context.Context) error {
	pragmas := []string{
		"PRAGMA busy_timeout = " + strconv.FormatInt(c.opts.BusyTimeout.Milliseconds(), 10),
	}
	if !c.opts.ReadOnly {
		pragmas = append(pragmas,
			"PRAGMA journal_mode = "+c.opts.JournalMode,
			"PRAGMA synchronous = NORMAL",
		)
	}
	pragmas = append(pragmas, "PRAGMA foreign_keys = ON")

	for _, pragma := range pragmas {
		if _, err := c.conn.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// dataSourceName builds a SQLite URI filename understood by both drivers.
func dataSourceName(opts Options) string {
	mode := "rw"
	switch {
	case opts.ReadOnly:
		mode = "ro"
	case opts.CreateIfMissing:
		mode = "rwc"
	}
	if isMemory(opts.Path) {
		return "file::memory:?mode=memory"
	}
	return "file:" + uriEscaper.Replace(opts.Path) + "?mode=" + mode
}

var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

func isMemory(path string) bool {
	return path == ":memory:"
}

// Path returns the path the connection was opened with.
func (c *Conn) Path() string { return c.path }

// ReadOnly reports whether the connection rejects writes.
func (c *Conn) ReadOnly() bool { return c.opts.ReadOnly }

// Registry returns the mapping registry used by typed operations.
func (c *Conn) Registry() *schema.Registry { return c.registry }

// Close finalizes cached statements and releases the connection.
// Closing twice is a no-op.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.stmts.clear()

	var errs []error
	if err := c.conn.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := c.db.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return dberr.NewConnectionError("close "+c.path, err)
	}
	c.logger.Debug("database closed")
	return nil
}

func (c *Conn) checkOpen() error {
	if c.closed {
		return dberr.NewConnectionError("connection to "+c.path+" is closed", nil)
	}
	return nil
}

// Backoff bounds for busy retries.
const (
	minBackoff = 2 * time.Millisecond
	maxBackoff = 100 * time.Millisecond
)

// retry runs op until it succeeds, fails with a non-busy error, or the
// busy timeout elapses. The returned error is wrapped with sqlText.
func (c *Conn) retry(ctx context.Context, sqlText string, nparams int, op func() error) error {
	deadline := time.Now().Add(c.opts.BusyTimeout)
	backoff := minBackoff
	for {
		err := op()
		if err == nil {
			return nil
		}
		wrapped := dberr.WrapExec(sqlText, nparams, err)
		if !dberr.IsBusyError(wrapped) || time.Now().After(deadline) {
			if dberr.IsBusyError(wrapped) {
				c.logger.Warn("database busy, giving up", zap.String("sql", sqlText))
			}
			return wrapped
		}

		c.logger.Debug("database busy, retrying",
			zap.String("sql", sqlText),
			zap.Duration("backoff", backoff))
		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return wrapped
		case <-t.C:
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

// exec runs a statement through the cache.
func (c *Conn) exec(ctx context.Context, key stmtKey, params []any) (sql.Result, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	c.logger.Debug("exec", zap.String("sql", key.sql), zap.Int("params", len(params)))

	var res sql.Result
	err := c.retry(ctx, key.sql, len(params), func() error {
		stmt, err := c.stmts.prepare(ctx, key)
		if err != nil {
			return err
		}
		res, err = stmt.ExecContext(ctx, params...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// query runs a statement through the cache and hands the rows to scan.
// scan may run more than once when the statement is retried, so it must
// replace rather than accumulate its results.
func (c *Conn) query(ctx context.Context, key stmtKey, params []any, scan func(*sql.Rows) error) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	c.logger.Debug("query", zap.String("sql", key.sql), zap.Int("params", len(params)))

	return c.retry(ctx, key.sql, len(params), func() error {
		stmt, err := c.stmts.prepare(ctx, key)
		if err != nil {
			return err
		}
		rows, err := stmt.QueryContext(ctx, params...)
		if err != nil {
			return err
		}
		defer rows.Close()
		if err := scan(rows); err != nil {
			return err
		}
		return rows.Err()
	})
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (c *Conn) verifyPragma(ctx context.Context, name, expected string) error {
	var value string
	if err := c.conn.QueryRowContext(ctx, "PRAGMA "+name).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if !strings.EqualFold(value, expected) {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
