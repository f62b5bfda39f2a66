package store

import (
	"context"
	"database/sql"

	"github.com/golang/groupcache/lru"
	"go.uber.org/zap"

	"github.com/roach88/litemap/internal/crudsql"
	"github.com/roach88/litemap/internal/schema"
)

// stmtKey identifies a prepared statement. Raw SQL uses a nil table and
// a zero operation.
type stmtKey struct {
	table *schema.TableMap
	op    crudsql.Operation
	sql   string
}

// stmtCache is an LRU of prepared statements bound to one connection.
// Evicted statements are closed.
type stmtCache struct {
	conn   *sql.Conn
	lru    *lru.Cache
	logger *zap.Logger
}

func newStmtCache(conn *sql.Conn, size int, logger *zap.Logger) *stmtCache {
	c := &stmtCache{conn: conn, lru: lru.New(size), logger: logger}
	c.lru.OnEvicted = func(key lru.Key, value interface{}) {
		if err := value.(*sql.Stmt).Close(); err != nil {
			c.logger.Warn("finalize statement", zap.String("sql", key.(stmtKey).sql), zap.Error(err))
		}
	}
	return c
}

// prepare returns the cached statement for key, preparing it on a miss.
func (c *stmtCache) prepare(ctx context.Context, key stmtKey) (*sql.Stmt, error) {
	if v, ok := c.lru.Get(key); ok {
		return v.(*sql.Stmt), nil
	}
	stmt, err := c.conn.PrepareContext(ctx, key.sql)
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, stmt)
	return stmt, nil
}

// len returns the number of cached statements.
func (c *stmtCache) len() int { return c.lru.Len() }

// clear finalizes every cached statement.
func (c *stmtCache) clear() { c.lru.Clear() }
