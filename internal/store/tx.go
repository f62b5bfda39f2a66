package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// RunInTransaction runs fn inside a transaction on c. The transaction
// commits when fn returns nil and rolls back when fn fails or panics.
// Nested calls use savepoints, so an inner failure only undoes the inner
// work.
func (c *Conn) RunInTransaction(ctx context.Context, fn func() error) (err error) {
	if err := c.checkOpen(); err != nil {
		return err
	}

	depth := c.txDepth
	begin, commit, rollback := "BEGIN IMMEDIATE", "COMMIT", "ROLLBACK"
	if depth > 0 {
		sp := fmt.Sprintf("litemap_sp%d", depth)
		begin = "SAVEPOINT " + sp
		commit = "RELEASE " + sp
		rollback = "ROLLBACK TO " + sp + "; RELEASE " + sp
	}

	if err := c.control(ctx, begin); err != nil {
		return err
	}
	c.txDepth++

	defer func() {
		c.txDepth--
		if p := recover(); p != nil {
			c.undo(ctx, rollback)
			panic(p)
		}
		if err != nil {
			c.undo(ctx, rollback)
			return
		}
		if err = c.control(ctx, commit); err != nil {
			c.undo(ctx, rollback)
		}
	}()

	return fn()
}

// control runs a transaction control statement outside the cache.
func (c *Conn) control(ctx context.Context, stmt string) error {
	return c.retry(ctx, stmt, 0, func() error {
		_, err := c.conn.ExecContext(ctx, stmt)
		return err
	})
}

func (c *Conn) undo(ctx context.Context, stmt string) {
	if err := c.control(ctx, stmt); err != nil {
		c.logger.Warn("rollback failed", zap.String("sql", stmt), zap.Error(err))
	}
}
