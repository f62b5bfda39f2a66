package engine

import (
	"context"

	"github.com/roach88/litemap/internal/queryir"
	"github.com/roach88/litemap/internal/schema"
	"github.com/roach88/litemap/internal/store"
)

// The adapters below submit the matching store operation and nothing
// else. Entity pointers passed to them belong to the job until its handle
// resolves: InsertAsync writes a generated key back into v.

// CreateTableAsync submits store.CreateTable.
func CreateTableAsync[T schema.Entity[T]](ctx context.Context, c *Conn) *Handle[store.CreateResult] {
	return Submit(ctx, c, func(ctx context.Context, sc *store.Conn) (store.CreateResult, error) {
		return store.CreateTable[T](ctx, sc)
	})
}

// CreateTableMapAsync submits store.Conn.CreateTableMap.
func CreateTableMapAsync(ctx context.Context, c *Conn, tm *schema.TableMap) *Handle[store.CreateResult] {
	return Submit(ctx, c, func(ctx context.Context, sc *store.Conn) (store.CreateResult, error) {
		return sc.CreateTableMap(ctx, tm)
	})
}

// InsertAsync submits store.Insert.
func InsertAsync[T schema.Entity[T]](ctx context.Context, c *Conn, v *T) *Handle[int64] {
	return Submit(ctx, c, func(ctx context.Context, sc *store.Conn) (int64, error) {
		return store.Insert(ctx, sc, v)
	})
}

// InsertOrReplaceAsync submits store.InsertOrReplace.
func InsertOrReplaceAsync[T schema.Entity[T]](ctx context.Context, c *Conn, v *T) *Handle[int64] {
	return Submit(ctx, c, func(ctx context.Context, sc *store.Conn) (int64, error) {
		return store.InsertOrReplace(ctx, sc, v)
	})
}

// UpdateAsync submits store.Update.
func UpdateAsync[T schema.Entity[T]](ctx context.Context, c *Conn, v *T) *Handle[int64] {
	return Submit(ctx, c, func(ctx context.Context, sc *store.Conn) (int64, error) {
		return store.Update(ctx, sc, v)
	})
}

// DeleteAsync submits store.Delete.
func DeleteAsync[T schema.Entity[T]](ctx context.Context, c *Conn, v *T) *Handle[int64] {
	return Submit(ctx, c, func(ctx context.Context, sc *store.Conn) (int64, error) {
		return store.Delete(ctx, sc, v)
	})
}

// DeleteAllAsync submits store.DeleteAll.
func DeleteAllAsync[T schema.Entity[T]](ctx context.Context, c *Conn) *Handle[int64] {
	return Submit(ctx, c, func(ctx context.Context, sc *store.Conn) (int64, error) {
		return store.DeleteAll[T](ctx, sc)
	})
}

// DeleteWhereAsync submits store.DeleteWhere.
func DeleteWhereAsync[T schema.Entity[T]](ctx context.Context, c *Conn, pred queryir.Expr) *Handle[int64] {
	return Submit(ctx, c, func(ctx context.Context, sc *store.Conn) (int64, error) {
		return store.DeleteWhere[T](ctx, sc, pred)
	})
}

// GetAsync submits store.Get.
func GetAsync[T schema.Entity[T]](ctx context.Context, c *Conn, key any) *Handle[*T] {
	return Submit(ctx, c, func(ctx context.Context, sc *store.Conn) (*T, error) {
		return store.Get[T](ctx, sc, key)
	})
}

// FindAsync submits store.Find.
func FindAsync[T schema.Entity[T]](ctx context.Context, c *Conn, key any) *Handle[*T] {
	return Submit(ctx, c, func(ctx context.Context, sc *store.Conn) (*T, error) {
		return store.Find[T](ctx, sc, key)
	})
}

// ExecuteAsync submits store.Conn.Execute.
func ExecuteAsync(ctx context.Context, c *Conn, sqlText string, params ...any) *Handle[int64] {
	return Submit(ctx, c, func(ctx context.Context, sc *store.Conn) (int64, error) {
		return sc.Execute(ctx, sqlText, params...)
	})
}

// ExecuteScalarAsync submits store.ExecuteScalar.
func ExecuteScalarAsync[V any](ctx context.Context, c *Conn, sqlText string, params ...any) *Handle[V] {
	return Submit(ctx, c, func(ctx context.Context, sc *store.Conn) (V, error) {
		return store.ExecuteScalar[V](ctx, sc, sqlText, params...)
	})
}

// QueryAsync submits store.QueryRaw.
func QueryAsync[T schema.Entity[T]](ctx context.Context, c *Conn, sqlText string, params ...any) *Handle[[]T] {
	return Submit(ctx, c, func(ctx context.Context, sc *store.Conn) ([]T, error) {
		return store.QueryRaw[T](ctx, sc, sqlText, params...)
	})
}

// QueryMapsAsync submits store.Conn.QueryMaps.
func QueryMapsAsync(ctx context.Context, c *Conn, sqlText string, params ...any) *Handle[[]map[string]any] {
	return Submit(ctx, c, func(ctx context.Context, sc *store.Conn) ([]map[string]any, error) {
		return sc.QueryMaps(ctx, sqlText, params...)
	})
}

// QueryRowsAsync submits store.Conn.QueryRows.
func QueryRowsAsync(ctx context.Context, c *Conn, sqlText string, params ...any) *Handle[*store.Rows] {
	return Submit(ctx, c, func(ctx context.Context, sc *store.Conn) (*store.Rows, error) {
		return sc.QueryRows(ctx, sqlText, params...)
	})
}

// TablesAsync submits store.Conn.Tables.
func TablesAsync(ctx context.Context, c *Conn) *Handle[[]string] {
	return Submit(ctx, c, func(ctx context.Context, sc *store.Conn) ([]string, error) {
		return sc.Tables(ctx)
	})
}

// RunInTransactionAsync runs fn inside a transaction as one job. fn
// receives the path's connection and must use only the blocking store
// operations on it; submitting to the same path from fn would deadlock
// the wait.
func RunInTransactionAsync(ctx context.Context, c *Conn, fn func(context.Context, *store.Conn) error) *Handle[struct{}] {
	return Submit(ctx, c, func(ctx context.Context, sc *store.Conn) (struct{}, error) {
		return struct{}{}, sc.RunInTransaction(ctx, func() error { return fn(ctx, sc) })
	})
}

// AsyncQuery is a query over T's table whose terminals run as jobs.
// Builder methods return a new AsyncQuery and never touch the database.
type AsyncQuery[T schema.Entity[T]] struct {
	conn *Conn
	desc queryir.Descriptor
}

// TableAsync starts an asynchronous query over T's table.
func TableAsync[T schema.Entity[T]](c *Conn) *AsyncQuery[T] {
	return &AsyncQuery[T]{conn: c}
}

func (q *AsyncQuery[T]) with(d queryir.Descriptor) *AsyncQuery[T] {
	return &AsyncQuery[T]{conn: q.conn, desc: d}
}

// Where adds a filter; successive filters are AND-ed.
func (q *AsyncQuery[T]) Where(pred queryir.Expr) *AsyncQuery[T] { return q.with(q.desc.Where(pred)) }

// OrderBy adds an ascending ordering.
func (q *AsyncQuery[T]) OrderBy(member string) *AsyncQuery[T] { return q.with(q.desc.OrderBy(member)) }

// OrderByDesc adds a descending ordering.
func (q *AsyncQuery[T]) OrderByDesc(member string) *AsyncQuery[T] {
	return q.with(q.desc.OrderByDesc(member))
}

// Skip skips n rows.
func (q *AsyncQuery[T]) Skip(n int) *AsyncQuery[T] { return q.with(q.desc.Skip(n)) }

// Take limits the result to n rows.
func (q *AsyncQuery[T]) Take(n int) *AsyncQuery[T] { return q.with(q.desc.Take(n)) }

// Bind supplies a captured variable referenced by queryir.Param.
func (q *AsyncQuery[T]) Bind(name string, value any) *AsyncQuery[T] {
	return q.with(q.desc.Bind(name, value))
}

// Descriptor returns the underlying query descriptor.
func (q *AsyncQuery[T]) Descriptor() queryir.Descriptor { return q.desc }

// ToListAsync submits Query.ToList.
func (q *AsyncQuery[T]) ToListAsync(ctx context.Context) *Handle[[]T] {
	return Submit(ctx, q.conn, func(ctx context.Context, sc *store.Conn) ([]T, error) {
		return store.TableWith[T](sc, q.desc).ToList(ctx)
	})
}

// FirstAsync submits Query.First.
func (q *AsyncQuery[T]) FirstAsync(ctx context.Context) *Handle[*T] {
	return Submit(ctx, q.conn, func(ctx context.Context, sc *store.Conn) (*T, error) {
		return store.TableWith[T](sc, q.desc).First(ctx)
	})
}

// FirstOrDefaultAsync submits Query.FirstOrDefault.
func (q *AsyncQuery[T]) FirstOrDefaultAsync(ctx context.Context) *Handle[*T] {
	return Submit(ctx, q.conn, func(ctx context.Context, sc *store.Conn) (*T, error) {
		return store.TableWith[T](sc, q.desc).FirstOrDefault(ctx)
	})
}

// CountAsync submits Query.Count.
func (q *AsyncQuery[T]) CountAsync(ctx context.Context) *Handle[int64] {
	return Submit(ctx, q.conn, func(ctx context.Context, sc *store.Conn) (int64, error) {
		return store.TableWith[T](sc, q.desc).Count(ctx)
	})
}
