package store

import (
	"context"
	"database/sql"

	"github.com/roach88/litemap/internal/crudsql"
	"github.com/roach88/litemap/internal/dberr"
	"github.com/roach88/litemap/internal/queryir"
	"github.com/roach88/litemap/internal/querysql"
	"github.com/roach88/litemap/internal/schema"
)

// Query is a typed query over T's table. Each builder method returns a new
// Query; the receiver is never modified. Nothing runs until a terminal
// method (ToList, First, FirstOrDefault, Count) is called.
type Query[T schema.Entity[T]] struct {
	conn *Conn
	m    *schema.Mapping[T]
	desc queryir.Descriptor
	err  error
}

// Table starts a query over T's table. A mapping failure is reported by
// the first terminal call.
func Table[T schema.Entity[T]](c *Conn) *Query[T] {
	m, err := mappingFor[T](c)
	return &Query[T]{conn: c, m: m, err: err}
}

// TableWith starts a query over T's table from an existing descriptor.
func TableWith[T schema.Entity[T]](c *Conn, d queryir.Descriptor) *Query[T] {
	q := Table[T](c)
	q.desc = d
	return q
}

func (q *Query[T]) with(d queryir.Descriptor) *Query[T] {
	return &Query[T]{conn: q.conn, m: q.m, desc: d, err: q.err}
}

// Where adds a filter; successive filters are AND-ed.
func (q *Query[T]) Where(pred queryir.Expr) *Query[T] { return q.with(q.desc.Where(pred)) }

// OrderBy adds an ascending ordering.
func (q *Query[T]) OrderBy(member string) *Query[T] { return q.with(q.desc.OrderBy(member)) }

// OrderByDesc adds a descending ordering.
func (q *Query[T]) OrderByDesc(member string) *Query[T] { return q.with(q.desc.OrderByDesc(member)) }

// Skip skips n rows.
func (q *Query[T]) Skip(n int) *Query[T] { return q.with(q.desc.Skip(n)) }

// Take limits the result to n rows.
func (q *Query[T]) Take(n int) *Query[T] { return q.with(q.desc.Take(n)) }

// Bind supplies a captured variable referenced by queryir.Param.
func (q *Query[T]) Bind(name string, value any) *Query[T] { return q.with(q.desc.Bind(name, value)) }

// Descriptor returns the underlying query descriptor.
func (q *Query[T]) Descriptor() queryir.Descriptor { return q.desc }

// SQL translates the query without running it.
func (q *Query[T]) SQL() (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	return querysql.Translate(q.m.Table(), q.desc)
}

// ToList runs the query and returns every row.
func (q *Query[T]) ToList(ctx context.Context) ([]T, error) {
	return q.list(ctx, q.desc)
}

// First returns the first row. No row is a not-found error.
func (q *Query[T]) First(ctx context.Context) (*T, error) {
	v, err := q.FirstOrDefault(ctx)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, dberr.NewNotFound(q.m.Table().Name(), "query matched no rows")
	}
	return v, nil
}

// FirstOrDefault returns the first row, or nil when there is none.
func (q *Query[T]) FirstOrDefault(ctx context.Context) (*T, error) {
	rows, err := q.list(ctx, q.desc.Take(1))
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// Count returns the number of rows the query would return.
func (q *Query[T]) Count(ctx context.Context) (int64, error) {
	if q.err != nil {
		return 0, q.err
	}
	tm := q.m.Table()
	sqlText, params, err := querysql.TranslateCount(tm, q.desc)
	if err != nil {
		return 0, err
	}
	var n int64
	err = q.conn.query(ctx, stmtKey{table: tm, op: crudsql.Select, sql: sqlText}, params, func(rows *sql.Rows) error {
		n = 0
		if rows.Next() {
			return rows.Scan(&n)
		}
		return nil
	})
	return n, err
}

func (q *Query[T]) list(ctx context.Context, d queryir.Descriptor) ([]T, error) {
	if q.err != nil {
		return nil, q.err
	}
	tm := q.m.Table()
	sqlText, params, err := querysql.Translate(tm, d)
	if err != nil {
		return nil, err
	}
	return selectRows(ctx, q.conn, q.m, stmtKey{table: tm, op: crudsql.Select, sql: sqlText}, params, false)
}
