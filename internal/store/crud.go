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

// CreateResult reports the outcome of CreateTable.
type CreateResult struct {
	// Created is false when the table already existed.
	Created bool
}

func mappingFor[T schema.Entity[T]](c *Conn) (*schema.Mapping[T], error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	return schema.For[T](c.registry)
}

// CreateTable creates T's table and declared indexes when absent.
// Existing tables are never altered.
func CreateTable[T schema.Entity[T]](ctx context.Context, c *Conn) (CreateResult, error) {
	m, err := mappingFor[T](c)
	if err != nil {
		return CreateResult{}, err
	}
	return c.CreateTableMap(ctx, m.Table())
}

// CreateTableMap creates the table described by tm and its indexes when
// absent. It serves declarations that have no Go type.
func (c *Conn) CreateTableMap(ctx context.Context, tm *schema.TableMap) (CreateResult, error) {
	exists, err := c.tableExists(ctx, tm.Name())
	if err != nil {
		return CreateResult{}, err
	}

	create, err := crudsql.Build(tm, crudsql.CreateTable)
	if err != nil {
		return CreateResult{}, err
	}
	stmts := append([]crudsql.Statement{create}, crudsql.BuildIndexes(tm)...)
	for _, s := range stmts {
		if _, err := c.exec(ctx, stmtKey{table: tm, op: s.Op, sql: s.SQL}, nil); err != nil {
			return CreateResult{}, err
		}
	}
	return CreateResult{Created: !exists}, nil
}

func (c *Conn) tableExists(ctx context.Context, name string) (bool, error) {
	const q = "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
	var n int64
	err := c.query(ctx, stmtKey{sql: q}, []any{name}, func(rows *sql.Rows) error {
		n = 0
		if rows.Next() {
			return rows.Scan(&n)
		}
		return nil
	})
	return n > 0, err
}

// Insert inserts v. When the key is auto-incremented and unset, the
// engine assigns it and the new key is written back into v.
func Insert[T schema.Entity[T]](ctx context.Context, c *Conn, v *T) (int64, error) {
	m, err := mappingFor[T](c)
	if err != nil {
		return 0, err
	}
	op := crudsql.Insert
	if m.Table().AutoIncrement() && m.IsZeroKey(v) {
		op = crudsql.InsertGeneratedKey
	}
	return write(ctx, c, m, v, op)
}

// InsertOrReplace inserts v, replacing any row with the same key or
// unique index values. Every mapped column is written, the key included.
func InsertOrReplace[T schema.Entity[T]](ctx context.Context, c *Conn, v *T) (int64, error) {
	m, err := mappingFor[T](c)
	if err != nil {
		return 0, err
	}
	return write(ctx, c, m, v, crudsql.InsertOrReplace)
}

// Update writes every non-key column of v to the row with v's key.
// A zero key is a constraint error and no SQL runs.
func Update[T schema.Entity[T]](ctx context.Context, c *Conn, v *T) (int64, error) {
	m, err := mappingFor[T](c)
	if err != nil {
		return 0, err
	}
	if err := requireKeyValue(m, v, "update"); err != nil {
		return 0, err
	}
	return write(ctx, c, m, v, crudsql.Update)
}

// Delete removes the row with v's key. A zero key is a constraint error.
func Delete[T schema.Entity[T]](ctx context.Context, c *Conn, v *T) (int64, error) {
	m, err := mappingFor[T](c)
	if err != nil {
		return 0, err
	}
	if err := requireKeyValue(m, v, "delete"); err != nil {
		return 0, err
	}
	return write(ctx, c, m, v, crudsql.Delete)
}

// DeleteAll removes every row of T's table.
func DeleteAll[T schema.Entity[T]](ctx context.Context, c *Conn) (int64, error) {
	m, err := mappingFor[T](c)
	if err != nil {
		return 0, err
	}
	s, err := crudsql.Build(m.Table(), crudsql.DeleteAll)
	if err != nil {
		return 0, err
	}
	return c.affected(ctx, stmtKey{table: m.Table(), op: s.Op, sql: s.SQL}, nil)
}

// DeleteWhere removes the rows matching pred. A nil or empty predicate is
// a translation error; use DeleteAll to clear a table.
func DeleteWhere[T schema.Entity[T]](ctx context.Context, c *Conn, pred queryir.Expr) (int64, error) {
	m, err := mappingFor[T](c)
	if err != nil {
		return 0, err
	}
	sqlText, params, err := querysql.TranslateDelete(m.Table(), queryir.Descriptor{}.Where(pred))
	if err != nil {
		return 0, err
	}
	return c.affected(ctx, stmtKey{table: m.Table(), op: crudsql.Delete, sql: sqlText}, params)
}

// Find returns the row with the given key, or nil when there is none.
func Find[T schema.Entity[T]](ctx context.Context, c *Conn, key any) (*T, error) {
	m, err := mappingFor[T](c)
	if err != nil {
		return nil, err
	}
	tm := m.Table()
	s, err := crudsql.Build(tm, crudsql.SelectByKey)
	if err != nil {
		return nil, err
	}
	pk, _ := tm.PrimaryKey()
	kv, err := schema.ToStorage(key, tm.ColumnAt(pk).Affinity)
	if err != nil {
		return nil, dberr.NewConstraintError(tm.Name(), tm.ColumnAt(pk).Member, "key: %v", err)
	}

	rows, err := selectRows(ctx, c, m, stmtKey{table: tm, op: s.Op, sql: s.SQL}, []any{kv}, false)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// Get returns the row with the given key. A missing row is a not-found
// error.
func Get[T schema.Entity[T]](ctx context.Context, c *Conn, key any) (*T, error) {
	v, err := Find[T](ctx, c, key)
	if err != nil {
		return nil, err
	}
	if v == nil {
		tm, _ := schema.TableFor[T](c.registry)
		return nil, dberr.NewNotFound(tm.Name(), "no row with key %v", key)
	}
	return v, nil
}

func requireKeyValue[T any](m *schema.Mapping[T], v *T, verb string) error {
	tm := m.Table()
	pk, ok := tm.PrimaryKey()
	if !ok {
		return dberr.NewConstraintError(tm.Name(), "", "cannot %s without primary key", verb)
	}
	if m.IsZeroKey(v) {
		return dberr.NewConstraintError(tm.Name(), tm.ColumnAt(pk).Member, "cannot %s without primary key", verb)
	}
	return nil
}

// write runs a generated statement for v. Lengths are checked first so
// oversize values never reach the engine.
func write[T any](ctx context.Context, c *Conn, m *schema.Mapping[T], v *T, op crudsql.Operation) (int64, error) {
	tm := m.Table()
	s, err := crudsql.Build(tm, op)
	if err != nil {
		return 0, err
	}
	if op != crudsql.Delete {
		if err := m.CheckLengths(v); err != nil {
			return 0, err
		}
	}
	params, err := crudsql.Params(s, m, v)
	if err != nil {
		return 0, dberr.NewConstraintError(tm.Name(), "", "%v", err)
	}

	res, err := c.exec(ctx, stmtKey{table: tm, op: s.Op, sql: s.SQL}, params)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, dberr.WrapExec(s.SQL, len(params), err)
	}
	if op == crudsql.InsertGeneratedKey {
		id, err := res.LastInsertId()
		if err != nil {
			return 0, dberr.WrapExec(s.SQL, len(params), err)
		}
		if err := m.SetKey(v, id); err != nil {
			return 0, err
		}
	}
	return n, nil
}

func (c *Conn) affected(ctx context.Context, key stmtKey, params []any) (int64, error) {
	res, err := c.exec(ctx, key, params)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, dberr.WrapExec(key.sql, len(params), err)
	}
	return n, nil
}
