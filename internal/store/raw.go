package store

import (
	"context"
	"database/sql"

	"github.com/roach88/litemap/internal/dberr"
	"github.com/roach88/litemap/internal/schema"
)

// Execute runs sqlText and returns the number of affected rows.
func (c *Conn) Execute(ctx context.Context, sqlText string, params ...any) (int64, error) {
	return c.affected(ctx, stmtKey{sql: sqlText}, params)
}

// ExecuteScalar runs sqlText and scans the first column of the first row
// into V. No row is a not-found error; a NULL value is V's zero value.
func ExecuteScalar[V any](ctx context.Context, c *Conn, sqlText string, params ...any) (V, error) {
	var out sql.Null[V]
	found := false
	err := c.query(ctx, stmtKey{sql: sqlText}, params, func(rows *sql.Rows) error {
		found = false
		if !rows.Next() {
			return nil
		}
		found = true
		names, err := rows.Columns()
		if err != nil {
			return err
		}
		dest := make([]any, len(names))
		dest[0] = &out
		for i := 1; i < len(dest); i++ {
			dest[i] = new(any)
		}
		return rows.Scan(dest...)
	})
	if err != nil {
		return out.V, err
	}
	if !found {
		return out.V, dberr.NewNotFound("", "scalar query returned no rows")
	}
	return out.V, nil
}

// QueryRaw runs sqlText and maps each row onto a new T, matching result
// columns to mapped columns by case-insensitive name.
func QueryRaw[T schema.Entity[T]](ctx context.Context, c *Conn, sqlText string, params ...any) ([]T, error) {
	m, err := mappingFor[T](c)
	if err != nil {
		return nil, err
	}
	return selectRows(ctx, c, m, stmtKey{sql: sqlText}, params, true)
}

// Rows is a raw result set with column order preserved.
type Rows struct {
	Columns []string
	Values  [][]any
}

// Maps returns each row as a column name -> value map.
func (r *Rows) Maps() []map[string]any {
	out := make([]map[string]any, len(r.Values))
	for i, vals := range r.Values {
		row := make(map[string]any, len(r.Columns))
		for j, name := range r.Columns {
			row[name] = vals[j]
		}
		out[i] = row
	}
	return out
}

// QueryRows runs sqlText and returns the result set as read. Text comes
// back as string and blobs as []byte.
func (c *Conn) QueryRows(ctx context.Context, sqlText string, params ...any) (*Rows, error) {
	var out *Rows
	err := c.query(ctx, stmtKey{sql: sqlText}, params, func(rows *sql.Rows) error {
		names, err := rows.Columns()
		if err != nil {
			return err
		}
		res := &Rows{Columns: names, Values: make([][]any, 0)}
		for rows.Next() {
			vals := make([]any, len(names))
			dest := make([]any, len(names))
			for i := range vals {
				dest[i] = &vals[i]
			}
			if err := rows.Scan(dest...); err != nil {
				return err
			}
			res.Values = append(res.Values, vals)
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// QueryMaps runs sqlText and returns each row as a column name -> value
// map.
func (c *Conn) QueryMaps(ctx context.Context, sqlText string, params ...any) ([]map[string]any, error) {
	rows, err := c.QueryRows(ctx, sqlText, params...)
	if err != nil {
		return nil, err
	}
	return rows.Maps(), nil
}

// Tables returns the names of user tables, sorted.
func (c *Conn) Tables(ctx context.Context) ([]string, error) {
	const q = "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name"
	var out []string
	err := c.query(ctx, stmtKey{sql: q}, nil, func(rows *sql.Rows) error {
		names := make([]string, 0)
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return err
			}
			names = append(names, name)
		}
		out = names
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
