package store

import (
	"context"
	"database/sql"

	"github.com/roach88/litemap/internal/schema"
)

// selectRows runs a SELECT and materializes each row as a new T.
//
// With byName, result columns are matched to mapped columns by
// case-insensitive name; unmatched result columns are skipped and
// unmatched members keep their zero value. Without it, result columns are
// taken to be every mapped column in declaration order.
func selectRows[T any](ctx context.Context, c *Conn, m *schema.Mapping[T], key stmtKey, params []any, byName bool) ([]T, error) {
	var out []T
	err := c.query(ctx, key, params, func(rows *sql.Rows) error {
		list, err := scanEntities(rows, m, byName)
		if err != nil {
			return err
		}
		out = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func scanEntities[T any](rows *sql.Rows, m *schema.Mapping[T], byName bool) ([]T, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	tm := m.Table()
	targets := make([]int, len(names))
	for i, name := range names {
		switch {
		case byName:
			col, ok := tm.ColumnByName(name)
			if !ok {
				col = -1
			}
			targets[i] = col
		case i < tm.NumColumns():
			targets[i] = i
		default:
			targets[i] = -1
		}
	}

	raw := make([]any, len(names))
	dest := make([]any, len(names))
	for i := range raw {
		dest[i] = &raw[i]
	}

	out := make([]T, 0)
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		var v T
		for i, col := range targets {
			if col < 0 {
				continue
			}
			if err := m.Assign(&v, col, raw[i]); err != nil {
				return nil, err
			}
		}
		out = append(out, v)
	}
	return out, nil
}
