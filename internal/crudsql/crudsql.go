// Package crudsql generates the canonical CRUD and DDL statements of a
// table from its TableMap.
//
// Statements are pure functions of the TableMap: the same map always yields
// byte-identical SQL, which lets the connection cache prepared statements by
// text. Identifiers are double-quoted; values are always bound through ?
// placeholders, never interpolated.
package crudsql

import (
	"fmt"
	"strings"

	"github.com/roach88/litemap/internal/dberr"
	"github.com/roach88/litemap/internal/schema"
)

// Operation names a generated statement shape.
type Operation int

const (
	CreateTable Operation = iota + 1
	CreateIndex
	Insert
	// InsertGeneratedKey inserts without the auto-increment key so the
	// engine assigns it.
	InsertGeneratedKey
	InsertOrReplace
	Update
	Delete
	DeleteAll
	SelectByKey
	// Select is used for translated queries.
	Select
)

var opNames = map[Operation]string{
	CreateTable:        "create_table",
	CreateIndex:        "create_index",
	Insert:             "insert",
	InsertGeneratedKey: "insert_generated_key",
	InsertOrReplace:    "insert_or_replace",
	Update:             "update",
	Delete:             "delete",
	DeleteAll:          "delete_all",
	SelectByKey:        "select_by_key",
	Select:             "select",
}

func (op Operation) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("operation(%d)", int(op))
}

// Statement is one generated statement. Columns lists the TableMap column
// positions bound to the placeholders, in placeholder order.
type Statement struct {
	Op      Operation
	SQL     string
	Columns []int
}

// Params extracts the bound values of v for s.
func Params[T any](s Statement, m *schema.Mapping[T], v *T) ([]any, error) {
	return m.Values(v, s.Columns)
}

// Build generates the statement for op. CreateIndex is not accepted here;
// use BuildIndexes.
func Build(tm *schema.TableMap, op Operation) (Statement, error) {
	switch op {
	case CreateTable:
		return buildCreateTable(tm), nil
	case Insert:
		return buildInsert(tm, op, "INSERT", false), nil
	case InsertOrReplace:
		return buildInsert(tm, op, "INSERT OR REPLACE", false), nil
	case InsertGeneratedKey:
		if !tm.AutoIncrement() {
			return Statement{}, dberr.NewConstraintError(tm.Name(), "", "table has no auto-increment key")
		}
		return buildInsert(tm, op, "INSERT", true), nil
	case Update:
		return buildUpdate(tm)
	case Delete:
		pk, err := requireKey(tm, op)
		if err != nil {
			return Statement{}, err
		}
		return Statement{
			Op:      op,
			SQL:     fmt.Sprintf("DELETE FROM %s WHERE %s = ?", schema.QuoteIdent(tm.Name()), quoteColumn(tm, pk)),
			Columns: []int{pk},
		}, nil
	case DeleteAll:
		return Statement{Op: op, SQL: "DELETE FROM " + schema.QuoteIdent(tm.Name())}, nil
	case SelectByKey:
		pk, err := requireKey(tm, op)
		if err != nil {
			return Statement{}, err
		}
		return Statement{
			Op:      op,
			SQL:     fmt.Sprintf("%s WHERE %s = ?", SelectPrefix(tm), quoteColumn(tm, pk)),
			Columns: []int{pk},
		}, nil
	case Select:
		return Statement{Op: op, SQL: SelectPrefix(tm)}, nil
	default:
		return Statement{}, fmt.Errorf("build %s: unsupported operation", op)
	}
}

// BuildIndexes generates one CREATE INDEX statement per declared index.
func BuildIndexes(tm *schema.TableMap) []Statement {
	indexes := tm.Indexes()
	out := make([]Statement, 0, len(indexes))
	for _, idx := range indexes {
		cols := make([]string, len(idx.Columns))
		for i, c := range idx.Columns {
			cols[i] = schema.QuoteIdent(c)
		}
		kw := "CREATE INDEX"
		if idx.Unique {
			kw = "CREATE UNIQUE INDEX"
		}
		out = append(out, Statement{
			Op: CreateIndex,
			SQL: fmt.Sprintf("%s IF NOT EXISTS %s ON %s (%s)",
				kw, schema.QuoteIdent(idx.Name), schema.QuoteIdent(tm.Name()), strings.Join(cols, ", ")),
		})
	}
	return out
}

// SelectPrefix returns SELECT <all mapped columns> FROM "table".
func SelectPrefix(tm *schema.TableMap) string {
	cols := make([]string, tm.NumColumns())
	for i := range cols {
		cols[i] = quoteColumn(tm, i)
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), schema.QuoteIdent(tm.Name()))
}

func buildCreateTable(tm *schema.TableMap) Statement {
	defs := make([]string, tm.NumColumns())
	for i, c := range tm.Columns() {
		var b strings.Builder
		b.WriteString(schema.QuoteIdent(c.Name))
		b.WriteByte(' ')
		b.WriteString(c.DeclType())
		if c.PrimaryKey {
			b.WriteString(" PRIMARY KEY")
		}
		if c.AutoIncrement {
			b.WriteString(" AUTOINCREMENT")
		}
		if !c.Nullable {
			b.WriteString(" NOT NULL")
		}
		defs[i] = b.String()
	}
	return Statement{
		Op:  CreateTable,
		SQL: fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", schema.QuoteIdent(tm.Name()), strings.Join(defs, ", ")),
	}
}

func buildInsert(tm *schema.TableMap, op Operation, verb string, skipKey bool) Statement {
	pk, _ := tm.PrimaryKey()
	var names, marks []string
	var cols []int
	for i := 0; i < tm.NumColumns(); i++ {
		if skipKey && i == pk {
			continue
		}
		names = append(names, quoteColumn(tm, i))
		marks = append(marks, "?")
		cols = append(cols, i)
	}
	table := schema.QuoteIdent(tm.Name())
	if len(cols) == 0 {
		return Statement{Op: op, SQL: fmt.Sprintf("%s INTO %s DEFAULT VALUES", verb, table)}
	}
	return Statement{
		Op:      op,
		SQL:     fmt.Sprintf("%s INTO %s (%s) VALUES (%s)", verb, table, strings.Join(names, ", "), strings.Join(marks, ", ")),
		Columns: cols,
	}
}

func buildUpdate(tm *schema.TableMap) (Statement, error) {
	pk, err := requireKey(tm, Update)
	if err != nil {
		return Statement{}, err
	}
	var sets []string
	var cols []int
	for i := 0; i < tm.NumColumns(); i++ {
		if i == pk {
			continue
		}
		sets = append(sets, quoteColumn(tm, i)+" = ?")
		cols = append(cols, i)
	}
	if len(sets) == 0 {
		return Statement{}, dberr.NewConstraintError(tm.Name(), "", "no updatable columns")
	}
	return Statement{
		Op: Update,
		SQL: fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
			schema.QuoteIdent(tm.Name()), strings.Join(sets, ", "), quoteColumn(tm, pk)),
		Columns: append(cols, pk),
	}, nil
}

func requireKey(tm *schema.TableMap, op Operation) (int, error) {
	pk, ok := tm.PrimaryKey()
	if !ok {
		return 0, dberr.NewConstraintError(tm.Name(), "", "%s requires a primary key", op)
	}
	return pk, nil
}

func quoteColumn(tm *schema.TableMap, i int) string {
	return schema.QuoteIdent(tm.ColumnAt(i).Name)
}
