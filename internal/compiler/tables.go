package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/litemap/internal/schema"
)

// tableSchema constrains declaration files. Definitions are closed, so a
// misspelled attribute is an error rather than silently ignored.
const tableSchema = `
#Type: "integer" | "int" | "int64" | "real" | "float" | "double" | "float64" |
	"text" | "string" | "blob" | "bytes" | "bool" | "boolean" |
	"time" | "datetime" | "timestamp"

#Index: string | {
	name:    string
	unique?: bool
}

#Column: {
	type:            #Type
	column?:         string
	primary_key?:    bool
	auto_increment?: bool
	indexed?:        bool
	unique?:         bool
	index?:          #Index | [...#Index]
	max_length?:     int & >0
	not_null?:       bool
	ignore?:         bool
}

#Table: {
	name?:   string
	columns: [string]: #Column
}

datetime?: "text" | "unix_nano"
tables: [string]: #Table
`

// CompileTables compiles every table under v's "tables" field, in
// declaration order.
//
// CUE problems are returned as *CompileError. Declarations that are valid
// CUE but not a valid table (two primary keys, auto-increment on a text
// key, ...) fail with the schema package's definition error.
func CompileTables(v cue.Value) ([]*schema.TableMap, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError("cue", err)
	}
	constraints := v.Context().CompileString(tableSchema, cue.Filename("litemap-tables.cue"))
	if err := constraints.Err(); err != nil {
		return nil, fmt.Errorf("compile table schema: %w", err)
	}
	if err := v.Unify(constraints).Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError("tables", err)
	}

	conv := schema.DateTimeAsText
	if s, ok, err := lookupString(v, "datetime"); err != nil {
		return nil, err
	} else if ok && s == "unix_nano" {
		conv = schema.DateTimeAsUnixNano
	}

	tablesVal := v.LookupPath(cue.ParsePath("tables"))
	if !tablesVal.Exists() {
		return nil, &CompileError{Field: "tables", Message: "tables is required", Pos: v.Pos()}
	}
	iter, err := tablesVal.Fields()
	if err != nil {
		return nil, formatCUEError("tables", err)
	}

	var maps []*schema.TableMap
	for iter.Next() {
		decl, err := parseTable(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		tm, err := schema.NewDynamic(decl, conv)
		if err != nil {
			return nil, err
		}
		maps = append(maps, tm)
	}
	if len(maps) == 0 {
		return nil, &CompileError{Field: "tables", Message: "at least one table is required", Pos: tablesVal.Pos()}
	}
	return maps, nil
}

// LoadFile compiles the table declarations in a .cue file.
func LoadFile(path string) ([]*schema.TableMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	v := cuecontext.New().CompileBytes(data, cue.Filename(path))
	return CompileTables(v)
}

func parseTable(label string, v cue.Value) (schema.TableDecl, error) {
	decl := schema.TableDecl{Name: label}
	name, ok, err := lookupString(v, "name")
	if err != nil {
		return decl, err
	}
	if ok {
		decl.Name = name
	}

	colsVal := v.LookupPath(cue.ParsePath("columns"))
	if !colsVal.Exists() {
		return decl, &CompileError{Field: "tables." + label + ".columns", Message: "columns is required", Pos: v.Pos()}
	}
	iter, err := colsVal.Fields()
	if err != nil {
		return decl, formatCUEError("tables."+label+".columns", err)
	}
	for iter.Next() {
		col, err := parseColumn(iter.Label(), iter.Value())
		if err != nil {
			return decl, err
		}
		decl.Columns = append(decl.Columns, col)
	}
	return decl, nil
}

func parseColumn(member string, v cue.Value) (schema.ColumnDecl, error) {
	col := schema.ColumnDecl{Member: member}

	var err error
	if col.Type, _, err = lookupString(v, "type"); err != nil {
		return col, err
	}
	if col.Column, _, err = lookupString(v, "column"); err != nil {
		return col, err
	}
	flags := []struct {
		field string
		dst   *bool
	}{
		{"primary_key", &col.PrimaryKey},
		{"auto_increment", &col.AutoIncrement},
		{"not_null", &col.NotNull},
		{"ignore", &col.Ignore},
	}
	for _, f := range flags {
		if *f.dst, _, err = lookupBool(v, f.field); err != nil {
			return col, err
		}
	}

	if n, ok, err := lookupInt(v, "max_length"); err != nil {
		return col, err
	} else if ok {
		col.MaxLength = int(n)
	}

	if indexed, _, err := lookupBool(v, "indexed"); err != nil {
		return col, err
	} else if indexed {
		col.Indexes = append(col.Indexes, schema.IndexDecl{})
	}
	if unique, _, err := lookupBool(v, "unique"); err != nil {
		return col, err
	} else if unique {
		col.Indexes = append(col.Indexes, schema.IndexDecl{Unique: true})
	}

	idxVal := v.LookupPath(cue.ParsePath("index"))
	if idxVal.Exists() {
		idx, err := parseIndexes(idxVal)
		if err != nil {
			return col, err
		}
		col.Indexes = append(col.Indexes, idx...)
	}
	return col, nil
}

// parseIndexes accepts a name, a {name, unique} struct, or a list of
// either.
func parseIndexes(v cue.Value) ([]schema.IndexDecl, error) {
	if v.Kind() == cue.ListKind {
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError("index", err)
		}
		var out []schema.IndexDecl
		for iter.Next() {
			idx, err := parseIndexes(iter.Value())
			if err != nil {
				return nil, err
			}
			out = append(out, idx...)
		}
		return out, nil
	}

	if name, err := v.String(); err == nil {
		return []schema.IndexDecl{{Name: name}}, nil
	}
	name, _, err := lookupString(v, "name")
	if err != nil {
		return nil, err
	}
	unique, _, err := lookupBool(v, "unique")
	if err != nil {
		return nil, err
	}
	return []schema.IndexDecl{{Name: name, Unique: unique}}, nil
}

func lookupString(v cue.Value, field string) (string, bool, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return "", false, nil
	}
	s, err := f.String()
	if err != nil {
		return "", false, formatCUEError(field, err)
	}
	return s, true, nil
}

func lookupBool(v cue.Value, field string) (bool, bool, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return false, false, nil
	}
	b, err := f.Bool()
	if err != nil {
		return false, false, formatCUEError(field, err)
	}
	return b, true, nil
}

func lookupInt(v cue.Value, field string) (int64, bool, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return 0, false, nil
	}
	n, err := f.Int64()
	if err != nil {
		return 0, false, formatCUEError(field, err)
	}
	return n, true, nil
}
