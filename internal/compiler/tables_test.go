package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/litemap/internal/dberr"
	"github.com/roach88/litemap/internal/schema"
)

func compile(t *testing.T, src string) cue.Value {
	t.Helper()
	v := cuecontext.New().CompileString(src, cue.Filename("test.cue"))
	require.NoError(t, v.Err())
	return v
}

func TestCompileTables_Basic(t *testing.T) {
	v := compile(t, `
		tables: stocks: columns: {
			Id:     {type: "integer", primary_key: true, auto_increment: true}
			Symbol: {type: "text", max_length: 8, unique: true}
			Price:  {type: "real", column: "price_usd"}
			Note:   {type: "text", ignore: true}
		}
		tables: valuations: {
			name: "stock_valuations"
			columns: {
				StockId: {type: "integer", not_null: true, index: {name: "by_stock_time", unique: true}}
				Time:    {type: "datetime", index: {name: "by_stock_time", unique: true}}
			}
		}
	`)

	maps, err := CompileTables(v)
	require.NoError(t, err)
	require.Len(t, maps, 2)

	stocks := maps[0]
	assert.Equal(t, "stocks", stocks.Name())
	require.Equal(t, 3, stocks.NumColumns())
	assert.Equal(t, "Id", stocks.ColumnAt(0).Name)
	assert.True(t, stocks.AutoIncrement())
	assert.Equal(t, "varchar(8)", stocks.ColumnAt(1).DeclType())
	assert.Equal(t, "price_usd", stocks.ColumnAt(2).Name)
	assert.Equal(t, schema.Real, stocks.ColumnAt(2).Affinity)
	assert.True(t, stocks.IsIgnored("Note"))
	assert.Equal(t, []schema.Index{{Name: "stocks_Symbol", Unique: true, Columns: []string{"Symbol"}}}, stocks.Indexes())

	vals := maps[1]
	assert.Equal(t, "stock_valuations", vals.Name())
	assert.False(t, vals.ColumnAt(0).Nullable)
	assert.Equal(t, schema.DateTimeText, vals.ColumnAt(1).Affinity)
	assert.Equal(t, []schema.Index{{Name: "by_stock_time", Unique: true, Columns: []string{"StockId", "Time"}}}, vals.Indexes())
}

func TestCompileTables_IndexForms(t *testing.T) {
	v := compile(t, `
		tables: events: columns: {
			Kind: {type: "text", indexed: true, index: ["by_kind_day", {name: "kind_unique", unique: true}]}
			Day:  {type: "int", index: "by_kind_day"}
		}
	`)

	maps, err := CompileTables(v)
	require.NoError(t, err)
	assert.Equal(t, []schema.Index{
		{Name: "events_Kind", Columns: []string{"Kind"}},
		{Name: "by_kind_day", Columns: []string{"Kind", "Day"}},
		{Name: "kind_unique", Unique: true, Columns: []string{"Kind"}},
	}, maps[0].Indexes())
}

func TestCompileTables_UnixNanoConvention(t *testing.T) {
	v := compile(t, `
		datetime: "unix_nano"
		tables: log: columns: At: {type: "timestamp"}
	`)

	maps, err := CompileTables(v)
	require.NoError(t, err)
	assert.Equal(t, schema.DateTimeInteger, maps[0].ColumnAt(0).Affinity)
}

func TestCompileTables_CUEErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown attribute", `tables: t: columns: A: {type: "text", primary_ky: true}`},
		{"unknown type", `tables: t: columns: A: {type: "uuid"}`},
		{"missing type", `tables: t: columns: A: {primary_key: true}`},
		{"non-positive length", `tables: t: columns: A: {type: "text", max_length: 0}`},
		{"bad convention", `datetime: "local", tables: t: columns: A: {type: "text"}`},
		{"missing tables", `other: 1`},
		{"no tables", `tables: {}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileTables(compile(t, tt.src))
			require.Error(t, err)
			var ce *CompileError
			assert.ErrorAs(t, err, &ce)
		})
	}
}

func TestCompileTables_SchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"two primary keys", `tables: t: columns: {A: {type: "int", primary_key: true}, B: {type: "int", primary_key: true}}`},
		{"text auto-increment", `tables: t: columns: A: {type: "text", primary_key: true, auto_increment: true}`},
		{"auto-increment without key", `tables: t: columns: A: {type: "int", auto_increment: true}`},
		{"duplicate column name", `tables: t: columns: {A: {type: "int"}, B: {type: "int", column: "a"}}`},
		{"only ignored", `tables: t: columns: A: {type: "int", ignore: true}`},
		{"length on integer", `tables: t: columns: A: {type: "int", max_length: 3}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileTables(compile(t, tt.src))
			require.Error(t, err)
			assert.True(t, dberr.IsSchemaError(err), "got %v", err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.cue")
	require.NoError(t, os.WriteFile(path, []byte(`tables: notes: columns: Body: {type: "string"}`), 0o644))

	maps, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, maps, 1)
	assert.Equal(t, "notes", maps[0].Name())
	assert.Equal(t, schema.Text, maps[0].ColumnAt(0).Affinity)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.cue"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.cue")
	require.NoError(t, os.WriteFile(bad, []byte("tables: {"), 0o644))
	_, err = LoadFile(bad)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Error(), "bad.cue")
}
