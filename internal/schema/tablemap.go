package schema

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/roach88/litemap/internal/dberr"
)

// ColumnMap is the metadata of one mapped member.
type ColumnMap struct {
	Member        string
	Name          string
	Affinity      Affinity
	Nullable      bool
	MaxLength     int
	PrimaryKey    bool
	AutoIncrement bool
	Ignored       bool
}

// DeclType returns the column type used in CREATE TABLE.
func (c ColumnMap) DeclType() string {
	if c.MaxLength > 0 && c.Affinity == Text {
		return fmt.Sprintf("varchar(%d)", c.MaxLength)
	}
	return c.Affinity.StorageClass()
}

// Index is a named, possibly composite, index.
type Index struct {
	Name    string
	Unique  bool
	Columns []string
}

// TableMap is the immutable schema metadata of one entity type.
type TableMap struct {
	name     string
	columns  []ColumnMap
	ignored  []ColumnMap
	pk       int
	indexes  []Index
	byMember map[string]int
	byFolded map[string]int
}

// Name returns the table name.
func (tm *TableMap) Name() string { return tm.name }

// NumColumns returns the number of mapped columns.
func (tm *TableMap) NumColumns() int { return len(tm.columns) }

// ColumnAt returns the mapped column at position i (declaration order).
func (tm *TableMap) ColumnAt(i int) ColumnMap { return tm.columns[i] }

// Columns returns a copy of the mapped columns in declaration order.
func (tm *TableMap) Columns() []ColumnMap {
	return append([]ColumnMap(nil), tm.columns...)
}

// Ignored returns the members declared but excluded from mapping.
func (tm *TableMap) Ignored() []ColumnMap {
	return append([]ColumnMap(nil), tm.ignored...)
}

// Column returns the position of the mapped column for member.
func (tm *TableMap) Column(member string) (int, bool) {
	i, ok := tm.byMember[member]
	return i, ok
}

// IsIgnored reports whether member was declared with Ignore.
func (tm *TableMap) IsIgnored(member string) bool {
	for _, c := range tm.ignored {
		if c.Member == member {
			return true
		}
	}
	return false
}

// ColumnByName returns the position of the column named name, compared
// case-insensitively with Unicode case folding.
func (tm *TableMap) ColumnByName(name string) (int, bool) {
	i, ok := tm.byFolded[FoldName(name)]
	return i, ok
}

// PrimaryKey returns the position of the primary key column.
func (tm *TableMap) PrimaryKey() (int, bool) {
	return tm.pk, tm.pk >= 0
}

// AutoIncrement reports whether the primary key is engine-assigned.
func (tm *TableMap) AutoIncrement() bool {
	return tm.pk >= 0 && tm.columns[tm.pk].AutoIncrement
}

// Indexes returns a copy of the declared indexes.
func (tm *TableMap) Indexes() []Index {
	out := make([]Index, len(tm.indexes))
	for i, idx := range tm.indexes {
		out[i] = Index{
			Name:    idx.Name,
			Unique:  idx.Unique,
			Columns: append([]string(nil), idx.Columns...),
		}
	}
	return out
}

// QuoteIdent quotes an SQL identifier, doubling embedded quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// FoldName folds an identifier for case-insensitive comparison.
// A new Caser is used per call because Casers are not safe for concurrent use.
func FoldName(name string) string {
	return cases.Fold().String(name)
}

// NewDynamic validates a type-independent declaration and builds its
// TableMap. Column types come from ColumnDecl.Type.
func NewDynamic(decl TableDecl, conv DateTimeConvention) (*TableMap, error) {
	cols := make([]ColumnDecl, len(decl.Columns))
	for i, c := range decl.Columns {
		kind, ok := parseKind(strings.ToLower(c.Type))
		if !ok && c.err == nil {
			c.err = fmt.Errorf("unsupported column type %q", c.Type)
		}
		c.kind = kind
		cols[i] = c
	}
	return build(TableDecl{Name: decl.Name, Columns: cols}, conv)
}

// build validates a declaration and produces its TableMap. Mapped columns
// keep declaration order so typed codecs can be aligned by position.
func build(decl TableDecl, conv DateTimeConvention) (*TableMap, error) {
	if strings.TrimSpace(decl.Name) == "" {
		return nil, dberr.NewSchemaError("", "", "table name is empty")
	}

	tm := &TableMap{
		name:     decl.Name,
		pk:       -1,
		byMember: make(map[string]int),
		byFolded: make(map[string]int),
	}
	members := make(map[string]bool)

	for _, c := range decl.Columns {
		if c.Member == "" {
			return nil, dberr.NewSchemaError(decl.Name, "", "member name is empty")
		}
		if members[c.Member] {
			return nil, dberr.NewSchemaError(decl.Name, c.Member, "member declared twice")
		}
		members[c.Member] = true

		name := c.Column
		if name == "" {
			name = c.Member
		}
		col := ColumnMap{
			Member:        c.Member,
			Name:          name,
			Affinity:      c.kind.affinity(conv),
			MaxLength:     c.MaxLength,
			PrimaryKey:    c.PrimaryKey,
			AutoIncrement: c.AutoIncrement,
			Nullable:      !(c.PrimaryKey || c.NotNull),
			Ignored:       c.Ignore,
		}
		if c.Ignore {
			tm.ignored = append(tm.ignored, col)
			continue
		}
		if c.err != nil {
			return nil, dberr.NewSchemaError(decl.Name, c.Member, "%v", c.err)
		}

		folded := FoldName(name)
		if prev, dup := tm.byFolded[folded]; dup {
			return nil, dberr.NewSchemaError(decl.Name, c.Member,
				"column name %q already used by member %s", name, tm.columns[prev].Member)
		}
		if c.MaxLength < 0 {
			return nil, dberr.NewSchemaError(decl.Name, c.Member, "max length must be positive, got %d", c.MaxLength)
		}
		if c.MaxLength > 0 && c.kind != kindText && c.kind != kindBlob {
			return nil, dberr.NewSchemaError(decl.Name, c.Member, "max length requires a text or blob member, got %s", c.kind)
		}
		if c.PrimaryKey && tm.pk >= 0 {
			return nil, dberr.NewSchemaError(decl.Name, c.Member,
				"multiple primary keys (%s and %s)", tm.columns[tm.pk].Member, c.Member)
		}
		if c.AutoIncrement && !c.PrimaryKey {
			return nil, dberr.NewSchemaError(decl.Name, c.Member, "auto-increment requires the primary key")
		}
		if c.AutoIncrement && c.kind != kindInteger {
			return nil, dberr.NewSchemaError(decl.Name, c.Member,
				"auto-increment requires an integer key, got %s", c.kind)
		}

		pos := len(tm.columns)
		if c.PrimaryKey {
			tm.pk = pos
		}
		tm.columns = append(tm.columns, col)
		tm.byMember[c.Member] = pos
		tm.byFolded[folded] = pos

		if err := tm.addIndexes(c, name); err != nil {
			return nil, err
		}
	}

	if len(tm.columns) == 0 {
		return nil, dberr.NewSchemaError(decl.Name, "", "no mapped columns")
	}
	return tm, nil
}

// addIndexes places column name into each index the declaration names.
func (tm *TableMap) addIndexes(c ColumnDecl, name string) error {
	for _, d := range c.Indexes {
		idxName := d.Name
		if idxName == "" {
			idxName = tm.name + "_" + name
		}
		pos := -1
		for i := range tm.indexes {
			if tm.indexes[i].Name == idxName {
				pos = i
				break
			}
		}
		if pos < 0 {
			tm.indexes = append(tm.indexes, Index{Name: idxName, Unique: d.Unique})
			pos = len(tm.indexes) - 1
		} else if tm.indexes[pos].Unique != d.Unique {
			return dberr.NewSchemaError(tm.name, c.Member,
				"index %q declared both unique and non-unique", idxName)
		}
		idx := &tm.indexes[pos]
		seen := false
		for _, existing := range idx.Columns {
			if existing == name {
				seen = true
				break
			}
		}
		if !seen {
			idx.Columns = append(idx.Columns, name)
		}
	}
	return nil
}
