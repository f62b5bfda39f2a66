package schema

import (
	"fmt"
	"reflect"

	"github.com/roach88/litemap/internal/dberr"
)

// Mapping binds a TableMap to the typed accessors of T. Column positions
// are shared with the TableMap.
type Mapping[T any] struct {
	table  *TableMap
	codecs []codec[T]
}

// declare runs DeclareTable on a zero T and validates the result.
func declare[T Entity[T]](conv DateTimeConvention) (*Mapping[T], error) {
	var zero T
	b := &Builder[T]{table: reflect.TypeFor[T]().Name()}
	zero.DeclareTable(b)

	decl := TableDecl{Name: b.table, Columns: make([]ColumnDecl, 0, len(b.fields))}
	for _, f := range b.fields {
		decl.Columns = append(decl.Columns, f.decl)
	}
	tm, err := build(decl, conv)
	if err != nil {
		return nil, err
	}

	m := &Mapping[T]{table: tm, codecs: make([]codec[T], 0, len(tm.columns))}
	for _, f := range b.fields {
		if !f.decl.Ignore {
			m.codecs = append(m.codecs, f.codec)
		}
	}
	return m, nil
}

// Table returns the schema metadata.
func (m *Mapping[T]) Table() *TableMap { return m.table }

// Value reads column col of v in storage form.
func (m *Mapping[T]) Value(v *T, col int) (any, error) {
	c := m.table.columns[col]
	out, err := m.codecs[col].get(v, c.Affinity)
	if err != nil {
		return nil, fmt.Errorf("read %s.%s: %w", m.table.name, c.Member, err)
	}
	return out, nil
}

// Values reads the given columns of v in order.
func (m *Mapping[T]) Values(v *T, cols []int) ([]any, error) {
	out := make([]any, len(cols))
	for i, col := range cols {
		val, err := m.Value(v, col)
		if err != nil {
			return nil, err
		}
		out[i] = val
	}
	return out, nil
}

// Assign writes a driver value into column col of v. NULL sets the member
// to its zero value, or nil for pointer members.
func (m *Mapping[T]) Assign(v *T, col int, src any) error {
	c := m.table.columns[col]
	if err := m.codecs[col].set(v, src, c.Affinity); err != nil {
		return fmt.Errorf("assign %s.%s: %w", m.table.name, c.Member, err)
	}
	return nil
}

// IsZeroKey reports whether v's primary key holds its zero value.
// Tables without a key report true.
func (m *Mapping[T]) IsZeroKey(v *T) bool {
	if m.table.pk < 0 {
		return true
	}
	return m.codecs[m.table.pk].isZero(v)
}

// SetKey stores an engine-assigned row id into v's primary key.
func (m *Mapping[T]) SetKey(v *T, id int64) error {
	if m.table.pk < 0 {
		return dberr.NewConstraintError(m.table.name, "", "table has no primary key")
	}
	return m.Assign(v, m.table.pk, id)
}

// CheckLengths verifies every MaxLength limit on v.
func (m *Mapping[T]) CheckLengths(v *T) error {
	for i, c := range m.table.columns {
		if c.MaxLength <= 0 {
			continue
		}
		if n := m.codecs[i].length(v); n > c.MaxLength {
			return dberr.NewConstraintError(m.table.name, c.Member,
				"value length %d exceeds max length %d", n, c.MaxLength)
		}
	}
	return nil
}
