package schema

import (
	"errors"
	"fmt"
)

// Entity is implemented by every mapped record type. DeclareTable is called
// once per registry, on a zero value, to declare the table and its columns.
//
//	func (Stock) DeclareTable(t *schema.Builder[Stock]) {
//	    t.Table("stocks")
//	    schema.Field(t, "Id", func(s *Stock) *int64 { return &s.ID }).PrimaryKey().AutoIncrement()
//	    schema.Field(t, "Symbol", func(s *Stock) *string { return &s.Symbol }).MaxLength(8)
//	}
type Entity[T any] interface {
	DeclareTable(t *Builder[T])
}

// Builder collects the declaration of one entity type.
type Builder[T any] struct {
	table  string
	fields []*FieldDecl[T]
}

// Table overrides the table name. The default is the Go type name.
func (b *Builder[T]) Table(name string) *Builder[T] {
	b.table = name
	return b
}

// Field declares a mapped member. Member is the entity member name used by
// predicates and orderings; access returns a pointer to that member and is
// used both to read values for binding and to write query results.
// Columns are mapped in the order Field is called.
func Field[T, V any](b *Builder[T], member string, access func(*T) *V) *FieldDecl[T] {
	f := &FieldDecl[T]{decl: ColumnDecl{Member: member}}
	if access == nil {
		f.decl.err = errors.New("nil accessor")
	} else {
		c, err := codecFor(access)
		f.codec = c
		f.decl.kind = c.kind
		f.decl.err = err
	}
	b.fields = append(b.fields, f)
	return f
}

// FieldDecl carries the annotations of one member.
type FieldDecl[T any] struct {
	decl  ColumnDecl
	codec codec[T]
}

// PrimaryKey marks the member as the table's primary key.
func (f *FieldDecl[T]) PrimaryKey() *FieldDecl[T] {
	f.decl.PrimaryKey = true
	return f
}

// AutoIncrement lets the engine assign the key. Requires an integer key.
func (f *FieldDecl[T]) AutoIncrement() *FieldDecl[T] {
	f.decl.AutoIncrement = true
	return f
}

// Indexed adds the column to a non-unique index named <table>_<column>.
func (f *FieldDecl[T]) Indexed() *FieldDecl[T] {
	return f.InIndex("", false)
}

// Unique adds the column to a unique index named <table>_<column>.
func (f *FieldDecl[T]) Unique() *FieldDecl[T] {
	return f.InIndex("", true)
}

// InIndex adds the column to the named index. Columns sharing a name form
// a composite index ordered by declaration. An empty name means
// <table>_<column>.
func (f *FieldDecl[T]) InIndex(name string, unique bool) *FieldDecl[T] {
	f.decl.Indexes = append(f.decl.Indexes, IndexDecl{Name: name, Unique: unique})
	return f
}

// MaxLength limits text length (in characters) or blob length (in bytes).
// The limit is checked before insert and update.
func (f *FieldDecl[T]) MaxLength(n int) *FieldDecl[T] {
	if n <= 0 && f.decl.err == nil {
		f.decl.err = fmt.Errorf("max length must be positive, got %d", n)
	}
	f.decl.MaxLength = n
	return f
}

// Ignore excludes the member from mapping.
func (f *FieldDecl[T]) Ignore() *FieldDecl[T] {
	f.decl.Ignore = true
	return f
}

// Column overrides the SQL column name. The default is the member name.
func (f *FieldDecl[T]) Column(name string) *FieldDecl[T] {
	f.decl.Column = name
	return f
}

// NotNull declares the column NOT NULL.
func (f *FieldDecl[T]) NotNull() *FieldDecl[T] {
	f.decl.NotNull = true
	return f
}

// TableDecl is a type-independent table declaration. Typed declarations
// lower to it before validation; the CUE compiler produces it directly.
type TableDecl struct {
	Name    string
	Columns []ColumnDecl
}

// ColumnDecl is the declaration of one member.
type ColumnDecl struct {
	Member        string
	Column        string
	Type          string
	PrimaryKey    bool
	AutoIncrement bool
	NotNull       bool
	MaxLength     int
	Ignore        bool
	Indexes       []IndexDecl

	kind valueKind
	err  error
}

// IndexDecl places a column in an index.
type IndexDecl struct {
	Name   string
	Unique bool
}
