package schema

import (
	"sync/atomic"
	"time"
)

type stock struct {
	ID     int64
	Symbol string
	Note   string
}

func (stock) DeclareTable(t *Builder[stock]) {
	t.Table("stocks")
	Field(t, "Id", func(s *stock) *int64 { return &s.ID }).PrimaryKey().AutoIncrement()
	Field(t, "Symbol", func(s *stock) *string { return &s.Symbol }).MaxLength(8).Indexed()
	Field(t, "Note", func(s *stock) *string { return &s.Note }).Ignore()
}

type reading struct {
	Sensor   string
	Taken    time.Time
	Value    float64
	Valid    bool
	Comment  *string
	Raw      []byte
	Interval time.Duration
}

func (reading) DeclareTable(t *Builder[reading]) {
	Field(t, "Sensor", func(r *reading) *string { return &r.Sensor }).PrimaryKey()
	Field(t, "Taken", func(r *reading) *time.Time { return &r.Taken }).InIndex("by_sensor_time", true)
	Field(t, "Value", func(r *reading) *float64 { return &r.Value })
	Field(t, "Valid", func(r *reading) *bool { return &r.Valid }).NotNull()
	Field(t, "Comment", func(r *reading) **string { return &r.Comment })
	Field(t, "Raw", func(r *reading) *[]byte { return &r.Raw })
	Field(t, "Interval", func(r *reading) *time.Duration { return &r.Interval })
}

type twoKeys struct{ A, B int64 }

func (twoKeys) DeclareTable(t *Builder[twoKeys]) {
	Field(t, "A", func(v *twoKeys) *int64 { return &v.A }).PrimaryKey()
	Field(t, "B", func(v *twoKeys) *int64 { return &v.B }).PrimaryKey()
}

type textAutoKey struct{ Code string }

func (textAutoKey) DeclareTable(t *Builder[textAutoKey]) {
	Field(t, "Code", func(v *textAutoKey) *string { return &v.Code }).PrimaryKey().AutoIncrement()
}

type autoNonKey struct{ ID, Seq int64 }

func (autoNonKey) DeclareTable(t *Builder[autoNonKey]) {
	Field(t, "ID", func(v *autoNonKey) *int64 { return &v.ID }).PrimaryKey()
	Field(t, "Seq", func(v *autoNonKey) *int64 { return &v.Seq }).AutoIncrement()
}

type dupColumn struct{ A, B string }

func (dupColumn) DeclareTable(t *Builder[dupColumn]) {
	Field(t, "A", func(v *dupColumn) *string { return &v.A }).Column("name")
	Field(t, "B", func(v *dupColumn) *string { return &v.B }).Column("NAME")
}

type unsupported struct {
	ID   int64
	Tags map[string]string
}

func (unsupported) DeclareTable(t *Builder[unsupported]) {
	Field(t, "ID", func(v *unsupported) *int64 { return &v.ID }).PrimaryKey()
	Field(t, "Tags", func(v *unsupported) *map[string]string { return &v.Tags })
}

type ignoredUnsupported struct {
	ID   int64
	Tags map[string]string
}

func (ignoredUnsupported) DeclareTable(t *Builder[ignoredUnsupported]) {
	Field(t, "ID", func(v *ignoredUnsupported) *int64 { return &v.ID }).PrimaryKey()
	Field(t, "Tags", func(v *ignoredUnsupported) *map[string]string { return &v.Tags }).Ignore()
}

type onlyIgnored struct{ Note string }

func (onlyIgnored) DeclareTable(t *Builder[onlyIgnored]) {
	Field(t, "Note", func(v *onlyIgnored) *string { return &v.Note }).Ignore()
}

type badLength struct{ Name string }

func (badLength) DeclareTable(t *Builder[badLength]) {
	Field(t, "Name", func(v *badLength) *string { return &v.Name }).MaxLength(0)
}

type mixedIndex struct{ A, B string }

func (mixedIndex) DeclareTable(t *Builder[mixedIndex]) {
	Field(t, "A", func(v *mixedIndex) *string { return &v.A }).InIndex("ab", true)
	Field(t, "B", func(v *mixedIndex) *string { return &v.B }).InIndex("ab", false)
}

type nilAccessor struct{ A string }

func (nilAccessor) DeclareTable(t *Builder[nilAccessor]) {
	Field[nilAccessor, string](t, "A", nil)
}

var countedBuilds atomic.Int32

type counted struct{ ID int64 }

func (counted) DeclareTable(t *Builder[counted]) {
	countedBuilds.Add(1)
	Field(t, "ID", func(v *counted) *int64 { return &v.ID }).PrimaryKey()
}

type small struct{ N int8 }

func (small) DeclareTable(t *Builder[small]) {
	Field(t, "N", func(v *small) *int8 { return &v.N })
}

type optionalSmall struct {
	A *int8
	B *int16
	C *uint
	D *uint8
	E *uint16
}

func (optionalSmall) DeclareTable(t *Builder[optionalSmall]) {
	Field(t, "A", func(v *optionalSmall) **int8 { return &v.A })
	Field(t, "B", func(v *optionalSmall) **int16 { return &v.B })
	Field(t, "C", func(v *optionalSmall) **uint { return &v.C })
	Field(t, "D", func(v *optionalSmall) **uint8 { return &v.D })
	Field(t, "E", func(v *optionalSmall) **uint16 { return &v.E })
}
