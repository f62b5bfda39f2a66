package store

import (
	"time"

	"github.com/roach88/litemap/internal/schema"
)

type stock struct {
	ID     int64
	Symbol string
}

func (stock) DeclareTable(t *schema.Builder[stock]) {
	t.Table("stocks")
	schema.Field(t, "Id", func(s *stock) *int64 { return &s.ID }).PrimaryKey().AutoIncrement()
	schema.Field(t, "Symbol", func(s *stock) *string { return &s.Symbol }).MaxLength(8).Unique()
}

type valuation struct {
	ID      int64
	StockID int64
	Time    time.Time
	Price   float64
	Audited bool
	Note    *string
	Raw     []byte
	Cached  string
}

func (valuation) DeclareTable(t *schema.Builder[valuation]) {
	t.Table("valuations")
	schema.Field(t, "Id", func(v *valuation) *int64 { return &v.ID }).PrimaryKey().AutoIncrement()
	schema.Field(t, "StockId", func(v *valuation) *int64 { return &v.StockID }).Indexed()
	schema.Field(t, "Time", func(v *valuation) *time.Time { return &v.Time })
	schema.Field(t, "Price", func(v *valuation) *float64 { return &v.Price })
	schema.Field(t, "Audited", func(v *valuation) *bool { return &v.Audited })
	schema.Field(t, "Note", func(v *valuation) **string { return &v.Note })
	schema.Field(t, "Raw", func(v *valuation) *[]byte { return &v.Raw })
	schema.Field(t, "Cached", func(v *valuation) *string { return &v.Cached }).Ignore()
}

// setting has a caller-assigned text key.
type setting struct {
	Key   string
	Value string
}

func (setting) DeclareTable(t *schema.Builder[setting]) {
	t.Table("settings")
	schema.Field(t, "Key", func(s *setting) *string { return &s.Key }).PrimaryKey()
	schema.Field(t, "Value", func(s *setting) *string { return &s.Value }).Column("val")
}

// event has no primary key.
type event struct {
	Name string
}

func (event) DeclareTable(t *schema.Builder[event]) {
	t.Table("events")
	schema.Field(t, "Name", func(e *event) *string { return &e.Name })
}

type broken struct {
	A int64
	B int64
}

func (broken) DeclareTable(t *schema.Builder[broken]) {
	schema.Field(t, "A", func(b *broken) *int64 { return &b.A }).PrimaryKey()
	schema.Field(t, "B", func(b *broken) *int64 { return &b.B }).PrimaryKey()
}

func strPtr(s string) *string { return &s }
