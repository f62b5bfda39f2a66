// Package litemap maps Go record types onto SQLite tables.
//
// Entities declare their table once with DeclareTable. A Conn runs
// blocking operations; a Pool serializes work per database path and
// returns a Handle for every submitted operation.
//
//	type Stock struct {
//	    ID     int64
//	    Symbol string
//	}
//
//	func (Stock) DeclareTable(t *litemap.Builder[Stock]) {
//	    t.Table("stocks")
//	    litemap.Field(t, "Id", func(s *Stock) *int64 { return &s.ID }).PrimaryKey().AutoIncrement()
//	    litemap.Field(t, "Symbol", func(s *Stock) *string { return &s.Symbol }).MaxLength(8)
//	}
//
//	pool := litemap.NewPool(litemap.PoolOptions{})
//	conn, err := pool.Open(ctx, litemap.DefaultOptions("stocks.db"))
//	...
//	litemap.CreateTableAsync[Stock](ctx, conn)
//	id, err := litemap.InsertAsync(ctx, conn, &Stock{Symbol: "AAPL"}).Wait(ctx)
//	list, err := litemap.TableAsync[Stock](conn).
//	    Where(litemap.StartsWith("Symbol", "A")).
//	    ToListAsync(ctx).Wait(ctx)
package litemap

import (
	"context"

	"github.com/roach88/litemap/internal/dberr"
	"github.com/roach88/litemap/internal/engine"
	"github.com/roach88/litemap/internal/queryir"
	"github.com/roach88/litemap/internal/schema"
	"github.com/roach88/litemap/internal/store"
)

// Declarations.
type (
	Entity[T any]    = schema.Entity[T]
	Builder[T any]   = schema.Builder[T]
	FieldDecl[T any] = schema.FieldDecl[T]
	TableMap         = schema.TableMap
	ColumnMap        = schema.ColumnMap
	Registry         = schema.Registry
	RegistryOption   = schema.RegistryOption

	DateTimeConvention = schema.DateTimeConvention
)

const (
	DateTimeAsText     = schema.DateTimeAsText
	DateTimeAsUnixNano = schema.DateTimeAsUnixNano
)

// Field declares a mapped member of T. See schema.Field.
func Field[T, V any](b *Builder[T], member string, access func(*T) *V) *FieldDecl[T] {
	return schema.Field(b, member, access)
}

// NewRegistry creates an isolated mapping registry.
func NewRegistry(opts ...RegistryOption) *Registry { return schema.NewRegistry(opts...) }

// WithDateTimeConvention sets how a registry stores time.Time members.
func WithDateTimeConvention(conv DateTimeConvention) RegistryOption {
	return schema.WithDateTimeConvention(conv)
}

// TableFor returns the table metadata of T in r.
func TableFor[T Entity[T]](r *Registry) (*TableMap, error) { return schema.TableFor[T](r) }

// Errors.
type (
	Error     = dberr.Error
	ErrorCode = dberr.Code
)

var (
	IsSchemaError      = dberr.IsSchemaError
	IsTranslationError = dberr.IsTranslationError
	IsConstraintError  = dberr.IsConstraintError
	IsBusyError        = dberr.IsBusyError
	IsConnectionError  = dberr.IsConnectionError
	IsNotFound         = dberr.IsNotFound
	IsCanceled         = dberr.IsCanceled
)

// Predicates.
type Expr = queryir.Expr

var (
	Eq         = queryir.Eq
	Ne         = queryir.Ne
	Lt         = queryir.Lt
	Le         = queryir.Le
	Gt         = queryir.Gt
	Ge         = queryir.Ge
	StartsWith = queryir.StartsWith
	Contains   = queryir.Contains
	EndsWith   = queryir.EndsWith
	Null       = queryir.Null
	NotNull    = queryir.NotNull
	And        = queryir.AndOf
	Or         = queryir.OrOf
	Not        = queryir.NotOf
	Param      = queryir.Param
)

// Blocking connections.
type (
	Conn               = store.Conn
	Options            = store.Options
	CreateResult       = store.CreateResult
	Rows               = store.Rows
	Query[T Entity[T]] = store.Query[T]
)

// Open opens a blocking connection.
func Open(ctx context.Context, opts Options) (*Conn, error) { return store.Open(ctx, opts) }

// DefaultOptions returns read-write options that create path if needed.
func DefaultOptions(path string) Options { return store.DefaultOptions(path) }

// LoadOptions reads a YAML options file.
func LoadOptions(path string) (Options, error) { return store.LoadOptions(path) }

// DeriveKey stretches a passphrase into an encryption key.
func DeriveKey(passphrase, salt []byte) []byte { return store.DeriveKey(passphrase, salt) }

func CreateTable[T Entity[T]](ctx context.Context, c *Conn) (CreateResult, error) {
	return store.CreateTable[T](ctx, c)
}

func Insert[T Entity[T]](ctx context.Context, c *Conn, v *T) (int64, error) {
	return store.Insert(ctx, c, v)
}

func InsertOrReplace[T Entity[T]](ctx context.Context, c *Conn, v *T) (int64, error) {
	return store.InsertOrReplace(ctx, c, v)
}

func Update[T Entity[T]](ctx context.Context, c *Conn, v *T) (int64, error) {
	return store.Update(ctx, c, v)
}

func Delete[T Entity[T]](ctx context.Context, c *Conn, v *T) (int64, error) {
	return store.Delete(ctx, c, v)
}

func DeleteAll[T Entity[T]](ctx context.Context, c *Conn) (int64, error) {
	return store.DeleteAll[T](ctx, c)
}

func DeleteWhere[T Entity[T]](ctx context.Context, c *Conn, pred Expr) (int64, error) {
	return store.DeleteWhere[T](ctx, c, pred)
}

// Get returns the row with key, or a not-found error.
func Get[T Entity[T]](ctx context.Context, c *Conn, key any) (*T, error) {
	return store.Get[T](ctx, c, key)
}

// Find returns the row with key, or nil.
func Find[T Entity[T]](ctx context.Context, c *Conn, key any) (*T, error) {
	return store.Find[T](ctx, c, key)
}

func ExecuteScalar[V any](ctx context.Context, c *Conn, sqlText string, params ...any) (V, error) {
	return store.ExecuteScalar[V](ctx, c, sqlText, params...)
}

func QueryRaw[T Entity[T]](ctx context.Context, c *Conn, sqlText string, params ...any) ([]T, error) {
	return store.QueryRaw[T](ctx, c, sqlText, params...)
}

// Table starts a query over T's table.
func Table[T Entity[T]](c *Conn) *Query[T] { return store.Table[T](c) }

// Pooled connections.
type (
	Pool                    = engine.Pool
	PoolOptions             = engine.PoolOptions
	PoolConn                = engine.Conn
	Handle[R any]           = engine.Handle[R]
	AsyncQuery[T Entity[T]] = engine.AsyncQuery[T]
)

// NewPool creates an empty pool.
func NewPool(opts PoolOptions) *Pool { return engine.NewPool(opts) }

// Submit runs fn as one job on c's queue.
func Submit[R any](ctx context.Context, c *PoolConn, fn func(context.Context, *Conn) (R, error)) *Handle[R] {
	return engine.Submit(ctx, c, fn)
}

func CreateTableAsync[T Entity[T]](ctx context.Context, c *PoolConn) *Handle[CreateResult] {
	return engine.CreateTableAsync[T](ctx, c)
}

func InsertAsync[T Entity[T]](ctx context.Context, c *PoolConn, v *T) *Handle[int64] {
	return engine.InsertAsync(ctx, c, v)
}

func InsertOrReplaceAsync[T Entity[T]](ctx context.Context, c *PoolConn, v *T) *Handle[int64] {
	return engine.InsertOrReplaceAsync(ctx, c, v)
}

func UpdateAsync[T Entity[T]](ctx context.Context, c *PoolConn, v *T) *Handle[int64] {
	return engine.UpdateAsync(ctx, c, v)
}

func DeleteAsync[T Entity[T]](ctx context.Context, c *PoolConn, v *T) *Handle[int64] {
	return engine.DeleteAsync(ctx, c, v)
}

func DeleteAllAsync[T Entity[T]](ctx context.Context, c *PoolConn) *Handle[int64] {
	return engine.DeleteAllAsync[T](ctx, c)
}

func DeleteWhereAsync[T Entity[T]](ctx context.Context, c *PoolConn, pred Expr) *Handle[int64] {
	return engine.DeleteWhereAsync[T](ctx, c, pred)
}

func GetAsync[T Entity[T]](ctx context.Context, c *PoolConn, key any) *Handle[*T] {
	return engine.GetAsync[T](ctx, c, key)
}

func FindAsync[T Entity[T]](ctx context.Context, c *PoolConn, key any) *Handle[*T] {
	return engine.FindAsync[T](ctx, c, key)
}

func ExecuteAsync(ctx context.Context, c *PoolConn, sqlText string, params ...any) *Handle[int64] {
	return engine.ExecuteAsync(ctx, c, sqlText, params...)
}

func ExecuteScalarAsync[V any](ctx context.Context, c *PoolConn, sqlText string, params ...any) *Handle[V] {
	return engine.ExecuteScalarAsync[V](ctx, c, sqlText, params...)
}

func QueryAsync[T Entity[T]](ctx context.Context, c *PoolConn, sqlText string, params ...any) *Handle[[]T] {
	return engine.QueryAsync[T](ctx, c, sqlText, params...)
}

// RunInTransactionAsync runs fn inside a transaction as one job. fn must
// not submit to c.
func RunInTransactionAsync(ctx context.Context, c *PoolConn, fn func(context.Context, *Conn) error) *Handle[struct{}] {
	return engine.RunInTransactionAsync(ctx, c, fn)
}

// TableAsync starts a query over T's table whose terminals run on c's queue.
func TableAsync[T Entity[T]](c *PoolConn) *AsyncQuery[T] { return engine.TableAsync[T](c) }
