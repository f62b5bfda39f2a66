package litemap_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/litemap"
)

type Stock struct {
	ID     int64
	Symbol string
}

func (Stock) DeclareTable(t *litemap.Builder[Stock]) {
	t.Table("stocks")
	litemap.Field(t, "Id", func(s *Stock) *int64 { return &s.ID }).PrimaryKey().AutoIncrement()
	litemap.Field(t, "Symbol", func(s *Stock) *string { return &s.Symbol }).MaxLength(8)
}

func TestPool_StockScenario(t *testing.T) {
	ctx := context.Background()
	pool := litemap.NewPool(litemap.PoolOptions{Registry: litemap.NewRegistry()})
	t.Cleanup(func() { _ = pool.Close(ctx) })

	conn, err := pool.Open(ctx, litemap.DefaultOptions(filepath.Join(t.TempDir(), "stocks.db")))
	require.NoError(t, err)

	litemap.CreateTableAsync[Stock](ctx, conn)
	first := litemap.InsertAsync(ctx, conn, &Stock{Symbol: "AAPL"})
	second := litemap.InsertAsync(ctx, conn, &Stock{Symbol: "MSFT"})

	n, err := first.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = second.Wait(ctx)
	require.NoError(t, err)

	list, err := litemap.TableAsync[Stock](conn).
		Where(litemap.StartsWith("Symbol", "A")).
		ToListAsync(ctx).
		Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Stock{{ID: 1, Symbol: "AAPL"}}, list)

	_, err = litemap.GetAsync[Stock](ctx, conn, int64(3)).Wait(ctx)
	assert.True(t, litemap.IsNotFound(err))
}

func TestConn_Blocking(t *testing.T) {
	ctx := context.Background()
	opts := litemap.DefaultOptions(filepath.Join(t.TempDir(), "stocks.db"))
	opts.Registry = litemap.NewRegistry()
	conn, err := litemap.Open(ctx, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = litemap.CreateTable[Stock](ctx, conn)
	require.NoError(t, err)

	s := &Stock{Symbol: "TOOLONGSYM"}
	_, err = litemap.Insert(ctx, conn, s)
	assert.True(t, litemap.IsConstraintError(err))

	s.Symbol = "NVDA"
	_, err = litemap.Insert(ctx, conn, s)
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.ID)

	count, err := litemap.Table[Stock](conn).Where(litemap.Eq("Symbol", "NVDA")).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = litemap.Table[Stock](conn).Take(1).Where(litemap.Eq("Id", 1)).ToList(ctx)
	assert.True(t, litemap.IsTranslationError(err))
}
