package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"StockSeed/pkg/model"
)

func setupTestDb(t *testing.T) *TimescaleDB {
	t.Helper()
	db, err := Open(sqlite.Open(filepath.Join(t.TempDir(), "stock.db")))
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })
	return db
}

func day(d int) time.Time {
	return time.Date(2023, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestStockDB(t *testing.T) {
	ctx := context.Background()

	t.Run("create and exists", func(t *testing.T) {
		stock := setupTestDb(t).Stock()

		exists, err := stock.ExistsByDatetime(ctx, day(2))
		require.NoError(t, err)
		require.False(t, exists)

		bar := &model.StockBar{
			Datetime:   day(2),
			Open:       100.5,
			High:       102,
			Low:        99.8,
			Close:      101.2,
			Volume:     15000,
			Instrument: "HINDALCO",
		}
		require.NoError(t, stock.Create(ctx, bar))
		require.NotEmpty(t, bar.ID)

		exists, err = stock.ExistsByDatetime(ctx, day(2))
		require.NoError(t, err)
		require.True(t, exists)

		got, err := stock.GetByDatetime(ctx, day(2))
		require.NoError(t, err)
		require.Equal(
			t,
			"",
			cmp.Diff(
				bar,
				got,
				cmpopts.IgnoreFields(model.StockBar{}, "CreatedAt"),
				cmpopts.EquateApproxTime(time.Millisecond),
			),
		)
	})

	t.Run("duplicate datetime", func(t *testing.T) {
		stock := setupTestDb(t).Stock()

		require.NoError(t, stock.Create(ctx, &model.StockBar{Datetime: day(3), Instrument: "HINDALCO"}))
		err := stock.Create(ctx, &model.StockBar{Datetime: day(3), Instrument: "HINDALCO"})
		require.Error(t, err)

		count, err := stock.Count(ctx, BarFilter{})
		require.NoError(t, err)
		require.Equal(t, int64(1), count)
	})

	t.Run("missing record", func(t *testing.T) {
		stock := setupTestDb(t).Stock()
		_, err := stock.GetByDatetime(ctx, day(9))
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list filters and ordering", func(t *testing.T) {
		stock := setupTestDb(t).Stock()
		for _, b := range []*model.StockBar{
			{Datetime: day(5), Close: 5, Instrument: "HINDALCO"},
			{Datetime: day(1), Close: 1, Instrument: "HINDALCO"},
			{Datetime: day(3), Close: 3, Instrument: "TATASTEEL"},
			{Datetime: day(4), Close: 4, Instrument: "HINDALCO"},
		} {
			require.NoError(t, stock.Create(ctx, b))
		}

		all, err := stock.List(ctx, BarFilter{})
		require.NoError(t, err)
		require.Len(t, all, 4)
		require.Equal(t, []float64{1, 3, 4, 5}, closes(all))

		hindalco, err := stock.List(ctx, BarFilter{Instrument: "HINDALCO", From: day(2)})
		require.NoError(t, err)
		require.Equal(t, []float64{4, 5}, closes(hindalco))

		limited, err := stock.List(ctx, BarFilter{To: day(4), Limit: 2})
		require.NoError(t, err)
		require.Equal(t, []float64{1, 3}, closes(limited))

		count, err := stock.Count(ctx, BarFilter{Instrument: "HINDALCO", From: day(2)})
		require.NoError(t, err)
		require.Equal(t, int64(2), count)

		count, err = stock.Count(ctx, BarFilter{To: day(4), Limit: 2})
		require.NoError(t, err)
		require.Equal(t, int64(3), count)
	})
}

func TestSessionClose(t *testing.T) {
	db, err := Open(sqlite.Open(filepath.Join(t.TempDir(), "stock.db")))
	require.NoError(t, err)
	require.NoError(t, db.Migrate())

	session := db.Session()
	require.NoError(t, session.Close())
	require.Error(t, db.Ping(context.Background()))
}

func closes(bars []*model.StockBar) []float64 {
	out := make([]float64, 0, len(bars))
	for _, b := range bars {
		out = append(out, b.Close)
	}
	return out
}
