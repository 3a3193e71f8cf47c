package strategy

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"StockSeed/pkg/model"
)

func barsFromCloses(closes ...float64) []*model.StockBar {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]*model.StockBar, 0, len(closes))
	for i, c := range closes {
		bars = append(bars, &model.StockBar{
			Datetime:   start.AddDate(0, 0, i),
			Close:      c,
			Instrument: "HINDALCO",
		})
	}
	return bars
}

// sampleSharpe 按样本标准差年化
func sampleSharpe(returns ...float64) float64 {
	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var sq float64
	for _, r := range returns {
		sq += (r - mean) * (r - mean)
	}
	std := math.Sqrt(sq / float64(len(returns)-1))
	return mean / std * math.Sqrt(252)
}

func TestMovingAverageCrossover(t *testing.T) {
	t.Run("one losing round trip", func(t *testing.T) {
		bars := barsFromCloses(10, 9, 8, 9, 11, 12, 10, 8, 7)

		perf, err := MovingAverageCrossover(bars, Params{ShortWindow: 2, LongWindow: 3})
		require.NoError(t, err)

		require.Equal(t, 1, perf.TotalTrades)
		require.Equal(t, 0, perf.ProfitableTrades)
		require.Equal(t, 1, perf.LosingTrades)
		require.Equal(t, 0.0, perf.WinRate)
		require.Equal(t, 0.0, perf.AverageWin)
		require.InDelta(t, (10.0-11.0)/11.0*100, perf.AverageLoss, 1e-9)

		trade := perf.Trades[0]
		require.Equal(t, bars[4].Datetime, trade.EntryDate)
		require.Equal(t, bars[6].Datetime, trade.ExitDate)
		require.Equal(t, 11.0, trade.EntryPrice)
		require.Equal(t, 10.0, trade.ExitPrice)
		require.Equal(t, "long", trade.Type)

		final := 0.875 * (7.0 / 9.0) * (12.0 / 11.0) * (5.0 / 6.0) * (9.0 / 8.0)
		require.InDelta(t, (final-1)*100, perf.TotalReturns, 1e-9)

		trough := 0.875 * (7.0 / 9.0) * (12.0 / 11.0) * (5.0 / 6.0)
		require.InDelta(t, (1-trough)*100, perf.MaxDrawdown, 1e-9)
		require.NotNil(t, perf.SharpeRatio)
		want := sampleSharpe(0, -1.0/8, -2.0/9, 1.0/11, -1.0/6, 0, 1.0/8)
		require.InDelta(t, want, *perf.SharpeRatio, 1e-9)
		require.InDelta(t, -5.132962264845808, *perf.SharpeRatio, 1e-9)
	})

	t.Run("flip from short to long opens a trade", func(t *testing.T) {
		// 信号在第5根K线由-1直接变为+1
		bars := barsFromCloses(10, 9, 8, 9, 11, 12, 13, 14, 12)

		perf, err := MovingAverageCrossover(bars, Params{ShortWindow: 2, LongWindow: 3})
		require.NoError(t, err)

		require.Equal(t, 1, perf.TotalTrades)
		require.Equal(t, 1, perf.ProfitableTrades)
		require.Equal(t, 100.0, perf.WinRate)

		trade := perf.Trades[0]
		require.Equal(t, bars[4].Datetime, trade.EntryDate)
		require.Equal(t, bars[8].Datetime, trade.ExitDate)
		require.Equal(t, 11.0, trade.EntryPrice)
		require.Equal(t, 12.0, trade.ExitPrice)
		require.InDelta(t, (12.0-11.0)/11.0*100, trade.ProfitPct, 1e-9)
		require.InDelta(t, (12.0-11.0)/11.0*100, perf.AverageWin, 1e-9)

		require.NotNil(t, perf.SharpeRatio)
		want := sampleSharpe(0, -1.0/8, -2.0/9, 1.0/11, 1.0/12, 1.0/13, -1.0/7)
		require.InDelta(t, want, *perf.SharpeRatio, 1e-9)
	})

	t.Run("flat returns have no sharpe ratio", func(t *testing.T) {
		require.Nil(t, sharpe([]point{{stratRet: 0.5}, {stratRet: 0.5}, {stratRet: 0.5}}))
		require.Nil(t, sharpe([]point{{stratRet: 0.5}}))
	})

	t.Run("input order does not matter", func(t *testing.T) {
		bars := barsFromCloses(10, 9, 8, 9, 11, 12, 10, 8, 7)
		reversed := make([]*model.StockBar, len(bars))
		for i, b := range bars {
			reversed[len(bars)-1-i] = b
		}

		want, err := MovingAverageCrossover(bars, Params{ShortWindow: 2, LongWindow: 3})
		require.NoError(t, err)
		got, err := MovingAverageCrossover(reversed, Params{ShortWindow: 2, LongWindow: 3})
		require.NoError(t, err)
		require.Equal(t, want, got)
	})

	t.Run("open position is not a trade", func(t *testing.T) {
		perf, err := MovingAverageCrossover(barsFromCloses(1, 2, 3, 4, 5, 6), Params{ShortWindow: 2, LongWindow: 3})
		require.NoError(t, err)
		require.Equal(t, &Performance{Trades: []Trade{}}, perf)
	})

	t.Run("not enough data", func(t *testing.T) {
		perf, err := MovingAverageCrossover(barsFromCloses(1, 2), Params{ShortWindow: 20, LongWindow: 50})
		require.NoError(t, err)
		require.Equal(t, 0, perf.TotalTrades)
		require.NotNil(t, perf.Trades)
	})

	t.Run("invalid window", func(t *testing.T) {
		_, err := MovingAverageCrossover(nil, Params{ShortWindow: 0, LongWindow: 50})
		require.ErrorIs(t, err, ErrInvalidWindow)
	})
}
