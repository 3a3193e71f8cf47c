package strategy

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"StockSeed/pkg/model"
)

// 年化使用的交易日数
const tradingDaysPerYear = 252

var ErrInvalidWindow = errors.New("均线窗口必须为正数")

// Params 均线交叉策略参数
type Params struct {
	ShortWindow int
	LongWindow  int
}

// Trade 一笔完成的多头交易
type Trade struct {
	EntryDate  time.Time `json:"entry_date"`
	ExitDate   time.Time `json:"exit_date"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	ProfitPct  float64   `json:"profit_pct"`
	Type       string    `json:"type"`
}

// Performance 策略表现，百分比字段以百分数表示
type Performance struct {
	TotalReturns     float64  `json:"total_returns"`
	WinRate          float64  `json:"win_rate"`
	TotalTrades      int      `json:"total_trades"`
	ProfitableTrades int      `json:"profitable_trades"`
	LosingTrades     int      `json:"losing_trades"`
	AverageWin       float64  `json:"average_win"`
	AverageLoss      float64  `json:"average_loss"`
	MaxDrawdown      float64  `json:"max_drawdown"`
	SharpeRatio      *float64 `json:"sharpe_ratio"`
	Trades           []Trade  `json:"trades"`
}

// point 计算过程中的单日状态
type point struct {
	datetime   time.Time
	close      float64
	signal     int
	position   int
	stratRet   float64
	cumulative float64
}

// MovingAverageCrossover 计算短期均线上穿/下穿长期均线策略的表现。
// 长期均线形成之前的数据不参与统计；信号转为+1且空仓时开仓，信号转负时平仓。
func MovingAverageCrossover(bars []*model.StockBar, params Params) (*Performance, error) {
	if params.ShortWindow <= 0 || params.LongWindow <= 0 {
		return nil, ErrInvalidWindow
	}

	sorted := make([]*model.StockBar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Datetime.Before(sorted[j].Datetime)
	})

	points := evaluate(sorted, params)
	perf := &Performance{Trades: []Trade{}}
	if len(points) == 0 {
		return perf, nil
	}

	perf.Trades = collectTrades(points)
	if len(perf.Trades) == 0 {
		return perf, nil
	}

	var winSum, lossSum float64
	for _, trade := range perf.Trades {
		if trade.ProfitPct > 0 {
			perf.ProfitableTrades++
			winSum += trade.ProfitPct
		} else {
			perf.LosingTrades++
			lossSum += trade.ProfitPct
		}
	}
	perf.TotalTrades = len(perf.Trades)
	perf.WinRate = float64(perf.ProfitableTrades) / float64(perf.TotalTrades) * 100
	if perf.ProfitableTrades > 0 {
		perf.AverageWin = winSum / float64(perf.ProfitableTrades)
	}
	if perf.LosingTrades > 0 {
		perf.AverageLoss = lossSum / float64(perf.LosingTrades)
	}

	perf.MaxDrawdown = maxDrawdown(points) * 100
	perf.SharpeRatio = sharpe(points)
	perf.TotalReturns = (points[len(points)-1].cumulative - 1) * 100
	return perf, nil
}

// evaluate 计算均线、信号与累计收益，只返回两条均线都已形成的日期
func evaluate(bars []*model.StockBar, params Params) []point {
	warmup := max(params.ShortWindow, params.LongWindow, 2) - 1
	if len(bars) <= warmup {
		return nil
	}

	var (
		shortSum, longSum float64
		prevSignal        int
		cumulative        = 1.0
		out               = make([]point, 0, len(bars)-warmup)
	)
	for i, bar := range bars {
		shortSum += bar.Close
		longSum += bar.Close
		if i >= params.ShortWindow {
			shortSum -= bars[i-params.ShortWindow].Close
		}
		if i >= params.LongWindow {
			longSum -= bars[i-params.LongWindow].Close
		}

		signal := 0
		if i >= params.ShortWindow-1 && i >= params.LongWindow-1 {
			shortMA := shortSum / float64(params.ShortWindow)
			longMA := longSum / float64(params.LongWindow)
			switch {
			case shortMA > longMA:
				signal = 1
			case shortMA < longMA:
				signal = -1
			}
		}

		var stratRet float64
		if i > 0 && bars[i-1].Close != 0 {
			ret := bar.Close/bars[i-1].Close - 1
			stratRet = float64(prevSignal) * ret
		}
		cumulative *= 1 + stratRet

		if i >= warmup {
			out = append(out, point{
				datetime:   bar.Datetime,
				close:      bar.Close,
				signal:     signal,
				position:   signal - prevSignal,
				stratRet:   stratRet,
				cumulative: cumulative,
			})
		}
		prevSignal = signal
	}
	return out
}

func collectTrades(points []point) []Trade {
	trades := []Trade{}
	holding := false
	var entry point

	for _, p := range points {
		switch {
		case p.position > 0 && p.signal == 1 && !holding:
			entry = p
			holding = true
		case p.position < 0 && holding:
			profit := 0.0
			if entry.close != 0 {
				profit = (p.close - entry.close) / entry.close * 100
			}
			trades = append(trades, Trade{
				EntryDate:  entry.datetime,
				ExitDate:   p.datetime,
				EntryPrice: entry.close,
				ExitPrice:  p.close,
				ProfitPct:  profit,
				Type:       "long",
			})
			holding = false
		}
	}
	return trades
}

func maxDrawdown(points []point) float64 {
	peak := points[0].cumulative
	var worst float64
	for _, p := range points {
		if p.cumulative > peak {
			peak = p.cumulative
		}
		if peak > 0 {
			worst = math.Max(worst, (peak-p.cumulative)/peak)
		}
	}
	return worst
}

// sharpe 样本标准差为零或样本不足时返回nil
func sharpe(points []point) *float64 {
	if len(points) < 2 {
		return nil
	}

	returns := make(stats.Float64Data, 0, len(points))
	for _, p := range points {
		returns = append(returns, p.stratRet)
	}

	mean, err := stats.Mean(returns)
	if err != nil {
		return nil
	}
	std, err := stats.StandardDeviationSample(returns)
	if err != nil || std == 0 {
		return nil
	}

	ratio := mean / std * math.Sqrt(tradingDaysPerYear)
	return &ratio
}
