package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/sdcoffey/techan"

	"mltrader/internal/model"
	"mltrader/internal/portfolio"
)

// TradeStats summarises closed round trips.
type TradeStats struct {
	Trades       int     `json:"trades"`
	Wins         int     `json:"wins"`
	WinRate      float64 `json:"win_rate"`
	GrossProfit  float64 `json:"gross_profit"`
	PercentGain  float64 `json:"percent_gain"`
	ProfitFactor float64 `json:"profit_factor"`
}

// AnalyzeTrades reads the techan trading record of a run.
func AnalyzeTrades(record *techan.TradingRecord) TradeStats {
	s := TradeStats{
		Trades:      int(new(techan.NumTradesAnalysis).Analyze(record)),
		GrossProfit: new(techan.TotalProfitAnalysis).Analyze(record),
		PercentGain: new(techan.PercentGainAnalysis).Analyze(record),
	}
	var gain, loss float64
	for _, pos := range record.Trades {
		if !pos.IsClosed() {
			continue
		}
		p := pos.ExitValue().Sub(pos.CostBasis()).Float()
		if p > 0 {
			s.Wins++
			gain += p
		} else {
			loss -= p
		}
	}
	if s.Trades > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Trades)
	}
	if loss > 0 {
		s.ProfitFactor = gain / loss
	}
	return s
}

// Point is one equity sample.
type Point struct {
	Bar    int     `json:"bar"`
	Equity float64 `json:"equity"`
}

// MaxDrawdown is the deepest peak-to-trough fall of the curve, in percent (<= 0).
func MaxDrawdown(curve []Point) float64 {
	if len(curve) == 0 {
		return 0
	}
	peak, dd := curve[0].Equity, 0.0
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak <= 0 {
			continue
		}
		if d := (p.Equity - peak) / peak * 100; d < dd {
			dd = d
		}
	}
	return dd
}

// BuyAndHold is the return of holding the instrument from the first to the
// last close of the live window.
func BuyAndHold(bars []model.Bar) float64 {
	if len(bars) < 2 {
		return 0
	}
	return bars[len(bars)-1].Close/bars[0].Close - 1
}

// Summary is everything printed and persisted after a run.
type Summary struct {
	RunID       string            `json:"run_id"`
	Code        string            `json:"code"`
	ModelName   string            `json:"model_name"`
	Features    []string          `json:"features"`
	Bars        int               `json:"bars"`
	TrainRows   int               `json:"train_rows"`
	LiveBars    int               `json:"live_bars"`
	Scores      Scores            `json:"scores"`
	Trades      TradeStats        `json:"trades"`
	Account     portfolio.Summary `json:"account"`
	Return      float64           `json:"return"`
	BuyAndHold  float64           `json:"benchmark_return"`
	MaxDrawdown float64           `json:"max_drawdown_pct"`
	Timeouts    int               `json:"timeouts"`
	Rejected    int               `json:"rejected"`
}

// Print renders the summary box.
func (s Summary) Print(w io.Writer) {
	line := strings.Repeat("═", 44)
	row := func(k string, v any) { fmt.Fprintf(w, "║  %-20s %-20v ║\n", k, v) }

	fmt.Fprintln(w)
	fmt.Fprintf(w, "╔%s╗\n", line)
	fmt.Fprintf(w, "║  %-41s ║\n", "BACKTEST COMPLETE")
	fmt.Fprintf(w, "╠%s╣\n", line)
	row("Run:", s.RunID)
	row("Instrument:", s.Code)
	row("Model:", s.ModelName)
	row("Bars / train / live:", fmt.Sprintf("%d / %d / %d", s.Bars, s.TrainRows, s.LiveBars))
	row("Accuracy:", fmt.Sprintf("%.4f", s.Scores.Accuracy))
	row("F1 (weighted):", fmt.Sprintf("%.4f", s.Scores.WeightedF1))
	row("Trades:", s.Trades.Trades)
	row("Win rate:", fmt.Sprintf("%.2f%%", s.Trades.WinRate*100))
	row("Realized P&L:", fmt.Sprintf("%.2f", s.Account.RealizedPnL))
	row("Commission:", fmt.Sprintf("%.2f", s.Account.Commission))
	row("Equity:", fmt.Sprintf("%.2f", s.Account.Equity))
	row("Return:", fmt.Sprintf("%.2f%%", s.Return*100))
	row("Buy & hold:", fmt.Sprintf("%.2f%%", s.BuyAndHold*100))
	row("Max drawdown:", fmt.Sprintf("%.2f%%", s.MaxDrawdown))
	row("Timeouts / rejected:", fmt.Sprintf("%d / %d", s.Timeouts, s.Rejected))
	fmt.Fprintf(w, "╚%s╝\n", line)
}
