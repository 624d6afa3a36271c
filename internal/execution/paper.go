// Package execution simulates order execution against historical bars.
//
// Orders submitted while bar t is current are matched on bar t+1. Each
// order produces exactly one event: an Ack when it fills or a Timeout when
// it is cancelled unfilled.
package execution

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"

	"mltrader/internal/model"
	"mltrader/internal/portfolio"
)

var (
	ErrNotAnOrder  = errors.New("action is not an order")
	ErrDuplicateID = errors.New("order id already submitted")
)

// Timeout reasons.
const (
	ReasonNotMarketable = "ioc limit not marketable"
	ReasonNoCash        = "insufficient cash"
	ReasonNoPosition    = "no position to sell"
	ReasonCancelled     = "cancelled at end of run"
)

// PaperConfig sets the simulated fee schedule.
type PaperConfig struct {
	CommissionRate float64 // fraction of notional, e.g. 0.001
	MinCommission  float64
}

// PaperEngine fills orders against bars and keeps the ledger and a techan
// trading record in sync.
type PaperEngine struct {
	cfg    PaperConfig
	ledger *portfolio.Ledger
	record *techan.TradingRecord
	log    *slog.Logger

	queue []model.Action
	seen  map[string]bool
}

// NewPaperEngine creates a paper engine over ledger.
func NewPaperEngine(cfg PaperConfig, ledger *portfolio.Ledger, log *slog.Logger) *PaperEngine {
	if log == nil {
		log = slog.Default()
	}
	return &PaperEngine{
		cfg:    cfg,
		ledger: ledger,
		record: techan.NewTradingRecord(),
		log:    log.With(slog.String("component", "paper")),
		seen:   make(map[string]bool),
	}
}

// Submit queues an order for the next bar.
func (p *PaperEngine) Submit(a model.Action) error {
	if !a.IsOrder() {
		return fmt.Errorf("%w: %s", ErrNotAnOrder, a.Kind)
	}
	if p.seen[a.OrderID] {
		return fmt.Errorf("%w: %s", ErrDuplicateID, a.OrderID)
	}
	p.seen[a.OrderID] = true
	p.queue = append(p.queue, a)
	return nil
}

// Pending is the number of queued orders.
func (p *PaperEngine) Pending() int { return len(p.queue) }

// AvailableCash reads the ledger.
func (p *PaperEngine) AvailableCash() float64 { return p.ledger.Cash() }

// Equity is cash plus open positions marked at the last matched bar.
func (p *PaperEngine) Equity() float64 { return p.ledger.Equity() }

// Ledger returns the account ledger.
func (p *PaperEngine) Ledger() *portfolio.Ledger { return p.ledger }

// Record returns the techan trading record of every filled order.
func (p *PaperEngine) Record() *techan.TradingRecord { return p.record }

// Match fills or cancels every queued order against bar, then marks open
// positions to the bar close.
func (p *PaperEngine) Match(code string, bar model.Bar) ([]model.Ack, []model.Timeout) {
	var acks []model.Ack
	var timeouts []model.Timeout

	queue := p.queue
	p.queue = nil
	for _, a := range queue {
		var ack model.Ack
		var reason string
		switch a.Kind {
		case model.ActionEnterLong:
			ack, reason = p.fillBuy(a, bar)
		case model.ActionExitLong:
			ack, reason = p.fillSell(a, bar)
		}
		if reason != "" {
			timeouts = append(timeouts, model.Timeout{OrderID: a.OrderID, Code: a.Code, Kind: a.Kind, Reason: reason, At: bar.TS})
			p.log.Info("order timeout", "order", a.OrderID, "kind", string(a.Kind), "reason", reason)
			continue
		}
		acks = append(acks, ack)
		p.log.Info(fmt.Sprintf("%s order %s executed", ack.Side, ack.OrderID),
			"qty", ack.Qty, "code", ack.Code, "price", ack.Price, "commission", ack.Commission,
			"cash", ack.Cash, "position", p.ledger.Quantity(ack.Code), "pnl", ack.PnL, "pnl_net", ack.PnLNet)
		if !ack.IsOpen {
			p.log.Info("trade closed", "order", ack.OrderID, "pnl", ack.PnL)
		}
	}

	p.ledger.Mark(code, bar.Close)
	return acks, timeouts
}

// CancelAll drops every queued order, reporting each as a timeout.
func (p *PaperEngine) CancelAll(at time.Time) []model.Timeout {
	var out []model.Timeout
	for _, a := range p.queue {
		out = append(out, model.Timeout{OrderID: a.OrderID, Code: a.Code, Kind: a.Kind, Reason: ReasonCancelled, At: at})
	}
	p.queue = nil
	return out
}

func (p *PaperEngine) commission(notional float64) float64 {
	return math.Max(notional*p.cfg.CommissionRate, p.cfg.MinCommission)
}

// fillBuy spends up to a.Capital at the bar close, leaving room for commission.
func (p *PaperEngine) fillBuy(a model.Action, bar model.Bar) (model.Ack, string) {
	price := bar.Close
	budget := math.Min(a.Capital, p.ledger.Cash())
	qty := budget / (price * (1 + p.cfg.CommissionRate))
	comm := p.commission(qty * price)
	if qty*price+comm > budget {
		qty = (budget - comm) / price
	}
	if qty <= 0 {
		return model.Ack{}, ReasonNoCash
	}
	if err := p.ledger.Buy(a.Code, qty, price, comm, bar.TS); err != nil {
		p.log.Warn("buy rejected by ledger", "order", a.OrderID, "err", err)
		return model.Ack{}, ReasonNoCash
	}
	p.operate(techan.BUY, a.Code, price, qty, bar.TS)

	return model.Ack{
		OrderID:    a.OrderID,
		Code:       a.Code,
		Side:       model.SideBuy,
		Price:      price,
		Qty:        qty,
		Commission: comm,
		PnLNet:     -comm,
		IsOpen:     true,
		Cash:       p.ledger.Cash(),
		FilledAt:   bar.TS,
	}, ""
}

// fillSell fills a limit sell when the bar trades through the limit and
// cancels it otherwise; a sell without a limit fills at the close.
func (p *PaperEngine) fillSell(a model.Action, bar model.Bar) (model.Ack, string) {
	held := p.ledger.Quantity(a.Code)
	if held <= 0 {
		return model.Ack{}, ReasonNoPosition
	}
	qty := a.Qty
	if qty <= 0 || qty > held {
		qty = held
	}

	price := bar.Close
	if a.Price > 0 {
		if bar.High < a.Price {
			return model.Ack{}, ReasonNotMarketable
		}
		// a bar that opens through the limit fills at the open
		price = math.Max(a.Price, bar.Open)
	}

	comm := p.commission(qty * price)
	pnl, pnlNet, err := p.ledger.Sell(a.Code, qty, price, comm, bar.TS)
	if err != nil {
		p.log.Warn("sell rejected by ledger", "order", a.OrderID, "err", err)
		return model.Ack{}, ReasonNoPosition
	}
	p.operate(techan.SELL, a.Code, price, qty, bar.TS)

	return model.Ack{
		OrderID:    a.OrderID,
		Code:       a.Code,
		Side:       model.SideSell,
		Price:      price,
		Qty:        qty,
		Commission: comm,
		PnL:        pnl,
		PnLNet:     pnlNet,
		IsOpen:     p.ledger.Quantity(a.Code) > 0,
		Cash:       p.ledger.Cash(),
		FilledAt:   bar.TS,
	}, ""
}

func (p *PaperEngine) operate(side techan.OrderSide, code string, price, qty float64, ts time.Time) {
	p.record.Operate(techan.Order{
		Side:          side,
		Security:      code,
		Price:         big.NewDecimal(price),
		Amount:        big.NewDecimal(qty),
		ExecutionTime: ts,
	})
}
