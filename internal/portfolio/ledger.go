// Package portfolio tracks cash, positions, and realized P&L for the
// simulated account.
//
// The Ledger is the single writer of account state. The execution engine
// mutates it on fills; everything else reads snapshots.
package portfolio

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	ErrInsufficientCash = errors.New("insufficient cash")
	ErrNoPosition       = errors.New("no open position")
	ErrInvalidFill      = errors.New("fill quantity and price must be positive")
)

// Position is the open holding in one instrument.
type Position struct {
	Code       string  `json:"code"`
	Qty        float64 `json:"qty"`
	AvgPrice   float64 `json:"avg_price"`
	Commission float64 `json:"commission"` // entry commission not yet realized
	LastPrice  float64 `json:"last_price"`
}

// UnrealizedPnL at the last marked price.
func (p *Position) UnrealizedPnL() float64 {
	return (p.LastPrice - p.AvgPrice) * p.Qty
}

// Trade is one fill recorded in the ledger.
type Trade struct {
	Code       string    `json:"code"`
	Side       string    `json:"side"` // BUY or SELL
	Qty        float64   `json:"qty"`
	Price      float64   `json:"price"`
	Commission float64   `json:"commission"`
	PnL        float64   `json:"pnl"`
	PnLNet     float64   `json:"pnl_net"`
	Timestamp  time.Time `json:"timestamp"`
}

// Ledger holds cash and positions.
type Ledger struct {
	mu          sync.RWMutex
	initialCash float64
	cash        float64
	positions   map[string]*Position
	trades      []Trade

	realizedPnL float64
	commission  float64
}

// NewLedger creates a ledger funded with cash.
func NewLedger(cash float64) *Ledger {
	return &Ledger{
		initialCash: cash,
		cash:        cash,
		positions:   make(map[string]*Position),
		trades:      make([]Trade, 0, 256),
	}
}

// Buy debits qty*price+commission and adds to the position at a weighted
// average price.
func (l *Ledger) Buy(code string, qty, price, commission float64, ts time.Time) error {
	if qty <= 0 || price <= 0 {
		return ErrInvalidFill
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	debit := qty*price + commission
	if debit > l.cash+1e-9 {
		return fmt.Errorf("%w: need %.4f, have %.4f", ErrInsufficientCash, debit, l.cash)
	}
	l.cash -= debit
	l.commission += commission

	pos, ok := l.positions[code]
	if !ok {
		pos = &Position{Code: code}
		l.positions[code] = pos
	}
	totalCost := pos.AvgPrice*pos.Qty + price*qty
	pos.Qty += qty
	pos.AvgPrice = totalCost / pos.Qty
	pos.Commission += commission
	pos.LastPrice = price

	l.trades = append(l.trades, Trade{Code: code, Side: "BUY", Qty: qty, Price: price, Commission: commission, PnLNet: -commission, Timestamp: ts})
	return nil
}

// Sell reduces the position and realizes P&L. pnlNet also charges the
// entry commission attributable to the sold quantity.
func (l *Ledger) Sell(code string, qty, price, commission float64, ts time.Time) (pnl, pnlNet float64, err error) {
	if qty <= 0 || price <= 0 {
		return 0, 0, ErrInvalidFill
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	pos, ok := l.positions[code]
	if !ok || pos.Qty <= 0 {
		return 0, 0, ErrNoPosition
	}
	if qty > pos.Qty {
		qty = pos.Qty
	}

	entryComm := pos.Commission * qty / pos.Qty
	pnl = (price - pos.AvgPrice) * qty
	pnlNet = pnl - entryComm - commission

	l.cash += qty*price - commission
	l.commission += commission
	l.realizedPnL += pnl

	pos.Qty -= qty
	pos.Commission -= entryComm
	pos.LastPrice = price
	if pos.Qty <= 1e-12 {
		delete(l.positions, code)
	}

	l.trades = append(l.trades, Trade{Code: code, Side: "SELL", Qty: qty, Price: price, Commission: commission, PnL: pnl, PnLNet: pnlNet, Timestamp: ts})
	return pnl, pnlNet, nil
}

// Mark updates the last price used for unrealized P&L and equity.
func (l *Ledger) Mark(code string, price float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if pos, ok := l.positions[code]; ok {
		pos.LastPrice = price
	}
}

// Cash is the available cash.
func (l *Ledger) Cash() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cash
}

// Quantity held in code; zero when flat.
func (l *Ledger) Quantity(code string) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if pos, ok := l.positions[code]; ok {
		return pos.Qty
	}
	return 0
}

// Position returns a copy of the open position in code.
func (l *Ledger) Position(code string) (Position, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	pos, ok := l.positions[code]
	if !ok {
		return Position{}, false
	}
	return *pos, true
}

// Equity is cash plus positions at their last marked price.
func (l *Ledger) Equity() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	eq := l.cash
	for _, p := range l.positions {
		eq += p.LastPrice * p.Qty
	}
	return eq
}

// Trades returns a snapshot of all fills.
func (l *Ledger) Trades() []Trade {
	l.mu.RLock()
	defer l.mu.RUnlock()
	cp := make([]Trade, len(l.trades))
	copy(cp, l.trades)
	return cp
}

// Summary of the account.
type Summary struct {
	InitialCash   float64 `json:"initial_cash"`
	Cash          float64 `json:"cash"`
	Equity        float64 `json:"equity"`
	RealizedPnL   float64 `json:"realized_pnl"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
	Commission    float64 `json:"commission"`
	Fills         int     `json:"fills"`
	OpenPositions int     `json:"open_positions"`
}

// GetSummary returns the current account summary.
func (l *Ledger) GetSummary() Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := Summary{
		InitialCash: l.initialCash,
		Cash:        l.cash,
		Equity:      l.cash,
		RealizedPnL: l.realizedPnL,
		Commission:  l.commission,
		Fills:       len(l.trades),
	}
	for _, p := range l.positions {
		s.OpenPositions++
		s.UnrealizedPnL += p.UnrealizedPnL()
		s.Equity += p.LastPrice * p.Qty
	}
	return s
}
