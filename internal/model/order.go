package model

import "time"

// ActionKind is the decision emitted for a bar.
type ActionKind string

const (
	ActionHold      ActionKind = "HOLD"
	ActionEnterLong ActionKind = "ENTER_LONG"
	ActionExitLong  ActionKind = "EXIT_LONG"
)

// TimeInForce of an emitted order.
type TimeInForce string

const (
	TIFDay TimeInForce = "DAY"
	TIFIOC TimeInForce = "IOC" // immediate-or-cancel
)

// Side of a filled order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Action is what the decision engine asks the execution engine to do.
// Hold actions carry a Reason when a transition was rejected.
type Action struct {
	Kind    ActionKind  `json:"kind"`
	OrderID string      `json:"order_id,omitempty"`
	Code    string      `json:"code"`
	Bar     int         `json:"bar"`
	TS      time.Time   `json:"ts"`
	Capital float64     `json:"capital,omitempty"`    // enter-long: cash to commit
	Qty     float64     `json:"qty,omitempty"`        // exit-long: quantity to sell
	Price   float64     `json:"price,omitempty"`      // exit-long: limit price
	Cost    float64     `json:"cost_basis,omitempty"` // exit-long: cost of the open trade
	TIF     TimeInForce `json:"tif,omitempty"`
	Reason  string      `json:"reason,omitempty"`
}

// IsOrder reports whether the action should reach the execution engine.
func (a Action) IsOrder() bool {
	return a.Kind == ActionEnterLong || a.Kind == ActionExitLong
}

// Ack is the execution engine's confirmation that an order filled.
type Ack struct {
	OrderID    string    `json:"order_id"`
	Code       string    `json:"code"`
	Side       Side      `json:"side"`
	Price      float64   `json:"price"`
	Qty        float64   `json:"qty"`
	Commission float64   `json:"commission"`
	PnL        float64   `json:"pnl"`     // gross realized
	PnLNet     float64   `json:"pnl_net"` // realized after both legs' commission
	IsOpen     bool      `json:"is_open"` // position still open after this fill
	Cash       float64   `json:"cash"`    // available cash after the fill
	FilledAt   time.Time `json:"filled_at"`
}

// Timeout reports that an order expired or was cancelled without a fill.
type Timeout struct {
	OrderID string     `json:"order_id"`
	Code    string     `json:"code"`
	Kind    ActionKind `json:"kind"`
	Reason  string     `json:"reason"`
	At      time.Time  `json:"at"`
}
