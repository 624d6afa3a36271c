// Package decision turns per-bar class predictions into long/flat orders.
//
// The Engine is a two-phase state machine. An emitted order moves it into a
// pending state; only an acknowledgement from the execution engine commits
// the transition, and a timeout rolls it back. While an order is pending
// every prediction yields Hold, so the engine can never stack a second entry
// or exit on top of an unconfirmed one.
package decision

import (
	"fmt"
	"log/slog"

	"mltrader/internal/model"
)

// State of the engine.
type State int

const (
	Flat State = iota
	PendingEntry
	Long
	PendingExit
)

func (s State) String() string {
	switch s {
	case Flat:
		return "FLAT"
	case PendingEntry:
		return "PENDING_ENTRY"
	case Long:
		return "LONG"
	case PendingExit:
		return "PENDING_EXIT"
	}
	return "UNKNOWN"
}

// Position is the committed position: Flat or Long.
func (s State) Position() State {
	switch s {
	case PendingEntry:
		return Flat
	case PendingExit:
		return Long
	}
	return s
}

// Rejection reasons carried on Hold actions.
const (
	ReasonAlreadyLong = "already long"
	ReasonNotLong     = "no position to exit"
	ReasonPending     = "awaiting acknowledgement"
	ReasonNoCash      = "no available cash"
	ReasonUndefined   = "undefined prediction"
)

// Account is the read-only ledger view the engine sizes orders from.
type Account struct {
	AvailableCash float64
}

// Engine decides once per bar for a single instrument.
type Engine struct {
	code      string
	threshold float64
	log       *slog.Logger

	state   State
	pending string // order id awaiting ack
	seq     int

	qty  float64 // open quantity from the entry ack
	cost float64 // cost basis of the open trade
}

// New creates an engine in the Flat state. threshold sets the exit limit
// price at close*(1+threshold).
func New(code string, threshold float64, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		code:      code,
		threshold: threshold,
		log:       log.With(slog.String("component", "decision"), slog.String("code", code)),
	}
}

func (e *Engine) State() State { return e.state }

// Pending returns the id of the unacknowledged order, if any.
func (e *Engine) Pending() (string, bool) {
	return e.pending, e.pending != ""
}

// OpenQty is the quantity held once an entry has been acknowledged.
func (e *Engine) OpenQty() float64 { return e.qty }

// Decide evaluates one bar. Orders come back with an OrderID and leave the
// engine pending; everything else is a Hold, with Reason set when the
// prediction asked for a transition the current state forbids.
func (e *Engine) Decide(t int, bar model.Bar, pred model.Label, acct Account) model.Action {
	hold := model.Action{Kind: model.ActionHold, Code: e.code, Bar: t, TS: bar.TS}

	if !pred.Defined() {
		hold.Reason = ReasonUndefined
		return hold
	}

	switch e.state {
	case PendingEntry, PendingExit:
		if pred != model.LabelFlat {
			hold.Reason = ReasonPending
			e.reject(hold, pred)
		}
		return hold

	case Flat:
		switch pred {
		case model.LabelUp:
			if acct.AvailableCash <= 0 {
				hold.Reason = ReasonNoCash
				e.reject(hold, pred)
				return hold
			}
			a := model.Action{
				Kind:    model.ActionEnterLong,
				OrderID: e.nextID(),
				Code:    e.code,
				Bar:     t,
				TS:      bar.TS,
				Capital: acct.AvailableCash,
				TIF:     model.TIFDay,
			}
			e.state = PendingEntry
			e.pending = a.OrderID
			e.log.Info("BUY order created", "order", a.OrderID, "capital", a.Capital, "close", bar.Close)
			return a
		case model.LabelDown:
			hold.Reason = ReasonNotLong
			e.reject(hold, pred)
		}
		return hold

	case Long:
		switch pred {
		case model.LabelDown:
			a := model.Action{
				Kind:    model.ActionExitLong,
				OrderID: e.nextID(),
				Code:    e.code,
				Bar:     t,
				TS:      bar.TS,
				Qty:     e.qty,
				Price:   bar.Close * (1 + e.threshold),
				Cost:    e.cost,
				TIF:     model.TIFIOC,
			}
			e.state = PendingExit
			e.pending = a.OrderID
			e.log.Info("SELL order created", "order", a.OrderID, "qty", a.Qty, "limit", a.Price, "close", bar.Close)
			return a
		case model.LabelUp:
			hold.Reason = ReasonAlreadyLong
			e.reject(hold, pred)
		}
		return hold
	}
	return hold
}

// OnAck commits the pending transition. Acks for unknown orders, or whose
// open flag contradicts the pending side, are ignored and reported false.
func (e *Engine) OnAck(ack model.Ack) bool {
	if e.pending == "" || ack.OrderID != e.pending {
		e.log.Warn("ack for unknown order", "order", ack.OrderID, "pending", e.pending)
		return false
	}
	switch {
	case e.state == PendingEntry && ack.IsOpen:
		e.state = Long
		e.qty = ack.Qty
		e.cost = ack.Price * ack.Qty
	case e.state == PendingExit && !ack.IsOpen:
		e.state = Flat
		e.qty = 0
		e.cost = 0
	default:
		e.log.Warn("ack does not match pending transition", "order", ack.OrderID, "state", e.state.String(), "is_open", ack.IsOpen)
		return false
	}
	e.pending = ""
	return true
}

// OnTimeout rolls a pending transition back to the committed state.
func (e *Engine) OnTimeout(to model.Timeout) bool {
	if e.pending == "" || to.OrderID != e.pending {
		return false
	}
	e.state = e.state.Position()
	e.pending = ""
	e.log.Info("order timed out, transition reverted", "order", to.OrderID, "state", e.state.String(), "reason", to.Reason)
	return true
}

func (e *Engine) reject(a model.Action, pred model.Label) {
	e.log.Debug("transition rejected", "bar", a.Bar, "state", e.state.String(), "pred", pred.String(), "reason", a.Reason)
}

func (e *Engine) nextID() string {
	e.seq++
	return fmt.Sprintf("%s-%d", e.code, e.seq)
}
