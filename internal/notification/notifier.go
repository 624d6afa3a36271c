// Package notification delivers run alerts (closed trades, order timeouts,
// run completion) to a log, a webhook or a Telegram chat.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"mltrader/internal/model"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	Send(ctx context.Context, alert Alert) error
}

// Config selects backends. Empty fields disable the backend.
type Config struct {
	WebhookURL    string
	TelegramToken string
	TelegramChat  string
}

// New builds the notifier for cfg. The log notifier is always included.
func New(cfg Config, log *slog.Logger) Notifier {
	m := Multi{NewLogNotifier(log)}
	if cfg.WebhookURL != "" {
		m = append(m, NewWebhookNotifier(cfg.WebhookURL, log))
	}
	if cfg.TelegramToken != "" && cfg.TelegramChat != "" {
		m = append(m, NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChat, log))
	}
	if len(m) == 1 {
		return m[0]
	}
	return m
}

// LogNotifier writes alerts to the structured log.
type LogNotifier struct {
	log *slog.Logger
}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	level := slog.LevelInfo
	switch alert.Level {
	case AlertWarning:
		level = slog.LevelWarn
	case AlertCritical:
		level = slog.LevelError
	}
	n.log.Log(ctx, level, alert.Title, "alert", alert.Message)
	return nil
}

// Multi fans an alert out to every backend and joins their errors.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, alert Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Send(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// TradeClosed describes the sell ack that closed a round trip.
func TradeClosed(ack model.Ack) Alert {
	level := AlertInfo
	if ack.PnLNet < 0 {
		level = AlertWarning
	}
	return Alert{
		Level: level,
		Title: "Trade closed " + ack.Code,
		Message: fmt.Sprintf("order %s sold %.6f @ %.6f, pnl %.4f, net %.4f, cash %.2f",
			ack.OrderID, ack.Qty, ack.Price, ack.PnL, ack.PnLNet, ack.Cash),
	}
}

// OrderTimeout describes an order the exchange did not fill.
func OrderTimeout(to model.Timeout) Alert {
	return Alert{
		Level:   AlertWarning,
		Title:   "Order timeout " + to.Code,
		Message: fmt.Sprintf("order %s (%s) not filled: %s", to.OrderID, to.Kind, to.Reason),
	}
}
