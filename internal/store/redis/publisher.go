// Package redis fans trading signals out to Redis streams for downstream
// consumers.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mltrader/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const (
	signalMaxLen     = 10000
	defaultLatestTTL = 30 * time.Minute
	publishTimeout   = 2 * time.Second
)

// Config configures the publisher.
type Config struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// Publisher writes actions, acks and timeouts of a run to Redis.
//
// Keys per instrument code (slash removed, e.g. ENJUSDT):
//
//	signal:{code}          stream of every event (XADD, trimmed)
//	signal:{code}:latest   last event JSON (SET with TTL)
//	pub:signal:{code}      pubsub channel
type Publisher struct {
	client  *goredis.Client
	runID   string
	breaker *CircuitBreaker
	log     *slog.Logger
}

// New connects, pings the server and returns a Publisher tagged with runID.
func New(cfg Config, runID string, log *slog.Logger) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Info("redis connected", "addr", cfg.Addr)
	return newPublisher(client, runID, log), nil
}

func newPublisher(client *goredis.Client, runID string, log *slog.Logger) *Publisher {
	cb := NewCircuitBreaker(5, 10*time.Second)
	cb.OnStateChange = func(from, to BreakerState) {
		log.Warn("redis circuit breaker", "from", from.String(), "to", to.String())
	}
	return &Publisher{client: client, runID: runID, breaker: cb, log: log}
}

// Event is the payload written for every published item.
type Event struct {
	RunID string    `json:"run_id"`
	Kind  string    `json:"kind"` // action | ack | timeout
	Code  string    `json:"code"`
	At    time.Time `json:"at"`
	Data  any       `json:"data"`
}

// StreamKey returns the signal stream for an instrument code.
func StreamKey(code string) string {
	return "signal:" + strings.ReplaceAll(code, "/", "")
}

// PublishAction publishes an order-bearing action.
func (p *Publisher) PublishAction(ctx context.Context, a model.Action) error {
	return p.publish(ctx, Event{RunID: p.runID, Kind: "action", Code: a.Code, At: a.TS, Data: a})
}

// PublishAck publishes an execution acknowledgement.
func (p *Publisher) PublishAck(ctx context.Context, ack model.Ack) error {
	return p.publish(ctx, Event{RunID: p.runID, Kind: "ack", Code: ack.Code, At: ack.FilledAt, Data: ack})
}

// PublishTimeout publishes an order timeout.
func (p *Publisher) PublishTimeout(ctx context.Context, to model.Timeout) error {
	return p.publish(ctx, Event{RunID: p.runID, Kind: "timeout", Code: to.Code, At: to.At, Data: to})
}

func (p *Publisher) publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Kind, err)
	}
	stream := StreamKey(ev.Code)
	return p.breaker.Execute(func() error {
		ctx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()

		pipe := p.client.Pipeline()
		pipe.XAdd(ctx, &goredis.XAddArgs{
			Stream: stream,
			MaxLen: signalMaxLen,
			Approx: true,
			Values: map[string]interface{}{"data": data},
		})
		pipe.Set(ctx, stream+":latest", data, defaultLatestTTL)
		pipe.Publish(ctx, "pub:"+stream, data)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("redis publish %s: %w", stream, err)
		}
		return nil
	})
}

// Close closes the client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
