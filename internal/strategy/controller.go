// Package strategy runs one instrument through training and the live loop.
//
// The Controller builds the feature frame once over the whole series, fits
// the classifier on the leading window, then walks the remaining bars in
// order: match the previous bar's orders, route acks and timeouts to the
// decision engine, predict, decide, submit. The frame and the fitted
// classifier are never mutated after training.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mltrader/internal/classifier"
	"mltrader/internal/decision"
	"mltrader/internal/feature"
	"mltrader/internal/label"
	"mltrader/internal/logger"
	"mltrader/internal/metrics"
	"mltrader/internal/model"
	"mltrader/internal/notification"
	"mltrader/internal/report"
)

var (
	ErrInsufficientHistory = errors.New("not enough bars for the training window")
	ErrNoTrainingRows      = errors.New("no complete labelled rows in the training window")
	ErrNotTrained          = errors.New("controller has not been trained")
)

// Config fixes the training window and the feature and label parameters.
type Config struct {
	Code     string
	PreTrain int // bars [0, PreTrain) form the training window
	Label    label.Params
	Feature  feature.Params
	Columns  []feature.Column // model inputs; defaults to feature.Columns
}

// DefaultConfig returns the settings of the reference strategy.
func DefaultConfig(code string) Config {
	return Config{
		Code:     code,
		PreTrain: 3500,
		Label:    label.DefaultParams(),
		Feature:  feature.DefaultParams(),
		Columns:  feature.Columns,
	}
}

// Executor is the execution engine the controller trades through.
type Executor interface {
	Submit(a model.Action) error
	Match(code string, bar model.Bar) ([]model.Ack, []model.Timeout)
	CancelAll(at time.Time) []model.Timeout
	AvailableCash() float64
	Equity() float64
}

// Publisher fans run events out to downstream consumers.
type Publisher interface {
	PublishAction(ctx context.Context, a model.Action) error
	PublishAck(ctx context.Context, ack model.Ack) error
	PublishTimeout(ctx context.Context, to model.Timeout) error
}

// Journal records execution events.
type Journal interface {
	RecordAck(ack model.Ack) error
	RecordTimeout(to model.Timeout) error
}

// Deps are optional collaborators. Nil fields are skipped.
type Deps struct {
	Metrics   *metrics.Metrics
	Progress  *metrics.Progress
	Publisher Publisher
	Journal   Journal
	Notifier  notification.Notifier
}

// Controller owns the trained classifier, the feature frame and the
// decision engine of one run.
type Controller struct {
	cfg    Config
	clf    classifier.Classifier
	exec   Executor
	engine *decision.Engine
	deps   Deps
	log    *slog.Logger

	series *model.Series
	frame  *feature.Frame
	labels []model.Label
	rows   int
}

// New creates a controller. clf must be unfitted; exec receives every order.
func New(cfg Config, clf classifier.Classifier, exec Executor, deps Deps, log *slog.Logger) *Controller {
	if len(cfg.Columns) == 0 {
		cfg.Columns = feature.Columns
	}
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "strategy"), slog.String("code", cfg.Code))
	return &Controller{
		cfg:    cfg,
		clf:    clf,
		exec:   exec,
		engine: decision.New(cfg.Code, cfg.Label.Threshold, log),
		deps:   deps,
		log:    log,
	}
}

// Engine exposes the decision engine for inspection.
func (c *Controller) Engine() *decision.Engine { return c.engine }

// Frame returns the feature frame built by Train, or nil.
func (c *Controller) Frame() *feature.Frame { return c.frame }

// Labels returns the label series built by Train, or nil.
func (c *Controller) Labels() []model.Label { return c.labels }

// TrainingRows selects the bars usable for fitting: inside [0, PreTrain),
// every feature defined, and the label fully known before the live window
// opens (t + horizon <= PreTrain - 1).
func TrainingRows(frame *feature.Frame, labels []model.Label, cols []feature.Column, preTrain, horizon int) feature.Matrix {
	m := feature.Matrix{Columns: cols}
	for t := 0; t+horizon < preTrain && t < frame.Len(); t++ {
		if !labels[t].Defined() {
			continue
		}
		row := frame.Row(t, cols)
		if !row.Complete() {
			continue
		}
		m.Index = append(m.Index, t)
		m.Rows = append(m.Rows, row.Values)
	}
	return m
}

// Train builds features and labels over the full series and fits the
// classifier on the training window.
func (c *Controller) Train(ctx context.Context, s *model.Series) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("series %s: %w", s.Code, err)
	}
	if s.Len() < c.cfg.PreTrain {
		return fmt.Errorf("%w: have %d bars, training window is %d", ErrInsufficientHistory, s.Len(), c.cfg.PreTrain)
	}
	c.setPhase("training")

	start := time.Now()
	frame := feature.NewBuilder(c.cfg.Feature).Build(s)
	if err := frame.Validate(c.cfg.Columns); err != nil {
		return err
	}
	c.observe(func(m *metrics.Metrics) { m.FeatureBuildDur.Observe(time.Since(start).Seconds()) })

	labels := label.Generate(s, c.cfg.Label)
	m := TrainingRows(frame, labels, c.cfg.Columns, c.cfg.PreTrain, c.cfg.Label.Horizon)
	if len(m.Rows) == 0 {
		return fmt.Errorf("%w: window %d, warm-up %d, horizon %d",
			ErrNoTrainingRows, c.cfg.PreTrain, c.cfg.Feature.Warmup(), c.cfg.Label.Horizon)
	}
	y := make([]model.Label, len(m.Index))
	for i, t := range m.Index {
		y[i] = labels[t]
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	start = time.Now()
	if err := c.clf.Fit(m.Rows, y); err != nil {
		return fmt.Errorf("fit classifier: %w", err)
	}
	took := time.Since(start)
	c.observe(func(mt *metrics.Metrics) {
		mt.TrainDur.Observe(took.Seconds())
		mt.TrainRows.Set(float64(len(m.Rows)))
	})

	c.series, c.frame, c.labels, c.rows = s, frame, labels, len(m.Rows)
	c.log.Info("classifier trained", append(logger.Attrs(ctx),
		"rows", len(m.Rows), "first_row", m.Index[0], "features", len(c.cfg.Columns), "took", took)...)
	return nil
}

// Result is everything the live loop produced.
type Result struct {
	Start     int // bar index of the first live decision
	TrainRows int
	Horizon   int

	Decisions []model.Action // one per live bar, Start first
	Orders    []model.Action // the order-bearing subset of Decisions
	Acks      []model.Ack
	Timeouts  []model.Timeout
	Rejected  int // predictions turned into Hold by a state guard

	// YTrue[i] and YPred[i] belong to bar Start+i.
	YTrue []model.Label
	YPred []model.Label

	Equity []report.Point
}

// Scored returns the prediction and truth sequences without the last
// Horizon bars, whose labels are not defined.
func (r *Result) Scored() (yTrue, yPred []model.Label) {
	n := len(r.YTrue) - r.Horizon
	if n < 0 {
		n = 0
	}
	return r.YTrue[:n], r.YPred[:n]
}

// Run trains on the leading window, then decides once per remaining bar.
func (c *Controller) Run(ctx context.Context, s *model.Series) (*Result, error) {
	if err := c.Train(ctx, s); err != nil {
		return nil, err
	}
	return c.Trade(ctx)
}

// Trade runs the live loop over bars [PreTrain, len) of the trained series.
func (c *Controller) Trade(ctx context.Context) (*Result, error) {
	if c.frame == nil {
		return nil, ErrNotTrained
	}
	s := c.series
	res := &Result{Start: c.cfg.PreTrain, TrainRows: c.rows, Horizon: c.cfg.Label.Horizon}
	c.setPhase("trading")
	c.log.Info("live loop started", append(logger.Attrs(ctx), "first_bar", res.Start, "bars", s.Len()-res.Start)...)

	for t := res.Start; t < s.Len(); t++ {
		if err := ctx.Err(); err != nil {
			c.setPhase("failed")
			return res, err
		}
		bar := s.At(t)

		acks, timeouts := c.exec.Match(c.cfg.Code, bar)
		c.handleAcks(ctx, res, acks)
		c.handleTimeouts(ctx, res, timeouts)

		pred, err := c.predict(t)
		if err != nil {
			c.setPhase("failed")
			return res, fmt.Errorf("bar %d: %w", t, err)
		}
		res.YPred = append(res.YPred, pred)
		res.YTrue = append(res.YTrue, c.labels[t])

		a := c.engine.Decide(t, bar, pred, decision.Account{AvailableCash: c.exec.AvailableCash()})
		res.Decisions = append(res.Decisions, a)
		if err := c.route(ctx, res, a); err != nil {
			c.setPhase("failed")
			return res, fmt.Errorf("bar %d: %w", t, err)
		}

		eq := c.exec.Equity()
		res.Equity = append(res.Equity, report.Point{Bar: t, Equity: eq})
		c.observe(func(m *metrics.Metrics) {
			m.BarsTotal.Inc()
			m.Equity.Set(eq)
			m.Cash.Set(c.exec.AvailableCash())
			m.Position.Set(positionValue(c.engine.State()))
		})
		if c.deps.Progress != nil {
			c.deps.Progress.Advance(t-res.Start+1, s.Len()-res.Start, bar.TS)
		}
	}

	// Orders still queued after the last bar can never fill.
	if s.Len() > 0 {
		c.handleTimeouts(ctx, res, c.exec.CancelAll(s.At(s.Len()-1).TS))
	}
	c.setPhase("done")
	c.log.Info("live loop finished", append(logger.Attrs(ctx),
		"orders", len(res.Orders), "acks", len(res.Acks), "timeouts", len(res.Timeouts),
		"rejected", res.Rejected, "state", c.engine.State().String())...)
	return res, nil
}

// predict returns LabelUndefined while the row is still warming up.
func (c *Controller) predict(t int) (model.Label, error) {
	row := c.frame.Row(t, c.cfg.Columns)
	if !row.Complete() {
		return model.LabelUndefined, nil
	}
	start := time.Now()
	pred, err := c.clf.Predict(row.Values)
	if err != nil {
		return model.LabelUndefined, fmt.Errorf("predict: %w", err)
	}
	c.observe(func(m *metrics.Metrics) { m.PredictDur.Observe(time.Since(start).Seconds()) })
	return pred, nil
}

func (c *Controller) route(ctx context.Context, res *Result, a model.Action) error {
	c.observe(func(m *metrics.Metrics) { m.DecisionsTotal.WithLabelValues(string(a.Kind)).Inc() })
	if !a.IsOrder() {
		if a.Reason != "" && a.Reason != decision.ReasonUndefined {
			res.Rejected++
			c.observe(func(m *metrics.Metrics) { m.RejectedTotal.WithLabelValues(a.Reason).Inc() })
		}
		return nil
	}
	if err := c.exec.Submit(a); err != nil {
		return fmt.Errorf("submit %s: %w", a.OrderID, err)
	}
	res.Orders = append(res.Orders, a)
	if c.deps.Publisher != nil {
		if err := c.deps.Publisher.PublishAction(ctx, a); err != nil {
			c.publishFailed(err)
		}
	}
	return nil
}

func (c *Controller) handleAcks(ctx context.Context, res *Result, acks []model.Ack) {
	for _, ack := range acks {
		if !c.engine.OnAck(ack) {
			continue
		}
		res.Acks = append(res.Acks, ack)
		c.observe(func(m *metrics.Metrics) { m.AcksTotal.WithLabelValues(string(ack.Side)).Inc() })
		if c.deps.Journal != nil {
			if err := c.deps.Journal.RecordAck(ack); err != nil {
				c.log.Warn("journal ack failed", "order", ack.OrderID, "err", err)
			}
		}
		if c.deps.Publisher != nil {
			if err := c.deps.Publisher.PublishAck(ctx, ack); err != nil {
				c.publishFailed(err)
			}
		}
		if !ack.IsOpen && c.deps.Notifier != nil {
			c.notify(ctx, notification.TradeClosed(ack))
		}
	}
}

func (c *Controller) handleTimeouts(ctx context.Context, res *Result, timeouts []model.Timeout) {
	for _, to := range timeouts {
		c.engine.OnTimeout(to)
		res.Timeouts = append(res.Timeouts, to)
		c.observe(func(m *metrics.Metrics) { m.TimeoutsTotal.Inc() })
		if c.deps.Journal != nil {
			if err := c.deps.Journal.RecordTimeout(to); err != nil {
				c.log.Warn("journal timeout failed", "order", to.OrderID, "err", err)
			}
		}
		if c.deps.Publisher != nil {
			if err := c.deps.Publisher.PublishTimeout(ctx, to); err != nil {
				c.publishFailed(err)
			}
		}
		if c.deps.Notifier != nil {
			c.notify(ctx, notification.OrderTimeout(to))
		}
	}
}

func (c *Controller) notify(ctx context.Context, a notification.Alert) {
	if err := c.deps.Notifier.Send(ctx, a); err != nil {
		c.log.Warn("alert delivery failed", "title", a.Title, "err", err)
	}
}

func (c *Controller) publishFailed(err error) {
	c.log.Debug("publish failed", "err", err)
	c.observe(func(m *metrics.Metrics) { m.PublishErrors.Inc() })
}

func (c *Controller) observe(f func(m *metrics.Metrics)) {
	if c.deps.Metrics != nil {
		f(c.deps.Metrics)
	}
}

func (c *Controller) setPhase(p string) {
	if c.deps.Progress != nil {
		c.deps.Progress.SetPhase(p)
	}
}

func positionValue(s decision.State) float64 {
	if s.Position() == decision.Long {
		return 1
	}
	return 0
}
