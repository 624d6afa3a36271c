package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus metrics of a backtest run.
type Metrics struct {
	BarsTotal      prometheus.Counter
	DecisionsTotal *prometheus.CounterVec // labels: action
	RejectedTotal  *prometheus.CounterVec // labels: reason
	AcksTotal      *prometheus.CounterVec // labels: side
	TimeoutsTotal  prometheus.Counter
	PublishErrors  prometheus.Counter

	FeatureBuildDur prometheus.Histogram
	TrainDur        prometheus.Histogram
	PredictDur      prometheus.Histogram

	TrainRows   prometheus.Gauge
	Equity      prometheus.Gauge
	Cash        prometheus.Gauge
	Position    prometheus.Gauge // 0=flat, 1=long
	Accuracy    prometheus.Gauge
	WeightedF1  prometheus.Gauge
	RealizedPnL prometheus.Gauge
}

// NewMetrics creates all metrics and registers them with reg.
// Pass prometheus.DefaultRegisterer to expose them on /metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BarsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backtest_bars_total",
			Help: "Live bars processed by the controller",
		}),
		DecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backtest_decisions_total",
			Help: "Decisions emitted, by action",
		}, []string{"action"}),
		RejectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backtest_rejected_total",
			Help: "Predictions turned into Hold, by reason",
		}, []string{"reason"}),
		AcksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backtest_acks_total",
			Help: "Filled orders, by side",
		}, []string{"side"}),
		TimeoutsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backtest_order_timeouts_total",
			Help: "Orders cancelled without a fill",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backtest_publish_errors_total",
			Help: "Signal publishes that failed",
		}),
		FeatureBuildDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "backtest_feature_build_seconds",
			Help:    "Time to build the feature frame",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		TrainDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "backtest_train_seconds",
			Help:    "Classifier fit time",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		PredictDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "backtest_predict_seconds",
			Help:    "Per-bar prediction time",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
		}),
		TrainRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "backtest_train_rows",
			Help: "Rows used to fit the classifier",
		}),
		Equity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "backtest_equity",
			Help: "Cash plus marked position value",
		}),
		Cash: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "backtest_cash",
			Help: "Available cash",
		}),
		Position: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "backtest_position",
			Help: "Confirmed position: 0=flat, 1=long",
		}),
		Accuracy: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "backtest_accuracy",
			Help: "Prediction accuracy over the scored live window",
		}),
		WeightedF1: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "backtest_f1_weighted",
			Help: "Support-weighted F1 over the scored live window",
		}),
		RealizedPnL: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "backtest_realized_pnl",
			Help: "Realized P&L net of commission",
		}),
	}

	reg.MustRegister(
		m.BarsTotal, m.DecisionsTotal, m.RejectedTotal, m.AcksTotal,
		m.TimeoutsTotal, m.PublishErrors,
		m.FeatureBuildDur, m.TrainDur, m.PredictDur,
		m.TrainRows, m.Equity, m.Cash, m.Position,
		m.Accuracy, m.WeightedF1, m.RealizedPnL,
	)

	return m
}
