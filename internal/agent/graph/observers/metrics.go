package observers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/calendar-agent-poc/server/internal/agent/graph/tools"
)

const namespace = "calendar_agent"

// Turn outcomes.
const (
	OutcomeOK             = "ok"
	OutcomeTransient      = "transient"
	OutcomeStructural     = "structural"
	OutcomeIterationLimit = "iteration_limit"
	OutcomeCanceled       = "canceled"
	OutcomeError          = "error"
)

// Recorder exports agent metrics to Prometheus.
type Recorder struct {
	turns        *prometheus.CounterVec
	turnDuration prometheus.Histogram
	reasonSteps  prometheus.Counter
	costUSD      prometheus.Counter
	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
}

var _ tools.Observer = (*Recorder)(nil)

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "User turns processed, by outcome.",
		}, []string{"outcome"}),
		turnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Wall time of a user turn.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}),
		reasonSteps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reason_steps_total",
			Help:      "Chat model invocations.",
		}),
		costUSD: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_cost_usd_total",
			Help:      "Estimated model spend in USD.",
		}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool invocations, by tool and result.",
		}, []string{"tool", "result"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_call_duration_seconds",
			Help:      "Tool invocation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
	}

	for _, c := range []prometheus.Collector{r.turns, r.turnDuration, r.reasonSteps, r.costUSD, r.toolCalls, r.toolDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Recorder) ObserveTurn(outcome string, elapsed time.Duration) {
	r.turns.WithLabelValues(outcome).Inc()
	r.turnDuration.Observe(elapsed.Seconds())
}

func (r *Recorder) ObserveReasonStep(costUSD float64) {
	r.reasonSteps.Inc()
	if costUSD > 0 {
		r.costUSD.Add(costUSD)
	}
}

func (r *Recorder) ObserveToolCall(name string, failure tools.FailureReason, elapsed time.Duration) {
	result := string(failure)
	if failure == tools.FailureNone {
		result = "ok"
	}
	// unknown tool names come from the model; keep label cardinality bounded
	if failure == tools.FailureUnknownTool {
		name = "unknown"
	}
	r.toolCalls.WithLabelValues(name, result).Inc()
	r.toolDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}
