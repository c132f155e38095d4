// Package metrics exposes planner events as Prometheus series.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/fastygo/sprintboard/domain"
	"github.com/fastygo/sprintboard/usecase"
)

const namespace = "sprintboard"

// Metrics implements usecase.Observer on a private registry.
//
// Series:
//   - sprintboard_schedule_operations_total{op,code}
//   - sprintboard_slot_evictions_total{scope}
//   - sprintboard_board_build_seconds{cached}
type Metrics struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	evictions  *prometheus.CounterVec
	builds     *prometheus.HistogramVec
}

var _ usecase.Observer = (*Metrics)(nil)

// New registers the planner series together with the Go runtime collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "schedule_operations_total",
				Help:      "Schedule and unschedule calls by outcome code",
			},
			[]string{"op", "code"},
		),
		evictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "slot_evictions_total",
				Help:      "Schedule rows replaced by a write to the same slot",
			},
			[]string{"scope"}, // "sprint" or "recurring"
		),
		builds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "board_build_seconds",
				Help:      "Latency of board builds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"cached"},
		),
	}
}

func (m *Metrics) ScheduleOperation(op string, code domain.ErrorCode) {
	m.operations.WithLabelValues(op, string(code)).Inc()
}

func (m *Metrics) SlotEvicted(scope domain.SprintScope) {
	label := "sprint"
	if scope.IsRecurring() {
		label = "recurring"
	}
	m.evictions.WithLabelValues(label).Inc()
}

func (m *Metrics) BoardBuilt(elapsed time.Duration, cached bool) {
	m.builds.WithLabelValues(strconv.FormatBool(cached)).Observe(elapsed.Seconds())
}

// Registry returns the registry the series live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() fasthttp.RequestHandler {
	return fasthttpadaptor.NewFastHTTPHandler(
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}),
	)
}
