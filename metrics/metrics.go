// Package metrics exports hwcodec session activity as Prometheus metrics.
//
//	c := metrics.NewCollector(prometheus.DefaultRegisterer)
//	enc, err := hwcodec.OpenEncoder(b, cfg, hwcodec.WithObserver(c))
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gogpu/hwcodec"
)

const namespace = "hwcodec"

// Step results.
const (
	resultOK    = "ok"
	resultEmpty = "empty"
	resultError = "error"
)

// Collector implements hwcodec.Observer.
type Collector struct {
	active       *prometheus.GaugeVec
	opened       *prometheus.CounterVec
	steps        *prometheus.CounterVec
	outputs      *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	stepErrors   *prometheus.CounterVec
	capabilities *prometheus.GaugeVec
}

var _ hwcodec.Observer = (*Collector)(nil)

// NewCollector registers the hwcodec metrics with reg. A nil reg leaves
// them unregistered. It panics if the metrics are already registered.
func NewCollector(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		active: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Open encoder and decoder sessions.",
		}, []string{"kind", "backend", "api", "format"}),
		opened: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_opened_total",
			Help:      "Sessions constructed since start.",
		}, []string{"kind", "backend"}),
		steps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Encode and decode steps by result (ok|empty|error).",
		}, []string{"kind", "backend", "result"}),
		outputs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_outputs_total",
			Help:      "Packets or textures produced by steps.",
		}, []string{"kind", "backend"}),
		stepDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Time spent in one native encode or decode call.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		}, []string{"kind", "backend"}),
		stepErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_errors_total",
			Help:      "Failed steps by native status code.",
		}, []string{"kind", "backend", "code"}),
		capabilities: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "capability_info",
			Help:      "Catalog entries offered by each backend (1 = eligible, 2 = confirmed).",
		}, []string{"kind", "backend", "api", "format"}),
	}
}

func (c *Collector) SessionOpened(kind hwcodec.SessionKind, backend string, e hwcodec.CapabilityEntry) {
	c.active.WithLabelValues(kind.String(), backend, e.API.String(), e.Format.String()).Inc()
	c.opened.WithLabelValues(kind.String(), backend).Inc()
}

func (c *Collector) SessionClosed(kind hwcodec.SessionKind, backend string, e hwcodec.CapabilityEntry) {
	c.active.WithLabelValues(kind.String(), backend, e.API.String(), e.Format.String()).Dec()
}

func (c *Collector) StepDone(kind hwcodec.SessionKind, backend string, outputs int, elapsed time.Duration, err error) {
	k := kind.String()
	c.stepDuration.WithLabelValues(k, backend).Observe(elapsed.Seconds())
	switch {
	case err != nil:
		c.steps.WithLabelValues(k, backend, resultError).Inc()
		c.stepErrors.WithLabelValues(k, backend, errorCode(err)).Inc()
	case outputs == 0:
		c.steps.WithLabelValues(k, backend, resultEmpty).Inc()
	default:
		c.steps.WithLabelValues(k, backend, resultOK).Inc()
		c.outputs.WithLabelValues(k, backend).Add(float64(outputs))
	}
}

// RecordCatalog publishes eligible catalog entries. Confirmed entries
// recorded afterwards with RecordConfirmed override the value.
func (c *Collector) RecordCatalog(kind hwcodec.SessionKind, caps []hwcodec.BackendCapability) {
	for _, bc := range caps {
		c.capabilities.WithLabelValues(kind.String(), bc.Backend, bc.Entry.API.String(), bc.Entry.Format.String()).Set(1)
	}
}

// RecordConfirmed publishes entries whose self-test passed.
func (c *Collector) RecordConfirmed(caps []hwcodec.ConfirmedCapability) {
	for _, cc := range caps {
		c.capabilities.WithLabelValues(cc.Kind.String(), cc.Backend, cc.Entry.API.String(), cc.Entry.Format.String()).Set(2)
	}
}

func errorCode(err error) string {
	if errors.Is(err, hwcodec.ErrSessionClosed) {
		return "closed"
	}
	if code, ok := hwcodec.NativeCode(err); ok {
		return strconv.Itoa(int(code))
	}
	return "unknown"
}
