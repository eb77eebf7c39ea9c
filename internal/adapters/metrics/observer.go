// Package metrics exports store activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hylla/famboard/internal/app"
	"github.com/hylla/famboard/internal/state"
)

const namespace = "famboard"

// Observer counts dispatched intents and the failures they carry.
type Observer struct {
	registry *prometheus.Registry
	intents  *prometheus.CounterVec
	failures *prometheus.CounterVec
	seq      prometheus.Gauge
	warnings prometheus.Gauge
	shopping *prometheus.GaugeVec

	mu      sync.Mutex
	lastSeq uint64
}

// NewObserver registers the store metrics, plus Go runtime collectors, on a private registry.
func NewObserver() *Observer {
	o := &Observer{
		registry: prometheus.NewRegistry(),
		intents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "intents_total",
			Help:      "Dispatched intents by name.",
		}, []string{"intent"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "failures_total",
			Help:      "Error intents by name and cause.",
		}, []string{"intent", "cause"}),
		seq: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "sequence",
			Help:      "Sequence number of the latest reduction.",
		}),
		warnings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "home",
			Name:      "warnings",
			Help:      "Warnings currently shown on the home screen.",
		}),
		shopping: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "shopping",
			Name:      "items",
			Help:      "Shopping list items by checked state.",
		}, []string{"checked"}),
	}
	o.registry.MustRegister(
		o.intents, o.failures, o.seq, o.warnings, o.shopping,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return o
}

// Attach subscribes the observer to store and returns the unsubscribe function.
func (o *Observer) Attach(store *app.Store) func() {
	return store.Subscribe(o.Observe)
}

// Observe records one snapshot. Counters always move; gauges follow the highest sequence seen.
func (o *Observer) Observe(snap app.Snapshot) {
	if snap.Intent == nil {
		return
	}
	name := snap.Intent.IntentName()
	o.intents.WithLabelValues(name).Inc()
	if f, ok := state.FailureOf(snap.Intent); ok {
		o.failures.WithLabelValues(name, string(f.Cause)).Inc()
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if snap.Seq < o.lastSeq {
		return
	}
	o.lastSeq = snap.Seq
	o.seq.Set(float64(snap.Seq))
	o.warnings.Set(float64(len(snap.State.Home.Warnings)))
	var checked, open int
	for _, item := range snap.State.Shopping.Items {
		if item.Checked {
			checked++
		} else {
			open++
		}
	}
	o.shopping.WithLabelValues("true").Set(float64(checked))
	o.shopping.WithLabelValues("false").Set(float64(open))
}

// Registry returns the registry holding the observer's metrics.
func (o *Observer) Registry() *prometheus.Registry {
	return o.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
}
