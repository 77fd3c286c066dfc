package monitor

import "github.com/prometheus/client_golang/prometheus"

// Metrics wraps the prometheus registry every monitor ProcessStep
// registers its collectors against.
type Metrics struct {
	Registry prometheus.Registerer
}

// NewMetrics returns a Metrics bound to reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{Registry: reg}
}

// namespace is the common prefix for every collector this package
// registers, per spec section 6's metrics naming.
const namespace = "nomad_agent_monitor"

func (m *Metrics) mustRegister(c prometheus.Collector) {
	if err := m.Registry.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return
		}
		panic(err)
	}
}

// BetweenMetrics is the collector set for one BetweenEvents task.
type BetweenMetrics struct {
	Count            prometheus.Counter
	WallclockLatency prometheus.Histogram
	BlockLatency     prometheus.Histogram
}

// NewBetweenMetrics builds and registers a BetweenMetrics for the given
// (network, event) label pair.
func (m *Metrics) NewBetweenMetrics(network, event string) BetweenMetrics {
	labels := prometheus.Labels{"network": network, "event": event}
	bm := BetweenMetrics{
		Count: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "between",
			Name:        "events_total",
			Help:        "Count of observed events of this kind on this network.",
			ConstLabels: labels,
		}),
		WallclockLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "between",
			Name:        "wallclock_seconds",
			Help:        "Wall-clock seconds between consecutive events of this kind.",
			ConstLabels: labels,
		}),
		BlockLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "between",
			Name:        "blocks",
			Help:        "Block-number gap between consecutive events of this kind.",
			ConstLabels: labels,
		}),
	}
	m.mustRegister(bm.Count)
	m.mustRegister(bm.WallclockLatency)
	m.mustRegister(bm.BlockLatency)
	return bm
}

// DispatchWaitMetrics is the collector set for one DispatchWait task.
type DispatchWaitMetrics struct {
	Timer   prometheus.Histogram
	Blocks  prometheus.Histogram
	InQueue prometheus.Gauge
}

// NewDispatchWaitMetrics builds and registers a DispatchWaitMetrics for
// the given home network.
func (m *Metrics) NewDispatchWaitMetrics(network string) DispatchWaitMetrics {
	labels := prometheus.Labels{"network": network}
	dm := DispatchWaitMetrics{
		Timer: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "dispatch_wait",
			Name:        "seconds",
			Help:        "Seconds from dispatch to the next committed update on this home.",
			ConstLabels: labels,
		}),
		Blocks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "dispatch_wait",
			Name:        "blocks",
			Help:        "Blocks from dispatch to the next committed update on this home.",
			ConstLabels: labels,
		}),
		InQueue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "dispatch_wait",
			Name:        "in_queue",
			Help:        "Dispatches awaiting their next committed update on this home.",
			ConstLabels: labels,
		}),
	}
	m.mustRegister(dm.Timer)
	m.mustRegister(dm.Blocks)
	m.mustRegister(dm.InQueue)
	return dm
}

// UpdateWaitMetrics is the collector set for one UpdateWait task, with one
// timer/gauge pair per replica network served by that home.
type UpdateWaitMetrics struct {
	Times     *prometheus.HistogramVec
	Unrelayed *prometheus.GaugeVec
}

// NewUpdateWaitMetrics builds and registers an UpdateWaitMetrics for the
// given home network; replica is a label on every observation.
func (m *Metrics) NewUpdateWaitMetrics(network string) UpdateWaitMetrics {
	um := UpdateWaitMetrics{
		Times: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "update_wait",
			Name:      "seconds",
			Help:      "Seconds from a committed update to its relay on each replica.",
			ConstLabels: prometheus.Labels{
				"network": network,
			},
		}, []string{"replica"}),
		Unrelayed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "update_wait",
			Name:      "unrelayed",
			Help:      "Committed updates not yet observed as relayed on each replica.",
			ConstLabels: prometheus.Labels{
				"network": network,
			},
		}, []string{"replica"}),
	}
	m.mustRegister(um.Times)
	m.mustRegister(um.Unrelayed)
	return um
}

// RelayWaitMetrics is the collector set for one RelayWait task.
type RelayWaitMetrics struct {
	Timer  prometheus.Histogram
	Blocks prometheus.Histogram
}

// NewRelayWaitMetrics builds and registers a RelayWaitMetrics for the
// given (network, replica_of, emitter) label set.
func (m *Metrics) NewRelayWaitMetrics(network, replicaOf, emitter string) RelayWaitMetrics {
	labels := prometheus.Labels{"network": network, "replica_of": replicaOf, "emitter": emitter}
	rm := RelayWaitMetrics{
		Timer: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "relay_wait",
			Name:        "milliseconds",
			Help:        "Milliseconds from relay to the next process on this replica.",
			ConstLabels: labels,
		}),
		Blocks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "relay_wait",
			Name:        "blocks",
			Help:        "Blocks from relay to the next process on this replica.",
			ConstLabels: labels,
		}),
	}
	m.mustRegister(rm.Timer)
	m.mustRegister(rm.Blocks)
	return rm
}

// E2EMetrics is the collector set for the whole-network E2ELatency task,
// labeled by (home, destination) pair.
type E2EMetrics struct {
	Timers *prometheus.HistogramVec
	Gauges *prometheus.GaugeVec
}

// NewE2EMetrics builds and registers an E2EMetrics.
func (m *Metrics) NewE2EMetrics() E2EMetrics {
	em := E2EMetrics{
		Timers: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "e2e",
			Name:      "seconds",
			Help:      "End-to-end seconds from dispatch to process for a (home, destination) pair.",
		}, []string{"home", "destination"}),
		Gauges: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "e2e",
			Name:      "unprocessed",
			Help:      "Dispatches not yet observed as processed for a (home, destination) pair.",
		}, []string{"home", "destination"}),
	}
	m.mustRegister(em.Timers)
	m.mustRegister(em.Gauges)
	return em
}
