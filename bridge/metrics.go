package bridge

import (
	"bytes"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	lock "github.com/viney-shih/go-lock"
)

// Metrics holds the simulator's in-process counters and gauges. There is
// no HTTP listener: gathering happens only at run end, via Dump. The
// registry is private to the Metrics instance so multiple simulation runs
// in the same process never collide.
type Metrics struct {
	registry *prometheus.Registry

	carsEntered  *prometheus.CounterVec
	carsExited   *prometheus.CounterVec
	carsOnBridge prometheus.Gauge
	overrides    prometheus.Counter
	headMismatch prometheus.Counter
	rrRequeues   prometheus.Counter

	// snapshotLatch guards Snapshot against a genuinely concurrent external
	// reader (e.g. a monitoring goroutine started by the caller outside the
	// cooperative scheduler). Car actors never take it: their own mutual
	// exclusion is the cooperative bridge mutex, not this lock.
	snapshotLatch lock.Mutex
	snapshot      Snapshot
}

// Snapshot is a point-in-time read of the counters, safe to pass across
// goroutines.
type Snapshot struct {
	CarsEnteredLeft, CarsEnteredRight int
	CarsExitedLeft, CarsExitedRight   int
	CarsOnBridge                      int
	EmergencyOverrides                int
	QueueHeadMismatches               int
	RRRequeues                        int
}

// NewMetrics constructs a fresh, unregistered-with-anything-global metrics
// set.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		carsEntered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_cars_entered_total",
			Help: "Cars that entered the bridge, by direction.",
		}, []string{"direction"}),
		carsExited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_cars_exited_total",
			Help: "Cars that exited the bridge, by direction.",
		}, []string{"direction"}),
		carsOnBridge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bridge_cars_on_bridge",
			Help: "Cars currently crossing the bridge.",
		}),
		overrides: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bridge_emergency_overrides_total",
			Help: "Emergency-override admissions against the safety predicate.",
		}),
		headMismatch: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bridge_queue_head_mismatches_total",
			Help: "Dequeue attempts whose id did not match the queue head.",
		}),
		rrRequeues: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bridge_rr_requeues_total",
			Help: "Cars flagged rr_timeout under round robin.",
		}),
		snapshotLatch: lock.NewCASMutex(),
	}
	reg.MustRegister(m.carsEntered, m.carsExited, m.carsOnBridge, m.overrides, m.headMismatch, m.rrRequeues)
	return m
}

func (m *Metrics) recordEnter(dir Direction) {
	m.carsEntered.WithLabelValues(dir.String()).Inc()
	m.carsOnBridge.Inc()
	m.withLatch(func(s *Snapshot) {
		if dir == Left {
			s.CarsEnteredLeft++
		} else {
			s.CarsEnteredRight++
		}
		s.CarsOnBridge++
	})
}

func (m *Metrics) recordExit(dir Direction) {
	m.carsExited.WithLabelValues(dir.String()).Inc()
	m.carsOnBridge.Dec()
	m.withLatch(func(s *Snapshot) {
		if dir == Left {
			s.CarsExitedLeft++
		} else {
			s.CarsExitedRight++
		}
		s.CarsOnBridge--
	})
}

func (m *Metrics) recordOverride() {
	m.overrides.Inc()
	m.withLatch(func(s *Snapshot) { s.EmergencyOverrides++ })
}

func (m *Metrics) recordHeadMismatch() {
	m.headMismatch.Inc()
	m.withLatch(func(s *Snapshot) { s.QueueHeadMismatches++ })
}

func (m *Metrics) recordRRRequeue() {
	m.rrRequeues.Inc()
	m.withLatch(func(s *Snapshot) { s.RRRequeues++ })
}

func (m *Metrics) withLatch(fn func(*Snapshot)) {
	m.snapshotLatch.Lock()
	fn(&m.snapshot)
	m.snapshotLatch.Unlock()
}

// Snapshot returns a copy of the current counters. Safe to call from a
// goroutine other than the one driving the cooperative runtime.
func (m *Metrics) Snapshot() Snapshot {
	m.snapshotLatch.Lock()
	defer m.snapshotLatch.Unlock()
	return m.snapshot
}

// Dump renders every registered metric in Prometheus text exposition
// format, for inclusion in the end-of-run summary. No listener is ever
// started; this is a one-shot in-process gather.
func (m *Metrics) Dump() (string, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.FmtText)
	for _, f := range families {
		if err := enc.Encode(f); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}
