package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Labels used by the counters below.
const (
	ResultOK      = "ok"
	ResultFailed  = "failed"
	ResultDropped = "dropped"
	ResultSkipped = "skipped"
)

type Manager struct {
	// counters
	CounterRequests            *prometheus.CounterVec
	CounterStoreMutations      *prometheus.CounterVec
	CounterPersistenceFailures prometheus.Counter
	CounterRemoteWrites        *prometheus.CounterVec
	CounterMirrorSnapshots     *prometheus.CounterVec
	CounterLogins              *prometheus.CounterVec

	// gauges
	GaugeStudents    prometheus.Gauge
	GaugeRemoteQueue prometheus.Gauge
}

func NewTestManager() *Manager {
	return NewManager("fitcoach", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("fitcoach", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request",
			Help:      "The total number of incoming requests",
		}, []string{"method", "status"}),
		CounterStoreMutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "store_mutations",
			Help:      "Local store mutations by operation",
		}, []string{"op"}),
		CounterPersistenceFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "persistence_failures",
			Help:      "Failed writes of the durable local snapshot",
		}),
		CounterRemoteWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "remote_writes",
			Help:      "Remote merge-writes by result",
		}, []string{"result"}),
		CounterMirrorSnapshots: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "mirror_snapshots",
			Help:      "Remote snapshots received by outcome",
		}, []string{"outcome"}),
		CounterLogins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "logins",
			Help:      "Login attempts by resolved role",
		}, []string{"result"}),
		GaugeStudents: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "students",
			Help:      "Students currently held by the local store",
		}),
		GaugeRemoteQueue: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "remote_queue_length",
			Help:      "Remote writes waiting in the outbound queue",
		}),
	}
}
