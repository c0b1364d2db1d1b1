package service

import (
	"context"
	"sync"

	"fitcoach/internal/domain"
	"fitcoach/internal/metrics"
	"fitcoach/internal/repository"

	log "github.com/sirupsen/logrus"
)

const (
	outcomeApplied = "applied"
	outcomeIgnored = "ignored_empty"
	outcomeError   = "error"
)

// SnapshotSink receives full remote collections.
type SnapshotSink interface {
	ReplaceAll(students []domain.Student) bool
}

// Mirror keeps the local store in step with the remote collection. An empty
// remote snapshot is ignored so that a fresh or wiped backend never erases
// local data.
type Mirror struct {
	remote  repository.StudentRemote
	sink    SnapshotSink
	metrics *metrics.Manager

	mu  sync.Mutex
	sub repository.Subscription
}

// NewMirror returns a mirror; a nil remote yields a mirror whose Start is a
// no-op, as used by demo sessions.
func NewMirror(remote repository.StudentRemote, sink SnapshotSink, m *metrics.Manager) *Mirror {
	if m == nil {
		m = metrics.NewTestManager()
	}
	return &Mirror{remote: remote, sink: sink, metrics: m}
}

// Start attaches the remote listener. Calling it again while running is a
// no-op.
func (m *Mirror) Start(ctx context.Context) error {
	if m.remote == nil {
		log.Infoln("mirror disabled, no remote store")
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sub != nil {
		return nil
	}
	sub, err := m.remote.Subscribe(ctx, m.handleSnapshot, m.handleError)
	if err != nil {
		log.WithError(err).Errorln("attach remote listener")
		return err
	}
	m.sub = sub
	log.Infoln("mirror attached to remote students")
	return nil
}

// Stop detaches the listener.
func (m *Mirror) Stop() {
	m.mu.Lock()
	sub := m.sub
	m.sub = nil
	m.mu.Unlock()
	if sub != nil {
		sub.Unsubscribe()
	}
}

func (m *Mirror) handleSnapshot(students []domain.Student) {
	if len(students) == 0 {
		m.metrics.CounterMirrorSnapshots.WithLabelValues(outcomeIgnored).Inc()
		log.Debugln("empty remote snapshot ignored")
		return
	}
	if !m.sink.ReplaceAll(students) {
		m.metrics.CounterMirrorSnapshots.WithLabelValues(outcomeIgnored).Inc()
		return
	}
	m.metrics.CounterMirrorSnapshots.WithLabelValues(outcomeApplied).Inc()
	log.Debugf("remote snapshot applied, %d students", len(students))
}

func (m *Mirror) handleError(err error) {
	m.metrics.CounterMirrorSnapshots.WithLabelValues(outcomeError).Inc()
	log.WithError(err).Warnln("remote listener error, local state kept")
}
