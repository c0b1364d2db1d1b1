package service

import (
	"context"
	"errors"
	"testing"

	"fitcoach/internal/domain"
	"fitcoach/internal/metrics"
	"fitcoach/internal/store"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMirror_AppliesSnapshots(t *testing.T) {
	remote := &fakeRemote{}
	s := seededStore(t)
	m := metrics.NewTestManager()
	mirror := NewMirror(remote, s, m)
	require.NoError(t, mirror.Start(context.Background()))
	defer mirror.Stop()

	remoteStudents := []domain.Student{{ID: "r1", Name: "Remote One", Email: "r1@example.com"}}
	remote.push(remoteStudents)
	assert.Equal(t, remoteStudents, s.GetAll())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterMirrorSnapshots.WithLabelValues(outcomeApplied)))
}

func TestMirror_IgnoresEmptySnapshot(t *testing.T) {
	remote := &fakeRemote{}
	s := seededStore(t)
	m := metrics.NewTestManager()
	mirror := NewMirror(remote, s, m)
	require.NoError(t, mirror.Start(context.Background()))
	defer mirror.Stop()

	before := s.GetAll()
	require.Len(t, before, 2)
	remote.push(nil)
	remote.push([]domain.Student{})
	assert.Equal(t, before, s.GetAll())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CounterMirrorSnapshots.WithLabelValues(outcomeIgnored)))
}

func TestMirror_ErrorKeepsState(t *testing.T) {
	remote := &fakeRemote{}
	s := seededStore(t)
	m := metrics.NewTestManager()
	mirror := NewMirror(remote, s, m)
	require.NoError(t, mirror.Start(context.Background()))

	before := s.GetAll()
	remote.fail(errors.New("permission denied"))
	assert.Equal(t, before, s.GetAll())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterMirrorSnapshots.WithLabelValues(outcomeError)))

	mirror.Stop()
	assert.True(t, remote.unsubscribed)
	remote.push([]domain.Student{{ID: "late"}})
	assert.Equal(t, before, s.GetAll())
}

func TestMirror_SubscribeFailure(t *testing.T) {
	remote := &fakeRemote{subErr: errors.New("unreachable")}
	mirror := NewMirror(remote, seededStore(t), nil)
	assert.Error(t, mirror.Start(context.Background()))
	mirror.Stop()
}

func TestMirror_NilRemoteIsDisabled(t *testing.T) {
	s := seededStore(t)
	mirror := NewMirror(nil, s, nil)
	require.NoError(t, mirror.Start(context.Background()))
	mirror.Stop()
	assert.Equal(t, 2, s.Len())
	_, ok := s.Get(store.SeedAndreID)
	assert.True(t, ok)
}
