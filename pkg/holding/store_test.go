package holding

import (
	"errors"
	"testing"
	"time"

	"github.com/nspcc-dev/otherneo/internal/errs"
	"github.com/nspcc-dev/otherneo/pkg/addr"
	"github.com/nspcc-dev/otherneo/pkg/registry"
	"github.com/stretchr/testify/require"
)

var self = addr.LogicalAddress{Realm: 1, Cluster: 1, NodeID: 1}

func newTestStore(t *testing.T, reg *registry.Registry, deliver Deliverer) *Store {
	t.Helper()
	if reg == nil {
		reg = registry.New(0, nil)
	}
	if deliver == nil {
		deliver = func(registry.Peer, addr.LogicalAddress, string, time.Time) error { return nil }
	}
	return New(0, reg, deliver, nil)
}

func TestEnqueueLiveTarget(t *testing.T) {
	reg := registry.New(0, nil)
	now := time.Now()
	target := addr.LogicalAddress{Realm: 1, Cluster: 1, NodeID: 7}
	_, err := reg.Upsert(addr.Transport{IP: "10.0.0.5", Port: 9000}, target, 0, now)
	require.NoError(t, err)

	var sent int
	s := newTestStore(t, reg, func(p registry.Peer, sender addr.LogicalAddress, payload string, now time.Time) error {
		sent++
		require.Equal(t, "10.0.0.5", p.Transport.IP)
		require.Equal(t, "hi", payload)
		return nil
	})

	id, err := s.Enqueue(target, self, "hi", PriorityNormal, now)
	require.NoError(t, err)
	require.Equal(t, 1, sent)

	m, ok := s.Get(id)
	require.True(t, ok)
	require.Equal(t, StatusDelivered, m.Status)
	require.Equal(t, uint16(1), m.AttemptCount)
}

func TestEnqueueUnknownTarget(t *testing.T) {
	now := time.Now()
	target := addr.LogicalAddress{Realm: 2, Cluster: 2, NodeID: 9}
	s := newTestStore(t, nil, nil)

	id, err := s.Enqueue(target, self, "later", PriorityNormal, now)
	require.NoError(t, err)

	m, ok := s.Get(id)
	require.True(t, ok)
	require.Equal(t, StatusHeld, m.Status)
	require.Equal(t, uint16(1), m.AttemptCount)
	require.Equal(t, m.LastAttempt.Add(60*time.Second), m.NextAttempt)
}

func TestRetryExhaustion(t *testing.T) {
	now := time.Now()
	target := addr.LogicalAddress{Realm: 2, Cluster: 2, NodeID: 9}
	s := newTestStore(t, nil, nil)

	id, err := s.Enqueue(target, self, "later", PriorityNormal, now)
	require.NoError(t, err)

	expected := []time.Duration{120, 240, 480, 960}
	cur := now
	for i, want := range expected {
		m, _ := s.Get(id)
		cur = m.NextAttempt.Add(time.Second)
		s.Sweep(cur)
		m, _ = s.Get(id)
		require.Equal(t, uint16(i+2), m.AttemptCount)
		if i < len(expected)-1 {
			require.Equal(t, StatusHeld, m.Status)
			require.Equal(t, m.LastAttempt.Add(want*time.Second), m.NextAttempt)
		}
	}

	m, _ := s.Get(id)
	require.Equal(t, StatusFailed, m.Status)
	require.Equal(t, uint16(5), m.AttemptCount)
}

func TestSweepExpiry(t *testing.T) {
	t0 := time.Now()
	target := addr.LogicalAddress{Realm: 2, Cluster: 2, NodeID: 9}
	s := newTestStore(t, nil, nil)

	id, err := s.Enqueue(target, self, "later", PriorityNormal, t0)
	require.NoError(t, err)

	s.Sweep(t0.Add(86401 * time.Second))

	m, ok := s.Get(id)
	require.True(t, ok)
	require.Equal(t, StatusExpired, m.Status)
}

func TestRedistributeOnGoodbye(t *testing.T) {
	now := time.Now()
	target := addr.LogicalAddress{Realm: 2, Cluster: 2, NodeID: 9}
	s := newTestStore(t, nil, nil)

	id, err := s.Enqueue(target, self, "later", PriorityNormal, now)
	require.NoError(t, err)
	s.SetHoldingNode(id, "10.0.0.3")

	later := now.Add(5 * time.Minute)
	s.Redistribute("10.0.0.3", later)

	m, ok := s.Get(id)
	require.True(t, ok)
	require.Equal(t, "", m.HoldingNode)
	require.Equal(t, later, m.NextAttempt)
}

func TestEnqueueCapacityExceeded(t *testing.T) {
	s := New(1, registry.New(0, nil), func(registry.Peer, addr.LogicalAddress, string, time.Time) error { return nil }, nil)
	now := time.Now()
	target := addr.LogicalAddress{Realm: 2, Cluster: 2, NodeID: 9}

	_, err := s.Enqueue(target, self, "a", PriorityNormal, now)
	require.NoError(t, err)

	_, err = s.Enqueue(target, self, "b", PriorityNormal, now)
	require.True(t, errors.Is(err, errs.ErrCapacityExceeded))
}

func TestTerminalStatusNeverChanges(t *testing.T) {
	now := time.Now()
	target := addr.LogicalAddress{Realm: 2, Cluster: 2, NodeID: 9}
	s := newTestStore(t, nil, nil)

	id, err := s.Enqueue(target, self, "a", PriorityNormal, now)
	require.NoError(t, err)
	s.Sweep(now.Add(86401 * time.Second))

	m, _ := s.Get(id)
	require.Equal(t, StatusExpired, m.Status)

	// Further sweeps, even past next_attempt semantics, must not move it.
	s.Sweep(now.Add(200000 * time.Second))
	m, _ = s.Get(id)
	require.Equal(t, StatusExpired, m.Status)
}
