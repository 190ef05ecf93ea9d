package holding

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/nspcc-dev/otherneo/internal/errs"
	"github.com/nspcc-dev/otherneo/pkg/addr"
	"github.com/nspcc-dev/otherneo/pkg/registry"
	"go.uber.org/zap"
)

// MaxHeldMessages is the store's bounded capacity.
const MaxHeldMessages = 1000

// Deliverer performs the one piece of I/O the store ever triggers: sending
// an OTHERNET_MESSAGE carrying payload to the given peer. It must not be
// called while any store lock is held.
type Deliverer func(peer registry.Peer, sender addr.LogicalAddress, payload string, now time.Time) error

// Store is the bounded, insertion-ordered held-message queue of §4.3. It
// looks up delivery targets in a Registry and performs sends through a
// Deliverer, both outside its own lock.
type Store struct {
	mu       sync.Mutex
	log      *zap.Logger
	capacity int
	messages []*Message
	byID     map[uint64]*Message

	registry *registry.Registry
	deliver  Deliverer

	counter atomic.Uint32
}

// New builds an empty store backed by reg, using deliver to attempt sends.
// capacity <= 0 defaults to MaxHeldMessages.
func New(capacity int, reg *registry.Registry, deliver Deliverer, log *zap.Logger) *Store {
	if capacity <= 0 {
		capacity = MaxHeldMessages
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		capacity: capacity,
		byID:     make(map[uint64]*Message),
		registry: reg,
		deliver:  deliver,
		log:      log,
	}
}

// generateID builds a process-lifetime-unique id, (now<<32)|counter.
func (s *Store) generateID(now time.Time) uint64 {
	c := s.counter.Add(1)
	return uint64(now.Unix())<<32 | uint64(c)
}

// Enqueue appends a new message targeting target and immediately attempts
// delivery, matching the reference node's behavior of trying direct
// delivery before ever going HELD. Fails with errs.ErrCapacityExceeded when
// the store is full.
func (s *Store) Enqueue(target, sender addr.LogicalAddress, payload string, priority Priority, now time.Time) (uint64, error) {
	if len(payload) > MaxPayloadLen {
		payload = payload[:MaxPayloadLen]
	}

	s.mu.Lock()
	if len(s.messages) >= s.capacity {
		s.mu.Unlock()
		s.log.Warn("held store full, rejecting enqueue", zap.Int("capacity", s.capacity))
		return 0, errs.ErrCapacityExceeded
	}

	id := s.generateID(now)
	m := &Message{
		ID:          id,
		Target:      target,
		Sender:      sender,
		Priority:    priority,
		Payload:     payload,
		Created:     now,
		NextAttempt: now,
		ExpiresAt:   now.Add(TTL),
		Status:      StatusQueued,
	}
	s.messages = append(s.messages, m)
	s.byID[id] = m
	s.mu.Unlock()

	s.attemptOne(m, now)
	return id, nil
}

// attemptOne implements §4.3's attempt(msg): a registry lookup and, on a hit,
// a send — both performed without holding the store's lock — followed by a
// single locked write-back of the outcome.
func (s *Store) attemptOne(m *Message, now time.Time) {
	peer, ok := s.registry.FindByAddress(m.Target)
	live := ok && peer.Active

	var sendErr error
	if live {
		sendErr = s.deliver(peer, m.Sender, m.Payload, now)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if m.Status.Terminal() {
		return
	}

	m.AttemptCount++
	m.LastAttempt = now

	if live && sendErr == nil {
		m.Status = StatusDelivered
		return
	}

	if live && sendErr != nil {
		s.log.Warn("delivery attempt failed", zap.Uint64("id", m.ID), zap.Error(sendErr))
	}

	m.Status = StatusHeld
	m.NextAttempt = m.LastAttempt.Add(backoffSeconds(m.AttemptCount))
	if m.AttemptCount >= MaxRetries {
		m.Status = StatusFailed
	}
}

// Sweep expires overdue messages and retries HELD ones whose next_attempt
// has arrived.
func (s *Store) Sweep(now time.Time) {
	s.mu.Lock()
	var toRetry []*Message
	for _, m := range s.messages {
		if m.Status.Terminal() {
			continue
		}
		if now.After(m.ExpiresAt) {
			m.Status = StatusExpired
			continue
		}
		if m.Status == StatusHeld && !now.Before(m.NextAttempt) {
			toRetry = append(toRetry, m)
		}
	}
	s.mu.Unlock()

	for _, m := range toRetry {
		s.attemptOne(m, now)
	}
}

// Redistribute clears holding_node and resets next_attempt for every
// non-terminal message currently held by failedIP, so the next sweep
// re-attempts it.
func (s *Store) Redistribute(failedIP string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.messages {
		if !m.Status.Terminal() && m.HoldingNode == failedIP {
			m.HoldingNode = ""
			m.NextAttempt = now
		}
	}
}

// SetHoldingNode tags the message with the ipv4 of the peer now holding it
// on this node's behalf. Used when wiring a HOLD_RESPONSE acceptance (see
// Node.handleHoldResponse) and by tests simulating that future extension.
func (s *Store) SetHoldingNode(id uint64, ip string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, ok := s.byID[id]; ok {
		m.HoldingNode = ip
	}
}

// Get returns a copy of the message with the given id, if present.
func (s *Store) Get(id uint64) (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.byID[id]
	if !ok {
		return Message{}, false
	}
	return m.Clone(), true
}

// NonDelivered returns a snapshot of every message not in DELIVERED status,
// in insertion order.
func (s *Store) NonDelivered() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, 0, len(s.messages))
	for _, m := range s.messages {
		if m.Status != StatusDelivered {
			out = append(out, m.Clone())
		}
	}
	return out
}

// Count returns the total number of messages ever enqueued (still resident;
// messages are never removed, only transitioned to a terminal status).
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// CountByStatus returns how many resident messages are in each status, for
// metrics export.
func (s *Store) CountByStatus() map[Status]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[Status]int, 6)
	for _, m := range s.messages {
		out[m.Status]++
	}
	return out
}
