// Package registry implements the concurrent peer table: capability and
// liveness tracking keyed by transport tuple, looked up by transport or by
// logical address.
package registry

import (
	"sync"
	"time"

	"github.com/nspcc-dev/otherneo/internal/errs"
	"github.com/nspcc-dev/otherneo/pkg/addr"
	"go.uber.org/zap"
)

// Peer is a point-in-time snapshot of one registry entry. Callers receive
// copies so that registry operations never need to hold their lock across
// caller-side I/O.
type Peer struct {
	Transport    addr.Transport
	Address      addr.LogicalAddress
	Capabilities addr.Capability
	LoadFactor   float32
	LastSeen     time.Time
	Active       bool
}

// entry is the mutable registry-internal representation; Peer values handed
// to callers are always copies of one of these.
type entry struct {
	peer Peer
}

// Registry is the bounded, insertion-ordered peer table of §4.2. All
// exported methods acquire a single lock and perform no I/O while holding
// it.
type Registry struct {
	mu       sync.Mutex
	log      *zap.Logger
	capacity int
	order    []addr.Transport
	byTrans  map[addr.Transport]*entry
}

// DefaultCapacity is MAX_PEERS when the caller doesn't configure one.
const DefaultCapacity = 50

// New builds an empty registry with the given capacity (DefaultCapacity if
// capacity <= 0).
func New(capacity int, log *zap.Logger) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		capacity: capacity,
		byTrans:  make(map[addr.Transport]*entry),
		log:      log,
	}
}

// Upsert updates the existing peer at transport, or appends a new one.
// Re-adding an existing transport refreshes address, capabilities, and
// last_seen, and sets active=true. Appending past capacity fails with
// errs.ErrRegistryFull and is logged, not fatal.
func (r *Registry) Upsert(transport addr.Transport, address addr.LogicalAddress, caps addr.Capability, now time.Time) (Peer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.byTrans[transport]; ok {
		e.peer.Address = address
		e.peer.Capabilities = caps
		e.peer.LastSeen = now
		e.peer.Active = true
		return e.peer, nil
	}

	if len(r.order) >= r.capacity {
		r.log.Warn("peer registry full, dropping new peer",
			zap.String("transport", transport.String()),
			zap.Int("capacity", r.capacity))
		return Peer{}, errs.ErrRegistryFull
	}

	e := &entry{peer: Peer{
		Transport:    transport,
		Address:      address,
		Capabilities: caps,
		LastSeen:     now,
		Active:       true,
	}}
	r.byTrans[transport] = e
	r.order = append(r.order, transport)
	return e.peer, nil
}

// MarkInactive sets active=false for transport. No-op if the transport is
// not present.
func (r *Registry) MarkInactive(transport addr.Transport) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.byTrans[transport]; ok {
		e.peer.Active = false
	}
}

// SetLoadFactor updates the load factor last reported by transport, used
// when a CAPABILITY_UPDATE is processed. No-op if absent.
func (r *Registry) SetLoadFactor(transport addr.Transport, load float32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.byTrans[transport]; ok {
		e.peer.LoadFactor = load
	}
}

// FindByAddress returns the first active peer whose logical address matches.
func (r *Registry) FindByAddress(address addr.LogicalAddress) (Peer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, transport := range r.order {
		e := r.byTrans[transport]
		if e.peer.Active && e.peer.Address.Equal(address) {
			return e.peer, true
		}
	}
	return Peer{}, false
}

// FindBestHolding selects the active, HOLDING-capable peer minimizing
//
//	score = load_factor + (realm_mismatch ? 0.5 : 0) + (cluster_mismatch ? 0.2 : 0)
//
// with ties broken by insertion order.
func (r *Registry) FindBestHolding(target addr.LogicalAddress) (Peer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		best      Peer
		bestScore float32
		found     bool
	)
	for _, transport := range r.order {
		e := r.byTrans[transport]
		if !e.peer.Active || !e.peer.Capabilities.Has(addr.CapHolding) {
			continue
		}
		score := e.peer.LoadFactor
		if e.peer.Address.Realm != target.Realm {
			score += 0.5
		}
		if e.peer.Address.Cluster != target.Cluster {
			score += 0.2
		}
		if !found || score < bestScore {
			best, bestScore, found = e.peer, score, true
		}
	}
	return best, found
}

// ListActive returns a snapshot of every active peer, in registry iteration
// order.
func (r *Registry) ListActive() []Peer {
	r.mu.Lock()
	defer r.mu.Unlock()

	peers := make([]Peer, 0, len(r.order))
	for _, transport := range r.order {
		e := r.byTrans[transport]
		if e.peer.Active {
			peers = append(peers, e.peer)
		}
	}
	return peers
}

// Count returns the number of registry slots in use, active or not.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}
