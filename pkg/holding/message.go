// Package holding implements the store-and-forward held-message queue: a
// bounded, insertion-ordered collection with a status machine, priority,
// expiry, and exponential-backoff retry.
package holding

import (
	"time"

	"github.com/nspcc-dev/otherneo/pkg/addr"
)

// Priority orders held messages the way FidoNet-style store-and-forward
// networks traditionally have: lower values are more urgent.
type Priority uint8

// The four priorities a HeldMessage can carry.
const (
	PriorityCrash  Priority = 0
	PriorityDirect Priority = 1
	PriorityNormal Priority = 2
	PriorityHold   Priority = 3
)

// Status is a HeldMessage's place in its status machine. DELIVERED, EXPIRED,
// and FAILED are terminal: once reached, Status never changes again.
type Status uint8

// The six statuses of §3.
const (
	StatusQueued Status = iota
	StatusAttempting
	StatusHeld
	StatusDelivered
	StatusExpired
	StatusFailed
)

// Terminal reports whether s is one of DELIVERED, EXPIRED, FAILED.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusExpired || s == StatusFailed
}

func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "QUEUED"
	case StatusAttempting:
		return "ATTEMPTING"
	case StatusHeld:
		return "HELD"
	case StatusDelivered:
		return "DELIVERED"
	case StatusExpired:
		return "EXPIRED"
	case StatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// MaxPayloadLen bounds HeldMessage.Payload, matching wire.MaxDataLen.
const MaxPayloadLen = 1024

// MaxRetries is the attempt_count ceiling past which a held message is
// abandoned as FAILED.
const MaxRetries = 5

// TTL is the lifetime of a held message from creation to expiry.
const TTL = 24 * time.Hour

// Message is one entry of the held-message store.
type Message struct {
	ID           uint64
	Target       addr.LogicalAddress
	Sender       addr.LogicalAddress
	Priority     Priority
	Payload      string
	Created      time.Time
	LastAttempt  time.Time
	NextAttempt  time.Time
	AttemptCount uint16
	ExpiresAt    time.Time
	Status       Status
	HoldingNode  string // optional ipv4 of the peer currently holding this message
}

// Clone returns a value copy, safe to hand to a caller outside the store's lock.
func (m *Message) Clone() Message {
	return *m
}

// backoffSeconds implements the exact backoff table of §4.3: attempts 1..5
// map to 60, 120, 240, 480, 960 seconds after last_attempt.
func backoffSeconds(attemptCount uint16) time.Duration {
	const (
		base     = 60 * time.Second
		capDelay = 960 * time.Second
	)
	if attemptCount == 0 {
		return base
	}
	d := base << (attemptCount - 1)
	if d > capDelay || d <= 0 {
		return capDelay
	}
	return d
}
