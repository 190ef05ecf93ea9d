// Package addr implements the Othernet logical and transport addressing model.
package addr

import (
	"fmt"
	"strconv"
	"strings"
)

// LogicalAddress identifies a node independent of its transport, as the
// triple (realm, cluster, node_id).
type LogicalAddress struct {
	Realm   uint16
	Cluster uint16
	NodeID  uint32
}

// String renders the address as "R.C.N".
func (a LogicalAddress) String() string {
	return fmt.Sprintf("%d.%d.%d", a.Realm, a.Cluster, a.NodeID)
}

// Equal reports componentwise equality.
func (a LogicalAddress) Equal(b LogicalAddress) bool {
	return a == b
}

// ParseLogicalAddress parses a "R.C.N" string produced by String.
func ParseLogicalAddress(s string) (LogicalAddress, error) {
	parts := strings.SplitN(s, ".", 3)
	if len(parts) != 3 {
		return LogicalAddress{}, fmt.Errorf("addr: malformed logical address %q", s)
	}
	realm, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil {
		return LogicalAddress{}, fmt.Errorf("addr: bad realm in %q: %w", s, err)
	}
	cluster, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return LogicalAddress{}, fmt.Errorf("addr: bad cluster in %q: %w", s, err)
	}
	node, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return LogicalAddress{}, fmt.Errorf("addr: bad node_id in %q: %w", s, err)
	}
	return LogicalAddress{Realm: uint16(realm), Cluster: uint16(cluster), NodeID: uint32(node)}, nil
}

// Transport is the (ipv4, port) pair used for TCP connections, and the
// registry key for a Peer.
type Transport struct {
	IP   string
	Port uint16
}

// String renders the transport as "ip:port".
func (t Transport) String() string {
	return fmt.Sprintf("%s:%d", t.IP, t.Port)
}

// Scope is the discovery scope carried on every ProtocolMessage: a realm and
// cluster filter plus a hop budget. Reserved for future routing use; carried
// unchanged by this implementation per spec.
type Scope struct {
	Realm   uint16
	Cluster uint16
	MaxHops uint8
}

// DefaultScope is substituted when a wire line is missing its scope token.
var DefaultScope = Scope{Realm: 0, Cluster: 0, MaxHops: 8}

// String renders the scope as "R.C.H".
func (s Scope) String() string {
	return fmt.Sprintf("%d.%d.%d", s.Realm, s.Cluster, s.MaxHops)
}

// ParseScope parses a "R.C.H" string, without the "scope:" prefix.
func ParseScope(s string) (Scope, error) {
	parts := strings.SplitN(s, ".", 3)
	if len(parts) != 3 {
		return Scope{}, fmt.Errorf("addr: malformed scope %q", s)
	}
	realm, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil {
		return Scope{}, fmt.Errorf("addr: bad scope realm in %q: %w", s, err)
	}
	cluster, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return Scope{}, fmt.Errorf("addr: bad scope cluster in %q: %w", s, err)
	}
	hops, err := strconv.ParseUint(parts[2], 10, 8)
	if err != nil {
		return Scope{}, fmt.Errorf("addr: bad scope max_hops in %q: %w", s, err)
	}
	return Scope{Realm: uint16(realm), Cluster: uint16(cluster), MaxHops: uint8(hops)}, nil
}
