// Package node wires the wire codec, peer registry, and held-message store
// into the running mesh participant: the TCP acceptor and its per-connection
// readers, the protocol dispatch table, the periodic maintenance loop, and
// startup/shutdown lifecycle.
package node

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nspcc-dev/otherneo/internal/errs"
	"github.com/nspcc-dev/otherneo/pkg/addr"
	"github.com/nspcc-dev/otherneo/pkg/holding"
	"github.com/nspcc-dev/otherneo/pkg/registry"
	"github.com/nspcc-dev/otherneo/pkg/wire"
)

// DefaultPort is the fallback listen port when none is configured.
const DefaultPort = 8080

// DefaultMaintenanceEvery is how often the maintenance loop ticks.
const DefaultMaintenanceEvery = 30 * time.Second

// seenCacheSize bounds the LRU of recently observed (sender, timestamp)
// pairs used to short-circuit duplicate HELLO/CAPABILITY_UPDATE retransmits
// before they reach the registry lock.
const seenCacheSize = 1024

// Config holds everything needed to construct a Node. It is the in-memory
// counterpart of pkg/config.Config, already resolved to concrete values.
type Config struct {
	Address          addr.LogicalAddress
	ListenPort       uint16
	NodeIP           string
	MaxPeers         int
	MaxHeld          int
	Capabilities     addr.Capability
	Bootstrap        []addr.Transport
	Peers            []addr.Transport
	MaintenanceEvery time.Duration
}

// Node is the running mesh participant.
type Node struct {
	cfg Config
	log *zap.Logger

	registry *registry.Registry
	store    *holding.Store
	seen     *lru.Cache

	onMessage MessageHandler

	listener net.Listener
	running  atomic.Bool
	wg       sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	startedAt time.Time
	nowFunc   func() time.Time
}

// New builds a Node ready for Start. The registry and held store are
// constructed here so tests can reach them before Start is called.
func New(cfg Config, log *zap.Logger) *Node {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.ListenPort == 0 {
		cfg.ListenPort = DefaultPort
	}
	if cfg.MaintenanceEvery <= 0 {
		cfg.MaintenanceEvery = DefaultMaintenanceEvery
	}
	if cfg.Address == (addr.LogicalAddress{}) {
		cfg.Address = addr.LogicalAddress{
			Realm:   1,
			Cluster: 1,
			NodeID:  uint32(time.Now().Unix() % 10000),
		}
	}

	n := &Node{
		cfg:     cfg,
		log:     log,
		nowFunc: time.Now,
	}
	n.registry = registry.New(cfg.MaxPeers, log.Named("registry"))
	n.store = holding.New(cfg.MaxHeld, n.registry, n.deliver, log.Named("holding"))
	n.seen, _ = lru.New(seenCacheSize)
	return n
}

// Registry exposes the peer registry, e.g. for the "peers" CLI intent.
func (n *Node) Registry() *registry.Registry { return n.registry }

// Store exposes the held-message store, e.g. for the "held" CLI intent.
func (n *Node) Store() *holding.Store { return n.store }

// Capabilities returns this node's own capability bitset.
func (n *Node) Capabilities() addr.Capability { return n.cfg.Capabilities }

// Address returns this node's logical address.
func (n *Node) Address() addr.LogicalAddress { return n.cfg.Address }

// now returns the injectable clock, defaulting to time.Now.
func (n *Node) now() time.Time { return n.nowFunc() }

// deliver is the holding.Deliverer bound to this node's outbound send path.
func (n *Node) deliver(peer registry.Peer, sender addr.LogicalAddress, payload string, now time.Time) error {
	msg := &wire.Message{
		Type:       wire.TypeOthernetMessage,
		Sender:     sender,
		SenderIP:   n.cfg.NodeIP,
		SenderPort: n.cfg.ListenPort,
		Scope:      addr.DefaultScope,
		Timestamp:  now.Unix(),
		Data:       payload,
	}
	return n.send(peer.Transport, msg)
}

// send opens a fresh outbound connection, writes one encoded line, and
// closes it. Connection errors are non-fatal and returned to the caller to
// log and/or mark the peer inactive.
func (n *Node) send(transport addr.Transport, msg *wire.Message) error {
	conn, err := net.DialTimeout("tcp", transport.String(), 5*time.Second)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", errs.ErrConnectFailed, transport, err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(wire.Encode(msg))); err != nil {
		return fmt.Errorf("%w: %s: %v", errs.ErrSendFailed, transport, err)
	}
	return nil
}

// newSessionID is attached as a zap field to every reader goroutine so its
// whole lifetime (accept -> dispatch -> EOF) can be correlated in logs,
// independent of the held-message id space.
func newSessionID() string {
	return uuid.NewString()
}
