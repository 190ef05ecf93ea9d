package node

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/nspcc-dev/otherneo/internal/errs"
	"github.com/nspcc-dev/otherneo/pkg/addr"
	"github.com/nspcc-dev/otherneo/pkg/holding"
	"github.com/nspcc-dev/otherneo/pkg/registry"
	"github.com/nspcc-dev/otherneo/pkg/wire"
)

// seenKey identifies one (sender, timestamp) observation for the retransmit
// filter below.
type seenKey struct {
	sender addr.LogicalAddress
	ts     int64
}

// retransmit reports whether msg has already been dispatched once, based on
// its (sender, timestamp) pair, and records it if not. HELLO and
// CAPABILITY_UPDATE are the only types that gain anything from the check:
// both are sent repeatedly (HELLO on every Connect, CAPABILITY_UPDATE on
// every maintenance tick) and
// re-applying them is pure waste, never a correctness issue, which is why
// only these two call it.
func (n *Node) retransmit(msg *wire.Message) bool {
	key := seenKey{sender: msg.Sender, ts: msg.Timestamp}
	if _, ok := n.seen.Get(key); ok {
		return true
	}
	n.seen.Add(key, struct{}{})
	return false
}

// MessageHandler renders an inbound OTHERNET_MESSAGE to whatever surface the
// embedder provides (the REPL, in the reference node). No automatic
// forwarding happens; this is the single local-delivery hook.
type MessageHandler func(sender addr.LogicalAddress, payload string)

// SetMessageHandler installs the sink for locally-delivered OTHERNET_MESSAGEs.
func (n *Node) SetMessageHandler(h MessageHandler) { n.onMessage = h }

// dispatch decodes one line and routes it to the protocol handler. Unknown
// or unparseable lines are discarded silently; the connection remains open.
func (n *Node) dispatch(line, fromIP string, log *zap.Logger) {
	msg, err := wire.Decode(line)
	if err != nil {
		log.Debug("decode failed, dropping line", zap.Error(errs.ErrDecodeFailed), zap.Error(err))
		return
	}

	switch msg.Type {
	case wire.TypeHello:
		if n.retransmit(msg) {
			log.Debug("duplicate hello, already processed", zap.String("sender", msg.Sender.String()))
			return
		}
		n.handleHello(msg, fromIP, log)
	case wire.TypeOthernetMessage:
		n.handleOthernetMessage(msg)
	case wire.TypeGoodbye:
		n.handleGoodbye(msg, fromIP)
	case wire.TypeCapabilityUpdate:
		if n.retransmit(msg) {
			return
		}
		n.handleCapabilityUpdate(msg, fromIP)
	case wire.TypePeerList, wire.TypeHoldRequest, wire.TypeHoldResponse,
		wire.TypeDeliveryAttempt, wire.TypeDeliveryConfirm:
		log.Debug("ignoring reserved message type", zap.String("type", string(msg.Type)))
	default:
		log.Debug("unknown message type, dropping", zap.String("type", string(msg.Type)))
	}
}

func (n *Node) handleHello(msg *wire.Message, fromIP string, log *zap.Logger) {
	caps, _ := parseUint32Field(dataFields(msg.Data), "capabilities")

	transport := addr.Transport{IP: fromIP, Port: msg.SenderPort}
	if _, err := n.registry.Upsert(transport, msg.Sender, addr.Capability(caps), n.now()); err != nil {
		log.Warn("could not register peer", zap.Error(err))
		return
	}
	log.Info("peer registered", zap.String("address", msg.Sender.String()), zap.String("transport", transport.String()))

	reply := &wire.Message{
		Type:       wire.TypeHello,
		Sender:     n.cfg.Address,
		SenderIP:   n.cfg.NodeIP,
		SenderPort: n.cfg.ListenPort,
		Scope:      addr.DefaultScope,
		Timestamp:  n.now().Unix(),
		Data:       capabilitiesData(n.cfg.Capabilities),
	}
	if err := n.send(transport, reply); err != nil {
		log.Warn("hello reply failed", zap.Error(err))
		n.registry.MarkInactive(transport)
	}
}

func (n *Node) handleOthernetMessage(msg *wire.Message) {
	if n.onMessage != nil {
		n.onMessage(msg.Sender, msg.Data)
		return
	}
	n.log.Info("message received", zap.String("sender", msg.Sender.String()), zap.String("data", msg.Data))
}

func (n *Node) handleGoodbye(msg *wire.Message, fromIP string) {
	transport := addr.Transport{IP: fromIP, Port: msg.SenderPort}
	n.registry.MarkInactive(transport)
	n.store.Redistribute(fromIP, n.now())
}

// handleCapabilityUpdate is the one "MAY act on it" instance of a reserved
// message type: it keeps find_best_holding's load_factor input fresh for
// peers we already know, without changing any specified dispatch semantics.
func (n *Node) handleCapabilityUpdate(msg *wire.Message, fromIP string) {
	fields := dataFields(msg.Data)
	transport := addr.Transport{IP: fromIP, Port: msg.SenderPort}
	if load, ok := parseFloat32Field(fields, "load"); ok {
		n.registry.SetLoadFactor(transport, load)
	}
}

// handleHoldResponse would accept an offer from a HOLDING peer to retain a
// message on our behalf; left unwired per spec open question (find_best_holding
// is reserved but unused by the specified handlers). Present only as the
// Deliverer hook's natural extension point, not exercised by any dispatch path.
func (n *Node) handleHoldResponse(msg uint64, ip string) {
	n.store.SetHoldingNode(msg, ip)
}

func capabilitiesData(c addr.Capability) string {
	return "capabilities:" + strconv.FormatUint(uint64(c), 10)
}

// broadcast sends msg to every active peer in the registry, best-effort:
// per-peer failures are logged and mark the peer inactive, but never abort
// the rest of the fan-out.
func (n *Node) broadcast(msg *wire.Message) {
	for _, peer := range n.registry.ListActive() {
		if err := n.send(peer.Transport, msg); err != nil {
			n.log.Warn("broadcast to peer failed", zap.String("transport", peer.Transport.String()), zap.Error(err))
			n.registry.MarkInactive(peer.Transport)
		}
	}
}

// Connect performs the client side of a HELLO handshake: dial, send our own
// HELLO, and register the peer speculatively so it is usable immediately.
// The peer's own HELLO reply (received by our acceptor on a separate
// connection) will upsert the same entry with corroborated data.
func (n *Node) Connect(ip string, port uint16) error {
	transport := addr.Transport{IP: ip, Port: port}
	hello := &wire.Message{
		Type:       wire.TypeHello,
		Sender:     n.cfg.Address,
		SenderIP:   n.cfg.NodeIP,
		SenderPort: n.cfg.ListenPort,
		Scope:      addr.DefaultScope,
		Timestamp:  n.now().Unix(),
		Data:       capabilitiesData(n.cfg.Capabilities),
	}
	if err := n.send(transport, hello); err != nil {
		return err
	}
	_, err := n.registry.Upsert(transport, addr.LogicalAddress{}, 0, n.now())
	return err
}

// SendApplicationMessage routes payload to target: a direct OTHERNET_MESSAGE
// if the peer is known and live, or a held message queued for retry
// otherwise. It returns the id assigned to the held-message record, which is
// only meaningful when the message could not be delivered immediately.
func (n *Node) SendApplicationMessage(target addr.LogicalAddress, payload string) (uint64, error) {
	return n.store.Enqueue(target, n.cfg.Address, payload, holding.PriorityNormal, n.now())
}

// BroadcastMessage sends an OTHERNET_MESSAGE with the given payload to every
// active peer, bypassing the held-message store entirely.
func (n *Node) BroadcastMessage(payload string) {
	msg := &wire.Message{
		Type:       wire.TypeOthernetMessage,
		Sender:     n.cfg.Address,
		SenderIP:   n.cfg.NodeIP,
		SenderPort: n.cfg.ListenPort,
		Scope:      addr.DefaultScope,
		Timestamp:  n.now().Unix(),
		Data:       payload,
	}
	n.broadcast(msg)
}

// Peers returns a snapshot of every active peer in the registry.
func (n *Node) Peers() []registry.Peer {
	return n.registry.ListActive()
}

// Held returns a snapshot of every held message not in DELIVERED status,
// including EXPIRED and FAILED ones.
func (n *Node) Held() []holding.Message {
	return n.store.NonDelivered()
}
