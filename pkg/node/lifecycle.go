package node

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/nspcc-dev/otherneo/internal/errs"
	"github.com/nspcc-dev/otherneo/pkg/addr"
	"github.com/nspcc-dev/otherneo/pkg/wire"
)

// Start runs the startup sequence of §4.7: bind the acceptor, start
// maintenance, and — per the reference node's ordering — attempt the
// bootstrap HELLO(s) first, before the acceptor is even listening, since a
// failed bootstrap send must never block startup.
func (n *Node) Start() error {
	n.ctx, n.cancel = context.WithCancel(context.Background())
	n.startedAt = n.now()
	n.running.Store(true)

	for _, t := range n.cfg.Bootstrap {
		if err := n.Connect(t.IP, t.Port); err != nil {
			n.log.Warn("bootstrap hello failed", zap.String("transport", t.String()), zap.Error(err))
		}
	}
	for _, t := range n.cfg.Peers {
		if err := n.Connect(t.IP, t.Port); err != nil {
			n.log.Warn("peer seed hello failed", zap.String("transport", t.String()), zap.Error(err))
		}
	}

	addrStr := fmt.Sprintf("0.0.0.0:%d", n.cfg.ListenPort)
	ln, err := net.Listen("tcp", addrStr)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", errs.ErrBindFailed, addrStr, err)
	}
	n.listener = ln
	n.log.Info("listening", zap.String("address", addrStr))

	n.wg.Add(2)
	go n.acceptLoop()
	go n.maintenanceLoop()

	return nil
}

// ListenAddr returns the acceptor's bound address. Only valid after Start.
func (n *Node) ListenAddr() net.Addr {
	if n.listener == nil {
		return nil
	}
	return n.listener.Addr()
}

// Shutdown runs the shutdown sequence of §4.7: stop observing new work,
// broadcast GOODBYE, close the listener, wait for the acceptor and
// maintenance loop to return, and report the held-message count.
func (n *Node) Shutdown() int {
	if !n.running.CompareAndSwap(true, false) {
		return len(n.store.NonDelivered())
	}

	goodbye := &wire.Message{
		Type:       wire.TypeGoodbye,
		Sender:     n.cfg.Address,
		SenderIP:   n.cfg.NodeIP,
		SenderPort: n.cfg.ListenPort,
		Scope:      addr.DefaultScope,
		Timestamp:  n.now().Unix(),
	}
	n.broadcast(goodbye)

	if n.listener != nil {
		n.listener.Close()
	}
	n.cancel()
	n.wg.Wait()

	held := len(n.store.NonDelivered())
	n.log.Info("shutdown complete", zap.Int("held_messages", held))
	return held
}

// stopping reports whether shutdown has begun; loops observe it at their
// next header or blocking-call boundary.
func (n *Node) stopping() bool {
	select {
	case <-n.ctx.Done():
		return true
	default:
		return !n.running.Load()
	}
}

// waitOrDone sleeps for d unless the node is shutting down, returning true
// if shutdown interrupted the wait.
func (n *Node) waitOrDone(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-n.ctx.Done():
		return true
	case <-timer.C:
		return false
	}
}
