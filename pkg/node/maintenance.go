package node

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nspcc-dev/otherneo/pkg/addr"
	"github.com/nspcc-dev/otherneo/pkg/holding"
	"github.com/nspcc-dev/otherneo/pkg/metrics"
	"github.com/nspcc-dev/otherneo/pkg/wire"
)

// maintenanceLoop runs the periodic housekeeping of §4.6: sweep the held
// store for expiries and due retries, then, if there is anyone to tell,
// announce this node's current capabilities and load.
func (n *Node) maintenanceLoop() {
	defer n.wg.Done()

	ticker := time.NewTicker(n.cfg.MaintenanceEvery)
	defer ticker.Stop()

	for {
		if n.stopping() {
			return
		}
		select {
		case <-n.ctx.Done():
			return
		case <-ticker.C:
			n.runMaintenance()
		}
	}
}

func (n *Node) runMaintenance() {
	now := n.now()
	start := time.Now()
	n.store.Sweep(now)
	n.reportMetrics()
	metrics.ObserveSweepDuration(time.Since(start))

	peers := n.registry.ListActive()
	if len(peers) == 0 {
		return
	}

	msg := &wire.Message{
		Type:       wire.TypeCapabilityUpdate,
		Sender:     n.cfg.Address,
		SenderIP:   n.cfg.NodeIP,
		SenderPort: n.cfg.ListenPort,
		Scope:      addr.DefaultScope,
		Timestamp:  now.Unix(),
		Data:       n.capabilityUpdateData(now),
	}
	n.broadcast(msg)
	n.log.Debug("maintenance tick", zap.Int("active_peers", len(peers)), zap.Int("held", n.store.Count()))
}

func (n *Node) capabilityUpdateData(now time.Time) string {
	uptime := int64(now.Sub(n.startedAt).Seconds())
	load := float32(n.store.Count()) / float32(holding.MaxHeldMessages)
	return fmt.Sprintf("capabilities:%d load:%.2f uptime:%d", uint32(n.cfg.Capabilities), load, uptime)
}

func (n *Node) reportMetrics() {
	metrics.SetActivePeers(len(n.registry.ListActive()))
	for status, count := range n.store.CountByStatus() {
		metrics.SetHeldByStatus(statusLabel(status), count)
	}
}

func statusLabel(s holding.Status) string {
	return s.String()
}
