package node

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nspcc-dev/otherneo/pkg/addr"
)

// freePort reserves an unused TCP port. New treats ListenPort 0 as
// DefaultPort, so each test node needs an explicit port of its own.
func freePort(t *testing.T) uint16 {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return uint16(ln.Addr().(*net.TCPAddr).Port)
}

func newTestNode(t *testing.T, realm, cluster, id uint32) *Node {
	t.Helper()
	n := New(Config{
		Address:          addr.LogicalAddress{Realm: uint16(realm), Cluster: uint16(cluster), NodeID: id},
		ListenPort:       freePort(t),
		NodeIP:           "127.0.0.1",
		MaxPeers:         10,
		MaxHeld:          10,
		Capabilities:     addr.CapHolding,
		MaintenanceEvery: time.Hour, // tests trigger maintenance manually
	}, zaptest.NewLogger(t))
	require.NoError(t, n.Start())
	t.Cleanup(func() { n.Shutdown() })
	return n
}

func portOf(t *testing.T, n *Node) uint16 {
	t.Helper()
	_, portStr, err := net.SplitHostPort(n.ListenAddr().String())
	require.NoError(t, err)
	p, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return uint16(p)
}

func TestHelloHandshakeRegistersBothSides(t *testing.T) {
	a := newTestNode(t, 1, 1, 1)
	b := newTestNode(t, 1, 1, 2)

	require.NoError(t, a.Connect("127.0.0.1", portOf(t, b)))

	require.Eventually(t, func() bool {
		return b.Registry().Count() == 1
	}, time.Second, 5*time.Millisecond, "b should have registered a's hello")

	require.Eventually(t, func() bool {
		return a.Registry().Count() == 1
	}, time.Second, 5*time.Millisecond, "a should have registered b's hello reply")
}

func TestGoodbyeMarksPeerInactiveAndRedistributes(t *testing.T) {
	a := newTestNode(t, 1, 1, 1)
	b := newTestNode(t, 1, 1, 2)

	require.NoError(t, a.Connect("127.0.0.1", portOf(t, b)))
	require.Eventually(t, func() bool {
		return b.Registry().Count() == 1
	}, time.Second, 5*time.Millisecond)

	id, err := a.SendApplicationMessage(addr.LogicalAddress{Realm: 9, Cluster: 9, NodeID: 9}, "pending")
	require.NoError(t, err)
	a.Store().SetHoldingNode(id, "127.0.0.1")

	held := b.Shutdown()
	require.GreaterOrEqual(t, held, 0)

	require.Eventually(t, func() bool {
		peers := a.Registry().ListActive()
		return len(peers) == 0
	}, time.Second, 5*time.Millisecond, "a should mark b inactive after GOODBYE")

	require.Eventually(t, func() bool {
		m, ok := a.Store().Get(id)
		return ok && m.HoldingNode == ""
	}, time.Second, 5*time.Millisecond, "a should redistribute messages held by b after GOODBYE")
}

func TestBroadcastMessageReachesActivePeers(t *testing.T) {
	a := newTestNode(t, 1, 1, 1)
	b := newTestNode(t, 1, 1, 2)

	received := make(chan string, 1)
	b.SetMessageHandler(func(sender addr.LogicalAddress, payload string) {
		received <- payload
	})

	require.NoError(t, a.Connect("127.0.0.1", portOf(t, b)))
	require.Eventually(t, func() bool {
		return a.Registry().Count() == 1
	}, time.Second, 5*time.Millisecond)

	a.BroadcastMessage("hello mesh")

	select {
	case payload := <-received:
		require.Equal(t, "hello mesh", payload)
	case <-time.After(time.Second):
		t.Fatal("b never received the broadcast message")
	}
}

func TestMaintenanceSweepsHeldStore(t *testing.T) {
	a := newTestNode(t, 1, 1, 1)
	unknown := addr.LogicalAddress{Realm: 9, Cluster: 9, NodeID: 9}

	_, err := a.SendApplicationMessage(unknown, "undeliverable")
	require.NoError(t, err)
	require.Equal(t, 1, a.Store().Count())

	a.runMaintenance()
	require.Equal(t, 1, a.Store().Count(), "message should remain held, awaiting retry")
}
