package node

import (
	"bufio"
	"errors"
	"net"

	"go.uber.org/zap"
)

// acceptLoop accepts on the server socket that Start bound, spawning an
// independent reader per accepted connection. It returns when the
// listener is closed by Shutdown.
func (n *Node) acceptLoop() {
	defer n.wg.Done()

	for {
		conn, err := n.listener.Accept()
		if err != nil {
			if n.stopping() {
				return
			}
			n.log.Warn("accept failed", zap.Error(err))
			continue
		}

		session := newSessionID()
		n.wg.Add(1)
		go n.readLoop(conn, session)
	}
}

// readLoop decodes one message per line until EOF or error, dispatching
// each to the protocol handler. Reader tasks share no state except the
// thread-safe registry and store.
func (n *Node) readLoop(conn net.Conn, session string) {
	defer n.wg.Done()
	defer conn.Close()

	remoteIP, _, _ := net.SplitHostPort(conn.RemoteAddr().String())
	log := n.log.With(zap.String("session", session), zap.String("remote_ip", remoteIP))

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 4096), 64*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		n.dispatch(line, remoteIP, log)
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		log.Debug("connection read ended", zap.Error(err))
	}
}
