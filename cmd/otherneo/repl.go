package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/nspcc-dev/otherneo/pkg/addr"
	"github.com/nspcc-dev/otherneo/pkg/node"
)

// runREPL is the thin external glue §1 calls out as out of scope for the
// core: it only translates stdin lines into the seven command intents of
// §6 and renders their results, never touching the registry or held store
// directly.
func runREPL(n *node.Node, ctx context.Context, cancel context.CancelFunc) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if handleLine(n, scanner.Text()) {
			cancel()
			return
		}
	}
}

func handleLine(n *node.Node, line string) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "connect":
		if len(fields) != 3 {
			fmt.Println("usage: connect <ip> <port>")
			return false
		}
		port, err := strconv.ParseUint(fields[2], 10, 16)
		if err != nil {
			fmt.Println("connect failed: bad port")
			return false
		}
		if err := n.Connect(fields[1], uint16(port)); err != nil {
			fmt.Printf("connect failed: %v\n", err)
		}
	case "send":
		if len(fields) < 3 {
			fmt.Println("usage: send <R.C.N> <message>")
			return false
		}
		target, err := addr.ParseLogicalAddress(fields[1])
		if err != nil {
			fmt.Printf("send failed: %v\n", err)
			return false
		}
		payload := strings.Join(fields[2:], " ")
		if _, err := n.SendApplicationMessage(target, payload); err != nil {
			fmt.Printf("send failed: %v\n", err)
		}
	case "broadcast":
		if len(fields) < 2 {
			fmt.Println("usage: broadcast <message>")
			return false
		}
		n.BroadcastMessage(strings.Join(fields[1:], " "))
	case "peers":
		for _, p := range n.Peers() {
			fmt.Printf("%s %s caps=%s load=%.2f\n", p.Transport, p.Address, p.Capabilities, p.LoadFactor)
		}
	case "held":
		for _, m := range n.Held() {
			fmt.Printf("%d -> %s status=%s attempts=%d\n", m.ID, m.Target, m.Status, m.AttemptCount)
		}
	case "capabilities":
		fmt.Println(n.Capabilities())
	case "quit":
		return true
	default:
		fmt.Printf("unknown command: %s\n", fields[0])
	}
	return false
}
