package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nspcc-dev/otherneo/pkg/addr"
)

// ParseTransports turns a list of "ip:port" strings — as found in
// Bootstrap/Peers or BOOTSTRAP_ADDRESS/PEER_ADDRESSES — into addr.Transport
// values.
func ParseTransports(addrs []string) ([]addr.Transport, error) {
	out := make([]addr.Transport, 0, len(addrs))
	for _, a := range addrs {
		idx := strings.LastIndex(a, ":")
		if idx < 0 {
			return nil, fmt.Errorf("transport %q: missing port", a)
		}
		port, err := strconv.ParseUint(a[idx+1:], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("transport %q: %w", a, err)
		}
		out = append(out, addr.Transport{IP: a[:idx], Port: uint16(port)})
	}
	return out, nil
}

// ParseCapabilities converts a list of capability names into a bitset.
func ParseCapabilities(names []string) addr.Capability {
	return addr.ParseCapabilityNames(names)
}
