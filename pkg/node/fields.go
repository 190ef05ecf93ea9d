package node

import (
	"strconv"
	"strings"
)

// dataFields splits a ProtocolMessage's Data into its "key:value" tokens,
// the convention used by HELLO ("capabilities:3") and CAPABILITY_UPDATE
// ("capabilities:3 load:0.12 uptime:1700000000").
func dataFields(data string) map[string]string {
	fields := make(map[string]string)
	for _, tok := range strings.Fields(data) {
		k, v, ok := strings.Cut(tok, ":")
		if ok {
			fields[k] = v
		}
	}
	return fields
}

func parseUint32Field(fields map[string]string, key string) (uint32, bool) {
	v, ok := fields[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

func parseFloat32Field(fields map[string]string, key string) (float32, bool) {
	v, ok := fields[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return 0, false
	}
	return float32(n), true
}
