package wire

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nspcc-dev/otherneo/pkg/addr"
)

// Encode renders m as one '\n'-terminated line in the fixed field order:
//
//	<TYPE> <R.C.N> <sender_ip> <sender_port> scope:<sR>.<sC>.<sH> <timestamp> <data>
//
// Data is omitted along with its separating space when empty, so the line
// never carries a trailing space.
func Encode(m *Message) string {
	var b strings.Builder
	b.WriteString(string(m.Type))
	b.WriteByte(' ')
	b.WriteString(m.Sender.String())
	b.WriteByte(' ')
	b.WriteString(m.SenderIP)
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(uint64(m.SenderPort), 10))
	b.WriteString(" scope:")
	b.WriteString(m.Scope.String())
	b.WriteByte(' ')
	b.WriteString(strconv.FormatInt(m.Timestamp, 10))
	if m.Data != "" {
		b.WriteByte(' ')
		b.WriteString(m.Data)
	}
	b.WriteByte('\n')
	return b.String()
}

// Decode parses one line (without its trailing '\n') into a Message.
// It tolerates a missing "scope:" token, substituting addr.DefaultScope.
func Decode(line string) (*Message, error) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return nil, fmt.Errorf("wire: empty line")
	}

	// Tentatively assume the scope token is present: 6 fixed fields plus an
	// optional trailing data field lumped together.
	fields := strings.SplitN(line, " ", 7)
	if len(fields) >= 5 && strings.HasPrefix(fields[4], "scope:") {
		return decodeFields(fields, true)
	}

	// Scope token missing: re-split assuming only 5 fixed fields.
	fields = strings.SplitN(line, " ", 6)
	return decodeFields(fields, false)
}

func decodeFields(fields []string, hasScope bool) (*Message, error) {
	minFixed := 5
	if hasScope {
		minFixed = 6
	}
	if len(fields) < minFixed {
		return nil, fmt.Errorf("wire: too few fields in line (want at least %d, got %d)", minFixed, len(fields))
	}

	m := &Message{Type: Type(fields[0])}

	sender, err := addr.ParseLogicalAddress(fields[1])
	if err != nil {
		return nil, fmt.Errorf("wire: %w", err)
	}
	m.Sender = sender
	m.SenderIP = fields[2]

	port, err := strconv.ParseUint(fields[3], 10, 16)
	if err != nil {
		return nil, fmt.Errorf("wire: bad sender_port %q: %w", fields[3], err)
	}
	m.SenderPort = uint16(port)

	var tsField string
	if hasScope {
		scopeStr := strings.TrimPrefix(fields[4], "scope:")
		scope, err := addr.ParseScope(scopeStr)
		if err != nil {
			return nil, fmt.Errorf("wire: %w", err)
		}
		m.Scope = scope
		tsField = fields[5]
		if len(fields) > 6 {
			m.Data = fields[6]
		}
	} else {
		m.Scope = addr.DefaultScope
		tsField = fields[4]
		if len(fields) > 5 {
			m.Data = fields[5]
		}
	}

	ts, err := strconv.ParseInt(tsField, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("wire: bad timestamp %q: %w", tsField, err)
	}
	m.Timestamp = ts

	return m, nil
}
