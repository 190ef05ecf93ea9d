// Package wire implements the line-oriented textual framing used by the
// Othernet protocol: one ProtocolMessage per '\n'-terminated line, with
// space-separated fields in a fixed order.
package wire

import (
	"github.com/nspcc-dev/otherneo/pkg/addr"
)

// Type is the protocol message type, encoded on the wire as its uppercase
// name.
type Type string

// The nine message types defined by the protocol.
const (
	TypeHello             Type = "HELLO"
	TypePeerList          Type = "PEER_LIST"
	TypeOthernetMessage   Type = "OTHERNET_MESSAGE"
	TypeHoldRequest       Type = "HOLD_REQUEST"
	TypeHoldResponse      Type = "HOLD_RESPONSE"
	TypeDeliveryAttempt   Type = "DELIVERY_ATTEMPT"
	TypeDeliveryConfirm   Type = "DELIVERY_CONFIRM"
	TypeCapabilityUpdate  Type = "CAPABILITY_UPDATE"
	TypeGoodbye           Type = "GOODBYE"
)

// MaxDataLen is the bound on ProtocolMessage.Data, in bytes.
const MaxDataLen = 1024

// Message is the decoded form of one protocol line.
type Message struct {
	Type       Type
	Sender     addr.LogicalAddress
	SenderIP   string
	SenderPort uint16
	Scope      addr.Scope
	TTL        uint8
	Timestamp  int64
	Data       string
}

// Truncate clips Data to MaxDataLen, as required of anything placed on the
// wire.
func (m *Message) Truncate() {
	if len(m.Data) > MaxDataLen {
		m.Data = m.Data[:MaxDataLen]
	}
}
