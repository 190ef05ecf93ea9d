package wire

import (
	"testing"

	"github.com/nspcc-dev/otherneo/pkg/addr"
	"github.com/stretchr/testify/require"
)

func TestDecodeRoundTrip(t *testing.T) {
	line := "HELLO 1.1.42 10.0.0.2 8080 scope:0.0.8 1700000000 capabilities:3"

	m, err := Decode(line)
	require.NoError(t, err)
	require.Equal(t, TypeHello, m.Type)
	require.Equal(t, addr.LogicalAddress{Realm: 1, Cluster: 1, NodeID: 42}, m.Sender)
	require.Equal(t, "10.0.0.2", m.SenderIP)
	require.Equal(t, uint16(8080), m.SenderPort)
	require.Equal(t, addr.Scope{Realm: 0, Cluster: 0, MaxHops: 8}, m.Scope)
	require.Equal(t, int64(1700000000), m.Timestamp)
	require.Equal(t, "capabilities:3", m.Data)

	require.Equal(t, line+"\n", Encode(m))
}

func TestDecodeMissingScope(t *testing.T) {
	line := "HELLO 1.1.42 10.0.0.2 8080 1700000000 capabilities:3"

	m, err := Decode(line)
	require.NoError(t, err)
	require.Equal(t, addr.DefaultScope, m.Scope)
	require.Equal(t, "capabilities:3", m.Data)
}

func TestDecodeNoData(t *testing.T) {
	line := "GOODBYE 1.1.42 10.0.0.2 8080 scope:0.0.8 1700000000"

	m, err := Decode(line)
	require.NoError(t, err)
	require.Equal(t, "", m.Data)
	require.Equal(t, line+"\n", Encode(m))
}

func TestDecodeDataWithSpaces(t *testing.T) {
	line := "OTHERNET_MESSAGE 1.1.42 10.0.0.2 8080 scope:0.0.8 1700000000 hello there, world"

	m, err := Decode(line)
	require.NoError(t, err)
	require.Equal(t, "hello there, world", m.Data)
	require.Equal(t, line+"\n", Encode(m))
}

func TestDecodeUnparseable(t *testing.T) {
	for _, bad := range []string{
		"",
		"HELLO",
		"HELLO 1.1.42",
		"HELLO not.an.address 10.0.0.2 8080 scope:0.0.8 170",
		"HELLO 1.1.42 10.0.0.2 notaport scope:0.0.8 1700000000",
	} {
		_, err := Decode(bad)
		require.Error(t, err, "expected decode error for %q", bad)
	}
}

func TestMessageTruncate(t *testing.T) {
	big := make([]byte, MaxDataLen+50)
	for i := range big {
		big[i] = 'x'
	}
	m := &Message{Data: string(big)}
	m.Truncate()
	require.Len(t, m.Data, MaxDataLen)
}
