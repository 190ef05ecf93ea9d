package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadEnvMissingNodeID(t *testing.T) {
	t.Setenv("NODE_ID", "")
	_, err := LoadEnv()
	require.Error(t, err)
}

func TestLoadEnvParsesAddressesAndPort(t *testing.T) {
	t.Setenv("NODE_ID", "42")
	t.Setenv("NODE_IP", "10.0.0.5")
	t.Setenv("LISTEN_PORT", "9000")
	t.Setenv("BOOTSTRAP_ADDRESS", "10.0.0.1:8080, 10.0.0.2:8080")
	t.Setenv("PEER_ADDRESSES", "10.0.0.3:8080")

	cfg, err := LoadEnv()
	require.NoError(t, err)
	require.Equal(t, uint32(42), cfg.Address.NodeID)
	require.Equal(t, "10.0.0.5", cfg.NodeIP)
	require.Equal(t, uint16(9000), cfg.ListenPort)
	require.Equal(t, []string{"10.0.0.1:8080", "10.0.0.2:8080"}, cfg.Bootstrap)
	require.Equal(t, []string{"10.0.0.3:8080"}, cfg.Peers)
}

func TestLoggerValidateRejectsUnknownEncoding(t *testing.T) {
	l := Logger{LogEncoding: "xml"}
	require.Error(t, l.Validate())
}
