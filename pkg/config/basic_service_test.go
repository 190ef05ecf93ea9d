package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBasicServiceEnabledDefaultsFalse(t *testing.T) {
	var svc BasicService
	require.False(t, svc.Enabled)
	require.Empty(t, svc.Addresses)
}

func TestBasicServiceAddresses(t *testing.T) {
	svc := BasicService{Enabled: true, Addresses: []string{"127.0.0.1:2112"}}
	require.True(t, svc.Enabled)
	require.Equal(t, []string{"127.0.0.1:2112"}, svc.Addresses)
}
