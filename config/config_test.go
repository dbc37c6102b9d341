package config_test

import (
	"strings"
	"testing"

	"github.com/packetplane/ipfwd/config"
	"github.com/stretchr/testify/require"
)

func TestLoadInterfaces(t *testing.T) {
	const input = `
# office switch uplink
eth0 AA:AA:AA:AA:AA:01 10.0.0.1
eth1 AA:AA:AA:AA:AA:02 20.0.0.1
`
	got, err := config.LoadInterfaces(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "eth0", got[0].Name)
	require.Equal(t, [4]byte{10, 0, 0, 1}, got[0].IP)
	require.Equal(t, [6]byte{0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0x01}, got[0].MAC)
}

func TestLoadInterfacesRejectsMalformedLine(t *testing.T) {
	_, err := config.LoadInterfaces(strings.NewReader("eth0 AA:AA:AA:AA:AA:01\n"))
	require.Error(t, err)
}

func TestLoadRoutes(t *testing.T) {
	const input = `20.0.0.0 255.255.255.0 0.0.0.0 eth1
0.0.0.0 0.0.0.0 10.0.0.254 eth0
`
	got, err := config.LoadRoutes(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, [4]byte{20, 0, 0, 0}, got[0].Dest)
	require.Equal(t, [4]byte{0, 0, 0, 0}, got[0].Gateway)
	require.Equal(t, [4]byte{10, 0, 0, 254}, got[1].Gateway)
}

func TestLoadRoutesRejectsBadAddress(t *testing.T) {
	_, err := config.LoadRoutes(strings.NewReader("not-an-ip 255.255.255.0 0.0.0.0 eth1\n"))
	require.Error(t, err)
}
