package iface_test

import (
	"testing"

	"github.com/packetplane/ipfwd/iface"
	"github.com/stretchr/testify/require"
)

func TestTableLookups(t *testing.T) {
	eth0 := iface.Interface{Name: "eth0", MAC: [6]byte{0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0x01}, IP: [4]byte{10, 0, 0, 1}}
	eth1 := iface.Interface{Name: "eth1", MAC: [6]byte{0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0x02}, IP: [4]byte{20, 0, 0, 1}}
	tbl := iface.NewTable([]iface.Interface{eth0, eth1})

	got, ok := tbl.ByName("eth1")
	require.True(t, ok)
	require.Equal(t, eth1, got)

	got, ok = tbl.ByIP([4]byte{10, 0, 0, 1})
	require.True(t, ok)
	require.Equal(t, eth0, got)

	got, ok = tbl.ByMAC(eth1.MAC)
	require.True(t, ok)
	require.Equal(t, eth1, got)

	_, ok = tbl.ByName("eth9")
	require.False(t, ok)
}

func TestTableCopiesInput(t *testing.T) {
	src := []iface.Interface{{Name: "eth0"}}
	tbl := iface.NewTable(src)
	src[0].Name = "mutated"
	got, _ := tbl.ByName("eth0")
	require.Equal(t, "eth0", got.Name)
}
