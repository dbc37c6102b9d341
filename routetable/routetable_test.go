package routetable_test

import (
	"testing"

	"github.com/packetplane/ipfwd/routetable"
	"github.com/stretchr/testify/require"
)

func TestLPMPicksLongestMask(t *testing.T) {
	tbl := routetable.NewTable([]routetable.Route{
		{Dest: [4]byte{20, 0, 0, 0}, Mask: [4]byte{255, 0, 0, 0}, Iface: "eth1"},
		{Dest: [4]byte{20, 0, 0, 0}, Mask: [4]byte{255, 255, 255, 0}, Iface: "eth2"},
		{Dest: [4]byte{0, 0, 0, 0}, Mask: [4]byte{0, 0, 0, 0}, Gateway: [4]byte{10, 0, 0, 254}, Iface: "eth0"},
	})

	r, ok := tbl.LPM([4]byte{20, 0, 0, 5})
	require.True(t, ok)
	require.Equal(t, "eth2", r.Iface)

	r, ok = tbl.LPM([4]byte{20, 1, 0, 5})
	require.True(t, ok)
	require.Equal(t, "eth1", r.Iface)

	r, ok = tbl.LPM([4]byte{8, 8, 8, 8})
	require.True(t, ok)
	require.Equal(t, "eth0", r.Iface, "falls back to default route")
}

func TestLPMNoMatch(t *testing.T) {
	tbl := routetable.NewTable([]routetable.Route{
		{Dest: [4]byte{20, 0, 0, 0}, Mask: [4]byte{255, 255, 255, 0}, Iface: "eth1"},
	})
	_, ok := tbl.LPM([4]byte{30, 0, 0, 5})
	require.False(t, ok)
}

func TestLPMTieBreaksByInsertionOrder(t *testing.T) {
	tbl := routetable.NewTable([]routetable.Route{
		{Dest: [4]byte{20, 0, 0, 0}, Mask: [4]byte{255, 255, 255, 0}, Iface: "first"},
		{Dest: [4]byte{20, 0, 0, 0}, Mask: [4]byte{255, 255, 255, 0}, Iface: "second"},
	})
	r, ok := tbl.LPM([4]byte{20, 0, 0, 5})
	require.True(t, ok)
	require.Equal(t, "first", r.Iface)
}
