package router_test

import (
	"testing"
	"time"

	"github.com/packetplane/ipfwd/arpcache"
	"github.com/packetplane/ipfwd/ethernet"
	"github.com/packetplane/ipfwd/ipv4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// A datagram addressed across the router with a resolved next hop is
// forwarded with TTL decremented and the checksum recomputed.
func TestForwardDecrementsTTLAndRoutes(t *testing.T) {
	link := newFakeLink()
	r, m := newTestRouter(t, link)
	r.Cache.Insert(destHostIP, [6]byte{0xBB, 0xBB, 0xBB, 0xBB, 0xBB, 0x01})

	frame := buildEchoRequest(t, hostMAC, routerEth0MAC, hostIP, destHostIP, 10)
	r.Demux("eth0", frame)

	sent := link.last("eth1")
	require.NotNil(t, sent, "expected a frame forwarded out eth1")

	efrm, err := ethernet.NewFrame(sent)
	require.NoError(t, err)
	require.Equal(t, routerEth1MAC, *efrm.SourceHardwareAddr())
	require.Equal(t, [6]byte{0xBB, 0xBB, 0xBB, 0xBB, 0xBB, 0x01}, *efrm.DestinationHardwareAddr())

	ifrm, err := ipv4.NewFrame(efrm.Payload())
	require.NoError(t, err)
	require.Equal(t, uint8(9), ifrm.TTL())
	require.Equal(t, ifrm.CalculateHeaderCRC(), ifrm.CRC())

	require.Equal(t, float64(1), testutil.ToFloat64(m.FramesForwarded))
}

// A datagram with TTL=1 is never forwarded; it elicits an ICMP
// time-exceeded back toward the sender instead.
func TestForwardTTLExpiryProducesTimeExceeded(t *testing.T) {
	link := newFakeLink()
	r, _ := newTestRouter(t, link)
	r.Cache.Insert(hostIP, hostMAC)

	frame := buildEchoRequest(t, hostMAC, routerEth0MAC, hostIP, destHostIP, 1)
	r.Demux("eth0", frame)

	sent := link.last("eth0")
	require.NotNil(t, sent, "expected an ICMP error sent back out eth0")

	efrm, err := ethernet.NewFrame(sent)
	require.NoError(t, err)
	ifrm, err := ipv4.NewFrame(efrm.Payload())
	require.NoError(t, err)
	require.Equal(t, hostIP, *ifrm.DestinationAddr())
	require.Equal(t, routerEth0IP, *ifrm.SourceAddr())
}

// A datagram for a destination with no matching route elicits an ICMP
// net-unreachable.
func TestForwardNoRouteProducesNetUnreachable(t *testing.T) {
	link := newFakeLink()
	r, _ := newTestRouter(t, link)
	r.Cache.Insert(hostIP, hostMAC)

	unrouted := [4]byte{172, 16, 0, 9}
	frame := buildEchoRequest(t, hostMAC, routerEth0MAC, hostIP, unrouted, 10)
	r.Demux("eth0", frame)

	sent := link.last("eth0")
	require.NotNil(t, sent)
	efrm, err := ethernet.NewFrame(sent)
	require.NoError(t, err)
	ifrm, err := ipv4.NewFrame(efrm.Payload())
	require.NoError(t, err)
	require.Equal(t, hostIP, *ifrm.DestinationAddr())
}

// When the next hop isn't in the ARP cache, the frame is queued and an ARP
// probe goes out, instead of being transmitted immediately.
func TestForwardCacheMissQueuesAndProbes(t *testing.T) {
	link := newFakeLink()
	r, _ := newTestRouter(t, link)

	frame := buildEchoRequest(t, hostMAC, routerEth0MAC, hostIP, destHostIP, 10)
	r.Demux("eth0", frame)

	require.Len(t, link.sent["eth1"], 1, "only the ARP probe should go out before resolution")

	probe := link.last("eth1")
	require.NotNil(t, probe, "expected an ARP probe out eth1")
	efrm, err := ethernet.NewFrame(probe)
	require.NoError(t, err)
	require.Equal(t, ethernet.TypeARP, efrm.EtherTypeOrSize())
	require.Equal(t, ethernet.BroadcastAddr(), *efrm.DestinationHardwareAddr())

	// Once the reply arrives, the queued datagram drains automatically.
	reply := buildARPReply(t, [6]byte{0xCC, 0xCC, 0xCC, 0xCC, 0xCC, 0x01}, routerEth1MAC, destHostIP, routerEth1IP)
	r.Demux("eth1", reply)

	drained := link.last("eth1")
	require.NotNil(t, drained)
	drainedEfrm, err := ethernet.NewFrame(drained)
	require.NoError(t, err)
	require.Equal(t, ethernet.TypeIPv4, drainedEfrm.EtherTypeOrSize())
}

// The retry-then-abandon path: after MaxTries unanswered probes, Sweep
// reports the pending request as abandoned along with its queued packet,
// and forgets it afterward.
func TestForwardAbandonAfterRetriesExhausted(t *testing.T) {
	link := newFakeLink()
	r, _ := newTestRouter(t, link)

	frame := buildEchoRequest(t, hostMAC, routerEth0MAC, hostIP, destHostIP, 10)
	r.Demux("eth0", frame)

	now := time.Now()
	for i := 0; i < arpcache.MaxTries-1; i++ {
		now = now.Add(arpcache.RetryInterval)
		result := r.Cache.Sweep(now)
		require.Len(t, result.Probes, 1)
	}
	now = now.Add(arpcache.RetryInterval)
	result := r.Cache.Sweep(now)
	require.Len(t, result.Abandoned, 1)
	require.Equal(t, destHostIP, result.Abandoned[0].IP)
	require.Len(t, result.Abandoned[0].Packets, 1)

	// The request is gone: a further sweep is a no-op for this IP.
	result = r.Cache.Sweep(now.Add(arpcache.RetryInterval))
	require.Empty(t, result.Abandoned)
}
