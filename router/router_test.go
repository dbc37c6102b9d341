package router_test

import (
	"log/slog"
	"testing"

	"github.com/packetplane/ipfwd/arp"
	"github.com/packetplane/ipfwd/ethernet"
	"github.com/packetplane/ipfwd/iface"
	"github.com/packetplane/ipfwd/ipv4"
	"github.com/packetplane/ipfwd/ipv4/icmpv4"
	"github.com/packetplane/ipfwd/metrics"
	"github.com/packetplane/ipfwd/router"
	"github.com/packetplane/ipfwd/routetable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// fakeLink records every frame handed to Send, keyed by the interface it
// went out of, so tests can assert on what the router would have
// transmitted without any real socket.
type fakeLink struct {
	sent map[string][][]byte
}

func newFakeLink() *fakeLink {
	return &fakeLink{sent: make(map[string][][]byte)}
}

func (f *fakeLink) Send(ifaceName string, frame []byte) error {
	cp := make([]byte, len(frame))
	copy(cp, frame)
	f.sent[ifaceName] = append(f.sent[ifaceName], cp)
	return nil
}

func (f *fakeLink) last(ifaceName string) []byte {
	pkts := f.sent[ifaceName]
	if len(pkts) == 0 {
		return nil
	}
	return pkts[len(pkts)-1]
}

var (
	routerEth0MAC = [6]byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	routerEth0IP  = [4]byte{10, 0, 0, 1}
	routerEth1MAC = [6]byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x02}
	routerEth1IP  = [4]byte{20, 0, 0, 1}

	hostMAC = [6]byte{0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0x01}
	hostIP  = [4]byte{10, 0, 0, 5}

	destHostIP = [4]byte{20, 0, 0, 5}
)

func newTestRouter(t *testing.T, link router.LinkSender) (*router.Router, *metrics.Counters) {
	t.Helper()
	ifaces := iface.NewTable([]iface.Interface{
		{Name: "eth0", MAC: routerEth0MAC, IP: routerEth0IP},
		{Name: "eth1", MAC: routerEth1MAC, IP: routerEth1IP},
	})
	routes := routetable.NewTable([]routetable.Route{
		{Dest: [4]byte{20, 0, 0, 0}, Mask: [4]byte{255, 255, 255, 0}, Gateway: [4]byte{}, Iface: "eth1"},
		{Dest: [4]byte{10, 0, 0, 0}, Mask: [4]byte{255, 255, 255, 0}, Gateway: [4]byte{}, Iface: "eth0"},
	})
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	return router.New(ifaces, routes, link, m, slog.New(slog.DiscardHandler)), m
}

// buildEchoRequest constructs a complete Ethernet+IPv4+ICMP echo-request
// frame from srcMAC/srcIP to dstMAC/dstIP with correct checksums.
func buildEchoRequest(t *testing.T, srcMAC, dstMAC [6]byte, srcIP, dstIP [4]byte, ttl uint8) []byte {
	t.Helper()
	const payloadLen = 4
	buf := make([]byte, 14+20+8+payloadLen)

	efrm, err := ethernet.NewFrame(buf)
	require.NoError(t, err)
	*efrm.SourceHardwareAddr() = srcMAC
	*efrm.DestinationHardwareAddr() = dstMAC
	efrm.SetEtherType(ethernet.TypeIPv4)

	ifrm, err := ipv4.NewFrame(efrm.Payload())
	require.NoError(t, err)
	ifrm.SetVersionAndIHL(4, 5)
	ifrm.SetTotalLength(uint16(20 + 8 + payloadLen))
	ifrm.SetTTL(ttl)
	ifrm.SetProtocol(1) // ICMP
	*ifrm.SourceAddr() = srcIP
	*ifrm.DestinationAddr() = dstIP
	ifrm.SetCRC(0)
	ifrm.SetCRC(ifrm.CalculateHeaderCRC())

	icmpBuf := ifrm.Payload()
	echo := icmpv4.FrameEcho{Frame: mustICMPFrame(t, icmpBuf)}
	echo.SetType(icmpv4.TypeEcho)
	echo.SetCode(0)
	echo.SetIdentifier(1)
	echo.SetSequenceNumber(1)
	copy(echo.Data(), []byte{1, 2, 3, 4})
	echo.SetCRC(0)
	echo.SetCRC(echo.CalculateCRC())

	return buf
}

func buildARPRequest(t *testing.T, senderMAC [6]byte, senderIP, targetIP [4]byte) []byte {
	t.Helper()
	buf := make([]byte, 14+28)
	efrm, err := ethernet.NewFrame(buf)
	require.NoError(t, err)
	*efrm.SourceHardwareAddr() = senderMAC
	*efrm.DestinationHardwareAddr() = ethernet.BroadcastAddr()
	efrm.SetEtherType(ethernet.TypeARP)

	afrm, err := arp.NewFrame(efrm.Payload())
	require.NoError(t, err)
	afrm.SetHardware(1, 6)
	afrm.SetProtocol(ethernet.TypeIPv4, 4)
	afrm.SetOperation(arp.OpRequest)
	sHW, sIP := afrm.Sender4()
	*sHW, *sIP = senderMAC, senderIP
	_, tIP := afrm.Target4()
	*tIP = targetIP
	return buf
}

func buildARPReply(t *testing.T, senderMAC, targetMAC [6]byte, senderIP, targetIP [4]byte) []byte {
	t.Helper()
	buf := make([]byte, 14+28)
	efrm, err := ethernet.NewFrame(buf)
	require.NoError(t, err)
	*efrm.SourceHardwareAddr() = senderMAC
	*efrm.DestinationHardwareAddr() = targetMAC
	efrm.SetEtherType(ethernet.TypeARP)

	afrm, err := arp.NewFrame(efrm.Payload())
	require.NoError(t, err)
	afrm.SetHardware(1, 6)
	afrm.SetProtocol(ethernet.TypeIPv4, 4)
	afrm.SetOperation(arp.OpReply)
	sHW, sIP := afrm.Sender4()
	*sHW, *sIP = senderMAC, senderIP
	tHW, tIP := afrm.Target4()
	*tHW, *tIP = targetMAC, targetIP
	return buf
}

func mustICMPFrame(t *testing.T, buf []byte) icmpv4.Frame {
	t.Helper()
	frm, err := icmpv4.NewFrame(buf)
	require.NoError(t, err)
	return frm
}
