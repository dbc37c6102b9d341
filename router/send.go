package router

import (
	"github.com/packetplane/ipfwd/arp"
	"github.com/packetplane/ipfwd/arpcache"
	"github.com/packetplane/ipfwd/ethernet"
	"github.com/packetplane/ipfwd/iface"
	"github.com/packetplane/ipfwd/ipv4"
	"github.com/packetplane/ipfwd/ipv4/icmpv4"
)

const sizeARPv4Frame = 14 + 28 // Ethernet header + IPv4-over-Ethernet ARP body

// sendARPProbe broadcasts an ARP request for targetIP out outIf, per §4.8.
func (r *Router) sendARPProbe(outIf iface.Interface, targetIP [4]byte) {
	buf := make([]byte, sizeARPv4Frame)
	efrm, _ := ethernet.NewFrame(buf)
	*efrm.DestinationHardwareAddr() = ethernet.BroadcastAddr()
	*efrm.SourceHardwareAddr() = outIf.MAC
	efrm.SetEtherType(ethernet.TypeARP)

	afrm, _ := arp.NewFrame(efrm.Payload())
	afrm.SetHardware(1, 6)
	afrm.SetProtocol(ethernet.TypeIPv4, 4)
	afrm.SetOperation(arp.OpRequest)
	senderHW, senderIP := afrm.Sender4()
	*senderHW, *senderIP = outIf.MAC, outIf.IP
	_, targetIPField := afrm.Target4()
	*targetIPField = targetIP

	if err := r.Link.Send(outIf.Name, buf); err != nil {
		r.Log.Warn("arp probe send failed", "iface", outIf.Name, "err", err)
	}
}

// handleSweep executes the plan computed by one arpcache.Cache.Sweep call:
// fire ARP probes for requests still within budget, and synthesize ICMP
// host-unreachable for every packet behind an abandoned request.
func (r *Router) handleSweep(result arpcache.SweepResult) {
	for _, probe := range result.Probes {
		outIf, ok := r.Interfaces.ByName(probe.Iface)
		if !ok {
			continue
		}
		r.sendARPProbe(outIf, probe.IP)
	}
	for _, abandon := range result.Abandoned {
		r.Metrics.ArpAbandons.Inc()
		for _, pkt := range abandon.Packets {
			r.sendHostUnreachable(pkt)
		}
	}
}

// sendHostUnreachable re-parses a packet that was queued behind an
// abandoned ARP resolution and synthesizes an ICMP host-unreachable back to
// its original sender.
func (r *Router) sendHostUnreachable(pkt arpcache.PendingPacket) {
	efrm, err := ethernet.NewFrame(pkt.Bytes)
	if err != nil {
		return
	}
	ifrm, err := ipv4.NewFrame(efrm.Payload())
	if err != nil {
		return
	}
	r.sendICMPError(ifrm, icmpv4.TypeDestinationUnreachable, uint8(icmpv4.CodeHostUnreachable), nil)
}
