package router

import (
	"github.com/packetplane/ipfwd"
	"github.com/packetplane/ipfwd/ethernet"
	"github.com/packetplane/ipfwd/iface"
	"github.com/packetplane/ipfwd/ipv4"
	"github.com/packetplane/ipfwd/ipv4/icmpv4"
)

var zeroIP [4]byte

// handleIPv4 implements the forwarding engine of §4.6: validate, decide
// between local delivery and forwarding, and hand off to the send path.
func (r *Router) handleIPv4(inIface string, efrm ethernet.Frame) {
	ifrm, err := ipv4.NewFrame(efrm.Payload())
	if err != nil {
		r.drop("short-ipv4-frame")
		return
	}
	var v ipfwd.Validator
	ifrm.ValidateExceptCRC(&v)
	if v.HasError() {
		r.drop("malformed-ipv4-frame")
		return
	}
	if ifrm.CRC() != ifrm.CalculateHeaderCRC() {
		r.drop("bad-ipv4-checksum")
		return
	}

	dst := *ifrm.DestinationAddr()

	if localIface, ok := r.Interfaces.ByIP(dst); ok {
		r.deliverLocal(efrm, ifrm, localIface)
		return
	}

	if dst == [4]byte{255, 255, 255, 255} || dst[0] >= 224 {
		// Limited broadcast and class D/E (multicast/reserved): the
		// router is not a participant in either, so there is no next hop
		// to ARP-resolve. Drop rather than chasing an ARP request that
		// will never get a reply.
		r.drop("broadcast-or-multicast-destination")
		return
	}

	newTTL := ifrm.TTL() - 1
	if newTTL == 0 {
		r.sendICMPError(ifrm, icmpv4.TypeTimeExceeded, uint8(icmpv4.CodeExceededInTransit), nil)
		return
	}

	route, ok := r.Routes.LPM(dst)
	if !ok {
		r.sendICMPError(ifrm, icmpv4.TypeDestinationUnreachable, uint8(icmpv4.CodeNetUnreachable), nil)
		return
	}

	ifrm.SetTTL(newTTL)
	ifrm.SetCRC(0)
	ifrm.SetCRC(ifrm.CalculateHeaderCRC())

	nextHop := route.Gateway
	if nextHop == zeroIP {
		nextHop = dst
	}
	r.sendPath(efrm.RawData(), route.Iface, nextHop)
	r.Metrics.FramesForwarded.Inc()
}

// deliverLocal handles a datagram addressed to one of the router's own
// interfaces: ICMP goes to the responder, TCP/UDP get a port-unreachable
// reply, everything else is silently dropped.
func (r *Router) deliverLocal(efrm ethernet.Frame, ifrm ipv4.Frame, localIface iface.Interface) {
	switch ifrm.Protocol() {
	case ipfwd.IPProtoICMP:
		r.handleICMP(efrm, ifrm)
	case ipfwd.IPProtoTCP, ipfwd.IPProtoUDP:
		srcIP := localIface.IP
		r.sendICMPError(ifrm, icmpv4.TypeDestinationUnreachable, uint8(icmpv4.CodePortUnreachable), &srcIP)
	default:
		r.drop("unhandled-local-protocol")
	}
}
