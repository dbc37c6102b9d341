package router

import (
	"strconv"

	"github.com/packetplane/ipfwd"
	"github.com/packetplane/ipfwd/ethernet"
	"github.com/packetplane/ipfwd/ipv4"
	"github.com/packetplane/ipfwd/ipv4/icmpv4"
)

// handleICMP implements §4.7's incoming path: only a valid echo request
// addressed to the router gets a reply; every other ICMP type is accepted
// and ignored, matching the scope of this router (it is not itself an
// endpoint for anything beyond ping).
func (r *Router) handleICMP(efrm ethernet.Frame, ifrm ipv4.Frame) {
	frm, err := icmpv4.NewFrame(ifrm.Payload())
	if err != nil {
		r.drop("short-icmp-frame")
		return
	}
	if frm.CRC() != frm.CalculateCRC() {
		r.drop("bad-icmp-checksum")
		return
	}
	if frm.Type() != icmpv4.TypeEcho || frm.Code() != 0 {
		return
	}
	r.sendEchoReply(efrm, ifrm, icmpv4.FrameEcho{Frame: frm})
}

// sendEchoReply rewrites the echo request in place into a reply and routes
// it back to the original sender, per §4.7.
func (r *Router) sendEchoReply(efrm ethernet.Frame, ifrm ipv4.Frame, echo icmpv4.FrameEcho) {
	origSrc := *ifrm.SourceAddr()
	origDst := *ifrm.DestinationAddr()
	*ifrm.SourceAddr() = origDst
	*ifrm.DestinationAddr() = origSrc

	echo.SetType(icmpv4.TypeEchoReply)
	echo.SetCode(0)
	echo.SetCRC(0)
	echo.SetCRC(echo.CalculateCRC())

	ifrm.SetCRC(0)
	ifrm.SetCRC(ifrm.CalculateHeaderCRC())

	route, ok := r.Routes.LPM(origSrc)
	if !ok {
		r.drop("unroutable-echo-reply")
		return
	}
	nextHop := route.Gateway
	if nextHop == zeroIP {
		nextHop = origSrc
	}
	r.sendPath(efrm.RawData(), route.Iface, nextHop)
	r.Metrics.ICMPSent.WithLabelValues("0", "0").Inc()
}

// sendICMPError synthesizes a fresh ICMP error packet for the offending
// datagram and routes it back toward the original sender, per §4.6/§4.7.
// srcOverride, when non-nil, forces the reply's source address (used for
// port-unreachable, where the source is the interface the original packet
// was addressed to); otherwise the source is the out-interface IP chosen by
// LPM on the reply's destination.
func (r *Router) sendICMPError(offending ipv4.Frame, icmpType icmpv4.Type, icmpCode uint8, srcOverride *[4]byte) {
	replyDst := *offending.SourceAddr()
	route, ok := r.Routes.LPM(replyDst)
	if !ok {
		r.drop("unroutable-icmp-error")
		return
	}

	var srcIP [4]byte
	if srcOverride != nil {
		srcIP = *srcOverride
	} else {
		outIf, ok := r.Interfaces.ByName(route.Iface)
		if !ok {
			r.drop("unroutable-icmp-error")
			return
		}
		srcIP = outIf.IP
	}

	frame := buildICMPError(srcIP, replyDst, icmpType, icmpCode, offending)

	nextHop := route.Gateway
	if nextHop == zeroIP {
		nextHop = replyDst
	}
	r.sendPath(frame, route.Iface, nextHop)
	r.Metrics.ICMPSent.WithLabelValues(strconv.Itoa(int(icmpType)), strconv.Itoa(int(icmpCode))).Inc()
}

// buildICMPError constructs a complete Ethernet+IPv4+ICMP frame carrying an
// ICMP error: 8-byte ICMP header followed by up to ICMPErrorDataSize bytes
// copied from the offending datagram (its IP header plus leading payload).
// The Ethernet addresses are left zeroed; the send path fills them in.
func buildICMPError(srcIP, dstIP [4]byte, icmpType icmpv4.Type, icmpCode uint8, offending ipv4.Frame) []byte {
	orig := offending.RawData()
	n := int(offending.TotalLength())
	if n > len(orig) {
		n = len(orig)
	}
	if n > ICMPErrorDataSize {
		n = ICMPErrorDataSize
	}

	buf := make([]byte, 14+20+8+n)
	efrm, _ := ethernet.NewFrame(buf)
	efrm.SetEtherType(ethernet.TypeIPv4)

	ifrm, _ := ipv4.NewFrame(efrm.Payload())
	ifrm.SetVersionAndIHL(4, 5)
	ifrm.SetTotalLength(uint16(20 + 8 + n))
	ifrm.SetFlags(ipv4.FlagsDF)
	ifrm.SetTTL(SynthTTL)
	ifrm.SetProtocol(ipfwd.IPProtoICMP)
	*ifrm.SourceAddr() = srcIP
	*ifrm.DestinationAddr() = dstIP
	ifrm.SetCRC(0)
	ifrm.SetCRC(ifrm.CalculateHeaderCRC())

	icmpBuf := ifrm.Payload()
	frm, _ := icmpv4.NewFrame(icmpBuf)
	frm.SetType(icmpType)
	frm.SetCode(icmpCode)
	copy(icmpBuf[8:], orig[:n])
	frm.SetCRC(0)
	frm.SetCRC(frm.CalculateCRC())

	return buf
}
