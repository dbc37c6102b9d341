package router

import (
	"github.com/packetplane/ipfwd"
	"github.com/packetplane/ipfwd/arp"
	"github.com/packetplane/ipfwd/ethernet"
)

// handleARP implements §4.9: answer requests for our own addresses, and on
// a reply drain whatever packets were queued behind it.
func (r *Router) handleARP(inIface string, efrm ethernet.Frame) {
	afrm, err := arp.NewFrame(efrm.Payload())
	if err != nil {
		r.drop("short-arp-frame")
		return
	}
	var v ipfwd.Validator
	afrm.ValidateSize(&v)
	if v.HasError() {
		r.drop("malformed-arp-frame")
		return
	}

	switch afrm.Operation() {
	case arp.OpRequest:
		r.handleARPRequest(inIface, efrm, afrm)
	case arp.OpReply:
		r.handleARPReply(afrm)
	default:
		r.drop("unknown-arp-opcode")
	}
}

func (r *Router) handleARPRequest(inIface string, efrm ethernet.Frame, afrm arp.Frame) {
	_, targetIP := afrm.Target4()
	localIface, ok := r.Interfaces.ByIP(*targetIP)
	if !ok {
		r.drop("arp-request-not-for-us")
		return
	}

	afrm.SwapTargetSender()
	afrm.SetOperation(arp.OpReply)
	senderHW, senderIP := afrm.Sender4()
	*senderHW = localIface.MAC
	*senderIP = localIface.IP
	requesterHW, _ := afrm.Target4()

	*efrm.SourceHardwareAddr() = localIface.MAC
	*efrm.DestinationHardwareAddr() = *requesterHW

	if err := r.Link.Send(inIface, efrm.RawData()); err != nil {
		r.Log.Warn("arp reply send failed", "iface", inIface, "err", err)
	}
}

func (r *Router) handleARPReply(afrm arp.Frame) {
	senderHW, senderIP := afrm.Sender4()
	pending := r.Cache.Insert(*senderIP, *senderHW)
	if pending == nil {
		return
	}
	r.Metrics.ArpResolutions.Inc()
	for _, pkt := range pending.Packets {
		outIf, ok := r.Interfaces.ByName(pkt.OutIface)
		if !ok {
			continue
		}
		drained, err := ethernet.NewFrame(pkt.Bytes)
		if err != nil {
			continue
		}
		*drained.SourceHardwareAddr() = outIf.MAC
		*drained.DestinationHardwareAddr() = *senderHW
		if err := r.Link.Send(pkt.OutIface, pkt.Bytes); err != nil {
			r.Log.Warn("queued packet send failed", "iface", pkt.OutIface, "err", err)
		}
	}
}
