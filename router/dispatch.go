package router

import (
	"github.com/packetplane/ipfwd"
	"github.com/packetplane/ipfwd/ethernet"
)

// Demux is the entry point for every frame the link layer receives:
// length check, Ethernet validation, then dispatch by EtherType. It never
// blocks and never panics on malformed input; failures are silently
// dropped and counted.
func (r *Router) Demux(inIface string, frame []byte) {
	r.Metrics.FramesIn.Inc()

	efrm, err := ethernet.NewFrame(frame)
	if err != nil {
		r.drop("short-ethernet-frame")
		return
	}
	var v ipfwd.Validator
	efrm.ValidateSize(&v)
	if v.HasError() {
		r.drop("malformed-ethernet-frame")
		return
	}

	switch efrm.EtherTypeOrSize() {
	case ethernet.TypeARP:
		r.handleARP(inIface, efrm)
	case ethernet.TypeIPv4:
		r.handleIPv4(inIface, efrm)
	default:
		r.drop("unhandled-ethertype")
	}
}
