// Package router implements the router's packet-processing pipeline: frame
// dispatch, IPv4 forwarding, ICMP reply/error synthesis, the ARP ingress
// handler, and the send path that ties them to the ARP cache.
package router

import (
	"context"
	"log/slog"

	"github.com/packetplane/ipfwd/arpcache"
	"github.com/packetplane/ipfwd/ethernet"
	"github.com/packetplane/ipfwd/iface"
	"github.com/packetplane/ipfwd/metrics"
	"github.com/packetplane/ipfwd/routetable"
)

// Wire constants fixed by the protocols this router speaks.
const (
	// SynthTTL is the TTL stamped on every router-synthesized IPv4 packet.
	SynthTTL = 64
	// ICMPErrorDataSize is the number of bytes of the offending datagram
	// (original IP header plus leading payload) copied into a synthesized
	// ICMP error.
	ICMPErrorDataSize = 28
)

// LinkSender is the link-layer transport the router sends frames through.
// Receiving is symmetric: the link calls [Router.Demux] for each frame it
// reads. The router never opens a socket itself.
type LinkSender interface {
	Send(iface string, frame []byte) error
}

// Router holds everything the packet-processing pipeline needs: the static
// interface and routing tables, the single shared ARP cache, the link-layer
// sender, and the countable-event sink. Interfaces and Routes are immutable
// after construction; Cache is the only mutable shared state.
type Router struct {
	Interfaces iface.Table
	Routes     routetable.Table
	Cache      *arpcache.Cache
	Link       LinkSender
	Metrics    *metrics.Counters
	Log        *slog.Logger
}

// New constructs a Router with a fresh ARP cache.
func New(ifaces iface.Table, routes routetable.Table, link LinkSender, m *metrics.Counters, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{
		Interfaces: ifaces,
		Routes:     routes,
		Cache:      arpcache.New(),
		Link:       link,
		Metrics:    m,
		Log:        log,
	}
}

// RunArpTimer runs the ARP cache's background sweep task until ctx is
// canceled. It must be started once per Router; the sweep callback performs
// the link I/O (ARP probes, host-unreachable synthesis) that [arpcache.Cache]
// itself never does while holding its lock.
func (r *Router) RunArpTimer(ctx context.Context) {
	r.Cache.RunTimer(ctx, r.handleSweep)
}

func (r *Router) drop(reason string) {
	r.Metrics.FramesDropped.WithLabelValues(reason).Inc()
	r.Log.Debug("frame dropped", slog.String("reason", reason))
}

// sendPath resolves nextHop against the ARP cache and either transmits
// frame immediately (cache hit) or queues it behind a new or existing
// PendingRequest and triggers an ARP probe (cache miss). frame must be a
// complete Ethernet frame; its source/destination hardware address fields
// are overwritten before transmission.
func (r *Router) sendPath(frame []byte, outIfaceName string, nextHop [4]byte) {
	outIf, ok := r.Interfaces.ByName(outIfaceName)
	if !ok {
		r.drop("unknown-out-interface")
		return
	}
	if mac, ok := r.Cache.Lookup(nextHop); ok {
		efrm, err := ethernet.NewFrame(frame)
		if err != nil {
			r.drop("short-outbound-frame")
			return
		}
		*efrm.SourceHardwareAddr() = outIf.MAC
		*efrm.DestinationHardwareAddr() = mac
		if err := r.Link.Send(outIfaceName, frame); err != nil {
			r.Log.Warn("link send failed", slog.String("iface", outIfaceName), slog.Any("err", err))
		}
		return
	}
	r.Cache.Queue(nextHop, frame, outIfaceName)
	r.sendARPProbe(outIf, nextHop)
}
