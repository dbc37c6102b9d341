// Package metrics exposes the router's countable events as Prometheus
// metrics, the structured replacement for the free-form printf tracing a
// reference router implementation would use.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Counters holds every countable event the router emits. A nil *Counters
// is not usable; construct with New or NewWithRegisterer.
type Counters struct {
	FramesIn        prometheus.Counter
	FramesForwarded prometheus.Counter
	FramesDropped   *prometheus.CounterVec // labeled by drop reason
	ICMPSent        *prometheus.CounterVec // labeled by type, code
	ArpResolutions  prometheus.Counter
	ArpAbandons     prometheus.Counter
}

// New registers and returns a Counters backed by the default Prometheus registerer.
func New() *Counters {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers and returns a Counters backed by reg, so tests
// can use their own isolated registry instead of the global default.
func NewWithRegisterer(reg prometheus.Registerer) *Counters {
	c := &Counters{
		FramesIn: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ipfwd_frames_in_total",
			Help: "Ethernet frames received on any interface.",
		}),
		FramesForwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ipfwd_frames_forwarded_total",
			Help: "IPv4 datagrams routed toward a next hop and handed to the send path, whether transmitted at once or queued behind ARP resolution.",
		}),
		FramesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ipfwd_frames_dropped_total",
			Help: "Frames dropped, labeled by reason.",
		}, []string{"reason"}),
		ICMPSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ipfwd_icmp_sent_total",
			Help: "ICMP messages synthesized and sent, labeled by type and code.",
		}, []string{"type", "code"}),
		ArpResolutions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ipfwd_arp_resolutions_total",
			Help: "ARP replies that resolved a pending request.",
		}),
		ArpAbandons: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ipfwd_arp_abandons_total",
			Help: "Pending ARP requests abandoned after exhausting retries.",
		}),
	}
	reg.MustRegister(c.FramesIn, c.FramesForwarded, c.FramesDropped, c.ICMPSent, c.ArpResolutions, c.ArpAbandons)
	return c
}
