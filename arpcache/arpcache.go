// Package arpcache implements the router's shared ARP resolution state: an
// IP-to-MAC cache with entry expiry, and a queue of packets waiting on
// in-flight ARP requests with a bounded retry count. A single mutex guards
// both the entry map and the pending-request list; structural mutation
// happens under the lock, and anything that touches the link (sending a
// probe, transmitting a drained packet, synthesizing an unreachable) is
// computed as a plan of actions and executed after the lock is released.
package arpcache

import (
	"context"
	"sync"
	"time"
)

// Tunables fixed by the resolution protocol this cache implements.
const (
	EntryTimeout  = 15 * time.Second
	RetryInterval = 1 * time.Second
	MaxTries      = 5
)

// ArpEntry is a resolved IP-to-MAC mapping with the time it was learned.
type ArpEntry struct {
	MAC        [6]byte
	InsertedAt time.Time
}

// PendingPacket is an owned copy of a frame queued behind an in-flight ARP
// resolution, along with the interface it must eventually be sent out of.
type PendingPacket struct {
	Bytes    []byte
	OutIface string
}

// PendingRequest tracks one in-flight ARP resolution: the packets waiting
// on it, and how many probes have been sent so far.
type PendingRequest struct {
	IP         [4]byte
	Packets    []PendingPacket
	SentCount  uint8
	LastSentAt time.Time
}

// ProbeAction asks the caller to transmit an ARP request for IP out of Iface.
type ProbeAction struct {
	IP    [4]byte
	Iface string
}

// AbandonAction reports a PendingRequest that exhausted its retries; Packets
// each need an ICMP host-unreachable synthesized back to their sender.
type AbandonAction struct {
	IP      [4]byte
	Packets []PendingPacket
}

// SweepResult is the plan computed by one Sweep call, to be executed after
// the cache's lock has been released.
type SweepResult struct {
	Probes    []ProbeAction
	Abandoned []AbandonAction
}

// Cache is the router's single ARP cache instance. The zero value is not
// usable; construct with New.
type Cache struct {
	mu      sync.Mutex
	entries map[[4]byte]ArpEntry
	pending []*PendingRequest
}

// New returns an empty, ready-to-use Cache.
func New() *Cache {
	return &Cache{entries: make(map[[4]byte]ArpEntry)}
}

// Lookup returns the MAC address for ip if an unexpired entry exists.
func (c *Cache) Lookup(ip [4]byte) (mac [6]byte, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, found := c.entries[ip]
	if !found || time.Since(e.InsertedAt) >= EntryTimeout {
		return [6]byte{}, false
	}
	return e.MAC, true
}

// Insert records or refreshes the IP-to-MAC mapping and removes and returns
// any PendingRequest queued for ip, so the caller can drain it outside the
// lock. It returns nil if no request was pending.
func (c *Cache) Insert(ip [4]byte, mac [6]byte) *PendingRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[ip] = ArpEntry{MAC: mac, InsertedAt: time.Now()}
	for i, p := range c.pending {
		if p.IP == ip {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return p
		}
	}
	return nil
}

// Queue appends a copy of pkt to the PendingRequest for ip on outIface,
// creating the request if none exists yet. At most one PendingRequest
// exists per IP at any instant. The caller is expected to trigger an
// immediate ARP probe after calling Queue, outside the lock.
func (c *Cache) Queue(ip [4]byte, pkt []byte, outIface string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]byte, len(pkt))
	copy(cp, pkt)
	pp := PendingPacket{Bytes: cp, OutIface: outIface}
	for _, p := range c.pending {
		if p.IP == ip {
			p.Packets = append(p.Packets, pp)
			return
		}
	}
	c.pending = append(c.pending, &PendingRequest{IP: ip, Packets: []PendingPacket{pp}})
}

// Sweep expires stale entries and advances every pending request's retry
// state, returning the actions the caller must perform after releasing the
// lock: a probe for requests still within their retry budget, or an
// abandonment (draining queued packets for ICMP host-unreachable) for
// requests that have exhausted MaxTries.
func (c *Cache) Sweep(now time.Time) SweepResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	for ip, e := range c.entries {
		if now.Sub(e.InsertedAt) >= EntryTimeout {
			delete(c.entries, ip)
		}
	}

	var result SweepResult
	kept := c.pending[:0]
	for _, p := range c.pending {
		if now.Sub(p.LastSentAt) < RetryInterval {
			kept = append(kept, p)
			continue
		}
		if p.SentCount < MaxTries {
			p.SentCount++
			p.LastSentAt = now
			result.Probes = append(result.Probes, ProbeAction{IP: p.IP, Iface: firstIface(p.Packets)})
			kept = append(kept, p)
			continue
		}
		result.Abandoned = append(result.Abandoned, AbandonAction{IP: p.IP, Packets: p.Packets})
		// p dropped from kept: removed from pending.
	}
	c.pending = kept
	return result
}

func firstIface(pkts []PendingPacket) string {
	if len(pkts) == 0 {
		return ""
	}
	return pkts[0].OutIface
}

// RunTimer runs the ARP timer task: once per RetryInterval it calls Sweep
// and hands the resulting plan to onSweep, which is responsible for
// performing the actual link I/O (sending probes, synthesizing ICMP host
// unreachable). RunTimer blocks until ctx is canceled.
func (c *Cache) RunTimer(ctx context.Context, onSweep func(SweepResult)) {
	ticker := time.NewTicker(RetryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			result := c.Sweep(now)
			if len(result.Probes) > 0 || len(result.Abandoned) > 0 {
				onSweep(result)
			}
		}
	}
}
