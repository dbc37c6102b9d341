// Package link wires the router's packet-processing pipeline to real
// network interfaces: each configured port is either a TAP device (created
// by the router) or a bridge onto an existing NIC (an AF_PACKET socket
// bound to it), and both are read in their own goroutine, handing every
// frame to the demultiplexer.
package link

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"sync"
)

const defaultReadBufferSize = 1536

// rawPort is the minimal surface a TAP device or a bridged NIC socket
// exposes; tapDevice and bridgeSocket (transport_linux.go, transport_other.go)
// both satisfy it.
type rawPort interface {
	Read(b []byte) (int, error)
	Write(b []byte) (int, error)
	Close() error
	MTU() (int, error)
	HardwareAddress6() ([6]byte, error)
}

// Port is one named link-layer endpoint the router sends and receives
// frames through.
type Port struct {
	name string
	raw  rawPort
	mtu  int
}

// NewTapPort creates a TAP device named name and optionally assigns it ip.
func NewTapPort(name string, ip netip.Prefix) (Port, error) {
	tap, err := newTapDevice(name, ip)
	if err != nil {
		return Port{}, fmt.Errorf("link: tap %s: %w", name, err)
	}
	return newPort(name, tap)
}

// NewBridgePort binds a raw socket to the existing interface named name.
func NewBridgePort(name string) (Port, error) {
	br, err := newBridgeSocket(name)
	if err != nil {
		return Port{}, fmt.Errorf("link: bridge %s: %w", name, err)
	}
	return newPort(name, br)
}

// newPort queries the underlying device's MAC and MTU up front: the MAC is
// logged so an operator can cross-check it against the interface table's
// configured address, and the MTU sizes the port's read buffer instead of
// an arbitrary guess.
func newPort(name string, raw rawPort) (Port, error) {
	hw, err := raw.HardwareAddress6()
	if err != nil {
		raw.Close()
		return Port{}, fmt.Errorf("link: %s: reading hardware address: %w", name, err)
	}
	mtu, err := raw.MTU()
	if err != nil || mtu <= 0 {
		mtu = defaultReadBufferSize
	}
	slog.Info("link port ready", "iface", name, "hw", net.HardwareAddr(hw[:]).String(), "mtu", mtu)
	return Port{name: name, raw: raw, mtu: mtu}, nil
}

// Set is a collection of Ports addressed by interface name, implementing
// [router.LinkSender]. The zero value is not usable; construct with NewSet.
type Set struct {
	mu    sync.RWMutex
	ports map[string]Port
	log   *slog.Logger
}

// NewSet returns an empty Set.
func NewSet(log *slog.Logger) *Set {
	if log == nil {
		log = slog.Default()
	}
	return &Set{ports: make(map[string]Port), log: log}
}

// Add registers p under its own name.
func (s *Set) Add(p Port) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ports[p.name] = p
}

// Send implements router.LinkSender.
func (s *Set) Send(iface string, frame []byte) error {
	s.mu.RLock()
	p, ok := s.ports[iface]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("link: unknown interface %q", iface)
	}
	_, err := p.raw.Write(frame)
	return err
}

// Run reads every port concurrently until ctx is canceled, handing each
// frame received to demux. It blocks until all read loops have exited.
func (s *Set) Run(ctx context.Context, demux func(iface string, frame []byte)) {
	s.mu.RLock()
	ports := make([]Port, 0, len(s.ports))
	for _, p := range s.ports {
		ports = append(ports, p)
	}
	s.mu.RUnlock()

	var wg sync.WaitGroup
	for _, p := range ports {
		wg.Add(1)
		go func(p Port) {
			defer wg.Done()
			s.readLoop(ctx, p, demux)
		}(p)
	}
	<-ctx.Done()
	for _, p := range ports {
		p.raw.Close()
	}
	wg.Wait()
}

// readLoop blocks on p.raw.Read, forwarding every frame to demux, until ctx
// is canceled or the underlying device errors out (which Run triggers by
// closing it).
func (s *Set) readLoop(ctx context.Context, p Port, demux func(iface string, frame []byte)) {
	buf := make([]byte, p.mtu+int(sizeHeaderEthernet))
	for {
		n, err := p.raw.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Warn("link read failed", slog.String("iface", p.name), slog.Any("err", err))
			return
		}
		frame := make([]byte, n)
		copy(frame, buf[:n])
		demux(p.name, frame)
	}
}

// sizeHeaderEthernet is added to a port's MTU (a payload-layer limit) to
// leave room for the 14-byte Ethernet header when sizing the read buffer.
const sizeHeaderEthernet = 14
