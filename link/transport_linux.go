//go:build linux && !baremetal && !tinygo

package link

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"os/exec"
	"syscall"
	"unsafe"
)

// safamilyEther is the sa_family value the kernel fills into ifr_hwaddr for
// an Ethernet device, returned by SIOCGIFHWADDR.
const safamilyEther = 1

// tapDevice is a /dev/net/tun character device opened in TAP mode: it hands
// the router whole Ethernet frames instead of a point-to-point stream of IP
// packets, so the router's demultiplexer sees the same frame shape it would
// on a physical NIC.
type tapDevice struct {
	fd   int
	name string
}

// newTapDevice creates (or attaches to) a TAP interface named name. If ip is
// valid the interface is brought up and assigned that address via the
// system's ip(8) tool, mirroring how an operator would configure the
// interface by hand.
func newTapDevice(name string, ip netip.Prefix) (*tapDevice, error) {
	if len(name) >= syscall.IFNAMSIZ {
		return nil, errors.New("link: interface name too long")
	}
	fd, err := syscall.Open("/dev/net/tun", os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("link: open /dev/net/tun: %w", err)
	}
	req := newIfreq(name)
	req.setUint16(uint16(syscall.IFF_TAP | syscall.IFF_NO_PI))
	if err := ioctl(fd, syscall.TUNSETIFF, req.ptr()); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("link: TUNSETIFF %s: %w", name, err)
	}
	if ip.IsValid() {
		if err := exec.Command("ip", "link", "set", "dev", name, "up").Run(); err != nil {
			syscall.Close(fd)
			return nil, fmt.Errorf("link: bring up %s: %w", name, err)
		}
		if err := exec.Command("ip", "addr", "add", ip.String(), "dev", name).Run(); err != nil {
			syscall.Close(fd)
			return nil, fmt.Errorf("link: assign %s to %s: %w", ip, name, err)
		}
	}
	return &tapDevice{fd: fd, name: name}, nil
}

func (t *tapDevice) Read(b []byte) (int, error)  { return syscall.Read(t.fd, b) }
func (t *tapDevice) Write(b []byte) (int, error) { return syscall.Write(t.fd, b) }
func (t *tapDevice) Close() error                { return syscall.Close(t.fd) }

// MTU reports the interface's configured MTU, queried through a throwaway
// control socket since the tun fd itself carries frames, not ioctls.
func (t *tapDevice) MTU() (int, error) {
	ctl, err := controlSocket()
	if err != nil {
		return 0, err
	}
	defer syscall.Close(ctl)
	return socketMTU(ctl, t.name)
}

// HardwareAddress6 returns the MAC the kernel's network stack assigned the
// TAP interface, again via a control socket: the tun fd has no notion of
// link-layer addressing of its own.
func (t *tapDevice) HardwareAddress6() (hw [6]byte, err error) {
	ctl, err := controlSocket()
	if err != nil {
		return hw, err
	}
	defer syscall.Close(ctl)
	return socketHardwareAddress(ctl, t.name)
}

// bridgeSocket is an AF_PACKET raw socket bound to an existing NIC, letting
// the router send and receive frames on an interface it did not create
// (a physical port, or a TAP device set up by something else).
type bridgeSocket struct {
	fd    int
	name  string
	index int
}

func newBridgeSocket(name string) (*bridgeSocket, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, fmt.Errorf("link: %w", err)
	}
	proto := htons(syscall.ETH_P_ALL)
	fd, err := syscall.Socket(syscall.AF_PACKET, syscall.SOCK_RAW, int(proto))
	if err != nil {
		return nil, fmt.Errorf("link: open raw socket: %w", err)
	}
	addr := syscall.SockaddrLinklayer{Protocol: proto, Ifindex: iface.Index}
	if err := syscall.Bind(fd, &addr); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("link: bind %s: %w", name, err)
	}
	return &bridgeSocket{fd: fd, name: iface.Name, index: iface.Index}, nil
}

func (b *bridgeSocket) Write(frame []byte) (int, error) { return syscall.Write(b.fd, frame) }
func (b *bridgeSocket) Read(frame []byte) (int, error)  { return syscall.Read(b.fd, frame) }
func (b *bridgeSocket) Close() error                    { return syscall.Close(b.fd) }

func (b *bridgeSocket) HardwareAddress6() (hw [6]byte, err error) {
	return socketHardwareAddress(b.fd, b.name)
}

func (b *bridgeSocket) MTU() (int, error) {
	return socketMTU(b.fd, b.name)
}

// controlSocket opens a plain UDP/IP socket for the sole purpose of issuing
// SIOC* ioctls against it; the kernel treats any socket as a handle onto the
// named interface for these queries, IP transport is never used.
func controlSocket() (int, error) {
	fd, err := syscall.Socket(syscall.AF_INET, syscall.SOCK_DGRAM, syscall.IPPROTO_IP)
	if err != nil {
		return 0, fmt.Errorf("link: open control socket: %w", err)
	}
	return fd, nil
}

func socketMTU(fd int, ifaceName string) (int, error) {
	req := newIfreq(ifaceName)
	if err := ioctl(fd, syscall.SIOCGIFMTU, req.ptr()); err != nil {
		return 0, err
	}
	mtu := *(*int32)(unsafe.Pointer(&req.data[0]))
	return int(mtu), nil
}

func socketHardwareAddress(fd int, ifaceName string) (hw [6]byte, err error) {
	req := newIfreq(ifaceName)
	if err := ioctl(fd, syscall.SIOCGIFHWADDR, req.ptr()); err != nil {
		return hw, err
	}
	family := *(*uint16)(unsafe.Pointer(&req.data[0]))
	if family != safamilyEther {
		return hw, fmt.Errorf("link: %s: unexpected hardware family %d", ifaceName, family)
	}
	copy(hw[:], req.data[2:])
	return hw, nil
}

func ioctl(fd int, request uintptr, argp unsafe.Pointer) error {
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(fd), request, uintptr(argp))
	if errno != 0 {
		return os.NewSyscallError("ioctl", errno)
	}
	return nil
}

// ifreq mirrors struct ifreq from <net/if.h>: a fixed interface name
// followed by a union of request-specific fields, accessed here as a flat
// byte array since Go has no ioctl union type.
type ifreq struct {
	name [syscall.IFNAMSIZ]byte
	data [64]byte
}

func newIfreq(name string) ifreq {
	var req ifreq
	copy(req.name[:], name)
	return req
}

func (req *ifreq) setUint16(v uint16) {
	*(*uint16)(unsafe.Pointer(&req.data[0])) = v
}

func (req *ifreq) ptr() unsafe.Pointer { return unsafe.Pointer(req) }

// htons converts a uint16 from host to network byte order, needed when
// binding an AF_PACKET socket since SockaddrLinklayer.Protocol is compared
// against frames as they arrive off the wire, in network order.
func htons(v uint16) uint16 { return v<<8&0xff00 | v>>8 }
