//go:build !linux || tinygo

package link

import (
	"errors"
	"net/netip"
)

// tapDevice and bridgeSocket have no portable equivalent: TUN/TAP and
// AF_PACKET are Linux-specific, so every constructor and method here just
// reports errors.ErrUnsupported. This keeps the link package importable on
// other platforms (and under TinyGo) for code that only needs the rawPort
// interface shape, without pretending raw link access works.

type tapDevice struct{}

func newTapDevice(name string, ip netip.Prefix) (*tapDevice, error) {
	return nil, errors.ErrUnsupported
}

func (t *tapDevice) Read(b []byte) (int, error)  { return -1, errors.ErrUnsupported }
func (t *tapDevice) Write(b []byte) (int, error) { return -1, errors.ErrUnsupported }
func (t *tapDevice) Close() error                { return errors.ErrUnsupported }
func (t *tapDevice) MTU() (int, error)           { return -1, errors.ErrUnsupported }
func (t *tapDevice) HardwareAddress6() (hw [6]byte, err error) {
	return hw, errors.ErrUnsupported
}

type bridgeSocket struct{}

func newBridgeSocket(name string) (*bridgeSocket, error) {
	return nil, errors.ErrUnsupported
}

func (b *bridgeSocket) Write(frame []byte) (int, error) { return -1, errors.ErrUnsupported }
func (b *bridgeSocket) Read(frame []byte) (int, error)  { return -1, errors.ErrUnsupported }
func (b *bridgeSocket) Close() error                    { return errors.ErrUnsupported }
func (b *bridgeSocket) MTU() (int, error)               { return -1, errors.ErrUnsupported }
func (b *bridgeSocket) HardwareAddress6() (hw [6]byte, err error) {
	return hw, errors.ErrUnsupported
}
