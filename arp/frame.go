package arp

import (
	"encoding/binary"
	"fmt"
	"net"
	"net/netip"

	"github.com/packetplane/ipfwd"
	"github.com/packetplane/ipfwd/ethernet"
)

// NewFrame returns a Frame overlaying buf. An error is returned if buf is
// shorter than the 28-byte IPv4-over-Ethernet ARP packet.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < sizeHeaderv4 {
		return Frame{}, errShortARP
	}
	return Frame{buf: buf}, nil
}

// Frame overlays an ARP packet restricted to the IPv4-over-Ethernet case
// (hardware type Ethernet, protocol type IPv4). See RFC 826.
type Frame struct {
	buf []byte
}

// RawData returns the underlying slice the frame was created with.
func (afrm Frame) RawData() []byte { return afrm.buf }

// Hardware returns the hardware type and address length fields.
func (afrm Frame) Hardware() (typ uint16, length uint8) {
	return binary.BigEndian.Uint16(afrm.buf[0:2]), afrm.buf[4]
}

// SetHardware sets the hardware type and address length fields.
func (afrm Frame) SetHardware(typ uint16, length uint8) {
	binary.BigEndian.PutUint16(afrm.buf[0:2], typ)
	afrm.buf[4] = length
}

// Protocol returns the protocol type and address length fields.
func (afrm Frame) Protocol() (typ ethernet.Type, length uint8) {
	return ethernet.Type(binary.BigEndian.Uint16(afrm.buf[2:4])), afrm.buf[5]
}

// SetProtocol sets the protocol type and address length fields.
func (afrm Frame) SetProtocol(typ ethernet.Type, length uint8) {
	binary.BigEndian.PutUint16(afrm.buf[2:4], uint16(typ))
	afrm.buf[5] = length
}

// Operation returns the ARP opcode field.
func (afrm Frame) Operation() Operation { return Operation(binary.BigEndian.Uint16(afrm.buf[6:8])) }

// SetOperation sets the ARP opcode field.
func (afrm Frame) SetOperation(op Operation) { binary.BigEndian.PutUint16(afrm.buf[6:8], uint16(op)) }

// Sender4 returns pointers to the sender hardware and protocol (IPv4) addresses.
func (afrm Frame) Sender4() (hw *[6]byte, proto *[4]byte) {
	return (*[6]byte)(afrm.buf[8:14]), (*[4]byte)(afrm.buf[14:18])
}

// Target4 returns pointers to the target hardware and protocol (IPv4) addresses.
func (afrm Frame) Target4() (hw *[6]byte, proto *[4]byte) {
	return (*[6]byte)(afrm.buf[18:24]), (*[4]byte)(afrm.buf[24:28])
}

// ClearHeader zeros the fixed header contents.
func (afrm Frame) ClearHeader() {
	for i := range afrm.buf[:sizeHeaderv4] {
		afrm.buf[i] = 0
	}
}

// SwapTargetSender exchanges the sender and target hardware/protocol address
// pairs in place, the first step in turning a request into a reply.
func (afrm Frame) SwapTargetSender() {
	senderHW, senderProto := afrm.Sender4()
	targetHW, targetProto := afrm.Target4()
	*senderHW, *targetHW = *targetHW, *senderHW
	*senderProto, *targetProto = *targetProto, *senderProto
}

// ValidateSize checks the frame against the fixed IPv4-over-Ethernet length.
func (afrm Frame) ValidateSize(v *ipfwd.Validator) {
	if len(afrm.buf) < sizeHeaderv4 {
		v.AddError(errShortARP)
	}
}

func (afrm Frame) String() string {
	senderHW, senderProto := afrm.Sender4()
	targetHW, targetProto := afrm.Target4()
	return fmt.Sprintf("ARP %s SENDER=%s/%s TARGET=%s/%s",
		afrm.Operation(),
		net.HardwareAddr(senderHW[:]), netip.AddrFrom4(*senderProto),
		net.HardwareAddr(targetHW[:]), netip.AddrFrom4(*targetProto))
}
