package ethernet

import (
	"encoding/binary"
	"errors"

	"github.com/packetplane/ipfwd"
)

// NewFrame returns a Frame overlaying buf. An error is returned if buf is
// shorter than the 14-byte fixed header. Call [Frame.ValidateSize] before
// touching the payload to avoid a panic on a truncated frame.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < sizeHeader {
		return Frame{}, errShort
	}
	return Frame{buf: buf}, nil
}

// Frame overlays an Ethernet II frame (no preamble, no FCS; the first byte
// is the destination address) on top of a borrowed byte slice. VLAN tagging
// is not supported: a tagged frame is recognized by EtherTypeOrSize and
// dropped by the dispatcher rather than parsed.
type Frame struct {
	buf []byte
}

// RawData returns the underlying slice the frame was created with.
func (efrm Frame) RawData() []byte { return efrm.buf }

// HeaderLength returns the fixed Ethernet II header length, 14 bytes.
func (efrm Frame) HeaderLength() int { return sizeHeader }

// Payload returns everything past the 14-byte header.
func (efrm Frame) Payload() []byte { return efrm.buf[sizeHeader:] }

// DestinationHardwareAddr returns the frame's destination MAC address.
func (efrm Frame) DestinationHardwareAddr() *[6]byte {
	return (*[6]byte)(efrm.buf[0:6])
}

// IsBroadcast reports whether the destination is ff:ff:ff:ff:ff:ff.
func (efrm Frame) IsBroadcast() bool {
	d := efrm.buf[0:6]
	return d[0] == 0xff && d[1] == 0xff && d[2] == 0xff && d[3] == 0xff && d[4] == 0xff && d[5] == 0xff
}

// SourceHardwareAddr returns the frame's source MAC address.
func (efrm Frame) SourceHardwareAddr() *[6]byte {
	return (*[6]byte)(efrm.buf[6:12])
}

// EtherTypeOrSize returns the EtherType/length field. Callers should check
// [Type.IsSize] before treating it as an EtherType.
func (efrm Frame) EtherTypeOrSize() Type {
	return Type(binary.BigEndian.Uint16(efrm.buf[12:14]))
}

// SetEtherType sets the EtherType field.
func (efrm Frame) SetEtherType(t Type) {
	binary.BigEndian.PutUint16(efrm.buf[12:14], uint16(t))
}

// ClearHeader zeros the fixed header contents.
func (efrm Frame) ClearHeader() {
	for i := range efrm.buf[:sizeHeader] {
		efrm.buf[i] = 0
	}
}

var errShort = errors.New("ethernet: frame shorter than 14 bytes")

// ValidateSize checks the frame's declared EtherType/size field against the
// actual buffer length.
func (efrm Frame) ValidateSize(v *ipfwd.Validator) {
	sz := efrm.EtherTypeOrSize()
	if sz.IsSize() && len(efrm.buf) < int(sz)+sizeHeader {
		v.AddError(errShort)
	}
}
