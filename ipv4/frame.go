package ipv4

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net/netip"

	"github.com/packetplane/ipfwd"
)

// NewFrame returns a Frame overlaying buf. An error is returned if buf is
// shorter than the minimum 20-byte header. Call [Frame.ValidateSize] before
// touching the payload/options to avoid a panic on a truncated datagram.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < sizeHeader {
		return Frame{}, errShort
	}
	return Frame{buf: buf}, nil
}

// Frame overlays an IPv4 header (RFC 791) on a borrowed byte slice.
type Frame struct {
	buf []byte
}

// RawData returns the underlying slice the frame was created with.
func (ifrm Frame) RawData() []byte { return ifrm.buf }

// HeaderLength returns the header length in bytes, IHL*4, including options.
func (ifrm Frame) HeaderLength() int { return int(ifrm.ihl()) * 4 }

func (ifrm Frame) ihl() uint8     { return ifrm.buf[0] & 0xf }
func (ifrm Frame) version() uint8 { return ifrm.buf[0] >> 4 }

// VersionAndIHL returns the version and IHL nibbles of the first header byte.
func (ifrm Frame) VersionAndIHL() (version, ihl uint8) {
	b := ifrm.buf[0]
	return b >> 4, b & 0xf
}

// SetVersionAndIHL sets the version and IHL nibbles of the first header byte.
func (ifrm Frame) SetVersionAndIHL(version, ihl uint8) { ifrm.buf[0] = version<<4 | ihl&0xf }

// ToS returns the Type-of-Service byte.
func (ifrm Frame) ToS() ToS { return ToS(ifrm.buf[1]) }

// SetToS sets the Type-of-Service byte.
func (ifrm Frame) SetToS(tos ToS) { ifrm.buf[1] = byte(tos) }

// TotalLength returns the total datagram length in bytes, header plus payload.
func (ifrm Frame) TotalLength() uint16 { return binary.BigEndian.Uint16(ifrm.buf[2:4]) }

// SetTotalLength sets the total length field.
func (ifrm Frame) SetTotalLength(tl uint16) { binary.BigEndian.PutUint16(ifrm.buf[2:4], tl) }

// ID returns the fragment-identification field.
func (ifrm Frame) ID() uint16 { return binary.BigEndian.Uint16(ifrm.buf[4:6]) }

// SetID sets the fragment-identification field.
func (ifrm Frame) SetID(id uint16) { binary.BigEndian.PutUint16(ifrm.buf[4:6], id) }

// Flags returns the combined flags+fragment-offset field.
func (ifrm Frame) Flags() Flags { return Flags(binary.BigEndian.Uint16(ifrm.buf[6:8])) }

// SetFlags sets the combined flags+fragment-offset field.
func (ifrm Frame) SetFlags(flags Flags) { binary.BigEndian.PutUint16(ifrm.buf[6:8], uint16(flags)) }

// TTL returns the time-to-live field.
func (ifrm Frame) TTL() uint8 { return ifrm.buf[8] }

// SetTTL sets the time-to-live field.
func (ifrm Frame) SetTTL(ttl uint8) { ifrm.buf[8] = ttl }

// Protocol returns the upper-layer protocol field.
func (ifrm Frame) Protocol() ipfwd.IPProto { return ipfwd.IPProto(ifrm.buf[9]) }

// SetProtocol sets the upper-layer protocol field.
func (ifrm Frame) SetProtocol(proto ipfwd.IPProto) { ifrm.buf[9] = uint8(proto) }

// CRC returns the header checksum field.
func (ifrm Frame) CRC() uint16 { return binary.BigEndian.Uint16(ifrm.buf[10:12]) }

// SetCRC sets the header checksum field.
func (ifrm Frame) SetCRC(cs uint16) { binary.BigEndian.PutUint16(ifrm.buf[10:12], cs) }

// CalculateHeaderCRC computes the header checksum treating the CRC field
// itself as zero, per RFC 791. It does not mutate the buffer.
func (ifrm Frame) CalculateHeaderCRC() uint16 {
	var crc ipfwd.CRC791
	hl := ifrm.HeaderLength()
	crc.WriteEven(ifrm.buf[0:10])
	crc.WriteEven(ifrm.buf[12:hl])
	return crc.Sum16()
}

// SourceAddr returns a pointer to the source address field.
func (ifrm Frame) SourceAddr() *[4]byte { return (*[4]byte)(ifrm.buf[12:16]) }

// DestinationAddr returns a pointer to the destination address field.
func (ifrm Frame) DestinationAddr() *[4]byte { return (*[4]byte)(ifrm.buf[16:20]) }

// Payload returns the datagram payload, options excluded. Call
// [Frame.ValidateSize] first to avoid a panic on a truncated buffer.
func (ifrm Frame) Payload() []byte {
	off := ifrm.HeaderLength()
	return ifrm.buf[off:ifrm.TotalLength()]
}

// Options returns the IP options area of the header, possibly zero-length.
func (ifrm Frame) Options() []byte {
	return ifrm.buf[sizeHeader:ifrm.HeaderLength()]
}

// ClearHeader zeros the fixed (non-option) header bytes.
func (ifrm Frame) ClearHeader() {
	for i := range ifrm.buf[:sizeHeader] {
		ifrm.buf[i] = 0
	}
}

var (
	errBadTL      = errors.New("ipv4: bad total length")
	errShort      = errors.New("ipv4: short data")
	errBadIHL     = errors.New("ipv4: bad IHL")
	errBadVersion = errors.New("ipv4: bad version")
)

// ValidateSize checks the frame's size fields against the actual buffer.
func (ifrm Frame) ValidateSize(v *ipfwd.Validator) {
	ihl := ifrm.ihl()
	tl := ifrm.TotalLength()
	if tl < sizeHeader {
		v.AddError(errBadTL)
		return
	}
	if int(tl) > len(ifrm.buf) {
		v.AddError(errShort)
		return
	}
	if ihl < 5 || int(ihl)*4 > int(tl) {
		v.AddError(errBadIHL)
	}
}

// ValidateExceptCRC runs ValidateSize and additionally checks the version
// field. It does not check the header checksum; callers validate that
// separately since it requires recomputation.
func (ifrm Frame) ValidateExceptCRC(v *ipfwd.Validator) {
	ifrm.ValidateSize(v)
	if ifrm.version() != 4 {
		v.AddError(errBadVersion)
	}
}

func (ifrm Frame) String() string {
	src := netip.AddrFrom4(*ifrm.SourceAddr())
	dst := netip.AddrFrom4(*ifrm.DestinationAddr())
	return fmt.Sprintf("IP %s SRC=%s DST=%s LEN=%d TTL=%d ID=%d",
		ifrm.Protocol(), src, dst, ifrm.TotalLength(), ifrm.TTL(), ifrm.ID())
}
