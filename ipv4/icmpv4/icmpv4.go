package icmpv4

import (
	"encoding/binary"
	"errors"

	"github.com/packetplane/ipfwd"
)

// Type is the ICMPv4 message type field.
type Type uint8

const (
	TypeEchoReply Type = 0
	TypeEcho      Type = 8

	TypeDestinationUnreachable Type = 3
	TypeTimeExceeded           Type = 11
)

func (t Type) String() string {
	switch t {
	case TypeEchoReply:
		return "echo-reply"
	case TypeEcho:
		return "echo"
	case TypeDestinationUnreachable:
		return "destination-unreachable"
	case TypeTimeExceeded:
		return "time-exceeded"
	default:
		return "unknown"
	}
}

// CodeTimeExceeded enumerates the codes used under TypeTimeExceeded.
type CodeTimeExceeded uint8

const (
	CodeExceededInTransit CodeTimeExceeded = 0
)

// CodeDestinationUnreachable enumerates the codes used under TypeDestinationUnreachable.
type CodeDestinationUnreachable uint8

const (
	CodeNetUnreachable  CodeDestinationUnreachable = 0
	CodeHostUnreachable CodeDestinationUnreachable = 1
	CodePortUnreachable CodeDestinationUnreachable = 3
)

var errShortFrame = errors.New("icmpv4: short frame")

// NewFrame returns a Frame overlaying buf. An error is returned if buf is
// shorter than the 8-byte fixed header.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < 8 {
		return Frame{}, errShortFrame
	}
	return Frame{buf: buf}, nil
}

// Frame overlays the common 8-byte ICMPv4 header (RFC 792) on a borrowed
// byte slice: type, code, checksum, and a 4-byte type-specific field.
type Frame struct {
	buf []byte
}

// RawData returns the underlying slice the frame was created with.
func (frm Frame) RawData() []byte { return frm.buf }

// Type returns the ICMP type field.
func (frm Frame) Type() Type { return Type(frm.buf[0]) }

// SetType sets the ICMP type field.
func (frm Frame) SetType(t Type) { frm.buf[0] = uint8(t) }

// Code returns the ICMP code field.
func (frm Frame) Code() uint8 { return frm.buf[1] }

// SetCode sets the ICMP code field.
func (frm Frame) SetCode(code uint8) { frm.buf[1] = code }

// CRC returns the checksum field.
func (frm Frame) CRC() uint16 { return binary.BigEndian.Uint16(frm.buf[2:4]) }

// SetCRC sets the checksum field.
func (frm Frame) SetCRC(crc uint16) { binary.BigEndian.PutUint16(frm.buf[2:4], crc) }

// CalculateCRC computes the ICMP checksum over the whole message (header
// plus trailing payload), treating the checksum field as zero per RFC 792.
// It does not mutate the buffer.
func (frm Frame) CalculateCRC() uint16 {
	var crc ipfwd.CRC791
	crc.AddUint16(uint16(frm.buf[0])<<8 | uint16(frm.buf[1]))
	crc.Write(frm.buf[4:])
	return crc.Sum16()
}

// RestOfHeader returns the 4 bytes following the checksum field: unused for
// echo/unreachable/time-exceeded beyond the echo Identifier/SequenceNumber.
func (frm Frame) RestOfHeader() *[4]byte { return (*[4]byte)(frm.buf[4:8]) }

// Payload returns everything past the 8-byte fixed header.
func (frm Frame) Payload() []byte { return frm.buf[8:] }

// FrameEcho views an ICMP echo/echo-reply message (type 8 or 0).
type FrameEcho struct {
	Frame
}

// Identifier returns the echo identifier field.
func (frm FrameEcho) Identifier() uint16 { return binary.BigEndian.Uint16(frm.buf[4:6]) }

// SetIdentifier sets the echo identifier field.
func (frm FrameEcho) SetIdentifier(id uint16) { binary.BigEndian.PutUint16(frm.buf[4:6], id) }

// SequenceNumber returns the echo sequence number field.
func (frm FrameEcho) SequenceNumber() uint16 { return binary.BigEndian.Uint16(frm.buf[6:8]) }

// SetSequenceNumber sets the echo sequence number field.
func (frm FrameEcho) SetSequenceNumber(seq uint16) { binary.BigEndian.PutUint16(frm.buf[6:8], seq) }

// Data returns the echo payload, the bytes the peer expects echoed back unchanged.
func (frm FrameEcho) Data() []byte { return frm.buf[8:] }
