package ipfwd

import "strconv"

// IPProto identifies the protocol carried in an IPv4 payload (the header's
// Protocol field).
type IPProto uint8

// Protocol numbers the dispatcher and forwarding engine need to recognize.
// The full IANA registry is not reproduced; unknown values still round-trip
// through Protocol/SetProtocol correctly, they just stringify numerically.
const (
	IPProtoICMP IPProto = 1
	IPProtoTCP  IPProto = 6
	IPProtoUDP  IPProto = 17
)

func (p IPProto) String() string {
	switch p {
	case IPProtoICMP:
		return "ICMP"
	case IPProtoTCP:
		return "TCP"
	case IPProtoUDP:
		return "UDP"
	default:
		return "proto(" + strconv.Itoa(int(p)) + ")"
	}
}
