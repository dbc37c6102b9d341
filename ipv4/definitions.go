package ipv4

const (
	sizeHeader = 20
)

// ToS is the Type of Service / DiffServ+ECN byte. The router only needs it
// to pass through untouched on forwarded packets; synthesized packets use 0.
type ToS uint8

// Flags holds the IPv4 flags+fragment-offset field.
type Flags uint16

// DontFragment reports whether the DF bit is set.
func (f Flags) DontFragment() bool { return f&0x4000 != 0 }

// MoreFragments reports whether the MF bit is set.
func (f Flags) MoreFragments() bool { return f&0x2000 != 0 }

// FragmentOffset returns the 13-bit fragment offset, in 8-byte units.
func (f Flags) FragmentOffset() uint16 { return uint16(f) & 0x1fff }

// FlagsDF is the flags+fragment-offset value for an unfragmented packet
// with the Don't-Fragment bit set, used on every synthesized ICMP packet.
const FlagsDF Flags = 0x4000
