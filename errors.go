package ipfwd

import "errors"

// Generic errors common to frame handling across the ethernet/arp/ipv4/icmpv4
// packages. Package-specific malformations get their own sentinel in the
// package that detects them; these cover outcomes shared across layers.
var (
	ErrPacketDrop      = errors.New("ipfwd: packet dropped")
	ErrBadChecksum     = errors.New("ipfwd: bad checksum")
	ErrZeroSource      = errors.New("ipfwd: zero source address")
	ErrZeroDestination = errors.New("ipfwd: zero destination address")
)
