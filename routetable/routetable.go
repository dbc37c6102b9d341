// Package routetable holds the router's static routing table and its
// longest-prefix-match lookup.
package routetable

import "encoding/binary"

// Route is one static forwarding entry.
type Route struct {
	Dest    [4]byte
	Mask    [4]byte
	Gateway [4]byte // 0.0.0.0 means directly connected: next hop is the destination itself.
	Iface   string
}

func toUint32(b [4]byte) uint32 { return binary.BigEndian.Uint32(b[:]) }

// Table is an immutable, linearly-scanned list of routes.
type Table struct {
	routes []Route
}

// NewTable builds a Table from a fixed route list, preserving insertion
// order for LPM tie-breaking.
func NewTable(routes []Route) Table {
	cp := make([]Route, len(routes))
	copy(cp, routes)
	return Table{routes: cp}
}

// LPM returns the route with the longest (numerically largest) mask whose
// masked destination matches the masked lookup address. Ties are broken by
// insertion order: the first matching route at the winning mask length
// wins. Returns false if no route matches, including when there is no
// default route.
func (t Table) LPM(dst [4]byte) (Route, bool) {
	dstN := toUint32(dst)
	var best Route
	var bestMask uint32
	found := false
	for _, r := range t.routes {
		mask := toUint32(r.Mask)
		if dstN&mask != toUint32(r.Dest)&mask {
			continue
		}
		if !found || mask > bestMask {
			best, bestMask, found = r, mask, true
		}
	}
	return best, found
}
