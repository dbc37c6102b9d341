// Package config loads the router's static interface table and routing
// table from plain text files at startup. Both are parsed once into
// immutable structures; the router never reads them again.
package config

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"net/netip"
	"strings"

	"github.com/packetplane/ipfwd/iface"
	"github.com/packetplane/ipfwd/routetable"
)

// LoadInterfaces parses an interface table, one interface per line:
//
//	name mac ipv4
//
// e.g. "eth0 AA:AA:AA:AA:AA:01 10.0.0.1". Blank lines and lines starting
// with '#' are ignored.
func LoadInterfaces(r io.Reader) ([]iface.Interface, error) {
	var out []iface.Interface
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("config: interface line %d: want 3 fields, got %d", lineNo, len(fields))
		}
		mac, err := net.ParseMAC(fields[1])
		if err != nil || len(mac) != 6 {
			return nil, fmt.Errorf("config: interface line %d: bad MAC %q: %w", lineNo, fields[1], err)
		}
		ip, err := netip.ParseAddr(fields[2])
		if err != nil || !ip.Is4() {
			return nil, fmt.Errorf("config: interface line %d: bad IPv4 address %q", lineNo, fields[2])
		}
		out = append(out, iface.Interface{Name: fields[0], MAC: [6]byte(mac), IP: ip.As4()})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadRoutes parses a routing table, one route per line:
//
//	dest mask gateway iface
//
// all dotted-quad, whitespace separated, e.g. "20.0.0.0 255.255.255.0
// 0.0.0.0 eth1". A gateway of 0.0.0.0 marks a directly connected route.
// Blank lines and lines starting with '#' are ignored.
func LoadRoutes(r io.Reader) ([]routetable.Route, error) {
	var out []routetable.Route
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 4 {
			return nil, fmt.Errorf("config: route line %d: want 4 fields, got %d", lineNo, len(fields))
		}
		dest, err := parseIPv4Field(fields[0])
		if err != nil {
			return nil, fmt.Errorf("config: route line %d: dest: %w", lineNo, err)
		}
		mask, err := parseIPv4Field(fields[1])
		if err != nil {
			return nil, fmt.Errorf("config: route line %d: mask: %w", lineNo, err)
		}
		gw, err := parseIPv4Field(fields[2])
		if err != nil {
			return nil, fmt.Errorf("config: route line %d: gateway: %w", lineNo, err)
		}
		out = append(out, routetable.Route{Dest: dest, Mask: mask, Gateway: gw, Iface: fields[3]})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseIPv4Field(s string) ([4]byte, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		return [4]byte{}, fmt.Errorf("bad IPv4 address %q", s)
	}
	return addr.As4(), nil
}
