// Package netinfo finds the address the server advertises at startup.
package netinfo

import (
	"context"
	"fmt"
	"net/netip"
	"slices"
	"strings"

	psnet "github.com/shirou/gopsutil/v3/net"
)

// InterfaceAddress returns the first IPv4 address of the named interface.
// With an empty name, or when the interface is missing, it falls back to the
// first address of any interface that is up and not loopback.
func InterfaceAddress(ctx context.Context, name string) (string, error) {
	ifaces, err := psnet.InterfacesWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("list interfaces: %w", err)
	}
	return pickAddress(ifaces, name)
}

func pickAddress(ifaces psnet.InterfaceStatList, name string) (string, error) {
	if name != "" {
		for _, iface := range ifaces {
			if iface.Name != name {
				continue
			}
			if addr, ok := firstIPv4(iface); ok {
				return addr, nil
			}
		}
	}

	for _, iface := range ifaces {
		if !slices.Contains(iface.Flags, "up") || slices.Contains(iface.Flags, "loopback") {
			continue
		}
		if addr, ok := firstIPv4(iface); ok {
			return addr, nil
		}
	}
	return "", fmt.Errorf("no usable IPv4 address (wanted interface %q)", name)
}

func firstIPv4(iface psnet.InterfaceStat) (string, bool) {
	for _, a := range iface.Addrs {
		raw := a.Addr
		if i := strings.IndexByte(raw, '/'); i >= 0 {
			raw = raw[:i]
		}
		ip, err := netip.ParseAddr(raw)
		if err != nil || !ip.Is4() || ip.IsLoopback() {
			continue
		}
		return ip.String(), true
	}
	return "", false
}
