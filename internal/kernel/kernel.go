// Package kernel resolves the OS-level identity of a network device:
// its link-layer address and its kernel interface index. Both lookups
// happen exactly once per interface, at registration time, and only for
// kernel-bound I/O modes.
package kernel

import (
	"fmt"
	"net"
)

// Resolver satisfies core.KernelResolver against the running kernel.
// The two queries are independent; either may fail on its own, and a
// failure aborts interface registration.
type Resolver struct{}

// NewResolver returns the OS-backed resolver.
func NewResolver() *Resolver { return &Resolver{} }

// HardwareAddr looks up the device's link-layer address.
func (*Resolver) HardwareAddr(name string) (net.HardwareAddr, error) {
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return nil, fmt.Errorf("hardware address for %s: %w", name, err)
	}
	if len(ifi.HardwareAddr) == 0 {
		return nil, fmt.Errorf("hardware address for %s: device has no link-layer address", name)
	}
	return ifi.HardwareAddr, nil
}

// Index looks up the device's kernel interface index.
func (*Resolver) Index(name string) (int, error) {
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return 0, fmt.Errorf("kernel index for %s: %w", name, err)
	}
	return ifi.Index, nil
}
