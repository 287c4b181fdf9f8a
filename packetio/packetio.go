// Package packetio provides the concrete I/O backends an interface can
// select: a memory-mapped AF_PACKET socket (the default), a plain raw
// socket, and a user-space DPDK stub. All backends present the same
// fixed-buffer send/receive contract defined in core.
package packetio

import (
	"fmt"

	"github.com/aleheux-tc/bngblaster/core"
)

// New is the core.BackendFactory for the built-in modes.
func New(mode core.IOMode) (core.Backend, error) {
	switch mode {
	case core.IOModePacketMmap:
		return newPacketMmap(), nil
	case core.IOModeRawSocket:
		return newRawSocket(), nil
	case core.IOModeDPDK:
		return newDPDK(), nil
	default:
		return nil, fmt.Errorf("unknown io mode %q", mode)
	}
}
