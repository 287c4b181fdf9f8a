package core

import (
	"net"
	"sync/atomic"
)

// LinkConfig is the per-link slice of configuration an interface is
// created from: name, backend mode, optional static hardware address,
// optional aggregation-group reference, and the LDP instance the link
// belongs to (0 = none).
type LinkConfig struct {
	Name          string
	IOMode        IOMode
	MAC           net.HardwareAddr
	LAGGroup      string
	LDPInstanceID uint32
}

// Stats are the cumulative interface counters. Counting methods are
// atomic so backends may count from I/O servicing while the rate job
// reads on the timer thread.
type Stats struct {
	PacketsTx uint64
	PacketsRx uint64
	BytesTx   uint64
	BytesRx   uint64
}

// Interface represents one network attachment point. Interfaces are
// created once during startup, owned by the registry for the process
// lifetime, and never destroyed during normal operation.
type Interface struct {
	name    string
	config  LinkConfig
	mode    IOMode
	mac     net.HardwareAddr
	ifindex int
	lag     *LAGGroup
	backend Backend

	packetsTx atomic.Uint64
	packetsRx atomic.Uint64
	bytesTx   atomic.Uint64
	bytesRx   atomic.Uint64

	// Smoothed rates, touched only by the periodic rate job.
	avgPacketsTx movingAverage
	avgPacketsRx movingAverage
	avgBytesTx   movingAverage
	avgBytesRx   movingAverage
	rates        RateStats

	sendRequests atomic.Uint32

	// ldpAdjacency is the non-owning reverse reference to the LDP
	// adjacency attached to this interface. It is opaque here; the
	// ldp package owns the concrete type.
	ldpAdjacency any
}

func (i *Interface) Name() string          { return i.name }
func (i *Interface) Config() LinkConfig    { return i.config }
func (i *Interface) Mode() IOMode          { return i.mode }
func (i *Interface) MAC() net.HardwareAddr { return i.mac }
func (i *Interface) Index() int            { return i.ifindex }
func (i *Interface) LAG() *LAGGroup        { return i.lag }
func (i *Interface) Backend() Backend      { return i.backend }

// CountTx adds one transmitted packet of the given size.
func (i *Interface) CountTx(bytes int) {
	i.packetsTx.Add(1)
	i.bytesTx.Add(uint64(bytes))
}

// CountRx adds one received packet of the given size.
func (i *Interface) CountRx(bytes int) {
	i.packetsRx.Add(1)
	i.bytesRx.Add(uint64(bytes))
}

// Stats returns a snapshot of the cumulative counters.
func (i *Interface) Stats() Stats {
	return Stats{
		PacketsTx: i.packetsTx.Load(),
		PacketsRx: i.packetsRx.Load(),
		BytesTx:   i.bytesTx.Load(),
		BytesRx:   i.bytesRx.Load(),
	}
}

// Rates returns the smoothed per-second rates as of the last rate job.
func (i *Interface) Rates() RateStats { return i.rates }

// computeRates recomputes the smoothed rates from the cumulative
// counters. Called once per second by the registry's rate timer.
func (i *Interface) computeRates() RateStats {
	i.rates = RateStats{
		PacketsTx: i.avgPacketsTx.update(i.packetsTx.Load()),
		PacketsRx: i.avgPacketsRx.update(i.packetsRx.Load()),
		BytesTx:   i.avgBytesTx.update(i.bytesTx.Load()),
		BytesRx:   i.avgBytesRx.update(i.bytesRx.Load()),
	}
	return i.rates
}

// RequestSend sets pending-transmission flags. Setting an already
// pending flag coalesces: the transmit scheduler sees one request no
// matter how many firings preceded the flush.
func (i *Interface) RequestSend(req SendRequest) {
	for {
		old := i.sendRequests.Load()
		if old&uint32(req) == uint32(req) {
			return
		}
		if i.sendRequests.CompareAndSwap(old, old|uint32(req)) {
			return
		}
	}
}

// SendPending reports whether the given request bit is set.
func (i *Interface) SendPending(req SendRequest) bool {
	return i.sendRequests.Load()&uint32(req) != 0
}

// ConsumeSendRequests atomically takes and clears the whole request
// word. This is the transmit scheduler's side of the flag contract.
func (i *Interface) ConsumeSendRequests() SendRequest {
	return SendRequest(i.sendRequests.Swap(0))
}

// SetLDPAdjacency stores the reverse reference to the attached LDP
// adjacency. The instance owns the adjacency; this is lookup only.
func (i *Interface) SetLDPAdjacency(adj any) { i.ldpAdjacency = adj }

// LDPAdjacency returns the attached LDP adjacency, or nil.
func (i *Interface) LDPAdjacency() any { return i.ldpAdjacency }
