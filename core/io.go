package core

// IOMode selects the packet I/O backend bound to an interface. The
// packet_mmap mode is the default; dpdk hands the device to a
// user-space poll-mode driver and is therefore not kernel-bound.
type IOMode string

const (
	IOModePacketMmap IOMode = "packet_mmap"
	IOModeRawSocket  IOMode = "raw"
	IOModeDPDK       IOMode = "dpdk"
)

// IOBufferLen is the fixed capacity of the per-interface receive and
// transmit buffers exposed by every backend.
const IOBufferLen = 65536

// Valid reports whether the mode names a known backend.
func (m IOMode) Valid() bool {
	switch m {
	case IOModePacketMmap, IOModeRawSocket, IOModeDPDK:
		return true
	}
	return false
}

// KernelBound reports whether the mode drives the device through the
// kernel, in which case hardware address and ifindex must be resolved
// at registration time. DPDK-bound devices are invisible to those
// queries.
func (m IOMode) KernelBound() bool {
	return m != IOModeDPDK
}

// Backend is the uniform send/receive contract every I/O mode presents,
// whether the transport is a memory-mapped kernel socket, a plain raw
// socket, or a user-space driver.
type Backend interface {
	// Init binds the backend to the interface and allocates the
	// fixed-size rx/tx buffers.
	Init(iface *Interface) error
	// RxBuffer and TxBuffer expose the fixed-capacity buffer handles.
	RxBuffer() []byte
	TxBuffer() []byte
	// Send transmits one packet. Transient errors stay local to the
	// backend; they are never surfaced as protocol faults.
	Send(pkt []byte) (int, error)
	// Recv reads one packet into buf, returning its length. A return
	// of 0 with nil error means nothing was pending.
	Recv(buf []byte) (int, error)
	Close() error
}

// BackendFactory constructs a backend for an IO mode. The registry
// receives a factory rather than concrete backends so tests can swap in
// fakes without touching OS sockets.
type BackendFactory func(mode IOMode) (Backend, error)

// SendRequest is a bitmask of pending-transmission flags. Protocol
// timers set bits; the transmit scheduler consumes the whole word on
// each flush. Repeated unconsumed requests for the same message type
// coalesce into the single bit, never a queue.
type SendRequest uint32

const (
	SendLDPHello SendRequest = 1 << iota
)
