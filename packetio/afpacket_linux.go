//go:build linux

package packetio

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/aleheux-tc/bngblaster/core"
)

// Ring geometry for the packet_mmap mode. One mmap region carries the
// RX ring followed by the TX ring.
const (
	frameSize = 2048
	blockSize = 1 << 17 // 64 frames per block
	blockNr   = 32
	frameNr   = (blockSize / frameSize) * blockNr
)

// packetMmap drives an AF_PACKET socket with TPACKET_V2 rings mapped
// into user space. This is the default backend.
type packetMmap struct {
	fd     int
	ring   []byte
	rx, tx []byte
}

func newPacketMmap() core.Backend { return &packetMmap{fd: -1} }

func (b *packetMmap) Init(iface *core.Interface) error {
	fd, err := openPacketSocket(iface.Index())
	if err != nil {
		return err
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_PACKET, unix.PACKET_VERSION, unix.TPACKET_V2); err != nil {
		unix.Close(fd)
		return fmt.Errorf("PACKET_VERSION: %w", err)
	}

	req := unix.TpacketReq{
		Block_size: blockSize,
		Block_nr:   blockNr,
		Frame_size: frameSize,
		Frame_nr:   frameNr,
	}
	if err := unix.SetsockoptTpacketReq(fd, unix.SOL_PACKET, unix.PACKET_RX_RING, &req); err != nil {
		unix.Close(fd)
		return fmt.Errorf("PACKET_RX_RING: %w", err)
	}
	if err := unix.SetsockoptTpacketReq(fd, unix.SOL_PACKET, unix.PACKET_TX_RING, &req); err != nil {
		unix.Close(fd)
		return fmt.Errorf("PACKET_TX_RING: %w", err)
	}

	ringLen := 2 * blockSize * blockNr
	ring, err := unix.Mmap(fd, 0, ringLen, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return fmt.Errorf("mmap packet rings: %w", err)
	}

	b.fd = fd
	b.ring = ring
	b.rx = make([]byte, core.IOBufferLen)
	b.tx = make([]byte, core.IOBufferLen)
	return nil
}

func (b *packetMmap) RxBuffer() []byte { return b.rx }
func (b *packetMmap) TxBuffer() []byte { return b.tx }

func (b *packetMmap) Send(pkt []byte) (int, error) {
	return sendPacket(b.fd, pkt)
}

func (b *packetMmap) Recv(buf []byte) (int, error) {
	return recvPacket(b.fd, buf)
}

func (b *packetMmap) Close() error {
	if b.ring != nil {
		unix.Munmap(b.ring)
		b.ring = nil
	}
	return closeFd(&b.fd)
}

// rawSocket is the ringless fallback: a plain AF_PACKET socket.
type rawSocket struct {
	fd     int
	rx, tx []byte
}

func newRawSocket() core.Backend { return &rawSocket{fd: -1} }

func (b *rawSocket) Init(iface *core.Interface) error {
	fd, err := openPacketSocket(iface.Index())
	if err != nil {
		return err
	}
	b.fd = fd
	b.rx = make([]byte, core.IOBufferLen)
	b.tx = make([]byte, core.IOBufferLen)
	return nil
}

func (b *rawSocket) RxBuffer() []byte { return b.rx }
func (b *rawSocket) TxBuffer() []byte { return b.tx }

func (b *rawSocket) Send(pkt []byte) (int, error) {
	return sendPacket(b.fd, pkt)
}

func (b *rawSocket) Recv(buf []byte) (int, error) {
	return recvPacket(b.fd, buf)
}

func (b *rawSocket) Close() error { return closeFd(&b.fd) }

func openPacketSocket(ifindex int) (int, error) {
	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, int(htons(unix.ETH_P_ALL)))
	if err != nil {
		return -1, fmt.Errorf("packet socket: %w", err)
	}
	sll := &unix.SockaddrLinklayer{
		Protocol: htons(unix.ETH_P_ALL),
		Ifindex:  ifindex,
	}
	if err := unix.Bind(fd, sll); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("bind ifindex %d: %w", ifindex, err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("set nonblocking: %w", err)
	}
	return fd, nil
}

func sendPacket(fd int, pkt []byte) (int, error) {
	n, err := unix.Write(fd, pkt)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func recvPacket(fd int, buf []byte) (int, error) {
	n, _, err := unix.Recvfrom(fd, buf, unix.MSG_DONTWAIT)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, nil
		}
		return 0, err
	}
	return n, nil
}

func closeFd(fd *int) error {
	if *fd < 0 {
		return nil
	}
	err := unix.Close(*fd)
	*fd = -1
	return err
}

func htons(v uint16) uint16 {
	return v<<8 | v>>8
}
