//go:build !linux

package packetio

import (
	"errors"

	"github.com/aleheux-tc/bngblaster/core"
)

var errLinuxOnly = errors.New("AF_PACKET backends require linux")

type unsupported struct{}

func newPacketMmap() core.Backend { return unsupported{} }
func newRawSocket() core.Backend  { return unsupported{} }

func (unsupported) Init(*core.Interface) error { return errLinuxOnly }
func (unsupported) RxBuffer() []byte           { return nil }
func (unsupported) TxBuffer() []byte           { return nil }
func (unsupported) Send([]byte) (int, error)   { return 0, errLinuxOnly }
func (unsupported) Recv([]byte) (int, error)   { return 0, errLinuxOnly }
func (unsupported) Close() error               { return nil }
