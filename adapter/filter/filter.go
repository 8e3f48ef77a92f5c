// Package filter classic BPF programs for raw sockets
package filter

import (
	"encoding/binary"
	"net"

	"github.com/pkg/errors"
	"golang.org/x/net/bpf"

	"github.com/forest33/rawlink/business/entity"
)

// instructions per matched address
const blockSize = 5

// Broadcast the Ethernet broadcast address
var Broadcast = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// Destination returns a program accepting up to snapLen bytes of frames
// addressed to any of addrs and dropping everything else.
func Destination(snapLen int, addrs ...net.HardwareAddr) ([]bpf.Instruction, error) {
	if len(addrs) == 0 {
		return nil, errors.Wrap(entity.ErrWrongHardwareAddr, "no destination addresses")
	}
	if snapLen < entity.EthernetHeaderSize {
		return nil, errors.Errorf("snap length %d is shorter than an Ethernet header", snapLen)
	}

	prog := make([]bpf.Instruction, 0, len(addrs)*blockSize+1)
	for _, hw := range addrs {
		if len(hw) != entity.HardwareAddrLength {
			return nil, errors.Wrapf(entity.ErrWrongHardwareAddr, "%s", hw)
		}
		prog = append(prog,
			bpf.LoadAbsolute{Off: 0, Size: 4},
			bpf.JumpIf{Cond: bpf.JumpNotEqual, Val: binary.BigEndian.Uint32(hw[0:4]), SkipTrue: 3},
			bpf.LoadAbsolute{Off: 4, Size: 2},
			bpf.JumpIf{Cond: bpf.JumpNotEqual, Val: uint32(binary.BigEndian.Uint16(hw[4:6])), SkipTrue: 1},
			bpf.RetConstant{Val: uint32(snapLen)},
		)
	}
	prog = append(prog, bpf.RetConstant{Val: 0})

	return prog, nil
}

// DestinationRaw assembles Destination for attaching to a socket.
func DestinationRaw(snapLen int, addrs ...net.HardwareAddr) ([]bpf.RawInstruction, error) {
	prog, err := Destination(snapLen, addrs...)
	if err != nil {
		return nil, err
	}
	raw, err := bpf.Assemble(prog)
	if err != nil {
		return nil, errors.Wrap(err, "assemble BPF")
	}
	return raw, nil
}
