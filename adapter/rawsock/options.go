//go:build linux

package rawsock

import (
	"github.com/pkg/errors"
	"golang.org/x/net/bpf"
	"golang.org/x/sys/unix"
)

// SetBPF attaches a classic BPF program to the socket.
func (s *Server) SetBPF(filter []bpf.RawInstruction) error {
	if len(filter) == 0 {
		return errors.New("empty BPF program")
	}

	flt := make([]unix.SockFilter, len(filter))
	for i, ins := range filter {
		flt[i] = unix.SockFilter{
			Code: ins.Op,
			Jt:   ins.Jt,
			Jf:   ins.Jf,
			K:    ins.K,
		}
	}
	prog := &unix.SockFprog{
		Len:    uint16(len(flt)),
		Filter: &flt[0],
	}

	var opErr error
	if err := s.conn.Control(func(fd uintptr) {
		opErr = unix.SetsockoptSockFprog(int(fd), unix.SOL_SOCKET, unix.SO_ATTACH_FILTER, prog)
	}); err != nil {
		return err
	}
	return errors.Wrap(opErr, "attach BPF")
}

// SetPromiscuous switches promiscuous mode of the bound interface.
func (s *Server) SetPromiscuous(on bool) error {
	if s.endpoint.Ifindex() == 0 {
		return errors.New("promiscuous mode requires a bound interface")
	}

	mreq := &unix.PacketMreq{
		Ifindex: int32(s.endpoint.Ifindex()),
		Type:    unix.PACKET_MR_PROMISC,
	}
	opt := unix.PACKET_ADD_MEMBERSHIP
	if !on {
		opt = unix.PACKET_DROP_MEMBERSHIP
	}

	var opErr error
	if err := s.conn.Control(func(fd uintptr) {
		opErr = unix.SetsockoptPacketMreq(int(fd), unix.SOL_PACKET, opt, mreq)
	}); err != nil {
		return err
	}
	return errors.Wrapf(opErr, "promiscuous %t", on)
}
