//go:build linux

package rawsock

import (
	"golang.org/x/sys/unix"

	"github.com/forest33/rawlink/business/entity"
)

func (s *Server) receiveLog(n int, err error) {
	if !s.cfg.Tracing {
		return
	}

	ev := s.log.Debug().Int("size", n).Str("peer", s.peer.String())
	if hw := s.peer.HardwareAddr(); hw != nil {
		ev = ev.Str("peer_addr", hw.String())
	}
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("receive completed")
}

func (s *Server) sendLog(frame []byte, to unix.Sockaddr, n int, err error) {
	if !s.cfg.Tracing {
		return
	}

	ev := s.log.Debug().Int("size", n).Int("frame_size", len(frame))
	if sa, ok := to.(*unix.SockaddrLinklayer); ok {
		ev = ev.Str("to", fromSockaddr(sa).String())
	}
	if dst, derr := entity.Destination(frame); derr == nil {
		ev = ev.Str("dst", dst.String())
	}
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("send completed")
}
