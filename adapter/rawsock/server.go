//go:build linux

// Package rawsock asynchronous AF_PACKET raw socket server
package rawsock

import (
	"net"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/forest33/rawlink/adapter/link"
	"github.com/forest33/rawlink/business/entity"
	"github.com/forest33/rawlink/pkg/logger"
)

// BufferSize receive buffer size, one maximum Ethernet frame
const BufferSize = 1500

type Config struct {
	Interface  string
	EtherType  uint16
	SendPolicy entity.SendPolicy
	Tracing    bool
}

// Server owns one bound raw socket. At most one receive may be outstanding,
// any number of sends may be in flight.
type Server struct {
	cfg       *Config
	log       *logger.Logger
	handler   entity.RawHandler
	endpoint  entity.LinkEndpoint
	conn      entity.ReactorConn
	target    func(frame []byte) (unix.Sockaddr, error)
	buf       [BufferSize]byte
	peer      entity.LinkEndpoint
	receiving atomic.Bool
	closed    atomic.Bool
}

// New opens a raw socket bound to cfg.Interface (all interfaces if empty)
// filtering on cfg.EtherType and registers it with reactor.
func New(reactor entity.Reactor, log *logger.Logger, cfg *Config, handler entity.RawHandler) (*Server, error) {
	if handler == nil {
		return nil, entity.ErrHandlerNotSet
	}
	if cfg.SendPolicy == "" {
		cfg.SendPolicy = entity.SendPolicyBound
	}
	if err := cfg.SendPolicy.Validate(); err != nil {
		return nil, err
	}

	ep, err := link.Endpoint(cfg.Interface, cfg.EtherType)
	if err != nil {
		return nil, err
	}

	fd, err := open(ep)
	if err != nil {
		return nil, err
	}

	conn, err := reactor.Register(fd, ep.String())
	if err != nil {
		return nil, &entity.OpenOrBindError{Op: "register", Endpoint: ep, Err: err}
	}

	return newServer(conn, ep, log, cfg, handler), nil
}

func open(ep entity.LinkEndpoint) (int, error) {
	proto := ep.Protocol()
	fd, err := unix.Socket(proto.Family(), proto.Type()|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, int(proto.Protocol()))
	if err != nil {
		return -1, &entity.OpenOrBindError{Op: "open", Endpoint: ep, Err: err}
	}
	if err := unix.Bind(fd, toSockaddr(ep)); err != nil {
		_ = unix.Close(fd)
		return -1, &entity.OpenOrBindError{Op: "bind", Endpoint: ep, Err: err}
	}
	return fd, nil
}

func newServer(conn entity.ReactorConn, ep entity.LinkEndpoint, log *logger.Logger, cfg *Config, handler entity.RawHandler) *Server {
	s := &Server{
		cfg:      cfg,
		log:      log.Duplicate(log.With().Str("layer", "rawsock").Str("endpoint", ep.String()).Logger()),
		handler:  handler,
		endpoint: ep,
		conn:     conn,
	}

	switch cfg.SendPolicy {
	case entity.SendPolicyDestination:
		s.target = s.frameDestination
	default:
		s.target = s.boundDestination
	}

	return s
}

// AsyncReceive arms one receive into Buffer. The outcome is delivered to
// the handler's HandleReceive, which has to call AsyncReceive again to keep
// listening.
func (s *Server) AsyncReceive() error {
	if s.closed.Load() {
		return entity.ErrServerClosed
	}
	if !s.receiving.CompareAndSwap(false, true) {
		return entity.ErrReceivePending
	}

	s.conn.ReadFrom(s.buf[:], s.receiveComplete)

	return nil
}

func (s *Server) receiveComplete(n int, from unix.Sockaddr, err error) {
	if sa, ok := from.(*unix.SockaddrLinklayer); ok {
		s.peer = fromSockaddr(sa)
	} else {
		s.peer = entity.LinkEndpoint{}
	}
	s.receiving.Store(false)

	s.receiveLog(n, err)
	s.handler.HandleReceive(err, n)
}

// AsyncSend sends a copy of frame, the caller may reuse frame immediately.
// The outcome is delivered to the handler's HandleSend.
func (s *Server) AsyncSend(frame []byte) error {
	if s.closed.Load() {
		return entity.ErrServerClosed
	}

	to, err := s.target(frame)
	if err != nil {
		return err
	}

	buf := entity.FramePool.Get(len(frame))
	copy(*buf, frame)
	s.write(buf, to)

	return nil
}

// AsyncSendBuffers sends bufs gathered into one frame.
func (s *Server) AsyncSendBuffers(bufs net.Buffers) error {
	if s.closed.Load() {
		return entity.ErrServerClosed
	}

	size := 0
	for _, b := range bufs {
		size += len(b)
	}
	buf := entity.FramePool.Get(size)
	off := 0
	for _, b := range bufs {
		off += copy((*buf)[off:], b)
	}

	to, err := s.target(*buf)
	if err != nil {
		entity.FramePool.Put(buf)
		return err
	}
	s.write(buf, to)

	return nil
}

func (s *Server) write(buf *[]byte, to unix.Sockaddr) {
	s.conn.WriteTo(*buf, to, func(n int, err error) {
		s.sendLog(*buf, to, n, err)
		entity.FramePool.Put(buf)
		s.handler.HandleSend(err, n)
	})
}

// Buffer returns the receive buffer. It is valid only between a receive
// completion and the next AsyncReceive.
func (s *Server) Buffer() []byte {
	return s.buf[:]
}

// Peer returns the address the last frame was received from.
func (s *Server) Peer() entity.LinkEndpoint {
	return s.peer
}

func (s *Server) Endpoint() entity.LinkEndpoint {
	return s.endpoint
}

// Close closes the socket, pending operations complete with ErrOperationAborted.
func (s *Server) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return entity.ErrServerClosed
	}
	return s.conn.Close()
}

func (s *Server) boundDestination([]byte) (unix.Sockaddr, error) {
	return toSockaddr(s.endpoint), nil
}

func (s *Server) frameDestination(frame []byte) (unix.Sockaddr, error) {
	dst, err := entity.Destination(frame)
	if err != nil {
		return nil, err
	}
	ep, err := s.endpoint.WithHardwareAddr(dst)
	if err != nil {
		return nil, err
	}
	return toSockaddr(ep), nil
}
