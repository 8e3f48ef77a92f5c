//go:build linux

package reactor

import (
	"errors"
	"os"
	"sync/atomic"
	"syscall"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/forest33/rawlink/business/entity"
)

type Conn struct {
	r      *Reactor
	loop   *loop
	name   string
	file   *os.File
	rc     syscall.RawConn
	reads  opQueue
	writes opQueue
	closed atomic.Bool
}

// Register takes ownership of the descriptor fd, it is closed on failure.
// The socket's completions always run on the same loop.
func (r *Reactor) Register(fd int, name string) (entity.ReactorConn, error) {
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return nil, pkgerrors.Wrap(err, "set non-blocking")
	}

	f := os.NewFile(uintptr(fd), name)
	if f == nil {
		return nil, pkgerrors.Errorf("invalid descriptor %d", fd)
	}
	rc, err := f.SyscallConn()
	if err != nil {
		_ = f.Close()
		return nil, pkgerrors.Wrap(err, "syscall conn")
	}

	c := &Conn{
		r:    r,
		loop: r.pick(),
		name: name,
		file: f,
		rc:   rc,
	}

	if r.cfg.Tracing {
		r.log.Debug().Str("name", name).Int("fd", fd).Int("loop", c.loop.id).Msg("socket registered")
	}

	return c, nil
}

// ReadFrom receives one datagram into p once the socket is readable.
// Reads on one Conn are served in submission order.
func (c *Conn) ReadFrom(p []byte, done func(n int, from unix.Sockaddr, err error)) {
	c.reads.push(func() {
		var (
			n     int
			from  unix.Sockaddr
			opErr error
		)
		err := c.rc.Read(func(fd uintptr) bool {
			var recvflags int
			for {
				n, _, recvflags, from, opErr = unix.Recvmsg(int(fd), p, nil, 0)
				if opErr != unix.EINTR {
					break
				}
			}
			if opErr == unix.EAGAIN {
				return false
			}
			if opErr == nil && recvflags&unix.MSG_TRUNC != 0 {
				opErr = entity.ErrMessageTruncated
			}
			return true
		})
		if err == nil {
			err = opErr
		}
		if err != nil && !errors.Is(err, entity.ErrMessageTruncated) {
			n = 0
			err = c.normalize(err)
		}

		c.complete("read", n, err, func() {
			done(n, from, err)
		})
	})
}

// WriteTo sends p to the address to, or to the connected peer when to is nil.
// Writes on one Conn reach the socket in submission order.
func (c *Conn) WriteTo(p []byte, to unix.Sockaddr, done func(n int, err error)) {
	c.writes.push(func() {
		var (
			n     int
			opErr error
		)
		err := c.rc.Write(func(fd uintptr) bool {
			for {
				n, opErr = unix.SendmsgN(int(fd), p, nil, to, 0)
				if opErr != unix.EINTR {
					break
				}
			}
			return opErr != unix.EAGAIN
		})
		if err == nil {
			err = opErr
		}
		if err != nil {
			n = 0
			err = c.normalize(err)
		}

		c.complete("write", n, err, func() {
			done(n, err)
		})
	})
}

// Control runs fn with the raw descriptor, e.g. for setsockopt.
func (c *Conn) Control(fn func(fd uintptr)) error {
	if c.closed.Load() {
		return entity.ErrOperationAborted
	}
	return c.rc.Control(fn)
}

// Close closes the socket, pending operations complete with ErrOperationAborted.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if c.r.cfg.Tracing {
		c.r.log.Debug().Str("name", c.name).Msg("socket closed")
	}
	return c.file.Close()
}

func (c *Conn) normalize(err error) error {
	if c.closed.Load() || errors.Is(err, os.ErrClosed) {
		return entity.ErrOperationAborted
	}
	return err
}

func (c *Conn) complete(op string, n int, err error, fn func()) {
	if c.r.cfg.Tracing {
		ev := c.r.log.Debug().Str("name", c.name).Str("op", op).Int("size", n).Int("loop", c.loop.id)
		if err != nil {
			ev = ev.Err(err)
		}
		ev.Msg("completion")
	}

	if err := c.r.post(c.loop, fn); err != nil && c.r.cfg.Tracing {
		c.r.log.Debug().Str("name", c.name).Str("op", op).Msg("completion discarded, reactor stopped")
	}
}
