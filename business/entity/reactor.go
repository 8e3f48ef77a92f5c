//go:build unix

package entity

import (
	"golang.org/x/sys/unix"
)

// Reactor asynchronous I/O facility a raw socket is driven by
type Reactor interface {
	Register(fd int, name string) (ReactorConn, error)
}

// ReactorConn registered socket. Operations return immediately, done runs
// later on the reactor. Completions of one socket never run concurrently.
type ReactorConn interface {
	ReadFrom(p []byte, done func(n int, from unix.Sockaddr, err error))
	WriteTo(p []byte, to unix.Sockaddr, done func(n int, err error))
	Control(fn func(fd uintptr)) error
	Close() error
}
