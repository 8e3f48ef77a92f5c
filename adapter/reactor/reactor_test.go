//go:build linux

package reactor

import (
	"bytes"
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/forest33/rawlink/business/entity"
	"github.com/forest33/rawlink/pkg/logger"
)

const testTimeout = 5 * time.Second

type readResult struct {
	n   int
	err error
}

func startReactor(t *testing.T, loops int) *Reactor {
	t.Helper()

	r := New(&Config{Loops: loops, Tracing: true}, logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return r
}

func socketPair(t *testing.T, r *Reactor) (entity.ReactorConn, entity.ReactorConn) {
	t.Helper()

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_DGRAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	require.NoError(t, err)

	a, err := r.Register(fds[0], "a")
	require.NoError(t, err)
	b, err := r.Register(fds[1], "b")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = a.Close()
		_ = b.Close()
	})

	return a, b
}

func TestReadWrite(t *testing.T) {
	r := startReactor(t, 2)
	a, b := socketPair(t, r)

	buf := make([]byte, 64)
	read := make(chan readResult, 1)
	b.ReadFrom(buf, func(n int, _ unix.Sockaddr, err error) {
		read <- readResult{n: n, err: err}
	})

	payload := []byte("link-layer frame")
	written := make(chan readResult, 1)
	a.WriteTo(payload, nil, func(n int, err error) {
		written <- readResult{n: n, err: err}
	})

	select {
	case res := <-written:
		require.NoError(t, res.err)
		require.Equal(t, len(payload), res.n)
	case <-time.After(testTimeout):
		t.Fatal("write completion timeout")
	}

	select {
	case res := <-read:
		require.NoError(t, res.err)
		require.Equal(t, len(payload), res.n)
		require.True(t, bytes.Equal(payload, buf[:res.n]))
	case <-time.After(testTimeout):
		t.Fatal("read completion timeout")
	}
}

func TestReadTruncated(t *testing.T) {
	r := startReactor(t, 1)
	a, b := socketPair(t, r)

	a.WriteTo(bytes.Repeat([]byte{0xAA}, 32), nil, func(int, error) {})

	buf := make([]byte, 8)
	read := make(chan readResult, 1)
	b.ReadFrom(buf, func(n int, _ unix.Sockaddr, err error) {
		read <- readResult{n: n, err: err}
	})

	select {
	case res := <-read:
		require.ErrorIs(t, res.err, entity.ErrMessageTruncated)
		require.True(t, entity.IsMessageTruncated(res.err))
		require.Equal(t, len(buf), res.n)
	case <-time.After(testTimeout):
		t.Fatal("read completion timeout")
	}
}

func TestCloseAbortsPendingRead(t *testing.T) {
	r := startReactor(t, 1)
	_, b := socketPair(t, r)

	read := make(chan readResult, 1)
	b.ReadFrom(make([]byte, 16), func(n int, _ unix.Sockaddr, err error) {
		read <- readResult{n: n, err: err}
	})

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	select {
	case res := <-read:
		require.ErrorIs(t, res.err, entity.ErrOperationAborted)
		require.Equal(t, 0, res.n)
	case <-time.After(testTimeout):
		t.Fatal("aborted read was not completed")
	}

	require.ErrorIs(t, b.Control(func(uintptr) {}), entity.ErrOperationAborted)
}

func TestWritesKeepOrder(t *testing.T) {
	const count = 32

	r := startReactor(t, 2)
	a, b := socketPair(t, r)

	completed := make(chan int, count)
	for i := 0; i < count; i++ {
		i := i
		a.WriteTo([]byte{byte(i)}, nil, func(_ int, err error) {
			require.NoError(t, err)
			completed <- i
		})
	}

	read := make(chan byte, count)
	for i := 0; i < count; i++ {
		buf := make([]byte, 8)
		b.ReadFrom(buf, func(n int, _ unix.Sockaddr, err error) {
			require.NoError(t, err)
			require.Equal(t, 1, n)
			read <- buf[0]
		})
	}

	for i := 0; i < count; i++ {
		select {
		case v := <-read:
			require.Equal(t, byte(i), v)
		case <-time.After(testTimeout):
			t.Fatal("read completion timeout")
		}
	}
	for i := 0; i < count; i++ {
		require.Equal(t, i, <-completed)
	}
}

func TestCompletionsSerializedPerSocket(t *testing.T) {
	const count = 64

	r := startReactor(t, 4)
	a, _ := socketPair(t, r)

	var (
		inFlight atomic.Int32
		overlap  atomic.Bool
		done     = make(chan struct{}, count)
	)
	for i := 0; i < count; i++ {
		a.WriteTo([]byte{byte(i)}, nil, func(int, error) {
			if inFlight.Add(1) > 1 {
				overlap.Store(true)
			}
			time.Sleep(time.Millisecond)
			inFlight.Add(-1)
			done <- struct{}{}
		})
	}

	for i := 0; i < count; i++ {
		select {
		case <-done:
		case <-time.After(testTimeout):
			t.Fatal("write completion timeout")
		}
	}
	require.False(t, overlap.Load())
}

func TestRunTwice(t *testing.T) {
	r := startReactor(t, 1)

	ran := make(chan struct{})
	require.NoError(t, r.Post(func() { close(ran) }))
	<-ran

	require.ErrorIs(t, r.Run(context.Background()), entity.ErrReactorRunning)
}

func TestStop(t *testing.T) {
	r := New(&Config{}, logger.NewNop())

	ran := make(chan struct{})
	require.NoError(t, r.Post(func() { close(ran) }))

	res := make(chan error, 1)
	go func() {
		res <- r.Run(context.Background())
	}()
	<-ran

	r.Stop()
	select {
	case err := <-res:
		require.NoError(t, err)
	case <-time.After(testTimeout):
		t.Fatal("Run did not return after Stop")
	}

	require.ErrorIs(t, r.Post(func() {}), entity.ErrReactorStopped)
	require.ErrorIs(t, r.Run(context.Background()), entity.ErrReactorStopped)
}
