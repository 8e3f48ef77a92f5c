package usecase

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/forest33/rawlink/business/entity"
	"github.com/forest33/rawlink/pkg/config"
	"github.com/forest33/rawlink/pkg/logger"
)

type listenerFixture struct {
	uc      *ListenerUseCase
	srv     *mockRawServer
	dumper  *mockDumper
	decoder *mockDecoder
	metrics *mockMetrics
}

func newListenerFixture(t *testing.T) *listenerFixture {
	t.Helper()

	cfg := &entity.ListenerConfig{}
	require.NoError(t, config.Parse(cfg))
	cfg.Capture.Interface = "lo"
	cfg.Tracing.Frames = true

	f := &listenerFixture{
		srv:     &mockRawServer{buf: make([]byte, 1500)},
		dumper:  &mockDumper{},
		decoder: &mockDecoder{},
		metrics: &mockMetrics{},
	}

	uc, err := NewListenerUseCase(context.Background(), logger.NewNop(), cfg, nil, f.decoder, f.dumper, f.metrics)
	require.NoError(t, err)
	uc.SetServer(f.srv)
	require.NoError(t, uc.Start())
	require.Equal(t, 1, f.srv.receiveCount())

	f.uc = uc
	return f
}

func (f *listenerFixture) put(frame []byte) int {
	return copy(f.srv.buf, frame)
}

func ethernetFrame(payload string) []byte {
	frame := []byte{
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0x02, 0x00, 0x00, 0x00, 0x00, 0x01,
		0x88, 0xb5,
	}
	return append(frame, payload...)
}

func TestStartWithoutServer(t *testing.T) {
	cfg := &entity.ListenerConfig{}
	require.NoError(t, config.Parse(cfg))

	uc, err := NewListenerUseCase(context.Background(), logger.NewNop(), cfg, nil, &mockDecoder{}, nil, nil)
	require.NoError(t, err)
	require.ErrorIs(t, uc.Start(), entity.ErrServerNotSet)
	require.ErrorIs(t, uc.Send(ethernetFrame("")), entity.ErrServerNotSet)
}

func TestStartInvalidConfig(t *testing.T) {
	cfg := &entity.ListenerConfig{}
	require.NoError(t, config.Parse(cfg))
	cfg.Capture.SendPolicy = "flood"

	uc, err := NewListenerUseCase(context.Background(), logger.NewNop(), cfg, nil, &mockDecoder{}, nil, nil)
	require.NoError(t, err)
	uc.SetServer(&mockRawServer{})
	require.ErrorIs(t, uc.Start(), entity.ErrValidation)
}

func TestHandleReceive(t *testing.T) {
	f := newListenerFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := f.uc.Subscribe(ctx)

	frame := ethernetFrame("hello")
	f.uc.HandleReceive(nil, f.put(frame))

	require.Equal(t, 2, f.srv.receiveCount())
	require.Equal(t, 1, f.decoder.calls)
	require.Len(t, f.dumper.frames, 1)
	require.Equal(t, frame, f.dumper.frames[0].data)
	require.Equal(t, 1, f.metrics.received)

	var got []byte
	select {
	case got = <-sub:
		require.Equal(t, frame, got)
	case <-time.After(time.Second):
		t.Fatal("frame not published")
	}

	// the published copy does not alias the receive buffer
	f.put(ethernetFrame("other"))
	require.Equal(t, frame, got)

	stat := f.uc.GetStatistic()
	require.Equal(t, uint64(1), stat.ReceivedFrames)
	require.Equal(t, uint64(len(frame)), stat.ReceivedBytes)
	require.Equal(t, "lo", stat.Interface)
	require.NotEmpty(t, stat.InstanceID)
}

func TestHandleReceiveTruncated(t *testing.T) {
	f := newListenerFixture(t)

	f.uc.HandleReceive(entity.ErrMessageTruncated, f.put(ethernetFrame("truncated")))

	stat := f.uc.GetStatistic()
	require.Equal(t, uint64(1), stat.TruncatedFrames)
	require.Equal(t, uint64(1), stat.ReceivedFrames)
	require.Equal(t, uint64(0), stat.ReceiveErrors)
	require.Equal(t, 1, f.metrics.truncated)
	require.Len(t, f.dumper.frames, 1)
	require.Equal(t, 2, f.srv.receiveCount())
}

func TestHandleReceiveShortFrame(t *testing.T) {
	f := newListenerFixture(t)

	f.uc.HandleReceive(nil, f.put([]byte{0x01, 0x02}))

	stat := f.uc.GetStatistic()
	require.Equal(t, uint64(1), stat.ShortFrames)
	require.Equal(t, uint64(0), stat.ReceivedFrames)
	require.Empty(t, f.dumper.frames)
	require.Equal(t, 2, f.srv.receiveCount())
}

func TestHandleReceiveError(t *testing.T) {
	f := newListenerFixture(t)

	f.uc.HandleReceive(syscall.ENETDOWN, 0)

	require.Equal(t, uint64(1), f.uc.GetStatistic().ReceiveErrors)
	require.Equal(t, 1, f.metrics.receiveErrors)
	require.Eventually(t, func() bool {
		return f.srv.receiveCount() == 2
	}, time.Second, 10*time.Millisecond)
}

func TestHandleReceiveAborted(t *testing.T) {
	f := newListenerFixture(t)

	f.uc.HandleReceive(entity.ErrOperationAborted, 0)

	require.Equal(t, uint64(0), f.uc.GetStatistic().ReceiveErrors)
	time.Sleep(2 * receiveErrorDelay)
	require.Equal(t, 1, f.srv.receiveCount())
}

func TestSendAndHandleSend(t *testing.T) {
	f := newListenerFixture(t)

	frame := ethernetFrame("out")
	require.NoError(t, f.uc.Send(frame))
	require.ErrorIs(t, f.uc.Send([]byte{0x01}), entity.ErrFrameTooShort)
	require.Len(t, f.srv.sent, 1)

	f.uc.HandleSend(nil, len(frame))
	f.uc.HandleSend(syscall.ENOBUFS, 0)

	stat := f.uc.GetStatistic()
	require.Equal(t, uint64(1), stat.SentFrames)
	require.Equal(t, uint64(len(frame)), stat.SentBytes)
	require.Equal(t, uint64(1), stat.SendErrors)
	require.Equal(t, 1, f.metrics.sent)
	require.Equal(t, 1, f.metrics.sendErrors)
}

func TestSubscribeCancel(t *testing.T) {
	f := newListenerFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	sub := f.uc.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-sub:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed")
	}
}

func TestStop(t *testing.T) {
	f := newListenerFixture(t)
	sub := f.uc.Subscribe(context.Background())

	require.NoError(t, f.uc.Stop())
	require.NoError(t, f.uc.Stop())
	require.True(t, f.srv.closed)
	require.True(t, f.dumper.closed)

	_, ok := <-sub
	require.False(t, ok)

	_, ok = <-f.uc.Subscribe(context.Background())
	require.False(t, ok)

	// completion of the receive pending at close time
	f.uc.HandleReceive(entity.ErrOperationAborted, 0)
	require.Equal(t, 1, f.srv.receiveCount())
	require.ErrorIs(t, f.uc.Send(ethernetFrame("")), entity.ErrServerClosed)
}

func requireDone(t *testing.T, uc *ListenerUseCase) {
	t.Helper()
	select {
	case <-uc.Done():
	case <-time.After(time.Second):
		t.Fatal("listener not done")
	}
}

func TestStopWaitsForAbortedReceive(t *testing.T) {
	f := newListenerFixture(t)

	require.NoError(t, f.uc.Stop())
	select {
	case <-f.uc.Done():
		t.Fatal("done before the pending receive completed")
	default:
	}

	f.uc.HandleReceive(entity.ErrOperationAborted, 0)
	requireDone(t, f.uc)
}

func TestStopWithoutArmedReceive(t *testing.T) {
	f := newListenerFixture(t)

	f.uc.HandleReceive(syscall.ENETDOWN, 0)
	require.NoError(t, f.uc.Stop())
	requireDone(t, f.uc)

	time.Sleep(2 * receiveErrorDelay)
	require.Equal(t, 1, f.srv.receiveCount())
}

func TestStopReleasesSubscribers(t *testing.T) {
	f := newListenerFixture(t)
	for i := 0; i < 3; i++ {
		f.uc.Subscribe(context.Background())
	}

	stopped := make(chan error, 1)
	go func() {
		stopped <- f.uc.Stop()
	}()

	select {
	case err := <-stopped:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("subscriber goroutines still running")
	}
}

func TestReceiveRearmDispatched(t *testing.T) {
	f := newListenerFixture(t)
	d := &mockDispatcher{}
	f.uc.SetDispatcher(d)

	f.uc.HandleReceive(syscall.ENETDOWN, 0)

	require.Eventually(t, func() bool {
		return d.postCount() == 1 && f.srv.receiveCount() == 2
	}, time.Second, 10*time.Millisecond)
}

func TestReceiveRearmDispatcherStopped(t *testing.T) {
	f := newListenerFixture(t)
	d := &mockDispatcher{err: entity.ErrReactorStopped}
	f.uc.SetDispatcher(d)

	f.uc.HandleReceive(syscall.ENETDOWN, 0)

	requireDone(t, f.uc)
	require.Equal(t, 1, d.postCount())
	require.Equal(t, 1, f.srv.receiveCount())
}
