// Package usecase provides business logic.
package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/forest33/rawlink/business/entity"
	"github.com/forest33/rawlink/pkg/logger"
)

const (
	subscriberQueueSize = 64
	receiveErrorDelay   = 100 * time.Millisecond
)

// ListenerUseCase asynchronous Ethernet listener. It handles raw server
// completions and keeps one receive armed until stopped.
type ListenerUseCase struct {
	ctx           context.Context
	log           *logger.Logger
	cfg           *entity.ListenerConfig
	cfgHandler    configHandler
	srv           entity.RawServer
	dispatcher    dispatcher
	decoder       entity.FrameDecoder
	dumper        entity.FrameDumper
	metrics       entity.MetricsRecorder
	counters      entity.Counters
	instanceID    string
	startedAt     time.Time
	subscribers   map[uint64]chan []byte
	subscriberID  uint64
	subMux        sync.RWMutex
	subWG         sync.WaitGroup
	tracingFrames atomic.Bool
	armed         atomic.Bool
	stopped       atomic.Bool
	stop          chan struct{}
	done          chan struct{}
	doneOnce      sync.Once
}

// NewListenerUseCase creates a new ListenerUseCase. dumper and metrics may be nil.
func NewListenerUseCase(ctx context.Context, log *logger.Logger, cfg *entity.ListenerConfig, cfgHandler configHandler,
	decoder entity.FrameDecoder, dumper entity.FrameDumper, metrics entity.MetricsRecorder) (*ListenerUseCase, error) {
	if decoder == nil {
		return nil, errors.New("frame decoder is not set")
	}

	uc := &ListenerUseCase{
		ctx:         ctx,
		log:         log.Duplicate(log.With().Str("layer", "uclst").Logger()),
		cfg:         cfg,
		cfgHandler:  cfgHandler,
		decoder:     decoder,
		dumper:      dumper,
		metrics:     metrics,
		instanceID:  uuid.New().String(),
		subscribers: make(map[uint64]chan []byte),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	uc.tracingFrames.Store(cfg.Tracing != nil && cfg.Tracing.Frames)

	return uc, nil
}

// SetServer sets the raw server whose completions are delivered to uc.
func (uc *ListenerUseCase) SetServer(srv entity.RawServer) {
	uc.srv = srv
}

// SetDispatcher sets where delayed receive re-arms run. Without one they run
// on the timer goroutine.
func (uc *ListenerUseCase) SetDispatcher(d dispatcher) {
	uc.dispatcher = d
}

// Done is closed once no receive remains armed after the listener or the
// dispatcher stops.
func (uc *ListenerUseCase) Done() <-chan struct{} {
	return uc.done
}

func (uc *ListenerUseCase) Start() error {
	if err := uc.cfg.Validate(); err != nil {
		return errors.Join(entity.ErrValidation, err)
	}
	if uc.srv == nil {
		return entity.ErrServerNotSet
	}

	if uc.cfgHandler != nil {
		if err := uc.cfgHandler.AddObserver(uc.onConfigChanged); err != nil {
			uc.log.Error().Err(err).Msg("failed to create config file observer")
		}
	}

	uc.startedAt = time.Now()
	uc.armed.Store(true)
	if err := uc.srv.AsyncReceive(); err != nil {
		uc.armed.Store(false)
		return err
	}

	uc.log.Info().
		Str("instance_id", uc.instanceID).
		Str("interface", uc.cfg.Capture.Interface).
		Str("endpoint", uc.srv.Endpoint().String()).
		Str("send_policy", string(uc.cfg.Capture.SendPolicyValue())).
		Msg("listener started")

	return nil
}

// HandleReceive processes the frame in the server's buffer and re-arms the receive.
func (uc *ListenerUseCase) HandleReceive(err error, n int) {
	uc.armed.Store(false)

	truncated := entity.IsMessageTruncated(err)
	if err != nil && !truncated {
		uc.receiveError(err)
		return
	}

	if truncated {
		uc.counters.TruncatedFrames.Add(1)
	}

	if n < entity.EthernetHeaderSize {
		uc.counters.ShortFrames.Add(1)
		uc.receive()
		return
	}

	uc.counters.ReceivedFrames.Add(1)
	uc.counters.ReceivedBytes.Add(uint64(n))
	if uc.metrics != nil {
		uc.metrics.FrameReceived(n, truncated)
	}

	uc.process(uc.srv.Buffer()[:n], truncated)
	uc.receive()
}

func (uc *ListenerUseCase) HandleSend(err error, n int) {
	if err != nil {
		uc.counters.SendErrors.Add(1)
		if uc.metrics != nil {
			uc.metrics.SendError(err)
		}
		if !entity.IsOperationAborted(err) {
			uc.log.Error().Err(err).Msg("failed to send frame")
		}
		return
	}

	uc.counters.SentFrames.Add(1)
	uc.counters.SentBytes.Add(uint64(n))
	if uc.metrics != nil {
		uc.metrics.FrameSent(n)
	}
}

// Send transmits a raw Ethernet frame.
func (uc *ListenerUseCase) Send(frame []byte) error {
	if uc.srv == nil {
		return entity.ErrServerNotSet
	}
	return uc.srv.AsyncSend(frame)
}

func (uc *ListenerUseCase) GetStatistic() *entity.Statistic {
	endpoint := ""
	if uc.srv != nil {
		endpoint = uc.srv.Endpoint().String()
	}
	return uc.counters.Snapshot(uc.instanceID, uc.cfg.Capture.Interface, endpoint, uc.startedAt)
}

// Subscribe returns a channel of received frame copies, closed when ctx is
// done or the listener stops. Frames are dropped for slow subscribers.
func (uc *ListenerUseCase) Subscribe(ctx context.Context) <-chan []byte {
	ch := make(chan []byte, subscriberQueueSize)

	uc.subMux.Lock()
	if uc.stopped.Load() {
		uc.subMux.Unlock()
		close(ch)
		return ch
	}
	uc.subscriberID++
	id := uc.subscriberID
	uc.subscribers[id] = ch
	uc.subMux.Unlock()

	uc.subWG.Add(1)
	go func() {
		defer uc.subWG.Done()
		select {
		case <-ctx.Done():
		case <-uc.ctx.Done():
		case <-uc.stop:
		}
		uc.unsubscribe(id)
	}()

	return ch
}

func (uc *ListenerUseCase) unsubscribe(id uint64) {
	uc.subMux.Lock()
	defer uc.subMux.Unlock()

	if ch, ok := uc.subscribers[id]; ok {
		delete(uc.subscribers, id)
		close(ch)
	}
}

// Stop closes the raw server, pending operations complete with ErrOperationAborted.
func (uc *ListenerUseCase) Stop() error {
	if !uc.stopped.CompareAndSwap(false, true) {
		return nil
	}
	close(uc.stop)

	var errs []error
	if uc.srv != nil {
		if err := uc.srv.Close(); err != nil && !errors.Is(err, entity.ErrServerClosed) {
			errs = append(errs, err)
		}
	}
	if uc.dumper != nil {
		if err := uc.dumper.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	uc.subMux.Lock()
	for id, ch := range uc.subscribers {
		delete(uc.subscribers, id)
		close(ch)
	}
	uc.subMux.Unlock()
	uc.subWG.Wait()

	if !uc.armed.Load() {
		uc.finish()
	}

	stat := uc.GetStatistic()
	uc.log.Info().
		Uint64("received_frames", stat.ReceivedFrames).
		Uint64("sent_frames", stat.SentFrames).
		Msg("listener stopped")

	return errors.Join(errs...)
}

func (uc *ListenerUseCase) receive() {
	if uc.stopped.Load() {
		uc.finish()
		return
	}
	uc.armed.Store(true)
	if err := uc.srv.AsyncReceive(); err != nil {
		uc.armed.Store(false)
		if !errors.Is(err, entity.ErrServerClosed) {
			uc.log.Error().Err(err).Msg("failed to arm receive")
		}
		if uc.stopped.Load() {
			uc.finish()
		}
	}
}

// rearm schedules a receive after receiveErrorDelay.
func (uc *ListenerUseCase) rearm() {
	time.AfterFunc(receiveErrorDelay, func() {
		if uc.dispatcher == nil {
			uc.receive()
			return
		}
		if err := uc.dispatcher.Post(uc.receive); err != nil {
			uc.log.Debug().Err(err).Msg("receive not re-armed")
			uc.finish()
		}
	})
}

func (uc *ListenerUseCase) finish() {
	uc.doneOnce.Do(func() { close(uc.done) })
}

func (uc *ListenerUseCase) receiveError(err error) {
	if uc.stopped.Load() || entity.IsErrorInterruptingNetwork(err) {
		uc.log.Debug().Err(err).Msg("receive interrupted")
		if uc.stopped.Load() {
			uc.finish()
		}
		return
	}

	uc.counters.ReceiveErrors.Add(1)
	if uc.metrics != nil {
		uc.metrics.ReceiveError(err)
	}
	uc.log.Error().Err(err).Msg("failed to receive frame")

	uc.rearm()
}

func (uc *ListenerUseCase) process(frame []byte, truncated bool) {
	now := time.Now()

	if uc.tracingFrames.Load() {
		fi, err := uc.decoder.Decode(frame)
		if err != nil {
			uc.log.Error().Err(err).Msg("failed to decode frame")
		} else {
			fi.Truncated = truncated
			uc.frameLog(fi)
		}
	}

	if uc.dumper != nil {
		if err := uc.dumper.Dump(frame, len(frame), now); err != nil {
			uc.log.Error().Err(err).Msg("failed to dump frame")
		}
	}

	uc.publish(frame)
}

func (uc *ListenerUseCase) publish(frame []byte) {
	uc.subMux.RLock()
	defer uc.subMux.RUnlock()

	if len(uc.subscribers) == 0 {
		return
	}

	cp := make([]byte, len(frame))
	copy(cp, frame)

	for _, ch := range uc.subscribers {
		select {
		case ch <- cp:
		default:
		}
	}
}

func (uc *ListenerUseCase) frameLog(fi *entity.FrameInfo) {
	ev := uc.log.Info().
		Str("type", entity.EtherTypeName(fi.EtherType)).
		Str("dst", fi.Dst.String()).
		Str("src", fi.Src.String()).
		Int("size", fi.Length)

	if fi.Truncated {
		ev = ev.Bool("truncated", true)
	}
	if len(fi.VLAN) > 0 {
		ev = ev.Interface("vlan", fi.VLAN)
	}
	if fi.ARP != nil {
		ev = ev.Uint16("arp_op", fi.ARP.Operation).
			Str("arp_sender", fi.ARP.SenderIP.String()).
			Str("arp_target", fi.ARP.TargetIP.String())
	}
	if fi.IP != nil {
		ev = ev.Str("ip_src", fi.IP.Src).Str("ip_dst", fi.IP.Dst).Str("ip_proto", fi.IP.Protocol)
	}
	if fi.TCP != nil {
		ev = ev.Str("tcp_src", fi.TCP.Src).Str("tcp_dst", fi.TCP.Dst)
	}
	if fi.UDP != nil {
		ev = ev.Str("udp_src", fi.UDP.Src).Str("udp_dst", fi.UDP.Dst)
	}
	if fi.ICMP != nil {
		ev = ev.Str("icmp", fi.ICMP.Type)
	}

	ev.Msg("frame")
}

func (uc *ListenerUseCase) onConfigChanged(data interface{}) {
	cfg, ok := data.(*entity.ListenerConfig)
	if !ok {
		return
	}

	if cfg.Logger != nil && cfg.Logger.Level != uc.log.Level() {
		uc.log.SetLevel(cfg.Logger.Level)
		uc.log.Info().Str("level", cfg.Logger.Level).Msg("log level changed")
	}
	uc.tracingFrames.Store(cfg.Tracing != nil && cfg.Tracing.Frames)
}
