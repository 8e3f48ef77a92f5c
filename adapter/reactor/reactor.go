//go:build linux

// Package reactor drives non-blocking sockets through the runtime network
// poller and dispatches their completions on a fixed set of loops.
package reactor

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/forest33/rawlink/business/entity"
	"github.com/forest33/rawlink/pkg/logger"
)

const (
	defaultLoops     = 1
	defaultQueueSize = 1024
)

type Config struct {
	Loops     int
	QueueSize int
	Tracing   bool
}

type Reactor struct {
	cfg      *Config
	log      *logger.Logger
	loops    []*loop
	next     atomic.Uint32
	running  atomic.Bool
	stop     chan struct{}
	stopOnce sync.Once
}

type loop struct {
	id    int
	queue chan func()
}

func New(cfg *Config, log *logger.Logger) *Reactor {
	if cfg.Loops <= 0 {
		cfg.Loops = defaultLoops
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}

	r := &Reactor{
		cfg:   cfg,
		log:   log.Duplicate(log.With().Str("layer", "reactor").Logger()),
		loops: make([]*loop, cfg.Loops),
		stop:  make(chan struct{}),
	}
	for i := range r.loops {
		r.loops[i] = &loop{id: i, queue: make(chan func(), cfg.QueueSize)}
	}

	return r
}

// Run dispatches completions until ctx is done or Stop is called.
func (r *Reactor) Run(ctx context.Context) error {
	select {
	case <-r.stop:
		return entity.ErrReactorStopped
	default:
	}
	if !r.running.CompareAndSwap(false, true) {
		return entity.ErrReactorRunning
	}
	defer r.running.Store(false)

	r.log.Info().Int("loops", len(r.loops)).Msg("reactor started")

	wg := sync.WaitGroup{}
	for _, l := range r.loops {
		wg.Add(1)
		go func(l *loop) {
			defer wg.Done()
			r.dispatch(ctx, l)
		}(l)
	}
	wg.Wait()

	r.log.Info().Msg("reactor stopped")

	return ctx.Err()
}

func (r *Reactor) dispatch(ctx context.Context, l *loop) {
	for {
		select {
		case fn := <-l.queue:
			fn()
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		}
	}
}

// Stop makes Run return. Completions posted afterwards are discarded.
func (r *Reactor) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
}

// Post queues fn to run on one of the loops.
func (r *Reactor) Post(fn func()) error {
	return r.post(r.pick(), fn)
}

func (r *Reactor) pick() *loop {
	return r.loops[int(r.next.Add(1)-1)%len(r.loops)]
}

func (r *Reactor) post(l *loop, fn func()) error {
	select {
	case <-r.stop:
		return entity.ErrReactorStopped
	default:
	}

	select {
	case l.queue <- fn:
		return nil
	case <-r.stop:
		return entity.ErrReactorStopped
	}
}
