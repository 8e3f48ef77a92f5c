//go:build linux

package reactor

import (
	"sync"
)

// opQueue runs submitted operations one at a time in submission order.
// A drain goroutine exists only while the queue is not empty.
type opQueue struct {
	ops      []func()
	draining bool
	sync.Mutex
}

func (q *opQueue) push(op func()) {
	q.Lock()
	q.ops = append(q.ops, op)
	if q.draining {
		q.Unlock()
		return
	}
	q.draining = true
	q.Unlock()

	go q.drain()
}

func (q *opQueue) drain() {
	for {
		q.Lock()
		if len(q.ops) == 0 {
			q.draining = false
			q.ops = nil
			q.Unlock()
			return
		}
		op := q.ops[0]
		q.ops[0] = nil
		q.ops = q.ops[1:]
		q.Unlock()

		op()
	}
}
