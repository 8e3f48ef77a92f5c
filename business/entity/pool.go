package entity

import (
	"sync"
)

// frames larger than this are not returned to the pool
const framePoolMaxSize = 64 * 1024

type framePool struct {
	pool sync.Pool
}

// FramePool reusable buffers for frames in flight
var FramePool = &framePool{
	pool: sync.Pool{
		New: func() interface{} {
			b := make([]byte, 0, 1514)
			return &b
		},
	},
}

// Get returns a buffer of length n
func (p *framePool) Get(n int) *[]byte {
	b := p.pool.Get().(*[]byte)
	if cap(*b) < n {
		*b = make([]byte, n)
	} else {
		*b = (*b)[:n]
	}
	return b
}

func (p *framePool) Put(b *[]byte) {
	if cap(*b) > framePoolMaxSize {
		return
	}
	*b = (*b)[:0]
	p.pool.Put(b)
}
