package pool

import (
	"sync"
)

// BufferPool manages reusable buffers of a single part size.
type BufferPool struct {
	size int
	pool *sync.Pool
}

// NewBufferPool creates a pool of buffers with capacity size.
func NewBufferPool(size int) *BufferPool {
	return &BufferPool{
		size: size,
		pool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, size)
				return &buf
			},
		},
	}
}

// Size returns the capacity of pooled buffers.
func (bp *BufferPool) Size() int {
	return bp.size
}

// Get returns a buffer of length n.
// Requests larger than the pool size allocate a new buffer that Put will discard.
// The caller is responsible for calling Put to return the buffer to the pool.
func (bp *BufferPool) Get(n int) []byte {
	if n > bp.size {
		return make([]byte, n)
	}
	bufPtr := bp.pool.Get().(*[]byte)
	return (*bufPtr)[:n]
}

// Put returns a buffer to the pool.
// The buffer should not be used after calling Put.
func (bp *BufferPool) Put(buf []byte) {
	if cap(buf) != bp.size {
		return
	}
	buf = buf[:bp.size]
	bp.pool.Put(&buf)
}

// Global pools keyed by part size.
var pools sync.Map

// ForSize returns the shared pool for part size size.
func ForSize(size int) *BufferPool {
	if bp, ok := pools.Load(size); ok {
		return bp.(*BufferPool)
	}
	bp, _ := pools.LoadOrStore(size, NewBufferPool(size))
	return bp.(*BufferPool)
}
