package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBufferPool(t *testing.T) {
	bp := NewBufferPool(4096)
	require.NotNil(t, bp)
	assert.Equal(t, 4096, bp.Size())
}

func TestBufferPool_Get(t *testing.T) {
	bp := NewBufferPool(1024)

	tests := []struct {
		name        string
		n           int
		expectedCap int
	}{
		{"empty", 0, 1024},
		{"partial", 100, 1024},
		{"exact", 1024, 1024},
		{"oversized", 2048, 2048},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := bp.Get(tt.n)
			assert.Equal(t, tt.n, len(buf))
			assert.Equal(t, tt.expectedCap, cap(buf))
			bp.Put(buf)
		})
	}
}

func TestBufferPool_PutIgnoresForeignBuffers(t *testing.T) {
	bp := NewBufferPool(64)

	bp.Put(make([]byte, 10))
	bp.Put(nil)

	buf := bp.Get(64)
	assert.Equal(t, 64, cap(buf))
}

func TestBufferPool_Reuse(t *testing.T) {
	bp := NewBufferPool(16)

	buf := bp.Get(4)
	copy(buf, "abcd")
	bp.Put(buf)

	again := bp.Get(16)
	assert.Len(t, again, 16)
}

func TestForSize(t *testing.T) {
	a := ForSize(512)
	b := ForSize(512)
	c := ForSize(1024)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 1024, c.Size())
}

func TestBufferPool_Concurrent(t *testing.T) {
	bp := NewBufferPool(256)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			buf := bp.Get(n % 256)
			for j := range buf {
				buf[j] = byte(n)
			}
			bp.Put(buf)
		}(i)
	}
	wg.Wait()
}

func BenchmarkBufferPool_Get(b *testing.B) {
	bp := NewBufferPool(1 << 20)
	for i := 0; i < b.N; i++ {
		buf := bp.Get(1 << 20)
		bp.Put(buf)
	}
}
