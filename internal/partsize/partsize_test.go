package partsize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
)

func TestCalculate(t *testing.T) {
	const minSize = 10000

	tests := []struct {
		name string
		req  Request
		want int64
	}{
		{
			name: "zero size uses minimum",
			req:  Request{TotalSize: 0, MinPartSize: minSize, MaxParts: MaxParts},
			want: minSize,
		},
		{
			name: "small object uses minimum",
			req:  Request{TotalSize: 25000, MinPartSize: minSize, MaxParts: MaxParts},
			want: minSize,
		},
		{
			name: "exactly max parts at minimum",
			req:  Request{TotalSize: MaxParts * minSize, MinPartSize: minSize, MaxParts: MaxParts},
			want: minSize,
		},
		{
			name: "one byte over grows the part",
			req:  Request{TotalSize: MaxParts*minSize + 1, MinPartSize: minSize, MaxParts: MaxParts},
			want: minSize + 1,
		},
		{
			name: "aligned rounds up to granularity",
			req: Request{
				TotalSize:   MaxParts*minSize + 1,
				MinPartSize: minSize,
				MaxParts:    MaxParts,
				Aligned:     true,
				Granularity: 4096,
			},
			want: 12288,
		},
		{
			name: "aligned minimum",
			req:  Request{TotalSize: 0, MinPartSize: minSize, MaxParts: MaxParts, Aligned: true, Granularity: 4096},
			want: 12288,
		},
		{
			name: "already aligned stays",
			req:  Request{TotalSize: 100, MinPartSize: 8192, MaxParts: MaxParts, Aligned: true, Granularity: 4096},
			want: 8192,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Calculate(tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			assert.GreaterOrEqual(t, got, tt.req.MinPartSize)
			assert.LessOrEqual(t, Count(tt.req.TotalSize, got), tt.req.MaxParts)
			if tt.req.Aligned {
				assert.Zero(t, got%tt.req.Granularity)
			}
		})
	}
}

func TestCalculate_LargeObjects(t *testing.T) {
	sizes := []int64{1 << 30, 5 << 40, 1<<40 + 7}
	for _, size := range sizes {
		got, err := Calculate(Request{TotalSize: size, MinPartSize: DefaultMinPartSize, MaxParts: MaxParts})
		require.NoError(t, err)
		assert.LessOrEqual(t, Count(size, got), MaxParts)
		assert.GreaterOrEqual(t, got, int64(DefaultMinPartSize))
	}
}

func TestCalculate_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"negative size", Request{TotalSize: -1, MinPartSize: 1, MaxParts: 1}},
		{"zero minimum", Request{TotalSize: 1, MinPartSize: 0, MaxParts: 1}},
		{"zero max parts", Request{TotalSize: 1, MinPartSize: 1, MaxParts: 0}},
		{"aligned without granularity", Request{TotalSize: 1, MinPartSize: 1, MaxParts: 1, Aligned: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Calculate(tt.req)
			require.Error(t, err)
			assert.True(t, errors.IsConfiguration(err))
		})
	}
}

func TestCount(t *testing.T) {
	assert.Equal(t, 0, Count(0, 10))
	assert.Equal(t, 1, Count(1, 10))
	assert.Equal(t, 1, Count(10, 10))
	assert.Equal(t, 2, Count(11, 10))
	assert.Equal(t, 3, Count(25000, 10000))
}
