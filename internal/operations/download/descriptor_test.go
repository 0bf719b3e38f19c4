package download

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

func TestDescriptorCache_Reuse(t *testing.T) {
	var calls atomic.Int32
	remote := &testutil.MockRemote{
		GetFetchDescriptorFunc: func(_ context.Context, fileID string) (*transfertypes.FetchDescriptor, error) {
			n := calls.Add(1)
			time.Sleep(5 * time.Millisecond)
			return &transfertypes.FetchDescriptor{URL: fmt.Sprintf("mock://%s/%d", fileID, n)}, nil
		},
	}
	cache := newDescriptorCache(remote, "file-1", time.Minute, time.Now)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := cache.Get(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "mock://file-1/1", d.URL)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestDescriptorCache_RefreshBeforeExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	var calls int
	remote := &testutil.MockRemote{
		GetFetchDescriptorFunc: func(context.Context, string) (*transfertypes.FetchDescriptor, error) {
			calls++
			return &transfertypes.FetchDescriptor{
				URL:     fmt.Sprintf("mock://%d", calls),
				Headers: http.Header{},
				Expires: now.Add(time.Minute),
			}, nil
		},
	}
	clock := now
	cache := newDescriptorCache(remote, "file-1", 10*time.Second, func() time.Time { return clock })

	d, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "mock://1", d.URL)

	clock = now.Add(40 * time.Second)
	d, err = cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "mock://1", d.URL)

	clock = now.Add(55 * time.Second)
	d, err = cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "mock://2", d.URL)
}

func TestDescriptorCache_Errors(t *testing.T) {
	tests := []struct {
		name string
		fn   func(context.Context, string) (*transfertypes.FetchDescriptor, error)
	}{
		{"remote error", func(context.Context, string) (*transfertypes.FetchDescriptor, error) {
			return nil, fmt.Errorf("boom")
		}},
		{"empty descriptor", func(context.Context, string) (*transfertypes.FetchDescriptor, error) {
			return &transfertypes.FetchDescriptor{}, nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := newDescriptorCache(&testutil.MockRemote{GetFetchDescriptorFunc: tt.fn}, "file-1", time.Minute, time.Now)
			_, err := cache.Get(context.Background())
			assert.True(t, errors.IsTransfer(err))
		})
	}
}
