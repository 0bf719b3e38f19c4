package transfer

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/checksum"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

func newTestClient(t *testing.T, fsys afero.Fs, opts ...transfertypes.Option) (*Client, *testutil.MemoryRemote) {
	t.Helper()
	remote := testutil.NewMemoryRemote()
	opts = append([]transfertypes.Option{WithFilesystem(fsys), WithMinPartSize(1024)}, opts...)
	client, err := New(remote, opts...)
	require.NoError(t, err)
	return client, remote
}

func TestClient_RoundTrip(t *testing.T) {
	const ps = 1024
	sizes := []int{0, 1, ps - 1, ps, ps + 1, 10 * ps}

	for _, mmap := range []bool{true, false} {
		for _, size := range sizes {
			t.Run(fmt.Sprintf("mmap=%v/%d", mmap, size), func(t *testing.T) {
				fsys := afero.NewOsFs()
				dir := t.TempDir()
				src := filepath.Join(dir, "src.bin")
				dst := filepath.Join(dir, "dst.bin")
				data := testutil.GenerateRandomData(size)
				require.NoError(t, afero.WriteFile(fsys, src, data, 0o644))

				client, remote := newTestClient(t, fsys)
				file, err := client.UploadFile(context.Background(), src,
					WithMemoryMap(mmap), WithWaitOnClose(true))
				require.NoError(t, err)
				assert.Equal(t, transfertypes.StateClosed, file.State)
				assert.Equal(t, data, remote.Content(file.ID))

				res, err := client.Download(context.Background(), file.ID, dst, WithDownloadWorkers(4))
				require.NoError(t, err)
				assert.Equal(t, int64(size), res.Size)

				got, err := afero.ReadFile(fsys, dst)
				require.NoError(t, err)
				assert.True(t, bytes.Equal(data, got))
			})
		}
	}
}

func TestClient_UploadBytesAndStream(t *testing.T) {
	client, remote := newTestClient(t, afero.NewMemMapFs())

	file, err := client.UploadBytes(context.Background(), []byte("hello world"), WithName("greeting.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(remote.Content(file.ID)))
	assert.Equal(t, "greeting.txt", file.Name)
	assert.Equal(t, "text/plain; charset=utf-8", file.MediaType)

	stream := &testutil.SlowReader{R: strings.NewReader(strings.Repeat("x", 3000)), Chunk: 7}
	file, err = client.Upload(context.Background(), stream, WithMediaType("application/x-log"))
	require.NoError(t, err)
	assert.Equal(t, []int{1024, 1024, 952}, remote.PartSizes(file.ID))
	assert.Equal(t, "application/x-log", file.MediaType)

	data := testutil.GenerateRandomReader(2500)
	file, err = client.Upload(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, []int{1024, 1024, 452}, remote.PartSizes(file.ID))
	assert.Equal(t, int64(2500), file.Size)
}

func TestClient_DownloadShowProgress(t *testing.T) {
	var out bytes.Buffer
	fsys := afero.NewMemMapFs()
	client, remote := newTestClient(t, fsys, WithProgressOutput(&out))
	id := remote.Put("p.bin", make([]byte, 1000), make([]byte, 500))
	tracker := &testutil.MockProgressTracker{}

	_, err := client.Download(context.Background(), id, "/out.bin",
		WithShowProgress(true), WithDownloadProgress(tracker))
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Downloaded 1,500 of 1,500 bytes (100%) /out.bin")
	assert.True(t, strings.HasSuffix(out.String(), "\n"))
	assert.True(t, tracker.CompleteCalled)
}

func TestClient_DownloadResume(t *testing.T) {
	fsys := afero.NewMemMapFs()
	reg := prometheus.NewRegistry()
	client, remote := newTestClient(t, fsys, WithMetrics(reg))
	parts := testutil.NewTestDataGenerator(1).GenerateParts(1000, 500)
	id := remote.Put("r.bin", parts...)
	require.NoError(t, afero.WriteFile(fsys, "/r.bin", parts[0], 0o644))

	res, err := client.Download(context.Background(), id, "/r.bin")
	require.NoError(t, err)
	assert.Equal(t, 1, res.PartsResumed)
	assert.Equal(t, int64(500), res.BytesFetched)

	fetches := remote.Fetches()
	require.Len(t, fetches, 1)
	assert.Equal(t, "bytes=1000-1499", fetches[0].Range)

	assert.InDelta(t, 1, counterValue(t, reg, "transfer_resumed_parts_total"), 0)
	assert.InDelta(t, 500, counterValue(t, reg, "transfer_bytes_total"), 0)
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		var sum float64
		for _, m := range f.GetMetric() {
			sum += m.GetCounter().GetValue()
		}
		return sum
	}
	t.Fatalf("metric %s not gathered", name)
	return 0
}

func TestClient_ChecksumAlgorithm(t *testing.T) {
	remote := &testutil.MockRemote{
		GetManifestFunc: func(context.Context, string) (*transfertypes.ManifestInfo, error) {
			sum, _ := checksum.Sum(transfertypes.ChecksumXXH64, []byte("payload"))
			return &transfertypes.ManifestInfo{
				Parts: map[string]transfertypes.PartInfo{"1": {Size: 7, Checksum: sum}},
			}, nil
		},
		FetchRangeFunc: func(context.Context, string, http.Header) ([]byte, error) {
			return []byte("payload"), nil
		},
	}
	fsys := afero.NewMemMapFs()

	client, err := New(remote, WithFilesystem(fsys), WithChecksum(transfertypes.ChecksumXXH64))
	require.NoError(t, err)
	_, err = client.Download(context.Background(), "file-1", "/x.bin")
	require.NoError(t, err)

	client, err = New(remote, WithFilesystem(fsys))
	require.NoError(t, err)
	_, err = client.Download(context.Background(), "file-1", "/y.bin")
	assert.True(t, errors.IsChecksumMismatch(err))
}

func TestClient_InvalidInput(t *testing.T) {
	client, _ := newTestClient(t, afero.NewMemMapFs())
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{"empty file id", func() error {
			_, err := client.Download(ctx, "", "/out")
			return err
		}},
		{"traversal file id", func() error {
			_, err := client.Download(ctx, "../x", "/out")
			return err
		}},
		{"empty path", func() error {
			_, err := client.Download(ctx, "file-1", "")
			return err
		}},
		{"upload empty path", func() error {
			_, err := client.UploadFile(ctx, "")
			return err
		}},
		{"nil reader", func() error {
			_, err := client.Upload(ctx, nil)
			return err
		}},
		{"bad media type", func() error {
			_, err := client.UploadBytes(ctx, []byte("x"), WithMediaType("not a type"))
			return err
		}},
		{"closed target", func() error {
			_, err := client.UploadBytes(ctx, []byte("x"),
				WithTarget(&transfertypes.RemoteFile{ID: "file-1", State: transfertypes.StateClosed}))
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.True(t, errors.IsInvalidInput(err), "got %v", err)
		})
	}
}

func TestClient_AppendToOpenFile(t *testing.T) {
	client, remote := newTestClient(t, afero.NewMemMapFs())
	ctx := context.Background()

	file, err := client.UploadBytes(ctx, []byte("first,"), WithKeepOpen(true))
	require.NoError(t, err)
	assert.Equal(t, transfertypes.StateOpen, file.State)

	file, err = client.UploadBytes(ctx, []byte("second"), WithTarget(file))
	require.NoError(t, err)
	assert.Equal(t, transfertypes.StateClosing, file.State)
	assert.Equal(t, "first,second", string(remote.Content(file.ID)))
}
