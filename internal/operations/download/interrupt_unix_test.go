//go:build unix

package download

import (
	"context"
	"net/http"
	"syscall"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/interrupt"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

func TestDownloadFile_ExitOnInterrupt(t *testing.T) {
	part := []byte("interrupted")
	exited := make(chan int, 1)
	remote := &testutil.MockRemote{
		GetManifestFunc: func(context.Context, string) (*transfertypes.ManifestInfo, error) {
			return testutil.NewTestDataGenerator(1).GenerateManifest([][]byte{part}), nil
		},
		FetchRangeFunc: func(context.Context, string, http.Header) ([]byte, error) {
			assert.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGINT))
			select {
			case <-exited:
				exited <- interrupt.ExitCode
			case <-time.After(5 * time.Second):
			}
			return part, nil
		},
	}

	d := New(remote, Config{Filesystem: afero.NewMemMapFs()})
	d.exit = func(code int) { exited <- code }

	_, err := d.DownloadFile(context.Background(), "file-x", dest,
		&transfertypes.DownloadOptionConfig{ExitOnInterrupt: true})
	require.NoError(t, err)

	select {
	case code := <-exited:
		assert.Equal(t, interrupt.ExitCode, code)
	default:
		t.Fatal("exit was not called")
	}
}
