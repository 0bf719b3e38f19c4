package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/config"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

type harness struct {
	remote *testutil.MemoryRemote
	stdin  *bytes.Buffer
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newHarness() *harness {
	return &harness{
		remote: testutil.NewMemoryRemote(),
		stdin:  &bytes.Buffer{},
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
}

func (h *harness) run(t *testing.T, args ...string) error {
	t.Helper()
	h.stdout.Reset()
	h.stderr.Reset()

	a := newApp(h.stdin, h.stdout, h.stderr)
	a.newRemote = func(context.Context, *config.Config, *slog.Logger) (transfertypes.Remote, error) {
		return h.remote, nil
	}
	cmd := newRootCommand(a)
	cmd.SetArgs(args)
	cmd.SetOut(h.stdout)
	cmd.SetErr(h.stderr)
	return cmd.ExecuteContext(context.Background())
}

func TestUploadThenDownload(t *testing.T) {
	dir := t.TempDir()
	data := testutil.GenerateRandomData(5000)
	src := filepath.Join(dir, "payload.bin")
	require.NoError(t, os.WriteFile(src, data, 0o600))

	h := newHarness()
	require.NoError(t, h.run(t, "upload", "--part-size", "2KiB", "--no-mmap", "--progress", src))

	fileID := strings.TrimSpace(h.stdout.String())
	require.NotEmpty(t, fileID)
	assert.Equal(t, []int{2048, 2048, 904}, h.remote.PartSizes(fileID))
	assert.Equal(t, transfertypes.StateClosed, h.remote.State(fileID))
	assert.Contains(t, h.stderr.String(), "payload.bin")

	dst := filepath.Join(dir, "out.bin")
	require.NoError(t, h.run(t, "download", fileID, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Contains(t, h.stdout.String(), "out.bin")
	assert.Contains(t, h.stderr.String(), "Downloaded 5,000 of 5,000 bytes (100%)")

	// second run resumes everything and fetches nothing
	fetches := len(h.remote.Fetches())
	require.NoError(t, h.run(t, "download", "--progress=false", fileID, dst))
	assert.Len(t, h.remote.Fetches(), fetches)
	assert.Contains(t, h.stdout.String(), "(0 B fetched)")
}

func TestUploadStdin(t *testing.T) {
	h := newHarness()
	h.stdin.WriteString("streamed from stdin")

	require.NoError(t, h.run(t, "upload", "--name", "notes.txt", "--keep-open", "-"))

	fileID := strings.TrimSpace(h.stdout.String())
	assert.Equal(t, []byte("streamed from stdin"), h.remote.Content(fileID))
	assert.Equal(t, transfertypes.StateOpen, h.remote.State(fileID))
}

func TestCommandErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{name: "bad file id", args: []string{"download", "../etc", "/tmp/x"}, wantErr: errors.ErrInvalidInput},
		{name: "unknown file", args: []string{"download", "file-9999", filepath.Join(os.TempDir(), "partxfer-missing")}, wantErr: errors.ErrFileNotFound},
		{name: "missing upload source", args: []string{"upload", "/definitely/not/here"}, wantErr: errors.ErrTransfer},
		{name: "missing config", args: []string{"--config", "/definitely/not/here.yaml", "upload", "-"}, wantErr: errors.ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newHarness().run(t, tt.args...)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("bad part size", func(t *testing.T) {
		err := newHarness().run(t, "upload", "--part-size", "huge", "-")
		assert.ErrorContains(t, err, "invalid --part-size")
	})

	t.Run("wrong arg count", func(t *testing.T) {
		assert.Error(t, newHarness().run(t, "download", "file-0001"))
	})
}

func TestS3RemoteRequiresBucket(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	_, err = s3Remote(context.Background(), cfg, slog.New(slog.DiscardHandler))
	assert.ErrorIs(t, err, errors.ErrConfiguration)
}
