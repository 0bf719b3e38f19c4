//go:build integration
// +build integration

package s3remote_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	transfer "github.com/input-output-hk/catalyst-forge-libs/transfer"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/s3remote"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// S3 rejects non-final multipart parts below 5MiB.
const minS3Part = 5 * 1024 * 1024

// TestIntegrationRoundTrip uploads and downloads through LocalStack.
func TestIntegrationRoundTrip(t *testing.T) {
	ctx := context.Background()
	s3Client, bucket := testutil.LocalStackBucket(t)

	remote, err := s3remote.New(s3Client, s3.NewPresignClient(s3Client), bucket, s3remote.WithPrefix("it/"))
	require.NoError(t, err)

	client, err := transfer.New(remote, transfer.WithMinPartSize(minS3Part))
	require.NoError(t, err)

	dir := t.TempDir()

	t.Run("multipart file", func(t *testing.T) {
		data := testutil.GenerateRandomData(2*minS3Part + 1234)
		src := filepath.Join(dir, "multi.bin")
		require.NoError(t, os.WriteFile(src, data, 0o600))

		file, err := client.UploadFile(ctx, src, transfer.WithWaitOnClose(true))
		require.NoError(t, err)
		assert.Equal(t, transfertypes.StateClosed, file.State)
		assert.Equal(t, 3, file.Parts)

		head, err := s3Client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(remote.ObjectKey(file.ID)),
		})
		require.NoError(t, err)
		assert.Equal(t, "multi.bin", head.Metadata[s3remote.MetadataName])

		dst := filepath.Join(dir, "multi.out")
		result, err := client.Download(ctx, file.ID, dst)
		require.NoError(t, err)
		assert.Equal(t, 3, result.Parts)
		assert.Equal(t, int64(len(data)), result.BytesFetched)

		got, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(data, got))

		// truncate into the second part and resume
		require.NoError(t, os.Truncate(dst, minS3Part+100))
		result, err = client.Download(ctx, file.ID, dst)
		require.NoError(t, err)
		assert.Equal(t, 1, result.PartsResumed)
		assert.Equal(t, int64(minS3Part+1234), result.BytesFetched)

		got, err = os.ReadFile(dst)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(data, got))
	})

	t.Run("bytes", func(t *testing.T) {
		data := []byte("Hello, LocalStack!")
		file, err := client.UploadBytes(ctx, data, transfer.WithName("hello.txt"), transfer.WithWaitOnClose(true))
		require.NoError(t, err)

		dst := filepath.Join(dir, "hello.txt")
		_, err = client.Download(ctx, file.ID, dst)
		require.NoError(t, err)

		got, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, data, got)
	})

	t.Run("empty", func(t *testing.T) {
		file, err := client.UploadBytes(ctx, nil, transfer.WithWaitOnClose(true))
		require.NoError(t, err)

		dst := filepath.Join(dir, "empty.out")
		result, err := client.Download(ctx, file.ID, dst)
		require.NoError(t, err)
		assert.Equal(t, int64(0), result.Size)
	})
}
