// Package testutil provides test helper functions.
package testutil

import (
	"bytes"
	"crypto/md5" //nolint:gosec // test digests
	"encoding/hex"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// StringPtr returns a pointer to the given string.
// This is useful for AWS SDK inputs that require string pointers.
func StringPtr(s string) *string {
	return aws.String(s)
}

// Int64Ptr returns a pointer to the given int64.
func Int64Ptr(i int64) *int64 {
	return aws.Int64(i)
}

// GenerateRandomData generates random bytes of the specified size.
// This is useful for creating test data for uploads.
func GenerateRandomData(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(rand.Intn(256))
	}
	return data
}

// GenerateRandomReader creates an io.Reader with random data of the specified size.
// This is useful for testing stream-based uploads.
func GenerateRandomReader(size int) io.Reader {
	return bytes.NewReader(GenerateRandomData(size))
}

// GenerateTestBucketName generates a valid test bucket name.
// Bucket names must be DNS-compliant and globally unique.
func GenerateTestBucketName(prefix string) string {
	timestamp := time.Now().Unix()
	random := rand.Int31n(10000)
	name := fmt.Sprintf("%s-%d-%d", prefix, timestamp, random)
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "_", "-")
	if len(name) > 63 {
		name = name[:63]
	}
	return name
}

// CalculateMD5 returns the hex md5 digest of data, as published in manifests.
func CalculateMD5(data []byte) string {
	h := md5.Sum(data) //nolint:gosec // test digests
	return hex.EncodeToString(h[:])
}

// CalculateETag calculates the ETag S3 returns for a single-part upload of data.
func CalculateETag(data []byte) string {
	return `"` + CalculateMD5(data) + `"`
}

// CreateGetObjectOutput creates a GetObject output for mocking.
func CreateGetObjectOutput(data []byte, contentType string) *s3.GetObjectOutput {
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		ETag:          aws.String(CalculateETag(data)),
	}
}

// SlowReader returns at most chunk bytes per Read, like a pipe.
type SlowReader struct {
	R     io.Reader
	Chunk int
}

// Read implements io.Reader.
func (s *SlowReader) Read(p []byte) (int, error) {
	if len(p) > s.Chunk {
		p = p[:s.Chunk]
	}
	return s.R.Read(p)
}

// FailingReader returns data and then Err.
type FailingReader struct {
	Data []byte
	Err  error
}

// Read implements io.Reader.
func (f *FailingReader) Read(p []byte) (int, error) {
	if len(f.Data) == 0 {
		return 0, f.Err
	}
	n := copy(p, f.Data)
	f.Data = f.Data[n:]
	return n, nil
}
