// Package testutil provides a builder for creating mock S3 clients.
package testutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// MockBuilder provides a fluent interface for building MockS3Client instances.
type MockBuilder struct {
	client *MockS3Client
}

// NewMockBuilder creates a new MockBuilder.
func NewMockBuilder() *MockBuilder {
	return &MockBuilder{
		client: &MockS3Client{},
	}
}

// Build returns the configured MockS3Client.
func (b *MockBuilder) Build() *MockS3Client {
	return b.client
}

// WithPutObject configures the PutObject behavior.
func (b *MockBuilder) WithPutObject(
	fn func(context.Context, *s3.PutObjectInput) (*s3.PutObjectOutput, error),
) *MockBuilder {
	b.client.PutObjectFunc = func(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return fn(ctx, params)
	}
	return b
}

// WithGetObject configures the GetObject behavior.
func (b *MockBuilder) WithGetObject(
	fn func(context.Context, *s3.GetObjectInput) (*s3.GetObjectOutput, error),
) *MockBuilder {
	b.client.GetObjectFunc = func(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
		return fn(ctx, params)
	}
	return b
}

// WithHeadObject configures the HeadObject behavior.
func (b *MockBuilder) WithHeadObject(
	fn func(context.Context, *s3.HeadObjectInput) (*s3.HeadObjectOutput, error),
) *MockBuilder {
	b.client.HeadObjectFunc = func(ctx context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
		return fn(ctx, params)
	}
	return b
}

// WithObjectNotFound configures the mock to return object not found errors.
func (b *MockBuilder) WithObjectNotFound() *MockBuilder {
	notFoundErr := &types.NoSuchKey{
		Message: StringPtr("The specified key does not exist."),
	}

	b.client.GetObjectFunc = func(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
		return nil, notFoundErr
	}
	b.client.HeadObjectFunc = func(ctx context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
		return nil, &types.NotFound{Message: StringPtr("Not Found")}
	}
	return b
}

// MultipartRecorder captures the objects written through a mock built
// with WithMultipartStore.
type MultipartRecorder struct {
	mu        sync.Mutex
	Parts     map[int32][]byte
	Objects   map[string][]byte
	Completed []types.CompletedPart
	Aborted   bool
	Created   *s3.CreateMultipartUploadInput
}

// Object returns a stored object body.
func (r *MultipartRecorder) Object(key string) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, ok := r.Objects[key]
	return data, ok
}

// WithMultipartStore configures the mock as a minimal object store supporting
// multipart uploads, PutObject, GetObject and HeadObject.
func (b *MockBuilder) WithMultipartStore(rec *MultipartRecorder) *MockBuilder {
	uploadID := "test-upload-id"
	rec.Parts = make(map[int32][]byte)
	rec.Objects = make(map[string][]byte)

	b.client.CreateMultipartUploadFunc = func(ctx context.Context, params *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.Created = params
		return &s3.CreateMultipartUploadOutput{
			UploadId: StringPtr(uploadID),
			Bucket:   params.Bucket,
			Key:      params.Key,
		}, nil
	}

	b.client.UploadPartFunc = func(ctx context.Context, params *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
		data, err := io.ReadAll(params.Body)
		if err != nil {
			return nil, err
		}
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.Parts[aws.ToInt32(params.PartNumber)] = data
		return &s3.UploadPartOutput{
			ETag: StringPtr(CalculateETag(data)),
		}, nil
	}

	b.client.CompleteMultipartUploadFunc = func(ctx context.Context, params *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		var body bytes.Buffer
		for _, p := range params.MultipartUpload.Parts {
			data, ok := rec.Parts[aws.ToInt32(p.PartNumber)]
			if !ok {
				return nil, fmt.Errorf("part %d was not uploaded", aws.ToInt32(p.PartNumber))
			}
			body.Write(data)
		}
		rec.Completed = params.MultipartUpload.Parts
		rec.Objects[aws.ToString(params.Key)] = body.Bytes()
		return &s3.CompleteMultipartUploadOutput{
			ETag:   StringPtr(`"multipart-etag"`),
			Bucket: params.Bucket,
			Key:    params.Key,
		}, nil
	}

	b.client.AbortMultipartUploadFunc = func(ctx context.Context, params *s3.AbortMultipartUploadInput, _ ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.Aborted = true
		return &s3.AbortMultipartUploadOutput{}, nil
	}

	b.client.PutObjectFunc = func(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		data, err := io.ReadAll(params.Body)
		if err != nil {
			return nil, err
		}
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.Objects[aws.ToString(params.Key)] = data
		return &s3.PutObjectOutput{ETag: StringPtr(CalculateETag(data))}, nil
	}

	b.client.GetObjectFunc = func(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		data, ok := rec.Objects[aws.ToString(params.Key)]
		if !ok {
			return nil, &types.NoSuchKey{Message: StringPtr("The specified key does not exist.")}
		}
		return CreateGetObjectOutput(data, "application/json"), nil
	}

	b.client.HeadObjectFunc = func(ctx context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		data, ok := rec.Objects[aws.ToString(params.Key)]
		if !ok {
			return nil, &types.NotFound{Message: StringPtr("Not Found")}
		}
		return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(data)))}, nil
	}

	return b
}

// WithAccessDenied configures the mock to return access denied errors.
func (b *MockBuilder) WithAccessDenied() *MockBuilder {
	accessDeniedErr := errors.New("access denied")

	b.client.PutObjectFunc = func(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return nil, accessDeniedErr
	}
	b.client.GetObjectFunc = func(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
		return nil, accessDeniedErr
	}
	b.client.CreateMultipartUploadFunc = func(ctx context.Context, params *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
		return nil, accessDeniedErr
	}
	b.client.UploadPartFunc = func(ctx context.Context, params *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
		return nil, accessDeniedErr
	}

	return b
}
