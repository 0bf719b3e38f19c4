// Package testutil provides test utilities and mocks for transfer operations.
// This package is internal and should only be used for testing within the transfer module.
package testutil

import (
	"context"
	"net/http"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// MockS3Client is a mock implementation of the S3API interface for testing.
// It allows customization of each S3 operation through function fields.
type MockS3Client struct {
	PutObjectFunc               func(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObjectFunc               func(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObjectFunc              func(context.Context, *s3.HeadObjectInput, ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	CreateMultipartUploadFunc   func(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error)
	UploadPartFunc              func(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error)
	CompleteMultipartUploadFunc func(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error)
	AbortMultipartUploadFunc    func(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error)
}

var _ s3api.S3API = (*MockS3Client)(nil)

// PutObject mocks the S3 PutObject operation.
func (m *MockS3Client) PutObject(
	ctx context.Context,
	params *s3.PutObjectInput,
	optFns ...func(*s3.Options),
) (*s3.PutObjectOutput, error) {
	if m.PutObjectFunc != nil {
		return m.PutObjectFunc(ctx, params, optFns...)
	}
	return &s3.PutObjectOutput{}, nil
}

// GetObject mocks the S3 GetObject operation.
func (m *MockS3Client) GetObject(
	ctx context.Context,
	params *s3.GetObjectInput,
	optFns ...func(*s3.Options),
) (*s3.GetObjectOutput, error) {
	if m.GetObjectFunc != nil {
		return m.GetObjectFunc(ctx, params, optFns...)
	}
	return &s3.GetObjectOutput{}, nil
}

// HeadObject mocks the S3 HeadObject operation.
func (m *MockS3Client) HeadObject(
	ctx context.Context,
	params *s3.HeadObjectInput,
	optFns ...func(*s3.Options),
) (*s3.HeadObjectOutput, error) {
	if m.HeadObjectFunc != nil {
		return m.HeadObjectFunc(ctx, params, optFns...)
	}
	return &s3.HeadObjectOutput{}, nil
}

// CreateMultipartUpload mocks the S3 CreateMultipartUpload operation.
func (m *MockS3Client) CreateMultipartUpload(
	ctx context.Context,
	params *s3.CreateMultipartUploadInput,
	optFns ...func(*s3.Options),
) (*s3.CreateMultipartUploadOutput, error) {
	if m.CreateMultipartUploadFunc != nil {
		return m.CreateMultipartUploadFunc(ctx, params, optFns...)
	}
	return &s3.CreateMultipartUploadOutput{}, nil
}

// UploadPart mocks the S3 UploadPart operation.
func (m *MockS3Client) UploadPart(
	ctx context.Context,
	params *s3.UploadPartInput,
	optFns ...func(*s3.Options),
) (*s3.UploadPartOutput, error) {
	if m.UploadPartFunc != nil {
		return m.UploadPartFunc(ctx, params, optFns...)
	}
	return &s3.UploadPartOutput{}, nil
}

// CompleteMultipartUpload mocks the S3 CompleteMultipartUpload operation.
func (m *MockS3Client) CompleteMultipartUpload(
	ctx context.Context,
	params *s3.CompleteMultipartUploadInput,
	optFns ...func(*s3.Options),
) (*s3.CompleteMultipartUploadOutput, error) {
	if m.CompleteMultipartUploadFunc != nil {
		return m.CompleteMultipartUploadFunc(ctx, params, optFns...)
	}
	return &s3.CompleteMultipartUploadOutput{}, nil
}

// AbortMultipartUpload mocks the S3 AbortMultipartUpload operation.
func (m *MockS3Client) AbortMultipartUpload(
	ctx context.Context,
	params *s3.AbortMultipartUploadInput,
	optFns ...func(*s3.Options),
) (*s3.AbortMultipartUploadOutput, error) {
	if m.AbortMultipartUploadFunc != nil {
		return m.AbortMultipartUploadFunc(ctx, params, optFns...)
	}
	return &s3.AbortMultipartUploadOutput{}, nil
}

// MockPresigner is a mock implementation of the Presigner interface.
type MockPresigner struct {
	PresignGetObjectFunc func(context.Context, *s3.GetObjectInput, ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

var _ s3api.Presigner = (*MockPresigner)(nil)

// PresignGetObject mocks presigning a GetObject request.
func (m *MockPresigner) PresignGetObject(
	ctx context.Context,
	params *s3.GetObjectInput,
	optFns ...func(*s3.PresignOptions),
) (*v4.PresignedHTTPRequest, error) {
	if m.PresignGetObjectFunc != nil {
		return m.PresignGetObjectFunc(ctx, params, optFns...)
	}
	return &v4.PresignedHTTPRequest{
		URL:          "https://example.test/" + *params.Bucket + "/" + *params.Key,
		Method:       http.MethodGet,
		SignedHeader: http.Header{},
	}, nil
}

// MockRemote is a mock implementation of transfertypes.Remote.
// Unset functions return zero values.
type MockRemote struct {
	GetManifestFunc        func(ctx context.Context, fileID string) (*transfertypes.ManifestInfo, error)
	GetFetchDescriptorFunc func(ctx context.Context, fileID string) (*transfertypes.FetchDescriptor, error)
	FetchRangeFunc         func(ctx context.Context, url string, headers http.Header) ([]byte, error)
	CreateFileFunc         func(ctx context.Context, req transfertypes.CreateFileRequest) (*transfertypes.RemoteFile, error)
	AppendPartFunc         func(ctx context.Context, fileID string, index int, data []byte) error
	FinalizeFunc           func(ctx context.Context, fileID string, block bool) (transfertypes.ObjectState, error)
}

var _ transfertypes.Remote = (*MockRemote)(nil)

// GetManifest mocks manifest retrieval.
func (m *MockRemote) GetManifest(ctx context.Context, fileID string) (*transfertypes.ManifestInfo, error) {
	if m.GetManifestFunc != nil {
		return m.GetManifestFunc(ctx, fileID)
	}
	return &transfertypes.ManifestInfo{Parts: map[string]transfertypes.PartInfo{}}, nil
}

// GetFetchDescriptor mocks fetch descriptor retrieval.
func (m *MockRemote) GetFetchDescriptor(ctx context.Context, fileID string) (*transfertypes.FetchDescriptor, error) {
	if m.GetFetchDescriptorFunc != nil {
		return m.GetFetchDescriptorFunc(ctx, fileID)
	}
	return &transfertypes.FetchDescriptor{URL: "mock://" + fileID, Headers: http.Header{}}, nil
}

// FetchRange mocks a ranged fetch.
func (m *MockRemote) FetchRange(ctx context.Context, url string, headers http.Header) ([]byte, error) {
	if m.FetchRangeFunc != nil {
		return m.FetchRangeFunc(ctx, url, headers)
	}
	return nil, nil
}

// CreateFile mocks remote file creation.
func (m *MockRemote) CreateFile(ctx context.Context, req transfertypes.CreateFileRequest) (*transfertypes.RemoteFile, error) {
	if m.CreateFileFunc != nil {
		return m.CreateFileFunc(ctx, req)
	}
	return &transfertypes.RemoteFile{ID: "file-mock", Name: req.Name, MediaType: req.MediaType}, nil
}

// AppendPart mocks appending a part.
func (m *MockRemote) AppendPart(ctx context.Context, fileID string, index int, data []byte) error {
	if m.AppendPartFunc != nil {
		return m.AppendPartFunc(ctx, fileID, index, data)
	}
	return nil
}

// Finalize mocks closing a file.
func (m *MockRemote) Finalize(ctx context.Context, fileID string, block bool) (transfertypes.ObjectState, error) {
	if m.FinalizeFunc != nil {
		return m.FinalizeFunc(ctx, fileID, block)
	}
	if block {
		return transfertypes.StateClosed, nil
	}
	return transfertypes.StateClosing, nil
}
