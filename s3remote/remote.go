package s3remote

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/segmentio/ksuid"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/checksum"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/httpfetch"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/partsize"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

const (
	// ManifestSuffix is appended to an object key to form its manifest key
	ManifestSuffix = ".manifest.json"

	// MetadataName is the object metadata key holding the file name
	MetadataName = "name"

	defaultPresignTTL  = 15 * time.Minute
	defaultWaitTimeout = 2 * time.Minute
)

// manifestDocument is the JSON sidecar written when a file is finalized.
type manifestDocument struct {
	FileID            string                            `json:"file_id"`
	Name              string                            `json:"name,omitempty"`
	MediaType         string                            `json:"media_type,omitempty"`
	Size              int64                             `json:"size"`
	State             string                            `json:"state"`
	ChecksumAlgorithm transfertypes.ChecksumAlgorithm   `json:"checksum_algorithm"`
	Parts             map[string]transfertypes.PartInfo `json:"parts"`
}

// pendingUpload tracks a multipart upload started by this Remote.
type pendingUpload struct {
	key       string
	uploadID  string
	name      string
	mediaType string
	parts     map[int]uploadedPart
}

type uploadedPart struct {
	etag     string
	size     int64
	checksum string
}

// Remote is a transfertypes.Remote backed by an S3 bucket.
// Open files are tracked in memory, so appends to a file must go through the
// Remote that created it.
type Remote struct {
	client    s3api.S3API
	presigner s3api.Presigner
	bucket    string
	cfg       config
	fetcher   *httpfetch.Fetcher
	logger    *slog.Logger

	mu      sync.Mutex
	uploads map[string]*pendingUpload
}

var _ transfertypes.Remote = (*Remote)(nil)

// New creates a Remote storing files in bucket.
func New(client s3api.S3API, presigner s3api.Presigner, bucket string, opts ...Option) (*Remote, error) {
	if client == nil || presigner == nil {
		return nil, errors.NewError("s3remote", errors.ErrInvalidInput).
			WithMessage("s3 client and presigner are required")
	}
	if err := validation.ValidateBucketName(bucket); err != nil {
		return nil, err
	}

	cfg := config{
		presignTTL:  defaultPresignTTL,
		waitTimeout: defaultWaitTimeout,
		checksum:    checksum.Default,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := validation.ValidateKeyPrefix(cfg.prefix); err != nil {
		return nil, err
	}
	if err := checksum.Validate(cfg.checksum); err != nil {
		return nil, errors.NewError("s3remote", errors.ErrConfiguration).WithCause(err)
	}
	if cfg.checksum == "" {
		cfg.checksum = checksum.Default
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}

	fetchOpts := append([]httpfetch.Option{httpfetch.WithLogger(cfg.logger)}, cfg.fetchOpts...)

	return &Remote{
		client:    client,
		presigner: presigner,
		bucket:    bucket,
		cfg:       cfg,
		fetcher:   httpfetch.New(fetchOpts...),
		logger:    cfg.logger,
		uploads:   make(map[string]*pendingUpload),
	}, nil
}

// NewFromConfig creates a Remote from an AWS configuration.
//
// Example:
//
//	awsCfg, err := config.LoadDefaultConfig(ctx)
//	if err != nil {
//	    return err
//	}
//	remote, err := s3remote.NewFromConfig(awsCfg, "my-bucket", s3remote.WithPrefix("files/"))
func NewFromConfig(awsCfg aws.Config, bucket string, opts ...Option) (*Remote, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	var s3Opts []func(*s3.Options)
	if cfg.endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.endpoint)
		})
	}
	if cfg.pathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)
	return New(client, s3.NewPresignClient(client), bucket, opts...)
}

// CreateFile starts a multipart upload for a new file.
func (r *Remote) CreateFile(
	ctx context.Context,
	req transfertypes.CreateFileRequest,
) (*transfertypes.RemoteFile, error) {
	fileID := "file-" + ksuid.New().String()
	key := r.objectKey(fileID)

	input := &s3.CreateMultipartUploadInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	}
	if req.MediaType != "" {
		input.ContentType = aws.String(req.MediaType)
	}
	if req.Name != "" {
		input.Metadata = map[string]string{MetadataName: req.Name}
	}

	out, err := r.client.CreateMultipartUpload(ctx, input)
	if err != nil {
		return nil, errors.NewFileError("createFile", fileID, errors.ErrTransfer).WithCause(err)
	}

	r.mu.Lock()
	r.uploads[fileID] = &pendingUpload{
		key:       key,
		uploadID:  aws.ToString(out.UploadId),
		name:      req.Name,
		mediaType: req.MediaType,
		parts:     make(map[int]uploadedPart),
	}
	r.mu.Unlock()

	r.logger.Debug("file created", "file_id", fileID, "key", key)

	return &transfertypes.RemoteFile{
		ID:        fileID,
		Name:      req.Name,
		MediaType: req.MediaType,
		State:     transfertypes.StateOpen,
	}, nil
}

// AppendPart uploads data as multipart part index.
// Re-sending an index replaces the earlier part.
func (r *Remote) AppendPart(ctx context.Context, fileID string, index int, data []byte) error {
	if index < 1 || index > partsize.MaxParts {
		return errors.NewFileError("appendPart", fileID, errors.ErrInvalidInput).
			WithPart(strconv.Itoa(index)).
			WithMessage(fmt.Sprintf("part index must be between 1 and %d", partsize.MaxParts))
	}

	up, err := r.pending(fileID)
	if err != nil {
		return err
	}

	sum, err := checksum.Sum(r.cfg.checksum, data)
	if err != nil {
		return errors.NewFileError("appendPart", fileID, errors.ErrConfiguration).WithCause(err)
	}

	out, err := r.client.UploadPart(ctx, &s3.UploadPartInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(up.key),
		UploadId:      aws.String(up.uploadID),
		PartNumber:    aws.Int32(int32(index)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return errors.NewFileError("appendPart", fileID, errors.ErrTransfer).
			WithPart(strconv.Itoa(index)).WithCause(err)
	}

	r.mu.Lock()
	up.parts[index] = uploadedPart{etag: aws.ToString(out.ETag), size: int64(len(data)), checksum: sum}
	r.mu.Unlock()
	return nil
}

// Finalize completes the multipart upload and publishes the manifest.
// With block set it waits until the manifest is visible and reports
// StateClosed; otherwise it reports StateClosing.
func (r *Remote) Finalize(ctx context.Context, fileID string, block bool) (transfertypes.ObjectState, error) {
	r.mu.Lock()
	up, ok := r.uploads[fileID]
	r.mu.Unlock()

	if !ok {
		exists, err := r.manifestExists(ctx, fileID)
		if err != nil {
			return transfertypes.StateOpen, err
		}
		if !exists {
			return transfertypes.StateOpen, errors.NewFileError("finalize", fileID, errors.ErrFileNotFound)
		}
		return transfertypes.StateClosed, nil
	}

	if err := r.complete(ctx, fileID, up); err != nil {
		return transfertypes.StateOpen, err
	}

	r.mu.Lock()
	delete(r.uploads, fileID)
	r.mu.Unlock()

	if !block {
		return transfertypes.StateClosing, nil
	}

	waiter := s3.NewObjectExistsWaiter(r.client)
	err := waiter.Wait(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.manifestKey(fileID)),
	}, r.cfg.waitTimeout)
	if err != nil {
		return transfertypes.StateClosing, errors.NewFileError("finalize", fileID, errors.ErrTransfer).WithCause(err)
	}
	return transfertypes.StateClosed, nil
}

func (r *Remote) complete(ctx context.Context, fileID string, up *pendingUpload) error {
	r.mu.Lock()
	empty := len(up.parts) == 0
	r.mu.Unlock()

	// S3 refuses to complete an upload without parts
	if empty {
		if err := r.AppendPart(ctx, fileID, 1, nil); err != nil {
			return err
		}
	}

	r.mu.Lock()
	indexes := make([]int, 0, len(up.parts))
	for idx := range up.parts {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	completed := make([]types.CompletedPart, 0, len(indexes))
	doc := manifestDocument{
		FileID:            fileID,
		Name:              up.name,
		MediaType:         up.mediaType,
		State:             transfertypes.StateClosed.String(),
		ChecksumAlgorithm: r.cfg.checksum,
		Parts:             make(map[string]transfertypes.PartInfo, len(indexes)),
	}
	for _, idx := range indexes {
		p := up.parts[idx]
		completed = append(completed, types.CompletedPart{
			ETag:       aws.String(p.etag),
			PartNumber: aws.Int32(int32(idx)),
		})
		doc.Parts[strconv.Itoa(idx)] = transfertypes.PartInfo{Size: p.size, Checksum: p.checksum}
		doc.Size += p.size
	}
	r.mu.Unlock()

	_, err := r.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(r.bucket),
		Key:             aws.String(up.key),
		UploadId:        aws.String(up.uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{Parts: completed},
	})
	if err != nil {
		return errors.NewFileError("finalize", fileID, errors.ErrTransfer).WithCause(err)
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return errors.NewFileError("finalize", fileID, errors.ErrTransfer).WithCause(err)
	}
	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(r.manifestKey(fileID)),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return errors.NewFileError("finalize", fileID, errors.ErrTransfer).WithCause(err)
	}

	r.logger.Debug("file finalized", "file_id", fileID, "parts", len(indexes), "size", doc.Size)
	return nil
}

// Abort discards an open file and its uploaded parts.
func (r *Remote) Abort(ctx context.Context, fileID string) error {
	up, err := r.pending(fileID)
	if err != nil {
		return err
	}

	_, err = r.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(r.bucket),
		Key:      aws.String(up.key),
		UploadId: aws.String(up.uploadID),
	})
	if err != nil {
		return errors.NewFileError("abort", fileID, errors.ErrTransfer).WithCause(err)
	}

	r.mu.Lock()
	delete(r.uploads, fileID)
	r.mu.Unlock()
	return nil
}

// GetManifest reads the manifest published by Finalize.
func (r *Remote) GetManifest(ctx context.Context, fileID string) (*transfertypes.ManifestInfo, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.manifestKey(fileID)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, r.missing("getManifest", fileID)
		}
		return nil, errors.NewFileError("getManifest", fileID, errors.ErrTransfer).WithCause(err)
	}
	defer out.Body.Close()

	var doc manifestDocument
	if err := json.NewDecoder(out.Body).Decode(&doc); err != nil {
		return nil, errors.NewFileError("getManifest", fileID, errors.ErrManifest).WithCause(err)
	}
	if doc.ChecksumAlgorithm != "" && doc.ChecksumAlgorithm != r.cfg.checksum {
		r.logger.Warn("manifest checksum algorithm differs from remote configuration",
			"file_id", fileID,
			"manifest", doc.ChecksumAlgorithm,
			"configured", r.cfg.checksum)
	}

	state, ok := transfertypes.ParseObjectState(doc.State)
	if !ok {
		state = transfertypes.StateClosed
	}
	return &transfertypes.ManifestInfo{
		Size:  doc.Size,
		Parts: doc.Parts,
		State: state,
	}, nil
}

// GetFetchDescriptor presigns a GET of the file's object.
func (r *Remote) GetFetchDescriptor(ctx context.Context, fileID string) (*transfertypes.FetchDescriptor, error) {
	req, err := r.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.objectKey(fileID)),
	}, s3.WithPresignExpires(r.cfg.presignTTL))
	if err != nil {
		return nil, errors.NewFileError("getFetchDescriptor", fileID, errors.ErrTransfer).WithCause(err)
	}

	headers := http.Header{}
	for k, vs := range req.SignedHeader {
		// net/http derives Host from the URL
		if http.CanonicalHeaderKey(k) == "Host" {
			continue
		}
		headers[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}

	return &transfertypes.FetchDescriptor{
		URL:     req.URL,
		Headers: headers,
		Expires: time.Now().Add(r.cfg.presignTTL),
	}, nil
}

// FetchRange GETs url, retrying transient failures.
func (r *Remote) FetchRange(ctx context.Context, url string, headers http.Header) ([]byte, error) {
	return r.fetcher.Fetch(ctx, url, headers)
}

// ObjectKey returns the key a file's bytes are stored under.
func (r *Remote) ObjectKey(fileID string) string {
	return r.objectKey(fileID)
}

func (r *Remote) objectKey(fileID string) string {
	return r.cfg.prefix + fileID
}

func (r *Remote) manifestKey(fileID string) string {
	return r.objectKey(fileID) + ManifestSuffix
}

func (r *Remote) pending(fileID string) (*pendingUpload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	up, ok := r.uploads[fileID]
	if !ok {
		return nil, errors.NewFileError("appendPart", fileID, errors.ErrInvalidState).
			WithMessage("file is not open on this remote")
	}
	return up, nil
}

// missing reports a file without a manifest: still open here, or unknown.
func (r *Remote) missing(op, fileID string) error {
	r.mu.Lock()
	_, open := r.uploads[fileID]
	r.mu.Unlock()
	if open {
		return errors.NewFileError(op, fileID, errors.ErrInvalidState).WithMessage("file is still open")
	}
	return errors.NewFileError(op, fileID, errors.ErrFileNotFound)
}

func (r *Remote) manifestExists(ctx context.Context, fileID string) (bool, error) {
	_, err := r.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.manifestKey(fileID)),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, errors.NewFileError("finalize", fileID, errors.ErrTransfer).WithCause(err)
}

// isNotFound checks if an error indicates that an object was not found.
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if stderrors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	if stderrors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
