package upload

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/metrics"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/partsize"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/source"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// DefaultMediaType is used when no media type is given or detected.
const DefaultMediaType = "application/octet-stream"

// Config holds the collaborators and limits of an Uploader.
type Config struct {
	Filesystem  afero.Fs
	MinPartSize int64
	MaxParts    int
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// Uploader writes local sources to a remote store part by part.
type Uploader struct {
	sink        transfertypes.PartSink
	fs          afero.Fs
	minPartSize int64
	maxParts    int
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// New creates a new Uploader writing to sink.
func New(sink transfertypes.PartSink, cfg Config) *Uploader {
	u := &Uploader{
		sink:        sink,
		fs:          cfg.Filesystem,
		minPartSize: cfg.MinPartSize,
		maxParts:    cfg.MaxParts,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
	}
	if u.fs == nil {
		u.fs = afero.NewOsFs()
	}
	if u.minPartSize <= 0 {
		u.minPartSize = partsize.DefaultMinPartSize
	}
	if u.maxParts <= 0 {
		u.maxParts = partsize.MaxParts
	}
	if u.logger == nil {
		u.logger = slog.New(slog.DiscardHandler)
	}
	return u
}

// UploadFile uploads the file at path.
func (u *Uploader) UploadFile(
	ctx context.Context,
	path string,
	opts *transfertypes.UploadOptionConfig,
) (*transfertypes.RemoteFile, error) {
	opts = normalize(opts)
	src, err := source.Open(u.fs, path, opts.MemoryMap)
	if err != nil {
		err = errors.NewError("upload", errors.ErrTransfer).WithPath(path).WithCause(err)
		opts.ProgressTracker.Error(err)
		return nil, err
	}
	defer src.Close()

	return u.run(ctx, src, opts)
}

// Upload uploads everything read from r.
func (u *Uploader) Upload(
	ctx context.Context,
	r io.Reader,
	opts *transfertypes.UploadOptionConfig,
) (*transfertypes.RemoteFile, error) {
	opts = normalize(opts)
	src := source.FromReader(r, opts.Name, opts.MemoryMap)
	return u.run(ctx, src, opts)
}

func (u *Uploader) run(
	ctx context.Context,
	src *source.Source,
	opts *transfertypes.UploadOptionConfig,
) (*transfertypes.RemoteFile, error) {
	file, err := u.upload(ctx, src, opts)
	if err != nil {
		opts.ProgressTracker.Error(err)
		return nil, err
	}
	opts.ProgressTracker.Complete()
	return file, nil
}

func (u *Uploader) upload(
	ctx context.Context,
	src *source.Source,
	opts *transfertypes.UploadOptionConfig,
) (*transfertypes.RemoteFile, error) {
	minPartSize := opts.MinPartSize
	if minPartSize <= 0 {
		minPartSize = u.minPartSize
	}
	partSize, err := partsize.Calculate(partsize.Request{
		TotalSize:   src.Size(),
		MinPartSize: minPartSize,
		MaxParts:    u.maxParts,
		Aligned:     src.Kind() == source.KindMappable,
		Granularity: source.Granularity(),
	})
	if err != nil {
		return nil, err
	}

	chunks := src.Chunks(partSize)
	defer chunks.Close()

	first, err := chunks.Next()
	if err != nil && !stderrors.Is(err, io.EOF) {
		return nil, errors.NewError("upload", errors.ErrTransfer).WithCause(err)
	}

	file, err := u.target(ctx, src, first, opts)
	if err != nil {
		if first != nil {
			_ = first.Release()
		}
		return nil, err
	}

	u.logger.Debug("upload started",
		"file_id", file.ID,
		"size", src.Size(),
		"part_size", partSize,
		"reader", src.Kind().String())

	// progress covers this call's bytes only, not what a target already held
	var sent int64
	index := file.Parts
	chunk := first
	for chunk != nil {
		index++
		n, err := u.appendChunk(ctx, file, index, chunk)
		if err != nil {
			return nil, err
		}
		sent += n
		opts.ProgressTracker.Update(transfertypes.ActionUploaded, sent, src.Size())

		chunk, err = chunks.Next()
		if err != nil {
			if stderrors.Is(err, io.EOF) {
				break
			}
			return nil, errors.NewFileError("upload", file.ID, errors.ErrTransfer).
				WithPart(strconv.Itoa(index + 1)).WithCause(err)
		}
	}

	if opts.KeepOpen {
		return file, nil
	}

	state, err := u.sink.Finalize(ctx, file.ID, opts.WaitOnClose)
	if err != nil {
		return nil, errors.NewFileError("finalize", file.ID, errors.ErrTransfer).WithCause(err)
	}
	file.State = state
	u.logger.Debug("upload finalized",
		"file_id", file.ID,
		"parts", file.Parts,
		"size", file.Size,
		"state", state.String())
	return file, nil
}

// appendChunk sends chunk as part index and releases it. It returns the
// number of bytes sent.
func (u *Uploader) appendChunk(
	ctx context.Context,
	file *transfertypes.RemoteFile,
	index int,
	chunk *source.Chunk,
) (int64, error) {
	defer chunk.Release()

	part := strconv.Itoa(index)
	if index > u.maxParts {
		return 0, errors.NewFileError("upload", file.ID, errors.ErrTransfer).
			WithPart(part).
			WithMessage(fmt.Sprintf("source needs more than %d parts", u.maxParts))
	}

	n := int64(len(chunk.Data))
	if err := u.sink.AppendPart(ctx, file.ID, index, chunk.Data); err != nil {
		return 0, errors.NewFileError("upload", file.ID, errors.ErrTransfer).WithPart(part).WithCause(err)
	}

	file.Parts++
	file.Size += n
	u.metrics.PartTransferred(metrics.Upload, n)
	u.logger.Debug("part uploaded", "file_id", file.ID, "part", index, "size", n)
	return n, nil
}

// target returns the handle parts are appended to, creating the remote file
// when no target was given.
func (u *Uploader) target(
	ctx context.Context,
	src *source.Source,
	first *source.Chunk,
	opts *transfertypes.UploadOptionConfig,
) (*transfertypes.RemoteFile, error) {
	if opts.Target != nil {
		file := *opts.Target
		return &file, nil
	}

	name := opts.Name
	if name == "" {
		name = src.Name()
	}
	mediaType := opts.MediaType
	if mediaType == "" {
		var head []byte
		if first != nil {
			head = first.Data
		}
		mediaType = DetectMediaType(name, head)
	}

	file, err := u.sink.CreateFile(ctx, transfertypes.CreateFileRequest{Name: name, MediaType: mediaType})
	if err != nil {
		return nil, errors.NewError("createFile", errors.ErrTransfer).WithCause(err)
	}
	if file == nil || file.ID == "" {
		return nil, errors.NewError("createFile", errors.ErrTransfer).
			WithMessage("remote returned no file id")
	}
	created := *file
	return &created, nil
}

// DetectMediaType guesses a media type from the file extension, then from
// the leading bytes of the content.
func DetectMediaType(name string, head []byte) string {
	if ext := filepath.Ext(name); ext != "" {
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
	}
	if len(head) > 0 {
		return mimetype.Detect(head).String()
	}
	return DefaultMediaType
}

func normalize(opts *transfertypes.UploadOptionConfig) *transfertypes.UploadOptionConfig {
	if opts == nil {
		opts = &transfertypes.UploadOptionConfig{MemoryMap: true}
	}
	if opts.ProgressTracker == nil {
		cp := *opts
		cp.ProgressTracker = nopTracker{}
		opts = &cp
	}
	return opts
}

type nopTracker struct{}

func (nopTracker) Update(transfertypes.Action, int64, int64) {}
func (nopTracker) Complete()                                 {}
func (nopTracker) Error(error)                               {}
