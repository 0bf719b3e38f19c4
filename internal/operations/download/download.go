package download

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/checksum"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/interrupt"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/metrics"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/pool"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// Config holds the collaborators of a Downloader.
type Config struct {
	// Filesystem holds the destination files
	Filesystem afero.Fs

	// Verifier checks part digests against the manifest
	Verifier *checksum.Verifier

	// Workers is the default pool size. Zero means runtime.NumCPU().
	Workers int

	// RefreshMargin is how long before expiry a fetch descriptor is renewed
	RefreshMargin time.Duration

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Downloader fetches remote files into local destinations.
type Downloader struct {
	source  transfertypes.PartSource
	fs      afero.Fs
	verify  *checksum.Verifier
	workers int
	margin  time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger

	now  func() time.Time
	exit func(code int)
}

// New creates a new Downloader reading from source.
func New(source transfertypes.PartSource, cfg Config) *Downloader {
	d := &Downloader{
		source:  source,
		fs:      cfg.Filesystem,
		verify:  cfg.Verifier,
		workers: cfg.Workers,
		margin:  cfg.RefreshMargin,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
		now:     time.Now,
		exit:    os.Exit,
	}
	if d.fs == nil {
		d.fs = afero.NewOsFs()
	}
	if d.verify == nil {
		d.verify, _ = checksum.NewVerifier(checksum.Default)
	}
	if d.margin <= 0 {
		d.margin = DefaultRefreshMargin
	}
	if d.logger == nil {
		d.logger = slog.New(slog.DiscardHandler)
	}
	return d
}

// fetched is a completed part fetch, keyed by its position in the pending list.
type fetched struct {
	pos  int
	data []byte
	err  error
}

// DownloadFile downloads fileID into localPath.
// Unless opts.Append is set, parts already present and valid in localPath
// are kept and only the remainder is fetched.
func (d *Downloader) DownloadFile(
	ctx context.Context,
	fileID, localPath string,
	opts *transfertypes.DownloadOptionConfig,
) (*transfertypes.DownloadResult, error) {
	start := time.Now()
	if opts == nil {
		opts = &transfertypes.DownloadOptionConfig{}
	}
	tracker := opts.ProgressTracker
	if tracker == nil {
		tracker = nopTracker{}
	}

	result, err := d.download(ctx, fileID, localPath, opts, tracker)
	if err != nil {
		tracker.Error(err)
		return nil, err
	}
	result.Duration = time.Since(start)
	tracker.Complete()
	return result, nil
}

func (d *Downloader) download(
	ctx context.Context,
	fileID, localPath string,
	opts *transfertypes.DownloadOptionConfig,
	tracker transfertypes.ProgressTracker,
) (*transfertypes.DownloadResult, error) {
	info, err := d.source.GetManifest(ctx, fileID)
	if err != nil {
		return nil, errors.NewFileError("download", fileID, errors.ErrTransfer).WithCause(err)
	}
	manifest, err := BuildManifest(fileID, info)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("manifest loaded",
		"file_id", fileID,
		"parts", len(manifest.Parts),
		"size", manifest.TotalSize)

	cache := newDescriptorCache(d.source, fileID, d.margin, d.now)
	if len(manifest.Parts) > 0 {
		if _, err := cache.Get(ctx); err != nil {
			return nil, err
		}
	}

	f, existed, err := d.open(localPath, opts.Append)
	if err != nil {
		return nil, errors.NewFileError("download", fileID, errors.ErrTransfer).
			WithPath(localPath).WithCause(err)
	}
	defer f.Close()

	resumed := 0
	var done int64
	if existed && !opts.Append {
		resumed, done, err = d.resume(f, manifest, localPath, tracker)
		if err != nil {
			return nil, err
		}
		d.metrics.PartsResumed(resumed)
		d.logger.Debug("resume scan finished",
			"file_id", fileID,
			"parts_verified", resumed,
			"offset", done)
	}

	pending := manifest.Parts[resumed:]
	fetchedBytes, err := d.fetchAll(ctx, cache, manifest, pending, f, localPath, done, opts, tracker)
	if err != nil {
		return nil, err
	}

	return &transfertypes.DownloadResult{
		FileID:       fileID,
		Path:         localPath,
		Size:         manifest.TotalSize,
		Parts:        len(manifest.Parts),
		PartsResumed: resumed,
		BytesFetched: fetchedBytes,
	}, nil
}

// open opens the destination and reports whether it already existed.
func (d *Downloader) open(path string, appendMode bool) (afero.File, bool, error) {
	if appendMode {
		f, err := d.fs.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
		return f, false, err
	}

	f, err := d.fs.OpenFile(path, os.O_RDWR, 0o644)
	if err == nil {
		return f, true, nil
	}
	if !stderrors.Is(err, fs.ErrNotExist) {
		return nil, false, err
	}
	f, err = d.fs.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	return f, false, err
}

// resume verifies the parts already present in f and positions f at the end
// of the verified prefix, reporting Resuming at that offset once the scan is
// done. It returns the number of verified parts and their total size.
func (d *Downloader) resume(
	f afero.File,
	m *transfertypes.Manifest,
	path string,
	tracker transfertypes.ProgressTracker,
) (int, int64, error) {
	var bufs *pool.BufferPool
	if largest := largestPart(m); largest > 0 {
		bufs = pool.ForSize(int(largest))
	}

	verified := 0
	var offset int64
	for _, p := range m.Parts {
		ok, err := d.verifyLocal(f, bufs, p)
		if err != nil {
			return 0, 0, errors.NewFileError("resume", m.FileID, errors.ErrTransfer).
				WithPart(p.ID).WithPath(path).WithCause(err)
		}
		if !ok {
			break
		}
		verified++
		offset += p.Size
		tracker.Update(transfertypes.ActionVerified, offset, m.TotalSize)
	}

	if verified == len(m.Parts) {
		var extra [1]byte
		n, err := f.Read(extra[:])
		if n > 0 {
			return 0, 0, errors.NewFileError("resume", m.FileID, errors.ErrLocalFileMismatch).
				WithPath(path).
				WithMessage(fmt.Sprintf("local file is longer than %d bytes", m.TotalSize))
		}
		if err != nil && !stderrors.Is(err, io.EOF) {
			return 0, 0, errors.NewFileError("resume", m.FileID, errors.ErrTransfer).
				WithPath(path).WithCause(err)
		}
	}

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return 0, 0, errors.NewFileError("resume", m.FileID, errors.ErrTransfer).
			WithPath(path).WithCause(err)
	}
	if err := f.Truncate(offset); err != nil {
		return 0, 0, errors.NewFileError("resume", m.FileID, errors.ErrTransfer).
			WithPath(path).WithCause(err)
	}
	tracker.Update(transfertypes.ActionResuming, offset, m.TotalSize)
	return verified, offset, nil
}

// verifyLocal reads the next part from f and reports whether it matches.
// A short read is a mismatch, not an error.
func (d *Downloader) verifyLocal(f afero.File, bufs *pool.BufferPool, p transfertypes.Part) (bool, error) {
	if p.Size == 0 {
		return d.verify.Verify(nil, p.Checksum), nil
	}

	buf := bufs.Get(int(p.Size))
	defer bufs.Put(buf)

	if _, err := io.ReadFull(f, buf); err != nil {
		if stderrors.Is(err, io.EOF) || stderrors.Is(err, io.ErrUnexpectedEOF) {
			return false, nil
		}
		return false, err
	}
	return d.verify.Verify(buf, p.Checksum), nil
}

// fetchAll fetches pending with a bounded pool and writes them to w in order.
// It returns the number of bytes fetched.
func (d *Downloader) fetchAll(
	ctx context.Context,
	cache *descriptorCache,
	m *transfertypes.Manifest,
	pending []transfertypes.Part,
	w io.Writer,
	path string,
	done int64,
	opts *transfertypes.DownloadOptionConfig,
	tracker transfertypes.ProgressTracker,
) (int64, error) {
	if len(pending) == 0 {
		return 0, nil
	}

	if opts.ExitOnInterrupt {
		stop := interrupt.Watch(d.exit)
		defer stop()
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = d.workers
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(pending))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// window bounds the parts dispatched but not yet written
	window := make(chan struct{}, workers)
	jobs := make(chan int)
	results := make(chan fetched, workers)

	go func() {
		defer close(jobs)
		for pos := range pending {
			select {
			case window <- struct{}{}:
			case <-ctx.Done():
				return
			}
			select {
			case jobs <- pos:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pos := range jobs {
				data, err := d.fetchPart(ctx, cache, m, pending[pos])
				select {
				case results <- fetched{pos: pos, data: data, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	reorder := make(map[int][]byte, workers)
	var fetchedBytes int64
	next := 0
	for next < len(pending) {
		select {
		case <-ctx.Done():
			return 0, errors.NewFileError("download", m.FileID, errors.ErrTransfer).
				WithPath(path).WithCause(ctx.Err())
		case r := <-results:
			if r.err != nil {
				return 0, r.err
			}
			reorder[r.pos] = r.data
		}

		for {
			data, ok := reorder[next]
			if !ok {
				break
			}
			delete(reorder, next)
			p := pending[next]
			if _, err := w.Write(data); err != nil {
				return 0, errors.NewFileError("download", m.FileID, errors.ErrTransfer).
					WithPart(p.ID).WithPath(path).WithCause(err)
			}
			<-window
			next++

			fetchedBytes += p.Size
			done += p.Size
			d.metrics.PartTransferred(metrics.Download, p.Size)
			tracker.Update(transfertypes.ActionDownloaded, done, m.TotalSize)
		}
	}

	wg.Wait()
	return fetchedBytes, nil
}

// fetchPart fetches and verifies a single part.
func (d *Downloader) fetchPart(
	ctx context.Context,
	cache *descriptorCache,
	m *transfertypes.Manifest,
	p transfertypes.Part,
) ([]byte, error) {
	var data []byte
	if p.Size > 0 {
		desc, err := cache.Get(ctx)
		if err != nil {
			return nil, err
		}

		headers := desc.Headers.Clone()
		if headers == nil {
			headers = http.Header{}
		}
		if len(m.Parts) > 1 {
			headers.Set("Range", "bytes="+strconv.FormatInt(p.Offset, 10)+"-"+strconv.FormatInt(p.Offset+p.Size-1, 10))
		}

		data, err = d.source.FetchRange(ctx, desc.URL, headers)
		if err != nil {
			return nil, errors.NewFileError("download", m.FileID, errors.ErrTransfer).
				WithPart(p.ID).WithCause(err)
		}
	}

	if int64(len(data)) != p.Size {
		return nil, errors.NewFileError("download", m.FileID, errors.ErrPartIntegrity).
			WithPart(p.ID).
			WithMessage(fmt.Sprintf("received %d bytes, expected %d", len(data), p.Size))
	}
	if !d.verify.Verify(data, p.Checksum) {
		d.metrics.ChecksumFailure()
		return nil, errors.NewFileError("download", m.FileID, errors.ErrChecksumMismatch).WithPart(p.ID)
	}
	return data, nil
}

func largestPart(m *transfertypes.Manifest) int64 {
	var largest int64
	for _, p := range m.Parts {
		largest = max(largest, p.Size)
	}
	return largest
}

type nopTracker struct{}

func (nopTracker) Update(transfertypes.Action, int64, int64) {}
func (nopTracker) Complete()                                 {}
func (nopTracker) Error(error)                               {}
