// Package transfer provides functional options for configuring transfers.
// These options follow the functional options pattern for clean, composable configuration.
package transfer

import (
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// WithLogger sets the logger used for debug output.
// Default is no logging.
func WithLogger(logger *slog.Logger) transfertypes.Option {
	return func(c *transfertypes.ClientConfig) {
		c.Logger = logger
	}
}

// WithFilesystem sets the filesystem local files are read from and written to.
// Default is the OS filesystem. Memory-mapped uploads require files that
// expose a file descriptor, so other filesystems always read sequentially.
func WithFilesystem(filesystem afero.Fs) transfertypes.Option {
	return func(c *transfertypes.ClientConfig) {
		c.Filesystem = filesystem
	}
}

// WithMetrics registers transfer collectors with reg.
func WithMetrics(reg prometheus.Registerer) transfertypes.Option {
	return func(c *transfertypes.ClientConfig) {
		c.MetricsRegistry = reg
	}
}

// WithChecksum sets the algorithm part checksums are verified with.
// It must match the algorithm the remote publishes. Default is md5.
func WithChecksum(alg transfertypes.ChecksumAlgorithm) transfertypes.Option {
	return func(c *transfertypes.ClientConfig) {
		c.Checksum = alg
	}
}

// WithMinPartSize sets the smallest upload part size.
// Default is 8MB.
func WithMinPartSize(size int64) transfertypes.Option {
	return func(c *transfertypes.ClientConfig) {
		c.MinPartSize = size
	}
}

// WithMaxParts sets the maximum number of parts per uploaded file.
// Default and upper bound is 10000.
func WithMaxParts(n int) transfertypes.Option {
	return func(c *transfertypes.ClientConfig) {
		c.MaxParts = n
	}
}

// WithWorkers sets the default number of concurrent part fetches per download.
// Default is the number of CPUs.
func WithWorkers(n int) transfertypes.Option {
	return func(c *transfertypes.ClientConfig) {
		if n > 0 {
			c.Workers = n
		}
	}
}

// WithProgressOutput sets where progress lines are written when a download
// shows progress. Default is standard error.
func WithProgressOutput(w io.Writer) transfertypes.Option {
	return func(c *transfertypes.ClientConfig) {
		c.ProgressOutput = w
	}
}

// WithAppend appends fetched bytes to the destination instead of resuming.
func WithAppend(appendMode bool) transfertypes.DownloadOption {
	return func(c *transfertypes.DownloadOptionConfig) {
		c.Append = appendMode
	}
}

// WithShowProgress writes a progress line while downloading.
func WithShowProgress(show bool) transfertypes.DownloadOption {
	return func(c *transfertypes.DownloadOptionConfig) {
		c.ShowProgress = show
	}
}

// WithDownloadWorkers overrides the client's worker count for one download.
func WithDownloadWorkers(n int) transfertypes.DownloadOption {
	return func(c *transfertypes.DownloadOptionConfig) {
		if n > 0 {
			c.Workers = n
		}
	}
}

// WithExitOnInterrupt terminates the process with exit code 74 when SIGINT
// or SIGTERM arrives while parts are being fetched.
func WithExitOnInterrupt(exit bool) transfertypes.DownloadOption {
	return func(c *transfertypes.DownloadOptionConfig) {
		c.ExitOnInterrupt = exit
	}
}

// WithDownloadProgress sets a progress tracker for downloads.
func WithDownloadProgress(tracker transfertypes.ProgressTracker) transfertypes.DownloadOption {
	return func(c *transfertypes.DownloadOptionConfig) {
		c.ProgressTracker = tracker
	}
}

// WithMediaType sets the media type of the new remote file.
// If not specified, it is detected from the name and content.
func WithMediaType(mediaType string) transfertypes.UploadOption {
	return func(c *transfertypes.UploadOptionConfig) {
		c.MediaType = mediaType
	}
}

// WithName sets the name of the new remote file.
// Default is the source file name.
func WithName(name string) transfertypes.UploadOption {
	return func(c *transfertypes.UploadOptionConfig) {
		c.Name = name
	}
}

// WithKeepOpen leaves the remote file open for further parts.
func WithKeepOpen(keepOpen bool) transfertypes.UploadOption {
	return func(c *transfertypes.UploadOptionConfig) {
		c.KeepOpen = keepOpen
	}
}

// WithWaitOnClose blocks until the remote file is observed closed.
func WithWaitOnClose(wait bool) transfertypes.UploadOption {
	return func(c *transfertypes.UploadOptionConfig) {
		c.WaitOnClose = wait
	}
}

// WithTarget appends to an existing open remote file instead of creating one.
func WithTarget(file *transfertypes.RemoteFile) transfertypes.UploadOption {
	return func(c *transfertypes.UploadOptionConfig) {
		c.Target = file
	}
}

// WithMemoryMap enables memory-mapped reads of regular files.
// Default is true.
func WithMemoryMap(enabled bool) transfertypes.UploadOption {
	return func(c *transfertypes.UploadOptionConfig) {
		c.MemoryMap = enabled
	}
}

// WithUploadPartSize overrides the client's minimum part size for one upload.
func WithUploadPartSize(size int64) transfertypes.UploadOption {
	return func(c *transfertypes.UploadOptionConfig) {
		if size > 0 {
			c.MinPartSize = size
		}
	}
}

// WithUploadProgress sets a progress tracker for uploads.
func WithUploadProgress(tracker transfertypes.ProgressTracker) transfertypes.UploadOption {
	return func(c *transfertypes.UploadOptionConfig) {
		c.ProgressTracker = tracker
	}
}
