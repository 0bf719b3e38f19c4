// Package transfertypes provides shared type definitions for the transfer module.
package transfertypes

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
)

// ObjectState is the lifecycle state of a remote file.
type ObjectState int

const (
	// StateOpen accepts further part appends
	StateOpen ObjectState = iota

	// StateClosing means finalization was requested but not yet observed
	StateClosing

	// StateClosed is immutable
	StateClosed
)

// String returns the lowercase name of the state.
func (s ObjectState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ParseObjectState converts a state name back into an ObjectState.
func ParseObjectState(s string) (ObjectState, bool) {
	switch s {
	case "open":
		return StateOpen, true
	case "closing":
		return StateClosing, true
	case "closed":
		return StateClosed, true
	default:
		return StateOpen, false
	}
}

// ChecksumAlgorithm names the digest used for part checksums.
type ChecksumAlgorithm string

// Supported checksum algorithms
const (
	// ChecksumMD5 is the default part digest
	ChecksumMD5 ChecksumAlgorithm = "md5"

	// ChecksumSHA256 uses SHA-256
	ChecksumSHA256 ChecksumAlgorithm = "sha256"

	// ChecksumXXH64 uses the 64-bit xxHash
	ChecksumXXH64 ChecksumAlgorithm = "xxh64"
)

// Action labels a progress update.
type Action string

// Progress actions reported by the engines
const (
	ActionResuming   Action = "Resuming"
	ActionVerified   Action = "Verified"
	ActionDownloaded Action = "Downloaded"
	ActionUploaded   Action = "Uploaded"
)

// Part is one contiguous byte range of a remote object.
type Part struct {
	// ID is the 1-based ordinal in string form
	ID string

	// Index is the numeric value of ID
	Index int

	// Size is the part size in bytes
	Size int64

	// Offset is the position of the part within the object
	Offset int64

	// Checksum is the hex digest published for the part
	Checksum string
}

// Manifest is the ordered part layout of a remote object.
type Manifest struct {
	FileID    string
	TotalSize int64
	Parts     []Part
}

// PartInfo is a single manifest entry as returned by a PartSource.
type PartInfo struct {
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"`
}

// ManifestInfo is the raw manifest returned by a PartSource.
// A nil Parts map means the manifest carried no parts field.
type ManifestInfo struct {
	Size  int64               `json:"size"`
	Parts map[string]PartInfo `json:"parts"`
	State ObjectState         `json:"-"`
}

// FetchDescriptor is a time-limited location for fetching object bytes.
type FetchDescriptor struct {
	URL     string
	Headers http.Header

	// Expires is zero when the descriptor does not expire
	Expires time.Time
}

// Expiring reports whether the descriptor expires within margin of now.
func (d *FetchDescriptor) Expiring(now time.Time, margin time.Duration) bool {
	if d.Expires.IsZero() {
		return false
	}
	return !now.Add(margin).Before(d.Expires)
}

// RemoteFile is a handle to a remote file created or written by an upload.
type RemoteFile struct {
	ID        string
	Name      string
	MediaType string
	State     ObjectState

	// Size is the number of bytes appended by this client
	Size int64

	// Parts is the number of parts appended by this client
	Parts int
}

// CreateFileRequest describes a new remote file.
type CreateFileRequest struct {
	Name      string
	MediaType string
}

// PartSource provides the read side of a remote store.
type PartSource interface {
	// GetManifest returns the current part layout of a file
	GetManifest(ctx context.Context, fileID string) (*ManifestInfo, error)

	// GetFetchDescriptor returns a URL and headers for fetching file bytes.
	// It must be safe for concurrent use.
	GetFetchDescriptor(ctx context.Context, fileID string) (*FetchDescriptor, error)

	// FetchRange fetches bytes from url. A byte range, if any, is carried
	// in the Range header.
	FetchRange(ctx context.Context, url string, headers http.Header) ([]byte, error)
}

// PartSink provides the write side of a remote store.
type PartSink interface {
	// CreateFile creates a new open remote file
	CreateFile(ctx context.Context, req CreateFileRequest) (*RemoteFile, error)

	// AppendPart stores data as part index (1-based) of the file
	AppendPart(ctx context.Context, fileID string, index int, data []byte) error

	// Finalize moves the file toward the closed state. When block is true
	// it returns only after the closed state has been observed.
	Finalize(ctx context.Context, fileID string, block bool) (ObjectState, error)
}

// Remote is a store supporting both transfer directions.
type Remote interface {
	PartSource
	PartSink
}

// ProgressTracker defines the interface for tracking transfer progress.
// Implementations can provide real-time progress updates during uploads and downloads.
type ProgressTracker interface {
	// Update is called after each verified, written, or emitted part.
	// totalBytes is zero when the size is unknown.
	Update(action Action, bytesTransferred, totalBytes int64)

	// Complete is called when the transfer completes successfully
	Complete()

	// Error is called when the transfer fails
	Error(err error)
}

// DownloadResult contains the result of a download operation.
type DownloadResult struct {
	// FileID is the remote file that was downloaded
	FileID string

	// Path is the local destination
	Path string

	// Size is the total object size in bytes
	Size int64

	// Parts is the number of parts in the manifest
	Parts int

	// PartsResumed is the number of parts verified locally and not fetched
	PartsResumed int

	// BytesFetched is the number of bytes fetched from the remote
	BytesFetched int64

	// Duration is how long the download took
	Duration time.Duration
}

// Configuration types for functional options

// ClientConfig holds configuration for the transfer client.
type ClientConfig struct {
	Workers         int
	MinPartSize     int64
	MaxParts        int
	Checksum        ChecksumAlgorithm
	Filesystem      afero.Fs
	Logger          *slog.Logger
	MetricsRegistry prometheus.Registerer
	ProgressOutput  io.Writer
}

// UploadOptionConfig holds configuration for upload operations via functional options.
type UploadOptionConfig struct {
	Name            string
	MediaType       string
	Target          *RemoteFile
	KeepOpen        bool
	WaitOnClose     bool
	MemoryMap       bool
	MinPartSize     int64
	ProgressTracker ProgressTracker
}

// DownloadOptionConfig holds configuration for download operations via functional options.
type DownloadOptionConfig struct {
	Append          bool
	ShowProgress    bool
	Workers         int
	ExitOnInterrupt bool
	ProgressTracker ProgressTracker
}

// Option is a functional option for configuring the transfer client.
type (
	Option func(*ClientConfig)
	// UploadOption is a functional option for configuring upload operations.
	UploadOption func(*UploadOptionConfig)
	// DownloadOption is a functional option for configuring download operations.
	DownloadOption func(*DownloadOptionConfig)
)
