package transfer

import (
	"log/slog"
	"os"

	"github.com/spf13/afero"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/checksum"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/metrics"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/operations/download"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/operations/upload"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/partsize"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// Client transfers files to and from a remote store.
// It is safe for concurrent use; every transfer owns its own file handles
// and worker pool.
type Client struct {
	remote     transfertypes.Remote
	config     transfertypes.ClientConfig
	logger     *slog.Logger
	downloader *download.Downloader
	uploader   *upload.Uploader
}

// New creates a new Client for remote with the provided options.
//
// Example:
//
//	client, err := transfer.New(remote,
//	    transfer.WithWorkers(8),
//	    transfer.WithMinPartSize(16*1024*1024),
//	)
func New(remote transfertypes.Remote, opts ...transfertypes.Option) (*Client, error) {
	if remote == nil {
		return nil, errors.NewError("client initialization", errors.ErrInvalidInput).
			WithMessage("remote cannot be nil")
	}

	cfg := transfertypes.ClientConfig{
		MinPartSize: partsize.DefaultMinPartSize,
		MaxParts:    partsize.MaxParts,
		Checksum:    checksum.Default,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.Filesystem == nil {
		cfg.Filesystem = afero.NewOsFs()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.ProgressOutput == nil {
		cfg.ProgressOutput = os.Stderr
	}
	if cfg.MinPartSize <= 0 {
		return nil, errors.NewError("client initialization", errors.ErrConfiguration).
			WithMessage("minimum part size must be positive")
	}
	if cfg.MaxParts <= 0 || cfg.MaxParts > partsize.MaxParts {
		return nil, errors.NewError("client initialization", errors.ErrConfiguration).
			WithMessage("max parts must be between 1 and 10000")
	}

	verifier, err := checksum.NewVerifier(cfg.Checksum)
	if err != nil {
		return nil, errors.NewError("client initialization", errors.ErrConfiguration).WithCause(err)
	}

	var m *metrics.Metrics
	if cfg.MetricsRegistry != nil {
		m, err = metrics.New(cfg.MetricsRegistry)
		if err != nil {
			return nil, errors.NewError("client initialization", errors.ErrConfiguration).WithCause(err)
		}
	}

	return &Client{
		remote: remote,
		config: cfg,
		logger: cfg.Logger,
		downloader: download.New(remote, download.Config{
			Filesystem: cfg.Filesystem,
			Verifier:   verifier,
			Workers:    cfg.Workers,
			Metrics:    m,
			Logger:     cfg.Logger.With("component", "download"),
		}),
		uploader: upload.New(remote, upload.Config{
			Filesystem:  cfg.Filesystem,
			MinPartSize: cfg.MinPartSize,
			MaxParts:    cfg.MaxParts,
			Metrics:     m,
			Logger:      cfg.Logger.With("component", "upload"),
		}),
	}, nil
}

// Remote returns the remote store the client transfers to.
func (c *Client) Remote() transfertypes.Remote {
	return c.remote
}
