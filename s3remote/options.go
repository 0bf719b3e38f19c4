package s3remote

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/httpfetch"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// Option configures a Remote.
type Option func(*config)

type config struct {
	prefix      string
	presignTTL  time.Duration
	waitTimeout time.Duration
	checksum    transfertypes.ChecksumAlgorithm
	fetchOpts   []httpfetch.Option
	logger      *slog.Logger
	endpoint    string
	pathStyle   bool
}

// WithPrefix stores objects under prefix. The prefix is used verbatim, so
// include a trailing slash for directory-like layouts.
func WithPrefix(prefix string) Option {
	return func(c *config) {
		c.prefix = prefix
	}
}

// WithPresignTTL sets how long fetch descriptors stay valid.
// Default is 15 minutes.
func WithPresignTTL(ttl time.Duration) Option {
	return func(c *config) {
		if ttl > 0 {
			c.presignTTL = ttl
		}
	}
}

// WithWaitTimeout bounds how long a blocking Finalize waits for the object
// to become visible. Default is 2 minutes.
func WithWaitTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.waitTimeout = d
		}
	}
}

// WithChecksum sets the algorithm used for published part checksums.
// Default is md5.
func WithChecksum(alg transfertypes.ChecksumAlgorithm) Option {
	return func(c *config) {
		c.checksum = alg
	}
}

// WithHTTPClient sets the HTTP client used for ranged reads.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) {
		c.fetchOpts = append(c.fetchOpts, httpfetch.WithHTTPClient(client))
	}
}

// WithFetchRetries sets how many times a failed ranged read is retried.
// Default is 4.
func WithFetchRetries(n int) Option {
	return func(c *config) {
		c.fetchOpts = append(c.fetchOpts, httpfetch.WithMaxRetries(n))
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithEndpoint sets a custom S3 endpoint URL for NewFromConfig.
// This is useful for S3-compatible services or local testing with LocalStack.
func WithEndpoint(endpoint string) Option {
	return func(c *config) {
		c.endpoint = endpoint
	}
}

// WithPathStyle forces path-style addressing for NewFromConfig.
func WithPathStyle(pathStyle bool) Option {
	return func(c *config) {
		c.pathStyle = pathStyle
	}
}
