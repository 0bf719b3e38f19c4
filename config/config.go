// Package config loads transfer client settings from a YAML file and
// PARTXFER_* environment variables.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	transfer "github.com/input-output-hk/catalyst-forge-libs/transfer"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/checksum"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/partsize"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/s3remote"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// EnvPrefix prefixes environment overrides, e.g. PARTXFER_S3_BUCKET.
const EnvPrefix = "PARTXFER"

// Config is the complete partxfer configuration.
type Config struct {
	S3       S3Config       `mapstructure:"s3" yaml:"s3"`
	Transfer TransferConfig `mapstructure:"transfer" yaml:"transfer"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`

	minPartSize int64
}

// S3Config selects the bucket and tunes the S3 remote.
type S3Config struct {
	Bucket       string        `mapstructure:"bucket" yaml:"bucket"`
	Prefix       string        `mapstructure:"prefix" yaml:"prefix"`
	Region       string        `mapstructure:"region" yaml:"region"`
	Endpoint     string        `mapstructure:"endpoint" yaml:"endpoint"`
	PathStyle    bool          `mapstructure:"path_style" yaml:"path_style"`
	PresignTTL   time.Duration `mapstructure:"presign_ttl" yaml:"presign_ttl"`
	WaitTimeout  time.Duration `mapstructure:"wait_timeout" yaml:"wait_timeout"`
	FetchRetries int           `mapstructure:"fetch_retries" yaml:"fetch_retries"`
}

// TransferConfig holds client-side part sizing, checksum and concurrency settings.
type TransferConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers"`

	// MinPartSize is a human readable size such as "8MiB" or "16MB"
	MinPartSize string `mapstructure:"min_part_size" yaml:"min_part_size"`
	MaxParts    int    `mapstructure:"max_parts" yaml:"max_parts"`
	Checksum    string `mapstructure:"checksum" yaml:"checksum"`
}

// LogConfig controls the slog handler built by Logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Load reads settings from path, then applies environment overrides.
// An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.prefix", "")
	v.SetDefault("s3.region", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.path_style", false)
	v.SetDefault("s3.presign_ttl", 15*time.Minute)
	v.SetDefault("s3.wait_timeout", 2*time.Minute)
	v.SetDefault("s3.fetch_retries", 4)
	v.SetDefault("transfer.workers", 0)
	v.SetDefault("transfer.min_part_size", "8MiB")
	v.SetDefault("transfer.max_parts", partsize.MaxParts)
	v.SetDefault("transfer.checksum", string(checksum.Default))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, errors.NewError("loadConfig", errors.ErrConfiguration).
				WithPath(path).
				WithCause(err)
		}
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewError("loadConfig", errors.ErrConfiguration).
				WithPath(path).
				WithCause(err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.NewError("loadConfig", errors.ErrConfiguration).WithCause(err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	size, err := humanize.ParseBytes(c.Transfer.MinPartSize)
	if err != nil {
		return invalid(fmt.Sprintf("transfer.min_part_size %q is not a size", c.Transfer.MinPartSize))
	}
	if size == 0 {
		return invalid("transfer.min_part_size must be positive")
	}
	c.minPartSize = int64(size)

	if c.Transfer.MaxParts < 1 || c.Transfer.MaxParts > partsize.MaxParts {
		return invalid(fmt.Sprintf("transfer.max_parts must be between 1 and %d", partsize.MaxParts))
	}
	if c.Transfer.Workers < 0 {
		return invalid("transfer.workers cannot be negative")
	}
	if err := checksum.Validate(transfertypes.ChecksumAlgorithm(c.Transfer.Checksum)); err != nil {
		return err
	}
	if c.S3.FetchRetries < 0 {
		return invalid("s3.fetch_retries cannot be negative")
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return invalid(fmt.Sprintf("log.format %q must be text or json", c.Log.Format))
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return invalid(fmt.Sprintf("log.level %q is not a level", c.Log.Level))
	}

	return nil
}

func invalid(msg string) error {
	return errors.NewError("loadConfig", errors.ErrConfiguration).WithMessage(msg)
}

// MinPartSize returns the parsed transfer.min_part_size in bytes.
func (c *Config) MinPartSize() int64 {
	return c.minPartSize
}

// ClientOptions converts the transfer settings into client options.
func (c *Config) ClientOptions() []transfertypes.Option {
	opts := []transfertypes.Option{
		transfer.WithMinPartSize(c.minPartSize),
		transfer.WithMaxParts(c.Transfer.MaxParts),
		transfer.WithChecksum(transfertypes.ChecksumAlgorithm(c.Transfer.Checksum)),
	}
	if c.Transfer.Workers > 0 {
		opts = append(opts, transfer.WithWorkers(c.Transfer.Workers))
	}
	return opts
}

// RemoteOptions converts the S3 settings into remote options.
func (c *Config) RemoteOptions() []s3remote.Option {
	opts := []s3remote.Option{
		s3remote.WithPrefix(c.S3.Prefix),
		s3remote.WithPresignTTL(c.S3.PresignTTL),
		s3remote.WithWaitTimeout(c.S3.WaitTimeout),
		s3remote.WithFetchRetries(c.S3.FetchRetries),
		s3remote.WithChecksum(transfertypes.ChecksumAlgorithm(c.Transfer.Checksum)),
		s3remote.WithPathStyle(c.S3.PathStyle),
	}
	if c.S3.Endpoint != "" {
		opts = append(opts, s3remote.WithEndpoint(c.S3.Endpoint))
	}
	return opts
}

// Logger builds a logger writing to w in the configured format and level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	_ = level.UnmarshalText([]byte(c.Log.Level))

	handlerOpts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}
