package main

import (
	"context"
	"io"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"

	transfer "github.com/input-output-hk/catalyst-forge-libs/transfer"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/config"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/s3remote"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// remoteFactory builds the remote store commands transfer against.
type remoteFactory func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (transfertypes.Remote, error)

type app struct {
	configPath string
	bucket     string
	prefix     string
	endpoint   string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	newRemote remoteFactory

	cfg    *config.Config
	logger *slog.Logger
	client *transfer.Client
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		stdin:     stdin,
		stdout:    stdout,
		stderr:    stderr,
		newRemote: s3Remote,
	}
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "partxfer",
		Short:         "Transfer chunked files to and from S3",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file")
	flags.StringVar(&a.bucket, "bucket", "", "S3 bucket (overrides s3.bucket)")
	flags.StringVar(&a.prefix, "prefix", "", "object key prefix (overrides s3.prefix)")
	flags.StringVar(&a.endpoint, "endpoint", "", "custom S3 endpoint (overrides s3.endpoint)")

	cmd.AddCommand(newDownloadCommand(a), newUploadCommand(a))
	return cmd
}

func (a *app) setup(ctx context.Context) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.bucket != "" {
		cfg.S3.Bucket = a.bucket
	}
	if a.prefix != "" {
		cfg.S3.Prefix = a.prefix
	}
	if a.endpoint != "" {
		cfg.S3.Endpoint = a.endpoint
	}

	a.cfg = cfg
	a.logger = cfg.Logger(a.stderr)

	remote, err := a.newRemote(ctx, cfg, a.logger)
	if err != nil {
		return err
	}

	opts := append(cfg.ClientOptions(),
		transfer.WithLogger(a.logger),
		transfer.WithProgressOutput(a.stderr),
	)
	client, err := transfer.New(remote, opts...)
	if err != nil {
		return err
	}
	a.client = client
	return nil
}

func s3Remote(ctx context.Context, cfg *config.Config, logger *slog.Logger) (transfertypes.Remote, error) {
	if cfg.S3.Bucket == "" {
		return nil, errors.NewError("partxfer", errors.ErrConfiguration).
			WithMessage("no bucket configured; set s3.bucket, PARTXFER_S3_BUCKET or --bucket")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.S3.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.S3.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.NewError("partxfer", errors.ErrConfiguration).WithCause(err)
	}

	opts := append(cfg.RemoteOptions(), s3remote.WithLogger(logger))
	remote, err := s3remote.NewFromConfig(awsCfg, cfg.S3.Bucket, opts...)
	if err != nil {
		return nil, err
	}
	return remote, nil
}
