package transfer

import (
	"bytes"
	"context"
	"io"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/progress"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// Download downloads the remote file fileID to localPath.
//
// Parts already present and valid at localPath are kept: the existing file
// is verified part by part, truncated after the last valid part, and only the
// remaining parts are fetched. With WithAppend the fetched bytes are appended
// to whatever localPath contains instead.
//
// Returns:
//   - *DownloadResult: Contains the size, part counts, and duration
//   - error: Returns an error if the download fails
//
// Errors:
//   - ErrInvalidInput: If fileID or localPath is invalid
//   - ErrManifest: If the remote manifest is missing or malformed
//   - ErrPartIntegrity: If a fetched part has the wrong length
//   - ErrChecksumMismatch: If a fetched part fails verification
//   - ErrLocalFileMismatch: If localPath is longer than the remote file
//   - ErrTransfer: If the remote or the local file fails
//
// Example:
//
//	result, err := client.Download(ctx, "file-2HbR6u...", "/tmp/report.pdf",
//	    transfer.WithShowProgress(true),
//	)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("Fetched %d of %d bytes in %v\n", result.BytesFetched, result.Size, result.Duration)
func (c *Client) Download(
	ctx context.Context,
	fileID, localPath string,
	opts ...transfertypes.DownloadOption,
) (*transfertypes.DownloadResult, error) {
	if err := validation.ValidateFileID(fileID); err != nil {
		return nil, err
	}
	if err := validation.ValidateLocalPath(localPath); err != nil {
		return nil, err
	}

	config := &transfertypes.DownloadOptionConfig{}
	for _, opt := range opts {
		opt(config)
	}
	if config.ShowProgress {
		reporter := progress.NewReporter(c.config.ProgressOutput, localPath)
		if config.ProgressTracker != nil {
			config.ProgressTracker = progress.Multi(reporter, config.ProgressTracker)
		} else {
			config.ProgressTracker = reporter
		}
	}

	result, err := c.downloader.DownloadFile(ctx, fileID, localPath, config)
	if err != nil {
		c.logger.Debug("download failed", "file_id", fileID, "path", localPath, "error", err)
		return nil, err
	}
	return result, nil
}

// UploadFile uploads the local file at path to a new remote file.
// Large files are read through memory-mapped windows unless
// WithMemoryMap(false) is given.
//
// Example:
//
//	file, err := client.UploadFile(ctx, "/data/archive.tar",
//	    transfer.WithWaitOnClose(true),
//	)
func (c *Client) UploadFile(
	ctx context.Context,
	path string,
	opts ...transfertypes.UploadOption,
) (*transfertypes.RemoteFile, error) {
	if err := validation.ValidateLocalPath(path); err != nil {
		return nil, err
	}
	config, err := c.uploadConfig(opts)
	if err != nil {
		return nil, errors.NewError("uploadFile", errors.ErrInvalidInput).WithPath(path).WithCause(err)
	}
	return c.uploader.UploadFile(ctx, path, config)
}

// Upload uploads everything read from reader to a new remote file.
// Readers that expose Stat, such as *os.File, report their size; any other
// reader is split into parts of the minimum part size.
func (c *Client) Upload(
	ctx context.Context,
	reader io.Reader,
	opts ...transfertypes.UploadOption,
) (*transfertypes.RemoteFile, error) {
	if reader == nil {
		return nil, errors.NewError("upload", errors.ErrInvalidInput).
			WithMessage("reader cannot be nil")
	}
	config, err := c.uploadConfig(opts)
	if err != nil {
		return nil, errors.NewError("upload", errors.ErrInvalidInput).WithCause(err)
	}
	return c.uploader.Upload(ctx, reader, config)
}

// UploadBytes uploads data to a new remote file.
// This is a convenience method for small in-memory payloads.
func (c *Client) UploadBytes(
	ctx context.Context,
	data []byte,
	opts ...transfertypes.UploadOption,
) (*transfertypes.RemoteFile, error) {
	return c.Upload(ctx, bytes.NewReader(data), opts...)
}

func (c *Client) uploadConfig(opts []transfertypes.UploadOption) (*transfertypes.UploadOptionConfig, error) {
	config := &transfertypes.UploadOptionConfig{MemoryMap: true}
	for _, opt := range opts {
		opt(config)
	}

	if err := validation.ValidateName(config.Name); err != nil {
		return nil, err
	}
	if err := validation.ValidateContentType(config.MediaType); err != nil {
		return nil, err
	}
	if config.Target != nil {
		if err := validation.ValidateFileID(config.Target.ID); err != nil {
			return nil, err
		}
		if config.Target.State != transfertypes.StateOpen {
			return nil, errors.NewFileError("upload", config.Target.ID, errors.ErrInvalidState).
				WithMessage("target is " + config.Target.State.String())
		}
	}
	return config, nil
}
