// Package transfer provides a chunked transfer client for remote file stores.
//
// Files are stored remotely as an ordered list of parts, each with a
// published checksum. The client uploads local files and streams part by part
// and downloads remote files with a bounded pool of concurrent range fetches.
// Downloads verify every part before writing it and resume from whatever
// valid prefix already exists at the destination.
//
// The remote store is any transfertypes.Remote. The s3remote package provides
// one backed by S3 multipart uploads.
//
// Example usage:
//
//	awsCfg, err := config.LoadDefaultConfig(ctx)
//	if err != nil {
//	    return err
//	}
//	remote, err := s3remote.NewFromConfig(awsCfg, "my-bucket", s3remote.WithPrefix("files/"))
//	if err != nil {
//	    return err
//	}
//	client, err := transfer.New(remote, transfer.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//
//	file, err := client.UploadFile(ctx, "/data/archive.tar")
//	if err != nil {
//	    return err
//	}
//
//	result, err := client.Download(ctx, file.ID, "/restore/archive.tar",
//	    transfer.WithShowProgress(true),
//	)
package transfer
