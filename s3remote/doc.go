// Package s3remote stores transfer files in an S3 bucket.
//
// Each remote file is a single object written with an S3 multipart upload:
// CreateFile starts the upload, AppendPart uploads part N as multipart part
// N, and Finalize completes the upload. Finalize also writes a JSON manifest
// next to the object (<key>.manifest.json) listing every part with its size
// and checksum. Downloads read that manifest and fetch byte ranges of the
// object through presigned GET URLs.
//
// S3 limits multipart uploads to 10,000 parts of at least 5MB each (except
// the last), which matches the transfer client's defaults.
package s3remote
