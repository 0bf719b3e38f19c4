// Package internal contains private implementation details for the transfer module.
// These packages are not intended for external use and may change without notice.
//
// The internal packages are organized as follows:
//   - operations: download and upload engines
//   - partsize: upload part size calculation
//   - checksum: part digests
//   - source: sequential and memory-mapped upload sources
//   - httpfetch: ranged HTTP reads with retry
//   - progress: progress line rendering
//   - validation: input validation logic
//   - pool: buffer reuse
//   - metrics, interrupt, s3api, testutil: supporting infrastructure
package internal
