// Package download implements the resumable, checksum-verified download
// engine.
//
// A download fetches the part manifest of a remote file, verifies any parts
// already present in the local destination, and fetches the remaining parts
// with a bounded worker pool. Parts are written strictly in order and each
// part is verified before any of its bytes reach the destination.
package download
