// Package pool provides memory management optimizations.
// It reuses part-sized buffers across resume scans and sequential reads
// to reduce allocations on large transfers.
package pool
