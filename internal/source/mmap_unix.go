//go:build unix

package source

import (
	"golang.org/x/sys/unix"
)

const mmapSupported = true

func mapRegion(fd uintptr, offset int64, length int) ([]byte, error) {
	return unix.Mmap(int(fd), offset, length, unix.PROT_READ, unix.MAP_SHARED)
}

func unmapRegion(data []byte) error {
	return unix.Munmap(data)
}

func granularity() int64 {
	return int64(unix.Getpagesize())
}
