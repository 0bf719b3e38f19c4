//go:build !unix

package source

import (
	"errors"
	"os"
)

const mmapSupported = false

var errNoMmap = errors.New("memory mapping is not supported on this platform")

func mapRegion(uintptr, int64, int) ([]byte, error) {
	return nil, errNoMmap
}

func unmapRegion([]byte) error {
	return errNoMmap
}

func granularity() int64 {
	return int64(os.Getpagesize())
}
