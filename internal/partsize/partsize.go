package partsize

import (
	"fmt"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
)

const (
	// MaxParts is the hard cap on parts per remote object
	MaxParts = 10000

	// DefaultMinPartSize is the smallest part size used when none is configured (8MB)
	DefaultMinPartSize = 8 * 1024 * 1024
)

// Request describes the inputs for a part size calculation.
type Request struct {
	// TotalSize is the object size in bytes, or 0 when unknown
	TotalSize int64

	// MinPartSize is the smallest acceptable part size
	MinPartSize int64

	// MaxParts is the maximum number of parts allowed
	MaxParts int

	// Aligned requests a multiple of Granularity for memory-mapped reads
	Aligned bool

	// Granularity is the platform memory-map granularity
	Granularity int64
}

// Calculate returns the smallest part size of at least MinPartSize that
// splits TotalSize into no more than MaxParts parts.
func Calculate(req Request) (int64, error) {
	if err := validate(req); err != nil {
		return 0, err
	}

	partSize := max(req.MinPartSize, ceilDiv(req.TotalSize, int64(req.MaxParts)))

	if req.Aligned {
		partSize = ceilDiv(partSize, req.Granularity) * req.Granularity
	}

	if req.TotalSize > 0 && ceilDiv(req.TotalSize, partSize) > int64(req.MaxParts) {
		return 0, errors.NewError("partsize", errors.ErrConfiguration).
			WithMessage(fmt.Sprintf("part size %d cannot fit %d bytes in %d parts", partSize, req.TotalSize, req.MaxParts))
	}
	if req.Aligned && partSize%req.Granularity != 0 {
		return 0, errors.NewError("partsize", errors.ErrConfiguration).
			WithMessage(fmt.Sprintf("part size %d is not a multiple of %d", partSize, req.Granularity))
	}

	return partSize, nil
}

// Count returns the number of parts needed for totalSize at partSize.
func Count(totalSize, partSize int64) int {
	if totalSize <= 0 || partSize <= 0 {
		return 0
	}
	return int(ceilDiv(totalSize, partSize))
}

func validate(req Request) error {
	switch {
	case req.TotalSize < 0:
		return errors.NewError("partsize", errors.ErrConfiguration).WithMessage("total size cannot be negative")
	case req.MinPartSize <= 0:
		return errors.NewError("partsize", errors.ErrConfiguration).WithMessage("minimum part size must be positive")
	case req.MaxParts <= 0:
		return errors.NewError("partsize", errors.ErrConfiguration).WithMessage("maximum part count must be positive")
	case req.Aligned && req.Granularity <= 0:
		return errors.NewError("partsize", errors.ErrConfiguration).WithMessage("alignment granularity must be positive")
	}
	return nil
}

func ceilDiv(a, b int64) int64 {
	if a == 0 {
		return 0
	}
	return (a + b - 1) / b
}
