package download

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// DefaultRefreshMargin is how long before expiry a descriptor is replaced.
const DefaultRefreshMargin = 30 * time.Second

// descriptorCache shares one fetch descriptor between the workers of a
// download. Concurrent refreshes collapse into a single request.
type descriptorCache struct {
	source transfertypes.PartSource
	fileID string
	margin time.Duration
	now    func() time.Time

	group   singleflight.Group
	mu      sync.Mutex
	current *transfertypes.FetchDescriptor
}

func newDescriptorCache(
	source transfertypes.PartSource,
	fileID string,
	margin time.Duration,
	now func() time.Time,
) *descriptorCache {
	return &descriptorCache{source: source, fileID: fileID, margin: margin, now: now}
}

// Get returns a descriptor that is not about to expire.
func (c *descriptorCache) Get(ctx context.Context) (*transfertypes.FetchDescriptor, error) {
	if d := c.fresh(); d != nil {
		return d, nil
	}

	v, err, _ := c.group.Do(c.fileID, func() (any, error) {
		if d := c.fresh(); d != nil {
			return d, nil
		}
		d, err := c.source.GetFetchDescriptor(ctx, c.fileID)
		if err != nil {
			return nil, errors.NewFileError("fetchDescriptor", c.fileID, errors.ErrTransfer).WithCause(err)
		}
		if d == nil || d.URL == "" {
			return nil, errors.NewFileError("fetchDescriptor", c.fileID, errors.ErrTransfer).
				WithMessage("remote returned an empty fetch descriptor")
		}
		c.mu.Lock()
		c.current = d
		c.mu.Unlock()
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*transfertypes.FetchDescriptor), nil
}

func (c *descriptorCache) fresh() *transfertypes.FetchDescriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil && !c.current.Expiring(c.now(), c.margin) {
		return c.current
	}
	return nil
}
