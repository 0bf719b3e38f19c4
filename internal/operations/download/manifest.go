package download

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// BuildManifest orders the parts of info by numeric id and assigns offsets.
func BuildManifest(fileID string, info *transfertypes.ManifestInfo) (*transfertypes.Manifest, error) {
	if info == nil || info.Parts == nil {
		return nil, manifestError(fileID, "manifest has no parts")
	}
	if info.Size < 0 {
		return nil, manifestError(fileID, fmt.Sprintf("negative total size %d", info.Size))
	}

	parts := make([]transfertypes.Part, 0, len(info.Parts))
	seen := make(map[int]string, len(info.Parts))
	for id, p := range info.Parts {
		idx, err := strconv.Atoi(id)
		if err != nil || idx <= 0 {
			return nil, manifestError(fileID, fmt.Sprintf("invalid part id %q", id))
		}
		if prev, dup := seen[idx]; dup {
			return nil, manifestError(fileID, fmt.Sprintf("part ids %q and %q collide", prev, id))
		}
		seen[idx] = id
		if p.Size < 0 {
			return nil, manifestError(fileID, fmt.Sprintf("part %s has negative size %d", id, p.Size))
		}
		parts = append(parts, transfertypes.Part{
			ID:       id,
			Index:    idx,
			Size:     p.Size,
			Checksum: p.Checksum,
		})
	}

	sort.Slice(parts, func(i, j int) bool { return parts[i].Index < parts[j].Index })

	var offset int64
	for i := range parts {
		parts[i].Offset = offset
		offset += parts[i].Size
	}

	if info.Size > 0 && info.Size != offset {
		return nil, manifestError(fileID,
			fmt.Sprintf("declared size %d does not match part total %d", info.Size, offset))
	}

	return &transfertypes.Manifest{
		FileID:    fileID,
		TotalSize: offset,
		Parts:     parts,
	}, nil
}

func manifestError(fileID, msg string) error {
	return errors.NewFileError("manifest", fileID, errors.ErrManifest).WithMessage(msg)
}
