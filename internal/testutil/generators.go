// Package testutil provides test data generators.
package testutil

import (
	"math/rand"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// TestDataGenerator provides methods for generating test data.
type TestDataGenerator struct {
	rand *rand.Rand
}

// NewTestDataGenerator creates a new test data generator with a seeded random source.
func NewTestDataGenerator(seed int64) *TestDataGenerator {
	return &TestDataGenerator{
		rand: rand.New(rand.NewSource(seed)),
	}
}

// GenerateData returns size deterministic pseudo-random bytes.
func (g *TestDataGenerator) GenerateData(size int) []byte {
	data := make([]byte, size)
	_, _ = g.rand.Read(data)
	return data
}

// GenerateParts returns parts of the given sizes.
func (g *TestDataGenerator) GenerateParts(sizes ...int) [][]byte {
	parts := make([][]byte, len(sizes))
	for i, size := range sizes {
		parts[i] = g.GenerateData(size)
	}
	return parts
}

// GenerateManifest builds a manifest answer with md5 checksums for parts.
func (g *TestDataGenerator) GenerateManifest(parts [][]byte) *transfertypes.ManifestInfo {
	info := &transfertypes.ManifestInfo{
		Parts: make(map[string]transfertypes.PartInfo, len(parts)),
		State: transfertypes.StateClosed,
	}
	for i, p := range parts {
		info.Parts[strconv.Itoa(i+1)] = transfertypes.PartInfo{
			Size:     int64(len(p)),
			Checksum: CalculateMD5(p),
		}
		info.Size += int64(len(p))
	}
	return info
}

// GenerateS3Error generates a NoSuchKey error as returned by the SDK.
func (g *TestDataGenerator) GenerateS3Error(message string) *types.NoSuchKey {
	return &types.NoSuchKey{
		Message: StringPtr(message),
	}
}

// Join concatenates parts.
func Join(parts [][]byte) []byte {
	var n int
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
