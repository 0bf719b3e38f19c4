// Package checksum computes and verifies part digests.
package checksum

import (
	"crypto/md5" //nolint:gosec // part digests are published as md5 by default
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// Default is the algorithm used when none is configured.
const Default = transfertypes.ChecksumMD5

// New returns a fresh hash for alg.
func New(alg transfertypes.ChecksumAlgorithm) (hash.Hash, error) {
	switch alg {
	case "", transfertypes.ChecksumMD5:
		return md5.New(), nil //nolint:gosec // see import
	case transfertypes.ChecksumSHA256:
		return sha256.New(), nil
	case transfertypes.ChecksumXXH64:
		return xxhash.New(), nil
	default:
		return nil, errors.NewError("checksum", errors.ErrConfiguration).
			WithMessage(fmt.Sprintf("unsupported checksum algorithm %q", alg))
	}
}

// Validate reports whether alg is supported.
func Validate(alg transfertypes.ChecksumAlgorithm) error {
	_, err := New(alg)
	return err
}

// Sum returns the lowercase hex digest of data.
func Sum(alg transfertypes.ChecksumAlgorithm, data []byte) (string, error) {
	if alg == transfertypes.ChecksumXXH64 {
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], xxhash.Sum64(data))
		return hex.EncodeToString(buf[:]), nil
	}
	h, err := New(alg)
	if err != nil {
		return "", err
	}
	_, _ = h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Verify reports whether data hashes to expected. The comparison is a
// case-insensitive match of hex strings.
func Verify(alg transfertypes.ChecksumAlgorithm, data []byte, expected string) bool {
	got, err := Sum(alg, data)
	if err != nil {
		return false
	}
	return strings.EqualFold(got, strings.TrimSpace(expected))
}

// Verifier binds an algorithm for repeated verification.
type Verifier struct {
	alg transfertypes.ChecksumAlgorithm
}

// NewVerifier creates a Verifier for alg.
func NewVerifier(alg transfertypes.ChecksumAlgorithm) (*Verifier, error) {
	if err := Validate(alg); err != nil {
		return nil, err
	}
	if alg == "" {
		alg = Default
	}
	return &Verifier{alg: alg}, nil
}

// Algorithm returns the bound algorithm.
func (v *Verifier) Algorithm() transfertypes.ChecksumAlgorithm {
	return v.alg
}

// Verify reports whether data hashes to expected.
func (v *Verifier) Verify(data []byte, expected string) bool {
	return Verify(v.alg, data, expected)
}

// Sum returns the hex digest of data.
func (v *Verifier) Sum(data []byte) string {
	s, _ := Sum(v.alg, data)
	return s
}
