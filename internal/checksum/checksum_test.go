package checksum

import (
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

func TestSum(t *testing.T) {
	tests := []struct {
		name string
		alg  transfertypes.ChecksumAlgorithm
		data string
		want string
	}{
		{"md5 empty", transfertypes.ChecksumMD5, "", "d41d8cd98f00b204e9800998ecf8427e"},
		{"md5 default", "", "hello", "5d41402abc4b2a76b9719d911017c592"},
		{"sha256", transfertypes.ChecksumSHA256, "hello", "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sum(tt.alg, []byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSum_XXH64MatchesStreamingHash(t *testing.T) {
	data := []byte("part payload")

	h, err := New(transfertypes.ChecksumXXH64)
	require.NoError(t, err)
	_, _ = h.Write(data)

	got, err := Sum(transfertypes.ChecksumXXH64, data)
	require.NoError(t, err)
	assert.Len(t, got, 16)
	assert.Equal(t, xxhash.Sum64(data), h.(*xxhash.Digest).Sum64())
}

func TestVerify(t *testing.T) {
	data := []byte("hello")

	assert.True(t, Verify(transfertypes.ChecksumMD5, data, "5d41402abc4b2a76b9719d911017c592"))
	assert.True(t, Verify(transfertypes.ChecksumMD5, data, "5D41402ABC4B2A76B9719D911017C592"))
	assert.False(t, Verify(transfertypes.ChecksumMD5, data, "00000000000000000000000000000000"))
	assert.False(t, Verify(transfertypes.ChecksumMD5, []byte("hellO"), "5d41402abc4b2a76b9719d911017c592"))
	assert.False(t, Verify("crc7", data, "anything"))
}

func TestNewVerifier(t *testing.T) {
	v, err := NewVerifier("")
	require.NoError(t, err)
	assert.Equal(t, transfertypes.ChecksumMD5, v.Algorithm())
	assert.True(t, v.Verify([]byte("hello"), v.Sum([]byte("hello"))))

	_, err = NewVerifier("crc7")
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}
