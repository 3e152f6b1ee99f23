package digest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/gany/internal/adapters/digest"
	"go.trai.ch/gany/internal/core/domain"
)

func TestDigester_KnownVectors(t *testing.T) {
	sha, err := digest.New(domain.SHA3)
	require.NoError(t, err)
	assert.Equal(t,
		domain.Digest("sha3-256:a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a"),
		sha.Digest(nil))

	b3, err := digest.New(domain.BLAKE3)
	require.NoError(t, err)
	assert.Equal(t,
		domain.Digest("blake3:af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"),
		b3.Digest(nil))
}

func TestDigester_Verify(t *testing.T) {
	sha, err := digest.New(domain.SHA3)
	require.NoError(t, err)
	b3, err := digest.New(domain.BLAKE3)
	require.NoError(t, err)

	data := []byte("archive bytes")

	require.NoError(t, sha.Verify(data, sha.Digest(data)))
	require.NoError(t, sha.Verify(data, b3.Digest(data)), "verification follows the algorithm of the expected digest")

	tampered := append([]byte{}, data...)
	tampered[0] ^= 0xff
	require.ErrorIs(t, sha.Verify(tampered, sha.Digest(data)), domain.ErrIntegrity)

	require.ErrorIs(t, sha.Verify(data, "sha3-256:abcd"), domain.ErrInvalidDigest)
}

func TestNew_Unknown(t *testing.T) {
	_, err := digest.New("md5")
	require.ErrorIs(t, err, domain.ErrUnsupportedAlgorithm)
}
