package domain

import (
	"encoding/hex"
	"strings"

	"go.trai.ch/zerr"
)

// Algorithm names a digest algorithm.
type Algorithm string

const (
	// SHA3 is SHA3-256, the default digest algorithm.
	SHA3 Algorithm = "sha3-256"
	// BLAKE3 is the 256-bit BLAKE3 digest.
	BLAKE3 Algorithm = "blake3"
)

// DigestSize is the size in bytes of every supported digest.
const DigestSize = 32

// Digest is the content address of a compressed package archive, in the form "<algorithm>:<hex>".
type Digest string

// NewDigest builds a Digest from raw hash bytes.
func NewDigest(algo Algorithm, sum []byte) Digest {
	return Digest(string(algo) + ":" + hex.EncodeToString(sum))
}

// ParseDigest validates a textual digest. A bare hex string is read as SHA3-256.
func ParseDigest(s string) (Digest, error) {
	algo, encoded, found := strings.Cut(s, ":")
	if !found {
		algo, encoded = string(SHA3), s
	}
	switch Algorithm(algo) {
	case SHA3, BLAKE3:
	default:
		return "", zerr.With(zerr.Wrap(ErrUnsupportedAlgorithm, "unknown digest algorithm"), "algorithm", algo)
	}
	raw, err := hex.DecodeString(encoded)
	if err != nil || len(raw) != DigestSize {
		return "", zerr.With(zerr.Wrap(ErrInvalidDigest, "digest must be 32 hex encoded bytes"), "digest", s)
	}
	return NewDigest(Algorithm(algo), raw), nil
}

// Algorithm returns the algorithm part of the digest.
func (d Digest) Algorithm() Algorithm {
	algo, _, found := strings.Cut(string(d), ":")
	if !found {
		return SHA3
	}
	return Algorithm(algo)
}

// Bytes returns the decoded hash, or nil when the digest is malformed.
func (d Digest) Bytes() []byte {
	_, encoded, found := strings.Cut(string(d), ":")
	if !found {
		encoded = string(d)
	}
	raw, err := hex.DecodeString(encoded)
	if err != nil {
		return nil
	}
	return raw
}

func (d Digest) String() string { return string(d) }

// Short returns an abbreviated form for display.
func (d Digest) Short() string {
	_, encoded, found := strings.Cut(string(d), ":")
	if !found {
		encoded = string(d)
	}
	if len(encoded) > 12 {
		encoded = encoded[:12]
	}
	return encoded
}
