// Package digest implements content addressing of package archives.
package digest

import (
	"crypto/subtle"

	"github.com/zeebo/blake3"
	"go.trai.ch/gany/internal/core/domain"
	"go.trai.ch/gany/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/crypto/sha3"
)

var _ ports.Digester = (*Digester)(nil)

// Digester hashes archives with a configured algorithm and verifies digests of any
// supported algorithm.
type Digester struct {
	algo domain.Algorithm
}

// New creates a Digester producing digests with algo.
func New(algo domain.Algorithm) (*Digester, error) {
	if _, err := sum(algo, nil); err != nil {
		return nil, err
	}
	return &Digester{algo: algo}, nil
}

// Algorithm returns the algorithm used by Digest.
func (d *Digester) Algorithm() domain.Algorithm {
	return d.algo
}

// Digest hashes data.
func (d *Digester) Digest(data []byte) domain.Digest {
	raw, _ := sum(d.algo, data)
	return domain.NewDigest(d.algo, raw)
}

// Verify checks that data hashes to expected. The comparison does not stop at the
// first differing byte.
func (d *Digester) Verify(data []byte, expected domain.Digest) error {
	want := expected.Bytes()
	if len(want) != domain.DigestSize {
		return zerr.With(zerr.Wrap(domain.ErrInvalidDigest, "cannot verify archive"), "digest", expected.String())
	}

	got, err := sum(expected.Algorithm(), data)
	if err != nil {
		return err
	}

	if subtle.ConstantTimeCompare(got, want) != 1 {
		err := zerr.With(zerr.Wrap(domain.ErrIntegrity, "archive digest mismatch"), "expected", expected.String())
		return zerr.With(err, "actual", domain.NewDigest(expected.Algorithm(), got).String())
	}
	return nil
}

func sum(algo domain.Algorithm, data []byte) ([]byte, error) {
	switch algo {
	case domain.SHA3:
		s := sha3.Sum256(data)
		return s[:], nil
	case domain.BLAKE3:
		s := blake3.Sum256(data)
		return s[:], nil
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrUnsupportedAlgorithm, "unknown digest algorithm"), "algorithm", string(algo))
	}
}
