// Package compress implements archive compression with lz4 frames and zstd.
package compress

import (
	"bytes"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"go.trai.ch/gany/internal/core/domain"
	"go.trai.ch/gany/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Compressor = (*Codec)(nil)

var (
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// zstd encoders and decoders are safe for concurrent use and expensive to build.
var (
	zstdEncoder = sync.OnceValues(func() (*zstd.Encoder, error) {
		return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithZeroFrames(true))
	})
	zstdDecoder = sync.OnceValues(func() (*zstd.Decoder, error) {
		return zstd.NewReader(nil)
	})
)

// Codec compresses with a configured format and decompresses any supported format.
type Codec struct {
	kind domain.Compression
}

// New creates a Codec writing the given format.
func New(kind domain.Compression) (*Codec, error) {
	switch kind {
	case domain.LZ4, domain.Zstd:
		return &Codec{kind: kind}, nil
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrUnsupportedAlgorithm, "unknown compression"), "compression", string(kind))
	}
}

// Kind returns the format written by Compress.
func (c *Codec) Kind() domain.Compression {
	return c.kind
}

// Compress compresses data into a self-describing frame.
func (c *Codec) Compress(data []byte) ([]byte, error) {
	if c.kind == domain.Zstd {
		enc, err := zstdEncoder()
		if err != nil {
			return nil, zerr.Wrap(err, "failed to initialize zstd encoder")
		}
		return enc.EncodeAll(data, nil), nil
	}

	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, zerr.Wrap(err, "lz4 compress")
	}
	if err := w.Close(); err != nil {
		return nil, zerr.Wrap(err, "lz4 compress")
	}
	return buf.Bytes(), nil
}

// Decompress detects the frame format and decompresses data.
func (c *Codec) Decompress(data []byte) ([]byte, error) {
	kind, ok := Detect(data)
	if !ok {
		return nil, zerr.Wrap(domain.ErrCorruptArchive, "unrecognized compression frame")
	}

	switch kind {
	case domain.Zstd:
		dec, err := zstdDecoder()
		if err != nil {
			return nil, zerr.Wrap(err, "failed to initialize zstd decoder")
		}
		out, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrCorruptArchive, "zstd decompress"), "cause", err.Error())
		}
		return out, nil
	default:
		out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrCorruptArchive, "lz4 decompress"), "cause", err.Error())
		}
		return out, nil
	}
}

// Detect reports the compression format of data from its magic number.
func Detect(data []byte) (domain.Compression, bool) {
	switch {
	case bytes.HasPrefix(data, lz4Magic):
		return domain.LZ4, true
	case bytes.HasPrefix(data, zstdMagic):
		return domain.Zstd, true
	default:
		return "", false
	}
}
