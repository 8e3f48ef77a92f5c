// Package compression block compression of captured frames
package compression

import (
	"bytes"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
	"github.com/rasky/go-lzo"

	"github.com/forest33/rawlink/business/entity"
)

const defaultZSTDLevel entity.CompressionLevel = 2

type Compressor struct {
	cfg         *Config
	zstdEncoder map[entity.CompressionLevel]*zstd.Encoder
	zstdDecoder *zstd.Decoder
}

type Config struct {
	// FrameSize upper bound of a decompressed frame
	FrameSize int
}

func New(cfg *Config) *Compressor {
	zstdEncoder := make(map[entity.CompressionLevel]*zstd.Encoder, 4)
	zstdDecoder, _ := zstd.NewReader(nil)

	for l := zstd.SpeedFastest; l <= zstd.SpeedBestCompression; l++ {
		enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(l))
		zstdEncoder[entity.CompressionLevel(l)] = enc
	}

	return &Compressor{
		cfg:         cfg,
		zstdEncoder: zstdEncoder,
		zstdDecoder: zstdDecoder,
	}
}

// Compress returns the compressed frame and true, or the frame itself and
// false when compressing does not make it smaller.
func (c *Compressor) Compress(t entity.CompressionType, level entity.CompressionLevel, frame []byte) ([]byte, bool) {
	switch t {
	case entity.CompressionLZ4:
		return c.CompressLZ4(frame)
	case entity.CompressionLZO:
		return c.CompressLZO(frame)
	case entity.CompressionZSTD:
		return c.CompressZSTD(frame, level)
	default:
		return frame, false
	}
}

func (c *Compressor) Decompress(t entity.CompressionType, data []byte) ([]byte, error) {
	switch t {
	case entity.CompressionLZ4:
		return c.DecompressLZ4(data)
	case entity.CompressionLZO:
		return c.DecompressLZO(data)
	case entity.CompressionZSTD:
		return c.DecompressZSTD(data)
	default:
		return data, nil
	}
}

func (c *Compressor) CompressLZ4(in []byte) ([]byte, bool) {
	buf := make([]byte, lz4.CompressBlockBound(len(in)))

	n, err := lz4.CompressBlock(in, buf, nil)
	if err != nil || n == 0 || n >= len(in) {
		return in, false
	}

	return buf[:n], true
}

func (c *Compressor) DecompressLZ4(in []byte) ([]byte, error) {
	out := make([]byte, c.cfg.FrameSize)

	n, err := lz4.UncompressBlock(in, out)
	if err != nil {
		return nil, errors.Wrap(err, "lz4")
	}

	return out[:n], nil
}

func (c *Compressor) CompressLZO(in []byte) ([]byte, bool) {
	out := lzo.Compress1X(in)
	if len(out) >= len(in) {
		return in, false
	}
	return out, true
}

func (c *Compressor) DecompressLZO(in []byte) ([]byte, error) {
	out, err := lzo.Decompress1X(bytes.NewReader(in), len(in), c.cfg.FrameSize)
	if err != nil {
		return nil, errors.Wrap(err, "lzo")
	}
	return out, nil
}

func (c *Compressor) CompressZSTD(in []byte, level entity.CompressionLevel) ([]byte, bool) {
	enc, ok := c.zstdEncoder[level]
	if !ok {
		enc = c.zstdEncoder[defaultZSTDLevel]
	}
	out := enc.EncodeAll(in, make([]byte, 0, len(in)))
	if len(out) >= len(in) {
		return in, false
	}
	return out, true
}

func (c *Compressor) DecompressZSTD(in []byte) ([]byte, error) {
	out, err := c.zstdDecoder.DecodeAll(in, make([]byte, 0, c.cfg.FrameSize))
	if err != nil {
		return nil, errors.Wrap(err, "zstd")
	}
	return out, nil
}
