package connections

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionType selects the codec applied to a saved payload.
type CompressionType uint8

const (
	// CompressionNone stores the payload as is.
	CompressionNone CompressionType = 0
	// CompressionLZ4 uses LZ4 block compression, fast with a moderate ratio.
	CompressionLZ4 CompressionType = 1
	// CompressionZSTD uses ZSTD, slower with a better ratio.
	CompressionZSTD CompressionType = 2
)

func (t CompressionType) String() string {
	switch t {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(t))
	}
}

// ParseCompression maps "none" (or ""), "lz4" and "zstd" to a codec.
func ParseCompression(s string) (CompressionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return CompressionNone, fmt.Errorf("%w: compression %q", ErrInvalidArgument, s)
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxPayloadSize))
	return dec
}

const (
	sizePrefix = 4
	//upper bound on a decoded payload
	maxPayloadSize = 1 << 30
	//an LZ4 block cannot expand more than this
	lz4MaxRatio = 255
)

// compressPayload encodes data with the requested codec. Compressed output is
// prefixed with the uncompressed size. It returns the codec actually used:
// LZ4 falls back to none on incompressible input.
func compressPayload(data []byte, codec CompressionType) ([]byte, CompressionType, error) {
	switch codec {
	case CompressionNone:
		return data, CompressionNone, nil

	case CompressionLZ4:
		out := make([]byte, sizePrefix+lz4.CompressBlockBound(len(data)))
		binary.LittleEndian.PutUint32(out, uint32(len(data)))
		n, err := lz4.CompressBlock(data, out[sizePrefix:], nil)
		if err != nil {
			return nil, codec, err
		}
		if n == 0 {
			return data, CompressionNone, nil
		}
		return out[:sizePrefix+n], codec, nil

	case CompressionZSTD:
		enc := getZstdEncoder()
		defer zstdEncoderPool.Put(enc)
		out := binary.LittleEndian.AppendUint32(make([]byte, 0, sizePrefix+len(data)/2), uint32(len(data)))
		return enc.EncodeAll(data, out), codec, nil

	default:
		return nil, codec, fmt.Errorf("%w: unknown compression %d", ErrInvalidArgument, codec)
	}
}

// decompressPayload reverses compressPayload.
func decompressPayload(data []byte, codec CompressionType) ([]byte, error) {
	if codec == CompressionNone {
		return data, nil
	}
	if len(data) < sizePrefix {
		return nil, errors.New("compressed payload too small")
	}
	size := binary.LittleEndian.Uint32(data)
	body := data[sizePrefix:]
	if size > maxPayloadSize {
		return nil, fmt.Errorf("declared size %d exceeds %d", size, maxPayloadSize)
	}

	switch codec {
	case CompressionLZ4:
		if uint64(size) > uint64(len(body))*lz4MaxRatio {
			return nil, fmt.Errorf("declared size %d too large for %d compressed bytes", size, len(body))
		}
		result := make([]byte, size)
		n, err := lz4.UncompressBlock(body, result)
		if err != nil {
			return nil, err
		}
		if uint32(n) != size {
			return nil, errors.New("decompressed size mismatch")
		}
		return result, nil

	case CompressionZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		//the declared size is only trusted after decoding
		decoded, err := dec.DecodeAll(body, make([]byte, 0, min(int(size), 4*len(body))))
		if err != nil {
			return nil, err
		}
		if uint32(len(decoded)) != size {
			return nil, errors.New("decompressed size mismatch")
		}
		return decoded, nil

	default:
		return nil, fmt.Errorf("unknown compression %d", codec)
	}
}
