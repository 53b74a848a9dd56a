package connections

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCompression(t *testing.T) {
	for in, want := range map[string]CompressionType{
		"":      CompressionNone,
		"none":  CompressionNone,
		"LZ4":   CompressionLZ4,
		" zstd": CompressionZSTD,
	} {
		got, err := ParseCompression(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseCompression("snappy")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, "compression(9)", CompressionType(9).String())
}

func TestCompressPayload(t *testing.T) {
	data := bytes.Repeat([]byte("segment synapse permanence "), 200)

	for _, codec := range []CompressionType{CompressionNone, CompressionLZ4, CompressionZSTD} {
		out, used, err := compressPayload(data, codec)
		require.NoError(t, err)
		assert.Equal(t, codec, used)
		if codec != CompressionNone {
			assert.Less(t, len(out), len(data))
		}

		back, err := decompressPayload(out, used)
		require.NoError(t, err)
		assert.Equal(t, data, back)
	}

	_, _, err := compressPayload(data, CompressionType(7))
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = decompressPayload([]byte{1, 2}, CompressionLZ4)
	assert.Error(t, err)
}

func TestDecompressBoundsDeclaredSize(t *testing.T) {
	data := bytes.Repeat([]byte("segment synapse permanence "), 200)

	for _, codec := range []CompressionType{CompressionLZ4, CompressionZSTD} {
		out, used, err := compressPayload(data, codec)
		require.NoError(t, err)
		require.Equal(t, codec, used)

		binary.LittleEndian.PutUint32(out, 1<<29)
		_, err = decompressPayload(out, codec)
		assert.Error(t, err, codec.String())

		binary.LittleEndian.PutUint32(out, maxPayloadSize+1)
		_, err = decompressPayload(out, codec)
		assert.ErrorContains(t, err, "exceeds", codec.String())
	}
}
