package sdr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOf(t *testing.T) {
	assert.Equal(t, Sparse{1, 3, 7}, Of(7, 3, 1, 3))
	assert.Equal(t, Sparse{}, Of())
}

func TestRange(t *testing.T) {
	assert.Equal(t, Sparse{0, 1, 2, 3, 4}, Range(0, 5))
	assert.Equal(t, Sparse{}, Range(5, 5))
	assert.Equal(t, Sparse{}, Range(6, 2))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Sparse{}.Validate())
	assert.NoError(t, Sparse{0, 1, 9}.Validate())
	assert.ErrorIs(t, Sparse{0, 1, 1}.Validate(), ErrNotSorted)
	assert.ErrorIs(t, Sparse{3, 2}.Validate(), ErrNotSorted)

	assert.NoError(t, Sparse{0, 9}.ValidateSize(10))
	assert.ErrorIs(t, Sparse{0, 10}.ValidateSize(10), ErrOutOfRange)
	assert.ErrorIs(t, Sparse{5, 4}.ValidateSize(10), ErrNotSorted)
}

func TestString(t *testing.T) {
	assert.Equal(t, "", Sparse{}.String())
	assert.Equal(t, "3", Sparse{3}.String())
	assert.Equal(t, "0-9,15,20-21", append(Range(0, 10), 15, 20, 21).String())
}

func TestBitmap(t *testing.T) {
	bm := Sparse{2, 4, 8, 16}.Bitmap()
	assert.True(t, bm.Contains(8))
	assert.False(t, bm.Contains(9))
	assert.Equal(t, uint64(4), bm.GetCardinality())
	assert.True(t, Sparse{}.Bitmap().IsEmpty())
}

func TestParse(t *testing.T) {
	s, err := Parse("0-9,15,20-21")
	require.NoError(t, err)
	assert.Equal(t, "0-9,15,20-21", s.String())

	s, err = Parse(" 7, 3 ,3 ")
	require.NoError(t, err)
	assert.Equal(t, Sparse{3, 7}, s)

	s, err = Parse("")
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())

	_, err = Parse("9-2")
	assert.ErrorIs(t, err, ErrNotSorted)

	_, err = Parse("a-2")
	assert.Error(t, err)
}
