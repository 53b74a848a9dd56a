// Package sdr holds the sparse active-input contract consumed by the
// connections engine: a strictly increasing, duplicate-free list of
// presynaptic cell indices.
package sdr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

var (
	// ErrNotSorted is returned when indices are not strictly increasing.
	ErrNotSorted = errors.New("sparse indices are not strictly increasing")
	// ErrOutOfRange is returned when an index falls outside the allowed size.
	ErrOutOfRange = errors.New("sparse index out of range")
)

// Sparse is a strictly increasing sequence of active indices.
type Sparse []uint32

/* Initializers */

// Of builds a Sparse from arbitrary indices, sorting and dropping duplicates.
func Of(indices ...uint32) Sparse {
	if len(indices) == 0 {
		return Sparse{}
	}
	return Sparse(roaring.BitmapOf(indices...).ToArray())
}

// Range returns the indices [lo, hi).
func Range(lo, hi uint32) Sparse {
	if hi <= lo {
		return Sparse{}
	}
	result := make(Sparse, 0, hi-lo)
	for i := lo; i < hi; i++ {
		result = append(result, i)
	}
	return result
}

// Parse reads the compact range form produced by String, e.g. "0-9,15,20-21".
func Parse(str string) (Sparse, error) {
	str = strings.TrimSpace(str)
	if str == "" {
		return Sparse{}, nil
	}
	var indices []uint32
	for _, part := range strings.Split(str, ",") {
		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(part, "-")
		start, err := strconv.ParseUint(lo, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", part, err)
		}
		end := start
		if isRange {
			end, err = strconv.ParseUint(hi, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("parse %q: %w", part, err)
			}
			if end < start {
				return nil, fmt.Errorf("parse %q: %w", part, ErrNotSorted)
			}
		}
		for i := start; i <= end; i++ {
			indices = append(indices, uint32(i))
		}
	}
	return Of(indices...), nil
}

/* exported functions */

// Validate checks that the indices are strictly increasing.
func (s Sparse) Validate() error {
	for i := 1; i < len(s); i++ {
		if s[i] <= s[i-1] {
			return fmt.Errorf("%w: %d follows %d at position %d", ErrNotSorted, s[i], s[i-1], i)
		}
	}
	return nil
}

// ValidateSize checks ordering and that every index is below size.
func (s Sparse) ValidateSize(size uint32) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if len(s) > 0 && s[len(s)-1] >= size {
		return fmt.Errorf("%w: %d >= %d", ErrOutOfRange, s[len(s)-1], size)
	}
	return nil
}

func (s Sparse) Len() int {
	return len(s)
}

// Bitmap returns a roaring bitmap over the indices for O(1) membership tests.
func (s Sparse) Bitmap() *roaring.Bitmap {
	return roaring.BitmapOf(s...)
}

// String renders runs of consecutive indices as ranges: "0-9,15".
func (s Sparse) String() string {
	var b strings.Builder
	for i := 0; i < len(s); {
		j := i
		for j+1 < len(s) && s[j+1] == s[j]+1 {
			j++
		}
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatUint(uint64(s[i]), 10))
		if j > i {
			b.WriteByte('-')
			b.WriteString(strconv.FormatUint(uint64(s[j]), 10))
		}
		i = j + 1
	}
	return b.String()
}
