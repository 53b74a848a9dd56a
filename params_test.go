package connections

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParamsValid(t *testing.T) {
	p := NewParams()
	assert.NoError(t, p.Validate())
	assert.Equal(t, 2048*32, p.NumCells)
	assert.Equal(t, 0.5, p.ConnectedPermanence)
}

func TestParseParams(t *testing.T) {
	p, err := ParseParams([]byte(`
num_cells: 4096
connected_permanence: 0.2
max_segments_per_cell: 1
permanence_increment: 0.1
permanence_decrement: 0.0
destroy_weak_segments: false
compression: lz4
workers: 8
log_level: debug
`))
	require.NoError(t, err)
	assert.Equal(t, &Params{
		NumCells:            4096,
		ConnectedPermanence: 0.2,
		MaxSegmentsPerCell:  1,
		PermanenceIncrement: 0.1,
		PermanenceDecrement: 0.0,
		DestroyWeakSegments: false,
		Compression:         "lz4",
		Workers:             8,
		LogLevel:            "debug",
	}, p)
}

func TestParseParamsKeepsDefaults(t *testing.T) {
	p, err := ParseParams([]byte("num_cells: 10\n"))
	require.NoError(t, err)
	def := NewParams()
	def.NumCells = 10
	assert.Equal(t, def, p)
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
		err    error
	}{
		{"zero cells", func(p *Params) { p.NumCells = 0 }, ErrInvalidArgument},
		{"threshold above one", func(p *Params) { p.ConnectedPermanence = 1.1 }, ErrInvalidPermanence},
		{"no segments", func(p *Params) { p.MaxSegmentsPerCell = 0 }, ErrInvalidArgument},
		{"negative increment", func(p *Params) { p.PermanenceIncrement = -0.1 }, ErrInvalidPermanence},
		{"decrement above one", func(p *Params) { p.PermanenceDecrement = 2 }, ErrInvalidPermanence},
		{"unknown codec", func(p *Params) { p.Compression = "gzip" }, ErrInvalidArgument},
		{"no workers", func(p *Params) { p.Workers = 0 }, ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParams()
			tt.mutate(p)
			assert.ErrorIs(t, p.Validate(), tt.err)
		})
	}
}

func TestLoadParams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(path, []byte("num_cells: 64\ncompression: zstd\n"), 0o644))

	p, err := LoadParams(path)
	require.NoError(t, err)
	assert.Equal(t, 64, p.NumCells)
	assert.Equal(t, "zstd", p.Compression)

	_, err = LoadParams(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("num_cells: [1, 2"), 0o644))
	_, err = LoadParams(path)
	assert.Error(t, err)
}
