package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/htm-community/connections/sdr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestDemoInspectActivity(t *testing.T) {
	graph := filepath.Join(t.TempDir(), "graph.htmc")

	out, err := runCmd(t, "demo", "--out", graph)
	require.NoError(t, err)
	assert.Contains(t, out, "grown: input 0-9, 0 active segments, 40 matching")
	assert.Contains(t, out, "reinforced: input 0-9, 40 active segments, 40 matching")
	assert.Contains(t, out, "weakened: input 0-4, 40 active segments, 40 matching")
	assert.Contains(t, out, "Connected Synapses on Segment Min/Mean/Max 5 / 5.000 / 5")
	assert.Contains(t, out, "saved "+graph)

	out, err = runCmd(t, "inspect", graph)
	require.NoError(t, err)
	assert.Contains(t, out, "Inputs (10) ~> Outputs (4096) via Segments (40)")

	out, err = runCmd(t, "activity", graph, "--input", "5-9", "--learn", "--workers", "2")
	require.NoError(t, err)
	lines := bytes.Count([]byte(out), []byte("\n"))
	assert.Equal(t, 40, lines)
	assert.Contains(t, out, "connected 0 potential 5")

	out, err = runCmd(t, "activity", graph, "--input", "0-4")
	require.NoError(t, err)
	assert.Contains(t, out, "connected 5\n")
	assert.NotContains(t, out, "potential")
}

func TestActivityStrictInput(t *testing.T) {
	graph := filepath.Join(t.TempDir(), "graph.htmc")
	_, err := runCmd(t, "demo", "--out", graph)
	require.NoError(t, err)

	out, err := runCmd(t, "activity", graph, "--input", "0-12")
	require.NoError(t, err)
	assert.Contains(t, out, "connected 5\n", "unknown cells are ignored")

	_, err = runCmd(t, "activity", graph, "--input", "0-12", "--strict")
	assert.ErrorIs(t, err, sdr.ErrOutOfRange)

	_, err = runCmd(t, "activity", graph, "--input", "0-9", "--strict")
	assert.NoError(t, err)
}

func TestDemoWithConfig(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "params.yaml")
	require.NoError(t, os.WriteFile(config, []byte("num_cells: 16\nconnected_permanence: 0.2\nworkers: 2\n"), 0o644))

	out, err := runCmd(t, "demo", "--config", config)
	require.NoError(t, err)
	assert.Contains(t, out, "reinforced: input 0-9, 16 active segments, 16 matching")
}

func TestCommandErrors(t *testing.T) {
	_, err := runCmd(t, "inspect", filepath.Join(t.TempDir(), "missing.htmc"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.htmc")
	require.NoError(t, os.WriteFile(bad, []byte("not a graph at all, definitely"), 0o644))
	_, err = runCmd(t, "inspect", bad)
	assert.Error(t, err)

	_, err = runCmd(t, "activity", bad, "--input", "9-1")
	assert.Error(t, err)

	_, err = runCmd(t, "demo", "--config", filepath.Join(t.TempDir(), "none.yaml"))
	assert.Error(t, err)
}
