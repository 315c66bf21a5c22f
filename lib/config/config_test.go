package config

import (
	"encoding/binary"
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jibanCat/fake-spectra/lib/snapio"
)

func writeConfig(t *testing.T, text string) string {
	fname := path.Join(t.TempDir(), "fake_spectra.cfg")
	require.NoError(t, os.WriteFile(fname, []byte(text), 0666))
	return fname
}

func TestReadDefaults(t *testing.T) {
	c, err := Read(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, snapio.GasType, c.Snapshot.Species)
	assert.Equal(t, 8, c.Snapshot.IDBytes)
	assert.Equal(t, int64(1<<24), c.Load.Chunk)
	assert.Equal(t, int64(0), c.Load.Start)
}

func TestRead(t *testing.T) {
	c, err := Read(writeConfig(t, `
[snapshot]
path = /data/sims/snap_005
species = 1
id-bytes = 4
big-endian = true
unified = true
helium = true

[load]
start = 100
max-read = 1000
chunk = 256

[output]
cache = /scratch/snap_005.spc
`))
	require.NoError(t, err)

	assert.Equal(t, "/data/sims/snap_005", c.Snapshot.Path)
	assert.Equal(t, 1, c.Snapshot.Species)
	assert.Equal(t, int64(100), c.Load.Start)
	assert.Equal(t, int64(1000), c.Load.MaxRead)
	assert.Equal(t, int64(256), c.Load.Chunk)
	assert.Equal(t, "/scratch/snap_005.spc", c.Output.Cache)

	context := c.Context()
	assert.Equal(t, binary.ByteOrder(binary.BigEndian), context.Order)
	assert.Equal(t, 4, context.IDBytes)
	assert.Equal(t, snapio.Variant{ Unified: true, Helium: true },
		context.Variant)
}

func TestReadFailure(t *testing.T) {
	bad := []string{
		"[snapshot]\nspecies = 6\n",
		"[snapshot]\nspecies = -1\n",
		"[snapshot]\nid-bytes = 5\n",
		"[load]\nstart = -2\n",
		"[load]\nchunk = 0\n",
		"this is not a config file",
	}
	for i := range bad {
		_, err := Read(writeConfig(t, bad[i]))
		assert.Error(t, err, "config %d should fail", i)
	}

	_, err := Read(path.Join(t.TempDir(), "no_such_file"))
	assert.Error(t, err)
}
