package cache

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jibanCat/fake-spectra/lib/load"
	"github.com/jibanCat/fake-spectra/lib/particles"
)

func testBuffer(t *testing.T, helium bool) *particles.Buffer {
	buf, err := particles.Alloc(3, helium)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		f := float32(i + 1)
		buf.X[i] = [3]float32{f, f, f}
		buf.V[i] = [3]float32{-f, 0, f}
		buf.Mass[i] = 0.5
		buf.U[i] = 10 * f
		buf.Ne[i] = 0.1 * f
		buf.NH0[i] = 0.9 - 0.1*f
		buf.H[i] = 5 + f
		if helium { buf.NHep[i] = 0.01 * f }
	}
	return buf
}

func testCosmology() *load.Cosmology {
	return &load.Cosmology{
		A: 0.5, Z: 1.0, BoxSize: 10000.0,
		H100: 0.7, OmegaM: 0.3, OmegaL: 0.7,
		HubbleRate: 242.69, OmegaB: 0.06,
	}
}

func TestRoundTrip(t *testing.T) {
	fname := path.Join(t.TempDir(), "chunk.0.spc")
	buf := testBuffer(t, false)
	defer buf.Release()

	require.NoError(t, Write(fname, buf, testCosmology()))

	got, cosmo, err := Read(fname)
	require.NoError(t, err)
	defer got.Release()

	assert.Equal(t, buf.Len(), got.Len())
	assert.Equal(t, buf.X, got.X)
	assert.Equal(t, buf.V, got.V)
	assert.Equal(t, buf.Mass, got.Mass)
	assert.Equal(t, buf.U, got.U)
	assert.Equal(t, buf.Ne, got.Ne)
	assert.Equal(t, buf.NH0, got.NH0)
	assert.Equal(t, buf.H, got.H)
	assert.Nil(t, got.NHep)
	assert.Equal(t, testCosmology(), cosmo)
}

func TestRoundTripHelium(t *testing.T) {
	fname := path.Join(t.TempDir(), "chunk.0.spc")
	buf := testBuffer(t, true)
	defer buf.Release()

	require.NoError(t, Write(fname, buf, testCosmology()))

	got, _, err := Read(fname)
	require.NoError(t, err)
	defer got.Release()

	assert.Equal(t, buf.NHep, got.NHep)
}

func TestReadFailure(t *testing.T) {
	dir := t.TempDir()

	_, _, err := Read(path.Join(dir, "no_such_file"))
	assert.Error(t, err)

	// Not a cache file at all.
	junk := path.Join(dir, "junk")
	require.NoError(t, os.WriteFile(junk, make([]byte, 256), 0666))
	_, _, err = Read(junk)
	assert.Error(t, err)

	// A real cache file, truncated.
	fname := path.Join(dir, "trunc.spc")
	buf := testBuffer(t, false)
	defer buf.Release()
	require.NoError(t, Write(fname, buf, testCosmology()))

	b, err := os.ReadFile(fname)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(fname, b[:len(b)-8], 0666))
	_, _, err = Read(fname)
	assert.Error(t, err)
}
