/*package particles owns the flat per-field arrays a snapshot load fills in.
All of a Buffer's fields are parallel: index i refers to the same particle in
every array. A Buffer is exclusively owned by the caller from Alloc() until
Release(), and the loading code never holds on to one.
*/
package particles

import (
	"fmt"
	"math"
)

// bytesPerParticle is the fixed per-particle footprint of a Buffer: two
// 3-vectors and five scalars, all float32. The optional helium field adds
// heliumBytes on top.
const (
	bytesPerParticle = 2*12 + 5*4
	heliumBytes      = 4
)

// Buffer holds the per-particle fields of one loaded species.
type Buffer struct {
	// X and V are comoving positions and peculiar velocities.
	X, V [][3]float32
	// Mass is the particle mass in the snapshot's internal units. After a
	// successful load every entry is equal.
	Mass []float32
	// U is the internal energy per unit mass. Only filled for gas.
	U []float32
	// Ne is the free electron fraction and NH0 the neutral hydrogen
	// fraction. Only filled for gas in snapshots with cooling enabled.
	Ne, NH0 []float32
	// H is the SPH smoothing length. Only filled for gas.
	H []float32
	// NHep is the neutral helium fraction. Nil unless helium tracking was
	// requested at allocation.
	NHep []float32

	n int
}

// Alloc allocates a Buffer holding every field for exactly n particles. The
// allocation is all-or-nothing: on error no fields have been allocated and
// the Buffer is nil. If helium is true the NHep field is allocated too.
func Alloc(n int64, helium bool) (*Buffer, error) {
	if n < 0 {
		return nil, fmt.Errorf("A buffer for %d particles was requested.", n)
	}

	per := int64(bytesPerParticle)
	if helium { per += heliumBytes }
	if n > math.MaxInt64/per || n*per > maxBufferBytes {
		return nil, fmt.Errorf("A buffer for %d particles would need more "+
			"than %d bytes. Load the snapshot in smaller windows instead.",
			n, int64(maxBufferBytes))
	}

	buf := &Buffer{
		X: make([][3]float32, n), V: make([][3]float32, n),
		Mass: make([]float32, n), U: make([]float32, n),
		Ne: make([]float32, n), NH0: make([]float32, n),
		H: make([]float32, n),
		n: int(n),
	}
	if helium { buf.NHep = make([]float32, n) }

	return buf, nil
}

// maxBufferBytes caps single-call allocations. Loads past this size should
// be windowed; a request this large is almost always a sign of a corrupt
// header rather than a real workload.
const maxBufferBytes = int64(1) << 40

// Len returns the number of particles the Buffer holds.
func (buf *Buffer) Len() int { return buf.n }

// Release drops every field array so the memory can be collected. Callers
// must call Release exactly once and not touch the fields afterwards;
// releasing twice or using a field of a released Buffer is a caller bug that
// the Buffer does not guard against.
func (buf *Buffer) Release() {
	buf.X, buf.V = nil, nil
	buf.Mass, buf.U = nil, nil
	buf.Ne, buf.NH0 = nil, nil
	buf.H, buf.NHep = nil, nil
	buf.n = 0
}
