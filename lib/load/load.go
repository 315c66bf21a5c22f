/*package load implements the snapshot ingestion core. A single call loads
one window of one particle species from a snapshot into a particles.Buffer
and derives the global cosmological parameters downstream analysis needs.
Repeated calls with an advancing start index walk a species in chunks without
ever holding the whole snapshot in memory; a returned count of zero means the
window is exhausted and is not an error.
*/
package load

import (
	"errors"
	"fmt"

	"github.com/jibanCat/fake-spectra/lib/particles"
	"github.com/jibanCat/fake-spectra/lib/snapio"
)

// File opens the snapshot with the given base name and loads one window of
// one species from it. An optional snapio.Context sets the byte order, ID
// width, and chemistry variant. See Snapshot() for the rest of the contract.
func File(
	fname string, typ int, start, maxRead int64, context ...snapio.Context,
) (*particles.Buffer, int64, *Cosmology, error) {
	snap, err := snapio.Open(fname, context...)
	if err != nil {
		return nil, 0, nil, newError(BlockReadError, err,
			"The snapshot %s could not be opened: %s", fname, err.Error())
	}

	v := snapio.Variant{ }
	if len(context) > 0 { v = context[0].Variant }
	return Snapshot(snap, typ, start, maxRead, v)
}

// Snapshot loads the window [start, start+maxRead) of the given particle
// type from an open snapshot. If maxRead <= 0 the window extends to the end
// of the species. The returned count is the number of particles actually
// loaded, which is smaller than maxRead when the window runs past the end of
// the species and zero when start is already past it. On a zero count no
// buffer is allocated and a nil Buffer is returned alongside the
// header-derived cosmology.
//
// The caller owns the returned Buffer and must Release() it exactly once.
// On error no Buffer is returned and nothing needs to be released.
func Snapshot(
	snap snapio.Snapshot, typ int, start, maxRead int64, v snapio.Variant,
) (*particles.Buffer, int64, *Cosmology, error) {
	if typ < 0 || typ >= snapio.NumTypes {
		return nil, 0, nil, fmt.Errorf("Particles of type %d were "+
			"requested, but snapshots only track types 0 through %d.",
			typ, snapio.NumTypes-1)
	}
	if start < 0 {
		return nil, 0, nil, fmt.Errorf("The load window starts at the "+
			"negative index %d.", start)
	}

	hd := snap.Header()
	cosmo := headerCosmology(hd)

	n := snap.NPart(typ) - start
	if maxRead > 0 && maxRead < n { n = maxRead }
	if n <= 0 { return nil, 0, cosmo, nil }

	buf, err := particles.Alloc(n, v.Helium)
	if err != nil {
		return nil, 0, nil, newError(AllocationError, err,
			"Buffers for %d particles could not be allocated: %s",
			n, err.Error())
	}

	if err := readFields(snap, typ, start, n, v, buf, cosmo); err != nil {
		buf.Release()
		return nil, 0, nil, err
	}

	return buf, n, cosmo, nil
}

// readFields populates every field of an allocated Buffer. It is factored
// out of Snapshot() so the Buffer can be released on every failure path in
// one place.
func readFields(
	snap snapio.Snapshot, typ int, start, n int64, v snapio.Variant,
	buf *particles.Buffer, cosmo *Cosmology,
) error {
	hd := snap.Header()

	// Positions and velocities, skipping every other species.
	skip := snapio.AllTypes &^ (1 << typ)
	err := readBlock(snap, snapio.BlockPos, start, n, skip, buf.X)
	if err != nil { return err }
	err = readBlock(snap, snapio.BlockVel, start, n, skip, buf.V)
	if err != nil { return err }

	err = readMass(snap, typ, start, n, buf)
	if err != nil { return err }
	cosmo.OmegaB = baryonFraction(float64(buf.Mass[0]), hd.Mass[1], hd.Omega0)

	if typ != snapio.GasType { return nil }

	err = readBlock(snap, snapio.BlockU, start, n, 0, buf.U)
	if err != nil { return err }

	if hd.FlagCooling {
		err = readElectronFraction(snap, start, n, v, buf)
		if err != nil { return err }

		if v.Helium {
			err = readBlock(snap, snapio.BlockNHE, start, n, 0, buf.NHep)
			if err != nil { return err }
		}

		err = readBlock(snap, snapio.BlockNH, start, n, 0, buf.NH0)
		if err != nil { return err }
	}

	// The smoothing length is read last: see readElectronFraction.
	return readBlock(snap, snapio.BlockHSML, start, n, 0, buf.H)
}

// readBlock wraps Snapshot.ReadBlock so every I/O failure comes back as a
// BlockReadError.
func readBlock(
	snap snapio.Snapshot, name string, start, n int64,
	skip uint32, out interface{},
) error {
	err := snap.ReadBlock(name, start, n, skip, out)
	if err == nil { return nil }
	return newError(BlockReadError, err,
		"Reading the '%s' block failed: %s", name, err.Error())
}

// readMass fills the mass field, either from the header's fixed per-type
// mass or from the MASS block, and checks that the result is uniform. The
// analysis downstream assumes a single particle mass per species, so a
// non-uniform mass array means the snapshot violates the data model and the
// load fails rather than silently averaging.
func readMass(
	snap snapio.Snapshot, typ int, start, n int64, buf *particles.Buffer,
) error {
	hd := snap.Header()

	if hd.Mass[typ] != 0 {
		mp := float32(hd.Mass[typ])
		for i := range buf.Mass { buf.Mass[i] = mp }
		return nil
	}

	err := readBlock(snap, snapio.BlockMass, start, n, massSkipMask(hd, typ),
		buf.Mass)
	if err != nil { return err }

	for i := range buf.Mass {
		if buf.Mass[i] != buf.Mass[0] {
			return newError(MassConsistencyError, nil,
				"The mass of particle %d in the window starting at %d is "+
					"%g, but the window's first particle has mass %g. Only "+
					"single-mass species are supported.",
				i, start, buf.Mass[i], buf.Mass[0])
		}
	}
	return nil
}

// massSkipMask returns the skip mask used to read the MASS block for the
// given type. The mask starts with every type except the requested one and
// then drops every type with a nonzero fixed mass, since those types store
// no data in the MASS block and so there is nothing to skip over.
func massSkipMask(hd *snapio.Header, typ int) uint32 {
	skip := snapio.AllTypes &^ (1 << typ)
	for i := 0; i < snapio.NumTypes; i++ {
		if hd.Mass[i] != 0 { skip &^= 1 << i }
	}
	return skip
}

// readElectronFraction fills the free electron fraction of the gas. Unified
// snapshots store it directly in an NE block. Legacy snapshots store the
// partial ionization fractions instead, and since the universe is neutral
// the electron fraction is their charge-weighted sum,
//
//	NE = NHP + NHEP + 2*NHEQ.
//
// The partial fractions are accumulated through a scratch slice, not through
// the smoothing-length field: the sum must finish before H is filled, and an
// explicit scratch buffer keeps that ordering from being load-bearing.
func readElectronFraction(
	snap snapio.Snapshot, start, n int64, v snapio.Variant,
	buf *particles.Buffer,
) error {
	if v.Unified {
		err := snap.ReadBlock(snapio.BlockNE, start, n, 0, buf.Ne)
		if err == nil { return nil }
		if !errors.Is(err, snapio.ErrNoBlock) {
			return newError(BlockReadError, err,
				"Reading the '%s' block failed: %s",
				snapio.BlockNE, err.Error())
		}
		// No NE block after all. Fall back to the legacy blocks.
	}

	err := readBlock(snap, snapio.BlockNHP, start, n, 0, buf.Ne)
	if err != nil { return err }

	scratch := make([]float32, n)
	err = readBlock(snap, snapio.BlockNHEP, start, n, 0, scratch)
	if err != nil { return err }
	for i := range buf.Ne { buf.Ne[i] += scratch[i] }

	err = readBlock(snap, snapio.BlockNHEQ, start, n, 0, scratch)
	if err != nil { return err }
	for i := range buf.Ne { buf.Ne[i] += 2 * scratch[i] }

	return nil
}
