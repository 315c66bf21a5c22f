/*package snapio reads particle data from cosmological simulation snapshots.
A snapshot is a set of named, typed binary blocks, possibly split across
multiple files, each block holding one physical quantity for some subset of
the simulation's particle types. The main entry point is Open(), which returns
a Gadget2 reader, but all consumers work through the Snapshot interface so
that tests and future formats can supply their own implementations.
*/
package snapio

import (
	"errors"
	"fmt"
)

const (
	// NumTypes is the number of particle types a snapshot tracks. Each type
	// has its own particle count and, optionally, its own fixed mass.
	NumTypes = 6
	// GasType is the index of the SPH gas type. Thermodynamic and chemistry
	// blocks only store data for this type.
	GasType = 0

	// AllTypes is the bitmask selecting every particle type.
	AllTypes = uint32(1)<<NumTypes - 1
)

// Standard four-character Gadget block tags. Blocks are stored in this order
// within each snapshot file, although not every block is present in every
// snapshot: see BlockNames().
const (
	BlockPos  = "POS "
	BlockVel  = "VEL "
	BlockID   = "ID  "
	BlockMass = "MASS"
	BlockU    = "U   "
	BlockRho  = "RHO "
	BlockNHP  = "NHP " // singly-ionized hydrogen fraction
	BlockNHEP = "NHEP" // singly-ionized helium fraction
	BlockNHEQ = "NHEQ" // doubly-ionized helium fraction
	BlockNE   = "NE  " // unified electron fraction
	BlockNH   = "NH  " // neutral hydrogen fraction
	BlockNHE  = "NHE " // neutral helium fraction
	BlockHSML = "HSML"
	BlockSFR  = "SFR "
)

// ErrNoBlock is wrapped by the error returned from ReadBlock when the
// requested block does not exist in the snapshot. Callers can test for it
// with errors.Is() to distinguish a missing optional block from file
// corruption.
var ErrNoBlock = errors.New("block not in snapshot")

// Variant describes which chemistry blocks a snapshot carries. Older
// simulations store the partial ionization fractions NHP, NHEP, and NHEQ,
// while newer ones store a single unified electron fraction block, NE. This
// is a property of the code that wrote the snapshot, so it is resolved once
// when the snapshot is opened, not per read.
type Variant struct {
	// Unified is true if the snapshot has an NE block instead of the three
	// partial ionization blocks.
	Unified bool
	// Helium is true if the snapshot tracks the neutral helium fraction in
	// an NHE block.
	Helium bool
}

// Header holds the global metadata of a snapshot. For multi-file snapshots
// the per-type counts are totals across all files.
type Header struct {
	// Time is the scale factor, a, of the snapshot. a = 1 at the present
	// epoch.
	Time float64
	// Redshift is the redshift, z = 1/a - 1.
	Redshift float64
	// BoxSize is the comoving width of the simulation box.
	BoxSize float64
	// Omega0 and OmegaLambda are the matter and dark energy density
	// parameters, and HubbleParam is H0 / (100 km/s/Mpc).
	Omega0, OmegaLambda, HubbleParam float64
	// Mass gives the fixed mass of each particle type. A zero entry means
	// the type has per-particle masses stored in the MASS block instead.
	Mass [NumTypes]float64
	// NPart gives the total number of particles of each type.
	NPart [NumTypes]int64
	// FlagCooling is true if the simulation was run with radiative cooling,
	// meaning the chemistry blocks are present.
	FlagCooling bool
	// FlagSfr is true if the simulation tracked star formation rates.
	FlagSfr bool
	// NumFiles is the number of files the snapshot is split across.
	NumFiles int
}

// Snapshot is the interface the loading code works through. Reads are
// synchronous and blocking, and implementations are only safe for sequential
// use.
type Snapshot interface {
	// Header returns the snapshot's global metadata. The returned struct is
	// read-only and shared across calls.
	Header() *Header

	// NPart returns the total number of particles of the given type across
	// all of the snapshot's files.
	NPart(typ int) int64

	// ReadBlock reads a window of the named block into out, which must be a
	// []float32 or [][3]float32 with length n. skip is a bitmask of particle
	// types whose data is present in the block but should be skipped over:
	// the logical array the window indexes into is the concatenation, in
	// type order and across files, of the block's non-skipped segments.
	// Elements [start, start+n) of that array are read.
	ReadBlock(name string, start, n int64, skip uint32, out interface{}) error
}

// blockWidth returns the number of bytes a single element of a block
// occupies.
func blockWidth(name string, idBytes int) int64 {
	switch name {
	case BlockPos, BlockVel:
		return 12
	case BlockID:
		return int64(idBytes)
	default:
		return 4
	}
}

// BlockNames returns the ordered list of blocks present in a snapshot with
// the given header and chemistry variant. The order matches the order the
// writing code emits blocks in, so it can be used to locate a block within
// a file.
func BlockNames(hd *Header, v Variant) []string {
	names := []string{BlockPos, BlockVel, BlockID}

	for i := 0; i < NumTypes; i++ {
		if hd.Mass[i] == 0 && hd.NPart[i] > 0 {
			names = append(names, BlockMass)
			break
		}
	}

	if hd.NPart[GasType] == 0 { return names }

	names = append(names, BlockU, BlockRho)
	if hd.FlagCooling {
		if v.Unified {
			names = append(names, BlockNE)
		} else {
			names = append(names, BlockNHP, BlockNHEP, BlockNHEQ)
		}
		names = append(names, BlockNH)
		if v.Helium { names = append(names, BlockNHE) }
	}
	names = append(names, BlockHSML)
	if hd.FlagSfr { names = append(names, BlockSFR) }

	return names
}

// blockTypes returns the bitmask of particle types which have data stored in
// the named block, given per-file particle counts and the fixed masses.
func blockTypes(name string, np [NumTypes]int64, mass [NumTypes]float64) uint32 {
	present := uint32(0)
	switch name {
	case BlockPos, BlockVel, BlockID:
		for i := 0; i < NumTypes; i++ {
			if np[i] > 0 { present |= 1 << i }
		}
	case BlockMass:
		for i := 0; i < NumTypes; i++ {
			if np[i] > 0 && mass[i] == 0 { present |= 1 << i }
		}
	default:
		// Gas-only blocks.
		if np[GasType] > 0 { present = 1 << GasType }
	}
	return present
}

// checkOut returns the length of an output buffer passed to ReadBlock, or an
// error if the buffer has an unsupported type for the named block.
func checkOut(name string, out interface{}) (int64, error) {
	switch x := out.(type) {
	case []float32:
		if name == BlockPos || name == BlockVel {
			return 0, fmt.Errorf("The block '%s' stores 3-vectors, but it "+
				"was read into a []float32 buffer.", name)
		}
		return int64(len(x)), nil
	case [][3]float32:
		if name != BlockPos && name != BlockVel {
			return 0, fmt.Errorf("The block '%s' stores scalars, but it "+
				"was read into a [][3]float32 buffer.", name)
		}
		return int64(len(x)), nil
	}
	return 0, fmt.Errorf("Blocks can only be read into []float32 or "+
		"[][3]float32 buffers, not %T.", out)
}
