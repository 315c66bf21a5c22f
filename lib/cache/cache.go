/*package cache writes loaded particle fields to compressed cache files and
reads them back. Downstream spectra tooling walks a snapshot species once per
sightline set; caching the windowed loads avoids re-parsing multi-file
snapshots on every run. The payload is zstd-compressed and framed with a
magic number and version so stale or foreign files are rejected up front.
*/
package cache

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io/ioutil"
	"os"
	"reflect"
	"unsafe"

	"github.com/DataDog/zstd"

	"github.com/jibanCat/fake-spectra/lib/load"
	"github.com/jibanCat/fake-spectra/lib/particles"
)

const (
	// MagicNumber is an arbitrary number at the start of every cache file
	// which identifies when the reader is pointed at something else by
	// accident.
	MagicNumber = 0xfade5bec
	// ReverseMagicNumber is the magic number as read on a machine with
	// flipped endianness.
	ReverseMagicNumber = 0xec5bdefa
	Version            = 1
)

// fileHeader is the uncompressed fixed-size header of a cache file.
type fileHeader struct {
	Magic, Version uint32
	N              int64
	Helium         uint32
	Pad            uint32
	A, Z, BoxSize, H100           float64
	OmegaM, OmegaL, HubbleRate, OmegaB float64
}

// Write writes one loaded window and its cosmology to the named cache file.
// Cache files use the host byte order; they are scratch data for the local
// machine, not an interchange format.
func Write(fname string, buf *particles.Buffer, cosmo *load.Cosmology) error {
	hd := fileHeader{
		Magic: MagicNumber, Version: Version,
		N: int64(buf.Len()),
		A: cosmo.A, Z: cosmo.Z, BoxSize: cosmo.BoxSize, H100: cosmo.H100,
		OmegaM: cosmo.OmegaM, OmegaL: cosmo.OmegaL,
		HubbleRate: cosmo.HubbleRate, OmegaB: cosmo.OmegaB,
	}
	if buf.NHep != nil { hd.Helium = 1 }

	raw := &bytes.Buffer{ }
	fields := [][]float32{
		flatVec(buf.X), flatVec(buf.V),
		buf.Mass, buf.U, buf.Ne, buf.NH0, buf.H,
	}
	if buf.NHep != nil { fields = append(fields, buf.NHep) }
	for _, x := range fields {
		err := binary.Write(raw, hostOrder(), x)
		if err != nil { return err }
	}

	blob, err := zstd.CompressLevel(nil, raw.Bytes(), 1)
	if err != nil {
		return fmt.Errorf("Compressing %d particles for %s failed: %s",
			buf.Len(), fname, err.Error())
	}

	fp, err := os.Create(fname)
	if err != nil { return err }
	defer fp.Close()

	err = binary.Write(fp, hostOrder(), hd)
	if err != nil { return err }
	err = binary.Write(fp, hostOrder(), int64(len(blob)))
	if err != nil { return err }
	_, err = fp.Write(blob)
	return err
}

// Read reads a cache file written by Write. The returned Buffer is owned by
// the caller, exactly as if it had come from a load.
func Read(fname string) (*particles.Buffer, *load.Cosmology, error) {
	b, err := ioutil.ReadFile(fname)
	if err != nil { return nil, nil, err }

	rd := bytes.NewReader(b)
	hd := fileHeader{ }
	err = binary.Read(rd, hostOrder(), &hd)
	if err != nil { return nil, nil, err }

	if hd.Magic == ReverseMagicNumber {
		return nil, nil, fmt.Errorf("The cache file %s was written on a "+
			"machine with the opposite endianness.", fname)
	} else if hd.Magic != MagicNumber {
		return nil, nil, fmt.Errorf("%s is not a fake-spectra cache file.",
			fname)
	} else if hd.Version != Version {
		return nil, nil, fmt.Errorf("The cache file %s has version %d, but "+
			"this version of the code writes version %d. Regenerate the "+
			"cache.", fname, hd.Version, Version)
	}

	blobLen := int64(0)
	err = binary.Read(rd, hostOrder(), &blobLen)
	if err != nil { return nil, nil, err }
	if blobLen < 0 || blobLen > int64(rd.Len()) {
		return nil, nil, fmt.Errorf("The cache file %s is truncated.", fname)
	}

	blob := make([]byte, blobLen)
	_, err = rd.Read(blob)
	if err != nil { return nil, nil, err }
	raw, err := zstd.Decompress(nil, blob)
	if err != nil {
		return nil, nil, fmt.Errorf("Decompressing %s failed: %s",
			fname, err.Error())
	}

	buf, err := particles.Alloc(hd.N, hd.Helium != 0)
	if err != nil { return nil, nil, err }

	rawRd := bytes.NewReader(raw)
	fields := [][]float32{
		flatVec(buf.X), flatVec(buf.V),
		buf.Mass, buf.U, buf.Ne, buf.NH0, buf.H,
	}
	if buf.NHep != nil { fields = append(fields, buf.NHep) }
	for _, x := range fields {
		err := binary.Read(rawRd, hostOrder(), x)
		if err != nil {
			buf.Release()
			return nil, nil, fmt.Errorf("The cache file %s is truncated.",
				fname)
		}
	}

	cosmo := &load.Cosmology{
		A: hd.A, Z: hd.Z, BoxSize: hd.BoxSize, H100: hd.H100,
		OmegaM: hd.OmegaM, OmegaL: hd.OmegaL,
		HubbleRate: hd.HubbleRate, OmegaB: hd.OmegaB,
	}
	return buf, cosmo, nil
}

// flatVec "casts" a [][3]float32 to a flat []float32 without copying, since
// binary.Write and binary.Read make a pile of heap allocations when handed
// vector slices directly.
func flatVec(x [][3]float32) []float32 {
	hd := *(*reflect.SliceHeader)(unsafe.Pointer(&x))
	hd.Len *= 3
	hd.Cap *= 3
	return *(*[]float32)(unsafe.Pointer(&hd))
}

// hostOrder returns the byte order of the machine the code is running on.
func hostOrder() binary.ByteOrder {
	b := [2]byte{ }
	*(*uint16)(unsafe.Pointer(&b[0])) = uint16(0x0001)
	if b[0] == 0 { return binary.BigEndian }
	return binary.LittleEndian
}
