package snapio

import (
	"encoding/binary"
	"fmt"
	"os"
	"reflect"
	"unsafe"
)

const (
	gadget2HeaderSize = 256
)

// Context holds format details which can't be recovered from the snapshot
// itself and so have to be supplied by the caller: the byte order, the width
// of particle IDs, and the chemistry Variant the simulation code was
// compiled with.
type Context struct {
	Order   binary.ByteOrder
	IDBytes int
	Variant Variant
}

var defaultContext = Context{
	Order:   binary.LittleEndian,
	IDBytes: 8,
}

// Gadget2 reads classic (format-1) Gadget binary snapshots, possibly split
// across multiple files. It implements the Snapshot interface. Files are
// opened and closed per read, so a Gadget2 holds no OS resources between
// calls, but it is only safe for sequential use.
type Gadget2 struct {
	fileNames []string
	context   Context
	hd        Header
	names     []string
	fileNP    [][NumTypes]int64
}

var _ Snapshot = &Gadget2{ }

// rawGadget2Header is a struct with the same fields as the raw header data of
// a Gadget-2 file.
type rawGadget2Header struct {
	NPart                 [6]uint32
	Mass                  [6]float64
	Time, Redshift        float64
	FlagSfr, FlagFeedback uint32
	Nall                  [6]uint32
	FlagCooling, NumFiles uint32
	BoxSize, Omega0, OmegaLambda, HubbleParam float64
	FlagStellarAge, FlagMetals uint32
	NallHW                [6]uint32
	FlagEntropyICs        uint32
	Empty                 [60]byte
}

// Open opens the snapshot with the given base name. A snapshot is either a
// single file, fname, or a set of files fname.0 through fname.(NumFiles-1),
// where NumFiles is taken from the header of fname.0. An optional Context
// can be given to override the default byte order (little endian), ID width
// (8 bytes) and chemistry variant (legacy partial ionization, no helium).
func Open(fname string, context ...Context) (*Gadget2, error) {
	f := &Gadget2{ context: defaultContext }
	if len(context) > 0 { f.context = context[0] }
	if f.context.Order == nil { f.context.Order = binary.LittleEndian }
	if f.context.IDBytes == 0 { f.context.IDBytes = 8 }
	if f.context.IDBytes != 4 && f.context.IDBytes != 8 {
		return nil, fmt.Errorf("The particle ID width was set to %d bytes, "+
			"but Gadget-2 IDs are either 4 or 8 bytes.", f.context.IDBytes)
	}

	var err error
	f.fileNames, err = snapshotFileNames(fname, f.context.Order)
	if err != nil { return nil, err }

	f.fileNP = make([][NumTypes]int64, len(f.fileNames))
	for i, name := range f.fileNames {
		rawHd := &rawGadget2Header{ }
		err := readRawGadget2Header(name, f.context.Order, rawHd)
		if err != nil { return nil, err }

		if i == 0 { f.hd = convertRawHeader(rawHd) }
		for t := 0; t < NumTypes; t++ {
			f.fileNP[i][t] = int64(rawHd.NPart[t])
			f.hd.NPart[t] += int64(rawHd.NPart[t])
		}
	}

	f.names = BlockNames(&f.hd, f.context.Variant)
	for i, name := range f.fileNames {
		err := f.checkFileSize(name, f.fileNP[i])
		if err != nil { return nil, err }
	}

	return f, nil
}

// snapshotFileNames resolves a snapshot base name into the list of files
// making up the snapshot.
func snapshotFileNames(fname string, order binary.ByteOrder) ([]string, error) {
	if err := checkSnapshotFile(fname); err == nil {
		return []string{fname}, nil
	}

	first := fmt.Sprintf("%s.0", fname)
	if err := checkSnapshotFile(first); err != nil {
		return nil, fmt.Errorf("Neither %s nor %s exists, so no snapshot "+
			"could be opened.", fname, first)
	}

	rawHd := &rawGadget2Header{ }
	err := readRawGadget2Header(first, order, rawHd)
	if err != nil { return nil, err }
	if rawHd.NumFiles == 0 {
		return nil, fmt.Errorf("The header of %s claims the snapshot is "+
			"split across 0 files.", first)
	}

	names := make([]string, rawHd.NumFiles)
	for i := range names {
		names[i] = fmt.Sprintf("%s.%d", fname, i)
		if err := checkSnapshotFile(names[i]); err != nil { return nil, err }
	}
	return names, nil
}

// checkSnapshotFile returns an error if the given file can't be opened or if
// it is a directory.
func checkSnapshotFile(fname string) error {
	info, err := os.Stat(fname)
	if err != nil {
		return fmt.Errorf("The file %s cannot be opened. The system error "+
			"is: \"%s\"", fname, err.Error())
	} else if info.IsDir() {
		return fmt.Errorf("The file %s is a directory, not a Gadget-2 file.",
			fname)
	}
	return nil
}

// readRawGadget2Header reads the raw header of a single snapshot file,
// checking the Fortran record framing around it.
func readRawGadget2Header(
	fname string, order binary.ByteOrder, rawHd *rawGadget2Header,
) error {
	file, err := os.Open(fname)
	if err != nil { return err }
	defer file.Close()

	nHeader, nFooter := uint32(0), uint32(0)

	err = binary.Read(file, order, &nHeader)
	if err != nil { return err }
	if nHeader != gadget2HeaderSize {
		return fmt.Errorf("%s is not a valid Gadget-2 file: the first "+
			"integer would lead to a header with %d bytes instead of %d.",
			fname, nHeader, gadget2HeaderSize)
	}

	err = binary.Read(file, order, rawHd)
	if err != nil { return err }

	err = binary.Read(file, order, &nFooter)
	if err != nil { return err }
	if nHeader != nFooter {
		return fmt.Errorf("%s is not a valid Gadget-2 file: the header, %d, "+
			"and footer, %d, of the first data block don't match.",
			fname, nHeader, nFooter,
		)
	}

	return nil
}

// convertRawHeader converts a raw on-disk header into the format-independent
// Header type. The fixed masses are kept in the file's internal units so
// that a zero entry keeps its "read the MASS block instead" meaning.
func convertRawHeader(rawHd *rawGadget2Header) Header {
	hd := Header{
		Time: rawHd.Time, Redshift: rawHd.Redshift,
		BoxSize: rawHd.BoxSize,
		Omega0: rawHd.Omega0, OmegaLambda: rawHd.OmegaLambda,
		HubbleParam: rawHd.HubbleParam,
		FlagCooling: rawHd.FlagCooling != 0,
		FlagSfr:     rawHd.FlagSfr != 0,
		NumFiles:    int(rawHd.NumFiles),
	}
	for t := 0; t < NumTypes; t++ { hd.Mass[t] = rawHd.Mass[t] }
	return hd
}

func (f *Gadget2) Header() *Header { return &f.hd }

func (f *Gadget2) NPart(typ int) int64 {
	if typ < 0 || typ >= NumTypes { return 0 }
	return f.hd.NPart[typ]
}

// Files returns the number of files the snapshot is split across.
func (f *Gadget2) Files() int { return len(f.fileNames) }

// blockBytes returns the number of data bytes the named block occupies in a
// file with the given per-type counts. A block none of whose types are in
// the file occupies no bytes and has no record framing at all.
func (f *Gadget2) blockBytes(name string, np [NumTypes]int64) int64 {
	present := blockTypes(name, np, f.hd.Mass)
	width := blockWidth(name, f.context.IDBytes)
	size := int64(0)
	for t := 0; t < NumTypes; t++ {
		if present&(1<<t) != 0 { size += np[t] * width }
	}
	return size
}

// checkFileSize verifies that a snapshot file is at least as large as its
// header and block list imply. Gadget will sometimes pad files with junk
// data, so a file being too large is not an error.
func (f *Gadget2) checkFileSize(fname string, np [NumTypes]int64) error {
	info, err := os.Stat(fname)
	if err != nil {
		return fmt.Errorf("The file %s cannot be opened. The system error "+
			"is: %s", fname, err.Error())
	}

	size := int64(8 + gadget2HeaderSize)
	for _, name := range f.names {
		if b := f.blockBytes(name, np); b > 0 { size += 8 + b }
	}

	if size > info.Size() {
		return fmt.Errorf("The header of %s implies the file holds the "+
			"blocks %s and should have %d bytes, but it actually has %d "+
			"bytes. You should check that the ID width and chemistry "+
			"variant are correct and that no blocks are missing.",
			fname, f.names, size, info.Size(),
		)
	}
	return nil
}

// blockOffset returns the byte offset of the named block's Fortran record
// length word within a file with the given per-type counts.
func (f *Gadget2) blockOffset(name string, np [NumTypes]int64) int64 {
	offset := int64(8 + gadget2HeaderSize)
	for _, bn := range f.names {
		if bn == name { break }
		if b := f.blockBytes(bn, np); b > 0 { offset += 8 + b }
	}
	return offset
}

// ReadBlock implements the Snapshot interface. See that interface for the
// meaning of the window and skip mask.
func (f *Gadget2) ReadBlock(
	name string, start, n int64, skip uint32, out interface{},
) error {
	m, err := checkOut(name, out)
	if err != nil { return err }
	if m != n {
		return fmt.Errorf("ReadBlock was asked for %d elements of '%s', "+
			"but was given a buffer with length %d.", n, name, m)
	}
	if start < 0 || n < 0 {
		return fmt.Errorf("ReadBlock was given the invalid window "+
			"[%d, %d) for the block '%s'.", start, start+n, name)
	}

	found := false
	for _, bn := range f.names {
		if bn == name { found = true; break }
	}
	if !found {
		return fmt.Errorf("The snapshot %s does not contain a '%s' block: %w",
			f.fileNames[0], name, ErrNoBlock)
	}

	width := blockWidth(name, f.context.IDBytes)
	logical := int64(0) // logical index of the current file's first element
	read := int64(0)

	for fi := range f.fileNames {
		np := f.fileNP[fi]
		present := blockTypes(name, np, f.hd.Mass)
		if present == 0 { continue }

		// Total non-skipped elements this file contributes. Files entirely
		// before the window are skipped without being opened.
		avail := int64(0)
		for t := 0; t < NumTypes; t++ {
			if present&(1<<t) != 0 && skip&(1<<t) == 0 { avail += np[t] }
		}
		if logical+avail <= start {
			logical += avail
			continue
		}

		err := f.readFileBlock(
			fi, name, np, present, skip, width, &logical, &read, start, n, out,
		)
		if err != nil { return err }
		if read == n { break }
	}

	if read != n {
		return fmt.Errorf("The window [%d, %d) of the block '%s' runs past "+
			"the end of the snapshot %s: only %d of %d requested elements "+
			"exist.", start, start+n, name, f.fileNames[0], read, n)
	}
	return nil
}

// readFileBlock reads the parts of the window that overlap a single file's
// segments of the named block. logical and read are advanced as elements are
// consumed.
func (f *Gadget2) readFileBlock(
	fi int, name string, np [NumTypes]int64, present, skip uint32,
	width int64, logical, read *int64, start, n int64, out interface{},
) error {
	file, err := os.Open(f.fileNames[fi])
	if err != nil {
		return fmt.Errorf("The file %s does not exist or cannot be "+
			"accessed.", f.fileNames[fi])
	}
	defer file.Close()

	offset := f.blockOffset(name, np)

	// Check that the Fortran record length matches the expected block size.
	_, err = file.Seek(offset, 0)
	if err != nil { return err }
	recSize := uint32(0)
	err = binary.Read(file, f.context.Order, &recSize)
	if err != nil { return err }

	expSize := f.blockBytes(name, np)
	if int64(recSize) != expSize {
		return fmt.Errorf("The record length of the '%s' block in %s is %d "+
			"bytes when the header implies %d. This likely means that an "+
			"earlier block has the wrong size, which can happen when the "+
			"ID width or chemistry variant is set incorrectly.",
			name, f.fileNames[fi], recSize, expSize,
		)
	}

	segOff := offset + 4
	for t := 0; t < NumTypes; t++ {
		if present&(1<<t) == 0 { continue }
		cnt := np[t]
		if skip&(1<<t) != 0 {
			segOff += cnt * width
			continue
		}

		lo, hi := start+*read, start+n
		if lo < *logical { lo = *logical }
		if hi > *logical+cnt { hi = *logical + cnt }
		if lo < hi {
			byteOff := segOff + (lo-*logical)*width
			err := readRange(file, f.context.Order, byteOff, out, *read, hi-lo)
			if err != nil {
				return fmt.Errorf("Reading %d elements of the '%s' block "+
					"from %s failed: %s", hi-lo, name, f.fileNames[fi],
					err.Error())
			}
			*read += hi - lo
		}

		*logical += cnt
		segOff += cnt * width
	}
	return nil
}

// readRange reads cnt elements into out[dst:dst+cnt] from the given byte
// offset of an open file.
func readRange(
	file *os.File, order binary.ByteOrder,
	byteOff int64, out interface{}, dst, cnt int64,
) error {
	_, err := file.Seek(byteOff, 0)
	if err != nil { return err }

	switch x := out.(type) {
	case []float32:
		return binary.Read(file, order, x[dst:dst+cnt])
	case [][3]float32:
		// binary.Read does a pile of heap allocations when given a
		// [][3]float32, so "cast" the slice to a flat []float32 first.
		v := x[dst : dst+cnt]
		hd := *(*reflect.SliceHeader)(unsafe.Pointer(&v))
		hd.Len *= 3
		hd.Cap *= 3
		flat := *(*[]float32)(unsafe.Pointer(&hd))
		return binary.Read(file, order, flat)
	}
	panic("Internal error: readRange given an unchecked buffer type.")
}
