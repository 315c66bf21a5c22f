package snapio

import (
	"fmt"
)

// FakeSnapshot implements the Snapshot interface for testing purposes, but
// can be initialized directly from arrays instead of files. Blocks are added
// one type segment at a time with SetScalar() and SetVector(), and the
// logical-array and skip-mask semantics match the real reader's.
type FakeSnapshot struct {
	hd      Header
	scalars map[string]*[NumTypes][]float32
	vectors map[string]*[NumTypes][][3]float32
}

var _ Snapshot = &FakeSnapshot{ }

// NewFakeSnapshot creates a FakeSnapshot with the given header. The header's
// NPart counts are trusted as given: segments added later are not required
// to cover them, which lets tests construct truncated snapshots.
func NewFakeSnapshot(hd Header) *FakeSnapshot {
	return &FakeSnapshot{
		hd:      hd,
		scalars: map[string]*[NumTypes][]float32{ },
		vectors: map[string]*[NumTypes][][3]float32{ },
	}
}

func (s *FakeSnapshot) Header() *Header { return &s.hd }

func (s *FakeSnapshot) NPart(typ int) int64 {
	if typ < 0 || typ >= NumTypes { return 0 }
	return s.hd.NPart[typ]
}

// SetScalar sets the data a scalar block holds for one particle type.
func (s *FakeSnapshot) SetScalar(name string, typ int, x []float32) {
	seg, ok := s.scalars[name]
	if !ok {
		seg = &[NumTypes][]float32{ }
		s.scalars[name] = seg
	}
	seg[typ] = x
}

// SetVector sets the data a vector block holds for one particle type.
func (s *FakeSnapshot) SetVector(name string, typ int, x [][3]float32) {
	seg, ok := s.vectors[name]
	if !ok {
		seg = &[NumTypes][][3]float32{ }
		s.vectors[name] = seg
	}
	seg[typ] = x
}

func (s *FakeSnapshot) ReadBlock(
	name string, start, n int64, skip uint32, out interface{},
) error {
	m, err := checkOut(name, out)
	if err != nil { return err }
	if m != n {
		return fmt.Errorf("ReadBlock was asked for %d elements of '%s', "+
			"but was given a buffer with length %d.", n, name, m)
	}

	switch x := out.(type) {
	case []float32:
		seg, ok := s.scalars[name]
		if !ok {
			return fmt.Errorf("The fake snapshot has no '%s' block: %w",
				name, ErrNoBlock)
		}
		logical := []float32{ }
		for t := 0; t < NumTypes; t++ {
			if skip&(1<<t) == 0 { logical = append(logical, seg[t]...) }
		}
		if start+n > int64(len(logical)) {
			return fmt.Errorf("The window [%d, %d) of the block '%s' runs "+
				"past its %d elements.", start, start+n, name, len(logical))
		}
		copy(x, logical[start:start+n])
	case [][3]float32:
		seg, ok := s.vectors[name]
		if !ok {
			return fmt.Errorf("The fake snapshot has no '%s' block: %w",
				name, ErrNoBlock)
		}
		logical := [][3]float32{ }
		for t := 0; t < NumTypes; t++ {
			if skip&(1<<t) == 0 { logical = append(logical, seg[t]...) }
		}
		if start+n > int64(len(logical)) {
			return fmt.Errorf("The window [%d, %d) of the block '%s' runs "+
				"past its %d elements.", start, start+n, name, len(logical))
		}
		copy(x, logical[start:start+n])
	}
	return nil
}
