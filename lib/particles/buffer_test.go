package particles

import (
	"testing"
)

func TestAlloc(t *testing.T) {
	buf, err := Alloc(5, false)
	if err != nil { t.Fatalf("Expected valid Alloc, got: %s", err.Error()) }

	if buf.Len() != 5 {
		t.Errorf("Expected Len() = 5, got %d", buf.Len())
	}
	if len(buf.X) != 5 || len(buf.V) != 5 {
		t.Errorf("Vector fields have lengths (%d, %d), not 5",
			len(buf.X), len(buf.V))
	}
	scalars := [][]float32{buf.Mass, buf.U, buf.Ne, buf.NH0, buf.H}
	for i, x := range scalars {
		if len(x) != 5 {
			t.Errorf("Scalar field %d has length %d, not 5", i, len(x))
		}
	}
	if buf.NHep != nil {
		t.Errorf("NHep was allocated without helium tracking.")
	}
}

func TestAllocHelium(t *testing.T) {
	buf, err := Alloc(3, true)
	if err != nil { t.Fatalf("Expected valid Alloc, got: %s", err.Error()) }
	if len(buf.NHep) != 3 {
		t.Errorf("Expected NHep length 3, got %d", len(buf.NHep))
	}
}

func TestAllocZero(t *testing.T) {
	buf, err := Alloc(0, false)
	if err != nil { t.Fatalf("Expected valid Alloc, got: %s", err.Error()) }
	if buf.Len() != 0 {
		t.Errorf("Expected Len() = 0, got %d", buf.Len())
	}
}

func TestAllocFailure(t *testing.T) {
	if _, err := Alloc(-1, false); err == nil {
		t.Errorf("Expected Alloc of a negative count to fail.")
	}
	if _, err := Alloc(1<<62, false); err == nil {
		t.Errorf("Expected an absurdly large Alloc to fail.")
	}
}

func TestRelease(t *testing.T) {
	buf, err := Alloc(4, true)
	if err != nil { t.Fatalf("Expected valid Alloc, got: %s", err.Error()) }

	buf.Release()
	if buf.Len() != 0 {
		t.Errorf("Expected Len() = 0 after Release, got %d", buf.Len())
	}
	fields := [][]float32{buf.Mass, buf.U, buf.Ne, buf.NH0, buf.H, buf.NHep}
	for i, x := range fields {
		if x != nil {
			t.Errorf("Scalar field %d survived Release.", i)
		}
	}
	if buf.X != nil || buf.V != nil {
		t.Errorf("Vector fields survived Release.")
	}
}
