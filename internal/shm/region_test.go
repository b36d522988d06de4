package shm

import "testing"

func TestNewRegionZeroFilled(t *testing.T) {
	r, err := NewRegion("test", 4096)
	if err != nil {
		t.Fatalf("NewRegion: %v", err)
	}
	defer r.Close()

	for i, b := range r.Bytes() {
		if b != 0 {
			t.Fatalf("byte %d = %d, want zero-filled region", i, b)
		}
	}
}

func TestRegionSliceAliasesBytes(t *testing.T) {
	r, err := NewRegion("test", 4096)
	if err != nil {
		t.Fatalf("NewRegion: %v", err)
	}
	defer r.Close()

	s := r.Slice(16, 8)
	s[0] = 0xAB
	if r.Bytes()[16] != 0xAB {
		t.Fatal("Slice does not alias the backing region")
	}
}

func TestRegionSliceOutOfBoundsPanics(t *testing.T) {
	r, err := NewRegion("test", 16)
	if err != nil {
		t.Fatalf("NewRegion: %v", err)
	}
	defer r.Close()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-bounds slice")
		}
	}()
	r.Slice(10, 100)
}

func TestNewRegionRejectsNonPositiveSize(t *testing.T) {
	if _, err := NewRegion("test", 0); err == nil {
		t.Fatal("expected error for zero-size region")
	}
}
