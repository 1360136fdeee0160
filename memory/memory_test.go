package memory

import "testing"

func TestRegionSpanClampsToLength(t *testing.T) {
	r := NewRegion("test", 8)
	if got := len(r.Span(4, 100)); got != 4 {
		t.Fatalf("Span length = %d, want 4 (clamped)", got)
	}
	if got := r.Span(100, 4); got != nil {
		t.Fatalf("Span past end = %v, want nil", got)
	}
}

func TestRAMTargetReadWriteRoundTrip(t *testing.T) {
	r := NewRegion("ram", 16)
	tgt := &RAMTarget{Region: r}

	if ok := tgt.TryWrite(0, 16, 0xBEEF); !ok {
		t.Fatal("TryWrite failed")
	}
	v, ok := tgt.TryRead(0, 16)
	if !ok || v != 0xBEEF {
		t.Fatalf("TryRead = %#x, ok=%v, want 0xbeef", v, ok)
	}
}

func TestRAMTargetPokeBypassesNothingButWritesThrough(t *testing.T) {
	r := NewRegion("ram", 4)
	tgt := &RAMTarget{Region: r}

	if ok := tgt.Poke(0, 8, 0x7A); !ok {
		t.Fatal("Poke failed")
	}
	if r.Span(0, 1)[0] != 0x7A {
		t.Fatalf("backing byte = %#x, want 0x7a", r.Span(0, 1)[0])
	}
}

// ROMTarget.Poke must write through a mapped ROM page - a debug write
// bypasses write protection, it does not silently no-op against
// backing storage that exists (spec.md section 4.2).
func TestROMTargetPokeWritesThroughMappedPage(t *testing.T) {
	r := NewRegion("rom", 4)
	tgt := &ROMTarget{Region: r}

	if ok := tgt.Poke(1, 8, 0x99); !ok {
		t.Fatal("Poke on a mapped ROM page must succeed")
	}
	if r.Span(1, 1)[0] != 0x99 {
		t.Fatalf("backing byte = %#x, want 0x99", r.Span(1, 1)[0])
	}
}

func TestROMTargetPokePastEndFails(t *testing.T) {
	r := NewRegion("rom", 4)
	tgt := &ROMTarget{Region: r}

	if ok := tgt.Poke(4, 8, 0x99); ok {
		t.Fatal("Poke past the end of a region must fail like an unmapped page")
	}
}

func TestROMTargetTryWriteAlwaysRejected(t *testing.T) {
	r := NewRegion("rom", 4)
	tgt := &ROMTarget{Region: r}

	if ok := tgt.TryWrite(0, 8, 0x99); ok {
		t.Fatal("non-debug TryWrite against ROM must always fail")
	}
	if r.Span(0, 1)[0] != 0x00 {
		t.Fatalf("ROM backing byte changed by a rejected TryWrite: %#x", r.Span(0, 1)[0])
	}
}

func TestROMTargetReadReflectsLoadedImage(t *testing.T) {
	r := NewRegion("rom", 4)
	copy(r.Span(0, 4), []byte{0x01, 0x02, 0x03, 0x04})
	tgt := &ROMTarget{Region: r}

	v, ok := tgt.TryRead(0, 32)
	if !ok || v != 0x04030201 {
		t.Fatalf("TryRead(32) = %#x, ok=%v, want 0x04030201", v, ok)
	}
}
