/*
 * m65832 - Page table construction helpers.
 *
 * Used by the boot ROM (building the kernel's own tables) and by the
 * compatibility window manager (building a guest's tables): a small
 * bump allocator over a RAM region plus a two-level PTE writer. Walks
 * and table writes are always physical (spec.md section 3).
 */
package mmu

// PhysWriter is the narrow interface pagetable construction needs from
// the bus: raw physical word read/write, bypassing permission gating.
type PhysWriter interface {
	ReadPhysicalWord(pa uint32) (uint32, bool)
	WritePhysicalWord(pa uint32, value uint32) bool
}

// FrameAllocator hands out zeroed 4 KB physical frames from a fixed
// range, for page-table pages. It never reclaims frames: table
// construction in this architecture is boot-time/guest-start-time
// only (spec.md section 4.5, 4.6).
type FrameAllocator struct {
	w     PhysWriter
	next  uint32
	limit uint32
}

// NewFrameAllocator creates an allocator over [base, limit).
func NewFrameAllocator(w PhysWriter, base, limit uint32) *FrameAllocator {
	return &FrameAllocator{w: w, next: base, limit: limit}
}

// Alloc returns the physical address of a freshly zeroed 4 KB frame.
func (a *FrameAllocator) Alloc() (uint32, bool) {
	if a.next+4096 > a.limit {
		return 0, false
	}
	frame := a.next
	a.next += 4096
	for off := uint32(0); off < 4096; off += 4 {
		a.w.WritePhysicalWord(frame+off, 0)
	}
	return frame, true
}

// PageTable is a two-level page table rooted at L1Base, the physical
// address a CPU's PTBR should be set to once construction completes.
type PageTable struct {
	L1Base uint32
	w      PhysWriter
	alloc  *FrameAllocator
}

// NewPageTable allocates a fresh, zeroed L1 table from alloc.
func NewPageTable(w PhysWriter, alloc *FrameAllocator) (*PageTable, bool) {
	l1, ok := alloc.Alloc()
	if !ok {
		return nil, false
	}
	return &PageTable{L1Base: l1, w: w, alloc: alloc}, true
}

func l1Index(va uint32) uint32 { return va >> 22 }
func l2Index(va uint32) uint32 { return (va >> 12) & 0x3FF }

// Map installs a leaf PTE for va, allocating an L2 table on demand.
func (pt *PageTable) Map(va uint32, leaf PTE) bool {
	l1Addr := pt.L1Base + l1Index(va)*4
	l1Word, ok := pt.w.ReadPhysicalWord(l1Addr)
	if !ok {
		return false
	}
	l1 := PTE(l1Word)
	var l2Base uint32
	if l1.Present() {
		l2Base = l1.PFN() << pfnShift
	} else {
		frame, ok := pt.alloc.Alloc()
		if !ok {
			return false
		}
		l2Base = frame
		newL1 := NewPTE(frame>>pfnShift, true, true, true, false, true, false, false)
		if !pt.w.WritePhysicalWord(l1Addr, uint32(newL1)) {
			return false
		}
	}
	l2Addr := l2Base + l2Index(va)*4
	return pt.w.WritePhysicalWord(l2Addr, uint32(leaf))
}
