/*
 * m65832 - Page table entry format (spec.md section 6).
 *
 * bit 0 P, 1 R, 2 W, 3 X, 4 U, 5 A, 6 D, 7 G, 8 DEV, bits 9-11
 * reserved (must be zero), bits 12-31 PFN or Device Page ID.
 */
package mmu

// PTE is a 32-bit page table entry, shared by L1 and L2 levels.
type PTE uint32

const (
	bitP uint32 = 1 << 0
	bitR uint32 = 1 << 1
	bitW uint32 = 1 << 2
	bitX uint32 = 1 << 3
	bitU uint32 = 1 << 4
	bitA uint32 = 1 << 5
	bitD uint32 = 1 << 6
	bitG uint32 = 1 << 7
	bitV uint32 = 1 << 8 // DEV

	reservedMask uint32 = 0x7 << 9
	pfnShift            = 12
)

// NewPTE builds a leaf or intermediate entry pointing at a physical
// frame number (or, when dev is true, a Device Page ID).
func NewPTE(pfnOrDevID uint32, present, r, w, x, u, global, dev bool) PTE {
	var v uint32
	if present {
		v |= bitP
	}
	if r {
		v |= bitR
	}
	if w {
		v |= bitW
	}
	if x {
		v |= bitX
	}
	if u {
		v |= bitU
	}
	if global {
		v |= bitG
	}
	if dev {
		v |= bitV
	}
	v |= pfnOrDevID << pfnShift
	return PTE(v)
}

func (p PTE) Present() bool  { return uint32(p)&bitP != 0 }
func (p PTE) Readable() bool { return uint32(p)&bitR != 0 }
func (p PTE) Writable() bool { return uint32(p)&bitW != 0 }
func (p PTE) Executable() bool { return uint32(p)&bitX != 0 }
func (p PTE) User() bool     { return uint32(p)&bitU != 0 }
func (p PTE) Accessed() bool { return uint32(p)&bitA != 0 }
func (p PTE) Dirty() bool    { return uint32(p)&bitD != 0 }
func (p PTE) Global() bool   { return uint32(p)&bitG != 0 }
func (p PTE) Dev() bool      { return uint32(p)&bitV != 0 }

// ReservedSet reports whether any of the must-be-zero bits 9-11 are set.
func (p PTE) ReservedSet() bool { return uint32(p)&reservedMask != 0 }

// PFN returns the page frame number (or, when Dev() is true, the
// 20-bit Device Page ID).
func (p PTE) PFN() uint32 { return uint32(p) >> pfnShift }

// WithAccessed returns a copy with the accessed bit set.
func (p PTE) WithAccessed() PTE { return PTE(uint32(p) | bitA) }

// WithDirty returns a copy with the dirty bit set.
func (p PTE) WithDirty() PTE { return PTE(uint32(p) | bitD) }
