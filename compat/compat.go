/*
 * m65832 - Compatibility window manager.
 *
 * spec.md sections 4.5 and 5 describe a 64 KB per-guest virtual window
 * modeling the classic Apple II memory map: RAM at $0000-$BFFF, one
 * Device Page at $C000-$CFFF, and ROM at $D000-$FFFF with a high-ROM
 * alias. Window assembles that layout from mmu.PageTable/FrameAllocator
 * and a devpage.AppleIIPage, grounded on the teacher's per-device
 * instancing in emu/sys_channel (one chanDev per channel, never a
 * shared global) - here, one Window per compat task, so two guests
 * never see each other's soft-switch state.
 */
package compat

import (
	"github.com/m65832/m65832/bus"
	"github.com/m65832/m65832/devpage"
	"github.com/m65832/m65832/mmu"
)

// Layout constants for the 64 KB guest window (spec.md section 4.5).
const (
	WindowSize   = 0x10000
	RAMEnd       = 0xBFFF
	DevPageBase  = 0xC000
	DevPageEnd   = 0xCFFF
	ROMBase      = 0xD000
	ROMEnd       = 0xFFFF
	// GuestROMAliasVA is a per-guest virtual alias of this window's own
	// ROM payload, mapped with the same permissions as the primary
	// ROMBase..ROMEnd mapping. Distinct from the machine-wide physical
	// Boot-ROM mirror at bus.BootROMAliasBase (spec.md section 6), which
	// is a read/execute-only physical mirror of the one Boot ROM
	// shared by the whole machine, not a per-compat-guest concept.
	GuestROMAliasVA = 0xFFFF0000
)

// Window is one guest's compatibility task: its own page table, its
// own Apple II device page, and the physical frames backing its RAM
// and ROM. COMPATID identifies the guest for soft-switch/debug
// reporting (spec.md section 6); COMPATID==0 is a permitted bare task
// with no ROM payload mapped (see DESIGN.md).
type Window struct {
	COMPATID uint32
	PageTable *mmu.PageTable
	DevPage   *devpage.AppleIIPage
	Devices   *devpage.Registry
	devID     devpage.ID

	ramBase uint32
	romBase uint32
	hasROM  bool
}

// New builds a Window: a fresh page table mapping $0000-$BFFF onto a
// run of freshly allocated RAM frames, the one DEV page at $C000 routed to page, and - if
// romData is non-empty - ROM mapped at $D000-$FFFF plus its high
// alias, all backed by physical frames taken from alloc. alloc must
// draw from a range the owning machine has already mapped as RAM in
// its bus, since FrameAllocator only zeroes and hands out addresses -
// it does not itself install bus page descriptors.
func New(compatID uint32, w mmu.PhysWriter, alloc *mmu.FrameAllocator, devices *devpage.Registry, page *devpage.AppleIIPage, romData []byte) (*Window, bool) {
	pt, ok := mmu.NewPageTable(w, alloc)
	if !ok {
		return nil, false
	}

	win := &Window{
		COMPATID:  compatID,
		PageTable: pt,
		DevPage:   page,
		Devices:   devices,
		devID:     devpage.NewID(devpage.ClassAppleII, uint8(compatID), 0),
	}

	ramFrames := uint32((RAMEnd + 1) / bus.PageSize)
	ramBase, ok := allocRun(alloc, ramFrames)
	if !ok {
		return nil, false
	}
	win.ramBase = ramBase
	for i := uint32(0); i < uint32(ramFrames); i++ {
		va := i * bus.PageSize
		leaf := mmu.NewPTE((ramBase+i*bus.PageSize)>>12, true, true, true, true, true, false, false)
		if !pt.Map(va, leaf) {
			return nil, false
		}
	}

	devLeaf := mmu.NewPTE(uint32(win.devID), true, true, true, false, true, false, true)
	if !pt.Map(DevPageBase, devLeaf) {
		return nil, false
	}
	devices.Register(win.devID, page)

	if len(romData) > 0 {
		romFrames := uint32((ROMEnd - ROMBase + 1) / bus.PageSize)
		romBase, ok := allocRun(alloc, romFrames)
		if !ok {
			return nil, false
		}
		win.romBase = romBase
		win.hasROM = true
		writeROMImage(w, romBase, romData)
		for i := uint32(0); i < uint32(romFrames); i++ {
			va := ROMBase + i*bus.PageSize
			leaf := mmu.NewPTE((romBase+i*bus.PageSize)>>12, true, true, false, true, true, false, false)
			if !pt.Map(va, leaf) {
				return nil, false
			}
			aliasVA := GuestROMAliasVA + i*bus.PageSize
			if !pt.Map(aliasVA, leaf) {
				return nil, false
			}
		}
	}

	return win, true
}

// writeROMImage copies romData into physical memory starting at base,
// one 32-bit word at a time (PhysWriter has no byte-granular write),
// zero-padding any trailing partial word.
func writeROMImage(w mmu.PhysWriter, base uint32, romData []byte) {
	for off := 0; off < len(romData); off += 4 {
		var word uint32
		for i := 0; i < 4 && off+i < len(romData); i++ {
			word |= uint32(romData[off+i]) << (8 * i)
		}
		w.WritePhysicalWord(base+uint32(off), word)
	}
}

func allocRun(alloc *mmu.FrameAllocator, frames uint32) (uint32, bool) {
	base, ok := alloc.Alloc()
	if !ok {
		return 0, false
	}
	for i := uint32(1); i < frames; i++ {
		if _, ok := alloc.Alloc(); !ok {
			return 0, false
		}
	}
	return base, true
}

// HasROM reports whether this window has a ROM payload mapped - false
// for a COMPATID=0 bare task, per spec.md section 9's permissive
// phrasing (see DESIGN.md Open Questions).
func (w *Window) HasROM() bool { return w.hasROM }
