/*
 * m65832 - MMU: virtual-to-physical (or device) translation and
 * protection enforcement.
 *
 * Grounded on github.com/rcornwell/S370 emu/cpu's DAT (dynamic address
 * translation) handling in cpu_system.go, re-architected from the
 * S/370's single-level segment/page tables to the two-level 4 KB
 * scheme of spec.md section 4.3, and from package-level CPU state to
 * an owned struct (DESIGN NOTES section 9).
 */
package mmu

import (
	"github.com/m65832/m65832/bus"
	"github.com/m65832/m65832/devpage"
)

// Privilege mirrors the CPU's U/K/H levels (H is reserved).
type Privilege uint8

const (
	PrivU Privilege = iota
	PrivK
	PrivH
)

// CR0 holds the three architectural control bits named in spec.md:
// paging enable, NX enforcement, and UM (reserved for future use -
// spec.md does not define its semantics beyond naming it, so it is
// carried read/write but never consulted by a check below).
type CR0 struct {
	PG  bool
	UM  bool
	NXE bool
}

// Fault Status Code values, loaded into FSC on a PAGEFAULT trap.
const (
	FSCNone          uint32 = 0
	FSCNotPresent    uint32 = 1
	FSCPermissionR   uint32 = 2
	FSCPermissionW   uint32 = 3
	FSCPermissionX   uint32 = 4
	FSCPermissionU   uint32 = 5
	FSCExecViolation uint32 = 6
	FSCReserved      uint32 = 7
	FSCDeviceFault   uint32 = 8
)

// FaultStatusCode maps a bus fault kind to the FSC value a trap loads,
// the same mapping recordFault uses, exported for callers outside the
// MMU. The CPU does not call it: it reads FSC as the MMU recorded it.
func FaultStatusCode(kind bus.FaultKind) uint32 {
	return faultStatusCode(kind)
}

func faultStatusCode(kind bus.FaultKind) uint32 {
	switch kind {
	case bus.FaultUnmapped:
		return FSCNotPresent
	case bus.FaultPermR:
		return FSCPermissionR
	case bus.FaultPermW:
		return FSCPermissionW
	case bus.FaultPermX:
		return FSCPermissionX
	case bus.FaultPermU:
		return FSCPermissionU
	case bus.FaultReserved:
		return FSCReserved
	case bus.FaultExecViolation:
		return FSCExecViolation
	case bus.FaultDevice:
		return FSCDeviceFault
	default:
		return FSCNone
	}
}

// MMU is the single access point the CPU issues every bus access
// through. With CR0.PG=0 it is a transparent pass-through to Bus
// (identity translation, spec.md section 3); with CR0.PG=1 it walks a
// two-level page table rooted at PTBR.
type MMU struct {
	Bus     *bus.Bus
	Devices *devpage.Registry

	CR0  CR0
	PTBR uint32
	VBAR uint32
	ASID uint32

	// Fault diagnostic registers, loaded on the most recent fault.
	FAR uint32
	FSC uint32
	FDI uint32 // faulting Device Page ID, when FSC == FSCDeviceFault
	FOP uint32 // faulting operation (mirrors the Intent)
	FW  uint32 // faulting access width
}

// New creates an MMU over the given physical bus and device-page
// registry, with paging disabled.
func New(b *bus.Bus, devices *devpage.Registry) *MMU {
	return &MMU{Bus: b, Devices: devices}
}

// SetVBAR installs a new vector base address if it is 4 KB page
// aligned, per spec.md's invariant that a misaligned VBAR write faults
// and leaves VBAR unchanged. Reports whether the write took effect.
func (m *MMU) SetVBAR(addr uint32) bool {
	if addr&(bus.PageSize-1) != 0 {
		return false
	}
	m.VBAR = addr
	return true
}

func (m *MMU) recordFault(addr uint32, kind bus.FaultKind, intent bus.Intent, width int, devID uint32) {
	m.FAR = addr
	m.FSC = faultStatusCode(kind)
	m.FOP = uint32(intent)
	m.FW = uint32(width)
	if kind == bus.FaultDevice {
		m.FDI = devID
	}
}

// ReadPhysicalWord/WritePhysicalWord satisfy mmu.PhysWriter, so an MMU
// can itself serve as the writer a PageTable or FrameAllocator builds
// through.
func (m *MMU) ReadPhysicalWord(pa uint32) (uint32, bool)         { return m.Bus.ReadPhysicalWord(pa) }
func (m *MMU) WritePhysicalWord(pa uint32, v uint32) bool         { return m.Bus.WritePhysicalWord(pa, v) }

// Access is the sole entry point the CPU (and the debug observer) use
// for every memory reference: ExecFetch, DataRead, DataWrite, DebugRead,
// or DebugWrite against a virtual address.
func (m *MMU) Access(addr uint32, width int, intent bus.Intent, priv Privilege, writeVal uint32) bus.Outcome {
	if !m.CR0.PG {
		o := m.identityAccess(addr, width, intent, writeVal)
		if !o.Ok {
			m.recordFault(addr, o.Kind, intent, width, 0)
		}
		return o
	}

	leaf, faultKind, ok := m.walk(addr, width, intent, priv)
	if !ok {
		m.recordFault(addr, faultKind, intent, width, 0)
		return bus.Fail(faultKind, addr)
	}

	offset := addr & (bus.PageSize - 1)
	if leaf.Dev() {
		id := devpage.ID(leaf.PFN())
		outcome := m.Devices.Access(id, addr, offset, width, intent, writeVal)
		if !outcome.Ok {
			m.recordFault(addr, outcome.Kind, intent, width, uint32(id))
		}
		return outcome
	}

	pa := (leaf.PFN() << 12) | offset
	o := m.identityAccess(pa, width, intent, writeVal)
	if !o.Ok {
		m.recordFault(addr, o.Kind, intent, width, 0)
	}
	return o
}

func (m *MMU) identityAccess(addr uint32, width int, intent bus.Intent, writeVal uint32) bus.Outcome {
	switch intent {
	case bus.ExecFetch, bus.DataRead:
		return m.Bus.Read(addr, width, intent)
	case bus.DataWrite:
		return m.Bus.Write(addr, width, writeVal, intent)
	case bus.DebugRead:
		v, ok := m.Bus.Peek(addr, width)
		return bus.Outcome{Value: v, Ok: ok, Addr: addr, Kind: faultKindIf(!ok)}
	case bus.DebugWrite:
		ok := m.Bus.Poke(addr, width, writeVal)
		return bus.Outcome{Value: writeVal, Ok: ok, Addr: addr, Kind: faultKindIf(!ok)}
	default:
		return bus.Fail(bus.FaultUnmapped, addr)
	}
}

func faultKindIf(failed bool) bus.FaultKind {
	if failed {
		return bus.FaultUnmapped
	}
	return bus.FaultNone
}

// walk performs the two-level page table walk and the per-access
// checks of spec.md section 4.3, in order: present, privilege, R/W/X
// (with NX taking precedence over a would-be device dispatch),
// reserved bits.
func (m *MMU) walk(va uint32, width int, intent bus.Intent, priv Privilege) (PTE, bus.FaultKind, bool) {
	l1Addr := m.PTBR + l1Index(va)*4
	l1Word, ok := m.Bus.ReadPhysicalWord(l1Addr)
	if !ok {
		return 0, bus.FaultUnmapped, false
	}
	l1 := PTE(l1Word)
	if !l1.Present() {
		return 0, bus.FaultUnmapped, false
	}

	l2Base := l1.PFN() << 12
	l2Addr := l2Base + l2Index(va)*4
	l2Word, ok := m.Bus.ReadPhysicalWord(l2Addr)
	if !ok {
		return 0, bus.FaultUnmapped, false
	}
	leaf := PTE(l2Word)

	if !leaf.Present() {
		return 0, bus.FaultUnmapped, false
	}

	debug := intent.IsDebug()

	if !debug {
		if priv == PrivU && !leaf.User() {
			return 0, bus.FaultPermU, false
		}

		switch intent {
		case bus.ExecFetch:
			if m.CR0.NXE {
				if !leaf.Executable() {
					return 0, bus.FaultExecViolation, false
				}
			}
			// NX wins over DEV dispatch: exec-violation is checked
			// here, before DEV is ever inspected below.
		case bus.DataRead:
			if !leaf.Readable() {
				return 0, bus.FaultPermR, false
			}
		case bus.DataWrite:
			if !leaf.Writable() {
				return 0, bus.FaultPermW, false
			}
		}

		if leaf.ReservedSet() {
			return 0, bus.FaultReserved, false
		}
	}

	_ = width
	return leaf, bus.FaultNone, true
}
