/*
 * m65832 - Main bus: page-indexed router over the physical/identity
 * address space.
 *
 * Grounded on github.com/rcornwell/S370 emu/memory (flat backing store)
 * and emu/sys_channel (device table lookup by numeric handle), adapted
 * from a pair of package-level globals into an instance-owned router
 * with a typed, non-exception fault result (see Outcome).
 */
package bus

import (
	"sort"
	"sync"
)

// Intent classifies why an access is being made. The bus and MMU use it
// to decide which permission bits apply and whether device side effects
// may fire.
type Intent uint8

const (
	ExecFetch Intent = iota
	DataRead
	DataWrite
	DebugRead
	DebugWrite
)

// IsDebug reports whether the access is a side-effect-free observational
// peek/poke that bypasses permission and privilege checks.
func (i Intent) IsDebug() bool {
	return i == DebugRead || i == DebugWrite
}

// IsWrite reports whether the access carries a value to store.
func (i Intent) IsWrite() bool {
	return i == DataWrite || i == DebugWrite
}

// FaultKind enumerates the bus-level fault taxonomy (see spec.md section 4.2).
type FaultKind uint8

const (
	FaultNone FaultKind = iota
	FaultUnmapped
	FaultPermR
	FaultPermW
	FaultPermX
	FaultPermU
	FaultReserved
	FaultExecViolation
	FaultDevice
)

func (k FaultKind) String() string {
	switch k {
	case FaultNone:
		return "none"
	case FaultUnmapped:
		return "unmapped"
	case FaultPermR:
		return "permission-denied(r)"
	case FaultPermW:
		return "permission-denied(w)"
	case FaultPermX:
		return "permission-denied(x)"
	case FaultPermU:
		return "permission-denied(u)"
	case FaultReserved:
		return "reserved-bit"
	case FaultExecViolation:
		return "exec-violation"
	case FaultDevice:
		return "device-fault"
	default:
		return "unknown"
	}
}

// Outcome is the discriminated result every bus/MMU/device-page access
// returns. There is no language exception channel for architectural
// faults: the CPU inspects Outcome.Kind and converts it into a trap.
type Outcome struct {
	Value uint32
	Ok    bool
	Kind  FaultKind
	Addr  uint32
}

// Success builds an Ok outcome.
func Success(value uint32) Outcome {
	return Outcome{Value: value, Ok: true}
}

// Fail builds a faulting outcome for the given address.
func Fail(kind FaultKind, addr uint32) Outcome {
	return Outcome{Ok: false, Kind: kind, Addr: addr}
}

// RegionTag classifies the kind of backing behind a page.
type RegionTag uint8

const (
	TagUnmapped RegionTag = iota
	TagRam
	TagRom
	TagIO
)

func (t RegionTag) String() string {
	switch t {
	case TagRam:
		return "RAM"
	case TagRom:
		return "ROM"
	case TagIO:
		return "IO"
	default:
		return "UNMAPPED"
	}
}

// Permissions describes the intrinsic capability of a physical target -
// not the per-task protection bits, which live in the MMU's PTEs.
type Permissions struct {
	R, W, X bool
}

// Target is the capability set every bus-backed device implements:
// {try_read, try_write, peek, poke} plus a wide-access capability flag,
// per DESIGN NOTES section 9 ("polymorphism by capability set, not
// inheritance").
type Target interface {
	TryRead(offset uint32, width int) (value uint32, ok bool)
	TryWrite(offset uint32, width int, value uint32) (ok bool)
	Peek(offset uint32, width int) (value uint32, ok bool)
	Poke(offset uint32, width int, value uint32) (ok bool)
	SupportsWide() bool
}

// PageDescriptor is the page-map entry the main bus installs per 4 KB
// page: what backs it, how it is tagged for tooling, its intrinsic
// permissions, and (for diagnostics) a numeric device handle.
type PageDescriptor struct {
	Target   Target
	Tag      RegionTag
	Perm     Permissions
	PhysBase uint32
	DeviceID uint32
}

const (
	PageSize  = 4096
	PageShift = 12
)

// BootROMAliasBase is the physical base address of the machine-wide
// mirror of the Boot ROM (spec.md sections 4.5 and 6): the same backing
// target mapped a second time at the top of the physical address space,
// read/execute-only (bus Permissions carry no user/supervisor bit, so
// this layer does not restrict it to K privilege), so the reset vector is
// reachable at the high end of physical memory the same way it is at
// address 0. This is distinct from a compat guest's own ROM alias
// (compat.GuestROMAliasVA), which is a per-guest virtual mapping, not a
// machine-wide physical one.
const BootROMAliasBase = 0xFFFC0000

// Bus is the page-indexed router. It is exclusively owned by one
// machine instance; there is no process-wide singleton (see DESIGN
// NOTES section 9, "global mutable state").
type Bus struct {
	mu    sync.RWMutex
	pages map[uint32]*PageDescriptor
}

// New creates an empty bus with every page Unmapped.
func New() *Bus {
	return &Bus{pages: make(map[uint32]*PageDescriptor)}
}

// MapPage installs a page descriptor at the given page index
// (address>>12). Structural mutations of the page map must not occur
// while an instruction is in flight (spec.md section 5).
func (b *Bus) MapPage(pageIndex uint32, desc *PageDescriptor) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pages[pageIndex] = desc
}

// MapRange installs the same descriptor shape (a fresh copy per page)
// across count consecutive pages starting at pageIndex, with PhysBase
// advancing by one page each step. Convenience for boot-time mapping of
// multi-page regions.
func (b *Bus) MapRange(pageIndex uint32, count uint32, tmpl PageDescriptor) {
	for i := uint32(0); i < count; i++ {
		d := tmpl
		d.PhysBase = tmpl.PhysBase + i*PageSize
		b.MapPage(pageIndex+i, &d)
	}
}

// UnmapPage removes any mapping at the given page index.
func (b *Bus) UnmapPage(pageIndex uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pages, pageIndex)
}

func (b *Bus) descriptorFor(addr uint32) (*PageDescriptor, uint32, uint32) {
	pageIndex := addr >> PageShift
	offset := addr & (PageSize - 1)
	b.mu.RLock()
	desc := b.pages[pageIndex]
	b.mu.RUnlock()
	if desc != nil {
		offset += desc.PhysBase
	}
	return desc, offset, pageIndex
}

// Read performs an ExecFetch/DataRead/DebugRead access of the given
// width (8/16/32). Multi-byte accesses decompose into byte accesses
// unless the whole span lies in one page whose target advertises
// SupportsWide. A write spanning two pages is always decomposed (spec.md
// section 4.2).
func (b *Bus) Read(addr uint32, width int, intent Intent) Outcome {
	if width == 8 {
		return b.readByte(addr, intent)
	}
	n := uint32(width / 8)
	desc, _, pageIndex := b.descriptorFor(addr)
	endPageIndex := (addr + n - 1) >> PageShift
	if desc != nil && pageIndex == endPageIndex && desc.Target.SupportsWide() {
		return b.readSpan(addr, width, intent, desc)
	}
	var value uint32
	for i := uint32(0); i < n; i++ {
		o := b.readByte(addr+i, intent)
		if !o.Ok {
			return o
		}
		value |= o.Value << (8 * i)
	}
	return Outcome{Value: value, Ok: true, Addr: addr}
}

// Write performs a DataWrite/DebugWrite access.
func (b *Bus) Write(addr uint32, width int, value uint32, intent Intent) Outcome {
	if width == 8 {
		return b.writeByte(addr, uint8(value), intent)
	}
	n := uint32(width / 8)
	desc, _, pageIndex := b.descriptorFor(addr)
	endPageIndex := (addr + n - 1) >> PageShift
	if desc != nil && pageIndex == endPageIndex && desc.Target.SupportsWide() {
		return b.writeSpan(addr, width, value, intent, desc)
	}
	for i := uint32(0); i < n; i++ {
		b8 := uint8(value >> (8 * i))
		o := b.writeByte(addr+i, b8, intent)
		if !o.Ok {
			return o
		}
	}
	return Outcome{Value: value, Ok: true, Addr: addr}
}

// Peek is a side-effect-free observational read: it bypasses permission
// checks and must never trigger device side effects. ok=false on an
// unmapped page, conventionally rendered as "??" by tooling.
func (b *Bus) Peek(addr uint32, width int) (uint32, bool) {
	o := b.Read(addr, width, DebugRead)
	return o.Value, o.Ok
}

// Poke is a permission-relaxed observational write: it may bypass write
// protection but still faults when the page is unmapped.
func (b *Bus) Poke(addr uint32, width int, value uint32) bool {
	o := b.Write(addr, width, value, DebugWrite)
	return o.Ok
}

func (b *Bus) readByte(addr uint32, intent Intent) Outcome {
	desc, offset, _ := b.descriptorFor(addr)
	if desc == nil || desc.Tag == TagUnmapped {
		return Fail(FaultUnmapped, addr)
	}
	if !intent.IsDebug() {
		if intent == ExecFetch && !desc.Perm.X {
			return Fail(FaultPermX, addr)
		}
		if intent == DataRead && !desc.Perm.R {
			return Fail(FaultPermR, addr)
		}
	}
	var (
		v  uint32
		ok bool
	)
	if intent.IsDebug() {
		v, ok = desc.Target.Peek(offset, 8)
	} else {
		v, ok = desc.Target.TryRead(offset, 8)
	}
	if !ok {
		return Fail(FaultUnmapped, addr)
	}
	return Outcome{Value: v & 0xff, Ok: true, Addr: addr}
}

func (b *Bus) writeByte(addr uint32, value uint8, intent Intent) Outcome {
	desc, offset, _ := b.descriptorFor(addr)
	if desc == nil || desc.Tag == TagUnmapped {
		return Fail(FaultUnmapped, addr)
	}
	if intent == DataWrite && !desc.Perm.W {
		return Fail(FaultPermW, addr)
	}
	var ok bool
	if intent.IsDebug() {
		ok = desc.Target.Poke(offset, 8, uint32(value))
	} else {
		ok = desc.Target.TryWrite(offset, 8, uint32(value))
	}
	if !ok {
		return Fail(FaultUnmapped, addr)
	}
	return Outcome{Value: uint32(value), Ok: true, Addr: addr}
}

func (b *Bus) readSpan(addr uint32, width int, intent Intent, desc *PageDescriptor) Outcome {
	_, offset, _ := b.descriptorFor(addr)
	if !intent.IsDebug() {
		if intent == ExecFetch && !desc.Perm.X {
			return Fail(FaultPermX, addr)
		}
		if intent == DataRead && !desc.Perm.R {
			return Fail(FaultPermR, addr)
		}
	}
	var (
		v  uint32
		ok bool
	)
	if intent.IsDebug() {
		v, ok = desc.Target.Peek(offset, width)
	} else {
		v, ok = desc.Target.TryRead(offset, width)
	}
	if !ok {
		return Fail(FaultUnmapped, addr)
	}
	return Outcome{Value: v, Ok: true, Addr: addr}
}

func (b *Bus) writeSpan(addr uint32, width int, value uint32, intent Intent, desc *PageDescriptor) Outcome {
	_, offset, _ := b.descriptorFor(addr)
	if intent == DataWrite && !desc.Perm.W {
		return Fail(FaultPermW, addr)
	}
	var ok bool
	if intent.IsDebug() {
		ok = desc.Target.Poke(offset, width, value)
	} else {
		ok = desc.Target.TryWrite(offset, width, value)
	}
	if !ok {
		return Fail(FaultUnmapped, addr)
	}
	return Outcome{Value: value, Ok: true, Addr: addr}
}

// ReadPhysicalWord is used internally by the MMU to walk page tables.
// Table walks are physical and are not subject to the R/W/X gating a
// CPU-originated access gets; they still fault on an unmapped page.
func (b *Bus) ReadPhysicalWord(pa uint32) (uint32, bool) {
	desc, offset, _ := b.descriptorFor(pa)
	if desc == nil || desc.Tag == TagUnmapped {
		return 0, false
	}
	return desc.Target.TryRead(offset, 32)
}

// WritePhysicalWord is the walk-side counterpart used when the kernel
// or boot ROM builds page tables directly in physical memory.
func (b *Bus) WritePhysicalWord(pa uint32, value uint32) bool {
	desc, offset, _ := b.descriptorFor(pa)
	if desc == nil || desc.Tag == TagUnmapped {
		return false
	}
	return desc.Target.TryWrite(offset, 32, value)
}

// PageInfo is a row of the debug observer's page enumeration (spec.md
// section 6).
type PageInfo struct {
	VirtualAddress uint32
	PhysicalBase   uint32
	DeviceID       uint32
	Tag            RegionTag
	Perm           Permissions
	Wide           bool
}

// EnumeratePage returns the descriptor installed at pageIndex, if any.
func (b *Bus) EnumeratePage(pageIndex uint32) (PageInfo, bool) {
	b.mu.RLock()
	desc := b.pages[pageIndex]
	b.mu.RUnlock()
	if desc == nil {
		return PageInfo{}, false
	}
	return PageInfo{
		VirtualAddress: pageIndex << PageShift,
		PhysicalBase:   desc.PhysBase,
		DeviceID:       desc.DeviceID,
		Tag:            desc.Tag,
		Perm:           desc.Perm,
		Wide:           desc.Target.SupportsWide(),
	}, true
}

// RegionInfo is a coalesced run of adjacent pages sharing target
// identity, tag, and permissions.
type RegionInfo struct {
	VirtualStart uint32
	Length       uint32
	Tag          RegionTag
	Perm         Permissions
}

// EnumerateRegions coalesces adjacent mapped pages with identical
// (target, tag, permissions) into region runs, sorted by address.
func (b *Bus) EnumerateRegions() []RegionInfo {
	b.mu.RLock()
	indices := make([]uint32, 0, len(b.pages))
	for idx := range b.pages {
		indices = append(indices, idx)
	}
	b.mu.RUnlock()
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	var regions []RegionInfo
	var cur *RegionInfo
	var curTarget Target
	for _, idx := range indices {
		b.mu.RLock()
		desc := b.pages[idx]
		b.mu.RUnlock()
		addr := idx << PageShift
		if cur != nil && curTarget == desc.Target && cur.Tag == desc.Tag &&
			cur.Perm == desc.Perm && cur.VirtualStart+cur.Length == addr {
			cur.Length += PageSize
			continue
		}
		if cur != nil {
			regions = append(regions, *cur)
		}
		cur = &RegionInfo{VirtualStart: addr, Length: PageSize, Tag: desc.Tag, Perm: desc.Perm}
		curTarget = desc.Target
	}
	if cur != nil {
		regions = append(regions, *cur)
	}
	return regions
}
