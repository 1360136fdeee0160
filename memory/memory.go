/*
 * m65832 - Physical memory regions and bus targets.
 *
 * Grounded on github.com/rcornwell/S370 emu/memory, which keeps a
 * single flat backing array behind package-level functions. Here each
 * region owns its own backing slice and is installed into a bus.Bus as
 * a RAM or ROM target, so two machine instances in the same process
 * never share state (DESIGN NOTES section 9).
 */
package memory

import "github.com/m65832/m65832/bus"

// Region is a named, flat physical memory region: Boot ROM, main RAM,
// or a guest's private RAM pages.
type Region struct {
	name string
	data []byte
}

// NewRegion allocates a zeroed region of the given size in bytes.
func NewRegion(name string, size uint32) *Region {
	return &Region{name: name, data: make([]byte, size)}
}

// Name returns the region's diagnostic name.
func (r *Region) Name() string { return r.name }

// Len returns the region's size in bytes.
func (r *Region) Len() uint32 { return uint32(len(r.data)) }

// Span returns a slice of the backing array - used to load ROM images
// or inspect RAM directly in tests.
func (r *Region) Span(offset, length uint32) []byte {
	if offset > uint32(len(r.data)) {
		return nil
	}
	end := offset + length
	if end > uint32(len(r.data)) {
		end = uint32(len(r.data))
	}
	return r.data[offset:end]
}

func (r *Region) read(offset uint32, width int) (uint32, bool) {
	n := uint32(width / 8)
	if offset+n > uint32(len(r.data)) {
		return 0, false
	}
	var v uint32
	for i := uint32(0); i < n; i++ {
		v |= uint32(r.data[offset+i]) << (8 * i)
	}
	return v, true
}

func (r *Region) write(offset uint32, width int, value uint32) bool {
	n := uint32(width / 8)
	if offset+n > uint32(len(r.data)) {
		return false
	}
	for i := uint32(0); i < n; i++ {
		r.data[offset+i] = byte(value >> (8 * i))
	}
	return true
}

// RAMTarget adapts a Region as a read/write bus.Target.
type RAMTarget struct {
	Region *Region
}

func (t *RAMTarget) TryRead(offset uint32, width int) (uint32, bool)  { return t.Region.read(offset, width) }
func (t *RAMTarget) TryWrite(offset uint32, width int, v uint32) bool { return t.Region.write(offset, width, v) }
func (t *RAMTarget) Peek(offset uint32, width int) (uint32, bool)     { return t.Region.read(offset, width) }
func (t *RAMTarget) Poke(offset uint32, width int, v uint32) bool     { return t.Region.write(offset, width, v) }
func (t *RAMTarget) SupportsWide() bool                               { return true }

// ROMTarget adapts a Region as a read-only bus.Target: TryWrite always
// fails, matching physical ROM behavior regardless of any higher-level
// protection bits; only a debug Poke writes through (see Poke).
type ROMTarget struct {
	Region *Region
}

func (t *ROMTarget) TryRead(offset uint32, width int) (uint32, bool) { return t.Region.read(offset, width) }
func (t *ROMTarget) TryWrite(uint32, int, uint32) bool               { return false }
func (t *ROMTarget) Peek(offset uint32, width int) (uint32, bool)    { return t.Region.read(offset, width) }

// Poke bypasses the ROM's write protection like any debug write, but
// still only succeeds against the region actually backing this target
// - it must not silently no-op, or a debugger patching ROM content for
// a test fixture would see its poke "succeed" while nothing changed.
func (t *ROMTarget) Poke(offset uint32, width int, v uint32) bool {
	return t.Region.write(offset, width, v)
}
func (t *ROMTarget) SupportsWide() bool { return true }

var (
	_ bus.Target = (*RAMTarget)(nil)
	_ bus.Target = (*ROMTarget)(nil)
)
