/*
 * m65832 - Boot handoff structure.
 *
 * spec.md sections 4.6 and 6 describe the kernel's reset entry and the
 * boot ROM's role in establishing the first page tables and starting
 * compatibility tasks, but leave the actual data the boot ROM hands to
 * the kernel as prose. Handoff makes that concrete and testable
 * without an actual 65832 boot ROM image, grounded on the teacher's
 * config/configparser.go convention of a small explicit struct with a
 * hand-rolled codec rather than encoding/gob (spec.md's ambient stack,
 * SPEC_FULL.md section A).
 */
package boot

import "encoding/binary"

// Handoff is the fixed-size record a boot ROM writes to a well-known
// physical address before jumping to the kernel, and the kernel reads
// back to learn what the boot ROM already set up.
type Handoff struct {
	Magic        uint32
	KernelPTBR   uint32
	KernelVBAR   uint32
	FreeFrameLo  uint32
	FreeFrameHi  uint32
	CompatCount  uint32
	CompatTarget uint32 // physical address of the first compat.Window descriptor
}

// HandoffMagic identifies a valid handoff record; Decode rejects any
// other value.
const HandoffMagic = 0x36353833 // "6583" in ASCII, most significant byte first; Encode stores the bytes "3856"

const encodedSize = 7 * 4

// Encode serializes h little-endian, the byte order spec.md section 3
// uses throughout.
func (h Handoff) Encode() []byte {
	buf := make([]byte, encodedSize)
	binary.LittleEndian.PutUint32(buf[0:], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:], h.KernelPTBR)
	binary.LittleEndian.PutUint32(buf[8:], h.KernelVBAR)
	binary.LittleEndian.PutUint32(buf[12:], h.FreeFrameLo)
	binary.LittleEndian.PutUint32(buf[16:], h.FreeFrameHi)
	binary.LittleEndian.PutUint32(buf[20:], h.CompatCount)
	binary.LittleEndian.PutUint32(buf[24:], h.CompatTarget)
	return buf
}

// Decode parses a handoff record, reporting false if buf is short or
// its magic does not match.
func Decode(buf []byte) (Handoff, bool) {
	if len(buf) < encodedSize {
		return Handoff{}, false
	}
	h := Handoff{
		Magic:        binary.LittleEndian.Uint32(buf[0:]),
		KernelPTBR:   binary.LittleEndian.Uint32(buf[4:]),
		KernelVBAR:   binary.LittleEndian.Uint32(buf[8:]),
		FreeFrameLo:  binary.LittleEndian.Uint32(buf[12:]),
		FreeFrameHi:  binary.LittleEndian.Uint32(buf[16:]),
		CompatCount:  binary.LittleEndian.Uint32(buf[20:]),
		CompatTarget: binary.LittleEndian.Uint32(buf[24:]),
	}
	if h.Magic != HandoffMagic {
		return Handoff{}, false
	}
	return h, true
}
