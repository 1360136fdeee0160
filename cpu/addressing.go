/*
 * m65832 - Shared addressing-mode and stack helpers used by all three
 * mode decoders.
 *
 * Grounded on github.com/rcornwell/S370 emu/cpu/cpu.go's operand
 * fetch helpers (readFull/readHalf wrapping a single bus accessor),
 * generalized to the width-polymorphic A/X/Y views of spec.md section
 * 4.1.
 */
package cpu

// fetchWidth fetches an operand of width bits (8, 16 or 32) following
// the opcode byte, little-endian, advancing PC.
func (c *CPU) fetchWidth(width int) (uint32, bool) {
	var v uint32
	for i := 0; i < width/8; i++ {
		b, ok := c.fetchByte()
		if !ok {
			return 0, false
		}
		v |= uint32(b) << (8 * i)
	}
	return v, true
}

func (c *CPU) fetch8() (uint8, bool) {
	v, ok := c.fetchWidth(8)
	return uint8(v), ok
}

func (c *CPU) fetch16() (uint16, bool) {
	v, ok := c.fetchWidth(16)
	return uint16(v), ok
}

func (c *CPU) fetch32() (uint32, bool) {
	return c.fetchWidth(32)
}

// branchRel applies a signed 8-bit relative displacement to PC, the
// classic 6502 branch encoding carried unchanged into M1/M2 (spec.md
// places no redesign flag against it).
func (c *CPU) branchRel(disp uint8) {
	c.Regs.PC += uint32(int32(int8(disp)))
}

// pushByte decrements the active stack pointer by one byte and writes
// v there. The address is re-derived from Registers.SP()/SetSP() on
// every byte rather than tracked as a raw counter across a multi-byte
// push: in emulation mode (E=1) SP is forced into page 1, and a raw
// decrement of the composed 0x01xx address would escape into page 0
// at S=0x00 before the final SetSP re-masked it back. Re-deriving per
// byte keeps every intermediate address correctly wrapped within page
// 1 (spec.md section 4, "push at S=0x00 wraps to 0xFF, writes to
// $01FF; never escapes page 1").
func (c *CPU) pushByte(v uint8) {
	sp := c.Regs.SP(c.Priv, c.Mode)
	if c.Regs.E {
		sp = uint32(uint8(sp)-1) | 0x0100
	} else {
		sp--
	}
	c.writeData(sp, 8, uint32(v))
	c.Regs.SetSP(c.Priv, c.Mode, sp)
}

func (c *CPU) popByte() uint8 {
	sp := c.Regs.SP(c.Priv, c.Mode)
	v, _ := c.readData(sp, 8)
	if c.Regs.E {
		sp = uint32(uint8(sp)+1) | 0x0100
	} else {
		sp++
	}
	c.Regs.SetSP(c.Priv, c.Mode, sp)
	return uint8(v)
}

func (c *CPU) push(width int, v uint32) {
	for i := width/8 - 1; i >= 0; i-- {
		c.pushByte(uint8(v >> (8 * uint(i))))
	}
}

func (c *CPU) pop(width int) uint32 {
	var v uint32
	for i := 0; i < width/8; i++ {
		v |= uint32(c.popByte()) << (8 * uint(i))
	}
	return v
}

// setNZ updates the N and Z flags from a value truncated to width bits.
func (c *CPU) setNZ(v uint32, width int) {
	mask := widthMask(width)
	v &= mask
	c.Regs.P.Z = v == 0
	c.Regs.P.N = v&((mask+1)>>1) != 0
}

func (c *CPU) readOperand(addr uint32, width int) (uint32, bool) {
	return c.readData(addr, width)
}

func (c *CPU) writeOperand(addr uint32, width int, v uint32) bool {
	return c.writeData(addr, width, v)
}
