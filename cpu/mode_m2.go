/*
 * m65832 - M2 decoder: native 32-bit mode, sharing the 65816-compatible
 * opcode space of execM1 for the instructions spec.md does not redefine,
 * and adding the four system-prefix banks ($42-$45) that give M2 its
 * register-extension opcodes (spec.md section 4.2). Only the $42 (mode
 * control) and $43 (R0-R7 register ops) banks are worked; $44/$45 are
 * reserved for a future pass (see DESIGN.md).
 */
package cpu

const (
	prefixMode uint8 = 0x42
	prefixReg  uint8 = 0x43
)

func (c *CPU) execM2(op uint8) int {
	switch op {
	case prefixMode:
		return c.execM2PrefixMode()
	case prefixReg:
		return c.execM2PrefixReg()
	}

	switch op {
	case 0xEA: // NOP
		return baseCycle
	case 0xA9: // LDA #imm, full 32-bit in native mode
		v, _ := c.fetch32()
		c.Regs.SetA(v)
		c.setNZ(c.Regs.GetA(), 32)
		return immCycles(32)
	case 0x8D: // STA abs
		addr, _ := c.fetch32()
		c.writeOperand(addr, 32, c.Regs.GetA())
		return 4 + widthPenalty(32)
	case 0xAD: // LDA abs
		addr, _ := c.fetch32()
		v, _ := c.readOperand(addr, 32)
		c.Regs.SetA(v)
		c.setNZ(v, 32)
		return 4 + widthPenalty(32)
	case 0xAA: // TAX
		c.Regs.SetX(c.Regs.GetA())
		c.setNZ(c.Regs.GetX(), 32)
		return baseCycle
	case 0xE8: // INX
		c.Regs.SetX(c.Regs.GetX() + 1)
		c.setNZ(c.Regs.GetX(), 32)
		return baseCycle
	case 0xCA: // DEX
		c.Regs.SetX(c.Regs.GetX() - 1)
		c.setNZ(c.Regs.GetX(), 32)
		return baseCycle
	case 0xF0: // BEQ
		disp, _ := c.fetch8()
		if c.Regs.P.Z {
			c.branchRel(disp)
		}
		return baseCycle
	case 0xD0: // BNE
		disp, _ := c.fetch8()
		if !c.Regs.P.Z {
			c.branchRel(disp)
		}
		return baseCycle
	case 0x4C: // JMP abs (32-bit target)
		addr, _ := c.fetch32()
		c.Regs.PC = addr
		return 3
	case 0x20: // JSR abs
		addr, _ := c.fetch32()
		c.push(32, c.Regs.PC-1)
		c.Regs.PC = addr
		return 6
	case 0x60: // RTS
		c.Regs.PC = c.pop(32) + 1
		return 6
	case 0x48: // PHA
		c.push(32, c.Regs.GetA())
		return 3 + widthPenalty(32)
	case 0x68: // PLA
		c.Regs.SetA(c.pop(32))
		c.setNZ(c.Regs.GetA(), 32)
		return 4 + widthPenalty(32)
	case 0x18: // CLC
		c.Regs.P.C = false
		return baseCycle
	case 0x38: // SEC
		c.Regs.P.C = true
		return baseCycle
	case 0x58: // CLI
		c.Regs.P.I = false
		return baseCycle
	case 0x78: // SEI
		c.Regs.P.I = true
		return baseCycle
	case 0xDB: // STP
		c.halted = true
		return baseCycle
	case 0xCB: // WAI
		c.irqEnabled = true
		return baseCycle
	case 0x00: // BRK
		c.Trap(VecSyscall)
		return 7
	case 0x40: // RTI
		c.RTE()
		return 6
	default:
		c.Trap(VecIllegal)
		return baseCycle
	}
}

// execM2PrefixMode handles the $42 bank: XCE32 ($FB) is the only member
// worked. Any other extended opcode is illegal.
func (c *CPU) execM2PrefixMode() int {
	ext, _ := c.fetch8()
	switch ext {
	case 0xFB: // XCE32 - leave native M2, return to 65816-compatible M1
		c.Mode = M1
		c.Regs.N32 = false
		return baseCycle
	default:
		c.Trap(VecIllegal)
		return baseCycle
	}
}

// execM2PrefixReg handles the $43 bank: LDRn #imm32 (ext = 0x00+n) and
// TAR n / TRA n (ext = 0x10+n / 0x20+n) transfer A to/from R0-R7, the
// minimal R-register surface needed to exercise M2's extended register
// file in tests.
func (c *CPU) execM2PrefixReg() int {
	ext, _ := c.fetch8()
	switch {
	case ext <= 0x07: // LDRn #imm32
		v, _ := c.fetch32()
		c.Regs.R[ext] = v
		c.setNZ(v, 32)
		return immCycles(32)
	case ext >= 0x10 && ext <= 0x17: // TAR n: A -> Rn
		c.Regs.R[ext-0x10] = c.Regs.GetA()
		return baseCycle
	case ext >= 0x20 && ext <= 0x27: // TRA n: Rn -> A
		c.Regs.SetA(c.Regs.R[ext-0x20])
		c.setNZ(c.Regs.GetA(), 32)
		return baseCycle
	default:
		c.Trap(VecIllegal)
		return baseCycle
	}
}
