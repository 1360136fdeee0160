/*
 * m65832 - M1 decoder: a worked 65816-compatible opcode subset, adding
 * the width-switching SEP/REP instructions and A/X/Y views gated by
 * the M and X status flags (spec.md section 4.1).
 */
package cpu

func (c *CPU) execM1(op uint8) int {
	switch op {
	case 0xEA: // NOP
		return baseCycle
	case 0xA9: // LDA #imm, width gated by P.M
		v, _ := c.fetchWidth(c.Regs.AWidth())
		c.Regs.SetA(v)
		c.setNZ(c.Regs.GetA(), c.Regs.AWidth())
		return immCycles(c.Regs.AWidth())
	case 0x8D: // STA abs
		addr, _ := c.fetch16()
		c.writeOperand(uint32(addr), c.Regs.AWidth(), c.Regs.GetA())
		return 4 + widthPenalty(c.Regs.AWidth())
	case 0xAD: // LDA abs
		addr, _ := c.fetch16()
		v, _ := c.readOperand(uint32(addr), c.Regs.AWidth())
		c.Regs.SetA(v)
		c.setNZ(v, c.Regs.AWidth())
		return 4 + widthPenalty(c.Regs.AWidth())
	case 0xE2: // SEP #imm - set status bits named by the immediate mask
		mask, _ := c.fetch8()
		c.Regs.P = statusFromByte(c.Regs.P.toByte() | mask)
		return sepRepCycles
	case 0xC2: // REP #imm - clear status bits named by the immediate mask
		mask, _ := c.fetch8()
		c.Regs.P = statusFromByte(c.Regs.P.toByte() &^ mask)
		return sepRepCycles
	case 0xAA: // TAX
		c.Regs.SetX(c.Regs.GetA())
		c.setNZ(c.Regs.GetX(), c.Regs.XWidth())
		return baseCycle
	case 0x8A: // TXA
		c.Regs.SetA(c.Regs.GetX())
		c.setNZ(c.Regs.GetA(), c.Regs.AWidth())
		return baseCycle
	case 0xE8: // INX
		c.Regs.SetX(c.Regs.GetX() + 1)
		c.setNZ(c.Regs.GetX(), c.Regs.XWidth())
		return baseCycle
	case 0xCA: // DEX
		c.Regs.SetX(c.Regs.GetX() - 1)
		c.setNZ(c.Regs.GetX(), c.Regs.XWidth())
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
	case 0x4C: // JMP abs
		addr, _ := c.fetch16()
		c.Regs.PC = uint32(addr)
		return 3
	case 0x20: // JSR abs
		addr, _ := c.fetch16()
		c.push(16, c.Regs.PC-1)
		c.Regs.PC = uint32(addr)
		return 6
	case 0x60: // RTS
		c.Regs.PC = c.pop(16) + 1
		return 6
	case 0x48: // PHA
		c.push(c.Regs.AWidth(), c.Regs.GetA())
		return 3 + widthPenalty(c.Regs.AWidth())
	case 0x68: // PLA
		c.Regs.SetA(c.pop(c.Regs.AWidth()))
		c.setNZ(c.Regs.GetA(), c.Regs.AWidth())
		return 4 + widthPenalty(c.Regs.AWidth())
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
	case 0xFB: // XCE - exchange carry and emulation bits
		c.Regs.E, c.Regs.P.C = c.Regs.P.C, c.Regs.E
		if c.Regs.E {
			c.Mode = M0
		} else {
			c.Mode = M1
		}
		return baseCycle
	case 0x42: // M2 system prefix bank - XCE32 is the only M1-reachable
		// extended opcode: entering native M2 from 65816-compatible code.
		ext, _ := c.fetch8()
		if ext == 0xFB {
			c.Mode = M2
			c.Regs.N32 = true
			return baseCycle
		}
		c.Trap(VecIllegal)
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
