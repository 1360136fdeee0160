/*
 * m65832 - M0 decoder: a worked 65C02-compatible opcode subset.
 *
 * Grounded on github.com/rcornwell/S370 emu/cpu/cpu.go's opcode switch
 * (one case per instruction, falling through to a common cycle return),
 * restricted to the instructions spec.md section 8's scenarios actually
 * exercise plus the control-flow/stack/flag instructions needed to
 * reach them. Not an exhaustive 65C02 matrix (spec.md section 1
 * Non-goals).
 */
package cpu

func (c *CPU) execM0(op uint8) int {
	switch op {
	case 0xEA: // NOP
		return baseCycle
	case 0xA9: // LDA #imm
		v, _ := c.fetch8()
		c.Regs.SetA(uint32(v))
		c.setNZ(c.Regs.GetA(), 8)
		return immCycles(8)
	case 0x8D: // STA abs
		addr, _ := c.fetch16()
		c.writeOperand(uint32(addr), 8, c.Regs.GetA())
		return 4
	case 0xAD: // LDA abs
		addr, _ := c.fetch16()
		v, _ := c.readOperand(uint32(addr), 8)
		c.Regs.SetA(v)
		c.setNZ(v, 8)
		return 4
	case 0xAA: // TAX
		c.Regs.SetX(c.Regs.GetA())
		c.setNZ(c.Regs.GetX(), 8)
		return baseCycle
	case 0x8A: // TXA
		c.Regs.SetA(c.Regs.GetX())
		c.setNZ(c.Regs.GetA(), 8)
		return baseCycle
	case 0xA8: // TAY
		c.Regs.SetY(c.Regs.GetA())
		c.setNZ(c.Regs.GetY(), 8)
		return baseCycle
	case 0x98: // TYA
		c.Regs.SetA(c.Regs.GetY())
		c.setNZ(c.Regs.GetA(), 8)
		return baseCycle
	case 0xE8: // INX
		c.Regs.SetX(c.Regs.GetX() + 1)
		c.setNZ(c.Regs.GetX(), 8)
		return baseCycle
	case 0xC8: // INY
		c.Regs.SetY(c.Regs.GetY() + 1)
		c.setNZ(c.Regs.GetY(), 8)
		return baseCycle
	case 0xCA: // DEX
		c.Regs.SetX(c.Regs.GetX() - 1)
		c.setNZ(c.Regs.GetX(), 8)
		return baseCycle
	case 0x88: // DEY
		c.Regs.SetY(c.Regs.GetY() - 1)
		c.setNZ(c.Regs.GetY(), 8)
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
	case 0x90: // BCC
		disp, _ := c.fetch8()
		if !c.Regs.P.C {
			c.branchRel(disp)
		}
		return baseCycle
	case 0xB0: // BCS
		disp, _ := c.fetch8()
		if c.Regs.P.C {
			c.branchRel(disp)
		}
		return baseCycle
	case 0x10: // BPL
		disp, _ := c.fetch8()
		if !c.Regs.P.N {
			c.branchRel(disp)
		}
		return baseCycle
	case 0x30: // BMI
		disp, _ := c.fetch8()
		if c.Regs.P.N {
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
		c.push(8, c.Regs.GetA())
		return 3
	case 0x68: // PLA
		c.Regs.SetA(c.pop(8))
		c.setNZ(c.Regs.GetA(), 8)
		return 4
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
	case 0xFB: // XCE - exchange carry and emulation bits, toggling M0/M1
		c.Regs.E, c.Regs.P.C = c.Regs.P.C, c.Regs.E
		if c.Regs.E {
			c.Mode = M0
		} else {
			c.Mode = M1
		}
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
