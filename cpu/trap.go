/*
 * m65832 - Trap delivery and return.
 *
 * Grounded on github.com/rcornwell/S370 emu/cpu/cpu_system.go's PSW-swap
 * interrupt handling (push old state, load new state from a fixed
 * table), adapted to the 65832's flat VBAR+4*vector table and its
 * fixed 13-word trap frame (spec.md section 4.4).
 */
package cpu

import (
	"github.com/m65832/m65832/bus"
	"github.com/m65832/m65832/mmu"
)

// Vector indices into the table at VBAR+4*i, spec.md section 4.4.
const (
	VecReset      = 0
	VecNMI        = 1
	VecIRQ        = 2
	VecPageFault  = 3
	VecSyscall    = 4
	VecIllegal    = 5
	VecBreakpoint = 6
	VecDebug      = 7
)

// frameWords is the fixed trap frame layout: PC, P, mode+priv, FAR,
// FSC, A, X, Y, R0-R7 - 13 32-bit words, laid out in that order from
// the lowest address up (Trap pushes them in reverse), so PC is the
// first word RTE pops.
const frameWords = 13

func (c *CPU) modePrivWord() uint32 {
	return uint32(c.Mode) | uint32(c.Priv)<<8
}

func (c *CPU) applyModePrivWord(w uint32) {
	c.Mode = Mode(w & 0xFF)
	c.Priv = Privilege((w >> 8) & 0xFF)
}

// pushKernel pushes one 32-bit word onto the kernel stack, predecrementing
// KSP by 4 regardless of the active stack-pointer view width: trap entry
// always uses the full 32-bit kernel stack (spec.md section 4.4 - the
// frame is fixed-width independent of the interrupted mode).
func (c *CPU) pushKernel(v uint32) {
	c.Regs.KSP -= 4
	c.MMU.Access(c.Regs.KSP, 32, bus.DataWrite, mmu.PrivK, v)
}

func (c *CPU) popKernel() uint32 {
	o := c.MMU.Access(c.Regs.KSP, 32, bus.DataRead, mmu.PrivK, 0)
	c.Regs.KSP += 4
	return o.Value
}

// Trap pushes the fixed 13-word trap frame onto the kernel stack,
// raises privilege to K, disables further IRQ delivery, and loads PC
// from the vector table at VBAR+4*vector. The vector fetch goes
// through the same MMU.Access path as any other kernel read, so a
// misconfigured VBAR under paging can itself fault (spec.md section
// 4.4 does not special-case it).
func (c *CPU) Trap(vector int) {
	c.lastTrapVector = vector

	far, fsc := c.MMU.FAR, c.MMU.FSC

	// Pushed in reverse of the named order (R7..R0, Y, X, A, FSC, FAR,
	// mode+priv, P, PC) so that, with KSP growing down, PC lands at the
	// lowest address and is the first word RTE restores.
	for i := 7; i >= 0; i-- {
		c.pushKernel(c.Regs.R[i])
	}
	c.pushKernel(c.Regs.Y)
	c.pushKernel(c.Regs.X)
	c.pushKernel(c.Regs.A)
	c.pushKernel(fsc)
	c.pushKernel(far)
	c.pushKernel(c.modePrivWord())
	c.pushKernel(uint32(c.Regs.P.toByte()))
	c.pushKernel(c.Regs.PC)

	c.Priv = PrivK
	c.Mode = M2
	c.Regs.P.I = true

	vecAddr := c.MMU.VBAR + uint32(vector)*4
	o := c.MMU.Access(vecAddr, 32, bus.DataRead, mmu.PrivK, 0)
	c.Regs.PC = o.Value
}

// RTE pops the trap frame and resumes the interrupted context. FAR/FSC
// are popped to keep the stack balanced but discarded: spec.md section
// 4.4 does not require them to be restored into the MMU's diagnostic
// registers. An RTE attempted from U privilege is illegal and instead
// vectors to ILLEGAL without popping anything; that ILLEGAL trap pushes
// its own frame like any other trap.
func (c *CPU) RTE() {
	if c.Priv == PrivU {
		c.Trap(VecIllegal)
		return
	}

	c.Regs.PC = c.popKernel()
	c.Regs.P = statusFromByte(uint8(c.popKernel()))
	c.applyModePrivWord(c.popKernel())
	_ = c.popKernel() // FAR, discarded
	_ = c.popKernel() // FSC, discarded
	c.Regs.A = c.popKernel()
	c.Regs.X = c.popKernel()
	c.Regs.Y = c.popKernel()
	for i := 0; i < 8; i++ {
		c.Regs.R[i] = c.popKernel()
	}
}
