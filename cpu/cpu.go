/*
 * m65832 - CPU core: reset, instruction fetch/dispatch, run loop.
 *
 * Grounded on github.com/rcornwell/S370 emu/cpu/cpu.go (InitializeCPU,
 * CycleCPU/fetch as the single driver of logical time) and emu/core
 * (the goroutine-free run loop polling a stop flag), adapted to the
 * 65832's M0/M1/M2 mode-polymorphic decode and to a typed Outcome-based
 * fault channel instead of an IRC return code.
 */
package cpu

import (
	"errors"

	"github.com/m65832/m65832/bus"
	"github.com/m65832/m65832/mmu"
)

// ErrHalted is returned by Step after STP has executed.
var ErrHalted = errors.New("cpu: halted")

// InterruptKind distinguishes the two external signal lines the CPU
// observes at instruction boundaries.
type InterruptKind uint8

const (
	InterruptNMI InterruptKind = iota
	InterruptIRQ
)

// StopReason is returned by Run.
type StopReason uint8

const (
	Halted StopReason = iota
	Stopped
	InstructionLimit
	Trapped
)

func (s StopReason) String() string {
	switch s {
	case Halted:
		return "halted"
	case Stopped:
		return "stopped"
	case InstructionLimit:
		return "instruction-limit"
	case Trapped:
		return "trapped"
	default:
		return "unknown"
	}
}

// SystemRegs holds the privileged control registers of spec.md section
// 3 that the CPU itself owns. FAR/FSC/FDI/FOP/FW are not duplicated
// here: the MMU is what detects every fault (including identity-mode
// ones now that Access records them uniformly), so it is the sole
// owner of those diagnostic registers; Trap reads them from c.MMU.
type SystemRegs struct {
	COMPATID uint32
}

// CPU is the mode-polymorphic executor: one instance owns its register
// file, privilege/mode state, and a reference to the MMU it issues all
// bus traffic through. There is no package-level CPU singleton (DESIGN
// NOTES section 9) - a test harness can run two CPUs in one process.
type CPU struct {
	Regs Registers
	Mode Mode
	Priv Privilege
	Sys  SystemRegs
	MMU  *mmu.MMU

	Cycles uint64

	halted        bool
	stopRequested bool
	irqEnabled    bool
	pendingNMI    bool
	pendingIRQ    bool

	lastTrapVector int
}

// New creates a CPU wired to the given MMU. Callers must call Reset
// before Step.
func New(m *mmu.MMU) *CPU {
	return &CPU{MMU: m}
}

// Reset implements spec.md section 4.6. Hard reset zeros architectural
// state for determinism and clears CR0/VBAR; soft reset only clears
// CR0.PG/NXE and leaves VBAR untouched. Both then load PC from the
// RESET vector at VBAR+0 read identity (CR0.PG is already false at
// that point).
func (c *CPU) Reset(hard bool) {
	c.Priv = PrivK
	c.Mode = M2
	c.halted = false
	c.stopRequested = false
	c.pendingNMI = false
	c.pendingIRQ = false

	if hard {
		c.Regs = Registers{}
		c.Sys = SystemRegs{}
		c.MMU.CR0 = mmu.CR0{}
		c.MMU.VBAR = 0
		c.MMU.PTBR = 0
	} else {
		c.MMU.CR0.PG = false
		c.MMU.CR0.NXE = false
	}
	// Reset enters M2 directly rather than arriving via XCE32, so it
	// must set the hidden N32 bit itself: M2 always implies 32-bit
	// register views (spec.md section 4.4).
	c.Regs.N32 = true

	c.ReloadPC()
}

// ReloadPC reloads PC from the RESET vector at the current VBAR,
// without touching any other architectural state. Boot tooling that
// installs a custom VBAR after a hard reset (which always clears VBAR
// back to 0, per spec.md section 4.6) calls this once the new VBAR is
// in place so PC comes from that vector table instead of 0's.
func (c *CPU) ReloadPC() {
	o := c.MMU.Access(c.MMU.VBAR, 32, bus.DataRead, mmu.PrivK, 0)
	c.Regs.PC = o.Value
}

// SetPC/PC are used by tooling to redirect or inspect execution.
func (c *CPU) SetPC(addr uint32) { c.Regs.PC = addr }
func (c *CPU) PC() uint32        { return c.Regs.PC }

// Registers returns a copy of the current register file.
func (c *CPU) Registers() Registers { return c.Regs }

// LastTrapVector reports the vector index most recently serviced by
// Trap, for debug-observer reporting.
func (c *CPU) LastTrapVector() int { return c.lastTrapVector }

// Halted reports whether STP has stopped the CPU.
func (c *CPU) Halted() bool { return c.halted }

// RequestStop sets the cooperative stop flag Run polls at instruction
// boundaries (spec.md section 5).
func (c *CPU) RequestStop() { c.stopRequested = true }

// SignalInterrupt raises an external interrupt line. NMI is
// unmaskable; IRQ is subject to the I flag and classic re-enable
// semantics (spec.md section 4.4).
func (c *CPU) SignalInterrupt(kind InterruptKind) {
	switch kind {
	case InterruptNMI:
		c.pendingNMI = true
	case InterruptIRQ:
		c.pendingIRQ = true
	}
}

// Step executes one instruction (or services a pending interrupt) and
// returns the cycles it consumed.
func (c *CPU) Step() (int, error) {
	if c.halted {
		return 0, ErrHalted
	}

	if c.pendingNMI {
		c.pendingNMI = false
		c.Trap(VecNMI)
		return 7, nil
	}
	if c.pendingIRQ && !c.Regs.P.I {
		c.pendingIRQ = false
		c.Trap(VecIRQ)
		return 7, nil
	}

	cycles := c.dispatch()
	c.Cycles += uint64(cycles)

	if c.halted {
		return cycles, nil
	}
	return cycles, nil
}

// Run executes Step in a loop until halted, an external Stop is
// requested, or limit instructions have executed (limit<=0 means
// unbounded).
func (c *CPU) Run(limit int) (StopReason, error) {
	count := 0
	for {
		if c.stopRequested {
			c.stopRequested = false
			return Stopped, nil
		}
		if limit > 0 && count >= limit {
			return InstructionLimit, nil
		}
		_, err := c.Step()
		if err != nil {
			if errors.Is(err, ErrHalted) {
				return Halted, nil
			}
			return Stopped, err
		}
		count++
	}
}

// fetchByte fetches one instruction byte through the MMU with
// ExecFetch intent, vectoring to PAGEFAULT if the access faults.
func (c *CPU) fetchByte() (uint8, bool) {
	o := c.MMU.Access(c.Regs.PC, 8, bus.ExecFetch, mmu.Privilege(c.Priv), 0)
	if !o.Ok {
		c.faultFromOutcome(o)
		return 0, false
	}
	c.Regs.PC++
	return uint8(o.Value), true
}

func (c *CPU) readData(addr uint32, width int) (uint32, bool) {
	o := c.MMU.Access(addr, width, bus.DataRead, mmu.Privilege(c.Priv), 0)
	if !o.Ok {
		c.faultFromOutcome(o)
		return 0, false
	}
	return o.Value, true
}

func (c *CPU) writeData(addr uint32, width int, value uint32) bool {
	o := c.MMU.Access(addr, width, bus.DataWrite, mmu.Privilege(c.Priv), value)
	if !o.Ok {
		c.faultFromOutcome(o)
		return false
	}
	return true
}

// faultFromOutcome services an MMU-reported fault. The MMU has already
// loaded FAR/FSC/FDI/FOP/FW by the time Access returns !Ok; the CPU
// only needs to vector to PAGEFAULT.
func (c *CPU) faultFromOutcome(o bus.Outcome) {
	_ = o
	c.Trap(VecPageFault)
}

func (c *CPU) dispatch() int {
	op, ok := c.fetchByte()
	if !ok {
		return 1
	}
	switch c.Mode {
	case M0:
		return c.execM0(op)
	case M1:
		return c.execM1(op)
	default:
		return c.execM2(op)
	}
}
