/*
 * m65832 - Machine: the owning context tying CPU, Bus, MMU, device
 * pages, the scheduler, and compatibility windows together into one
 * runnable instance.
 *
 * Grounded on the overall shape of github.com/rcornwell/S370's
 * emu/core.Core (one struct owning a CPU and the resources it drives),
 * but built from an owned struct graph rather than the teacher's
 * package-level `var memory mem` / `var sysCPU cpuState` pair (DESIGN
 * NOTES section 9): a Machine can be created twice in one process
 * (e.g. for side-by-side tests) without the two instances interfering.
 */
package machine

import (
	"errors"
	"fmt"

	"github.com/m65832/m65832/bus"
	"github.com/m65832/m65832/compat"
	"github.com/m65832/m65832/config"
	"github.com/m65832/m65832/cpu"
	"github.com/m65832/m65832/devpage"
	"github.com/m65832/m65832/memory"
	"github.com/m65832/m65832/mmu"
	"github.com/m65832/m65832/sched"
)

// Machine owns every resource a running 65832 system needs.
type Machine struct {
	Bus         *bus.Bus
	MMU         *mmu.MMU
	CPU         *cpu.CPU
	Devices     *devpage.Registry
	SoftSwitch  *devpage.SoftSwitchRegistry
	Scheduler   *sched.Scheduler
	RAM         *memory.Region
	FrameAlloc  *mmu.FrameAllocator
	CompatTasks []*compat.Window

	faultCount int
}

// New assembles an empty Machine: RAM sized ramSize bytes mapped at
// physical 0, an MMU/CPU pair over it, and an empty device-page/soft-
// switch registry. Callers then load ROM images and start
// compatibility tasks before calling Boot.
func New(ramSize uint32) *Machine {
	b := bus.New()
	ram := memory.NewRegion("main-ram", ramSize)
	b.MapRange(0, ramSize/bus.PageSize, bus.PageDescriptor{
		Target: &memory.RAMTarget{Region: ram},
		Tag:    bus.TagRam,
		Perm:   bus.Permissions{R: true, W: true, X: true},
	})

	devices := devpage.NewRegistry()
	m := mmu.New(b, devices)
	alloc := mmu.NewFrameAllocator(m, 0, ramSize)

	machine := &Machine{
		Bus:        b,
		MMU:        m,
		CPU:        cpu.New(m),
		Devices:    devices,
		SoftSwitch: devpage.NewSoftSwitchRegistry(),
		Scheduler:  sched.New(),
		RAM:        ram,
		FrameAlloc: alloc,
	}
	return machine
}

// LoadROM installs a read+exec-only ROM region at the given physical
// address, per a `rom` config directive. When addr is 0 (the Boot ROM's
// canonical location per spec.md section 6), the same backing region is
// also mirrored at bus.BootROMAliasBase, the machine-wide high-memory
// alias every guest's MMU can map without needing its own ROM payload.
func (mc *Machine) LoadROM(name string, addr uint32, data []byte) {
	region := memory.NewRegion(name, uint32(len(data)))
	copy(region.Span(0, uint32(len(data))), data)
	pages := (uint32(len(data)) + bus.PageSize - 1) / bus.PageSize
	mc.Bus.MapRange(addr/bus.PageSize, pages, bus.PageDescriptor{
		Target: &memory.ROMTarget{Region: region},
		Tag:    bus.TagRom,
		Perm:   bus.Permissions{R: true, X: true},
	})
	if addr == 0 {
		mc.Bus.MapRange(bus.BootROMAliasBase/bus.PageSize, pages, bus.PageDescriptor{
			Target: &memory.ROMTarget{Region: region},
			Tag:    bus.TagRom,
			Perm:   bus.Permissions{R: true, X: true},
		})
	}
}

// StartCompatTask assembles a compatibility window for romData and
// registers its Apple II device page's soft switches for debug
// reporting. compatID identifies the guest (spec.md section 6);
// compatID==0 is permitted as a bare task with romData==nil.
func (mc *Machine) StartCompatTask(compatID uint32, romData []byte) (*compat.Window, error) {
	page := devpage.NewAppleIIPage()
	speaker := devpage.NewSpeaker(func() uint64 { return mc.Scheduler.Now() })
	page.RegisterSwitch(0x30, speaker)
	mc.SoftSwitch.Register(speaker)

	win, ok := compat.New(compatID, mc.MMU, mc.FrameAlloc, mc.Devices, page, romData)
	if !ok {
		return nil, fmt.Errorf("machine: out of physical frames starting compat task %d", compatID)
	}
	mc.CompatTasks = append(mc.CompatTasks, win)
	return win, nil
}

// Boot performs a hard reset (which, per spec.md section 4.6, always
// clears VBAR back to 0) and then, if vbar is non-zero, installs it as
// the kernel's vector base and reloads PC from that vector table. A
// misaligned vbar faults: VBAR is left at 0 and Boot returns an error
// rather than silently booting from the wrong vector table.
func (mc *Machine) Boot(vbar uint32) error {
	mc.CPU.Reset(true)
	if vbar != 0 {
		if !mc.MMU.SetVBAR(vbar) {
			return fmt.Errorf("machine: vbar %#x is not 4KB-aligned", vbar)
		}
		mc.CPU.ReloadPC()
	}
	return nil
}

// RunCycles advances the CPU for up to budget cycles (or until
// halted/stopped), keeping the scheduler's clock in lockstep so
// cycle-stamped device events (e.g. the speaker's toggle history) stay
// consistent with executed instructions.
func (mc *Machine) RunCycles(budget uint64) (cpu.StopReason, error) {
	var spent uint64
	for spent < budget {
		cycles, err := mc.CPU.Step()
		mc.Scheduler.Advance(uint64(cycles))
		spent += uint64(cycles)
		if err != nil {
			if errors.Is(err, cpu.ErrHalted) {
				return cpu.Halted, nil
			}
			return cpu.Stopped, err
		}
	}
	return cpu.InstructionLimit, nil
}

// FromConfig assembles a Machine from a parsed config.Config, using
// loadFile to read each referenced ROM image (kept as an injected
// function so tests can supply images without touching the
// filesystem).
func FromConfig(cfg config.Config, loadFile func(path string) ([]byte, error)) (*Machine, error) {
	ramSize := cfg.RAMSize
	if ramSize == 0 {
		ramSize = 1 << 20
	}
	mc := New(ramSize)

	for _, rom := range cfg.ROMs {
		data, err := loadFile(rom.Path)
		if err != nil {
			return nil, fmt.Errorf("machine: loading rom %q: %w", rom.Path, err)
		}
		mc.LoadROM(rom.Path, rom.Addr, data)
	}

	for i, task := range cfg.Compat {
		var data []byte
		if task.ROM != "" {
			d, err := loadFile(task.ROM)
			if err != nil {
				return nil, fmt.Errorf("machine: loading compat rom %q: %w", task.ROM, err)
			}
			data = d
		}
		if _, err := mc.StartCompatTask(uint32(i), data); err != nil {
			return nil, err
		}
	}

	if err := mc.Boot(cfg.VBAR); err != nil {
		return nil, err
	}
	return mc, nil
}

// FaultSummary reports how many PAGEFAULT traps have been recorded
// through NotePageFault, for the debug observer's "Bus faults
// encountered (N)" line (spec.md section 7). Faults the CPU takes are
// not counted unless tooling reports them there.
func (mc *Machine) FaultSummary() string {
	return fmt.Sprintf("Bus faults encountered (%d)", mc.faultCount)
}

// NotePageFault is called by debug tooling whenever it observes a
// PAGEFAULT trap, incrementing the summary counter above.
func (mc *Machine) NotePageFault() { mc.faultCount++ }

// EnumerateRegions exposes the physical bus's coalesced region map to
// debug tooling (spec.md section 6).
func (mc *Machine) EnumerateRegions() []bus.RegionInfo {
	return mc.Bus.EnumerateRegions()
}

// EnumerateSoftSwitches exposes every registered device's soft-switch
// state, in registration order (spec.md section 4.8).
func (mc *Machine) EnumerateSoftSwitches() []devpage.SoftSwitchInfo {
	return mc.SoftSwitch.Enumerate()
}

// Peek performs a side-effect-free read through the MMU, for debug
// tooling (spec.md section 4.2). Debug accesses bypass privilege
// checks, so the privilege argument to MMU.Access is immaterial here.
func (mc *Machine) Peek(addr uint32, width int) (uint32, bool) {
	o := mc.MMU.Access(addr, width, bus.DebugRead, mmu.PrivK, 0)
	return o.Value, o.Ok
}

// Poke performs a permission-relaxed write through the MMU, for debug
// tooling.
func (mc *Machine) Poke(addr uint32, width int, value uint32) bool {
	o := mc.MMU.Access(addr, width, bus.DebugWrite, mmu.PrivK, value)
	return o.Ok
}
