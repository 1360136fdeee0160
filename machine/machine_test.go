package machine

import (
	"testing"

	"github.com/m65832/m65832/bus"
	"github.com/m65832/m65832/cpu"
)

func TestBootAndStepThroughROM(t *testing.T) {
	mc := New(64 * 1024)

	// Reset always enters native M2 (spec.md section 4.6), so the boot
	// program uses 32-bit immediates/addresses: LDA #$42; STA $2000; NOP.
	prog := []byte{
		0xA9, 0x42, 0x00, 0x00, 0x00, // LDA #$00000042
		0x8D, 0x00, 0x20, 0x00, 0x00, // STA $00002000
		0xEA, // NOP
	}
	mc.LoadROM("boot", 0xF000, prog)

	// Vector table lives in RAM at VBAR=0; RESET vector (index 0) points
	// at the ROM program.
	vbarLo := []byte{0x00, 0xF0, 0x00, 0x00}
	copy(mc.RAM.Span(0, 4), vbarLo)

	if err := mc.Boot(0); err != nil {
		t.Fatalf("Boot: %v", err)
	}
	if mc.CPU.PC() != 0xF000 {
		t.Fatalf("PC after boot = %#x, want 0xF000", mc.CPU.PC())
	}

	if _, err := mc.CPU.Step(); err != nil { // LDA #$42
		t.Fatalf("step 1: %v", err)
	}
	if _, err := mc.CPU.Step(); err != nil { // STA $2000
		t.Fatalf("step 2: %v", err)
	}

	v, ok := mc.Peek(0x2000, 8)
	if !ok || v != 0x42 {
		t.Fatalf("Peek(0x2000) = %#x, ok=%v, want 0x42", v, ok)
	}
}

func TestStartCompatTaskBareWindow(t *testing.T) {
	mc := New(1 << 20)
	if err := mc.Boot(0); err != nil {
		t.Fatalf("Boot: %v", err)
	}

	win, err := mc.StartCompatTask(0, nil)
	if err != nil {
		t.Fatalf("StartCompatTask: %v", err)
	}
	if win.HasROM() {
		t.Fatal("bare compat task should not have ROM")
	}
	if len(mc.CompatTasks) != 1 {
		t.Fatalf("CompatTasks = %d, want 1", len(mc.CompatTasks))
	}
}

func TestBootRejectsMisalignedVBAR(t *testing.T) {
	mc := New(64 * 1024)
	mc.LoadROM("boot", 0xF000, []byte{0xEA})

	err := mc.Boot(0x1001)
	if err == nil {
		t.Fatal("expected error booting with a non-4KB-aligned vbar")
	}
	if mc.MMU.VBAR != 0 {
		t.Fatalf("VBAR = %#x, want unchanged (0) after a rejected write", mc.MMU.VBAR)
	}
}

func TestBootInstallsCustomVBARAfterHardReset(t *testing.T) {
	mc := New(64 * 1024)
	mc.LoadROM("boot", 0xF000, []byte{0xEA})
	// Vector table for a custom VBAR at 0x3000, RESET vector points at 0xF000.
	copy(mc.RAM.Span(0x3000, 4), []byte{0x00, 0xF0, 0x00, 0x00})

	if err := mc.Boot(0x3000); err != nil {
		t.Fatalf("Boot: %v", err)
	}
	if mc.MMU.VBAR != 0x3000 {
		t.Fatalf("VBAR = %#x, want 0x3000 (hard reset must not win over the custom vbar)", mc.MMU.VBAR)
	}
	if mc.CPU.PC() != 0xF000 {
		t.Fatalf("PC after boot = %#x, want 0xF000", mc.CPU.PC())
	}
}

func TestLoadROMAtZeroMirrorsToBootROMAliasBase(t *testing.T) {
	mc := New(64 * 1024)
	mc.LoadROM("boot", 0, []byte{0x11, 0x22, 0x33, 0x44})

	v, ok := mc.Peek(bus.BootROMAliasBase, 8)
	if !ok || v != 0x11 {
		t.Fatalf("Peek(BootROMAliasBase) = %#x, ok=%v, want 0x11", v, ok)
	}
	v, ok = mc.Peek(bus.BootROMAliasBase+3, 8)
	if !ok || v != 0x44 {
		t.Fatalf("Peek(BootROMAliasBase+3) = %#x, ok=%v, want 0x44", v, ok)
	}
}

func TestRunCyclesStopsOnBudget(t *testing.T) {
	mc := New(64 * 1024)
	mc.LoadROM("boot", 0xF000, []byte{0xEA, 0xEA, 0xEA, 0xEA})
	copy(mc.RAM.Span(0, 4), []byte{0x00, 0xF0, 0x00, 0x00})
	if err := mc.Boot(0); err != nil {
		t.Fatalf("Boot: %v", err)
	}

	reason, err := mc.RunCycles(4)
	if err != nil {
		t.Fatalf("RunCycles: %v", err)
	}
	if reason != cpu.InstructionLimit {
		t.Fatalf("reason = %v, want InstructionLimit", reason)
	}
}
