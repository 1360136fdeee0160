package compat

import (
	"testing"

	"github.com/m65832/m65832/bus"
	"github.com/m65832/m65832/devpage"
	"github.com/m65832/m65832/memory"
	"github.com/m65832/m65832/mmu"
)

func newTestMMU(t *testing.T) (*bus.Bus, *mmu.MMU, *mmu.FrameAllocator) {
	t.Helper()
	b := bus.New()
	pool := memory.NewRegion("frame-pool", 1<<20)
	b.MapRange(0, pool.Len()/bus.PageSize, bus.PageDescriptor{
		Target: &memory.RAMTarget{Region: pool},
		Tag:    bus.TagRam,
		Perm:   bus.Permissions{R: true, W: true, X: true},
	})
	devices := devpage.NewRegistry()
	m := mmu.New(b, devices)
	alloc := mmu.NewFrameAllocator(m, 0, pool.Len())
	return b, m, alloc
}

func TestWindowMapsRAMDevROM(t *testing.T) {
	_, m, alloc := newTestMMU(t)

	page := devpage.NewAppleIIPage()
	speaker := devpage.NewSpeaker(func() uint64 { return 0 })
	page.RegisterSwitch(0x30, speaker)

	rom := []byte{0xEA, 0xEA, 0x00, 0x00}
	win, ok := New(1, m, alloc, m.Devices, page, rom)
	if !ok {
		t.Fatal("New failed")
	}
	if !win.HasROM() {
		t.Fatal("expected ROM to be mapped")
	}

	m.CR0.PG = true
	m.PTBR = win.PageTable.L1Base

	o := m.Access(ROMBase, 8, bus.ExecFetch, mmu.PrivU, 0)
	if !o.Ok || o.Value != 0xEA {
		t.Fatalf("ROM read: %+v", o)
	}

	o = m.Access(ROMBase, 8, bus.DataWrite, mmu.PrivU, 0xFF)
	if o.Ok {
		t.Fatal("expected ROM write to fault")
	}

	o = m.Access(0x1000, 16, bus.DataWrite, mmu.PrivU, 0xBEEF)
	if !o.Ok {
		t.Fatalf("RAM write: %+v", o)
	}
	o = m.Access(0x1000, 16, bus.DataRead, mmu.PrivU, 0)
	if !o.Ok || o.Value != 0xBEEF {
		t.Fatalf("RAM read: %+v", o)
	}

	o = m.Access(DevPageBase+0x30, 8, bus.DataRead, mmu.PrivU, 0)
	if !o.Ok {
		t.Fatalf("device page access: %+v", o)
	}
}

func TestWindowBareCompatTaskHasNoROM(t *testing.T) {
	_, m, alloc := newTestMMU(t)
	page := devpage.NewAppleIIPage()

	win, ok := New(0, m, alloc, m.Devices, page, nil)
	if !ok {
		t.Fatal("New failed")
	}
	if win.HasROM() {
		t.Fatal("bare compat task should not have ROM mapped")
	}

	m.CR0.PG = true
	m.PTBR = win.PageTable.L1Base
	o := m.Access(ROMBase, 8, bus.ExecFetch, mmu.PrivU, 0)
	if o.Ok {
		t.Fatal("expected NotPresent fault fetching unmapped ROM region")
	}
	if o.Kind != bus.FaultUnmapped {
		t.Fatalf("kind = %v, want FaultUnmapped", o.Kind)
	}
}
