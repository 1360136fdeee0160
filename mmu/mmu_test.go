package mmu

import (
	"testing"

	"github.com/m65832/m65832/bus"
	"github.com/m65832/m65832/devpage"
	"github.com/m65832/m65832/memory"
)

func newTestSetup(t *testing.T, ramSize uint32) (*bus.Bus, *MMU, *FrameAllocator) {
	t.Helper()
	b := bus.New()
	ram := memory.NewRegion("test-ram", ramSize)
	desc := bus.PageDescriptor{Target: &memory.RAMTarget{Region: ram}, Tag: bus.TagRam, Perm: bus.Permissions{R: true, W: true, X: true}}
	b.MapRange(0, ramSize/bus.PageSize, desc)

	devices := devpage.NewRegistry()
	m := New(b, devices)
	alloc := NewFrameAllocator(m, 0, ramSize)
	return b, m, alloc
}

func TestSetVBARAcceptsAlignedAddress(t *testing.T) {
	_, m, _ := newTestSetup(t, 64*1024)

	if ok := m.SetVBAR(0x2000); !ok {
		t.Fatal("SetVBAR(0x2000) should succeed, 0x2000 is 4KB-aligned")
	}
	if m.VBAR != 0x2000 {
		t.Fatalf("VBAR = %#x, want 0x2000", m.VBAR)
	}
}

func TestSetVBARRejectsMisalignedAddressAndLeavesItUnchanged(t *testing.T) {
	_, m, _ := newTestSetup(t, 64*1024)
	m.VBAR = 0x2000

	if ok := m.SetVBAR(0x2001); ok {
		t.Fatal("SetVBAR(0x2001) should fail, not 4KB-aligned")
	}
	if m.VBAR != 0x2000 {
		t.Fatalf("VBAR = %#x, want unchanged (0x2000) after a rejected write", m.VBAR)
	}
}

func TestIdentityAccessReadWrite(t *testing.T) {
	_, m, _ := newTestSetup(t, 64*1024)

	o := m.Access(0x100, 8, bus.DataWrite, PrivK, 0x55)
	if !o.Ok {
		t.Fatalf("write: %+v", o)
	}
	o = m.Access(0x100, 8, bus.DataRead, PrivK, 0)
	if !o.Ok || o.Value != 0x55 {
		t.Fatalf("read: %+v", o)
	}
}

func TestIdentityAccessFaultRecordsFAR(t *testing.T) {
	_, m, _ := newTestSetup(t, 4096)

	o := m.Access(0x10000, 8, bus.DataRead, PrivK, 0)
	if o.Ok {
		t.Fatal("expected fault reading unmapped identity address")
	}
	if m.FAR != 0x10000 {
		t.Fatalf("FAR = %#x, want 0x10000", m.FAR)
	}
	if m.FSC != FSCNotPresent {
		t.Fatalf("FSC = %d, want FSCNotPresent", m.FSC)
	}
}

func TestPagedAccessNotPresentFaults(t *testing.T) {
	_, m, alloc := newTestSetup(t, 1<<20)
	pt, ok := NewPageTable(m, alloc)
	if !ok {
		t.Fatal("NewPageTable failed")
	}
	m.PTBR = pt.L1Base
	m.CR0.PG = true

	o := m.Access(0x5000, 8, bus.DataRead, PrivK, 0)
	if o.Ok || o.Kind != bus.FaultUnmapped {
		t.Fatalf("expected FaultUnmapped, got %+v", o)
	}
	if m.FSC != FSCNotPresent {
		t.Fatalf("FSC = %d, want FSCNotPresent", m.FSC)
	}
}

func TestPagedAccessPermissionDenied(t *testing.T) {
	_, m, alloc := newTestSetup(t, 1<<20)
	pt, _ := NewPageTable(m, alloc)
	m.PTBR = pt.L1Base
	m.CR0.PG = true

	frame, _ := alloc.Alloc()
	leaf := NewPTE(frame>>12, true, true, false, false, true, false, false) // R only, no W
	pt.Map(0x2000, leaf)

	o := m.Access(0x2000, 8, bus.DataWrite, PrivU, 0xFF)
	if o.Ok || o.Kind != bus.FaultPermW {
		t.Fatalf("expected FaultPermW, got %+v", o)
	}
}

func TestPagedAccessUserBitEnforced(t *testing.T) {
	_, m, alloc := newTestSetup(t, 1<<20)
	pt, _ := NewPageTable(m, alloc)
	m.PTBR = pt.L1Base
	m.CR0.PG = true

	frame, _ := alloc.Alloc()
	leaf := NewPTE(frame>>12, true, true, true, true, false, false, false) // not user-accessible
	pt.Map(0x3000, leaf)

	o := m.Access(0x3000, 8, bus.DataRead, PrivU, 0)
	if o.Ok || o.Kind != bus.FaultPermU {
		t.Fatalf("expected FaultPermU, got %+v", o)
	}

	o = m.Access(0x3000, 8, bus.DataRead, PrivK, 0)
	if !o.Ok {
		t.Fatalf("kernel access should succeed: %+v", o)
	}
}

func TestNXTakesPrecedenceOverDeviceDispatch(t *testing.T) {
	_, m, alloc := newTestSetup(t, 1<<20)
	pt, _ := NewPageTable(m, alloc)
	m.PTBR = pt.L1Base
	m.CR0.PG = true
	m.CR0.NXE = true

	id := devpage.NewID(devpage.ClassAppleII, 0, 0)
	leaf := NewPTE(uint32(id), true, true, true, false, true, false, true) // X=false, DEV=true
	pt.Map(0x4000, leaf)

	o := m.Access(0x4000, 8, bus.ExecFetch, PrivU, 0)
	if o.Ok || o.Kind != bus.FaultExecViolation {
		t.Fatalf("expected FaultExecViolation (NX before DEV), got %+v", o)
	}
}

func TestDeviceDispatchThroughPagedLeaf(t *testing.T) {
	b, m, alloc := newTestSetup(t, 1<<20)
	_ = b
	pt, _ := NewPageTable(m, alloc)
	m.PTBR = pt.L1Base
	m.CR0.PG = true

	id := devpage.NewID(devpage.ClassAppleII, 0, 0)
	speaker := devpage.NewSpeaker(func() uint64 { return 0 })
	m.Devices.Register(id, speaker)

	leaf := NewPTE(uint32(id), true, true, true, false, true, false, true)
	pt.Map(0xC000, leaf)

	o := m.Access(0xC030, 8, bus.DataRead, PrivK, 0)
	if !o.Ok {
		t.Fatalf("device dispatch failed: %+v", o)
	}
	if !speaker.State() {
		t.Fatal("speaker should have toggled on")
	}
}

func TestDeviceFaultOnUnregisteredID(t *testing.T) {
	_, m, alloc := newTestSetup(t, 1<<20)
	pt, _ := NewPageTable(m, alloc)
	m.PTBR = pt.L1Base
	m.CR0.PG = true

	id := devpage.NewID(devpage.ClassAppleII, 9, 0)
	leaf := NewPTE(uint32(id), true, true, true, false, true, false, true)
	pt.Map(0xC000, leaf)

	o := m.Access(0xC000, 8, bus.DataRead, PrivK, 0)
	if o.Ok || o.Kind != bus.FaultDevice {
		t.Fatalf("expected FaultDevice, got %+v", o)
	}
	if m.FDI != uint32(id) {
		t.Fatalf("FDI = %#x, want %#x", m.FDI, uint32(id))
	}
}

func TestDebugAccessBypassesPrivilegeAndPermission(t *testing.T) {
	_, m, alloc := newTestSetup(t, 1<<20)
	pt, _ := NewPageTable(m, alloc)
	m.PTBR = pt.L1Base
	m.CR0.PG = true

	frame, _ := alloc.Alloc()
	leaf := NewPTE(frame>>12, true, false, false, false, false, false, false) // no R/W/U at all
	pt.Map(0x6000, leaf)

	o := m.Access(0x6000, 8, bus.DebugRead, PrivU, 0)
	if !o.Ok {
		t.Fatalf("debug read should bypass permission/privilege checks: %+v", o)
	}
}

func TestReservedBitsFault(t *testing.T) {
	_, m, alloc := newTestSetup(t, 1<<20)
	pt, _ := NewPageTable(m, alloc)
	m.PTBR = pt.L1Base
	m.CR0.PG = true

	frame, _ := alloc.Alloc()
	leaf := PTE(uint32(NewPTE(frame>>12, true, true, true, false, true, false, false)) | (1 << 9))
	pt.Map(0x7000, leaf)

	o := m.Access(0x7000, 8, bus.DataRead, PrivK, 0)
	if o.Ok || o.Kind != bus.FaultReserved {
		t.Fatalf("expected FaultReserved, got %+v", o)
	}
}
