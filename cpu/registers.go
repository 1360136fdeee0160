/*
 * m65832 - Register file.
 *
 * Grounded on github.com/rcornwell/S370 emu/cpu/cpudefs.go (cpuState
 * holding regs/cregs/fpregs/PC/flags as plain fields on one struct),
 * generalized to the three-mode 65832 register set of spec.md section
 * 3: 8/16/32-bit-viewed A/X/Y, R0-R7 (M2 only), banked SP, and the
 * hidden E/N32 bits.
 */
package cpu

// Mode is the CPU's architectural mode.
type Mode uint8

const (
	M0 Mode = iota // 65C02-compatible
	M1             // 65816-compatible
	M2             // native 32-bit
)

func (m Mode) String() string {
	switch m {
	case M0:
		return "M0"
	case M1:
		return "M1"
	case M2:
		return "M2"
	default:
		return "?"
	}
}

// Privilege is the CPU's protection level. H is reserved.
type Privilege uint8

const (
	PrivU Privilege = iota
	PrivK
	PrivH
)

// Status holds the processor status flags, N V M X D I Z C, as
// individual booleans rather than a packed byte: every mode's decode
// logic reads/writes flags by name, and packing only matters at the
// trap-frame/SEP/REP boundary (see toByte/statusFromByte).
type Status struct {
	N, V, M, X, D, I, Z, C bool
}

func (s Status) toByte() uint8 {
	var v uint8
	if s.N {
		v |= 0x80
	}
	if s.V {
		v |= 0x40
	}
	if s.M {
		v |= 0x20
	}
	if s.X {
		v |= 0x10
	}
	if s.D {
		v |= 0x08
	}
	if s.I {
		v |= 0x04
	}
	if s.Z {
		v |= 0x02
	}
	if s.C {
		v |= 0x01
	}
	return v
}

func statusFromByte(v uint8) Status {
	return Status{
		N: v&0x80 != 0,
		V: v&0x40 != 0,
		M: v&0x20 != 0,
		X: v&0x10 != 0,
		D: v&0x08 != 0,
		I: v&0x04 != 0,
		Z: v&0x02 != 0,
		C: v&0x01 != 0,
	}
}

// Registers is the full architectural register file. Internal storage
// for A/X/Y/SP is always the full 32-bit word; the current mode/flags
// only gate which sub-range is visible and writable (the "register
// view" rule of spec.md section 4.1), so mode round trips naturally
// preserve untouched upper bytes without any extra bookkeeping.
type Registers struct {
	A, X, Y uint32
	R       [8]uint32 // R0-R7, addressable only in M2
	USP     uint32
	KSP     uint32
	D       uint32 // direct page register (M1/M2)
	DB      uint32 // data bank (M1) / base (M2 legacy reinterpretation)
	PBR     uint32 // program bank (M1)
	PC      uint32
	P       Status
	E       bool // hidden emulation bit
	N32     bool // hidden native-32 bit
}

// spWidth returns the bit width of the currently active stack pointer
// view: 8 in emulation, 16 in M1 native, 32 in M2.
func (r *Registers) spWidth(mode Mode) int {
	switch {
	case r.E:
		return 8
	case mode == M2 && r.N32:
		return 32
	default:
		return 16
	}
}

func widthMask(width int) uint32 {
	switch width {
	case 8:
		return 0xFF
	case 16:
		return 0xFFFF
	default:
		return 0xFFFFFFFF
	}
}

// AWidth returns the active width of A/X/Y given E and the M/X flags.
func (r *Registers) AWidth() int {
	if r.E || r.P.M {
		return 8
	}
	if r.N32 {
		return 32
	}
	return 16
}

func (r *Registers) XWidth() int {
	if r.E || r.P.X {
		return 8
	}
	if r.N32 {
		return 32
	}
	return 16
}

// GetA/SetA etc apply the current view width; SetA preserves the
// untouched high bytes of the full 32-bit backing word.
func (r *Registers) GetA() uint32 { return r.A & widthMask(r.AWidth()) }
func (r *Registers) SetA(v uint32) {
	mask := widthMask(r.AWidth())
	r.A = (r.A &^ mask) | (v & mask)
}

func (r *Registers) GetX() uint32 { return r.X & widthMask(r.XWidth()) }
func (r *Registers) SetX(v uint32) {
	mask := widthMask(r.XWidth())
	r.X = (r.X &^ mask) | (v & mask)
}

func (r *Registers) GetY() uint32 { return r.Y & widthMask(r.XWidth()) }
func (r *Registers) SetY(v uint32) {
	mask := widthMask(r.XWidth())
	r.Y = (r.Y &^ mask) | (v & mask)
}

// SP returns the active banked stack pointer (USP unless running in K
// privilege, truncated to the active width - forced to page 1 in
// emulation per spec.md section 3).
func (r *Registers) SP(priv Privilege, mode Mode) uint32 {
	base := r.USP
	if priv != PrivU {
		base = r.KSP
	}
	mask := widthMask(r.spWidth(mode))
	v := base & mask
	if r.E {
		v = (v & 0xFF) | 0x0100
	}
	return v
}

func (r *Registers) SetSP(priv Privilege, mode Mode, v uint32) {
	mask := widthMask(r.spWidth(mode))
	if r.E {
		v = (v & 0xFF) | 0x0100
		mask = 0xFFFF
	}
	if priv != PrivU {
		r.KSP = (r.KSP &^ mask) | (v & mask)
	} else {
		r.USP = (r.USP &^ mask) | (v & mask)
	}
}
