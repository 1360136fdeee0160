/*
 * m65832 - Hex/ASCII dump formatting.
 *
 * Grounded on github.com/rcornwell/S370 util/hex/hex.go's Format*
 * helper set (one function per field width, writing nibbles straight
 * into a strings.Builder), generalized to a DumpRange-style full-line
 * dumper for the 65832's debug observer (spec.md section 7), with the
 * "??" convention for a byte the bus could not supply.
 */
package hex

import (
	"strconv"
	"strings"
)

var hexMap = "0123456789ABCDEF"

// FormatWord writes each word of data as 8 uppercase hex digits
// separated by a space.
func FormatWord(str *strings.Builder, data []uint32) {
	for _, full := range data {
		shift := 28
		for i := 0; i < 8; i++ {
			str.WriteByte(hexMap[(full>>shift)&0xf])
			shift -= 4
		}
		str.WriteByte(' ')
	}
}

// FormatByte writes a single byte as two uppercase hex digits.
func FormatByte(str *strings.Builder, data byte) {
	str.WriteByte(hexMap[(data>>4)&0xf])
	str.WriteByte(hexMap[data&0xf])
}

// FormatMissing writes "??" in place of a byte the bus failed to
// supply (unmapped or faulted during a debug peek).
func FormatMissing(str *strings.Builder) {
	str.WriteByte('?')
	str.WriteByte('?')
}

// Byte pairs a byte value with whether the bus actually supplied it,
// the shape DumpLine's caller builds from repeated DebugRead peeks.
type Byte struct {
	Value uint8
	Ok    bool
}

// DumpLine renders up to 16 bytes as "AAAAAAAA  XX XX ?? ...  |asc.ii|",
// the classic hex-dump layout, with each unreadable byte rendered as
// "??" in the hex column and "?" in the ASCII column.
func DumpLine(addr uint32, bytes []Byte) string {
	var b strings.Builder
	var addrWord strings.Builder
	FormatWord(&addrWord, []uint32{addr})
	b.WriteString(strings.TrimSpace(addrWord.String()))
	b.WriteString("  ")

	for i := 0; i < 16; i++ {
		if i < len(bytes) {
			if bytes[i].Ok {
				FormatByte(&b, bytes[i].Value)
			} else {
				FormatMissing(&b)
			}
		} else {
			b.WriteString("  ")
		}
		b.WriteByte(' ')
		if i == 7 {
			b.WriteByte(' ')
		}
	}

	b.WriteString(" |")
	for i := 0; i < len(bytes) && i < 16; i++ {
		if !bytes[i].Ok {
			b.WriteByte('?')
			continue
		}
		c := bytes[i].Value
		if c >= 0x20 && c < 0x7f {
			b.WriteByte(c)
		} else {
			b.WriteByte('.')
		}
	}
	b.WriteByte('|')
	return b.String()
}

// FaultSummary renders the "Bus faults encountered (N)" line spec.md
// section 7 shows as example debug-observer output.
func FaultSummary(faultCount int) string {
	return "Bus faults encountered (" + strconv.Itoa(faultCount) + ")"
}
