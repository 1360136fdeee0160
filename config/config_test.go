package config

import (
	"strings"
	"testing"
)

func TestParseBasicDirectives(t *testing.T) {
	src := `
# a comment line
ram 16M
vbar 0x1000
rom boot.bin 0xFFFF0000
compat apple2a apple2.rom
log m65832.log debug
`
	cfg, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RAMSize != 16*1024*1024 {
		t.Fatalf("RAMSize = %#x, want 16M", cfg.RAMSize)
	}
	if cfg.VBAR != 0x1000 {
		t.Fatalf("VBAR = %#x, want 0x1000", cfg.VBAR)
	}
	if len(cfg.ROMs) != 1 || cfg.ROMs[0].Path != "boot.bin" || cfg.ROMs[0].Addr != 0xFFFF0000 {
		t.Fatalf("ROMs = %+v", cfg.ROMs)
	}
	if len(cfg.Compat) != 1 || cfg.Compat[0].Name != "apple2a" {
		t.Fatalf("Compat = %+v", cfg.Compat)
	}
	if cfg.LogPath != "m65832.log" || !cfg.LogDebug {
		t.Fatalf("log = %q debug=%v", cfg.LogPath, cfg.LogDebug)
	}
}

func TestParseUnknownDirective(t *testing.T) {
	_, err := Parse(strings.NewReader("bogus 1 2 3"))
	if err == nil {
		t.Fatal("expected error for unknown directive")
	}
}

func TestParseRejectsBadRAM(t *testing.T) {
	_, err := Parse(strings.NewReader("ram notanumber"))
	if err == nil {
		t.Fatal("expected error for malformed ram size")
	}
}

func TestParseRejectsMisalignedVBAR(t *testing.T) {
	_, err := Parse(strings.NewReader("vbar 0x1001"))
	if err == nil {
		t.Fatal("expected error for non-4KB-aligned vbar")
	}
}
