/*
 * m65832 - Machine configuration file parser.
 *
 * Grounded on github.com/rcornwell/S370 config/configparser/configparser.go's
 * line-oriented directive parser ('#' comments, one directive per
 * line, hex/decimal numeric option values), narrowed from that
 * package's generic device/model registration grammar to the fixed
 * set of directives SPEC_FULL.md section A.3 names for a 65832
 * machine: rom, ram, vbar, compat, log.
 *
 * <line>   := '#' <comment> | <directive> <args>
 * <args>   := *(<whitespace> <token>)
 */
package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/m65832/m65832/bus"
)

// ROMImage names a ROM image file and the physical address it loads
// at, from a `rom <path> <addr>` directive.
type ROMImage struct {
	Path string
	Addr uint32
}

// CompatTask describes one `compat <name> <romPath>` directive: a
// compatibility-window guest to start at boot, named for log/debug
// output, loading its ROM image into its window.
type CompatTask struct {
	Name string
	ROM  string
}

// Config is the parsed result of a configuration file.
type Config struct {
	RAMSize  uint32
	VBAR     uint32
	ROMs     []ROMImage
	Compat   []CompatTask
	LogPath  string
	LogDebug bool
}

// Parse reads directives from r, returning the assembled Config or the
// first error encountered (with a 1-based line number).
func Parse(r io.Reader) (Config, error) {
	var cfg Config
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		directive := strings.ToLower(fields[0])
		args := fields[1:]

		var err error
		switch directive {
		case "ram":
			err = parseRAM(&cfg, args)
		case "vbar":
			err = parseVBAR(&cfg, args)
		case "rom":
			err = parseROM(&cfg, args)
		case "compat":
			err = parseCompat(&cfg, args)
		case "log":
			err = parseLog(&cfg, args)
		default:
			err = fmt.Errorf("unknown directive %q", fields[0])
		}
		if err != nil {
			return Config{}, fmt.Errorf("line %d: %w", lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parseRAM(cfg *Config, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("ram requires exactly one size argument")
	}
	v, err := parseNumber(args[0])
	if err != nil {
		return fmt.Errorf("ram: %w", err)
	}
	cfg.RAMSize = v
	return nil
}

func parseVBAR(cfg *Config, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("vbar requires exactly one address argument")
	}
	v, err := parseNumber(args[0])
	if err != nil {
		return fmt.Errorf("vbar: %w", err)
	}
	if v&(bus.PageSize-1) != 0 {
		return fmt.Errorf("vbar: address %#x is not 4KB-aligned", v)
	}
	cfg.VBAR = v
	return nil
}

func parseROM(cfg *Config, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("rom requires <path> <addr>")
	}
	addr, err := parseNumber(args[1])
	if err != nil {
		return fmt.Errorf("rom: %w", err)
	}
	cfg.ROMs = append(cfg.ROMs, ROMImage{Path: args[0], Addr: addr})
	return nil
}

func parseCompat(cfg *Config, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("compat requires <name> <rompath>")
	}
	cfg.Compat = append(cfg.Compat, CompatTask{Name: args[0], ROM: args[1]})
	return nil
}

func parseLog(cfg *Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("log requires <path> [debug]")
	}
	cfg.LogPath = args[0]
	for _, a := range args[1:] {
		if strings.EqualFold(a, "debug") {
			cfg.LogDebug = true
		}
	}
	return nil
}

// parseNumber accepts decimal, 0x-prefixed hex (the form ROM addresses
// and VBAR are given in throughout spec.md), and a trailing k/m
// multiplier for RAM sizes.
func parseNumber(tok string) (uint32, error) {
	mult := uint64(1)
	if n := len(tok); n > 0 {
		switch tok[n-1] {
		case 'k', 'K':
			mult = 1024
			tok = tok[:n-1]
		case 'm', 'M':
			mult = 1024 * 1024
			tok = tok[:n-1]
		}
	}
	base := 10
	if strings.HasPrefix(tok, "0x") || strings.HasPrefix(tok, "0X") {
		base = 16
		tok = tok[2:]
	}
	v, err := strconv.ParseUint(tok, base, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", tok)
	}
	return uint32(v * mult), nil
}
