/*
 * m65832 - Minimal debug REPL commands.
 *
 * Grounded on the shape of a command dispatch table (one verb, zero or
 * more string args), generalized from the teacher's command/parser
 * package down to the handful of verbs a 65832 debug observer needs
 * (spec.md section 7): step, run, regs, peek, faults, quit.
 */
package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/m65832/m65832/machine"
	"github.com/m65832/m65832/util/hex"
)

var commandNames = []string{"step", "run", "regs", "peek", "faults", "quit", "help"}

func completeCommand(partial string) []string {
	var out []string
	for _, name := range commandNames {
		if strings.HasPrefix(name, partial) {
			out = append(out, name)
		}
	}
	return out
}

// dispatch executes one REPL command line, returning quit=true when
// the session should end.
func dispatch(mc *machine.Machine, line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	switch strings.ToLower(fields[0]) {
	case "quit", "exit":
		return true, nil
	case "help":
		fmt.Println("commands: step [n] | run <cycles> | regs | peek <addr> | faults | quit")
		return false, nil
	case "step":
		return false, cmdStep(mc, fields[1:])
	case "run":
		return false, cmdRun(mc, fields[1:])
	case "regs":
		cmdRegs(mc)
		return false, nil
	case "peek":
		return false, cmdPeek(mc, fields[1:])
	case "faults":
		fmt.Println(mc.FaultSummary())
		return false, nil
	default:
		return false, fmt.Errorf("unknown command %q", fields[0])
	}
}

func cmdStep(mc *machine.Machine, args []string) error {
	n := 1
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("step: %w", err)
		}
		n = v
	}
	for i := 0; i < n; i++ {
		if _, err := mc.CPU.Step(); err != nil {
			return err
		}
	}
	cmdRegs(mc)
	return nil
}

func cmdRun(mc *machine.Machine, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("run requires <cycles>")
	}
	budget, err := strconv.ParseUint(args[0], 0, 64)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	reason, err := mc.RunCycles(budget)
	if err != nil {
		return err
	}
	fmt.Println("stopped:", reason)
	return nil
}

func cmdRegs(mc *machine.Machine) {
	r := mc.CPU.Registers()
	fmt.Printf("PC=%08X A=%08X X=%08X Y=%08X mode=%s\n", r.PC, r.A, r.X, r.Y, mc.CPU.Mode)
}

// cmdPeek dumps 16 bytes starting at addr as one hex.DumpLine, marking
// any unreadable byte "??" rather than faulting the REPL.
func cmdPeek(mc *machine.Machine, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("peek requires <addr>")
	}
	addr, err := strconv.ParseUint(strings.TrimPrefix(args[0], "0x"), 16, 32)
	if err != nil {
		return fmt.Errorf("peek: bad address %q", args[0])
	}

	bytes := make([]hex.Byte, 16)
	for i := 0; i < 16; i++ {
		v, ok := mc.Peek(uint32(addr)+uint32(i), 8)
		bytes[i] = hex.Byte{Value: uint8(v), Ok: ok}
	}
	fmt.Println(hex.DumpLine(uint32(addr), bytes))
	return nil
}
