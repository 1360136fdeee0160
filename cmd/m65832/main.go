/*
 * m65832 - Main process.
 *
 * Grounded on github.com/rcornwell/S370's main.go (getopt flags, a
 * slog logger wired through util/logger, a signal-driven shutdown) and
 * command/reader/reader.go (a liner-based REPL dispatching to a
 * command parser), adapted to a single-goroutine machine: there is no
 * master channel here, since the 65832 core runs synchronously under
 * RunCycles rather than as an independent CPU goroutine.
 */
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	getopt "github.com/pborman/getopt/v2"
	"github.com/peterh/liner"

	"github.com/m65832/m65832/config"
	"github.com/m65832/m65832/machine"
	"github.com/m65832/m65832/util/logger"
)

func main() {
	optConfig := getopt.StringLong("config", 'c', "m65832.cfg", "Configuration file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optDebug := getopt.BoolLong("debug", 'd', "Mirror every log record to stderr")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if *optLogFile != "" {
		f, err := os.Create(*optLogFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "m65832: creating log file:", err)
			os.Exit(1)
		}
		file = f
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelDebug)
	log := slog.New(logger.New(file, &slog.HandlerOptions{Level: programLevel}, *optDebug))
	slog.SetDefault(log)

	log.Info("m65832 started")

	cfgFile, err := os.Open(*optConfig)
	if err != nil {
		log.Error("opening configuration file", "path", *optConfig, "err", err)
		os.Exit(1)
	}
	cfg, err := config.Parse(cfgFile)
	cfgFile.Close()
	if err != nil {
		log.Error("parsing configuration file", "err", err)
		os.Exit(1)
	}

	mc, err := machine.FromConfig(cfg, os.ReadFile)
	if err != nil {
		log.Error("assembling machine", "err", err)
		os.Exit(1)
	}

	log.Info("machine booted", "ram", cfg.RAMSize, "vbar", cfg.VBAR, "compat_tasks", len(cfg.Compat))

	runREPL(mc, log)
}

func runREPL(mc *machine.Machine, log *slog.Logger) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(partial string) []string {
		return completeCommand(partial)
	})

	for {
		input, err := line.Prompt("m65832> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				return
			}
			log.Error("reading command", "err", err)
			return
		}
		line.AppendHistory(input)

		quit, err := dispatch(mc, input)
		if err != nil {
			fmt.Println("Error:", err)
		}
		if quit {
			return
		}
	}
}
