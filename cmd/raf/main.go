// Command raf is PyRaf's command-line entry point: run, dis, and repl.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

func main() {
	configureLogging()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		cmdRun(os.Args[2:])
	case "dis":
		cmdDis(os.Args[2:])
	case "repl":
		cmdRepl()
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "raf: unknown command %q\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage:
  raf run [--vm] PATH    run a PyRaf source file
  raf dis PATH            disassemble a PyRaf source file
  raf repl                start an interactive REPL`)
}

// configureLogging wires log/slog for CLI-level operational messages
// (never language errors, which are reported directly to stderr).
func configureLogging() {
	level := slog.LevelWarn
	switch strings.ToLower(os.Getenv("RAF_LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
