package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"pyraf/internal/compiler"
	"pyraf/internal/eval"
	"pyraf/internal/lexer"
	"pyraf/internal/parser"
	"pyraf/internal/vm"
)

func cmdRun(args []string) {
	useVM := false
	var path string
	for _, a := range args {
		if a == "--vm" {
			useVM = true
			continue
		}
		path = a
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "raf run: missing PATH")
		os.Exit(1)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "raf: cannot read %s: %s\n", path, err)
		os.Exit(1)
	}
	slog.Debug("loaded source", "path", path, "bytes", len(src))

	l := lexer.New(string(src), path)
	tokens, err := l.Tokenize()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	p := parser.New(tokens)
	file, err := p.ParseFile()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	baseDir := filepath.Dir(path)

	if useVM {
		slog.Debug("executing via bytecode VM", "path", path)
		chunk, err := compiler.CompileFile(file)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		m := vm.New(baseDir, os.Stdout)
		if err := m.Run(chunk); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	slog.Debug("executing via tree-walking evaluator", "path", path)
	interp := eval.New(baseDir, os.Stdout)
	if err := interp.Run(file); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
