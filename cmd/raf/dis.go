package main

import (
	"fmt"
	"os"

	"pyraf/internal/bytecode"
	"pyraf/internal/compiler"
	"pyraf/internal/lexer"
	"pyraf/internal/parser"
)

func cmdDis(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "raf dis: missing PATH")
		os.Exit(1)
	}
	path := args[0]

	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "raf: cannot read %s: %s\n", path, err)
		os.Exit(1)
	}

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
	chunk, err := compiler.CompileFile(file)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Print(bytecode.Disassemble(chunk))
}
