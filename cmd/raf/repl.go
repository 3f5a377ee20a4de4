package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"pyraf/internal/eval"
	"pyraf/internal/lexer"
	"pyraf/internal/parser"

	"github.com/chzyer/readline"
)

// ---- ANSI colors ----

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
	colorCyan   = "\033[36m"
)

func cmdRepl() {
	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".raf_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            colorGreen + "raf> " + colorReset,
		HistoryFile:       historyFile,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline init failed: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	fmt.Fprintf(rl.Stdout(), "%s%spyraf REPL%s %s(type 'exit', 'quit', or Ctrl+D to quit)%s\n\n",
		colorBold, colorCyan, colorReset, colorGray, colorReset)

	cwd, _ := os.Getwd()
	interp := eval.New(cwd, rl.Stdout())

	var accumulated strings.Builder
	braceDepth := 0

	for {
		if braceDepth > 0 {
			rl.SetPrompt(colorGray + "...   " + colorReset)
		} else {
			rl.SetPrompt(colorGreen + "raf> " + colorReset)
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if braceDepth > 0 {
					accumulated.Reset()
					braceDepth = 0
					continue
				}
				fmt.Fprintf(rl.Stdout(), "\n%s(use 'exit', 'quit', or Ctrl+D to quit)%s\n", colorGray, colorReset)
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(rl.Stdout())
			}
			break
		}

		if trimmed := strings.TrimSpace(line); braceDepth == 0 && (trimmed == "exit" || trimmed == "quit") {
			break
		}

		braceDepth += strings.Count(line, "{") - strings.Count(line, "}")
		accumulated.WriteString(line)
		accumulated.WriteString("\n")

		if braceDepth > 0 {
			continue
		}
		braceDepth = 0

		source := accumulated.String()
		accumulated.Reset()

		if strings.TrimSpace(source) == "" {
			continue
		}

		runREPLSource(rl, interp, source)
	}
}

func runREPLSource(rl *readline.Instance, interp *eval.Interpreter, source string) {
	l := lexer.New(source, "<repl>")
	tokens, err := l.Tokenize()
	if err != nil {
		fmt.Fprintf(rl.Stderr(), "%s%s%s\n", colorRed, err, colorReset)
		return
	}

	p := parser.New(tokens)
	file, err := p.ParseFile()
	if err != nil {
		fmt.Fprintf(rl.Stderr(), "%s%s%s\n", colorRed, err, colorReset)
		return
	}

	if err := interp.Run(file); err != nil {
		fmt.Fprintf(rl.Stderr(), "%s%s%s\n", colorRed, err, colorReset)
	}
}
