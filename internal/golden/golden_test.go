// Package golden runs whole PyRaf programs through both the tree-walking
// evaluator and the bytecode VM and checks that they are observably
// equivalent.
package golden

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pyraf/internal/compiler"
	"pyraf/internal/eval"
	"pyraf/internal/lexer"
	"pyraf/internal/parser"
	"pyraf/internal/vm"
)

func goldenTest(t *testing.T, name string) {
	t.Helper()
	path := filepath.Join("testdata", name+".raf")
	expectedPath := filepath.Join("testdata", name+".expected")

	expected, err := os.ReadFile(expectedPath)
	if err != nil {
		t.Fatalf("reading %s: %v", expectedPath, err)
	}

	evalOut := runViaEval(t, path)
	if evalOut != string(expected) {
		t.Errorf("evaluator output mismatch for %s:\n--- got ---\n%s--- want ---\n%s", name, evalOut, expected)
	}

	vmOut := runViaVM(t, path)
	if vmOut != string(expected) {
		t.Errorf("VM output mismatch for %s:\n--- got ---\n%s--- want ---\n%s", name, vmOut, expected)
	}

	if evalOut != vmOut {
		t.Errorf("evaluator and VM disagree for %s:\nevaluator: %q\nvm:        %q", name, evalOut, vmOut)
	}
}

func runViaEval(t *testing.T, path string) string {
	t.Helper()
	src, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	l := lexer.New(string(src), path)
	tokens, err := l.Tokenize()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	p := parser.New(tokens)
	file, err := p.ParseFile()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	var buf bytes.Buffer
	interp := eval.New(filepath.Dir(path), &buf)
	if err := interp.Run(file); err != nil {
		t.Fatalf("evaluator error: %v", err)
	}
	return buf.String()
}

func runViaVM(t *testing.T, path string) string {
	t.Helper()
	src, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	l := lexer.New(string(src), path)
	tokens, err := l.Tokenize()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	p := parser.New(tokens)
	file, err := p.ParseFile()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	chunk, err := compiler.CompileFile(file)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	var buf bytes.Buffer
	m := vm.New(filepath.Dir(path), &buf)
	if err := m.Run(chunk); err != nil {
		t.Fatalf("VM error: %v", err)
	}
	return buf.String()
}

func TestGoldenArithmetic(t *testing.T) { goldenTest(t, "arithmetic") }
func TestGoldenWhileLoop(t *testing.T)  { goldenTest(t, "while_loop") }
func TestGoldenClosures(t *testing.T)   { goldenTest(t, "closures") }
func TestGoldenShortCircuit(t *testing.T) { goldenTest(t, "short_circuit") }
func TestGoldenListIndex(t *testing.T)  { goldenTest(t, "list_index") }
func TestGoldenImportTwice(t *testing.T) { goldenTest(t, "import_twice") }
func TestGoldenBlockScope(t *testing.T) { goldenTest(t, "block_scope") }
func TestGoldenStringCompare(t *testing.T) { goldenTest(t, "string_compare") }
func TestGoldenModulo(t *testing.T)     { goldenTest(t, "modulo") }

// TestNonIntegerIndexIsError guards spec.md §7's "List index out of range
// or non-integer" IndexError in both engines.
func TestNonIntegerIndexIsError(t *testing.T) {
	src := `
xs = [1, 2, 3];
print(xs[1.5]);
`
	l := lexer.New(src, "<test>")
	tokens, err := l.Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	p := parser.New(tokens)
	file, err := p.ParseFile()
	if err != nil {
		t.Fatal(err)
	}

	interp := eval.New(".", &bytes.Buffer{})
	if err := interp.Run(file); err == nil || !strings.Contains(err.Error(), "IndexError") {
		t.Errorf("evaluator: expected IndexError for non-integer index, got: %v", err)
	}

	chunk, err := compiler.CompileFile(file)
	if err != nil {
		t.Fatal(err)
	}
	m := vm.New(".", &bytes.Buffer{})
	if err := m.Run(chunk); err == nil || !strings.Contains(err.Error(), "IndexError") {
		t.Errorf("vm: expected IndexError for non-integer index, got: %v", err)
	}
}

// TestBlockLocalsDoNotLeak guards the invariant that a name introduced
// inside a block ({ }) is not visible once the block exits, in both
// engines, the way internal/eval's execBlock's per-execution child scope
// implies.
func TestBlockLocalsDoNotLeak(t *testing.T) {
	src := `
if (true) {
    onlyInside = 1;
}
print(onlyInside);
`
	l := lexer.New(src, "<test>")
	tokens, err := l.Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	p := parser.New(tokens)
	file, err := p.ParseFile()
	if err != nil {
		t.Fatal(err)
	}

	interp := eval.New(".", &bytes.Buffer{})
	if err := interp.Run(file); err == nil || !strings.Contains(err.Error(), "NameError") {
		t.Errorf("evaluator: expected NameError for leaked block local, got: %v", err)
	}

	chunk, err := compiler.CompileFile(file)
	if err != nil {
		t.Fatal(err)
	}
	m := vm.New(".", &bytes.Buffer{})
	if err := m.Run(chunk); err == nil || !strings.Contains(err.Error(), "NameError") {
		t.Errorf("vm: expected NameError for leaked block local, got: %v", err)
	}
}

func TestImportCycleDetected(t *testing.T) {
	path := filepath.Join("testdata", "module_a.raf")

	t.Run("evaluator", func(t *testing.T) {
		src, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		l := lexer.New(string(src), path)
		tokens, err := l.Tokenize()
		if err != nil {
			t.Fatal(err)
		}
		p := parser.New(tokens)
		file, err := p.ParseFile()
		if err != nil {
			t.Fatal(err)
		}
		interp := eval.New(filepath.Dir(path), &bytes.Buffer{})
		err = interp.Run(file)
		if err == nil {
			t.Fatal("expected ImportError for import cycle")
		}
		if !strings.Contains(err.Error(), "ImportError") {
			t.Errorf("expected ImportError, got: %v", err)
		}
	})

	t.Run("vm", func(t *testing.T) {
		src, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		l := lexer.New(string(src), path)
		tokens, err := l.Tokenize()
		if err != nil {
			t.Fatal(err)
		}
		p := parser.New(tokens)
		file, err := p.ParseFile()
		if err != nil {
			t.Fatal(err)
		}
		chunk, err := compiler.CompileFile(file)
		if err != nil {
			t.Fatal(err)
		}
		m := vm.New(filepath.Dir(path), &bytes.Buffer{})
		err = m.Run(chunk)
		if err == nil {
			t.Fatal("expected ImportError for import cycle")
		}
		if !strings.Contains(err.Error(), "ImportError") {
			t.Errorf("expected ImportError, got: %v", err)
		}
	})
}

func TestStackTraceOnError(t *testing.T) {
	src := `
def inner() {
    return 1 / 0;
}
def outer() {
    return inner();
}
outer();
`
	l := lexer.New(src, "<test>")
	tokens, err := l.Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	p := parser.New(tokens)
	file, err := p.ParseFile()
	if err != nil {
		t.Fatal(err)
	}

	interp := eval.New(".", &bytes.Buffer{})
	evalErr := interp.Run(file)
	if evalErr == nil {
		t.Fatal("expected DivideByZero error")
	}
	if !strings.Contains(evalErr.Error(), "inner") || !strings.Contains(evalErr.Error(), "outer") {
		t.Errorf("expected stack trace mentioning inner/outer frames, got: %v", evalErr)
	}

	chunk, err := compiler.CompileFile(file)
	if err != nil {
		t.Fatal(err)
	}
	m := vm.New(".", &bytes.Buffer{})
	vmErr := m.Run(chunk)
	if vmErr == nil {
		t.Fatal("expected DivideByZero error")
	}
	if !strings.Contains(vmErr.Error(), "inner") || !strings.Contains(vmErr.Error(), "outer") {
		t.Errorf("expected stack trace mentioning inner/outer frames, got: %v", vmErr)
	}
}
