package parser

import (
	"testing"

	"pyraf/internal/ast"
	"pyraf/internal/lexer"
)

func parseOK(t *testing.T, source string) *ast.File {
	t.Helper()
	l := lexer.New(source, "test.raf")
	tokens, err := l.Tokenize()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	p := New(tokens)
	file, err := p.ParseFile()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return file
}

func TestParseAssign(t *testing.T) {
	file := parseOK(t, `x = 42;`)
	if len(file.Body) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(file.Body))
	}
	assign, ok := file.Body[0].(*ast.Assign)
	if !ok {
		t.Fatalf("expected Assign, got %T", file.Body[0])
	}
	if assign.Name != "x" {
		t.Errorf("expected name 'x', got %q", assign.Name)
	}
	lit, ok := assign.Value.(*ast.NumberLit)
	if !ok || lit.Value != 42 {
		t.Errorf("expected NumberLit(42), got %#v", assign.Value)
	}
}

func TestParseBinaryPrecedence(t *testing.T) {
	file := parseOK(t, `x = 1 + 2 * 3;`)
	assign := file.Body[0].(*ast.Assign)
	bin, ok := assign.Value.(*ast.Binary)
	if !ok || bin.Op != ast.BinAdd {
		t.Fatalf("expected top-level '+', got %#v", assign.Value)
	}
	right, ok := bin.Right.(*ast.Binary)
	if !ok || right.Op != ast.BinMul {
		t.Fatalf("expected right operand '2 * 3', got %#v", bin.Right)
	}
}

func TestParseComparisonAndLogic(t *testing.T) {
	file := parseOK(t, `x = 1 < 2 and 3 > 2;`)
	assign := file.Body[0].(*ast.Assign)
	bin, ok := assign.Value.(*ast.Binary)
	if !ok || bin.Op != ast.BinAnd {
		t.Fatalf("expected top-level 'and', got %#v", assign.Value)
	}
	if _, ok := bin.Left.(*ast.Binary); !ok {
		t.Errorf("expected left side to be a comparison, got %#v", bin.Left)
	}
}

func TestParseUnary(t *testing.T) {
	file := parseOK(t, `x = -1 + not true;`)
	assign := file.Body[0].(*ast.Assign)
	bin := assign.Value.(*ast.Binary)
	neg, ok := bin.Left.(*ast.Unary)
	if !ok || neg.Op != ast.UnaryNeg {
		t.Fatalf("expected unary '-', got %#v", bin.Left)
	}
	not, ok := bin.Right.(*ast.Unary)
	if !ok || not.Op != ast.UnaryNot {
		t.Fatalf("expected unary 'not', got %#v", bin.Right)
	}
}

func TestParseIfElse(t *testing.T) {
	file := parseOK(t, `if (x > 0) { y = 1; } else { y = 2; }`)
	ifStmt, ok := file.Body[0].(*ast.If)
	if !ok {
		t.Fatalf("expected If, got %T", file.Body[0])
	}
	if ifStmt.Else == nil {
		t.Fatal("expected else block")
	}
	if len(ifStmt.Then.Stmts) != 1 || len(ifStmt.Else.Stmts) != 1 {
		t.Fatalf("expected 1 statement per branch")
	}
}

func TestParseWhile(t *testing.T) {
	file := parseOK(t, `while (x < 10) { x = x + 1; }`)
	w, ok := file.Body[0].(*ast.While)
	if !ok {
		t.Fatalf("expected While, got %T", file.Body[0])
	}
	if len(w.Body.Stmts) != 1 {
		t.Fatalf("expected 1 statement in loop body")
	}
}

func TestParseFuncDecl(t *testing.T) {
	file := parseOK(t, `def add(a, b) { return a + b; }`)
	fd, ok := file.Body[0].(*ast.FuncDecl)
	if !ok {
		t.Fatalf("expected FuncDecl, got %T", file.Body[0])
	}
	if fd.Name != "add" {
		t.Errorf("expected name 'add', got %q", fd.Name)
	}
	if len(fd.Params) != 2 || fd.Params[0] != "a" || fd.Params[1] != "b" {
		t.Errorf("unexpected params: %v", fd.Params)
	}
}

func TestParseFuncExprAndCall(t *testing.T) {
	file := parseOK(t, `square = def (n) { return n * n; };`)
	assign := file.Body[0].(*ast.Assign)
	fe, ok := assign.Value.(*ast.FuncExpr)
	if !ok {
		t.Fatalf("expected FuncExpr, got %#v", assign.Value)
	}
	if len(fe.Params) != 1 || fe.Params[0] != "n" {
		t.Errorf("unexpected params: %v", fe.Params)
	}
}

func TestParseCallAndIndex(t *testing.T) {
	file := parseOK(t, `y = f(1, 2)[0];`)
	assign := file.Body[0].(*ast.Assign)
	idx, ok := assign.Value.(*ast.Index)
	if !ok {
		t.Fatalf("expected Index, got %#v", assign.Value)
	}
	call, ok := idx.Target.(*ast.Call)
	if !ok {
		t.Fatalf("expected Call as index target, got %#v", idx.Target)
	}
	if len(call.Args) != 2 {
		t.Errorf("expected 2 args, got %d", len(call.Args))
	}
}

func TestParseListLit(t *testing.T) {
	file := parseOK(t, `x = [1, 2, 3];`)
	assign := file.Body[0].(*ast.Assign)
	list, ok := assign.Value.(*ast.ListLit)
	if !ok || len(list.Elems) != 3 {
		t.Fatalf("expected ListLit with 3 elems, got %#v", assign.Value)
	}
}

func TestParseImport(t *testing.T) {
	file := parseOK(t, `import "math.raf";`)
	imp, ok := file.Body[0].(*ast.Import)
	if !ok || imp.Path != "math.raf" {
		t.Fatalf("expected Import(\"math.raf\"), got %#v", file.Body[0])
	}
}

func TestParseMissingSemicolonIsError(t *testing.T) {
	l := lexer.New(`x = 1`, "test.raf")
	tokens, err := l.Tokenize()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	p := New(tokens)
	if _, err := p.ParseFile(); err == nil {
		t.Fatal("expected ParseError for missing ';'")
	}
}

func TestParseHaltsOnFirstError(t *testing.T) {
	l := lexer.New(`x = ;`, "test.raf")
	tokens, err := l.Tokenize()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	p := New(tokens)
	if _, err := p.ParseFile(); err == nil {
		t.Fatal("expected ParseError for missing expression")
	}
}
