package lexer

import (
	"testing"

	"pyraf/internal/token"
)

func TestTokenizeSimple(t *testing.T) {
	source := `x = 1 + 2;`
	l := New(source, "test.raf")
	tokens, err := l.Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []token.Kind{
		token.IDENT, token.ASSIGN, token.NUMBER,
		token.PLUS, token.NUMBER, token.SEMI, token.EOF,
	}

	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d", len(expected), len(tokens))
	}
	for i, exp := range expected {
		if tokens[i].Kind != exp {
			t.Errorf("token[%d]: expected %s, got %s (%q)", i, exp, tokens[i].Kind, tokens[i].Lexeme)
		}
	}
}

func TestTokenizeKeywords(t *testing.T) {
	source := `if else while def return and or not import true false nil`
	l := New(source, "test.raf")
	tokens, err := l.Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []token.Kind{
		token.KW_IF, token.KW_ELSE, token.KW_WHILE, token.KW_DEF, token.KW_RETURN,
		token.KW_AND, token.KW_OR, token.KW_NOT, token.KW_IMPORT,
		token.KW_TRUE, token.KW_FALSE, token.KW_NIL,
		token.EOF,
	}

	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d", len(expected), len(tokens))
	}
	for i, exp := range expected {
		if tokens[i].Kind != exp {
			t.Errorf("token[%d]: expected %s, got %s", i, exp, tokens[i].Kind)
		}
	}
}

func TestTokenizeOperators(t *testing.T) {
	source := `= == != < <= > >= + - * / %`
	l := New(source, "test.raf")
	tokens, err := l.Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []token.Kind{
		token.ASSIGN, token.EQ, token.NEQ,
		token.LT, token.LTE, token.GT, token.GTE,
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.EOF,
	}

	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d", len(expected), len(tokens))
	}
	for i, exp := range expected {
		if tokens[i].Kind != exp {
			t.Errorf("token[%d]: expected %s, got %s", i, exp, tokens[i].Kind)
		}
	}
}

func TestTokenizeDelimiters(t *testing.T) {
	source := `( ) { } [ ] , ;`
	l := New(source, "test.raf")
	tokens, err := l.Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []token.Kind{
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE,
		token.LBRACKET, token.RBRACKET, token.COMMA, token.SEMI,
		token.EOF,
	}

	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d", len(expected), len(tokens))
	}
	for i, exp := range expected {
		if tokens[i].Kind != exp {
			t.Errorf("token[%d]: expected %s, got %s", i, exp, tokens[i].Kind)
		}
	}
}

func TestTokenizeString(t *testing.T) {
	source := `"hello" "line1\nline2"`
	l := New(source, "test.raf")
	tokens, err := l.Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tokens[0].Kind != token.STRING || tokens[0].Lexeme != "hello" {
		t.Errorf("expected STRING 'hello', got %s %q", tokens[0].Kind, tokens[0].Lexeme)
	}
	if tokens[1].Kind != token.STRING || tokens[1].Lexeme != "line1\nline2" {
		t.Errorf("expected STRING with newline, got %s %q", tokens[1].Kind, tokens[1].Lexeme)
	}
}

func TestTokenizeUnterminatedString(t *testing.T) {
	l := New(`"unterminated`, "test.raf")
	if _, err := l.Tokenize(); err == nil {
		t.Fatal("expected LexError for unterminated string")
	}
}

func TestTokenizeNumbers(t *testing.T) {
	source := `123 3.14 0 42`
	l := New(source, "test.raf")
	tokens, err := l.Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tokens[0].Kind != token.NUMBER || tokens[0].Lexeme != "123" {
		t.Errorf("token[0]: expected NUMBER '123', got %s %q", tokens[0].Kind, tokens[0].Lexeme)
	}
	if tokens[1].Kind != token.NUMBER || tokens[1].Lexeme != "3.14" {
		t.Errorf("token[1]: expected NUMBER '3.14', got %s %q", tokens[1].Kind, tokens[1].Lexeme)
	}
}

func TestTokenizeComment(t *testing.T) {
	source := "x // this is a comment\ny"
	l := New(source, "test.raf")
	tokens, err := l.Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []token.Kind{token.IDENT, token.IDENT, token.EOF}
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d", len(expected), len(tokens))
	}
	for i, exp := range expected {
		if tokens[i].Kind != exp {
			t.Errorf("token[%d]: expected %s, got %s", i, exp, tokens[i].Kind)
		}
	}
}

func TestTokenizePositions(t *testing.T) {
	source := "xy = 1"
	l := New(source, "test.raf")
	tokens, err := l.Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tokens[0].Span.Start.Line != 1 || tokens[0].Span.Start.Column != 1 {
		t.Errorf("'xy' position: expected 1:1, got %d:%d", tokens[0].Span.Start.Line, tokens[0].Span.Start.Column)
	}
	if tokens[1].Span.Start.Line != 1 || tokens[1].Span.Start.Column != 4 {
		t.Errorf("'=' position: expected 1:4, got %d:%d", tokens[1].Span.Start.Line, tokens[1].Span.Start.Column)
	}
}

func TestTokenizeIllegalCharacter(t *testing.T) {
	l := New(`x ! y`, "test.raf")
	if _, err := l.Tokenize(); err == nil {
		t.Fatal("expected LexError for bare '!' (PyRaf has no ! operator, only the 'not' keyword)")
	}
}
