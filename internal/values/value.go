// Package values defines PyRaf's runtime value model, environments, and
// error types shared by both the tree-walking evaluator and the bytecode VM.
package values

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is implemented by every PyRaf runtime value.
type Value interface {
	TypeName() string
	String() string
}

// NumberVal is a double-precision float; PyRaf has no separate int type.
type NumberVal float64

func (NumberVal) TypeName() string { return "number" }
func (n NumberVal) String() string {
	f := float64(n)
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// StringVal is a PyRaf string.
type StringVal string

func (StringVal) TypeName() string  { return "string" }
func (s StringVal) String() string { return string(s) }

// BoolVal is a PyRaf boolean.
type BoolVal bool

func (BoolVal) TypeName() string { return "bool" }
func (b BoolVal) String() string {
	if b {
		return "true"
	}
	return "false"
}

// NilVal is PyRaf's single nil value.
type NilVal struct{}

func (NilVal) TypeName() string { return "nil" }
func (NilVal) String() string   { return "nil" }

// Nil is the shared nil value instance.
var Nil = NilVal{}

// ListVal is a mutable, reference-typed list.
type ListVal struct {
	Elems []Value
}

func (*ListVal) TypeName() string { return "list" }
func (l *ListVal) String() string {
	parts := make([]string, len(l.Elems))
	for i, e := range l.Elems {
		if s, ok := e.(StringVal); ok {
			parts[i] = strconv.Quote(string(s))
		} else {
			parts[i] = e.String()
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// FuncVal is a closure: a function literal plus the environment it closed over.
type FuncVal struct {
	Name   string // "" for anonymous functions
	Params []string
	// Body and Chunk are mutually exclusive: the evaluator uses Body
	// (an *ast.Block, stored as interface{} to avoid an import cycle with
	// package ast), the VM uses Chunk (a *bytecode.Chunk, same reason).
	Body    interface{}
	Chunk   interface{}
	Closure *Environment
}

func (*FuncVal) TypeName() string { return "func" }
func (f *FuncVal) String() string {
	if f.Name != "" {
		return fmt.Sprintf("<func %s>", f.Name)
	}
	return "<func>"
}

// BuiltinFunc is the Go implementation of a built-in function.
type BuiltinFunc func(args []Value) (Value, error)

// BuiltinVal wraps a built-in function so it can be called like any other
// PyRaf function value.
type BuiltinVal struct {
	Name string
	Fn   BuiltinFunc
	// Arity is the required argument count, or -1 for variadic builtins.
	Arity int
}

func (*BuiltinVal) TypeName() string { return "builtin" }
func (b *BuiltinVal) String() string { return fmt.Sprintf("<builtin %s>", b.Name) }

// IsTruthy implements PyRaf's truthiness rule: only nil and false are falsy.
func IsTruthy(v Value) bool {
	switch vv := v.(type) {
	case NilVal:
		return false
	case BoolVal:
		return bool(vv)
	default:
		return true
	}
}

// Equal implements PyRaf's == semantics: numbers/strings/bools by value,
// nil by identity, functions and lists by reference identity.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case NumberVal:
		bv, ok := b.(NumberVal)
		return ok && av == bv
	case StringVal:
		bv, ok := b.(StringVal)
		return ok && av == bv
	case BoolVal:
		bv, ok := b.(BoolVal)
		return ok && av == bv
	case NilVal:
		_, ok := b.(NilVal)
		return ok
	case *ListVal:
		bv, ok := b.(*ListVal)
		return ok && av == bv
	case *FuncVal:
		bv, ok := b.(*FuncVal)
		return ok && av == bv
	case *BuiltinVal:
		bv, ok := b.(*BuiltinVal)
		return ok && av == bv
	default:
		return false
	}
}
