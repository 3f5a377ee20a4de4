package values

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"pyraf/internal/span"
)

// RegisterBuiltins defines PyRaf's built-in functions in env: print, len,
// str, num.
func RegisterBuiltins(env *Environment, out io.Writer) {
	env.Define("print", &BuiltinVal{Name: "print", Arity: -1, Fn: func(args []Value) (Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = a.String()
		}
		fmt.Fprintln(out, strings.Join(parts, " "))
		return Nil, nil
	}})

	env.Define("len", &BuiltinVal{Name: "len", Arity: 1, Fn: func(args []Value) (Value, error) {
		switch v := args[0].(type) {
		case StringVal:
			return NumberVal(float64(len(string(v)))), nil
		case *ListVal:
			return NumberVal(float64(len(v.Elems))), nil
		default:
			return nil, NewTypeError(span.Span{}, "len() expects a string or list, got %s", v.TypeName())
		}
	}})

	env.Define("str", &BuiltinVal{Name: "str", Arity: 1, Fn: func(args []Value) (Value, error) {
		return StringVal(args[0].String()), nil
	}})

	env.Define("num", &BuiltinVal{Name: "num", Arity: 1, Fn: func(args []Value) (Value, error) {
		switch v := args[0].(type) {
		case NumberVal:
			return v, nil
		case StringVal:
			f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
			if err != nil {
				return nil, NewValueError(span.Span{}, "cannot convert %q to number", string(v))
			}
			return NumberVal(f), nil
		default:
			return nil, NewTypeError(span.Span{}, "num() expects a string or number, got %s", v.TypeName())
		}
	}})
}
