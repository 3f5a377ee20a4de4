package vm

import (
	"math"

	"pyraf/internal/bytecode"
	"pyraf/internal/span"
	"pyraf/internal/values"
)

func applyArith(op bytecode.Op, left, right values.Value, s span.Span) (values.Value, error) {
	if op == bytecode.OpAdd {
		if ls, ok := left.(values.StringVal); ok {
			rs, ok := right.(values.StringVal)
			if !ok {
				return nil, values.NewTypeError(s, "cannot add string and %s", right.TypeName())
			}
			return ls + rs, nil
		}
	}

	switch op {
	case bytecode.OpLt, bytecode.OpLe, bytecode.OpGt, bytecode.OpGe:
		if ls, ok := left.(values.StringVal); ok {
			rs, ok := right.(values.StringVal)
			if !ok {
				return nil, values.NewTypeError(s, "cannot compare string and %s", right.TypeName())
			}
			switch op {
			case bytecode.OpLt:
				return values.BoolVal(ls < rs), nil
			case bytecode.OpLe:
				return values.BoolVal(ls <= rs), nil
			case bytecode.OpGt:
				return values.BoolVal(ls > rs), nil
			case bytecode.OpGe:
				return values.BoolVal(ls >= rs), nil
			}
		}
	}

	ln, ok := left.(values.NumberVal)
	if !ok {
		return nil, values.NewTypeError(s, "operator expects numbers, got %s", left.TypeName())
	}
	rn, ok := right.(values.NumberVal)
	if !ok {
		return nil, values.NewTypeError(s, "operator expects numbers, got %s", right.TypeName())
	}

	switch op {
	case bytecode.OpAdd:
		return ln + rn, nil
	case bytecode.OpSub:
		return ln - rn, nil
	case bytecode.OpMul:
		return ln * rn, nil
	case bytecode.OpDiv:
		if rn == 0 {
			return nil, values.NewDivideByZero(s)
		}
		return ln / rn, nil
	case bytecode.OpMod:
		if rn == 0 {
			return nil, values.NewDivideByZero(s)
		}
		return values.NumberVal(floorMod(float64(ln), float64(rn))), nil
	case bytecode.OpLt:
		return values.BoolVal(ln < rn), nil
	case bytecode.OpLe:
		return values.BoolVal(ln <= rn), nil
	case bytecode.OpGt:
		return values.BoolVal(ln > rn), nil
	case bytecode.OpGe:
		return values.BoolVal(ln >= rn), nil
	}
	return nil, values.NewTypeError(s, "unknown arithmetic opcode %s", op)
}

func applyIndex(target, idx values.Value, s span.Span) (values.Value, error) {
	list, ok := target.(*values.ListVal)
	if !ok {
		return nil, values.NewTypeError(s, "cannot index into %s", target.TypeName())
	}
	n, ok := idx.(values.NumberVal)
	if !ok {
		return nil, values.NewTypeError(s, "list index must be a number, got %s", idx.TypeName())
	}
	if float64(n) != math.Trunc(float64(n)) {
		return nil, values.NewIndexError(s, "list index %v is not an integer", float64(n))
	}
	i := int(n)
	if i < 0 || i >= len(list.Elems) {
		return nil, values.NewIndexError(s, "list index %d out of range (len %d)", i, len(list.Elems))
	}
	return list.Elems[i], nil
}

// floorMod is Python-style floor modulo: the result always has the sign of
// the divisor, unlike Go's truncating %.
func floorMod(a, b float64) float64 {
	m := math.Mod(a, b)
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}
