package eval

import (
	"math"

	"pyraf/internal/ast"
	"pyraf/internal/span"
	"pyraf/internal/values"
)

func (in *Interpreter) evalExpr(env *values.Environment, expr ast.Expr) (values.Value, error) {
	switch e := expr.(type) {
	case *ast.NumberLit:
		return values.NumberVal(e.Value), nil

	case *ast.StringLit:
		return values.StringVal(e.Value), nil

	case *ast.BoolLit:
		return values.BoolVal(e.Value), nil

	case *ast.NilLit:
		return values.Nil, nil

	case *ast.Ident:
		v, ok := env.Get(e.Name)
		if !ok {
			return nil, in.wrapStack(values.NewNameError(e.Span, "undefined variable '%s'", e.Name))
		}
		return v, nil

	case *ast.ListLit:
		elems := make([]values.Value, len(e.Elems))
		for i, el := range e.Elems {
			v, err := in.evalExpr(env, el)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return &values.ListVal{Elems: elems}, nil

	case *ast.Index:
		return in.evalIndex(env, e)

	case *ast.Call:
		return in.evalCall(env, e)

	case *ast.Unary:
		return in.evalUnary(env, e)

	case *ast.Binary:
		return in.evalBinary(env, e)

	case *ast.FuncExpr:
		return &values.FuncVal{Name: e.Name, Params: e.Params, Body: e.Body, Closure: env}, nil
	}

	return nil, in.wrapStack(values.NewTypeError(expr.GetSpan(), "unknown expression type %T", expr))
}

func (in *Interpreter) evalIndex(env *values.Environment, e *ast.Index) (values.Value, error) {
	target, err := in.evalExpr(env, e.Target)
	if err != nil {
		return nil, err
	}
	idx, err := in.evalExpr(env, e.Idx)
	if err != nil {
		return nil, err
	}

	list, ok := target.(*values.ListVal)
	if !ok {
		return nil, in.wrapStack(values.NewTypeError(e.Span, "cannot index into %s", target.TypeName()))
	}
	n, ok := idx.(values.NumberVal)
	if !ok {
		return nil, in.wrapStack(values.NewTypeError(e.Span, "list index must be a number, got %s", idx.TypeName()))
	}
	if float64(n) != math.Trunc(float64(n)) {
		return nil, in.wrapStack(values.NewIndexError(e.Span, "list index %v is not an integer", float64(n)))
	}
	i := int(n)
	if i < 0 || i >= len(list.Elems) {
		return nil, in.wrapStack(values.NewIndexError(e.Span, "list index %d out of range (len %d)", i, len(list.Elems)))
	}
	return list.Elems[i], nil
}

func (in *Interpreter) evalUnary(env *values.Environment, e *ast.Unary) (values.Value, error) {
	operand, err := in.evalExpr(env, e.Operand)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case ast.UnaryNeg:
		n, ok := operand.(values.NumberVal)
		if !ok {
			return nil, in.wrapStack(values.NewTypeError(e.Span, "unary '-' expects a number, got %s", operand.TypeName()))
		}
		return -n, nil
	case ast.UnaryNot:
		return values.BoolVal(!values.IsTruthy(operand)), nil
	}
	return nil, in.wrapStack(values.NewTypeError(e.Span, "unknown unary operator"))
}

func (in *Interpreter) evalBinary(env *values.Environment, e *ast.Binary) (values.Value, error) {
	// and/or short-circuit: the right operand is only evaluated if needed.
	if e.Op == ast.BinAnd {
		left, err := in.evalExpr(env, e.Left)
		if err != nil {
			return nil, err
		}
		if !values.IsTruthy(left) {
			return left, nil
		}
		return in.evalExpr(env, e.Right)
	}
	if e.Op == ast.BinOr {
		left, err := in.evalExpr(env, e.Left)
		if err != nil {
			return nil, err
		}
		if values.IsTruthy(left) {
			return left, nil
		}
		return in.evalExpr(env, e.Right)
	}

	left, err := in.evalExpr(env, e.Left)
	if err != nil {
		return nil, err
	}
	right, err := in.evalExpr(env, e.Right)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case ast.BinEq:
		return values.BoolVal(values.Equal(left, right)), nil
	case ast.BinNe:
		return values.BoolVal(!values.Equal(left, right)), nil
	}

	if e.Op == ast.BinAdd {
		if ls, ok := left.(values.StringVal); ok {
			rs, ok := right.(values.StringVal)
			if !ok {
				return nil, in.wrapStack(values.NewTypeError(e.Span, "cannot add string and %s", right.TypeName()))
			}
			return ls + rs, nil
		}
	}

	switch e.Op {
	case ast.BinLt, ast.BinLe, ast.BinGt, ast.BinGe:
		if ls, ok := left.(values.StringVal); ok {
			rs, ok := right.(values.StringVal)
			if !ok {
				return nil, in.wrapStack(values.NewTypeError(e.Span, "cannot compare string and %s", right.TypeName()))
			}
			switch e.Op {
			case ast.BinLt:
				return values.BoolVal(ls < rs), nil
			case ast.BinLe:
				return values.BoolVal(ls <= rs), nil
			case ast.BinGt:
				return values.BoolVal(ls > rs), nil
			case ast.BinGe:
				return values.BoolVal(ls >= rs), nil
			}
		}
	}

	ln, ok := left.(values.NumberVal)
	if !ok {
		return nil, in.wrapStack(values.NewTypeError(e.Span, "operator expects numbers, got %s", left.TypeName()))
	}
	rn, ok := right.(values.NumberVal)
	if !ok {
		return nil, in.wrapStack(values.NewTypeError(e.Span, "operator expects numbers, got %s", right.TypeName()))
	}

	switch e.Op {
	case ast.BinAdd:
		return ln + rn, nil
	case ast.BinSub:
		return ln - rn, nil
	case ast.BinMul:
		return ln * rn, nil
	case ast.BinDiv:
		if rn == 0 {
			return nil, in.wrapStack(values.NewDivideByZero(e.Span))
		}
		return ln / rn, nil
	case ast.BinMod:
		if rn == 0 {
			return nil, in.wrapStack(values.NewDivideByZero(e.Span))
		}
		return values.NumberVal(floorMod(float64(ln), float64(rn))), nil
	case ast.BinLt:
		return values.BoolVal(ln < rn), nil
	case ast.BinLe:
		return values.BoolVal(ln <= rn), nil
	case ast.BinGt:
		return values.BoolVal(ln > rn), nil
	case ast.BinGe:
		return values.BoolVal(ln >= rn), nil
	}

	return nil, in.wrapStack(values.NewTypeError(e.Span, "unknown binary operator"))
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

func (in *Interpreter) evalCall(env *values.Environment, e *ast.Call) (values.Value, error) {
	callee, err := in.evalExpr(env, e.Callee)
	if err != nil {
		return nil, err
	}
	args := make([]values.Value, len(e.Args))
	for i, a := range e.Args {
		v, err := in.evalExpr(env, a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	switch fn := callee.(type) {
	case *values.BuiltinVal:
		if fn.Arity >= 0 && len(args) != fn.Arity {
			return nil, in.wrapStack(values.NewArityError(e.Span, "%s() expects %d argument(s), got %d", fn.Name, fn.Arity, len(args)))
		}
		v, err := fn.Fn(args)
		if err != nil {
			if re, ok := err.(*values.RafError); ok && re.Span == (span.Span{}) {
				re.Span = e.Span
			}
			return nil, in.wrapStack(err)
		}
		return v, nil

	case *values.FuncVal:
		return in.callFunc(fn, args, e.Span)
	}

	return nil, in.wrapStack(values.NewTypeError(e.Span, "'%s' is not callable", callee.TypeName()))
}
