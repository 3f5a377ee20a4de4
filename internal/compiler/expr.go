package compiler

import (
	"pyraf/internal/ast"
	"pyraf/internal/bytecode"
)

func (c *Compiler) compileExpr(expr ast.Expr) error {
	switch e := expr.(type) {
	case *ast.NumberLit:
		idx := c.chunk.AddConst(e.Value)
		c.chunk.Emit(bytecode.OpConst, idx, e.Span)
		return nil

	case *ast.StringLit:
		idx := c.chunk.AddConst(e.Value)
		c.chunk.Emit(bytecode.OpConst, idx, e.Span)
		return nil

	case *ast.BoolLit:
		idx := c.chunk.AddConst(e.Value)
		c.chunk.Emit(bytecode.OpConst, idx, e.Span)
		return nil

	case *ast.NilLit:
		idx := c.chunk.AddConst(nilSentinel{})
		c.chunk.Emit(bytecode.OpConst, idx, e.Span)
		return nil

	case *ast.Ident:
		name := c.chunk.AddName(e.Name)
		c.chunk.Emit(bytecode.OpLoad, name, e.Span)
		return nil

	case *ast.ListLit:
		for _, el := range e.Elems {
			if err := c.compileExpr(el); err != nil {
				return err
			}
		}
		c.chunk.Emit(bytecode.OpBuildList, int32(len(e.Elems)), e.Span)
		return nil

	case *ast.Index:
		if err := c.compileExpr(e.Target); err != nil {
			return err
		}
		if err := c.compileExpr(e.Idx); err != nil {
			return err
		}
		c.chunk.Emit(bytecode.OpIndex, 0, e.Span)
		return nil

	case *ast.Call:
		if err := c.compileExpr(e.Callee); err != nil {
			return err
		}
		for _, a := range e.Args {
			if err := c.compileExpr(a); err != nil {
				return err
			}
		}
		c.chunk.Emit(bytecode.OpCall, int32(len(e.Args)), e.Span)
		return nil

	case *ast.Unary:
		if err := c.compileExpr(e.Operand); err != nil {
			return err
		}
		switch e.Op {
		case ast.UnaryNeg:
			c.chunk.Emit(bytecode.OpNeg, 0, e.Span)
		case ast.UnaryNot:
			c.chunk.Emit(bytecode.OpNot, 0, e.Span)
		}
		return nil

	case *ast.Binary:
		return c.compileBinary(e)

	case *ast.FuncExpr:
		return c.compileFuncLit(e.Name, e.Params, e.Body, e.Span)
	}

	return compileErr(expr.GetSpan(), "cannot compile expression type %T", expr)
}

// compileBinary lowers and/or with short-circuit jumps, and everything
// else as eager eval-both-sides-then-apply.
func (c *Compiler) compileBinary(e *ast.Binary) error {
	if e.Op == ast.BinAnd {
		if err := c.compileExpr(e.Left); err != nil {
			return err
		}
		shortCircuit := c.emitJump(bytecode.OpJumpIfFalseKeep, e.Span)
		c.chunk.Emit(bytecode.OpPop, 0, e.Span)
		if err := c.compileExpr(e.Right); err != nil {
			return err
		}
		c.patchJumpToHere(shortCircuit)
		return nil
	}
	if e.Op == ast.BinOr {
		if err := c.compileExpr(e.Left); err != nil {
			return err
		}
		shortCircuit := c.emitJump(bytecode.OpJumpIfTrueKeep, e.Span)
		c.chunk.Emit(bytecode.OpPop, 0, e.Span)
		if err := c.compileExpr(e.Right); err != nil {
			return err
		}
		c.patchJumpToHere(shortCircuit)
		return nil
	}

	if err := c.compileExpr(e.Left); err != nil {
		return err
	}
	if err := c.compileExpr(e.Right); err != nil {
		return err
	}

	var op bytecode.Op
	switch e.Op {
	case ast.BinAdd:
		op = bytecode.OpAdd
	case ast.BinSub:
		op = bytecode.OpSub
	case ast.BinMul:
		op = bytecode.OpMul
	case ast.BinDiv:
		op = bytecode.OpDiv
	case ast.BinMod:
		op = bytecode.OpMod
	case ast.BinEq:
		op = bytecode.OpEq
	case ast.BinNe:
		op = bytecode.OpNe
	case ast.BinLt:
		op = bytecode.OpLt
	case ast.BinLe:
		op = bytecode.OpLe
	case ast.BinGt:
		op = bytecode.OpGt
	case ast.BinGe:
		op = bytecode.OpGe
	default:
		return compileErr(e.Span, "unknown binary operator")
	}
	c.chunk.Emit(op, 0, e.Span)
	return nil
}
