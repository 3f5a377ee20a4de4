// Package compiler lowers a PyRaf AST into bytecode chunks for package vm.
package compiler

import (
	"pyraf/internal/ast"
	"pyraf/internal/bytecode"
	"pyraf/internal/diag"
	"pyraf/internal/span"
)

// CompileError is returned when a program cannot be lowered to bytecode.
type CompileError struct {
	Diag diag.Diagnostic
}

func (e *CompileError) Error() string { return e.Diag.String() }

// Compiler lowers a single function or module body into one *bytecode.Chunk.
type Compiler struct {
	chunk *bytecode.Chunk
}

// CompileFile compiles a top-level module into its module chunk.
func CompileFile(file *ast.File) (*bytecode.Chunk, error) {
	c := &Compiler{chunk: bytecode.NewChunk("<module>")}
	for _, stmt := range file.Body {
		if err := c.compileStmt(stmt); err != nil {
			return nil, err
		}
	}
	return c.chunk, nil
}

func compileErr(s span.Span, format string, args ...interface{}) error {
	return &CompileError{Diag: diag.Errorf("CompileError", s, format, args...)}
}

// ---- jump patching ----
//
// emitJump emits a placeholder jump and returns its instruction offset so
// the caller can patch it once the target is known. patchJumpToHere
// rewrites that instruction's operand to a relative offset pointing at the
// current end of the chunk: offset = target - (ip + 1).

func (c *Compiler) emitJump(op bytecode.Op, s span.Span) int {
	return c.chunk.Emit(op, 0, s)
}

func (c *Compiler) patchJumpToHere(ip int) {
	target := len(c.chunk.Code)
	c.chunk.Code[ip].A = int32(target - (ip + 1))
}

func (c *Compiler) emitLoop(loopStartIP int, s span.Span) {
	cur := c.chunk.Emit(bytecode.OpJump, 0, s)
	offset := loopStartIP - (cur + 1)
	c.chunk.Code[cur].A = int32(offset)
}

// ---- statements ----

func (c *Compiler) compileStmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		if err := c.compileExpr(s.Expr); err != nil {
			return err
		}
		c.chunk.Emit(bytecode.OpPop, 0, s.Span)
		return nil

	case *ast.Assign:
		if err := c.compileExpr(s.Value); err != nil {
			return err
		}
		name := c.chunk.AddName(s.Name)
		c.chunk.Emit(bytecode.OpStore, name, s.Span)
		c.chunk.Emit(bytecode.OpPop, 0, s.Span)
		return nil

	case *ast.Block:
		// A block is its own scope, created fresh on every execution, so
		// that the VM matches the evaluator's execBlock behavior.
		c.chunk.Emit(bytecode.OpPushScope, 0, s.Span)
		for _, inner := range s.Stmts {
			if err := c.compileStmt(inner); err != nil {
				return err
			}
		}
		c.chunk.Emit(bytecode.OpPopScope, 0, s.Span)
		return nil

	case *ast.If:
		if err := c.compileExpr(s.Cond); err != nil {
			return err
		}
		jumpToElse := c.emitJump(bytecode.OpJumpIfFalse, s.Span)
		if err := c.compileStmt(s.Then); err != nil {
			return err
		}
		if s.Else != nil {
			jumpToEnd := c.emitJump(bytecode.OpJump, s.Span)
			c.patchJumpToHere(jumpToElse)
			if err := c.compileStmt(s.Else); err != nil {
				return err
			}
			c.patchJumpToHere(jumpToEnd)
		} else {
			c.patchJumpToHere(jumpToElse)
		}
		return nil

	case *ast.While:
		loopStart := len(c.chunk.Code)
		if err := c.compileExpr(s.Cond); err != nil {
			return err
		}
		jumpOut := c.emitJump(bytecode.OpJumpIfFalse, s.Span)
		if err := c.compileStmt(s.Body); err != nil {
			return err
		}
		c.emitLoop(loopStart, s.Span)
		c.patchJumpToHere(jumpOut)
		return nil

	case *ast.FuncDecl:
		if err := c.compileFuncLit(s.Name, s.Params, s.Body, s.Span); err != nil {
			return err
		}
		name := c.chunk.AddName(s.Name)
		c.chunk.Emit(bytecode.OpStore, name, s.Span)
		c.chunk.Emit(bytecode.OpPop, 0, s.Span)
		return nil

	case *ast.Return:
		if s.Value != nil {
			if err := c.compileExpr(s.Value); err != nil {
				return err
			}
		} else {
			idx := c.chunk.AddConst(nilSentinel{})
			c.chunk.Emit(bytecode.OpConst, idx, s.Span)
		}
		c.chunk.Emit(bytecode.OpReturn, 0, s.Span)
		return nil

	case *ast.Import:
		idx := c.chunk.AddConst(s.Path)
		c.chunk.Emit(bytecode.OpImport, idx, s.Span)
		return nil
	}

	return compileErr(stmt.GetSpan(), "cannot compile statement type %T", stmt)
}

// nilSentinel marks a nil literal in a chunk's constant pool; the VM maps
// it to values.Nil.
type nilSentinel struct{}

func (nilSentinel) String() string { return "nil" }

func (c *Compiler) compileFuncLit(name string, params []string, body *ast.Block, s span.Span) error {
	fc := &Compiler{chunk: bytecode.NewChunk(funcChunkName(name))}
	if err := fc.compileStmt(body); err != nil {
		return err
	}
	// Implicit `return nil;` if control falls off the end of the body.
	idx := fc.chunk.AddConst(nilSentinel{})
	fc.chunk.Emit(bytecode.OpConst, idx, s)
	fc.chunk.Emit(bytecode.OpReturn, 0, s)

	funcConst := bytecode.FuncConstant{Name: name, Params: params, Chunk: fc.chunk}
	idx2 := c.chunk.AddConst(funcConst)
	c.chunk.Emit(bytecode.OpMakeFunc, idx2, s)
	return nil
}

func funcChunkName(name string) string {
	if name == "" {
		return "<anonymous>"
	}
	return name
}
