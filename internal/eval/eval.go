// Package eval implements PyRaf's tree-walking evaluator. It must be
// observably equivalent to the bytecode VM in package vm for every
// accepted program.
package eval

import (
	"io"
	"os"
	"path/filepath"

	"pyraf/internal/ast"
	"pyraf/internal/lexer"
	"pyraf/internal/parser"
	"pyraf/internal/span"
	"pyraf/internal/values"
)

// ExecSignal reports how a statement's execution completed.
type ExecSignal int

const (
	SigNone ExecSignal = iota
	SigReturn
)

// ExecResult is the outcome of executing a statement or block.
type ExecResult struct {
	Signal ExecSignal
	Value  values.Value
}

var noneResult = ExecResult{Signal: SigNone, Value: values.Nil}

// DefaultMaxDepth is the default call-frame recursion limit.
const DefaultMaxDepth = 1000

// Interpreter evaluates a parsed PyRaf program directly over the AST.
type Interpreter struct {
	Global      *values.Environment
	Out         io.Writer
	BaseDir     string
	MaxDepth    int
	ModuleCache *values.ModuleCache

	frames []values.Frame
}

// New creates an Interpreter rooted at baseDir (used to resolve relative
// import paths), writing builtin output to out.
func New(baseDir string, out io.Writer) *Interpreter {
	global := values.NewEnvironment(nil)
	values.RegisterBuiltins(global, out)
	return &Interpreter{
		Global:      global,
		Out:         out,
		BaseDir:     baseDir,
		MaxDepth:    DefaultMaxDepth,
		ModuleCache: values.NewModuleCache(),
	}
}

// Run executes every top-level statement of file in the interpreter's
// global environment.
func (in *Interpreter) Run(file *ast.File) error {
	in.frames = append(in.frames, values.Frame{FuncName: "", Span: span.Span{}})
	defer func() { in.frames = in.frames[:len(in.frames)-1] }()

	for _, stmt := range file.Body {
		if _, err := in.execStmt(in.Global, stmt); err != nil {
			return err
		}
	}
	return nil
}

// ---- statements ----

func (in *Interpreter) execStmt(env *values.Environment, stmt ast.Stmt) (ExecResult, error) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		_, err := in.evalExpr(env, s.Expr)
		return noneResult, err

	case *ast.Assign:
		v, err := in.evalExpr(env, s.Value)
		if err != nil {
			return noneResult, err
		}
		env.Assign(s.Name, v)
		return noneResult, nil

	case *ast.Block:
		return in.execBlock(env, s)

	case *ast.If:
		cond, err := in.evalExpr(env, s.Cond)
		if err != nil {
			return noneResult, err
		}
		if values.IsTruthy(cond) {
			return in.execBlock(env, s.Then)
		} else if s.Else != nil {
			return in.execBlock(env, s.Else)
		}
		return noneResult, nil

	case *ast.While:
		for {
			cond, err := in.evalExpr(env, s.Cond)
			if err != nil {
				return noneResult, err
			}
			if !values.IsTruthy(cond) {
				return noneResult, nil
			}
			res, err := in.execBlock(env, s.Body)
			if err != nil {
				return noneResult, err
			}
			if res.Signal == SigReturn {
				return res, nil
			}
		}

	case *ast.FuncDecl:
		fn := &values.FuncVal{Name: s.Name, Params: s.Params, Body: s.Body, Closure: env}
		env.Assign(s.Name, fn)
		return noneResult, nil

	case *ast.Return:
		if s.Value == nil {
			return ExecResult{Signal: SigReturn, Value: values.Nil}, nil
		}
		v, err := in.evalExpr(env, s.Value)
		if err != nil {
			return noneResult, err
		}
		return ExecResult{Signal: SigReturn, Value: v}, nil

	case *ast.Import:
		err := in.execImport(env, s)
		return noneResult, err
	}

	return noneResult, values.NewTypeError(stmt.GetSpan(), "unknown statement type %T", stmt)
}

// execBlock runs a block in a fresh child scope of env.
func (in *Interpreter) execBlock(env *values.Environment, blk *ast.Block) (ExecResult, error) {
	child := values.NewEnvironment(env)
	for _, stmt := range blk.Stmts {
		res, err := in.execStmt(child, stmt)
		if err != nil {
			return noneResult, err
		}
		if res.Signal == SigReturn {
			return res, nil
		}
	}
	return noneResult, nil
}

func (in *Interpreter) execImport(env *values.Environment, s *ast.Import) error {
	path, err := values.Canonicalize(in.BaseDir, s.Path)
	if err != nil {
		return in.wrapStack(values.NewImportError(s.Span, "cannot resolve import %q: %s", s.Path, err))
	}

	if modEnv, ok := in.ModuleCache.Lookup(path); ok {
		bindModule(env, s.Path, modEnv)
		return nil
	}

	if err := in.ModuleCache.Enter(path, s.Span); err != nil {
		return in.wrapStack(err)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return in.wrapStack(values.NewImportError(s.Span, "cannot read module %q: %s", s.Path, err))
	}

	lx := lexer.New(string(src), path)
	toks, err := lx.Tokenize()
	if err != nil {
		return in.wrapStack(values.NewImportError(s.Span, "error loading module %q: %s", s.Path, err))
	}
	p := parser.New(toks)
	file, err := p.ParseFile()
	if err != nil {
		return in.wrapStack(values.NewImportError(s.Span, "error loading module %q: %s", s.Path, err))
	}

	modEnv := values.NewEnvironment(nil)
	sub := &Interpreter{
		Global:      modEnv,
		Out:         in.Out,
		BaseDir:     filepath.Dir(path),
		MaxDepth:    in.MaxDepth,
		ModuleCache: in.ModuleCache,
	}
	values.RegisterBuiltins(modEnv, in.Out)
	if err := sub.Run(file); err != nil {
		return err
	}

	in.ModuleCache.Finish(path, modEnv)
	bindModule(env, s.Path, modEnv)
	return nil
}

// bindModule copies every top-level binding of modEnv into env, matching
// PyRaf's no-namespacing import model: import "math"; then exposes the
// module's names directly.
func bindModule(env *values.Environment, _ string, modEnv *values.Environment) {
	for name, v := range modEnv.Snapshot() {
		env.Define(name, v)
	}
}
