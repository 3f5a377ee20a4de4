// Package vm implements PyRaf's stack-based bytecode virtual machine. It
// must be observably equivalent to package eval's tree-walking evaluator
// for every accepted program.
package vm

import (
	"io"
	"os"
	"path/filepath"

	"pyraf/internal/bytecode"
	"pyraf/internal/compiler"
	"pyraf/internal/lexer"
	"pyraf/internal/parser"
	"pyraf/internal/span"
	"pyraf/internal/values"
)

// DefaultMaxDepth is the default call-frame recursion limit.
const DefaultMaxDepth = 1000

// frame is one call-frame: an executing chunk, its instruction pointer,
// and the environment its LOAD/STORE opcodes resolve names against.
type frame struct {
	chunk    *bytecode.Chunk
	ip       int
	env      *values.Environment
	funcName string
	callSpan span.Span
}

// VM executes compiled chunks against an operand stack and a call-frame
// stack.
type VM struct {
	Out         io.Writer
	BaseDir     string
	MaxDepth    int
	ModuleCache *values.ModuleCache

	stack  []values.Value
	frames []frame
	global *values.Environment
}

// New creates a VM rooted at baseDir (used to resolve relative import
// paths), writing builtin output to out.
func New(baseDir string, out io.Writer) *VM {
	global := values.NewEnvironment(nil)
	values.RegisterBuiltins(global, out)
	return &VM{
		Out:         out,
		BaseDir:     baseDir,
		MaxDepth:    DefaultMaxDepth,
		ModuleCache: values.NewModuleCache(),
		global:      global,
	}
}

// Run executes the module chunk to completion.
func (vm *VM) Run(chunk *bytecode.Chunk) error {
	_, err := vm.runChunk(chunk, vm.global, "<module>", span.Span{})
	return err
}

func (vm *VM) push(v values.Value) {
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() values.Value {
	n := len(vm.stack)
	v := vm.stack[n-1]
	vm.stack = vm.stack[:n-1]
	return v
}

func (vm *VM) peek() values.Value {
	return vm.stack[len(vm.stack)-1]
}

func (vm *VM) curSpan(f *frame) span.Span {
	if f.ip < len(f.chunk.Spans) {
		return f.chunk.Spans[f.ip]
	}
	return span.Span{}
}

// runChunk executes chunk as a new call frame to completion, returning its
// produced value (from OpReturn) or an error.
func (vm *VM) runChunk(chunk *bytecode.Chunk, env *values.Environment, funcName string, callSpan span.Span) (values.Value, error) {
	if len(vm.frames) >= vm.MaxDepth {
		return nil, vm.wrapStack(values.NewStackOverflow(callSpan))
	}

	f := frame{chunk: chunk, env: env, funcName: funcName, callSpan: callSpan}
	vm.frames = append(vm.frames, f)
	defer func() { vm.frames = vm.frames[:len(vm.frames)-1] }()
	fp := &vm.frames[len(vm.frames)-1]

	for fp.ip < len(fp.chunk.Code) {
		instr := fp.chunk.Code[fp.ip]
		s := vm.curSpan(fp)
		fp.ip++

		switch instr.Op {
		case bytecode.OpConst:
			vm.push(constToValue(fp.chunk.Consts[instr.A]))

		case bytecode.OpLoad:
			name := fp.chunk.Names[instr.A]
			v, ok := fp.env.Get(name)
			if !ok {
				return nil, vm.wrapStack(values.NewNameError(s, "undefined variable '%s'", name))
			}
			vm.push(v)

		case bytecode.OpStore:
			name := fp.chunk.Names[instr.A]
			fp.env.Assign(name, vm.peek())

		case bytecode.OpPop:
			vm.pop()

		case bytecode.OpNeg:
			v := vm.pop()
			n, ok := v.(values.NumberVal)
			if !ok {
				return nil, vm.wrapStack(values.NewTypeError(s, "unary '-' expects a number, got %s", v.TypeName()))
			}
			vm.push(-n)

		case bytecode.OpNot:
			v := vm.pop()
			vm.push(values.BoolVal(!values.IsTruthy(v)))

		case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpMod,
			bytecode.OpLt, bytecode.OpLe, bytecode.OpGt, bytecode.OpGe:
			right := vm.pop()
			left := vm.pop()
			v, err := applyArith(instr.Op, left, right, s)
			if err != nil {
				return nil, vm.wrapStack(err)
			}
			vm.push(v)

		case bytecode.OpEq:
			right := vm.pop()
			left := vm.pop()
			vm.push(values.BoolVal(values.Equal(left, right)))

		case bytecode.OpNe:
			right := vm.pop()
			left := vm.pop()
			vm.push(values.BoolVal(!values.Equal(left, right)))

		case bytecode.OpJump:
			fp.ip += int(instr.A)

		case bytecode.OpJumpIfFalse:
			v := vm.pop()
			if !values.IsTruthy(v) {
				fp.ip += int(instr.A)
			}

		case bytecode.OpJumpIfFalseKeep:
			if !values.IsTruthy(vm.peek()) {
				fp.ip += int(instr.A)
			}

		case bytecode.OpJumpIfTrueKeep:
			if values.IsTruthy(vm.peek()) {
				fp.ip += int(instr.A)
			}

		case bytecode.OpBuildList:
			n := int(instr.A)
			elems := make([]values.Value, n)
			copy(elems, vm.stack[len(vm.stack)-n:])
			vm.stack = vm.stack[:len(vm.stack)-n]
			vm.push(&values.ListVal{Elems: elems})

		case bytecode.OpIndex:
			idx := vm.pop()
			target := vm.pop()
			v, err := applyIndex(target, idx, s)
			if err != nil {
				return nil, vm.wrapStack(err)
			}
			vm.push(v)

		case bytecode.OpMakeFunc:
			fc := fp.chunk.Consts[instr.A].(bytecode.FuncConstant)
			vm.push(&values.FuncVal{Name: fc.Name, Params: fc.Params, Chunk: fc.Chunk, Closure: fp.env})

		case bytecode.OpCall:
			nargs := int(instr.A)
			args := make([]values.Value, nargs)
			copy(args, vm.stack[len(vm.stack)-nargs:])
			vm.stack = vm.stack[:len(vm.stack)-nargs]
			callee := vm.pop()
			result, err := vm.call(callee, args, s)
			if err != nil {
				return nil, err
			}
			vm.push(result)

		case bytecode.OpReturn:
			return vm.pop(), nil

		case bytecode.OpImport:
			path, _ := fp.chunk.Consts[instr.A].(string)
			if err := vm.execImport(fp.env, path, s); err != nil {
				return nil, err
			}

		case bytecode.OpPushScope:
			fp.env = values.NewEnvironment(fp.env)

		case bytecode.OpPopScope:
			fp.env = fp.env.Parent()

		default:
			return nil, vm.wrapStack(values.NewTypeError(s, "unknown opcode %s", instr.Op))
		}
	}

	return values.Nil, nil
}

func (vm *VM) call(callee values.Value, args []values.Value, callSite span.Span) (values.Value, error) {
	switch fn := callee.(type) {
	case *values.BuiltinVal:
		if fn.Arity >= 0 && len(args) != fn.Arity {
			return nil, vm.wrapStack(values.NewArityError(callSite, "%s() expects %d argument(s), got %d", fn.Name, fn.Arity, len(args)))
		}
		v, err := fn.Fn(args)
		if err != nil {
			return nil, vm.wrapStack(err)
		}
		return v, nil

	case *values.FuncVal:
		if len(args) != len(fn.Params) {
			return nil, vm.wrapStack(values.NewArityError(callSite, "%s() expects %d argument(s), got %d", displayName(fn), len(fn.Params), len(args)))
		}
		chunk, ok := fn.Chunk.(*bytecode.Chunk)
		if !ok {
			return nil, vm.wrapStack(values.NewTypeError(callSite, "function has no VM chunk"))
		}
		callEnv := values.NewEnvironment(fn.Closure)
		for i, p := range fn.Params {
			callEnv.Define(p, args[i])
		}
		return vm.runChunk(chunk, callEnv, fn.Name, callSite)
	}

	return nil, vm.wrapStack(values.NewTypeError(callSite, "'%s' is not callable", callee.TypeName()))
}

func displayName(fn *values.FuncVal) string {
	if fn.Name != "" {
		return fn.Name
	}
	return "<anonymous>"
}

// wrapStack attaches the VM's current call-frame stack to a RafError the
// first time it surfaces.
func (vm *VM) wrapStack(err error) error {
	if err == nil {
		return nil
	}
	re, ok := err.(*values.RafError)
	if !ok || re.Stack != nil {
		return err
	}
	stack := make([]values.Frame, len(vm.frames))
	for i, f := range vm.frames {
		name := f.funcName
		if name == "<module>" {
			name = ""
		}
		stack[i] = values.Frame{FuncName: name, Span: f.callSpan}
	}
	re.Stack = stack
	return re
}

func (vm *VM) execImport(env *values.Environment, rawPath string, s span.Span) error {
	path, err := values.Canonicalize(vm.BaseDir, rawPath)
	if err != nil {
		return vm.wrapStack(values.NewImportError(s, "cannot resolve import %q: %s", rawPath, err))
	}

	if modEnv, ok := vm.ModuleCache.Lookup(path); ok {
		for name, v := range modEnv.Snapshot() {
			env.Define(name, v)
		}
		return nil
	}

	if err := vm.ModuleCache.Enter(path, s); err != nil {
		return vm.wrapStack(err)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return vm.wrapStack(values.NewImportError(s, "cannot read module %q: %s", rawPath, err))
	}

	lx := lexer.New(string(src), path)
	toks, err := lx.Tokenize()
	if err != nil {
		return vm.wrapStack(values.NewImportError(s, "error loading module %q: %s", rawPath, err))
	}
	p := parser.New(toks)
	file, err := p.ParseFile()
	if err != nil {
		return vm.wrapStack(values.NewImportError(s, "error loading module %q: %s", rawPath, err))
	}
	chunk, err := compiler.CompileFile(file)
	if err != nil {
		return vm.wrapStack(values.NewImportError(s, "error compiling module %q: %s", rawPath, err))
	}

	modEnv := values.NewEnvironment(nil)
	sub := &VM{
		Out:         vm.Out,
		BaseDir:     filepath.Dir(path),
		MaxDepth:    vm.MaxDepth,
		ModuleCache: vm.ModuleCache,
		global:      modEnv,
	}
	values.RegisterBuiltins(modEnv, vm.Out)
	if _, err := sub.runChunk(chunk, modEnv, "<module>", span.Span{}); err != nil {
		return err
	}

	vm.ModuleCache.Finish(path, modEnv)
	for name, v := range modEnv.Snapshot() {
		env.Define(name, v)
	}
	return nil
}

func constToValue(c interface{}) values.Value {
	switch v := c.(type) {
	case float64:
		return values.NumberVal(v)
	case string:
		return values.StringVal(v)
	case bool:
		return values.BoolVal(v)
	default:
		return values.Nil
	}
}

