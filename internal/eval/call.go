package eval

import (
	"pyraf/internal/ast"
	"pyraf/internal/span"
	"pyraf/internal/values"
)

// callFunc invokes a closure, binding parameters in a fresh scope chained
// to the closure's captured environment, and tracks the call-frame stack
// for recursion-depth enforcement and stack-trace rendering.
func (in *Interpreter) callFunc(fn *values.FuncVal, args []values.Value, callSite span.Span) (values.Value, error) {
	if len(args) != len(fn.Params) {
		return nil, in.wrapStack(values.NewArityError(callSite, "%s() expects %d argument(s), got %d", displayName(fn), len(fn.Params), len(args)))
	}

	if len(in.frames) >= in.MaxDepth {
		return nil, in.wrapStack(values.NewStackOverflow(callSite))
	}

	in.frames = append(in.frames, values.Frame{FuncName: fn.Name, Span: callSite})
	defer func() { in.frames = in.frames[:len(in.frames)-1] }()

	body, ok := fn.Body.(*ast.Block)
	if !ok {
		return nil, in.wrapStack(values.NewTypeError(callSite, "function has no evaluator body"))
	}

	callEnv := values.NewEnvironment(fn.Closure)
	for i, p := range fn.Params {
		callEnv.Define(p, args[i])
	}

	res, err := in.execBlock(callEnv, body)
	if err != nil {
		return nil, err
	}
	if res.Signal == SigReturn {
		return res.Value, nil
	}
	return values.Nil, nil
}

func displayName(fn *values.FuncVal) string {
	if fn.Name != "" {
		return fn.Name
	}
	return "<anonymous>"
}

// wrapStack attaches the current call-frame stack to a RafError the first
// time it surfaces, so the outermost frame that returns the error carries
// the full trace.
func (in *Interpreter) wrapStack(err error) error {
	if err == nil {
		return nil
	}
	re, ok := err.(*values.RafError)
	if !ok || re.Stack != nil {
		return err
	}
	re.Stack = append([]values.Frame(nil), in.frames...)
	return re
}
