// Package bytecode defines PyRaf's compiled instruction format: opcodes,
// chunks, and a disassembler.
package bytecode

import (
	"fmt"
	"strings"

	"pyraf/internal/span"
)

// Op is a single bytecode opcode.
type Op byte

const (
	OpConst Op = iota
	OpLoad
	OpStore
	OpPop
	OpNeg
	OpNot
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpJump
	OpJumpIfFalse
	OpJumpIfFalseKeep
	OpJumpIfTrueKeep
	OpCall
	OpReturn
	OpBuildList
	OpIndex
	OpMakeFunc
	OpImport
	OpPushScope
	OpPopScope
)

var opNames = map[Op]string{
	OpConst:            "CONST",
	OpLoad:             "LOAD",
	OpStore:            "STORE",
	OpPop:              "POP",
	OpNeg:              "NEG",
	OpNot:              "NOT",
	OpAdd:              "ADD",
	OpSub:              "SUB",
	OpMul:              "MUL",
	OpDiv:              "DIV",
	OpMod:              "MOD",
	OpEq:               "EQ",
	OpNe:               "NE",
	OpLt:               "LT",
	OpLe:               "LE",
	OpGt:               "GT",
	OpGe:               "GE",
	OpJump:             "JUMP",
	OpJumpIfFalse:      "JUMP_IF_FALSE",
	OpJumpIfFalseKeep:  "JUMP_IF_FALSE_KEEP",
	OpJumpIfTrueKeep:   "JUMP_IF_TRUE_KEEP",
	OpCall:             "CALL",
	OpReturn:           "RETURN",
	OpBuildList:        "BUILD_LIST",
	OpIndex:            "INDEX",
	OpMakeFunc:         "MAKE_FUNC",
	OpImport:           "IMPORT",
	OpPushScope:        "PUSH_SCOPE",
	OpPopScope:         "POP_SCOPE",
}

func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Op(%d)", byte(op))
}

// HasOperand reports whether op carries a single int32 operand (an index
// into Consts/Names, a jump offset, an arg count, and so on). Every opcode
// defined above except the zero-operand stack ops carries one.
func (op Op) HasOperand() bool {
	switch op {
	case OpPop, OpNeg, OpNot, OpAdd, OpSub, OpMul, OpDiv, OpMod,
		OpEq, OpNe, OpLt, OpLe, OpGt, OpGe, OpReturn, OpIndex,
		OpPushScope, OpPopScope:
		return false
	default:
		return true
	}
}

// Instr is a single decoded instruction: an opcode plus its operand.
type Instr struct {
	Op Op
	A  int32
}

// Chunk is a unit of compiled bytecode: one per top-level program or
// function body.
type Chunk struct {
	Name   string      // function name, or "<module>" for the top level
	Code   []Instr
	Consts []interface{} // constant pool: float64, string, bool, the compiler's nil marker, or FuncConstant (nested funcs)
	Names  []string      // interned variable/global names, indexed by STORE/LOAD operands
	Spans  []span.Span   // parallel to Code: source span of each instruction
}

// NewChunk creates an empty chunk.
func NewChunk(name string) *Chunk {
	return &Chunk{Name: name}
}

// Emit appends an instruction at the given span and returns its offset.
func (c *Chunk) Emit(op Op, a int32, s span.Span) int {
	c.Code = append(c.Code, Instr{Op: op, A: a})
	c.Spans = append(c.Spans, s)
	return len(c.Code) - 1
}

// AddConst interns v in the constant pool and returns its index.
func (c *Chunk) AddConst(v interface{}) int32 {
	c.Consts = append(c.Consts, v)
	return int32(len(c.Consts) - 1)
}

// AddName interns name in the name table and returns its index, reusing an
// existing entry if name was already interned.
func (c *Chunk) AddName(name string) int32 {
	for i, n := range c.Names {
		if n == name {
			return int32(i)
		}
	}
	c.Names = append(c.Names, name)
	return int32(len(c.Names) - 1)
}

// Disassemble renders chunk (and, recursively, any nested function chunks
// in its constant pool) in the form:
//
//	<offset:04>  <line>  <opcode>  <operand?>  ; <comment?>
func Disassemble(c *Chunk) string {
	var b strings.Builder
	disassembleInto(&b, c)
	return b.String()
}

func disassembleInto(b *strings.Builder, c *Chunk) {
	fmt.Fprintf(b, "== %s ==\n", c.Name)
	for i, instr := range c.Code {
		line := 0
		if i < len(c.Spans) {
			line = c.Spans[i].Start.Line
		}
		fmt.Fprintf(b, "%04d  %4d  %-18s", i, line, instr.Op)
		if instr.Op.HasOperand() {
			fmt.Fprintf(b, "%6d", instr.A)
			if comment := operandComment(c, instr); comment != "" {
				fmt.Fprintf(b, "  ; %s", comment)
			}
		}
		b.WriteByte('\n')
	}

	var nested []*Chunk
	for _, k := range c.Consts {
		if fc, ok := k.(FuncConstant); ok {
			nested = append(nested, fc.Chunk)
		}
	}
	for _, fc := range nested {
		b.WriteByte('\n')
		disassembleInto(b, fc)
	}
}

// FuncConstant is what OpMakeFunc's constant-pool entry holds: enough to
// build a closure capturing the current frame's environment.
type FuncConstant struct {
	Name   string
	Params []string
	Chunk  *Chunk
}

func (f FuncConstant) String() string {
	name := f.Name
	if name == "" {
		name = "<anonymous>"
	}
	return fmt.Sprintf("<func %s>", name)
}

func operandComment(c *Chunk, instr Instr) string {
	switch instr.Op {
	case OpConst, OpMakeFunc:
		if int(instr.A) < len(c.Consts) {
			return fmt.Sprintf("%v", c.Consts[instr.A])
		}
	case OpLoad, OpStore:
		if int(instr.A) < len(c.Names) {
			return c.Names[instr.A]
		}
	}
	return ""
}
