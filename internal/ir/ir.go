// Copyright 2024 The MuScript Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ir is the basic-block intermediate representation one function's
// body is lowered into: registers (single-assignment value productions),
// sinks (side effects), and terminators, grouped into basic blocks. Both
// internal/analysis (the lowerer) and internal/consteval (the compile-time
// interpreter) operate on it.
package ir

import (
	"github.com/muscript-lang/muscript/internal/env"
	"github.com/muscript-lang/muscript/internal/token"
	"github.com/muscript-lang/muscript/internal/types"
)

// NodeId indexes Func.Nodes. Every RegisterId is also a NodeId; the two are
// distinguished only so call sites can't accidentally index a register with
// a sink's id or vice versa.
type NodeId int32

// RegisterId indexes a Node known to hold a Register.
type RegisterId int32

func (r RegisterId) NodeId() NodeId { return NodeId(r) }

// BasicBlockId indexes Func.Blocks.
type BasicBlockId int32

// Node is one entry in a function's flat node list: either a Register or a
// Sink. The two share one list, rather than separate lists, so a sink can be
// spliced in front of the register it consumes without renumbering anything.
type Node struct {
	Span token.Span
	Kind NodeKind
}

type NodeKind interface{ isNodeKind() }

// Register is a single value production. Registers are assigned exactly
// once by convention; a lowering rule that must reuse one spills it to a
// local instead (see the Place predicate below, and §4.10's note that reuse
// is permissible but signals a missed local).
type Register struct {
	Name  string // for debugging and IR dumps only
	Type  types.Id
	Value Value
}

func (Register) isNodeKind() {}

// Sink is a side-effecting instruction with no meaningful result.
type Sink struct{ Kind SinkKind }

func (Sink) isNodeKind() {}

type SinkKind interface{ isSinkKind() }

// Discard evaluates a register for its side effects and throws its value
// away — the lowering of a bare expression statement.
type Discard struct{ Value RegisterId }

func (Discard) isSinkKind() {}

// Store writes Rvalue into the place produced by Lvalue.
type Store struct{ Lvalue, Rvalue RegisterId }

func (Store) isSinkKind() {}

// Value is the closed sum of producible register values, per §3's IR data
// model.
type Value interface{ isValue() }

type (
	Bool   struct{ Value bool }
	Byte   struct{ Value byte }
	Int    struct{ Value int32 }
	Float  struct{ Value float32 }
	String struct{ Value string }
	Name   struct{ Value string }

	// VoidValue is a placeholder produced when analysis hits an error and
	// needs a well-typed register to keep going; not the same as returning
	// nothing from a void function (see Terminator's Return).
	VoidValue struct{}
	// NoneValue is the `none` object literal.
	NoneValue struct{}
	// This is `self`.
	This struct{}

	// Local references a function parameter or `local` variable.
	Local struct{ Var env.VarId }
	// Field references a var on the object found via `In`'s context
	// (defaulting to This for an unqualified field reference).
	Field struct{ Var env.VarId }

	PrimitiveCastValue struct {
		Kind  PrimitiveCast
		Value RegisterId
	}

	Len struct{ Array RegisterId }

	Index struct{ Array, IndexReg RegisterId }

	Object struct {
		Class   env.ClassId
		Package string
		Name    string
	}

	// In evaluates Action with `self` redirected to Context; used to carry a
	// `.`-accessed field's owning object alongside the field reference.
	In struct{ Context, Action RegisterId }

	// CallFinal calls Function directly: no dynamic dispatch.
	CallFinal struct {
		Function env.FunctionId
		Args     []RegisterId
	}

	// Default stands in for an omitted optional argument.
	Default struct{}
)

func (Bool) isValue()               {}
func (Byte) isValue()               {}
func (Int) isValue()                {}
func (Float) isValue()              {}
func (String) isValue()             {}
func (Name) isValue()               {}
func (VoidValue) isValue()          {}
func (NoneValue) isValue()          {}
func (This) isValue()               {}
func (Local) isValue()              {}
func (Field) isValue()              {}
func (PrimitiveCastValue) isValue() {}
func (Len) isValue()                {}
func (Index) isValue()              {}
func (Object) isValue()             {}
func (In) isValue()                 {}
func (CallFinal) isValue()          {}
func (Default) isValue()            {}

// PrimitiveCast enumerates the primitive-to-primitive VM casts analysis can
// lower a cast expression into; the numeric values are the engine's native
// opcode numbers, carried even though nothing in this package interprets
// them, since the archive writer (out of scope) needs them unchanged.
type PrimitiveCast uint8

const (
	InterfaceToObject PrimitiveCast = 54
	InterfaceToString PrimitiveCast = 55
	InterfaceToBool   PrimitiveCast = 56
	RotatorToVector   PrimitiveCast = 57
	ByteToInt         PrimitiveCast = 58
	ByteToBool        PrimitiveCast = 59
	ByteToFloat       PrimitiveCast = 60
	IntToByte         PrimitiveCast = 61
	IntToBool         PrimitiveCast = 62
	IntToFloat        PrimitiveCast = 63
	BoolToByte        PrimitiveCast = 64
	BoolToInt         PrimitiveCast = 65
	BoolToFloat       PrimitiveCast = 66
	FloatToByte       PrimitiveCast = 67
	FloatToInt        PrimitiveCast = 68
	FloatToBool       PrimitiveCast = 69
	ObjectToBool      PrimitiveCast = 71
	NameToBool        PrimitiveCast = 72
	StringToByte      PrimitiveCast = 73
	StringToInt       PrimitiveCast = 74
	StringToBool      PrimitiveCast = 75
	StringToFloat     PrimitiveCast = 76
	StringToVector    PrimitiveCast = 77
	StringToRotator   PrimitiveCast = 78
	VectorToBool      PrimitiveCast = 79
	VectorToRotator   PrimitiveCast = 80
	RotatorToBool     PrimitiveCast = 81
	ByteToString      PrimitiveCast = 82
	IntToString       PrimitiveCast = 83
	BoolToString      PrimitiveCast = 84
	FloatToString     PrimitiveCast = 85
	ObjectToString    PrimitiveCast = 86
	NameToString      PrimitiveCast = 87
	VectorToString    PrimitiveCast = 88
	RotatorToString   PrimitiveCast = 89
	DelegateToString  PrimitiveCast = 90
	StringToName      PrimitiveCast = 96
)

// Terminator ends a basic block's execution.
type Terminator interface{ isTerminator() }

// Unreachable is the zero value: a block nothing has wired a real
// terminator onto yet, or genuinely unreachable code. Reaching it at
// const-eval or codegen time is a compiler bug, not a user error.
type Unreachable struct{}

func (Unreachable) isTerminator() {}

type Goto struct{ Target BasicBlockId }

func (Goto) isTerminator() {}

type GotoIf struct {
	Cond       RegisterId
	Then, Else BasicBlockId
}

func (GotoIf) isTerminator() {}

// Return ends the function. For a void function this carries a register
// holding VoidValue, not a nil/absent register — every Terminator.Return is
// well-typed.
type Return struct{ Value RegisterId }

func (Return) isTerminator() {}

// BasicBlock is a name, a source span (the construct that produced it, for
// diagnostics), an ordered flow of side-effecting node ids, and a
// terminator.
type BasicBlock struct {
	Name       string
	Span       token.Span
	Flow       []NodeId
	Terminator Terminator
}

// Func is one function's complete IR: its locals (in declaration order,
// matching Function.Params plus any `local`s), its flat node list, and its
// basic blocks. The first block is always the entry point; other blocks are
// entered via Goto/GotoIf, except the dead-code blocks analysis opens after
// a return, break or continue, which nothing jumps to.
type Func struct {
	Locals []env.VarId
	Nodes  []Node
	Blocks []BasicBlock
}

func New() *Func { return &Func{} }

func (f *Func) AddLocal(v env.VarId) { f.Locals = append(f.Locals, v) }

func (f *Func) addNode(span token.Span, kind NodeKind) NodeId {
	id := NodeId(len(f.Nodes))
	f.Nodes = append(f.Nodes, Node{Span: span, Kind: kind})
	return id
}

// CreateRegister appends a new Register node and returns its id.
func (f *Func) CreateRegister(span token.Span, name string, ty types.Id, value Value) RegisterId {
	return RegisterId(f.addNode(span, Register{Name: name, Type: ty, Value: value}))
}

// CreateSink appends a new Sink node and returns its id.
func (f *Func) CreateSink(span token.Span, kind SinkKind) NodeId {
	return f.addNode(span, Sink{Kind: kind})
}

// CreateBlock appends a new, as-yet-unterminated basic block.
func (f *Func) CreateBlock(name string, span token.Span) BasicBlockId {
	id := BasicBlockId(len(f.Blocks))
	f.Blocks = append(f.Blocks, BasicBlock{Name: name, Span: span, Terminator: Unreachable{}})
	return id
}

func (f *Func) Block(id BasicBlockId) *BasicBlock { return &f.Blocks[id] }

func (f *Func) Node(id NodeId) *Node { return &f.Nodes[id] }

// Register returns the Register stored at id; it panics if id does not
// point at a Register node, matching the invariant that a RegisterId is
// only ever minted by CreateRegister.
func (f *Func) Register(id RegisterId) *Register {
	n := f.Node(id.NodeId())
	r, ok := n.Kind.(Register)
	if !ok {
		panic("ir: RegisterId does not point at a Register node")
	}
	return &r
}

// IsPlace reports whether register holds a value that can be assigned to or
// passed to an `out` parameter: a Local, a Field, an Index, or an In whose
// action is itself a place.
func (f *Func) IsPlace(register RegisterId) bool {
	switch v := f.Register(register).Value.(type) {
	case Local, Field, Index:
		return true
	case In:
		return f.IsPlace(v.Action)
	default:
		return false
	}
}
