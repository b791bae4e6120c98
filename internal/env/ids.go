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

// Package env is the compiler's environment: the class table, and each
// class's function/var/struct namespace, resolved lazily and memoised as
// callers demand them. internal/types owns the TypeId universe; env wires
// class/function/var lookups into it without types ever importing env back
// (see Environment in internal/types/resolve.go).
package env

import (
	"github.com/muscript-lang/muscript/internal/source"
	"github.com/muscript-lang/muscript/internal/types"
)

// ClassId is shared with internal/types: a type table entry for an Object,
// Class, Struct or Enum carries the ClassId of the class that owns it, so
// the two packages need to agree on its representation without importing
// each other.
type ClassId = types.ClassId

const (
	ClassIdInvalid = types.ClassIdInvalid
	ClassIdObject  = types.ClassIdObject
	ClassIdClass   = types.ClassIdClass
)

// FunctionId and VarId are dense indices into Env's own function/var
// tables; unlike ClassId, nothing outside env needs to name their
// representation, so they stay local.
type FunctionId int32
type VarId int32

// FunctionKind mirrors cst.FunctionKind but is the environment's own
// closed sum: function/event/delegate differ only in calling convention at
// this layer, while pre/post/in-operator additionally carry a mangled
// overload key.
type FunctionKind uint8

const (
	FuncKindFunction FunctionKind = iota
	FuncKindEvent
	FuncKindDelegate
	FuncKindOperator
	FuncKindPreOperator
	FuncKindPostOperator
)

// Implementation is Script for an ordinary UnrealScript-bodied function, or
// Opcode for one of the engine's native/intrinsic functions identified by
// a 16-bit opcode number (as seedIntrinsics assigns to the primitive
// operators).
type Implementation struct {
	IsOpcode bool
	Opcode   uint16
}

// ParamFlags are per-parameter qualifiers.
type ParamFlags uint8

const (
	ParamOut ParamFlags = 1 << iota
	ParamOptional
	ParamCoerce
)

// Param is one resolved function parameter.
type Param struct {
	Var   VarId
	Flags ParamFlags
}

// FunctionFlags are per-function qualifiers surfaced by specifiers
// (simulated, static, final, …); only a handful matter to analysis today,
// the rest are carried for completeness and future lowering rules.
type FunctionFlags uint32

const (
	FuncSimulated FunctionFlags = 1 << iota
	FuncStatic
	FuncFinal
	FuncNative
	FuncLatent
)

// Function is one resolved function/event/delegate/operator declaration.
type Function struct {
	Class          ClassId
	MangledName    string
	NameToken      source.Id
	ReturnType     types.Id
	Params         []Param
	Flags          FunctionFlags
	Kind           FunctionKind
	Implementation Implementation
}

// VarFlags are per-variable qualifiers (config, transient, editable, …).
type VarFlags uint32

const (
	VarFlagTransient VarFlags = 1 << iota
	VarFlagConfig
	VarFlagEditable
)

// VarKind distinguishes an ordinary storage location from a named constant.
type VarKind uint8

const (
	VarKindVar VarKind = iota
	VarKindConst
)

// ConstKind discriminates a folded constant's value union.
type ConstKind uint8

const (
	ConstVoid ConstKind = iota
	ConstBool
	ConstByte
	ConstInt
	ConstFloat
	ConstString
	ConstName
)

// ConstValue is a folded compile-time value, the constant evaluator's
// result type.
type ConstValue struct {
	Kind  ConstKind
	Bool  bool
	Byte  byte
	Int   int32
	Float float32
	Str   string
}

// Constant pairs a folded value with whether folding actually succeeded;
// a failed fold still gets a Var/VarId so lookups by name keep working,
// they just carry a Void value and a diagnostic was already reported.
type Constant struct {
	Value ConstValue
	Ok    bool
}

// Var is one resolved var or const declaration.
type Var struct {
	SourceFile source.FileId
	NameToken  source.Id
	Type       types.Id
	Kind       VarKind
	Flags      VarFlags
	Const      *Constant // non-nil iff Kind == VarKindConst
}

// typeOfConst maps a folded constant's kind to its primitive TypeId; an
// unsuccessful fold types as Void so a failed `const` declaration doesn't
// cascade further type errors into its users.
func typeOfConst(v ConstValue) types.Id {
	switch v.Kind {
	case ConstBool:
		return types.Bool
	case ConstByte:
		return types.Byte
	case ConstInt:
		return types.Int
	case ConstFloat:
		return types.Float
	case ConstString:
		return types.String
	case ConstName:
		return types.Name
	default:
		return types.Void
	}
}
