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

package env

import (
	"strings"

	"github.com/muscript-lang/muscript/internal/types"
)

// intrinsicSig is one native primitive operator: it has no UnrealScript
// body (nothing in any partition declares it), so it is registered
// directly into ClassIdObject's function slot map rather than discovered
// through FunctionInClass's usual CST borrow. Every class's super chain
// bottoms out at Object, so LookupFunction's ordinary walk finds these the
// same way it finds a user-written overload.
type intrinsicSig struct {
	name   string
	opcode uint16
	ret    types.Id
	params []types.Id
}

// seedIntrinsics registers the native primitive operators `operator+`,
// `operator==`, and friends evaluate into when declared on the engine's
// base object, without reading any source for them (there is no Object.uc
// in this input). Only Subtract_Pre_Int and Subtract_Pre_Float's opcodes
// are the engine's actual native function indices; internal/consteval
// folds unary minus on the CST itself and does not look them up. Every
// other opcode here is an arbitrary placeholder; a full implementation
// would read these off Object.uc's own native(NNN) declarations, which
// isn't part of this input.
func (e *Env) seedIntrinsics() {
	next := uint16(200)
	nextOpcode := func() uint16 {
		o := next
		next++
		return o
	}

	var sigs []intrinsicSig
	add := func(name string, opcode uint16, ret types.Id, params ...types.Id) {
		sigs = append(sigs, intrinsicSig{name: name, opcode: opcode, ret: ret, params: params})
	}
	arith := func(word string) {
		add(word+"_Int_Int", nextOpcode(), types.Int, types.Int, types.Int)
		add(word+"_Float_Float", nextOpcode(), types.Float, types.Float, types.Float)
	}
	cmp := func(word string) {
		add(word+"_Int_Int", nextOpcode(), types.Bool, types.Int, types.Int)
		add(word+"_Float_Float", nextOpcode(), types.Bool, types.Float, types.Float)
	}

	arith("Add")
	arith("Subtract")
	arith("Multiply")
	arith("Divide")
	add("Modulo_Int_Int", nextOpcode(), types.Int, types.Int, types.Int)

	cmp("CmpLt")
	cmp("CmpLe")
	cmp("CmpGt")
	cmp("CmpGe")
	cmp("CmpEq")
	cmp("CmpNe")

	add("CmpEq_Bool_Bool", nextOpcode(), types.Bool, types.Bool, types.Bool)
	add("CmpNe_Bool_Bool", nextOpcode(), types.Bool, types.Bool, types.Bool)
	add("CmpEq_String_String", nextOpcode(), types.Bool, types.String, types.String)
	add("CmpNe_String_String", nextOpcode(), types.Bool, types.String, types.String)
	add("CmpEq_Name_Name", nextOpcode(), types.Bool, types.Name, types.Name)
	add("CmpNe_Name_Name", nextOpcode(), types.Bool, types.Name, types.Name)

	add("And_Bool_Bool", nextOpcode(), types.Bool, types.Bool, types.Bool)
	add("Or_Bool_Bool", nextOpcode(), types.Bool, types.Bool, types.Bool)
	add("Xor_Bool_Bool", nextOpcode(), types.Bool, types.Bool, types.Bool)
	add("Not_Pre_Bool", nextOpcode(), types.Bool, types.Bool)

	add("Add_String_String", nextOpcode(), types.String, types.String, types.String)

	add("Subtract_Pre_Int", 143, types.Int, types.Int)
	add("Subtract_Pre_Float", 169, types.Float, types.Float)

	cl := e.class(ClassIdObject)
	for _, s := range sigs {
		params := make([]Param, len(s.params))
		for i, pt := range s.params {
			vid := VarId(len(e.vars))
			e.vars = append(e.vars, &Var{Type: pt, Kind: VarKindVar})
			params[i] = Param{Var: vid}
		}
		f := &Function{
			Class:          ClassIdObject,
			MangledName:    s.name,
			ReturnType:     s.ret,
			Params:         params,
			Kind:           FuncKindOperator,
			Implementation: Implementation{IsOpcode: true, Opcode: s.opcode},
		}
		fid := FunctionId(len(e.functions))
		e.functions = append(e.functions, f)
		cl.functions[strings.ToLower(s.name)] = &slot[FunctionId]{state: slotResolved, value: fid}
	}
}
