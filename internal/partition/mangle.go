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

package partition

import (
	"strings"

	"github.com/muscript-lang/muscript/internal/cst"
	"github.com/muscript-lang/muscript/internal/token"
)

// operatorNames maps an overloadable operator's token kind to the word used
// in its mangled name. Chosen to read like a function name once pasted
// against a type name (`Add_Int_Int`), not to match the operator's source
// spelling.
var operatorNames = map[token.Kind]string{
	token.Plus:      "Add",
	token.Minus:     "Subtract",
	token.Star:      "Multiply",
	token.Slash:     "Divide",
	token.Percent:   "Modulo",
	token.StarStar:  "Power",
	token.Eq:        "CmpEq",
	token.NotEq:     "CmpNe",
	token.ApproxEq:  "CmpApproxEq",
	token.Less:      "CmpLt",
	token.LessEq:    "CmpLe",
	token.Greater:   "CmpGt",
	token.GreaterEq: "CmpGe",
	token.Shl:       "ShiftLeft",
	token.Shr:       "ShiftRight",
	token.UShr:      "ShiftRightUnsigned",
	token.Amp:       "BitAnd",
	token.Pipe:      "BitOr",
	token.Caret:     "BitXor",
	token.AmpAmp:    "And",
	token.PipePipe:  "Or",
	token.CaretCaret: "Xor",
	token.Bang:      "Not",
	token.Tilde:     "Complement",
	token.Inc:       "Increment",
	token.Dec:       "Decrement",
	token.At:        "ConcatSpace",
	token.Dollar:    "Concat",
}

// operatorName resolves the mangled opname for an operator/preoperator/
// postoperator FunctionName, appending "Assign" for the hugging
// compound-assignment form of an operator overload (`+=` as opposed to `+`).
func operatorName(kind token.Kind, compound bool) string {
	name, ok := operatorNames[kind]
	if !ok {
		name = "Op"
	}
	if compound {
		name += "Assign"
	}
	return name
}

// OperatorName exports operatorName for internal/analysis, which mangles
// operator call sites against resolved argument TypeIds rather than a
// FunctionItem's declared CST parameter types, but must agree with
// MangleFunctionName on the operator word for the two lookups to find the
// same namespace entry.
func OperatorName(kind token.Kind, compound bool) string { return operatorName(kind, compound) }

// PascalCase exports pascalCase for the same reason as OperatorName: a
// resolved primitive TypeId's display name ("int") must be re-cased the
// same way a declared parameter's type name was when building the
// namespace key it is being looked up against.
func PascalCase(s string) string { return pascalCase(s) }

// pascalCase upper-cases a type name's first byte; UnrealScript type names
// are ASCII identifiers, and primitive keywords (`int`, `float`, …) are the
// only ones that actually need the case change.
func pascalCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// mangleType recursively mangles a type reference: a generic type's
// arguments are mangled in turn and folded into the name using the
// `Name-lArg-cArg-g` scheme (`-l`, `-c`, `-g` standing in for `<`, `,`, `>`,
// which are not legal in an identifier).
func mangleType(c *cst.Ctx, t *cst.Type) string {
	name := pascalCase(c.Text(t.Segments[len(t.Segments)-1].Id))
	if len(t.Args) == 0 {
		return name
	}
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = mangleType(c, a)
	}
	return name + "-l" + strings.Join(parts, "-c") + "-g"
}

// mangleVarType mangles a parameter/var type position, including the
// already-lifted inline struct/enum shorthand (by the time mangling runs,
// every VarType still holding InlineStruct/InlineEnum has already had its
// definition hoisted into the class's Structs/Enums table under that name).
func mangleVarType(c *cst.Ctx, vt *cst.VarType) string {
	switch {
	case vt == nil:
		return "Void"
	case vt.InlineStruct != nil:
		return pascalCase(c.Text(vt.InlineStruct.Name.Id))
	case vt.InlineEnum != nil:
		return pascalCase(c.Text(vt.InlineEnum.Name.Id))
	default:
		return mangleType(c, vt.Named)
	}
}

// MangleFunctionName computes a FunctionItem's namespace key. Non-operator
// functions are unmangled (their bare name, case preserved for display but
// looked up case-insensitively by the table). Operator overloads are
// mangled by operator name plus each parameter's mangled type name, so that
// `operator+(int,int)` and `operator+(float,float)` coexist in the same
// class namespace; prefix operators additionally insert a `Pre` marker so a
// unary and a binary overload of the same token never collide.
func MangleFunctionName(c *cst.Ctx, fn cst.FunctionItem) string {
	if fn.Kind != cst.FuncOperator && fn.Kind != cst.FuncPreOperator && fn.Kind != cst.FuncPostOperator {
		return c.Text(fn.Name.Id)
	}
	parts := []string{operatorName(fn.Name.Kind, fn.Name.Compound)}
	if fn.Kind == cst.FuncPreOperator {
		parts = append(parts, "Pre")
	}
	for _, param := range fn.Params {
		parts = append(parts, mangleVarType(c, param.Type))
	}
	return strings.Join(parts, "_")
}
