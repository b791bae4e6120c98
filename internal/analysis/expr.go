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

package analysis

import (
	"strconv"
	"strings"

	"github.com/muscript-lang/muscript/internal/cst"
	"github.com/muscript-lang/muscript/internal/env"
	"github.com/muscript-lang/muscript/internal/ir"
	"github.com/muscript-lang/muscript/internal/partition"
	"github.com/muscript-lang/muscript/internal/source"
	"github.com/muscript-lang/muscript/internal/token"
	"github.com/muscript-lang/muscript/internal/types"
)

// lowerExpr dispatches on every concrete cst.Expr, all of which are value
// types off the parser. hint carries the position's expected type, used by
// literal and `none` lowering to pick a representation without a separate
// type-checking pass.
func (b *builder) lowerExpr(e cst.Expr, hint types.Id) ir.RegisterId {
	switch ex := e.(type) {
	case cst.LiteralExpr:
		return b.lowerLiteral(ex, hint)
	case cst.IdentExpr:
		return b.lowerIdent(ex)
	case cst.FailedExpr:
		return b.lowerFailed(ex)
	case cst.ObjectLiteralExpr:
		return b.lowerObjectLiteral(ex)
	case cst.PrefixExpr:
		return b.lowerPrefix(ex, hint)
	case cst.PostfixExpr:
		return b.lowerPostfix(ex)
	case cst.InfixExpr:
		return b.lowerInfix(ex)
	case cst.ParenExpr:
		return b.lowerExpr(ex.Inner, hint)
	case cst.DotExpr:
		return b.lowerDot(ex)
	case cst.IndexExpr:
		return b.lowerIndex(ex)
	case cst.CallExpr:
		return b.lowerCall(ex)
	case cst.NewExpr:
		return b.lowerNew(ex)
	case cst.TernaryExpr:
		return b.lowerTernary(ex, hint)
	case cst.LabelExpr:
		return b.lowerLabel(ex)
	default:
		b.bugf(e.Span(), "internal/analysis: unhandled expression type %T", e)
		return b.cur.Register(e.Span(), "error", types.Error, ir.VoidValue{})
	}
}

func (b *builder) lowerLiteral(e cst.LiteralExpr, hint types.Id) ir.RegisterId {
	text := b.c.Text(e.Id)
	switch e.Kind {
	case token.Ident:
		switch strings.ToLower(text) {
		case "true":
			return b.cur.Register(e.Span(), "true", types.Bool, ir.Bool{Value: true})
		case "false":
			return b.cur.Register(e.Span(), "false", types.Bool, ir.Bool{Value: false})
		case "none":
			ty := hint
			if ty == types.Void || ty == types.Error {
				ty = b.az.Env.Types.Object(env.ClassIdObject)
			}
			return b.cur.Register(e.Span(), "none", ty, ir.NoneValue{})
		}
		b.bugf(e.Span(), "internal/analysis: unexpected identifier literal %q", text)
		return b.cur.Register(e.Span(), "error", types.Error, ir.VoidValue{})

	case token.IntLit, token.HexIntLit:
		base := 10
		if e.Kind == token.HexIntLit {
			base = 0 // auto-detect the "0x"/"0X" prefix
		}
		n, err := strconv.ParseInt(text, base, 64)
		if err != nil {
			b.errorf(e.Span(), "invalid integer literal %q", text)
		}
		switch hint {
		case types.Float:
			return b.cur.Register(e.Span(), "lit", types.Float, ir.Float{Value: float32(n)})
		case types.Byte:
			if n < 0 || n > 255 {
				b.errorf(e.Span(), "byte literal %d is out of range 0-255", n)
			}
			return b.cur.Register(e.Span(), "lit", types.Byte, ir.Byte{Value: byte(n)})
		default:
			return b.cur.Register(e.Span(), "lit", types.Int, ir.Int{Value: int32(n)})
		}

	case token.FloatLit:
		s := strings.TrimSuffix(strings.TrimSuffix(text, "f"), "F")
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			b.errorf(e.Span(), "invalid float literal %q", text)
		}
		return b.cur.Register(e.Span(), "lit", types.Float, ir.Float{Value: float32(f)})

	case token.StringLit:
		return b.cur.Register(e.Span(), "lit", types.String, ir.String{Value: unescapeString(text)})

	case token.NameLit:
		return b.cur.Register(e.Span(), "lit", types.Name, ir.Name{Value: unescapeName(text)})

	default:
		b.bugf(e.Span(), "internal/analysis: unhandled literal kind %s", e.Kind)
		return b.cur.Register(e.Span(), "error", types.Error, ir.VoidValue{})
	}
}

// unescapeString strips a string literal's surrounding quote and resolves
// its backslash escapes; anything not recognised is kept verbatim
// (backslash included) rather than silently dropped.
func unescapeString(text string) string {
	if len(text) >= 2 {
		text = text[1 : len(text)-1]
	}
	var sb strings.Builder
	for i := 0; i < len(text); i++ {
		if text[i] != '\\' || i+1 >= len(text) {
			sb.WriteByte(text[i])
			continue
		}
		i++
		switch text[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case '"':
			sb.WriteByte('"')
		case '\'':
			sb.WriteByte('\'')
		case '\\':
			sb.WriteByte('\\')
		default:
			sb.WriteByte('\\')
			sb.WriteByte(text[i])
		}
	}
	return sb.String()
}

// unescapeName strips a name literal's surrounding quote; names carry no
// further escapes.
func unescapeName(text string) string {
	if len(text) >= 2 {
		return text[1 : len(text)-1]
	}
	return text
}

func (b *builder) lowerIdent(e cst.IdentExpr) ir.RegisterId {
	name := b.c.Text(e.Id)
	lower := strings.ToLower(name)

	if vid, ok := b.scope[lower]; ok {
		v := b.az.Env.Var(vid)
		return b.cur.Register(e.Span(), name, v.Type, ir.Local{Var: vid})
	}

	if vid, ok := b.az.Env.LookupClassVar(b.class, name); ok {
		v := b.az.Env.Var(vid)
		if v.Kind == env.VarKindConst {
			return b.lowerConstVar(e.Span(), v)
		}
		self := b.cur.Register(e.Span(), "self", b.az.Env.Types.Object(b.class), ir.This{})
		field := b.cur.Register(e.Span(), name, v.Type, ir.Field{Var: vid})
		return b.cur.Register(e.Span(), name, v.Type, ir.In{Context: self, Action: field})
	}

	if classId, ok := b.az.Env.FindClass(name); ok {
		return b.cur.Register(e.Span(), name, b.az.Env.Types.ClassMeta(classId), ir.Object{Class: classId, Name: name})
	}

	b.errorf(e.Span(), "identifier `%s` could not be found in this scope", name)
	return b.cur.Register(e.Span(), "error", types.Error, ir.VoidValue{})
}

// lowerConstVar folds a resolved const's value into a literal-valued
// register; a const whose fold failed (or that was never wired to an
// evaluator) becomes a well-typed void placeholder instead of cascading
// further diagnostics, matching defineConst's own failure handling.
func (b *builder) lowerConstVar(span token.Span, v *env.Var) ir.RegisterId {
	if v.Const == nil || !v.Const.Ok {
		return b.cur.Register(span, "const", v.Type, ir.VoidValue{})
	}
	cv := v.Const.Value
	switch cv.Kind {
	case env.ConstBool:
		return b.cur.Register(span, "const", types.Bool, ir.Bool{Value: cv.Bool})
	case env.ConstByte:
		return b.cur.Register(span, "const", types.Byte, ir.Byte{Value: cv.Byte})
	case env.ConstInt:
		return b.cur.Register(span, "const", types.Int, ir.Int{Value: cv.Int})
	case env.ConstFloat:
		return b.cur.Register(span, "const", types.Float, ir.Float{Value: cv.Float})
	case env.ConstString:
		return b.cur.Register(span, "const", types.String, ir.String{Value: cv.Str})
	case env.ConstName:
		return b.cur.Register(span, "const", types.Name, ir.Name{Value: cv.Str})
	default:
		return b.cur.Register(span, "const", types.Void, ir.VoidValue{})
	}
}

func (b *builder) lowerFailed(e cst.FailedExpr) ir.RegisterId {
	return b.cur.Register(e.Span(), "failed", types.Error, ir.VoidValue{})
}

func (b *builder) lowerLabel(e cst.LabelExpr) ir.RegisterId {
	return b.cur.Register(e.Span(), "label", types.Void, ir.VoidValue{})
}

func (b *builder) lowerObjectLiteral(e cst.ObjectLiteralExpr) ir.RegisterId {
	className := b.c.Text(e.Class.Id)
	classId, ok := b.az.Env.FindClass(className)
	if !ok {
		b.errorf(e.Span(), "unknown class `%s`", className)
		return b.cur.Register(e.Span(), "error", types.Error, ir.VoidValue{})
	}
	pkg, name := splitPackageName(unescapeName(b.c.Text(e.Name)))
	return b.cur.Register(e.Span(), name, b.az.Env.Types.Object(classId), ir.Object{Class: classId, Package: pkg, Name: name})
}

func splitPackageName(full string) (pkg, name string) {
	if i := strings.LastIndexByte(full, '.'); i >= 0 {
		return full[:i], full[i+1:]
	}
	return "", full
}

func incDecWord(k token.Kind) string {
	if k == token.Inc {
		return "increment"
	}
	return "decrement"
}

func (b *builder) literalOne(span token.Span, ty types.Id) ir.RegisterId {
	switch ty {
	case types.Float:
		return b.cur.Register(span, "one", types.Float, ir.Float{Value: 1})
	case types.Byte:
		return b.cur.Register(span, "one", types.Byte, ir.Byte{Value: 1})
	default:
		return b.cur.Register(span, "one", types.Int, ir.Int{Value: 1})
	}
}

func (b *builder) lowerPrefix(e cst.PrefixExpr, hint types.Id) ir.RegisterId {
	switch e.OpKind {
	case token.Inc, token.Dec:
		operand := b.lowerExpr(e.Operand, types.Void)
		if !b.cur.Func.IsPlace(operand) {
			b.errorf(e.Span(), "cannot %s a value that is not a variable", incDecWord(e.OpKind))
			return operand
		}
		ty := b.cur.Func.Register(operand).Type
		one := b.literalOne(e.Span(), ty)
		opKind := token.Plus
		if e.OpKind == token.Dec {
			opKind = token.Minus
		}
		result := b.lowerOperatorCall(opKind, false, false, []ir.RegisterId{operand, one}, e.Span())
		b.cur.Sink(e.Span(), ir.Store{Lvalue: operand, Rvalue: result})
		return operand

	case token.Plus:
		return b.lowerExpr(e.Operand, hint)

	case token.Minus, token.Bang, token.Tilde:
		operand := b.lowerExpr(e.Operand, hint)
		return b.lowerOperatorCall(e.OpKind, false, true, []ir.RegisterId{operand}, e.Span())

	default:
		b.bugf(e.Span(), "internal/analysis: unhandled prefix operator %s", e.OpKind)
		return b.cur.Register(e.Span(), "error", types.Error, ir.VoidValue{})
	}
}

// lowerPostfix reads the operand's value before mutating it: the second
// register it creates shares the exact same place Value as the first, a
// legitimate double read of one place, so it can return the pre-mutation
// value without spilling to a temporary local.
func (b *builder) lowerPostfix(e cst.PostfixExpr) ir.RegisterId {
	operand := b.lowerExpr(e.Operand, types.Void)
	if !b.cur.Func.IsPlace(operand) {
		b.errorf(e.Span(), "cannot %s a value that is not a variable", incDecWord(e.OpKind))
		return operand
	}
	opReg := b.cur.Func.Register(operand)
	pre := b.cur.Register(e.Span(), "pre", opReg.Type, opReg.Value)

	one := b.literalOne(e.Span(), opReg.Type)
	opKind := token.Plus
	if e.OpKind == token.Dec {
		opKind = token.Minus
	}
	result := b.lowerOperatorCall(opKind, false, false, []ir.RegisterId{operand, one}, e.Span())
	b.cur.Sink(e.Span(), ir.Store{Lvalue: operand, Rvalue: result})
	return pre
}

func (b *builder) lowerInfix(e cst.InfixExpr) ir.RegisterId {
	if e.Compound {
		return b.lowerCompoundAssign(e)
	}
	if e.OpKind == token.Assign {
		return b.lowerAssign(e)
	}
	left := b.lowerExpr(e.Left, types.Void)
	leftTy := b.cur.Func.Register(left).Type
	right := b.lowerExpr(e.Right, leftTy)
	return b.lowerOperatorCall(e.OpKind, false, false, []ir.RegisterId{left, right}, e.Span())
}

func (b *builder) lowerAssign(e cst.InfixExpr) ir.RegisterId {
	lvalue := b.lowerExpr(e.Left, types.Void)
	if !b.cur.Func.IsPlace(lvalue) {
		b.errorf(e.Left.Span(), "cannot assign to this expression")
	}
	lvalueTy := b.cur.Func.Register(lvalue).Type
	rvalue := b.lowerExpr(e.Right, lvalueTy)
	rvalue = b.coerce(rvalue, lvalueTy, e.Right.Span())
	b.cur.Sink(e.Span(), ir.Store{Lvalue: lvalue, Rvalue: rvalue})
	return lvalue
}

// lowerCompoundAssign desugars `lvalue op= rvalue` into a read-modify-write
// against the plain operator, rather than looking up a separately mangled
// `*Assign`-suffixed overload: it reuses the single lvalue register both as
// the operator's left operand and as the Store target.
func (b *builder) lowerCompoundAssign(e cst.InfixExpr) ir.RegisterId {
	lvalue := b.lowerExpr(e.Left, types.Void)
	if !b.cur.Func.IsPlace(lvalue) {
		b.errorf(e.Left.Span(), "cannot assign to this expression")
	}
	lvalueTy := b.cur.Func.Register(lvalue).Type
	right := b.lowerExpr(e.Right, lvalueTy)
	result := b.lowerOperatorCall(e.OpKind, false, false, []ir.RegisterId{lvalue, right}, e.Span())
	result = b.coerce(result, lvalueTy, e.Span())
	b.cur.Sink(e.Span(), ir.Store{Lvalue: lvalue, Rvalue: result})
	return lvalue
}

func (b *builder) lowerDot(e cst.DotExpr) ir.RegisterId {
	left := b.lowerExpr(e.Left, types.Void)
	leftTy := b.cur.Func.Register(left).Type
	shape := b.az.Env.Types.Get(leftTy)
	name := b.c.Text(e.Name.Id)

	switch shape.Kind {
	case types.KindObject:
		vid, ok := b.az.Env.LookupClassVar(shape.Class, name)
		if !ok {
			b.errorf(e.Span(), "cannot find variable `%s` in class `%s`", name, b.az.Env.Class(shape.Class).Name)
			return b.cur.Register(e.Span(), "error", types.Error, ir.VoidValue{})
		}
		v := b.az.Env.Var(vid)
		field := b.cur.Register(e.Span(), name, v.Type, ir.Field{Var: vid})
		return b.cur.Register(e.Span(), name, v.Type, ir.In{Context: left, Action: field})

	case types.KindArray:
		b.bugf(e.Span(), "`.` on arrays is not yet implemented")
	case types.KindStruct:
		b.bugf(e.Span(), "`.` on structs is not yet implemented")
	default:
		b.errorf(e.Span(), "the `.` operator can only be used on objects, structs, and arrays")
	}
	return b.cur.Register(e.Span(), "error", types.Error, ir.VoidValue{})
}

func (b *builder) lowerIndex(e cst.IndexExpr) ir.RegisterId {
	left := b.lowerExpr(e.Left, types.Void)
	leftTy := b.cur.Func.Register(left).Type
	idx := b.coerce(b.lowerExpr(e.Index, types.Int), types.Int, e.Index.Span())

	shape := b.az.Env.Types.Get(leftTy)
	if shape.Kind != types.KindArray {
		b.errorf(e.Span(), "cannot index into a value of type %s", b.typeName(leftTy))
		return b.cur.Register(e.Span(), "error", types.Error, ir.VoidValue{})
	}
	return b.cur.Register(e.Span(), "elem", shape.Elem, ir.Index{Array: left, IndexReg: idx})
}

func (b *builder) lowerCall(e cst.CallExpr) ir.RegisterId {
	ident, ok := e.Callee.(cst.IdentExpr)
	if !ok {
		b.errorf(e.Span(), "this expression cannot be called")
		return b.cur.Register(e.Span(), "error", types.Error, ir.VoidValue{})
	}
	name := b.c.Text(ident.Id)

	if fid, ok := b.az.Env.LookupFunction(b.class, name); ok {
		return b.lowerCallArgs(e, b.az.Env.Function(fid), fid)
	}

	if target, ok := b.castTargetType(name); ok {
		return b.lowerCastCall(e, target)
	}

	b.errorf(e.Span(), "function `%s` could not be found in this scope", name)
	return b.cur.Register(e.Span(), "error", types.Error, ir.VoidValue{})
}

func (b *builder) castTargetType(name string) (types.Id, bool) {
	if id, ok := types.Primitive(name); ok {
		return id, true
	}
	if classId, ok := b.az.Env.FindClass(name); ok {
		return b.az.Env.Types.Object(classId), true
	}
	return types.Error, false
}

func (b *builder) lowerCallArgs(e cst.CallExpr, fn *env.Function, fid env.FunctionId) ir.RegisterId {
	n := len(e.Args)
	if n > len(fn.Params) {
		b.errorf(e.Span(), "too many arguments to `%s`: expected %d, got %d", fn.MangledName, len(fn.Params), n)
	}

	args := make([]ir.RegisterId, len(fn.Params))
	for i, param := range fn.Params {
		pv := b.az.Env.Var(param.Var)
		var argExpr cst.Expr
		if i < n {
			argExpr = e.Args[i]
		}
		if argExpr != nil {
			arg := b.lowerExpr(argExpr, pv.Type)
			if param.Flags&env.ParamOut != 0 && !b.cur.Func.IsPlace(arg) {
				b.errorf(argExpr.Span(), "argument %d of `%s` is an `out` parameter and needs a variable", i+1, fn.MangledName)
			}
			args[i] = b.coerce(arg, pv.Type, argExpr.Span())
			continue
		}
		if param.Flags&env.ParamOptional == 0 {
			b.errorf(e.Span(), "missing required argument %d to `%s`", i+1, fn.MangledName)
		}
		args[i] = b.cur.Register(e.Span(), "default", pv.Type, ir.Default{})
	}

	for i := len(fn.Params); i < n; i++ {
		if e.Args[i] == nil {
			continue
		}
		extra := b.lowerExpr(e.Args[i], types.Void)
		b.cur.Sink(e.Args[i].Span(), ir.Discard{Value: extra})
	}

	return b.cur.Register(e.Span(), fn.MangledName, fn.ReturnType, ir.CallFinal{Function: fid, Args: args})
}

func (b *builder) lowerCastCall(e cst.CallExpr, target types.Id) ir.RegisterId {
	var argExpr cst.Expr
	for _, a := range e.Args {
		if a == nil {
			continue
		}
		if argExpr != nil {
			b.errorf(e.Span(), "a cast takes exactly one argument")
		}
		argExpr = a
	}
	if argExpr == nil {
		b.errorf(e.Span(), "a cast takes exactly one argument")
		return b.cur.Register(e.Span(), "error", types.Error, ir.VoidValue{})
	}

	arg := b.lowerExpr(argExpr, types.Void)
	fromTy := b.cur.Func.Register(arg).Type
	if fromTy == target {
		return arg
	}
	cast, ok := castFor(b.az.Env.Types, fromTy, target)
	if !ok {
		b.errorf(e.Span(), "cannot cast from %s to %s", b.typeName(fromTy), b.typeName(target))
		return b.cur.Register(e.Span(), "error", target, ir.VoidValue{})
	}
	return b.cur.Register(e.Span(), "cast", target, ir.PrimitiveCastValue{Kind: cast, Value: arg})
}

// lowerNew is an explicit scope cut: real object instantiation needs a
// runtime allocator this compiler has no model of yet. The arguments and
// class expression are still lowered, for their side effects and for a
// best-effort result type, so later IR consumers at least see a
// well-typed register in the expression's place.
func (b *builder) lowerNew(e cst.NewExpr) ir.RegisterId {
	for _, a := range e.Args {
		if a == nil {
			continue
		}
		r := b.lowerExpr(a, types.Void)
		b.cur.Sink(a.Span(), ir.Discard{Value: r})
	}
	classReg := b.lowerExpr(e.Class, types.Void)
	classTy := b.cur.Func.Register(classReg).Type

	resultTy := types.Error
	if shape := b.az.Env.Types.Get(classTy); shape.Kind == types.KindClass {
		resultTy = b.az.Env.Types.Object(shape.Class)
	}
	b.bugf(e.Span(), "`new` object instantiation lowering is not yet implemented")
	return b.cur.Register(e.Span(), "new", resultTy, ir.VoidValue{})
}

// lowerTernary has no phi node to merge the two branches' results into, so
// it spills to a throwaway local instead: store each (coerced) branch
// result into it, then read it back once in the merge block. source.None
// is a safe placeholder name token here since nothing ever prints a
// synthetic local's declared name.
func (b *builder) lowerTernary(e cst.TernaryExpr, hint types.Id) ir.RegisterId {
	cond := b.lowerExpr(e.Cond, types.Bool)
	thenBlock := b.cur.NewBlock("ternary_then", e.Then.Span())
	elseBlock := b.cur.NewBlock("ternary_else", e.Else.Span())
	pastBlock := b.cur.NewBlock("ternary_past", e.Span())
	b.cur.Terminate(ir.GotoIf{Cond: cond, Then: thenBlock, Else: elseBlock})

	b.cur.SetBlock(thenBlock)
	thenVal := b.lowerExpr(e.Then, hint)
	resultTy := b.cur.Func.Register(thenVal).Type
	tmp := b.az.Env.NewLocalVar(b.file, source.None, resultTy)
	b.cur.Func.AddLocal(tmp)
	thenPlace := b.cur.Register(e.Then.Span(), "ternary", resultTy, ir.Local{Var: tmp})
	b.cur.Sink(e.Then.Span(), ir.Store{Lvalue: thenPlace, Rvalue: b.coerce(thenVal, resultTy, e.Then.Span())})
	b.fallthroughTo(pastBlock)

	b.cur.SetBlock(elseBlock)
	elseVal := b.lowerExpr(e.Else, resultTy)
	elsePlace := b.cur.Register(e.Else.Span(), "ternary", resultTy, ir.Local{Var: tmp})
	b.cur.Sink(e.Else.Span(), ir.Store{Lvalue: elsePlace, Rvalue: b.coerce(elseVal, resultTy, e.Else.Span())})
	b.fallthroughTo(pastBlock)

	b.cur.SetBlock(pastBlock)
	return b.cur.Register(e.Span(), "ternary", resultTy, ir.Local{Var: tmp})
}

// lowerOperatorCall mangles kind/compound/prefix against args' resolved
// types using the exact same scheme MangleFunctionName uses for a declared
// overload's CST parameter types, so the two agree on one namespace key.
func (b *builder) lowerOperatorCall(kind token.Kind, compound, prefix bool, args []ir.RegisterId, span token.Span) ir.RegisterId {
	parts := []string{partition.OperatorName(kind, compound)}
	if prefix {
		parts = append(parts, "Pre")
	}
	for _, a := range args {
		parts = append(parts, partition.PascalCase(b.typeName(b.cur.Func.Register(a).Type)))
	}
	return b.lookupAndCallOperator(strings.Join(parts, "_"), args, span)
}

// lookupAndCallOperator resolves mangled the same way an ordinary call
// resolves a named function: lookup_function's super-chain walk from the
// class currently being analysed, which bottoms out at Object where every
// primitive operator is seeded.
func (b *builder) lookupAndCallOperator(mangled string, args []ir.RegisterId, span token.Span) ir.RegisterId {
	fid, ok := b.az.Env.LookupFunction(b.class, mangled)
	if !ok {
		names := make([]string, len(args))
		for i, a := range args {
			names[i] = b.typeName(b.cur.Func.Register(a).Type)
		}
		b.errorf(span, "no overload of operator `%s` found for (%s)", mangled, strings.Join(names, ", "))
		return b.cur.Register(span, "error", types.Error, ir.VoidValue{})
	}
	fn := b.az.Env.Function(fid)
	return b.cur.Register(span, mangled, fn.ReturnType, ir.CallFinal{Function: fid, Args: args})
}

// coerce inserts a primitive cast when reg's type doesn't already match
// target; a target of Void or Error, or a reg already typed Error, means
// an earlier diagnostic already covers the mismatch, so this stays silent.
func (b *builder) coerce(reg ir.RegisterId, target types.Id, span token.Span) ir.RegisterId {
	ty := b.cur.Func.Register(reg).Type
	if ty == target || ty == types.Error || target == types.Error || target == types.Void {
		return reg
	}
	cast, ok := castFor(b.az.Env.Types, ty, target)
	if !ok {
		b.errorf(span, "expected %s, found %s", b.typeName(target), b.typeName(ty))
		return reg
	}
	return b.cur.Register(span, "coerce", target, ir.PrimitiveCastValue{Kind: cast, Value: reg})
}
