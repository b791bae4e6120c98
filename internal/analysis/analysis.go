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

// Package analysis lowers one function body's CST into the basic-block IR
// defined by internal/ir: statement control flow becomes blocks wired with
// Goto/GotoIf, expressions become chains of registers, assignments and
// bare-expression statements become sinks. It is the one stage that needs
// both a function's signature (from internal/env) and its body (borrowed
// back out of the CST for the duration of one lowering).
package analysis

import (
	"strings"

	"github.com/muscript-lang/muscript/internal/cst"
	"github.com/muscript-lang/muscript/internal/diag"
	"github.com/muscript-lang/muscript/internal/env"
	"github.com/muscript-lang/muscript/internal/ir"
	"github.com/muscript-lang/muscript/internal/source"
	"github.com/muscript-lang/muscript/internal/token"
	"github.com/muscript-lang/muscript/internal/types"
)

// Analyzer lowers function bodies for one environment, reporting
// diagnostics to Diags (which may or may not be the same sink the rest of
// the compiler shares; the driver decides).
type Analyzer struct {
	Env   *env.Env
	Diags diag.Sink
}

// New builds an Analyzer over e, reporting to diags.
func New(e *env.Env, diags diag.Sink) *Analyzer {
	return &Analyzer{Env: e, Diags: diags}
}

// builder carries one function lowering's mutable state. breakStack and
// continueStack are kept separate, not combined into one loop-target
// stack, because a switch pushes a break target without pushing a continue
// target: `continue` inside a switch's body must still reach the enclosing
// loop.
type builder struct {
	az    *Analyzer
	class env.ClassId
	fn    *env.Function
	file  source.FileId
	c     *cst.Ctx
	cur   *ir.Cursor
	scope map[string]env.VarId

	breakStack    []ir.BasicBlockId
	continueStack []ir.BasicBlockId
}

// AnalyzeFunction lowers the function named name, declared directly on
// class, into IR. It reports false if class has no such function of its
// own (an inherited function is lowered against the class that declares
// it, never re-lowered per subclass).
func (az *Analyzer) AnalyzeFunction(class env.ClassId, name string) (*ir.Func, bool) {
	fid, ok := az.Env.FunctionInClass(class, name)
	if !ok {
		return nil, false
	}
	fn := az.Env.Function(fid)

	var result *ir.Func
	found := az.Env.FunctionBody(class, name, func(item *cst.FunctionItem, c *cst.Ctx) {
		b := &builder{
			az:    az,
			class: class,
			fn:    fn,
			file:  c.File.Id(),
			c:     c,
			scope: map[string]env.VarId{},
		}
		result = b.lower(item)
	})
	if !found {
		return nil, false
	}
	return result, true
}

func (b *builder) lower(item *cst.FunctionItem) *ir.Func {
	for i, p := range item.Params {
		if i >= len(b.fn.Params) {
			break
		}
		b.scope[strings.ToLower(b.c.Text(p.Name.Id))] = b.fn.Params[i].Var
	}

	b.cur = ir.NewCursor("entry", item.Span())
	for _, p := range b.fn.Params {
		b.cur.Func.AddLocal(p.Var)
	}
	for _, stmt := range item.Body {
		b.lowerStmt(stmt)
	}
	b.finish(item)
	return b.cur.Func
}

// finish handles falling off the end of a function body without an
// explicit return on every path. A void function gets an implicit
// `return;`; anything else is a missing-return diagnostic plus a
// placeholder Return so lowering can still produce a complete Func. A
// block that is neither the entry nor the target of any Goto/GotoIf (the
// dead block opened after a trailing return/break/continue) is left
// Unreachable, since no path falls off the end through it.
func (b *builder) finish(item *cst.FunctionItem) {
	cur := b.cur.Block()
	block := b.cur.Func.Block(cur)
	if _, ok := block.Terminator.(ir.Unreachable); !ok {
		return
	}
	reached := cur == 0
	for _, other := range b.cur.Func.Blocks {
		switch t := other.Terminator.(type) {
		case ir.Goto:
			reached = reached || t.Target == cur
		case ir.GotoIf:
			reached = reached || t.Then == cur || t.Else == cur
		}
	}
	if !reached {
		return
	}
	if b.fn.ReturnType == types.Void {
		v := b.cur.Register(item.Span(), "void", types.Void, ir.VoidValue{})
		b.cur.Terminate(ir.Return{Value: v})
		return
	}
	b.errorf(item.Span(), "function %s must return a value of type %s on every path", b.fn.MangledName, b.typeName(b.fn.ReturnType))
	v := b.cur.Register(item.Span(), "missing_return", b.fn.ReturnType, ir.VoidValue{})
	b.cur.Terminate(ir.Return{Value: v})
}

// pos converts a CST span's token-arena ids to the byte-offset Pos diag
// wants, matching the parser's own pos() helper exactly so labels line up
// with the rest of the compiler's diagnostics.
func (b *builder) pos(span token.Span) diag.Pos {
	start := b.c.Arena.Get(span.Start)
	end := b.c.Arena.Get(span.End)
	return diag.Pos{File: b.file, Start: start.Start, End: end.End}
}

func (b *builder) diagAt(sev diag.Severity, span token.Span, format string, args ...interface{}) *diag.Diagnostic {
	d := diag.New(sev, format, args...)
	d.WithLabel(b.pos(span), true, "here")
	return d
}

func (b *builder) push(d *diag.Diagnostic) { b.az.Diags.Push(*d) }

func (b *builder) errorf(span token.Span, format string, args ...interface{}) {
	b.push(b.diagAt(diag.Error, span, format, args...))
}

func (b *builder) bugf(span token.Span, format string, args ...interface{}) {
	d := diag.Bugf(format, args...)
	d.WithLabel(b.pos(span), true, "here")
	b.push(d)
}

// typeName renders a TypeId for diagnostics, reusing the type table's own
// renderer rather than duplicating its Kind dispatch here.
func (b *builder) typeName(id types.Id) string {
	return b.az.Env.Types.String(id, func(c env.ClassId) string { return b.az.Env.Class(c).Name })
}

// resolveType mirrors env's own (private) resolveVarType: an inline
// struct/enum shorthand resolves against the class that lexically owns it,
// everything else goes through types.Resolve.
func (b *builder) resolveType(vt *cst.VarType) types.Id {
	switch {
	case vt == nil:
		return types.Void
	case vt.InlineStruct != nil:
		return b.az.Env.Types.Struct(b.class, b.c.Text(vt.InlineStruct.Name.Id))
	case vt.InlineEnum != nil:
		return b.az.Env.Types.Enum(b.class, b.c.Text(vt.InlineEnum.Name.Id))
	default:
		return types.Resolve(b.az.Env.Types, b.az.Env, b.az.Diags, b.c, b.class, vt.Named)
	}
}

// fallthroughTo wires a Goto from the current block to target, unless the
// current block already has a real terminator (a nested return/break/
// continue already ended it, and overwriting that terminator would drop
// the jump it actually needs).
func (b *builder) fallthroughTo(target ir.BasicBlockId) {
	block := b.cur.Func.Block(b.cur.Block())
	if _, ok := block.Terminator.(ir.Unreachable); ok {
		b.cur.Terminate(ir.Goto{Target: target})
	}
}

// lowerStmt dispatches on every concrete cst.Stmt. All of them are value
// types off the parser except *cst.BlockStmt.
func (b *builder) lowerStmt(stmt cst.Stmt) {
	switch s := stmt.(type) {
	case cst.ExprStmt:
		b.lowerExprStmt(s)
	case cst.LocalVarStmt:
		b.lowerLocalVarStmt(s)
	case *cst.BlockStmt:
		b.lowerBlockStmt(s)
	case cst.IfStmt:
		b.lowerIfStmt(s)
	case cst.WhileStmt:
		b.lowerWhileStmt(s)
	case cst.DoUntilStmt:
		b.lowerDoUntilStmt(s)
	case cst.ForStmt:
		b.lowerForStmt(s)
	case cst.ForEachStmt:
		b.lowerForEachStmt(s)
	case cst.SwitchStmt:
		b.lowerSwitchStmt(s)
	case cst.ReturnStmt:
		b.lowerReturnStmt(s)
	case cst.BreakStmt:
		b.lowerBreakStmt(s)
	case cst.ContinueStmt:
		b.lowerContinueStmt(s)
	case cst.CaseStmt, cst.DefaultStmt:
		// Only meaningful inside a switch's body; lowerSwitchStmt consumes
		// these directly out of the body's statement list and never hands
		// them to lowerStmt. Reaching here means a case/default landed
		// outside a switch, which the parser already accepts structurally.
		b.errorf(stmt.Span(), "case/default label outside of a switch statement")
	default:
		b.bugf(stmt.Span(), "internal/analysis: unhandled statement type %T", stmt)
	}
}

func (b *builder) lowerExprStmt(s cst.ExprStmt) {
	reg := b.lowerExpr(s.Expr, types.Void)
	b.cur.Sink(s.Span(), ir.Discard{Value: reg})
}

func (b *builder) lowerLocalVarStmt(s cst.LocalVarStmt) {
	ty := b.resolveType(s.Type)
	for _, decl := range s.Decls {
		declTy := ty
		if decl.ArraySize != nil {
			// A fixed-size local array is typed with types.Array of its
			// element type, the same Id an `array<T>` gets; the size
			// expression is lowered for its diagnostics, but its value is
			// not recorded in the type.
			declTy = b.az.Env.Types.Array(ty)
			b.lowerExpr(decl.ArraySize, types.Int)
		}
		vid := b.az.Env.NewLocalVar(b.file, decl.Name.Id, declTy)
		b.cur.Func.AddLocal(vid)
		b.scope[strings.ToLower(b.c.Text(decl.Name.Id))] = vid
	}
}

func (b *builder) lowerBlockStmt(s *cst.BlockStmt) {
	if s == nil {
		return
	}
	for _, stmt := range s.Stmts {
		b.lowerStmt(stmt)
	}
}

func (b *builder) lowerIfStmt(s cst.IfStmt) {
	cond := b.lowerExpr(s.Cond, types.Bool)
	then := b.cur.NewBlock("if_then", s.Then.Span())
	past := b.cur.NewBlock("if_past", s.Span())

	if s.Else == nil {
		b.cur.Terminate(ir.GotoIf{Cond: cond, Then: then, Else: past})
		b.cur.SetBlock(then)
		b.lowerStmt(s.Then)
		b.fallthroughTo(past)
		b.cur.SetBlock(past)
		return
	}

	els := b.cur.NewBlock("if_else", s.Else.Span())
	b.cur.Terminate(ir.GotoIf{Cond: cond, Then: then, Else: els})

	b.cur.SetBlock(then)
	b.lowerStmt(s.Then)
	b.fallthroughTo(past)

	b.cur.SetBlock(els)
	b.lowerStmt(s.Else)
	b.fallthroughTo(past)

	b.cur.SetBlock(past)
}

func (b *builder) lowerWhileStmt(s cst.WhileStmt) {
	condBlock := b.cur.NewBlock("while_cond", s.Span())
	bodyBlock := b.cur.NewBlock("while_body", s.Body.Span())
	pastBlock := b.cur.NewBlock("while_past", s.Span())

	b.fallthroughTo(condBlock)
	b.cur.SetBlock(condBlock)
	cond := b.lowerExpr(s.Cond, types.Bool)
	b.cur.Terminate(ir.GotoIf{Cond: cond, Then: bodyBlock, Else: pastBlock})

	b.cur.SetBlock(bodyBlock)
	b.breakStack = append(b.breakStack, pastBlock)
	b.continueStack = append(b.continueStack, condBlock)
	b.lowerStmt(s.Body)
	b.breakStack = b.breakStack[:len(b.breakStack)-1]
	b.continueStack = b.continueStack[:len(b.continueStack)-1]
	b.fallthroughTo(condBlock)

	b.cur.SetBlock(pastBlock)
}

func (b *builder) lowerDoUntilStmt(s cst.DoUntilStmt) {
	bodyBlock := b.cur.NewBlock("do_body", s.Span())
	condBlock := b.cur.NewBlock("do_cond", s.Span())
	pastBlock := b.cur.NewBlock("do_past", s.Span())

	b.fallthroughTo(bodyBlock)
	b.cur.SetBlock(bodyBlock)
	b.breakStack = append(b.breakStack, pastBlock)
	b.continueStack = append(b.continueStack, condBlock)
	b.lowerStmt(s.Body)
	b.breakStack = b.breakStack[:len(b.breakStack)-1]
	b.continueStack = b.continueStack[:len(b.continueStack)-1]
	b.fallthroughTo(condBlock)

	b.cur.SetBlock(condBlock)
	cond := b.lowerExpr(s.Cond, types.Bool)
	b.cur.Terminate(ir.GotoIf{Cond: cond, Then: pastBlock, Else: bodyBlock})

	b.cur.SetBlock(pastBlock)
}

func (b *builder) lowerForStmt(s cst.ForStmt) {
	if s.Init != nil {
		init := b.lowerExpr(s.Init, types.Void)
		b.cur.Sink(s.Span(), ir.Discard{Value: init})
	}

	condBlock := b.cur.NewBlock("for_cond", s.Span())
	bodyBlock := b.cur.NewBlock("for_body", s.Body.Span())
	updateBlock := b.cur.NewBlock("for_update", s.Span())
	pastBlock := b.cur.NewBlock("for_past", s.Span())

	b.fallthroughTo(condBlock)
	b.cur.SetBlock(condBlock)
	if s.Cond != nil {
		cond := b.lowerExpr(s.Cond, types.Bool)
		b.cur.Terminate(ir.GotoIf{Cond: cond, Then: bodyBlock, Else: pastBlock})
	} else {
		b.cur.Terminate(ir.Goto{Target: bodyBlock})
	}

	b.cur.SetBlock(bodyBlock)
	b.breakStack = append(b.breakStack, pastBlock)
	b.continueStack = append(b.continueStack, updateBlock)
	b.lowerStmt(s.Body)
	b.breakStack = b.breakStack[:len(b.breakStack)-1]
	b.continueStack = b.continueStack[:len(b.continueStack)-1]
	b.fallthroughTo(updateBlock)

	b.cur.SetBlock(updateBlock)
	if s.Update != nil {
		upd := b.lowerExpr(s.Update, types.Void)
		b.cur.Sink(s.Span(), ir.Discard{Value: upd})
	}
	b.cur.Terminate(ir.Goto{Target: condBlock})

	b.cur.SetBlock(pastBlock)
}

// lowerForEachStmt is an explicit scope cut: iterator functions (native
// generators invoked as `foreach AllActors(...)`) need a notion of
// suspend/resume this straight-line IR has nowhere to put, and nothing in
// the rest of the lowerer needs it yet.
func (b *builder) lowerForEachStmt(s cst.ForEachStmt) {
	b.bugf(s.Span(), "foreach lowering is not yet implemented")
}

// lowerSwitchStmt lowers UnrealScript's fallthrough-by-default switch into
// a chain of equality tests followed by a chain of body blocks. The value
// is only evaluated once; each case re-tests it against the shared
// CmpEq_* operator rather than building a jump table, matching how few
// cases a typical UnrealScript switch actually has.
func (b *builder) lowerSwitchStmt(s cst.SwitchStmt) {
	value := b.lowerExpr(s.Value, types.Void)
	valueTy := b.cur.Func.Register(value).Type

	type segment struct {
		isDefault bool
		caseExpr  cst.Expr
		body      ir.BasicBlockId
		stmts     []cst.Stmt
	}

	var segs []segment
	var cur *segment
	pushStmt := func(stmt cst.Stmt) {
		if cur == nil {
			// Statements before the first case/default are unreachable
			// (UnrealScript's grammar allows them but nothing jumps to
			// them); lower them into a segment of their own so their side
			// effects aren't silently dropped, should control ever reach
			// them via a label/goto outside this lowerer's scope.
			segs = append(segs, segment{})
			cur = &segs[len(segs)-1]
		}
		cur.stmts = append(cur.stmts, stmt)
	}

	var bodyStmts []cst.Stmt
	if s.Body != nil {
		bodyStmts = s.Body.Stmts
	}
	for _, stmt := range bodyStmts {
		switch st := stmt.(type) {
		case cst.CaseStmt:
			segs = append(segs, segment{caseExpr: st.Value})
			cur = &segs[len(segs)-1]
		case cst.DefaultStmt:
			segs = append(segs, segment{isDefault: true})
			cur = &segs[len(segs)-1]
		default:
			pushStmt(stmt)
		}
	}

	pastBlock := b.cur.NewBlock("switch_past", s.Span())
	for i := range segs {
		segs[i].body = b.cur.NewBlock("switch_case_body", s.Span())
	}

	// target is where control falls through to when no case test before it
	// matches: the default segment's body if there is one, otherwise past
	// the whole switch.
	target := pastBlock
	for i := range segs {
		if segs[i].isDefault {
			target = segs[i].body
			break
		}
	}

	origin := b.cur.Block()
	next := target
	for i := len(segs) - 1; i >= 0; i-- {
		if segs[i].isDefault || segs[i].caseExpr == nil {
			continue
		}
		testBlock := b.cur.NewBlock("switch_case_test", s.Span())
		b.cur.SetBlock(testBlock)
		caseValue := b.lowerExpr(segs[i].caseExpr, valueTy)
		eq := b.lowerOperatorCall(token.Eq, false, false, []ir.RegisterId{value, caseValue}, segs[i].caseExpr.Span())
		b.cur.Terminate(ir.GotoIf{Cond: eq, Then: segs[i].body, Else: next})
		next = testBlock
	}
	b.cur.SetBlock(origin)
	b.fallthroughTo(next)

	b.breakStack = append(b.breakStack, pastBlock)
	for i := range segs {
		b.cur.SetBlock(segs[i].body)
		for _, stmt := range segs[i].stmts {
			b.lowerStmt(stmt)
		}
		if i+1 < len(segs) {
			b.fallthroughTo(segs[i+1].body)
		} else {
			b.fallthroughTo(pastBlock)
		}
	}
	b.breakStack = b.breakStack[:len(b.breakStack)-1]

	b.cur.SetBlock(pastBlock)
}

// lowerReturnStmt reproduces the three-way presence mismatch a function's
// declared return type forces: a bare `return;` is only valid in a void
// function, a valued `return expr;` only in a non-void one, each with a
// fix suggesting the other spelling.
func (b *builder) lowerReturnStmt(s cst.ReturnStmt) {
	void := b.fn.ReturnType == types.Void
	switch {
	case s.Value == nil && void:
		v := b.cur.Register(s.Span(), "void", types.Void, ir.VoidValue{})
		b.cur.Terminate(ir.Return{Value: v})

	case s.Value == nil && !void:
		d := b.diagAt(diag.Error, s.Span(), "function %s must return a value of type %s", b.fn.MangledName, b.typeName(b.fn.ReturnType))
		d.WithFix(b.pos(s.Span()), "return SomeValueHere;", "return a value")
		b.push(d)
		v := b.cur.Register(s.Span(), "missing_return", b.fn.ReturnType, ir.VoidValue{})
		b.cur.Terminate(ir.Return{Value: v})

	case s.Value != nil && void:
		d := b.diagAt(diag.Error, s.Span(), "function %s does not return a value", b.fn.MangledName)
		d.WithFix(b.pos(s.Span()), "return;", "discard the value")
		b.push(d)
		reg := b.lowerExpr(s.Value, types.Void)
		b.cur.Sink(s.Span(), ir.Discard{Value: reg})
		v := b.cur.Register(s.Span(), "void", types.Void, ir.VoidValue{})
		b.cur.Terminate(ir.Return{Value: v})

	default:
		reg := b.coerce(b.lowerExpr(s.Value, b.fn.ReturnType), b.fn.ReturnType, s.Value.Span())
		b.cur.Terminate(ir.Return{Value: reg})
	}

	b.cur.SetBlock(b.cur.NewBlock("unreachable_after_return", s.Span()))
}

func (b *builder) lowerBreakStmt(s cst.BreakStmt) {
	if len(b.breakStack) == 0 {
		b.errorf(s.Span(), "`break` outside of a loop or switch")
	} else {
		b.cur.Terminate(ir.Goto{Target: b.breakStack[len(b.breakStack)-1]})
	}
	b.cur.SetBlock(b.cur.NewBlock("unreachable_after_break", s.Span()))
}

func (b *builder) lowerContinueStmt(s cst.ContinueStmt) {
	if len(b.continueStack) == 0 {
		b.errorf(s.Span(), "`continue` outside of a loop")
	} else {
		b.cur.Terminate(ir.Goto{Target: b.continueStack[len(b.continueStack)-1]})
	}
	b.cur.SetBlock(b.cur.NewBlock("unreachable_after_continue", s.Span()))
}
