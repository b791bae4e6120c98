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

package cst_test

import (
	"testing"

	"github.com/muscript-lang/muscript/internal/cst"
	"github.com/muscript-lang/muscript/internal/diag"
	"github.com/muscript-lang/muscript/internal/lexer"
	"github.com/muscript-lang/muscript/internal/parse"
	"github.com/muscript-lang/muscript/internal/source"
	"github.com/muscript-lang/muscript/internal/token"
	"github.com/muscript-lang/muscript/internal/tokstream"
)

// newFile lexes text (no preprocessing) and returns a ready Parser plus
// cst.Ctx and the diagnostic log it reports to.
func newFile(t *testing.T, text string) (*parse.Parser, *cst.Ctx, *diag.Log) {
	t.Helper()
	fs := &source.FileSet{}
	id := fs.Add("Test", "Test.uc", "Test.uc", text)
	arena := source.NewArena[token.Token]()
	arena.BeginFile(id)
	span := lexer.Lex(text, arena)

	out := tokstream.NewSliced()
	out.PushSlice(tokstream.Slice{Start: span.Start, End: span.End})

	log := &diag.Log{}
	r := tokstream.NewReader(arena, out)
	p := parse.New(r, log, id)
	c := &cst.Ctx{Arena: arena, File: fs.File(id)}
	return p, c, log
}

func TestParseClassHeader(t *testing.T) {
	p, c, log := newFile(t, "class Foo extends Bar within Baz config(Game);")
	h := cst.ParseClassHeader(p, c)
	if log.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", log)
	}
	if h.Extends == nil || len(h.Extends.Segments) != 1 {
		t.Fatalf("expected a single-segment extends clause, got %#v", h.Extends)
	}
	if h.Within == nil {
		t.Fatalf("expected a within clause")
	}
	if len(h.Specifiers) != 1 {
		t.Fatalf("expected one specifier, got %d", len(h.Specifiers))
	}
}

func TestParseVarItemMultipleDeclarators(t *testing.T) {
	p, c, log := newFile(t, "class X; var int a, b[4];")
	f := cst.ParseFile(p, c)
	if log.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", log)
	}
	if len(f.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(f.Items))
	}
	v, ok := f.Items[0].(cst.VarItem)
	if !ok {
		t.Fatalf("expected VarItem, got %T", f.Items[0])
	}
	if len(v.Decls) != 2 {
		t.Fatalf("expected 2 declarators, got %d", len(v.Decls))
	}
	if v.Decls[1].ArraySize == nil {
		t.Fatalf("expected second declarator to carry an array size")
	}
}

func TestParseFunctionItemWithBody(t *testing.T) {
	p, c, log := newFile(t, "class X; function int Add(int a, int b) { return a + b; }")
	f := cst.ParseFile(p, c)
	if log.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", log)
	}
	if len(f.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(f.Items))
	}
	fn, ok := f.Items[0].(cst.FunctionItem)
	if !ok {
		t.Fatalf("expected FunctionItem, got %T", f.Items[0])
	}
	if fn.Kind != cst.FuncFunction || fn.IsStub {
		t.Fatalf("expected a non-stub function, got %#v", fn)
	}
	if len(fn.Params) != 2 {
		t.Fatalf("expected 2 parameters, got %d", len(fn.Params))
	}
	if len(fn.Body) != 1 {
		t.Fatalf("expected 1 statement in body, got %d", len(fn.Body))
	}
	ret, ok := fn.Body[0].(cst.ReturnStmt)
	if !ok {
		t.Fatalf("expected a ReturnStmt, got %T", fn.Body[0])
	}
	if _, ok := ret.Value.(cst.InfixExpr); !ok {
		t.Fatalf("expected the return value to be an InfixExpr, got %T", ret.Value)
	}
}

func TestExpressionPrecedenceLeftAssociative(t *testing.T) {
	// `a + b * c - d` should parse as `(a + (b * c)) - d`.
	p, c, _ := newFile(t, "a + b * c - d")
	expr := cst.ParseExpr(p, c, cst.MaxPrec)
	outer, ok := expr.(cst.InfixExpr)
	if !ok || outer.OpKind != token.Minus {
		t.Fatalf("expected top-level `-`, got %#v", expr)
	}
	left, ok := outer.Left.(cst.InfixExpr)
	if !ok || left.OpKind != token.Plus {
		t.Fatalf("expected left operand to be `+`, got %#v", outer.Left)
	}
	if _, ok := left.Right.(cst.InfixExpr); !ok {
		t.Fatalf("expected `b * c` nested as the right operand of `+`, got %#v", left.Right)
	}
}

func TestExpressionAssignIsRightAssociative(t *testing.T) {
	p, c, _ := newFile(t, "a = b = c")
	expr := cst.ParseExpr(p, c, cst.MaxPrec)
	outer, ok := expr.(cst.InfixExpr)
	if !ok || outer.OpKind != token.Assign {
		t.Fatalf("expected top-level `=`, got %#v", expr)
	}
	if _, ok := outer.Right.(cst.InfixExpr); !ok {
		t.Fatalf("expected `b = c` nested as the right operand, got %#v", outer.Right)
	}
}

func TestParseArgumentListPreservesOmittedArguments(t *testing.T) {
	p, c, _ := newFile(t, "Foo(a,)")
	expr := cst.ParseExpr(p, c, cst.MaxPrec)
	call, ok := expr.(cst.CallExpr)
	if !ok {
		t.Fatalf("expected a CallExpr, got %#v", expr)
	}
	if len(call.Args) != 2 || call.Args[0] == nil || call.Args[1] != nil {
		t.Fatalf("expected [a, nil], got %#v", call.Args)
	}
}

func TestParseRecoversFromMalformedVarDeclaration(t *testing.T) {
	// A bare trailing comma before the terminating `;` is malformed; the
	// parser should still recover enough to find the second `var` item and
	// report at least one diagnostic, and the class header is still parsed.
	p, c, log := newFile(t, "class X; var int a, ; var int b;")
	f := cst.ParseFile(p, c)
	if f.Header == nil {
		t.Fatalf("expected the class header to still be parsed")
	}
	if !log.HasErrors() {
		t.Fatalf("expected at least one diagnostic from the malformed declaration")
	}
	var varItems int
	for _, it := range f.Items {
		if _, ok := it.(cst.VarItem); ok {
			varItems++
		}
	}
	if varItems != 2 {
		t.Fatalf("expected both var items to still be found, got %d", varItems)
	}
}

func TestParseDefaultPropertiesBlock(t *testing.T) {
	p, c, log := newFile(t, `{
		Health = 100
		Tag = "Enemy"
		Contents(0) = 1
		Items = (1, 2, 3)
		Location = (X=1.0, Y=2.0, Z=3.0)
	}`)
	block := cst.ParseDefaultPropertiesBlock(p, c)
	if log.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", log)
	}
	if len(block.Properties) != 5 {
		t.Fatalf("expected 5 properties, got %d", len(block.Properties))
	}
	loc, ok := block.Properties[4].(*cst.DefaultValue)
	if !ok {
		t.Fatalf("expected a *DefaultValue, got %T", block.Properties[4])
	}
	assign, ok := loc.Action.(cst.AssignAction)
	if !ok {
		t.Fatalf("expected an AssignAction, got %T", loc.Action)
	}
	compound, ok := assign.Value.(cst.DPCompoundLit)
	if !ok || len(compound.Elements) != 3 {
		t.Fatalf("expected a 3-field compound literal, got %#v", assign.Value)
	}
}

func TestParseDefaultPropertiesSubobject(t *testing.T) {
	p, c, log := newFile(t, `{
		Begin Object Class=Texture Name=Icon
			Width = 64
		End Object
	}`)
	block := cst.ParseDefaultPropertiesBlock(p, c)
	if log.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", log)
	}
	if len(block.Properties) != 1 {
		t.Fatalf("expected 1 property, got %d", len(block.Properties))
	}
	so, ok := block.Properties[0].(*cst.DefaultSubobject)
	if !ok {
		t.Fatalf("expected a *DefaultSubobject, got %T", block.Properties[0])
	}
	if len(so.Properties) != 3 {
		t.Fatalf("expected 3 properties (Class, Name, Width) inside the subobject, got %d", len(so.Properties))
	}
}

func TestParseWhileAndIfStatements(t *testing.T) {
	p, c, log := newFile(t, "class X; function Run() { while (a < b) { if (a == 0) break; else continue; } }")
	f := cst.ParseFile(p, c)
	if log.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", log)
	}
	fn := f.Items[0].(cst.FunctionItem)
	if len(fn.Body) != 1 {
		t.Fatalf("expected 1 top-level statement, got %d", len(fn.Body))
	}
	ws, ok := fn.Body[0].(cst.WhileStmt)
	if !ok {
		t.Fatalf("expected a WhileStmt, got %T", fn.Body[0])
	}
	block, ok := ws.Body.(*cst.BlockStmt)
	if !ok || len(block.Stmts) != 1 {
		t.Fatalf("expected a 1-statement block body, got %#v", ws.Body)
	}
	ifs, ok := block.Stmts[0].(cst.IfStmt)
	if !ok {
		t.Fatalf("expected an IfStmt, got %T", block.Stmts[0])
	}
	if _, ok := ifs.Then.(cst.BreakStmt); !ok {
		t.Fatalf("expected the then-branch to be a BreakStmt, got %T", ifs.Then)
	}
	if _, ok := ifs.Else.(cst.ContinueStmt); !ok {
		t.Fatalf("expected the else-branch to be a ContinueStmt, got %T", ifs.Else)
	}
}

func TestParseLabelStatement(t *testing.T) {
	p, c, log := newFile(t, "class X; function Run() { Retry: DoThing(); }")
	f := cst.ParseFile(p, c)
	if log.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", log)
	}
	fn := f.Items[0].(cst.FunctionItem)
	if len(fn.Body) != 2 {
		t.Fatalf("expected 2 statements (label, call), got %d", len(fn.Body))
	}
	labelStmt, ok := fn.Body[0].(cst.ExprStmt)
	if !ok {
		t.Fatalf("expected an ExprStmt wrapping the label, got %T", fn.Body[0])
	}
	if _, ok := labelStmt.Expr.(cst.LabelExpr); !ok {
		t.Fatalf("expected a LabelExpr, got %T", labelStmt.Expr)
	}
}

func TestParseDoUntilAndForEach(t *testing.T) {
	p, c, log := newFile(t, "class X; function Run() { do { x += 1; } until (x >= 10); foreach AllActors(class'Pawn', p) { p.Health = 0; } }")
	f := cst.ParseFile(p, c)
	if log.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", log)
	}
	fn := f.Items[0].(cst.FunctionItem)
	if len(fn.Body) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(fn.Body))
	}
	du, ok := fn.Body[0].(cst.DoUntilStmt)
	if !ok || du.Body == nil {
		t.Fatalf("expected a DoUntilStmt with a block body, got %#v", fn.Body[0])
	}
	fe, ok := fn.Body[1].(cst.ForEachStmt)
	if !ok {
		t.Fatalf("expected a ForEachStmt, got %T", fn.Body[1])
	}
	if _, ok := fe.Iterator.(cst.CallExpr); !ok {
		t.Fatalf("expected the iterator to be a CallExpr, got %T", fe.Iterator)
	}
}
