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

package env_test

import (
	"testing"

	"github.com/muscript-lang/muscript/internal/cst"
	"github.com/muscript-lang/muscript/internal/diag"
	"github.com/muscript-lang/muscript/internal/env"
	"github.com/muscript-lang/muscript/internal/lexer"
	"github.com/muscript-lang/muscript/internal/parse"
	"github.com/muscript-lang/muscript/internal/partition"
	"github.com/muscript-lang/muscript/internal/source"
	"github.com/muscript-lang/muscript/internal/token"
	"github.com/muscript-lang/muscript/internal/tokstream"
	"github.com/muscript-lang/muscript/internal/types"
)

func buildFile(t *testing.T, filename, text string) (*partition.Partition, *cst.Ctx) {
	t.Helper()
	fs := &source.FileSet{}
	id := fs.Add("Test", filename, filename, text)
	arena := source.NewArena[token.Token]()
	arena.BeginFile(id)
	span := lexer.Lex(text, arena)

	out := tokstream.NewSliced()
	out.PushSlice(tokstream.Slice{Start: span.Start, End: span.End})

	log := &diag.Log{}
	r := tokstream.NewReader(arena, out)
	p := parse.New(r, log, id)
	c := &cst.Ctx{Arena: arena, File: fs.File(id)}
	f := cst.ParseFile(p, c)
	return partition.Build(f, id, c, log), c
}

// literalIntEvaluator folds `const X = <int literal>;` bodies only, enough
// to exercise ClassVar's const path without depending on
// internal/consteval.
type literalIntEvaluator struct{}

func (literalIntEvaluator) EvalConst(class env.ClassId, c *cst.Ctx, expr cst.Expr) (env.ConstValue, bool) {
	lit, ok := expr.(cst.LiteralExpr)
	if !ok {
		return env.ConstValue{}, false
	}
	text := c.Text(lit.Id)
	n := 0
	for _, r := range text {
		if r < '0' || r > '9' {
			return env.ConstValue{}, false
		}
		n = n*10 + int(r-'0')
	}
	return env.ConstValue{Kind: env.ConstInt, Int: int32(n)}, true
}

func TestFunctionInClassResolvesSignature(t *testing.T) {
	part, c := buildFile(t, "Actor.uc", "class Actor extends Object; function Hit(int Damage) { Health -= Damage; }")
	diags := &diag.Log{}
	e := env.NewEnv(diags)
	classId := e.DeclareClass("Actor", part, c)

	fid, ok := e.FunctionInClass(classId, "Hit")
	if !ok {
		t.Fatalf("expected Hit to resolve")
	}
	fn := e.Function(fid)
	if len(fn.Params) != 1 {
		t.Fatalf("expected 1 param, got %d", len(fn.Params))
	}
	p := e.Var(fn.Params[0].Var)
	if p.Type != types.Int {
		t.Fatalf("expected the param to be Int, got %v", e.Types.Get(p.Type))
	}

	if _, stillThere := part.Functions.Lookup("Hit"); !stillThere {
		t.Fatalf("expected Hit's CST fragment to be put back after analysis")
	}
}

func TestLookupFunctionWalksSuperChain(t *testing.T) {
	actorPart, actorCtx := buildFile(t, "Actor.uc", "class Actor extends Object;")
	basePart, baseCtx := buildFile(t, "Pawn.uc", "class Pawn extends Actor; function TakeDamage(int Amount) { return; }")
	subPart, subCtx := buildFile(t, "PlayerPawn.uc", "class PlayerPawn extends Pawn;")

	diags := &diag.Log{}
	e := env.NewEnv(diags)
	e.DeclareClass("Actor", actorPart, actorCtx)
	e.DeclareClass("Pawn", basePart, baseCtx)
	subId := e.DeclareClass("PlayerPawn", subPart, subCtx)

	fid, ok := e.LookupFunction(subId, "takedamage")
	if !ok {
		t.Fatalf("expected TakeDamage to resolve via the super chain")
	}
	if e.Function(fid).MangledName != "TakeDamage" {
		t.Fatalf("expected the resolved function to be TakeDamage, got %s", e.Function(fid).MangledName)
	}
}

func TestClassVarResolvesConst(t *testing.T) {
	part, c := buildFile(t, "Test.uc", "class Test extends Object; const MaxHealth = 100;")
	diags := &diag.Log{}
	e := env.NewEnv(diags)
	e.Eval = literalIntEvaluator{}
	classId := e.DeclareClass("Test", part, c)

	vid, ok := e.ClassVar(classId, "MaxHealth")
	if !ok {
		t.Fatalf("expected MaxHealth to resolve")
	}
	v := e.Var(vid)
	if v.Kind != env.VarKindConst || !v.Const.Ok || v.Const.Value.Int != 100 {
		t.Fatalf("expected a resolved const 100, got %#v", v)
	}
}

func TestPartialClassPartitionsMerge(t *testing.T) {
	partA, ctxA := buildFile(t, "Actor_A.uc", "class Actor extends Object; function A() { return; }")
	partB, ctxB := buildFile(t, "Actor_B.uc", "class Actor extends Object; function B() { return; }")

	diags := &diag.Log{}
	e := env.NewEnv(diags)
	classId := e.DeclareClass("Actor", partA, ctxA)
	sameId := e.DeclareClass("Actor", partB, ctxB)
	if classId != sameId {
		t.Fatalf("expected the second partial-class declaration to merge into the first")
	}

	if _, ok := e.FunctionInClass(classId, "A"); !ok {
		t.Fatalf("expected A from the first partition to resolve")
	}
	if _, ok := e.FunctionInClass(classId, "B"); !ok {
		t.Fatalf("expected B from the second partition to resolve")
	}
}

func TestSuperChainIsRestartable(t *testing.T) {
	diags := &diag.Log{}
	e := env.NewEnv(diags)
	part, c := buildFile(t, "Pawn.uc", "class Pawn extends Object;")
	classId := e.DeclareClass("Pawn", part, c)

	first := walk(e, classId)
	second := walk(e, classId)
	if len(first) != len(second) || len(first) != 2 {
		t.Fatalf("expected two independent walks of length 2, got %v and %v", first, second)
	}
}

func walk(e *env.Env, start env.ClassId) []env.ClassId {
	var out []env.ClassId
	w := e.Super(start)
	for {
		id, ok := w.Next()
		if !ok {
			return out
		}
		out = append(out, id)
	}
}

func TestFindStructWalksSuperChain(t *testing.T) {
	basePart, baseCtx := buildFile(t, "Base.uc", "class Base extends Object; struct Point { var int X; }")
	subPart, subCtx := buildFile(t, "Sub.uc", "class Sub extends Base;")

	diags := &diag.Log{}
	e := env.NewEnv(diags)
	e.DeclareClass("Base", basePart, baseCtx)
	subId := e.DeclareClass("Sub", subPart, subCtx)

	outer, ok := e.FindStruct(subId, "Point")
	if !ok {
		t.Fatalf("expected Point to be found via the super chain")
	}
	cs, ok := e.ClassStructLookup(outer, "Point")
	if !ok || cs.Name != "Point" {
		t.Fatalf("expected ClassStructLookup(outer, Point) to find the struct")
	}
}
