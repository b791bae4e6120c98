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

package analysis_test

import (
	"testing"

	"github.com/muscript-lang/muscript/internal/analysis"
	"github.com/muscript-lang/muscript/internal/cst"
	"github.com/muscript-lang/muscript/internal/diag"
	"github.com/muscript-lang/muscript/internal/env"
	"github.com/muscript-lang/muscript/internal/ir"
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

func declareActorWith(t *testing.T, body string) (*env.Env, env.ClassId, *diag.Log) {
	t.Helper()
	part, c := buildFile(t, "Actor.uc", body)
	diags := &diag.Log{}
	e := env.NewEnv(diags)
	classId := e.DeclareClass("Actor", part, c)
	return e, classId, diags
}

func registerOf(fn *ir.Func, id ir.RegisterId) *ir.Register {
	return fn.Register(id)
}

// findStore returns the first Store sink in fn's single block, if any.
func findStore(fn *ir.Func) (ir.Store, bool) {
	for _, block := range fn.Blocks {
		for _, nodeId := range block.Flow {
			node := fn.Node(nodeId)
			sink, ok := node.Kind.(ir.Sink)
			if !ok {
				continue
			}
			if store, ok := sink.Kind.(ir.Store); ok {
				return store, true
			}
		}
	}
	return ir.Store{}, false
}

func TestAnalyzeFunctionLowersCompoundAssign(t *testing.T) {
	e, classId, diags := declareActorWith(t,
		"class Actor extends Object; var int Health; function Hit(int Damage) { Health -= Damage; }")

	az := analysis.New(e, diags)
	fn, ok := az.AnalyzeFunction(classId, "Hit")
	if !ok {
		t.Fatalf("expected Hit to lower")
	}
	if len(diags.Diagnostics()) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags.Diagnostics())
	}
	if len(fn.Blocks) != 1 {
		t.Fatalf("expected straight-line lowering to stay in one block, got %d", len(fn.Blocks))
	}

	store, ok := findStore(fn)
	if !ok {
		t.Fatalf("expected a Store sink for `Health -= Damage`")
	}
	if !fn.IsPlace(store.Lvalue) {
		t.Fatalf("expected the compound assignment's lvalue to be a place")
	}
	rvalue := registerOf(fn, store.Rvalue)
	call, ok := rvalue.Value.(ir.CallFinal)
	if !ok {
		t.Fatalf("expected the compound assignment's rvalue to be a call, got %#v", rvalue.Value)
	}
	if name := e.Function(call.Function).MangledName; name != "Subtract_Int_Int" {
		t.Fatalf("expected Health -= Damage to resolve to Subtract_Int_Int, got %s", name)
	}
	if len(call.Args) != 2 || call.Args[0] != store.Lvalue {
		t.Fatalf("expected the operator call's first argument to be the same lvalue register that gets stored")
	}

	last := fn.Blocks[0]
	ret, ok := last.Terminator.(ir.Return)
	if !ok {
		t.Fatalf("expected the block to end in a Return, got %#v", last.Terminator)
	}
	if registerOf(fn, ret.Value).Type != types.Void {
		t.Fatalf("expected Hit's implicit return to be void")
	}
}

func TestAnalyzeFunctionMissingReturnReportsDiagnostic(t *testing.T) {
	e, classId, diags := declareActorWith(t,
		"class Actor extends Object; function int GetHealth() { local int X; }")

	az := analysis.New(e, diags)
	fn, ok := az.AnalyzeFunction(classId, "GetHealth")
	if !ok {
		t.Fatalf("expected GetHealth to lower despite the missing return")
	}
	if len(diags.Diagnostics()) == 0 {
		t.Fatalf("expected a missing-return diagnostic")
	}

	last := fn.Blocks[len(fn.Blocks)-1]
	if _, ok := last.Terminator.(ir.Return); !ok {
		t.Fatalf("expected a placeholder Return even after the diagnostic, got %#v", last.Terminator)
	}
}

func TestAnalyzeFunctionReturnValueFromVoidFunctionReportsDiagnostic(t *testing.T) {
	e, classId, diags := declareActorWith(t,
		"class Actor extends Object; function Hit(int Damage) { return Damage; }")

	az := analysis.New(e, diags)
	_, ok := az.AnalyzeFunction(classId, "Hit")
	if !ok {
		t.Fatalf("expected Hit to lower")
	}
	if len(diags.Diagnostics()) == 0 {
		t.Fatalf("expected a diagnostic for returning a value from a void function")
	}
}

func TestAnalyzeFunctionIfElseWiresFourBlocks(t *testing.T) {
	e, classId, diags := declareActorWith(t,
		"class Actor extends Object; var int Health; function Hit(int Damage) { if (Damage > 0) { Health -= Damage; } else { Health -= 0; } }")

	az := analysis.New(e, diags)
	fn, ok := az.AnalyzeFunction(classId, "Hit")
	if !ok {
		t.Fatalf("expected Hit to lower")
	}
	if len(diags.Diagnostics()) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags.Diagnostics())
	}
	// entry, if_then, if_else, if_past
	if len(fn.Blocks) != 4 {
		t.Fatalf("expected 4 blocks for an if/else, got %d", len(fn.Blocks))
	}
	entry := fn.Blocks[0]
	gotoIf, ok := entry.Terminator.(ir.GotoIf)
	if !ok {
		t.Fatalf("expected the entry block to end in GotoIf, got %#v", entry.Terminator)
	}
	if fn.Blocks[gotoIf.Then].Name != "if_then" || fn.Blocks[gotoIf.Else].Name != "if_else" {
		t.Fatalf("expected GotoIf to target if_then/if_else, got %s/%s", fn.Blocks[gotoIf.Then].Name, fn.Blocks[gotoIf.Else].Name)
	}
}

func TestAnalyzeFunctionBreakTargetsSwitchNotEnclosingLoop(t *testing.T) {
	e, classId, diags := declareActorWith(t,
		`class Actor extends Object; var int Health; function Hit(int Damage) {
			while (Damage > 0) {
				switch (Damage) {
					case 1:
						break;
					default:
						Health -= Damage;
				}
				Damage -= 1;
			}
		}`)

	az := analysis.New(e, diags)
	fn, ok := az.AnalyzeFunction(classId, "Hit")
	if !ok {
		t.Fatalf("expected Hit to lower")
	}
	if len(diags.Diagnostics()) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags.Diagnostics())
	}

	var switchPast, whilePast ir.BasicBlockId
	foundSwitchPast, foundWhilePast := false, false
	for i, block := range fn.Blocks {
		switch block.Name {
		case "switch_past":
			switchPast, foundSwitchPast = ir.BasicBlockId(i), true
		case "while_past":
			whilePast, foundWhilePast = ir.BasicBlockId(i), true
		}
	}
	if !foundSwitchPast || !foundWhilePast {
		t.Fatalf("expected both a switch_past and a while_past block")
	}

	var breakGoto ir.Goto
	foundBreak := false
	for _, block := range fn.Blocks {
		if g, ok := block.Terminator.(ir.Goto); ok && g.Target == switchPast {
			breakGoto = g
			foundBreak = true
		}
	}
	if !foundBreak {
		t.Fatalf("expected `break` to Goto the switch's past block")
	}
	if breakGoto.Target == whilePast {
		t.Fatalf("expected `break` inside a switch not to escape the enclosing loop")
	}
}

func TestAnalyzeFunctionTernaryMergesThroughSyntheticLocal(t *testing.T) {
	e, classId, diags := declareActorWith(t,
		"class Actor extends Object; function int Clamp(int Damage) { return Damage > 0 ? Damage : 0; }")

	az := analysis.New(e, diags)
	fn, ok := az.AnalyzeFunction(classId, "Clamp")
	if !ok {
		t.Fatalf("expected Clamp to lower")
	}
	if len(diags.Diagnostics()) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags.Diagnostics())
	}
	// Clamp has one parameter local; the ternary should add exactly one more
	// (the synthetic merge temporary).
	if len(fn.Locals) != 2 {
		t.Fatalf("expected 2 locals (1 param + 1 synthetic merge local), got %d", len(fn.Locals))
	}
}
