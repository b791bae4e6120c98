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

package consteval_test

import (
	"testing"

	"github.com/muscript-lang/muscript/internal/consteval"
	"github.com/muscript-lang/muscript/internal/cst"
	"github.com/muscript-lang/muscript/internal/diag"
	"github.com/muscript-lang/muscript/internal/env"
	"github.com/muscript-lang/muscript/internal/lexer"
	"github.com/muscript-lang/muscript/internal/parse"
	"github.com/muscript-lang/muscript/internal/partition"
	"github.com/muscript-lang/muscript/internal/source"
	"github.com/muscript-lang/muscript/internal/token"
	"github.com/muscript-lang/muscript/internal/tokstream"
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

func TestEvaluatorFoldsArithmeticAndParens(t *testing.T) {
	part, c := buildFile(t, "Test.uc",
		"class Test extends Object; const A = 2; const B = A + 3 * (4 - 1);")
	diags := &diag.Log{}
	e := env.NewEnv(diags)
	e.Eval = consteval.New(e)
	classId := e.DeclareClass("Test", part, c)

	vid, ok := e.ClassVar(classId, "B")
	if !ok {
		t.Fatalf("expected B to resolve")
	}
	v := e.Var(vid)
	if !v.Const.Ok || v.Const.Value.Int != 11 {
		t.Fatalf("expected B to fold to 11, got %#v", v.Const)
	}
}

func TestEvaluatorFoldsComparisonAndLogic(t *testing.T) {
	part, c := buildFile(t, "Test.uc",
		"class Test extends Object; const A = 5; const Big = A > 3 && A < 10;")
	diags := &diag.Log{}
	e := env.NewEnv(diags)
	e.Eval = consteval.New(e)
	classId := e.DeclareClass("Test", part, c)

	vid, ok := e.ClassVar(classId, "Big")
	if !ok {
		t.Fatalf("expected Big to resolve")
	}
	v := e.Var(vid)
	if !v.Const.Ok || !v.Const.Value.Bool {
		t.Fatalf("expected Big to fold to true, got %#v", v.Const)
	}
}

func TestEvaluatorFoldsStringConcat(t *testing.T) {
	part, c := buildFile(t, "Test.uc",
		`class Test extends Object; const Greeting = "Hello, " + "World";`)
	diags := &diag.Log{}
	e := env.NewEnv(diags)
	e.Eval = consteval.New(e)
	classId := e.DeclareClass("Test", part, c)

	vid, ok := e.ClassVar(classId, "Greeting")
	if !ok {
		t.Fatalf("expected Greeting to resolve")
	}
	v := e.Var(vid)
	if !v.Const.Ok {
		t.Fatalf("expected Greeting to fold")
	}
}

func TestEvaluatorRejectsOutOfRangeIntLiteral(t *testing.T) {
	part, c := buildFile(t, "Test.uc",
		"class Test extends Object; const Bad = 9999999999;")
	diags := &diag.Log{}
	e := env.NewEnv(diags)
	e.Eval = consteval.New(e)
	classId := e.DeclareClass("Test", part, c)

	vid, ok := e.ClassVar(classId, "Bad")
	if !ok {
		t.Fatalf("expected Bad to still get a Var even though folding fails")
	}
	v := e.Var(vid)
	if v.Const.Ok {
		t.Fatalf("expected an int64 literal outside int32 range not to fold")
	}
}

func TestEvaluatorRejectsDivisionByZero(t *testing.T) {
	part, c := buildFile(t, "Test.uc",
		"class Test extends Object; const Bad = 1 / 0;")
	diags := &diag.Log{}
	e := env.NewEnv(diags)
	e.Eval = consteval.New(e)
	classId := e.DeclareClass("Test", part, c)

	vid, ok := e.ClassVar(classId, "Bad")
	if !ok {
		t.Fatalf("expected Bad to still get a Var even though folding fails")
	}
	v := e.Var(vid)
	if v.Const.Ok {
		t.Fatalf("expected Bad's division by zero not to fold")
	}
}
