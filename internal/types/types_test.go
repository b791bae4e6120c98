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

package types_test

import (
	"strings"
	"testing"

	"github.com/muscript-lang/muscript/internal/cst"
	"github.com/muscript-lang/muscript/internal/diag"
	"github.com/muscript-lang/muscript/internal/lexer"
	"github.com/muscript-lang/muscript/internal/parse"
	"github.com/muscript-lang/muscript/internal/source"
	"github.com/muscript-lang/muscript/internal/token"
	"github.com/muscript-lang/muscript/internal/tokstream"
	"github.com/muscript-lang/muscript/internal/types"
)

// fakeEnv is a tiny stand-in for the real class environment: just enough
// name tables to drive Resolve's lookups.
type fakeEnv struct {
	classes map[string]types.ClassId
	structs map[string]types.ClassId
	enums   map[string]types.ClassId
}

func (e *fakeEnv) FindClass(name string) (types.ClassId, bool) {
	id, ok := e.classes[strings.ToLower(name)]
	return id, ok
}

func (e *fakeEnv) FindStruct(class types.ClassId, name string) (types.ClassId, bool) {
	id, ok := e.structs[strings.ToLower(name)]
	return id, ok
}

func (e *fakeEnv) FindEnum(class types.ClassId, name string) (types.ClassId, bool) {
	id, ok := e.enums[strings.ToLower(name)]
	return id, ok
}

func parseType(t *testing.T, text string) (*cst.Type, *cst.Ctx) {
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
	return cst.ParseType(p, c), c
}

func TestResolvePrimitive(t *testing.T) {
	table := types.NewTable()
	env := &fakeEnv{}
	log := &diag.Log{}
	ty, c := parseType(t, "int")

	got := types.Resolve(table, env, log, c, types.ClassIdInvalid, ty)
	if got != types.Int {
		t.Fatalf("expected Int, got %v", table.Get(got))
	}
	if log.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", log.Diagnostics())
	}
}

func TestResolveArrayOfInt(t *testing.T) {
	table := types.NewTable()
	env := &fakeEnv{}
	log := &diag.Log{}
	ty, c := parseType(t, "Array<int>")

	got := types.Resolve(table, env, log, c, types.ClassIdInvalid, ty)
	shape := table.Get(got)
	if shape.Kind != types.KindArray || shape.Elem != types.Int {
		t.Fatalf("expected Array(Int), got %#v", shape)
	}
	if log.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", log.Diagnostics())
	}

	// Resolving the same shape twice must share one Id.
	again, _ := parseType(t, "Array<int>")
	gotAgain := types.Resolve(table, env, log, c, types.ClassIdInvalid, again)
	if gotAgain != got {
		t.Fatalf("expected memoised Array(Int) to reuse its Id, got %v and %v", got, gotAgain)
	}
}

func TestResolveClassMeta(t *testing.T) {
	table := types.NewTable()
	env := &fakeEnv{classes: map[string]types.ClassId{"pawn": 5}}
	log := &diag.Log{}
	ty, c := parseType(t, "Class<Pawn>")

	got := types.Resolve(table, env, log, c, types.ClassIdInvalid, ty)
	shape := table.Get(got)
	if shape.Kind != types.KindClass || shape.Class != 5 {
		t.Fatalf("expected Class(5), got %#v", shape)
	}
}

func TestResolveDeclaredClass(t *testing.T) {
	table := types.NewTable()
	env := &fakeEnv{classes: map[string]types.ClassId{"pawn": 5}}
	log := &diag.Log{}
	ty, c := parseType(t, "Pawn")

	got := types.Resolve(table, env, log, c, types.ClassIdInvalid, ty)
	shape := table.Get(got)
	if shape.Kind != types.KindObject || shape.Class != 5 {
		t.Fatalf("expected Object(5), got %#v", shape)
	}
}

func TestResolveEnclosingStruct(t *testing.T) {
	table := types.NewTable()
	env := &fakeEnv{structs: map[string]types.ClassId{"point": 3}}
	log := &diag.Log{}
	ty, c := parseType(t, "Point")

	got := types.Resolve(table, env, log, c, 3, ty)
	shape := table.Get(got)
	if shape.Kind != types.KindStruct || shape.Name != "Point" {
		t.Fatalf("expected Struct(Point), got %#v", shape)
	}
}

func TestResolveUnknownTypeIsError(t *testing.T) {
	table := types.NewTable()
	env := &fakeEnv{}
	log := &diag.Log{}
	ty, c := parseType(t, "Nonexistent")

	got := types.Resolve(table, env, log, c, types.ClassIdInvalid, ty)
	if got != types.Error {
		t.Fatalf("expected Error, got %v", table.Get(got))
	}
	if !log.HasErrors() {
		t.Fatalf("expected a diagnostic for an unknown type")
	}
}

func TestResolveGenericArgsOnNonGenericTypeRejected(t *testing.T) {
	table := types.NewTable()
	env := &fakeEnv{classes: map[string]types.ClassId{"pawn": 5}}
	log := &diag.Log{}
	ty, c := parseType(t, "Pawn<int>")

	types.Resolve(table, env, log, c, types.ClassIdInvalid, ty)
	if !log.HasErrors() {
		t.Fatalf("expected a diagnostic rejecting the type arguments")
	}
}

func TestResolveTwoSegmentPathNotYetSupported(t *testing.T) {
	table := types.NewTable()
	env := &fakeEnv{}
	log := &diag.Log{}
	ty, c := parseType(t, "Outer.Inner")

	got := types.Resolve(table, env, log, c, types.ClassIdInvalid, ty)
	if got != types.Error {
		t.Fatalf("expected Error for a two-segment path, got %v", table.Get(got))
	}
	if !log.HasErrors() {
		t.Fatalf("expected a diagnostic for a two-segment path")
	}
}
