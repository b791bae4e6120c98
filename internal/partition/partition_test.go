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

package partition_test

import (
	"testing"

	"github.com/muscript-lang/muscript/internal/cst"
	"github.com/muscript-lang/muscript/internal/diag"
	"github.com/muscript-lang/muscript/internal/lexer"
	"github.com/muscript-lang/muscript/internal/parse"
	"github.com/muscript-lang/muscript/internal/partition"
	"github.com/muscript-lang/muscript/internal/source"
	"github.com/muscript-lang/muscript/internal/token"
	"github.com/muscript-lang/muscript/internal/tokstream"
)

func buildPartition(t *testing.T, text string) (*partition.Partition, *diag.Log) {
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
	f := cst.ParseFile(p, c)
	return partition.Build(f, id, c, log), log
}

func TestVarSplitting(t *testing.T) {
	part, log := buildPartition(t, "class X; var int a, b, c;")
	if log.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", log.Diagnostics())
	}
	if part.Vars.Len() != 3 {
		t.Fatalf("expected 3 split vars, got %d: %v", part.Vars.Len(), part.Vars.Names())
	}
	for _, name := range []string{"a", "b", "c"} {
		if _, ok := part.Vars.Lookup(name); !ok {
			t.Fatalf("expected a var entry for %q", name)
		}
	}
}

func TestSimulatedFunctionUnwrapped(t *testing.T) {
	part, log := buildPartition(t, "class X; simulated function Foo() { return; }")
	if log.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", log.Diagnostics())
	}
	if part.Functions.Len() != 1 {
		t.Fatalf("expected 1 function, got %d", part.Functions.Len())
	}
	fn, ok := part.Functions.Lookup("Foo")
	if !ok {
		t.Fatalf("expected a function named Foo")
	}
	if len(fn.PreSpecifiers) != 1 {
		t.Fatalf("expected the simulated wrapper to become a specifier, got %#v", fn.PreSpecifiers)
	}
}

func TestSimulatedStateUnwrapped(t *testing.T) {
	part, log := buildPartition(t, "class X; simulated state Idle { function Foo() { return; } }")
	if log.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", log.Diagnostics())
	}
	state, ok := part.States.Lookup("Idle")
	if !ok {
		t.Fatalf("expected a state named Idle")
	}
	if len(state.Decl.Specifiers) != 1 {
		t.Fatalf("expected the simulated wrapper to become a state specifier, got %#v", state.Decl.Specifiers)
	}
	if state.Functions.Len() != 1 {
		t.Fatalf("expected 1 function inside the state, got %d", state.Functions.Len())
	}
}

func TestInlineStructLifted(t *testing.T) {
	part, log := buildPartition(t, "class X; var struct Point { var int X, Y; } Location;")
	if log.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", log.Diagnostics())
	}
	if _, ok := part.Structs.Lookup("Point"); !ok {
		t.Fatalf("expected Point to be lifted into the struct table")
	}
	if _, ok := part.Vars.Lookup("Location"); !ok {
		t.Fatalf("expected Location to still be declared as a var")
	}
}

func TestStructDefaultPropertiesCanonicalizedInsideStruct(t *testing.T) {
	part, log := buildPartition(t, `class X;
struct Point {
	var int X;
	structdefaultproperties { X = 0 }
}`)
	if log.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", log.Diagnostics())
	}
	sd, ok := part.Structs.Lookup("Point")
	if !ok {
		t.Fatalf("expected a struct named Point")
	}
	var found bool
	for _, item := range sd.Items {
		if dp, ok := item.(cst.DefaultPropertiesItem); ok {
			found = true
			if dp.IsStruct {
				t.Fatalf("expected structdefaultproperties to be canonicalised to defaultproperties")
			}
		}
	}
	if !found {
		t.Fatalf("expected to find the default-properties item inside the struct")
	}
}

func TestDuplicateConstReported(t *testing.T) {
	_, log := buildPartition(t, "class X; const A = 1; const A = 2;")
	if !log.HasErrors() {
		t.Fatalf("expected a duplicate-declaration diagnostic")
	}
}

func TestOperatorOverloadsMangledDistinctly(t *testing.T) {
	part, log := buildPartition(t, `class X;
operator(20) int + (int a, int b) { return a; }
operator(20) float + (float a, float b) { return a; }
preoperator int - (int a) { return a; }`)
	if log.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", log.Diagnostics())
	}
	if part.Functions.Len() != 3 {
		t.Fatalf("expected 3 distinctly-mangled operator overloads, got %d: %v", part.Functions.Len(), part.Functions.Names())
	}
}

func TestOnlyOneDefaultPropertiesBlockAllowed(t *testing.T) {
	_, log := buildPartition(t, "class X; defaultproperties { A = 1 } defaultproperties { B = 2 }")
	if !log.HasErrors() {
		t.Fatalf("expected a diagnostic for the second defaultproperties block")
	}
}
