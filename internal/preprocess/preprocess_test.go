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

package preprocess_test

import (
	"testing"

	"github.com/muscript-lang/muscript/internal/diag"
	"github.com/muscript-lang/muscript/internal/lexer"
	"github.com/muscript-lang/muscript/internal/preprocess"
	"github.com/muscript-lang/muscript/internal/source"
	"github.com/muscript-lang/muscript/internal/token"
	"github.com/muscript-lang/muscript/internal/tokstream"
)

func run(t *testing.T, text string) ([]token.Token, *diag.Log, *source.File) {
	t.Helper()
	fs := &source.FileSet{}
	id := fs.Add("Test", "Test.uc", "Test.uc", text)
	file := fs.File(id)
	arena := source.NewArena[token.Token]()
	arena.BeginFile(id)
	span := lexer.Lex(text, arena)

	log := &diag.Log{}
	out := tokstream.NewSliced()
	pp := preprocess.New(file, arena, span, preprocess.NewDefinitions(), out, log)
	pp.Preprocess()

	r := tokstream.NewReader(arena, out)
	var toks []token.Token
	for {
		_, tok := r.Next(tokstream.Normal, token.All)
		toks = append(toks, tok)
		if tok.Kind == token.EndOfFile {
			break
		}
	}
	return toks, log, file
}

func codeKinds(t *testing.T, text string) []token.Kind {
	t.Helper()
	fs := &source.FileSet{}
	id := fs.Add("Test", "Test.uc", "Test.uc", text)
	file := fs.File(id)
	arena := source.NewArena[token.Token]()
	arena.BeginFile(id)
	span := lexer.Lex(text, arena)

	log := &diag.Log{}
	out := tokstream.NewSliced()
	pp := preprocess.New(file, arena, span, preprocess.NewDefinitions(), out, log)
	pp.Preprocess()

	r := tokstream.NewReader(arena, out)
	var kinds []token.Kind
	for {
		_, tok := r.Next(tokstream.Normal, token.Default)
		kinds = append(kinds, tok.Kind)
		if tok.Kind == token.EndOfFile {
			break
		}
	}
	return kinds
}

func assertKinds(t *testing.T, got []token.Kind, want ...token.Kind) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("kind count mismatch: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v want %v (all: %v)", i, got[i], want[i], got)
		}
	}
}

func TestIdentityWithoutDirectives(t *testing.T) {
	const src = "class Actor extends Object;"
	got := codeKinds(t, src)
	assertKinds(t, got,
		token.Ident, token.Ident, token.Ident, token.Ident, token.Semi, token.EndOfFile)
}

func TestPlainMacroExpansion(t *testing.T) {
	const src = "`define FOO 42\nvar int X = `FOO;"
	got := codeKinds(t, src)
	assertKinds(t, got,
		token.Ident, token.Ident, token.Ident, token.Assign, token.IntLit, token.Semi, token.EndOfFile)
}

func TestUndefinedMacroYieldsFailedExp(t *testing.T) {
	const src = "var int X = `FOO;"
	toks, log, file := run(t, src)
	_ = file
	foundFailed := false
	for _, tok := range toks {
		if tok.Kind == token.FailedExp {
			foundFailed = true
		}
	}
	if !foundFailed {
		t.Fatalf("expected a FailedExp token for an undefined macro, got %v", toks)
	}
	if !log.HasErrors() {
		t.Fatalf("expected an error diagnostic for an undefined macro")
	}
}

func TestIsDefinedNotDefinedComplementarity(t *testing.T) {
	definedCase := "`define FOO\n`isdefined(FOO)"
	toks, _, _ := run(t, definedCase)
	if len(toks) <= 1 {
		t.Fatalf("isdefined(FOO) with FOO defined should not be empty, got %v", toks)
	}

	definedCase = "`define FOO\n`notdefined(FOO)"
	toks, _, _ = run(t, definedCase)
	onlyFailedAndEOF := true
	for _, tok := range toks {
		if tok.Kind != token.FailedExp && tok.Kind != token.EndOfFile {
			onlyFailedAndEOF = false
		}
	}
	if !onlyFailedAndEOF {
		t.Fatalf("notdefined(FOO) with FOO defined should be empty, got %v", toks)
	}

	undefinedCase := "`isdefined(BAR)"
	toks, _, _ = run(t, undefinedCase)
	onlyFailedAndEOF = true
	for _, tok := range toks {
		if tok.Kind != token.FailedExp && tok.Kind != token.EndOfFile {
			onlyFailedAndEOF = false
		}
	}
	if !onlyFailedAndEOF {
		t.Fatalf("isdefined(BAR) with BAR undefined should be empty, got %v", toks)
	}

	undefinedCase = "`notdefined(BAR)"
	toks, _, _ = run(t, undefinedCase)
	if len(toks) <= 1 {
		t.Fatalf("notdefined(BAR) with BAR undefined should not be empty, got %v", toks)
	}
}

func TestIfElseEndif(t *testing.T) {
	const takenBranch = "`define FLAG\n`if(`isdefined(FLAG))\nvar int A;\n`else\nvar int B;\n`endif"
	got := codeKinds(t, takenBranch)
	assertKinds(t, got, token.Ident, token.Ident, token.Ident, token.Semi, token.EndOfFile)

	const skippedBranch = "`if(`isdefined(FLAG))\nvar int A;\n`else\nvar int B;\n`endif"
	got = codeKinds(t, skippedBranch)
	assertKinds(t, got, token.Ident, token.Ident, token.Ident, token.Semi, token.EndOfFile)
}

func TestParameterisedMacro(t *testing.T) {
	const src = "`define ADD(a, b) `a + `b\nvar int X = `ADD(1, 2);"
	got := codeKinds(t, src)
	assertKinds(t, got,
		token.Ident, token.Ident, token.Ident, token.Assign,
		token.IntLit, token.Plus, token.IntLit,
		token.Semi, token.EndOfFile)
}

func TestMacroArgumentFolding(t *testing.T) {
	const src = "`define FIRST(a) `a\nvar int X = `FIRST(1, 2, 3);"
	got := codeKinds(t, src)
	assertKinds(t, got,
		token.Ident, token.Ident, token.Ident, token.Assign,
		token.IntLit, token.Comma, token.IntLit, token.Comma, token.IntLit,
		token.Semi, token.EndOfFile)
}

func TestUndefineRemovesMacro(t *testing.T) {
	const src = "`define FOO 1\n`undefine(FOO)\nvar int X = `FOO;"
	_, log, _ := run(t, src)
	if !log.HasErrors() {
		t.Fatalf("expected an error for a macro use after `undefine")
	}
}

func TestStrayElseAndEndifReportErrors(t *testing.T) {
	_, log, _ := run(t, "`else")
	if !log.HasErrors() {
		t.Fatalf("expected an error for a stray `else")
	}

	_, log, _ = run(t, "`endif")
	if !log.HasErrors() {
		t.Fatalf("expected an error for a stray `endif")
	}
}
