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

package lexer_test

import (
	"testing"

	"github.com/muscript-lang/muscript/internal/lexer"
	"github.com/muscript-lang/muscript/internal/source"
	"github.com/muscript-lang/muscript/internal/token"
)

func lexAll(t *testing.T, text string) []token.Token {
	t.Helper()
	arena := source.NewArena[token.Token]()
	arena.BeginFile(1)
	span := lexer.Lex(text, arena)
	var out []token.Token
	for id := span.Start; id <= span.End; id++ {
		out = append(out, arena.Get(id))
	}
	return out
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func assertKinds(t *testing.T, toks []token.Token, want ...token.Kind) {
	t.Helper()
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("kind count mismatch: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v want %v (all: %v)", i, got[i], want[i], got)
		}
	}
}

func TestTotality(t *testing.T) {
	inputs := []string{"", "   ", "class X;", "`", "\"unterminated", "/* unterminated"}
	for _, in := range inputs {
		toks := lexAll(t, in)
		if len(toks) == 0 {
			t.Fatalf("lexing %q produced no tokens at all", in)
		}
		last := toks[len(toks)-1]
		if last.Kind != token.EndOfFile {
			t.Fatalf("lexing %q did not end in EndOfFile, got %v", in, last.Kind)
		}
		prevStart := -1
		for _, tok := range toks {
			if tok.Start < 0 || tok.End > len(in) || tok.Start > tok.End {
				t.Fatalf("token %v out of bounds for input of length %d", tok, len(in))
			}
			if tok.Start < prevStart {
				t.Fatalf("token starts went backwards: %v", toks)
			}
			prevStart = tok.Start
		}
	}
}

func TestIdentifierAndKeywords(t *testing.T) {
	toks := lexAll(t, "class Actor extends Object")
	assertKinds(t, toks, token.Ident, token.Whitespace, token.Ident, token.Whitespace, token.Ident, token.Whitespace, token.Ident, token.EndOfFile)
}

func TestOperatorMaximalMunch(t *testing.T) {
	toks := lexAll(t, ">>>")
	assertKinds(t, toks, token.UShr, token.EndOfFile)

	toks = lexAll(t, ">>")
	assertKinds(t, toks, token.Shr, token.EndOfFile)

	toks = lexAll(t, "<=")
	assertKinds(t, toks, token.LessEq, token.EndOfFile)

	toks = lexAll(t, "++")
	assertKinds(t, toks, token.Inc, token.EndOfFile)
}

func TestStringAndNameLiterals(t *testing.T) {
	toks := lexAll(t, `"hello \" world" 'SomeName'`)
	assertKinds(t, toks, token.StringLit, token.Whitespace, token.NameLit, token.EndOfFile)
}

func TestNumberKinds(t *testing.T) {
	cases := map[string]token.Kind{
		"123":     token.IntLit,
		"0x1F":    token.HexIntLit,
		"1.5":     token.FloatLit,
		".5":      token.FloatLit,
		"1.5e10":  token.FloatLit,
		"1.5e+10": token.FloatLit,
		"2f":      token.FloatLit,
	}
	for in, want := range cases {
		toks := lexAll(t, in)
		assertKinds(t, toks, want, token.EndOfFile)
	}
}

func TestUnterminatedBlockComment(t *testing.T) {
	toks := lexAll(t, "/* never closes")
	assertKinds(t, toks, token.Invalid, token.EndOfFile)
}

func TestNestedBlockComments(t *testing.T) {
	toks := lexAll(t, "/* outer /* inner */ still outer */")
	assertKinds(t, toks, token.BlockComment, token.EndOfFile)
}

func TestDigitIdentAdjacency(t *testing.T) {
	toks := lexAll(t, "123abc")
	assertKinds(t, toks, token.Invalid, token.EndOfFile)
	if toks[0].Err == "" {
		t.Fatalf("expected an error message on the digit-adjacency token")
	}
}

func TestMalformedExponent(t *testing.T) {
	toks := lexAll(t, "1e")
	assertKinds(t, toks, token.Invalid, token.EndOfFile)
}
