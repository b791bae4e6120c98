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

package parse_test

import (
	"testing"

	"github.com/muscript-lang/muscript/internal/diag"
	"github.com/muscript-lang/muscript/internal/lexer"
	"github.com/muscript-lang/muscript/internal/parse"
	"github.com/muscript-lang/muscript/internal/source"
	"github.com/muscript-lang/muscript/internal/token"
	"github.com/muscript-lang/muscript/internal/tokstream"
)

// newParser lexes text (no preprocessing: these tests exercise parser
// mechanics, not macro expansion) and returns a ready Parser plus the log
// it reports to.
func newParser(t *testing.T, text string) (*parse.Parser, *diag.Log) {
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
	return parse.New(r, log, id), log
}

func TestExpectConsumesMatchingToken(t *testing.T) {
	p, log := newParser(t, "class X;")
	id, tok := p.Expect(token.Ident)
	if tok.Kind != token.Ident || id == source.None {
		t.Fatalf("expected to consume an Ident, got %v", tok)
	}
	if log.HasErrors() {
		t.Fatalf("matching Expect should not report a diagnostic")
	}
}

func TestExpectMismatchReportsAndFabricates(t *testing.T) {
	p, log := newParser(t, "class X;")
	_, tok := p.Expect(token.Semi) // next token is actually Ident "class"
	if tok.Kind != token.Semi {
		t.Fatalf("Expect should fabricate the requested kind, got %v", tok)
	}
	if !log.HasErrors() {
		t.Fatalf("mismatched Expect should report an error")
	}
	// The mismatched token was not consumed: the next real token is still
	// the Ident "class".
	if !p.At(token.Ident) {
		t.Fatalf("mismatched Expect should not consume the offending token")
	}
}

func TestAcceptDoesNotReportOnMismatch(t *testing.T) {
	p, log := newParser(t, "class X;")
	_, _, ok := p.Accept(token.Semi)
	if ok {
		t.Fatalf("Accept should fail on a mismatched kind")
	}
	if log.HasErrors() {
		t.Fatalf("Accept should never report a diagnostic")
	}
	if !p.At(token.Ident) {
		t.Fatalf("Accept should not consume on mismatch")
	}
}

func TestBracketedHappyPath(t *testing.T) {
	p, log := newParser(t, "(a, b)")
	var seen []string
	p.Bracketed(token.LParen, token.RParen, "argument list", func() {
		p.ParseCommaList(token.RParen, "argument list", func() {
			_, tok := p.Next()
			seen = append(seen, tok.Kind.String())
		})
	})
	if log.HasErrors() {
		t.Fatalf("well-formed bracketed list should not report errors, got %v", log.Diagnostics())
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 elements consumed, got %v", seen)
	}
	if !p.AtEnd() {
		t.Fatalf("expected stream fully consumed after the closing paren")
	}
}

func TestBracketedRecoversFromGarbageInside(t *testing.T) {
	// `@` lexes to a single At token that no argument-list grammar rule
	// consumes; recovery should skip it and still find the real elements
	// and the closing paren.
	p, log := newParser(t, "(a, @, b)")
	var seen int
	p.Bracketed(token.LParen, token.RParen, "argument list", func() {
		for !p.At(token.RParen) && !p.AtEnd() {
			if p.At(token.Ident) {
				p.Next()
				seen++
				continue
			}
			if p.At(token.Comma) {
				p.Next()
				continue
			}
			_, tok := p.Peek()
			p.Errorf(tok, "unexpected %s", tok.Kind)
			p.Next()
		}
	})
	if seen != 2 {
		t.Fatalf("expected to parse 2 identifiers around the garbage token, got %d", seen)
	}
	if !log.HasErrors() {
		t.Fatalf("expected a diagnostic for the unexpected token")
	}
	if !p.AtEnd() {
		t.Fatalf("expected the closing paren to be consumed")
	}
}

func TestBracketedStopsAtEnclosingDelimiter(t *testing.T) {
	// The inner list is missing its closing paren entirely; recovery must
	// stop at the outer `}` rather than consuming it, so the outer
	// Bracketed call can still report and recover its own close.
	p, log := newParser(t, "{(a}")
	p.Bracketed(token.LBrace, token.RBrace, "block", func() {
		p.Bracketed(token.LParen, token.RParen, "argument list", func() {
			p.Expect(token.Ident)
		})
	})
	if !log.HasErrors() {
		t.Fatalf("expected a diagnostic for the missing inner close paren")
	}
	if !p.AtEnd() {
		t.Fatalf("expected the outer close brace to have been consumed")
	}
}

func TestParseCommaListToleratesMissingSeparator(t *testing.T) {
	p, log := newParser(t, "a b)")
	count := p.ParseCommaList(token.RParen, "list", func() {
		p.Expect(token.Ident)
	})
	if count != 2 {
		t.Fatalf("expected 2 elements parsed despite the missing comma, got %d", count)
	}
	if !log.HasErrors() {
		t.Fatalf("expected a diagnostic for the missing separator")
	}
}

func TestParseTerminatedListReportsUnterminated(t *testing.T) {
	p, log := newParser(t, "a b")
	var n int
	p.ParseTerminatedList(token.Semi, "statement list", func() {
		p.Next()
		n++
	})
	if n != 2 {
		t.Fatalf("expected to consume both tokens before EOF, got %d", n)
	}
	if !log.HasErrors() {
		t.Fatalf("expected an unterminated-list diagnostic")
	}
}

func TestRunCatchesAbortWithoutPropagating(t *testing.T) {
	p, log := newParser(t, "(a")
	aborted := p.Run(func() {
		p.Bracketed(token.LParen, token.RParen, "argument list", func() {
			p.Expect(token.Ident)
			// No closing paren in the source at all: recovery inside
			// Bracketed runs off the end of the file and aborts.
		})
	})
	if !aborted {
		t.Fatalf("expected Run to report an abort for an unterminated construct")
	}
	if !log.HasErrors() {
		t.Fatalf("expected at least the missing-close-paren diagnostic to survive the abort")
	}
}

func TestParseWithErrorReportsOnFailure(t *testing.T) {
	p, log := newParser(t, "class")
	got := parse.ParseWithError(p, "a number", func() (int, bool) {
		return 0, false
	})
	if got != 0 {
		t.Fatalf("expected the zero value on failure, got %d", got)
	}
	if !log.HasErrors() {
		t.Fatalf("expected ParseWithError to report a diagnostic on failure")
	}
}
