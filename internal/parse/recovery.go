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

package parse

import (
	"github.com/muscript-lang/muscript/internal/source"
	"github.com/muscript-lang/muscript/internal/token"
)

// Bracketed parses `open body close`, expecting open, pushing close onto the
// delimiter stack for the duration of body, and recovering to close
// afterwards if body left the stream positioned somewhere in the middle of
// the construct (an unexpected token that body's own grammar rule didn't
// know how to consume).
//
// Recovery stops early, without consuming, at any delimiter already on the
// stack from an enclosing Bracketed call: that token belongs to the
// enclosing construct, and claiming it here would misreport the enclosing
// mismatch as happening inside this one. Running off the end of the file
// with the stack still open aborts the whole parse via errAbort, recovered
// by the nearest enclosing Parser.Run.
func (p *Parser) Bracketed(open, close token.Kind, what string, body func()) (openId, closeId source.Id) {
	openId, _ = p.Expect(open)

	p.delims = append(p.delims, close)
	body()
	p.delims = p.delims[:len(p.delims)-1]

	p.recoverTo(close, what)
	closeId, _ = p.Expect(close)
	return openId, closeId
}

// recoverTo skips tokens until the next token is close, an enclosing
// delimiter, or EndOfFile. Reports one diagnostic per skipped token so a
// run of garbage inside a bracketed construct is visible, not silently
// swallowed.
func (p *Parser) recoverTo(close token.Kind, what string) {
	for {
		_, tok := p.Peek()
		if tok.Kind == close {
			return
		}
		if tok.Kind == token.EndOfFile {
			p.Errorf(tok, "unterminated %s: expected %s", what, close)
			panic(errAbort{})
		}
		for _, d := range p.delims {
			if tok.Kind == d {
				return
			}
		}
		p.Errorf(tok, "unexpected %s in %s", tok.Kind, what)
		p.Next()
	}
}

// ParseGreedyList repeatedly calls parseOne until stop reports true or
// EndOfFile is reached, used for bodies with no terminator of their own
// known in advance to the caller (e.g. top-level items, dispatched purely
// by what the next token looks like).
func (p *Parser) ParseGreedyList(stop func() bool, parseOne func()) {
	for !stop() && !p.AtEnd() {
		parseOne()
	}
}

// ParseTerminatedList calls parseOne until term is seen, then consumes
// term. Used for brace- or semicolon-terminated bodies with no separators
// between elements (statement lists, item lists).
func (p *Parser) ParseTerminatedList(term token.Kind, what string, parseOne func()) {
	for !p.At(term) && !p.AtEnd() {
		parseOne()
	}
	if p.AtEnd() {
		_, tok := p.Peek()
		p.Errorf(tok, "unterminated %s: expected %s", what, term)
		return
	}
	p.Expect(term)
}

// ParseSeparatedList calls parseOne for each element of a sep-separated,
// term-terminated list (e.g. `(a, b, c)`), consuming sep between elements
// and stopping at term without consuming it; every sep is followed by
// another element. It tolerates a missing separator (reports it and keeps
// parsing elements) and a missing terminator (reports it once EndOfFile is
// reached and returns; unlike Bracketed, it does not abort) rather than
// cascading into element-shaped garbage.
func (p *Parser) ParseSeparatedList(sep, term token.Kind, what string, parseOne func()) (count int) {
	if p.At(term) {
		return 0
	}
	for {
		before := p.Position()
		parseOne()
		count++
		if p.At(term) {
			return count
		}
		if p.At(sep) {
			p.Next()
			continue
		}
		if p.AtEnd() {
			_, tok := p.Peek()
			p.Errorf(tok, "unterminated %s: expected %s or %s", what, sep, term)
			return count
		}
		_, tok := p.Peek()
		p.Errorf(tok, "expected %s or %s in %s", sep, term, what)
		if p.Position() == before {
			// parseOne consumed nothing (an Expect mismatch leaves its
			// offending token in place): treating this as an implied
			// separator would loop forever on the same token, so skip it
			// to guarantee progress, same as Bracketed's own recovery.
			p.Next()
		}
		// Otherwise parseOne did consume a well-formed element; the most
		// likely mistake is a missing separator, so retry at the current
		// position with no token skipped.
	}
}

// ParseCommaList is ParseSeparatedList specialised to Comma, the
// overwhelmingly common case (argument lists, specifier lists, enumerator
// lists).
func (p *Parser) ParseCommaList(term token.Kind, what string, parseOne func()) int {
	return p.ParseSeparatedList(token.Comma, term, what, parseOne)
}
