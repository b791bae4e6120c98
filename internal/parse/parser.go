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

// Package parse provides the token-level parser framework the CST grammar
// (package cst) is built on: a peek/expect/accept primitive set, bracketed
// delimiter-stack recovery, and the greedy/terminated/separated list
// helpers every comma- or brace-delimited grammar rule needs.
package parse

import (
	"github.com/muscript-lang/muscript/internal/diag"
	"github.com/muscript-lang/muscript/internal/source"
	"github.com/muscript-lang/muscript/internal/token"
	"github.com/muscript-lang/muscript/internal/tokstream"
)

// errAbort is panicked when recovery runs off the end of the file with an
// open delimiter stack: nothing productive can come from continuing, so
// the parse unwinds to the nearest enclosing Parser.Run (cst.ParseFile
// runs the header and each item in its own) in one step rather than
// letting every caller up the stack check a second error channel.
type errAbort struct{}

// Parser walks one file's filtered token stream, translating grammar
// mismatches into diagnostics and providing delimiter-aware recovery so one
// malformed construct does not cascade into unrelated false errors.
type Parser struct {
	r     *tokstream.Reader
	diags diag.Sink
	file  source.FileId

	ctx    tokstream.Context
	delims []token.Kind
}

// New creates a Parser reading r, reporting to diags, and labelling
// diagnostics against file.
func New(r *tokstream.Reader, diags diag.Sink, file source.FileId) *Parser {
	return &Parser{r: r, diags: diags, file: file, ctx: tokstream.Normal}
}

// File returns the id diagnostics are anchored to.
func (p *Parser) File() source.FileId { return p.file }

func (p *Parser) pos(tok token.Token) diag.Pos {
	return diag.Pos{File: p.file, Start: tok.Start, End: tok.End}
}

// Errorf reports an error-severity diagnostic with a primary label at tok.
func (p *Parser) Errorf(tok token.Token, format string, args ...interface{}) {
	d := diag.New(diag.Error, format, args...)
	d.WithLabel(p.pos(tok), true, "here")
	p.diags.Push(*d)
}

// Warnf reports a warning-severity diagnostic with a primary label at tok.
func (p *Parser) Warnf(tok token.Token, format string, args ...interface{}) {
	d := diag.New(diag.Warning, format, args...)
	d.WithLabel(p.pos(tok), true, "here")
	p.diags.Push(*d)
}

// PushTypeContext switches `>>`/`>>>` splitting on for the duration of a
// generic type-argument list; PopTypeContext restores normal operator
// lexing. These nest in the sense that a type parsed entirely inside
// another type's argument list never needs to pop early, since both push
// the same context.
func (p *Parser) PushTypeContext() tokstream.Context {
	prev := p.ctx
	p.ctx = tokstream.Type
	return prev
}

// PopTypeContext restores a context previously returned by
// PushTypeContext.
func (p *Parser) PopTypeContext(prev tokstream.Context) { p.ctx = prev }

// Peek returns the next token without consuming it.
func (p *Parser) Peek() (source.Id, token.Token) {
	return p.r.Peek(p.ctx, token.Default)
}

// Next consumes and returns the next token.
func (p *Parser) Next() (source.Id, token.Token) {
	return p.r.Next(p.ctx, token.Default)
}

// At reports whether the next token has the given kind, without consuming.
func (p *Parser) At(kind token.Kind) bool {
	_, tok := p.Peek()
	return tok.Kind == kind
}

// AtAny reports whether the next token has one of the given kinds.
func (p *Parser) AtAny(kinds ...token.Kind) bool {
	_, tok := p.Peek()
	for _, k := range kinds {
		if tok.Kind == k {
			return true
		}
	}
	return false
}

// AtEnd reports whether the next token is EndOfFile.
func (p *Parser) AtEnd() bool { return p.At(token.EndOfFile) }

// Position captures the stream position, for recovery routines that need to
// tell whether a callback consumed anything at all.
func (p *Parser) Position() tokstream.Pos { return p.r.Position() }

// SetPosition restores a position previously returned by Position.
func (p *Parser) SetPosition(pos tokstream.Pos) { p.r.SetPosition(pos) }

// Accept consumes the next token and returns ok=true if it has kind;
// otherwise it reports nothing and leaves the stream positioned where it
// was, returning ok=false.
func (p *Parser) Accept(kind token.Kind) (source.Id, token.Token, bool) {
	if !p.At(kind) {
		return source.None, token.Token{}, false
	}
	id, tok := p.Next()
	return id, tok, true
}

// Expect consumes and returns the next token if it has kind. Otherwise it
// reports an "expected X, found Y" diagnostic and returns a zero-length
// fabricated token of the requested kind positioned at the mismatched
// token, without consuming it — callers can keep building a CST node with
// the fabricated result instead of threading an ok bool through every
// grammar rule, and the real mismatched token remains available for
// whichever recovery routine runs next.
func (p *Parser) Expect(kind token.Kind) (source.Id, token.Token) {
	id, tok := p.Peek()
	if tok.Kind == kind {
		return p.Next()
	}
	p.Errorf(tok, "expected %s, found %s", kind, tok.Kind)
	return id, token.Token{Kind: kind, Start: tok.Start, End: tok.Start}
}

// ExpectIdent is a convenience for the extremely common case of expecting
// an identifier, returning its text.
func (p *Parser) ExpectIdent(file *source.File) (source.Id, string) {
	id, tok := p.Expect(token.Ident)
	return id, tok.Text(file)
}

// Run invokes f, recovering a delimiter-recovery abort and reporting it as
// aborted=true. Every top-level grammar entry point (one class body, one
// statement block) should be wrapped in Run so a single unrecoverable
// construct only loses that construct, not the whole file.
func (p *Parser) Run(f func()) (aborted bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(errAbort); ok {
				aborted = true
				return
			}
			panic(r)
		}
	}()
	f()
	return false
}

// ParseWithError calls f; if f reports failure, it records a generic
// "expected <what>" diagnostic at the current token and returns the zero
// value of T. Used for grammar alternatives where none of several
// `TryParseX` functions matched.
func ParseWithError[T any](p *Parser, what string, f func() (T, bool)) T {
	v, ok := f()
	if ok {
		return v
	}
	var zero T
	_, tok := p.Peek()
	p.Errorf(tok, "expected %s", what)
	return zero
}
