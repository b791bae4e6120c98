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

package preprocess

import (
	"strings"

	"github.com/muscript-lang/muscript/internal/diag"
	"github.com/muscript-lang/muscript/internal/source"
	"github.com/muscript-lang/muscript/internal/token"
	"github.com/muscript-lang/muscript/internal/tokstream"
)

// ifFrame is one entry of the `if` nesting stack.
type ifFrame struct {
	condition bool
	ifId      source.Id
}

// Preprocessor expands one contiguous run of raw arena tokens (normally one
// whole file) into a Sliced output stream. Global definitions are shared
// across every Preprocessor created for files of one compilation; local
// (argument) definitions live only on the frame expanding one macro
// invocation and are never written back to Globals.
type Preprocessor struct {
	Globals *Definitions
	locals  *Definitions // nil outside of a macro-body expansion

	file  *source.File
	arena *source.Arena[token.Token]
	toks  *tokstream.Cursor
	diags diag.Sink
	out   *tokstream.Sliced

	ifStack []ifFrame
}

// New creates a Preprocessor over the given file's token range, writing
// output slices to out. Globals is mutated by `define`/`undefine` as they
// are encountered.
func New(file *source.File, arena *source.Arena[token.Token], span source.Span[token.Token], globals *Definitions, out *tokstream.Sliced, diags diag.Sink) *Preprocessor {
	return &Preprocessor{
		Globals: globals,
		file:    file,
		arena:   arena,
		toks:    tokstream.NewCursor(arena, span.Start, span.End),
		diags:   diags,
		out:     out,
	}
}

func (p *Preprocessor) text(id source.Id) string {
	return p.arena.Get(id).Text(p.file)
}

func (p *Preprocessor) pos(id source.Id) diag.Pos {
	t := p.arena.Get(id)
	fid := source.Invalid
	if p.file != nil {
		fid = p.file.Id()
	}
	return diag.Pos{File: fid, Start: t.Start, End: t.End}
}

func (p *Preprocessor) errorAt(id source.Id, format string, args ...interface{}) {
	d := diag.New(diag.Error, format, args...)
	d.WithLabel(p.pos(id), true, "")
	p.diags.Push(*d)
}

func (p *Preprocessor) warnAt(id source.Id, format string, args ...interface{}) {
	d := diag.New(diag.Warning, format, args...)
	d.WithLabel(p.pos(id), true, "")
	p.diags.Push(*d)
}

// definition resolves name against locals first, then Globals: local
// (argument) definitions shadow globals during one macro expansion.
func (p *Preprocessor) definition(name string) (Definition, bool) {
	if p.locals != nil {
		if d, ok := p.locals.Lookup(name); ok {
			return d, true
		}
	}
	return p.Globals.Lookup(name)
}

// Preprocess runs the full expansion, pushing zero or more slices to out.
//
// The loop condition is checked before each Next, not inferred from the
// token Kind returned: a top-level file's range always ends on the lexer's
// own EndOfFile token, but a range carved out for one macro body or `if
// condition ends on whatever real token came last, and the cursor keeps
// re-serving that same token once exhausted rather than synthesising an
// EndOfFile of its own. Stopping on AtEnd lets both cases share one loop.
func (p *Preprocessor) Preprocess() {
	for !p.toks.AtEnd() {
		id, tok := p.toks.Next()
		switch tok.Kind {
		case token.Accent:
			p.parseMacroInvocation(id)
		case token.EndOfFile:
			p.out.PushToken(id)
			return
		default:
			p.out.PushToken(id)
		}
	}
}

// expectToken consumes the next token and reports an error naming what was
// expected if its kind doesn't match.
func (p *Preprocessor) expectToken(kind token.Kind, what string) (source.Id, token.Token, bool) {
	id, tok := p.toks.Next()
	if tok.Kind != kind {
		p.errorAt(id, "%s expected", what)
		return id, tok, false
	}
	return id, tok, true
}

func (p *Preprocessor) parseMacroName() (source.Id, string, bool) {
	id, tok := p.toks.Next()
	switch tok.Kind {
	case token.Ident:
		return id, p.text(id), true
	case token.LBrace:
		nameId, nameTok, ok := p.expectToken(token.Ident, "macro name")
		if !ok {
			return nameId, "", false
		}
		if _, _, ok := p.expectToken(token.RBrace, "`}`"); !ok {
			return nameId, "", false
		}
		_ = nameTok
		return nameId, p.text(nameId), true
	default:
		p.errorAt(id, "macro name expected")
		return id, "", false
	}
}

func (p *Preprocessor) parseMacroInvocation(accent source.Id) {
	_, name, ok := p.parseMacroName()
	if !ok {
		return
	}
	switch {
	case strings.EqualFold(name, "define"):
		p.parseDefine()
	case strings.EqualFold(name, "undefine"):
		p.parseUndefine()
	case strings.EqualFold(name, "isdefined"):
		p.parseIsDefined(accent, false)
	case strings.EqualFold(name, "notdefined"):
		p.parseIsDefined(accent, true)
	case strings.EqualFold(name, "if"):
		p.parseIf(accent)
	case strings.EqualFold(name, "else"):
		p.parseElse(accent)
	case strings.EqualFold(name, "endif"):
		p.parseEndif(accent)
	case strings.EqualFold(name, "include"):
		p.parseInclude(accent)
	default:
		p.parseUserMacro(accent, name)
	}
}

func (p *Preprocessor) parseDefine() {
	// The cursor shows trivia: skip the spaces around the macro name and
	// parameter names, but never a newline, which ends the definition.
	skipSpace := func() {
		for !p.toks.AtEnd() {
			_, tok := p.toks.Peek()
			if tok.Kind != token.Whitespace || strings.Contains(tok.Text(p.file), "\n") {
				return
			}
			p.toks.Next()
		}
	}
	skipSpace()
	nameId, _, ok := p.expectToken(token.Ident, "new macro name")
	if !ok {
		return
	}
	name := p.text(nameId)

	var parameters []string
	if _, tok := p.toks.Peek(); tok.Kind == token.LParen {
		p.toks.Next()
		parameters = []string{}
		for {
			skipSpace()
			if _, tok := p.toks.Peek(); tok.Kind == token.RParen {
				p.toks.Next()
				break
			}
			pid, _, ok := p.expectToken(token.Ident, "macro parameter name")
			if !ok {
				break
			}
			parameters = append(parameters, p.text(pid))
			skipSpace()
			_, sep := p.toks.Next()
			if sep.Kind == token.RParen {
				break
			}
			if sep.Kind != token.Comma {
				p.errorAt(nameId, "`,` or `)` expected in macro parameter list")
				break
			}
		}
	}

	var body source.Span[token.Token]
	for {
		atEnd := p.toks.AtEnd()
		id, tok := p.toks.Next()
		if tok.Kind == token.Backslash {
			_, nl := p.toks.Peek()
			if nl.Kind == token.Whitespace && strings.Contains(nl.Text(p.file), "\n") {
				p.toks.Next()
				if p.toks.AtEnd() {
					break
				}
				continue
			}
			// Any other following token: treat the backslash itself as part
			// of the body and keep scanning, matching the original's
			// best-effort handling of a misplaced continuation.
			body = body.Join(source.NewSpan[token.Token](id, id))
			if atEnd {
				break
			}
			continue
		}
		if tok.Kind == token.EndOfFile || (tok.Kind == token.Whitespace && strings.Contains(tok.Text(p.file), "\n")) {
			break
		}
		body = body.Join(source.NewSpan[token.Token](id, id))
		if atEnd {
			break
		}
	}

	p.Globals.Define(name, Definition{Body: body, Parameters: parameters})
}

func (p *Preprocessor) parseUndefine() {
	if _, _, ok := p.expectToken(token.LParen, "`(`"); !ok {
		return
	}
	nameId, _, ok := p.expectToken(token.Ident, "macro name to undefine")
	if !ok {
		return
	}
	if _, _, ok := p.expectToken(token.RParen, "`)`"); !ok {
		return
	}
	p.Globals.Undefine(p.text(nameId))
}

func (p *Preprocessor) parseIsDefined(accent source.Id, not bool) {
	if _, _, ok := p.expectToken(token.LParen, "`(`"); !ok {
		return
	}
	nameId, _, ok := p.expectToken(token.Ident, "macro name to check")
	if !ok {
		return
	}
	rparenId, _, ok := p.expectToken(token.RParen, "`)`")
	if !ok {
		return
	}
	_, defined := p.definition(p.text(nameId))
	nonEmpty := defined
	if not {
		nonEmpty = !defined
	}
	if nonEmpty {
		p.out.PushSlice(tokstream.Slice{Start: accent, End: rparenId})
	} else {
		p.out.PushEmpty(accent)
	}
}

func (p *Preprocessor) parseInclude(accent source.Id) {
	p.warnAt(accent, "use of `include is ignored; files are processed in the order the driver supplies them")
	if _, _, ok := p.expectToken(token.LParen, "`(`"); !ok {
		return
	}
	for {
		if p.toks.AtEnd() {
			break
		}
		_, tok := p.toks.Peek()
		if tok.Kind == token.RParen || tok.Kind == token.EndOfFile {
			break
		}
		p.toks.Next()
	}
	p.expectToken(token.RParen, "`)`")
}

// captureBalanced consumes tokens up to (and not including) a RParen at
// nesting depth zero, or, when stopAtComma is set, a Comma at depth zero;
// it also stops at EndOfFile or the end of the range. It returns the span
// consumed. Used for `if` conditions and macro arguments alike.
func (p *Preprocessor) captureBalanced(stopAtComma bool) source.Span[token.Token] {
	var span source.Span[token.Token]
	nesting := 0
	for {
		if p.toks.AtEnd() {
			return span
		}
		id, tok := p.toks.Peek()
		switch tok.Kind {
		case token.LParen:
			p.toks.Next()
			nesting++
			span = span.Join(source.NewSpan[token.Token](id, id))
		case token.RParen:
			if nesting == 0 {
				return span
			}
			p.toks.Next()
			nesting--
			span = span.Join(source.NewSpan[token.Token](id, id))
		case token.Comma:
			if stopAtComma && nesting == 0 {
				return span
			}
			p.toks.Next()
			span = span.Join(source.NewSpan[token.Token](id, id))
		case token.EndOfFile:
			return span
		default:
			p.toks.Next()
			span = span.Join(source.NewSpan[token.Token](id, id))
		}
	}
}

func (p *Preprocessor) parseIf(ifId source.Id) {
	lparenId, _, ok := p.expectToken(token.LParen, "`(` after `if")
	if !ok {
		return
	}
	condSpan := p.captureBalanced(false)
	if _, _, ok := p.expectToken(token.RParen, "`)` to close `if condition"); !ok {
		_ = lparenId
		return
	}

	conditionNonEmpty := true
	if !condSpan.IsEmpty() {
		sub := tokstream.NewCursor(p.arena, condSpan.Start, condSpan.End)
		subOut := tokstream.NewSliced()
		subPre := &Preprocessor{Globals: p.Globals, locals: p.locals, file: p.file, arena: p.arena, toks: sub, diags: p.diags, out: subOut}
		subPre.Preprocess()
		conditionNonEmpty = subOut.HasContent()
	} else {
		conditionNonEmpty = false
	}

	p.ifStack = append(p.ifStack, ifFrame{condition: conditionNonEmpty, ifId: ifId})
	if !conditionNonEmpty {
		p.skipUntilMacro(ifId, func(name string) bool {
			return strings.EqualFold(name, "else") || strings.EqualFold(name, "endif")
		}, "missing `else or `endif to close `if")
	}
}

func (p *Preprocessor) parseElse(elseId source.Id) {
	if len(p.ifStack) == 0 {
		p.errorAt(elseId, "`else without a matching `if")
		return
	}
	top := p.ifStack[len(p.ifStack)-1]
	if top.condition {
		p.skipUntilMacro(elseId, func(name string) bool {
			return strings.EqualFold(name, "endif")
		}, "missing `endif to close `else")
	}
}

func (p *Preprocessor) parseEndif(endifId source.Id) {
	if len(p.ifStack) == 0 {
		p.errorAt(endifId, "`endif without a matching `if")
		return
	}
	p.ifStack = p.ifStack[:len(p.ifStack)-1]
}

// skipUntilMacro discards tokens (without emitting them) until a `directive
// matching cond is found at nesting depth zero, tracking nested `if/`endif
// pairs along the way. It reports unterminatedMsg and returns if EndOfFile
// is reached first.
func (p *Preprocessor) skipUntilMacro(anchor source.Id, cond func(name string) bool, unterminatedMsg string) {
	nesting := 0
	for {
		if p.toks.AtEnd() {
			p.errorAt(anchor, unterminatedMsg)
			return
		}
		pos := p.toks.Position()
		id, tok := p.toks.Next()
		switch tok.Kind {
		case token.Accent:
			_, name, ok := p.parseMacroName()
			if !ok {
				continue
			}
			switch {
			case strings.EqualFold(name, "if"):
				nesting++
			case nesting > 0 && strings.EqualFold(name, "endif"):
				nesting--
			case nesting == 0 && cond(name):
				p.toks.SetPosition(pos)
				return
			}
		case token.EndOfFile:
			p.errorAt(anchor, unterminatedMsg)
			return
		default:
			_ = id
		}
	}
}

func (p *Preprocessor) parseUserMacro(nameId source.Id, name string) {
	var arguments []Definition
	haveArgs := false
	if _, tok := p.toks.Peek(); tok.Kind == token.LParen {
		haveArgs = true
		p.toks.Next()
		for {
			if _, tok := p.toks.Peek(); tok.Kind == token.RParen {
				p.toks.Next()
				break
			}
			span := p.captureBalanced(true)
			arguments = append(arguments, Definition{Body: span})
			if p.toks.AtEnd() {
				p.errorAt(nameId, "`)` expected to close macro argument list")
				break
			}
			_, sep := p.toks.Next()
			if sep.Kind == token.RParen {
				break
			}
			if sep.Kind != token.Comma {
				p.errorAt(nameId, "`,` or `)` expected in macro argument list")
				break
			}
		}
	}

	def, ok := p.definition(name)
	if !ok {
		p.errorAt(nameId, "macro %q is not defined", name)
		p.out.PushEmpty(nameId)
		return
	}
	if def.Body.IsEmpty() && !def.IsParameterised() {
		// Defined as empty text: not a failed expansion, just nothing.
		return
	}

	if def.IsParameterised() {
		params := def.Parameters
		switch {
		case !haveArgs:
			p.errorAt(nameId, "macro %q expects %d arguments, but none were provided", name, len(params))
			p.out.PushEmpty(nameId)
			return
		case len(params) == 0 && len(arguments) > 0:
			p.errorAt(nameId, "macro %q expects no arguments, but %d were provided", name, len(arguments))
			p.out.PushEmpty(nameId)
			return
		}
		arguments = padOrFoldArguments(arguments, len(params))
		locals := NewDefinitions()
		for i, name := range params {
			locals.Define(name, arguments[i])
		}
		p.expandBody(def.Body, locals)
		return
	}

	if haveArgs {
		p.errorAt(nameId, "macro %q expects no arguments, but %d were provided", name, len(arguments))
		p.out.PushEmpty(nameId)
		return
	}
	p.expandBody(def.Body, p.locals)
}

// padOrFoldArguments pads a too-short argument list with empty definitions
// and folds a too-long one's tail into its last argument.
func padOrFoldArguments(args []Definition, n int) []Definition {
	switch {
	case len(args) == n:
		return args
	case len(args) < n:
		out := make([]Definition, n)
		copy(out, args)
		return out
	default:
		out := make([]Definition, n)
		copy(out, args[:n-1])
		folded := args[n-1]
		for _, a := range args[n:] {
			folded.Body = folded.Body.Join(a.Body)
		}
		out[n-1] = folded
		return out
	}
}

// expandBody runs a nested Preprocessor over a macro's body tokens, with
// locals bound for parameter substitution, writing directly into the
// parent's output stream so expansion output interleaves seamlessly with
// surrounding straight code.
func (p *Preprocessor) expandBody(body source.Span[token.Token], locals *Definitions) {
	if body.IsEmpty() {
		return
	}
	sub := tokstream.NewCursor(p.arena, body.Start, body.End)
	subPre := &Preprocessor{Globals: p.Globals, locals: locals, file: p.file, arena: p.arena, toks: sub, diags: p.diags, out: p.out}
	subPre.Preprocess()
}
