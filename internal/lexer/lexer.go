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

// Package lexer turns one source file's byte slice into tokens in the shared
// token arena. Scanning is eager, total, and a pure function of position: it
// never suspends and never backtracks across file boundaries.
package lexer

import (
	"strings"
	"unicode/utf8"

	"github.com/muscript-lang/muscript/internal/source"
	"github.com/muscript-lang/muscript/internal/token"
)

// reader scans a single file's byte text. Identifiers and operators are
// all-ASCII, so byte scanning with an explicit UTF-8 continuation skip for
// the rare non-ASCII rune inside a string/comment is simpler and faster
// than decoding everything up front.
type reader struct {
	text   string
	offset int // start of the current token
	cursor int // next unread byte
}

func (r *reader) isEOF() bool { return r.cursor >= len(r.text) }

func (r *reader) peek() byte {
	return r.peekN(0)
}

func (r *reader) peekN(n int) byte {
	if r.cursor+n >= len(r.text) {
		return 0
	}
	return r.text[r.cursor+n]
}

func (r *reader) advance() byte {
	c := r.text[r.cursor]
	r.cursor++
	return c
}

// advanceRune advances past one full UTF-8 rune, for use inside string/name
// literals and comments where non-ASCII text must not desynchronise byte
// offsets.
func (r *reader) advanceRune() {
	_, n := utf8.DecodeRuneInString(r.text[r.cursor:])
	if n <= 0 {
		n = 1
	}
	r.cursor += n
}

func (r *reader) consume(kind token.Kind) token.Token {
	t := token.Token{Kind: kind, Start: r.offset, End: r.cursor}
	r.offset = r.cursor
	return t
}

func (r *reader) errorToken(msg string) token.Token {
	t := token.Token{Kind: token.Invalid, Start: r.offset, End: r.cursor, Err: msg}
	r.offset = r.cursor
	return t
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// Lex scans file's full text into arena, returning the inclusive span of
// token ids produced (including an EndOfFile terminator). Callers must call
// arena.BeginFile(fileID) immediately before this so FileOf resolution
// works.
func Lex(fileText string, arena *source.Arena[token.Token]) source.Span[token.Token] {
	r := &reader{text: fileText}
	first := source.None
	var last source.Id
	push := func(t token.Token) {
		id := arena.Push(t)
		if first == source.None {
			first = id
		}
		last = id
	}

	for {
		if r.isEOF() {
			push(r.eofToken())
			break
		}
		push(r.next())
	}
	return source.NewSpan[token.Token](first, last)
}

func (r *reader) eofToken() token.Token {
	return token.Token{Kind: token.EndOfFile, Start: r.cursor, End: r.cursor}
}

// next scans and consumes exactly one token, starting at r.cursor.
func (r *reader) next() token.Token {
	r.offset = r.cursor
	c := r.peek()

	switch {
	case c == ' ' || c == '\t' || c == '\r' || c == '\n':
		return r.lexSpace()
	case c == '/' && r.peekN(1) == '/':
		return r.lexLineComment()
	case c == '/' && r.peekN(1) == '*':
		return r.lexBlockComment()
	case isIdentStart(c):
		return r.lexIdentOrNumberAdjacency()
	case isDigit(c):
		return r.lexNumber()
	case c == '.' && isDigit(r.peekN(1)):
		return r.lexNumber()
	case c == '"':
		return r.lexString()
	case c == '\'':
		return r.lexName()
	default:
		return r.lexOperatorOrPunct()
	}
}

func (r *reader) lexSpace() token.Token {
	for !r.isEOF() {
		switch r.peek() {
		case ' ', '\t', '\r', '\n':
			r.advance()
		default:
			return r.consume(token.Whitespace)
		}
	}
	return r.consume(token.Whitespace)
}

func (r *reader) lexLineComment() token.Token {
	r.advance()
	r.advance()
	for !r.isEOF() && r.peek() != '\n' {
		r.advanceRune()
	}
	return r.consume(token.LineComment)
}

func (r *reader) lexBlockComment() token.Token {
	r.advance()
	r.advance()
	depth := 1
	for !r.isEOF() && depth > 0 {
		switch {
		case r.peek() == '/' && r.peekN(1) == '*':
			r.advance()
			r.advance()
			depth++
		case r.peek() == '*' && r.peekN(1) == '/':
			r.advance()
			r.advance()
			depth--
		default:
			r.advanceRune()
		}
	}
	if depth > 0 {
		return r.errorToken("unterminated block comment")
	}
	return r.consume(token.BlockComment)
}

// lexIdentOrNumberAdjacency scans a plain identifier. The error case of a
// numeric literal directly followed by an identifier character (e.g.
// "123abc") is handled separately in lexNumber via digitIdentAdjacency.
func (r *reader) lexIdentOrNumberAdjacency() token.Token {
	r.advance()
	for !r.isEOF() && isIdentCont(r.peek()) {
		r.advance()
	}
	return r.consume(token.Ident)
}

func (r *reader) lexNumber() token.Token {
	if r.peek() == '0' && (r.peekN(1) == 'x' || r.peekN(1) == 'X') {
		r.advance()
		r.advance()
		start := r.cursor
		for !r.isEOF() && isHexDigit(r.peek()) {
			r.advance()
		}
		if r.cursor == start {
			return r.errorToken("malformed hexadecimal literal")
		}
		if !r.isEOF() && isIdentStart(r.peek()) {
			return r.digitIdentAdjacency(token.HexIntLit)
		}
		return r.consume(token.HexIntLit)
	}

	isFloat := false
	if r.peek() == '.' {
		isFloat = true
		r.advance()
		for !r.isEOF() && isDigit(r.peek()) {
			r.advance()
		}
	} else {
		for !r.isEOF() && isDigit(r.peek()) {
			r.advance()
		}
		if r.peek() == '.' && r.peekN(1) != '.' {
			isFloat = true
			r.advance()
			for !r.isEOF() && isDigit(r.peek()) {
				r.advance()
			}
		}
	}

	if r.peek() == 'e' || r.peek() == 'E' {
		mark := r.cursor
		r.advance()
		if r.peek() == '+' || r.peek() == '-' {
			r.advance()
		}
		if !isDigit(r.peek()) {
			// Malformed exponent: the "e"/"e±" we just consumed becomes part
			// of the error token rather than being rolled back, since there
			// is no valid token boundary to roll back to.
			r.cursor = mark
			r.advance()
			if r.peek() == '+' || r.peek() == '-' {
				r.advance()
			}
			return r.errorToken("malformed scientific-notation exponent")
		}
		isFloat = true
		for !r.isEOF() && isDigit(r.peek()) {
			r.advance()
		}
	}

	if r.peek() == 'f' || r.peek() == 'F' {
		isFloat = true
		r.advance()
	}

	if !r.isEOF() && isIdentStart(r.peek()) {
		kind := token.IntLit
		if isFloat {
			kind = token.FloatLit
		}
		return r.digitIdentAdjacency(kind)
	}

	if isFloat {
		return r.consume(token.FloatLit)
	}
	return r.consume(token.IntLit)
}

// digitIdentAdjacency handles a numeric literal immediately followed by an
// identifier character with no space, e.g. "123abc". The error message on
// the token tells the reader to insert a space; no structured replacement
// is attached. Lexing continues by consuming the whole run as one error
// token so downstream recovery has a single synchronising point.
func (r *reader) digitIdentAdjacency(_ token.Kind) token.Token {
	for !r.isEOF() && isIdentCont(r.peek()) {
		r.advance()
	}
	return r.errorToken("digit literal directly followed by identifier character; insert a space")
}

func (r *reader) lexString() token.Token {
	r.advance()
	for {
		if r.isEOF() || r.peek() == '\n' {
			return r.errorToken("unterminated string literal")
		}
		c := r.peek()
		if c == '\\' {
			r.advance()
			if !r.isEOF() {
				r.advanceRune()
			}
			continue
		}
		if c == '"' {
			r.advance()
			return r.consume(token.StringLit)
		}
		r.advanceRune()
	}
}

func (r *reader) lexName() token.Token {
	r.advance()
	for {
		if r.isEOF() || r.peek() == '\n' {
			return r.errorToken("unterminated name literal")
		}
		c := r.peek()
		if c == '\\' {
			r.advance()
			if !r.isEOF() {
				r.advanceRune()
			}
			continue
		}
		if c == '\'' {
			r.advance()
			return r.consume(token.NameLit)
		}
		r.advanceRune()
	}
}

// threeCharOps and twoCharOps list operators recognised by maximal munch
// before falling back to a single-character token. Order matters: longer
// matches first.
var threeCharOps = []struct {
	s    string
	kind token.Kind
}{
	{">>>", token.UShr},
}

var twoCharOps = []struct {
	s    string
	kind token.Kind
}{
	{"++", token.Inc},
	{"--", token.Dec},
	{"**", token.StarStar},
	{"==", token.Eq},
	{"!=", token.NotEq},
	{"~=", token.ApproxEq},
	{"<=", token.LessEq},
	{">=", token.GreaterEq},
	{"&&", token.AmpAmp},
	{"||", token.PipePipe},
	{"^^", token.CaretCaret},
	{"<<", token.Shl},
	{">>", token.Shr},
}

var oneCharOps = map[byte]token.Kind{
	'(': token.LParen,
	')': token.RParen,
	'{': token.LBrace,
	'}': token.RBrace,
	'[': token.LBracket,
	']': token.RBracket,
	';': token.Semi,
	',': token.Comma,
	'.': token.Dot,
	'?': token.Question,
	':': token.Colon,
	'`': token.Accent,
	'\\': token.Backslash,
	'$': token.Dollar,
	'=': token.Assign,
	'<': token.Less,
	'>': token.Greater,
	'+': token.Plus,
	'-': token.Minus,
	'*': token.Star,
	'/': token.Slash,
	'%': token.Percent,
	'&': token.Amp,
	'|': token.Pipe,
	'^': token.Caret,
	'!': token.Bang,
	'~': token.Tilde,
	'@': token.At,
}

func (r *reader) lexOperatorOrPunct() token.Token {
	rest := r.text[r.cursor:]
	for _, op := range threeCharOps {
		if strings.HasPrefix(rest, op.s) {
			r.cursor += len(op.s)
			return r.consume(op.kind)
		}
	}
	for _, op := range twoCharOps {
		if strings.HasPrefix(rest, op.s) {
			r.cursor += len(op.s)
			return r.consume(op.kind)
		}
	}
	c := r.peek()
	if kind, ok := oneCharOps[c]; ok {
		r.advance()
		return r.consume(kind)
	}
	if c < 0x80 {
		r.advance()
	} else {
		r.advanceRune()
	}
	return r.errorToken("unrecognised character")
}
