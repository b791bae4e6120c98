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

// Package token defines the token kinds and channels shared by the lexer,
// preprocessor, and parser.
package token

import "github.com/muscript-lang/muscript/internal/source"

// Channel classifies a Kind for the purposes of stream filtering. A reader
// specifies which channels it accepts; see tokstream.Stream.
type Channel uint8

const (
	// Code is normal syntax-significant tokens.
	Code Channel = 1 << iota
	// Comment is line and block comments.
	Comment
	// Space is whitespace runs.
	Space
	// Macro is the empty-macro sentinel channel (FailedExp, Generated).
	Macro
	// Error is reserved for lex-error tokens. Kind.Channel never returns
	// it: a lex-error token (Kind Invalid, Err set) is read on Code.
	Error

	// Default is the channel mask most parsing code reads from.
	Default = Code
	// All accepts every channel, used by the `lex` CLI action to dump every
	// token including trivia.
	All = Code | Comment | Space | Macro | Error
)

// Kind enumerates every token kind the lexer can produce.
type Kind uint16

const (
	Invalid Kind = iota

	EndOfFile
	Whitespace
	LineComment
	BlockComment

	Ident

	// Literals
	IntLit
	HexIntLit
	FloatLit
	StringLit
	NameLit

	// Keywords are lexed as Ident and reclassified contextually by the
	// parser (UnrealScript keywords are not reserved: a class may still use
	// `Function`, `Name`, etc. as a plain identifier in many positions, the
	// same way gapil's own keywords are soft).

	// Punctuation
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Semi
	Comma
	Dot
	Question
	Colon
	Accent       // `
	Backslash    // \ (preprocessor line continuation)
	Dollar       // $ (string concatenation sugar used in default properties)

	// Operators (maximal munch already applied by the lexer)
	Assign   // =
	Eq       // ==
	NotEq    // !=
	ApproxEq // ~=
	Less     // <
	LessEq   // <=
	Greater  // >
	GreaterEq // >=
	Shl      // <<
	Shr      // >>
	UShr     // >>>
	Plus     // +
	Minus    // -
	Star     // *
	StarStar // **
	Slash    // /
	Percent  // %
	Amp      // &
	AmpAmp   // &&
	Pipe     // |
	PipePipe // ||
	Caret    // ^
	CaretCaret // ^^
	Bang     // !
	Tilde    // ~
	Inc      // ++
	Dec      // --
	At       // @

	// Sentinels
	FailedExp // expansion of an undefined macro, or any failed expansion
	Generated // a token synthesised by the preprocessor rather than lexed
)

var kindNames = map[Kind]string{
	Invalid:      "Invalid",
	EndOfFile:    "EndOfFile",
	Whitespace:   "Whitespace",
	LineComment:  "LineComment",
	BlockComment: "BlockComment",
	Ident:        "Ident",
	IntLit:       "IntLit",
	HexIntLit:    "HexIntLit",
	FloatLit:     "FloatLit",
	StringLit:    "StringLit",
	NameLit:      "NameLit",
	LParen:       "(",
	RParen:       ")",
	LBrace:       "{",
	RBrace:       "}",
	LBracket:     "[",
	RBracket:     "]",
	Semi:         ";",
	Comma:        ",",
	Dot:          ".",
	Question:     "?",
	Colon:        ":",
	Accent:       "`",
	Backslash:    `\`,
	Dollar:       "$",
	Assign:       "=",
	Eq:           "==",
	NotEq:        "!=",
	ApproxEq:     "~=",
	Less:         "<",
	LessEq:       "<=",
	Greater:      ">",
	GreaterEq:    ">=",
	Shl:          "<<",
	Shr:          ">>",
	UShr:         ">>>",
	Plus:         "+",
	Minus:        "-",
	Star:         "*",
	StarStar:     "**",
	Slash:        "/",
	Percent:      "%",
	Amp:          "&",
	AmpAmp:       "&&",
	Pipe:         "|",
	PipePipe:     "||",
	Caret:        "^",
	CaretCaret:   "^^",
	Bang:         "!",
	Tilde:        "~",
	Inc:          "++",
	Dec:          "--",
	At:           "@",
	FailedExp:    "FailedExp",
	Generated:    "Generated",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Kind(?)"
}

// Channel returns the channel a kind belongs to.
func (k Kind) Channel() Channel {
	switch k {
	case Whitespace:
		return Space
	case LineComment, BlockComment:
		return Comment
	case FailedExp, Generated:
		return Macro
	default:
		return Code
	}
}

// Token is one lexical token: a kind plus a byte range into its source
// file's text, and an Error payload when Kind reports an error condition
// (kept separate from Kind so the parser never has to special-case an
// "ErrorKind" in grammar dispatch — error tokens still carry Code-channel
// semantics of whichever token they replace where possible).
type Token struct {
	Kind  Kind
	Start int // byte offset in the owning file's text
	End   int // one past the last byte
	Err   string
}

// Len returns the number of bytes the token spans.
func (t Token) Len() int { return t.End - t.Start }

// Text returns the token's source text, given the file it came from.
func (t Token) Text(file *source.File) string {
	if file == nil || t.Start < 0 || t.End > len(file.Text) || t.Start > t.End {
		return ""
	}
	return file.Text[t.Start:t.End]
}

// Id is the arena id of a token: source.Id specialised to Token.
type Id = source.Id

// Span is a contiguous range of token ids within one file.
type Span = source.Span[Token]
