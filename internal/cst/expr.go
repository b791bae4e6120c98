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

package cst

import (
	"github.com/muscript-lang/muscript/internal/parse"
	"github.com/muscript-lang/muscript/internal/source"
	"github.com/muscript-lang/muscript/internal/token"
)

// Expr is the closed expression sum: literal, identifier, failed-exp,
// object literal, prefix, postfix, infix, paren, assign, dot, index, call,
// new, ternary, label.
type Expr interface {
	Node
	isExpr()
}

// Precedence levels. Smaller binds tighter; MaxPrec is the loosest
// (outermost) level a top-level expression parses at. The binary operator
// families below PrecPath fill out the rest of UnrealScript's full
// operator table.
const (
	PrecPath    = 6
	precUnary   = 7
	PrecCall    = 8
	PrecPostfix = 10
	precMul     = 20 // * / %
	precAdd     = 22 // + -
	precShift   = 24 // << >> >>>
	precRel     = 26 // < <= > >=
	precEq      = 28 // == != ~=
	precBitAnd  = 30 // &
	precBitXor  = 32 // ^
	precBitOr   = 34 // |
	precLogAnd  = 36 // &&
	precLogXor  = 38 // ^^
	precLogOr   = 40 // ||
	precNamedOp = 44 // dot, cross, clockwiseFrom
	PrecTernary = 48
	PrecAssign  = 50
	MaxPrec     = 100
)

type LiteralExpr struct {
	base
	Id   source.Id
	Kind token.Kind
}

func (LiteralExpr) isExpr() {}

// IdentExpr is a bare identifier reference (variable, function, or type
// name — disambiguated later, during analysis).
type IdentExpr struct {
	base
	Id source.Id
}

func (IdentExpr) isExpr() {}

// FailedExpr wraps a FailedExp sentinel token (a failed macro expansion
// that landed in expression position) so downstream stages see a
// well-formed, if useless, expression node instead of a hole.
type FailedExpr struct {
	base
	Id source.Id
}

func (FailedExpr) isExpr() {}

// ObjectLiteralExpr is `Class'Pkg.Name'` — a bare class-name identifier
// immediately followed by a name literal.
type ObjectLiteralExpr struct {
	base
	Class Ident
	Name  source.Id
}

func (ObjectLiteralExpr) isExpr() {}

type PrefixExpr struct {
	base
	Op      source.Id
	OpKind  token.Kind
	Operand Expr
}

func (PrefixExpr) isExpr() {}

type PostfixExpr struct {
	base
	Operand Expr
	Op      source.Id
	OpKind  token.Kind
}

func (PostfixExpr) isExpr() {}

// InfixExpr is a binary operator application. OpEnd differs from OpStart
// only for a hugging compound-assignment operator folded into one logical
// token (`+` immediately followed by `=`).
type InfixExpr struct {
	base
	Left           Expr
	OpStart, OpEnd source.Id
	OpKind         token.Kind
	Compound       bool
	Right          Expr
}

func (InfixExpr) isExpr() {}

type ParenExpr struct {
	base
	Inner Expr
}

func (ParenExpr) isExpr() {}

type DotExpr struct {
	base
	Left Expr
	Name Ident
}

func (DotExpr) isExpr() {}

type IndexExpr struct {
	base
	Left  Expr
	Index Expr
}

func (IndexExpr) isExpr() {}

// CallExpr is a call or cast expression (the two are disambiguated during
// analysis, not parsing: `Foo(x)` parses the same whether Foo turns out to
// be a function or a type name). A nil element in Args is an omitted
// argument (`Foo(, b)` or a trailing `)` right after a comma), preserved
// for later defaulting.
type CallExpr struct {
	base
	Callee Expr
	Args   []Expr
}

func (CallExpr) isExpr() {}

// NewExpr is `new(args) ClassExpr`, recognised when a call's callee is the
// bare identifier `new`.
type NewExpr struct {
	base
	Args  []Expr
	Class Expr
}

func (NewExpr) isExpr() {}

type TernaryExpr struct {
	base
	Cond, Then, Else Expr
}

func (TernaryExpr) isExpr() {}

// LabelExpr is only ever constructed by the statement parser (`ident:` at
// statement position); it is part of the expression sum type because
// gotos reference it as an ordinary identifier-shaped operand.
type LabelExpr struct {
	base
	Name Ident
}

func (LabelExpr) isExpr() {}

// ParseExpr parses an expression that binds no looser than maxPrec.
func ParseExpr(p *parse.Parser, c *Ctx, maxPrec int) Expr {
	left := parsePrefix(p, c)
	for {
		prec, rightAssoc, ok := peekInfix(p, c, maxPrec)
		if !ok {
			break
		}
		left = parseInfixFrom(p, c, left, prec, rightAssoc)
	}
	return left
}

func parsePrefix(p *parse.Parser, c *Ctx) Expr {
	id, tok := p.Peek()
	switch tok.Kind {
	case token.Minus, token.Plus, token.Bang, token.Tilde, token.Inc, token.Dec:
		p.Next()
		operand := ParseExpr(p, c, precUnary)
		return PrefixExpr{base: base{span: spanOf(id, endOf(operand))}, Op: id, OpKind: tok.Kind, Operand: operand}
	case token.LParen:
		p.Next()
		inner := ParseExpr(p, c, MaxPrec)
		closeId, _ := p.Expect(token.RParen)
		return ParenExpr{base: base{span: spanOf(id, closeId)}, Inner: inner}
	case token.IntLit, token.HexIntLit, token.FloatLit, token.StringLit, token.NameLit:
		p.Next()
		return LiteralExpr{base: base{span: spanOf(id, id)}, Id: id, Kind: tok.Kind}
	case token.FailedExp:
		p.Next()
		return FailedExpr{base: base{span: spanOf(id, id)}, Id: id}
	case token.Ident:
		return parsePrefixIdent(p, c)
	default:
		p.Errorf(tok, "expected an expression, found %s", tok.Kind)
		p.Next()
		return FailedExpr{base: base{span: spanOf(id, id)}, Id: id}
	}
}

func parsePrefixIdent(p *parse.Parser, c *Ctx) Expr {
	id, _ := p.Next()
	switch c.Text(id) {
	case "true", "false", "none":
		return LiteralExpr{base: base{span: spanOf(id, id)}, Id: id, Kind: token.Ident}
	}
	// Object literal: `Ident 'Pkg.Name'` — a class-name identifier
	// immediately followed by a name literal.
	if p.At(token.NameLit) {
		nameId, _ := p.Next()
		return ObjectLiteralExpr{
			base:  base{span: spanOf(id, nameId)},
			Class: Ident{base: base{span: spanOf(id, id)}, Id: id},
			Name:  nameId,
		}
	}
	return IdentExpr{base: base{span: spanOf(id, id)}, Id: id}
}

// peekInfix reports the precedence of the next infix operator, if any,
// along with whether it's right-associative, and whether it is allowed
// under maxPrec.
func peekInfix(p *parse.Parser, c *Ctx, maxPrec int) (prec int, rightAssoc bool, ok bool) {
	id, tok := p.Peek()
	switch tok.Kind {
	case token.Star, token.Slash, token.Percent, token.StarStar:
		prec = precMul
	case token.Plus, token.Minus:
		prec = precAdd
	case token.Shl, token.Shr, token.UShr:
		prec = precShift
	case token.Less, token.LessEq, token.Greater, token.GreaterEq:
		prec = precRel
	case token.Eq, token.NotEq, token.ApproxEq:
		prec = precEq
	case token.Amp:
		prec = precBitAnd
	case token.Caret:
		prec = precBitXor
	case token.Pipe:
		prec = precBitOr
	case token.AmpAmp:
		prec = precLogAnd
	case token.CaretCaret:
		prec = precLogXor
	case token.PipePipe:
		prec = precLogOr
	case token.Question:
		prec, rightAssoc = PrecTernary, true
	case token.Assign:
		prec, rightAssoc = PrecAssign, true
	case token.Dot:
		prec = PrecPath
	case token.LBracket, token.LParen:
		prec = PrecCall
	case token.Inc, token.Dec:
		prec = PrecPostfix
	case token.Ident:
		switch c.Text(id) {
		case "dot", "cross", "clockwisefrom":
			prec = precNamedOp
		default:
			return 0, false, false
		}
	default:
		return 0, false, false
	}
	if prec > maxPrec {
		return 0, false, false
	}
	return prec, rightAssoc, true
}

func parseInfixFrom(p *parse.Parser, c *Ctx, left Expr, prec int, rightAssoc bool) Expr {
	id, tok := p.Peek()
	switch tok.Kind {
	case token.Dot:
		p.Next()
		nameId, _ := p.ExpectIdent(c.File)
		return DotExpr{base: base{span: spanOf(startOf(left), nameId)}, Left: left, Name: Ident{base: base{span: spanOf(nameId, nameId)}, Id: nameId}}
	case token.LBracket:
		p.Next()
		index := ParseExpr(p, c, MaxPrec)
		closeId, _ := p.Expect(token.RBracket)
		return IndexExpr{base: base{span: spanOf(startOf(left), closeId)}, Left: left, Index: index}
	case token.LParen:
		return parseCall(p, c, left)
	case token.Inc, token.Dec:
		p.Next()
		return PostfixExpr{base: base{span: spanOf(startOf(left), id)}, Operand: left, Op: id, OpKind: tok.Kind}
	case token.Question:
		p.Next()
		then := ParseExpr(p, c, PrecTernary)
		p.Expect(token.Colon)
		els := ParseExpr(p, c, PrecTernary)
		return TernaryExpr{base: base{span: spanOf(startOf(left), endOf(els))}, Cond: left, Then: then, Else: els}
	case token.Assign:
		p.Next()
		right := ParseExpr(p, c, PrecAssign)
		return InfixExpr{base: base{span: spanOf(startOf(left), endOf(right))}, Left: left, OpStart: id, OpEnd: id, OpKind: token.Assign, Right: right}
	default:
		// Binary arithmetic/relational/named-identifier operator, with the
		// hugging-compound-assignment check: an operator token immediately
		// (byte-adjacently) followed by `=` folds into one two-token
		// compound-assignment operator instead of the plain binary
		// operator. Named identifier operators (`dot`, `cross`, …) can
		// never hug an `=` since they are separate identifier tokens.
		opStart, opTok := p.Next()
		opEnd := opStart
		opKind := opTok.Kind
		compound := false
		if opTok.Kind != token.Ident {
			if _, nextTok := p.Peek(); nextTok.Kind == token.Assign && nextTok.Start == opTok.End {
				opEnd, _ = p.Next()
				compound = true
			}
		}
		nextPrec := prec
		if !rightAssoc {
			nextPrec = prec - 1
		}
		right := ParseExpr(p, c, nextPrec)
		return InfixExpr{
			base:     base{span: spanOf(startOf(left), endOf(right))},
			Left:     left,
			OpStart:  opStart,
			OpEnd:    opEnd,
			OpKind:   opKind,
			Compound: compound,
			Right:    right,
		}
	}
}

// parseCall parses `callee(args)`, recognising `new(args) ClassExpr` when
// callee is the bare identifier `new`.
func parseCall(p *parse.Parser, c *Ctx, callee Expr) Expr {
	isNew := false
	if ie, ok := callee.(IdentExpr); ok {
		isNew = c.Text(ie.Id) == "new"
	}
	p.Next() // consume '('
	args := parseArgumentList(p, c)
	closeId, _ := p.Expect(token.RParen)
	if isNew {
		classExpr := ParseExpr(p, c, MaxPrec)
		return NewExpr{base: base{span: spanOf(startOf(callee), endOf(classExpr))}, Args: args, Class: classExpr}
	}
	return CallExpr{base: base{span: spanOf(startOf(callee), closeId)}, Callee: callee, Args: args}
}

// parseArgumentList parses the comma-separated contents of a call's
// parentheses, preserving omitted arguments (a bare comma, or an
// immediate closing paren right after one) as nil elements rather than
// collapsing them, so later defaulting logic sees exactly which
// positional slots were skipped.
func parseArgumentList(p *parse.Parser, c *Ctx) []Expr {
	var args []Expr
	if p.At(token.RParen) {
		return nil
	}
	for {
		if p.At(token.Comma) || p.At(token.RParen) {
			args = append(args, nil)
		} else {
			args = append(args, ParseExpr(p, c, PrecAssign-1))
		}
		if p.At(token.RParen) {
			return args
		}
		if _, _, ok := p.Accept(token.Comma); ok {
			continue
		}
		if p.AtEnd() {
			_, tok := p.Peek()
			p.Errorf(tok, "unterminated argument list: expected , or )")
			return args
		}
		_, tok := p.Peek()
		p.Errorf(tok, "expected , or ) in argument list")
		p.Next()
	}
}

func startOf(e Expr) source.Id { return e.Span().Start }
func endOf(e Expr) source.Id   { return e.Span().End }
