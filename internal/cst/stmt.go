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
	"strings"

	"github.com/muscript-lang/muscript/internal/parse"
	"github.com/muscript-lang/muscript/internal/token"
)

// Stmt is the closed statement sum.
type Stmt interface {
	Node
	isStmt()
}

type ExprStmt struct {
	base
	Expr Expr
}

func (ExprStmt) isStmt() {}

// LocalVarStmt is `local Type name[, name…];`, the function-body-only
// counterpart of VarItem: no category, no specifiers.
type LocalVarStmt struct {
	base
	Type  *VarType
	Decls []VarDecl
}

func (LocalVarStmt) isStmt() {}

// BlockStmt is a brace-delimited statement list.
type BlockStmt struct {
	base
	Stmts []Stmt
}

func (BlockStmt) isStmt() {}

type IfStmt struct {
	base
	Cond Expr
	Then Stmt
	Else Stmt // nil if no `else`
}

func (IfStmt) isStmt() {}

type WhileStmt struct {
	base
	Cond Expr
	Body Stmt
}

func (WhileStmt) isStmt() {}

// DoUntilStmt is `do { … } until (cond);`; unlike while/for the body is
// always brace-delimited.
type DoUntilStmt struct {
	base
	Body *BlockStmt
	Cond Expr
}

func (DoUntilStmt) isStmt() {}

type ForStmt struct {
	base
	Init   Expr
	Cond   Expr
	Update Expr
	Body   Stmt
}

func (ForStmt) isStmt() {}

// ForEachStmt is `foreach IteratorExpr Body`, where IteratorExpr is a call
// expression into an iterator function (`foreach AllActors(class'Foo', a)`).
type ForEachStmt struct {
	base
	Iterator Expr
	Body     Stmt
}

func (ForEachStmt) isStmt() {}

// SwitchStmt's cases live as CaseStmt/DefaultStmt markers directly inside
// Body, in the order written, matching the fallthrough-by-default control
// flow switch lowering has to implement.
type SwitchStmt struct {
	base
	Value Expr
	Body  *BlockStmt
}

func (SwitchStmt) isStmt() {}

type CaseStmt struct {
	base
	Value Expr
}

func (CaseStmt) isStmt() {}

type DefaultStmt struct {
	base
}

func (DefaultStmt) isStmt() {}

// ReturnStmt's Value is nil for a bare `return;`.
type ReturnStmt struct {
	base
	Value Expr
}

func (ReturnStmt) isStmt() {}

type BreakStmt struct{ base }

func (BreakStmt) isStmt() {}

type ContinueStmt struct{ base }

func (ContinueStmt) isStmt() {}

// parseStmtList parses statements until the enclosing `}`, for use inside
// an already-open Bracketed(LBrace, RBrace, …) body.
func parseStmtList(p *parse.Parser, c *Ctx) []Stmt {
	var stmts []Stmt
	p.ParseGreedyList(func() bool { return p.At(token.RBrace) }, func() {
		stmts = append(stmts, parseStmt(p, c))
	})
	return stmts
}

var stmtKeywords = specSet(
	"if", "while", "do", "for", "foreach", "switch", "case", "default",
	"return", "break", "continue", "local",
)

func parseStmt(p *parse.Parser, c *Ctx) Stmt {
	if _, _, ok := p.Accept(token.Semi); ok {
		return &BlockStmt{} // empty statement: an empty, zero-span block
	}
	if p.At(token.LBrace) {
		return parseBlockStmt(p, c)
	}
	if p.At(token.Ident) {
		id, _ := p.Peek()
		word := strings.ToLower(c.Text(id))
		if stmtKeywords[word] {
			return parseKeywordStmt(p, c, word)
		}
		// Label: a bare identifier immediately followed by `:` at
		// statement position. Represented as an ExprStmt wrapping a
		// LabelExpr so gotos can reference labels as ordinary operands.
		pos := p.Position()
		nameId, _ := p.Next()
		if _, _, ok := p.Accept(token.Colon); ok {
			label := LabelExpr{base: base{span: spanOf(nameId, nameId)}, Name: Ident{base: base{span: spanOf(nameId, nameId)}, Id: nameId}}
			return ExprStmt{base: base{span: label.span}, Expr: label}
		}
		p.SetPosition(pos)
	}
	return parseExprStmt(p, c)
}

func parseBlockStmt(p *parse.Parser, c *Ctx) *BlockStmt {
	block := &BlockStmt{}
	openId, closeId := p.Bracketed(token.LBrace, token.RBrace, "statement block", func() {
		block.Stmts = parseStmtList(p, c)
	})
	block.span = spanOf(openId, closeId)
	return block
}

func parseExprStmt(p *parse.Parser, c *Ctx) Stmt {
	startId, _ := p.Peek()
	expr := ParseExpr(p, c, MaxPrec)
	semiId, _ := p.Expect(token.Semi)
	return ExprStmt{base: base{span: spanOf(startId, semiId)}, Expr: expr}
}

func parseKeywordStmt(p *parse.Parser, c *Ctx, word string) Stmt {
	startId, _ := p.Next() // consume the keyword
	switch word {
	case "if":
		cond := parseParenExpr(p, c)
		then := parseStmt(p, c)
		var elseStmt Stmt
		end := then.Span().End
		if p.At(token.Ident) {
			if id, _ := p.Peek(); strings.ToLower(c.Text(id)) == "else" {
				p.Next()
				elseStmt = parseStmt(p, c)
				end = elseStmt.Span().End
			}
		}
		return IfStmt{base: base{span: spanOf(startId, end)}, Cond: cond, Then: then, Else: elseStmt}

	case "while":
		cond := parseParenExpr(p, c)
		body := parseStmt(p, c)
		return WhileStmt{base: base{span: spanOf(startId, body.Span().End)}, Cond: cond, Body: body}

	case "do":
		_, bodyTok := p.Peek()
		body := parseStmt(p, c)
		// A `do` without a brace-delimited body is reported here and leaves
		// Body nil.
		block, ok := body.(*BlockStmt)
		if !ok {
			p.Errorf(bodyTok, "expected a `{ … }` block as the body of `do`")
		}
		p.ExpectIdent(c.File) // `until`
		cond := parseParenExpr(p, c)
		semiId, _ := p.Expect(token.Semi)
		return DoUntilStmt{base: base{span: spanOf(startId, semiId)}, Body: block, Cond: cond}

	case "for":
		p.Expect(token.LParen)
		init := ParseExpr(p, c, MaxPrec)
		p.Expect(token.Semi)
		cond := ParseExpr(p, c, MaxPrec)
		p.Expect(token.Semi)
		update := ParseExpr(p, c, MaxPrec)
		p.Expect(token.RParen)
		body := parseStmt(p, c)
		return ForStmt{base: base{span: spanOf(startId, body.Span().End)}, Init: init, Cond: cond, Update: update, Body: body}

	case "foreach":
		// The iterator call binds at most as loosely as PrecCall: a
		// trailing looser operator (assignment, ternary, …) belongs to
		// whatever follows, not to the iterator expression itself.
		iter := ParseExpr(p, c, PrecCall)
		body := parseStmt(p, c)
		return ForEachStmt{base: base{span: spanOf(startId, body.Span().End)}, Iterator: iter, Body: body}

	case "switch":
		value := parseParenExpr(p, c)
		body := parseBlockStmt(p, c)
		end := startId
		if body != nil {
			end = body.Span().End
		}
		return SwitchStmt{base: base{span: spanOf(startId, end)}, Value: value, Body: body}

	case "case":
		value := ParseExpr(p, c, MaxPrec)
		colonId, _ := p.Expect(token.Colon)
		return CaseStmt{base: base{span: spanOf(startId, colonId)}, Value: value}

	case "default":
		colonId, _ := p.Expect(token.Colon)
		return DefaultStmt{base: base{span: spanOf(startId, colonId)}}

	case "return":
		if _, _, ok := p.Accept(token.Semi); ok {
			return ReturnStmt{base: base{span: spanOf(startId, startId)}}
		}
		value := ParseExpr(p, c, MaxPrec)
		semiId, _ := p.Expect(token.Semi)
		return ReturnStmt{base: base{span: spanOf(startId, semiId)}, Value: value}

	case "break":
		semiId, _ := p.Expect(token.Semi)
		return BreakStmt{base: base{span: spanOf(startId, semiId)}}

	case "continue":
		semiId, _ := p.Expect(token.Semi)
		return ContinueStmt{base: base{span: spanOf(startId, semiId)}}

	case "local":
		v := &LocalVarStmt{Type: ParseVarType(p, c)}
		p.ParseCommaList(token.Semi, "local variable declaration", func() {
			nameId, _ := p.ExpectIdent(c.File)
			decl := VarDecl{Name: Ident{base: base{span: spanOf(nameId, nameId)}, Id: nameId}}
			end := nameId
			if p.At(token.LBracket) {
				_, closeId := p.Bracketed(token.LBracket, token.RBracket, "array size", func() {
					decl.ArraySize = ParseExpr(p, c, MaxPrec)
				})
				end = closeId
			}
			decl.span = spanOf(nameId, end)
			v.Decls = append(v.Decls, decl)
		})
		semiId, _ := p.Expect(token.Semi)
		v.span = spanOf(startId, semiId)
		return *v

	default:
		panic("unreachable: " + word)
	}
}

// parseParenExpr parses `(expr)` used by if/while/do-until/switch.
func parseParenExpr(p *parse.Parser, c *Ctx) Expr {
	var inner Expr
	p.Bracketed(token.LParen, token.RParen, "condition", func() {
		inner = ParseExpr(p, c, MaxPrec)
	})
	return inner
}
