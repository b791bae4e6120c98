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
	"github.com/muscript-lang/muscript/internal/source"
	"github.com/muscript-lang/muscript/internal/token"
)

// DefaultPropertiesItem is a `defaultproperties { … }` or
// `structdefaultproperties { … }` class/struct item. The partitioner
// canonicalises the struct-scoped spelling down to the same shape as the
// class-scoped one; the CST keeps the distinction since it changes which
// scope the block was legal in.
type DefaultPropertiesItem struct {
	base
	IsStruct bool
	Block    *DefaultPropertiesBlock
}

func (DefaultPropertiesItem) isItem() {}

func parseDefaultPropertiesItem(p *parse.Parser, c *Ctx) Item {
	startId, kwTok := p.Next()
	isStruct := strings.ToLower(kwTok.Text(c.File)) == "structdefaultproperties"
	block := ParseDefaultPropertiesBlock(p, c)
	return DefaultPropertiesItem{base: base{span: spanOf(startId, block.span.End)}, IsStruct: isStruct, Block: block}
}

// DefaultPropertiesBlock is the brace-delimited body: an unordered mix of
// plain `Key = Value` / `Key.Operation(Arg)` entries and `begin object …
// end object` subobject declarations, in source order.
type DefaultPropertiesBlock struct {
	base
	Properties []DefaultProperty
}

// DefaultProperty is the Subobject | Value sum.
type DefaultProperty interface {
	Node
	isDefaultProperty()
}

func ParseDefaultPropertiesBlock(p *parse.Parser, c *Ctx) *DefaultPropertiesBlock {
	block := &DefaultPropertiesBlock{}
	openId, closeId := p.Bracketed(token.LBrace, token.RBrace, "default properties block", func() {
		p.ParseGreedyList(func() bool { return p.At(token.RBrace) }, func() {
			block.Properties = append(block.Properties, parseDefaultProperty(p, c))
		})
	})
	block.span = spanOf(openId, closeId)
	return block
}

func parseDefaultProperty(p *parse.Parser, c *Ctx) DefaultProperty {
	if p.At(token.Ident) {
		id, _ := p.Peek()
		if strings.ToLower(c.Text(id)) == "begin" {
			return parseSubobject(p, c)
		}
	}
	return parseDefaultValue(p, c)
}

// DefaultSubobject is `begin object … end object` (both keyword pairs are
// case-insensitive, matching every other UnrealScript soft keyword).
type DefaultSubobject struct {
	base
	Properties []*DefaultValue
}

func (DefaultSubobject) isDefaultProperty() {}

func parseSubobject(p *parse.Parser, c *Ctx) DefaultProperty {
	startId, _ := p.Next() // `begin`
	p.ExpectIdent(c.File)  // `object`
	so := &DefaultSubobject{}
	end := startId
	p.ParseGreedyList(func() bool {
		if !p.At(token.Ident) {
			return false
		}
		id, _ := p.Peek()
		return strings.ToLower(c.Text(id)) == "end"
	}, func() {
		so.Properties = append(so.Properties, parseDefaultValue(p, c))
	})
	if p.At(token.Ident) {
		endId, _ := p.Next() // `end`
		p.ExpectIdent(c.File) // `object`
		end = endId
	} else {
		_, tok := p.Peek()
		p.Errorf(tok, "missing `end object` to end default subobject")
	}
	so.span = spanOf(startId, end)
	return so
}

// DefaultValue is a `Key = Value;` or `Key.Operation(Arg);` entry. The
// trailing `;` is optional, matching vanilla UnrealScript's tolerance for
// unterminated default-property lines.
type DefaultValue struct {
	base
	Key    DefaultKey
	Action ValueAction
}

func (DefaultValue) isDefaultProperty() {}

// DefaultKey is `Name` or `Name(Index)` / `Name[Index]`.
type DefaultKey struct {
	base
	Name    Ident
	HasIdx  bool
	IdxEnum *Ident    // set when the index is an enumerator name
	IdxNum  source.Id // set (IntLit) when the index is numeric
}

// ValueAction is the Assign | Call sum.
type ValueAction interface {
	Node
	isValueAction()
}

type AssignAction struct {
	base
	Value DPLit
}

func (AssignAction) isValueAction() {}

// CallAction is `.Operation(Arg)`; Arg is nil for a no-argument call and
// for a call with empty parens alike (distinguished by HasParens).
type CallAction struct {
	base
	Op        Ident
	HasParens bool
	Arg       DPLit
}

func (CallAction) isValueAction() {}

func parseDefaultValue(p *parse.Parser, c *Ctx) *DefaultValue {
	startId, _ := p.Peek()
	key := parseDefaultKey(p, c)
	var action ValueAction
	if _, _, ok := p.Accept(token.Assign); ok {
		lit := parseDPLit(p, c)
		action = AssignAction{base: base{span: lit.Span()}, Value: lit}
	} else if _, _, ok := p.Accept(token.Dot); ok {
		opId, _ := p.ExpectIdent(c.File)
		op := Ident{base: base{span: spanOf(opId, opId)}, Id: opId}
		call := CallAction{Op: op}
		end := opId
		if p.At(token.LParen) {
			call.HasParens = true
			_, closeId := p.Bracketed(token.LParen, token.RParen, "default property call argument", func() {
				if !p.At(token.RParen) {
					call.Arg = parseDPLit(p, c)
				}
			})
			end = closeId
		}
		call.span = spanOf(opId, end)
		action = call
	} else {
		_, tok := p.Peek()
		p.Errorf(tok, "`=` or `.Operation(Arg)` expected")
	}
	p.Accept(token.Semi)
	end := key.span.End
	if action != nil {
		end = action.Span().End
	}
	return &DefaultValue{base: base{span: spanOf(startId, end)}, Key: key, Action: action}
}

func parseDefaultKey(p *parse.Parser, c *Ctx) DefaultKey {
	nameId, _ := p.ExpectIdent(c.File)
	key := DefaultKey{Name: Ident{base: base{span: spanOf(nameId, nameId)}, Id: nameId}}
	end := nameId
	openKind, closeKind := token.LParen, token.RParen
	if p.At(token.LBracket) {
		openKind, closeKind = token.LBracket, token.RBracket
	}
	if p.At(openKind) {
		key.HasIdx = true
		_, closeId := p.Bracketed(openKind, closeKind, "default property index", func() {
			if p.At(token.IntLit) {
				numId, _ := p.Next()
				key.IdxNum = numId
			} else {
				idxId, _ := p.ExpectIdent(c.File)
				key.IdxEnum = &Ident{base: base{span: spanOf(idxId, idxId)}, Id: idxId}
			}
		})
		end = closeId
	}
	key.span = spanOf(nameId, end)
	return key
}

// DPLit is the default-property literal sum: numbers (optionally signed),
// strings, identifiers (optionally an object literal with a trailing name
// literal), and compound array/struct literals.
type DPLit interface {
	Node
	isDPLit()
}

type DPNumLit struct {
	base
	Sign token.Kind // Invalid, Plus, or Minus
	Id   source.Id
	Kind token.Kind // IntLit or FloatLit
}

func (DPNumLit) isDPLit() {}

type DPStringLit struct {
	base
	Id source.Id
}

func (DPStringLit) isDPLit() {}

// DPIdentLit is a bare identifier literal (enum value, `true`/`false`/
// `none`, class name) optionally followed by a name literal, forming an
// object literal (`Texture'Pkg.Name'`).
type DPIdentLit struct {
	base
	Name      Ident
	NameLitId *source.Id
}

func (DPIdentLit) isDPLit() {}

// DPCompoundLit is an array or struct literal: `(1, 2, 3)` or
// `(X=1, Y=2, Z=3)`. Braces are accepted and ignored around the
// parentheses for compatibility with vanilla UnrealScript source.
type DPCompoundLit struct {
	base
	Braced   bool
	Elements []DPCompoundElement
}

func (DPCompoundLit) isDPLit() {}

// DPCompoundElement is a bare literal (array element) or a `Field=Lit`
// pair (struct field); Field is nil for the former.
type DPCompoundElement struct {
	base
	Field *Ident
	Value DPLit
}

func parseDPLit(p *parse.Parser, c *Ctx) DPLit {
	id, tok := p.Peek()
	switch tok.Kind {
	case token.Plus, token.Minus:
		p.Next()
		numId, numTok := p.Peek()
		if numTok.Kind != token.IntLit && numTok.Kind != token.FloatLit {
			p.Errorf(numTok, "number literal expected")
			return DPNumLit{base: base{span: spanOf(id, id)}, Sign: tok.Kind, Id: numId, Kind: token.IntLit}
		}
		p.Next()
		return DPNumLit{base: base{span: spanOf(id, numId)}, Sign: tok.Kind, Id: numId, Kind: numTok.Kind}
	case token.IntLit, token.FloatLit:
		p.Next()
		return DPNumLit{base: base{span: spanOf(id, id)}, Sign: token.Invalid, Id: id, Kind: tok.Kind}
	case token.StringLit:
		p.Next()
		return DPStringLit{base: base{span: spanOf(id, id)}, Id: id}
	case token.Ident:
		p.Next()
		lit := DPIdentLit{Name: Ident{base: base{span: spanOf(id, id)}, Id: id}}
		end := id
		if p.At(token.NameLit) {
			nameId, _ := p.Next()
			lit.NameLitId = &nameId
			end = nameId
		}
		lit.span = spanOf(id, end)
		return lit
	case token.LParen:
		return parseDPCompound(p, c, false)
	case token.LBrace:
		p.Next()
		inner := parseDPCompound(p, c, true)
		closeId, _ := p.Expect(token.RBrace)
		if cl, ok := inner.(DPCompoundLit); ok {
			cl.span = spanOf(id, closeId)
			return cl
		}
		return inner
	default:
		p.Errorf(tok, "default property literal expected")
		p.Next()
		return DPIdentLit{base: base{span: spanOf(id, id)}, Name: Ident{base: base{span: spanOf(id, id)}, Id: id}}
	}
}

func parseDPCompound(p *parse.Parser, c *Ctx, braced bool) DPLit {
	compound := &DPCompoundLit{Braced: braced}
	openId, closeId := p.Bracketed(token.LParen, token.RParen, "compound literal", func() {
		p.ParseCommaList(token.RParen, "compound literal", func() {
			compound.Elements = append(compound.Elements, parseDPCompoundElement(p, c))
		})
	})
	compound.span = spanOf(openId, closeId)
	return *compound
}

func parseDPCompoundElement(p *parse.Parser, c *Ctx) DPCompoundElement {
	if p.At(token.Ident) {
		pos := p.Position()
		fieldId, _ := p.Next()
		if _, _, ok := p.Accept(token.Assign); ok {
			field := Ident{base: base{span: spanOf(fieldId, fieldId)}, Id: fieldId}
			value := parseDPLit(p, c)
			return DPCompoundElement{base: base{span: spanOf(fieldId, value.Span().End)}, Field: &field, Value: value}
		}
		p.SetPosition(pos)
	}
	value := parseDPLit(p, c)
	return DPCompoundElement{base: base{span: value.Span()}, Value: value}
}
