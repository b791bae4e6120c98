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

// Item is one direct member of a class or struct body.
type Item interface {
	Node
	isItem()
}

// Specifier is a bare or parenthesised-argument-list modifier keyword
// (`placeable`, `config(Group)`, `implements(A,B)`, …) attached to a class
// header, var, function, or parameter. Enforcement of which specifiers are
// legal where is the partitioner/analyser's job; the CST just records what
// was written.
type Specifier struct {
	base
	Name Ident
	Args []Ident
}

func parseSpecifier(p *parse.Parser, c *Ctx) Specifier {
	nameId, _ := p.Next()
	spec := Specifier{Name: Ident{base: base{span: spanOf(nameId, nameId)}, Id: nameId}}
	end := nameId
	if p.At(token.LParen) {
		_, closeId := p.Bracketed(token.LParen, token.RParen, "specifier arguments", func() {
			p.ParseCommaList(token.RParen, "specifier arguments", func() {
				argId, _ := p.ExpectIdent(c.File)
				spec.Args = append(spec.Args, Ident{base: base{span: spanOf(argId, argId)}, Id: argId})
			})
		})
		end = closeId
	}
	spec.span = spanOf(nameId, end)
	return spec
}

// parseSpecifierList consumes specifiers while the next token is an
// identifier whose lowercased text is in allowed, stopping at the first
// identifier that isn't (taken to be the start of whatever follows: a
// type name, a function-kind keyword, `;`, …).
func parseSpecifierList(p *parse.Parser, c *Ctx, allowed map[string]bool) []Specifier {
	var specs []Specifier
	for p.At(token.Ident) {
		id, _ := p.Peek()
		if !allowed[strings.ToLower(c.Text(id))] {
			break
		}
		specs = append(specs, parseSpecifier(p, c))
	}
	return specs
}

var classSpecifiers = specSet(
	"abstract", "perobjectconfig", "transient", "placeable", "notplaceable",
	"hidedropdown", "dependson", "collapsecategories", "dontcollapsecategories",
	"config", "classgroup", "hidecategories", "showcategories", "implements",
	"forcescriptorder", "native", "nativereplication", "instanced",
)

var varSpecifiers = specSet(
	"const", "config", "globalconfig", "localized", "transient", "travel",
	"private", "protected", "public", "editconst", "editinline",
	"editinlineuse", "editconstarray", "noexport", "noimport", "deprecated",
	"instanced", "duplicatetransient", "export", "nontransactional",
	"serializetext", "native", "repnotify", "interp", "bitwise", "input",
)

var functionPreSpecifiers = specSet(
	"static", "final", "simulated", "exec", "native", "noexport", "singular",
	"iterator", "latent", "const", "private", "protected", "public",
)

var functionPostSpecifiers = specSet(
	"const",
)

var paramSpecifiers = specSet(
	"coerce", "const", "init", "optional", "out", "skip",
)

func specSet(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// ClassHeader is the leading `class`/`interface` declaration of a file.
type ClassHeader struct {
	base
	Partial    bool
	Interface  bool
	Name       Ident
	Extends    *Type
	Within     *Ident
	Specifiers []Specifier
}

func ParseClassHeader(p *parse.Parser, c *Ctx) *ClassHeader {
	startId, _ := p.Peek()
	h := &ClassHeader{}
	if p.At(token.Ident) {
		if id, _ := p.Peek(); strings.ToLower(c.Text(id)) == "partial" {
			p.Next()
			h.Partial = true
		}
	}
	kindId, _ := p.ExpectIdent(c.File)
	h.Interface = strings.ToLower(c.Text(kindId)) == "interface"
	nameId, _ := p.ExpectIdent(c.File)
	h.Name = Ident{base: base{span: spanOf(nameId, nameId)}, Id: nameId}

	if p.At(token.Ident) {
		if id, _ := p.Peek(); strings.ToLower(c.Text(id)) == "extends" {
			p.Next()
			h.Extends = ParseType(p, c)
		}
	}
	if p.At(token.Ident) {
		if id, _ := p.Peek(); strings.ToLower(c.Text(id)) == "within" {
			p.Next()
			withinId, _ := p.ExpectIdent(c.File)
			h.Within = &Ident{base: base{span: spanOf(withinId, withinId)}, Id: withinId}
		}
	}
	h.Specifiers = parseSpecifierList(p, c, classSpecifiers)
	semiId, _ := p.Expect(token.Semi)
	h.span = spanOf(startId, semiId)
	return h
}

// StructDef is `struct [specifiers] Name [extends Path] { items… }`.
type StructDef struct {
	base
	Specifiers []Specifier
	Name       Ident
	Extends    *Type
	Items      []Item
}

func ParseStructDef(p *parse.Parser, c *Ctx) *StructDef {
	startId, _ := p.Expect(token.Ident) // `struct`
	sd := &StructDef{}
	sd.Specifiers = parseSpecifierList(p, c, classSpecifiers)
	nameId, _ := p.ExpectIdent(c.File)
	sd.Name = Ident{base: base{span: spanOf(nameId, nameId)}, Id: nameId}
	if p.At(token.Ident) {
		if id, _ := p.Peek(); strings.ToLower(c.Text(id)) == "extends" {
			p.Next()
			sd.Extends = ParseType(p, c)
		}
	}
	_, closeId := p.Bracketed(token.LBrace, token.RBrace, "struct body", func() {
		p.ParseGreedyList(func() bool { return p.At(token.RBrace) }, func() {
			if item := parseStructItem(p, c); item != nil {
				sd.Items = append(sd.Items, item)
			}
		})
	})
	sd.span = spanOf(startId, closeId)
	return sd
}

func parseStructItem(p *parse.Parser, c *Ctx) Item {
	id, _ := p.Peek()
	switch strings.ToLower(c.Text(id)) {
	case "const":
		return parseConstItem(p, c)
	case "var":
		return parseVarItem(p, c)
	case "struct":
		sd := ParseStructDef(p, c)
		p.Accept(token.Semi)
		return StructItem{base: sd.base, Def: sd}
	case "structdefaultproperties", "defaultproperties":
		return parseDefaultPropertiesItem(p, c)
	default:
		_, tok := p.Peek()
		p.Errorf(tok, "unexpected %s in struct body", tok.Kind)
		p.Next()
		return nil
	}
}

// EnumDef is `enum Name { A, B, C }`.
type EnumDef struct {
	base
	Name   Ident
	Values []Ident
}

func ParseEnumDef(p *parse.Parser, c *Ctx) *EnumDef {
	startId, _ := p.Expect(token.Ident) // `enum`
	nameId, _ := p.ExpectIdent(c.File)
	ed := &EnumDef{Name: Ident{base: base{span: spanOf(nameId, nameId)}, Id: nameId}}
	_, closeId := p.Bracketed(token.LBrace, token.RBrace, "enum body", func() {
		p.ParseCommaList(token.RBrace, "enum body", func() {
			valId, _ := p.ExpectIdent(c.File)
			ed.Values = append(ed.Values, Ident{base: base{span: spanOf(valId, valId)}, Id: valId})
		})
	})
	ed.span = spanOf(startId, closeId)
	return ed
}

// ConstItem is `const NAME = expr;`.
type ConstItem struct {
	base
	Name  Ident
	Value Expr
}

func (ConstItem) isItem() {}

func parseConstItem(p *parse.Parser, c *Ctx) Item {
	startId, _ := p.Expect(token.Ident) // `const`
	nameId, _ := p.ExpectIdent(c.File)
	p.Expect(token.Assign)
	value := ParseExpr(p, c, MaxPrec)
	semiId, _ := p.Expect(token.Semi)
	return ConstItem{
		base:  base{span: spanOf(startId, semiId)},
		Name:  Ident{base: base{span: spanOf(nameId, nameId)}, Id: nameId},
		Value: value,
	}
}

// VarDecl is one declarator within a `var` item: a name, with an optional
// fixed-size array marker.
type VarDecl struct {
	base
	Name      Ident
	ArraySize Expr
}

// VarItem is `var [(Category)] [specifiers] Type name[, name…];`. The
// partitioner later splits a multi-name VarItem into one namespace entry
// per declarator; the CST keeps the whole declaration as written.
type VarItem struct {
	base
	Category   *Ident
	Specifiers []Specifier
	Type       *VarType
	Decls      []VarDecl
}

func (VarItem) isItem() {}

func parseVarItem(p *parse.Parser, c *Ctx) Item {
	startId, _ := p.Expect(token.Ident) // `var`
	v := &VarItem{}
	if p.At(token.LParen) {
		p.Bracketed(token.LParen, token.RParen, "variable category", func() {
			if p.At(token.Ident) {
				catId, _ := p.ExpectIdent(c.File)
				v.Category = &Ident{base: base{span: spanOf(catId, catId)}, Id: catId}
			}
		})
	}
	v.Specifiers = parseSpecifierList(p, c, varSpecifiers)
	v.Type = ParseVarType(p, c)
	p.ParseCommaList(token.Semi, "variable declaration", func() {
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
}

// Param is one function parameter: specifiers, a type, a name, an optional
// fixed-size array marker, and an optional default-value expression.
type Param struct {
	base
	Specifiers []Specifier
	Type       *VarType
	Name       Ident
	ArraySize  Expr
	Default    Expr
}

func parseParam(p *parse.Parser, c *Ctx) *Param {
	startId, _ := p.Peek()
	param := &Param{Specifiers: parseSpecifierList(p, c, paramSpecifiers)}
	param.Type = ParseVarType(p, c)
	nameId, _ := p.ExpectIdent(c.File)
	param.Name = Ident{base: base{span: spanOf(nameId, nameId)}, Id: nameId}
	end := nameId
	if p.At(token.LBracket) {
		_, closeId := p.Bracketed(token.LBracket, token.RBracket, "array size", func() {
			param.ArraySize = ParseExpr(p, c, MaxPrec)
		})
		end = closeId
	}
	if _, _, ok := p.Accept(token.Assign); ok {
		param.Default = ParseExpr(p, c, PrecAssign-1)
		end = endOf(param.Default)
	}
	param.span = spanOf(startId, end)
	return param
}

// FunctionKind distinguishes the keyword that introduced a FunctionItem.
type FunctionKind int

const (
	FuncFunction FunctionKind = iota
	FuncEvent
	FuncDelegate
	FuncOperator
	FuncPreOperator
	FuncPostOperator
)

// FunctionName is the function's declared name: an ordinary identifier for
// function/event/delegate, or an overloadable operator token (optionally
// hugging a trailing `=` for a compound-assignment overload) for
// operator/preoperator/postoperator kinds.
type FunctionName struct {
	base
	Id       source.Id
	Kind     token.Kind
	Compound bool
}

// FunctionItem is a function/event/delegate/operator declaration.
type FunctionItem struct {
	base
	PreSpecifiers      []Specifier
	Kind               FunctionKind
	OperatorPrecedence int // valid when Kind == FuncOperator
	PostSpecifiers     []Specifier
	ReturnType         *VarType // nil when omitted
	Name               FunctionName
	Params             []*Param
	IsStub             bool
	Body               []Stmt
}

func (FunctionItem) isItem() {}

var functionKindWords = map[string]FunctionKind{
	"function":     FuncFunction,
	"event":        FuncEvent,
	"delegate":     FuncDelegate,
	"operator":     FuncOperator,
	"preoperator":  FuncPreOperator,
	"postoperator": FuncPostOperator,
}

func parseFunctionItem(p *parse.Parser, c *Ctx) Item {
	startId, _ := p.Peek()
	f := &FunctionItem{PreSpecifiers: parseSpecifierList(p, c, functionPreSpecifiers)}

	kindId, kindTok := p.Expect(token.Ident)
	kind, ok := functionKindWords[strings.ToLower(c.Text(kindId))]
	if !ok {
		p.Errorf(kindTok, "expected a function kind (function/event/delegate/operator/preoperator/postoperator)")
	}
	f.Kind = kind

	if kind == FuncOperator {
		p.Bracketed(token.LParen, token.RParen, "operator precedence", func() {
			precId, _ := p.Expect(token.IntLit)
			f.OperatorPrecedence = parseIntLiteral(c, precId)
		})
	}

	// Return type is optional for non-operator kinds, mandatory for
	// operator kinds; disambiguated by lookahead for `(` right after the
	// first identifier (meaning that identifier was the function name,
	// not a return type).
	needsReturnType := kind == FuncOperator || kind == FuncPreOperator || kind == FuncPostOperator
	if needsReturnType || !startsFunctionName(p, c) {
		f.ReturnType = ParseVarType(p, c)
	}

	f.Name = parseFunctionName(p, c, kind)
	_, closeParen := p.Bracketed(token.LParen, token.RParen, "parameter list", func() {
		p.ParseCommaList(token.RParen, "parameter list", func() {
			f.Params = append(f.Params, parseParam(p, c))
		})
	})
	f.PostSpecifiers = parseSpecifierList(p, c, functionPostSpecifiers)

	end := closeParen
	if _, tok := p.Peek(); tok.Kind == token.Semi {
		semiId, _ := p.Next()
		f.IsStub = true
		end = semiId
	} else {
		_, closeBrace := p.Bracketed(token.LBrace, token.RBrace, "function body", func() {
			f.Body = parseStmtList(p, c)
		})
		end = closeBrace
	}
	f.span = spanOf(startId, end)
	return *f
}

// startsFunctionName reports whether the next identifier is immediately
// followed by `(`, meaning it is the function's name rather than the start
// of a return type. Non-operator kinds have no return type in that case.
func startsFunctionName(p *parse.Parser, c *Ctx) bool {
	if !p.At(token.Ident) {
		return false
	}
	pos := p.Position()
	p.Next()
	isParen := p.At(token.LParen)
	p.SetPosition(pos)
	return isParen
}

var overloadableOperators = map[token.Kind]bool{
	token.Plus: true, token.Minus: true, token.Star: true, token.Slash: true,
	token.Percent: true, token.StarStar: true, token.Eq: true, token.NotEq: true,
	token.ApproxEq: true, token.Less: true, token.LessEq: true, token.Greater: true,
	token.GreaterEq: true, token.Shl: true, token.Shr: true, token.UShr: true,
	token.Amp: true, token.AmpAmp: true, token.Pipe: true, token.PipePipe: true,
	token.Caret: true, token.CaretCaret: true, token.Bang: true, token.Tilde: true,
	token.Inc: true, token.Dec: true, token.At: true, token.Dollar: true,
}

func parseFunctionName(p *parse.Parser, c *Ctx, kind FunctionKind) FunctionName {
	if kind != FuncOperator && kind != FuncPreOperator && kind != FuncPostOperator {
		nameId, _ := p.ExpectIdent(c.File)
		return FunctionName{base: base{span: spanOf(nameId, nameId)}, Id: nameId, Kind: token.Ident}
	}
	id, tok := p.Peek()
	if !overloadableOperators[tok.Kind] && tok.Kind != token.Ident {
		p.Errorf(tok, "expected an overloadable operator, found %s", tok.Kind)
	}
	p.Next()
	end := id
	compound := false
	if _, nextTok := p.Peek(); nextTok.Kind == token.Assign && nextTok.Start == tok.End {
		eqId, _ := p.Next()
		end = eqId
		compound = true
	}
	return FunctionName{base: base{span: spanOf(id, end)}, Id: id, Kind: tok.Kind, Compound: compound}
}

func parseIntLiteral(c *Ctx, id source.Id) int {
	text := c.Text(id)
	n := 0
	for _, r := range text {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// StateItem is `[auto] state [(specifiers)] Name [extends Base] { items… }`.
// A leading `simulated` (written before `auto`, if any) is parsed as a
// SimulatedItem wrapping the state.
type StateItem struct {
	base
	Auto       bool
	Specifiers []Specifier
	Name       Ident
	Extends    *Ident
	Items      []Item
}

func (StateItem) isItem() {}

func parseStateItem(p *parse.Parser, c *Ctx) Item {
	startId, _ := p.Peek()
	s := &StateItem{}
	if id, _ := p.Peek(); strings.ToLower(c.Text(id)) == "auto" {
		p.Next()
		s.Auto = true
	}
	p.Expect(token.Ident) // `state`
	if p.At(token.LParen) {
		p.Bracketed(token.LParen, token.RParen, "state specifiers", func() {
			p.ParseCommaList(token.RParen, "state specifiers", func() {
				specId, _ := p.ExpectIdent(c.File)
				s.Specifiers = append(s.Specifiers, Specifier{base: base{span: spanOf(specId, specId)}, Name: Ident{base: base{span: spanOf(specId, specId)}, Id: specId}})
			})
		})
	}
	nameId, _ := p.ExpectIdent(c.File)
	s.Name = Ident{base: base{span: spanOf(nameId, nameId)}, Id: nameId}
	if id, _ := p.Peek(); p.At(token.Ident) && strings.ToLower(c.Text(id)) == "extends" {
		p.Next()
		extId, _ := p.ExpectIdent(c.File)
		s.Extends = &Ident{base: base{span: spanOf(extId, extId)}, Id: extId}
	}
	_, closeId := p.Bracketed(token.LBrace, token.RBrace, "state body", func() {
		p.ParseGreedyList(func() bool { return p.At(token.RBrace) }, func() {
			if item := parseItem(p, c); item != nil {
				s.Items = append(s.Items, item)
			}
		})
	})
	s.span = spanOf(startId, closeId)
	return *s
}

// ReplicationEntry is one `reliable|unreliable if (cond) name1, name2, …;`
// group inside a replication block.
type ReplicationEntry struct {
	base
	Reliable  bool
	Condition Expr
	Names     []Ident
}

// ReplicationItem is the class's `replication { … }` block.
type ReplicationItem struct {
	base
	Entries []ReplicationEntry
}

func (ReplicationItem) isItem() {}

func parseReplicationItem(p *parse.Parser, c *Ctx) Item {
	startId, _ := p.Expect(token.Ident) // `replication`
	r := &ReplicationItem{}
	_, closeId := p.Bracketed(token.LBrace, token.RBrace, "replication block", func() {
		p.ParseGreedyList(func() bool { return p.At(token.RBrace) }, func() {
			r.Entries = append(r.Entries, parseReplicationEntry(p, c))
		})
	})
	r.span = spanOf(startId, closeId)
	return *r
}

func parseReplicationEntry(p *parse.Parser, c *Ctx) ReplicationEntry {
	startId, _ := p.Peek()
	entry := ReplicationEntry{}
	relId, _ := p.ExpectIdent(c.File) // `reliable`/`unreliable`
	entry.Reliable = strings.ToLower(c.Text(relId)) == "reliable"
	p.ExpectIdent(c.File) // `if`
	p.Bracketed(token.LParen, token.RParen, "replication condition", func() {
		entry.Condition = ParseExpr(p, c, MaxPrec)
	})
	p.ParseCommaList(token.Semi, "replicated name list", func() {
		nameId, _ := p.ExpectIdent(c.File)
		entry.Names = append(entry.Names, Ident{base: base{span: spanOf(nameId, nameId)}, Id: nameId})
	})
	semiId, _ := p.Expect(token.Semi)
	entry.span = spanOf(startId, semiId)
	return entry
}

// CppTextItem is the discarded `cpptext { … }`/`structcpptext { … }` escape
// hatch: the body's raw token span is kept only so diagnostics can point at
// it; analysis never looks inside.
type CppTextItem struct {
	base
}

func (CppTextItem) isItem() {}

func parseCppTextItem(p *parse.Parser, c *Ctx) Item {
	startId, _ := p.Peek()
	_, nameTok := p.Next()
	p.Warnf(nameTok, "`cpptext` is accepted and discarded; no C++ interop is generated")
	_, closeId := p.Bracketed(token.LBrace, token.RBrace, "cpptext block", func() {
		p.ParseGreedyList(func() bool { return p.At(token.RBrace) }, func() { p.Next() })
	})
	return CppTextItem{base: base{span: spanOf(startId, closeId)}}
}

// SimulatedItem wraps a function or state declared with the `simulated`
// keyword in item position (as opposed to as a function pre-specifier);
// the partitioner unwraps it, appending an equivalent `simulated`
// specifier to the inner declaration.
type SimulatedItem struct {
	base
	Inner Item
}

func (SimulatedItem) isItem() {}

func parseSimulatedItem(p *parse.Parser, c *Ctx) Item {
	startId, _ := p.Next() // `simulated`
	inner := parseItem(p, c)
	end := startId
	if inner != nil {
		end = inner.Span().End
	}
	return SimulatedItem{base: base{span: spanOf(startId, end)}, Inner: inner}
}

// parseItem dispatches on the next item's leading keyword.
func parseItem(p *parse.Parser, c *Ctx) Item {
	if p.At(token.Semi) {
		p.Next() // stray `;`: ignored, matches a tolerant top-level grammar
		return nil
	}
	id, tok := p.Peek()
	if tok.Kind != token.Ident {
		p.Errorf(tok, "expected a class item, found %s", tok.Kind)
		p.Next()
		return nil
	}
	switch strings.ToLower(c.Text(id)) {
	case "const":
		return parseConstItem(p, c)
	case "var":
		return parseVarItem(p, c)
	case "function", "event", "delegate", "operator", "preoperator", "postoperator":
		return parseFunctionItem(p, c)
	case "struct":
		sd := ParseStructDef(p, c)
		p.Accept(token.Semi)
		return StructItem{base: sd.base, Def: sd}
	case "enum":
		ed := ParseEnumDef(p, c)
		p.Accept(token.Semi)
		return EnumItem{base: ed.base, Def: ed}
	case "state", "auto":
		return parseStateItem(p, c)
	case "replication":
		return parseReplicationItem(p, c)
	case "defaultproperties", "structdefaultproperties":
		return parseDefaultPropertiesItem(p, c)
	case "cpptext", "structcpptext":
		return parseCppTextItem(p, c)
	case "simulated":
		return parseSimulatedItem(p, c)
	default:
		p.Errorf(tok, "unexpected %q at class scope", c.Text(id))
		p.Next()
		return nil
	}
}

// StructItem and EnumItem wrap a StructDef/EnumDef as class-scope items
// (the same defs double as inline var-position types via VarType).
type StructItem struct {
	base
	Def *StructDef
}

func (StructItem) isItem() {}

type EnumItem struct {
	base
	Def *EnumDef
}

func (EnumItem) isItem() {}
