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
	"github.com/muscript-lang/muscript/internal/token"
)

// Type is a named type reference: one or two dotted identifier segments,
// optionally followed by a generic argument list (`Array<Class<Foo>>`).
// Two segments mean "a type declared within another class's scope"; type
// lookup resolution of that shape happens in internal/types, not here.
type Type struct {
	base
	Segments []Ident
	Args     []*Type
}

// VarType is the type position of a `var`/parameter/return declaration: an
// ordinary named Type, or an inline `struct { … }`/`enum { … }` definition
// lifted out into a named type by the partitioner.
type VarType struct {
	base
	Named        *Type
	InlineStruct *StructDef
	InlineEnum   *EnumDef
}

// ParseType parses a (possibly generic, possibly dotted) type name.
func ParseType(p *parse.Parser, c *Ctx) *Type {
	start, _ := p.ExpectIdent(c.File)
	t := &Type{Segments: []Ident{{base: base{span: spanOf(start, start)}, Id: start}}}
	if _, _, ok := p.Accept(token.Dot); ok {
		id2, _ := p.ExpectIdent(c.File)
		t.Segments = append(t.Segments, Ident{base: base{span: spanOf(id2, id2)}, Id: id2})
	}
	end := t.Segments[len(t.Segments)-1].Id
	if p.At(token.Less) {
		p.Next()
		prevCtx := p.PushTypeContext()
		p.ParseCommaList(token.Greater, "generic argument list", func() {
			t.Args = append(t.Args, ParseType(p, c))
		})
		closeId, _ := p.Expect(token.Greater)
		p.PopTypeContext(prevCtx)
		end = closeId
	}
	t.span = spanOf(start, end)
	return t
}

// ParseVarType parses the type position of a var/parameter declaration,
// including the inline struct/enum shorthand.
func ParseVarType(p *parse.Parser, c *Ctx) *VarType {
	if p.At(token.Ident) {
		id, _ := p.Peek()
		switch c.Text(id) {
		case "struct":
			sd := ParseStructDef(p, c)
			return &VarType{base: base{span: sd.span}, InlineStruct: sd}
		case "enum":
			ed := ParseEnumDef(p, c)
			return &VarType{base: base{span: ed.span}, InlineEnum: ed}
		}
	}
	named := ParseType(p, c)
	return &VarType{base: base{span: named.span}, Named: named}
}
