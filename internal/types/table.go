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

// Package types owns the dense TypeId table every class environment shares:
// the fixed primitive slots, and the Object/Class/Struct/Enum/Array shapes
// built and memoised on demand as the rest of the compiler resolves type
// references out of the CST.
package types

import (
	"fmt"
	"strings"
)

// Id is a dense index into a Table. The zero value, Error, is always valid
// and stands for "a type reference that failed to resolve" so that analysis
// can keep going with a well-typed placeholder instead of aborting.
type Id int32

// Fixed slots every Table starts with, in Table.types order.
const (
	Error Id = iota
	Void
	Bool
	Byte
	Int
	Float
	String
	Name
	firstDynamic
)

// Kind discriminates the shape stored at a Type.
type Kind uint8

const (
	KindError Kind = iota
	KindVoid
	KindPrimitive
	KindObject
	KindClass // meta-class, Class<Inner> or the bare Class type
	KindStruct
	KindEnum
	KindArray
)

// ClassId identifies a class the same way Id identifies a type: a dense
// index owned by the environment package. types only needs to carry it
// around inside Object/Class/Struct/Enum shapes, never to resolve it, so it
// lives here rather than creating an import cycle with internal/env.
type ClassId int32

// ClassIdInvalid marks "no class" (the bare Class type, or a struct/enum
// declared outside any class). ClassIdObject and ClassIdClass are the two
// predefined classes every environment seeds its class table with.
const (
	ClassIdInvalid ClassId = 0
	ClassIdObject  ClassId = 1
	ClassIdClass   ClassId = 2
)

// Type is one entry in a Table. Which fields are meaningful depends on
// Kind: Class holds the referenced class for Object/Class/Struct/Enum,
// Name holds the member name for Struct/Enum, Elem holds the element type
// for Array. Primitive holds its own display name in Name so String needs
// no environment lookup for it.
type Type struct {
	Kind  Kind
	Class ClassId
	Name  string
	Elem  Id
}

// Table is one compilation's type universe: the eight fixed slots plus
// every Array/Class/Struct/Enum/Object shape discovered while resolving
// CST type references, memoised by structural key so two references to the
// same shape share one Id.
type Table struct {
	types []Type
	byKey map[string]Id
}

// NewTable builds a Table with the fixed primitive slots already populated.
func NewTable() *Table {
	return &Table{
		types: []Type{
			Error:  {Kind: KindError},
			Void:   {Kind: KindVoid},
			Bool:   {Kind: KindPrimitive, Name: "bool"},
			Byte:   {Kind: KindPrimitive, Name: "byte"},
			Int:    {Kind: KindPrimitive, Name: "int"},
			Float:  {Kind: KindPrimitive, Name: "float"},
			String: {Kind: KindPrimitive, Name: "string"},
			Name:   {Kind: KindPrimitive, Name: "name"},
		},
		byKey: map[string]Id{},
	}
}

// primitiveByName maps a lowercase type keyword to its fixed Id.
var primitiveByName = map[string]Id{
	"bool":   Bool,
	"byte":   Byte,
	"int":    Int,
	"float":  Float,
	"string": String,
	"name":   Name,
}

// Primitive looks up a primitive type by its (case-insensitive) keyword.
func Primitive(name string) (Id, bool) {
	id, ok := primitiveByName[strings.ToLower(name)]
	return id, ok
}

// Get returns the shape stored at id.
func (t *Table) Get(id Id) Type { return t.types[id] }

// Object returns Object(class), the type of an instance of class.
func (t *Table) Object(class ClassId) Id {
	return t.intern(fmt.Sprintf("object:%d", class), Type{Kind: KindObject, Class: class})
}

// ClassMeta returns Class(inner), the meta-class type; inner is
// ClassIdInvalid for the bare, un-parameterised Class type.
func (t *Table) ClassMeta(inner ClassId) Id {
	return t.intern(fmt.Sprintf("class:%d", inner), Type{Kind: KindClass, Class: inner})
}

// Struct returns the struct named name declared in outer's lexical scope.
func (t *Table) Struct(outer ClassId, name string) Id {
	key := fmt.Sprintf("struct:%d:%s", outer, strings.ToLower(name))
	return t.intern(key, Type{Kind: KindStruct, Class: outer, Name: name})
}

// Enum returns the enum named name declared in outer's lexical scope.
func (t *Table) Enum(outer ClassId, name string) Id {
	key := fmt.Sprintf("enum:%d:%s", outer, strings.ToLower(name))
	return t.intern(key, Type{Kind: KindEnum, Class: outer, Name: name})
}

// Array returns Array(elem), memoised so repeated references to the same
// element type share one Id.
func (t *Table) Array(elem Id) Id {
	return t.intern(fmt.Sprintf("array:%d", elem), Type{Kind: KindArray, Elem: elem})
}

func (t *Table) intern(key string, shape Type) Id {
	if id, ok := t.byKey[key]; ok {
		return id
	}
	id := Id(len(t.types))
	t.types = append(t.types, shape)
	t.byKey[key] = id
	return id
}

// String renders a type for diagnostics. className resolves a ClassId to
// its declared name; Table itself never stores class names, only ids, so
// every Object/Class/Struct/Enum rendering needs the environment's help.
func (t *Table) String(id Id, className func(ClassId) string) string {
	ty := t.Get(id)
	switch ty.Kind {
	case KindError:
		return "<error>"
	case KindVoid:
		return "void"
	case KindPrimitive:
		return ty.Name
	case KindObject:
		return className(ty.Class)
	case KindClass:
		if ty.Class == ClassIdInvalid {
			return "Class"
		}
		return "Class<" + className(ty.Class) + ">"
	case KindStruct:
		return ty.Name
	case KindEnum:
		return ty.Name
	case KindArray:
		return "Array<" + t.String(ty.Elem, className) + ">"
	default:
		return "<unknown>"
	}
}
