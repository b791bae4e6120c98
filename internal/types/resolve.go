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

package types

import (
	"strings"

	"github.com/muscript-lang/muscript/internal/cst"
	"github.com/muscript-lang/muscript/internal/diag"
)

// Environment is the one seam Resolve needs into the class environment: a
// declared-class lookup and a lexically-enclosing-scope lookup for structs
// and enums. The environment package implements this and imports types;
// types never imports it back, so there is no import cycle.
type Environment interface {
	// FindClass looks up a declared class by name, searching the whole
	// input (classes are visible compiler-wide, unlike structs/enums).
	FindClass(name string) (ClassId, bool)
	// FindStruct searches class's own declarations, then its lexically
	// enclosing classes (its super chain), for a struct named name.
	FindStruct(class ClassId, name string) (outer ClassId, ok bool)
	// FindEnum is FindStruct's enum counterpart.
	FindEnum(class ClassId, name string) (outer ClassId, ok bool)
}

// Resolve computes the Id a CST type reference denotes within class. It
// dispatches on the reference's path length: a single segment is checked
// against the primitives, then against the built-in generic carriers Array
// and Class, then against declared classes, then against lexically
// enclosing struct/enum declarations. A two-segment path names a type
// declared inside another class's scope, which isn't resolvable yet.
// Generic arguments on a type that isn't Array or Class are rejected, with
// a note suggesting the plain name instead.
func Resolve(table *Table, env Environment, diags diag.Sink, c *cst.Ctx, class ClassId, t *cst.Type) Id {
	if len(t.Segments) > 1 {
		diags.Push(*diag.New(diag.Error, "types declared inside another class's scope are not supported yet"))
		return Error
	}

	name := c.Text(t.Segments[0].Id)
	lower := strings.ToLower(name)

	switch lower {
	case "array":
		if len(t.Args) != 1 {
			diags.Push(*diag.New(diag.Error, "Array takes exactly one type argument, got %d", len(t.Args)))
			return Error
		}
		return table.Array(Resolve(table, env, diags, c, class, t.Args[0]))

	case "class":
		switch len(t.Args) {
		case 0:
			return table.ClassMeta(ClassIdInvalid)
		case 1:
			innerName := c.Text(t.Args[0].Segments[len(t.Args[0].Segments)-1].Id)
			inner, ok := env.FindClass(innerName)
			if !ok {
				diags.Push(*diag.New(diag.Error, "unknown class %q", innerName))
				return Error
			}
			return table.ClassMeta(inner)
		default:
			diags.Push(*diag.New(diag.Error, "Class takes at most one type argument, got %d", len(t.Args)))
			return Error
		}
	}

	if id, ok := Primitive(lower); ok {
		rejectArgs(diags, name, t.Args)
		return id
	}

	rejectArgs(diags, name, t.Args)

	if classId, ok := env.FindClass(name); ok {
		return table.Object(classId)
	}
	if outer, ok := env.FindStruct(class, name); ok {
		return table.Struct(outer, name)
	}
	if outer, ok := env.FindEnum(class, name); ok {
		return table.Enum(outer, name)
	}

	diags.Push(*diag.New(diag.Error, "unknown type %q", name))
	return Error
}

// rejectArgs reports generic arguments applied to a type that isn't one of
// the built-in generic carriers, suggesting the bare name as the fix.
func rejectArgs(diags diag.Sink, name string, args []*cst.Type) {
	if len(args) == 0 {
		return
	}
	diags.Push(*diag.New(diag.Error, "%s is not a generic type", name).
		WithNote("remove the type arguments; " + name + " takes none"))
}
