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

package env

import (
	"github.com/muscript-lang/muscript/internal/cst"
	"github.com/muscript-lang/muscript/internal/partition"
)

// classPartition pairs one file's contribution to a class with the context
// (arena + file) needed to resolve its token ids back to text; a class may
// be assembled from several of these when it is declared `partial` across
// more than one source file.
type classPartition struct {
	Part *partition.Partition
	Ctx  *cst.Ctx
}

// structSuperState tracks whether a ClassStruct's super-struct has been
// looked at yet, mirroring a namespace slot's absent/error/resolved states
// but scoped to a single field rather than a whole map.
type structSuperState uint8

const (
	superUnknown structSuperState = iota
	superNone
	superKnown
)

// ClassStruct is a lazily-materialised struct scope owned by a class:
// its super-struct link starts Unknown and is only chased on first demand,
// by consulting the struct's own `extends` clause.
type ClassStruct struct {
	Outer ClassId
	Name  string
	Def   *cst.StructDef
	Ctx   *cst.Ctx

	superState structSuperState
	super      *ClassStruct
}

// Class is one declared class (or interface): its own name, its declared
// superclass (resolved lazily, the same way function/var lookups are), and
// the namespace built on demand from its partitions.
type Class struct {
	Id        ClassId
	Name      string
	SuperName string // from the first partition's header; "" for Object itself

	superResolved bool
	super         ClassId

	Partitions []classPartition

	functions map[string]*slot[FunctionId]
	vars      map[string]*slot[VarId]
	structs   map[string]*slot[*ClassStruct]

	allFunctionNames []string
	allVarNames      []string
}

func newClass(id ClassId, name string) *Class {
	return &Class{
		Id:        id,
		Name:      name,
		functions: map[string]*slot[FunctionId]{},
		vars:      map[string]*slot[VarId]{},
		structs:   map[string]*slot[*ClassStruct]{},
	}
}

// SuperChain is a finite, restartable lazy sequence of ClassIds: the class
// itself, then its superclass, then its superclass's superclass, and so on
// until Object's superclass (ClassIdInvalid) ends it. Restartable because
// it holds nothing but the environment and the next id to produce — two
// independent walks over the same class never interfere.
type SuperChain struct {
	e    *Env
	next ClassId
	ok   bool
}

// Super begins a walk from class, inclusive.
func (e *Env) Super(class ClassId) *SuperChain {
	return &SuperChain{e: e, next: class, ok: class != ClassIdInvalid}
}

// Next produces the next ClassId in the chain, or reports false once the
// chain is exhausted (past Object).
func (w *SuperChain) Next() (ClassId, bool) {
	if !w.ok {
		return ClassIdInvalid, false
	}
	id := w.next
	super, hasSuper := w.e.SuperOf(id)
	w.next, w.ok = super, hasSuper
	return id, true
}
