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

import "strings"

// FindClass implements types.Environment: classes are visible compiler-
// wide, so this is a flat lookup by declared name.
func (e *Env) FindClass(name string) (ClassId, bool) {
	id, ok := e.byName[strings.ToLower(name)]
	return id, ok
}

// FindStruct implements types.Environment: a struct is visible from the
// class that declares it and every class beneath it in the super chain, so
// the search walks outward from class until it finds one or runs out of
// superclasses.
func (e *Env) FindStruct(class ClassId, name string) (ClassId, bool) {
	w := e.Super(class)
	for {
		id, ok := w.Next()
		if !ok {
			return ClassIdInvalid, false
		}
		if _, ok := e.ClassStructLookup(id, name); ok {
			return id, true
		}
	}
}

// FindEnum mirrors FindStruct for enum declarations, which env does not
// lazily materialise the way it does structs (an EnumDef carries no
// further scope of its own to resolve on demand).
func (e *Env) FindEnum(class ClassId, name string) (ClassId, bool) {
	w := e.Super(class)
	for {
		id, ok := w.Next()
		if !ok {
			return ClassIdInvalid, false
		}
		cl := e.class(id)
		for _, cp := range cl.Partitions {
			if _, ok := cp.Part.Enums.Lookup(name); ok {
				return id, true
			}
		}
	}
}
