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

// Package preprocess expands `-directives, macros and conditional blocks
// into a sliced token stream that aliases back into the shared token
// arena.
package preprocess

import (
	"strings"

	"github.com/muscript-lang/muscript/internal/source"
	"github.com/muscript-lang/muscript/internal/token"
)

// Definition is one macro: either a plain text macro (Parameters == nil) or
// a parameterised one (Parameters is a, possibly empty, parameter-name
// list). Body is a span of token ids in the original arena covering only
// the body tokens, never the `define NAME(params)` prefix.
type Definition struct {
	Body       source.Span[token.Token]
	Parameters []string // nil => plain text macro
}

// IsParameterised reports whether the macro takes an argument list.
func (d Definition) IsParameterised() bool { return d.Parameters != nil }

// Definitions is a case-insensitive map from macro name to Definition,
// shared across every file processed by one Preprocessor family: global
// definitions persist across all files processed with the same
// Definitions table.
type Definitions struct {
	m map[string]Definition
}

// NewDefinitions creates an empty definition table.
func NewDefinitions() *Definitions {
	return &Definitions{m: map[string]Definition{}}
}

func key(name string) string { return strings.ToLower(name) }

// Define inserts a definition, silently overwriting any previous one under
// the same name.
func (d *Definitions) Define(name string, def Definition) {
	d.m[key(name)] = def
}

// Undefine removes a definition. Removing an unset one is silent.
func (d *Definitions) Undefine(name string) {
	delete(d.m, key(name))
}

// Lookup returns the definition for name, if any.
func (d *Definitions) Lookup(name string) (Definition, bool) {
	def, ok := d.m[key(name)]
	return def, ok
}

// IsDefined reports whether name has a definition.
func (d *Definitions) IsDefined(name string) bool {
	_, ok := d.m[key(name)]
	return ok
}
