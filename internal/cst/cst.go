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

// Package cst defines the concrete syntax tree UnrealScript source parses
// into, and the grammar rules that build it: class headers, items, types,
// expressions, statements, and default-properties bodies. Every node is a
// value type keyed by token ids, never by text — name lookup against the
// owning source.File happens in the partitioner and later stages, not here.
package cst

import (
	"github.com/muscript-lang/muscript/internal/source"
	"github.com/muscript-lang/muscript/internal/token"
)

// Node is implemented by every CST value type; Span reports the full range
// of tokens the node covers, including punctuation, for diagnostics and
// for re-rendering.
type Node interface {
	Span() token.Span
}

// base gives every node its Span method; embed it first in each node
// struct and set span in the constructing parse rule.
type base struct {
	span token.Span
}

func (b base) Span() token.Span { return b.span }

func spanOf(start, end source.Id) token.Span {
	return token.Span{Start: start, End: end}
}

// Ident is a single identifier leaf, keeping only its token id: the text is
// fetched from the owning arena on demand by whatever stage needs it
// (partitioning, diagnostics), never cached in the CST itself.
type Ident struct {
	base
	Id source.Id
}

// Text resolves the identifier's source text through arena and file.
func (id Ident) Text(arena *source.Arena[token.Token], file *source.File) string {
	return arena.Get(id.Id).Text(file)
}
