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
	"github.com/muscript-lang/muscript/internal/source"
	"github.com/muscript-lang/muscript/internal/token"
)

// Ctx bundles the arena and file every grammar rule needs to resolve a
// token id back to source text (keyword/soft-keyword dispatch, object
// literal detection) without the CST itself ever caching that text.
type Ctx struct {
	Arena *source.Arena[token.Token]
	File  *source.File
}

// Text resolves a token id's source text.
func (c *Ctx) Text(id source.Id) string {
	return c.Arena.Get(id).Text(c.File)
}
