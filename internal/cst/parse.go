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
)

// File is the parse result of one UnrealScript source file: a class or
// interface header followed by its member items.
type File struct {
	base
	Header *ClassHeader
	Items  []Item
}

// ParseFile parses an entire file's token stream. Each item is wrapped in
// its own Parser.Run so a single unrecoverable construct (an unterminated
// brace running to EndOfFile) only drops the rest of that item's siblings,
// not the class header or the items already parsed.
func ParseFile(p *parse.Parser, c *Ctx) *File {
	f := &File{}
	startId, _ := p.Peek()
	if aborted := p.Run(func() { f.Header = ParseClassHeader(p, c) }); aborted {
		f.span = spanOf(startId, startId)
		return f
	}
	for !p.AtEnd() {
		before := p.Position()
		p.Run(func() {
			if item := parseItem(p, c); item != nil {
				f.Items = append(f.Items, item)
			}
		})
		if p.Position() == before && !p.AtEnd() {
			// parseItem's own per-kind recovery should always consume at
			// least the offending token; this is a last-resort guard
			// against a future item kind that forgets to.
			p.Next()
		}
	}
	end := startId
	if n := len(f.Items); n > 0 {
		end = f.Items[n-1].Span().End
	} else if f.Header != nil {
		end = f.Header.span.End
	}
	f.span = spanOf(startId, end)
	return f
}
