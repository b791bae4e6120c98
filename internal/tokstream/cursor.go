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

// Package tokstream implements the channel-filtered, context-aware token
// stream abstraction used by the preprocessor and parser, and the
// sliced-token-stream representation the preprocessor emits.
package tokstream

import (
	"github.com/muscript-lang/muscript/internal/source"
	"github.com/muscript-lang/muscript/internal/token"
)

// Cursor is a raw, unfiltered walk over one file's contiguous run of tokens
// in the arena. It is the preprocessor's view of the world: every trivia
// token (whitespace, comments) is visible, nothing is coalesced.
type Cursor struct {
	arena *source.Arena[token.Token]
	pos   source.Id // next unread id
	end   source.Id // last valid id (inclusive), normally the file's EndOfFile token
}

// NewCursor creates a cursor over the inclusive token id range [start, end].
func NewCursor(arena *source.Arena[token.Token], start, end source.Id) *Cursor {
	return &Cursor{arena: arena, pos: start, end: end}
}

// Position returns the id of the next unread token.
func (c *Cursor) Position() source.Id { return c.pos }

// SetPosition rewinds or fast-forwards the cursor.
func (c *Cursor) SetPosition(id source.Id) { c.pos = id }

// Peek returns the next token without consuming it.
func (c *Cursor) Peek() (source.Id, token.Token) {
	if c.pos > c.end {
		last := c.arena.Get(c.end)
		return c.end, last
	}
	return c.pos, c.arena.Get(c.pos)
}

// Next consumes and returns the next token.
func (c *Cursor) Next() (source.Id, token.Token) {
	id, tok := c.Peek()
	if c.pos <= c.end {
		c.pos++
	}
	return id, tok
}

// AtEnd reports whether the final token in its range (normally EndOfFile)
// has been consumed; while that token is still the next one to read, AtEnd
// is false.
func (c *Cursor) AtEnd() bool { return c.pos > c.end }

// Arena exposes the underlying arena for callers that need to fetch
// arbitrary tokens by id (e.g. to build a diagnostic label).
func (c *Cursor) Arena() *source.Arena[token.Token] { return c.arena }
