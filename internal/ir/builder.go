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

package ir

import (
	"github.com/muscript-lang/muscript/internal/token"
	"github.com/muscript-lang/muscript/internal/types"
)

// Cursor builds a Func one basic block at a time: registers and sinks are
// appended to whichever block it currently points at, and moving to a
// different block (via Goto/SetBlock) is always an explicit call, never
// implicit — internal/analysis's statement lowering is the only caller that
// decides when control actually branches.
type Cursor struct {
	Func  *Func
	block BasicBlockId
}

// NewCursor creates a fresh Func with one entry block and a cursor pointing
// at it, per §3's "a function's IR is constructed in a fixed entry block."
func NewCursor(entryName string, entrySpan token.Span) *Cursor {
	f := New()
	block := f.CreateBlock(entryName, entrySpan)
	return &Cursor{Func: f, block: block}
}

// Block reports the block the cursor currently points at.
func (c *Cursor) Block() BasicBlockId { return c.block }

// SetBlock moves the cursor to an existing block without touching either
// block's terminator; callers use this after wiring a Goto/GotoIf by hand to
// continue lowering into one of the branch targets.
func (c *Cursor) SetBlock(id BasicBlockId) { c.block = id }

// NewBlock appends a fresh block and returns its id, without moving the
// cursor onto it.
func (c *Cursor) NewBlock(name string, span token.Span) BasicBlockId {
	return c.Func.CreateBlock(name, span)
}

// Register appends a register to the node list without adding it to the
// current block's flow; plain expression lowering calls this and lets the
// sink (Discard/Store) that references it be the flow entry, matching the
// IR's rule that evaluation order is defined by sinks, not by register
// creation order.
func (c *Cursor) Register(span token.Span, name string, ty types.Id, value Value) RegisterId {
	return c.Func.CreateRegister(span, name, ty, value)
}

// Sink appends a sink to the node list and pushes it onto the current
// block's flow, in order.
func (c *Cursor) Sink(span token.Span, kind SinkKind) NodeId {
	id := c.Func.CreateSink(span, kind)
	b := c.Func.Block(c.block)
	b.Flow = append(b.Flow, id)
	return id
}

// Terminate sets the current block's terminator. A block's terminator
// starts as Unreachable and should be set exactly once.
func (c *Cursor) Terminate(t Terminator) {
	c.Func.Block(c.block).Terminator = t
}
