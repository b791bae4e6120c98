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

package ir_test

import (
	"testing"

	"github.com/muscript-lang/muscript/internal/env"
	"github.com/muscript-lang/muscript/internal/ir"
	"github.com/muscript-lang/muscript/internal/token"
	"github.com/muscript-lang/muscript/internal/types"
)

func TestIsPlaceRecognisesLocalsFieldsAndIndices(t *testing.T) {
	c := ir.NewCursor("entry", token.Span{})
	local := c.Register(token.Span{}, "x", types.Int, ir.Local{Var: env.VarId(0)})
	field := c.Register(token.Span{}, "f", types.Int, ir.Field{Var: env.VarId(1)})
	idx := c.Register(token.Span{}, "i", types.Int, ir.Index{Array: local, IndexReg: local})
	in := c.Register(token.Span{}, "in", types.Int, ir.In{Context: local, Action: field})
	lit := c.Register(token.Span{}, "lit", types.Int, ir.Int{Value: 1})

	for _, r := range []ir.RegisterId{local, field, idx, in} {
		if !c.Func.IsPlace(r) {
			t.Fatalf("expected register %d to be a place", r)
		}
	}
	if c.Func.IsPlace(lit) {
		t.Fatalf("expected a literal register not to be a place")
	}
}

func TestBasicBlockFlowRecordsSinksInOrder(t *testing.T) {
	c := ir.NewCursor("entry", token.Span{})
	a := c.Register(token.Span{}, "a", types.Int, ir.Int{Value: 1})
	b := c.Register(token.Span{}, "b", types.Int, ir.Int{Value: 2})
	s1 := c.Sink(token.Span{}, ir.Discard{Value: a})
	s2 := c.Sink(token.Span{}, ir.Discard{Value: b})
	c.Terminate(ir.Return{Value: a})

	block := c.Func.Block(c.Block())
	if len(block.Flow) != 2 || block.Flow[0] != s1 || block.Flow[1] != s2 {
		t.Fatalf("expected flow [%d %d], got %v", s1, s2, block.Flow)
	}
	if _, ok := block.Terminator.(ir.Return); !ok {
		t.Fatalf("expected a Return terminator, got %#v", block.Terminator)
	}
}

func TestNewBlockDoesNotMoveCursor(t *testing.T) {
	c := ir.NewCursor("entry", token.Span{})
	start := c.Block()
	next := c.NewBlock("past", token.Span{})
	if c.Block() != start {
		t.Fatalf("expected NewBlock not to move the cursor")
	}
	if next == start {
		t.Fatalf("expected a distinct block id")
	}
}
