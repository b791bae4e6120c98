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

// Package consteval folds a `const` initialiser's expression tree into a
// compile-time value. It implements env.ConstEvaluator directly over
// cst.Expr: a const's initialiser is evaluated the moment its declaring
// class resolves it, before any function body is ever lowered to IR, so
// there is no ir.Func for it to interpret yet. internal/analysis reuses
// the resulting env.Var.Const when it folds a bare identifier reference to
// a const inside a function body.
package consteval

import (
	"math"
	"strconv"
	"strings"

	"github.com/muscript-lang/muscript/internal/cst"
	"github.com/muscript-lang/muscript/internal/env"
	"github.com/muscript-lang/muscript/internal/token"
)

// Evaluator folds const initialisers against one environment, so a const
// referencing another const (even one declared on a superclass) resolves
// through the same class/super-chain lookup a function body would use.
type Evaluator struct {
	Env *env.Env
}

// New builds an Evaluator over e.
func New(e *env.Env) *Evaluator {
	return &Evaluator{Env: e}
}

// EvalConst implements env.ConstEvaluator.
func (ev *Evaluator) EvalConst(class env.ClassId, c *cst.Ctx, expr cst.Expr) (env.ConstValue, bool) {
	return ev.eval(class, c, expr)
}

func (ev *Evaluator) eval(class env.ClassId, c *cst.Ctx, expr cst.Expr) (env.ConstValue, bool) {
	switch e := expr.(type) {
	case cst.LiteralExpr:
		return ev.evalLiteral(c, e)
	case cst.ParenExpr:
		return ev.eval(class, c, e.Inner)
	case cst.PrefixExpr:
		return ev.evalPrefix(class, c, e)
	case cst.InfixExpr:
		return ev.evalInfix(class, c, e)
	case cst.IdentExpr:
		return ev.evalIdent(class, c, e)
	default:
		return env.ConstValue{}, false
	}
}

func (ev *Evaluator) evalLiteral(c *cst.Ctx, e cst.LiteralExpr) (env.ConstValue, bool) {
	text := c.Text(e.Id)
	switch e.Kind {
	case token.Ident:
		switch strings.ToLower(text) {
		case "true":
			return env.ConstValue{Kind: env.ConstBool, Bool: true}, true
		case "false":
			return env.ConstValue{Kind: env.ConstBool, Bool: false}, true
		}
		return env.ConstValue{}, false

	case token.IntLit, token.HexIntLit:
		base := 10
		if e.Kind == token.HexIntLit {
			base = 0
		}
		n, err := strconv.ParseInt(text, base, 64)
		if err != nil || n < math.MinInt32 || n > math.MaxInt32 {
			return env.ConstValue{}, false
		}
		return env.ConstValue{Kind: env.ConstInt, Int: int32(n)}, true

	case token.FloatLit:
		s := strings.TrimSuffix(strings.TrimSuffix(text, "f"), "F")
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return env.ConstValue{}, false
		}
		return env.ConstValue{Kind: env.ConstFloat, Float: float32(f)}, true

	case token.StringLit:
		return env.ConstValue{Kind: env.ConstString, Str: unquote(text)}, true

	case token.NameLit:
		return env.ConstValue{Kind: env.ConstName, Str: unquote(text)}, true

	default:
		return env.ConstValue{}, false
	}
}

// unquote strips a string/name literal's surrounding quote; it does not
// resolve backslash escapes, since a `const` initialiser has no legitimate
// use for one today (internal/analysis's own unescapeString handles the
// general case for string literals appearing inside function bodies).
func unquote(text string) string {
	if len(text) >= 2 {
		return text[1 : len(text)-1]
	}
	return text
}

func (ev *Evaluator) evalPrefix(class env.ClassId, c *cst.Ctx, e cst.PrefixExpr) (env.ConstValue, bool) {
	operand, ok := ev.eval(class, c, e.Operand)
	if !ok {
		return env.ConstValue{}, false
	}
	switch e.OpKind {
	case token.Plus:
		return operand, operand.Kind == env.ConstInt || operand.Kind == env.ConstFloat
	case token.Minus:
		switch operand.Kind {
		case env.ConstInt:
			return env.ConstValue{Kind: env.ConstInt, Int: -operand.Int}, true
		case env.ConstFloat:
			return env.ConstValue{Kind: env.ConstFloat, Float: -operand.Float}, true
		}
	case token.Bang:
		if operand.Kind == env.ConstBool {
			return env.ConstValue{Kind: env.ConstBool, Bool: !operand.Bool}, true
		}
	}
	return env.ConstValue{}, false
}

func (ev *Evaluator) evalIdent(class env.ClassId, c *cst.Ctx, e cst.IdentExpr) (env.ConstValue, bool) {
	name := c.Text(e.Id)
	vid, ok := ev.Env.LookupClassVar(class, name)
	if !ok {
		return env.ConstValue{}, false
	}
	v := ev.Env.Var(vid)
	if v.Kind != env.VarKindConst || v.Const == nil || !v.Const.Ok {
		return env.ConstValue{}, false
	}
	return v.Const.Value, true
}

func (ev *Evaluator) evalInfix(class env.ClassId, c *cst.Ctx, e cst.InfixExpr) (env.ConstValue, bool) {
	if e.Compound || e.OpKind == token.Assign {
		return env.ConstValue{}, false
	}
	left, ok := ev.eval(class, c, e.Left)
	if !ok {
		return env.ConstValue{}, false
	}
	right, ok := ev.eval(class, c, e.Right)
	if !ok {
		return env.ConstValue{}, false
	}

	switch e.OpKind {
	case token.Plus:
		if left.Kind == env.ConstString && right.Kind == env.ConstString {
			return env.ConstValue{Kind: env.ConstString, Str: left.Str + right.Str}, true
		}
		return arith(left, right, func(a, b int32) int32 { return a + b }, func(a, b float32) float32 { return a + b })
	case token.Minus:
		return arith(left, right, func(a, b int32) int32 { return a - b }, func(a, b float32) float32 { return a - b })
	case token.Star:
		return arith(left, right, func(a, b int32) int32 { return a * b }, func(a, b float32) float32 { return a * b })
	case token.Slash:
		if left.Kind == env.ConstInt && right.Kind == env.ConstInt {
			if right.Int == 0 {
				return env.ConstValue{}, false
			}
			return env.ConstValue{Kind: env.ConstInt, Int: left.Int / right.Int}, true
		}
		if left.Kind == env.ConstFloat && right.Kind == env.ConstFloat {
			return env.ConstValue{Kind: env.ConstFloat, Float: left.Float / right.Float}, true
		}
		return env.ConstValue{}, false
	case token.Percent:
		if left.Kind == env.ConstInt && right.Kind == env.ConstInt && right.Int != 0 {
			return env.ConstValue{Kind: env.ConstInt, Int: left.Int % right.Int}, true
		}
		return env.ConstValue{}, false

	case token.Less, token.LessEq, token.Greater, token.GreaterEq:
		return compare(left, right, e.OpKind)

	case token.Eq, token.NotEq:
		eq, ok := equal(left, right)
		if !ok {
			return env.ConstValue{}, false
		}
		if e.OpKind == token.NotEq {
			eq = !eq
		}
		return env.ConstValue{Kind: env.ConstBool, Bool: eq}, true

	case token.AmpAmp:
		if left.Kind == env.ConstBool && right.Kind == env.ConstBool {
			return env.ConstValue{Kind: env.ConstBool, Bool: left.Bool && right.Bool}, true
		}
	case token.PipePipe:
		if left.Kind == env.ConstBool && right.Kind == env.ConstBool {
			return env.ConstValue{Kind: env.ConstBool, Bool: left.Bool || right.Bool}, true
		}
	}
	return env.ConstValue{}, false
}

func arith(left, right env.ConstValue, intOp func(a, b int32) int32, floatOp func(a, b float32) float32) (env.ConstValue, bool) {
	if left.Kind == env.ConstInt && right.Kind == env.ConstInt {
		return env.ConstValue{Kind: env.ConstInt, Int: intOp(left.Int, right.Int)}, true
	}
	if left.Kind == env.ConstFloat && right.Kind == env.ConstFloat {
		return env.ConstValue{Kind: env.ConstFloat, Float: floatOp(left.Float, right.Float)}, true
	}
	return env.ConstValue{}, false
}

func compare(left, right env.ConstValue, kind token.Kind) (env.ConstValue, bool) {
	var less, equal bool
	switch {
	case left.Kind == env.ConstInt && right.Kind == env.ConstInt:
		less, equal = left.Int < right.Int, left.Int == right.Int
	case left.Kind == env.ConstFloat && right.Kind == env.ConstFloat:
		less, equal = left.Float < right.Float, left.Float == right.Float
	default:
		return env.ConstValue{}, false
	}
	var result bool
	switch kind {
	case token.Less:
		result = less
	case token.LessEq:
		result = less || equal
	case token.Greater:
		result = !less && !equal
	case token.GreaterEq:
		result = !less
	}
	return env.ConstValue{Kind: env.ConstBool, Bool: result}, true
}

func equal(left, right env.ConstValue) (bool, bool) {
	if left.Kind != right.Kind {
		return false, false
	}
	switch left.Kind {
	case env.ConstBool:
		return left.Bool == right.Bool, true
	case env.ConstByte:
		return left.Byte == right.Byte, true
	case env.ConstInt:
		return left.Int == right.Int, true
	case env.ConstFloat:
		return left.Float == right.Float, true
	case env.ConstString, env.ConstName:
		return left.Str == right.Str, true
	default:
		return false, false
	}
}
