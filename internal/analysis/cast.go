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

package analysis

import (
	"github.com/muscript-lang/muscript/internal/ir"
	"github.com/muscript-lang/muscript/internal/types"
)

// primitiveCastTable covers the fixed-Id primitive pairs: every Bool/Byte/
// Int/Float/String combination, plus Name's two asymmetric conversions.
// Vector/Rotator/Object/Interface casts depend on a type's Kind rather
// than its fixed Id and are handled separately by castFor.
var primitiveCastTable = map[[2]types.Id]ir.PrimitiveCast{
	{types.Byte, types.Int}:     ir.ByteToInt,
	{types.Byte, types.Bool}:    ir.ByteToBool,
	{types.Byte, types.Float}:   ir.ByteToFloat,
	{types.Byte, types.String}:  ir.ByteToString,
	{types.Int, types.Byte}:     ir.IntToByte,
	{types.Int, types.Bool}:     ir.IntToBool,
	{types.Int, types.Float}:    ir.IntToFloat,
	{types.Int, types.String}:   ir.IntToString,
	{types.Bool, types.Byte}:    ir.BoolToByte,
	{types.Bool, types.Int}:     ir.BoolToInt,
	{types.Bool, types.Float}:   ir.BoolToFloat,
	{types.Bool, types.String}:  ir.BoolToString,
	{types.Float, types.Byte}:   ir.FloatToByte,
	{types.Float, types.Int}:    ir.FloatToInt,
	{types.Float, types.Bool}:   ir.FloatToBool,
	{types.Float, types.String}: ir.FloatToString,
	{types.String, types.Byte}:  ir.StringToByte,
	{types.String, types.Int}:   ir.StringToInt,
	{types.String, types.Bool}:  ir.StringToBool,
	{types.String, types.Float}: ir.StringToFloat,
	{types.String, types.Name}:  ir.StringToName,
	{types.Name, types.Bool}:    ir.NameToBool,
	{types.Name, types.String}:  ir.NameToString,
}

// vectorOrRotatorName reports whether id names the engine's Vector/Rotator
// struct, and which of the two; the type table has no dedicated Kind for either, so a cast to or
// from one is recognised by its struct name instead.
func vectorOrRotatorName(table *types.Table, id types.Id) (string, bool) {
	ty := table.Get(id)
	if ty.Kind != types.KindStruct {
		return "", false
	}
	switch ty.Name {
	case "Vector", "Rotator":
		return ty.Name, true
	}
	return "", false
}

// castFor resolves the primitive VM cast from one type to another, if one
// exists. Interface and delegate casts are not modelled: an interface
// resolves to an ordinary KindObject class in this type table, and a
// delegate has no value-level type at all, so neither can be distinguished
// from the pairs this function already declines to handle.
func castFor(table *types.Table, from, to types.Id) (ir.PrimitiveCast, bool) {
	if c, ok := primitiveCastTable[[2]types.Id{from, to}]; ok {
		return c, true
	}

	fromTy, toTy := table.Get(from), table.Get(to)

	if fromTy.Kind == types.KindObject {
		switch to {
		case types.Bool:
			return ir.ObjectToBool, true
		case types.String:
			return ir.ObjectToString, true
		}
	}

	if fromName, ok := vectorOrRotatorName(table, from); ok {
		switch {
		case fromName == "Rotator" && toTy.Kind == types.KindStruct && toTy.Name == "Vector":
			return ir.RotatorToVector, true
		case fromName == "Vector" && toTy.Kind == types.KindStruct && toTy.Name == "Rotator":
			return ir.VectorToRotator, true
		case to == types.Bool:
			if fromName == "Vector" {
				return ir.VectorToBool, true
			}
			return ir.RotatorToBool, true
		case to == types.String:
			if fromName == "Vector" {
				return ir.VectorToString, true
			}
			return ir.RotatorToString, true
		}
	}

	if toName, ok := vectorOrRotatorName(table, to); ok && from == types.String {
		if toName == "Vector" {
			return ir.StringToVector, true
		}
		return ir.StringToRotator, true
	}

	return 0, false
}
