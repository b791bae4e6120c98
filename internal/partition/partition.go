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

// Package partition turns one file's CST into a normalised per-file class
// summary: a Partition. Building a class's full namespace out of one or more
// partitions (partials), and checking that those partitions agree with each
// other, is internal/env's job — a Partition only ever reflects what one
// file contributed.
package partition

import (
	"github.com/muscript-lang/muscript/internal/cst"
	"github.com/muscript-lang/muscript/internal/diag"
	"github.com/muscript-lang/muscript/internal/source"
)

// VarEntry is one normalised variable declaration: a single declarator,
// split out of a possibly-multi-name VarItem, paired back with the
// declaration it came from for its category/specifiers/type.
type VarEntry struct {
	Decl *cst.VarItem
	Name cst.VarDecl
}

// StateEntry is a normalised `state` item: its own function namespace,
// built the same way the enclosing class's is.
type StateEntry struct {
	Decl      *cst.StateItem
	Functions *Table[*cst.FunctionItem]
}

// Partition is one file's contribution to a class (or interface): every
// item it declares, normalised per §4.7 — simulated unwrapped, multi-name
// vars split, inline struct/enum lifted into the Structs/Enums tables,
// structdefaultproperties canonicalised — and mangled so overloaded
// operators don't collide in the Functions table.
type Partition struct {
	File   source.FileId
	Header *cst.ClassHeader

	Consts    *Table[*cst.ConstItem]
	Vars      *Table[*VarEntry]
	Functions *Table[*cst.FunctionItem]
	Structs   *Table[*cst.StructDef]
	Enums     *Table[*cst.EnumDef]
	States    *Table[*StateEntry]

	DefaultProperties *cst.DefaultPropertiesBlock
	Replication       *cst.ReplicationItem
}

// Build normalises one parsed file into a Partition, reporting coherence
// problems local to this one file (duplicate names, a second replication or
// default-properties block, statements or constructs that don't belong at
// class scope having already been rejected by the parser itself).
func Build(file *cst.File, fileID source.FileId, c *cst.Ctx, diags diag.Sink) *Partition {
	p := &Partition{
		File:      fileID,
		Header:    file.Header,
		Consts:    newTable[*cst.ConstItem](),
		Vars:      newTable[*VarEntry](),
		Functions: newTable[*cst.FunctionItem](),
		Structs:   newTable[*cst.StructDef](),
		Enums:     newTable[*cst.EnumDef](),
		States:    newTable[*StateEntry](),
	}
	for _, item := range file.Items {
		addItem(p, c, diags, item, source.None)
	}
	return p
}

func duplicateName(diags diag.Sink, c *cst.Ctx, id source.Id, name, kind string) {
	diags.Push(*diag.New(diag.Error, "%s %q is already declared in this file", kind, name))
}

// addItem dispatches one class-scope item into the Partition it belongs in.
// simulatedTok is source.None for an item that appears directly; otherwise
// it is the `simulated` keyword token of the SimulatedItem wrapper this item
// was unwrapped from, reused to build the specifier the CST never attached
// directly to the inner declaration.
func addItem(p *Partition, c *cst.Ctx, diags diag.Sink, item cst.Item, simulatedTok source.Id) {
	switch it := item.(type) {
	case cst.ConstItem:
		name := c.Text(it.Name.Id)
		if !p.Consts.Declare(name, &it) {
			duplicateName(diags, c, it.Name.Id, name, "const")
		}

	case cst.VarItem:
		addVarItem(p, c, diags, &it)

	case cst.FunctionItem:
		if simulatedTok != source.None {
			it.PreSpecifiers = append(it.PreSpecifiers, simulatedSpecifier(simulatedTok))
		}
		mangled := MangleFunctionName(c, it)
		if !p.Functions.Declare(mangled, &it) {
			duplicateName(diags, c, it.Name.Id, mangled, "function")
		}

	case cst.StructItem:
		sd := normalizeStructDef(c, diags, it.Def)
		name := c.Text(sd.Name.Id)
		if !p.Structs.Declare(name, sd) {
			duplicateName(diags, c, sd.Name.Id, name, "struct")
		}

	case cst.EnumItem:
		name := c.Text(it.Def.Name.Id)
		if !p.Enums.Declare(name, it.Def) {
			duplicateName(diags, c, it.Def.Name.Id, name, "enum")
		}

	case cst.StateItem:
		if simulatedTok != source.None {
			it.Specifiers = append(it.Specifiers, simulatedSpecifier(simulatedTok))
		}
		entry := &StateEntry{Decl: &it, Functions: newTable[*cst.FunctionItem]()}
		for _, inner := range it.Items {
			addStateItem(entry, c, diags, inner)
		}
		name := c.Text(it.Name.Id)
		if !p.States.Declare(name, entry) {
			duplicateName(diags, c, it.Name.Id, name, "state")
		}

	case cst.ReplicationItem:
		if p.Replication != nil {
			diags.Push(*diag.New(diag.Error, "a class may only have one replication block"))
			return
		}
		p.Replication = &it

	case cst.DefaultPropertiesItem:
		if p.DefaultProperties != nil {
			diags.Push(*diag.New(diag.Error, "a class may only have one defaultproperties block"))
			return
		}
		if it.IsStruct {
			diags.Push(*diag.New(diag.Warning, "structdefaultproperties is only valid inside a struct; treating it as defaultproperties"))
		}
		p.DefaultProperties = it.Block

	case cst.CppTextItem:
		// Already warned by the parser; nothing else to record.

	case cst.SimulatedItem:
		if it.Inner != nil {
			addItem(p, c, diags, it.Inner, it.Span().Start)
		}

	default:
		diags.Push(*diag.New(diag.Bug, "unhandled class item kind %T", item))
	}
}

// addStateItem handles the (much smaller) set of item kinds legal inside a
// state body: functions/events overriding or introducing state behaviour,
// and nothing else survives analysis-worthy, so anything else is an error.
func addStateItem(entry *StateEntry, c *cst.Ctx, diags diag.Sink, item cst.Item) {
	switch it := item.(type) {
	case cst.FunctionItem:
		mangled := MangleFunctionName(c, it)
		if !entry.Functions.Declare(mangled, &it) {
			duplicateName(diags, c, it.Name.Id, mangled, "function")
		}
	case cst.SimulatedItem:
		if fn, ok := it.Inner.(cst.FunctionItem); ok {
			fn.PreSpecifiers = append(fn.PreSpecifiers, simulatedSpecifier(it.Span().Start))
			mangled := MangleFunctionName(c, fn)
			if !entry.Functions.Declare(mangled, &fn) {
				duplicateName(diags, c, fn.Name.Id, mangled, "function")
			}
			return
		}
		diags.Push(*diag.New(diag.Error, "only functions and events may appear in a state body"))
	default:
		diags.Push(*diag.New(diag.Error, "only functions and events may appear in a state body"))
	}
}

// addVarItem splits a (possibly multi-declarator) VarItem into one VarEntry
// per name, and hoists an inline struct/enum type definition into the
// class's Structs/Enums table under its own name.
func addVarItem(p *Partition, c *cst.Ctx, diags diag.Sink, v *cst.VarItem) {
	switch {
	case v.Type.InlineStruct != nil:
		sd := normalizeStructDef(c, diags, v.Type.InlineStruct)
		name := c.Text(sd.Name.Id)
		if !p.Structs.Declare(name, sd) {
			duplicateName(diags, c, sd.Name.Id, name, "struct")
		}
	case v.Type.InlineEnum != nil:
		name := c.Text(v.Type.InlineEnum.Name.Id)
		if !p.Enums.Declare(name, v.Type.InlineEnum) {
			duplicateName(diags, c, v.Type.InlineEnum.Name.Id, name, "enum")
		}
	}
	for _, decl := range v.Decls {
		name := c.Text(decl.Name.Id)
		entry := &VarEntry{Decl: v, Name: decl}
		if !p.Vars.Declare(name, entry) {
			duplicateName(diags, c, decl.Name.Id, name, "variable")
		}
	}
}

// normalizeStructDef splits multi-name vars and canonicalises
// structdefaultproperties inside a struct body, the same way addItem does
// for a class body, but keeping the result nested inside the StructDef
// rather than promoted into the enclosing class's Partition: struct fields
// live in their own namespace (§4.8's `class_struct`/`lookup_struct_var`).
func normalizeStructDef(c *cst.Ctx, diags diag.Sink, sd *cst.StructDef) *cst.StructDef {
	var normalized []cst.Item
	for _, item := range sd.Items {
		switch it := item.(type) {
		case cst.VarItem:
			for _, decl := range splitVarDecls(it) {
				normalized = append(normalized, decl)
			}
		case cst.DefaultPropertiesItem:
			it.IsStruct = false
			normalized = append(normalized, it)
		case cst.StructItem:
			it.Def = normalizeStructDef(c, diags, it.Def)
			normalized = append(normalized, it)
		default:
			normalized = append(normalized, item)
		}
	}
	sd.Items = normalized
	return sd
}

// splitVarDecls turns a multi-declarator VarItem into several single-
// declarator VarItems sharing the same category/specifiers/type.
func splitVarDecls(v cst.VarItem) []cst.VarItem {
	if len(v.Decls) <= 1 {
		return []cst.VarItem{v}
	}
	out := make([]cst.VarItem, len(v.Decls))
	for i, decl := range v.Decls {
		single := v
		single.Decls = []cst.VarDecl{decl}
		out[i] = single
	}
	return out
}

// simulatedSpecifier builds a `simulated` Specifier whose token id is the
// wrapper SimulatedItem's own `simulated` keyword token — the CST never
// threaded that id any further than the wrapper, so unwrapping reuses it
// rather than inventing a source position that doesn't exist.
func simulatedSpecifier(simulatedTok source.Id) cst.Specifier {
	return cst.Specifier{Name: cst.Ident{Id: simulatedTok}}
}
