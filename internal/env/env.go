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

package env

import (
	"strings"

	"github.com/muscript-lang/muscript/internal/cst"
	"github.com/muscript-lang/muscript/internal/diag"
	"github.com/muscript-lang/muscript/internal/partition"
	"github.com/muscript-lang/muscript/internal/source"
	"github.com/muscript-lang/muscript/internal/types"
)

// ConstEvaluator folds a constant-initialiser expression into a value.
// Env depends on this interface rather than importing internal/analysis
// and internal/consteval directly, since both of those depend on env for
// class/function/var/type lookups; the driver wires a real evaluator in
// once every package is constructed, breaking what would otherwise be an
// import cycle.
type ConstEvaluator interface {
	EvalConst(class ClassId, c *cst.Ctx, expr cst.Expr) (ConstValue, bool)
}

// Env is the compiler's whole environment: the type universe, the class
// table, and the function/var tables every resolved class/function/var
// record is appended to. Ids into these tables are stable and append-only,
// per the single-threaded, append-only concurrency model every other
// shared structure in this compiler follows.
type Env struct {
	Types *types.Table
	Eval  ConstEvaluator

	diags diag.Sink

	classes []*Class
	byName  map[string]ClassId

	functions []*Function
	vars      []*Var
}

// NewEnv builds an environment seeded with the two predefined classes every
// class table starts with.
func NewEnv(diags diag.Sink) *Env {
	e := &Env{
		Types:  types.NewTable(),
		diags:  diags,
		byName: map[string]ClassId{},
	}
	e.classes = append(e.classes, nil) // ClassIdInvalid: never dereferenced
	object := newClass(ClassIdObject, "Object")
	object.superResolved, object.super = true, ClassIdInvalid
	e.classes = append(e.classes, object)
	e.byName["object"] = ClassIdObject

	class := newClass(ClassIdClass, "Class")
	class.superResolved, class.super = true, ClassIdObject
	e.classes = append(e.classes, class)
	e.byName["class"] = ClassIdClass

	e.seedIntrinsics()
	return e
}

func (e *Env) class(id ClassId) *Class { return e.classes[id] }

// Class exposes a class's read-only view (name, declared superclass name,
// partition count) to callers outside this package, e.g. the CLI driver's
// `--stats` reporting.
func (e *Env) Class(id ClassId) *Class { return e.classes[id] }

// Function returns a previously-resolved function record by id.
func (e *Env) Function(id FunctionId) *Function { return e.functions[id] }

// Var returns a previously-resolved var/const record by id.
func (e *Env) Var(id VarId) *Var { return e.vars[id] }

// DeclareClass registers one file's partition as a class (or adds it as an
// additional partial-class partition if a partition under this name was
// already declared). The first partition's header fixes the class's
// declared superclass name; later partitions that disagree are reported
// but do not change it, per the "first definition wins for type checking,
// but all are reported" rule this repository's open questions settled on
// for same-package partials.
func (e *Env) DeclareClass(name string, part *partition.Partition, c *cst.Ctx) ClassId {
	key := strings.ToLower(name)
	if id, ok := e.byName[key]; ok {
		cl := e.class(id)
		cl.Partitions = append(cl.Partitions, classPartition{Part: part, Ctx: c})
		if superName := superNameOf(part.Header, c); superName != "" && !strings.EqualFold(superName, cl.SuperName) {
			e.diags.Push(*diag.New(diag.Warning,
				"%s's partitions disagree about its superclass (%q here, %q already recorded); keeping %q",
				name, superName, cl.SuperName, cl.SuperName))
		}
		return id
	}

	id := ClassId(len(e.classes))
	cl := newClass(id, name)
	cl.SuperName = superNameOf(part.Header, c)
	cl.Partitions = append(cl.Partitions, classPartition{Part: part, Ctx: c})
	e.classes = append(e.classes, cl)
	e.byName[key] = id
	return id
}

func superNameOf(header *cst.ClassHeader, c *cst.Ctx) string {
	if header == nil || header.Extends == nil {
		return ""
	}
	seg := header.Extends.Segments
	return c.Text(seg[len(seg)-1].Id)
}

// SuperOf resolves class's direct superclass, memoised permanently on
// first call. A class with no explicit `extends` implicitly extends
// Object, the same default the language itself uses; Object's own
// superclass is the chain's end.
func (e *Env) SuperOf(class ClassId) (ClassId, bool) {
	cl := e.class(class)
	if cl.superResolved {
		return cl.super, cl.super != ClassIdInvalid
	}
	cl.superResolved = true
	if cl.SuperName == "" {
		cl.super = ClassIdObject
		return cl.super, true
	}
	super, ok := e.FindClass(cl.SuperName)
	if !ok {
		e.diags.Push(*diag.New(diag.Error, "%s extends unknown class %q", cl.Name, cl.SuperName))
		cl.super = ClassIdInvalid
		return ClassIdInvalid, false
	}
	cl.super = super
	return super, true
}

// ClassStructLookup lazily materialises class's own struct declaration
// named name (not its superclasses' — FindStruct does that walk).
func (e *Env) ClassStructLookup(class ClassId, name string) (*ClassStruct, bool) {
	cl := e.class(class)
	key := strings.ToLower(name)
	if s, ok := cl.structs[key]; ok {
		if s.state == slotResolved {
			return s.value, true
		}
		return nil, false
	}
	for _, cp := range cl.Partitions {
		if sd, ok := cp.Part.Structs.Lookup(name); ok {
			cs := &ClassStruct{Outer: class, Name: name, Def: sd, Ctx: cp.Ctx}
			cl.structs[key] = &slot[*ClassStruct]{state: slotResolved, value: cs}
			return cs, true
		}
	}
	cl.structs[key] = &slot[*ClassStruct]{state: slotError}
	return nil, false
}

// SuperStruct resolves cs's super-struct, memoised permanently on first
// call, by reading the `extends` clause off the underlying StructDef.
func (e *Env) SuperStruct(cs *ClassStruct) (*ClassStruct, bool) {
	if cs.superState != superUnknown {
		return cs.super, cs.superState == superKnown
	}
	if cs.Def.Extends == nil {
		cs.superState = superNone
		return nil, false
	}
	seg := cs.Def.Extends.Segments
	name := cs.Ctx.Text(seg[len(seg)-1].Id)
	super, ok := e.ClassStructLookup(cs.Outer, name)
	if !ok {
		e.diags.Push(*diag.New(diag.Error, "struct %s extends unknown struct %q", cs.Name, name))
		cs.superState = superNone
		return nil, false
	}
	cs.superState, cs.super = superKnown, super
	return super, true
}

// borrowFunction "steals" name's CST fragment out of part for the duration
// of do, guaranteeing it is put back even if do panics: from outside
// function analysis, a partition's namespace is always observably
// complete. This is the only place an otherwise read-only CST is mutated,
// and it is only ever safe because the compiler is single-threaded.
func borrowFunction(part *partition.Partition, name string, do func(*cst.FunctionItem)) bool {
	item, ok := part.Functions.Take(name)
	if !ok {
		return false
	}
	defer part.Functions.Put(name, item)
	do(item)
	return true
}

// FunctionInClass resolves a function declared directly in class (not
// inherited), analysing its signature out of the CST on first demand.
func (e *Env) FunctionInClass(class ClassId, name string) (FunctionId, bool) {
	cl := e.class(class)
	key := strings.ToLower(name)
	if s, ok := cl.functions[key]; ok {
		if s.state == slotResolved {
			return s.value, true
		}
		return 0, false
	}
	for _, cp := range cl.Partitions {
		var id FunctionId
		found := borrowFunction(cp.Part, name, func(fn *cst.FunctionItem) {
			id = e.defineFunction(class, cp.Part.File, cp.Ctx, fn)
		})
		if found {
			cl.functions[key] = &slot[FunctionId]{state: slotResolved, value: id}
			return id, true
		}
	}
	cl.functions[key] = &slot[FunctionId]{state: slotError}
	return 0, false
}

// FunctionBody borrows name's CST body out of whichever of class's own
// partitions declares it, for the duration of do, using the same scoped
// acquisition FunctionInClass uses for its signature. IR lowering needs a
// second look at the body itself, which the permanent Function record does
// not retain — only the signature survives past the borrow.
func (e *Env) FunctionBody(class ClassId, name string, do func(fn *cst.FunctionItem, c *cst.Ctx)) bool {
	cl := e.class(class)
	for _, cp := range cl.Partitions {
		if borrowFunction(cp.Part, name, func(fn *cst.FunctionItem) { do(fn, cp.Ctx) }) {
			return true
		}
	}
	return false
}

// LookupFunction is lookup_function: walk class's super chain (class
// itself first) until a function named name is found.
func (e *Env) LookupFunction(class ClassId, name string) (FunctionId, bool) {
	w := e.Super(class)
	for {
		id, ok := w.Next()
		if !ok {
			return 0, false
		}
		if fid, ok := e.FunctionInClass(id, name); ok {
			return fid, true
		}
	}
}

// ClassVar resolves a var or const declared directly in class, sharing one
// namespace the way the language's identifier scoping does: a `var` and a
// `const` of the same name collide.
func (e *Env) ClassVar(class ClassId, name string) (VarId, bool) {
	cl := e.class(class)
	key := strings.ToLower(name)
	if s, ok := cl.vars[key]; ok {
		if s.state == slotResolved {
			return s.value, true
		}
		return 0, false
	}
	for _, cp := range cl.Partitions {
		if entry, ok := cp.Part.Vars.Lookup(name); ok {
			id := e.defineVar(class, cp.Part.File, cp.Ctx, entry)
			cl.vars[key] = &slot[VarId]{state: slotResolved, value: id}
			return id, true
		}
		if c, ok := cp.Part.Consts.Lookup(name); ok {
			id := e.defineConst(class, cp.Ctx, c)
			cl.vars[key] = &slot[VarId]{state: slotResolved, value: id}
			return id, true
		}
	}
	cl.vars[key] = &slot[VarId]{state: slotError}
	return 0, false
}

// LookupClassVar is lookup_class_var: walk class's super chain until a var
// or const named name is found.
func (e *Env) LookupClassVar(class ClassId, name string) (VarId, bool) {
	w := e.Super(class)
	for {
		id, ok := w.Next()
		if !ok {
			return 0, false
		}
		if vid, ok := e.ClassVar(id, name); ok {
			return vid, true
		}
	}
}

// LookupStructVar is lookup_struct_var: walk cs's super-struct chain until
// a field named name is found.
func (e *Env) LookupStructVar(cs *ClassStruct, name string) (*partition.VarEntry, bool) {
	for cur := cs; cur != nil; {
		if entry, ok := structField(cur, name); ok {
			return entry, true
		}
		next, ok := e.SuperStruct(cur)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return nil, false
}

func structField(cs *ClassStruct, name string) (*partition.VarEntry, bool) {
	for _, item := range cs.Def.Items {
		v, ok := item.(cst.VarItem)
		if !ok {
			continue
		}
		for _, decl := range v.Decls {
			if strings.EqualFold(cs.Ctx.Text(decl.Name.Id), name) {
				owned := v
				return &partition.VarEntry{Decl: &owned, Name: decl}, true
			}
		}
	}
	return nil, false
}

// AllFunctionNames forces resolution of, and caches, every function name
// across class's own partitions, for whole-class emission.
func (e *Env) AllFunctionNames(class ClassId) []string {
	cl := e.class(class)
	if cl.allFunctionNames != nil {
		return cl.allFunctionNames
	}
	seen := map[string]bool{}
	for _, cp := range cl.Partitions {
		for _, name := range cp.Part.Functions.Names() {
			key := strings.ToLower(name)
			if seen[key] {
				continue
			}
			seen[key] = true
			e.FunctionInClass(class, name)
			cl.allFunctionNames = append(cl.allFunctionNames, name)
		}
	}
	if cl.allFunctionNames == nil {
		cl.allFunctionNames = []string{}
	}
	return cl.allFunctionNames
}

// AllVarNames is AllFunctionNames' counterpart for vars and consts.
func (e *Env) AllVarNames(class ClassId) []string {
	cl := e.class(class)
	if cl.allVarNames != nil {
		return cl.allVarNames
	}
	seen := map[string]bool{}
	add := func(name string) {
		key := strings.ToLower(name)
		if seen[key] {
			return
		}
		seen[key] = true
		e.ClassVar(class, name)
		cl.allVarNames = append(cl.allVarNames, name)
	}
	for _, cp := range cl.Partitions {
		for _, name := range cp.Part.Vars.Names() {
			add(name)
		}
		for _, name := range cp.Part.Consts.Names() {
			add(name)
		}
	}
	if cl.allVarNames == nil {
		cl.allVarNames = []string{}
	}
	return cl.allVarNames
}

func (e *Env) resolveVarType(class ClassId, c *cst.Ctx, vt *cst.VarType) types.Id {
	switch {
	case vt == nil:
		return types.Void
	case vt.InlineStruct != nil:
		return e.Types.Struct(class, c.Text(vt.InlineStruct.Name.Id))
	case vt.InlineEnum != nil:
		return e.Types.Enum(class, c.Text(vt.InlineEnum.Name.Id))
	default:
		return types.Resolve(e.Types, e, e.diags, c, class, vt.Named)
	}
}

func (e *Env) defineFunction(class ClassId, file source.FileId, c *cst.Ctx, fn *cst.FunctionItem) FunctionId {
	params := make([]Param, len(fn.Params))
	for i, p := range fn.Params {
		v := &Var{SourceFile: file, NameToken: p.Name.Id, Type: e.resolveVarType(class, c, p.Type), Kind: VarKindVar}
		vid := VarId(len(e.vars))
		e.vars = append(e.vars, v)
		params[i] = Param{Var: vid, Flags: paramFlagsOf(c, p)}
	}
	f := &Function{
		Class:       class,
		MangledName: partition.MangleFunctionName(c, *fn),
		NameToken:   fn.Name.Id,
		ReturnType:  e.resolveVarType(class, c, fn.ReturnType),
		Params:      params,
		Flags:       functionFlagsOf(c, fn),
		Kind:        functionKindOf(fn),
	}
	id := FunctionId(len(e.functions))
	e.functions = append(e.functions, f)
	return id
}

// NewLocalVar registers a function-local variable that belongs to no
// class namespace, for internal/analysis's `local` statement lowering: a
// function body's locals share the Var table with class vars and params,
// but are never reachable through FunctionInClass/ClassVar lookups.
func (e *Env) NewLocalVar(file source.FileId, nameToken source.Id, ty types.Id) VarId {
	v := &Var{SourceFile: file, NameToken: nameToken, Type: ty, Kind: VarKindVar}
	id := VarId(len(e.vars))
	e.vars = append(e.vars, v)
	return id
}

func (e *Env) defineVar(class ClassId, file source.FileId, c *cst.Ctx, entry *partition.VarEntry) VarId {
	v := &Var{
		SourceFile: file,
		NameToken:  entry.Name.Name.Id,
		Type:       e.resolveVarType(class, c, entry.Decl.Type),
		Kind:       VarKindVar,
	}
	id := VarId(len(e.vars))
	e.vars = append(e.vars, v)
	return id
}

func (e *Env) defineConst(class ClassId, c *cst.Ctx, item *cst.ConstItem) VarId {
	var value ConstValue
	ok := false
	if e.Eval != nil {
		value, ok = e.Eval.EvalConst(class, c, item.Value)
	}
	if !ok {
		e.diags.Push(*diag.New(diag.Error, "%s could not be evaluated as a constant", c.Text(item.Name.Id)))
	}
	v := &Var{
		NameToken: item.Name.Id,
		Type:      typeOfConst(value),
		Kind:      VarKindConst,
		Const:     &Constant{Value: value, Ok: ok},
	}
	id := VarId(len(e.vars))
	e.vars = append(e.vars, v)
	return id
}

func paramFlagsOf(c *cst.Ctx, p *cst.Param) ParamFlags {
	var flags ParamFlags
	for _, s := range p.Specifiers {
		switch strings.ToLower(c.Text(s.Name.Id)) {
		case "out":
			flags |= ParamOut
		case "optional":
			flags |= ParamOptional
		case "coerce":
			flags |= ParamCoerce
		}
	}
	return flags
}

func functionFlagsOf(c *cst.Ctx, fn *cst.FunctionItem) FunctionFlags {
	var flags FunctionFlags
	mark := func(specs []cst.Specifier) {
		for _, s := range specs {
			switch strings.ToLower(c.Text(s.Name.Id)) {
			case "simulated":
				flags |= FuncSimulated
			case "static":
				flags |= FuncStatic
			case "final":
				flags |= FuncFinal
			case "native":
				flags |= FuncNative
			case "latent":
				flags |= FuncLatent
			}
		}
	}
	mark(fn.PreSpecifiers)
	mark(fn.PostSpecifiers)
	return flags
}

func functionKindOf(fn *cst.FunctionItem) FunctionKind {
	switch fn.Kind {
	case cst.FuncEvent:
		return FuncKindEvent
	case cst.FuncDelegate:
		return FuncKindDelegate
	case cst.FuncOperator:
		return FuncKindOperator
	case cst.FuncPreOperator:
		return FuncKindPreOperator
	case cst.FuncPostOperator:
		return FuncKindPostOperator
	default:
		return FuncKindFunction
	}
}
