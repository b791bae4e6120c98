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

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/muscript-lang/muscript/internal/analysis"
	"github.com/muscript-lang/muscript/internal/clog"
	"github.com/muscript-lang/muscript/internal/consteval"
	"github.com/muscript-lang/muscript/internal/cst"
	"github.com/muscript-lang/muscript/internal/diag"
	"github.com/muscript-lang/muscript/internal/env"
	"github.com/muscript-lang/muscript/internal/lexer"
	"github.com/muscript-lang/muscript/internal/parse"
	"github.com/muscript-lang/muscript/internal/partition"
	"github.com/muscript-lang/muscript/internal/source"
	"github.com/muscript-lang/muscript/internal/token"
	"github.com/muscript-lang/muscript/internal/tokstream"
	"github.com/pkg/errors"
)

func init() {
	addVerb("parse", "Parse one or more .uc files, resolve every class and lower every function body", &parseAction{})
}

// parseAction runs the whole front end to back: lex, parse to a CST,
// partition each file, declare every class in one shared env.Env so
// cross-file references (superclasses, const-to-const references) resolve,
// then force every function to analyse. This is the verb a build system
// would actually invoke; `lex` exists separately only to isolate the
// cheaper stage for quick smoke tests.
type parseAction struct {
	packageName string
	stats       bool
	debugInfo   bool
	limit       int
}

func (a *parseAction) Flags(fs *flag.FlagSet) {
	fs.StringVar(&a.packageName, "package-name", "", "override the inferred package name for every file")
	fs.BoolVar(&a.stats, "stats", false, "print per-class function/var counts after parsing")
	fs.BoolVar(&a.debugInfo, "diagnostics-debug-info", false, "render file/line/column and notes for every diagnostic")
	fs.IntVar(&a.limit, "diagnostics-limit", 0, "abort a file's processing after this many diagnostics (0 = unlimited)")
}

func (a *parseAction) Run(ctx context.Context, files []string) error {
	log := clog.From(ctx).Tag("parse")
	fs := &source.FileSet{}
	diags := &diag.Log{Limit: a.limit}
	e := env.NewEnv(diags)
	e.Eval = consteval.New(e)

	classIds := make([]env.ClassId, 0, len(files))
	for _, path := range files {
		classId, err := parseOneFile(fs, diags, e, a.packageName, path, log)
		if err != nil {
			return err
		}
		if classId == env.ClassIdInvalid {
			log.Warningf("%s: aborted before declaring a class (diagnostics limit reached)", path)
			continue
		}
		classIds = append(classIds, classId)
	}

	az := analysis.New(e, diags)
	for _, classId := range classIds {
		class := e.Class(classId)
		for _, name := range e.AllFunctionNames(classId) {
			if !analyzeOneFunction(az, classId, name) {
				log.Warningf("%s.%s: failed to lower", class.Name, name)
			}
		}
		if a.stats {
			fmt.Printf("%s: %d function(s), %d var(s)\n", class.Name, len(e.AllFunctionNames(classId)), len(e.AllVarNames(classId)))
		}
	}

	printDiagnostics(os.Stdout, fs, diags, a.debugInfo)
	if diags.HasErrors() {
		n := 0
		for _, d := range diags.Diagnostics() {
			if d.Severity >= diag.Error {
				n++
			}
		}
		return errors.Errorf("%d diagnostic(s) at error severity or above", n)
	}
	return nil
}

// analyzeOneFunction guards one function's lowering against a diagnostics-
// limit abort the same way parseOneFile guards one file's parsing: a
// pathological function that trips the limit mid-lower should not crash
// the whole batch, just be reported as failed-to-lower.
func analyzeOneFunction(az *analysis.Analyzer, classId env.ClassId, name string) (ok bool) {
	defer diag.Recover()
	_, ok = az.AnalyzeFunction(classId, name)
	return ok
}

// parseOneFile decodes, lexes, parses and partitions a single file, then
// declares it as a class in e. It returns the file's own diag.Log limit
// abort (diag.Recover) as a plain nil so that one pathological file does
// not stop the rest of the batch from being attempted.
func parseOneFile(fs *source.FileSet, diags *diag.Log, e *env.Env, packageName, path string, log clog.Logger) (classId env.ClassId, err error) {
	text, err := readSource(path)
	if err != nil {
		return 0, err
	}
	pkg := packageNameFor(packageName, path)
	fileId := fs.Add(pkg, path, path, text)

	arena := source.NewArena[token.Token]()
	arena.BeginFile(fileId)
	span := lexer.Lex(text, arena)

	out := tokstream.NewSliced()
	out.PushSlice(tokstream.Slice{Start: span.Start, End: span.End})

	defer diag.Recover()

	r := tokstream.NewReader(arena, out)
	p := parse.New(r, diags, fileId)
	c := &cst.Ctx{Arena: arena, File: fs.File(fileId)}
	f := cst.ParseFile(p, c)
	part := partition.Build(f, fileId, c, diags)

	className := path
	if f.Header != nil {
		className = c.Text(f.Header.Name.Id)
	}
	log.Debugf("%s: declared as class %s", path, className)
	return e.DeclareClass(className, part, c), nil
}
