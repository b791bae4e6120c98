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

	"github.com/muscript-lang/muscript/internal/clog"
	"github.com/muscript-lang/muscript/internal/lexer"
	"github.com/muscript-lang/muscript/internal/source"
	"github.com/muscript-lang/muscript/internal/token"
)

func init() {
	addVerb("lex", "Lex one or more .uc files and print their token stream", &lexAction{})
}

// lexAction is the cheapest possible pipeline stage to invoke: it proves
// source decoding and the lexer work end to end without needing a whole
// class environment behind it.
type lexAction struct {
	packageName string
}

func (a *lexAction) Flags(fs *flag.FlagSet) {
	fs.StringVar(&a.packageName, "package-name", "", "override the inferred package name for every file")
}

func (a *lexAction) Run(ctx context.Context, files []string) error {
	log := clog.From(ctx).Tag("lex")

	for _, path := range files {
		text, err := readSource(path)
		if err != nil {
			return err
		}
		pkg := packageNameFor(a.packageName, path)

		fs := &source.FileSet{}
		id := fs.Add(pkg, path, path, text)
		arena := source.NewArena[token.Token]()
		arena.BeginFile(id)
		span := lexer.Lex(text, arena)

		log.Infof("%s: %d tokens", path, span.Len())
		for _, tid := range span.Ids() {
			tok := arena.Get(tid)
			if tok.Err != "" {
				fmt.Printf("%s\t%s\t%q\tERROR: %s\n", path, tok.Kind, text[tok.Start:tok.End], tok.Err)
				continue
			}
			fmt.Printf("%s\t%s\t%q\n", path, tok.Kind, text[tok.Start:tok.End])
		}
	}

	return nil
}
