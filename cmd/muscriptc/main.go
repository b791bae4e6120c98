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

// Command muscriptc is the compiler front end's driver: it decodes source
// files, runs them through the lexer/parser/partitioner/environment/
// analysis pipeline, and reports diagnostics. It has no GUI and no daemon
// mode; every invocation is `muscriptc <verb> [flags] <file.uc>...` and
// exits once that verb's files are done.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/muscript-lang/muscript/internal/clog"
)

func main() {
	log := clog.New(clog.Handler{
		Level:  clog.Info,
		Handle: clog.StdHandler(os.Stderr),
	})
	ctx := clog.NewContext(context.Background(), log)

	if err := invoke(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
