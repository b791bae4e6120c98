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
	"fmt"
	"io"

	"github.com/muscript-lang/muscript/internal/diag"
	"github.com/muscript-lang/muscript/internal/source"
)

// printDiagnostics writes every diagnostic in log to w, one per line. With
// debugInfo set it also renders each label's file/line/column and every
// note, the verbose form `--diagnostics-debug-info` asks for; without it,
// only the top-level severity/message line is printed, which is enough
// for a CI log or a quick lint pass.
func printDiagnostics(w io.Writer, fs *source.FileSet, log *diag.Log, debugInfo bool) {
	for _, d := range log.Diagnostics() {
		fmt.Fprintln(w, d.String())
		if !debugInfo {
			continue
		}
		for _, label := range d.Labels {
			kind := "note"
			if label.Primary {
				kind = "here"
			}
			if f := fs.File(label.Pos.File); f != nil {
				line, col := f.Position(label.Pos.Start)
				fmt.Fprintf(w, "    %s: %s:%d:%d: %s\n", kind, f.Name, line, col, label.Message)
			} else {
				fmt.Fprintf(w, "    %s: %s\n", kind, label.Message)
			}
		}
		for _, note := range d.Notes {
			fmt.Fprintf(w, "    note: %s\n", note.Message)
		}
	}
}
