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

// Package diag defines the structured diagnostic types pushed by every
// compiler stage, and a push-only Sink interface collaborators (the CLI
// driver, the partitioner, the function analyser) implement or consume.
//
// Diagnostics are data, not errors: nothing in this package implements the
// `error` interface, and nothing here panics on the caller's behalf. The
// one exception is Log's own error-limit abort, a panic/recover sentinel
// local to this package rather than a process-wide one.
package diag

import (
	"fmt"

	"github.com/muscript-lang/muscript/internal/source"
)

// Severity orders diagnostics from least to most serious.
type Severity int

const (
	Help Severity = iota
	Note
	Warning
	Error
	Bug
)

func (s Severity) String() string {
	switch s {
	case Help:
		return "help"
	case Note:
		return "note"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Bug:
		return "internal compiler error"
	default:
		return "unknown"
	}
}

// Pos is a byte-offset location within one source file, used as the anchor
// for a Label.
type Pos struct {
	File   source.FileId
	Start  int
	End    int
}

// Label attaches a message to a span; Primary labels mark the main offending
// span, Secondary labels add context elsewhere (e.g. "first defined here").
type Label struct {
	Pos       Pos
	Message   string
	Primary   bool
}

// Replacement is a suggested source-text substitution, as rendered by
// `--diagnostics-debug-info` style tooling outside this package, but
// carried here so that tooling can act on it.
type Replacement struct {
	Pos         Pos
	Replacement string
}

// NoteEntry is one free-form note on a diagnostic, optionally carrying a
// suggested fix.
type NoteEntry struct {
	Message     string
	Replacement *Replacement
}

// Diagnostic is one structured compiler message.
type Diagnostic struct {
	Severity Severity
	Message  string
	Labels   []Label
	Notes    []NoteEntry
}

// WithLabel appends a label and returns the diagnostic for chaining.
func (d *Diagnostic) WithLabel(pos Pos, primary bool, message string) *Diagnostic {
	d.Labels = append(d.Labels, Label{Pos: pos, Message: message, Primary: primary})
	return d
}

// WithNote appends a plain note.
func (d *Diagnostic) WithNote(message string) *Diagnostic {
	d.Notes = append(d.Notes, NoteEntry{Message: message})
	return d
}

// WithFix appends a note carrying a replacement suggestion.
func (d *Diagnostic) WithFix(pos Pos, replacement, message string) *Diagnostic {
	d.Notes = append(d.Notes, NoteEntry{
		Message:     message,
		Replacement: &Replacement{Pos: pos, Replacement: replacement},
	})
	return d
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

// Sink is the push-only interface every compiler stage reports diagnostics
// through.
type Sink interface {
	Push(d Diagnostic)
}

// New builds a Diagnostic at the given severity with a primary message.
func New(sev Severity, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Severity: sev, Message: fmt.Sprintf(format, args...)}
}

// Bugf reports an internal compiler defect; it always carries a note asking
// the user to file a report.
func Bugf(format string, args ...interface{}) *Diagnostic {
	d := New(Bug, format, args...)
	d.WithNote("this indicates a defect in the compiler itself; please report it")
	return d
}
