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

// Package clog is the ambient logger cmd/muscriptc and the stages it
// drives use for progress and diagnostics that aren't themselves
// diag.Diagnostic values (file I/O, pipeline stage timing, driver
// decisions). Diagnostics about source code always go through
// internal/diag instead; clog is for the compiler talking about itself.
package clog

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Severity orders a Message the way internal/diag.Severity orders a
// Diagnostic, kept as a separate type since the two mean different things
// (one ranks a logger's chattiness, the other a source problem's
// seriousness) even though the words mostly overlap.
type Severity int32

const (
	Verbose Severity = iota
	Debug
	Info
	Warning
	Error
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Verbose:
		return "Verbose"
	case Debug:
		return "Debug"
	case Info:
		return "Info"
	case Warning:
		return "Warning"
	case Error:
		return "Error"
	case Fatal:
		return "Fatal"
	default:
		return "?"
	}
}

// Short is the single-character form used in line-oriented output.
func (s Severity) Short() string {
	switch s {
	case Verbose:
		return "V"
	case Debug:
		return "D"
	case Info:
		return "I"
	case Warning:
		return "W"
	case Error:
		return "E"
	case Fatal:
		return "F"
	default:
		return "?"
	}
}

// Message is one emitted log line.
type Message struct {
	Severity Severity
	Text     string
	Tag      string
	Time     time.Time
}

// Handler receives every Message a Logger at or above its Level emits.
type Handler struct {
	Level  Severity
	Handle func(Message)
}

// Logger is a small, immutable, chainable log front-end: Tag returns a
// copy with an additional tag segment, the severity methods format and
// dispatch to the handler. The zero Logger is inert — every method is a
// no-op — so a package can hold a Logger field and log through it freely
// before anyone wires a real handler in.
type Logger struct {
	handler *Handler
	tag     string
}

// New builds a Logger that dispatches to h.
func New(h Handler) Logger {
	return Logger{handler: &h}
}

// Tag returns a Logger that prefixes every message with tag, nested under
// any tag this Logger already carries.
func (l Logger) Tag(tag string) Logger {
	if l.tag != "" {
		tag = l.tag + "." + tag
	}
	l.tag = tag
	return l
}

func (l Logger) log(sev Severity, format string, args ...interface{}) {
	if l.handler == nil || sev < l.handler.Level || l.handler.Handle == nil {
		return
	}
	l.handler.Handle(Message{Severity: sev, Text: fmt.Sprintf(format, args...), Tag: l.tag, Time: time.Now()})
}

func (l Logger) Verbosef(format string, args ...interface{}) { l.log(Verbose, format, args...) }
func (l Logger) Debugf(format string, args ...interface{})   { l.log(Debug, format, args...) }
func (l Logger) Infof(format string, args ...interface{})    { l.log(Info, format, args...) }
func (l Logger) Warningf(format string, args ...interface{}) { l.log(Warning, format, args...) }
func (l Logger) Errorf(format string, args ...interface{})   { l.log(Error, format, args...) }

// Fatalf logs at Fatal and does not exit the process itself; the CLI
// driver decides what a fatal log line means for its own exit code, the
// same separation internal/diag draws between recording a diagnostic and
// deciding the process's fate from its MaxSeverity.
func (l Logger) Fatalf(format string, args ...interface{}) { l.log(Fatal, format, args...) }

// StdHandler writes each message to w as one line, tagged and timestamped
// the way a CLI's stderr log line usually looks.
func StdHandler(w io.Writer) func(Message) {
	return func(m Message) {
		tag := m.Tag
		if tag != "" {
			tag = "[" + tag + "] "
		}
		fmt.Fprintf(w, "%s %s%s: %s\n", m.Time.Format("15:04:05.000"), tag, m.Severity.Short(), m.Text)
	}
}

// delegate matches the subset of *testing.T (and *testing.B) a logger
// needs to turn log output into test output.
type delegate interface {
	Logf(format string, args ...interface{})
}

// Testing returns a context carrying a Logger that writes every message,
// at any severity, through t.Logf — so `go test -v` shows compiler log
// output interleaved with its own. Messages go straight to t.Logf, so one
// emitted after the test has finished behaves as a late t.Logf call does.
func Testing(t delegate) context.Context {
	l := New(Handler{
		Level: Verbose,
		Handle: func(m Message) {
			tag := m.Tag
			if tag != "" {
				tag = "[" + tag + "] "
			}
			t.Logf("%s%s: %s", tag, m.Severity.Short(), m.Text)
		},
	})
	return NewContext(context.Background(), l)
}

type contextKey struct{}

// NewContext attaches l to ctx.
func NewContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// From retrieves the Logger attached to ctx, or the inert zero Logger if
// none was attached.
func From(ctx context.Context) Logger {
	l, _ := ctx.Value(contextKey{}).(Logger)
	return l
}
