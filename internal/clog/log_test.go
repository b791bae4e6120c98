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

package clog_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/muscript-lang/muscript/internal/clog"
)

func TestLoggerDispatchesAboveLevel(t *testing.T) {
	var got []clog.Message
	l := clog.New(clog.Handler{
		Level: clog.Info,
		Handle: func(m clog.Message) {
			got = append(got, m)
		},
	})

	l.Debugf("quiet %d", 1)
	l.Infof("loud %d", 2)
	l.Warningf("louder %d", 3)

	if len(got) != 2 {
		t.Fatalf("expected Debugf to be filtered out by the Info level, got %d messages", len(got))
	}
	if got[0].Text != "loud 2" || got[0].Severity != clog.Info {
		t.Fatalf("unexpected first message: %#v", got[0])
	}
	if got[1].Text != "louder 3" || got[1].Severity != clog.Warning {
		t.Fatalf("unexpected second message: %#v", got[1])
	}
}

func TestLoggerTagNests(t *testing.T) {
	var got clog.Message
	l := clog.New(clog.Handler{
		Handle: func(m clog.Message) { got = m },
	})

	l = l.Tag("parse").Tag("lex")
	l.Infof("token")

	if got.Tag != "parse.lex" {
		t.Fatalf("expected nested tag \"parse.lex\", got %q", got.Tag)
	}
}

func TestZeroLoggerIsInert(t *testing.T) {
	var l clog.Logger
	l.Infof("this must not panic")
}

func TestContextRoundTrip(t *testing.T) {
	var got string
	l := clog.New(clog.Handler{
		Handle: func(m clog.Message) { got = m.Text },
	})

	ctx := clog.NewContext(context.Background(), l)
	clog.From(ctx).Errorf("boom")

	if got != "boom" {
		t.Fatalf("expected the context-attached logger to receive the message, got %q", got)
	}

	// A context with no attached Logger yields the inert zero Logger; this
	// must not panic.
	clog.From(context.Background()).Errorf("dropped silently")
}

type fakeT struct {
	lines []string
}

func (f *fakeT) Logf(format string, args ...interface{}) {
	f.lines = append(f.lines, fmt.Sprintf(format, args...))
}

func TestTestingLoggerWritesThroughLogf(t *testing.T) {
	fake := &fakeT{}
	ctx := clog.Testing(fake)
	clog.From(ctx).Tag("env").Warningf("super chain cycle on %s", "Actor")

	if len(fake.lines) != 1 {
		t.Fatalf("expected exactly one Logf call, got %d", len(fake.lines))
	}
	if fake.lines[0] != "[env] W: super chain cycle on Actor" {
		t.Fatalf("unexpected line: %q", fake.lines[0])
	}
}
