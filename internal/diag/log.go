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

package diag

// abortPush is panicked by Log.Push once the configured limit is hit, and
// recovered at the top of whichever driving loop called in (parsing one
// file, analysing one function). It is a private sentinel type, not a
// string or a plain error, so a stray recover() elsewhere can't mistake an
// unrelated panic for this one.
type abortPush struct{}

// Log is an in-memory Sink that records every pushed diagnostic and panics
// with abortPush once more than Limit have been recorded, so that a
// pathological input cannot make a single parse or analysis run unbounded.
// A Limit of zero means unlimited.
type Log struct {
	Limit       int
	diagnostics []Diagnostic
}

// Push implements Sink.
func (l *Log) Push(d Diagnostic) {
	l.diagnostics = append(l.diagnostics, d)
	if l.Limit > 0 && len(l.diagnostics) > l.Limit {
		panic(abortPush{})
	}
}

// Diagnostics returns every diagnostic recorded so far, in push order.
func (l *Log) Diagnostics() []Diagnostic { return l.diagnostics }

// MaxSeverity returns the highest severity recorded, or Help if nothing was
// pushed. The CLI driver uses this to decide its exit code: zero when no
// diagnostic reached Error or above.
func (l *Log) MaxSeverity() Severity {
	max := Help
	for _, d := range l.diagnostics {
		if d.Severity > max {
			max = d.Severity
		}
	}
	return max
}

// HasErrors reports whether any diagnostic at Error severity or above was
// recorded.
func (l *Log) HasErrors() bool { return l.MaxSeverity() >= Error }

// Recover should be deferred by any call site that wants Log's error-limit
// abort to be a no-op from its own point of view (the diagnostics are
// already recorded; only control flow needs unwinding). It re-panics
// anything that isn't an abortPush.
func Recover() {
	if r := recover(); r != nil {
		if _, ok := r.(abortPush); !ok {
			panic(r)
		}
	}
}
