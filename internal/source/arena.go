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

package source

// Id is a nonzero, ordered, dense index into an Arena. Zero is never
// produced by Arena.Push and is reserved to mean "no id" by callers that
// need an optional id without wrapping it in a pointer.
type Id int

// None is the zero Id, meaning "no element".
const None Id = 0

// Less orders ids the way they were pushed.
func (id Id) Less(other Id) bool { return id < other }

// Arena is a generic append-only store. It owns every element of type T
// produced while processing a set of source files, addressed by a dense,
// process-wide Id. A parallel sparse map records, for the first id pushed on
// behalf of each file, which FileId owns it — this lets any Id be traced
// back to its source file without storing a FileId per element.
type Arena[T any] struct {
	elems      []T
	fileStarts map[Id]FileId
}

// NewArena creates an empty arena.
func NewArena[T any]() *Arena[T] {
	return &Arena[T]{fileStarts: map[Id]FileId{}}
}

// Push appends an element and returns its new Id.
func (a *Arena[T]) Push(v T) Id {
	a.elems = append(a.elems, v)
	return Id(len(a.elems))
}

// BeginFile records that the next Push will be the first element owned by
// file. Call this once before lexing each file into the arena.
func (a *Arena[T]) BeginFile(file FileId) {
	a.fileStarts[Id(len(a.elems))+1] = file
}

// Get returns the element at id. It panics if id is None or out of range,
// matching the arena's invariant that every live Id is valid.
func (a *Arena[T]) Get(id Id) T {
	return a.elems[id-1]
}

// Set overwrites the element at id in place. Neither the lexer nor the
// preprocessor calls it: preprocessor output aliases arena tokens without
// modifying them.
func (a *Arena[T]) Set(id Id, v T) {
	a.elems[id-1] = v
}

// Len returns the number of elements pushed so far.
func (a *Arena[T]) Len() int { return len(a.elems) }

// Last returns the Id of the most recently pushed element, or None if empty.
func (a *Arena[T]) Last() Id {
	if len(a.elems) == 0 {
		return None
	}
	return Id(len(a.elems))
}

// FileOf walks back from id to the nearest recorded BeginFile boundary and
// returns the owning FileId. This is O(number of files), which is fine:
// files are few relative to arena elements.
func (a *Arena[T]) FileOf(id Id) FileId {
	var bestStart Id = 0
	var bestFile FileId = Invalid
	for start, file := range a.fileStarts {
		if start <= id && start > bestStart {
			bestStart = start
			bestFile = file
		}
	}
	return bestFile
}

// Span is either empty or a contiguous pair (Start, End) of ids, both known
// to lie within the same source file. The zero Span is empty.
type Span[T any] struct {
	Start, End Id
}

// IsEmpty reports whether the span carries no elements.
func (s Span[T]) IsEmpty() bool { return s.Start == None || s.End == None }

// NewSpan builds a span from start to end inclusive.
func NewSpan[T any](start, end Id) Span[T] {
	return Span[T]{Start: start, End: end}
}

// Join computes the hull of two spans. Both must lie in the same source
// file; the caller is responsible for that invariant (arenas do not carry
// enough information to check it cheaply for arbitrary T).
func (s Span[T]) Join(other Span[T]) Span[T] {
	switch {
	case s.IsEmpty():
		return other
	case other.IsEmpty():
		return s
	}
	start, end := s.Start, s.End
	if other.Start < start {
		start = other.Start
	}
	if other.End > end {
		end = other.End
	}
	return Span[T]{Start: start, End: end}
}

// Ids returns every id in the span, in order. It is used by small spans
// only (e.g. iterating the tokens of one argument); callers that need to
// iterate a whole file should not use this.
func (s Span[T]) Ids() []Id {
	if s.IsEmpty() {
		return nil
	}
	out := make([]Id, 0, int(s.End-s.Start)+1)
	for id := s.Start; id <= s.End; id++ {
		out = append(out, id)
	}
	return out
}

// Len returns the number of ids covered by the span.
func (s Span[T]) Len() int {
	if s.IsEmpty() {
		return 0
	}
	return int(s.End-s.Start) + 1
}
