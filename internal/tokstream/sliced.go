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

package tokstream

import "github.com/muscript-lang/muscript/internal/source"

// Slice is one entry of a Sliced stream. A non-empty slice covers the
// inclusive arena range [Start, End]; an empty slice carries no tokens but
// remembers Start as the "source" token for diagnostics (the `FailedExp`
// synthesised when reading it).
type Slice struct {
	Start, End source.Id
	Empty      bool
}

// Len returns the number of underlying tokens the slice covers (zero for an
// empty slice).
func (s Slice) Len() int {
	if s.Empty {
		return 0
	}
	return int(s.End-s.Start) + 1
}

// Sliced is an ordered sequence of Slices, aliasing the original token
// arena without copying or mutating it: preprocessor expansion never
// mutates the underlying token arena.
type Sliced struct {
	slices []Slice
}

// NewSliced creates an empty builder.
func NewSliced() *Sliced { return &Sliced{} }

// PushSlice appends slice unconditionally, with no coalescing.
func (s *Sliced) PushSlice(slice Slice) {
	s.slices = append(s.slices, slice)
}

// PushToken appends a single token id, coalescing it onto the previous
// slice when id is that slice's immediate successor (End+1). This is how
// straight-line code accumulates into one contiguous slice even though it
// is pushed one token at a time by the preprocessor's main loop.
func (s *Sliced) PushToken(id source.Id) {
	if n := len(s.slices); n > 0 {
		last := &s.slices[n-1]
		if !last.Empty && last.End+1 == id {
			last.End = id
			return
		}
	}
	s.slices = append(s.slices, Slice{Start: id, End: id})
}

// PushEmpty appends an empty slice carrying source as its diagnostic
// anchor.
func (s *Sliced) PushEmpty(source source.Id) {
	s.slices = append(s.slices, Slice{Start: source, End: source, Empty: true})
}

// Slices exposes the built slice list; NewReader copies it to read the
// stream.
func (s *Sliced) Slices() []Slice { return s.slices }

// Len reports the number of slices (not underlying tokens).
func (s *Sliced) Len() int { return len(s.slices) }

// IsEmpty reports whether no slices were ever pushed.
func (s *Sliced) IsEmpty() bool { return len(s.slices) == 0 }

// HasContent reports whether the stream contains at least one non-empty
// slice; used to evaluate an `if` condition's truthiness, which asks
// whether at least one real token resulted from expanding the condition.
func (s *Sliced) HasContent() bool {
	for _, sl := range s.slices {
		if !sl.Empty {
			return true
		}
	}
	return false
}
