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

import "strings"

// Name is an interned, case-insensitive identifier. UnrealScript treats
// identifiers as case-insensitive for lookup purposes but preserves the
// casing of the first declaration for diagnostics, so the interner keeps
// both: a canonical lowercase key used for all map lookups, and the text of
// the first spelling seen.
type Name int

// NoName is the zero Name.
const NoName Name = 0

// Interner deduplicates identifier spellings by case-insensitive equality.
type Interner struct {
	byKey    map[string]Name
	spelling []string // spelling[n-1] is Name(n)'s first spelling; NoName has no entry
}

// NewInterner creates an empty interner.
func NewInterner() *Interner {
	return &Interner{byKey: map[string]Name{}}
}

// Intern returns the Name for text, creating a new entry the first time a
// given case-insensitive spelling is seen. Subsequent calls with a
// differently-cased spelling of the same identifier return the same Name.
func (in *Interner) Intern(text string) Name {
	key := strings.ToLower(text)
	if n, ok := in.byKey[key]; ok {
		return n
	}
	in.spelling = append(in.spelling, text)
	n := Name(len(in.spelling))
	in.byKey[key] = n
	return n
}

// Lookup returns the Name already interned for text, without creating one.
func (in *Interner) Lookup(text string) (Name, bool) {
	n, ok := in.byKey[strings.ToLower(text)]
	return n, ok
}

// Text returns the first spelling seen for n.
func (in *Interner) Text(n Name) string {
	if n == NoName {
		return ""
	}
	return in.spelling[n-1]
}

// Key returns the canonical lowercase key for n, suitable as a map key
// wherever case-insensitive identity (rather than original spelling) is
// needed directly from a string rather than a Name.
func (in *Interner) Key(n Name) string {
	return strings.ToLower(in.Text(n))
}

// Equal reports whether two Names denote the same case-insensitive
// identifier. Since Names are already deduplicated by Intern, this is just
// integer equality; the method exists so call sites read as an identity
// comparison rather than an implementation detail.
func (a Name) Equal(b Name) bool { return a == b }
