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

package partition

import "strings"

// Table is a case-insensitive, insertion-ordered name table. It plays the
// role gapil/semantic's sorted Symbols type plays for the AST: a small
// reusable container every partition namespace (consts, vars, functions,
// structs, enums, states) is built from. Unlike Symbols it is keyed by a
// single fixed string per entry rather than a Node interface, since every
// value stored here already carries its own declaring token.
type Table[T any] struct {
	order   []string // lowercased keys, insertion order
	entries map[string]T
	orig    map[string]string
}

func newTable[T any]() *Table[T] {
	return &Table[T]{entries: map[string]T{}, orig: map[string]string{}}
}

// Declare inserts name->value unless name already exists (case
// insensitively), in which case it reports false and leaves the table
// untouched: the caller is responsible for reporting the collision against
// the earlier declaration, which Declare does not have a diagnostic sink to
// do itself.
func (t *Table[T]) Declare(name string, value T) bool {
	key := strings.ToLower(name)
	if _, exists := t.entries[key]; exists {
		return false
	}
	t.entries[key] = value
	t.orig[key] = name
	t.order = append(t.order, key)
	return true
}

// Lookup finds a value by case-insensitive name.
func (t *Table[T]) Lookup(name string) (T, bool) {
	v, ok := t.entries[strings.ToLower(name)]
	return v, ok
}

// Names returns the originally-spelled names in declaration order.
func (t *Table[T]) Names() []string {
	names := make([]string, len(t.order))
	for i, k := range t.order {
		names[i] = t.orig[k]
	}
	return names
}

// Len returns the number of entries.
func (t *Table[T]) Len() int { return len(t.order) }

// Take removes and returns the entry for name, case insensitively, leaving
// its declaration-order bookkeeping (Names/Len) untouched so the table
// still reports the name as declared while it is borrowed. Pair with Put to
// guarantee reinsertion: see env's "borrow and return" scoped acquisition,
// used while a function's CST fragment is pulled out for analysis.
func (t *Table[T]) Take(name string) (T, bool) {
	key := strings.ToLower(name)
	v, ok := t.entries[key]
	if ok {
		delete(t.entries, key)
	}
	return v, ok
}

// Put reinserts a value previously removed by Take, under the same name.
func (t *Table[T]) Put(name string, value T) {
	t.entries[strings.ToLower(name)] = value
}

// Values returns the stored values in declaration order.
func (t *Table[T]) Values() []T {
	values := make([]T, len(t.order))
	for i, k := range t.order {
		values[i] = t.entries[k]
	}
	return values
}
