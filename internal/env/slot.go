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

package env

// A namespace slot has three states: absent (never looked up — there is no
// map entry at all), errored (looked up, found nothing resolvable — a
// permanent `None`), or resolved (looked up, found — a permanent `Some`).
// Once a slot is errored or resolved it never changes: class namespace
// memoisation is monotone.
type slotState uint8

const (
	slotError slotState = iota
	slotResolved
)

type slot[T any] struct {
	state slotState
	value T
}
