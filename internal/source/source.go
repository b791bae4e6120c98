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

// Package source owns the set of source files being compiled, together with
// the name interner used for case-insensitive identifier lookup throughout
// the rest of the compiler.
package source

import "fmt"

// FileId identifies one source file in a FileSet. It is a dense, stable,
// append-only index: zero is never a valid id.
type FileId int

// Invalid is the zero FileId; no file ever has this id.
const Invalid FileId = 0

// File is one source file making up part of a package.
type File struct {
	id       FileId
	Package  string // the UnrealScript package this file contributes to
	Name     string // display filename, e.g. "Actor.uc"
	Path     string // full path on disk, as given by the driver
	Text     string // decoded UTF-8 source text
	lineEnds []int  // byte offset of each '\n', used for line/column lookup
}

// Id returns the file's stable identifier.
func (f *File) Id() FileId { return f.id }

// Position returns the 1-based line and column for a byte offset into the
// file's text. It is intended for diagnostic rendering only, not a hot
// path.
func (f *File) Position(offset int) (line, column int) {
	line = 1 + search(f.lineEnds, offset)
	lineStart := 0
	if line > 1 {
		lineStart = f.lineEnds[line-2] + 1
	}
	column = offset - lineStart + 1
	return line, column
}

// search returns the number of elements of ends that are < offset.
func search(ends []int, offset int) int {
	lo, hi := 0, len(ends)
	for lo < hi {
		mid := (lo + hi) / 2
		if ends[mid] < offset {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// FileSet is an append-only ordered sequence of source files.
type FileSet struct {
	files []*File
}

// Add appends a new file to the set and returns its id. Paths and names are
// stored as given; no normalisation or deduplication is performed here,
// that is the driver's job.
func (fs *FileSet) Add(pkg, name, path, text string) FileId {
	f := &File{
		Package: pkg,
		Name:    name,
		Path:    path,
		Text:    text,
	}
	for i, c := range text {
		if c == '\n' {
			f.lineEnds = append(f.lineEnds, i)
		}
	}
	fs.files = append(fs.files, f)
	f.id = FileId(len(fs.files))
	return f.id
}

// File returns the file for id, or nil if id is not a valid file in this set.
func (fs *FileSet) File(id FileId) *File {
	if id <= Invalid || int(id) > len(fs.files) {
		return nil
	}
	return fs.files[id-1]
}

// Len returns the number of files in the set.
func (fs *FileSet) Len() int { return len(fs.files) }

// All iterates over every file in append order.
func (fs *FileSet) All() []*File { return fs.files }

func (id FileId) String() string {
	if id == Invalid {
		return "<invalid file>"
	}
	return fmt.Sprintf("file#%d", int(id))
}
