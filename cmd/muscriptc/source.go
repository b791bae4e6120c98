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

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf16"

	"github.com/pkg/errors"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// readSource loads one .uc file from disk and decodes it to UTF-8,
// stripping and acting on whichever byte-order-mark (if any) it starts
// with. UnrealScript source has historically shipped in all three of
// plain UTF-8, UTF-8 with a BOM, and UTF-16 (the original Unreal editor's
// native save format), so a driver that only handled UTF-8 would reject a
// large fraction of real packages outright.
func readSource(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "reading %s", path)
	}

	switch {
	case bytes.HasPrefix(raw, bomUTF8):
		return string(raw[len(bomUTF8):]), nil

	case bytes.HasPrefix(raw, bomUTF16LE):
		return decodeUTF16(raw[len(bomUTF16LE):], false), nil

	case bytes.HasPrefix(raw, bomUTF16BE):
		return decodeUTF16(raw[len(bomUTF16BE):], true), nil

	default:
		return string(raw), nil
	}
}

func decodeUTF16(raw []byte, bigEndian bool) string {
	if len(raw)%2 != 0 {
		raw = raw[:len(raw)-1]
	}
	units := make([]uint16, len(raw)/2)
	for i := range units {
		hi, lo := raw[2*i], raw[2*i+1]
		if bigEndian {
			hi, lo = lo, hi
		}
		units[i] = uint16(hi) | uint16(lo)<<8
	}
	return string(utf16.Decode(units))
}

// packageNameFor infers the UnrealScript package name a file belongs to:
// explicit --package-name wins, otherwise the containing directory's base
// name, matching how the original Unreal build tool groups .uc files into
// packages by which directory they live under.
func packageNameFor(explicit, path string) string {
	if explicit != "" {
		return explicit
	}
	dir := filepath.Dir(path)
	name := filepath.Base(dir)
	if name == "." || name == string(filepath.Separator) {
		return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return name
}
