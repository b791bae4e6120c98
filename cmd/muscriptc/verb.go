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
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// Action is one subcommand's behaviour: bind its own flags onto fs, then
// run against whatever positional arguments remain after flag.Parse.
type Action interface {
	Flags(fs *flag.FlagSet)
	Run(ctx context.Context, files []string) error
}

// verb pairs a subcommand name with the Action that implements it, the
// same split core/app's Verb/Action draws between "what the dispatcher
// needs to find this command" and "what the command itself does".
type verb struct {
	name      string
	shortHelp string
	action    Action
}

var verbs []*verb

// addVerb registers a subcommand. Called from each action file's init.
func addVerb(name, shortHelp string, action Action) {
	for _, v := range verbs {
		if v.name == name {
			panic(fmt.Sprintf("duplicate verb %q", name))
		}
	}
	verbs = append(verbs, &verb{name: name, shortHelp: shortHelp, action: action})
}

func findVerb(name string) *verb {
	for _, v := range verbs {
		if v.name == name {
			return v
		}
	}
	return nil
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: muscriptc <verb> [flags] <file.uc>...")
	fmt.Fprintln(os.Stderr, "verbs:")
	for _, v := range verbs {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", v.name, v.shortHelp)
	}
}

// invoke parses args[0] as a verb name and the rest as that verb's own
// flags plus positional source files.
func invoke(ctx context.Context, args []string) error {
	if len(args) < 1 {
		usage()
		return errors.New("missing verb")
	}
	v := findVerb(args[0])
	if v == nil {
		usage()
		return errors.Errorf("unknown verb %q", args[0])
	}

	fs := flag.NewFlagSet(v.name, flag.ExitOnError)
	v.action.Flags(fs)
	if err := fs.Parse(args[1:]); err != nil {
		return errors.Wrapf(err, "parsing flags for %q", v.name)
	}
	if fs.NArg() == 0 {
		return errors.Errorf("%s: no source files given", v.name)
	}
	return v.action.Run(ctx, fs.Args())
}
