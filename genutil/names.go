// Copyright 2019 Google Inc.
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

// Package genutil provides utility functions for generating Go source and
// writing generated output.
package genutil

import (
	"fmt"
	"runtime"
	"strings"
	"unicode"
)

// CallerName returns the name of the Go binary that is currently running.
func CallerName() string {
	// Find out the name of this binary so that it can be used for debug
	// reasons.
	_, currentCodeFile, _, ok := runtime.Caller(0)
	if !ok {
		// In the case that we cannot determine the current running binary's name
		// this is non-fatal, so return a default string.
		return "unknown - unable to determine calling binary name"
	}
	return currentCodeFile
}

// MakeNameUnique makes the name specified as an argument unique based on the names
// already defined within a particular context which are specified within the
// definedNames map. If the name has already been defined, an underscore is appended
// to the name until it is unique.
func MakeNameUnique(name string, definedNames map[string]bool) string {
	for {
		if _, nameUsed := definedNames[name]; !nameUsed {
			definedNames[name] = true
			return name
		}
		name = fmt.Sprintf("%s_", name)
	}
}

// CamelCase returns an exported Go identifier for the protobuf or JSON name
// s. Underscores, hyphens and dots separate words; the first letter of each
// word is upper-cased and the remainder left unchanged, such that
// "user_id" becomes "UserId" and "helloRequest" becomes "HelloRequest".
// Characters that are not valid in an identifier are dropped, and a name
// that would not start with a letter is prefixed with "X".
func CamelCase(s string) string {
	var b strings.Builder
	upper := true
	for _, r := range s {
		switch {
		case r == '_' || r == '-' || r == '.' || r == ' ':
			upper = true
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if upper {
				r = unicode.ToUpper(r)
				upper = false
			}
			b.WriteRune(r)
		}
	}
	id := b.String()
	if id == "" || !unicode.IsLetter([]rune(id)[0]) {
		id = "X" + id
	}
	return id
}
