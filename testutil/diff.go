// Copyright 2025 Google Inc.
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

package testutil

import (
	"encoding/json"
	"fmt"

	"github.com/google/go-cmp/cmp"
	"github.com/pmezard/go-difflib/difflib"
)

// GenerateUnifiedDiff takes two strings and generates a diff that can be
// shown to the user in a test error message.
func GenerateUnifiedDiff(want, got string) (string, error) {
	diffl := difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  3,
		Eol:      "\n",
	}
	return difflib.GetUnifiedDiffString(diffl)
}

// JSONDiff returns a diff between the JSON documents want and got, ignoring
// formatting and object key order. It returns an empty string if the
// documents are equal, and a description of the problem if either is not
// valid JSON.
func JSONDiff(want, got []byte) string {
	var w, g interface{}
	if err := json.Unmarshal(want, &w); err != nil {
		return fmt.Sprintf("invalid want JSON %s: %v", want, err)
	}
	if err := json.Unmarshal(got, &g); err != nil {
		return fmt.Sprintf("invalid got JSON %s: %v", got, err)
	}
	return cmp.Diff(w, g)
}

// MustJSON marshals v to JSON, panicking on error. It is intended for use
// with values whose marshalling cannot fail, such as generated schemas.
func MustJSON(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("cannot marshal %v to JSON: %v", v, err))
	}
	return b
}
