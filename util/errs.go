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

// Package util contains helpers shared by the generator packages.
package util

import (
	"strings"
)

// Errors is a slice of error. It is used to accumulate the failures of a
// generation run that processes several files, such that all of them are
// reported rather than just the first.
type Errors []error

// Error implements the error#Error method.
func (e Errors) Error() string {
	return ToString([]error(e))
}

// String implements the stringer#String method.
func (e Errors) String() string {
	return e.Error()
}

// Unwrap returns the wrapped errors so that errors.Is and errors.As can
// inspect each of them.
func (e Errors) Unwrap() []error {
	return []error(e)
}

// AppendErr appends err to errors if it is not nil and returns the result.
func AppendErr(errors Errors, err error) Errors {
	if err == nil {
		return errors
	}
	return append(errors, err)
}

// ErrOrNil returns nil if errs is empty, and errs otherwise. It avoids
// returning a typed-nil Errors through an error interface.
func (e Errors) ErrOrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// ToString returns a string representation of errors, skipping nil entries.
func ToString(errors []error) string {
	var msgs []string
	for _, e := range errors {
		if e == nil {
			continue
		}
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, ", ")
}
