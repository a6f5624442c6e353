// Copyright 2022 Google Inc.
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

// Package igenutil contains internal generation utilities.
package igenutil

import (
	"strconv"
	"strings"
	"text/template"

	"github.com/protomcp/protoc-gen-mcp/genutil"
)

var (
	// TemplateHelperFunctions specifies a set of functions that are supplied as
	// helpers to the templates that are used to generate Go source.
	TemplateHelperFunctions = template.FuncMap{
		"toLower":   strings.ToLower,
		"camelCase": genutil.CamelCase,
		// quote renders s as a Go string literal.
		"quote": strconv.Quote,
	}
)

// MustMakeTemplate generates a template.Template for a particular named source
// template, with TemplateHelperFunctions available to it. It panics if the
// template cannot be parsed.
func MustMakeTemplate(name, src string) *template.Template {
	return template.Must(template.New(name).Funcs(TemplateHelperFunctions).Parse(src))
}
