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

// Package resolver locates message descriptors, and the files that define
// them, across the set of files known to a generation run.
//
// Resolution matches on the local (last dot-separated) segment of a type
// name only; package qualification is not used. The order in which files
// and scopes are searched is therefore the disambiguation rule:
//
//  1. the top-level messages of the primary file;
//  2. the nested messages of the primary file, in preorder;
//  3. for each of the other known files, in the order supplied, its
//     top-level messages followed by its nested messages in preorder.
//
// The first match wins. Two messages with the same local name in different
// files are not an error.
package resolver

import (
	"path"
	"strings"
	"unicode"

	"google.golang.org/protobuf/types/descriptorpb"
)

// ModuleSuffix is appended to a file's stem to form its module name.
const ModuleSuffix = "pb"

// LocalName returns the last dot-separated segment of the type name n,
// e.g. ".helloworld.HelloRequest" -> "HelloRequest".
func LocalName(n string) string {
	if i := strings.LastIndex(n, "."); i >= 0 {
		return n[i+1:]
	}
	return n
}

// FindMessage returns the descriptor of the message named name, searching
// primary and then allFiles in the order described in the package
// documentation. It returns nil if no file defines a matching message.
func FindMessage(name string, primary *descriptorpb.FileDescriptorProto, allFiles []*descriptorpb.FileDescriptorProto) *descriptorpb.DescriptorProto {
	m, _ := find(name, primary, allFiles)
	return m
}

// FindOwningFile returns the file that defines the message named name, using
// the same search as FindMessage. It returns nil if no file matches.
func FindOwningFile(name string, primary *descriptorpb.FileDescriptorProto, allFiles []*descriptorpb.FileDescriptorProto) *descriptorpb.FileDescriptorProto {
	_, f := find(name, primary, allFiles)
	return f
}

// FindOwningModule returns the module name of the file that defines the
// message named name. If no file defines it, the module name of primary is
// returned, such that callers always have an identifier with which to
// construct references in generated code.
func FindOwningModule(name string, primary *descriptorpb.FileDescriptorProto, allFiles []*descriptorpb.FileDescriptorProto) string {
	if f := FindOwningFile(name, primary, allFiles); f != nil {
		return ModuleName(f)
	}
	return ModuleName(primary)
}

// find implements the search shared by FindMessage and FindOwningFile.
func find(name string, primary *descriptorpb.FileDescriptorProto, allFiles []*descriptorpb.FileDescriptorProto) (*descriptorpb.DescriptorProto, *descriptorpb.FileDescriptorProto) {
	local := LocalName(name)
	if primary != nil {
		if m := findInFile(local, primary); m != nil {
			return m, primary
		}
	}
	for _, f := range allFiles {
		if f == nil {
			continue
		}
		if m := findInFile(local, f); m != nil {
			return m, f
		}
	}
	return nil, nil
}

// findInFile searches the top-level messages of f for local, followed by the
// nested messages of each top-level message.
func findInFile(local string, f *descriptorpb.FileDescriptorProto) *descriptorpb.DescriptorProto {
	for _, m := range f.GetMessageType() {
		if m.GetName() == local {
			return m
		}
	}
	for _, m := range f.GetMessageType() {
		if n := FindNested(local, m); n != nil {
			return n
		}
	}
	return nil
}

// FindNested searches the messages nested within m, at any depth, for one
// whose name is local. The search is a preorder traversal: a nested message
// is checked before its own children, and its children before its next
// sibling. m itself is not a candidate.
func FindNested(local string, m *descriptorpb.DescriptorProto) *descriptorpb.DescriptorProto {
	stack := pushReversed(nil, m.GetNestedType())
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.GetName() == local {
			return n
		}
		stack = pushReversed(stack, n.GetNestedType())
	}
	return nil
}

// pushReversed pushes ms onto stack such that ms[0] is popped first.
func pushReversed(stack, ms []*descriptorpb.DescriptorProto) []*descriptorpb.DescriptorProto {
	for i := len(ms) - 1; i >= 0; i-- {
		stack = append(stack, ms[i])
	}
	return stack
}

// FileStem returns the base name of the file's path without its extension,
// e.g. "helloworld/hello_service.proto" -> "hello_service".
func FileStem(f *descriptorpb.FileDescriptorProto) string {
	base := path.Base(f.GetName())
	return strings.TrimSuffix(base, path.Ext(base))
}

// ModuleName returns the name by which generated code refers to the
// definitions of the file f: the file's stem, reduced to a valid Go
// identifier, followed by ModuleSuffix. For example,
// "helloworld/hello-service.proto" is referred to as "hello_servicepb".
func ModuleName(f *descriptorpb.FileDescriptorProto) string {
	var b strings.Builder
	for _, r := range FileStem(f) {
		switch {
		case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune('_')
		}
	}
	id := b.String()
	if id == "" || unicode.IsDigit(rune(id[0])) {
		id = "x" + id
	}
	return id + ModuleSuffix
}

// GoImportPath returns the import path of the Go package generated for f.
// The go_package file option is used when set, with any ";name" suffix
// removed. Otherwise, the directory of the file's path is appended to
// prefix.
func GoImportPath(f *descriptorpb.FileDescriptorProto, prefix string) string {
	if gp := f.GetOptions().GetGoPackage(); gp != "" {
		if i := strings.Index(gp, ";"); i >= 0 {
			gp = gp[:i]
		}
		return gp
	}
	dir := path.Dir(f.GetName())
	if dir == "." {
		dir = ""
	}
	switch {
	case prefix == "":
		return dir
	case dir == "":
		return prefix
	}
	return prefix + "/" + dir
}
