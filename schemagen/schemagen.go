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

// Package schemagen maps protobuf message descriptors to JSON Schema
// objects describing their JSON shape.
package schemagen

import (
	"strings"

	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"google.golang.org/protobuf/types/descriptorpb"

	log "github.com/golang/glog"

	"github.com/protomcp/protoc-gen-mcp/mcpopts"
	"github.com/protomcp/protoc-gen-mcp/resolver"
)

// JSON Schema type names used in generated schemas.
const (
	ObjectType  = "object"
	ArrayType   = "array"
	StringType  = "string"
	IntegerType = "integer"
	NumberType  = "number"
	BooleanType = "boolean"
)

// fieldTypeMap maps a protobuf field type to the JSON Schema type of its
// JSON encoding. Types absent from the map are treated as objects.
var fieldTypeMap = map[descriptorpb.FieldDescriptorProto_Type]string{
	descriptorpb.FieldDescriptorProto_TYPE_DOUBLE:   NumberType,
	descriptorpb.FieldDescriptorProto_TYPE_FLOAT:    NumberType,
	descriptorpb.FieldDescriptorProto_TYPE_INT32:    IntegerType,
	descriptorpb.FieldDescriptorProto_TYPE_INT64:    IntegerType,
	descriptorpb.FieldDescriptorProto_TYPE_UINT32:   IntegerType,
	descriptorpb.FieldDescriptorProto_TYPE_UINT64:   IntegerType,
	descriptorpb.FieldDescriptorProto_TYPE_FIXED32:  IntegerType,
	descriptorpb.FieldDescriptorProto_TYPE_FIXED64:  IntegerType,
	descriptorpb.FieldDescriptorProto_TYPE_SFIXED32: IntegerType,
	descriptorpb.FieldDescriptorProto_TYPE_SFIXED64: IntegerType,
	descriptorpb.FieldDescriptorProto_TYPE_SINT32:   IntegerType,
	descriptorpb.FieldDescriptorProto_TYPE_SINT64:   IntegerType,
	descriptorpb.FieldDescriptorProto_TYPE_ENUM:     IntegerType,
	descriptorpb.FieldDescriptorProto_TYPE_BOOL:     BooleanType,
	descriptorpb.FieldDescriptorProto_TYPE_STRING:   StringType,
	descriptorpb.FieldDescriptorProto_TYPE_BYTES:    StringType,
	descriptorpb.FieldDescriptorProto_TYPE_MESSAGE:  ObjectType,
	descriptorpb.FieldDescriptorProto_TYPE_GROUP:    ObjectType,
}

// PrimitiveType returns the JSON Schema type of a field of type t.
func PrimitiveType(t descriptorpb.FieldDescriptorProto_Type) string {
	if s, ok := fieldTypeMap[t]; ok {
		return s
	}
	return ObjectType
}

// Object returns the opaque object schema, {"type":"object"}, used where the
// shape of a message cannot be determined.
func Object() *jsonschema.Schema {
	return &jsonschema.Schema{Type: ObjectType}
}

// Generator produces JSON Schemas for the messages of a file. Message
// references that are not resolved within the message hierarchy are looked
// up in Primary and then Files, in the order described by package resolver.
type Generator struct {
	// Primary is the file whose messages and services are being generated.
	Primary *descriptorpb.FileDescriptorProto
	// Files is the set of all known files, typically Primary followed by
	// its direct dependencies.
	Files []*descriptorpb.FileDescriptorProto
}

// TypeSchema returns the schema of the message named name, resolving it
// against primary and allFiles. It returns the opaque object schema if the
// message cannot be found.
func TypeSchema(name string, primary *descriptorpb.FileDescriptorProto, allFiles []*descriptorpb.FileDescriptorProto) *jsonschema.Schema {
	g := &Generator{Primary: primary, Files: allFiles}
	return g.TypeSchema(name)
}

// TypeSchema returns the schema of the message named name. A leading dot,
// denoting a fully-qualified name, is removed prior to lookup.
func (g *Generator) TypeSchema(name string) *jsonschema.Schema {
	name = strings.TrimPrefix(name, ".")
	m := resolver.FindMessage(name, g.Primary, g.Files)
	if m == nil {
		log.V(1).Infof("cannot resolve type %s in %s, using an opaque object schema", name, g.Primary.GetName())
		return Object()
	}
	return g.MessageSchema(m, nil)
}

// MessageSchema returns the schema of the message m. parent, which may be
// nil, is the message in whose scope m was referenced; its nested messages
// are candidates when resolving the message fields of m.
func (g *Generator) MessageSchema(m, parent *descriptorpb.DescriptorProto) *jsonschema.Schema {
	return g.messageSchema(m, parent, map[*descriptorpb.DescriptorProto]bool{})
}

// messageSchema implements MessageSchema. inPath holds the messages whose
// schemas are being built by the callers of this invocation; a reference to
// one of them is recursive and is emitted as the opaque object schema.
func (g *Generator) messageSchema(m, parent *descriptorpb.DescriptorProto, inPath map[*descriptorpb.DescriptorProto]bool) *jsonschema.Schema {
	inPath[m] = true
	defer delete(inPath, m)

	s := &jsonschema.Schema{
		Type:       ObjectType,
		Properties: orderedmap.New[string, *jsonschema.Schema](),
	}
	for _, f := range m.GetField() {
		fs := g.fieldSchema(f, m, parent, inPath)
		if f.GetLabel() == descriptorpb.FieldDescriptorProto_LABEL_REPEATED {
			fs = &jsonschema.Schema{Type: ArrayType, Items: fs}
		}
		s.Properties.Set(f.GetName(), fs)
		if mcpopts.ForField(f).IsRequired() {
			s.Required = append(s.Required, f.GetName())
		}
	}
	return s
}

// fieldSchema returns the schema of a single value of the field f, which is
// declared in the message m.
func (g *Generator) fieldSchema(f *descriptorpb.FieldDescriptorProto, m, parent *descriptorpb.DescriptorProto, inPath map[*descriptorpb.DescriptorProto]bool) *jsonschema.Schema {
	if f.GetType() != descriptorpb.FieldDescriptorProto_TYPE_MESSAGE {
		return &jsonschema.Schema{Type: PrimitiveType(f.GetType())}
	}

	target := g.resolveField(f.GetTypeName(), m, parent)
	switch {
	case target == nil:
		log.V(1).Infof("cannot resolve type %s of field %s.%s, using an opaque object schema", f.GetTypeName(), m.GetName(), f.GetName())
		return Object()
	case inPath[target]:
		log.Warningf("field %s.%s recursively references %s, using an opaque object schema", m.GetName(), f.GetName(), target.GetName())
		return Object()
	}
	return g.messageSchema(target, m, inPath)
}

// resolveField finds the message referenced by typeName from within m. The
// nested messages of m are searched first, then those of parent, and then
// the known files.
func (g *Generator) resolveField(typeName string, m, parent *descriptorpb.DescriptorProto) *descriptorpb.DescriptorProto {
	local := resolver.LocalName(typeName)
	if n := directChild(local, m); n != nil {
		return n
	}
	if parent != nil {
		if n := directChild(local, parent); n != nil {
			return n
		}
	}
	return resolver.FindMessage(typeName, g.Primary, g.Files)
}

// directChild returns the message directly nested within m named local.
func directChild(local string, m *descriptorpb.DescriptorProto) *descriptorpb.DescriptorProto {
	for _, n := range m.GetNestedType() {
		if n.GetName() == local {
			return n
		}
	}
	return nil
}
