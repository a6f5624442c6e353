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

// Package testutil contains helpers for building descriptor fixtures and
// comparing generated output in tests.
package testutil

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/protomcp/protoc-gen-mcp/mcpopts"
)

// File returns a FileDescriptorProto with the supplied path and package,
// containing msgs as its top-level messages.
func File(path, pkg string, msgs ...*descriptorpb.DescriptorProto) *descriptorpb.FileDescriptorProto {
	f := &descriptorpb.FileDescriptorProto{
		Name:        proto.String(path),
		Syntax:      proto.String("proto3"),
		MessageType: msgs,
	}
	if pkg != "" {
		f.Package = proto.String(pkg)
	}
	return f
}

// WithServices appends svcs to the services of f and returns f.
func WithServices(f *descriptorpb.FileDescriptorProto, svcs ...*descriptorpb.ServiceDescriptorProto) *descriptorpb.FileDescriptorProto {
	f.Service = append(f.Service, svcs...)
	return f
}

// WithDeps appends deps to the dependencies of f and returns f.
func WithDeps(f *descriptorpb.FileDescriptorProto, deps ...string) *descriptorpb.FileDescriptorProto {
	f.Dependency = append(f.Dependency, deps...)
	return f
}

// Msg returns a message named name with the supplied fields.
func Msg(name string, fields ...*descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
	for i, f := range fields {
		if f.Number == nil {
			f.Number = proto.Int32(int32(i + 1))
		}
	}
	return &descriptorpb.DescriptorProto{
		Name:  proto.String(name),
		Field: fields,
	}
}

// Nest appends nested to the nested messages of m and returns m.
func Nest(m *descriptorpb.DescriptorProto, nested ...*descriptorpb.DescriptorProto) *descriptorpb.DescriptorProto {
	m.NestedType = append(m.NestedType, nested...)
	return m
}

// Field returns a singular field of the scalar type t.
func Field(name string, t descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:  proto.String(name),
		Label: descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:  t.Enum(),
	}
}

// MsgField returns a singular message field referencing typeName.
func MsgField(name, typeName string) *descriptorpb.FieldDescriptorProto {
	f := Field(name, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE)
	f.TypeName = proto.String(typeName)
	return f
}

// Repeated marks f as repeated and returns it.
func Repeated(f *descriptorpb.FieldDescriptorProto) *descriptorpb.FieldDescriptorProto {
	f.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
	return f
}

// Required sets the (mcp.required) option of f and returns it.
func Required(f *descriptorpb.FieldDescriptorProto) *descriptorpb.FieldDescriptorProto {
	if f.Options == nil {
		f.Options = &descriptorpb.FieldOptions{}
	}
	proto.SetExtension(f.Options, mcpopts.E_Required, true)
	return f
}

// Service returns a service named name with the supplied methods.
func Service(name string, methods ...*descriptorpb.MethodDescriptorProto) *descriptorpb.ServiceDescriptorProto {
	return &descriptorpb.ServiceDescriptorProto{
		Name:   proto.String(name),
		Method: methods,
	}
}

// ServiceWithOptions returns a service whose MCP options are set to the
// non-nil values supplied.
func ServiceWithOptions(name string, optName, optVersion, optDesc *string, methods ...*descriptorpb.MethodDescriptorProto) *descriptorpb.ServiceDescriptorProto {
	s := Service(name, methods...)
	s.Options = &descriptorpb.ServiceOptions{}
	if optName != nil {
		proto.SetExtension(s.Options, mcpopts.E_ServiceName, *optName)
	}
	if optVersion != nil {
		proto.SetExtension(s.Options, mcpopts.E_ServiceVersion, *optVersion)
	}
	if optDesc != nil {
		proto.SetExtension(s.Options, mcpopts.E_ServiceDescription, *optDesc)
	}
	return s
}

// Method returns a unary method named name.
func Method(name, input, output string) *descriptorpb.MethodDescriptorProto {
	return &descriptorpb.MethodDescriptorProto{
		Name:       proto.String(name),
		InputType:  proto.String(input),
		OutputType: proto.String(output),
	}
}

// ToolMethod returns a method whose (mcp.tool_name) and
// (mcp.tool_description) options are set to the non-nil values supplied.
func ToolMethod(name, input, output string, toolName, toolDesc *string) *descriptorpb.MethodDescriptorProto {
	m := Method(name, input, output)
	m.Options = &descriptorpb.MethodOptions{}
	if toolName != nil {
		proto.SetExtension(m.Options, mcpopts.E_ToolName, *toolName)
	}
	if toolDesc != nil {
		proto.SetExtension(m.Options, mcpopts.E_ToolDescription, *toolDesc)
	}
	return m
}

// HelloWorld returns the canonical Greeter example: helloworld/hello_service.proto
// declaring HelloRequest{name, required}, HelloReply{message} and a Greeter
// service with a SayHello method.
func HelloWorld() *descriptorpb.FileDescriptorProto {
	f := File("helloworld/hello_service.proto", "helloworld",
		Msg("HelloRequest", Required(Field("name", descriptorpb.FieldDescriptorProto_TYPE_STRING))),
		Msg("HelloReply", Field("message", descriptorpb.FieldDescriptorProto_TYPE_STRING)),
	)
	f.Options = &descriptorpb.FileOptions{GoPackage: proto.String("example.com/helloworld;helloworld")}
	return WithServices(f, Service("Greeter", Method("SayHello", ".helloworld.HelloRequest", ".helloworld.HelloReply")))
}
