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

// Package mcpopts reads the MCP custom options that annotate services,
// methods and fields of an input protobuf. The options are declared in
// proto/mcp/options.proto; the same declarations are built here as an
// in-process descriptor so that the plugin does not depend on generated
// code for them.
//
// Options received from protoc are carried as unknown fields of the
// descriptorpb options messages, since the plugin's request is decoded
// without knowledge of the extensions. Each accessor therefore re-decodes
// the options message against a private registry holding the MCP
// extensions before reading them.
package mcpopts

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"

	log "github.com/golang/glog"
)

const (
	// OptionsProtoPath is the import path of the file declaring the options.
	OptionsProtoPath = "mcp/options.proto"
	// OptionsPackage is the protobuf package of the options.
	OptionsPackage = "mcp"
)

// Field numbers of the MCP extensions.
const (
	ServiceNameNumber        protoreflect.FieldNumber = 50001
	ServiceVersionNumber     protoreflect.FieldNumber = 50002
	ServiceDescriptionNumber protoreflect.FieldNumber = 50003
	ToolNameNumber           protoreflect.FieldNumber = 50011
	ToolDescriptionNumber    protoreflect.FieldNumber = 50012
	RequiredNumber           protoreflect.FieldNumber = 50021
)

var (
	// E_ServiceName is the (mcp.service_name) ServiceOptions extension.
	E_ServiceName protoreflect.ExtensionType
	// E_ServiceVersion is the (mcp.service_version) ServiceOptions extension.
	E_ServiceVersion protoreflect.ExtensionType
	// E_ServiceDescription is the (mcp.service_description) ServiceOptions
	// extension.
	E_ServiceDescription protoreflect.ExtensionType
	// E_ToolName is the (mcp.tool_name) MethodOptions extension.
	E_ToolName protoreflect.ExtensionType
	// E_ToolDescription is the (mcp.tool_description) MethodOptions extension.
	E_ToolDescription protoreflect.ExtensionType
	// E_Required is the (mcp.required) FieldOptions extension.
	E_Required protoreflect.ExtensionType

	// fileDesc is the descriptor of mcp/options.proto.
	fileDesc protoreflect.FileDescriptor
	// extTypes resolves the MCP extensions when re-decoding options. It is
	// deliberately not protoregistry.GlobalTypes, so that a binary which also
	// links generated code for mcp/options.proto does not hit a registration
	// conflict.
	extTypes = &protoregistry.Types{}
)

// optionsFile returns the FileDescriptorProto equivalent of
// proto/mcp/options.proto.
func optionsFile() *descriptorpb.FileDescriptorProto {
	ext := func(name string, num protoreflect.FieldNumber, typ descriptorpb.FieldDescriptorProto_Type, extendee string) *descriptorpb.FieldDescriptorProto {
		return &descriptorpb.FieldDescriptorProto{
			Name:     proto.String(name),
			Number:   proto.Int32(int32(num)),
			Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
			Type:     typ.Enum(),
			Extendee: proto.String(extendee),
		}
	}
	const (
		svcOpts   = ".google.protobuf.ServiceOptions"
		mthOpts   = ".google.protobuf.MethodOptions"
		fieldOpts = ".google.protobuf.FieldOptions"
		str       = descriptorpb.FieldDescriptorProto_TYPE_STRING
	)
	return &descriptorpb.FileDescriptorProto{
		Name:       proto.String(OptionsProtoPath),
		Package:    proto.String(OptionsPackage),
		Dependency: []string{"google/protobuf/descriptor.proto"},
		Syntax:     proto.String("proto2"),
		Extension: []*descriptorpb.FieldDescriptorProto{
			ext("service_name", ServiceNameNumber, str, svcOpts),
			ext("service_version", ServiceVersionNumber, str, svcOpts),
			ext("service_description", ServiceDescriptionNumber, str, svcOpts),
			ext("tool_name", ToolNameNumber, str, mthOpts),
			ext("tool_description", ToolDescriptionNumber, str, mthOpts),
			ext("required", RequiredNumber, descriptorpb.FieldDescriptorProto_TYPE_BOOL, fieldOpts),
		},
	}
}

func init() {
	fd, err := protodesc.NewFile(optionsFile(), protoregistry.GlobalFiles)
	if err != nil {
		panic(fmt.Sprintf("mcpopts: invalid options descriptor: %v", err))
	}
	fileDesc = fd

	mustExt := func(name protoreflect.Name) protoreflect.ExtensionType {
		xd := fd.Extensions().ByName(name)
		if xd == nil {
			panic(fmt.Sprintf("mcpopts: extension %s missing from options descriptor", name))
		}
		xt := dynamicpb.NewExtensionType(xd)
		if err := extTypes.RegisterExtension(xt); err != nil {
			panic(fmt.Sprintf("mcpopts: cannot register extension %s: %v", name, err))
		}
		return xt
	}
	E_ServiceName = mustExt("service_name")
	E_ServiceVersion = mustExt("service_version")
	E_ServiceDescription = mustExt("service_description")
	E_ToolName = mustExt("tool_name")
	E_ToolDescription = mustExt("tool_description")
	E_Required = mustExt("required")
}

// FileDescriptor returns the descriptor of mcp/options.proto.
func FileDescriptor() protoreflect.FileDescriptor {
	return fileDesc
}

// ServiceOptions holds the MCP options of a service. A nil member means
// that the option was not set; defaults are applied by the consumer.
type ServiceOptions struct {
	Name        *string
	Version     *string
	Description *string
}

// ToolOptions holds the MCP options of a method.
type ToolOptions struct {
	Name        *string
	Description *string
}

// FieldOptions holds the MCP options of a field.
type FieldOptions struct {
	Required *bool
}

// IsRequired reports whether the field was explicitly marked required.
func (f FieldOptions) IsRequired() bool {
	return f.Required != nil && *f.Required
}

// ForService returns the MCP options set on the service s.
func ForService(s *descriptorpb.ServiceDescriptorProto) ServiceOptions {
	var so ServiceOptions
	if s.GetOptions() == nil {
		return so
	}
	m := decode(s.GetOptions(), "service "+s.GetName())
	so.Name = stringExt(m, E_ServiceName)
	so.Version = stringExt(m, E_ServiceVersion)
	so.Description = stringExt(m, E_ServiceDescription)
	return so
}

// ForMethod returns the MCP options set on the method m.
func ForMethod(m *descriptorpb.MethodDescriptorProto) ToolOptions {
	var to ToolOptions
	if m.GetOptions() == nil {
		return to
	}
	dm := decode(m.GetOptions(), "method "+m.GetName())
	to.Name = stringExt(dm, E_ToolName)
	to.Description = stringExt(dm, E_ToolDescription)
	return to
}

// ForField returns the MCP options set on the field f.
func ForField(f *descriptorpb.FieldDescriptorProto) FieldOptions {
	var fo FieldOptions
	if f.GetOptions() == nil {
		return fo
	}
	m := decode(f.GetOptions(), "field "+f.GetName())
	if proto.HasExtension(m, E_Required) {
		if v, ok := proto.GetExtension(m, E_Required).(bool); ok {
			fo.Required = &v
		}
	}
	return fo
}

// stringExt returns the value of the string extension xt within m, or nil
// if it is not set.
func stringExt(m proto.Message, xt protoreflect.ExtensionType) *string {
	if !proto.HasExtension(m, xt) {
		return nil
	}
	v, ok := proto.GetExtension(m, xt).(string)
	if !ok {
		return nil
	}
	return &v
}

// decode returns a copy of the options message opts in which the MCP
// extensions are populated as known extension fields. If opts cannot be
// decoded, a warning naming owner is logged and the copy holds only the
// extensions that could be read before the malformed data.
func decode(opts proto.Message, owner string) proto.Message {
	out := opts.ProtoReflect().New().Interface()
	b, err := proto.MarshalOptions{AllowPartial: true}.Marshal(opts)
	if err != nil {
		log.Warningf("cannot read MCP options of %s: %v", owner, err)
		return out
	}
	if err := (proto.UnmarshalOptions{Resolver: extTypes, AllowPartial: true}).Unmarshal(b, out); err != nil {
		out = opts.ProtoReflect().New().Interface()
		n := salvage(b, out)
		log.Warningf("malformed MCP options on %s, using %d option(s) read before the error: %v", owner, n, err)
	}
	return out
}

// salvage reads MCP extensions from the wire-format options b into out,
// stopping at the first malformed field. It returns the number of
// extensions that were populated.
func salvage(b []byte, out proto.Message) int {
	var n int
	msgName := out.ProtoReflect().Descriptor().FullName()
	for len(b) > 0 {
		num, typ, tagLen := protowire.ConsumeTag(b)
		if tagLen < 0 {
			return n
		}
		b = b[tagLen:]

		xt, _ := extTypes.FindExtensionByNumber(msgName, num)
		var kind protoreflect.Kind
		if xt != nil {
			kind = xt.TypeDescriptor().Kind()
		}

		switch {
		case kind == protoreflect.StringKind && typ == protowire.BytesType:
			v, l := protowire.ConsumeBytes(b)
			if l < 0 {
				return n
			}
			proto.SetExtension(out, xt, string(v))
			b = b[l:]
			n++
		case kind == protoreflect.BoolKind && typ == protowire.VarintType:
			v, l := protowire.ConsumeVarint(b)
			if l < 0 {
				return n
			}
			proto.SetExtension(out, xt, protowire.DecodeBool(v))
			b = b[l:]
			n++
		default:
			l := protowire.ConsumeFieldValue(num, typ, b)
			if l < 0 {
				return n
			}
			b = b[l:]
		}
	}
	return n
}
