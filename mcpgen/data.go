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

package mcpgen

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"google.golang.org/protobuf/types/descriptorpb"

	log "github.com/golang/glog"

	"github.com/protomcp/protoc-gen-mcp/genutil"
	"github.com/protomcp/protoc-gen-mcp/manifest"
	"github.com/protomcp/protoc-gen-mcp/mcpopts"
	"github.com/protomcp/protoc-gen-mcp/resolver"
	"github.com/protomcp/protoc-gen-mcp/schemagen"
)

// ServiceData is the input to the templates that generate the Go sources
// of a single service.
type ServiceData struct {
	Name      string // Name is the name of the service in the proto file.
	GoName    string // GoName is the service name used by the generated gRPC stubs.
	Package   string // Package is the proto package of the file declaring the service.
	FullName  string // FullName is the fully-qualified proto name of the service.
	ProtoFile string // ProtoFile is the path of the file declaring the service.
	Caller    string // Caller is the name of the generator.

	GRPCPort   int    // GRPCPort is the port on which the gRPC server listens.
	MCPName    string // MCPName is the name the MCP server reports to clients.
	MCPVersion string // MCPVersion is the version the MCP server reports to clients.

	// Module is the import alias of the Go package holding the gRPC stubs
	// of the service.
	Module string
	// Imports are the Go packages of the service's own file and of every
	// message type used by its unary methods, in first-seen order.
	Imports []*Import
	// ProxyImports is the subset of Imports referenced by the MCP server,
	// which uses only the service's stubs and the request types.
	ProxyImports []*Import
	// Tools are the tools of the service's unary methods.
	Tools []*ToolData
	// Streaming names the methods that are not exposed as tools because
	// they stream requests or responses.
	Streaming []string
}

// Import is a Go import of a generated protobuf package.
type Import struct {
	Alias string
	Path  string
}

// ToolData describes a tool for the code templates.
type ToolData struct {
	Name        string // Name is the name of the tool.
	Description string // Description is the description of the tool.
	Method      string // Method is the name of the RPC in the proto file.
	GoMethod    string // GoMethod is the name of the RPC in the generated stubs.
	InputType   string // InputType is the qualified Go type of the request.
	OutputType  string // OutputType is the qualified Go type of the response.
	ArgsType    string // ArgsType is the name of the generated arguments struct.
	InputSchema string // InputSchema is the compact JSON input schema.
	Params      []*Param
}

// Param is a single top-level argument of a tool.
type Param struct {
	Name     string // Name is the JSON property name.
	GoName   string // GoName is the name of the field in the arguments struct.
	GoType   string // GoType is the Go type of the field.
	Required bool   // Required indicates that the parameter must be supplied.
}

// goTypes maps a JSON Schema type to the Go type of a tool parameter.
var goTypes = map[string]string{
	schemagen.StringType:  "string",
	schemagen.IntegerType: "int64",
	schemagen.NumberType:  "float64",
	schemagen.BooleanType: "bool",
	schemagen.ObjectType:  "map[string]any",
	schemagen.ArrayType:   "[]any",
}

// GoType returns the Go type of a tool parameter whose JSON Schema type is
// t. Unknown types map to string.
func GoType(t string) string {
	if g, ok := goTypes[t]; ok {
		return g
	}
	return "string"
}

// Params returns the parameters of a tool whose input schema is s: one per
// top-level property, in property order.
func Params(s *jsonschema.Schema) []*Param {
	if s == nil || s.Properties == nil {
		return nil
	}
	required := map[string]bool{}
	for _, r := range s.Required {
		required[r] = true
	}
	names := map[string]bool{}
	var params []*Param
	for p := s.Properties.Oldest(); p != nil; p = p.Next() {
		var t string
		if p.Value != nil {
			t = p.Value.Type
		}
		params = append(params, &Param{
			Name:     p.Key,
			GoName:   genutil.MakeNameUnique(genutil.CamelCase(p.Key), names),
			GoType:   GoType(t),
			Required: required[p.Key],
		})
	}
	return params
}

// moduleSet accumulates the imports of a generated file, deduplicated by
// import path in first-seen order.
type moduleSet struct {
	prefix  string
	byPath  map[string]*Import
	aliases map[string]bool
	imports []*Import
}

func newModuleSet(prefix string) *moduleSet {
	return &moduleSet{
		prefix:  prefix,
		byPath:  map[string]*Import{},
		aliases: map[string]bool{},
	}
}

// add records the Go package of f and returns its import alias.
func (ms *moduleSet) add(f *descriptorpb.FileDescriptorProto) string {
	path := resolver.GoImportPath(f, ms.prefix)
	if i, ok := ms.byPath[path]; ok {
		return i.Alias
	}
	i := &Import{
		Alias: genutil.MakeNameUnique(resolver.ModuleName(f), ms.aliases),
		Path:  path,
	}
	ms.byPath[path] = i
	ms.imports = append(ms.imports, i)
	return i.Alias
}

// goType returns the import alias of the Go package defining the message
// named typeName, and the qualified Go type of the message, recording the
// package in ms.
func (ms *moduleSet) goType(typeName string, primary *descriptorpb.FileDescriptorProto, allFiles []*descriptorpb.FileDescriptorProto) (string, string) {
	owner := resolver.FindOwningFile(typeName, primary, allFiles)
	if owner == nil {
		log.V(1).Infof("cannot resolve the file defining %s, assuming %s", typeName, resolver.FindOwningModule(typeName, primary, allFiles))
		owner = primary
	}
	alias := ms.add(owner)
	return alias, alias + "." + goMessageName(typeName, owner)
}

// subset returns the imports of ms whose alias is in aliases, in the order
// of ms.
func (ms *moduleSet) subset(aliases map[string]bool) []*Import {
	var imports []*Import
	for _, i := range ms.imports {
		if aliases[i.Alias] {
			imports = append(imports, i)
		}
	}
	return imports
}

// goMessageName returns the name of the Go type generated for the message
// typeName, defined in owner. Nested messages are joined with underscores.
// In a file without a package every component of typeName is a message.
func goMessageName(typeName string, owner *descriptorpb.FileDescriptorProto) string {
	n := strings.TrimPrefix(typeName, ".")
	switch pkg := owner.GetPackage(); {
	case pkg == "":
	case strings.HasPrefix(n, pkg+"."):
		n = strings.TrimPrefix(n, pkg+".")
	default:
		n = resolver.LocalName(n)
	}
	parts := strings.Split(n, ".")
	for i, p := range parts {
		parts[i] = genutil.CamelCase(p)
	}
	return strings.Join(parts, "_")
}

// newServiceData returns the template input for the service at index idx of
// file.
func newServiceData(file *descriptorpb.FileDescriptorProto, allFiles []*descriptorpb.FileDescriptorProto, idx int, cfg Config) (*ServiceData, error) {
	svc := file.GetService()[idx]
	sd := &ServiceData{
		Name:       svc.GetName(),
		GoName:     genutil.CamelCase(svc.GetName()),
		Package:    file.GetPackage(),
		FullName:   svc.GetName(),
		ProtoFile:  file.GetName(),
		Caller:     cfg.Caller,
		GRPCPort:   cfg.GRPCPort + idx,
		MCPName:    file.GetPackage(),
		MCPVersion: manifest.DefaultVersion,
	}
	if sd.Package != "" {
		sd.FullName = sd.Package + "." + svc.GetName()
	}
	if sd.Caller == "" {
		sd.Caller = genutil.CallerName()
	}
	if sd.MCPName == "" {
		sd.MCPName = resolver.FileStem(file)
	}
	so := mcpopts.ForService(svc)
	if so.Name != nil && *so.Name != "" {
		sd.MCPName = *so.Name
	}
	if so.Version != nil && *so.Version != "" {
		sd.MCPVersion = *so.Version
	}

	ms := newModuleSet(cfg.GoImportPrefix)
	sd.Module = ms.add(file)
	proxyAliases := map[string]bool{sd.Module: true}

	argTypes := map[string]bool{}
	methods := svc.GetMethod()
	for i, t := range manifest.ServiceTools(svc, file, allFiles) {
		m := methods[i]
		if m.GetClientStreaming() || m.GetServerStreaming() {
			log.Warningf("%s.%s is a streaming method, no tool is generated for it", sd.FullName, m.GetName())
			sd.Streaming = append(sd.Streaming, m.GetName())
			continue
		}
		schema, err := json.Marshal(t.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("cannot marshal input schema of %s: %w", t.Name, err)
		}
		goMethod := genutil.CamelCase(m.GetName())
		inAlias, inType := ms.goType(t.InputType, file, allFiles)
		_, outType := ms.goType(t.OutputType, file, allFiles)
		proxyAliases[inAlias] = true
		sd.Tools = append(sd.Tools, &ToolData{
			Name:        t.Name,
			Description: t.Description,
			Method:      m.GetName(),
			GoMethod:    goMethod,
			InputType:   inType,
			OutputType:  outType,
			ArgsType:    genutil.MakeNameUnique(goMethod+"Args", argTypes),
			InputSchema: string(schema),
			Params:      Params(t.InputSchema),
		})
	}
	sd.Imports = ms.imports
	sd.ProxyImports = ms.subset(proxyAliases)
	return sd, nil
}
