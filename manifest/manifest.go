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

// Package manifest builds the MCP tool manifest describing the services of
// a protobuf file.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/protomcp/protoc-gen-mcp/mcpopts"
	"github.com/protomcp/protoc-gen-mcp/resolver"
	"github.com/protomcp/protoc-gen-mcp/schemagen"
)

const (
	// MCPVersion is the MCP protocol revision that manifests declare.
	MCPVersion = "2024-11-05"
	// DefaultVersion is the manifest version used when none is set.
	DefaultVersion = "1.0.0"
	// StdioTransport is the transport of the generated MCP server.
	StdioTransport = "stdio"
	// FileSuffix is appended to a proto file's path to name its manifest.
	FileSuffix = ".mcp.json"
)

// Manifest is the MCP manifest of a protobuf file.
type Manifest struct {
	MCPVersion  string  `json:"mcpVersion"`
	Name        string  `json:"name"`
	Version     string  `json:"version"`
	Description string  `json:"description"`
	Server      Server  `json:"server"`
	Tools       []*Tool `json:"tools,omitempty"`
}

// Server describes how an MCP client connects to the generated server.
type Server struct {
	Transport Transport `json:"transport"`
}

// Transport is the transport of a Server.
type Transport struct {
	Type string `json:"type"`
}

// Tool is a single MCP tool, corresponding to one RPC method.
type Tool struct {
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	InputSchema  *jsonschema.Schema `json:"inputSchema"`
	OutputSchema *jsonschema.Schema `json:"outputSchema"`

	// Method is the name of the RPC method that the tool invokes.
	Method string `json:"-"`
	// InputType and OutputType are the type names of the method's request
	// and response messages, as they appear in the method descriptor.
	InputType  string `json:"-"`
	OutputType string `json:"-"`
}

// FileName returns the name of the manifest generated for the proto file at
// path.
func FileName(path string) string {
	return path + FileSuffix
}

// Build returns the manifest of file, resolving message types against
// allFiles. It returns nil if file declares no services.
//
// The manifest's name, version and description default to the file's
// package (or file stem), DefaultVersion, and a reference to the file's
// path. When the file declares exactly one service, any of these that are
// set as options of that service take precedence.
func Build(file *descriptorpb.FileDescriptorProto, allFiles []*descriptorpb.FileDescriptorProto) *Manifest {
	svcs := file.GetService()
	if len(svcs) == 0 {
		return nil
	}

	m := &Manifest{
		MCPVersion:  MCPVersion,
		Name:        file.GetPackage(),
		Version:     DefaultVersion,
		Description: "Generated from " + file.GetName(),
		Server:      Server{Transport: Transport{Type: StdioTransport}},
	}
	if m.Name == "" {
		m.Name = resolver.FileStem(file)
	}

	if len(svcs) == 1 {
		so := mcpopts.ForService(svcs[0])
		if so.Name != nil {
			m.Name = *so.Name
		}
		if so.Version != nil {
			m.Version = *so.Version
		}
		if so.Description != nil {
			m.Description = *so.Description
		}
	}

	g := &schemagen.Generator{Primary: file, Files: allFiles}
	for _, s := range svcs {
		m.Tools = append(m.Tools, serviceTools(g, s)...)
	}
	return m
}

// ServiceTools returns the tools of the service svc, declared in file.
func ServiceTools(svc *descriptorpb.ServiceDescriptorProto, file *descriptorpb.FileDescriptorProto, allFiles []*descriptorpb.FileDescriptorProto) []*Tool {
	return serviceTools(&schemagen.Generator{Primary: file, Files: allFiles}, svc)
}

func serviceTools(g *schemagen.Generator, svc *descriptorpb.ServiceDescriptorProto) []*Tool {
	var tools []*Tool
	for _, meth := range svc.GetMethod() {
		tools = append(tools, tool(g, svc, meth))
	}
	return tools
}

// tool returns the tool for the method meth of svc.
func tool(g *schemagen.Generator, svc *descriptorpb.ServiceDescriptorProto, meth *descriptorpb.MethodDescriptorProto) *Tool {
	t := &Tool{
		Name:         ToolName(svc.GetName(), meth.GetName()),
		Description:  fmt.Sprintf("Process %s request", meth.GetName()),
		InputSchema:  g.TypeSchema(meth.GetInputType()),
		OutputSchema: g.TypeSchema(meth.GetOutputType()),
		Method:       meth.GetName(),
		InputType:    meth.GetInputType(),
		OutputType:   meth.GetOutputType(),
	}
	to := mcpopts.ForMethod(meth)
	if to.Name != nil {
		t.Name = *to.Name
	}
	if to.Description != nil {
		t.Description = *to.Description
	}
	return t
}

// ToolName returns the default name of the tool for method of service.
func ToolName(service, method string) string {
	return strings.ToLower(service) + "_" + strings.ToLower(method)
}

// Marshal returns the JSON encoding of m, indented by two spaces and
// terminated by a newline. Characters such as < and & in descriptions are
// written as is.
func (m *Manifest) Marshal() ([]byte, error) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("cannot marshal manifest %s: %w", m.Name, err)
	}
	return b.Bytes(), nil
}
