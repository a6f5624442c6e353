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
	"github.com/protomcp/protoc-gen-mcp/internal/igenutil"
)

var (
	// proxyTemplate generates an MCP server, speaking over stdio, that
	// exposes each unary method of a service as a tool and forwards tool
	// calls to the service over gRPC.
	proxyTemplate = igenutil.MustMakeTemplate("proxy", `
{{- /**/ -}}
// Code generated by {{ .Caller }} from {{ .ProtoFile }}. DO NOT EDIT.

// Command {{ toLower .Name }}_mcp_server is an MCP server exposing the
// {{ .FullName }} gRPC service as tools.
package main

import (
	"context"
{{- if .Tools }}
	"encoding/json"
{{- end }}
	"flag"
{{- if .Tools }}
	"fmt"
{{- end }}
	"log"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
{{- if .Tools }}
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
{{- end }}
{{ range .ProxyImports }}
	{{ .Alias }} {{ quote .Path }}
{{- end }}
)

var grpcAddr = flag.String("grpc_addr", "localhost:{{ .GRPCPort }}", "address of the {{ .FullName }} gRPC server")
{{ range .Tools }}
// {{ .ArgsType }} holds the arguments of the tool invoking {{ .Method }},
// whose input schema is:
//
//	{{ .InputSchema }}
type {{ .ArgsType }} struct {
{{- range .Params }}
	{{ .GoName }} {{ .GoType }} ` + "`" + `json:"{{ .Name }}{{ if not .Required }},omitempty{{ end }}"` + "`" + `
{{- end }}
}
{{ end }}
// registerTools adds a tool to server for each unary method of
// {{ .FullName }}, invoking the method through client.
func registerTools(server *mcp.Server, client {{ .Module }}.{{ .GoName }}Client) {
{{- range .Tools }}
	mcp.AddTool(server, &mcp.Tool{
		Name:        {{ quote .Name }},
		Description: {{ quote .Description }},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args {{ .ArgsType }}) (*mcp.CallToolResult, any, error) {
		in := &{{ .InputType }}{}
		if err := toRequest(args, in); err != nil {
			return nil, nil, fmt.Errorf("invalid arguments for %s: %w", {{ quote .Name }}, err)
		}
		out, err := client.{{ .GoMethod }}(ctx, in)
		if err != nil {
			return nil, nil, fmt.Errorf("{{ .Method }} failed: %w", err)
		}
		return toResult(out)
	})
{{- end }}
}
{{ if .Tools }}
// toRequest populates the request message in from the tool arguments args.
func toRequest(args any, in proto.Message) error {
	b, err := json.Marshal(args)
	if err != nil {
		return err
	}
	return protojson.Unmarshal(b, in)
}

// toResult returns the tool result holding the JSON encoding of out.
func toResult(out proto.Message) (*mcp.CallToolResult, any, error) {
	b, err := protojson.Marshal(out)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
	}, nil, nil
}
{{ end }}
func main() {
	flag.Parse()

	conn, err := grpc.NewClient(*grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("cannot connect to %s: %v", *grpcAddr, err)
	}
	defer conn.Close()

	server := mcp.NewServer(&mcp.Implementation{
		Name:    {{ quote .MCPName }},
		Version: {{ quote .MCPVersion }},
	}, nil)
	registerTools(server, {{ .Module }}.New{{ .GoName }}Client(conn))

	if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		log.Fatalf("MCP server failed: %v", err)
	}
}
`)

	// serverTemplate generates a gRPC server for a service whose unary
	// methods return codes.Unimplemented, as a starting point for an
	// implementation.
	serverTemplate = igenutil.MustMakeTemplate("server", `
{{- /**/ -}}
// Generated by {{ .Caller }} from {{ .ProtoFile }}.

// Command {{ toLower .Name }}_grpc_server serves the {{ .FullName }} gRPC
// service.
package main

import (
{{- if .Tools }}
	"context"
{{- end }}
	"flag"
	"fmt"
	"log"
	"net"

	"google.golang.org/grpc"
{{- if .Tools }}
	"google.golang.org/grpc/codes"
{{- end }}
	"google.golang.org/grpc/reflection"
{{- if .Tools }}
	"google.golang.org/grpc/status"
{{- end }}
{{ range .Imports }}
	{{ .Alias }} {{ quote .Path }}
{{- end }}
)

var port = flag.Int("port", {{ .GRPCPort }}, "port on which to serve {{ .FullName }}")

// {{ camelCase .Name | toLower }}Server implements {{ .FullName }}.
type {{ camelCase .Name | toLower }}Server struct {
	{{ .Module }}.Unimplemented{{ .GoName }}Server
}
{{ range .Tools }}
// {{ .GoMethod }} implements the {{ .Method }} RPC.
func (s *{{ camelCase $.Name | toLower }}Server) {{ .GoMethod }}(ctx context.Context, req *{{ .InputType }}) (*{{ .OutputType }}, error) {
	return nil, status.Errorf(codes.Unimplemented, "method {{ .Method }} not implemented")
}
{{ end }}
{{- range .Streaming }}
// {{ . }} is a streaming RPC and is served by the embedded
// Unimplemented{{ $.GoName }}Server until implemented.
{{ end }}
func main() {
	flag.Parse()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", *port))
	if err != nil {
		log.Fatalf("cannot listen on port %d: %v", *port, err)
	}
	s := grpc.NewServer()
	{{ .Module }}.Register{{ .GoName }}Server(s, &{{ camelCase .Name | toLower }}Server{})
	reflection.Register(s)

	log.Printf("{{ .FullName }} listening on %v", lis.Addr())
	if err := s.Serve(lis); err != nil {
		log.Fatalf("serve failed: %v", err)
	}
}
`)
)
