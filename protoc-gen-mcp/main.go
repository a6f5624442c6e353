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

// Binary protoc-gen-mcp is a protoc plugin that generates an MCP manifest
// (<file>.mcp.json), an MCP stdio server forwarding tool calls to gRPC, and a
// gRPC server skeleton for the services of each input file.
//
// Options are passed through protoc's parameter string, for example:
//
//	protoc --mcp_out=out --mcp_opt=server=false,grpc_port=6000 api.proto
//
// Any glog flag, such as v=2, may be passed in the same way.
package main

import (
	"flag"

	"github.com/bufbuild/protoplugin"
	"google.golang.org/protobuf/types/pluginpb"

	log "github.com/golang/glog"

	"github.com/protomcp/protoc-gen-mcp/mcpgen"
	"github.com/protomcp/protoc-gen-mcp/plugin"
)

var (
	genManifest    = flag.Bool("manifest", true, "If set to true, a <file>.mcp.json manifest is generated for each file with services.")
	genProxy       = flag.Bool("proxy", true, "If set to true, an MCP server forwarding tool calls to the gRPC service is generated for each service.")
	genServer      = flag.Bool("server", true, "If set to true, a gRPC server skeleton is generated for each service.")
	grpcPort       = flag.Int("grpc_port", mcpgen.DefaultGRPCPort, "The port used by the gRPC server of the first service of each file; subsequent services use the following ports.")
	goImportPrefix = flag.String("go_import_prefix", "", "The Go import path prefix of packages generated for files without a go_package option.")
)

func main() {
	// protoc owns stdout, so logs may only go to stderr.
	if err := flag.Set("logtostderr", "true"); err != nil {
		log.Exitf("cannot configure logging: %v", err)
	}

	protoplugin.Main(plugin.Handler(flag.CommandLine, func(req *pluginpb.CodeGeneratorRequest) *pluginpb.CodeGeneratorResponse {
		return mcpgen.Generate(req, mcpgen.Config{
			Manifest:       *genManifest,
			Proxy:          *genProxy,
			Server:         *genServer,
			GRPCPort:       *grpcPort,
			GoImportPrefix: *goImportPrefix,
			Caller:         "protoc-gen-mcp",
		})
	}))
}
