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

// Package mcpgen generates MCP manifests, MCP proxy servers and gRPC server
// skeletons for the services of a set of protobuf files.
package mcpgen

const (
	// DefaultGRPCPort is the port on which the gRPC server of the first
	// service of a file listens. Each subsequent service of the same file
	// uses the next port.
	DefaultGRPCPort = 50051
)

// Config specifies what is generated for each file, and how.
type Config struct {
	// Manifest specifies whether the <file>.mcp.json manifest is generated.
	Manifest bool
	// Proxy specifies whether an MCP stdio server that forwards tool calls
	// to the gRPC service is generated for each service.
	Proxy bool
	// Server specifies whether a gRPC server skeleton is generated for each
	// service.
	Server bool
	// GRPCPort is the port used by the first service of each file.
	GRPCPort int
	// GoImportPrefix is the import path prefix of the Go packages generated
	// for files that do not specify a go_package option.
	GoImportPrefix string
	// Caller is the name of the generator recorded in the header of
	// generated Go files. If empty, the name of the running binary is used.
	Caller string
}

// DefaultConfig returns a Config that generates every output.
func DefaultConfig() Config {
	return Config{
		Manifest: true,
		Proxy:    true,
		Server:   true,
		GRPCPort: DefaultGRPCPort,
	}
}
