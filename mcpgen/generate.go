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
	"bytes"
	"fmt"
	"go/format"
	"path"
	"slices"
	"strings"
	"text/template"

	"golang.org/x/exp/maps"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/pluginpb"

	log "github.com/golang/glog"

	"github.com/protomcp/protoc-gen-mcp/manifest"
	"github.com/protomcp/protoc-gen-mcp/resolver"
	"github.com/protomcp/protoc-gen-mcp/util"
)

// supportedFeatures is advertised in every response.
var supportedFeatures = uint64(pluginpb.CodeGeneratorResponse_FEATURE_PROTO3_OPTIONAL)

// Generate runs generation for every file named in the file_to_generate
// field of req. The returned response carries either the generated files
// or, if generation failed for any file, a single error describing every
// failure and no files.
func Generate(req *pluginpb.CodeGeneratorRequest, cfg Config) (resp *pluginpb.CodeGeneratorResponse) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("generation panicked: %v", r)
			resp = errorResponse(fmt.Errorf("internal error during generation: %v", r))
		}
	}()

	files, err := GenerateFiles(req, cfg)
	if err != nil {
		return errorResponse(err)
	}
	return &pluginpb.CodeGeneratorResponse{
		SupportedFeatures: proto.Uint64(supportedFeatures),
		File:              files,
	}
}

func errorResponse(err error) *pluginpb.CodeGeneratorResponse {
	return &pluginpb.CodeGeneratorResponse{
		SupportedFeatures: proto.Uint64(supportedFeatures),
		Error:             proto.String(err.Error()),
	}
}

// GenerateFiles returns the files generated for req, ordered by name. Errors
// for individual input files are accumulated and returned together.
func GenerateFiles(req *pluginpb.CodeGeneratorRequest, cfg Config) ([]*pluginpb.CodeGeneratorResponse_File, error) {
	byName := map[string]*descriptorpb.FileDescriptorProto{}
	for _, f := range req.GetProtoFile() {
		byName[f.GetName()] = f
	}

	out := map[string]string{}
	var errs util.Errors
	for _, name := range req.GetFileToGenerate() {
		f, ok := byName[name]
		if !ok {
			errs = util.AppendErr(errs, fmt.Errorf("file %s to generate is not in the request", name))
			continue
		}
		generated, err := generateFile(f, knownFiles(f, byName), cfg)
		if err != nil {
			errs = util.AppendErr(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		for fn, content := range generated {
			if _, dup := out[fn]; dup {
				errs = util.AppendErr(errs, fmt.Errorf("%s: output file %s is generated more than once", name, fn))
				continue
			}
			out[fn] = content
		}
	}
	if err := errs.ErrOrNil(); err != nil {
		return nil, err
	}

	names := maps.Keys(out)
	slices.Sort(names)
	var files []*pluginpb.CodeGeneratorResponse_File
	for _, fn := range names {
		files = append(files, &pluginpb.CodeGeneratorResponse_File{
			Name:    proto.String(fn),
			Content: proto.String(out[fn]),
		})
	}
	return files, nil
}

// knownFiles returns f followed by those of its direct dependencies that are
// present in byName.
func knownFiles(f *descriptorpb.FileDescriptorProto, byName map[string]*descriptorpb.FileDescriptorProto) []*descriptorpb.FileDescriptorProto {
	all := []*descriptorpb.FileDescriptorProto{f}
	for _, dep := range f.GetDependency() {
		d, ok := byName[dep]
		if !ok {
			log.V(1).Infof("dependency %s of %s is not in the request", dep, f.GetName())
			continue
		}
		all = append(all, d)
	}
	return all
}

// generateFile returns the contents of the files generated for f, keyed by
// output file name.
func generateFile(f *descriptorpb.FileDescriptorProto, allFiles []*descriptorpb.FileDescriptorProto, cfg Config) (map[string]string, error) {
	out := map[string]string{}
	if len(f.GetService()) == 0 {
		log.V(1).Infof("%s declares no services, nothing to generate", f.GetName())
		return out, nil
	}

	if cfg.Manifest {
		m := manifest.Build(f, allFiles)
		b, err := m.Marshal()
		if err != nil {
			return nil, err
		}
		out[manifest.FileName(f.GetName())] = string(b)
	}

	if !cfg.Proxy && !cfg.Server {
		return out, nil
	}
	var errs util.Errors
	for i, svc := range f.GetService() {
		sd, err := newServiceData(f, allFiles, i, cfg)
		if err != nil {
			errs = util.AppendErr(errs, err)
			continue
		}
		if cfg.Proxy {
			src, err := render(proxyTemplate, sd)
			if err != nil {
				errs = util.AppendErr(errs, fmt.Errorf("MCP server for %s: %w", svc.GetName(), err))
			} else {
				out[ProxyFileName(f.GetName(), svc.GetName())] = src
			}
		}
		if cfg.Server {
			src, err := render(serverTemplate, sd)
			if err != nil {
				errs = util.AppendErr(errs, fmt.Errorf("gRPC server for %s: %w", svc.GetName(), err))
			} else {
				out[ServerFileName(f.GetName(), svc.GetName())] = src
			}
		}
	}
	if err := errs.ErrOrNil(); err != nil {
		return nil, err
	}
	return out, nil
}

// render executes t with sd and returns the gofmt-formatted result.
func render(t *template.Template, sd *ServiceData) (string, error) {
	var b bytes.Buffer
	if err := t.Execute(&b, sd); err != nil {
		return "", fmt.Errorf("cannot execute template %s: %w", t.Name(), err)
	}
	src, err := format.Source(b.Bytes())
	if err != nil {
		log.V(2).Infof("unformatted %s output:\n%s", t.Name(), b.String())
		return "", fmt.Errorf("cannot format generated %s code: %w", t.Name(), err)
	}
	return string(src), nil
}

// outputDir returns the directory holding a command generated for service
// svc of the proto file protoPath, with the supplied kind suffix.
func outputDir(protoPath, svc, kind string) string {
	stem := resolver.FileStem(&descriptorpb.FileDescriptorProto{Name: proto.String(protoPath)})
	return path.Join(path.Dir(protoPath), fmt.Sprintf("%s_%s_%s", stem, strings.ToLower(svc), kind))
}

// ProxyFileName returns the name of the MCP server generated for service svc
// of the proto file protoPath, e.g.
// helloworld/hello_service_greeter_mcp_server/main.go.
func ProxyFileName(protoPath, svc string) string {
	return path.Join(outputDir(protoPath, svc, "mcp_server"), "main.go")
}

// ServerFileName returns the name of the gRPC server skeleton generated for
// service svc of the proto file protoPath.
func ServerFileName(protoPath, svc string) string {
	return path.Join(outputDir(protoPath, svc, "grpc_server"), "main.go")
}
