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

package cmd

import (
	"bytes"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/openconfig/gnmi/errdiff"
	"github.com/spf13/viper"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/reflection"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	tu "github.com/protomcp/protoc-gen-mcp/testutil"
)

// execute runs the root command with args, returning its standard output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	root := RootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// listFiles returns the slash-separated paths of the regular files beneath
// dir.
func listFiles(t *testing.T, dir string) []string {
	t.Helper()
	var files []string
	err := filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		t.Fatalf("cannot list %s: %v", dir, err)
	}
	sort.Strings(files)
	return files
}

func writeDescSet(t *testing.T, files ...*descriptorpb.FileDescriptorProto) string {
	t.Helper()
	b, err := proto.Marshal(&descriptorpb.FileDescriptorSet{File: files})
	if err != nil {
		t.Fatalf("cannot marshal descriptor set: %v", err)
	}
	fn := filepath.Join(t.TempDir(), "set.pb")
	if err := os.WriteFile(fn, b, 0o644); err != nil {
		t.Fatalf("cannot write descriptor set: %v", err)
	}
	return fn
}

func TestDescSet(t *testing.T) {
	set := writeDescSet(t, tu.HelloWorld())

	tests := []struct {
		desc             string
		inArgs           []string
		inConfig         string
		wantFiles        []string
		wantErrSubstring string
	}{{
		desc:   "all outputs",
		inArgs: []string{"descset", set},
		wantFiles: []string{
			"helloworld/hello_service.proto.mcp.json",
			"helloworld/hello_service_greeter_grpc_server/main.go",
			"helloworld/hello_service_greeter_mcp_server/main.go",
		},
	}, {
		desc:      "manifest only",
		inArgs:    []string{"descset", "--proxy=false", "--server=false", set},
		wantFiles: []string{"helloworld/hello_service.proto.mcp.json"},
	}, {
		desc:      "outputs disabled in config file",
		inArgs:    []string{"descset", set},
		inConfig:  "proxy: false\nmanifest: false\n",
		wantFiles: []string{"helloworld/hello_service_greeter_grpc_server/main.go"},
	}, {
		desc:             "named file not in set",
		inArgs:           []string{"descset", set, "other.proto"},
		wantErrSubstring: "file other.proto is not in descriptor set",
	}, {
		desc:             "no services",
		inArgs:           []string{"descset", writeDescSet(t, tu.File("empty.proto", "empty"))},
		wantErrSubstring: "no files with services",
	}, {
		desc:             "missing argument",
		inArgs:           []string{"descset"},
		wantErrSubstring: "requires at least 1 arg",
	}}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			outDir := t.TempDir()
			args := append(tt.inArgs, "--out_dir", outDir)
			if tt.inConfig != "" {
				cfg := filepath.Join(t.TempDir(), "config.yaml")
				if err := os.WriteFile(cfg, []byte(tt.inConfig), 0o644); err != nil {
					t.Fatalf("cannot write config file: %v", err)
				}
				args = append(args, "--config_file", cfg)
			}

			out, err := execute(t, args...)
			if diff := errdiff.Substring(err, tt.wantErrSubstring); diff != "" {
				t.Fatalf("descset %v: %s", tt.inArgs, diff)
			}
			if err != nil {
				return
			}
			if diff := cmp.Diff(tt.wantFiles, listFiles(t, outDir)); diff != "" {
				t.Errorf("descset %v: did not get expected files, diff(-want, +got):\n%s", tt.inArgs, diff)
			}
			if got, want := strings.Count(out, "\n"), len(tt.wantFiles); got != want {
				t.Errorf("descset %v: printed %d lines, want %d:\n%s", tt.inArgs, got, want, out)
			}
		})
	}
}

func TestReflect(t *testing.T) {
	lis, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatalf("cannot listen: %v", err)
	}
	s := grpc.NewServer()
	healthpb.RegisterHealthServer(s, health.NewServer())
	reflection.Register(s)
	go s.Serve(lis)
	defer s.Stop()

	outDir := t.TempDir()
	if _, err := execute(t, "reflect", "--addr", lis.Addr().String(), "--proxy=false", "--server=false", "--out_dir", outDir); err != nil {
		t.Fatalf("reflect: unexpected error: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(outDir, "grpc", "health", "v1", "health.proto.mcp.json"))
	if err != nil {
		t.Fatalf("reflect: cannot read manifest: %v", err)
	}
	var m struct {
		Name  string `json:"name"`
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("reflect: cannot unmarshal manifest: %v", err)
	}
	if got, want := m.Name, "grpc.health.v1"; got != want {
		t.Errorf("reflect: got manifest name %q, want %q", got, want)
	}
	var tools []string
	for _, tool := range m.Tools {
		tools = append(tools, tool.Name)
	}
	if diff := cmp.Diff([]string{"health_check", "health_watch"}, tools); diff != "" {
		t.Errorf("reflect: did not get expected tools, diff(-want, +got):\n%s", diff)
	}
}

func TestReflectNoAddr(t *testing.T) {
	_, err := execute(t, "reflect", "--out_dir", t.TempDir())
	if diff := errdiff.Substring(err, "--addr must be specified"); diff != "" {
		t.Errorf("reflect without address: %s", diff)
	}
}
