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

// Package descsource obtains protobuf file descriptors from outside of a
// protoc invocation: from a serialised FileDescriptorSet, or from a running
// gRPC server that supports server reflection.
package descsource

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/pluginpb"

	log "github.com/golang/glog"
	rpb "google.golang.org/grpc/reflection/grpc_reflection_v1"
	rpbalpha "google.golang.org/grpc/reflection/grpc_reflection_v1alpha"
)

// reflectionPrefix is the package prefix of the reflection service itself,
// which is never generated for.
const reflectionPrefix = "grpc.reflection."

// Set is a set of file descriptors, and the names of those files for which
// output should be generated.
type Set struct {
	// Files holds every file of the set, each after its dependencies.
	Files []*descriptorpb.FileDescriptorProto
	// Generate names the files of Files to generate for.
	Generate []string
}

// Request returns a CodeGeneratorRequest equivalent to the one protoc would
// send for s, with the supplied parameter string.
func (s *Set) Request(parameter string) *pluginpb.CodeGeneratorRequest {
	req := &pluginpb.CodeGeneratorRequest{
		FileToGenerate: append([]string(nil), s.Generate...),
		ProtoFile:      s.Files,
	}
	if parameter != "" {
		req.Parameter = proto.String(parameter)
	}
	return req
}

// FromFile reads a binary FileDescriptorSet, as written by protoc's
// --descriptor_set_out flag, from the file at path. The files named in
// generate are marked for generation; if none are named, every file that
// declares a service is.
func FromFile(path string, generate ...string) (*Set, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read descriptor set: %w", err)
	}
	fds := &descriptorpb.FileDescriptorSet{}
	if err := proto.Unmarshal(b, fds); err != nil {
		return nil, fmt.Errorf("cannot unmarshal descriptor set %s: %w", path, err)
	}

	byName := map[string]*descriptorpb.FileDescriptorProto{}
	var order []string
	for _, f := range fds.GetFile() {
		if _, dup := byName[f.GetName()]; dup {
			continue
		}
		byName[f.GetName()] = f
		order = append(order, f.GetName())
	}

	s := &Set{Files: sortFiles(byName, order)}
	if len(generate) > 0 {
		for _, g := range generate {
			if _, ok := byName[g]; !ok {
				return nil, fmt.Errorf("file %s is not in descriptor set %s", g, path)
			}
		}
		s.Generate = generate
		return s, nil
	}
	for _, f := range s.Files {
		if len(f.GetService()) > 0 {
			s.Generate = append(s.Generate, f.GetName())
		}
	}
	return s, nil
}

// sortFiles returns the files of byName, visiting them in order, such that
// each file follows the files it depends on. Dependencies missing from
// byName are skipped.
func sortFiles(byName map[string]*descriptorpb.FileDescriptorProto, order []string) []*descriptorpb.FileDescriptorProto {
	var sorted []*descriptorpb.FileDescriptorProto
	done := map[string]bool{}
	var visit func(name string)
	visit = func(name string) {
		if done[name] {
			return
		}
		done[name] = true
		f, ok := byName[name]
		if !ok {
			log.V(1).Infof("dependency %s is not available", name)
			return
		}
		for _, dep := range f.GetDependency() {
			visit(dep)
		}
		sorted = append(sorted, f)
	}
	for _, n := range order {
		visit(n)
	}
	return sorted
}

// FromReflection retrieves the descriptors of the named services, and every
// file they depend on, from the gRPC server reflection service of the server
// at the other end of conn. If no services are named, every service the
// server lists, other than the reflection service, is retrieved. Version v1
// of the reflection service is used, or v1alpha if the server does not
// implement v1.
func FromReflection(ctx context.Context, conn grpc.ClientConnInterface, services []string) (*Set, error) {
	stream, err := rpb.NewServerReflectionClient(conn).ServerReflectionInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot open reflection stream: %w", err)
	}
	r := &reflector{
		ctx:    ctx,
		conn:   conn,
		stream: stream,
		files:  map[string]*descriptorpb.FileDescriptorProto{},
	}
	defer func() { r.stream.CloseSend() }()

	if len(services) == 0 {
		if services, err = r.listServices(); err != nil {
			return nil, err
		}
	}

	var generate []string
	seen := map[string]bool{}
	for _, svc := range services {
		name, err := r.fileContainingSymbol(svc)
		if err != nil {
			return nil, err
		}
		if !seen[name] {
			seen[name] = true
			generate = append(generate, name)
		}
	}

	if err := r.fetchDependencies(); err != nil {
		return nil, err
	}
	return &Set{
		Files:    sortFiles(r.files, r.order),
		Generate: generate,
	}, nil
}

// reflectionStream is a reflection stream of either version of the service,
// carrying v1 messages.
type reflectionStream interface {
	Send(*rpb.ServerReflectionRequest) error
	Recv() (*rpb.ServerReflectionResponse, error)
	CloseSend() error
}

// alphaStream carries v1 messages over a v1alpha stream. The messages of
// both versions have the same wire format.
type alphaStream struct {
	rpbalpha.ServerReflection_ServerReflectionInfoClient
}

func (s alphaStream) Send(req *rpb.ServerReflectionRequest) error {
	b, err := proto.Marshal(req)
	if err != nil {
		return err
	}
	areq := &rpbalpha.ServerReflectionRequest{}
	if err := proto.Unmarshal(b, areq); err != nil {
		return err
	}
	return s.ServerReflection_ServerReflectionInfoClient.Send(areq)
}

func (s alphaStream) Recv() (*rpb.ServerReflectionResponse, error) {
	aresp, err := s.ServerReflection_ServerReflectionInfoClient.Recv()
	if err != nil {
		return nil, err
	}
	b, err := proto.Marshal(aresp)
	if err != nil {
		return nil, err
	}
	resp := &rpb.ServerReflectionResponse{}
	if err := proto.Unmarshal(b, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// reflector issues requests on a single reflection stream and accumulates
// the files it receives.
type reflector struct {
	ctx    context.Context
	conn   grpc.ClientConnInterface
	stream reflectionStream
	// alpha is set once the stream has been replaced by a v1alpha stream.
	alpha bool
	// answered is set once the server has responded on the stream.
	answered bool

	files map[string]*descriptorpb.FileDescriptorProto
	order []string
}

// roundTrip sends req on the stream and returns the response to it.
func (r *reflector) roundTrip(req *rpb.ServerReflectionRequest) (*rpb.ServerReflectionResponse, error) {
	// A stream rejected by the server fails Send with io.EOF; its status is
	// returned by Recv.
	if err := r.stream.Send(req); err != nil && err != io.EOF {
		return nil, fmt.Errorf("cannot send reflection request: %w", err)
	}
	resp, err := r.stream.Recv()
	if err != nil {
		return nil, err
	}
	r.answered = true
	return resp, nil
}

// call sends req and returns the response to it, converting a reflection
// error response into an error. If the server does not implement v1 of the
// reflection service, the request is retried on a v1alpha stream.
func (r *reflector) call(req *rpb.ServerReflectionRequest) (*rpb.ServerReflectionResponse, error) {
	resp, err := r.roundTrip(req)
	if err != nil && status.Code(err) == codes.Unimplemented && !r.alpha && !r.answered {
		log.V(1).Infof("server does not implement reflection v1, using v1alpha")
		r.stream.CloseSend()
		s, serr := rpbalpha.NewServerReflectionClient(r.conn).ServerReflectionInfo(r.ctx)
		if serr != nil {
			return nil, fmt.Errorf("cannot open v1alpha reflection stream: %w", serr)
		}
		r.stream, r.alpha = alphaStream{s}, true
		resp, err = r.roundTrip(req)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot receive reflection response: %w", err)
	}
	if e := resp.GetErrorResponse(); e != nil {
		return nil, fmt.Errorf("reflection error %d: %s", e.GetErrorCode(), e.GetErrorMessage())
	}
	return resp, nil
}

func (r *reflector) listServices() ([]string, error) {
	resp, err := r.call(&rpb.ServerReflectionRequest{
		MessageRequest: &rpb.ServerReflectionRequest_ListServices{},
	})
	if err != nil {
		return nil, fmt.Errorf("cannot list services: %w", err)
	}
	var services []string
	for _, s := range resp.GetListServicesResponse().GetService() {
		if strings.HasPrefix(s.GetName(), reflectionPrefix) {
			continue
		}
		services = append(services, s.GetName())
	}
	log.V(1).Infof("server lists services %v", services)
	return services, nil
}

// fileContainingSymbol retrieves the file defining symbol, and returns its
// name.
func (r *reflector) fileContainingSymbol(symbol string) (string, error) {
	resp, err := r.call(&rpb.ServerReflectionRequest{
		MessageRequest: &rpb.ServerReflectionRequest_FileContainingSymbol{FileContainingSymbol: symbol},
	})
	if err != nil {
		return "", fmt.Errorf("cannot get file containing %s: %w", symbol, err)
	}
	names, err := r.add(resp)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", fmt.Errorf("server returned no file for %s", symbol)
	}
	// The file defining the symbol is returned first, followed by any of
	// its dependencies.
	return names[0], nil
}

// fetchDependencies retrieves, by name, every dependency of the files
// received so far that the server has not already sent.
func (r *reflector) fetchDependencies() error {
	unavailable := map[string]bool{}
	for {
		var missing string
		for _, n := range r.order {
			for _, dep := range r.files[n].GetDependency() {
				if _, ok := r.files[dep]; !ok && !unavailable[dep] {
					missing = dep
					break
				}
			}
			if missing != "" {
				break
			}
		}
		if missing == "" {
			return nil
		}

		resp, err := r.call(&rpb.ServerReflectionRequest{
			MessageRequest: &rpb.ServerReflectionRequest_FileByFilename{FileByFilename: missing},
		})
		if err != nil {
			log.Warningf("cannot get dependency %s: %v", missing, err)
			unavailable[missing] = true
			continue
		}
		names, err := r.add(resp)
		if err != nil {
			return err
		}
		found := false
		for _, n := range names {
			found = found || n == missing
		}
		if !found {
			log.Warningf("server did not return dependency %s", missing)
			unavailable[missing] = true
		}
	}
}

// add records the files of a file descriptor response, returning their
// names in the order received.
func (r *reflector) add(resp *rpb.ServerReflectionResponse) ([]string, error) {
	var names []string
	for _, b := range resp.GetFileDescriptorResponse().GetFileDescriptorProto() {
		f := &descriptorpb.FileDescriptorProto{}
		if err := proto.Unmarshal(b, f); err != nil {
			return nil, fmt.Errorf("cannot unmarshal file descriptor: %w", err)
		}
		names = append(names, f.GetName())
		if _, ok := r.files[f.GetName()]; ok {
			continue
		}
		log.V(2).Infof("received %s", f.GetName())
		r.files[f.GetName()] = f
		r.order = append(r.order, f.GetName())
	}
	return names, nil
}
