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

// Package plugin adapts a generator to the protoc plugin protocol, which is
// handled by github.com/bufbuild/protoplugin.
package plugin

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/bufbuild/protoplugin"
	"google.golang.org/protobuf/types/pluginpb"

	log "github.com/golang/glog"
)

// GenerateFunc generates the response to a request. Generation failures are
// reported through the Error field of the response.
type GenerateFunc func(*pluginpb.CodeGeneratorRequest) *pluginpb.CodeGeneratorResponse

// ParseParameter sets the flags of fs from the protoc parameter string
// param, which has the form "k1=v1,k2=v2". A key without a value, such as
// "manifest", sets a boolean flag to true. Unknown keys are an error.
func ParseParameter(param string, fs *flag.FlagSet) error {
	for _, kv := range strings.Split(param, ",") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		k, v, hasValue := strings.Cut(kv, "=")
		if fs.Lookup(k) == nil {
			return fmt.Errorf("unknown parameter %q", k)
		}
		if !hasValue {
			v = "true"
		}
		if err := fs.Set(k, v); err != nil {
			return fmt.Errorf("invalid value %q for parameter %s: %w", v, k, err)
		}
		log.V(1).Infof("parameter %s=%s", k, v)
	}
	return nil
}

// Handler returns a protoplugin handler that applies the parameter of each
// request to fs, then calls fn with the request. An invalid parameter is
// reported to protoc as an error of the response, and fn is not called.
// Every response advertises support for proto3 optional fields.
func Handler(fs *flag.FlagSet, fn GenerateFunc) protoplugin.Handler {
	return protoplugin.HandlerFunc(func(_ context.Context, _ protoplugin.PluginEnv, w protoplugin.ResponseWriter, req protoplugin.Request) error {
		w.SetFeatureProto3Optional()
		if err := ParseParameter(req.Parameter(), fs); err != nil {
			w.AddError(err.Error())
			return nil
		}
		resp := fn(req.CodeGeneratorRequest())
		if e := resp.GetError(); e != "" {
			w.AddError(e)
			return nil
		}
		w.AddCodeGeneratorResponseFiles(resp.GetFile()...)
		return nil
	})
}
