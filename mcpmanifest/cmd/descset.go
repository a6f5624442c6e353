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
	"github.com/spf13/cobra"

	"github.com/protomcp/protoc-gen-mcp/descsource"
)

func newDescSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "descset FILE [PROTO...]",
		Short: "Generates from a FileDescriptorSet written by protoc --descriptor_set_out --include_imports.",
		Long: `Generates from a binary FileDescriptorSet. If PROTO arguments are given,
only the named files of the set are generated for; otherwise every file
that declares a service is.`,
		Args: cobra.MinimumNArgs(1),
		RunE: descSet,
	}
}

func descSet(cmd *cobra.Command, args []string) error {
	s, err := descsource.FromFile(args[0], args[1:]...)
	if err != nil {
		return err
	}
	return generate(cmd, s)
}
