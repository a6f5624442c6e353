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
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/protomcp/protoc-gen-mcp/descsource"
)

func newReflectCmd() *cobra.Command {
	reflect := &cobra.Command{
		Use:   "reflect",
		Short: "Generates for the services of a running gRPC server, using server reflection.",
		Args:  cobra.NoArgs,
		RunE:  reflectServices,
	}

	reflect.Flags().String("addr", "", "Address of the gRPC server, e.g. localhost:50051.")
	reflect.Flags().Duration("timeout", 10*time.Second, "Time allowed for retrieving descriptors.")
	reflect.Flags().StringSlice("service", nil, "Fully qualified names of the services to generate for; all services if unset.")

	return reflect
}

func reflectServices(cmd *cobra.Command, args []string) error {
	addr := viper.GetString("addr")
	if addr == "" {
		return fmt.Errorf("--addr must be specified")
	}
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("cannot create client for %s: %w", addr, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), viper.GetDuration("timeout"))
	defer cancel()
	s, err := descsource.FromReflection(ctx, conn, viper.GetStringSlice("service"))
	if err != nil {
		return fmt.Errorf("cannot retrieve descriptors from %s: %w", addr, err)
	}
	return generate(cmd, s)
}
