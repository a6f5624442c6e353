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


// Package cmd implements the subcommands of mcpmanifest.
package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	log "github.com/golang/glog"

	"github.com/protomcp/protoc-gen-mcp/descsource"
	"github.com/protomcp/protoc-gen-mcp/genutil"
	"github.com/protomcp/protoc-gen-mcp/mcpgen"
)

// RootCmd returns the mcpmanifest command with its subcommands attached.
func RootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "mcpmanifest",
		Short:        "mcpmanifest generates MCP manifests and servers for gRPC services",
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	cfgFile := pf.String("config_file", "", "Path to config file.")
	pf.String("out_dir", ".", "Directory to which generated files are written.")
	pf.Bool("manifest", true, "Whether a <file>.mcp.json manifest is generated.")
	pf.Bool("proxy", true, "Whether an MCP server forwarding to each gRPC service is generated.")
	pf.Bool("server", true, "Whether a gRPC server skeleton is generated for each service.")
	pf.Int("grpc_port", mcpgen.DefaultGRPCPort, "Port of the gRPC server of the first service of each file.")
	pf.String("go_import_prefix", "", "Go import path prefix of packages for files without a go_package option.")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if *cfgFile != "" {
			viper.SetConfigFile(*cfgFile)
			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("error reading config: %w", err)
			}
		}
		viper.BindPFlags(cmd.Flags())
		viper.SetEnvPrefix("mcpmanifest")
		viper.AutomaticEnv()
		return nil
	}

	rootCmd.AddCommand(newDescSetCmd())
	rootCmd.AddCommand(newReflectCmd())
	return rootCmd
}

// config returns the generation configuration held by viper.
func config() mcpgen.Config {
	return mcpgen.Config{
		Manifest:       viper.GetBool("manifest"),
		Proxy:          viper.GetBool("proxy"),
		Server:         viper.GetBool("server"),
		GRPCPort:       viper.GetInt("grpc_port"),
		GoImportPrefix: viper.GetString("go_import_prefix"),
		Caller:         "mcpmanifest",
	}
}

// generate generates output for s and writes it beneath the configured
// output directory, printing the name of each file written.
func generate(cmd *cobra.Command, s *descsource.Set) error {
	if len(s.Generate) == 0 {
		return fmt.Errorf("no files with services to generate for")
	}
	files, err := mcpgen.GenerateFiles(s.Request(""), config())
	if err != nil {
		return err
	}
	outDir := viper.GetString("out_dir")
	for _, f := range files {
		fn := filepath.Join(outDir, filepath.FromSlash(f.GetName()))
		if err := genutil.WriteFile(fn, []byte(f.GetContent())); err != nil {
			return err
		}
		log.V(1).Infof("wrote %s", fn)
		fmt.Fprintln(cmd.OutOrStdout(), fn)
	}
	return nil
}
