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

package genutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()

	filename := filepath.Join(dir, "helloworld", "hello_service_greeter_mcp_server", "main.go")
	if err := WriteFile(filename, []byte("42")); err != nil {
		t.Fatalf("WriteFile(%s): unexpected error: %v", filename, err)
	}
	bytes, err := os.ReadFile(filename)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(bytes), "42"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	// Overwriting truncates the previous content.
	if err := WriteFile(filename, []byte("7")); err != nil {
		t.Fatalf("WriteFile(%s): unexpected error on overwrite: %v", filename, err)
	}
	bytes, err = os.ReadFile(filename)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(bytes), "7"; got != want {
		t.Errorf("after overwrite got %q, want %q", got, want)
	}
}

func TestWriteFileError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	// A regular file cannot be used as a parent directory.
	if err := WriteFile(filepath.Join(blocker, "child.json"), []byte("{}")); err == nil {
		t.Errorf("WriteFile below a regular file: got nil error, want error")
	}
}
