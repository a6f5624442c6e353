// Copyright 2019 Google Inc.
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
	"fmt"
	"os"
	"path/filepath"

	log "github.com/golang/glog"
)

// WriteFile writes content to the file fn, creating any parent directories
// that do not exist. An existing file is truncated.
func WriteFile(fn string, content []byte) error {
	if dir := filepath.Dir(fn); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("could not create directory for %s: %w", fn, err)
		}
	}
	fh, err := os.Create(fn)
	if err != nil {
		return fmt.Errorf("could not open output file: %w", err)
	}
	if _, err := fh.Write(content); err != nil {
		fh.Close()
		return fmt.Errorf("could not write output file %s: %w", fn, err)
	}
	return SyncFile(fh)
}

// SyncFile synchronises the supplied os.File and closes it.
func SyncFile(fh *os.File) error {
	if err := fh.Sync(); err != nil {
		fh.Close()
		return fmt.Errorf("could not sync file output: %w", err)
	}
	if err := fh.Close(); err != nil {
		return fmt.Errorf("could not close output file: %w", err)
	}
	log.V(2).Infof("wrote %s", fh.Name())
	return nil
}
