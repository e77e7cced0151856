// Copyright 2023 the SDC AWS Processing Lambda authors
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

// Package buildinfo provides high-level build information injected during
// build.
package buildinfo

import (
	"runtime/debug"
)

var (
	// id is the unique build identifier, set with -ldflags at build time.
	id = "unknown"

	// tag is the git tag from which this build was created.
	tag = "unknown"
)

type buildinfo struct{}

// ID is the build identifier. When no identifier was injected, the VCS
// revision recorded by the Go toolchain is used if present.
func (buildinfo) ID() string {
	if id != "unknown" {
		return id
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				return s.Value
			}
		}
	}
	return id
}

// Tag is the git tag.
func (buildinfo) Tag() string {
	return tag
}

// Processor provides the build information for the processing binaries.
var Processor buildinfo
