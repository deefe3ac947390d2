// Copyright 2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package pkginfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sort"
)

// Version is stamped at release build time via -ldflags.
var Version = "dev"

// BuildVersionString returns the version line printed by the version
// command. Commit and build time come from the module's embedded VCS
// metadata when available.
func BuildVersionString() string {
	commit, buildTime := vcsInfo()

	s := fmt.Sprintf("stockgraph %s %s/%s (%s)", Version, runtime.GOOS, runtime.GOARCH, runtime.Version())
	if commit != "" {
		s += fmt.Sprintf("\ncommit %s built %s", commit, buildTime)
	}
	return s
}

func vcsInfo() (commit, buildTime string) {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}

	for _, setting := range buildInfo.Settings {
		switch setting.Key {
		case "vcs.revision":
			commit = setting.Value
			if len(commit) > 12 {
				commit = commit[:12]
			}
		case "vcs.time":
			buildTime = setting.Value
		}
	}
	return commit, buildTime
}

// GetDependencyList returns every module linked into the binary as
// "path version", sorted.
func GetDependencyList() []string {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}

	deps := make([]string, 0, len(buildInfo.Deps))
	for _, dep := range buildInfo.Deps {
		deps = append(deps, dep.Path+" "+dep.Version)
	}
	sort.Strings(deps)

	return deps
}
