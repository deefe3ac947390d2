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
package pipeline

import (
	"time"

	"github.com/rs/zerolog"
)

// timeOperation logs the start of a top-level operation and returns a func
// that logs its elapsed time. Invoked explicitly at the boundary of each
// operation:
//
//	defer timeOperation(logger, "run_streaming")()
func timeOperation(logger zerolog.Logger, name string) func() {
	start := time.Now()
	logger.Info().Str("Operation", name).Msg("operation started")

	return func() {
		logger.Info().
			Str("Operation", name).
			Dur("Elapsed", time.Since(start)).
			Msg("operation finished")
	}
}
