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
package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFailedPreview(t *testing.T) {
	stats := &RunStats{
		FailedCodes: []string{"000300", "000100", "000200", "000500", "000400"},
	}

	assert.Equal(t, []string{"000100", "000200", "000300"}, stats.FailedPreview(3))
	assert.Equal(t, []string{"000100", "000200", "000300", "000400", "000500"}, stats.FailedPreview(10))

	// preview must not reorder the full list
	assert.Equal(t, []string{"000300", "000100", "000200", "000500", "000400"}, stats.FailedCodes)
}
