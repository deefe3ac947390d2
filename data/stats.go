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
	"sort"
	"time"
)

// RunStats is the aggregate result of one pipeline run. FailedCodes carries
// the full failed-identity list for programmatic follow-up (for example an
// update-only re-run against just those codes); logs only get a bounded
// preview.
type RunStats struct {
	RunID       string    `json:"run_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Total       int       `json:"total"`
	Processed   int       `json:"processed"`
	Skipped     int       `json:"skipped"`
	Updated     int       `json:"updated"`
	Failed      int       `json:"failed"`
	FailedCodes []string  `json:"failed_codes"`
}

// FailedPreview returns up to n failed codes in sorted order.
func (stats *RunStats) FailedPreview(n int) []string {
	preview := make([]string, len(stats.FailedCodes))
	copy(preview, stats.FailedCodes)
	sort.Strings(preview)

	if len(preview) > n {
		preview = preview[:n]
	}

	return preview
}
