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
package dates

import (
	"fmt"
	"time"
)

// Layout is the 8-digit calendar date format used throughout the pipeline.
const Layout = "20060102"

// Parse converts an 8-digit date string to a time.Time.
func Parse(date string) (time.Time, error) {
	parsed, err := time.Parse(Layout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYYMMDD): %w", date, err)
	}
	return parsed, nil
}

// List returns every calendar date from start to end inclusive, ascending,
// in Layout format. A start after end yields an empty list, not an error.
func List(start, end string) ([]string, error) {
	startDate, err := Parse(start)
	if err != nil {
		return nil, err
	}

	endDate, err := Parse(end)
	if err != nil {
		return nil, err
	}

	list := make([]string, 0)
	for current := startDate; !current.After(endDate); current = current.AddDate(0, 0, 1) {
		list = append(list, current.Format(Layout))
	}

	return list, nil
}
