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

// Package collect implements the four source collectors feeding the stock
// knowledge graph: the exchange listing (entity universe), the bearer-token
// market data API (sector profiles and daily prices), the financial statement
// API (quarterly reports with fallback search), and the competitor store.
//
// Collectors never propagate expected failure modes (timeouts, 4xx, empty
// results) to callers; exhausted retries yield documented default records so
// one unavailable source cannot fail a whole entity.
package collect

import (
	"strconv"
	"time"
)

// maxAttempts bounds retries for transient source errors.
const maxAttempts = 3

// backoffBase is the first retry delay; each subsequent attempt doubles it.
// Variable so tests can shrink it.
var backoffBase = time.Second

func sleepBackoff(attempt int) {
	if attempt >= maxAttempts-1 {
		return
	}
	time.Sleep(backoffBase << uint(attempt))
}

// parseFloat converts the string-encoded numeric fields the market API
// returns, defaulting to zero on malformed input.
func parseFloat(s string) float64 {
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return val
}

// parseAmount converts a comma-grouped statement amount to an integer,
// defaulting to zero on malformed input.
func parseAmount(s string) int64 {
	cleaned := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != ',' {
			cleaned = append(cleaned, s[i])
		}
	}

	val, err := strconv.ParseInt(string(cleaned), 10, 64)
	if err != nil {
		return 0
	}
	return val
}
