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
	"sort"

	"github.com/stockelper/stockgraph/data"
)

// Merge combines the per-source records for one entity into a single
// denormalized fragment. Pure and deterministic: it is re-run on every retry.
// Left-join semantics on the entity code — a missing per-source record leaves
// defaults in place rather than dropping the entity. Self-referencing and
// duplicate competitor links are removed here so the upsert layer never sees
// them.
func Merge(company data.Company, profile *data.Profile, quotes []data.Quote, fs *data.FinancialSnapshot, competitors []string) *data.StockFragment {
	merged := company

	if profile != nil && profile.Code == company.Code {
		merged.Sector = profile.Sector
		merged.LargeCap = profile.LargeCap
	}
	if merged.Sector == "" {
		merged.Sector = data.UnknownSector
	}
	if merged.LargeCap == "" {
		merged.LargeCap = data.DefaultLargeCap
	}

	// One quote per date, own code only, stable ascending order.
	byDate := make(map[string]data.Quote, len(quotes))
	for _, quote := range quotes {
		if quote.Code != company.Code {
			continue
		}
		byDate[quote.Date] = quote
	}

	mergedQuotes := make([]data.Quote, 0, len(byDate))
	for _, quote := range byDate {
		mergedQuotes = append(mergedQuotes, quote)
	}
	sort.Slice(mergedQuotes, func(i, j int) bool {
		return mergedQuotes[i].Date < mergedQuotes[j].Date
	})

	var mergedFinstate *data.FinancialSnapshot
	if fs != nil && fs.Code == company.Code {
		snapshot := *fs
		mergedFinstate = &snapshot
	}

	seen := make(map[string]struct{}, len(competitors))
	mergedCompetitors := make([]string, 0, len(competitors))
	for _, competitor := range competitors {
		if competitor == company.Code || competitor == "" {
			continue
		}
		if _, ok := seen[competitor]; ok {
			continue
		}
		seen[competitor] = struct{}{}
		mergedCompetitors = append(mergedCompetitors, competitor)
	}
	sort.Strings(mergedCompetitors)

	return &data.StockFragment{
		Company:     merged,
		Quotes:      mergedQuotes,
		Finstate:    mergedFinstate,
		Competitors: mergedCompetitors,
	}
}
