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

// Defaults recorded when a per-source lookup comes back empty. Substituting
// these instead of failing keeps one unavailable source from dropping the
// whole entity.
const (
	UnknownSector   = "Unknown"
	NotLargeCap     = "N"
	DefaultShares   = int64(0)
	DefaultLargeCap = NotLargeCap
)

// Company holds the static identity and listing facts for one security.
// Code is the 6-character, zero-padded exchange code and is the natural key
// for every graph write.
type Company struct {
	Code              string `json:"code"`
	Name              string `json:"name"`
	ShortName         string `json:"short_name"`
	EnglishName       string `json:"english_name"`
	ListingDate       string `json:"listing_date"`
	Market            string `json:"market"`
	OutstandingShares int64  `json:"outstanding_shares"`

	// Filled from the market data API; defaults when unavailable.
	Sector   string `json:"sector"`
	LargeCap string `json:"large_cap"`
}

// Profile is the per-source sector classification record returned by the
// market data API for one security.
type Profile struct {
	Code     string `json:"code"`
	Sector   string `json:"sector"`
	LargeCap string `json:"large_cap"`
}

// Quote is one dated price observation with its derived indicators. There is
// at most one Quote per (code, date) pair; re-ingesting a date converges to
// the same graph state.
type Quote struct {
	Code  string  `json:"code"`
	Date  string  `json:"date"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
	EPS   float64 `json:"eps"`
	PBR   float64 `json:"pbr"`
	PER   float64 `json:"per"`
}

// FinancialSnapshot is one reporting quarter of financial-statement figures.
// Available is false when every candidate quarter came back empty and the
// snapshot is a zero-filled placeholder tagged with the last quarter tried.
type FinancialSnapshot struct {
	Code             string `json:"code"`
	Year             int    `json:"year"`
	Quarter          int    `json:"quarter"`
	Revenue          int64  `json:"revenue"`
	OperatingIncome  int64  `json:"operating_income"`
	NetIncome        int64  `json:"net_income"`
	TotalAssets      int64  `json:"total_assets"`
	TotalLiabilities int64  `json:"total_liabilities"`
	TotalEquity      int64  `json:"total_equity"`
	CapitalStock     int64  `json:"capital_stock"`
	Available        bool   `json:"available"`
}

// StockFragment is the merged, denormalized record for one entity: everything
// the upsert layer writes in a single atomic transaction. Competitors never
// contains the entity's own code.
//
// QuotesOnly marks fragments produced by update runs, which append missing
// price dates to an entity that already exists: the company node is matched,
// never rewritten, so stored profile data survives updates that did not
// re-collect it.
type StockFragment struct {
	Company     Company            `json:"company"`
	Quotes      []Quote            `json:"quotes"`
	Finstate    *FinancialSnapshot `json:"finstate,omitempty"`
	Competitors []string           `json:"competitors"`
	QuotesOnly  bool               `json:"quotes_only,omitempty"`
}
