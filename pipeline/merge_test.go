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
	"testing"

	"github.com/stockelper/stockgraph/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mergeCompany() data.Company {
	return data.Company{
		Code:        "000100",
		Name:        "Alpha Pharm",
		ShortName:   "Alpha",
		ListingDate: "2001/03/15",
		Market:      "KOSPI",
	}
}

func TestMergeAppliesProfile(t *testing.T) {
	profile := &data.Profile{Code: "000100", Sector: "Pharmaceuticals", LargeCap: "Y"}

	frag := Merge(mergeCompany(), profile, nil, nil, nil)

	assert.Equal(t, "Pharmaceuticals", frag.Company.Sector)
	assert.Equal(t, "Y", frag.Company.LargeCap)
}

func TestMergeProfileDefaults(t *testing.T) {
	// Missing profile leaves the entity intact with defaults.
	frag := Merge(mergeCompany(), nil, nil, nil, nil)

	assert.Equal(t, data.UnknownSector, frag.Company.Sector)
	assert.Equal(t, data.DefaultLargeCap, frag.Company.LargeCap)
	assert.Empty(t, frag.Quotes)
	assert.Nil(t, frag.Finstate)
	assert.Empty(t, frag.Competitors)
}

func TestMergeProfileCodeMismatchIgnored(t *testing.T) {
	profile := &data.Profile{Code: "999999", Sector: "Banking", LargeCap: "Y"}

	frag := Merge(mergeCompany(), profile, nil, nil, nil)

	assert.Equal(t, data.UnknownSector, frag.Company.Sector)
}

func TestMergeQuotes(t *testing.T) {
	quotes := []data.Quote{
		{Code: "000100", Date: "20250102", Close: 108},
		{Code: "999999", Date: "20250101", Close: 55}, // foreign code dropped
		{Code: "000100", Date: "20250101", Close: 100},
		{Code: "000100", Date: "20250102", Close: 109}, // later duplicate wins
	}

	frag := Merge(mergeCompany(), nil, quotes, nil, nil)

	require.Len(t, frag.Quotes, 2)
	assert.Equal(t, "20250101", frag.Quotes[0].Date)
	assert.Equal(t, "20250102", frag.Quotes[1].Date)
	assert.Equal(t, 109.0, frag.Quotes[1].Close)
}

func TestMergeFinstateCopied(t *testing.T) {
	fs := &data.FinancialSnapshot{Code: "000100", Year: 2024, Quarter: 4, Revenue: 500, Available: true}

	frag := Merge(mergeCompany(), nil, nil, fs, nil)

	require.NotNil(t, frag.Finstate)
	assert.Equal(t, int64(500), frag.Finstate.Revenue)

	// Fragment owns its copy.
	fs.Revenue = 999
	assert.Equal(t, int64(500), frag.Finstate.Revenue)
}

func TestMergeFinstateCodeMismatchDropped(t *testing.T) {
	fs := &data.FinancialSnapshot{Code: "999999", Year: 2024, Quarter: 4}

	frag := Merge(mergeCompany(), nil, nil, fs, nil)

	assert.Nil(t, frag.Finstate)
}

func TestMergeCompetitors(t *testing.T) {
	competitors := []string{"000300", "000100", "", "000200", "000300"}

	frag := Merge(mergeCompany(), nil, nil, nil, competitors)

	assert.Equal(t, []string{"000200", "000300"}, frag.Competitors)
}

func TestMergeDeterministic(t *testing.T) {
	quotes := []data.Quote{
		{Code: "000100", Date: "20250103", Close: 1},
		{Code: "000100", Date: "20250101", Close: 2},
		{Code: "000100", Date: "20250102", Close: 3},
	}
	competitors := []string{"000900", "000500", "000700"}

	first := Merge(mergeCompany(), nil, quotes, nil, competitors)
	second := Merge(mergeCompany(), nil, quotes, nil, competitors)

	assert.Equal(t, first, second)
}
