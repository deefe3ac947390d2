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
package graph

import (
	"github.com/stockelper/stockgraph/data"
)

// Statement is one parameterized Cypher statement. Record fields always
// travel as bound parameters, never interpolated into the query text.
type Statement struct {
	Cypher string
	Params map[string]any
}

const companyCypher = `
MERGE (c:Company {code: $code})
SET c.name = $name,
    c.short_name = $shortName,
    c.english_name = $englishName,
    c.listing_date = $listingDate,
    c.market = $market,
    c.outstanding_shares = $outstandingShares,
    c.large_cap = $largeCap
MERGE (s:Sector {name: $sector})
MERGE (c)-[:BELONGS_TO]->(s)`

const quoteCypher = `
MATCH (c:Company {code: $code})
MERGE (d:Date {date: $date})
MERGE (p:StockPrice {code: $code, date: $date})
SET p.open = $open, p.high = $high, p.low = $low, p.close = $close
MERGE (i:Indicator {code: $code, date: $date})
SET i.eps = $eps, i.pbr = $pbr, i.per = $per
MERGE (c)-[:HAS_STOCK_PRICE]->(p)
MERGE (p)-[:RECORDED_ON]->(d)
MERGE (c)-[:HAS_INDICATOR]->(i)
MERGE (i)-[:RECORDED_ON]->(d)`

const finstateCypher = `
MATCH (c:Company {code: $code})
MERGE (f:FinancialStatements {code: $code, year: $year, quarter: $quarter})
SET f.revenue = $revenue,
    f.operating_income = $operatingIncome,
    f.net_income = $netIncome,
    f.total_assets = $totalAssets,
    f.total_liabilities = $totalLiabilities,
    f.total_equity = $totalEquity,
    f.capital_stock = $capitalStock,
    f.available = $available
MERGE (c)-[:HAS_FINANCIAL_STATEMENTS]->(f)`

const competitorCypher = `
MATCH (c:Company {code: $code})
MERGE (o:Company {code: $competitor})
MERGE (c)-[:HAS_COMPETITOR]->(o)`

func companyStatement(company data.Company) Statement {
	return Statement{
		Cypher: companyCypher,
		Params: map[string]any{
			"code":              company.Code,
			"name":              company.Name,
			"shortName":         company.ShortName,
			"englishName":       company.EnglishName,
			"listingDate":       company.ListingDate,
			"market":            company.Market,
			"outstandingShares": company.OutstandingShares,
			"largeCap":          company.LargeCap,
			"sector":            company.Sector,
		},
	}
}

func quoteStatement(quote data.Quote) Statement {
	return Statement{
		Cypher: quoteCypher,
		Params: map[string]any{
			"code":  quote.Code,
			"date":  quote.Date,
			"open":  quote.Open,
			"high":  quote.High,
			"low":   quote.Low,
			"close": quote.Close,
			"eps":   quote.EPS,
			"pbr":   quote.PBR,
			"per":   quote.PER,
		},
	}
}

func finstateStatement(fs *data.FinancialSnapshot) Statement {
	return Statement{
		Cypher: finstateCypher,
		Params: map[string]any{
			"code":             fs.Code,
			"year":             fs.Year,
			"quarter":          fs.Quarter,
			"revenue":          fs.Revenue,
			"operatingIncome":  fs.OperatingIncome,
			"netIncome":        fs.NetIncome,
			"totalAssets":      fs.TotalAssets,
			"totalLiabilities": fs.TotalLiabilities,
			"totalEquity":      fs.TotalEquity,
			"capitalStock":     fs.CapitalStock,
			"available":        fs.Available,
		},
	}
}

func competitorStatement(code, competitor string) Statement {
	return Statement{
		Cypher: competitorCypher,
		Params: map[string]any{
			"code":       code,
			"competitor": competitor,
		},
	}
}

// FragmentStatements expands one merged entity record into the ordered list
// of create-or-merge statements that together form its graph fragment. Nodes
// carrying per-date or per-quarter values are keyed by their natural identity
// (code plus date or reporting period) so re-ingesting converges instead of
// duplicating, and attribute collisions between entities cannot coalesce
// nodes.
//
// QuotesOnly fragments expand to price/indicator statements alone: the
// company node is matched by the quote statements but its attributes and
// sector link are left untouched.
func FragmentStatements(frag *data.StockFragment) []Statement {
	if frag.QuotesOnly {
		statements := make([]Statement, 0, len(frag.Quotes))
		for _, quote := range frag.Quotes {
			statements = append(statements, quoteStatement(quote))
		}
		return statements
	}

	statements := make([]Statement, 0, 2+len(frag.Quotes)+len(frag.Competitors))
	statements = append(statements, companyStatement(frag.Company))

	for _, quote := range frag.Quotes {
		statements = append(statements, quoteStatement(quote))
	}

	if frag.Finstate != nil {
		statements = append(statements, finstateStatement(frag.Finstate))
	}

	for _, competitor := range frag.Competitors {
		if competitor == frag.Company.Code {
			continue
		}
		statements = append(statements, competitorStatement(frag.Company.Code, competitor))
	}

	return statements
}
