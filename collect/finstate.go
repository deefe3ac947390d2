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
package collect

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/stockelper/stockgraph/config"
	"github.com/stockelper/stockgraph/data"
	"golang.org/x/time/rate"
)

// Finstate collects quarterly financial statements. Given a target date it
// tries a priority-ordered list of (year, quarter) candidates, most recent
// completed quarter first, and returns the first one with data. When every
// candidate is empty it returns a zero-filled snapshot tagged with the last
// quarter tried and Available=false, preserving graph shape for downstream
// queries.
type Finstate struct {
	client  *resty.Client
	limiter *rate.Limiter
	baseURL string
	apiKey  string
}

func NewFinstate(cfg *config.Config) *Finstate {
	return &Finstate{
		client:  resty.New().SetTimeout(30 * time.Second),
		limiter: rate.NewLimiter(rate.Every(cfg.CollectDelay), 1),
		baseURL: cfg.FinstateURL,
		apiKey:  cfg.FinstateAPIKey,
	}
}

// reportPeriod identifies one quarterly filing. Code is the regulator's
// report type: 11013 Q1, 11012 half-year, 11014 Q3, 11011 annual.
type reportPeriod struct {
	Year    int
	Quarter int
	Code    string
}

const (
	reportQ1     = "11013"
	reportQ2     = "11012"
	reportQ3     = "11014"
	reportAnnual = "11011"
)

// quarterCandidates derives the fallback search order for a target date.
// Filings lag the calendar: in Jan-Mar only the prior year's annual report
// can exist; each later window adds the quarters completed so far.
func quarterCandidates(date string) []reportPeriod {
	year, _ := strconv.Atoi(date[:4])
	month, _ := strconv.Atoi(date[4:6])

	switch {
	case month <= 3:
		return []reportPeriod{{year - 1, 4, reportAnnual}}
	case month <= 6:
		return []reportPeriod{
			{year, 1, reportQ1},
			{year - 1, 4, reportAnnual},
		}
	case month <= 9:
		return []reportPeriod{
			{year, 2, reportQ2},
			{year, 1, reportQ1},
			{year - 1, 4, reportAnnual},
		}
	default:
		return []reportPeriod{
			{year, 3, reportQ3},
			{year, 2, reportQ2},
			{year, 1, reportQ1},
			{year - 1, 4, reportAnnual},
		}
	}
}

type finstateResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	List    []struct {
		AccountID string `json:"account_id"`
		Division  string `json:"fs_div"`
		Amount    string `json:"thstrm_amount"`
	} `json:"list"`
}

// statement fetches one (security, period) filing; nil when the period has
// no data or the request could not be served.
func (f *Finstate) statement(ctx context.Context, code string, period reportPeriod) *data.FinancialSnapshot {
	var body []byte

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			log.Error().Err(err).Str("Code", code).Msg("rate limit wait failed")
			return nil
		}

		resp, err := f.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"crtfc_key":  f.apiKey,
				"corp_code":  code,
				"bsns_year":  strconv.Itoa(period.Year),
				"reprt_code": period.Code,
			}).
			Get(f.baseURL + "/api/fnlttSinglAcnt.json")
		if err != nil {
			log.Warn().Err(err).Str("Code", code).Int("Attempt", attempt+1).Msg("statement request errored")
			sleepBackoff(attempt)
			continue
		}

		if resp.StatusCode() >= 500 || resp.StatusCode() == http.StatusTooManyRequests {
			log.Warn().Int("StatusCode", resp.StatusCode()).Str("Code", code).Int("Attempt", attempt+1).Msg("statement API returned a transient error")
			sleepBackoff(attempt)
			continue
		}

		if resp.StatusCode() >= 400 {
			log.Warn().Int("StatusCode", resp.StatusCode()).Str("Code", code).Msg("statement API rejected the request")
			return nil
		}

		body = resp.Body()
		break
	}

	if body == nil {
		return nil
	}

	var parsed finstateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		log.Warn().Err(err).Str("Code", code).Msg("could not decode statement response")
		return nil
	}

	if parsed.Status != "000" || len(parsed.List) == 0 {
		return nil
	}

	// Prefer consolidated figures, fall back to standalone.
	amounts := make(map[string]int64, len(parsed.List))
	for _, division := range []string{"CFS", "OFS"} {
		for _, row := range parsed.List {
			if row.Division != division {
				continue
			}
			if _, ok := amounts[row.AccountID]; !ok {
				amounts[row.AccountID] = parseAmount(row.Amount)
			}
		}
	}

	return &data.FinancialSnapshot{
		Code:             code,
		Year:             period.Year,
		Quarter:          period.Quarter,
		Revenue:          amounts["ifrs-full_Revenue"],
		OperatingIncome:  amounts["dart_OperatingIncomeLoss"],
		NetIncome:        amounts["ifrs-full_ProfitLoss"],
		TotalAssets:      amounts["ifrs-full_Assets"],
		TotalLiabilities: amounts["ifrs-full_Liabilities"],
		TotalEquity:      amounts["ifrs-full_Equity"],
		CapitalStock:     amounts["ifrs-full_IssuedCapital"],
		Available:        true,
	}
}

// CollectOne resolves the most recent quarter with available data at or
// before the target date for one security.
func (f *Finstate) CollectOne(ctx context.Context, code, date string) data.FinancialSnapshot {
	candidates := quarterCandidates(date)

	for _, period := range candidates {
		if snapshot := f.statement(ctx, code, period); snapshot != nil {
			return *snapshot
		}
	}

	last := candidates[len(candidates)-1]
	log.Warn().Str("Code", code).Int("Year", last.Year).Int("Quarter", last.Quarter).Msg("no financial data available, recording placeholder")

	return data.FinancialSnapshot{
		Code:      code,
		Year:      last.Year,
		Quarter:   last.Quarter,
		Available: false,
	}
}

// Collect returns one snapshot per security, always complete (placeholders
// included).
func (f *Finstate) Collect(ctx context.Context, codes []string, date string) []data.FinancialSnapshot {
	snapshots := make([]data.FinancialSnapshot, 0, len(codes))
	for _, code := range codes {
		snapshots = append(snapshots, f.CollectOne(ctx, code, date))
	}
	return snapshots
}
