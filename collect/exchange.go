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
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/stockelper/stockgraph/config"
	"github.com/stockelper/stockgraph/data"
	"golang.org/x/time/rate"
)

var ErrExchangeUnavailable = errors.New("exchange listing request failed")

// Exchange fetches the full market listing: the authoritative entity
// universe. This is the only place new securities enter the pipeline, so a
// failure here is an error rather than a default record.
type Exchange struct {
	client  *resty.Client
	limiter *rate.Limiter
	url     string
}

func NewExchange(cfg *config.Config) *Exchange {
	return &Exchange{
		client:  resty.New().SetTimeout(30 * time.Second),
		limiter: rate.NewLimiter(rate.Every(cfg.CollectDelay), 1),
		url:     cfg.ExchangeURL,
	}
}

type exchangeListing struct {
	Rows []exchangeRow `json:"OutBlock_1"`
}

type exchangeRow struct {
	Code              string `json:"ISU_SRT_CD"`
	Name              string `json:"ISU_NM"`
	ShortName         string `json:"ISU_ABBRV"`
	EnglishName       string `json:"ISU_ENG_NM"`
	ListingDate       string `json:"LIST_DD"`
	Market            string `json:"MKT_TP_NM"`
	OutstandingShares string `json:"LIST_SHRS"`
}

// Collect downloads the full listing of tradeable securities. The result
// preserves the exchange's ordering, which fixes entity processing order for
// the rest of the run.
func (ex *Exchange) Collect(ctx context.Context) ([]data.Company, error) {
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ex.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := ex.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/x-www-form-urlencoded").
			SetFormData(map[string]string{
				"bld":         "dbms/MDC/STAT/standard/MDCSTAT01901",
				"mktId":       "ALL",
				"share":       "1",
				"csvxls_isNo": "false",
			}).
			Post(ex.url)
		if err != nil {
			lastErr = err
			log.Warn().Err(err).Int("Attempt", attempt+1).Msg("exchange listing request errored")
			sleepBackoff(attempt)
			continue
		}

		if resp.StatusCode() >= 300 {
			lastErr = fmt.Errorf("%w: status %d", ErrExchangeUnavailable, resp.StatusCode())
			log.Warn().Int("StatusCode", resp.StatusCode()).Int("Attempt", attempt+1).Msg("exchange listing returned an invalid HTTP response")
			sleepBackoff(attempt)
			continue
		}

		var listing exchangeListing
		if err := json.Unmarshal(resp.Body(), &listing); err != nil {
			return nil, fmt.Errorf("could not decode exchange listing: %w", err)
		}

		companies := make([]data.Company, 0, len(listing.Rows))
		for _, row := range listing.Rows {
			companies = append(companies, data.Company{
				Code:              PadCode(row.Code),
				Name:              row.Name,
				ShortName:         row.ShortName,
				EnglishName:       row.EnglishName,
				ListingDate:       row.ListingDate,
				Market:            row.Market,
				OutstandingShares: parseShares(row.OutstandingShares),
			})
		}

		log.Info().Int("NumCompanies", len(companies)).Msg("collected company listing from exchange")
		return companies, nil
	}

	return nil, lastErr
}

// PadCode left-pads an exchange code with zeros to the fixed 6-character
// width used as the entity's natural key.
func PadCode(code string) string {
	for len(code) < 6 {
		code = "0" + code
	}
	return code
}

func parseShares(shares string) int64 {
	shares = strings.ReplaceAll(shares, ",", "")
	val, err := strconv.ParseInt(shares, 10, 64)
	if err != nil {
		return data.DefaultShares
	}
	return val
}
