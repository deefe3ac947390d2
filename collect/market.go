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
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/stockelper/stockgraph/config"
	"github.com/stockelper/stockgraph/data"
	"golang.org/x/time/rate"
)

var ErrTokenRequest = errors.New("access token request failed")

// Market collects sector profiles and daily price/indicator quotes from the
// bearer-token market data API. Per-security failures are absorbed: after the
// retry budget is exhausted the caller gets a documented default record
// instead of an error. A 5xx on the first attempt is treated as possible
// token expiry and triggers one transparent credential refresh before the
// generic backoff path.
type Market struct {
	client  *resty.Client
	limiter *rate.Limiter

	baseURL   string
	appKey    string
	appSecret string
	token     string
}

func NewMarket(cfg *config.Config) *Market {
	return &Market{
		client:    resty.New().SetTimeout(30 * time.Second),
		limiter:   rate.NewLimiter(rate.Every(cfg.CollectDelay), 1),
		baseURL:   cfg.MarketURL,
		appKey:    cfg.MarketAppKey,
		appSecret: cfg.MarketAppSecret,
		token:     cfg.MarketToken,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

type profileResponse struct {
	ReturnCode string `json:"rt_cd"`
	Message    string `json:"msg1"`
	Output     struct {
		Sector   string `json:"std_idst_clsf_cd_name"`
		LargeCap string `json:"kospi200_item_yn"`
	} `json:"output"`
}

type priceResponse struct {
	ReturnCode string `json:"rt_cd"`
	Message    string `json:"msg1"`
	Output1    struct {
		EPS string `json:"eps"`
		PBR string `json:"pbr"`
		PER string `json:"per"`
	} `json:"output1"`
	Output2 []struct {
		High  string `json:"stck_hgpr"`
		Low   string `json:"stck_lwpr"`
		Open  string `json:"stck_oprc"`
		Close string `json:"stck_clpr"`
	} `json:"output2"`
}

// RefreshToken requests a new access token and replaces the current one.
func (m *Market) RefreshToken(ctx context.Context) error {
	body := map[string]string{
		"grant_type": "client_credentials",
		"appkey":     m.appKey,
		"appsecret":  m.appSecret,
	}

	var tok tokenResponse
	resp, err := m.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(m.baseURL + "/oauth2/tokenP")
	if err != nil {
		return fmt.Errorf("%w: %s", ErrTokenRequest, err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("%w: status %d", ErrTokenRequest, resp.StatusCode())
	}

	if err := json.Unmarshal(resp.Body(), &tok); err != nil {
		return fmt.Errorf("%w: %s", ErrTokenRequest, err)
	}

	m.token = tok.AccessToken
	log.Info().Msg("market access token refreshed")
	return nil
}

func (m *Market) ensureToken(ctx context.Context) error {
	if m.token != "" {
		return nil
	}
	return m.RefreshToken(ctx)
}

func (m *Market) headers(trID string) map[string]string {
	return map[string]string{
		"Content-Type":  "application/json",
		"authorization": "Bearer " + m.token,
		"appkey":        m.appKey,
		"appsecret":     m.appSecret,
		"tr_id":         trID,
		"custtype":      "P",
	}
}

// get performs one rate-limited API request with bounded retries. On a 5xx
// during the first attempt it refreshes the access token once and retries the
// same request before falling back to exponential backoff. It returns nil on
// exhaustion; callers substitute defaults.
func (m *Market) get(ctx context.Context, code, path, trID string, params map[string]string) []byte {
	refreshed := false

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := m.limiter.Wait(ctx); err != nil {
			log.Error().Err(err).Str("Code", code).Msg("rate limit wait failed")
			return nil
		}

		resp, err := m.client.R().
			SetContext(ctx).
			SetHeaders(m.headers(trID)).
			SetQueryParams(params).
			Get(m.baseURL + path)
		if err != nil {
			log.Warn().Err(err).Str("Code", code).Int("Attempt", attempt+1).Msg("market request errored")
			sleepBackoff(attempt)
			continue
		}

		if resp.StatusCode() == http.StatusTooManyRequests {
			log.Warn().Str("Code", code).Int("Attempt", attempt+1).Msg("market API throttled the request")
			sleepBackoff(attempt)
			continue
		}

		if resp.StatusCode() >= 500 {
			log.Warn().Int("StatusCode", resp.StatusCode()).Str("Code", code).Int("Attempt", attempt+1).Msg("market API returned a server error")

			// A 5xx on the first attempt usually means the token expired.
			if attempt == 0 && !refreshed {
				refreshed = true
				if err := m.RefreshToken(ctx); err != nil {
					log.Error().Err(err).Str("Code", code).Msg("token refresh failed")
				} else {
					attempt--
					continue
				}
			}

			sleepBackoff(attempt)
			continue
		}

		if resp.StatusCode() >= 400 {
			// Permanent (throttling handled above): treated as absence.
			log.Warn().Int("StatusCode", resp.StatusCode()).Str("Code", code).Msg("market API rejected the request")
			return nil
		}

		return resp.Body()
	}

	log.Error().Str("Code", code).Msg("market request retries exhausted")
	return nil
}

// Profile returns the sector classification for one security, or nil when
// the source is unavailable.
func (m *Market) Profile(ctx context.Context, code string) *data.Profile {
	body := m.get(ctx, code, "/uapi/domestic-stock/v1/quotations/search-stock-info", "CTPF1002R",
		map[string]string{
			"PRDT_TYPE_CD": "300",
			"PDNO":         code,
		})
	if body == nil {
		return nil
	}

	var parsed profileResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		log.Warn().Err(err).Str("Code", code).Msg("could not decode profile response")
		return nil
	}

	if parsed.ReturnCode != "0" {
		log.Warn().Str("Code", code).Str("Message", parsed.Message).Msg("profile query rejected")
		return nil
	}

	return &data.Profile{
		Code:     code,
		Sector:   parsed.Output.Sector,
		LargeCap: parsed.Output.LargeCap,
	}
}

// Quote returns the price observation for one security on one date, or nil
// when the source is unavailable.
func (m *Market) Quote(ctx context.Context, code, date string) *data.Quote {
	body := m.get(ctx, code, "/uapi/domestic-stock/v1/quotations/inquire-daily-itemchartprice", "FHKST03010100",
		map[string]string{
			"FID_COND_MRKT_DIV_CODE": "J",
			"FID_INPUT_ISCD":         code,
			"FID_INPUT_DATE_1":       date,
			"FID_INPUT_DATE_2":       date,
			"FID_PERIOD_DIV_CODE":    "D",
			"FID_ORG_ADJ_PRC":        "1",
		})
	if body == nil {
		return nil
	}

	var parsed priceResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		log.Warn().Err(err).Str("Code", code).Str("Date", date).Msg("could not decode price response")
		return nil
	}

	if parsed.ReturnCode != "0" || len(parsed.Output2) == 0 {
		log.Warn().Str("Code", code).Str("Date", date).Str("Message", parsed.Message).Msg("no price data")
		return nil
	}

	day := parsed.Output2[0]
	return &data.Quote{
		Code:  code,
		Date:  date,
		Open:  parseFloat(day.Open),
		High:  parseFloat(day.High),
		Low:   parseFloat(day.Low),
		Close: parseFloat(day.Close),
		EPS:   parseFloat(parsed.Output1.EPS),
		PBR:   parseFloat(parsed.Output1.PBR),
		PER:   parseFloat(parsed.Output1.PER),
	}
}

// Collect gathers profiles and dated quotes for the given securities. The
// result is always complete: securities or dates the API could not serve get
// default records (unknown sector, zero prices) so downstream merge keeps the
// entity.
func (m *Market) Collect(ctx context.Context, codes []string, dts []string) ([]data.Profile, []data.Quote) {
	if err := m.ensureToken(ctx); err != nil {
		log.Error().Err(err).Msg("could not obtain market access token")
	}

	profiles := make([]data.Profile, 0, len(codes))
	for _, code := range codes {
		profile := m.Profile(ctx, code)
		if profile == nil {
			profile = &data.Profile{
				Code:     code,
				Sector:   data.UnknownSector,
				LargeCap: data.DefaultLargeCap,
			}
		}
		if profile.Sector == "" {
			profile.Sector = data.UnknownSector
		}
		profiles = append(profiles, *profile)
	}

	quotes := make([]data.Quote, 0, len(codes)*len(dts))
	for _, date := range dts {
		for _, code := range codes {
			quote := m.Quote(ctx, code, date)
			if quote == nil {
				quote = &data.Quote{Code: code, Date: date}
			}
			quotes = append(quotes, *quote)
		}
	}

	return profiles, quotes
}
