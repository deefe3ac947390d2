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
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stockelper/stockgraph/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shrinkBackoff(t *testing.T) {
	t.Helper()
	orig := backoffBase
	backoffBase = time.Millisecond
	t.Cleanup(func() { backoffBase = orig })
}

func TestTokenRefreshOnServerError(t *testing.T) {
	shrinkBackoff(t)

	tokenRequests := 0
	var server *httptest.Server

	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/oauth2/tokenP"):
			tokenRequests++
			fmt.Fprint(w, `{"access_token":"fresh-token"}`)

		case strings.HasPrefix(r.URL.Path, "/uapi/domestic-stock/v1/quotations/search-stock-info"):
			// The stale token gets a server error; the refreshed one succeeds.
			if r.Header.Get("authorization") != "Bearer fresh-token" {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			fmt.Fprint(w, `{"rt_cd":"0","output":{"std_idst_clsf_cd_name":"Semiconductors","kospi200_item_yn":"Y"}}`)

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.MarketToken = "stale-token"

	market := NewMarket(cfg)
	profile := market.Profile(context.Background(), "005930")

	require.NotNil(t, profile)
	assert.Equal(t, 1, tokenRequests, "exactly one transparent refresh")
	assert.Equal(t, "Semiconductors", profile.Sector)
	assert.Equal(t, "Y", profile.LargeCap)
}

func TestCollectSubstitutesDefaults(t *testing.T) {
	shrinkBackoff(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/oauth2/tokenP") {
			fmt.Fprint(w, `{"access_token":"tok"}`)
			return
		}
		// Permanent rejection; the collector must absorb it.
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	market := NewMarket(testConfig(server.URL))
	profiles, quotes := market.Collect(context.Background(), []string{"000100"}, []string{"20250101", "20250102"})

	require.Len(t, profiles, 1)
	assert.Equal(t, data.UnknownSector, profiles[0].Sector)
	assert.Equal(t, data.DefaultLargeCap, profiles[0].LargeCap)

	require.Len(t, quotes, 2)
	for _, quote := range quotes {
		assert.Equal(t, "000100", quote.Code)
		assert.Zero(t, quote.Close)
	}
	assert.Equal(t, "20250101", quotes[0].Date)
	assert.Equal(t, "20250102", quotes[1].Date)
}

func TestQuoteParsing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"rt_cd":"0",
			"output1":{"eps":"5777","pbr":"1.32","per":"10.5"},
			"output2":[{"stck_hgpr":"71000","stck_lwpr":"69800","stck_oprc":"70000","stck_clpr":"70500"}]}`)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.MarketToken = "tok"

	market := NewMarket(cfg)
	quote := market.Quote(context.Background(), "005930", "20250102")

	require.NotNil(t, quote)
	assert.Equal(t, "005930", quote.Code)
	assert.Equal(t, "20250102", quote.Date)
	assert.Equal(t, 70000.0, quote.Open)
	assert.Equal(t, 71000.0, quote.High)
	assert.Equal(t, 69800.0, quote.Low)
	assert.Equal(t, 70500.0, quote.Close)
	assert.Equal(t, 5777.0, quote.EPS)
	assert.Equal(t, 1.32, quote.PBR)
	assert.Equal(t, 10.5, quote.PER)
}

func TestThrottledRequestRetried(t *testing.T) {
	shrinkBackoff(t)

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		// First hit is rate-limited; the retry must see the real data.
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"rt_cd":"0","output":{"std_idst_clsf_cd_name":"Banking","kospi200_item_yn":"N"}}`)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.MarketToken = "tok"

	market := NewMarket(cfg)
	profile := market.Profile(context.Background(), "000100")

	require.NotNil(t, profile, "a rate-limit response is transient, not absence")
	assert.Equal(t, "Banking", profile.Sector)
	assert.Equal(t, 2, calls)
}

func TestRetriesExhausted(t *testing.T) {
	shrinkBackoff(t)

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/oauth2/tokenP") {
			fmt.Fprint(w, `{"access_token":"tok"}`)
			return
		}
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.MarketToken = "tok"

	market := NewMarket(cfg)
	profile := market.Profile(context.Background(), "000100")

	assert.Nil(t, profile, "exhausted retries yield absence, not an error")
	// first attempt, token-refresh retry of the first attempt, then two more
	assert.Equal(t, maxAttempts+1, calls)
}
