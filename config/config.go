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
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

var ErrMissingKey = errors.New("required configuration key is not set")

// Config holds every credential and endpoint the pipeline needs. It is
// materialized once at startup and passed to components explicitly; nothing
// downstream reads viper or the environment directly.
type Config struct {
	// Graph database (Neo4j)
	GraphURI      string
	GraphUser     string
	GraphPassword string
	GraphDatabase string

	// Exchange listing endpoint (entity universe)
	ExchangeURL string

	// Market data API (bearer-token auth)
	MarketURL       string
	MarketAppKey    string
	MarketAppSecret string
	MarketToken     string

	// Financial statement API
	FinstateURL    string
	FinstateAPIKey string

	// Competitor store (MongoDB)
	CompetitorURI        string
	CompetitorDatabase   string
	CompetitorCollection string

	// Fixed delay between outbound calls to rate-limited APIs
	CollectDelay time.Duration

	// Optional healthchecks.io ping URL; empty disables pinging
	HealthCheckURL string
}

// FromViper builds a Config from the already-initialized viper instance.
// Missing required keys return an error that names the key so startup can
// fail before any collection begins.
func FromViper() (*Config, error) {
	viper.SetDefault("exchange.url", "https://data.krx.co.kr/comm/bldAttendant/getJsonData.cmd")
	viper.SetDefault("market.url", "https://openapi.koreainvestment.com:9443")
	viper.SetDefault("finstate.url", "https://opendart.fss.or.kr")
	viper.SetDefault("collect.delay", "100ms")

	cfg := &Config{
		GraphDatabase:  viper.GetString("graph.database"),
		ExchangeURL:    viper.GetString("exchange.url"),
		MarketURL:      viper.GetString("market.url"),
		MarketToken:    viper.GetString("market.token"),
		FinstateURL:    viper.GetString("finstate.url"),
		CollectDelay:   viper.GetDuration("collect.delay"),
		HealthCheckURL: viper.GetString("healthcheck.url"),
	}

	required := []struct {
		key string
		dst *string
	}{
		{"graph.uri", &cfg.GraphURI},
		{"graph.user", &cfg.GraphUser},
		{"graph.password", &cfg.GraphPassword},
		{"market.appkey", &cfg.MarketAppKey},
		{"market.appsecret", &cfg.MarketAppSecret},
		{"finstate.apikey", &cfg.FinstateAPIKey},
		{"competitors.uri", &cfg.CompetitorURI},
		{"competitors.database", &cfg.CompetitorDatabase},
		{"competitors.collection", &cfg.CompetitorCollection},
	}

	for _, req := range required {
		val := viper.GetString(req.key)
		if val == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingKey, req.key)
		}
		*req.dst = val
	}

	if cfg.CollectDelay <= 0 {
		cfg.CollectDelay = 100 * time.Millisecond
	}

	return cfg, nil
}
