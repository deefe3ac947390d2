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
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	viper.Reset()

	viper.Set("graph.uri", "neo4j://localhost:7687")
	viper.Set("graph.user", "neo4j")
	viper.Set("graph.password", "secret")
	viper.Set("market.appkey", "key")
	viper.Set("market.appsecret", "secret")
	viper.Set("finstate.apikey", "apikey")
	viper.Set("competitors.uri", "mongodb://localhost:27017")
	viper.Set("competitors.database", "stocks")
	viper.Set("competitors.collection", "competitors")

	t.Cleanup(viper.Reset)
}

func TestFromViper(t *testing.T) {
	setRequired(t)

	cfg, err := FromViper()
	require.NoError(t, err)

	assert.Equal(t, "neo4j://localhost:7687", cfg.GraphURI)
	assert.Equal(t, "stocks", cfg.CompetitorDatabase)

	// defaults
	assert.NotEmpty(t, cfg.ExchangeURL)
	assert.NotEmpty(t, cfg.MarketURL)
	assert.NotEmpty(t, cfg.FinstateURL)
	assert.Equal(t, 100*time.Millisecond, cfg.CollectDelay)
	assert.Empty(t, cfg.HealthCheckURL)
}

func TestFromViperMissingKey(t *testing.T) {
	setRequired(t)
	viper.Set("graph.password", "")

	_, err := FromViper()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingKey)
	assert.Contains(t, err.Error(), "graph.password")
}

func TestFromViperDelayOverride(t *testing.T) {
	setRequired(t)
	viper.Set("collect.delay", "250ms")

	cfg, err := FromViper()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.CollectDelay)
}
