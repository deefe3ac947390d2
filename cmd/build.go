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
package cmd

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/stockelper/stockgraph/collect"
	"github.com/stockelper/stockgraph/config"
	"github.com/stockelper/stockgraph/data"
	"github.com/stockelper/stockgraph/dates"
	"github.com/stockelper/stockgraph/graph"
	"github.com/stockelper/stockgraph/healthcheck"
	"github.com/stockelper/stockgraph/pipeline"
)

var (
	startDate    string
	endDate      string
	streaming    bool
	batchSize    int
	skipExisting bool
	updateOnly   bool
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Collect market data and build the stock knowledge graph",
	Long: `The build sub-command runs the ingestion pipeline for the given date
range. In streaming mode (recommended) entities are processed one at a time
with resume capability: entities already in the graph are skipped unless
--skip-existing=false. With --update-only, only dates missing from already
known entities are collected.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		dateList, err := dates.List(startDate, endDate)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid date range")
		}

		log.Info().Str("Start", startDate).Str("End", endDate).Int("NumDates", len(dateList)).Msg("building stock knowledge graph")

		cfg, err := config.FromViper()
		if err != nil {
			log.Fatal().Err(err).Msg("configuration is incomplete")
		}

		client, err := graph.Connect(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to graph database")
		}
		defer client.Close(ctx)

		if err := client.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("could not ensure graph schema")
		}

		orchestrator := pipeline.New(pipeline.Params{
			Exchange:     collect.NewExchange(cfg),
			Market:       collect.NewMarket(cfg),
			Finstate:     collect.NewFinstate(cfg),
			Competitors:  collect.NewCompetitors(cfg),
			Store:        client,
			Dates:        dateList,
			BatchSize:    batchSize,
			SkipExisting: skipExisting,
		})

		var stats *data.RunStats
		switch {
		case updateOnly:
			stats, err = orchestrator.UpdateExisting(ctx, nil)
		case streaming:
			stats, err = orchestrator.RunStreaming(ctx)
		default:
			stats, err = orchestrator.RunLegacy(ctx)
		}

		if pingErr := healthcheck.Ping(cfg.HealthCheckURL, err == nil); pingErr != nil {
			log.Warn().Err(pingErr).Msg("could not ping health check")
		}

		if err != nil {
			log.Fatal().Err(err).Msg("pipeline run failed")
		}

		if count, err := client.NodeCount(ctx); err == nil {
			log.Info().Int64("TotalNodes", count).Msg("graph node count")
		} else {
			log.Warn().Err(err).Msg("could not count graph nodes")
		}

		log.Info().
			Str("RunID", stats.RunID).
			Int("Total", stats.Total).
			Int("Processed", stats.Processed).
			Int("Skipped", stats.Skipped).
			Int("Updated", stats.Updated).
			Int("Failed", stats.Failed).
			Msg("graph build completed")
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVar(&startDate, "start", "", "start date (format: YYYYMMDD)")
	buildCmd.Flags().StringVar(&endDate, "end", "", "end date (format: YYYYMMDD)")
	buildCmd.Flags().BoolVar(&streaming, "streaming", false, "use streaming mode with resume capability (recommended)")
	buildCmd.Flags().IntVar(&batchSize, "batch-size", pipeline.DefaultBatchSize, "number of entities per batch in streaming mode")
	buildCmd.Flags().BoolVar(&skipExisting, "skip-existing", true, "skip entities that already exist in the graph")
	buildCmd.Flags().BoolVar(&updateOnly, "update-only", false, "only add missing dates to entities already in the graph")

	if err := buildCmd.MarkFlagRequired("start"); err != nil {
		log.Panic().Err(err).Msg("MarkFlagRequired for start failed")
	}
	if err := buildCmd.MarkFlagRequired("end"); err != nil {
		log.Panic().Err(err).Msg("MarkFlagRequired for end failed")
	}
}
