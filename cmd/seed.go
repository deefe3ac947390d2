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
	"os"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/stockelper/stockgraph/collect"
	"github.com/stockelper/stockgraph/config"
)

type competitorRow struct {
	Code       string `csv:"code"`
	Competitor string `csv:"competitor"`
}

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed <competitors.csv>",
	Short: "Load competitor links into the competitor store",
	Long: `The seed sub-command loads a curated competitor link list into the
competitor store. The CSV must have 'code' and 'competitor' columns; rows
linking a security to itself are dropped.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		cfg, err := config.FromViper()
		if err != nil {
			log.Fatal().Err(err).Msg("configuration is incomplete")
		}

		fh, err := os.Open(args[0])
		if err != nil {
			log.Fatal().Err(err).Str("FileName", args[0]).Msg("could not open competitor csv")
		}
		defer fh.Close()

		var rows []*competitorRow
		if err := gocsv.UnmarshalFile(fh, &rows); err != nil {
			log.Fatal().Err(err).Str("FileName", args[0]).Msg("could not parse competitor csv")
		}

		links := make(map[string][]string)
		dropped := 0
		for _, row := range rows {
			code := collect.PadCode(row.Code)
			competitor := collect.PadCode(row.Competitor)
			if code == competitor {
				dropped++
				continue
			}
			links[code] = append(links[code], competitor)
		}

		if dropped > 0 {
			log.Warn().Int("NumDropped", dropped).Msg("dropped self-referencing competitor rows")
		}

		competitors := collect.NewCompetitors(cfg)
		if err := competitors.Seed(ctx, links); err != nil {
			log.Fatal().Err(err).Msg("could not seed competitor store")
		}

		log.Info().Int("NumSecurities", len(links)).Msg("competitor links seeded")
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
