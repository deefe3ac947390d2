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
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/stockelper/stockgraph/config"
	"github.com/stockelper/stockgraph/graph"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Display information about the stock knowledge graph",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		cfg, err := config.FromViper()
		if err != nil {
			log.Fatal().Err(err).Msg("configuration is incomplete")
		}

		client, err := graph.Connect(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to graph database")
		}
		defer client.Close(ctx)

		known, err := client.KnownCodes(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not query known entities")
		}

		count, err := client.NodeCount(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not count graph nodes")
		}

		fmt.Printf("Graph: %s\n", cfg.GraphURI)
		fmt.Printf("Companies: %d\n", len(known))
		fmt.Printf("Total nodes: %d\n", count)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
