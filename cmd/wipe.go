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
	"github.com/stockelper/stockgraph/config"
	"github.com/stockelper/stockgraph/graph"
)

var wipeConfirmed bool

// wipeCmd represents the wipe command
var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete every node and relationship from the graph",
	Long: `The wipe sub-command deletes all data from the graph database. The
pipeline itself never deletes data; this is an administrative reset and
requires --yes.`,
	Run: func(cmd *cobra.Command, args []string) {
		if !wipeConfirmed {
			log.Fatal().Msg("refusing to wipe the graph without --yes")
		}

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

		if err := client.Wipe(ctx); err != nil {
			log.Fatal().Err(err).Msg("could not wipe graph")
		}
	},
}

func init() {
	rootCmd.AddCommand(wipeCmd)
	wipeCmd.Flags().BoolVar(&wipeConfirmed, "yes", false, "confirm deletion of all graph data")
}
