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
	"time"

	"github.com/rs/zerolog/log"
	"github.com/stockelper/stockgraph/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Competitors reads market-competitor links from a MongoDB collection. The
// store is best-effort: any connectivity failure yields an empty result for
// all securities instead of aborting the run.
type Competitors struct {
	uri        string
	database   string
	collection string
}

func NewCompetitors(cfg *config.Config) *Competitors {
	return &Competitors{
		uri:        cfg.CompetitorURI,
		database:   cfg.CompetitorDatabase,
		collection: cfg.CompetitorCollection,
	}
}

type competitorDoc struct {
	Code        string `bson:"_id"`
	Competitors []struct {
		Code string `bson:"code"`
	} `bson:"competitors"`
}

func (c *Competitors) connect(ctx context.Context) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(c.uri).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return client, nil
}

// Collect returns competitor codes keyed by security code. Codes are
// zero-padded; an unreachable store logs a warning and returns an empty map.
func (c *Competitors) Collect(ctx context.Context) map[string][]string {
	links := make(map[string][]string)

	client, err := c.connect(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("competitor store unreachable, continuing with no competitor links")
		return links
	}
	defer func() {
		if err := client.Disconnect(ctx); err != nil {
			log.Warn().Err(err).Msg("error disconnecting from competitor store")
		}
	}()

	coll := client.Database(c.database).Collection(c.collection)
	cursor, err := coll.Find(ctx, bson.D{})
	if err != nil {
		log.Warn().Err(err).Msg("competitor query failed, continuing with no competitor links")
		return links
	}

	var docs []competitorDoc
	if err := cursor.All(ctx, &docs); err != nil {
		log.Warn().Err(err).Msg("could not decode competitor documents")
		return links
	}

	for _, doc := range docs {
		codes := make([]string, 0, len(doc.Competitors))
		for _, competitor := range doc.Competitors {
			if competitor.Code != "" {
				codes = append(codes, PadCode(competitor.Code))
			}
		}
		links[PadCode(doc.Code)] = codes
	}

	log.Info().Int("NumDocuments", len(docs)).Msg("collected competitor links")
	return links
}

// Seed upserts competitor links into the store, one document per security.
// Used by the seed command to load curated link lists.
func (c *Competitors) Seed(ctx context.Context, links map[string][]string) error {
	client, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(ctx); err != nil {
			log.Warn().Err(err).Msg("error disconnecting from competitor store")
		}
	}()

	coll := client.Database(c.database).Collection(c.collection)

	for code, competitors := range links {
		docs := make([]bson.M, 0, len(competitors))
		for _, competitor := range competitors {
			docs = append(docs, bson.M{"code": competitor})
		}

		_, err := coll.UpdateOne(ctx,
			bson.M{"_id": code},
			bson.M{"$set": bson.M{"competitors": docs}},
			options.Update().SetUpsert(true))
		if err != nil {
			return err
		}
	}

	return nil
}
