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

// Package graph is the upsert layer over the Neo4j knowledge graph. Every
// write is a create-or-merge keyed by natural identity, and all statements
// for one entity run in a single transaction: either the whole fragment
// lands or none of it does, which is what makes resuming safe.
package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
	"github.com/stockelper/stockgraph/config"
	"github.com/stockelper/stockgraph/data"
)

type Client struct {
	driver   neo4j.DriverWithContext
	database string
}

// Connect opens a driver against the configured graph database and verifies
// connectivity before any collection begins.
func Connect(ctx context.Context, cfg *config.Config) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.GraphURI,
		neo4j.BasicAuth(cfg.GraphUser, cfg.GraphPassword, ""))
	if err != nil {
		return nil, err
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, err
	}

	log.Info().Str("URI", cfg.GraphURI).Msg("connected to graph database")

	return &Client{
		driver:   driver,
		database: cfg.GraphDatabase,
	}, nil
}

func (client *Client) Close(ctx context.Context) {
	if err := client.driver.Close(ctx); err != nil {
		log.Error().Err(err).Msg("error closing graph driver")
	}
}

func (client *Client) session(ctx context.Context) neo4j.SessionWithContext {
	return client.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: client.database})
}

// EnsureSchema creates the uniqueness constraints the upsert layer relies
// on. Idempotent; called at the start of every run before any writes.
func (client *Client) EnsureSchema(ctx context.Context) error {
	constraints := []string{
		"CREATE CONSTRAINT IF NOT EXISTS FOR (c:Company) REQUIRE c.code IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (d:Date) REQUIRE d.date IS UNIQUE",
	}

	session := client.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, constraint := range constraints {
			if _, err := tx.Run(ctx, constraint, nil); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return err
	}

	log.Info().Msg("graph schema constraints ensured")
	return nil
}

// UpsertStock writes one entity's full graph fragment in a single
// transaction.
func (client *Client) UpsertStock(ctx context.Context, frag *data.StockFragment) error {
	statements := FragmentStatements(frag)
	if len(statements) == 0 {
		return nil
	}

	session := client.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, statement := range statements {
			if _, err := tx.Run(ctx, statement.Cypher, statement.Params); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})

	return err
}

// StockExists reports whether the entity has already been written.
func (client *Client) StockExists(ctx context.Context, code string) (bool, error) {
	session := client.session(ctx)
	defer session.Close(ctx)

	exists, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx,
			"MATCH (c:Company {code: $code}) RETURN count(c) > 0 AS exists",
			map[string]any{"code": code})
		if err != nil {
			return false, err
		}

		record, err := result.Single(ctx)
		if err != nil {
			return false, err
		}

		return record.Values[0].(bool), nil
	})
	if err != nil {
		return false, err
	}

	return exists.(bool), nil
}

// KnownCodes returns the identity set of every entity in the graph.
func (client *Client) KnownCodes(ctx context.Context) (map[string]struct{}, error) {
	session := client.session(ctx)
	defer session.Close(ctx)

	codes, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, "MATCH (c:Company) RETURN c.code AS code", nil)
		if err != nil {
			return nil, err
		}

		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}

		known := make(map[string]struct{}, len(records))
		for _, record := range records {
			if code, ok := record.Values[0].(string); ok {
				known[code] = struct{}{}
			}
		}
		return known, nil
	})
	if err != nil {
		return nil, err
	}

	return codes.(map[string]struct{}), nil
}

// KnownDates returns the set of dates already recorded for one entity.
func (client *Client) KnownDates(ctx context.Context, code string) (map[string]struct{}, error) {
	session := client.session(ctx)
	defer session.Close(ctx)

	dates, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx,
			`MATCH (:Company {code: $code})-[:HAS_STOCK_PRICE]->(:StockPrice)-[:RECORDED_ON]->(d:Date)
RETURN d.date AS date`,
			map[string]any{"code": code})
		if err != nil {
			return nil, err
		}

		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}

		known := make(map[string]struct{}, len(records))
		for _, record := range records {
			if date, ok := record.Values[0].(string); ok {
				known[date] = struct{}{}
			}
		}
		return known, nil
	})
	if err != nil {
		return nil, err
	}

	return dates.(map[string]struct{}), nil
}

// NodeCount returns the total node count, an end-of-run diagnostic.
func (client *Client) NodeCount(ctx context.Context) (int64, error) {
	session := client.session(ctx)
	defer session.Close(ctx)

	count, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, "MATCH (n) RETURN count(n) AS total", nil)
		if err != nil {
			return int64(0), err
		}

		record, err := result.Single(ctx)
		if err != nil {
			return int64(0), err
		}

		return record.Values[0].(int64), nil
	})
	if err != nil {
		return 0, err
	}

	return count.(int64), nil
}

// Wipe removes every node and relationship. Administrative; the pipeline
// never deletes data on its own.
func (client *Client) Wipe(ctx context.Context) error {
	session := client.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, "MATCH (n) DETACH DELETE n", nil)
		return nil, err
	})
	if err != nil {
		return err
	}

	log.Warn().Msg("all data deleted from graph database")
	return nil
}
